package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rohits-web03/blogapi/internal/api/services"
	"github.com/rohits-web03/blogapi/internal/auth"
	"github.com/rohits-web03/blogapi/internal/models"
	"github.com/rohits-web03/blogapi/internal/utils"
)

type contextKey string

const (
	userKey   contextKey = "user"
	tokenKey  contextKey = "token"
	claimsKey contextKey = "claims"
)

// SubjectResolver maps a bearer token to the user it was issued for.
type SubjectResolver interface {
	Resolve(ctx context.Context, token string) (*models.User, *auth.Claims, error)
}

// AuthMiddleware requires "Authorization: Bearer <token>" and stores the
// resolved user, claims and raw token on the request context.
func AuthMiddleware(resolver SubjectResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := bearerToken(r)
			if !ok {
				w.Header().Set("WWW-Authenticate", "Bearer")
				utils.ErrorResponse(w, http.StatusUnauthorized, "Not authenticated")
				return
			}

			user, claims, err := resolver.Resolve(r.Context(), token)
			if err != nil {
				status := http.StatusUnauthorized
				message := "Could not validate credentials"
				var se *services.Error
				if errors.As(err, &se) {
					message = se.Reason
					switch se.Kind {
					case services.KindNotFound:
						status = http.StatusNotFound
					case services.KindUnavailable:
						status = http.StatusServiceUnavailable
					case services.KindInternal:
						status = http.StatusInternalServerError
					}
				}
				if status == http.StatusUnauthorized {
					w.Header().Set("WWW-Authenticate", "Bearer")
				}
				utils.ErrorResponse(w, status, message)
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			ctx = context.WithValue(ctx, tokenKey, token)
			ctx = context.WithValue(ctx, claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func CurrentUser(ctx context.Context) *models.User {
	u, _ := ctx.Value(userKey).(*models.User)
	return u
}

func CurrentToken(ctx context.Context) (string, *auth.Claims) {
	token, _ := ctx.Value(tokenKey).(string)
	claims, _ := ctx.Value(claimsKey).(*auth.Claims)
	return token, claims
}
