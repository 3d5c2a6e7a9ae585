package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	_ "github.com/rohits-web03/blogapi/docs"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rohits-web03/blogapi/internal/api/handlers"
	"github.com/rohits-web03/blogapi/internal/api/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"gorm.io/gorm"
)

const ServiceName = "blogapi"

type RouterOptions struct {
	Handler  *handlers.Handler
	Resolver middleware.SubjectResolver
	CORS     cors.Options
	// DB backs the readiness probe; nil reports ready unconditionally.
	DB *gorm.DB
}

func SetupRouter(opts RouterOptions) http.Handler {
	mainMux := http.NewServeMux()
	c := cors.New(opts.CORS)
	h := opts.Handler

	// ---------- OPERATIONAL ROUTES ----------
	mainMux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK")
	})
	mainMux.HandleFunc("GET /readyz", readiness(opts.DB))
	mainMux.Handle("GET /metrics", promhttp.Handler())
	mainMux.HandleFunc("/docs/", httpSwagger.WrapHandler)

	apiMux := http.NewServeMux()

	// ---------- PUBLIC ROUTES ----------
	apiMux.HandleFunc("POST /user", h.Register)
	apiMux.HandleFunc("GET /verify-email", h.VerifyEmail)
	apiMux.HandleFunc("POST /login", h.Login)
	apiMux.HandleFunc("POST /change-password", h.ChangePassword)

	apiMux.HandleFunc("GET /public/articles", h.PublicArticles)
	apiMux.HandleFunc("GET /public/articles/search", h.SearchArticles)
	apiMux.HandleFunc("GET /public/articles/{id}", h.PublicArticle)

	// ---------- PROTECTED ROUTES ----------
	protected := middleware.AuthMiddleware(opts.Resolver)

	apiMux.Handle("POST /resend-verification", protected(http.HandlerFunc(h.ResendVerification)))
	apiMux.Handle("GET /user/{user_id}", protected(http.HandlerFunc(h.GetUser)))
	apiMux.Handle("DELETE /user/delete-account", protected(http.HandlerFunc(h.DeleteAccount)))
	apiMux.Handle("POST /logout", protected(http.HandlerFunc(h.Logout)))

	apiMux.Handle("GET /articles", protected(http.HandlerFunc(h.ListArticles)))
	apiMux.Handle("GET /articles/{id}", protected(http.HandlerFunc(h.GetArticle)))
	apiMux.Handle("POST /articles", protected(http.HandlerFunc(h.CreateArticle)))
	apiMux.Handle("PUT /articles", protected(http.HandlerFunc(h.UpdateArticle)))
	apiMux.Handle("DELETE /articles", protected(http.HandlerFunc(h.DeleteArticle)))

	mainMux.Handle("/api/v1/",
		http.StripPrefix("/api/v1", middleware.Metrics(apiMux)),
	)

	log.Debug().Msg("router initialized")
	handler := c.Handler(mainMux)
	handler = middleware.Logger(handler)
	return otelhttp.NewHandler(handler, ServiceName)
}

func readiness(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			sqlDB, err := db.DB()
			if err == nil {
				err = sqlDB.PingContext(ctx)
			}
			if err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				fmt.Fprint(w, "not ready")
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ready")
	}
}
