package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/rohits-web03/blogapi/internal/api/handlers"
	"github.com/rohits-web03/blogapi/internal/api/services"
	"github.com/rohits-web03/blogapi/internal/auth"
	"github.com/rohits-web03/blogapi/internal/config"
	"github.com/rohits-web03/blogapi/internal/mailer"
	"github.com/rohits-web03/blogapi/internal/markdown"
	"github.com/rohits-web03/blogapi/internal/testutil"
	"github.com/rohits-web03/blogapi/internal/utils"
	"github.com/rs/cors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type captureTransport struct {
	mu   sync.Mutex
	msgs []mailer.Message
}

func (c *captureTransport) Send(_ context.Context, m mailer.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, m)
	return nil
}

var tokenInLink = regexp.MustCompile(`token=([A-Za-z0-9_-]+)`)

func (c *captureTransport) lastToken(t *testing.T) string {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	require.NotEmpty(t, c.msgs)
	m := tokenInLink.FindStringSubmatch(c.msgs[len(c.msgs)-1].Text)
	require.Len(t, m, 2)
	return m[1]
}

type testServer struct {
	handler http.Handler
	mail    *captureTransport
}

func newTestServer(t *testing.T, requireVerification bool) *testServer {
	t.Helper()

	db := testutil.NewDB(t)
	codec, err := auth.NewTokenCodec("router-test-secret", "HS256")
	require.NoError(t, err)

	capture := &captureTransport{}
	gateway := mailer.New(config.MailConfig{FrontendURL: "http://localhost:8000"}).WithTransport(capture)

	identity := services.NewIdentity(db, auth.NewHasher(bcrypt.MinCost), codec, auth.NewRevocationSet(), gateway,
		services.IdentityConfig{RequireVerification: requireVerification})
	articles := services.NewArticles(db, markdown.New())

	return &testServer{
		handler: SetupRouter(RouterOptions{
			Handler:  handlers.New(identity, articles),
			Resolver: identity,
			CORS:     cors.Options{AllowedOrigins: []string{"http://localhost:3000"}},
			DB:       db,
		}),
		mail: capture,
	}
}

func (s *testServer) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) login(t *testing.T, email, password string) *httptest.ResponseRecorder {
	t.Helper()
	form := url.Values{"username": {email}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) accessToken(t *testing.T, email string) string {
	t.Helper()
	rec := s.login(t, email, services.TemporaryPassword)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var tok handlers.TokenResponse
	decode(t, rec, &tok)
	require.NotEmpty(t, tok.AccessToken)
	return tok.AccessToken
}

// register creates an account directly (verification disabled) and returns its id.
func (s *testServer) register(t *testing.T, email string) uint {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/v1/user", map[string]string{"email": email}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var res handlers.RegisterResponse
	decode(t, rec, &res)
	return res.ID
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dest any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dest), rec.Body.String())
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var p utils.Payload
	decode(t, rec, &p)
	assert.False(t, p.Success)
	return p.Message
}

func TestRegisterConfirmLogin(t *testing.T) {
	s := newTestServer(t, true)

	rec := s.do(t, http.MethodPost, "/api/v1/user", map[string]string{"email": "alice@example.com"}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var reg handlers.RegisterResponse
	decode(t, rec, &reg)
	assert.Equal(t, "alice@example.com", reg.Email)
	require.NotNil(t, reg.EmailSent)
	assert.True(t, *reg.EmailSent)

	token := s.mail.lastToken(t)
	rec = s.do(t, http.MethodGet, "/api/v1/verify-email?token="+url.QueryEscape(token), nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var conf handlers.VerifyEmailResponse
	decode(t, rec, &conf)
	assert.Equal(t, "alice@example.com", conf.Email)
	assert.True(t, conf.IsActive)

	rec = s.login(t, "alice@example.com", services.TemporaryPassword)
	require.Equal(t, http.StatusOK, rec.Code)
	var tok handlers.TokenResponse
	decode(t, rec, &tok)
	assert.NotEmpty(t, tok.AccessToken)
	assert.Equal(t, "bearer", tok.TokenType)

	rec = s.do(t, http.MethodGet, "/api/v1/verify-email?token="+url.QueryEscape(token), nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/user", map[string]string{"email": "alice@example.com"}, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCrossUserReadDenied(t *testing.T) {
	s := newTestServer(t, false)
	u1 := s.register(t, "u1@example.com")
	u2 := s.register(t, "u2@example.com")
	require.EqualValues(t, 1, u1)
	require.EqualValues(t, 2, u2)

	token := s.accessToken(t, "u1@example.com")

	rec := s.do(t, http.MethodGet, "/api/v1/user/2", nil, token)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/user/1", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	var view map[string]any
	decode(t, rec, &view)
	assert.Equal(t, map[string]any{"email": "u1@example.com", "is_active": true}, view)
}

func TestOwnershipScopedUpdate(t *testing.T) {
	s := newTestServer(t, false)
	s.register(t, "u1@example.com")
	s.register(t, "u2@example.com")
	t1 := s.accessToken(t, "u1@example.com")
	t2 := s.accessToken(t, "u2@example.com")

	rec := s.do(t, http.MethodPost, "/api/v1/articles", map[string]string{"title": "mine", "body": "hello"}, t1)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created handlers.ArticleView
	decode(t, rec, &created)

	path := "/api/v1/articles?article_id=" + itoa(created.ArticleID)
	rec = s.do(t, http.MethodPut, path, map[string]string{"title": "x", "body": "y"}, t2)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPut, path, map[string]string{"title": "x", "body": "**y**"}, t1)
	require.Equal(t, http.StatusAccepted, rec.Code)
	var updated handlers.ArticleView
	decode(t, rec, &updated)
	assert.Equal(t, "x", updated.Title)
	assert.Contains(t, updated.BodyHTML, "<strong>y</strong>")

	rec = s.do(t, http.MethodDelete, path, nil, t2)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = s.do(t, http.MethodDelete, path, nil, t1)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestCascadingDeletion(t *testing.T) {
	s := newTestServer(t, false)
	s.register(t, "u1@example.com")
	s.register(t, "u2@example.com")
	t1 := s.accessToken(t, "u1@example.com")
	t2 := s.accessToken(t, "u2@example.com")

	for i := 0; i < 3; i++ {
		rec := s.do(t, http.MethodPost, "/api/v1/articles", map[string]string{"title": "u1 post", "body": "b"}, t1)
		require.Equal(t, http.StatusCreated, rec.Code)
	}
	rec := s.do(t, http.MethodPost, "/api/v1/articles", map[string]string{"title": "u2 post", "body": "b"}, t2)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/v1/user/delete-account", map[string]string{
		"email":            "u1@example.com",
		"password":         services.TemporaryPassword,
		"confirm_password": services.TemporaryPassword,
	}, t1)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var del map[string]any
	decode(t, rec, &del)
	assert.Equal(t, "3", del["deleted_articles_count"])
	assert.Equal(t, "u1@example.com", del["email"])

	rec = s.do(t, http.MethodGet, "/api/v1/public/articles", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []handlers.PublicArticleView
	decode(t, rec, &list)
	require.Len(t, list, 1)
	assert.Equal(t, "u2 post", list[0].Title)

	rec = s.do(t, http.MethodGet, "/api/v1/articles", nil, t1)
	assert.Equal(t, http.StatusNotFound, rec.Code, "token of a deleted user")
}

func TestDeleteAccount_WrongPasswordAndMismatch(t *testing.T) {
	s := newTestServer(t, false)
	s.register(t, "u1@example.com")
	s.register(t, "u2@example.com")
	t1 := s.accessToken(t, "u1@example.com")

	rec := s.do(t, http.MethodDelete, "/api/v1/user/delete-account", map[string]string{
		"email": "u1@example.com", "password": "a", "confirm_password": "b",
	}, t1)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/v1/user/delete-account", map[string]string{
		"email": "u2@example.com", "password": services.TemporaryPassword, "confirm_password": services.TemporaryPassword,
	}, t1)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/v1/user/delete-account", map[string]string{
		"email": "u1@example.com", "password": "nope", "confirm_password": "nope",
	}, t1)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutRevokesToken(t *testing.T) {
	s := newTestServer(t, false)
	s.register(t, "u1@example.com")
	token := s.accessToken(t, "u1@example.com")

	rec := s.do(t, http.MethodGet, "/api/v1/articles", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	rec = s.do(t, http.MethodPost, "/api/v1/logout", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/articles", nil, token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Token has been revoked", errorMessage(t, rec))

	other := s.accessToken(t, "u1@example.com")
	rec = s.do(t, http.MethodGet, "/api/v1/articles", nil, other)
	assert.Equal(t, http.StatusOK, rec.Code, "a fresh login is unaffected")
}

func TestProtectedRoutesRequireBearer(t *testing.T) {
	s := newTestServer(t, false)

	rec := s.do(t, http.MethodGet, "/api/v1/articles", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))

	rec = s.do(t, http.MethodGet, "/api/v1/articles", nil, "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPublicSearchAndSemantics(t *testing.T) {
	s := newTestServer(t, false)
	s.register(t, "u1@example.com")
	token := s.accessToken(t, "u1@example.com")

	for _, a := range []map[string]string{
		{"title": "python guide", "body": "learn"},
		{"title": "rust guide", "body": "python inside"},
	} {
		rec := s.do(t, http.MethodPost, "/api/v1/articles", a, token)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := s.do(t, http.MethodGet, "/api/v1/public/articles/search?q=python%20guide", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var both []handlers.PublicArticleView
	decode(t, rec, &both)
	assert.Len(t, both, 2)

	rec = s.do(t, http.MethodGet, "/api/v1/public/articles/search?q=rust%20learn", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/v1/public/articles/1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var one map[string]any
	decode(t, rec, &one)
	assert.Equal(t, "<p>learn</p>\n", one["body_html"])
	assert.NotContains(t, one, "body", "public view hides the markdown source")

	rec = s.do(t, http.MethodGet, "/api/v1/public/articles?limit=0", nil, "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/public/articles/99", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestArticleBodyValidation(t *testing.T) {
	s := newTestServer(t, false)
	s.register(t, "u1@example.com")
	token := s.accessToken(t, "u1@example.com")

	rec := s.do(t, http.MethodPost, "/api/v1/articles", map[string]string{"title": " ", "body": "b"}, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/articles", map[string]string{"title": strings.Repeat("t", 31), "body": "b"}, token)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/articles", `{"title": "t", "body":`, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/articles", `{"title": 5, "body": "b"}`, token)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/articles", `{"title": "t", "body": "b", "tags": []}`, token)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(t, http.MethodPut, "/api/v1/articles?article_id=abc", map[string]string{"title": "t", "body": "b"}, token)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestChangePasswordFlow(t *testing.T) {
	s := newTestServer(t, false)
	id := s.register(t, "u1@example.com")

	rec := s.do(t, http.MethodPost, "/api/v1/change-password", map[string]string{
		"username": "u1@example.com", "temp_password": services.TemporaryPassword, "new_password": "chosen-pass",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res handlers.ChangePasswordResponse
	decode(t, rec, &res)
	assert.Equal(t, id, res.UserID)
	assert.NotEmpty(t, res.AccessToken)
	assert.True(t, res.EmailSent)

	assert.Equal(t, http.StatusForbidden, s.login(t, "u1@example.com", services.TemporaryPassword).Code)
	assert.Equal(t, http.StatusOK, s.login(t, "u1@example.com", "chosen-pass").Code)

	rec = s.do(t, http.MethodPost, "/api/v1/change-password", map[string]string{
		"username": "u1@example.com", "temp_password": "wrong", "new_password": "x",
	}, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChangePassword_OverlongPasswordIsUnprocessable(t *testing.T) {
	s := newTestServer(t, false)
	s.register(t, "u2@example.com")

	rec := s.do(t, http.MethodPost, "/api/v1/change-password", map[string]string{
		"username": "u2@example.com", "temp_password": services.TemporaryPassword, "new_password": strings.Repeat("p", 80),
	}, "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "New password must be at most 72 bytes", errorMessage(t, rec))
	assert.Equal(t, http.StatusForbidden, s.login(t, "u2@example.com", services.TemporaryPassword).Code)
}

func TestLogin_MissingFields(t *testing.T) {
	s := newTestServer(t, false)
	assert.Equal(t, http.StatusUnprocessableEntity, s.login(t, "", "x").Code)
	assert.Equal(t, http.StatusForbidden, s.login(t, "ghost@example.com", "x").Code)
}

func TestOperationalRoutes(t *testing.T) {
	s := newTestServer(t, false)

	rec := s.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	rec = s.do(t, http.MethodGet, "/readyz", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	s.do(t, http.MethodGet, "/api/v1/public/articles", nil, "")
	rec = s.do(t, http.MethodGet, "/metrics", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "blogapi_http_request_duration_seconds")

	rec = s.do(t, http.MethodGet, "/health", nil, "")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func itoa(n uint) string {
	return strconv.FormatUint(uint64(n), 10)
}
