package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boomchecker/moderation-gateway/internal/apperrors"
	"github.com/boomchecker/moderation-gateway/internal/classifier"
	"github.com/boomchecker/moderation-gateway/internal/config"
	"github.com/boomchecker/moderation-gateway/internal/database"
	"github.com/boomchecker/moderation-gateway/internal/middleware"
	"github.com/boomchecker/moderation-gateway/internal/models"
	"github.com/boomchecker/moderation-gateway/internal/repositories"
	"github.com/boomchecker/moderation-gateway/internal/services"
	"github.com/boomchecker/moderation-gateway/internal/validators"
)

const testAdminToken = "bootstrap-admin-token"

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	app    *App
	router *gin.Engine
	usage  *repositories.UsageRepository
}

// setupTestApp wires the full app over an in-memory SQLite database
func setupTestApp(t *testing.T, clf classifier.Classifier, limit int) *testEnv {
	t.Helper()
	return setupTestAppWithConfig(t, clf, &config.Config{RateLimitPerMinute: limit})
}

func setupTestAppWithConfig(t *testing.T, clf classifier.Classifier, cfg *config.Config) *testEnv {
	t.Helper()

	db, err := database.InitDB(database.TestConfig(), zerolog.Nop())
	require.NoError(t, err)

	usage := repositories.NewUsageRepository(db)
	stores := &Stores{
		Tokens: repositories.NewTokenRepository(db),
		Usage:  usage,
		ping:   func(ctx context.Context) error { return database.Ping(ctx, db) },
		close:  func() error { return database.Close(db) },
	}

	cfg.AdminToken = testAdminToken
	cfg.RateLimitSweepInterval = time.Minute

	app, err := NewAppWith(cfg, zerolog.Nop(), stores, clf)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	require.NoError(t, app.SeedAdmin(context.Background()))

	return &testEnv{app: app, router: app.Router(), usage: usage}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body []byte, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) createToken(t *testing.T, caller string, isAdmin bool) string {
	t.Helper()
	body, _ := json.Marshal(map[string]bool{"is_admin": isAdmin})
	rec := e.do(t, http.MethodPost, "/auth/tokens", caller, body, "application/json")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var created models.TokenCreatedResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, isAdmin, created.IsAdmin)
	return created.Token
}

func errorReason(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body middleware.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func multipartImage(t *testing.T, contentType string, data []byte) ([]byte, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="image.png"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	return buf.Bytes(), w.FormDataContentType()
}

func pngBytes(n int) []byte {
	data := make([]byte, n)
	copy(data, "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	return data
}

// Admin A creates non-admin B; B cannot list tokens, A can and sees both
func TestRouter_AdminScenario(t *testing.T) {
	env := setupTestApp(t, classifier.NewStatic(), 1000)

	adminA := env.createToken(t, testAdminToken, true)
	userB := env.createToken(t, adminA, false)

	rec := env.do(t, http.MethodGet, "/auth/tokens", userB, nil, "")
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, apperrors.ReasonForbidden, errorReason(t, rec))

	rec = env.do(t, http.MethodGet, "/auth/tokens", adminA, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var tokens []models.Token
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tokens))
	values := make(map[string]bool)
	for _, tok := range tokens {
		values[tok.Token] = tok.IsAdmin
	}
	assert.Equal(t, true, values[adminA])
	isAdmin, found := values[userB]
	assert.True(t, found)
	assert.False(t, isAdmin)
}

func TestRouter_DeleteToken(t *testing.T) {
	env := setupTestApp(t, classifier.NewStatic(), 1000)
	user := env.createToken(t, testAdminToken, false)

	// Non-admin gets 403 even for a nonexistent target
	rec := env.do(t, http.MethodDelete, "/auth/tokens/does-not-exist", user, nil, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodDelete, "/auth/tokens/"+user, testAdminToken, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodDelete, "/auth/tokens/"+user, testAdminToken, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, apperrors.ReasonNotFound, errorReason(t, rec))

	// The deleted token no longer authenticates
	rec = env.do(t, http.MethodPost, "/moderate", user, nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_CreateToken_BadJSON(t *testing.T) {
	env := setupTestApp(t, classifier.NewStatic(), 1000)

	for _, body := range []string{"{not json", `{"is_admin": "yes"}`} {
		rec := env.do(t, http.MethodPost, "/auth/tokens", testAdminToken, []byte(body), "application/json")
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var resp middleware.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, apperrors.ReasonInvalidInput, resp.Error)
		assert.Contains(t, resp.Message, `{"is_admin": bool}`)
		assert.NotContains(t, resp.Message, "CreateTokenRequest")
		assert.NotContains(t, resp.Message, "Go struct")
	}

	rec := env.do(t, http.MethodPost, "/auth/tokens", testAdminToken, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_Unauthenticated(t *testing.T) {
	env := setupTestApp(t, classifier.NewStatic(), 1000)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/auth/tokens"},
		{http.MethodPost, "/auth/tokens"},
		{http.MethodPost, "/moderate"},
	} {
		rec := env.do(t, tc.method, tc.path, "", nil, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, tc.path)
		assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))

		rec = env.do(t, tc.method, tc.path, "wrong", nil, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, tc.path)
	}
}

func TestRouter_Moderate(t *testing.T) {
	env := setupTestApp(t, classifier.NewStatic(), 1000)
	user := env.createToken(t, testAdminToken, false)

	body, ct := multipartImage(t, "image/png", pngBytes(2048))
	rec := env.do(t, http.MethodPost, "/moderate", user, body, ct)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result classifier.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Safe)
	assert.Len(t, result.Categories, len(classifier.Categories))

	records, err := env.usage.ListByToken(context.Background(), user, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(2048), records[0].FileSize)
	assert.Equal(t, models.UsageStatusSuccess, records[0].Status)
}

func TestRouter_Moderate_Validation(t *testing.T) {
	env := setupTestApp(t, classifier.NewStatic(), 1000)
	user := env.createToken(t, testAdminToken, false)

	body, ct := multipartImage(t, "text/plain", []byte("hello"))
	rec := env.do(t, http.MethodPost, "/moderate", user, body, ct)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body, ct = multipartImage(t, "image/png", pngBytes(int(validators.MaxFileSize)+1))
	rec = env.do(t, http.MethodPost, "/moderate", user, body, ct)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body, ct = multipartImage(t, "image/png", pngBytes(int(validators.MaxFileSize)))
	rec = env.do(t, http.MethodPost, "/moderate", user, body, ct)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/moderate", user, []byte("x"), "application/octet-stream")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_Moderate_ClassifierFailure(t *testing.T) {
	env := setupTestApp(t, &classifier.Static{Err: errors.New("backend unavailable")}, 1000)
	user := env.createToken(t, testAdminToken, false)

	body, ct := multipartImage(t, "image/png", pngBytes(128))
	rec := env.do(t, http.MethodPost, "/moderate", user, body, ct)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, apperrors.ReasonUpstreamFailure, errorReason(t, rec))
	assert.NotContains(t, rec.Body.String(), "backend unavailable")

	records, err := env.usage.ListByToken(context.Background(), user, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, models.UsageStatusError, records[0].Status)
}

func TestRouter_RateLimit(t *testing.T) {
	env := setupTestApp(t, classifier.NewStatic(), 3)

	for i := 0; i < 3; i++ {
		rec := env.do(t, http.MethodGet, "/", "", nil, "")
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := env.do(t, http.MethodGet, "/", "", nil, "")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, apperrors.ReasonRateLimitExceeded, errorReason(t, rec))

	// Throttling precedes authentication
	rec = env.do(t, http.MethodGet, "/auth/tokens", testAdminToken, nil, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// Health and metrics are never throttled
	rec = env.do(t, http.MethodGet, "/health", "", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodGet, "/metrics", "", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "moderation_gateway_rate_limit_rejections_total 2")
}

// Forwarding headers from an untrusted peer must not change the limiter key
func TestRouter_RateLimit_IgnoresForwardedHeaders(t *testing.T) {
	env := setupTestApp(t, classifier.NewStatic(), 3)

	admitted := 0
	for i := 0; i < 20; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "203.0.113.7:4000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.0.%d", i))
		req.Header.Set("X-Real-IP", fmt.Sprintf("10.1.0.%d", i))

		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)
		if rec.Code == http.StatusOK {
			admitted++
		} else {
			assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		}
	}

	assert.Equal(t, 3, admitted)
}

func TestRouter_RateLimit_TrustedProxy(t *testing.T) {
	env := setupTestAppWithConfig(t, classifier.NewStatic(), &config.Config{
		RateLimitPerMinute: 1,
		TrustedProxies:     []string{"192.0.2.0/24"},
	})

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.0.2.10:5000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i))

		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, "client %d", i)
	}

	// The same forwarded client is throttled behind the proxy
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.10:5000"
	req.Header.Set("X-Forwarded-For", "198.51.100.0")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRouter_Health(t *testing.T) {
	env := setupTestApp(t, classifier.NewStatic(), 10)

	rec := env.do(t, http.MethodGet, "/health", "", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body models.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Status)
	_, err := time.Parse(validators.ISO8601UTC, body.Timestamp)
	assert.NoError(t, err)
}

func TestRouter_Ready(t *testing.T) {
	env := setupTestApp(t, classifier.NewStatic(), 1)

	// Readiness is not throttled
	for i := 0; i < 3; i++ {
		rec := env.do(t, http.MethodGet, "/ready", "", nil, "")
		require.Equal(t, http.StatusOK, rec.Code)

		var body models.HealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "ready", body.Status)
	}

	require.NoError(t, env.app.Stores.Close())

	rec := env.do(t, http.MethodGet, "/ready", "", nil, "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body models.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "unavailable", body.Status)
}

func TestRouter_TokenUsage(t *testing.T) {
	env := setupTestApp(t, classifier.NewStatic(), 1000)
	user := env.createToken(t, testAdminToken, false)

	body, ct := multipartImage(t, "image/png", pngBytes(256))
	for i := 0; i < 3; i++ {
		rec := env.do(t, http.MethodPost, "/moderate", user, body, ct)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	rec := env.do(t, http.MethodGet, "/auth/tokens/"+user+"/usage?limit=2", testAdminToken, nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var report services.UsageReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, user, report.Token)
	assert.True(t, report.Used)
	assert.NotNil(t, report.LastUsed)
	assert.Equal(t, int64(3), report.TotalRequests)
	assert.Len(t, report.Recent, 2)
	assert.Zero(t, report.RecentErrors)

	rec = env.do(t, http.MethodGet, "/auth/tokens/"+user+"/usage", user, nil, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodGet, "/auth/tokens/unknown/usage", testAdminToken, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	for _, limit := range []string{"many", "0x10", "-1", "101"} {
		rec = env.do(t, http.MethodGet, "/auth/tokens/"+user+"/usage?limit="+limit, testAdminToken, nil, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, limit)
	}
}

func TestRouter_Preflight(t *testing.T) {
	env := setupTestApp(t, classifier.NewStatic(), 1)

	rec := env.do(t, http.MethodOptions, "/moderate", "", nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
