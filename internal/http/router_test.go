package http_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/wisdomhub/filekeep/internal/accounts"
	"github.com/wisdomhub/filekeep/internal/auth"
	httpx "github.com/wisdomhub/filekeep/internal/http"
	"github.com/wisdomhub/filekeep/internal/http/middlewares"
	"github.com/wisdomhub/filekeep/internal/observability"
	"github.com/wisdomhub/filekeep/internal/repo/memory"
	"github.com/wisdomhub/filekeep/internal/security"
	"github.com/wisdomhub/filekeep/internal/storage"
)

func newRouter(t *testing.T, limit int) http.Handler {
	t.Helper()
	return httpx.NewRouter(newDeps(t, limit))
}

func newDeps(t *testing.T, limit int) httpx.Deps {
	t.Helper()

	hasher, err := security.NewHasher(bcrypt.MinCost)
	require.NoError(t, err)
	tokens, err := auth.NewManager("router-secret", time.Hour)
	require.NoError(t, err)
	store, err := storage.NewDiskStore(t.TempDir())
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)
	log := observability.Discard()

	return httpx.Deps{
		Log:            log,
		Accounts:       accounts.NewService(memory.NewUsersRepo(), hasher, tokens, log, prom),
		Store:          store,
		Limiter:        middlewares.NewMemoryLimiter(limit, time.Minute),
		Prom:           prom,
		Gatherer:       reg,
		Env:            "test",
		MaxUploadBytes: 1 << 20,
	}
}

func do(h http.Handler, method, path, contentType string, body []byte, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRouter_FullFlowAcrossMountPoints(t *testing.T) {
	h := newRouter(t, 100)

	w := do(h, http.MethodPost, "/api/auth/register", "application/json",
		[]byte(`{"username":"ada","email":"ada@example.com","password":"pw1"}`), "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))

	w = do(h, http.MethodPost, "/auth/login", "application/json",
		[]byte(`{"email":"ada@example.com","password":"pw1"}`), "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))

	w = do(h, http.MethodGet, "/api/auth/session", "", nil, login.Token)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(h, http.MethodGet, "/auth/session", "", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("email", "ada@example.com"))
	fw, err := mw.CreateFormFile("file", "notes.md")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("# notes"))
	require.NoError(t, mw.Close())

	w = do(h, http.MethodPost, "/auth/upload", mw.FormDataContentType(), buf.Bytes(), "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(h, http.MethodGet, "/api/auth/files?email=ada@example.com", "", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "-notes.md")
}

func TestRouter_ContentTypeEnforced(t *testing.T) {
	h := newRouter(t, 100)

	w := do(h, http.MethodPost, "/auth/register", "text/plain", []byte(`{}`), "")
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)

	w = do(h, http.MethodPost, "/auth/upload", "application/json", []byte(`{}`), "")
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestRouter_LoginRateLimited(t *testing.T) {
	h := newRouter(t, 2)
	body := []byte(`{"email":"ghost@example.com","password":"x"}`)

	for i := 0; i < 2; i++ {
		w := do(h, http.MethodPost, "/auth/login", "application/json", body, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}

	w := do(h, http.MethodPost, "/auth/login", "application/json", body, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	h := newRouter(t, 100)

	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/healthz", "", nil, "").Code)
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/readyz", "", nil, "").Code)

	do(h, http.MethodPost, "/auth/login", "application/json", []byte(`{"email":"ghost@example.com","password":"x"}`), "")

	w := do(h, http.MethodGet, "/metrics", "", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	text := w.Body.String()
	assert.True(t, strings.Contains(text, "filekeep_http_requests_total"), "missing http counter")
	assert.Contains(t, text, `filekeep_auth_outcomes_total{op="login",result="invalid_credentials"} 1`)
}

func TestRouter_HSTSOnlyWhenSecure(t *testing.T) {
	plain := newDeps(t, 100)
	w := do(httpx.NewRouter(plain), http.MethodGet, "/healthz", "", nil, "")
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))

	secure := newDeps(t, 100)
	secure.Secure = true
	w = do(httpx.NewRouter(secure), http.MethodGet, "/healthz", "", nil, "")
	assert.Contains(t, w.Header().Get("Strict-Transport-Security"), "max-age=")
}
