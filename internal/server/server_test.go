package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kauanrodrigues01/academy/internal/auth"
	"github.com/Kauanrodrigues01/academy/internal/backup"
	"github.com/Kauanrodrigues01/academy/internal/database"
	"github.com/Kauanrodrigues01/academy/internal/metrics"
	"github.com/Kauanrodrigues01/academy/internal/middleware"
	"github.com/Kauanrodrigues01/academy/internal/money"
	"github.com/Kauanrodrigues01/academy/internal/service"
	"github.com/Kauanrodrigues01/academy/internal/store"
	ws "github.com/Kauanrodrigues01/academy/internal/websocket"
)

type nopMailer struct{}

func (nopMailer) SendPasswordReset(ctx context.Context, to, name, link string) error { return nil }

type testServer struct {
	srv     *Server
	handler http.Handler
	staff   *store.StaffStore
	svc     *service.Services
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWithToken(t, "")
}

func newTestServerWithToken(t *testing.T, metricsToken string) *testServer {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.New()
	hub := ws.NewHub(logger)
	t.Cleanup(hub.Close)

	svc := service.New(db, service.Options{Location: time.UTC, Metrics: m, Notifier: hub, Logger: logger})
	backups := backup.NewManager(backup.Config{}, db, m, logger)

	srv, err := New(db, svc, hub, m, backups, nopMailer{}, Config{
		BaseURL:      "http://localhost:8080",
		SecretKey:    "test-secret",
		Location:     time.UTC,
		MetricsToken: metricsToken,
	}, logger)
	require.NoError(t, err)

	return &testServer{srv: srv, handler: srv.Router(), staff: store.NewStaffStore(db), svc: svc}
}

// signIn creates a staff member with a session and returns the cookie.
func (ts *testServer) signIn(t *testing.T, cpf string, admin bool) *http.Cookie {
	t.Helper()
	hash, err := auth.HashPassword("Senha123")
	require.NoError(t, err)
	st, err := ts.staff.Create(cpf, cpf+"@example.com", "Equipe", hash, admin)
	require.NoError(t, err)
	sess, err := ts.srv.SessionStore().Create(st.ID)
	require.NoError(t, err)
	return &http.Cookie{Name: middleware.SessionCookieName, Value: sess.Token}
}

func (ts *testServer) get(path string, c *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if c != nil {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.get("/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body healthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "ok", body.Database)
	assert.Equal(t, "disabled", body.Backup)
}

func TestRequestIDHeader(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.get("/health", nil)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestProtectedRoutesRedirectToLogin(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/", "/members", "/finance", "/reports/general.pdf", "/admin/backups"} {
		rec := ts.get(path, nil)
		assert.Equal(t, http.StatusSeeOther, rec.Code, path)
		assert.Equal(t, "/login", rec.Header().Get("Location"), path)
	}
}

func TestPublicPages(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/login", "/password-reset", "/static/app.css", "/static/app.js"} {
		rec := ts.get(path, nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
	assert.Equal(t, http.StatusNotFound, ts.get("/static/", nil).Code)
}

func TestSignedInPages(t *testing.T) {
	ts := newTestServer(t)
	c := ts.signIn(t, "52998224725", false)

	for _, path := range []string{"/", "/members", "/finance"} {
		rec := ts.get(path, c)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestBackupsAreAdminOnly(t *testing.T) {
	ts := newTestServer(t)

	staff := ts.signIn(t, "52998224725", false)
	assert.Equal(t, http.StatusForbidden, ts.get("/admin/backups", staff).Code)

	admin := ts.signIn(t, "11144477735", true)
	rec := ts.get("/admin/backups", admin)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLoginRateLimited(t *testing.T) {
	ts := newTestServer(t)
	form := url.Values{"cpf": {"52998224725"}, "password": {"errada"}}.Encode()

	var last int
	for i := 0; i < authAttempts+1; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		ts.handler.ServeHTTP(rec, req)
		last = rec.Code
		if i < authAttempts {
			assert.NotEqual(t, http.StatusTooManyRequests, rec.Code, "attempt %d", i+1)
		}
	}
	assert.Equal(t, http.StatusTooManyRequests, last)

	// reset requests are counted separately
	req := httptest.NewRequest(http.MethodPost, "/password-reset", strings.NewReader("email=ninguem%40example.com"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	c := ts.signIn(t, "52998224725", false)
	ts.get("/members", c)

	rec := ts.get("/metrics", c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `path="GET /members"`)
}

// recordRevenue creates a member with an initial payment of R$ 123,45.
func (ts *testServer) recordRevenue(t *testing.T) {
	t.Helper()
	_, err := ts.svc.Members.Create(context.Background(),
		service.MemberInput{FullName: "Ana Souza", Email: "ana@example.com", Phone: "11987654321"},
		&service.PaymentInput{Amount: money.Cents(12345), Date: time.Now().UTC()})
	require.NoError(t, err)
}

func TestMetricsRequireSignIn(t *testing.T) {
	ts := newTestServer(t)
	ts.recordRevenue(t)

	rec := ts.get("/metrics", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.NotContains(t, rec.Body.String(), "payments_recorded_reais_total")

	rec = ts.get("/metrics", ts.signIn(t, "52998224725", false))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "academy_payments_recorded_reais_total 123.45")
}

func TestMetricsBearerToken(t *testing.T) {
	ts := newTestServerWithToken(t, "scrape-me")
	ts.recordRevenue(t)

	rec := ts.get("/metrics", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotContains(t, rec.Body.String(), "payments_recorded_reais_total")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("Authorization", "Bearer scrape-me")
	rec = httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "academy_payments_recorded_reais_total 123.45")
}
