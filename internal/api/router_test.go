package api

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/99minutos/glauth-sync/internal/core/domain"
)

type stubSync struct {
	triggered int
	run       *domain.SyncRun
	err       error
}

func (s *stubSync) Trigger() bool {
	s.triggered++
	return true
}

func (s *stubSync) Last() (*domain.SyncRun, error) { return s.run, s.err }

func newRouter(deps RouterDeps) http.Handler {
	reg := prometheus.NewRegistry()
	deps.Registerer = reg
	deps.Gatherer = reg
	deps.Log = zerolog.Nop()
	return NewRouter(deps)
}

func token(t *testing.T, role string) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "ops",
		"role": role,
	}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func do(t *testing.T, h http.Handler, method, path, bearer string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_SyncRequiresAdmin(t *testing.T) {
	sync := &stubSync{}
	e := newRouter(RouterDeps{Sync: sync, JWTSecret: "secret"})

	cases := []struct {
		bearer string
		want   int
	}{
		{"", http.StatusUnauthorized},
		{token(t, "viewer"), http.StatusForbidden},
		{token(t, "admin"), http.StatusAccepted},
	}
	for _, tc := range cases {
		if rec := do(t, e, http.MethodPost, "/sync", tc.bearer); rec.Code != tc.want {
			t.Errorf("bearer %q: expected %d, got %d", tc.bearer, tc.want, rec.Code)
		}
	}
	if sync.triggered != 1 {
		t.Errorf("expected one trigger, got %d", sync.triggered)
	}
}

func TestRouter_SyncDisabledWithoutSecret(t *testing.T) {
	e := newRouter(RouterDeps{Sync: &stubSync{}})

	rec := do(t, e, http.MethodPost, "/sync", token(t, "admin"))
	if rec.Code != http.StatusNotFound && rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected route to be absent, got %d", rec.Code)
	}
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	e := newRouter(RouterDeps{Sync: &stubSync{run: &domain.SyncRun{}}})

	for _, path := range []string{"/health", "/health/ready"} {
		if rec := do(t, e, http.MethodGet, path, ""); rec.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, rec.Code)
		}
	}

	rec := do(t, e, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("/metrics: expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "glauth_sync_requests_total") {
		t.Errorf("expected request metrics in body")
	}
}

func TestRouter_LastFailedRunMapsStage(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("sync: fetch roles: %w", domain.ErrFetchRequest), http.StatusBadGateway},
		{fmt.Errorf("sync: reconcile: %w", domain.ErrStoreWrite), http.StatusServiceUnavailable},
		{fmt.Errorf("sync: %w", domain.ErrPublish), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		e := newRouter(RouterDeps{Sync: &stubSync{run: &domain.SyncRun{}, err: tc.err}, JWTSecret: "secret"})

		rec := do(t, e, http.MethodGet, "/sync/last", token(t, "admin"))
		if rec.Code != tc.want {
			t.Errorf("%v: expected %d, got %d", tc.err, tc.want, rec.Code)
		}
	}
}

func TestRouter_LastRun(t *testing.T) {
	e := newRouter(RouterDeps{Sync: &stubSync{run: &domain.SyncRun{UsersRendered: 3}}, JWTSecret: "secret"})

	rec := do(t, e, http.MethodGet, "/sync/last", token(t, "admin"))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"users_rendered":3`) {
		t.Errorf("unexpected response %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHTTPErrorHandler_MapsDomainErrors(t *testing.T) {
	reg := prometheus.NewRegistry()
	e := NewRouter(RouterDeps{Sync: &stubSync{}, Log: zerolog.Nop(), Registerer: reg, Gatherer: reg})

	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("fetch: %w", domain.ErrFetchRequest), http.StatusBadGateway},
		{fmt.Errorf("load: %w", domain.ErrStoreDecode), http.StatusServiceUnavailable},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		e.HTTPErrorHandler(tc.err, c)
		if rec.Code != tc.want {
			t.Errorf("%v: expected %d, got %d", tc.err, tc.want, rec.Code)
		}
	}
}
