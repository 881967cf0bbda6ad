package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/montage-crm/planner/backend/internal/config"
	"github.com/montage-crm/planner/backend/internal/conflict"
	"github.com/montage-crm/planner/backend/internal/domain"
)

type testResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestHandler(t *testing.T) *Handler {
	t.Helper()

	validate, trans, err := newValidator()
	if err != nil {
		t.Fatalf("newValidator: %v", err)
	}

	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.Expiration = 1
	cfg.InitialAdmin.Username = "admin"

	return &Handler{
		validate:     validate,
		config:       cfg,
		translator:   trans,
		policy:       conflict.DefaultPolicy,
		loginLimiter: newIPRateLimiter(60, 1, false),
		Mux:          chi.NewRouter(),
	}
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) testResponse {
	t.Helper()
	var resp testResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
	return resp
}

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func TestLoggerSetsRequestID(t *testing.T) {
	h := newTestHandler(t)

	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestID(r)
	})

	rec := httptest.NewRecorder()
	h.logger(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	got := rec.Header().Get(requestIDHeader)
	if got == "" {
		t.Fatal("expected a generated request id header")
	}
	if seen != got {
		t.Fatalf("context request id %q, header %q", seen, got)
	}

	const incoming = "6f1c2a4e-8b7d-4c3a-9e2f-0a1b2c3d4e5f"
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, incoming)
	rec = httptest.NewRecorder()
	h.logger(next).ServeHTTP(rec, req)
	if got := rec.Header().Get(requestIDHeader); got != incoming {
		t.Fatalf("incoming request id not kept, got %q", got)
	}
}

func TestLoggerReplacesMalformedRequestID(t *testing.T) {
	h := newTestHandler(t)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	for _, bad := range []string{
		"abc-123",
		"forged\nlevel=ERROR msg=injected",
		strings.Repeat("a", 10000),
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(requestIDHeader, bad)
		rec := httptest.NewRecorder()
		h.logger(next).ServeHTTP(rec, req)

		got := rec.Header().Get(requestIDHeader)
		if got == bad {
			t.Fatalf("malformed request id %.20q was echoed", bad)
		}
		if _, err := uuid.Parse(got); err != nil {
			t.Fatalf("replacement request id %q is not a uuid", got)
		}
	}
}

func TestRecovererReturns500(t *testing.T) {
	h := newTestHandler(t)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	h.recoverer(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if resp := decodeResponse(t, rec); resp.Success {
		t.Fatal("expected success=false")
	}
}

func TestAuth(t *testing.T) {
	h := newTestHandler(t)

	var gotSub int64
	var gotRole domain.Role
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sub, err := subject(r)
		if err != nil {
			t.Errorf("subject: %v", err)
		}
		gotSub = sub
		gotRole = currentRole(r)
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("valid token", func(t *testing.T) {
		token, err := h.signToken(&domain.User{ID: 7, Role: domain.RoleInstaller}, time.Now().Add(time.Hour))
		if err != nil {
			t.Fatalf("signToken: %v", err)
		}

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: authCookieName, Value: token})
		rec := httptest.NewRecorder()
		h.auth(next).ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
		if gotSub != 7 || gotRole != domain.RoleInstaller {
			t.Fatalf("got sub=%d role=%q", gotSub, gotRole)
		}
	})

	cases := []struct {
		name    string
		cookie  *http.Cookie
		message string
	}{
		{name: "no cookie", message: "not logged in"},
		{name: "garbage", cookie: &http.Cookie{Name: authCookieName, Value: "not-a-jwt"}, message: "invalid token"},
	}

	expired, err := h.signToken(&domain.User{ID: 7, Role: domain.RoleAdmin}, time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatalf("signToken: %v", err)
	}
	cases = append(cases, struct {
		name    string
		cookie  *http.Cookie
		message string
	}{name: "expired", cookie: &http.Cookie{Name: authCookieName, Value: expired}, message: "invalid token"})

	other := newTestHandler(t)
	other.config.JWT.Secret = "another-secret"
	foreign, err := other.signToken(&domain.User{ID: 1, Role: domain.RoleAdmin}, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("signToken: %v", err)
	}
	cases = append(cases, struct {
		name    string
		cookie  *http.Cookie
		message string
	}{name: "wrong secret", cookie: &http.Cookie{Name: authCookieName, Value: foreign}, message: "invalid token"})

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.cookie != nil {
				req.AddCookie(tc.cookie)
			}
			rec := httptest.NewRecorder()
			h.auth(http.HandlerFunc(okHandler)).ServeHTTP(rec, req)

			resp := decodeResponse(t, rec)
			if resp.Success || resp.Message != tc.message {
				t.Fatalf("got success=%v message=%q, want %q", resp.Success, resp.Message, tc.message)
			}
		})
	}
}

func TestRequiredRole(t *testing.T) {
	h := newTestHandler(t)
	admin := h.RequiredRole([]domain.Role{domain.RoleAdmin})

	cases := []struct {
		role    string
		allowed bool
	}{
		{role: "admin", allowed: true},
		{role: "installer", allowed: false},
		{role: "", allowed: false},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(withValue(req, RoleCtxKey, tc.role))
		rec := httptest.NewRecorder()
		admin(http.HandlerFunc(okHandler)).ServeHTTP(rec, req)

		if allowed := rec.Code == http.StatusNoContent; allowed != tc.allowed {
			t.Errorf("role %q: allowed = %v, want %v", tc.role, allowed, tc.allowed)
		}
	}
}

func TestRateLimit(t *testing.T) {
	h := newTestHandler(t)
	limiter := newIPRateLimiter(1, 1, false)
	limited := h.rateLimit(limiter)(http.HandlerFunc(okHandler))

	send := func(remoteAddr, forwardedFor string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = remoteAddr
		if forwardedFor != "" {
			req.Header.Set("X-Forwarded-For", forwardedFor)
		}
		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, req)
		return rec
	}

	if rec := send("203.0.113.9:5555", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("first request status = %d", rec.Code)
	}
	rec := send("203.0.113.9:5555", "")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", rec.Code)
	}
	if resp := decodeResponse(t, rec); resp.Success {
		t.Fatal("expected success=false")
	}

	// a rotating forwarded header must not buy a fresh bucket
	for i := 0; i < 50; i++ {
		rec := send("203.0.113.9:5556", fmt.Sprintf("10.1.0.%d", i))
		if rec.Code != http.StatusTooManyRequests {
			t.Fatalf("request %d with spoofed X-Forwarded-For status = %d, want 429", i, rec.Code)
		}
	}
	if n := len(limiter.limiters); n != 1 {
		t.Fatalf("limiter holds %d buckets, want 1", n)
	}

	if rec := send("198.51.100.4:5555", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("other client was limited, status = %d", rec.Code)
	}
}

func TestRateLimitEvictsIdleBuckets(t *testing.T) {
	limiter := newIPRateLimiter(60, 2, false) // refills completely in two seconds
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	for i := 0; i < 100; i++ {
		limiter.allow(fmt.Sprintf("10.0.0.%d", i))
	}
	if n := len(limiter.limiters); n != 100 {
		t.Fatalf("expected 100 buckets, got %d", n)
	}

	now = now.Add(2 * time.Second)
	if !limiter.allow("192.0.2.1") {
		t.Fatal("new client should be allowed")
	}
	if n := len(limiter.limiters); n != 1 {
		t.Fatalf("idle buckets not evicted, %d left", n)
	}

	// an active client keeps its bucket and its spent tokens
	if !limiter.allow("192.0.2.1") {
		t.Fatal("burst of 2 should allow a second request")
	}
	if limiter.allow("192.0.2.1") {
		t.Fatal("third request inside the burst window should be limited")
	}
}

func TestClientIP(t *testing.T) {
	direct := newIPRateLimiter(1, 1, false)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.4:5555"
	if got := direct.clientIP(req); got != "198.51.100.4" {
		t.Fatalf("clientIP = %q", got)
	}

	req.Header.Set("X-Forwarded-For", " 203.0.113.9 , 10.0.0.1")
	if got := direct.clientIP(req); got != "198.51.100.4" {
		t.Fatalf("forwarded header trusted without a proxy, clientIP = %q", got)
	}

	proxied := newIPRateLimiter(1, 1, true)
	if got := proxied.clientIP(req); got != "10.0.0.1" {
		t.Fatalf("clientIP behind proxy = %q, want the entry the proxy appended", got)
	}

	req.Header.Del("X-Forwarded-For")
	if got := proxied.clientIP(req); got != "198.51.100.4" {
		t.Fatalf("clientIP behind proxy without header = %q", got)
	}
}

func TestBadRequestTranslatesValidationErrors(t *testing.T) {
	h := newTestHandler(t)

	req := bookingRequest{
		InstallerID: 3,
		Date:        "2026-03-02",
		StartTime:   "09:00",
		EndTime:     "11:00",
	}
	err := h.validate.Struct(req)
	if err == nil {
		t.Fatal("expected validation error")
	}

	rec := httptest.NewRecorder()
	h.badRequest(rec, httptest.NewRequest(http.MethodPost, "/bookings", nil), err)

	resp := decodeResponse(t, rec)
	if rec.Code != http.StatusOK || resp.Success {
		t.Fatalf("status=%d success=%v", rec.Code, resp.Success)
	}
	if resp.Message != "title is a required field" {
		t.Fatalf("message = %q", resp.Message)
	}
}

func TestReadJSONRejectsUnknownFields(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":"x","colour":"red"}`))
	var body bookingRequest
	if err := h.readJSON(req, &body); err == nil {
		t.Fatal("expected error for unknown field")
	}
}
