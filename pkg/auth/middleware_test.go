package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// tokenVoter grants exactly the tokens in its set.
type tokenVoter map[string]bool

func (m tokenVoter) Vote(_ context.Context, req *Request, _ *Identity) Vote {
	tok, err := BearerToken(req.Authorization)
	if err != nil || !m[tok] {
		return Deny
	}
	return Grant
}

// mockResolver decodes tokens using a fixed table.
type mockResolver map[string]string

func (m mockResolver) IdentifierFromToken(token string) (string, error) {
	if id, ok := m[token]; ok {
		return id, nil
	}
	return "", errors.New("malformed token")
}

func newTestMiddleware(limiter RateLimiter) func(http.Handler) http.Handler {
	gate := newTestGate(tokenVoter{"MQ==": true, "Mg==": true, "orphan": true})
	resolver := mockResolver{"MQ==": "1", "Mg==": "2"}
	return Middleware(gate, resolver, limiter)
}

func okHandler(t *testing.T, gotSubject *string) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := IdentityFromContext(r.Context()); id != nil && gotSubject != nil {
			*gotSubject = id.Subject
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestMiddleware_PublicPath(t *testing.T) {
	var subject string
	handler := newTestMiddleware(nil)(okHandler(t, &subject))

	req := httptest.NewRequest("POST", "/api/users/login", nil)
	req.Header.Set("Authorization", "not-a-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("public path: status = %d, want 200", rec.Code)
	}
	if subject != "" {
		t.Errorf("public path: identity %q injected, want none", subject)
	}
}

func TestMiddleware_DeniedRequestsLookIdentical(t *testing.T) {
	handler := newTestMiddleware(nil)(okHandler(t, nil))

	cases := map[string][]string{
		"missing header": nil,
		"unknown token":  {"Bearer Nw=="},
		"empty bearer":   {"Bearer "},
		"two headers":    {"MQ==", "Mg=="},
	}

	var bodies []string
	for name, values := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/users/1", nil)
			for _, v := range values {
				req.Header.Add("Authorization", v)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusForbidden {
				t.Errorf("status = %d, want 403", rec.Code)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q, want application/json", ct)
			}
			bodies = append(bodies, rec.Body.String())
		})
	}

	for _, b := range bodies[1:] {
		if b != bodies[0] {
			t.Errorf("deny bodies differ: %q vs %q", b, bodies[0])
		}
	}
	if !strings.Contains(bodies[0], `"type":"forbidden"`) {
		t.Errorf("deny body = %q, want forbidden error", bodies[0])
	}
}

func TestMiddleware_ValidTokenInjectsIdentity(t *testing.T) {
	var subject string
	handler := newTestMiddleware(nil)(okHandler(t, &subject))

	req := httptest.NewRequest("GET", "/api/users/me", nil)
	req.Header.Set("Authorization", "Bearer Mg==")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if subject != "2" {
		t.Errorf("subject = %q, want %q", subject, "2")
	}
}

func TestMiddleware_UnresolvableTokenDenies(t *testing.T) {
	handler := newTestMiddleware(nil)(okHandler(t, nil))

	req := httptest.NewRequest("GET", "/api/users/me", nil)
	req.Header.Set("Authorization", "orphan")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestMiddleware_RateLimit_Exceeded(t *testing.T) {
	handler := newTestMiddleware(NewInProcessLimiter(2))(okHandler(t, nil))

	codes := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest("GET", "/api/users/1", nil)
		req.Header.Set("Authorization", "MQ==")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Errorf("first two requests: %v, want 200s", codes[:2])
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Errorf("third request: status = %d, want 429", codes[2])
	}

	// A different subject has its own window.
	req := httptest.NewRequest("GET", "/api/users/1", nil)
	req.Header.Set("Authorization", "Mg==")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("other subject: status = %d, want 200", rec.Code)
	}
}
