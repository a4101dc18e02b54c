package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/ayhamallaham/testapp/pkg/api"
	"github.com/ayhamallaham/testapp/pkg/observability"
)

// IdentityResolver maps an accepted bearer token to the identifier it
// encodes. The users service implements it.
type IdentityResolver interface {
	IdentifierFromToken(token string) (string, error)
}

// Middleware creates HTTP middleware enforcing the gate's verdict.
//
// Denied requests get 403 with the same body whatever the reason. Allowed
// protected requests have their Identity injected into the context, and
// are then subject to the optional rate limiter.
func Middleware(gate *Gate, resolver IdentityResolver, limiter RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			req := &Request{
				Method:        r.Method,
				Path:          r.URL.Path,
				Authorization: r.Header.Values("Authorization"),
				RemoteAddr:    r.RemoteAddr,
			}

			if !gate.DecideRequest(r.Context(), req).Allowed() {
				slog.Warn("access denied",
					"method", r.Method,
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
				)
				writeError(w, http.StatusForbidden, api.NewForbiddenError(ErrForbidden.Error()))
				return
			}

			if gate.Classify(req.Path) == Public {
				next.ServeHTTP(w, r)
				return
			}

			identity, ok := resolveIdentity(req, resolver)
			if !ok {
				slog.Error("accepted token could not be resolved to an identity", "path", r.URL.Path)
				writeError(w, http.StatusForbidden, api.NewForbiddenError(ErrForbidden.Error()))
				return
			}

			if limiter != nil {
				if err := limiter.Allow(r.Context(), identity); err != nil {
					slog.Warn("rate limit exceeded", "subject", identity.Subject)
					observability.RateLimitRejectedTotal.Inc()
					writeError(w, http.StatusTooManyRequests, api.NewTooManyRequestsError(err.Error()))
					return
				}
			}

			slog.Debug("access granted",
				"subject", identity.Subject,
				"path", r.URL.Path,
			)

			next.ServeHTTP(w, r.WithContext(SetIdentity(r.Context(), identity)))
		})
	}
}

func resolveIdentity(req *Request, resolver IdentityResolver) (*Identity, bool) {
	if resolver == nil {
		return nil, false
	}
	tok, err := BearerToken(req.Authorization)
	if err != nil {
		return nil, false
	}
	subject, err := resolver.IdentifierFromToken(tok)
	if err != nil || subject == "" {
		return nil, false
	}
	return &Identity{Subject: subject, Token: tok}, true
}

func writeError(w http.ResponseWriter, status int, apiErr *api.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(api.ErrorResponse{Error: apiErr})
}
