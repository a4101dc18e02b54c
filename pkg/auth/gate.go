package auth

import (
	"context"
	"log/slog"

	"github.com/ayhamallaham/testapp/pkg/debug"
	"github.com/ayhamallaham/testapp/pkg/observability"
)

// Gate makes the per-request access decision. Public paths are allowed
// without inspecting credentials. Protected paths are put to every voter
// and the votes are folded with Unanimous.
//
// The gate holds no mutable state. Every failure, including a panicking
// voter, resolves to VerdictDeny, and the reason is never returned to the
// caller: it is only logged at debug level and counted in metrics.
type Gate struct {
	classifier *Classifier
	voters     []Voter
	logger     *slog.Logger
}

// NewGate creates a gate. Voters are consulted in the given order.
func NewGate(classifier *Classifier, logger *slog.Logger, voters ...Voter) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{
		classifier: classifier,
		voters:     voters,
		logger:     logger,
	}
}

// Decide returns the verdict for a request to path carrying the given
// Authorization header values.
func (g *Gate) Decide(ctx context.Context, path string, authorization []string) Verdict {
	return g.DecideRequest(ctx, &Request{Path: path, Authorization: authorization})
}

// DecideRequest returns the verdict for req.
func (g *Gate) DecideRequest(ctx context.Context, req *Request) (verdict Verdict) {
	if g == nil || g.classifier == nil || req == nil {
		return VerdictDeny
	}

	if g.classifier.Classify(req.Path) == Public {
		record(VerdictAllow, "public")
		return VerdictAllow
	}

	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("access voter panicked", "path", req.Path, "panic", r)
			record(VerdictDeny, "panic")
			verdict = VerdictDeny
		}
	}()

	votes := make([]Vote, 0, len(g.voters))
	for _, v := range g.voters {
		votes = append(votes, v.Vote(ctx, req, IdentityFromContext(ctx)))
	}

	verdict = Unanimous(votes...)
	reason := decisionReason(votes, verdict)
	record(verdict, reason)

	if !verdict.Allowed() {
		debug.Log("auth", "access denied",
			"method", req.Method,
			"path", req.Path,
			"remote_addr", req.RemoteAddr,
			"reason", reason,
		)
	}
	return verdict
}

// Classify reports the access class of path. A nil gate treats every path
// as Protected.
func (g *Gate) Classify(path string) Class {
	if g == nil {
		return Protected
	}
	return g.classifier.Classify(path)
}

// decisionReason summarizes votes for logs and metrics.
func decisionReason(votes []Vote, verdict Verdict) string {
	if verdict.Allowed() {
		return "granted"
	}
	if len(votes) == 0 {
		return "no_voters"
	}
	for _, v := range votes {
		if v == Deny {
			return "vetoed"
		}
	}
	return "abstained"
}

func record(verdict Verdict, reason string) {
	observability.AccessDecisionsTotal.WithLabelValues(verdict.String(), reason).Inc()
}
