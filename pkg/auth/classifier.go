package auth

import (
	"path"
	"strings"
)

// Class is the access class of a request path.
type Class int

const (
	// Protected paths require a passing vote from the gate.
	Protected Class = iota

	// Public paths are allowed without inspecting credentials.
	Public
)

// String returns "public" or "protected".
func (c Class) String() string {
	if c == Public {
		return "public"
	}
	return "protected"
}

// DefaultPublicPaths lists the paths reachable without a token: registration,
// login, API documentation, and the operational endpoints.
var DefaultPublicPaths = []string{
	"/users/register",
	"/users/login",
	"/swagger-ui/**",
	"/v3/api-docs/**",
	"/healthz",
	"/readyz",
	defaultMetricsPath,
}

// defaultMetricsPath is the metrics entry in DefaultPublicPaths.
const defaultMetricsPath = "/metrics"

// PublicPaths returns DefaultPublicPaths with the metrics entry replaced by
// metricsPath. An empty metricsPath drops the entry, for servers that do
// not expose metrics.
func PublicPaths(metricsPath string) []string {
	out := make([]string, 0, len(DefaultPublicPaths))
	for _, p := range DefaultPublicPaths {
		if p == defaultMetricsPath {
			if metricsPath == "" {
				continue
			}
			p = metricsPath
		}
		out = append(out, p)
	}
	return out
}

// Classifier maps request paths to Public or Protected using a static
// allow-list. It is immutable after construction and safe for concurrent use.
//
// Patterns take three forms:
//   - "/x" matches exactly "/x"
//   - "/x/**" matches "/x" and every path below "/x/"
//   - "/x*" matches every path starting with "/x"
//
// When basePath is set it is stripped once from the request path before
// matching, so "/api/users/login" and "/users/login" classify the same.
type Classifier struct {
	basePath string
	exact    map[string]bool
	prefixes []string
	trees    []string
}

// NewClassifier builds a classifier from the given patterns.
func NewClassifier(basePath string, patterns []string) *Classifier {
	c := &Classifier{
		basePath: strings.TrimSuffix(basePath, "/"),
		exact:    make(map[string]bool, len(patterns)),
	}
	for _, p := range patterns {
		switch {
		case strings.HasSuffix(p, "/**"):
			c.trees = append(c.trees, strings.TrimSuffix(p, "/**"))
		case strings.HasSuffix(p, "*"):
			c.prefixes = append(c.prefixes, strings.TrimSuffix(p, "*"))
		case p != "":
			c.exact[p] = true
		}
	}
	return c
}

// Classify returns Public if path matches the allow-list, Protected otherwise.
// The path is cleaned first, so dot segments cannot walk out of a public tree.
func (c *Classifier) Classify(p string) Class {
	if c == nil || p == "" {
		return Protected
	}
	p = path.Clean("/" + p)
	if c.basePath != "" {
		if rest, ok := strings.CutPrefix(p, c.basePath); ok && (rest == "" || rest[0] == '/') {
			p = rest
		}
	}

	if c.exact[p] {
		return Public
	}
	for _, root := range c.trees {
		if p == root || strings.HasPrefix(p, root+"/") {
			return Public
		}
	}
	for _, prefix := range c.prefixes {
		if strings.HasPrefix(p, prefix) {
			return Public
		}
	}
	return Protected
}
