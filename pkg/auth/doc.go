// Package auth provides the request-level access decision for testapp.
//
// A Classifier splits request paths into Public and Protected using a
// static allow-list. Public requests are allowed without looking at
// credentials. Protected requests are evaluated by a Gate, which asks a
// set of independent Voters for Grant, Deny, or Abstain and folds the
// votes with a unanimous policy: any Deny vetoes, and at least one Grant
// is required. Adding a voter never changes call sites.
//
// The gate is fail-closed. Missing headers, malformed tokens, store errors
// and voter panics all collapse to the same Deny, and the reason is kept
// out of the response.
//
// Auth is implemented as HTTP middleware, keeping it decoupled from the
// handlers. The middleware injects the caller's Identity into the request
// context for protected routes.
package auth
