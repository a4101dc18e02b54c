// Package transport defines the service contract and the HTTP middleware
// chain for the testapp transport layer.
//
// The transport layer bridges external clients and the users service. It
// decodes incoming requests, dispatches them to the service, and encodes
// results and errors back to the client.
//
// # Service Interface
//
// UserService is the contract between the HTTP adapter and the
// authentication service. The adapter depends only on this interface, so
// handlers can be tested against a fake.
//
// # Middleware
//
// Middleware wraps an http.Handler with cross-cutting concerns. Built-in
// middleware provides panic recovery, request ID assignment
// (X-Request-ID), and structured logging via log/slog. The access gate
// middleware lives in pkg/auth and is composed with these by the server.
//
// # Errors
//
// Domain errors from the users service are mapped to HTTP status codes and
// the api.ErrorResponse envelope by HTTPStatusFromError and WriteError.
// Unrecognized errors become a 500 with a generic message.
package transport
