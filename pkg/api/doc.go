// Package api defines the wire and record types shared across testapp.
//
// It holds the user record stored by the storage adapters, the public
// view returned over HTTP, the request payloads accepted by the user
// endpoints, and the structured error envelope written by the transport
// layer.
//
// The package has no external dependencies and performs no I/O.
//
// Core types:
//   - [User]: Stored user record including password hash and current token
//   - [UserView]: Public projection of a user, safe to serialize
//   - [APIError]: Structured error with type, code, param, and message
package api
