// Package storage provides utilities shared across storage adapter
// implementations.
//
// Storage adapters (memory, postgres, rediscache) implement the users.Store
// interface defined in pkg/users/store.go. This package contains only the
// sentinel errors that the adapters return and the users service
// translates into domain errors.
package storage
