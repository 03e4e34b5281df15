// Package store provides the wizard's session backends.
//
// A session is a flat set of byte values keyed by field name. Absent keys
// return sentinel.ErrNotFound. Both backends expire a session after a period
// without writes.
package store

import "context"

// Session is one end-user session.
type Session interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Store opens sessions by id. Opening never touches the backend.
type Store interface {
	Open(sessionID string) Session
}
