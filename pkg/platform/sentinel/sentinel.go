package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Session backends and clients return
// these (optionally wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: key does not exist in the session
// - ErrExpired: session has expired
// - ErrUnavailable: backend or upstream temporarily unavailable
//
// For user input problems, use pkg/domain-errors or the render error codes.
var (
	ErrNotFound    = errors.New("not found")
	ErrExpired     = errors.New("expired")
	ErrUnavailable = errors.New("unavailable")
)
