package testutil

import (
	"net/http"

	"github.com/google/uuid"

	"addresslookup/pkg/requestcontext"
)

// WithSessionID adds a wizard session id to the request context, as the
// session middleware would. Invalid UUIDs are not added.
func WithSessionID(req *http.Request, sessionID string) *http.Request {
	if _, err := uuid.Parse(sessionID); err != nil {
		return req
	}
	return req.WithContext(requestcontext.WithSessionID(req.Context(), sessionID))
}
