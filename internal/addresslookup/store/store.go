// Package store keeps the address step's state in the host wizard's session.
//
// Two keys are used per step: the internal sub-state under
// "addresslookup:<addressKey>" and the selected address, as JSON, under the
// address key itself so later steps can read it.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"

	"addresslookup/internal/addresslookup/models"
	dErrors "addresslookup/pkg/domain-errors"
	"addresslookup/pkg/platform/sentinel"
)

// Session is the host's key/value surface for one end-user session.
// Get returns sentinel.ErrNotFound for an absent key.
type Session interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Cache reads and writes one step's keys.
type Cache struct {
	stateKey   string
	addressKey string
	logger     *slog.Logger
}

type Option func(*Cache)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func New(settings models.Settings, opts ...Option) *Cache {
	c := &Cache{
		stateKey:   settings.StateKey(),
		addressKey: settings.AddressKey,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load returns the stored sub-state, or a fresh one on first entry.
// Unreadable state is discarded rather than failing the request.
func (c *Cache) Load(ctx context.Context, sess Session) (models.SubflowState, error) {
	raw, err := sess.Get(ctx, c.stateKey)
	if errors.Is(err, sentinel.ErrNotFound) {
		return models.NewSubflowState(), nil
	}
	if err != nil {
		return models.SubflowState{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read address step state")
	}

	var state models.SubflowState
	if err := json.Unmarshal(raw, &state); err != nil || !state.Phase.Valid() {
		c.logger.WarnContext(ctx, "discarding unreadable address step state", "key", c.stateKey)
		return models.NewSubflowState(), nil
	}
	return state, nil
}

func (c *Cache) Save(ctx context.Context, sess Session, state models.SubflowState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode address step state")
	}
	if err := sess.Set(ctx, c.stateKey, raw); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to write address step state")
	}
	return nil
}

// Address returns the selected address, or nil when none is stored.
func (c *Cache) Address(ctx context.Context, sess Session) (*models.SelectedAddress, error) {
	raw, err := sess.Get(ctx, c.addressKey)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read selected address")
	}
	var addr models.SelectedAddress
	if err := json.Unmarshal(raw, &addr); err != nil {
		c.logger.WarnContext(ctx, "discarding unreadable selected address", "key", c.addressKey)
		return nil, nil
	}
	return &addr, nil
}

// SaveAddress writes the final address under the address key.
func (c *Cache) SaveAddress(ctx context.Context, sess Session, addr models.SelectedAddress) error {
	raw, err := json.Marshal(addr)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode selected address")
	}
	if err := sess.Set(ctx, c.addressKey, raw); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to write selected address")
	}
	return nil
}

// ClearAddress removes the selection. Removing an absent key is not an error.
func (c *Cache) ClearAddress(ctx context.Context, sess Session) error {
	return c.delete(ctx, sess, c.addressKey)
}

func (c *Cache) delete(ctx context.Context, sess Session, key string) error {
	if err := sess.Delete(ctx, key); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear "+key)
	}
	return nil
}
