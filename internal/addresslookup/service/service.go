// Package service runs the address step's sub-flow.
//
// The step moves through three phases:
//
//	postcode --lookup succeeds--> lookup --candidate chosen--> done
//	    |                            |
//	    +--empty or failed lookup--> manual <--"can't find"--+
//	                                 |
//	                                 +--address entered--> done
//
// Handle is called for every request to the step. It reads the sub-state from
// the host session, applies one transition and returns a Decision telling the
// host to render, redirect or move on to its next step. Validation problems
// are data on the render instruction; Handle only returns errors when the
// session backend fails.
package service

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"addresslookup/internal/addresslookup/metrics"
	"addresslookup/internal/addresslookup/models"
	"addresslookup/internal/addresslookup/postcode"
	"addresslookup/internal/addresslookup/store"
	dErrors "addresslookup/pkg/domain-errors"
)

// Lookuper fetches candidate addresses for a normalised postcode.
type Lookuper interface {
	Lookup(ctx context.Context, postcode string) models.LookupResult
}

// Session is the host's key/value surface for one end-user session.
// Get returns sentinel.ErrNotFound for an absent key.
type Session interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Service is one configured address step.
type Service struct {
	settings  models.Settings
	fields    models.Fields
	lookup    Lookuper
	validator *postcode.Validator
	cache     *store.Cache
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New builds a step. Invalid settings fail here, never at request time.
func New(settings models.Settings, lookup Lookuper, opts ...Option) (*Service, error) {
	if err := settings.Check(); err != nil {
		return nil, err
	}
	if lookup == nil {
		return nil, dErrors.New(dErrors.CodeInvalidConfig, "lookup client is required")
	}
	s := &Service{
		settings:  settings,
		fields:    settings.Fields(),
		lookup:    lookup,
		validator: postcode.NewValidator(settings.Required, settings.Validate.AllowedCountries),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cache = store.New(settings, store.WithLogger(s.logger))
	return s, nil
}

// Settings returns the step configuration.
func (s *Service) Settings() models.Settings {
	return s.settings
}

// Handle processes one request to the step.
func (s *Service) Handle(ctx context.Context, sess Session, req Request) (*Decision, error) {
	state, err := s.cache.Load(ctx, sess)
	if err != nil {
		return nil, err
	}

	switch req.Method {
	case http.MethodGet, http.MethodHead:
		return s.show(ctx, sess, req, &state)
	case http.MethodPost:
		return s.submit(ctx, sess, req, &state)
	default:
		return nil, dErrors.New(dErrors.CodeBadRequest, "unsupported method "+req.Method)
	}
}

func (s *Service) transition(ctx context.Context, from models.Phase, to string) {
	s.metrics.IncrementTransition(string(from), to)
	s.logger.DebugContext(ctx, "address step transition",
		"address_key", s.settings.AddressKey,
		"from", from,
		"to", to,
	)
}
