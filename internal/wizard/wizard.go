// Package wizard is a minimal multi-step form host for address steps.
//
// Plain steps store their form fields in the session and move on. Address
// steps hand their requests to the address lookup handler. The last step has
// no Next and renders a summary of everything collected; a last step that is
// an address step finishes on a summary page mounted at <path>/summary.
package wizard

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"addresslookup/internal/addresslookup/handler"
	"addresslookup/internal/addresslookup/metrics"
	"addresslookup/internal/addresslookup/models"
	"addresslookup/internal/addresslookup/service"
	"addresslookup/internal/addresslookup/store"
	sessionstore "addresslookup/internal/session/store"
	dErrors "addresslookup/pkg/domain-errors"
	"addresslookup/pkg/platform/httputil"
	"addresslookup/pkg/platform/sentinel"
	"addresslookup/pkg/requestcontext"
)

// Step is one page of the wizard.
type Step struct {
	Path string
	// Next is empty for the final step.
	Next   string
	Fields []string
	// Address runs the address lookup sub-flow on this step when set.
	Address *models.Settings
}

// summarySuffix names the page a terminal address step finishes on.
const summarySuffix = "/summary"

func summaryPath(stepPath string) string {
	return strings.TrimSuffix(stepPath, "/") + summarySuffix
}

// LookupFactory builds the lookup client for an address step.
type LookupFactory func(models.APISettings) (service.Lookuper, error)

// Wizard routes requests to its steps.
type Wizard struct {
	steps    []Step
	sessions sessionstore.Store
	lookups  LookupFactory
	address  map[string]*handler.Handler
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type Option func(*Wizard)

func WithLogger(logger *slog.Logger) Option {
	return func(w *Wizard) {
		if logger != nil {
			w.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(w *Wizard) {
		w.metrics = m
	}
}

// New validates the step graph and builds every address step up front, so
// configuration errors surface at startup.
func New(steps []Step, sessions sessionstore.Store, lookups LookupFactory, opts ...Option) (*Wizard, error) {
	if len(steps) == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidConfig, "wizard needs at least one step")
	}
	if sessions == nil {
		return nil, dErrors.New(dErrors.CodeInvalidConfig, "session store is required")
	}
	w := &Wizard{
		steps:    steps,
		sessions: sessions,
		lookups:  lookups,
		address:  make(map[string]*handler.Handler),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(w)
	}

	paths := make(map[string]bool, len(steps))
	keys := make(map[string]bool)
	previous := make(map[string]string, len(steps))
	for _, st := range steps {
		if st.Path == "" {
			return nil, dErrors.New(dErrors.CodeInvalidConfig, "step path is required")
		}
		if paths[st.Path] {
			return nil, dErrors.New(dErrors.CodeInvalidConfig, "duplicate step path "+st.Path)
		}
		paths[st.Path] = true
		if st.Next != "" {
			previous[st.Next] = st.Path
		}
		if st.Address != nil {
			if keys[st.Address.AddressKey] {
				return nil, dErrors.New(dErrors.CodeInvalidConfig, "duplicate address key "+st.Address.AddressKey)
			}
			keys[st.Address.AddressKey] = true
		}
	}
	for _, st := range steps {
		if st.Address != nil && st.Next == "" && paths[summaryPath(st.Path)] {
			return nil, dErrors.New(dErrors.CodeInvalidConfig, "step path "+summaryPath(st.Path)+" clashes with the summary of "+st.Path)
		}
	}

	for _, st := range steps {
		if st.Address == nil {
			continue
		}
		h, err := w.buildAddressStep(st, previous[st.Path])
		if err != nil {
			return nil, err
		}
		w.address[st.Path] = h
	}
	return w, nil
}

func (w *Wizard) buildAddressStep(st Step, previous string) (*handler.Handler, error) {
	next := st.Next
	if next == "" {
		next = summaryPath(st.Path)
	}
	if w.lookups == nil {
		return nil, dErrors.New(dErrors.CodeInvalidConfig, "lookup factory is required for address steps")
	}
	if err := st.Address.Check(); err != nil {
		return nil, err
	}
	client, err := w.lookups(st.Address.APISettings)
	if err != nil {
		return nil, err
	}
	svc, err := service.New(*st.Address, client,
		service.WithLogger(w.logger.With("step", st.Path)),
		service.WithMetrics(w.metrics),
	)
	if err != nil {
		return nil, err
	}
	return handler.New(st.Path, next, svc, w.sessions,
		handler.WithLogger(w.logger),
		handler.WithPrevious(previous),
	)
}

// Register mounts every step on r.
func (w *Wizard) Register(r chi.Router) {
	for _, st := range w.steps {
		if h, ok := w.address[st.Path]; ok {
			h.Register(r)
			if st.Next == "" {
				summary := Step{Path: summaryPath(st.Path)}
				r.Get(summary.Path, func(rw http.ResponseWriter, req *http.Request) { w.showPlain(rw, req, summary) })
			}
			continue
		}
		r.Get(st.Path, func(rw http.ResponseWriter, req *http.Request) { w.showPlain(rw, req, st) })
		r.Post(st.Path, func(rw http.ResponseWriter, req *http.Request) { w.submitPlain(rw, req, st) })
	}
}

// plainView is the render instruction of a plain step.
type plainView struct {
	Step      string                            `json:"step"`
	Next      string                            `json:"next,omitempty"`
	Values    map[string]string                 `json:"values"`
	Addresses map[string]models.SelectedAddress `json:"addresses,omitempty"`
}

func (w *Wizard) showPlain(rw http.ResponseWriter, r *http.Request, st Step) {
	ctx := r.Context()
	sess, ok := w.session(rw, r)
	if !ok {
		return
	}

	view := plainView{Step: st.Path, Next: st.Next, Values: map[string]string{}}
	fields := st.Fields
	if st.Next == "" {
		fields = w.allFields()
	}
	for _, f := range fields {
		v, err := sess.Get(ctx, f)
		if errors.Is(err, sentinel.ErrNotFound) {
			continue
		}
		if err != nil {
			w.fail(rw, r, err)
			return
		}
		view.Values[f] = string(v)
	}
	if st.Next == "" {
		addresses, err := w.addresses(ctx, sess)
		if err != nil {
			w.fail(rw, r, err)
			return
		}
		view.Addresses = addresses
	}
	httputil.WriteJSON(rw, http.StatusOK, view)
}

func (w *Wizard) submitPlain(rw http.ResponseWriter, r *http.Request, st Step) {
	ctx := r.Context()
	sess, ok := w.session(rw, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		httputil.WriteError(rw, dErrors.New(dErrors.CodeBadRequest, "invalid form body"))
		return
	}
	for _, f := range st.Fields {
		if err := sess.Set(ctx, f, []byte(r.PostForm.Get(f))); err != nil {
			w.fail(rw, r, err)
			return
		}
	}
	next := st.Next
	if next == "" {
		next = st.Path
	}
	http.Redirect(rw, r, next, http.StatusSeeOther)
}

func (w *Wizard) session(rw http.ResponseWriter, r *http.Request) (sessionstore.Session, bool) {
	id := requestcontext.SessionID(r.Context())
	if id == "" {
		w.logger.ErrorContext(r.Context(), "session id missing from context despite session middleware")
		httputil.WriteError(rw, dErrors.New(dErrors.CodeInternal, "session context error"))
		return nil, false
	}
	return w.sessions.Open(id), true
}

func (w *Wizard) fail(rw http.ResponseWriter, r *http.Request, err error) {
	w.logger.ErrorContext(r.Context(), "wizard step failed",
		"request_id", requestcontext.RequestID(r.Context()),
		"path", r.URL.Path,
		"error", err.Error(),
	)
	httputil.WriteError(rw, dErrors.New(dErrors.CodeInternal, "wizard step failed"))
}

func (w *Wizard) allFields() []string {
	var fields []string
	for _, st := range w.steps {
		fields = append(fields, st.Fields...)
	}
	return fields
}

func (w *Wizard) addresses(ctx context.Context, sess sessionstore.Session) (map[string]models.SelectedAddress, error) {
	out := make(map[string]models.SelectedAddress)
	for _, st := range w.steps {
		if st.Address == nil {
			continue
		}
		addr, err := store.New(*st.Address, store.WithLogger(w.logger)).Address(ctx, sess)
		if err != nil {
			return nil, err
		}
		if addr == nil {
			continue
		}
		out[st.Address.AddressKey] = *addr
	}
	return out, nil
}
