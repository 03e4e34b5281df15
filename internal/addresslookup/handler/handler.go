// Package handler adapts an address step to HTTP.
//
// The handler owns no flow logic: it turns the request into a service.Request,
// opens the caller's session and translates the Decision into a redirect or a
// JSON render instruction.
package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"addresslookup/internal/addresslookup/models"
	"addresslookup/internal/addresslookup/navigation"
	"addresslookup/internal/addresslookup/service"
	"addresslookup/internal/platform/middleware"
	sessionstore "addresslookup/internal/session/store"
	dErrors "addresslookup/pkg/domain-errors"
	"addresslookup/pkg/platform/httputil"
	"addresslookup/pkg/requestcontext"
)

// Service runs the address sub-flow.
type Service interface {
	Handle(ctx context.Context, sess service.Session, req service.Request) (*service.Decision, error)
}

// Handler serves one address step.
type Handler struct {
	path     string
	next     string
	previous string
	service  Service
	sessions sessionstore.Store
	logger   *slog.Logger
}

type Option func(*Handler)

func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithPrevious sets the backlink shown on the postcode phase.
func WithPrevious(path string) Option {
	return func(h *Handler) {
		h.previous = path
	}
}

// New creates a handler for the step at path that continues to next.
func New(path, next string, svc Service, sessions sessionstore.Store, opts ...Option) (*Handler, error) {
	if path == "" {
		return nil, dErrors.New(dErrors.CodeInvalidConfig, "step path is required")
	}
	if next == "" {
		return nil, dErrors.New(dErrors.CodeInvalidConfig, "next step is required")
	}
	if svc == nil {
		return nil, dErrors.New(dErrors.CodeInvalidConfig, "address service is required")
	}
	if sessions == nil {
		return nil, dErrors.New(dErrors.CodeInvalidConfig, "session store is required")
	}
	h := &Handler{
		path:     path,
		next:     next,
		service:  svc,
		sessions: sessions,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Register mounts the step on r.
func (h *Handler) Register(r chi.Router) {
	r.Get(h.path, h.handleStep)
	r.Post(h.path, h.handleStep)
}

// renderResponse is the body of a render decision.
type renderResponse struct {
	Step string                     `json:"step"`
	Next string                     `json:"next"`
	View *service.RenderInstruction `json:"view"`
}

func (h *Handler) handleStep(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	sessionID := requestcontext.SessionID(ctx)
	if sessionID == "" {
		h.logger.ErrorContext(ctx, "session id missing from context despite session middleware",
			"request_id", requestID,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "session context error"))
		return
	}

	if err := r.ParseForm(); err != nil {
		h.logger.WarnContext(ctx, "invalid address step form",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid form body"))
		return
	}

	req := service.Request{
		Method: r.Method,
		Path:   navigation.Backlink(r.URL.RequestURI()),
		Marker: models.ParseMarker(r.URL.Query().Get(navigation.QueryParam)),
		Form:   r.PostForm,
	}
	decision, err := h.service.Handle(ctx, h.sessions.Open(sessionID), req)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeBadRequest) {
			httputil.WriteError(w, err)
			return
		}
		h.logger.ErrorContext(ctx, "address step failed",
			"request_id", requestID,
			"step", h.path,
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "address step failed"))
		return
	}

	switch decision.Kind {
	case service.DecisionRedirect:
		h.redirect(w, r, decision.Location)
	case service.DecisionNext:
		h.redirect(w, r, h.next)
	default:
		view := decision.Render
		if view != nil && view.Links.Back == "" {
			view.Links.Back = h.previous
		}
		httputil.WriteJSON(w, http.StatusOK, renderResponse{Step: h.path, Next: h.next, View: view})
	}
}

// redirect uses 303 after a submission so the browser follows with GET.
func (h *Handler) redirect(w http.ResponseWriter, r *http.Request, location string) {
	status := http.StatusFound
	if r.Method == http.MethodPost {
		status = http.StatusSeeOther
	}
	http.Redirect(w, r, location, status)
}
