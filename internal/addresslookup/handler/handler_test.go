package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"addresslookup/internal/addresslookup/lookup"
	"addresslookup/internal/addresslookup/lookup/lookuptest"
	"addresslookup/internal/addresslookup/models"
	"addresslookup/internal/addresslookup/service"
	"addresslookup/internal/platform/config"
	"addresslookup/internal/platform/middleware"
	sessionstore "addresslookup/internal/session/store"
	dErrors "addresslookup/pkg/domain-errors"
	"addresslookup/pkg/testutil"
)

const (
	cookieName = "wizard.sid"
	sessionID  = "0b7c6c1e-1f59-4c39-9d0e-2d1c7c1f1a11"
)

// =============================================================================
// Step Handler Test Suite
// =============================================================================
// Drives the step over HTTP against the fake postcode API, asserting the
// redirect targets a browser would follow.

type HandlerSuite struct {
	suite.Suite
	api      *lookuptest.API
	apiURL   string
	server   *httptest.Server
	sessions *sessionstore.InMemoryStore
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.server, s.api = lookuptest.NewServer()
	s.apiURL = s.server.URL + lookuptest.Path
	s.sessions = sessionstore.NewInMemory(time.Hour)
}

func (s *HandlerSuite) TearDownTest() {
	s.server.Close()
}

func (s *HandlerSuite) router(configure func(*models.Settings)) http.Handler {
	settings := models.Settings{
		AddressKey:  "address-one",
		APISettings: models.APISettings{Hostname: s.apiURL},
	}
	if configure != nil {
		configure(&settings)
	}
	client, err := lookup.New(settings.APISettings)
	s.Require().NoError(err)
	svc, err := service.New(settings, client)
	s.Require().NoError(err)
	h, err := New("/one", "/two", svc, s.sessions, WithPrevious("/"))
	s.Require().NoError(err)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Session(config.Session{CookieName: cookieName, TTL: time.Hour}))
	h.Register(r)
	return r
}

func (s *HandlerSuite) do(h http.Handler, method, target string, form url.Values) *httptest.ResponseRecorder {
	req := testutil.NewFormRequest(s.T(), method, target, form)
	req.AddCookie(&http.Cookie{Name: cookieName, Value: sessionID})
	return testutil.DoRequest(h, req)
}

func (s *HandlerSuite) submitPostcode(h http.Handler, target, postcode string) *httptest.ResponseRecorder {
	return s.do(h, http.MethodPost, target, url.Values{"address-one-postcode": {postcode}})
}

func (s *HandlerSuite) requireRedirect(rr *httptest.ResponseRecorder, location string) {
	testutil.AssertRedirect(s.T(), rr, http.StatusSeeOther, location)
}

func (s *HandlerSuite) view(rr *httptest.ResponseRecorder) renderResponse {
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
	resp := testutil.UnmarshalResponse[renderResponse](s.T(), rr)
	s.Require().NotNil(resp.View)
	return *resp
}

// =============================================================================
// Postcode submissions
// =============================================================================

func (s *HandlerSuite) TestPostcodeWithoutResultsGoesToAddressEntry() {
	h := s.router(nil)
	s.requireRedirect(s.submitPostcode(h, "/one", "BN25 1XY"), "/one?step=address")

	resp := s.view(s.do(h, http.MethodGet, "/one?step=address", nil))
	s.Equal(models.PhaseManual, resp.View.Phase)
	s.Equal(models.MarkerAddress, resp.View.Marker)
}

func (s *HandlerSuite) TestPostcodeWithResultsGoesToLookup() {
	h := s.router(nil)
	s.requireRedirect(s.submitPostcode(h, "/one", "CR0 2EU"), "/one?step=lookup")

	resp := s.view(s.do(h, http.MethodGet, "/one?step=lookup", nil))
	s.Equal(models.PhaseLookup, resp.View.Phase)
	s.Require().Len(resp.View.Candidates, 2)
	s.Equal("/one?step=postcode", resp.View.Links.Change)
	s.Equal("/one?step=manual", resp.View.Links.CantFind)

	s.requireRedirect(s.do(h, http.MethodPost, "/one?step=lookup", url.Values{"address-one-select": {"1"}}), "/two")

	raw, err := s.sessions.Open(sessionID).Get(context.Background(), "address-one")
	s.Require().NoError(err)
	var selected models.SelectedAddress
	s.Require().NoError(json.Unmarshal(raw, &selected))
	s.Equal("100020652831", selected.Candidate.ID)

	s.Run("returning to a finished step moves on", func() {
		testutil.AssertRedirect(s.T(), s.do(h, http.MethodGet, "/one", nil), http.StatusFound, "/two")
	})
}

func (s *HandlerSuite) TestInvalidPostcodeStaysOnStep() {
	h := s.router(nil)
	s.requireRedirect(s.submitPostcode(h, "/one", "INVALID"), "/one?step=postcode")

	resp := s.view(s.do(h, http.MethodGet, "/one?step=postcode", nil))
	s.Equal("/one", resp.Step)
	s.Equal(models.ErrorFormat, resp.View.Errors["address-one-postcode"])
	s.Equal(0, s.api.Calls(), "invalid postcodes never reach the API")
}

func (s *HandlerSuite) TestErrorRenderLinksBackToStep() {
	h := s.router(nil)
	s.requireRedirect(s.submitPostcode(h, "/one", "INVALID"), "/one?step=postcode")

	resp := s.view(s.do(h, http.MethodGet, "/one?step=postcode", nil))
	s.Require().True(resp.View.HasErrors())
	s.Equal("/one", resp.View.Links.Back)

	s.Run("clean postcode render links to the previous step", func() {
		resp := s.view(s.do(h, http.MethodGet, "/one", nil))
		s.Equal("/", resp.View.Links.Back)
	})
}

func (s *HandlerSuite) TestPostcodeOutsideAllowedCountries() {
	h := s.router(func(settings *models.Settings) {
		settings.Validate.AllowedCountries = []string{"England"}
	})
	s.requireRedirect(s.submitPostcode(h, "/one", "CH5 1AB"), "/one?step=postcode")

	resp := s.view(s.do(h, http.MethodGet, "/one?step=postcode", nil))
	s.Equal(models.ErrorCountry, resp.View.Errors["address-one-postcode"])
}

func (s *HandlerSuite) TestEmptyPostcode() {
	s.Run("optional step continues", func() {
		h := s.router(nil)
		s.requireRedirect(s.submitPostcode(h, "/one", ""), "/two")
	})

	s.Run("required step shows an error", func() {
		h := s.router(func(settings *models.Settings) { settings.Required = true })
		s.requireRedirect(s.submitPostcode(h, "/one", ""), "/one?step=postcode")
	})
}

func (s *HandlerSuite) TestApiFailureFallsBackToAddressEntry() {
	s.api.FailWith(http.StatusInternalServerError, "")
	h := s.router(nil)
	s.requireRedirect(s.submitPostcode(h, "/one", "CR0 2EU"), "/one?step=address")
	s.Equal(1, s.api.Calls())
}

func (s *HandlerSuite) TestAuthorizationSentToApi() {
	h := s.router(func(settings *models.Settings) {
		settings.APISettings.Authorization = "Basic dGVzdA=="
	})
	s.submitPostcode(h, "/one", "CR0 2EU")
	s.Equal("Basic dGVzdA==", s.api.LastAuthorization())
}

// =============================================================================
// Links
// =============================================================================

func (s *HandlerSuite) TestChangeAndCantFindLinks() {
	h := s.router(nil)
	s.submitPostcode(h, "/one", "CR0 2EU")

	s.Run("can't find", func() {
		resp := s.view(s.do(h, http.MethodGet, "/one?step=manual", nil))
		s.Equal(models.PhaseManual, resp.View.Phase)
		s.Equal(models.MarkerManual, resp.View.Marker)
	})

	s.Run("change", func() {
		resp := s.view(s.do(h, http.MethodGet, "/one?step=postcode", nil))
		s.Equal(models.PhasePostcode, resp.View.Phase)
		s.Equal("CR0 2EU", resp.View.Values["address-one-postcode"])
	})

	s.Run("back", func() {
		resp := s.view(s.do(h, http.MethodGet, "/one", nil))
		s.Equal(models.PhasePostcode, resp.View.Phase)
		s.Equal("/", resp.View.Links.Back)
	})
}

func (s *HandlerSuite) TestManualEntry() {
	h := s.router(nil)
	s.submitPostcode(h, "/one", "BN25 1XY")

	s.requireRedirect(s.do(h, http.MethodPost, "/one?step=address", url.Values{"address-one-town": {"Seaford"}}), "/one?step=address")
	s.requireRedirect(s.do(h, http.MethodPost, "/one?step=address", url.Values{
		"address-one-address-line-1": {"1 Sea Road"},
		"address-one-town":           {"Seaford"},
	}), "/two")
}

// =============================================================================
// Errors
// =============================================================================

type failingService struct {
	err error
}

func (f failingService) Handle(context.Context, service.Session, service.Request) (*service.Decision, error) {
	return nil, f.err
}

func TestHandleStepErrors(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sessions := sessionstore.NewInMemory(time.Hour)

	serve := func(t *testing.T, session string, svc Service) *httptest.ResponseRecorder {
		h, err := New("/one", "/two", svc, sessions, WithLogger(logger))
		require.NoError(t, err)
		req := testutil.WithSessionID(testutil.NewFormRequest(t, http.MethodGet, "/one", nil), session)
		rr := httptest.NewRecorder()
		h.handleStep(rr, req)
		return rr
	}

	t.Run("missing session is internal", func(t *testing.T) {
		rr := serve(t, "", failingService{})
		testutil.AssertStatus(t, rr, http.StatusInternalServerError)
		testutil.AssertErrorCode(t, rr, "internal_error")
	})

	t.Run("backend failure hides details", func(t *testing.T) {
		rr := serve(t, sessionID, failingService{err: dErrors.Wrap(errors.New("redis down"), dErrors.CodeInternal, "failed to read")})
		testutil.AssertStatus(t, rr, http.StatusInternalServerError)
		require.NotContains(t, rr.Body.String(), "redis down")
		testutil.AssertErrorCode(t, rr, "internal_error")
	})

	t.Run("bad request passes through", func(t *testing.T) {
		rr := serve(t, sessionID, failingService{err: dErrors.New(dErrors.CodeBadRequest, "unsupported method")})
		testutil.AssertStatus(t, rr, http.StatusBadRequest)
		testutil.AssertErrorCode(t, rr, "bad_request")
	})
}

func TestNewRequiresCollaborators(t *testing.T) {
	sessions := sessionstore.NewInMemory(time.Hour)
	_, err := New("", "/two", failingService{}, sessions)
	require.True(t, dErrors.HasCode(err, dErrors.CodeInvalidConfig))
	_, err = New("/one", "", failingService{}, sessions)
	require.True(t, dErrors.HasCode(err, dErrors.CodeInvalidConfig))
	_, err = New("/one", "/two", nil, sessions)
	require.True(t, dErrors.HasCode(err, dErrors.CodeInvalidConfig))
}
