// Package lookuptest serves a fake postcode API with fixed fixtures.
package lookuptest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
)

// Record mirrors the JSON shape of the real API.
type Record struct {
	UPRN             string `json:"uprn"`
	FormattedAddress string `json:"formatted_address"`
	Line1            string `json:"address_line_1,omitempty"`
	Line2            string `json:"address_line_2,omitempty"`
	PostTown         string `json:"post_town,omitempty"`
	Postcode         string `json:"postcode"`
	Country          string `json:"country,omitempty"`
}

// Postcodes used by the fixtures.
const (
	PostcodeWithResults = "CR0 2EU"
	PostcodeNoResults   = "BN25 1XY"
)

// DefaultFixtures returns two addresses for CR0 2EU and none for BN25 1XY.
func DefaultFixtures() map[string][]Record {
	return map[string][]Record{
		PostcodeWithResults: {
			{
				UPRN:             "100020652830",
				FormattedAddress: "Lunar House, 40 Wellesley Road, Croydon, CR0 2EU",
				Line1:            "Lunar House",
				Line2:            "40 Wellesley Road",
				PostTown:         "Croydon",
				Postcode:         PostcodeWithResults,
				Country:          "England",
			},
			{
				UPRN:             "100020652831",
				FormattedAddress: "Apollo House, 36 Wellesley Road, Croydon, CR0 2EU",
				Line1:            "Apollo House",
				Line2:            "36 Wellesley Road",
				PostTown:         "Croydon",
				Postcode:         PostcodeWithResults,
				Country:          "England",
			},
		},
		PostcodeNoResults: {},
	}
}

// API is a fake postcode API handler.
type API struct {
	mu            sync.RWMutex
	fixtures      map[string][]Record
	authorization string
	status        int
	rawBody       string
	calls         atomic.Int64
	lastAuth      atomic.Value
}

type Option func(*API)

// WithAuthorization makes the API answer 401 unless the header matches.
func WithAuthorization(header string) Option {
	return func(a *API) {
		a.authorization = header
	}
}

// WithFixtures replaces the default fixtures.
func WithFixtures(f map[string][]Record) Option {
	return func(a *API) {
		a.fixtures = f
	}
}

func NewAPI(opts ...Option) *API {
	a := &API{fixtures: DefaultFixtures()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// FailWith makes every subsequent response use status and body verbatim.
// A zero status restores normal behaviour.
func (a *API) FailWith(status int, body string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.status = status
	a.rawBody = body
}

// Calls returns how many requests the API has served.
func (a *API) Calls() int {
	return int(a.calls.Load())
}

// LastAuthorization returns the Authorization header of the last request.
func (a *API) LastAuthorization() string {
	v, _ := a.lastAuth.Load().(string)
	return v
}

func (a *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.calls.Add(1)
	a.lastAuth.Store(r.Header.Get("Authorization"))

	a.mu.RLock()
	status, rawBody := a.status, a.rawBody
	a.mu.RUnlock()

	if status != 0 {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(rawBody))
		return
	}
	if a.authorization != "" && r.Header.Get("Authorization") != a.authorization {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	postcode := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("postcode")))
	a.mu.RLock()
	records, ok := a.fixtures[postcode]
	a.mu.RUnlock()
	if !ok {
		records = []Record{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(records)
}

// Router mounts the API at path on a chi router.
func Router(path string, api *API) http.Handler {
	r := chi.NewRouter()
	r.Method(http.MethodGet, path, api)
	return r
}

// NewServer starts an httptest server with the API mounted at /api/postcode-test.
func NewServer(opts ...Option) (*httptest.Server, *API) {
	api := NewAPI(opts...)
	return httptest.NewServer(Router(Path, api)), api
}

// Path is where NewServer mounts the API.
const Path = "/api/postcode-test"
