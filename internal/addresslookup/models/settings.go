package models

import (
	"net/url"
	"strings"

	dErrors "addresslookup/pkg/domain-errors"
)

// StateKeyPrefix namespaces the internal sub-state in the host session.
const StateKeyPrefix = "addresslookup:"

// APISettings points at the postcode lookup API.
type APISettings struct {
	Hostname      string
	Authorization string
}

// ValidateSettings restricts accepted postcodes.
type ValidateSettings struct {
	AllowedCountries []string
}

// Settings configures one address step. It is immutable once the step is built.
type Settings struct {
	AddressKey  string
	Required    bool
	APISettings APISettings
	Validate    ValidateSettings
}

// Check enforces the construction-time invariants.
func (s Settings) Check() error {
	if strings.TrimSpace(s.AddressKey) == "" {
		return dErrors.New(dErrors.CodeInvalidConfig, "addressKey is required")
	}
	if strings.TrimSpace(s.APISettings.Hostname) == "" {
		return dErrors.New(dErrors.CodeInvalidConfig, "apiSettings.hostname is required")
	}
	u, err := url.Parse(s.APISettings.Hostname)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return dErrors.New(dErrors.CodeInvalidConfig, "apiSettings.hostname must be an absolute URL")
	}
	return nil
}

// StateKey is the session key holding the SubflowState.
func (s Settings) StateKey() string {
	return StateKeyPrefix + s.AddressKey
}

// Fields returns the form field names for this step.
func (s Settings) Fields() Fields {
	k := s.AddressKey
	return Fields{
		Postcode:       k + "-postcode",
		Select:         k + "-select",
		Line1:          k + "-address-line-1",
		Line2:          k + "-address-line-2",
		Town:           k + "-town",
		ManualPostcode: k + "-manual-postcode",
	}
}

// Fields names the inputs of each phase, prefixed by the address key so
// several address steps can share one wizard.
type Fields struct {
	Postcode       string `json:"postcode"`
	Select         string `json:"select"`
	Line1          string `json:"line1"`
	Line2          string `json:"line2"`
	Town           string `json:"town"`
	ManualPostcode string `json:"manual_postcode"`
}
