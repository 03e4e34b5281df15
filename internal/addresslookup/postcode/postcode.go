// Package postcode normalises and validates UK postcodes.
//
// Validation is a pure function of the raw input and the step settings: it
// never performs I/O, so the country check relies on the outward code rather
// than the lookup API.
package postcode

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/width"

	"addresslookup/internal/addresslookup/models"
)

var pattern = regexp.MustCompile(`^(GIR 0AA|[A-PR-UWYZ][A-HK-Y]?[0-9][A-Z0-9]? [0-9][ABD-HJLNP-UW-Z]{2})$`)

// OutcomeKind classifies a validation outcome.
type OutcomeKind int

const (
	// Skip means no postcode was given and none is required.
	Skip OutcomeKind = iota
	Valid
	Invalid
)

func (k OutcomeKind) String() string {
	switch k {
	case Valid:
		return "valid"
	case Invalid:
		return "invalid"
	default:
		return "skip"
	}
}

// Outcome is the result of Validate. Postcode is the normalised form and is
// only meaningful for Valid outcomes; Reason only for Invalid ones.
type Outcome struct {
	Kind     OutcomeKind
	Reason   models.ErrorCode
	Postcode string
	Country  string
}

// Normalize folds full-width characters, upper-cases, drops all whitespace and
// re-inserts a single space before the inward code.
func Normalize(raw string) string {
	s := width.Fold.String(raw)
	s = strings.ToUpper(strings.Join(strings.Fields(s), ""))
	if len(s) > 3 {
		s = s[:len(s)-3] + " " + s[len(s)-3:]
	}
	return s
}

// IsValidFormat reports whether raw normalises to a well formed postcode.
func IsValidFormat(raw string) bool {
	return pattern.MatchString(Normalize(raw))
}

// Validator applies one step's postcode rules.
type Validator struct {
	required bool
	allowed  map[string]struct{}
}

// NewValidator builds a Validator. An empty allowedCountries list accepts any country.
func NewValidator(required bool, allowedCountries []string) *Validator {
	v := &Validator{required: required}
	if len(allowedCountries) > 0 {
		fold := cases.Fold()
		v.allowed = make(map[string]struct{}, len(allowedCountries))
		for _, c := range allowedCountries {
			if c = strings.TrimSpace(c); c != "" {
				v.allowed[fold.String(c)] = struct{}{}
			}
		}
	}
	return v
}

// Validate checks raw against the format, required and country rules.
func (v *Validator) Validate(raw string) Outcome {
	normalized := Normalize(raw)
	if normalized == "" {
		if v.required {
			return Outcome{Kind: Invalid, Reason: models.ErrorRequired}
		}
		return Outcome{Kind: Skip}
	}
	if !pattern.MatchString(normalized) {
		return Outcome{Kind: Invalid, Reason: models.ErrorFormat, Postcode: normalized}
	}
	country := Country(normalized)
	if len(v.allowed) > 0 {
		if _, ok := v.allowed[cases.Fold().String(country)]; !ok {
			return Outcome{Kind: Invalid, Reason: models.ErrorCountry, Postcode: normalized, Country: country}
		}
	}
	return Outcome{Kind: Valid, Postcode: normalized, Country: country}
}

// Validate is a convenience wrapper for one-off checks.
func Validate(raw string, required bool, allowedCountries []string) Outcome {
	return NewValidator(required, allowedCountries).Validate(raw)
}
