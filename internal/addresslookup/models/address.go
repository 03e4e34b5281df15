package models

import "strings"

// AddressCandidate is one address returned by the lookup API.
type AddressCandidate struct {
	ID        string   `json:"id"`
	Lines     []string `json:"lines,omitempty"`
	Town      string   `json:"town,omitempty"`
	Postcode  string   `json:"postcode,omitempty"`
	Country   string   `json:"country,omitempty"`
	Formatted string   `json:"formatted"`
}

// Label is the text shown for the candidate in a selection list.
func (c AddressCandidate) Label() string {
	if c.Formatted != "" {
		return c.Formatted
	}
	parts := make([]string, 0, len(c.Lines)+2)
	for _, l := range c.Lines {
		if l = strings.TrimSpace(l); l != "" {
			parts = append(parts, l)
		}
	}
	if c.Town != "" {
		parts = append(parts, c.Town)
	}
	if c.Postcode != "" {
		parts = append(parts, c.Postcode)
	}
	return strings.Join(parts, ", ")
}

// ManualAddress is an address typed in by the user.
type ManualAddress struct {
	Line1    string `json:"line1"`
	Line2    string `json:"line2,omitempty"`
	Town     string `json:"town"`
	Postcode string `json:"postcode,omitempty"`
}

// AddressSource records how the selected address was captured.
type AddressSource string

const (
	SourceLookup AddressSource = "lookup"
	SourceManual AddressSource = "manual"
)

// SelectedAddress is the result of the sub-flow. Exactly one of Candidate and
// Manual is set; use the constructors.
type SelectedAddress struct {
	Source    AddressSource     `json:"source"`
	Candidate *AddressCandidate `json:"candidate,omitempty"`
	Manual    *ManualAddress    `json:"manual,omitempty"`
}

func SelectedCandidate(c AddressCandidate) SelectedAddress {
	return SelectedAddress{Source: SourceLookup, Candidate: &c}
}

func SelectedManual(m ManualAddress) SelectedAddress {
	return SelectedAddress{Source: SourceManual, Manual: &m}
}

// Formatted renders the address on one line.
func (s SelectedAddress) Formatted() string {
	switch {
	case s.Candidate != nil:
		return s.Candidate.Label()
	case s.Manual != nil:
		parts := []string{s.Manual.Line1}
		for _, p := range []string{s.Manual.Line2, s.Manual.Town, s.Manual.Postcode} {
			if p != "" {
				parts = append(parts, p)
			}
		}
		return strings.Join(parts, ", ")
	}
	return ""
}
