package lookup

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"addresslookup/internal/addresslookup/models"
)

// addressRecord is one entry of the API payload.
type addressRecord struct {
	UPRN             flexString `json:"uprn"`
	ID               flexString `json:"id"`
	FormattedAddress string     `json:"formatted_address"`
	Line1            string     `json:"address_line_1"`
	Line2            string     `json:"address_line_2"`
	Line3            string     `json:"address_line_3"`
	Town             string     `json:"town"`
	PostTown         string     `json:"post_town"`
	Postcode         string     `json:"postcode"`
	Country          string     `json:"country"`
}

// envelope covers APIs that wrap the list in an object.
type envelope struct {
	Results   []addressRecord `json:"results"`
	Addresses []addressRecord `json:"addresses"`
}

// flexString accepts both JSON strings and numbers; UPRNs arrive as either.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// parseResponse maps a raw API response to ordered candidates.
func parseResponse(status int, body []byte) ([]models.AddressCandidate, error) {
	if status < 200 || status > 299 {
		return nil, newError(models.FailureServer, status, "unexpected status", nil)
	}

	records, err := decodeRecords(body)
	if err != nil {
		return nil, newError(models.FailureBadData, status, "malformed payload", err)
	}

	candidates := make([]models.AddressCandidate, 0, len(records))
	for i, rec := range records {
		c, ok := toCandidate(rec, i)
		if !ok {
			return nil, newError(models.FailureBadData, status, "address record without address text", nil)
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}

func decodeRecords(body []byte) ([]addressRecord, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, errEmptyBody
	}
	if trimmed[0] == '[' {
		var records []addressRecord
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, err
		}
		return records, nil
	}
	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, err
	}
	if env.Results != nil {
		return env.Results, nil
	}
	return env.Addresses, nil
}

func toCandidate(rec addressRecord, index int) (models.AddressCandidate, bool) {
	lines := make([]string, 0, 3)
	for _, l := range []string{rec.Line1, rec.Line2, rec.Line3} {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	town := strings.TrimSpace(rec.PostTown)
	if town == "" {
		town = strings.TrimSpace(rec.Town)
	}
	c := models.AddressCandidate{
		Lines:     lines,
		Town:      town,
		Postcode:  strings.TrimSpace(rec.Postcode),
		Country:   strings.TrimSpace(rec.Country),
		Formatted: strings.TrimSpace(rec.FormattedAddress),
	}
	if c.Formatted == "" && len(lines) == 0 {
		return models.AddressCandidate{}, false
	}

	switch {
	case rec.UPRN != "":
		c.ID = string(rec.UPRN)
	case rec.ID != "":
		c.ID = string(rec.ID)
	default:
		c.ID = strconv.Itoa(index)
	}
	return c, true
}
