// Package navigation builds the URLs of the address step.
//
// Every phase other than a fresh postcode entry is addressed by a step= query
// marker on the step's own path. Backlinks always unwind to the clean path.
package navigation

import (
	"net/url"

	"addresslookup/internal/addresslookup/models"
)

// QueryParam carries the phase marker.
const QueryParam = "step"

// ResolveURL returns the URL for a phase marker. The marker is omitted for an
// error-free postcode phase so a fresh step has a clean URL.
func ResolveURL(stepPath string, marker models.Marker, hasError bool) string {
	if marker == models.MarkerNone {
		marker = models.MarkerPostcode
	}
	if marker == models.MarkerPostcode && !hasError {
		return withMarker(stepPath, models.MarkerNone)
	}
	return withMarker(stepPath, marker)
}

// Backlink resolves to the clean postcode phase from any phase.
func Backlink(stepPath string) string {
	return withMarker(stepPath, models.MarkerNone)
}

// ChangeURL is the "change postcode" link shown with the results list.
func ChangeURL(stepPath string) string {
	return withMarker(stepPath, models.MarkerPostcode)
}

// CantFindURL is the "can't find the address" link shown with the results list.
func CantFindURL(stepPath string) string {
	return withMarker(stepPath, models.MarkerManual)
}

// withMarker sets or removes the marker, keeping any other query parameters.
func withMarker(stepPath string, marker models.Marker) string {
	u, err := url.Parse(stepPath)
	if err != nil {
		if marker == models.MarkerNone {
			return stepPath
		}
		return stepPath + "?" + QueryParam + "=" + url.QueryEscape(string(marker))
	}
	q := u.Query()
	if marker == models.MarkerNone {
		q.Del(QueryParam)
	} else {
		q.Set(QueryParam, string(marker))
	}
	u.RawQuery = q.Encode()
	return u.String()
}
