package models

// Phase is the position within the address sub-flow.
type Phase string

const (
	PhasePostcode Phase = "postcode"
	PhaseLookup   Phase = "lookup"
	PhaseManual   Phase = "manual"
)

// Valid reports whether p is one of the known phases.
func (p Phase) Valid() bool {
	switch p {
	case PhasePostcode, PhaseLookup, PhaseManual:
		return true
	}
	return false
}

// Marker is the value of the step= query parameter.
//
// Manual entry has two markers: MarkerAddress when the lookup found nothing
// usable, MarkerManual when the user chose to type the address.
type Marker string

const (
	MarkerNone     Marker = ""
	MarkerPostcode Marker = "postcode"
	MarkerLookup   Marker = "lookup"
	MarkerAddress  Marker = "address"
	MarkerManual   Marker = "manual"
)

// ParseMarker maps a raw query value to a Marker. Unknown values map to MarkerNone.
func ParseMarker(raw string) Marker {
	switch m := Marker(raw); m {
	case MarkerPostcode, MarkerLookup, MarkerAddress, MarkerManual:
		return m
	}
	return MarkerNone
}

// Phase returns the phase a marker addresses.
func (m Marker) Phase() Phase {
	switch m {
	case MarkerLookup:
		return PhaseLookup
	case MarkerAddress, MarkerManual:
		return PhaseManual
	default:
		return PhasePostcode
	}
}
