package models

// SubflowState is the per-session position of one address step.
//
// Invariants:
//   - Phase is always one of the three known phases
//   - LastResult only ever holds a Success result; change, back and failed
//     lookups clear it
//   - Done is set only after the selected address has been written under the
//     step's address key, or after a skip has removed it
//   - Errors is a one-shot flash, cleared by the render that shows it
type SubflowState struct {
	Phase      Phase         `json:"phase"`
	Postcode   string        `json:"postcode,omitempty"`
	LastResult *LookupResult `json:"last_result,omitempty"`
	Fallback   bool          `json:"fallback,omitempty"`
	Done       bool          `json:"done,omitempty"`
	Errors     FieldErrors   `json:"errors,omitempty"`
	Values     FieldValues   `json:"values,omitempty"`
}

// FieldValues echoes submitted values back to an error render.
type FieldValues map[string]string

// NewSubflowState is the state on first entry to the step.
func NewSubflowState() SubflowState {
	return SubflowState{Phase: PhasePostcode}
}

// Reset unwinds to a clean postcode phase.
func (s *SubflowState) Reset() {
	*s = NewSubflowState()
}

// EnterLookup offers a successful result for selection.
func (s *SubflowState) EnterLookup(postcode string, result LookupResult) {
	s.Phase = PhaseLookup
	s.Postcode = postcode
	s.LastResult = &result
	s.Fallback = false
	s.Done = false
}

// EnterManual switches to manual entry. fallback is true when the lookup
// produced nothing usable and false when the user declined the candidates.
func (s *SubflowState) EnterManual(postcode string, fallback bool) {
	s.Phase = PhaseManual
	s.Postcode = postcode
	s.LastResult = nil
	s.Fallback = fallback
	s.Done = false
}

// DeclineCandidates moves to manual entry at the user's request. The offered
// result is kept so the results list can be shown again.
func (s *SubflowState) DeclineCandidates() {
	s.Phase = PhaseManual
	s.Fallback = false
}

// Skip finishes an optional step without an address.
func (s *SubflowState) Skip() {
	s.Reset()
	s.Done = true
}

// Complete marks the sub-flow finished.
func (s *SubflowState) Complete() {
	s.LastResult = nil
	s.Done = true
	s.Errors = nil
	s.Values = nil
}

// Flash stores errors and echoed values for the next render.
func (s *SubflowState) Flash(errs FieldErrors, values FieldValues) {
	s.Errors = errs
	s.Values = values
}

// TakeFlash returns and clears the flashed errors and values.
func (s *SubflowState) TakeFlash() (FieldErrors, FieldValues) {
	errs, values := s.Errors, s.Values
	s.Errors, s.Values = nil, nil
	return errs, values
}

// HasSuccess reports whether a selectable result is held.
func (s SubflowState) HasSuccess() bool {
	return s.LastResult != nil && s.LastResult.IsSuccess()
}

// Marker is the step= value that addresses the current phase.
func (s SubflowState) Marker() Marker {
	switch s.Phase {
	case PhaseLookup:
		return MarkerLookup
	case PhaseManual:
		if s.Fallback {
			return MarkerAddress
		}
		return MarkerManual
	default:
		return MarkerPostcode
	}
}
