package models

// LookupKind classifies a lookup outcome.
type LookupKind string

const (
	LookupSuccess LookupKind = "success"
	LookupEmpty   LookupKind = "empty"
	LookupFailure LookupKind = "failure"
)

// FailureReason explains a failed lookup for logs and metrics.
type FailureReason string

const (
	FailureTransport   FailureReason = "transport"
	FailureServer      FailureReason = "server"
	FailureBadData     FailureReason = "bad_data"
	FailureUnavailable FailureReason = "unavailable"
)

// LookupResult is the typed outcome of one lookup. Candidates are only present
// for LookupSuccess and keep the API's order.
type LookupResult struct {
	Kind       LookupKind         `json:"kind"`
	Candidates []AddressCandidate `json:"candidates,omitempty"`
	Reason     FailureReason      `json:"reason,omitempty"`
}

// NewLookupResult classifies candidates as Success or Empty.
func NewLookupResult(candidates []AddressCandidate) LookupResult {
	if len(candidates) == 0 {
		return LookupResult{Kind: LookupEmpty}
	}
	return LookupResult{Kind: LookupSuccess, Candidates: candidates}
}

func EmptyResult() LookupResult {
	return LookupResult{Kind: LookupEmpty}
}

func FailedResult(reason FailureReason) LookupResult {
	return LookupResult{Kind: LookupFailure, Reason: reason}
}

func (r LookupResult) IsSuccess() bool {
	return r.Kind == LookupSuccess && len(r.Candidates) > 0
}

// Candidate returns the candidate at index i.
func (r LookupResult) Candidate(i int) (AddressCandidate, bool) {
	if !r.IsSuccess() || i < 0 || i >= len(r.Candidates) {
		return AddressCandidate{}, false
	}
	return r.Candidates[i], true
}
