package service

import (
	"net/url"

	"addresslookup/internal/addresslookup/models"
)

// Request is what the host passes in for one request to the step.
type Request struct {
	Method string
	// Path is the step's URL without the step= marker.
	Path   string
	Marker models.Marker
	Form   url.Values
}

// DecisionKind tells the host what to do with the response.
type DecisionKind string

const (
	DecisionRender   DecisionKind = "render"
	DecisionRedirect DecisionKind = "redirect"
	// DecisionNext hands control back to the host's next step.
	DecisionNext DecisionKind = "next"
)

type Decision struct {
	Kind     DecisionKind       `json:"kind"`
	Location string             `json:"location,omitempty"`
	Render   *RenderInstruction `json:"render,omitempty"`
}

// RenderInstruction describes the phase to show. Candidates is only set for
// the lookup phase.
type RenderInstruction struct {
	Phase      models.Phase       `json:"phase"`
	Marker     models.Marker      `json:"marker,omitempty"`
	Required   bool               `json:"required"`
	Postcode   string             `json:"postcode,omitempty"`
	Fields     models.Fields      `json:"fields"`
	Errors     models.FieldErrors `json:"errors,omitempty"`
	Values     models.FieldValues `json:"values,omitempty"`
	Candidates []CandidateOption  `json:"candidates,omitempty"`
	Links      Links              `json:"links"`
}

// CandidateOption is one entry of the results list. Index is the value to
// submit in the select field.
type CandidateOption struct {
	Index int    `json:"index"`
	ID    string `json:"id"`
	Label string `json:"label"`
}

type Links struct {
	Back     string `json:"back,omitempty"`
	Change   string `json:"change,omitempty"`
	CantFind string `json:"cant_find,omitempty"`
}

func redirect(location string) *Decision {
	return &Decision{Kind: DecisionRedirect, Location: location}
}

func next() *Decision {
	return &Decision{Kind: DecisionNext}
}

func render(r *RenderInstruction) *Decision {
	return &Decision{Kind: DecisionRender, Render: r}
}

// HasErrors reports whether the instruction carries validation errors.
func (r *RenderInstruction) HasErrors() bool {
	return r != nil && !r.Errors.Empty()
}
