package service

import (
	"context"

	"addresslookup/internal/addresslookup/models"
	"addresslookup/internal/addresslookup/navigation"
)

// show handles GET requests. The marker selects the action:
//
//	none      entry or backlink; finished steps skip straight to next
//	postcode  error re-render, or the "change postcode" link
//	lookup    results list
//	address   manual entry after an empty or failed lookup
//	manual    the "can't find the address" link
func (s *Service) show(ctx context.Context, sess Session, req Request, state *models.SubflowState) (*Decision, error) {
	switch req.Marker {
	case models.MarkerPostcode:
		return s.showPostcode(ctx, sess, req, state)
	case models.MarkerLookup:
		return s.showLookup(ctx, sess, req, state)
	case models.MarkerAddress, models.MarkerManual:
		return s.showManual(ctx, sess, req, state)
	default:
		return s.enter(ctx, sess, req, state)
	}
}

func (s *Service) enter(ctx context.Context, sess Session, req Request, state *models.SubflowState) (*Decision, error) {
	if state.Done {
		return next(), nil
	}
	if state.Phase != models.PhasePostcode || state.LastResult != nil {
		s.transition(ctx, state.Phase, string(models.PhasePostcode))
	}
	state.Reset()
	if err := s.cache.ClearAddress(ctx, sess); err != nil {
		return nil, err
	}
	if err := s.cache.Save(ctx, sess, *state); err != nil {
		return nil, err
	}
	return render(s.postcodeView(state, nil, nil)), nil
}

func (s *Service) showPostcode(ctx context.Context, sess Session, req Request, state *models.SubflowState) (*Decision, error) {
	errs, values := state.TakeFlash()
	if errs.Empty() {
		// "change postcode": unwind the offered results and any selection.
		if state.Phase != models.PhasePostcode {
			s.transition(ctx, state.Phase, string(models.PhasePostcode))
		}
		state.Phase = models.PhasePostcode
		state.LastResult = nil
		state.Fallback = false
		state.Done = false
		if err := s.cache.ClearAddress(ctx, sess); err != nil {
			return nil, err
		}
		if state.Postcode != "" {
			values = models.FieldValues{s.fields.Postcode: state.Postcode}
		}
	}
	if err := s.cache.Save(ctx, sess, *state); err != nil {
		return nil, err
	}
	view := s.postcodeView(state, errs, values)
	if !errs.Empty() {
		view.Marker = models.MarkerPostcode
		view.Links.Back = navigation.Backlink(req.Path)
	}
	return render(view), nil
}

func (s *Service) showLookup(ctx context.Context, sess Session, req Request, state *models.SubflowState) (*Decision, error) {
	if !state.HasSuccess() {
		return redirect(navigation.Backlink(req.Path)), nil
	}
	errs, values := state.TakeFlash()
	state.Phase = models.PhaseLookup
	if err := s.cache.Save(ctx, sess, *state); err != nil {
		return nil, err
	}

	options := make([]CandidateOption, 0, len(state.LastResult.Candidates))
	for i, c := range state.LastResult.Candidates {
		options = append(options, CandidateOption{Index: i, ID: c.ID, Label: c.Label()})
	}
	return render(&RenderInstruction{
		Phase:      models.PhaseLookup,
		Marker:     models.MarkerLookup,
		Required:   s.settings.Required,
		Postcode:   state.Postcode,
		Fields:     s.fields,
		Errors:     errs,
		Values:     values,
		Candidates: options,
		Links: Links{
			Back:     navigation.Backlink(req.Path),
			Change:   navigation.ChangeURL(req.Path),
			CantFind: navigation.CantFindURL(req.Path),
		},
	}), nil
}

func (s *Service) showManual(ctx context.Context, sess Session, req Request, state *models.SubflowState) (*Decision, error) {
	switch {
	case req.Marker == models.MarkerManual && state.Phase != models.PhaseManual:
		// "can't find the address"
		s.transition(ctx, state.Phase, string(models.PhaseManual))
		state.DeclineCandidates()
	case req.Marker == models.MarkerAddress && state.Phase != models.PhaseManual:
		return redirect(navigation.Backlink(req.Path)), nil
	}

	errs, values := state.TakeFlash()
	if err := s.cache.Save(ctx, sess, *state); err != nil {
		return nil, err
	}
	if errs.Empty() && state.Postcode != "" {
		values = models.FieldValues{s.fields.ManualPostcode: state.Postcode}
	}
	return render(&RenderInstruction{
		Phase:    models.PhaseManual,
		Marker:   state.Marker(),
		Required: s.settings.Required,
		Postcode: state.Postcode,
		Fields:   s.fields,
		Errors:   errs,
		Values:   values,
		Links: Links{
			Back:   navigation.Backlink(req.Path),
			Change: navigation.ChangeURL(req.Path),
		},
	}), nil
}

func (s *Service) postcodeView(state *models.SubflowState, errs models.FieldErrors, values models.FieldValues) *RenderInstruction {
	return &RenderInstruction{
		Phase:    models.PhasePostcode,
		Required: s.settings.Required,
		Postcode: state.Postcode,
		Fields:   s.fields,
		Errors:   errs,
		Values:   values,
	}
}
