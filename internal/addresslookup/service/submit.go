package service

import (
	"context"
	"strconv"
	"strings"

	"addresslookup/internal/addresslookup/models"
	"addresslookup/internal/addresslookup/navigation"
	"addresslookup/internal/addresslookup/postcode"
)

const phaseDone = "done"

// submit handles POST requests. The marker names the phase whose form was
// submitted; a lookup form without a stored result is treated as a postcode
// submission.
func (s *Service) submit(ctx context.Context, sess Session, req Request, state *models.SubflowState) (*Decision, error) {
	phase := req.Marker.Phase()
	if phase == models.PhaseLookup && !state.HasSuccess() {
		phase = models.PhasePostcode
	}

	switch phase {
	case models.PhaseLookup:
		return s.submitSelection(ctx, sess, req, state)
	case models.PhaseManual:
		return s.submitManual(ctx, sess, req, state)
	default:
		return s.submitPostcode(ctx, sess, req, state)
	}
}

func (s *Service) submitPostcode(ctx context.Context, sess Session, req Request, state *models.SubflowState) (*Decision, error) {
	raw := req.Form.Get(s.fields.Postcode)
	outcome := s.validator.Validate(raw)

	switch outcome.Kind {
	case postcode.Invalid:
		state.Reset()
		if err := s.cache.ClearAddress(ctx, sess); err != nil {
			return nil, err
		}
		return s.reject(ctx, sess, req, state,
			models.FieldErrors{s.fields.Postcode: outcome.Reason},
			models.FieldValues{s.fields.Postcode: raw},
		)

	case postcode.Skip:
		if err := s.cache.ClearAddress(ctx, sess); err != nil {
			return nil, err
		}
		state.Skip()
		if err := s.cache.Save(ctx, sess, *state); err != nil {
			return nil, err
		}
		s.transition(ctx, models.PhasePostcode, phaseDone)
		s.metrics.IncrementCompletion("skipped")
		return next(), nil
	}

	result := s.lookup.Lookup(ctx, outcome.Postcode)
	if result.IsSuccess() {
		state.EnterLookup(outcome.Postcode, result)
	} else {
		if result.Kind == models.LookupFailure {
			s.logger.InfoContext(ctx, "postcode lookup failed, offering manual entry",
				"address_key", s.settings.AddressKey,
				"reason", result.Reason,
			)
		}
		state.EnterManual(outcome.Postcode, true)
	}
	state.Errors, state.Values = nil, nil
	if err := s.cache.Save(ctx, sess, *state); err != nil {
		return nil, err
	}
	s.transition(ctx, models.PhasePostcode, string(state.Phase))
	return redirect(navigation.ResolveURL(req.Path, state.Marker(), false)), nil
}

func (s *Service) submitSelection(ctx context.Context, sess Session, req Request, state *models.SubflowState) (*Decision, error) {
	raw := req.Form.Get(s.fields.Select)
	index, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		index = -1
	}
	candidate, ok := state.LastResult.Candidate(index)
	if !ok {
		state.Phase = models.PhaseLookup
		return s.reject(ctx, sess, req, state,
			models.FieldErrors{s.fields.Select: models.ErrorSelectionOutOfRange},
			models.FieldValues{s.fields.Select: raw},
		)
	}
	return s.complete(ctx, sess, state, models.PhaseLookup, models.SelectedCandidate(candidate))
}

func (s *Service) submitManual(ctx context.Context, sess Session, req Request, state *models.SubflowState) (*Decision, error) {
	if state.Phase != models.PhaseManual {
		state.Phase = models.PhaseManual
		state.Fallback = req.Marker == models.MarkerAddress
	}

	manual := models.ManualAddress{
		Line1:    strings.TrimSpace(req.Form.Get(s.fields.Line1)),
		Line2:    strings.TrimSpace(req.Form.Get(s.fields.Line2)),
		Town:     strings.TrimSpace(req.Form.Get(s.fields.Town)),
		Postcode: strings.TrimSpace(req.Form.Get(s.fields.ManualPostcode)),
	}
	errs := s.checkManual(&manual)
	if !errs.Empty() {
		return s.reject(ctx, sess, req, state, errs, models.FieldValues{
			s.fields.Line1:          manual.Line1,
			s.fields.Line2:          manual.Line2,
			s.fields.Town:           manual.Town,
			s.fields.ManualPostcode: manual.Postcode,
		})
	}
	return s.complete(ctx, sess, state, models.PhaseManual, models.SelectedManual(manual))
}

// checkManual requires line 1 and town. A postcode is optional but must be
// well formed when given; it is normalised in place.
func (s *Service) checkManual(m *models.ManualAddress) models.FieldErrors {
	errs := models.FieldErrors{}
	if m.Line1 == "" {
		errs[s.fields.Line1] = models.ErrorRequired
	}
	if m.Town == "" {
		errs[s.fields.Town] = models.ErrorRequired
	}
	if m.Postcode != "" {
		if postcode.IsValidFormat(m.Postcode) {
			m.Postcode = postcode.Normalize(m.Postcode)
		} else {
			errs[s.fields.ManualPostcode] = models.ErrorFormat
		}
	}
	return errs
}

// reject flashes errors and redirects to the error-bearing URL of the phase.
func (s *Service) reject(ctx context.Context, sess Session, req Request, state *models.SubflowState, errs models.FieldErrors, values models.FieldValues) (*Decision, error) {
	state.Flash(errs, values)
	if err := s.cache.Save(ctx, sess, *state); err != nil {
		return nil, err
	}
	for _, code := range errs {
		s.metrics.IncrementValidationError(string(state.Phase), string(code))
	}
	s.logger.DebugContext(ctx, "address step validation failed",
		"address_key", s.settings.AddressKey,
		"phase", state.Phase,
		"errors", len(errs),
	)
	return redirect(navigation.ResolveURL(req.Path, state.Marker(), true)), nil
}

// complete stores the selected address before marking the step done.
func (s *Service) complete(ctx context.Context, sess Session, state *models.SubflowState, from models.Phase, addr models.SelectedAddress) (*Decision, error) {
	if err := s.cache.SaveAddress(ctx, sess, addr); err != nil {
		return nil, err
	}
	state.Complete()
	if err := s.cache.Save(ctx, sess, *state); err != nil {
		return nil, err
	}
	s.transition(ctx, from, phaseDone)
	s.metrics.IncrementCompletion(string(addr.Source))
	return next(), nil
}
