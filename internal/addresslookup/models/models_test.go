package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "addresslookup/pkg/domain-errors"
)

func TestSettingsCheck(t *testing.T) {
	valid := Settings{
		AddressKey:  "address-one",
		APISettings: APISettings{Hostname: "http://localhost:8081/api/postcode-test"},
	}
	require.NoError(t, valid.Check())

	t.Run("missing address key is a configuration error", func(t *testing.T) {
		s := valid
		s.AddressKey = "  "
		err := s.Check()
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidConfig))
		assert.Contains(t, err.Error(), "addressKey")
	})

	t.Run("missing hostname is a configuration error", func(t *testing.T) {
		s := valid
		s.APISettings.Hostname = ""
		assert.True(t, dErrors.HasCode(s.Check(), dErrors.CodeInvalidConfig))
	})

	t.Run("relative hostname is rejected", func(t *testing.T) {
		s := valid
		s.APISettings.Hostname = "/api/postcode-test"
		assert.True(t, dErrors.HasCode(s.Check(), dErrors.CodeInvalidConfig))
	})

	t.Run("authorization is optional", func(t *testing.T) {
		s := valid
		s.APISettings.Authorization = ""
		assert.NoError(t, s.Check())
	})
}

func TestSettingsKeysAreNamespaced(t *testing.T) {
	one := Settings{AddressKey: "address-one"}
	two := Settings{AddressKey: "address-two"}

	assert.Equal(t, "addresslookup:address-one", one.StateKey())
	assert.NotEqual(t, one.StateKey(), two.StateKey())
	assert.Equal(t, "address-one-postcode", one.Fields().Postcode)
	assert.Equal(t, "address-two-select", two.Fields().Select)
}

func TestSubflowStateMarkers(t *testing.T) {
	s := NewSubflowState()
	assert.Equal(t, MarkerPostcode, s.Marker())

	s.EnterLookup("CR0 2EU", NewLookupResult([]AddressCandidate{{ID: "a"}}))
	assert.Equal(t, MarkerLookup, s.Marker())
	assert.True(t, s.HasSuccess())

	s.EnterManual("CR0 2EU", false)
	assert.Equal(t, MarkerManual, s.Marker())
	assert.Nil(t, s.LastResult)

	s.EnterManual("BN25 1XY", true)
	assert.Equal(t, MarkerAddress, s.Marker())

	s.Complete()
	assert.True(t, s.Done)

	s.Reset()
	assert.Equal(t, NewSubflowState(), s)
}

func TestSubflowStateSkip(t *testing.T) {
	s := NewSubflowState()
	s.EnterLookup("CR0 2EU", NewLookupResult([]AddressCandidate{{ID: "a"}}))
	s.Flash(FieldErrors{"address-one-select": ErrorSelectionOutOfRange}, nil)

	s.Skip()
	assert.True(t, s.Done)
	assert.Equal(t, PhasePostcode, s.Phase)
	assert.Empty(t, s.Postcode)
	assert.Nil(t, s.LastResult)
	assert.True(t, s.Errors.Empty())
}

func TestSubflowStateFlashIsOneShot(t *testing.T) {
	s := NewSubflowState()
	s.Flash(FieldErrors{"address-one-postcode": ErrorFormat}, FieldValues{"address-one-postcode": "INVALID"})

	errs, values := s.TakeFlash()
	assert.Equal(t, ErrorFormat, errs["address-one-postcode"])
	assert.Equal(t, "INVALID", values["address-one-postcode"])

	errs, values = s.TakeFlash()
	assert.True(t, errs.Empty())
	assert.Nil(t, values)
}

func TestLookupResultCandidateBounds(t *testing.T) {
	r := NewLookupResult([]AddressCandidate{{ID: "a"}, {ID: "b"}})
	assert.Equal(t, LookupSuccess, r.Kind)

	c, ok := r.Candidate(1)
	assert.True(t, ok)
	assert.Equal(t, "b", c.ID)

	for _, i := range []int{-1, 2, 99} {
		_, ok := r.Candidate(i)
		assert.False(t, ok, "index %d", i)
	}

	assert.Equal(t, LookupEmpty, NewLookupResult(nil).Kind)
	_, ok = FailedResult(FailureServer).Candidate(0)
	assert.False(t, ok)
}

func TestMarkers(t *testing.T) {
	assert.Equal(t, MarkerNone, ParseMarker("bogus"))
	assert.Equal(t, PhaseManual, ParseMarker("address").Phase())
	assert.Equal(t, PhaseManual, ParseMarker("manual").Phase())
	assert.Equal(t, PhaseLookup, ParseMarker("lookup").Phase())
	assert.Equal(t, PhasePostcode, MarkerNone.Phase())
	assert.False(t, Phase("done").Valid())
}

func TestSelectedAddressFormatted(t *testing.T) {
	lookup := SelectedCandidate(AddressCandidate{Lines: []string{"1 High St", ""}, Town: "Croydon", Postcode: "CR0 2EU"})
	assert.Equal(t, SourceLookup, lookup.Source)
	assert.Equal(t, "1 High St, Croydon, CR0 2EU", lookup.Formatted())
	assert.Nil(t, lookup.Manual)

	manual := SelectedManual(ManualAddress{Line1: "Flat 2", Town: "Seaford"})
	assert.Equal(t, "Flat 2, Seaford", manual.Formatted())
	assert.Nil(t, manual.Candidate)
}
