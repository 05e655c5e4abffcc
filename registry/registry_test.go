package registry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/magnetcad/pipeline/registry"
	"github.com/magnetcad/pipeline/state"
	"github.com/magnetcad/pipeline/taxonomy"
)

type stub struct{ def taxonomy.ValidatorDefinition }

func (s stub) Definition() taxonomy.ValidatorDefinition { return s.def }
func (s stub) ShouldSkipUnchanged(*state.Store, time.Time) bool { return false }
func (s stub) Validate(context.Context, *state.Store) (taxonomy.ValidatorState, []taxonomy.Finding, error) {
	return taxonomy.StatePassed, nil, nil
}

func TestRegisterInstantiateAndFetch(t *testing.T) {
	reg := registry.New(nil)
	def := taxonomy.ValidatorDefinition{ID: "hull/loa"}
	reg.RegisterClass(def, func(def taxonomy.ValidatorDefinition) (registry.Validator, error) {
		return stub{def: def}, nil
	})

	n := reg.InstantiateAll()
	require.Equal(t, 1, n)

	v, ok := reg.Instance("hull/loa")
	require.True(t, ok)
	require.Equal(t, "hull/loa", v.Definition().ID)
}

func TestValidateRequiredMissingClass(t *testing.T) {
	reg := registry.New(nil)
	reg.MarkRequired("hull/loa")
	reg.InstantiateAll()

	err := reg.ValidateRequired()
	require.Error(t, err)
	require.Contains(t, err.Error(), "hull/loa")
}

func TestValidateRequiredInstantiateFailure(t *testing.T) {
	reg := registry.New(nil)
	def := taxonomy.ValidatorDefinition{ID: "hull/loa"}
	reg.RegisterClass(def, func(def taxonomy.ValidatorDefinition) (registry.Validator, error) {
		return nil, errors.New("missing dependency table")
	})
	reg.MarkRequired("hull/loa")
	reg.InstantiateAll()

	err := reg.ValidateRequired()
	require.Error(t, err)

	_, ok := reg.Instance("hull/loa")
	require.False(t, ok)
}

func TestResetClearsState(t *testing.T) {
	reg := registry.New(nil)
	def := taxonomy.ValidatorDefinition{ID: "hull/loa"}
	reg.RegisterClass(def, func(def taxonomy.ValidatorDefinition) (registry.Validator, error) {
		return stub{def: def}, nil
	})
	reg.MarkRequired("hull/loa")
	reg.InstantiateAll()

	reg.Reset()

	require.False(t, reg.IsRequired("hull/loa"))
	_, ok := reg.Instance("hull/loa")
	require.False(t, ok)
	require.Empty(t, reg.Definitions())
}

func TestNonRequiredInstantiationFailureDoesNotPropagate(t *testing.T) {
	reg := registry.New(nil)
	def := taxonomy.ValidatorDefinition{ID: "hull/loa"}
	reg.RegisterClass(def, func(def taxonomy.ValidatorDefinition) (registry.Validator, error) {
		return nil, errors.New("optional collaborator unavailable")
	})
	n := reg.InstantiateAll()
	require.Equal(t, 0, n)
	require.NoError(t, reg.ValidateRequired())
}
