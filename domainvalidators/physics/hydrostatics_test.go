package physics_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/magnetcad/pipeline/domainvalidators/physics"
	"github.com/magnetcad/pipeline/state"
	"github.com/magnetcad/pipeline/taxonomy"
)

func seedHappyHull(t *testing.T, s *state.Store) {
	t.Helper()
	s.Write(state.Path("hull.lwl"), state.Float(50.0), "test")
	s.Write(state.Path("hull.beam"), state.Float(10.0), "test")
	s.Write(state.Path("hull.draft"), state.Float(2.5), "test")
	s.Write(state.Path("hull.depth"), state.Float(4.0), "test")
	s.Write(state.Path("hull.cb"), state.Float(0.55), "test")
	s.Write(state.Path("mission.max_speed_kts"), state.Float(15.0), "test")
}

func TestHydrostaticsHappyHull(t *testing.T) {
	s := state.New(nil)
	seedHappyHull(t, s)

	v, err := physics.NewHydrostatics(physics.HydrostaticsDefinition())
	require.NoError(t, err)

	st, findings, err := v.Validate(context.Background(), s)
	require.NoError(t, err)
	require.Empty(t, findings)
	require.Equal(t, taxonomy.StatePassed, st)

	displacement, ok := s.Get(state.Path("hull.displacement_m3"), state.Null()).Float64()
	require.True(t, ok)
	require.InDelta(t, 687.5, displacement, 1e-9)

	kb, ok := s.Get(state.Path("hull.kb_m"), state.Null()).Float64()
	require.True(t, ok)
	require.InDelta(t, 2.5*(5.0/6.0-0.55/3.0), kb, 1e-9)
}

func TestHydrostaticsRejectsMissingInputs(t *testing.T) {
	s := state.New(nil)
	v, err := physics.NewHydrostatics(physics.HydrostaticsDefinition())
	require.NoError(t, err)

	st, findings, err := v.Validate(context.Background(), s)
	require.NoError(t, err)
	require.Equal(t, taxonomy.StateFailed, st)
	require.NotEmpty(t, findings)
}

func TestHydrostaticsRejectsInvalidCb(t *testing.T) {
	s := state.New(nil)
	seedHappyHull(t, s)
	s.Write(state.Path("hull.cb"), state.Float(1.5), "test")

	v, err := physics.NewHydrostatics(physics.HydrostaticsDefinition())
	require.NoError(t, err)

	st, findings, err := v.Validate(context.Background(), s)
	require.NoError(t, err)
	require.Equal(t, taxonomy.StateFailed, st)
	require.NotEmpty(t, findings)
}

func TestHydrostaticsShouldSkipUnchangedAlwaysFalse(t *testing.T) {
	v, err := physics.NewHydrostatics(physics.HydrostaticsDefinition())
	require.NoError(t, err)
	require.False(t, v.ShouldSkipUnchanged(nil, time.Time{}))
}
