package physics_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/magnetcad/pipeline/domainvalidators/physics"
	"github.com/magnetcad/pipeline/state"
	"github.com/magnetcad/pipeline/taxonomy"
)

func TestResistanceHappyHull(t *testing.T) {
	s := state.New(nil)
	seedHappyHull(t, s)

	v, err := physics.NewResistance(physics.ResistanceDefinition())
	require.NoError(t, err)

	st, findings, err := v.Validate(context.Background(), s)
	require.NoError(t, err)
	require.Empty(t, findings)
	require.Equal(t, taxonomy.StatePassed, st)

	froude, ok := s.Get(state.Path("resistance.froude_number"), state.Null()).Float64()
	require.True(t, ok)
	require.InDelta(t, 0.35, froude, 0.01)
}

func TestResistanceWarnsAboveDisplacementRegime(t *testing.T) {
	s := state.New(nil)
	s.Write(state.Path("hull.lwl"), state.Float(50.0), "test")
	s.Write(state.Path("mission.max_speed_kts"), state.Float(30.0), "test")

	v, err := physics.NewResistance(physics.ResistanceDefinition())
	require.NoError(t, err)

	st, findings, err := v.Validate(context.Background(), s)
	require.NoError(t, err)
	require.Equal(t, taxonomy.StateWarning, st)
	require.NotEmpty(t, findings)

	froude, ok := s.Get(state.Path("resistance.froude_number"), state.Null()).Float64()
	require.True(t, ok)
	require.Greater(t, froude, 0.45)
}

func TestResistanceRejectsMissingInputs(t *testing.T) {
	s := state.New(nil)
	v, err := physics.NewResistance(physics.ResistanceDefinition())
	require.NoError(t, err)

	st, _, err := v.Validate(context.Background(), s)
	require.NoError(t, err)
	require.Equal(t, taxonomy.StateFailed, st)
}

func TestFroudeNumberFormula(t *testing.T) {
	speedMS := 15.0 * 0.514444
	want := speedMS / math.Sqrt(9.81*50.0)
	require.InDelta(t, 0.3485, want, 0.001)
}
