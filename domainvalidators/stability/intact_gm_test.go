package stability_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/magnetcad/pipeline/domainvalidators/stability"
	"github.com/magnetcad/pipeline/state"
	"github.com/magnetcad/pipeline/taxonomy"
)

func TestIntactGMPassesWithAdequateMargin(t *testing.T) {
	s := state.New(nil)
	s.Write(state.Path("hull.kb_m"), state.Float(1.6), "test")
	s.Write(state.Path("hull.bm_m"), state.Float(2.0), "test")
	s.Write(state.Path("stability.kg_m"), state.Float(3.0), "test")

	v, err := stability.NewIntactGM(stability.IntactGMDefinition())
	require.NoError(t, err)

	st, findings, err := v.Validate(context.Background(), s)
	require.NoError(t, err)
	require.Empty(t, findings)
	require.Equal(t, taxonomy.StatePassed, st)

	gm, ok := s.Get(state.Path("stability.gm_transverse_m"), state.Null()).Float64()
	require.True(t, ok)
	require.InDelta(t, 0.6, gm, 1e-9)
}

func TestIntactGMFailsBelowFloor(t *testing.T) {
	s := state.New(nil)
	s.Write(state.Path("hull.kb_m"), state.Float(1.0), "test")
	s.Write(state.Path("hull.bm_m"), state.Float(0.5), "test")
	s.Write(state.Path("stability.kg_m"), state.Float(2.0), "test")

	v, err := stability.NewIntactGM(stability.IntactGMDefinition())
	require.NoError(t, err)

	st, findings, err := v.Validate(context.Background(), s)
	require.NoError(t, err)
	require.Equal(t, taxonomy.StateFailed, st)
	require.NotEmpty(t, findings)
	require.Equal(t, taxonomy.SeverityCritical, findings[0].Severity)
}

func TestIntactGMFallsBackToLightshipVCG(t *testing.T) {
	s := state.New(nil)
	s.Write(state.Path("hull.kb_m"), state.Float(1.6), "test")
	s.Write(state.Path("hull.bm_m"), state.Float(2.0), "test")
	s.Write(state.Path("weight.lightship_vcg_m"), state.Float(3.0), "test")

	v, err := stability.NewIntactGM(stability.IntactGMDefinition())
	require.NoError(t, err)

	st, _, err := v.Validate(context.Background(), s)
	require.NoError(t, err)
	require.Equal(t, taxonomy.StatePassed, st)
}

func TestIntactGMMissingInputs(t *testing.T) {
	s := state.New(nil)
	v, err := stability.NewIntactGM(stability.IntactGMDefinition())
	require.NoError(t, err)

	st, findings, err := v.Validate(context.Background(), s)
	require.NoError(t, err)
	require.Equal(t, taxonomy.StateFailed, st)
	require.Contains(t, findings[0].Message, "Missing required inputs")
}
