package taxonomy_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/magnetcad/pipeline/taxonomy"
)

func TestParsePhaseIDRejectsUnknown(t *testing.T) {
	require := require.New(t)
	_, err := taxonomy.ParsePhaseID("hull_form")
	require.Error(err)

	p, err := taxonomy.ParsePhaseID("hull")
	require.NoError(err)
	require.Equal(taxonomy.PhaseHull, p)
}

func TestFingerprintStableUnderReordering(t *testing.T) {
	require := require.New(t)
	a := taxonomy.ValidatorDefinition{
		ID:                  "physics/hydrostatics",
		Phase:               taxonomy.PhaseHull,
		DependsOnParameters: []string{"hull.lwl", "hull.beam", "hull.draft"},
		ProducesParameters:  []string{"hull.displacement_m3", "hull.kb_m"},
	}
	b := a
	b.DependsOnParameters = []string{"hull.draft", "hull.lwl", "hull.beam"}
	b.ProducesParameters = []string{"hull.kb_m", "hull.displacement_m3"}

	require.Equal(a.Fingerprint(), b.Fingerprint())

	c := a
	c.DependsOnParameters = []string{"hull.lwl", "hull.beam"}
	require.NotEqual(a.Fingerprint(), c.Fingerprint())
}

func TestValidatorStateIsTerminalSuccess(t *testing.T) {
	require := require.New(t)
	require.True(taxonomy.StatePassed.IsTerminalSuccess())
	require.True(taxonomy.StateWarning.IsTerminalSuccess())
	require.False(taxonomy.StateFailed.IsTerminalSuccess())
	require.False(taxonomy.StateError.IsTerminalSuccess())
}
