package contracts_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/magnetcad/pipeline/contracts"
	"github.com/magnetcad/pipeline/state"
	"github.com/magnetcad/pipeline/taxonomy"
)

func TestCheckPreMissingInput(t *testing.T) {
	s := state.New(nil)
	c := contracts.PhaseContract{
		Phase:          taxonomy.PhaseHull,
		RequiredInputs: []contracts.PathSpec{{Path: "mission.payload_t"}},
	}

	result := contracts.CheckPre(s, c)
	require.False(t, result.OK)
	require.Len(t, result.Errors, 1)
}

func TestCheckPrePassesWhenPresent(t *testing.T) {
	s := state.New(nil)
	s.Write(state.Path("mission.payload_t"), state.Float(12), "seed")
	c := contracts.PhaseContract{
		Phase:          taxonomy.PhaseHull,
		RequiredInputs: []contracts.PathSpec{{Path: "mission.payload_t"}},
	}

	result := contracts.CheckPre(s, c)
	require.True(t, result.OK)
}

func TestCheckPostRunsValidator(t *testing.T) {
	s := state.New(nil)
	s.Write(state.Path("hull.cb"), state.Float(1.2), "validator")

	rangeCheck := func(v state.Value) error {
		f, _ := v.Float64()
		if f < 0 || f > 1 {
			return errors.New("block coefficient out of [0,1]")
		}
		return nil
	}
	c := contracts.PhaseContract{
		Phase:           taxonomy.PhaseHull,
		RequiredOutputs: []contracts.PathSpec{{Path: "hull.cb", Validator: rangeCheck}},
	}

	result := contracts.CheckPost(s, c)
	require.False(t, result.OK)
	require.Contains(t, result.Errors[0], "out of [0,1]")
}

func TestOwnedPathsUnion(t *testing.T) {
	c := contracts.PhaseContract{
		RequiredInputs:  []contracts.PathSpec{{Path: "a"}},
		RequiredOutputs: []contracts.PathSpec{{Path: "b"}},
	}
	require.ElementsMatch(t, []string{"a", "b"}, c.OwnedPaths())
}

func TestContractViolationErrorMessage(t *testing.T) {
	err := &contracts.ContractViolationError{
		Phase:  taxonomy.PhaseHull,
		Result: contracts.ContractResult{Errors: []string{"missing required path \"hull.cb\""}},
	}
	require.Contains(t, err.Error(), "hull")
	require.Contains(t, err.Error(), "hull.cb")
}
