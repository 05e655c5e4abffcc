package physics

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/magnetcad/pipeline/registry"
	"github.com/magnetcad/pipeline/state"
	"github.com/magnetcad/pipeline/taxonomy"
)

// ResistanceID is this validator's canonical id.
const ResistanceID = "physics/resistance"

const (
	gravityMS2      = 9.81
	knotsToMS       = 0.514444
	froudeWarnLevel = 0.45
)

// Resistance computes the hull's Froude number from its waterline length
// and mission speed, flagging hulls operating above the displacement-hull
// speed regime (spec.md §8 scenario 1).
type Resistance struct {
	def taxonomy.ValidatorDefinition
}

// NewResistance is a registry.Constructor for Resistance.
func NewResistance(def taxonomy.ValidatorDefinition) (registry.Validator, error) {
	return &Resistance{def: def}, nil
}

// ResistanceDefinition is the canonical definition bound to ResistanceID.
func ResistanceDefinition() taxonomy.ValidatorDefinition {
	return taxonomy.ValidatorDefinition{
		ID:                  ResistanceID,
		Name:                "Resistance",
		Description:         "Computes Froude number and flags hulls outside displacement-speed regime",
		Category:            taxonomy.CategoryPhysics,
		Priority:            taxonomy.PriorityNormal,
		Phase:               taxonomy.PhaseHull,
		DependsOnValidators: []string{HydrostaticsID},
		DependsOnParameters: []string{"hull.lwl", "mission.max_speed_kts"},
		ProducesParameters:  []string{"resistance.froude_number"},
		Timeout:             10 * time.Second,
	}
}

func (r *Resistance) Definition() taxonomy.ValidatorDefinition { return r.def }

func (r *Resistance) ShouldSkipUnchanged(*state.Store, time.Time) bool { return false }

func (r *Resistance) Validate(_ context.Context, s *state.Store) (taxonomy.ValidatorState, []taxonomy.Finding, error) {
	lwl, okLwl := s.Get(state.Path("hull.lwl"), state.Null()).Float64()
	speedKts, okSpeed := s.Get(state.Path("mission.max_speed_kts"), state.Null()).Float64()
	if !okLwl || !okSpeed {
		return taxonomy.StateFailed, []taxonomy.Finding{{
			ID:       "physics/resistance/missing-inputs",
			Severity: taxonomy.SeverityError,
			Message:  "one or more of hull.lwl, mission.max_speed_kts is not set",
		}}, nil
	}
	if lwl <= 0 {
		return taxonomy.StateFailed, []taxonomy.Finding{{
			ID:            "physics/resistance/invalid-lwl",
			Severity:      taxonomy.SeverityError,
			Message:       fmt.Sprintf("hull.lwl must be positive, got %v", lwl),
			ParameterPath: "hull.lwl",
		}}, nil
	}

	speedMS := speedKts * knotsToMS
	froude := speedMS / math.Sqrt(gravityMS2*lwl)

	s.Write(state.Path("resistance.froude_number"), state.Float(froude), r.def.ID)

	if froude > froudeWarnLevel {
		return taxonomy.StateWarning, []taxonomy.Finding{{
			ID:            "physics/resistance/high-froude",
			Severity:      taxonomy.SeverityWarning,
			Message:       fmt.Sprintf("Froude number %.3f exceeds the displacement-hull speed regime (%.2f)", froude, froudeWarnLevel),
			ParameterPath: "resistance.froude_number",
			Reference:     "ITTC-57 friction line applicability range",
		}}, nil
	}
	return taxonomy.StatePassed, nil, nil
}
