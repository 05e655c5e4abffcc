// Package stability holds sample collaborator validators for the stability
// phase, grounded on the original's magnet/stability/intact_gm.py.
package stability

import (
	"context"
	"fmt"
	"time"

	"github.com/magnetcad/pipeline/registry"
	"github.com/magnetcad/pipeline/state"
	"github.com/magnetcad/pipeline/taxonomy"
)

// IntactGMID is this validator's canonical id.
const IntactGMID = "stability/intact_gm"

// minAcceptableGM is the IMO intact-stability floor for GM(transverse).
const minAcceptableGM = 0.15

// IntactGM computes transverse metacentric height from the hull's vertical
// center of buoyancy, metacentric radius, and center of gravity, flagging
// designs below the regulatory floor. KG is sourced from
// stability.kg_m when set, falling back to weight.lightship_vcg_m,
// mirroring the original's v1.2 sourcing priority change.
type IntactGM struct {
	def taxonomy.ValidatorDefinition
}

// NewIntactGM is a registry.Constructor for IntactGM.
func NewIntactGM(def taxonomy.ValidatorDefinition) (registry.Validator, error) {
	return &IntactGM{def: def}, nil
}

// IntactGMDefinition is the canonical definition bound to IntactGMID.
func IntactGMDefinition() taxonomy.ValidatorDefinition {
	return taxonomy.ValidatorDefinition{
		ID:                  IntactGMID,
		Name:                "Intact GM",
		Description:         "Computes transverse metacentric height for intact stability assessment",
		Category:            taxonomy.CategoryStability,
		Priority:            taxonomy.PriorityCritical,
		Phase:               taxonomy.PhaseStability,
		IsGateCondition:     true,
		GateRequirement:     taxonomy.GateRequired,
		DependsOnParameters: []string{"hull.kb_m", "hull.bm_m", "stability.kg_m", "weight.lightship_vcg_m"},
		ProducesParameters:  []string{"stability.gm_transverse_m"},
		Timeout:             10 * time.Second,
	}
}

func (g *IntactGM) Definition() taxonomy.ValidatorDefinition { return g.def }

func (g *IntactGM) ShouldSkipUnchanged(*state.Store, time.Time) bool { return false }

func (g *IntactGM) Validate(_ context.Context, s *state.Store) (taxonomy.ValidatorState, []taxonomy.Finding, error) {
	kb, okKB := s.Get(state.Path("hull.kb_m"), state.Null()).Float64()
	bm, okBM := s.Get(state.Path("hull.bm_m"), state.Null()).Float64()
	if !okKB || !okBM {
		return taxonomy.StateFailed, []taxonomy.Finding{{
			ID:       "stability/intact_gm/missing-inputs",
			Severity: taxonomy.SeverityError,
			Message:  "Missing required inputs",
		}}, nil
	}

	kg, okKG := s.Get(state.Path("stability.kg_m"), state.Null()).Float64()
	source := "stability.kg_m"
	if !okKG {
		kg, okKG = s.Get(state.Path("weight.lightship_vcg_m"), state.Null()).Float64()
		source = "weight.lightship_vcg_m"
	}
	if !okKG {
		return taxonomy.StateFailed, []taxonomy.Finding{{
			ID:       "stability/intact_gm/missing-kg",
			Severity: taxonomy.SeverityError,
			Message:  "Missing required inputs",
		}}, nil
	}

	// KM = KB + BM; GM = KM - KG.
	gm := kb + bm - kg

	s.Write(state.Path("stability.gm_transverse_m"), state.Float(gm), g.def.ID)

	if gm < minAcceptableGM {
		return taxonomy.StateFailed, []taxonomy.Finding{{
			ID:            "stability/intact_gm/below-floor",
			Severity:      taxonomy.SeverityCritical,
			Message:       fmt.Sprintf("GM(transverse) %.3f m is below the %.2f m intact-stability floor", gm, minAcceptableGM),
			ParameterPath: "stability.gm_transverse_m",
			Reference:     "IMO IS Code 2008, ch. 2.2",
			Suggestion:    fmt.Sprintf("sourced KG from %s; lower KG or increase beam/BM", source),
		}}, nil
	}
	return taxonomy.StatePassed, nil, nil
}
