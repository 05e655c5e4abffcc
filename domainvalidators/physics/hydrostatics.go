// Package physics holds sample collaborator validators for the hull phase:
// hydrostatics and resistance, grounded on the original's
// magnet/physics/{hydrostatics,resistance,validators}.py. They exist to
// exercise the registry/executor/state contract end to end, not to be an
// authoritative naval-architecture formula library.
package physics

import (
	"context"
	"fmt"
	"time"

	"github.com/magnetcad/pipeline/registry"
	"github.com/magnetcad/pipeline/state"
	"github.com/magnetcad/pipeline/taxonomy"
)

// HydrostaticsID is this validator's canonical id.
const HydrostaticsID = "physics/hydrostatics"

// Hydrostatics computes a hull's displacement and vertical center of
// buoyancy from its principal dimensions and block coefficient (spec.md
// §8 scenario 1).
type Hydrostatics struct {
	def taxonomy.ValidatorDefinition
}

// NewHydrostatics is a registry.Constructor for Hydrostatics.
func NewHydrostatics(def taxonomy.ValidatorDefinition) (registry.Validator, error) {
	return &Hydrostatics{def: def}, nil
}

// HydrostaticsDefinition is the canonical definition bound to HydrostaticsID.
func HydrostaticsDefinition() taxonomy.ValidatorDefinition {
	return taxonomy.ValidatorDefinition{
		ID:                  HydrostaticsID,
		Name:                "Hydrostatics",
		Description:         "Computes displacement and center of buoyancy from hull principal dimensions",
		Category:            taxonomy.CategoryPhysics,
		Priority:            taxonomy.PriorityHigh,
		Phase:               taxonomy.PhaseHull,
		DependsOnParameters: []string{"hull.lwl", "hull.beam", "hull.draft", "hull.depth", "hull.cb"},
		ProducesParameters:  []string{"hull.displacement_m3", "hull.kb_m", "hull.bm_m"},
		Timeout:             10 * time.Second,
		MaxRetries:          2,
		RetryDelay:          50 * time.Millisecond,
	}
}

func (h *Hydrostatics) Definition() taxonomy.ValidatorDefinition { return h.def }

func (h *Hydrostatics) ShouldSkipUnchanged(*state.Store, time.Time) bool { return false }

func (h *Hydrostatics) Validate(_ context.Context, s *state.Store) (taxonomy.ValidatorState, []taxonomy.Finding, error) {
	lwl, okLwl := s.Get(state.Path("hull.lwl"), state.Null()).Float64()
	beam, okBeam := s.Get(state.Path("hull.beam"), state.Null()).Float64()
	draft, okDraft := s.Get(state.Path("hull.draft"), state.Null()).Float64()
	cb, okCb := s.Get(state.Path("hull.cb"), state.Null()).Float64()

	if !okLwl || !okBeam || !okDraft || !okCb {
		return taxonomy.StateFailed, []taxonomy.Finding{{
			ID:       "physics/hydrostatics/missing-inputs",
			Severity: taxonomy.SeverityError,
			Message:  "one or more of hull.lwl, hull.beam, hull.draft, hull.cb is not set",
		}}, nil
	}
	if lwl <= 0 || beam <= 0 || draft <= 0 || cb <= 0 || cb > 1 {
		return taxonomy.StateFailed, []taxonomy.Finding{{
			ID:            "physics/hydrostatics/invalid-dimensions",
			Severity:      taxonomy.SeverityError,
			Message:       fmt.Sprintf("hull dimensions out of range: lwl=%v beam=%v draft=%v cb=%v", lwl, beam, draft, cb),
			ParameterPath: "hull.cb",
		}}, nil
	}

	displacement := lwl * beam * draft * cb
	// Morrish's approximation for the vertical center of buoyancy above the
	// keel, as a fraction of draft.
	kb := draft * (5.0/6.0 - cb/3.0)
	// Transverse metacentric radius BM = I_T/V, approximated from beam and
	// draft via a waterplane coefficient estimated from Cb.
	cwp := cb + 0.1
	if cwp > 1 {
		cwp = 1
	}
	bm := (beam * beam * cwp) / (12.0 * draft * cb)

	s.Write(state.Path("hull.displacement_m3"), state.Float(displacement), h.def.ID)
	s.Write(state.Path("hull.kb_m"), state.Float(kb), h.def.ID)
	s.Write(state.Path("hull.bm_m"), state.Float(bm), h.def.ID)

	return taxonomy.StatePassed, nil, nil
}
