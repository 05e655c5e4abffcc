// Command pipeline is the thin, out-of-core CLI front-end spec.md §6
// describes: run, gate, show, snapshot, restore. It is not part of the
// pipeline's core contract — every command is a direct composition of the
// registry/topology/executor/aggregator packages.
package main

import (
	"fmt"

	"github.com/magnetcad/pipeline/aggregator"
	"github.com/magnetcad/pipeline/config"
	"github.com/magnetcad/pipeline/contracts"
	"github.com/magnetcad/pipeline/domainvalidators/physics"
	"github.com/magnetcad/pipeline/domainvalidators/stability"
	"github.com/magnetcad/pipeline/executor"
	"github.com/magnetcad/pipeline/registry"
	"github.com/magnetcad/pipeline/state"
	"github.com/magnetcad/pipeline/taxonomy"
	"github.com/magnetcad/pipeline/topology"
)

// pipeline bundles every collaborator a CLI command needs, built fresh for
// each invocation from the fixed sample catalog.
type pipeline struct {
	params config.Parameters
	topo   *topology.Topology
	reg    *registry.Registry
	store  *state.Store
	agg    *aggregator.Aggregator
	cache  *executor.Cache
}

// catalog returns the validator definitions this CLI build knows about: the
// sample physics and stability collaborators in domainvalidators.
func catalog() []taxonomy.ValidatorDefinition {
	return []taxonomy.ValidatorDefinition{
		physics.HydrostaticsDefinition(),
		physics.ResistanceDefinition(),
		stability.IntactGMDefinition(),
	}
}

// newPipeline wires the fixed catalog into a Topology, Registry, Store, and
// Aggregator, following spec.md §4.2's mandatory lifecycle: reset, register,
// instantiate_all, validate_required.
func newPipeline(configPath string) (*pipeline, error) {
	params, err := config.LoadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := params.Valid(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	defs := catalog()
	topo, err := topology.Build(defs)
	if err != nil {
		return nil, fmt.Errorf("building topology: %w", err)
	}

	reg := registry.New(nil)
	register := func(def taxonomy.ValidatorDefinition, ctor registry.Constructor) {
		reg.RegisterClass(def, ctor)
		if def.IsGateCondition {
			reg.MarkRequired(def.ID)
		}
	}
	register(physics.HydrostaticsDefinition(), physics.NewHydrostatics)
	register(physics.ResistanceDefinition(), physics.NewResistance)
	register(stability.IntactGMDefinition(), stability.NewIntactGM)
	reg.InstantiateAll()
	if err := reg.ValidateRequired(); err != nil {
		return nil, err
	}

	store := state.New(topo)

	var cache *executor.Cache
	if params.CacheDir != "" {
		cache, err = executor.NewCache(params.CacheDir)
		if err != nil {
			return nil, fmt.Errorf("opening cache dir: %w", err)
		}
	}

	agg := aggregator.New(topo, reg, map[taxonomy.PhaseID]contracts.PhaseContract{})

	return &pipeline{params: params, topo: topo, reg: reg, store: store, agg: agg, cache: cache}, nil
}

func (p *pipeline) executor() *executor.Executor {
	return executor.New(p.reg, p.topo, p.store, p.params, p.cache)
}
