// Package executor drives validators to completion over a Topology,
// respecting declared resource requirements, result caching, and retry
// policy (spec.md §4.4's PipelineExecutor).
package executor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/magnetcad/pipeline/config"
	"github.com/magnetcad/pipeline/internal/obs"
	"github.com/magnetcad/pipeline/internal/set"
	"github.com/magnetcad/pipeline/registry"
	"github.com/magnetcad/pipeline/state"
	"github.com/magnetcad/pipeline/taxonomy"
	"github.com/magnetcad/pipeline/topology"
	"github.com/magnetcad/pipeline/util"
)

// ProgressFunc is called after every validator completes, for callers that
// want to render live progress (spec.md §6's on_progress callback). May be
// nil.
type ProgressFunc func(id string, result taxonomy.ValidationResult)

// Executor runs the validators registered in reg, in the order topo
// describes, writing their outputs into store.
type Executor struct {
	reg    *registry.Registry
	topo   *topology.Topology
	store  *state.Store
	params config.Parameters
	pool   *ResourcePool
	cache  *Cache
	log    obs.Logger
	m      *obs.Metrics

	onProgress ProgressFunc
}

// Option configures an Executor at construction time.
type Option func(*Executor)

// WithLogger overrides the no-op default logger.
func WithLogger(log obs.Logger) Option {
	return func(e *Executor) { e.log = obs.WithComponent(log, "executor") }
}

// WithMetrics attaches a Metrics recorder.
func WithMetrics(m *obs.Metrics) Option {
	return func(e *Executor) { e.m = m }
}

// WithProgress registers a callback invoked after every validator
// completes.
func WithProgress(f ProgressFunc) Option {
	return func(e *Executor) { e.onProgress = f }
}

// New builds an Executor. cache may be nil, in which case results are never
// reused across runs.
func New(reg *registry.Registry, topo *topology.Topology, store *state.Store, params config.Parameters, cache *Cache, opts ...Option) *Executor {
	e := &Executor{
		reg:    reg,
		topo:   topo,
		store:  store,
		params: params,
		pool:   NewResourcePool(params.PoolCPUCores, params.PoolRAMGB),
		cache:  cache,
		log:    obs.WithComponent(nil, "executor"),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// targetSet returns phase's own validators plus every transitive
// predecessor, so Run drives exactly the subgraph that phase's gate depends
// on (spec.md §4.4: "running a phase implicitly runs its prerequisites").
func (e *Executor) targetSet(phase taxonomy.PhaseID) set.Set[string] {
	target := set.New[string](0)
	for _, id := range e.topo.ValidatorsForPhase(phase) {
		target.Add(id)
		target.Add(e.topo.TransitivePredecessors(id)...)
	}
	return target
}

// Run executes every validator that phase's gate transitively depends on,
// fanning work out across up to params.Workers concurrent goroutines,
// gated by the shared ResourcePool, until every targeted validator has
// completed, failed, or been skipped as a downstream consequence of a
// failure.
func (e *Executor) Run(ctx context.Context, phase taxonomy.PhaseID) (*ExecutionState, error) {
	st := NewExecutionState(phase)
	st.StartedAt = time.Now()
	defer func() { st.CompletedAt = time.Now() }()

	target := e.targetSet(phase)

	g, gctx := errgroup.WithContext(ctx)
	if e.params.Workers > 0 {
		g.SetLimit(e.params.Workers)
	}

	var mu sync.Mutex
	stopping := false
	progressed := make(chan struct{}, 1)
	wake := func() {
		select {
		case progressed <- struct{}{}:
		default:
		}
	}

	skipDownstream := func(failedID string) {
		for _, succ := range e.topo.TransitiveSuccessors(failedID) {
			if !target.Contains(succ) {
				continue
			}
			if _, already := st.Results[succ]; already {
				continue
			}
			st.Skipped.Add(succ)
			st.Results[succ] = taxonomy.ValidationResult{
				ValidatorID:  succ,
				State:        taxonomy.StateSkipped,
				ErrorMessage: fmt.Sprintf("skipped: upstream validator %q did not succeed", failedID),
			}
		}
	}

	for {
		mu.Lock()
		if stopping {
			mu.Unlock()
			break
		}
		ready := e.readyWithinLocked(target, st)
		anyRunning := st.Running.Len() > 0
		mu.Unlock()

		if len(ready) == 0 && !anyRunning {
			break
		}

		launched := false
		for _, id := range ready {
			def := e.validatorDef(id)

			mu.Lock()
			if !e.pool.TryAcquire(def.Resources) {
				if !e.pool.Fits(def.Resources) {
					// This validator's resource requirement exceeds the
					// pool's total capacity: it can never run, regardless
					// of contention, so fail it now instead of looping
					// forever waiting for capacity that will never free up.
					st.Failed.Add(id)
					st.Results[id] = taxonomy.ValidationResult{
						ValidatorID:  id,
						State:        taxonomy.StateError,
						ErrorMessage: fmt.Sprintf("validator %q requires more resources than the pool's total capacity", id),
					}
					skipDownstream(id)
					launched = true
				}
				mu.Unlock()
				continue
			}
			st.Running.Add(id)
			mu.Unlock()
			launched = true

			id := id
			def := def
			g.Go(func() error {
				result := e.runOne(gctx, id, def)

				mu.Lock()
				st.Running.Remove(id)
				e.pool.Release(def.Resources)
				st.Results[id] = result
				switch {
				case result.State.IsTerminalSuccess():
					st.Completed.Add(id)
				case result.State == taxonomy.StateNotImplemented:
					// Optional validator with no implementation: registry.ValidateRequired
					// already refused startup for any missing required validator, so every
					// not_implemented reachable here is optional. Treat it as skipped, not
					// failed, and still cascade to anything depending on its output.
					st.Skipped.Add(id)
					skipDownstream(id)
				default:
					st.Failed.Add(id)
					skipDownstream(id)
					if result.State == taxonomy.StateError && e.params.StopOnFatalError {
						stopping = true
						st.HadFatalError = true
						st.FatalErrorValidator = id
					}
					if result.State == taxonomy.StateFailed && e.params.StopOnFailure {
						stopping = true
					}
				}
				mu.Unlock()

				if e.onProgress != nil {
					e.onProgress(id, result)
				}
				wake()
				return nil
			})
		}

		if !launched {
			// Nothing fit in the pool right now and nothing finished yet;
			// wait for a completion before recomputing readiness.
			select {
			case <-progressed:
			case <-gctx.Done():
				mu.Lock()
				stopping = true
				mu.Unlock()
			}
		}
	}

	_ = g.Wait()
	return st, nil
}

// readyWithinLocked intersects topo.Ready with target. Caller must hold mu.
func (e *Executor) readyWithinLocked(target set.Set[string], st *ExecutionState) []string {
	ready := e.topo.Ready(st.Completed, st.Running, unionSets(st.Failed, st.Skipped))
	out := ready[:0:0]
	for _, id := range ready {
		if target.Contains(id) {
			out = append(out, id)
		}
	}
	return out
}

func unionSets(a, b set.Set[string]) set.Set[string] {
	out := set.New[string](a.Len() + b.Len())
	out.Union(a)
	out.Union(b)
	return out
}

func (e *Executor) validatorDef(id string) taxonomy.ValidatorDefinition {
	if n, ok := e.topo.Node(id); ok {
		return n.Definition
	}
	return taxonomy.ValidatorDefinition{ID: id}
}

// runOne executes a single validator, applying skip-unchanged, cache
// lookup, timeout, and retry policy (spec.md §4.4 steps 3-6).
func (e *Executor) runOne(ctx context.Context, id string, def taxonomy.ValidatorDefinition) taxonomy.ValidationResult {
	v, ok := e.reg.Instance(id)
	if !ok {
		return taxonomy.ValidationResult{
			ValidatorID:  id,
			State:        taxonomy.StateNotImplemented,
			ErrorMessage: fmt.Sprintf("no implementation bound for validator %q", id),
		}
	}

	if v.ShouldSkipUnchanged(e.store, time.Time{}) {
		return taxonomy.ValidationResult{
			ValidatorID:         id,
			State:               taxonomy.StatePassed,
			WasSkippedUnchanged: true,
		}
	}

	inputHash, err := e.inputHash(def)
	if err != nil {
		e.log.Warn("failed to compute input hash", "validator_id", id, "error", err)
	} else if e.cache != nil {
		if cached, hit := e.cache.Get(id, inputHash); hit {
			cached.WasCached = true
			if e.m != nil {
				e.m.CacheHits.Inc()
			}
			return cached
		}
	}
	if e.m != nil && e.cache != nil {
		e.m.CacheMisses.Inc()
	}

	timeout := def.Timeout
	if timeout <= 0 {
		timeout = e.params.DefaultTimeout
	}
	maxRetries := def.MaxRetries
	if maxRetries == 0 {
		maxRetries = e.params.DefaultMaxRetries
	}
	retryDelay := def.RetryDelay
	if retryDelay <= 0 {
		retryDelay = e.params.DefaultRetryDelay
	}
	ttl := def.TTL
	if ttl <= 0 {
		ttl = e.params.DefaultTTL
	}

	var result taxonomy.ValidationResult
	for attempt := 0; attempt <= maxRetries; attempt++ {
		result = e.invoke(ctx, id, v, timeout)
		// Only retry execution errors, never a StateFailed validation
		// outcome — a failure is a definitive finding about the design,
		// not a transient fault (spec.md §4.4).
		if result.State != taxonomy.StateError {
			break
		}
		if attempt < maxRetries {
			if e.m != nil {
				e.m.Retries.WithLabelValues(id).Inc()
			}
			select {
			case <-time.After(retryDelay):
			case <-ctx.Done():
				result.State = taxonomy.StateError
				result.ErrorMessage = ctx.Err().Error()
				return result
			}
		}
	}

	result.InputHash = inputHash
	if inputHash != "" && e.cache != nil && result.State.IsTerminalSuccess() {
		e.cache.Put(id, inputHash, result, ttl)
	}
	if e.m != nil {
		e.m.ValidatorRuns.WithLabelValues(id, string(result.State)).Inc()
		e.m.ValidatorDuration.WithLabelValues(id).Observe(result.ExecutionTime.Seconds())
	}
	return result
}

func (e *Executor) invoke(ctx context.Context, id string, v registry.Validator, timeout time.Duration) taxonomy.ValidationResult {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	started := time.Now()
	vstate, findings, err := v.Validate(runCtx, e.store)
	elapsed := time.Since(started)

	result := taxonomy.ValidationResult{
		ValidatorID:   id,
		State:         vstate,
		StartedAt:     started,
		CompletedAt:   started.Add(elapsed),
		ExecutionTime: elapsed,
		Findings:      findings,
	}
	if err != nil {
		result.State = taxonomy.StateError
		result.ErrorMessage = err.Error()
	}
	return result
}

// inputHash computes spec.md §4.4's "stable serialization of (definition
// fingerprint, current value of each input path)".
func (e *Executor) inputHash(def taxonomy.ValidatorDefinition) (string, error) {
	inputs := make(map[string]any, len(def.DependsOnParameters))
	for _, p := range def.DependsOnParameters {
		inputs[p] = e.store.Get(state.Path(p), state.Null()).Native()
	}
	shape := map[string]any{
		"fingerprint": def.Fingerprint(),
		"inputs":      inputs,
	}
	return util.ContentHashValue(shape)
}
