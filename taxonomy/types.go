package taxonomy

import (
	"fmt"
	"sort"
	"time"

	"github.com/magnetcad/pipeline/state"
	"github.com/magnetcad/pipeline/util"
)

// ResourceRequirements declares the resources the executor's ResourcePool
// must reserve before starting a validator.
type ResourceRequirements struct {
	CPUCores    float64
	RAMGB       float64
	GPURequired bool
}

// ValidatorDefinition is an immutable declaration of one validator's
// contract: id, metadata, dependency sets, resource needs, and lifecycle
// timing (spec.md §3).
type ValidatorDefinition struct {
	ID          string // "<category>/<name>", e.g. "physics/hydrostatics"
	Name        string
	Description string
	Category    Category
	Priority    Priority
	Phase       PhaseID

	IsGateCondition bool
	GateRequirement GateRequirement

	DependsOnValidators []string
	DependsOnParameters []string
	ProducesParameters  []string

	Resources ResourceRequirements

	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
	TTL        time.Duration
}

// Fingerprint is a deterministic content hash of the definition's shape,
// used as part of a validator's input hash (spec.md §4.4: "a stable
// serialization of (definition fingerprint, current value of each input
// path)"). Two definitions with identical fields hash identically
// regardless of slice ordering.
func (d ValidatorDefinition) Fingerprint() string {
	deps := append([]string(nil), d.DependsOnValidators...)
	sort.Strings(deps)
	params := append([]string(nil), d.DependsOnParameters...)
	sort.Strings(params)
	produces := append([]string(nil), d.ProducesParameters...)
	sort.Strings(produces)

	shape := map[string]any{
		"id":                    d.ID,
		"category":              string(d.Category),
		"priority":              string(d.Priority),
		"phase":                 string(d.Phase),
		"is_gate_condition":     d.IsGateCondition,
		"gate_requirement":      string(d.GateRequirement),
		"depends_on_validators": toAnySlice(deps),
		"depends_on_parameters": toAnySlice(params),
		"produces_parameters":   toAnySlice(produces),
		"cpu_cores":             d.Resources.CPUCores,
		"ram_gb":                d.Resources.RAMGB,
		"gpu_required":          d.Resources.GPURequired,
		"timeout_ns":            int64(d.Timeout),
		"max_retries":           d.MaxRetries,
		"retry_delay_ns":        int64(d.RetryDelay),
		"ttl_ns":                int64(d.TTL),
	}
	hash, err := util.ContentHashValue(shape)
	if err != nil {
		// Fingerprint must never fail on well-formed definitions; a
		// canonicalization error here means the shape map itself is
		// malformed, which is a programmer error.
		panic(fmt.Sprintf("taxonomy: fingerprint %s: %v", d.ID, err))
	}
	return hash
}

func toAnySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// Finding is one observation from a validator run.
type Finding struct {
	ID            string
	Severity      Severity
	Message       string
	ParameterPath string
	Expected      *state.Value
	Actual        *state.Value
	Reference     string
	Suggestion    string
}

// ValidationResult is the outcome of one validator run (spec.md §3).
type ValidationResult struct {
	ValidatorID         string
	State               ValidatorState
	StartedAt           time.Time
	CompletedAt         time.Time
	ExecutionTime       time.Duration
	Findings            []Finding
	ErrorMessage        string
	Traceback           string
	InputHash           string
	WasCached           bool
	WasSkippedUnchanged bool
}
