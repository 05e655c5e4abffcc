package executor

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/magnetcad/pipeline/internal/set"
	"github.com/magnetcad/pipeline/taxonomy"
)

// ExecutionState is the mutable record of one Executor.Run call: which
// validators have completed, are running, or failed, plus every result
// produced so far (spec.md §3's PipelineExecutionState, §6's serialization
// contract: "sets serialize as sorted lists for reproducible diffs").
type ExecutionState struct {
	ExecutionID string
	Phase       taxonomy.PhaseID
	Completed   set.Set[string]
	Running     set.Set[string]
	Failed      set.Set[string]
	Skipped     set.Set[string]
	Results     map[string]taxonomy.ValidationResult
	StartedAt   time.Time
	CompletedAt time.Time

	HadFatalError       bool
	FatalErrorValidator string
}

// NewExecutionState returns an empty state for phase, with a freshly
// generated ExecutionID (spec.md §3).
func NewExecutionState(phase taxonomy.PhaseID) *ExecutionState {
	return &ExecutionState{
		ExecutionID: uuid.NewString(),
		Phase:       phase,
		Completed:   set.New[string](0),
		Running:     set.New[string](0),
		Failed:      set.New[string](0),
		Skipped:     set.New[string](0),
		Results:     make(map[string]taxonomy.ValidationResult),
	}
}

func sortedKeys(s set.Set[string]) []string {
	out := s.List()
	sort.Strings(out)
	return out
}

// executionStateDoc is the JSON wire shape: sets as sorted string lists
// rather than Go's unordered map[string]struct{}.
type executionStateDoc struct {
	ExecutionID string                                `json:"execution_id"`
	Phase       taxonomy.PhaseID                      `json:"phase"`
	Completed   []string                              `json:"completed"`
	Running     []string                              `json:"running"`
	Failed      []string                              `json:"failed"`
	Skipped     []string                              `json:"skipped"`
	Results     map[string]taxonomy.ValidationResult  `json:"results"`
	StartedAt   time.Time                             `json:"started_at"`
	CompletedAt time.Time                             `json:"completed_at"`

	HadFatalError       bool   `json:"had_fatal_error"`
	FatalErrorValidator string `json:"fatal_error_validator,omitempty"`
}

// MarshalJSON implements the spec's sorted-set serialization contract.
func (s *ExecutionState) MarshalJSON() ([]byte, error) {
	doc := executionStateDoc{
		ExecutionID:         s.ExecutionID,
		Phase:               s.Phase,
		Completed:           sortedKeys(s.Completed),
		Running:             sortedKeys(s.Running),
		Failed:              sortedKeys(s.Failed),
		Skipped:             sortedKeys(s.Skipped),
		Results:             s.Results,
		StartedAt:           s.StartedAt,
		CompletedAt:         s.CompletedAt,
		HadFatalError:       s.HadFatalError,
		FatalErrorValidator: s.FatalErrorValidator,
	}
	return json.Marshal(doc)
}

// UnmarshalJSON reverses MarshalJSON.
func (s *ExecutionState) UnmarshalJSON(data []byte) error {
	var doc executionStateDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	s.ExecutionID = doc.ExecutionID
	s.Phase = doc.Phase
	s.Completed = set.Of(doc.Completed...)
	s.Running = set.Of(doc.Running...)
	s.Failed = set.Of(doc.Failed...)
	s.Skipped = set.Of(doc.Skipped...)
	s.Results = doc.Results
	if s.Results == nil {
		s.Results = make(map[string]taxonomy.ValidationResult)
	}
	s.StartedAt = doc.StartedAt
	s.CompletedAt = doc.CompletedAt
	s.HadFatalError = doc.HadFatalError
	s.FatalErrorValidator = doc.FatalErrorValidator
	return nil
}
