package harness

import "github.com/roach88/causal/internal/ir"

// TraceEvent records one executed step and its outcome.
type TraceEvent struct {
	Step     int         `json:"step"`
	Op       string      `json:"op"`
	Replica  string      `json:"replica,omitempty"`
	From     string      `json:"from,omitempty"`
	A        string      `json:"a,omitempty"`
	B        string      `json:"b,omitempty"`
	Event    string      `json:"event,omitempty"`
	Alias    string      `json:"alias,omitempty"`
	EventID  ir.EventID  `json:"event_id,omitempty"`
	Index    *int        `json:"index,omitempty"`
	Clock    ir.Clock    `json:"clock,omitempty"`
	Ordering ir.Ordering `json:"ordering,omitempty"`
	Result   *bool       `json:"result,omitempty"`
	Count    *int        `json:"count,omitempty"`
	Error    string      `json:"error,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace contains every executed step in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Session is the journal session the run was recorded under, if any.
	Session string `json:"session,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
