package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/causal/internal/engine"
	"github.com/roach88/causal/internal/ir"
)

// Scenario is a scripted sequence of engine calls with expectations.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Topology is an optional CUE topology file registered before the steps.
	// Relative paths are resolved against the scenario file's directory.
	Topology string `yaml:"topology,omitempty"`

	// Session is an optional fixed session id for the journal.
	// Defaults to "test-session-default".
	Session string `yaml:"session,omitempty"`

	// Steps are executed in order against one engine.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final engine state.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one engine call.
type Step struct {
	// Op is one of the Op* constants.
	Op string `yaml:"op"`

	// Replica is the replica operated on (register, tick, clock) or the
	// merge target.
	Replica string `yaml:"replica,omitempty"`

	// From is the merge source.
	From string `yaml:"from,omitempty"`

	// As names the event created by a tick for later steps.
	As string `yaml:"as,omitempty"`

	// A and B are the events of compare and dominates: an alias set by a
	// previous tick's as, or a raw event id.
	A string `yaml:"a,omitempty"`
	B string `yaml:"b,omitempty"`

	// Event is the event of event_clock (alias or raw id).
	Event string `yaml:"event,omitempty"`

	// Expect is checked against the call's outcome. If nil the call must
	// succeed and its result is only traced.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect describes a step's expected outcome. Only the set fields are
// checked.
type Expect struct {
	Index    *int     `yaml:"index,omitempty"`
	Clock    []uint64 `yaml:"clock,omitempty"`
	Ordering string   `yaml:"ordering,omitempty"`
	Result   *bool    `yaml:"result,omitempty"`
	Count    *int     `yaml:"count,omitempty"`

	// Error is the expected error code. When set the call must fail.
	Error string `yaml:"error,omitempty"`
}

// Assertion validates the engine state after all steps ran.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Replica is the replica checked by final_clock.
	Replica string `yaml:"replica,omitempty"`

	// Clock is the expected clock of final_clock.
	Clock []uint64 `yaml:"clock,omitempty"`

	// Count is the expected total of replica_count and event_count.
	Count int `yaml:"count,omitempty"`

	// A, B and Ordering are used by ordering.
	A        string `yaml:"a,omitempty"`
	B        string `yaml:"b,omitempty"`
	Ordering string `yaml:"ordering,omitempty"`
}

// Step operations.
const (
	OpRegister     = "register"
	OpTick         = "tick"
	OpMerge        = "merge"
	OpCompare      = "compare"
	OpDominates    = "dominates"
	OpClock        = "clock"
	OpEventClock   = "event_clock"
	OpReplicaCount = "replica_count"
)

// Assertion types.
const (
	AssertFinalClock   = "final_clock"
	AssertReplicaCount = "replica_count"
	AssertEventCount   = "event_count"
	AssertOrdering     = "ordering"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed, contains unknown
// fields (typos), or fails validation. A relative topology path is resolved
// against the scenario file's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.Topology != "" && !filepath.IsAbs(scenario.Topology) {
		scenario.Topology = filepath.Join(filepath.Dir(path), scenario.Topology)
	}
	if scenario.Topology != "" {
		if _, err := os.Stat(scenario.Topology); err != nil {
			return nil, fmt.Errorf("invalid scenario: topology file: %w", err)
		}
	}

	return scenario, nil
}

// ParseScenario decodes and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	aliases := make(map[string]int)
	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
		if step.As != "" {
			if first, dup := aliases[step.As]; dup {
				return fmt.Errorf("steps[%d]: alias %q already defined by steps[%d]", i, step.As, first)
			}
			aliases[step.As] = i
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}

	return nil
}

// validateStep checks the fields a step's op requires.
func validateStep(i int, s *Step) error {
	need := func(field, value string) error {
		if value == "" {
			return fmt.Errorf("steps[%d]: %s is required for %s", i, field, s.Op)
		}
		return nil
	}

	var err error
	switch s.Op {
	case OpRegister, OpTick, OpClock:
		err = need("replica", s.Replica)
	case OpMerge:
		if err = need("replica", s.Replica); err == nil {
			err = need("from", s.From)
		}
	case OpCompare, OpDominates:
		if err = need("a", s.A); err == nil {
			err = need("b", s.B)
		}
	case OpEventClock:
		err = need("event", s.Event)
	case OpReplicaCount:
	case "":
		return fmt.Errorf("steps[%d]: op is required", i)
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", i, s.Op)
	}
	if err != nil {
		return err
	}

	if s.As != "" && s.Op != OpTick {
		return fmt.Errorf("steps[%d]: as is only valid for tick", i)
	}

	if s.Expect != nil {
		if s.Expect.Ordering != "" {
			if _, err := ir.ParseOrdering(s.Expect.Ordering); err != nil {
				return fmt.Errorf("steps[%d].expect: %w", i, err)
			}
		}
		if s.Expect.Error != "" && !validErrorCode(s.Expect.Error) {
			return fmt.Errorf("steps[%d].expect: unknown error code %q", i, s.Expect.Error)
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case AssertFinalClock:
		if a.Replica == "" {
			return fmt.Errorf("assertions[%d]: replica is required for final_clock", index)
		}
	case AssertReplicaCount, AssertEventCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	case AssertOrdering:
		if a.A == "" || a.B == "" {
			return fmt.Errorf("assertions[%d]: a and b are required for ordering", index)
		}
		if _, err := ir.ParseOrdering(a.Ordering); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

func validErrorCode(code string) bool {
	for _, c := range engine.ValidErrorCodes {
		if string(c) == code {
			return true
		}
	}
	return false
}
