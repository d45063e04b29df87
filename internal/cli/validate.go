package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/causal/internal/harness"
	"github.com/roach88/causal/internal/ir"
	"github.com/roach88/causal/internal/topology"
)

// Kinds of file the validate command understands.
const (
	KindTopology = "topology"
	KindScenario = "scenario"
)

// ValidationError is one problem found in a validated file.
type ValidationError struct {
	File    string `json:"file,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Path     string            `json:"path"`
	Kind     string            `json:"kind"`
	Valid    bool              `json:"valid"`
	Name     string            `json:"name,omitempty"`
	Replicas []ir.ReplicaID    `json:"replicas,omitempty"`
	Steps    int               `json:"steps,omitempty"`
	Errors   []ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate a topology or scenario file",
		Long: `Validate a topology (.cue) or scenario (.yaml, .yml) file without
running anything.

Topologies are checked against the #Topology schema: a non-empty list of
unique, non-empty replica ids. Scenarios are checked for required fields,
known ops, alias definitions and error codes; a referenced topology is
validated too.

Exit codes:
  0 - File is valid
  1 - File is invalid
  2 - Command error (file not found, unknown extension)

Examples:
  causal validate ./topologies/three_sites.cue
  causal validate ./scenarios/two_replicas.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	if _, err := os.Stat(path); err != nil {
		return formatter.fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("file not found: %s", path), nil)
	}

	var result ValidationResult
	switch filepath.Ext(path) {
	case ".cue":
		result = validateTopology(path)
	case ".yaml", ".yml":
		result = validateScenario(path)
	default:
		return formatter.fail(ExitCommandError, ErrCodeGeneric,
			fmt.Sprintf("unsupported file type %q: expected .cue, .yaml or .yml", filepath.Ext(path)), nil)
	}
	formatter.VerboseLog("validated %s as %s", path, result.Kind)

	if !result.Valid {
		msg := fmt.Sprintf("%s is invalid", path)
		if formatter.IsJSON() {
			if err := formatter.Failure(ErrCodeInvalidFile, msg, result); err != nil {
				return err
			}
		} else {
			formatter.Printf("✗ %s (%s)", path, result.Kind)
			for _, e := range result.Errors {
				formatter.Printf("  %s", formatValidationError(e))
			}
		}
		return NewExitError(ExitFailure, msg)
	}

	if formatter.IsJSON() {
		return formatter.Success(result)
	}
	switch result.Kind {
	case KindTopology:
		formatter.Printf("✓ %s: topology with %d replica(s)", path, len(result.Replicas))
	case KindScenario:
		formatter.Printf("✓ %s: scenario %s with %d step(s)", path, result.Name, result.Steps)
	}
	return nil
}

func validateTopology(path string) ValidationResult {
	result := ValidationResult{Path: path, Kind: KindTopology}
	topo, err := topology.Load(path)
	if err != nil {
		result.Errors = []ValidationError{toValidationError(path, err)}
		return result
	}
	result.Valid = true
	result.Name = topo.Name
	result.Replicas = topo.Replicas
	return result
}

func validateScenario(path string) ValidationResult {
	result := ValidationResult{Path: path, Kind: KindScenario}
	scenario, err := harness.LoadScenario(path)
	if err != nil {
		result.Errors = []ValidationError{toValidationError(path, err)}
		return result
	}
	result.Name = scenario.Name
	result.Steps = len(scenario.Steps)

	if scenario.Topology != "" {
		if _, err := topology.Load(scenario.Topology); err != nil {
			result.Errors = []ValidationError{toValidationError(scenario.Topology, err)}
			return result
		}
	}

	result.Valid = true
	return result
}

// toValidationError keeps source positions from topology compile errors.
func toValidationError(file string, err error) ValidationError {
	var ce *topology.CompileError
	if errors.As(err, &ce) {
		ve := ValidationError{File: file, Field: ce.Field, Message: ce.Message}
		if ce.Pos.IsValid() {
			ve.File = ce.Pos.Filename()
			ve.Line = ce.Pos.Line()
			ve.Column = ce.Pos.Column()
		}
		return ve
	}
	return ValidationError{File: file, Message: err.Error()}
}

func formatValidationError(e ValidationError) string {
	msg := e.Message
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, msg)
	}
	if e.File != "" {
		return fmt.Sprintf("%s: %s", e.File, msg)
	}
	return msg
}
