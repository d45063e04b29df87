// Package topology loads replica sets declared in CUE.
//
// A topology file is plain CUE unified with an embedded #Topology schema:
//
//	name: "three-sites"
//	replicas: ["us-east", "eu-west", "ap-south"]
//
// Unknown fields, empty ids and duplicate ids are rejected with a
// CompileError pointing at the offending value.
package topology

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/causal/internal/ir"
)

//go:embed schema.cue
var schemaCUE string

// Topology is a validated replica set.
type Topology struct {
	Name     string
	Replicas []ir.ReplicaID
}

// Registrar is the part of the engine a topology is applied to.
type Registrar interface {
	RegisterReplica(id ir.ReplicaID) (int, error)
}

// Load reads and compiles a topology file.
func Load(path string) (*Topology, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load topology: %w", err)
	}
	return Compile(data, path)
}

// Compile validates CUE source against the #Topology schema.
// filename is used for error positions only.
func Compile(src []byte, filename string) (*Topology, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile topology schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Topology"))

	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	u := def.Unify(v)
	if err := u.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	return decode(u)
}

func decode(v cue.Value) (*Topology, error) {
	topo := &Topology{}

	if nameVal := v.LookupPath(cue.ParsePath("name")); nameVal.Exists() && nameVal.IsConcrete() {
		name, err := nameVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		topo.Name = name
	}

	replicasVal := v.LookupPath(cue.ParsePath("replicas"))
	iter, err := replicasVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	seen := make(map[string]int)
	for i := 0; iter.Next(); i++ {
		elem := iter.Value()
		id, err := elem.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		if first, dup := seen[id]; dup {
			return nil, &CompileError{
				Field:   fmt.Sprintf("replicas[%d]", i),
				Message: fmt.Sprintf("duplicate replica %q (first declared at replicas[%d])", id, first),
				Pos:     elem.Pos(),
			}
		}
		seen[id] = i
		topo.Replicas = append(topo.Replicas, ir.ReplicaID(id))
	}

	if len(topo.Replicas) == 0 {
		return nil, &CompileError{
			Field:   "replicas",
			Message: "at least one replica is required",
			Pos:     replicasVal.Pos(),
		}
	}

	return topo, nil
}

// Apply registers the topology's replicas in declaration order and returns
// the assigned indices. It stops at the first rejected registration.
func (t *Topology) Apply(r Registrar) ([]int, error) {
	indices := make([]int, 0, len(t.Replicas))
	for _, id := range t.Replicas {
		idx, err := r.RegisterReplica(id)
		if err != nil {
			return indices, fmt.Errorf("apply topology %s: %w", t.Name, err)
		}
		indices = append(indices, idx)
	}
	return indices, nil
}

// CompileError is a topology validation failure with its source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
