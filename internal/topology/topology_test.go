package topology

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/causal/internal/engine"
	"github.com/roach88/causal/internal/ir"
)

func TestCompile_Basic(t *testing.T) {
	topo, err := Compile([]byte(`
		name: "three-sites"
		replicas: ["us-east", "eu-west", "ap-south"]
	`), "sites.cue")
	require.NoError(t, err)

	assert.Equal(t, "three-sites", topo.Name)
	assert.Equal(t, []ir.ReplicaID{"us-east", "eu-west", "ap-south"}, topo.Replicas)
}

func TestCompile_NameOptional(t *testing.T) {
	topo, err := Compile([]byte(`replicas: ["a"]`), "a.cue")
	require.NoError(t, err)
	assert.Empty(t, topo.Name)
	assert.Equal(t, []ir.ReplicaID{"a"}, topo.Replicas)
}

func TestCompile_CUEExpressions(t *testing.T) {
	topo, err := Compile([]byte(`
		_regions: ["north", "south"]
		replicas: [for r in _regions {"site-\(r)"}]
	`), "gen.cue")
	require.NoError(t, err)
	assert.Equal(t, []ir.ReplicaID{"site-north", "site-south"}, topo.Replicas)
}

func TestCompile_Duplicate(t *testing.T) {
	_, err := Compile([]byte(`replicas: ["a", "b", "a"]`), "dup.cue")
	require.Error(t, err)

	var ce *CompileError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "replicas[2]", ce.Field)
	assert.Contains(t, ce.Message, `duplicate replica "a"`)
	assert.Contains(t, ce.Message, "replicas[0]")
}

func TestCompile_Rejects(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"empty id", `replicas: ["a", ""]`},
		{"non-string id", `replicas: ["a", 1]`},
		{"unknown field", "replicas: [\"a\"]\nextra: true"},
		{"empty name", `name: "", replicas: ["a"]`},
		{"no replicas", `replicas: []`},
		{"missing replicas", `name: "x"`},
		{"syntax error", `replicas: [`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile([]byte(tt.src), "bad.cue")
			assert.Error(t, err)
		})
	}
}

func TestCompile_ErrorHasPosition(t *testing.T) {
	_, err := Compile([]byte("replicas: [\"a\", 1]\n"), "pos.cue")
	require.Error(t, err)

	var ce *CompileError
	require.True(t, errors.As(err, &ce))
	assert.True(t, ce.Pos.IsValid())
	assert.Contains(t, err.Error(), "cue")
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "topo.cue")
	require.NoError(t, os.WriteFile(path, []byte(`replicas: ["r1", "r2"]`), 0o644))

	topo, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []ir.ReplicaID{"r1", "r2"}, topo.Replicas)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.cue"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestApply(t *testing.T) {
	topo := &Topology{Name: "t", Replicas: []ir.ReplicaID{"a", "b", "c"}}
	eng := engine.New()

	indices, err := topo.Apply(eng)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, indices)
	assert.Equal(t, 3, eng.ReplicaCount())
}

func TestApply_StopsAtFirstRejection(t *testing.T) {
	eng := engine.New()
	_, err := eng.RegisterReplica("b")
	require.NoError(t, err)

	topo := &Topology{Name: "t", Replicas: []ir.ReplicaID{"a", "b", "c"}}
	indices, err := topo.Apply(eng)
	require.Error(t, err)
	assert.True(t, engine.IsAlreadyRegistered(err))
	assert.Equal(t, []int{1}, indices)
	assert.Equal(t, 2, eng.ReplicaCount())
}

func TestCompileError_Format(t *testing.T) {
	e := &CompileError{Field: "replicas", Message: "bad"}
	assert.Equal(t, "replicas: bad", e.Error())
}
