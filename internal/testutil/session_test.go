package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixedSessionGenerator(t *testing.T) {
	gen := NewFixedSessionGenerator("session-1")
	for i := 0; i < 3; i++ {
		assert.Equal(t, "session-1", gen.Generate())
	}
}

func TestFixedSessionGenerator_Default(t *testing.T) {
	gen := NewFixedSessionGenerator("")
	assert.Equal(t, DefaultSessionID, gen.Generate())
}
