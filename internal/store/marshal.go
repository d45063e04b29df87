package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/causal/internal/ir"
)

// marshalClock converts a clock to canonical JSON TEXT for storage.
// A nil clock is stored as [].
func marshalClock(c ir.Clock) (string, error) {
	data, err := ir.MarshalCanonical(c.Copy())
	if err != nil {
		return "", fmt.Errorf("marshal clock: %w", err)
	}
	return string(data), nil
}

// unmarshalClock parses a stored clock. The result is never nil.
func unmarshalClock(data string) (ir.Clock, error) {
	if data == "" {
		return ir.Clock{}, nil
	}
	var c []uint64
	if err := json.Unmarshal([]byte(data), &c); err != nil {
		return nil, fmt.Errorf("unmarshal clock: %w", err)
	}
	return ir.Clock(c).Copy(), nil
}
