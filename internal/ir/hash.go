package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// The version suffix leaves room for a future algorithm change.
const (
	DomainEvent = "causal/event/v1"
)

// hashWithDomain computes SHA-256 with domain separation:
// SHA256(domain + 0x00 + data). The null byte keeps the domain/data
// boundary unambiguous.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// NewEventID derives the identifier of a tick from the producing replica,
// the replica's own counter after the increment and the engine-wide nonce.
//
// The nonce is strictly increasing per engine, so ids never collide within
// an engine, across replicas or across repeated ticks of one replica. The
// same inputs always give the same id, which is what makes journal replay
// verifiable.
func NewEventID(replica ReplicaID, counter uint64, nonce int64) (EventID, error) {
	obj := IRObject{
		"replica": IRString(replica),
		"counter": IRInt(int64(counter)),
		"nonce":   IRInt(nonce),
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("NewEventID: failed to marshal: %w", err)
	}

	return EventID(hashWithDomain(DomainEvent, canonical)), nil
}

// MustEventID is like NewEventID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustEventID(replica ReplicaID, counter uint64, nonce int64) EventID {
	id, err := NewEventID(replica, counter, nonce)
	if err != nil {
		panic(err)
	}
	return id
}
