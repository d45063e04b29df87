package ir

import (
	"slices"
	"unicode/utf16"
)

// IRValue is a sealed interface over the value types that may appear in
// canonical payloads. There is no float type: counters and nonces are
// integers and must hash identically everywhere.
type IRValue interface {
	irValue()
}

// IRString represents a string value.
type IRString string

func (IRString) irValue() {}

// IRInt represents an integer value.
type IRInt int64

func (IRInt) irValue() {}

// IRBool represents a boolean value.
type IRBool bool

func (IRBool) irValue() {}

// IRArray represents an array of IRValue elements.
type IRArray []IRValue

func (IRArray) irValue() {}

// IRObject is a string-keyed map of values.
type IRObject map[string]IRValue

func (IRObject) irValue() {}

// compareUTF16 orders strings by UTF-16 code units, the key order canonical
// JSON requires. Byte order differs from it once keys hold characters
// outside the basic multilingual plane.
func compareUTF16(a, b string) int {
	return slices.Compare(utf16.Encode([]rune(a)), utf16.Encode([]rune(b)))
}
