// Package ir provides the value types shared by every other package:
// replica and event identifiers, vector clocks, orderings, and the
// canonical JSON used for content-addressed event ids.
//
// This package imports nothing internal. All other internal packages
// import ir, which keeps it the foundational layer.
//
// Key design constraints:
//   - Clocks are read with zero-extension: a missing trailing entry is 0
//   - NO float types anywhere; counters and nonces are integers
//   - All JSON tags use snake_case
//   - Logical time only, never wall-clock timestamps
package ir
