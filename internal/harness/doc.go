// Package harness runs YAML scenarios against the causal engine.
//
// A scenario scripts engine calls (register, tick, merge, compare, ...)
// with per-step expectations and final-state assertions:
//
//	name: two_replicas
//	description: Concurrent ticks become ordered after a merge
//	steps:
//	  - op: register
//	    replica: r1
//	  - op: register
//	    replica: r2
//	  - op: tick
//	    replica: r1
//	    as: e1
//	    expect: { clock: [1, 0] }
//	  - op: tick
//	    replica: r2
//	    as: e2
//	  - op: compare
//	    a: e1
//	    b: e2
//	    expect: { ordering: concurrent }
//	assertions:
//	  - type: event_count
//	    count: 2
//
// Run executes a scenario on a fresh engine, records it as a journal
// session in an in-memory store and replays that session to check that the
// run is reproducible. RunWithGolden compares the canonical trace against
// testdata/golden/<name>.golden.
package harness
