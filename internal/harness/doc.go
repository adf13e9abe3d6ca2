// Package harness runs conformance scenarios against the entrypoint.
//
// A scenario allocates zeroed in-memory slots, executes a list of
// instructions through dispatch.Entrypoint, checks each outcome, and finally
// asserts on slot contents. The resulting trace can be compared against a
// golden file.
//
// # Scenario Format
//
//	name: create_and_upgrade
//	description: "Create a record, then raise its stats"
//	caller: alice              # optional, default "harness"
//	slots:
//	  - name: horse
//	    capacity: 32
//	    perm: rw               # rw (default), r, w or -
//	steps:
//	  - op: create
//	    slot: horse
//	    args: { name: "Bo", velocity: 1, durability: 2, stability: 3 }
//	  - op: upgrade_stats
//	    slot: horse
//	    args: { velocity: 1 }
//	    expect:
//	      stats: { name: "Bo", velocity: 2, durability: 2, stability: 3 }
//	  - payload: "ff"          # raw hex payload
//	    expect:
//	      error: UNKNOWN_OPERATION
//	      unchanged: true
//	assertions:
//	  - type: final_stats
//	    slot: horse
//	    stats: { name: "Bo", velocity: 2, durability: 2, stability: 3 }
//
// A step without expect must succeed. Error codes are the fault codes.
//
// # Assertion Types
//
//   - final_stats: the slot decodes to exactly the given stats
//   - uninitialized: every byte of the slot is zero
//
// # Determinism
//
// Runs share no state and use no clock or random source, so the same
// scenario always yields the same trace bytes.
package harness
