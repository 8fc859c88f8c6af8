// Package harness runs rewrite scenarios against the data move pass.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: single_add
//	description: "Both add inputs are staged and the result destaged"
//	graph: ../graphs/single_add.yaml
//	profile: default            # optional, defaults to "default"
//	profile_dir: ../profiles    # optional CUE profile directory
//	expect:
//	  modified: true
//	  inserted: 3
//	  order: [placeholder, placeholder, accel.from_host, ...]
//	assertions:
//	  - type: target_count
//	    target: accel.to_host
//	    count: 1
//	  - type: contains_line
//	    line: "%add = accel.add(%to_device, %to_device_1)"
//
// Paths are relative to the scenario file.
//
// # Assertion Types
//
//   - target_count: the rewritten graph has exactly count calls to target
//   - target_order: targets appear in this relative order
//   - contains_line: a rendered node line is present
//   - output_target: output position index is produced by a call to target
//   - complete: no boundary edge remains
//
// # Deterministic Testing
//
// Every run uses a fixed run id, a fresh step clock and an in-memory store,
// so the recorded steps and the rewritten graph are identical across runs and
// can be compared against golden files.
package harness
