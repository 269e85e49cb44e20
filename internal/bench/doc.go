// Package bench loads and executes vecbench scenarios.
//
// A scenario is a TOML file describing a vector workload: the element
// count, the persistent or transient mode, a weighted operation mix,
// and the memory policy under test. Element values can come from a
// JSON dataset selected by a gjson path, and a scenario may hand the
// whole workload to a sandboxed Lua script that drives the vector
// through a preloaded "vec" module.
//
// The runner executes a scenario deterministically from its seed and
// reports wall time together with the operation counter deltas the
// run produced, so two policies can be compared on identical work.
package bench
