package dsl

// Trigger is an ordered list of ConditionGroups: Groups[0] is the "core"
// group (all of its conditions must hold); any further groups are
// "alternates" (at least one must hold, or the trigger is satisfied
// trivially if there are none) (spec §3 "Trigger").
//
// Trigger intentionally does not carry runtime state (Waiting/Active/...)
// or the per-frame captured measured value — those belong to the stepping
// engine in package achieve, which wraps a Trigger together with that
// state. Trigger is just the parsed, reusable expression.
type Trigger struct {
	Groups []ConditionGroup

	// MeasuredTarget is the declared target of the trigger's Measured
	// condition, if any (0 if the trigger has no Measured condition).
	// spec §3 invariant: if multiple Triggers share a game, all must agree
	// on MeasuredTarget when they reference the same Measured condition
	// group; this is a parse-time property of one trigger, not cross-
	// trigger, so that invariant is enforced by the caller (package
	// achieve) when it wires multiple triggers to one measured value.
	MeasuredTarget int64

	// HasMeasured reports whether any group contains a Measured condition
	// (a MeasuredIf alone does not set it).
	HasMeasured bool

	// Source is the original DSL text this trigger was parsed from, kept
	// for progress-blob diagnostics and the canonical round-trip property
	// (spec §8 property 5).
	Source string
}

// Value is a list of ConditionGroups evaluated for its Measured field,
// yielding one typed number per frame (spec §3 "Value").
type Value struct {
	Groups []ConditionGroup
	Source string
}
