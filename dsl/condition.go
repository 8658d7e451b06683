package dsl

// ConditionKind is the flag-derived role of a Condition within its group
// (spec §3 "Condition").
type ConditionKind int

const (
	Standard ConditionKind = iota
	PauseIf
	ResetIf
	ResetNextIf
	AddSource
	SubSource
	AddAddress
	AddHits
	SubHits
	AndNext
	OrNext
	Measured
	MeasuredIf
	TriggerFlag
	Remember
)

// flagLetters maps the single-character flag prefix of spec §4.B's grammar
// to a ConditionKind. The empty string ("no prefix") is Standard and is
// handled by the caller, not stored here.
var flagLetters = map[byte]ConditionKind{
	'R': ResetIf,
	'P': PauseIf,
	'A': AddSource,
	'B': SubSource,
	'C': AddHits,
	'D': SubHits,
	'N': AndNext,
	'O': OrNext,
	'M': Measured,
	'Q': MeasuredIf,
	'I': AddAddress,
	'T': TriggerFlag,
	'Z': ResetNextIf,
	'K': Remember,
}

// Operator is the comparison or arithmetic operator between a condition's
// two operands.
type Operator int

const (
	OpNone Operator = iota
	OpEqual
	OpNotEqual
	OpLessThan
	OpLessOrEqual
	OpGreaterThan
	OpGreaterOrEqual
	OpAnd
	OpXor
	OpMultiply
	OpDivide
	OpModulo
	OpAdd
	OpSubtract
)

// Condition is one parsed line of the DSL (spec §3 "Condition"): a pair of
// operands joined by an operator, a flag classifying its role in the
// evaluator, and the running/target hit counters.
type Condition struct {
	Kind ConditionKind

	Operand1 Operand
	Op       Operator
	Operand2 Operand // zero value (OperandConstInt, ConstI 0) when Op == OpNone

	RequiredHits uint32
	CurrentHits  uint32

	// IsTrue is the condition's validity as of the most recent evaluation
	// (spec §3); persisted so the last frame's result can be inspected
	// (e.g. by progress serialization diagnostics) between frames.
	IsTrue bool

	// Pause marks a condition that only runs during the paused phase of the
	// two-phase evaluation (spec §4.D); conditions are split into a paused
	// set (PauseIf conditions) and a non-paused set every group evaluation.
	Pause bool
}

// ConditionGroup is an ordered list of conditions evaluated together (spec
// §3 "ConditionGroup").
type ConditionGroup struct {
	Conditions []Condition

	HasPause bool
	IsPaused bool
}
