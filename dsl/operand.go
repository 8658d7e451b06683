package dsl

import "github.com/jetsetilly/raclient/memref"

// OperandKind identifies which of the tagged-union forms of spec §3's
// Operand a given Operand value holds.
type OperandKind int

const (
	OperandConstInt OperandKind = iota
	OperandConstFloat
	OperandDirect
	OperandPrior
	OperandDelta
	OperandInvert
	OperandRecall
	OperandModified
)

// Operand is a tagged union of: a constant integer, a constant float, a
// direct memref reference, an inverted/prior/delta-wrapping memref
// reference, a Recall placeholder, or a reference into the modified-memref
// graph (spec §3 "Operand").
type Operand struct {
	Kind OperandKind

	ConstI int64
	ConstF float64

	Key  memref.Key
	Size memref.Size // width hint, used to wrap Invert/Delta results

	// ModRef indexes into the owning Graph's node slice when Kind ==
	// OperandModified.
	ModRef int
}

// constOperand builds a constant-integer Operand.
func constOperand(v int64) Operand { return Operand{Kind: OperandConstInt, ConstI: v} }

// constFloatOperand builds a constant-float Operand.
func constFloatOperand(v float64) Operand { return Operand{Kind: OperandConstFloat, ConstF: v} }
