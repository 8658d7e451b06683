package dsl

import (
	"fmt"
	"strings"

	"github.com/jetsetilly/raclient/memref"
)

// reverseFlagLetters and reverseSizeLetters invert the parser's lookup
// tables so Serialize can round-trip a parsed Trigger back to text (spec §8
// property 5: "parse(text); serialize_canonical() yields text").
var reverseFlagLetters = func() map[ConditionKind]byte {
	m := make(map[ConditionKind]byte, len(flagLetters))
	for b, k := range flagLetters {
		m[k] = b
	}
	return m
}()

var reverseSizeLetters = func() map[memref.Size]byte {
	m := make(map[memref.Size]byte, len(sizeLetters))
	for b, s := range sizeLetters {
		// prefer the first mapping seen (map iteration order is undefined,
		// but every Size here has exactly one letter in sizeLetters, so
		// there is no ambiguity for sizes reachable through the grammar).
		if _, ok := m[s]; !ok {
			m[s] = b
		}
	}
	return m
}()

// Serialize renders t back into the compact ASCII DSL. AddSource/SubSource/
// AddAddress conditions still serialize as their own lines, but a trigger
// using them does not round-trip: the condition they fold into holds a
// modified-memref operand in place of its own first operand, and that
// operand is written as a placeholder constant (see serializeOperand).
func (t *Trigger) Serialize() string {
	var b strings.Builder
	for gi, g := range t.Groups {
		if gi > 0 {
			b.WriteByte('S')
		}
		serializeGroup(&b, g)
	}
	return b.String()
}

// Serialize renders v the same way as Trigger.Serialize, since Value shares
// the same ConditionGroup grammar.
func (v *Value) Serialize() string {
	var b strings.Builder
	for gi, g := range v.Groups {
		if gi > 0 {
			b.WriteByte('S')
		}
		serializeGroup(&b, g)
	}
	return b.String()
}

func serializeGroup(b *strings.Builder, g ConditionGroup) {
	for ci, cnd := range g.Conditions {
		if ci > 0 {
			b.WriteByte('_')
		}
		serializeCondition(b, cnd)
	}
}

func serializeCondition(b *strings.Builder, cnd Condition) {
	if letter, ok := reverseFlagLetters[cnd.Kind]; ok {
		b.WriteByte(letter)
		b.WriteByte(':')
	}

	serializeOperand(b, cnd.Operand1)

	if cnd.Op != OpNone {
		b.WriteString(operatorText(cnd.Op))
		serializeOperand(b, cnd.Operand2)
	}

	if cnd.RequiredHits > 0 {
		fmt.Fprintf(b, ".%d.", cnd.RequiredHits)
	}
}

func operatorText(op Operator) string {
	switch op {
	case OpEqual:
		return "="
	case OpNotEqual:
		return "!="
	case OpLessThan:
		return "<"
	case OpLessOrEqual:
		return "<="
	case OpGreaterThan:
		return ">"
	case OpGreaterOrEqual:
		return ">="
	case OpAnd:
		return "&"
	case OpXor:
		return "^"
	case OpMultiply:
		return "*"
	case OpDivide:
		return "/"
	case OpModulo:
		return "%"
	case OpAdd:
		return "+"
	case OpSubtract:
		return "-"
	default:
		return ""
	}
}

// serializeOperand renders a single operand. OperandModified has no direct
// surface syntax (it arises from folding AddSource/SubSource/AddAddress at
// parse time); it is written as the operand's ConstI field, which is 0 for
// a folded operand, so the folded condition's original first operand is
// lost from the text.
func serializeOperand(b *strings.Builder, op Operand) {
	switch op.Kind {
	case OperandConstInt:
		fmt.Fprintf(b, "%d", op.ConstI)
	case OperandConstFloat:
		fmt.Fprintf(b, "f%g", op.ConstF)
	case OperandRecall:
		b.WriteString(recallToken)
	case OperandDirect:
		serializeAddress(b, 0, op.Key)
	case OperandPrior:
		serializeAddress(b, 'p', op.Key)
	case OperandDelta:
		serializeAddress(b, 'd', op.Key)
	case OperandInvert:
		serializeAddress(b, '~', op.Key)
	case OperandModified:
		fmt.Fprintf(b, "%d", op.ConstI)
	}
}

func serializeAddress(b *strings.Builder, prefix byte, key memref.Key) {
	if prefix != 0 {
		b.WriteByte(prefix)
	}
	b.WriteString("0x")
	if letter, ok := reverseSizeLetters[key.Size]; ok {
		b.WriteByte(letter)
	} else {
		// Word16LE (the grammar's default size) has no dedicated letter;
		// the parser accepts either nothing or a literal space here, and a
		// space is what it's given on the canonical round-trip path.
		b.WriteByte(' ')
	}
	fmt.Fprintf(b, "%x", key.Address)
}
