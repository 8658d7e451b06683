// Package dsl implements the expression parser and modified-memref graph of
// spec §4.B/§4.C: parsing the compact ASCII DSL into typed operand graphs,
// condition lists, and trigger/value/leaderboard/rich-presence ASTs.
package dsl

import (
	"strconv"
	"strings"

	"github.com/jetsetilly/raclient/memref"
)

// sizeLetters maps the single address-spec size letter of spec §4.B's
// grammar to a memref.Size. The empty string and a literal space both mean
// "no letter" (16-bit, spec's default word size); both map to the same
// entry via two lookups below rather than as map keys.
var sizeLetters = map[byte]memref.Size{
	'H': memref.Byte,
	'W': memref.TriByteLE,
	'X': memref.Word32LE,
	'M': memref.Bit0,
	'N': memref.Bit1,
	'O': memref.Bit2,
	'P': memref.Bit3,
	'Q': memref.Bit4,
	'R': memref.Bit5,
	'S': memref.Bit6,
	'T': memref.Bit7,
	'U': memref.HighNibble,
	'L': memref.LowNibble,
	'G': memref.Word16BE,
	'I': memref.TriByteBE,
	'J': memref.Word32BE,
	'V': memref.FloatLE,
	'K': memref.MBF32,
}

// bcdEquivalent maps a plain size to its BCD-flavoured counterpart, used
// when an operand carries the "b" (BCD) prefix. Only the LE/byte sizes
// reachable directly from a size letter have a BCD counterpart reachable
// through the text grammar; see DESIGN.md for the reachability note.
var bcdEquivalent = map[memref.Size]memref.Size{
	memref.Byte:      memref.BCDByte,
	memref.Word16LE:  memref.BCDWord16LE,
	memref.TriByteLE: memref.BCDWord24LE,
	memref.Word32LE:  memref.BCDWord32LE,
}

// cursor is a byte-offset scanner over the DSL source text, in the spirit
// of the teacher's commandline.Tokens but operating character-by-character
// since this grammar is not whitespace-tokenised.
type cursor struct {
	s   string
	pos int
}

func (c *cursor) eof() bool { return c.pos >= len(c.s) }

func (c *cursor) peek() byte {
	if c.eof() {
		return 0
	}
	return c.s[c.pos]
}

func (c *cursor) peekAt(n int) byte {
	if c.pos+n >= len(c.s) {
		return 0
	}
	return c.s[c.pos+n]
}

func (c *cursor) advance() byte {
	b := c.s[c.pos]
	c.pos++
	return b
}

// Parser holds the shared, per-game state a parse pass needs: the arena new
// memrefs are created in, and the modified-memref graph modifier chains are
// folded into (spec §4.C).
type Parser struct {
	Arena *Graph
}

// NewParser creates a Parser backed by the given memref arena.
func NewParser(arena *memref.Arena) *Parser {
	return &Parser{Arena: NewGraph(arena)}
}

// ParseTrigger parses a full trigger string: a core ConditionGroup followed
// by zero or more "S"-separated alternate groups (spec §4.B grammar
// "trigger").
func (p *Parser) ParseTrigger(text string) (*Trigger, error) {
	c := &cursor{s: text}

	t := &Trigger{Source: text}

	for {
		group, err := p.parseCondset(c)
		if err != nil {
			return nil, err
		}

		measuredInGroup := 0
		for i := range group.Conditions {
			if group.Conditions[i].Kind == Measured {
				measuredInGroup++
				t.HasMeasured = true
				t.MeasuredTarget = int64(group.Conditions[i].RequiredHits)
			}
		}
		if measuredInGroup > 1 {
			return nil, newErr(c.pos, MultipleMeasured, "group contains more than one Measured condition")
		}

		t.Groups = append(t.Groups, group)

		if c.eof() {
			break
		}
		if c.peek() != 'S' {
			return nil, newErr(c.pos, InvalidOperator, "expected 'S' group separator")
		}
		c.advance()
	}

	resolveRecalls(t.Groups)

	return t, nil
}

// ParseValue parses a value expression: a single list of "$"-free
// ConditionGroups (reusing the trigger grammar's condset/group separators)
// whose Measured field is the yielded number (spec §4.B, §3 "Value").
func (p *Parser) ParseValue(text string) (*Value, error) {
	trig, err := p.ParseTrigger(text)
	if err != nil {
		return nil, err
	}

	hasMeasured := false
	for _, g := range trig.Groups {
		for _, cnd := range g.Conditions {
			if cnd.Kind == Measured {
				hasMeasured = true
			}
		}
	}
	if !hasMeasured {
		return nil, newErr(0, InvalidMeasured, "value expression requires a Measured condition")
	}

	return &Value{Groups: trig.Groups, Source: text}, nil
}

// parseCondset parses one "_"-separated list of conditions.
func (p *Parser) parseCondset(c *cursor) (ConditionGroup, error) {
	var group ConditionGroup
	var pending []foldStep

	for {
		cond, err := p.parseCondition(c, &pending)
		if err != nil {
			return group, err
		}

		group.Conditions = append(group.Conditions, cond)

		if cond.Kind == PauseIf {
			group.HasPause = true
		}

		if c.eof() || c.peek() == 'S' {
			break
		}
		if c.peek() != '_' {
			return group, newErr(c.pos, InvalidOperator, "expected '_' condition separator")
		}
		c.advance()
	}

	return group, nil
}

// foldStep is one accumulated AddSource/SubSource/AddAddress modifier,
// awaiting the next non-modifier condition to fold into (spec §4.C).
type foldStep struct {
	op       ModOp
	operand  Operand
	indirect bool
}

// parseCondition parses one "[flag:]operand[op operand][.hits.]" line and
// applies any pending AddSource/SubSource/AddAddress fold to its first
// operand.
func (p *Parser) parseCondition(c *cursor, pending *[]foldStep) (cond Condition, err error) {
	kind := Standard
	pause := false

	if isFlagLetter(c.peek()) && c.peekAt(1) == ':' {
		kind = flagLetters[c.advance()]
		c.advance() // ':'
		if kind == PauseIf {
			pause = true
		}
	}

	op1, err := p.parseOperand(c)
	if err != nil {
		return cond, err
	}

	switch kind {
	case AddSource:
		*pending = append(*pending, foldStep{op: ModAdd, operand: op1})
		return Condition{Kind: kind, Operand1: op1, Pause: pause}, nil
	case SubSource:
		*pending = append(*pending, foldStep{op: ModSub, operand: op1})
		return Condition{Kind: kind, Operand1: op1, Pause: pause}, nil
	case AddAddress:
		*pending = append(*pending, foldStep{operand: op1, indirect: true})
		return Condition{Kind: kind, Operand1: op1, Pause: pause}, nil
	}

	// not a modifier condition: fold any pending modifiers into op1, then
	// continue parsing the rest of the line as normal.
	op1, err = p.fold(pending, op1)
	if err != nil {
		return cond, err
	}

	cond = Condition{Kind: kind, Operand1: op1, Pause: pause}

	if isOperatorStart(c.peek()) {
		o, err := p.parseOperator(c)
		if err != nil {
			return cond, err
		}
		cond.Op = o

		op2, err := p.parseOperand(c)
		if err != nil {
			return cond, err
		}
		cond.Operand2 = op2
	}

	if c.peek() == '.' {
		c.advance()
		digits := c.takeWhile(isDigit)
		if c.peek() == '.' {
			c.advance()
		}
		if digits != "" {
			n, _ := strconv.ParseUint(digits, 10, 32)
			cond.RequiredHits = uint32(n)
		}
	}

	return cond, nil
}

// fold combines any pending AddSource/SubSource/AddAddress steps with
// target (the next condition's own first operand), returning the final
// operand to store as that condition's Operand1 (spec §4.C).
func (p *Parser) fold(pending *[]foldStep, target Operand) (Operand, error) {
	steps := *pending
	*pending = nil
	if len(steps) == 0 {
		return target, nil
	}

	// an AddAddress step redefines the target's address rather than adding
	// to a running sum; it always takes effect last, against whatever
	// accumulator preceded it.
	acc := steps[0].operand
	if steps[0].op == ModSub {
		var err error
		acc, err = p.Arena.AddArithmetic(ModSub, constOperand(0), acc)
		if err != nil {
			return Operand{}, err
		}
	}
	for i := 1; i < len(steps); i++ {
		if steps[i].indirect {
			var err error
			acc, err = p.Arena.AddIndirect(acc, constOperand(int64(target.Key.Address)), target.Size)
			if err != nil {
				return Operand{}, err
			}
			target = acc
			continue
		}
		var err error
		acc, err = p.Arena.AddArithmetic(steps[i].op, acc, steps[i].operand)
		if err != nil {
			return Operand{}, err
		}
	}

	if steps[0].indirect {
		return p.Arena.AddIndirect(steps[0].operand, constOperand(int64(target.Key.Address)), target.Size)
	}
	if len(steps) == 1 {
		return p.Arena.AddArithmetic(ModAdd, acc, target)
	}
	return p.Arena.AddArithmetic(ModAdd, acc, target)
}

func isFlagLetter(b byte) bool {
	_, ok := flagLetters[b]
	return ok
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isHexDigit(b byte) bool {
	return isDigit(b) || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

func (c *cursor) takeWhile(pred func(byte) bool) string {
	start := c.pos
	for !c.eof() && pred(c.peek()) {
		c.advance()
	}
	return c.s[start:c.pos]
}

func isOperatorStart(b byte) bool {
	switch b {
	case '=', '!', '<', '>', '&', '^', '*', '/', '%', '+', '-':
		return true
	}
	return false
}

func (p *Parser) parseOperator(c *cursor) (Operator, error) {
	switch c.advance() {
	case '=':
		return OpEqual, nil
	case '!':
		if c.peek() == '=' {
			c.advance()
			return OpNotEqual, nil
		}
		return 0, newErr(c.pos, InvalidOperator, "expected '!='")
	case '<':
		if c.peek() == '=' {
			c.advance()
			return OpLessOrEqual, nil
		}
		return OpLessThan, nil
	case '>':
		if c.peek() == '=' {
			c.advance()
			return OpGreaterOrEqual, nil
		}
		return OpGreaterThan, nil
	case '&':
		return OpAnd, nil
	case '^':
		return OpXor, nil
	case '*':
		return OpMultiply, nil
	case '/':
		return OpDivide, nil
	case '%':
		return OpModulo, nil
	case '+':
		return OpAdd, nil
	case '-':
		return OpSubtract, nil
	}
	return 0, newErr(c.pos, InvalidOperator, "unrecognised operator")
}

const recallToken = "{recall}"

// parseOperand parses one operand: a Recall placeholder, a prefixed or bare
// memref address-spec, or a constant (spec §4.B grammar "operand").
func (p *Parser) parseOperand(c *cursor) (Operand, error) {
	if strings.HasPrefix(c.s[c.pos:], recallToken) {
		c.pos += len(recallToken)
		return Operand{Kind: OperandRecall}, nil
	}

	prefix := byte(0)
	switch c.peek() {
	case 'd', 'p', 'b', '~':
		prefix = c.advance()
	}

	if c.peek() == '0' && (c.peekAt(1) == 'x' || c.peekAt(1) == 'X') {
		c.advance()
		c.advance()

		size := memref.Word16LE // default: "" or " " size letter
		if c.peek() == ' ' {
			c.advance()
		} else if letter, ok := sizeLetters[c.peek()]; ok {
			size = letter
			c.advance()
		} else if !isHexDigit(c.peek()) {
			return Operand{}, newErr(c.pos, UnknownSize, "unrecognised size letter")
		}

		hex := c.takeWhile(isHexDigit)
		if hex == "" {
			return Operand{}, newErr(c.pos, MissingOperand, "missing address")
		}
		addr, _ := strconv.ParseUint(hex, 16, 32)

		if prefix == 'b' {
			if bcd, ok := bcdEquivalent[size]; ok {
				size = bcd
			} else {
				return Operand{}, newErr(c.pos, UnsupportedOperand, "size has no BCD form")
			}
		}

		key := memref.Key{Address: uint32(addr), Size: size}
		switch prefix {
		case 'p':
			return Operand{Kind: OperandPrior, Key: key, Size: size}, nil
		case 'd':
			return Operand{Kind: OperandDelta, Key: key, Size: size}, nil
		case '~':
			return Operand{Kind: OperandInvert, Key: key, Size: size}, nil
		default:
			return Operand{Kind: OperandDirect, Key: key, Size: size}, nil
		}
	}

	if prefix != 0 {
		return Operand{}, newErr(c.pos, MissingOperand, "prefix must be followed by an address")
	}

	switch c.peek() {
	case 'f':
		c.advance()
		lit := c.takeWhile(func(b byte) bool { return isDigit(b) || b == '.' || b == '-' })
		f, _ := strconv.ParseFloat(lit, 64)
		return constFloatOperand(f), nil
	case 'h':
		c.advance()
		lit := c.takeWhile(isHexDigit)
		n, _ := strconv.ParseUint(lit, 16, 64)
		return constOperand(int64(n)), nil
	}

	lit := c.takeWhile(isDigit)
	if lit == "" {
		return Operand{}, newErr(c.pos, MissingOperand, "expected a constant or address")
	}
	n, _ := strconv.ParseInt(lit, 10, 64)
	return constOperand(n), nil
}
