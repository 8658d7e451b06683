package dsl

import (
	"fmt"

	"github.com/jetsetilly/raclient/memref"
)

// ModOp is the combining operation of a modified memref (spec §3 "Modified
// MemRef").
type ModOp int

const (
	ModAdd ModOp = iota
	ModSub
	ModMul
	ModDiv
	ModMod
	ModAnd
	ModOr
	ModXor
	ModShl
	ModShr
	ModIndirect
)

// node is one entry of the modified-memref DAG: its value is computed once
// per frame by combining Parent and Modifier (spec §4.C).
type node struct {
	Op       ModOp
	Parent   Operand
	Modifier Operand

	// ResultSize is only meaningful for ModIndirect: the width read back
	// from the computed effective address.
	ResultSize memref.Size

	lastFrame int64
	cached    memref.Num
}

// Graph is the deduplicated DAG of modified memrefs for one game's patch
// data (spec §3 "Modified MemRef" and §9 "arena + indices"). Nodes are
// addressed by a stable index, which is what an Operand of kind
// OperandModified stores.
type Graph struct {
	arena   *memref.Arena
	nodes   []*node
	dedup   map[string]int
	onStack map[int]bool // cycle detection while walking
}

// NewGraph creates an empty graph backed by arena for any Direct/Prior/
// Delta/Invert leaf operands and for ModIndirect's live reads.
func NewGraph(arena *memref.Arena) *Graph {
	return &Graph{
		arena:   arena,
		dedup:   make(map[string]int),
		onStack: make(map[int]bool),
	}
}

// signature produces a dedup key for a node so that two identical modifier
// chains share one graph entry (spec §3: "Modified MemRef... form a DAG;
// cycles are rejected at parse time" and the dedup requirement of §2
// Component C).
func signature(op ModOp, parent, modifier Operand, resultSize memref.Size) string {
	return fmt.Sprintf("%d|%v|%v|%d", op, parent, modifier, resultSize)
}

// addNode appends (or reuses) a node and returns an Operand referencing it.
// reachable walks parent/modifier chains that are themselves
// OperandModified to reject a node that would reference itself.
func (g *Graph) addNode(op ModOp, parent, modifier Operand, resultSize memref.Size) (Operand, error) {
	sig := signature(op, parent, modifier, resultSize)
	if idx, ok := g.dedup[sig]; ok {
		return Operand{Kind: OperandModified, ModRef: idx}, nil
	}

	n := &node{Op: op, Parent: parent, Modifier: modifier, ResultSize: resultSize, lastFrame: -1}
	idx := len(g.nodes)
	g.nodes = append(g.nodes, n)
	g.dedup[sig] = idx

	if g.reachable(parent, idx) || g.reachable(modifier, idx) {
		// remove the node we just speculatively added; it's cyclic
		delete(g.dedup, sig)
		g.nodes = g.nodes[:idx]
		return Operand{}, newErr(0, CyclicModifier, "modifier chain references itself")
	}

	return Operand{Kind: OperandModified, ModRef: idx}, nil
}

// reachable reports whether target is reachable by walking op's modified-
// memref chain, used for cycle rejection at construction time.
func (g *Graph) reachable(op Operand, target int) bool {
	if op.Kind != OperandModified {
		return false
	}
	if op.ModRef == target {
		return true
	}
	if op.ModRef < 0 || op.ModRef >= len(g.nodes) {
		return false
	}
	n := g.nodes[op.ModRef]
	return g.reachable(n.Parent, target) || g.reachable(n.Modifier, target)
}

// AddArithmetic folds parent op modifier into a single modified-memref
// operand.
func (g *Graph) AddArithmetic(op ModOp, parent, modifier Operand) (Operand, error) {
	return g.addNode(op, parent, modifier, 0)
}

// AddIndirect folds parent (a base pointer) and a constant offset operand
// into an indirect modified-memref operand that will read resultSize bytes
// from base+offset each frame (spec §4.C).
func (g *Graph) AddIndirect(parent, offset Operand, resultSize memref.Size) (Operand, error) {
	return g.addNode(ModIndirect, parent, offset, resultSize)
}

// Eval evaluates any Operand, including walking into the modified-memref
// graph and the leaf MemRef arena, using frameID to cache each graph node's
// value for the remainder of the frame (spec §4.C: "if the cached frame
// matches the current, the cached value is returned").
func (g *Graph) Eval(op Operand, frameID int64, read memref.ReadMemory) memref.Num {
	switch op.Kind {
	case OperandConstInt:
		return memref.IntNum(op.ConstI)
	case OperandConstFloat:
		return memref.FloatNum(op.ConstF)
	case OperandDirect:
		m, _ := g.arena.Get(op.Key)
		g.arena.Touch(m, frameID, read)
		return m.Value()
	case OperandPrior:
		m, _ := g.arena.Get(op.Key)
		g.arena.Touch(m, frameID, read)
		return m.Prior()
	case OperandDelta:
		m, _ := g.arena.Get(op.Key)
		g.arena.Touch(m, frameID, read)
		return m.Delta()
	case OperandInvert:
		m, _ := g.arena.Get(op.Key)
		g.arena.Touch(m, frameID, read)
		v := m.Value()
		if v.IsFloat {
			return v
		}
		mask := int64(1)<<uint(op.Size.BitWidth()) - 1
		return memref.IntNum(^v.I & mask)
	case OperandRecall:
		// resolved to a constant zero by the parser's pause-scope pass if
		// orphaned (spec §4.B); a linked Recall is replaced by a copy of
		// the Remember condition's Operand1, so evaluation never reaches
		// here.
		return memref.IntNum(0)
	case OperandModified:
		return g.evalNode(op.ModRef, frameID, read)
	}
	return memref.IntNum(0)
}

func (g *Graph) evalNode(idx int, frameID int64, read memref.ReadMemory) memref.Num {
	n := g.nodes[idx]
	if n.lastFrame == frameID {
		return n.cached
	}
	n.lastFrame = frameID

	if n.Op == ModIndirect {
		base := g.Eval(n.Parent, frameID, read).AsInt()
		offset := g.Eval(n.Modifier, frameID, read).AsInt()
		addr := uint32(base + offset)
		m, _ := g.arena.Get(memref.Key{Address: addr, Size: n.ResultSize})
		g.arena.Touch(m, frameID, read)
		n.cached = m.Value()
		return n.cached
	}

	a := g.Eval(n.Parent, frameID, read)
	b := g.Eval(n.Modifier, frameID, read)
	n.cached = combine(n.Op, a, b)
	return n.cached
}

// combine implements the modifier arithmetic of spec §4.C: division by zero
// yields 0, and floats propagate with NaN handled by Num.AsInt at the point
// of integer coercion. Integer results are plain int64 arithmetic; they are
// not wrapped to 32 bits or to any declared operand width, here or in the
// consuming condition's comparison.
func combine(op ModOp, a, b memref.Num) memref.Num {
	if a.IsFloat || b.IsFloat {
		af, bf := a.AsFloat(), b.AsFloat()
		switch op {
		case ModAdd:
			return memref.FloatNum(af + bf)
		case ModSub:
			return memref.FloatNum(af - bf)
		case ModMul:
			return memref.FloatNum(af * bf)
		case ModDiv:
			if bf == 0 {
				return memref.FloatNum(0)
			}
			return memref.FloatNum(af / bf)
		default:
			// bitwise ops on floats coerce to int first
		}
	}

	ai, bi := a.AsInt(), b.AsInt()
	switch op {
	case ModAdd:
		return memref.IntNum(ai + bi)
	case ModSub:
		return memref.IntNum(ai - bi)
	case ModMul:
		return memref.IntNum(ai * bi)
	case ModDiv:
		if bi == 0 {
			return memref.IntNum(0)
		}
		return memref.IntNum(ai / bi)
	case ModMod:
		if bi == 0 {
			return memref.IntNum(0)
		}
		return memref.IntNum(ai % bi)
	case ModAnd:
		return memref.IntNum(ai & bi)
	case ModOr:
		return memref.IntNum(ai | bi)
	case ModXor:
		return memref.IntNum(ai ^ bi)
	case ModShl:
		return memref.IntNum(ai << uint(bi))
	case ModShr:
		return memref.IntNum(ai >> uint(bi))
	}
	return memref.IntNum(0)
}

// TouchOperand registers every leaf MemRef op's evaluation would need with
// the arena, recursing through a modified memref's parent/modifier chain,
// and reports the first out-of-range address found. A ModIndirect node's
// own target address is computed at frame time from live values and so
// cannot be bounds-checked here; only its base/offset leaves are.
func (g *Graph) TouchOperand(op Operand) error {
	switch op.Kind {
	case OperandDirect, OperandPrior, OperandDelta, OperandInvert:
		_, err := g.arena.Get(op.Key)
		return err
	case OperandModified:
		n := g.nodes[op.ModRef]
		if err := g.TouchOperand(n.Parent); err != nil {
			return err
		}
		return g.TouchOperand(n.Modifier)
	}
	return nil
}

// ValidateTrigger touches every leaf operand referenced by t's groups and
// reports the first out-of-range address found, so the caller can mark the
// achievement Disabled before the first frame rather than discovering the
// bad address mid-evaluation (spec §8 scenario S6).
func (g *Graph) ValidateTrigger(t *Trigger) error {
	for _, grp := range t.Groups {
		for _, c := range grp.Conditions {
			if err := g.TouchOperand(c.Operand1); err != nil {
				return err
			}
			if c.Op != OpNone {
				if err := g.TouchOperand(c.Operand2); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
