// Package eval implements the single-pass condition group evaluator of
// spec §4.D: the shared algorithm every Trigger, Value, and Leaderboard
// guard is built from.
package eval

import (
	"github.com/jetsetilly/raclient/dsl"
	"github.com/jetsetilly/raclient/memref"
)

// GroupResult is what one call to EvaluateGroup reports back to the
// stepping engine in package achieve (spec §4.E inputs: "set_valid",
// "primed", "was_reset", "was_paused").
type GroupResult struct {
	SetValid bool
	Primed   bool
	WasReset bool
	WasPaused bool

	HasMeasured   bool
	MeasuredValue memref.Num
}

// state is the per-call evaluator state of spec §4.D, reset at the start of
// every EvaluateGroup call (it does not persist across frames; only each
// Condition's CurrentHits/IsTrue persist, via the pointers EvaluateGroup is
// given).
type state struct {
	addHits       int64
	andNext       bool
	orNext        bool
	resetNext     bool
	primed        bool
	setValid      bool
	hasHits       bool
	wasCondReset  bool
	hasMeasured   bool
	measuredValue memref.Num
	measuredFromHits bool
}

// EvaluateGroup runs the two-phase evaluation of spec §4.D over g: first the
// PauseIf-guarded conditions, then (if none paused the group) the rest.
// Condition.CurrentHits and Condition.IsTrue are updated in place so they
// persist to the next frame (spec §3 Condition).
func EvaluateGroup(g *dsl.ConditionGroup, graph *dsl.Graph, frameID int64, read memref.ReadMemory) GroupResult {
	if len(g.Conditions) == 0 {
		return GroupResult{SetValid: true, Primed: true}
	}

	pauseState := &state{andNext: true, primed: true, setValid: true}
	paused := evalPhase(g.Conditions, true, pauseState, graph, frameID, read)

	if paused {
		g.IsPaused = true
		return GroupResult{
			SetValid:    false,
			Primed:      false,
			WasPaused:   true,
			HasMeasured: pauseState.hasMeasured,
			MeasuredValue: pauseState.measuredValue,
		}
	}
	g.IsPaused = false

	mainState := &state{andNext: true, primed: true, setValid: true}
	wasReset := evalPhase(g.Conditions, false, mainState, graph, frameID, read)

	return GroupResult{
		SetValid:      mainState.setValid,
		Primed:        mainState.primed,
		WasReset:      wasReset,
		HasMeasured:   mainState.hasMeasured || pauseState.hasMeasured,
		MeasuredValue: pick(mainState, pauseState),
	}
}

func pick(main, pause *state) memref.Num {
	if main.hasMeasured {
		return main.measuredValue
	}
	return pause.measuredValue
}

// evalPhase walks conds once, processing only those whose Pause flag
// matches wantPause, folding results into st. In the pause phase it returns
// whether a PauseIf fired; in the non-pause phase it returns whether a
// ResetIf fired — see spec §4.D step 7.
func evalPhase(conds []dsl.Condition, wantPause bool, st *state, graph *dsl.Graph, frameID int64, read memref.ReadMemory) bool {
	resetSignalled := false

	for i := range conds {
		cnd := &conds[i]
		if cnd.Pause != wantPause {
			continue
		}

		switch cnd.Kind {
		case dsl.AddSource, dsl.SubSource, dsl.AddAddress, dsl.Remember:
			// step 1: modifier short-circuit, no group contribution.
			continue
		}

		if cnd.Kind == dsl.Measured && cnd.RequiredHits == 0 {
			// step 1: capture operand1 directly, no comparison performed.
			st.hasMeasured = true
			st.measuredValue = graph.Eval(cnd.Operand1, frameID, read)
			cnd.IsTrue = true
			continue
		}

		// step 2: evaluate.
		condValid := evaluateOperator(cnd, graph, frameID, read)
		condValid = (condValid && st.andNext) || st.orNext
		st.andNext = true
		st.orNext = false

		// step 3: ResetNext application.
		if st.resetNext {
			if cnd.CurrentHits > 0 {
				st.wasCondReset = true
			}
			cnd.CurrentHits = 0
			condValid = false
		}

		// step 4: hit counting.
		if condValid {
			if cnd.RequiredHits == 0 {
				cnd.CurrentHits++
			} else if cnd.CurrentHits < cnd.RequiredHits {
				cnd.CurrentHits++
				condValid = cnd.CurrentHits == cnd.RequiredHits
			}
		} else if cnd.RequiredHits > 0 && cnd.CurrentHits >= cnd.RequiredHits {
			condValid = true
		}

		// step 5: flag conditions.
		switch cnd.Kind {
		case dsl.AddHits:
			st.addHits += int64(cnd.CurrentHits)
			st.hasHits = true
			st.resetNext = false
			continue
		case dsl.SubHits:
			st.addHits -= int64(cnd.CurrentHits)
			st.hasHits = true
			st.resetNext = false
			continue
		case dsl.AndNext:
			st.andNext = condValid
			continue
		case dsl.OrNext:
			st.orNext = condValid
			continue
		case dsl.ResetNextIf:
			st.resetNext = condValid
			continue
		}

		// step 6: total-hits fold.
		if st.addHits != 0 && cnd.RequiredHits > 0 {
			total := int64(cnd.CurrentHits) + st.addHits
			if total < 0 {
				total = 0
			}
			condValid = total >= int64(cnd.RequiredHits)
			st.addHits = 0
		}

		// step 7: special.
		switch cnd.Kind {
		case dsl.PauseIf:
			if condValid {
				if cnd.RequiredHits == 0 {
					cnd.CurrentHits = 0
				}
				cnd.IsTrue = true
				return true
			}
		case dsl.ResetIf:
			if condValid {
				resetSignalled = true
			}
		case dsl.MeasuredIf:
			if !condValid {
				st.hasMeasured = false
			}
			cnd.IsTrue = condValid
			continue
		case dsl.Measured:
			// RequiredHits > 0 here (the ==0 case returned above).
			st.hasMeasured = true
			st.measuredValue = memref.IntNum(int64(cnd.CurrentHits))
			st.measuredFromHits = true
			cnd.IsTrue = condValid
			continue
		case dsl.TriggerFlag:
			cnd.IsTrue = condValid
			st.setValid = st.setValid && condValid
			continue
		}

		// step 8: fold into group.
		cnd.IsTrue = condValid
		st.primed = st.primed && condValid
		st.setValid = st.setValid && condValid
		st.resetNext = false
	}

	if wantPause {
		return false
	}
	return resetSignalled
}

// evaluateOperator computes op1 OP op2 for a standard/flagged condition that
// reaches step 2; conditions with no operator (OpNone) are valid whenever
// their operand is non-zero (matching a bare Measured/Trigger/PauseIf-style
// truthiness test written without a comparison).
func evaluateOperator(cnd *dsl.Condition, graph *dsl.Graph, frameID int64, read memref.ReadMemory) bool {
	a := graph.Eval(cnd.Operand1, frameID, read)

	if cnd.Op == dsl.OpNone {
		return a.AsInt() != 0 || (a.IsFloat && a.F != 0)
	}

	b := graph.Eval(cnd.Operand2, frameID, read)

	if a.IsFloat || b.IsFloat {
		af, bf := a.AsFloat(), b.AsFloat()
		switch cnd.Op {
		case dsl.OpEqual:
			return af == bf
		case dsl.OpNotEqual:
			return af != bf
		case dsl.OpLessThan:
			return af < bf
		case dsl.OpLessOrEqual:
			return af <= bf
		case dsl.OpGreaterThan:
			return af > bf
		case dsl.OpGreaterOrEqual:
			return af >= bf
		}
		return false
	}

	ai, bi := a.AsInt(), b.AsInt()
	switch cnd.Op {
	case dsl.OpEqual:
		return ai == bi
	case dsl.OpNotEqual:
		return ai != bi
	case dsl.OpLessThan:
		return ai < bi
	case dsl.OpLessOrEqual:
		return ai <= bi
	case dsl.OpGreaterThan:
		return ai > bi
	case dsl.OpGreaterOrEqual:
		return ai >= bi
	}
	return false
}
