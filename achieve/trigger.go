package achieve

import (
	"github.com/jetsetilly/raclient/dsl"
	"github.com/jetsetilly/raclient/eval"
	"github.com/jetsetilly/raclient/memref"
)

// TriggerState is one achievement's (or leaderboard guard's) lifecycle
// state (spec §3 "Trigger", §4.E "Trigger state machine").
type TriggerState int

const (
	Waiting TriggerState = iota
	Active
	Paused
	Primed
	Triggered
	Disabled
)

// TriggerEngine wraps a parsed dsl.Trigger with the runtime state the DSL
// AST intentionally omits (spec: Trigger carries "no runtime state... those
// belong to the stepping engine in package achieve").
type TriggerEngine struct {
	Trigger *dsl.Trigger
	State   TriggerState

	MeasuredValue memref.Num
	HasMeasured   bool
}

// NewTriggerEngine wraps t, ready to Step from frame one. A nil t (an
// achievement with no core group, e.g. one that failed to parse) starts
// Disabled.
func NewTriggerEngine(t *dsl.Trigger) *TriggerEngine {
	if t == nil {
		return &TriggerEngine{State: Disabled}
	}
	return &TriggerEngine{Trigger: t, State: Waiting}
}

// Step evaluates every group for one frame and advances State per the
// transition table of spec §4.E, returning the frame's evaluation results
// (whether the trigger held, whether it is primed, and whether a ResetIf or
// PauseIf fired). It pushes no events; the caller compares State before and
// after the call to decide which events to emit.
func (e *TriggerEngine) Step(graph *dsl.Graph, frameID int64, read memref.ReadMemory) (setValid, primed, wasReset, wasPaused bool) {
	if e.State == Disabled || e.Trigger == nil {
		return false, false, false, false
	}

	setValid = true
	anyPrimedCandidate := true
	e.HasMeasured = false

	core := eval.EvaluateGroup(&e.Trigger.Groups[0], graph, frameID, read)
	setValid = core.SetValid
	anyPrimedCandidate = core.Primed
	wasReset = core.WasReset
	wasPaused = core.WasPaused
	if core.HasMeasured {
		e.HasMeasured = true
		e.MeasuredValue = core.MeasuredValue
	}

	if len(e.Trigger.Groups) > 1 {
		altSetValid := false
		altPrimed := false
		for i := 1; i < len(e.Trigger.Groups); i++ {
			alt := eval.EvaluateGroup(&e.Trigger.Groups[i], graph, frameID, read)
			if alt.WasReset {
				wasReset = true
			}
			if alt.WasPaused {
				wasPaused = true
			}
			altSetValid = altSetValid || alt.SetValid
			altPrimed = altPrimed || alt.Primed
			if alt.HasMeasured && !e.HasMeasured {
				e.HasMeasured = true
				e.MeasuredValue = alt.MeasuredValue
			}
		}
		setValid = setValid && altSetValid
		anyPrimedCandidate = anyPrimedCandidate && altPrimed
	}

	primed = anyPrimedCandidate
	e.transition(setValid, primed, wasReset, wasPaused)
	return setValid, primed, wasReset, wasPaused
}

// transition applies the table of spec §4.E.
func (e *TriggerEngine) transition(setValid, primed, wasReset, wasPaused bool) {
	if wasReset {
		e.State = Waiting
		return
	}

	switch e.State {
	case Waiting:
		if !setValid {
			e.State = Active
		}
	case Active:
		switch {
		case wasPaused:
			e.State = Paused
		case setValid:
			e.State = Triggered
		case primed:
			e.State = Primed
		}
	case Primed:
		switch {
		case setValid:
			e.State = Triggered
		case !primed:
			e.State = Active
		}
	case Paused:
		if !wasPaused {
			e.State = Active
		}
	case Triggered:
		// terminal until reload/reset.
	}
}

// Disable marks the achievement terminally Disabled (spec §4.E failure
// semantics: out-of-bounds address at load, or a runtime read underflow).
func (e *TriggerEngine) Disable() { e.State = Disabled }
