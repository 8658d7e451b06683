package achieve

import (
	"github.com/jetsetilly/raclient/dsl"
	"github.com/jetsetilly/raclient/eval"
	"github.com/jetsetilly/raclient/memref"
)

// ValueEngine wraps a parsed dsl.Value, reading the captured measured value
// after evaluating its groups (spec §4.E "Value engine").
type ValueEngine struct {
	Value *dsl.Value
}

// NewValueEngine wraps v.
func NewValueEngine(v *dsl.Value) *ValueEngine { return &ValueEngine{Value: v} }

// Step evaluates every group and returns the current value: if any group
// reports paused, the value is the maximum across non-paused groups (or
// zero if all are paused).
func (e *ValueEngine) Step(graph *dsl.Graph, frameID int64, read memref.ReadMemory) memref.Num {
	if e.Value == nil {
		return memref.IntNum(0)
	}

	best := memref.IntNum(0)
	haveBest := false
	allPaused := true

	for i := range e.Value.Groups {
		res := eval.EvaluateGroup(&e.Value.Groups[i], graph, frameID, read)
		if res.WasPaused {
			continue
		}
		allPaused = false
		if !res.HasMeasured {
			continue
		}
		if !haveBest || res.MeasuredValue.AsFloat() > best.AsFloat() {
			best = res.MeasuredValue
			haveBest = true
		}
	}

	if allPaused {
		return memref.IntNum(0)
	}
	return best
}
