package eval_test

import (
	"testing"

	"github.com/jetsetilly/raclient/dsl"
	"github.com/jetsetilly/raclient/eval"
	"github.com/jetsetilly/raclient/memref"
	"github.com/jetsetilly/raclient/ratest"
)

func fakeMemory(vals map[uint32]byte) memref.ReadMemory {
	return func(address uint32, buf []byte) int {
		for i := range buf {
			v, ok := vals[address+uint32(i)]
			if !ok {
				return i
			}
			buf[i] = v
		}
		return len(buf)
	}
}

func TestEvaluateGroupSimpleTrue(t *testing.T) {
	arena := memref.NewArena(0xFFFF)
	p := dsl.NewParser(arena)
	trig, err := p.ParseTrigger("0x 1=5")
	if !ratest.ExpectSuccess(t, err) {
		return
	}

	read := fakeMemory(map[uint32]byte{1: 5, 2: 0})
	res := eval.EvaluateGroup(&trig.Groups[0], p.Arena, 1, read)
	ratest.ExpectEquality(t, true, res.SetValid)
	ratest.ExpectEquality(t, true, res.Primed)
}

func TestEvaluateGroupHitCounting(t *testing.T) {
	arena := memref.NewArena(0xFFFF)
	p := dsl.NewParser(arena)
	trig, err := p.ParseTrigger("0x 1=5.3.")
	if !ratest.ExpectSuccess(t, err) {
		return
	}

	vals := map[uint32]byte{1: 5, 2: 0}
	read := fakeMemory(vals)

	res := eval.EvaluateGroup(&trig.Groups[0], p.Arena, 1, read)
	ratest.ExpectEquality(t, false, res.SetValid)
	res = eval.EvaluateGroup(&trig.Groups[0], p.Arena, 2, read)
	ratest.ExpectEquality(t, false, res.SetValid)
	res = eval.EvaluateGroup(&trig.Groups[0], p.Arena, 3, read)
	ratest.ExpectEquality(t, true, res.SetValid)
}

func TestEvaluateGroupPauseIfShortCircuits(t *testing.T) {
	arena := memref.NewArena(0xFFFF)
	p := dsl.NewParser(arena)
	trig, err := p.ParseTrigger("P:0xH1=1_0xH2=9")
	if !ratest.ExpectSuccess(t, err) {
		return
	}

	read := fakeMemory(map[uint32]byte{1: 1, 2: 9})
	res := eval.EvaluateGroup(&trig.Groups[0], p.Arena, 1, read)
	ratest.ExpectEquality(t, true, res.WasPaused)
	ratest.ExpectEquality(t, false, res.SetValid)
}

func TestEvaluateGroupResetIfReportsReset(t *testing.T) {
	arena := memref.NewArena(0xFFFF)
	p := dsl.NewParser(arena)
	trig, err := p.ParseTrigger("R:0xH1=1_0xH2=5.3.")
	if !ratest.ExpectSuccess(t, err) {
		return
	}

	read := fakeMemory(map[uint32]byte{1: 1, 2: 5})
	res := eval.EvaluateGroup(&trig.Groups[0], p.Arena, 1, read)
	ratest.ExpectEquality(t, true, res.WasReset)
}

func TestEvaluateGroupMeasuredCapturesValue(t *testing.T) {
	arena := memref.NewArena(0xFFFF)
	p := dsl.NewParser(arena)
	val, err := p.ParseValue("M:0x 1")
	if !ratest.ExpectSuccess(t, err) {
		return
	}

	read := fakeMemory(map[uint32]byte{1: 42, 2: 0})
	res := eval.EvaluateGroup(&val.Groups[0], p.Arena, 1, read)
	ratest.ExpectEquality(t, true, res.HasMeasured)
	ratest.ExpectEquality(t, int64(42), res.MeasuredValue.AsInt())
}

func TestEvaluateGroupResetNextIfOnlyAffectsFollowingCondition(t *testing.T) {
	arena := memref.NewArena(0xFFFF)
	p := dsl.NewParser(arena)
	// Z: 0xH1=1 resets only the next condition's hits (0xH2=5.3.); the
	// condition after that (0xH3=9.3.) must keep accumulating normally even
	// on a frame where the reset fires.
	trig, err := p.ParseTrigger("Z:0xH1=1_0xH2=5.3._0xH3=9.3.")
	if !ratest.ExpectSuccess(t, err) {
		return
	}

	vals := map[uint32]byte{1: 1, 2: 5, 3: 9}
	read := fakeMemory(vals)

	// frame 1: reset fires, clears hits on 0x2's condition only.
	eval.EvaluateGroup(&trig.Groups[0], p.Arena, 1, read)
	ratest.ExpectEquality(t, uint32(0), trig.Groups[0].Conditions[1].CurrentHits)
	ratest.ExpectEquality(t, uint32(1), trig.Groups[0].Conditions[2].CurrentHits)

	// frame 2: 0x1 no longer true, reset does not fire; both conditions
	// accumulate hits normally from here.
	vals[1] = 0
	eval.EvaluateGroup(&trig.Groups[0], p.Arena, 2, read)
	ratest.ExpectEquality(t, uint32(1), trig.Groups[0].Conditions[1].CurrentHits)
	ratest.ExpectEquality(t, uint32(2), trig.Groups[0].Conditions[2].CurrentHits)
}

func TestEvaluateGroupPauseIfStopsBeforeLaterCondition(t *testing.T) {
	arena := memref.NewArena(0xFFFF)
	p := dsl.NewParser(arena)
	// two independent pause-flagged conditions: once the first fires, the
	// second must not have its hit counter advanced on the same frame.
	trig, err := p.ParseTrigger("P:0xH1=1_P:0xH2=5.3.")
	if !ratest.ExpectSuccess(t, err) {
		return
	}

	read := fakeMemory(map[uint32]byte{1: 1, 2: 5})
	res := eval.EvaluateGroup(&trig.Groups[0], p.Arena, 1, read)
	ratest.ExpectEquality(t, true, res.WasPaused)
	ratest.ExpectEquality(t, uint32(0), trig.Groups[0].Conditions[1].CurrentHits)
}

func TestEvaluateEmptyGroupIsTrue(t *testing.T) {
	res := eval.EvaluateGroup(&dsl.ConditionGroup{}, nil, 1, nil)
	ratest.ExpectEquality(t, true, res.SetValid)
	ratest.ExpectEquality(t, true, res.Primed)
}
