package achieve

import (
	"fmt"

	"github.com/jetsetilly/raclient/dsl"
	"github.com/jetsetilly/raclient/memref"
)

// LeaderboardState is a leaderboard's lifecycle state (spec §3
// "Leaderboard", §4.E "Leaderboard state machine").
type LeaderboardState int

const (
	LBInactive LeaderboardState = iota
	LBWaiting
	LBActive
	LBTracking
	LBDisabled
	LBTriggered
)

// Tracker is the pooled, shared display widget for one leaderboard value
// signature (spec §3 "Leaderboard Tracker").
type Tracker struct {
	ID             int
	DisplayString  string
	RawValue       memref.Num
	Format         string
	ReferenceCount int
	ValueDJB2      uint32
}

// TrackerPool hands out Trackers keyed by (format, value-expression-hash,
// hit-based?) so leaderboards that submit the same kind of value share one
// on-screen widget (spec §4.E "Tracker sharing"): LeaderboardEngine.Step
// emits TrackerShow only when a tracker is newly allocated and TrackerHide
// only when its last user releases it. IDs are reused, smallest
// free first, once a tracker's reference count drops to zero.
type TrackerPool struct {
	bySignature map[string]*Tracker
	byID        map[int]*Tracker
	nextID      int
}

// NewTrackerPool creates an empty pool.
func NewTrackerPool() *TrackerPool {
	return &TrackerPool{
		bySignature: make(map[string]*Tracker),
		byID:        make(map[int]*Tracker),
	}
}

func djb2(s string) uint32 {
	var h uint32 = 5381
	for i := 0; i < len(s); i++ {
		h = h*33 + uint32(s[i])
	}
	return h
}

func signature(format string, valueExprCanonical string, fromHits bool) string {
	return fmt.Sprintf("%s|%x|%v", format, djb2(valueExprCanonical), fromHits)
}

// Acquire looks up or allocates the tracker for this signature, bumping its
// reference count; it returns (tracker, wasReused).
func (p *TrackerPool) Acquire(format, valueExprCanonical string, fromHits bool) (*Tracker, bool) {
	sig := signature(format, valueExprCanonical, fromHits)
	if t, ok := p.bySignature[sig]; ok {
		t.ReferenceCount++
		return t, true
	}

	t := &Tracker{ID: p.allocID(), Format: format, ValueDJB2: djb2(valueExprCanonical), ReferenceCount: 1}
	p.bySignature[sig] = t
	p.byID[t.ID] = t
	return t, false
}

func (p *TrackerPool) allocID() int {
	id := p.nextID
	for {
		if _, taken := p.byID[id]; !taken {
			return id
		}
		id++
	}
}

// Release decrements a tracker's reference count, freeing its id for reuse
// once it reaches zero.
func (p *TrackerPool) Release(t *Tracker) {
	t.ReferenceCount--
	if t.ReferenceCount > 0 {
		return
	}
	for sig, cand := range p.bySignature {
		if cand == t {
			delete(p.bySignature, sig)
			break
		}
	}
	delete(p.byID, t.ID)
	if t.ID < p.nextID {
		p.nextID = t.ID
	}
}

// LeaderboardEngine steps the three guard Triggers and the Value of one
// leaderboard and advances its state machine.
type LeaderboardEngine struct {
	ID uint32

	Start  *TriggerEngine
	Cancel *TriggerEngine
	Submit *TriggerEngine
	Value  *ValueEngine

	Format        string
	ValueSource   string
	ValueFromHits bool

	State    LeaderboardState
	RawValue memref.Num
	tracker  *Tracker
}

// NewLeaderboardEngine wraps a parsed dsl.Leaderboard.
func NewLeaderboardEngine(id uint32, lb *dsl.Leaderboard, format string) *LeaderboardEngine {
	return &LeaderboardEngine{
		ID:            id,
		Start:         NewTriggerEngine(lb.Start),
		Cancel:        NewTriggerEngine(lb.Cancel),
		Submit:        NewTriggerEngine(lb.Submit),
		Value:         NewValueEngine(lb.Value),
		Format:        format,
		ValueSource:   lb.Value.Source,
		ValueFromHits: lb.ValueFromHits,
	}
}

// Step advances the leaderboard one frame, pushing any resulting events onto
// q (spec §4.E "Leaderboard state machine").
func (e *LeaderboardEngine) Step(graph *dsl.Graph, frameID int64, read memref.ReadMemory, pool *TrackerPool, q *Queue) {
	if e.State == LBDisabled {
		return
	}
	if e.State == LBInactive {
		e.State = LBWaiting
	}

	startValid, _, _, _ := e.Start.Step(graph, frameID, read)

	switch e.State {
	case LBWaiting:
		e.State = LBActive

	case LBActive:
		if startValid {
			e.State = LBTracking
			var reused bool
			e.tracker, reused = pool.Acquire(e.Format, e.ValueSource, e.ValueFromHits)
			q.push(Event{Kind: EventLeaderboardStarted, LeaderboardID: e.ID})
			if !reused {
				q.push(Event{Kind: EventLeaderboardTrackerShow, LeaderboardID: e.ID, TrackerID: e.tracker.ID})
			}
		}

	case LBTracking:
		cancelValid, _, _, _ := e.Cancel.Step(graph, frameID, read)
		submitValid, _, _, _ := e.Submit.Step(graph, frameID, read)

		next := e.Value.Step(graph, frameID, read)
		changed := !numEqual(next, e.RawValue)
		e.RawValue = next

		switch {
		case cancelValid:
			e.State = LBActive
			q.push(Event{Kind: EventLeaderboardFailed, LeaderboardID: e.ID})
			pool.Release(e.tracker)
			if e.tracker.ReferenceCount == 0 {
				q.push(Event{Kind: EventLeaderboardTrackerHide, LeaderboardID: e.ID, TrackerID: e.tracker.ID})
			}
			e.tracker = nil
		case submitValid:
			e.State = LBActive
			q.push(Event{Kind: EventLeaderboardSubmitted, LeaderboardID: e.ID})
			pool.Release(e.tracker)
			if e.tracker.ReferenceCount == 0 {
				q.push(Event{Kind: EventLeaderboardTrackerHide, LeaderboardID: e.ID, TrackerID: e.tracker.ID})
			}
			e.tracker = nil
		case changed && e.tracker != nil:
			e.tracker.RawValue = next
			q.push(Event{Kind: EventLeaderboardTrackerUpdate, LeaderboardID: e.ID, TrackerID: e.tracker.ID})
		}
	}
}

// Disable marks the leaderboard terminally Disabled.
func (e *LeaderboardEngine) Disable() { e.State = LBDisabled }

func numEqual(a, b memref.Num) bool {
	if a.IsFloat != b.IsFloat {
		return a.AsFloat() == b.AsFloat()
	}
	if a.IsFloat {
		return a.F == b.F
	}
	return a.I == b.I
}
