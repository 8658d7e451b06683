package achieve

import (
	"time"

	"github.com/jetsetilly/raclient/dsl"
	"github.com/jetsetilly/raclient/memref"
)

// Game owns one loaded title's achievements, leaderboards, tracker pool,
// and rich presence state (spec §3 "Game").
type Game struct {
	ID      uint32
	Arena   *memref.Arena
	Graph   *dsl.Graph
	Parser  *dsl.Parser
	MaxValidAddress uint32

	Achievements []*Achievement
	Leaderboards []*LeaderboardEngine
	Trackers     *TrackerPool

	RichPresence       *dsl.RichPresence
	richPresenceString string

	masteryEmitted bool

	frameID int64
	Queue   Queue
}

// NewGame creates an empty Game ready for patch data to be loaded into it.
func NewGame(id uint32, maxValidAddress uint32) *Game {
	arena := memref.NewArena(maxValidAddress)
	parser := dsl.NewParser(arena)
	return &Game{
		ID:              id,
		Arena:           arena,
		Graph:           parser.Arena,
		Parser:          parser,
		MaxValidAddress: maxValidAddress,
		Trackers:        NewTrackerPool(),
	}
}

// coreCount supports mastery detection: it returns the number of core
// achievements and how many of them are triggered or already unlocked.
func (g *Game) coreCount() (total, triggered int) {
	for _, a := range g.Achievements {
		if a.Category != CategoryCore {
			continue
		}
		total++
		if a.State() == Triggered || a.UnlockedHardcore || a.UnlockedSoftcore {
			triggered++
		}
	}
	return total, triggered
}

// DoFrame implements spec §4.F's do_frame: refresh, step every engine,
// recompute rich presence, re-bucket, and return the frame's queued events
// in their fixed drain order. waitingForReset short-circuits to no-op, per
// step 1.
func (g *Game) DoFrame(read memref.ReadMemory, waitingForReset bool) []Event {
	if waitingForReset {
		return nil
	}

	g.frameID++
	g.Arena.Refresh(g.frameID, read)

	anyStateChanged := false
	for _, a := range g.Achievements {
		if a.Engine == nil {
			continue
		}
		before := a.Engine.State
		a.Engine.Step(g.Graph, g.frameID, read)
		if a.Engine.State != before {
			anyStateChanged = true
			g.emitTriggerTransition(a, before)
		}
	}

	for _, lb := range g.Leaderboards {
		lb.Step(g.Graph, g.frameID, read, g.Trackers, &g.Queue)
	}

	g.recomputeRichPresence(read)

	if anyStateChanged {
		_ = g.Buckets(time.Now()) // re-bucket; caller re-reads via Buckets
	}

	if !g.masteryEmitted {
		total, triggered := g.coreCount()
		if total > 0 && triggered == total {
			g.masteryEmitted = true
			g.Queue.push(Event{Kind: EventGameCompleted})
		}
	}

	return g.Queue.Drain()
}

func (g *Game) emitTriggerTransition(a *Achievement, before TriggerState) {
	switch {
	case before != Primed && a.Engine.State == Primed:
		g.Queue.push(Event{Kind: EventChallengeIndicatorShow, AchievementID: a.ID})
	case before == Primed && a.Engine.State != Triggered:
		g.Queue.push(Event{Kind: EventChallengeIndicatorHide, AchievementID: a.ID})
	}
	if a.Engine.State == Triggered {
		g.Queue.push(Event{Kind: EventAchievementTriggered, AchievementID: a.ID})
		if before == Primed {
			g.Queue.push(Event{Kind: EventChallengeIndicatorHide, AchievementID: a.ID})
		}
	}
}

func (g *Game) recomputeRichPresence(read memref.ReadMemory) {
	if g.RichPresence == nil {
		return
	}
	next := g.evalRichPresence(read)
	g.richPresenceString = next
}

// RichPresenceString returns the most recently computed rich presence
// display string.
func (g *Game) RichPresenceString() string { return g.richPresenceString }

// Idle implements spec §4.F's idle(): drains the event queue without
// stepping engines (used while the host is paused).
func (g *Game) Idle() []Event {
	return g.Queue.Drain()
}

// PushEvent enqueues e for delivery on the next drain, in the fixed order
// of spec §4.F step 6. Used by callers outside the per-frame step loop
// (the post queue's asynchronous retry completions land ServerError events
// this way).
func (g *Game) PushEvent(e Event) {
	g.Queue.push(e)
}

// Buckets classifies every achievement and groups them by subset id, then
// by bucket (spec §4.E). The result is a map and carries no ordering: no
// subset or bucket is placed ahead of another, and the base subset's
// ActiveChallenge/RecentlyUnlocked buckets are not promoted above the other
// subsets.
func (g *Game) Buckets(now time.Time) map[uint32]map[Bucket][]*Achievement {
	out := make(map[uint32]map[Bucket][]*Achievement)
	for _, a := range g.Achievements {
		b := ClassifyBucket(a, now)
		if out[a.SubsetID] == nil {
			out[a.SubsetID] = make(map[Bucket][]*Achievement)
		}
		out[a.SubsetID][b] = append(out[a.SubsetID][b], a)
	}
	return out
}

// SummaryCounts is the aggregate progress snapshot of Summary (a SPEC_FULL
// supplement over the distilled spec: a one-call overview of a loaded
// game's achievement completion, mirroring rc_client_get_user_game_summary
// from the original implementation).
type SummaryCounts struct {
	NumCoreAchievements     int
	NumUnlockedCore         int
	NumUnlockedCoreHardcore int
	NumUnofficial           int
	PointsCore              int
	PointsUnlocked          int
}

// Summary aggregates this Game's achievements into counts suitable for a
// "X of Y achievements" header.
func (g *Game) Summary() SummaryCounts {
	var s SummaryCounts
	for _, a := range g.Achievements {
		if a.Category == CategoryUnofficial {
			s.NumUnofficial++
			continue
		}
		s.NumCoreAchievements++
		s.PointsCore += a.Points
		if a.UnlockedSoftcore || a.UnlockedHardcore {
			s.NumUnlockedCore++
			s.PointsUnlocked += a.Points
		}
		if a.UnlockedHardcore {
			s.NumUnlockedCoreHardcore++
		}
	}
	return s
}
