// Package achieve layers the thin Trigger/Value/Leaderboard/Rich-Presence
// state machines of spec §4.E on top of package eval's group evaluator.
package achieve

// EventKind enumerates the UI events the runtime emits while draining its
// per-frame queue in the fixed order of spec §4.F step 6.
type EventKind int

const (
	EventAchievementTriggered EventKind = iota
	EventChallengeIndicatorShow
	EventChallengeIndicatorHide
	EventAchievementProgressUpdate
	EventLeaderboardStarted
	EventLeaderboardFailed
	EventLeaderboardSubmitted
	EventLeaderboardTrackerShow
	EventLeaderboardTrackerUpdate
	EventLeaderboardTrackerHide
	EventGameCompleted
	EventServerError
)

// Event is one queued notification, carrying whichever of AchievementID /
// LeaderboardID / TrackerID / Message applies to its Kind.
type Event struct {
	Kind EventKind

	AchievementID   uint32
	LeaderboardID   uint32
	TrackerID       int
	Message         string
}

// drainOrder is the fixed sequence of spec §4.F step 6: "achievement
// triggers, then challenge-indicator hides, shows, progress updates, then
// leaderboard started/failed/submitted, then tracker show/update/hide, then
// game-completed, then server errors".
var drainOrder = []EventKind{
	EventAchievementTriggered,
	EventChallengeIndicatorHide,
	EventChallengeIndicatorShow,
	EventAchievementProgressUpdate,
	EventLeaderboardStarted,
	EventLeaderboardFailed,
	EventLeaderboardSubmitted,
	EventLeaderboardTrackerShow,
	EventLeaderboardTrackerUpdate,
	EventLeaderboardTrackerHide,
	EventGameCompleted,
	EventServerError,
}

// Queue accumulates events during a frame, regardless of the order its
// callers push them in, and reorders them into the fixed drain sequence
// only when Drain is called (spec §4.F step 6).
type Queue struct {
	byKind map[EventKind][]Event
}

func (q *Queue) push(e Event) {
	if q.byKind == nil {
		q.byKind = make(map[EventKind][]Event)
	}
	q.byKind[e.Kind] = append(q.byKind[e.Kind], e)
}

// Drain returns every queued event in the fixed order of drainOrder
// (preserving push order within a single Kind), then clears the queue.
func (q *Queue) Drain() []Event {
	var out []Event
	for _, k := range drainOrder {
		out = append(out, q.byKind[k]...)
	}
	q.byKind = nil
	return out
}
