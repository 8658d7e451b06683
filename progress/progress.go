// Package progress implements the versioned, checksummed progress blob
// format of spec §4.I, used to persist and restore achievement/leaderboard
// hit-counter state across emulator save states.
package progress

import (
	"bytes"
	"crypto/md5"
	"encoding/binary"

	"github.com/jetsetilly/raclient/achieve"
	"github.com/jetsetilly/raclient/dsl"
	"github.com/jetsetilly/raclient/raerrors"
)

const (
	magic          = "RAP1"
	currentVersion = uint32(1)
)

// AchProgress is one achievement's serialized state (spec §4.I).
type AchProgress struct {
	ID    uint32
	State uint8
	// Groups holds, per ConditionGroup in parse order, each condition's
	// CurrentHits plus the group's own paused flag.
	Groups []GroupProgress
}

// GroupProgress is one ConditionGroup's serialized hit-counter state.
type GroupProgress struct {
	CurrentHits []uint32
	IsPaused    uint8
}

// LbProgress is one leaderboard's serialized state: the group progress of
// its Start, Cancel and Submit triggers, concatenated, plus the raw tracked
// value and state (spec §4.I). Serialize does not write the Value field:
// the Value expression's hit counts are not part of the blob.
type LbProgress struct {
	Start, Cancel, Submit, Value []GroupProgress
	RawValue                     int32
	State                        uint8
}

// Serialize encodes g's current achievement/leaderboard hit-counter state
// into the RAP1 blob format.
func Serialize(g *achieve.Game) []byte {
	var body bytes.Buffer
	binary.Write(&body, binary.LittleEndian, currentVersion)
	binary.Write(&body, binary.LittleEndian, g.ID)

	binary.Write(&body, binary.LittleEndian, uint32(len(g.Achievements)))
	for _, a := range g.Achievements {
		writeAchProgress(&body, a)
	}

	binary.Write(&body, binary.LittleEndian, uint32(len(g.Leaderboards)))
	for _, lb := range g.Leaderboards {
		writeLbProgress(&body, lb)
	}

	var out bytes.Buffer
	out.WriteString(magic)
	out.Write(body.Bytes())
	sum := md5.Sum(out.Bytes())
	out.Write(sum[:])
	return out.Bytes()
}

func writeAchProgress(w *bytes.Buffer, a *achieve.Achievement) {
	binary.Write(w, binary.LittleEndian, a.ID)
	binary.Write(w, binary.LittleEndian, uint8(a.State()))

	var groups []dsl.ConditionGroup
	if a.Engine != nil && a.Engine.Trigger != nil {
		groups = a.Engine.Trigger.Groups
	}
	binary.Write(w, binary.LittleEndian, uint32(len(groups)))
	for _, grp := range groups {
		writeGroupProgress(w, grp)
	}
}

func writeGroupProgress(w *bytes.Buffer, grp dsl.ConditionGroup) {
	binary.Write(w, binary.LittleEndian, uint32(len(grp.Conditions)))
	for _, c := range grp.Conditions {
		binary.Write(w, binary.LittleEndian, c.CurrentHits)
	}
	paused := uint8(0)
	if grp.IsPaused {
		paused = 1
	}
	binary.Write(w, binary.LittleEndian, paused)
}

func writeLbProgress(w *bytes.Buffer, lb *achieve.LeaderboardEngine) {
	writeTriggerGroups(w, lb.Start)
	writeTriggerGroups(w, lb.Cancel)
	writeTriggerGroups(w, lb.Submit)
	binary.Write(w, binary.LittleEndian, int32(lb.RawValue.AsInt()))
	binary.Write(w, binary.LittleEndian, uint8(lb.State))
}

func writeTriggerGroups(w *bytes.Buffer, eng *achieve.TriggerEngine) {
	var groups []dsl.ConditionGroup
	if eng != nil && eng.Trigger != nil {
		groups = eng.Trigger.Groups
	}
	binary.Write(w, binary.LittleEndian, uint32(len(groups)))
	for _, grp := range groups {
		writeGroupProgress(w, grp)
	}
}

// Deserialize decodes blob into g's current achievements/leaderboards,
// overwriting every condition's CurrentHits and each achievement's state in
// place. A leaderboard's stored raw value and state are read but not
// applied: leaderboards keep their current state. It returns the
// reconciliation events the caller should emit: a show event for every
// achievement restored as Primed and every leaderboard that is Tracking; no
// hide events are produced for widgets that were visible before the call.
// A nil or empty blob is defined as "reset to Waiting" (spec §4.I) and
// never errors.
func Deserialize(g *achieve.Game, blob []byte) ([]achieve.Event, error) {
	if len(blob) == 0 {
		return resetToWaiting(g), nil
	}

	if len(blob) < len(magic)+4+16 {
		return nil, raerrors.InvalidState("progress blob too short")
	}

	body := blob[:len(blob)-16]
	sum := blob[len(blob)-16:]
	want := md5.Sum(body)
	if !bytes.Equal(sum, want[:]) {
		return nil, raerrors.InvalidState("progress blob checksum mismatch")
	}

	if string(body[:4]) != magic {
		return nil, raerrors.InvalidState("progress blob bad magic")
	}
	r := bytes.NewReader(body[4:])

	var version, gameID uint32
	binary.Read(r, binary.LittleEndian, &version)
	if version != currentVersion {
		return nil, raerrors.InvalidState("progress blob version mismatch")
	}
	binary.Read(r, binary.LittleEndian, &gameID)

	var nAch uint32
	binary.Read(r, binary.LittleEndian, &nAch)
	byID := make(map[uint32]*achieve.Achievement, len(g.Achievements))
	for _, a := range g.Achievements {
		byID[a.ID] = a
	}
	for i := uint32(0); i < nAch; i++ {
		var id uint32
		var state uint8
		binary.Read(r, binary.LittleEndian, &id)
		binary.Read(r, binary.LittleEndian, &state)
		var groups []dsl.ConditionGroup
		if a := byID[id]; a != nil && a.Engine != nil && a.Engine.Trigger != nil {
			groups = a.Engine.Trigger.Groups
		}
		readGroupsInto(r, groups)
		if a := byID[id]; a != nil && a.Engine != nil && a.Engine.Trigger != nil {
			a.Engine.State = achieve.TriggerState(state)
		}
	}

	var nLb uint32
	binary.Read(r, binary.LittleEndian, &nLb)
	for i := uint32(0); i < nLb && i < uint32(len(g.Leaderboards)); i++ {
		lb := g.Leaderboards[i]
		readTriggerGroups(r, lb.Start)
		readTriggerGroups(r, lb.Cancel)
		readTriggerGroups(r, lb.Submit)
		var rawValue int32
		var state uint8
		binary.Read(r, binary.LittleEndian, &rawValue)
		binary.Read(r, binary.LittleEndian, &state)
	}

	return reconcileEvents(g), nil
}

func readGroupsInto(r *bytes.Reader, groups []dsl.ConditionGroup) {
	var n uint32
	binary.Read(r, binary.LittleEndian, &n)
	for i := uint32(0); i < n; i++ {
		var nConds uint32
		binary.Read(r, binary.LittleEndian, &nConds)
		var target *dsl.ConditionGroup
		if int(i) < len(groups) {
			target = &groups[i]
		}
		for j := uint32(0); j < nConds; j++ {
			var hits uint32
			binary.Read(r, binary.LittleEndian, &hits)
			if target != nil && int(j) < len(target.Conditions) {
				target.Conditions[j].CurrentHits = hits
			}
		}
		var paused uint8
		binary.Read(r, binary.LittleEndian, &paused)
		if target != nil {
			target.IsPaused = paused != 0
		}
	}
}

func readTriggerGroups(r *bytes.Reader, eng *achieve.TriggerEngine) {
	var groups []dsl.ConditionGroup
	if eng != nil && eng.Trigger != nil {
		groups = eng.Trigger.Groups
	}
	readGroupsInto(r, groups)
}

// resetToWaiting clears every achievement/leaderboard back to its initial
// lifecycle state and reports the hide events needed to clear any
// currently-visible widgets (spec §4.I: "deserializing a null/empty blob...
// emits hide events for any visible widgets").
func resetToWaiting(g *achieve.Game) []achieve.Event {
	var events []achieve.Event
	for _, a := range g.Achievements {
		if a.Engine == nil {
			continue
		}
		if a.Engine.State == achieve.Primed {
			events = append(events, achieve.Event{Kind: achieve.EventChallengeIndicatorHide, AchievementID: a.ID})
		}
		a.Engine.State = achieve.Waiting
	}
	for _, lb := range g.Leaderboards {
		if lb.State == achieve.LBTracking {
			events = append(events, achieve.Event{Kind: achieve.EventLeaderboardTrackerHide, LeaderboardID: lb.ID})
		}
		lb.State = achieve.LBInactive
	}
	return events
}

// reconcileEvents emits a show event for each achievement that is Primed
// and each leaderboard that is Tracking after a restore (spec §4.I). It
// emits no hide events.
func reconcileEvents(g *achieve.Game) []achieve.Event {
	var events []achieve.Event
	for _, a := range g.Achievements {
		if a.Engine != nil && a.Engine.State == achieve.Primed {
			events = append(events, achieve.Event{Kind: achieve.EventChallengeIndicatorShow, AchievementID: a.ID})
		}
	}
	for _, lb := range g.Leaderboards {
		if lb.State == achieve.LBTracking {
			events = append(events, achieve.Event{Kind: achieve.EventLeaderboardTrackerShow, LeaderboardID: lb.ID})
		}
	}
	return events
}
