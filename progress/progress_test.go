package progress_test

import (
	"testing"

	"github.com/jetsetilly/raclient/achieve"
	"github.com/jetsetilly/raclient/progress"
	"github.com/jetsetilly/raclient/ratest"
)

func buildGame(t *testing.T) *achieve.Game {
	g := achieve.NewGame(42, 0xFFFF)
	trig, err := g.Parser.ParseTrigger("0x 1=1.5.")
	if !ratest.ExpectSuccess(t, err) {
		t.FailNow()
	}
	a := &achieve.Achievement{ID: 7, Category: achieve.CategoryCore, Engine: achieve.NewTriggerEngine(trig)}
	a.Engine.Trigger.Groups[0].Conditions[0].CurrentHits = 3
	g.Achievements = append(g.Achievements, a)
	return g
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	g := buildGame(t)
	blob := progress.Serialize(g)

	g2 := buildGame(t)
	g2.Achievements[0].Engine.Trigger.Groups[0].Conditions[0].CurrentHits = 0

	_, err := progress.Deserialize(g2, blob)
	if !ratest.ExpectSuccess(t, err) {
		return
	}
	ratest.ExpectEquality(t, uint32(3), g2.Achievements[0].Engine.Trigger.Groups[0].Conditions[0].CurrentHits)
}

func TestDeserializeEmptyBlobResetsToWaiting(t *testing.T) {
	g := buildGame(t)
	g.Achievements[0].Engine.State = achieve.Primed

	events, err := progress.Deserialize(g, nil)
	if !ratest.ExpectSuccess(t, err) {
		return
	}
	ratest.ExpectEquality(t, achieve.Waiting, g.Achievements[0].Engine.State)

	found := false
	for _, e := range events {
		if e.Kind == achieve.EventChallengeIndicatorHide {
			found = true
		}
	}
	ratest.ExpectEquality(t, true, found)
}

func TestDeserializeRejectsCorruptBlob(t *testing.T) {
	g := buildGame(t)
	blob := progress.Serialize(g)
	blob[len(blob)-1] ^= 0xFF

	_, err := progress.Deserialize(g, blob)
	ratest.ExpectFailure(t, err)
}
