package achieve_test

import (
	"testing"
	"time"

	"github.com/jetsetilly/raclient/achieve"
	"github.com/jetsetilly/raclient/ratest"
)

func fakeMemory(vals map[uint32]byte) func(address uint32, buf []byte) int {
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

func TestAchievementTriggersAndMastery(t *testing.T) {
	g := achieve.NewGame(1, 0xFFFF)

	trig, err := g.Parser.ParseTrigger("0x 1=1")
	if !ratest.ExpectSuccess(t, err) {
		return
	}
	a := &achieve.Achievement{ID: 100, Category: achieve.CategoryCore, Points: 5, Engine: achieve.NewTriggerEngine(trig)}
	g.Achievements = append(g.Achievements, a)

	vals := map[uint32]byte{1: 0, 2: 0}
	read := fakeMemory(vals)

	g.DoFrame(read, false)
	ratest.ExpectEquality(t, achieve.Active, a.State())

	vals[1] = 1
	events := g.DoFrame(read, false)

	foundTrigger := false
	foundCompleted := false
	for _, e := range events {
		if e.Kind == achieve.EventAchievementTriggered {
			foundTrigger = true
		}
		if e.Kind == achieve.EventGameCompleted {
			foundCompleted = true
		}
	}
	ratest.ExpectEquality(t, true, foundTrigger)
	ratest.ExpectEquality(t, true, foundCompleted)
	ratest.ExpectEquality(t, achieve.Triggered, a.State())
}

func TestBucketClassification(t *testing.T) {
	a := &achieve.Achievement{ID: 1, Category: achieve.CategoryCore, UnlockedSoftcore: true, UnlockTime: time.Now()}
	ratest.ExpectEquality(t, achieve.BucketRecentlyUnlocked, achieve.ClassifyBucket(a, time.Now()))

	a2 := &achieve.Achievement{ID: 2, Category: achieve.CategoryCore, UnlockedSoftcore: true, UnlockTime: time.Now().Add(-time.Hour)}
	ratest.ExpectEquality(t, achieve.BucketUnlocked, achieve.ClassifyBucket(a2, time.Now()))

	a3 := &achieve.Achievement{ID: 3, Category: achieve.CategoryUnofficial}
	ratest.ExpectEquality(t, achieve.BucketUnofficial, achieve.ClassifyBucket(a3, time.Now()))
}

func TestTrackerPoolSharesSignature(t *testing.T) {
	pool := achieve.NewTrackerPool()
	t1, reused1 := pool.Acquire("SCORE", "M:0x 1", false)
	ratest.ExpectEquality(t, false, reused1)

	t2, reused2 := pool.Acquire("SCORE", "M:0x 1", false)
	ratest.ExpectEquality(t, true, reused2)
	ratest.ExpectEquality(t, t1.ID, t2.ID)

	pool.Release(t1)
	pool.Release(t2)

	t3, reused3 := pool.Acquire("SCORE", "M:0x 1", false)
	ratest.ExpectEquality(t, false, reused3)
	ratest.ExpectEquality(t, t1.ID, t3.ID)
}

func TestSummaryCounts(t *testing.T) {
	g := achieve.NewGame(1, 0xFFFF)
	g.Achievements = append(g.Achievements,
		&achieve.Achievement{ID: 1, Category: achieve.CategoryCore, Points: 10, UnlockedHardcore: true},
		&achieve.Achievement{ID: 2, Category: achieve.CategoryCore, Points: 5},
		&achieve.Achievement{ID: 3, Category: achieve.CategoryUnofficial, Points: 1},
	)
	s := g.Summary()
	ratest.ExpectEquality(t, 2, s.NumCoreAchievements)
	ratest.ExpectEquality(t, 1, s.NumUnlockedCore)
	ratest.ExpectEquality(t, 1, s.NumUnlockedCoreHardcore)
	ratest.ExpectEquality(t, 1, s.NumUnofficial)
	ratest.ExpectEquality(t, 15, s.PointsCore)
	ratest.ExpectEquality(t, 10, s.PointsUnlocked)
}
