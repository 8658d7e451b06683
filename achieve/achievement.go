package achieve

import (
	"time"

	"github.com/icza/gox/gox"
)

// Category distinguishes core from unofficial/bonus achievements (spec §3
// "Achievement (public view)").
type Category int

const (
	CategoryCore Category = iota
	CategoryUnofficial
)

// Bucket is the UI list grouping of spec §4.E "Achievement bucket
// classification".
type Bucket int

const (
	BucketActiveChallenge Bucket = iota
	BucketRecentlyUnlocked
	BucketAlmostThere
	BucketLocked
	BucketUnlocked
	BucketUnsupported
	BucketUnofficial
)

// recentWindow is the spec's 15-minute recency window for RecentlyUnlocked.
const recentWindow = 15 * time.Minute

// almostThereThreshold is the spec's "measured progress >= 80%" threshold.
const almostThereThreshold = 0.80

// Achievement is the public view of one achievement: its static metadata
// plus the live TriggerEngine driving its state (spec §3 "Achievement
// (public view)").
type Achievement struct {
	ID          uint32
	SubsetID    uint32
	Title       string
	Description string
	Badge       string
	Points      int
	Category    Category

	Engine *TriggerEngine

	UnlockedHardcore bool
	UnlockedSoftcore bool
	UnlockTime       time.Time

	// Unsupported marks an achievement the parser could not build a
	// Trigger for (spec §4.E failure semantics); it always buckets to
	// BucketUnsupported regardless of Engine.State.
	Unsupported bool
}

// State returns the achievement's current lifecycle state.
func (a *Achievement) State() TriggerState {
	if a.Engine == nil {
		return Disabled
	}
	return a.Engine.State
}

// MeasuredProgress returns (value, target, ok): ok is false if the
// achievement's trigger has no Measured condition.
func (a *Achievement) MeasuredProgress() (value int64, target int64, ok bool) {
	if a.Engine == nil || a.Engine.Trigger == nil || !a.Engine.Trigger.HasMeasured {
		return 0, 0, false
	}
	v := int64(0)
	if a.Engine.HasMeasured {
		v = a.Engine.MeasuredValue.AsInt()
	}
	return v, a.Engine.Trigger.MeasuredTarget, true
}

// MeasuredPercent returns MeasuredProgress as a 0..1 fraction, or 0 if there
// is no Measured condition or the target is zero.
func (a *Achievement) MeasuredPercent() float64 {
	v, target, ok := a.MeasuredProgress()
	if !ok || target == 0 {
		return 0
	}
	pct := float64(v) / float64(target)
	pct = gox.If(pct > 1, 1.0, pct)
	pct = gox.If(pct < 0, 0.0, pct)
	return pct
}

// ClassifyBucket places a into exactly one Bucket (spec §4.E "Achievement
// bucket classification"), given the current time for the recency window.
func ClassifyBucket(a *Achievement, now time.Time) Bucket {
	if a.Unsupported {
		return BucketUnsupported
	}
	if a.Category == CategoryUnofficial {
		return BucketUnofficial
	}

	unlocked := a.UnlockedHardcore || a.UnlockedSoftcore
	if unlocked {
		if !a.UnlockTime.IsZero() && now.Sub(a.UnlockTime) <= recentWindow {
			return BucketRecentlyUnlocked
		}
		return BucketUnlocked
	}

	switch a.State() {
	case Primed:
		return BucketActiveChallenge
	case Disabled:
		return BucketUnsupported
	}

	if a.MeasuredPercent() >= almostThereThreshold {
		return BucketAlmostThere
	}
	return BucketLocked
}
