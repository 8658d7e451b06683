// Package postqueue implements the award/submit retry discipline of spec
// §4.H: immediate-then-exponential-backoff scheduling, with ordering
// preserved per item.
package postqueue

import (
	"time"

	"github.com/jetsetilly/raclient/logger"
)

// initialBackoff and maxBackoff bound the retry schedule of spec §4.H step
// 3: "two seconds, then doubled per failure, capped at two minutes".
const (
	initialBackoff = 2 * time.Second
	maxBackoff     = 2 * time.Minute
)

// Outcome is what a Send callback reports back to the queue about one
// attempt.
type Outcome int

const (
	// OutcomeSuccess terminates retries; the caller has already applied any
	// score update from the response.
	OutcomeSuccess Outcome = iota
	// OutcomeBenignFailure terminates retries without emitting ServerError
	// (spec §4.H step 4: e.g. "User already has … awarded.").
	OutcomeBenignFailure
	// OutcomeHardFailure terminates retries and should emit ServerError
	// (spec §4.H step 5).
	OutcomeHardFailure
	// OutcomeTransportFailure is an HTTP error or empty body; it triggers a
	// requeue (immediate the first time, backed off thereafter).
	OutcomeTransportFailure
)

// Send performs one attempt at posting item and reports the Outcome.
type Send func(item Item) Outcome

// Item is one pending award/submit post. Key identifies "the same
// achievement or leaderboard" for the non-overtaking ordering guarantee of
// spec §4.H; items with equal Key are never reordered relative to each
// other.
type Item struct {
	Key     string
	Payload interface{}

	attempt  int
	nextTry  time.Time
	inFlight bool
}

// Queue holds pending items per Key, each key's items processed strictly in
// FIFO order (spec §4.H "Ordering guarantee").
type Queue struct {
	send Send
	byKey map[string][]*Item
}

// NewQueue creates a Queue that uses send to attempt each post.
func NewQueue(send Send) *Queue {
	return &Queue{send: send, byKey: make(map[string][]*Item)}
}

// Enqueue adds item to its key's pending list and, if it is the only
// pending item for that key, attempts it immediately.
func (q *Queue) Enqueue(item *Item, now time.Time) {
	item.nextTry = now
	q.byKey[item.Key] = append(q.byKey[item.Key], item)
	if len(q.byKey[item.Key]) == 1 {
		q.attempt(item, now)
	}
}

// Pump attempts every due head-of-line item (the oldest un-retried item per
// key whose nextTry has arrived), advancing the backoff schedule for any
// that still fail. Call once per scheduler tick (spec §4.G "scheduler
// pump", §4.H).
func (q *Queue) Pump(now time.Time) {
	for key, items := range q.byKey {
		if len(items) == 0 {
			delete(q.byKey, key)
			continue
		}
		head := items[0]
		if head.inFlight || now.Before(head.nextTry) {
			continue
		}
		q.attempt(head, now)
	}
}

func (q *Queue) attempt(item *Item, now time.Time) {
	item.inFlight = true
	outcome := q.send(*item)
	item.inFlight = false
	item.attempt++

	switch outcome {
	case OutcomeSuccess, OutcomeBenignFailure, OutcomeHardFailure:
		q.pop(item)
		if outcome == OutcomeHardFailure {
			logger.Logf("postqueue", "%s: server rejected post after %d attempt(s)", item.Key, item.attempt)
		}
	case OutcomeTransportFailure:
		if item.attempt == 1 {
			// spec §4.H step 2: immediate requeue once.
			q.attempt(item, now)
			return
		}
		item.nextTry = now.Add(backoffFor(item.attempt))
	}
}

func (q *Queue) pop(item *Item) {
	items := q.byKey[item.Key]
	for i, it := range items {
		if it == item {
			q.byKey[item.Key] = append(items[:i], items[i+1:]...)
			break
		}
	}
}

// backoffFor returns the delay before the attempt-th retry's successor
// (attempt counts the just-failed transport attempt, starting at 2 since
// attempt 1 is handled as an immediate requeue): 2s, 4s, 8s, ... capped at
// two minutes.
func backoffFor(attempt int) time.Duration {
	d := initialBackoff
	for i := 2; i < attempt; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}

// Pending reports how many items (across all keys) are still awaiting
// completion.
func (q *Queue) Pending() int {
	n := 0
	for _, items := range q.byKey {
		n += len(items)
	}
	return n
}
