package postqueue_test

import (
	"testing"
	"time"

	"github.com/jetsetilly/raclient/postqueue"
	"github.com/jetsetilly/raclient/ratest"
)

func TestImmediateRequeueOnFirstFailure(t *testing.T) {
	attempts := 0
	q := postqueue.NewQueue(func(item postqueue.Item) postqueue.Outcome {
		attempts++
		if attempts < 3 {
			return postqueue.OutcomeTransportFailure
		}
		return postqueue.OutcomeSuccess
	})

	now := time.Now()
	q.Enqueue(&postqueue.Item{Key: "ach-1"}, now)

	// first failure triggers an immediate retry inline, so by the time
	// Enqueue returns we've already made 2 attempts.
	ratest.ExpectEquality(t, 2, attempts)
	ratest.ExpectEquality(t, 1, q.Pending())

	q.Pump(now.Add(3 * time.Second))
	ratest.ExpectEquality(t, 3, attempts)
	ratest.ExpectEquality(t, 0, q.Pending())
}

func TestBenignFailureStopsRetrying(t *testing.T) {
	attempts := 0
	q := postqueue.NewQueue(func(item postqueue.Item) postqueue.Outcome {
		attempts++
		return postqueue.OutcomeBenignFailure
	})

	now := time.Now()
	q.Enqueue(&postqueue.Item{Key: "lb-1"}, now)
	ratest.ExpectEquality(t, 1, attempts)
	ratest.ExpectEquality(t, 0, q.Pending())
}

func TestSameKeyOrderingPreserved(t *testing.T) {
	var order []string
	q := postqueue.NewQueue(func(item postqueue.Item) postqueue.Outcome {
		order = append(order, item.Payload.(string))
		return postqueue.OutcomeSuccess
	})

	now := time.Now()
	q.Enqueue(&postqueue.Item{Key: "ach-1", Payload: "first"}, now)
	q.Enqueue(&postqueue.Item{Key: "ach-1", Payload: "second"}, now)
	q.Pump(now)

	ratest.ExpectEquality(t, []string{"first", "second"}, order)
}
