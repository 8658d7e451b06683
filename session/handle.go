package session

import (
	"sync"
	"sync/atomic"
)

// Handle is an opaque reference to one in-flight asynchronous step,
// returned by every begin_* operation so the caller can Abort it (spec
// §4.G "any in-flight async may be cancelled via its handle").
type Handle struct {
	id      int
	aborted *atomic.Bool
}

// Abort atomically marks h's step as cancelled; when the transport's
// completion callback runs, it becomes a no-op (spec §5 "Cancellation
// semantics").
func (h Handle) Abort() {
	if h.aborted != nil {
		h.aborted.Store(true)
	}
}

// handleRegistry mints Handles and tracks their abort flags. Guarded by a
// mutex per spec §5: "a single coarse mutex guards the Client state so
// that host-side helper threads used by the HTTP transport can safely
// invoke server_call completion callbacks from a different thread".
type handleRegistry struct {
	mu     sync.Mutex
	nextID int
}

func (r *handleRegistry) new() Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	return Handle{id: r.nextID, aborted: new(atomic.Bool)}
}

func aborted(h Handle) bool {
	return h.aborted != nil && h.aborted.Load()
}
