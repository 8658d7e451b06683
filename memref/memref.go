package memref

import "github.com/jetsetilly/raclient/raerrors"

// ReadMemory is the host callback contract of spec §6: copy up to len(buf)
// bytes of emulated memory starting at address into buf, returning the
// number of bytes actually delivered. A short read signals an invalid
// address.
type ReadMemory func(address uint32, buf []byte) int

// Key identifies a MemRef; the arena guarantees exactly one MemRef per Key
// (spec §3: "lookups are by key, guaranteeing one MemRef per (address,size)
// pair").
type Key struct {
	Address uint32
	Size    Size
}

// MemRef is a cached descriptor of one emulated memory location: its last
// decoded value, the value before that (its "prior"), and whether the most
// recent refresh changed it.
type MemRef struct {
	Key

	value Num
	prior Num
	valid bool

	lastFrame int64
	changed   bool
}

// Value returns the value read on the most recent refresh.
func (m *MemRef) Value() Num { return m.value }

// Prior returns the value before the most recent change (spec §4.A: "Prior:
// updated only when the current read differs from value").
func (m *MemRef) Prior() Num { return m.prior }

// Changed reports whether the most refresh produced a different value than
// the one before it.
func (m *MemRef) Changed() bool { return m.changed }

// Valid reports whether the most recent read delivered enough bytes to
// decode a value. An invalid MemRef decodes to zero.
func (m *MemRef) Valid() bool { return m.valid }

// Delta returns value-prior, wrapped to the declared width (spec §4.A).
func (m *MemRef) Delta() Num {
	if m.value.IsFloat {
		return FloatNum(m.value.F - m.prior.F)
	}
	return IntNum(m.value.I - m.prior.I).WrapInt(m.Size.BitWidth())
}

// refresh re-reads this MemRef from the host if it has not already been
// refreshed this frame, updating prior/changed as appropriate. It is
// idempotent within a single frameID (spec §4.F: "at most once per frame
// each memref is refreshed").
func (m *MemRef) refresh(frameID int64, read ReadMemory) {
	if m.lastFrame == frameID {
		return
	}
	m.lastFrame = frameID

	width := m.Size.ByteWidth()
	buf := make([]byte, width)
	n := read(m.Address, buf)
	if n < width {
		m.valid = false
		m.changed = false
		return
	}

	bit := 0
	if m.Size >= Bit0 && m.Size <= Bit7 {
		bit = bitIndex(m.Size)
	}

	next := decode(m.Size, bit, buf)
	m.valid = true

	if !numEqual(next, m.value) {
		m.prior = m.value
		m.changed = true
	} else {
		m.changed = false
	}
	m.value = next
}

func numEqual(a, b Num) bool {
	if a.IsFloat != b.IsFloat {
		return a.AsFloat() == b.AsFloat()
	}
	if a.IsFloat {
		return a.F == b.F
	}
	return a.I == b.I
}

// Arena is the append-only collection of every MemRef mentioned by the
// current game's patch data (spec §3: "All MemRefs live in one append-only
// arena owned by the loaded game"). It guarantees one MemRef per Key and
// assigns each a stable index usable as a progress-serialization id.
type Arena struct {
	byKey   map[Key]*MemRef
	ordered []*MemRef

	// maxValidAddress bounds the console's address space (spec §4.B: parse
	// time bounds checking uses this to disable out-of-range achievements).
	maxValidAddress uint32
}

// NewArena creates an empty arena bounded to maxValidAddress (inclusive).
func NewArena(maxValidAddress uint32) *Arena {
	return &Arena{
		byKey:           make(map[Key]*MemRef),
		maxValidAddress: maxValidAddress,
	}
}

// MaxValidAddress returns the console's declared address bound.
func (a *Arena) MaxValidAddress() uint32 { return a.maxValidAddress }

// Get returns the MemRef for key, creating it (at the end of the arena) if
// this is the first time it has been mentioned. It returns an
// InvalidState "address out of range" error, alongside the MemRef, if the
// address exceeds the console's bound; the MemRef is still created so that callers
// which want to report but not abort parsing can proceed.
func (a *Arena) Get(key Key) (*MemRef, error) {
	if m, ok := a.byKey[key]; ok {
		return m, nil
	}

	m := &MemRef{Key: key, lastFrame: -1}
	a.byKey[key] = m
	a.ordered = append(a.ordered, m)

	if uint64(key.Address)+uint64(key.Size.ByteWidth())-1 > uint64(a.maxValidAddress) {
		return m, raerrors.InvalidState("address out of range")
	}
	return m, nil
}

// All returns every MemRef in creation order, stable for the lifetime of
// the arena; used by progress serialization and debug dumps.
func (a *Arena) All() []*MemRef {
	return a.ordered
}

// Refresh re-reads every MemRef the arena currently holds, using frameID to
// avoid refreshing a MemRef more than once per frame. Called once per
// do_frame (spec §4.F step 2); modified-memref caches (package dsl) key
// their own per-frame cache off the same frameID.
func (a *Arena) Refresh(frameID int64, read ReadMemory) {
	for _, m := range a.ordered {
		m.refresh(frameID, read)
	}
}

// Touch refreshes a single MemRef for frameID. Used by the modified-memref
// graph (package dsl) on every leaf read, so that a MemRef first mentioned
// mid-frame is read before use, and for indirect addressing targets, whose
// effective address is only known once the frame's arithmetic has been
// evaluated and so cannot be included in the arena's regular top-level
// Refresh pass.
func (a *Arena) Touch(m *MemRef, frameID int64, read ReadMemory) {
	m.refresh(frameID, read)
}
