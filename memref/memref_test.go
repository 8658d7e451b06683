package memref_test

import (
	"testing"

	"github.com/jetsetilly/raclient/memref"
	"github.com/jetsetilly/raclient/ratest"
)

func fakeMemory(data map[uint32]byte) memref.ReadMemory {
	return func(address uint32, buf []byte) int {
		for i := range buf {
			b, ok := data[address+uint32(i)]
			if !ok {
				return i
			}
			buf[i] = b
		}
		return len(buf)
	}
}

func TestByteReadAndDelta(t *testing.T) {
	a := memref.NewArena(0xffff)
	mem := fakeMemory(map[uint32]byte{0x10: 5})

	m, err := a.Get(memref.Key{Address: 0x10, Size: memref.Byte})
	ratest.ExpectSuccess(t, err)

	a.Refresh(0, mem)
	ratest.ExpectEquality(t, m.Value().AsInt(), int64(5))
	ratest.ExpectEquality(t, m.Changed(), true)

	mem = fakeMemory(map[uint32]byte{0x10: 9})
	a.Refresh(1, mem)
	ratest.ExpectEquality(t, m.Value().AsInt(), int64(9))
	ratest.ExpectEquality(t, m.Prior().AsInt(), int64(5))
	ratest.ExpectEquality(t, m.Delta().AsInt(), int64(4))

	// re-refreshing within the same frame id is a no-op
	mem = fakeMemory(map[uint32]byte{0x10: 200})
	a.Refresh(1, mem)
	ratest.ExpectEquality(t, m.Value().AsInt(), int64(9))
}

func TestWord16Endian(t *testing.T) {
	a := memref.NewArena(0xffff)
	mem := fakeMemory(map[uint32]byte{0x00: 0x34, 0x01: 0x12})

	le, _ := a.Get(memref.Key{Address: 0x00, Size: memref.Word16LE})
	be, _ := a.Get(memref.Key{Address: 0x00, Size: memref.Word16BE})
	a.Refresh(0, mem)

	ratest.ExpectEquality(t, le.Value().AsInt(), int64(0x1234))
	ratest.ExpectEquality(t, be.Value().AsInt(), int64(0x3412))
}

func TestBit(t *testing.T) {
	a := memref.NewArena(0xffff)
	mem := fakeMemory(map[uint32]byte{0x00: 0b0000_0100})

	b2, _ := a.Get(memref.Key{Address: 0x00, Size: memref.Bit2})
	b0, _ := a.Get(memref.Key{Address: 0x00, Size: memref.Bit0})
	a.Refresh(0, mem)

	ratest.ExpectEquality(t, b2.Value().AsInt(), int64(1))
	ratest.ExpectEquality(t, b0.Value().AsInt(), int64(0))
}

func TestBCD(t *testing.T) {
	a := memref.NewArena(0xffff)
	// 0x25 -> digits 2,5 -> 25
	mem := fakeMemory(map[uint32]byte{0x00: 0x25})

	m, _ := a.Get(memref.Key{Address: 0x00, Size: memref.BCDByte})
	a.Refresh(0, mem)
	ratest.ExpectEquality(t, m.Value().AsInt(), int64(25))
}

func TestBCDInvalidNibble(t *testing.T) {
	a := memref.NewArena(0xffff)
	// high nibble 0xF is out of range for BCD and reads as 0
	mem := fakeMemory(map[uint32]byte{0x00: 0xF5})

	m, _ := a.Get(memref.Key{Address: 0x00, Size: memref.BCDByte})
	a.Refresh(0, mem)
	ratest.ExpectEquality(t, m.Value().AsInt(), int64(5))
}

func TestFloatLE(t *testing.T) {
	a := memref.NewArena(0xffff)
	// 1.5 as IEEE-754 LE: 00 00 C0 3F
	mem := fakeMemory(map[uint32]byte{0x00: 0x00, 0x01: 0x00, 0x02: 0xc0, 0x03: 0x3f})

	m, _ := a.Get(memref.Key{Address: 0x00, Size: memref.FloatLE})
	a.Refresh(0, mem)
	ratest.ExpectApproximate(t, m.Value().AsFloat(), 1.5, 0.0001)
}

func TestShortReadIsInvalid(t *testing.T) {
	a := memref.NewArena(0xffff)
	mem := fakeMemory(map[uint32]byte{}) // nothing available

	m, _ := a.Get(memref.Key{Address: 0x00, Size: memref.Word16LE})
	a.Refresh(0, mem)
	ratest.ExpectEquality(t, m.Valid(), false)
	ratest.ExpectEquality(t, m.Value().AsInt(), int64(0))
}

func TestOutOfRangeAddress(t *testing.T) {
	a := memref.NewArena(0x0f)
	_, err := a.Get(memref.Key{Address: 0x10, Size: memref.Byte})
	ratest.ExpectFailure(t, err)
}

func TestOneMemRefPerKey(t *testing.T) {
	a := memref.NewArena(0xffff)
	m1, _ := a.Get(memref.Key{Address: 0x10, Size: memref.Byte})
	m2, _ := a.Get(memref.Key{Address: 0x10, Size: memref.Byte})
	if m1 != m2 {
		t.Errorf("expected same MemRef instance for identical key")
	}
	ratest.ExpectEquality(t, len(a.All()), 1)
}
