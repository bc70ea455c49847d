package blockdev

import (
	"bytes"
	"testing"

	"github.com/spacelab/hammingdev/observability"
	"github.com/spacelab/hammingdev/ptree"
)

func newTestDevice(t *testing.T) *Device {
	t.Helper()
	dev, err := New(DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return dev
}

func TestPatternRoundTripAcross256Sectors(t *testing.T) {
	dev := newTestDevice(t)

	for i := uint32(0); i < 256; i++ {
		buf := bytes.Repeat([]byte{byte(i & 0xFF)}, SectorSize)
		if err := dev.SubmitWrite(i, []Segment{{Data: buf}}); err != nil {
			t.Fatalf("SubmitWrite(%d): %v", i, err)
		}
	}

	for i := uint32(0); i < 256; i++ {
		buf := make([]byte, SectorSize)
		if err := dev.SubmitRead(i, []Segment{{Data: buf}}); err != nil {
			t.Fatalf("SubmitRead(%d): %v", i, err)
		}
		want := byte(i & 0xFF)
		for _, b := range buf {
			if b != want {
				t.Fatalf("sector %d: got byte %#x, want %#x", i, b, want)
			}
		}
	}
}

func TestReadFromUnallocatedSectorIsZero(t *testing.T) {
	dev := newTestDevice(t)
	buf := bytes.Repeat([]byte{0xFF}, SectorSize)
	if err := dev.SubmitRead(99, []Segment{{Data: buf}}); err != nil {
		t.Fatalf("SubmitRead: %v", err)
	}
	for _, b := range buf {
		if b != 0 {
			t.Fatalf("expected zero-filled read, got %x", buf)
		}
	}
}

func TestSectorOutOfRangeIsIoError(t *testing.T) {
	dev := newTestDevice(t)
	buf := make([]byte, SectorSize)
	err := dev.SubmitRead(dev.SectorCount(), []Segment{{Data: buf}})
	if _, ok := err.(IoError); !ok {
		t.Fatalf("expected IoError, got %v", err)
	}
}

func TestMisalignedSegmentIsIoErrorBeforeTouchingTree(t *testing.T) {
	dev := newTestDevice(t)
	err := dev.SubmitWrite(0, []Segment{{Data: make([]byte, 511)}})
	if _, ok := err.(IoError); !ok {
		t.Fatalf("expected IoError, got %v", err)
	}
	page, lookupErr := dev.backend.PageLookup(0, false)
	if lookupErr != nil {
		t.Fatalf("PageLookup: %v", lookupErr)
	}
	if page != nil {
		t.Fatalf("misaligned write must not allocate before failing")
	}
}

func TestSingleBitFlipCorrectedOnReadAndCounted(t *testing.T) {
	dev := newTestDevice(t)

	payload := bytes.Repeat([]byte{0xA5}, ptree.PageSize)
	if err := dev.SubmitWrite(800, segmentsOf(payload)); err != nil {
		t.Fatalf("SubmitWrite: %v", err)
	}

	page, err := dev.backend.PageLookup(800, false)
	if err != nil || page == nil {
		t.Fatalf("PageLookup: %v, %v", page, err)
	}
	// Row 123, bit column 77: row 0 is never covered by the code, so the
	// flipped bit must sit in a protected row.
	const off = 123*16 + 77/8
	wantByte := page.Data[off]
	// Flip one bit directly in the stored page, leaving its CodeSet
	// pointing at the pre-flip data: exactly the DRAM bit-rot scenario
	// the opportunistic verifier exists to catch.
	page.Data[off] ^= 1 << (77 % 8)

	dev.now = func() int64 { return 10 * DefaultVerifyIntervalNs }
	readBuf := make([]byte, ptree.PageSize)
	if err := dev.SubmitRead(800, segmentsOf(readBuf)); err != nil {
		t.Fatalf("SubmitRead: %v", err)
	}
	if readBuf[off] != wantByte {
		t.Fatalf("read did not recover pre-corruption byte: got %#x want %#x", readBuf[off], wantByte)
	}
	if dev.stats.RecoverableCorrections.Load() == 0 {
		t.Fatalf("expected recoverable correction counter to increment")
	}
}

func TestDiscardThenWriteThenRead(t *testing.T) {
	dev := newTestDevice(t)

	payload := bytes.Repeat([]byte{0x77}, SectorSize)
	if err := dev.SubmitWrite(1024, []Segment{{Data: payload}}); err != nil {
		t.Fatalf("SubmitWrite: %v", err)
	}

	if err := dev.SubmitDiscard(0, 2048); err != nil {
		t.Fatalf("SubmitDiscard: %v", err)
	}

	buf := make([]byte, SectorSize)
	if err := dev.SubmitRead(1024, []Segment{{Data: buf}}); err != nil {
		t.Fatalf("SubmitRead: %v", err)
	}
	for _, b := range buf {
		if b != 0 {
			t.Fatalf("expected discarded sector to read zero, got %x", buf)
		}
	}

	fresh := bytes.Repeat([]byte{0x11}, SectorSize)
	if err := dev.SubmitWrite(1024, []Segment{{Data: fresh}}); err != nil {
		t.Fatalf("SubmitWrite after discard: %v", err)
	}
	if err := dev.SubmitRead(1024, []Segment{{Data: buf}}); err != nil {
		t.Fatalf("SubmitRead after rewrite: %v", err)
	}
	if !bytes.Equal(buf, fresh) {
		t.Fatalf("post-discard write did not round-trip: got %x want %x", buf, fresh)
	}
}

func TestConcurrentWritesToSameSectorAreNotTorn(t *testing.T) {
	dev := newTestDevice(t)
	a := bytes.Repeat([]byte{0xAA}, SectorSize)
	b := bytes.Repeat([]byte{0xBB}, SectorSize)

	done := make(chan error, 2)
	go func() { done <- dev.SubmitWrite(42, []Segment{{Data: a}}) }()
	go func() { done <- dev.SubmitWrite(42, []Segment{{Data: b}}) }()
	for i := 0; i < 2; i++ {
		if err := <-done; err != nil {
			t.Fatalf("SubmitWrite: %v", err)
		}
	}

	buf := make([]byte, SectorSize)
	if err := dev.SubmitRead(42, []Segment{{Data: buf}}); err != nil {
		t.Fatalf("SubmitRead: %v", err)
	}
	if !bytes.Equal(buf, a) && !bytes.Equal(buf, b) {
		t.Fatalf("read result is neither writer's payload in full: %x", buf)
	}
}

func TestRequestSpanningThreePages(t *testing.T) {
	dev := newTestDevice(t)
	const sectors = 20
	payload := make([]byte, sectors*SectorSize)
	for i := range payload {
		payload[i] = byte(i)
	}

	if err := dev.SubmitWrite(6, []Segment{{Data: payload}}); err != nil {
		t.Fatalf("SubmitWrite: %v", err)
	}

	readBuf := make([]byte, sectors*SectorSize)
	if err := dev.SubmitRead(6, []Segment{{Data: readBuf}}); err != nil {
		t.Fatalf("SubmitRead: %v", err)
	}
	if !bytes.Equal(readBuf, payload) {
		t.Fatalf("multi-page round trip mismatch")
	}
}

func TestUnrecoverableCorruptionReportsToSink(t *testing.T) {
	var reported bool
	sink := observability.LogSink{Logf: func(string, ...interface{}) { reported = true }}
	dev, err := New(DefaultConfig(), sink)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	payload := bytes.Repeat([]byte{0x5A}, ptree.PageSize)
	if err := dev.SubmitWrite(2000, segmentsOf(payload)); err != nil {
		t.Fatalf("SubmitWrite: %v", err)
	}
	page, err := dev.backend.PageLookup(2000, false)
	if err != nil || page == nil {
		t.Fatalf("PageLookup: %v, %v", page, err)
	}
	page.Code.SecondSet[0][0].Lo ^= 1
	page.Code.SecondSet[1][0].Lo ^= 2
	page.Code.SecondSet[2][0].Lo ^= 4

	dev.now = func() int64 { return 1_000_000 }
	buf := make([]byte, ptree.PageSize)
	err = dev.SubmitRead(2000, segmentsOf(buf))
	if _, ok := err.(IoError); !ok {
		t.Fatalf("expected IoError for unrecoverable corruption, got %v", err)
	}
	if !reported {
		t.Fatalf("expected sink to be notified")
	}
	if dev.stats.UnrecoverableEvents.Load() != 1 {
		t.Fatalf("UnrecoverableEvents = %d, want 1", dev.stats.UnrecoverableEvents.Load())
	}
}

func segmentsOf(data []byte) []Segment {
	return []Segment{{Data: data}}
}
