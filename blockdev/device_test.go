package blockdev

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigValidates(t *testing.T) {
	if err := DefaultConfig().validate(); err != nil {
		t.Fatalf("DefaultConfig should validate: %v", err)
	}
}

func TestZeroSectorCountIsConfigError(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SectorCount = 0
	if _, err := New(cfg, nil); err == nil {
		t.Fatalf("expected ConfigError for zero sector_count")
	}
}

func TestForwardToBlockDeviceRequiresBackingFile(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BackendMode = ForwardToBlockDevice
	if _, err := New(cfg, nil); err == nil {
		t.Fatalf("expected ConfigError without a backing file path")
	}
}

func TestCapacityMatchesSectorCountTimes512(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SectorCount = 4096
	dev, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got, want := dev.Capacity(), uint64(4096*512); got != want {
		t.Fatalf("Capacity() = %d, want %d", got, want)
	}
}

func TestGeometryReportsPageGranularity(t *testing.T) {
	dev := newTestDevice(t)
	g := dev.Geometry()
	if g.LogicalBlockSize != 4096 || g.PhysicalBlockSize != 4096 {
		t.Fatalf("unexpected block sizes: %+v", g)
	}
	if !g.SupportsDiscard || !g.SupportsWriteZeroes {
		t.Fatalf("expected discard and write-zeroes support: %+v", g)
	}
}

func TestSetFrontendModeIsMutuallyExclusive(t *testing.T) {
	dev := newTestDevice(t)
	if dev.FrontendMode() != BlockDeviceFrontend {
		t.Fatalf("expected default frontend to be block_device")
	}
	dev.SetFrontendMode(FrontswapFrontend)
	if dev.FrontendMode() != FrontswapFrontend {
		t.Fatalf("SetFrontendMode did not take effect")
	}
}

func TestForwardToBlockDeviceRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.SectorCount = 64
	cfg.BackendMode = ForwardToBlockDevice
	cfg.BackingFilePath = filepath.Join(dir, "backing.img")

	dev, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	payload := bytes.Repeat([]byte{0x42}, SectorSize)
	if err := dev.SubmitWrite(3, []Segment{{Data: payload}}); err != nil {
		t.Fatalf("SubmitWrite: %v", err)
	}
	buf := make([]byte, SectorSize)
	if err := dev.SubmitRead(3, []Segment{{Data: buf}}); err != nil {
		t.Fatalf("SubmitRead: %v", err)
	}
	if !bytes.Equal(buf, payload) {
		t.Fatalf("mmap-backed round trip mismatch")
	}

	if err := dev.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := os.Stat(cfg.BackingFilePath); err != nil {
		t.Fatalf("backing file should persist after Close: %v", err)
	}
}
