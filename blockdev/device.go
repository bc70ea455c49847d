// Package blockdev implements the block-request dispatcher: the layer
// that turns a host's read/write/discard/write-zeroes requests into
// sector-granularity operations against the page tree, triggering
// opportunistic ECC correction and surfacing what it finds through
// observability.Sink and observability.Stats.
package blockdev

import (
	"sync"
	"time"

	"github.com/spacelab/hammingdev/hostsurface"
	"github.com/spacelab/hammingdev/observability"
	"github.com/spacelab/hammingdev/ptree"
)

// Device is one block-device instance, constructed explicitly by a
// caller and threaded through its own calls rather than kept as a single
// process-wide global.
type Device struct {
	// mu guards cfg's mode fields (FrontendMode, BackendMode) and
	// SectorCount: the device-wide state a caller can observe changing
	// out from under an in-flight request. Tree structure and page
	// content have their own finer-grained locking inside ptree (see
	// DESIGN.md); this lock is not on the hot path of a single sector
	// read or write.
	mu  sync.RWMutex
	cfg Config

	backend backend
	sink    observability.Sink
	stats   observability.Stats

	now func() int64
}

// New constructs a Device. A nil sink discards unrecoverable-corruption
// events rather than panicking on the first one.
func New(cfg Config, sink observability.Sink) (*Device, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if sink == nil {
		sink = observability.DiscardSink{}
	}

	var be backend
	switch cfg.BackendMode {
	case InMemoryTree:
		be = newPageStore()
	case ForwardToBlockDevice:
		mb, err := newMmapBackend(cfg.BackingFilePath, cfg.SectorCount)
		if err != nil {
			return nil, err
		}
		be = mb
	default:
		return nil, ConfigError{Reason: "unknown backend_mode"}
	}

	return &Device{
		cfg:     cfg,
		backend: be,
		sink:    sink,
		now:     func() int64 { return time.Now().UnixNano() },
	}, nil
}

// Close releases the backend's resources (a no-op for in_memory_tree, an
// unmap+close for forward_to_block_device).
func (d *Device) Close() error {
	return d.backend.Close()
}

// Stats returns a live pointer to the device's counters.
func (d *Device) Stats() *observability.Stats {
	return &d.stats
}

// SectorCount returns the device's configured capacity in sectors.
func (d *Device) SectorCount() uint32 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cfg.SectorCount
}

// Capacity returns the device's capacity in bytes.
func (d *Device) Capacity() uint64 {
	return uint64(d.SectorCount()) * SectorSize
}

// Geometry returns the host-facing block device surface description.
func (d *Device) Geometry() hostsurface.Geometry {
	return hostsurface.DefaultGeometry()
}

// FrontendMode returns the currently active frontend.
func (d *Device) FrontendMode() FrontendMode {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cfg.FrontendMode
}

// SetFrontendMode switches the active frontend. block_device and
// frontswap are mutually exclusive at any instant; this simply swaps
// which one SubmitRead/SubmitWrite callers are understood to be using.
func (d *Device) SetFrontendMode(m FrontendMode) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cfg.FrontendMode = m
}

// VerifyIntervalNs returns the configured opportunistic-verification
// staleness threshold.
func (d *Device) VerifyIntervalNs() int64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cfg.VerifyIntervalNs
}

// DebugPageLookup exposes the backend's page lookup directly, bypassing
// the dispatcher's segment validation and opportunistic verification.
// It exists for diagnostic tooling (hammingctl's dump-codeset and
// inject-bit) and tests; ordinary I/O should go through SubmitRead and
// SubmitWrite instead.
func (d *Device) DebugPageLookup(sector uint32) (*ptree.Page, error) {
	return d.backend.PageLookup(sector, false)
}
