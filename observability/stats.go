package observability

import "sync/atomic"

// Stats holds the device-wide counters a host needs to read without
// taking the device's main lock. All fields are safe for concurrent use
// from any goroutine.
type Stats struct {
	// RecoverableCorrections counts every bit the layered ECC flipped back
	// in FirstSet or data, plus one for each SecondSet copy restored from
	// the majority.
	RecoverableCorrections atomic.Uint64
	// UnrecoverableEvents counts events reported to a Sink: one per sector
	// read that hit unrecoverable corruption.
	UnrecoverableEvents atomic.Uint64
	// SectorsRead and SectorsWritten count 512-byte sectors completed by
	// the dispatcher, not bytes or segments; a segment spanning several
	// sectors counts once per sector.
	SectorsRead    atomic.Uint64
	SectorsWritten atomic.Uint64
}

// Snapshot is a point-in-time, non-atomic copy of Stats suitable for
// printing or serializing.
type Snapshot struct {
	RecoverableCorrections uint64
	UnrecoverableEvents    uint64
	SectorsRead            uint64
	SectorsWritten         uint64
}

func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		RecoverableCorrections: s.RecoverableCorrections.Load(),
		UnrecoverableEvents:    s.UnrecoverableEvents.Load(),
		SectorsRead:            s.SectorsRead.Load(),
		SectorsWritten:         s.SectorsWritten.Load(),
	}
}
