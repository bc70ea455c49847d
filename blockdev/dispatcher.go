package blockdev

import (
	"fmt"

	"github.com/spacelab/hammingdev/ecc"
	"github.com/spacelab/hammingdev/ptree"
)

// requestKind distinguishes the two directions a dispatched request can
// move bytes; everything else about the state machine is shared.
type requestKind int

const (
	requestRead requestKind = iota
	requestWrite
)

// SubmitRead walks segs in order starting at startSector, filling each
// one from the tree (zero-filling any sector that was never written) and
// running opportunistic verification on every page it touches.
//
// State machine: received (segment validation) -> per-segment { mapped
// (PageLookup) -> copied (sector copy) } -> committed -> endio. Any
// segment failing aborts the whole request (error_endio); no partial
// completion is ever visible to the caller.
func (d *Device) SubmitRead(startSector uint32, segs []Segment) error {
	return d.dispatch(startSector, segs, requestRead)
}

// SubmitWrite is SubmitRead's mirror: it copies caller bytes into the
// tree, allocating pages as needed, and recomputes each touched page's
// CodeSet. An AllocError from the tree aborts the request as IoError.
func (d *Device) SubmitWrite(startSector uint32, segs []Segment) error {
	return d.dispatch(startSector, segs, requestWrite)
}

func (d *Device) dispatch(startSector uint32, segs []Segment, kind requestKind) error {
	if err := validateSegments(segs); err != nil {
		return err
	}
	var total uint64
	for _, seg := range segs {
		total += uint64(len(seg.Data) / SectorSize)
	}
	if uint64(startSector)+total > uint64(d.SectorCount()) {
		return IoError{Reason: fmt.Sprintf("request of %d sectors at sector %d exceeds sector_count", total, startSector)}
	}

	sector := startSector
	for _, seg := range segs {
		for off := 0; off < len(seg.Data); off += SectorSize {
			sub := seg.Data[off : off+SectorSize]
			var err error
			switch kind {
			case requestRead:
				err = d.readSector(sector, sub)
			case requestWrite:
				err = d.writeSector(sector, sub)
			}
			if err != nil {
				return err
			}
			sector++
		}
	}
	return nil
}

func validateSegments(segs []Segment) error {
	for i, s := range segs {
		if len(s.Data) == 0 || len(s.Data)%SectorSize != 0 {
			return IoError{Reason: fmt.Sprintf("segment %d length %d is not a positive multiple of %d", i, len(s.Data), SectorSize)}
		}
	}
	return nil
}

func (d *Device) checkRange(sector uint32) error {
	if sector >= d.SectorCount() {
		return IoError{Reason: fmt.Sprintf("sector %d out of range", sector)}
	}
	return nil
}

func (d *Device) readSector(sector uint32, dst []byte) error {
	if err := d.checkRange(sector); err != nil {
		return err
	}

	page, err := d.backend.PageLookup(sector, false)
	if err != nil {
		return IoError{Reason: err.Error()}
	}
	if page == nil {
		for i := range dst {
			dst[i] = 0
		}
		d.stats.SectorsRead.Add(1)
		return nil
	}

	result, err := page.Verify(d.now(), d.VerifyIntervalNs())
	if err != nil {
		pageID := ptree.PageID(sector)
		d.sink.UnrecoverableCorruption(d.now(), pageID, err.Error())
		d.stats.UnrecoverableEvents.Add(1)
		return IoError{Reason: err.Error()}
	}
	d.stats.RecoverableCorrections.Add(uint64(correctionCount(result)))

	copy(dst, page.SectorSlice(ptree.Chunk(sector)))
	d.stats.SectorsRead.Add(1)
	return nil
}

func (d *Device) writeSector(sector uint32, src []byte) error {
	if err := d.checkRange(sector); err != nil {
		return err
	}

	page, err := d.backend.PageLookup(sector, true)
	if err != nil {
		return IoError{Reason: err.Error()}
	}
	if page == nil {
		return IoError{Reason: "page allocation failed"}
	}
	if err := page.WriteSector(ptree.Chunk(sector), src); err != nil {
		return IoError{Reason: err.Error()}
	}
	d.stats.SectorsWritten.Add(1)
	return nil
}

// correctionCount flattens a VerifyResult into the single counter the
// device exposes to hosts: every bit flipped back in FirstSet or data
// counts once, and a SecondSet copy restored from the majority counts
// once.
func correctionCount(r ecc.VerifyResult) int {
	n := r.FirstSetCorrections + r.DataCorrections
	if r.SecondSetRepaired {
		n++
	}
	return n
}
