package blockdev

import "github.com/spacelab/hammingdev/ptree"

// SubmitDiscard tells the device sectors [startSector, startSector+count)
// no longer hold meaningful data. Pages that were never allocated are
// left untouched, since lazy semantics already read them as zero; in
// pages that do exist, the sectors inside the range are zeroed in place so
// the discarded range reads back as zero regardless of what it held
// before. Sectors of those pages outside the range keep their contents.
func (d *Device) SubmitDiscard(startSector, count uint32) error {
	return d.zeroExistingRange(startSector, count)
}

// SubmitWriteZeroes is observably identical to SubmitDiscard in this
// device: both guarantee the range reads back as zero, and neither is
// required to allocate pages to do it.
func (d *Device) SubmitWriteZeroes(startSector, count uint32) error {
	return d.zeroExistingRange(startSector, count)
}

func (d *Device) zeroExistingRange(startSector, count uint32) error {
	sectorCount := d.SectorCount()
	if count == 0 {
		return nil
	}
	if uint64(startSector)+uint64(count) > uint64(sectorCount) {
		return IoError{Reason: "discard range exceeds sector_count"}
	}

	var zero [SectorSize]byte
	for sector := startSector; sector < startSector+count; sector++ {
		page, err := d.backend.PageLookup(sector, false)
		if err != nil {
			return IoError{Reason: err.Error()}
		}
		if page == nil {
			continue
		}
		if err := page.WriteSector(ptree.Chunk(sector), zero[:]); err != nil {
			return IoError{Reason: err.Error()}
		}
	}
	return nil
}
