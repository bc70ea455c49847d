package ptree

// PageID is the trie id used for a given sector: the sector index with its
// low 3 bits cleared, i.e. the address of the 8-sector-aligned page that
// contains it.
func PageID(sectorIndex uint32) uint32 {
	return sectorIndex &^ (SectorsPerPage - 1)
}

// Chunk is the sector's offset within its page, 0..SectorsPerPage.
func Chunk(sectorIndex uint32) uint8 {
	return uint8(sectorIndex & (SectorsPerPage - 1))
}

// PageLookup resolves the page containing sectorIndex, allocating it (and
// any trie nodes on the way) if create is true and it does not yet exist.
// It returns a nil Page, nil error if the page is absent and create is
// false.
func (t *Tree) PageLookup(sectorIndex uint32, create bool) (*Page, error) {
	cur := t.Root()
	if err := Resolve(&cur, PageID(sectorIndex), TreeDepth, create); err != nil {
		return nil, err
	}
	return cur.slot.p, nil
}

// SectorLookup resolves sectorIndex's page and, if present, returns the
// 512-byte slice within it. A nil slice with a nil error means the
// sector has never been written.
func (t *Tree) SectorLookup(sectorIndex uint32, create bool) ([]byte, error) {
	page, err := t.PageLookup(sectorIndex, create)
	if err != nil {
		return nil, err
	}
	if page == nil {
		return nil, nil
	}
	return page.SectorSlice(Chunk(sectorIndex)), nil
}
