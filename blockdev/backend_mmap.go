package blockdev

import (
	"fmt"
	"os"
	"sync"

	"github.com/edsrzf/mmap-go"

	"github.com/spacelab/hammingdev/ptree"
)

// mmapBackend is the forward_to_block_device backend: page bytes live in
// an mmap'd file rather than on the Go heap, so that a host running this
// device against a real backing block device sees its writes reflected
// there instead of in process memory. Unlike in_memory_tree there is no
// sparse allocation to do — the file is truncated to its full capacity up
// front, so every page "exists" from the start; what PageLookup actually
// does is lazily wrap the mmap'd window for a page in a *ptree.Page the
// first time something asks for it, so RecomputeCode/Verify/LastCheck
// have somewhere to live.
type mmapBackend struct {
	file *os.File
	mm   mmap.MMap

	mu    sync.Mutex
	pages map[uint32]*ptree.Page
}

func newMmapBackend(path string, sectorCount uint32) (*mmapBackend, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("blockdev: open backing file: %w", err)
	}

	size := int64(sectorCount) * ptree.SectorSize
	if info, statErr := f.Stat(); statErr == nil && info.Size() < size {
		if err := f.Truncate(size); err != nil {
			f.Close()
			return nil, fmt.Errorf("blockdev: size backing file: %w", err)
		}
	}

	mm, err := mmap.Map(f, mmap.RDWR, 0)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("blockdev: mmap backing file: %w", err)
	}

	return &mmapBackend{
		file:  f,
		mm:    mm,
		pages: make(map[uint32]*ptree.Page),
	}, nil
}

// PageLookup always succeeds (absent create=false semantics don't apply:
// the backing file has every page from the start) unless the page's bytes
// (PageSize of them from pageID*SectorSize) fall outside the mapped
// region, which PageLookup's caller already
// guards against via Config.SectorCount.
func (b *mmapBackend) PageLookup(sectorIndex uint32, create bool) (*ptree.Page, error) {
	pageID := ptree.PageID(sectorIndex)

	b.mu.Lock()
	defer b.mu.Unlock()

	if page, ok := b.pages[pageID]; ok {
		return page, nil
	}

	off := int64(pageID) * ptree.SectorSize
	if off+ptree.PageSize > int64(len(b.mm)) {
		return nil, fmt.Errorf("blockdev: page %#08x outside backing file", pageID)
	}
	page := &ptree.Page{Data: b.mm[off : off+ptree.PageSize]}
	if err := page.RecomputeCode(); err != nil {
		return nil, err
	}
	b.pages[pageID] = page
	return page, nil
}

func (b *mmapBackend) Close() error {
	if err := b.mm.Flush(); err != nil {
		b.file.Close()
		return err
	}
	if err := b.mm.Unmap(); err != nil {
		b.file.Close()
		return err
	}
	return b.file.Close()
}
