package blockdev

import "github.com/spacelab/hammingdev/ptree"

// backend is where a Device's page bytes actually live. in_memory_tree
// (pageStore) and forward_to_block_device (mmapBackend, backend_mmap.go)
// both satisfy it; the dispatcher never knows which one it's talking to.
type backend interface {
	PageLookup(sectorIndex uint32, create bool) (*ptree.Page, error)
	Close() error
}

// pageStore is the in_memory_tree backend: a bare sparse trie, exactly
// the ptree package on its own.
type pageStore struct {
	tree *ptree.Tree
}

func newPageStore() *pageStore {
	return &pageStore{tree: ptree.NewTree()}
}

func (s *pageStore) PageLookup(sectorIndex uint32, create bool) (*ptree.Page, error) {
	return s.tree.PageLookup(sectorIndex, create)
}

func (s *pageStore) Close() error { return nil }
