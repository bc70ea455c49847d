package ptree

import (
	"encoding/binary"
	"sync"

	"github.com/spacelab/hammingdev/ecc"
)

// PageSize is the size in bytes of one page: 8 sectors of 512 bytes.
const PageSize = 4096

// SectorSize is the size in bytes of one block-layer sector.
const SectorSize = 512

// SectorsPerPage is the number of sectors covered by one Page.
const SectorsPerPage = PageSize / SectorSize

// TreeDepth is the fixed depth of the trie: every Page sits 32 bits deep.
const TreeDepth = 32

var endianess = binary.LittleEndian

// Page is the unit of ECC protection and allocation. It is exclusively
// owned by the trie leaf that holds it; the block dispatcher only ever
// borrows slices of Data.
type Page struct {
	// mu is a plain Mutex, not a RWMutex: every operation that touches a
	// page (WriteSector, RecomputeCode, Verify, including the read path's
	// opportunistic correction) can mutate Data or Code, so there is no
	// read-only path that would benefit from a reader/writer split.
	mu sync.Mutex

	// Data is always exactly PageSize bytes. It is a slice, not an array,
	// so that a backend can hand a Page a window into memory it does not
	// itself own - an mmap'd region, in particular - instead of forcing a
	// heap copy (see backend_mmap.go in the blockdev package).
	Data []byte
	Code ecc.CodeSet
	// LastCheck is a host-supplied monotonic timestamp (nanoseconds) of
	// the last opportunistic verification run against this page.
	LastCheck int64
}

// NewPage allocates a Page with its own freshly zeroed, heap-owned Data.
func NewPage() *Page {
	return &Page{Data: make([]byte, PageSize)}
}

// node is an internal trie node: two child slots, one per bit value.
// Each node's own small mutex, rather than one mutex for the whole tree,
// is what lets concurrent writers descending into disjoint subtrees make
// progress without serializing on each other (see DESIGN.md).
type node struct {
	mu    sync.Mutex
	child [2]link
}

// link is the tagged union occupying one trie slot: either absent, an
// inner node one level deeper, or (at depth 32) a Page. It doubles as a
// subtree cursor: because Cursor holds a pointer to the link itself
// rather than to whatever it contains, reseating or (in a future
// extension) detaching the target is a single local write.
type link struct {
	n *node
	p *Page
}

func (l link) empty() bool {
	return l.n == nil && l.p == nil
}

// Tree is the sparse page trie: a radix-2 trie of fixed depth 32,
// addressing up to 2^32 pages, each allocated lazily on first write.
type Tree struct {
	root link
}

// NewTree returns an empty tree. The root node always exists so that
// Resolve never needs to special-case depth 0.
func NewTree() *Tree {
	return &Tree{root: link{n: &node{}}}
}

// Cursor carries partial trie-walk state between Resolve calls: the slot
// holding the entity reached so far, the path taken (left-aligned in ID),
// and how many bits of that path have been consumed.
type Cursor struct {
	slot  *link
	ID    uint32
	Depth uint8
}

// Root returns a cursor positioned at the tree's root, ready to Resolve
// toward any page-id.
func (t *Tree) Root() Cursor {
	return Cursor{slot: &t.root, ID: 0, Depth: 0}
}

// rowsFromBytes views b (len must be a multiple of 16) as a slice of
// 128-bit ecc.Rows, decoding each row's two 64-bit halves little-endian.
func rowsFromBytes(b []byte) []ecc.Row {
	rows := make([]ecc.Row, len(b)/16)
	for i := range rows {
		off := i * 16
		rows[i] = ecc.Row{
			Lo: endianess.Uint64(b[off : off+8]),
			Hi: endianess.Uint64(b[off+8 : off+16]),
		}
	}
	return rows
}

// putRows writes rows back into b in the same layout rowsFromBytes reads.
func putRows(b []byte, rows []ecc.Row) {
	for i, r := range rows {
		off := i * 16
		endianess.PutUint64(b[off:off+8], r.Lo)
		endianess.PutUint64(b[off+8:off+16], r.Hi)
	}
}

// RecomputeCode regenerates p's CodeSet from its current Data, including
// the RAID-1 triplication of the second-level code. It is called after
// every write that touches p.
func (p *Page) RecomputeCode() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.recomputeCodeLocked()
}

func (p *Page) recomputeCodeLocked() error {
	rows := rowsFromBytes(p.Data)
	if err := ecc.ComputeCode(p.Code.FirstSet[:], rows); err != nil {
		return err
	}
	if err := ecc.ComputeCode(p.Code.SecondSet[0][:], p.Code.FirstSet[:]); err != nil {
		return err
	}
	p.Code.SecondSet[1] = p.Code.SecondSet[0]
	p.Code.SecondSet[2] = p.Code.SecondSet[0]
	return nil
}

// Verify runs the layered verification protocol (ecc.Verify) against p if
// now-p.LastCheck exceeds maxAgeNs, updating LastCheck on completion. It
// is a no-op, returning a zero VerifyResult, if the page was checked
// recently enough.
func (p *Page) Verify(now int64, maxAgeNs int64) (ecc.VerifyResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if now-p.LastCheck <= maxAgeNs {
		return ecc.VerifyResult{}, nil
	}

	rows := rowsFromBytes(p.Data)
	result, err := ecc.Verify(&p.Code, rows)
	if err != nil {
		return result, err
	}
	if result.DataCorrections > 0 {
		putRows(p.Data, rows)
	}
	p.LastCheck = now
	return result, nil
}

// SectorSlice returns the 512-byte window of p.Data for sector offset
// chunk (0..SectorsPerPage). The dispatcher only ever borrows this
// slice, never takes ownership of it: it aliases p.Data directly rather
// than copying, so that repeated lookups of the same sector observe the
// same backing address.
func (p *Page) SectorSlice(chunk uint8) []byte {
	off := int(chunk) * SectorSize
	return p.Data[off : off+SectorSize]
}

// WriteSector copies src into sector chunk of p and recomputes p's code.
func (p *Page) WriteSector(chunk uint8, src []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	copy(p.Data[int(chunk)*SectorSize:int(chunk)*SectorSize+SectorSize], src)
	return p.recomputeCodeLocked()
}
