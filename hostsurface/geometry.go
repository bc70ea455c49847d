// Package hostsurface describes the block-device surface a host sees:
// block sizes, I/O granularity, and feature flags. It has no dependency
// on blockdev so that a future frontend (frontswap, a network export)
// can present the same Geometry without importing the dispatcher.
package hostsurface

// Geometry is the host-layer contract for one device. None of these
// values vary at runtime; they describe fixed properties of the layered
// Hamming page format itself.
type Geometry struct {
	LogicalBlockSize   int
	PhysicalBlockSize  int
	MinIOSize          int
	OptIOSize          int
	DiscardGranularity int

	Rotational          bool
	NoEntropy           bool
	SupportsDiscard     bool
	SupportsWriteZeroes bool
}

// DefaultGeometry returns the fixed geometry every Device reports: 4096
// byte logical and physical blocks (one page), non-rotational, discard
// and write-zeroes supported at page granularity.
func DefaultGeometry() Geometry {
	return Geometry{
		LogicalBlockSize:   4096,
		PhysicalBlockSize:  4096,
		MinIOSize:          4096,
		OptIOSize:          4096,
		DiscardGranularity: 4096,

		Rotational:          false,
		NoEntropy:           true,
		SupportsDiscard:     true,
		SupportsWriteZeroes: true,
	}
}
