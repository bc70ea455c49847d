package blockdev

// FrontendMode selects which host-entry path is active. The two are
// mutually exclusive at any instant (Device.SetFrontendMode enforces this
// by holding the same lock FrontendMode and Capacity read under).
type FrontendMode int

const (
	BlockDeviceFrontend FrontendMode = iota
	FrontswapFrontend
)

func (m FrontendMode) String() string {
	switch m {
	case BlockDeviceFrontend:
		return "block_device"
	case FrontswapFrontend:
		return "frontswap"
	default:
		return "unknown"
	}
}

// BackendMode selects where page bytes physically live.
type BackendMode int

const (
	InMemoryTree BackendMode = iota
	ForwardToBlockDevice
)

func (m BackendMode) String() string {
	switch m {
	case InMemoryTree:
		return "in_memory_tree"
	case ForwardToBlockDevice:
		return "forward_to_block_device"
	default:
		return "unknown"
	}
}

// DefaultSectorCount is 2Mi sectors of 512 bytes: 1 GiB of addressable
// capacity.
const DefaultSectorCount = 2 * 1024 * 1024

// DefaultVerifyIntervalNs is the minimum wall-clock age, in nanoseconds,
// before a page is opportunistically re-verified on read.
const DefaultVerifyIntervalNs = 10_000

// Config parameterizes a Device. Zero-value fields are not valid; build a
// Config from DefaultConfig and override what you need.
type Config struct {
	SectorCount      uint32
	VerifyIntervalNs int64
	FrontendMode     FrontendMode
	BackendMode      BackendMode

	// BackingFilePath names the file mmap'd for BackendMode ==
	// ForwardToBlockDevice. Ignored for InMemoryTree.
	BackingFilePath string
}

// DefaultConfig returns a Config with the documented default values:
// 1 GiB of capacity, a 10 microsecond verification staleness threshold,
// the block_device frontend, and the in_memory_tree backend.
func DefaultConfig() Config {
	return Config{
		SectorCount:      DefaultSectorCount,
		VerifyIntervalNs: DefaultVerifyIntervalNs,
		FrontendMode:     BlockDeviceFrontend,
		BackendMode:      InMemoryTree,
	}
}

func (c Config) validate() error {
	if c.SectorCount == 0 {
		return ConfigError{Reason: "sector_count must be positive"}
	}
	if c.VerifyIntervalNs < 0 {
		return ConfigError{Reason: "verify_interval_ns must not be negative"}
	}
	if c.BackendMode == ForwardToBlockDevice && c.BackingFilePath == "" {
		return ConfigError{Reason: "forward_to_block_device backend requires BackingFilePath"}
	}
	return nil
}
