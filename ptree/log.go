// Package ptree implements the sparse, radix-2 page trie: a fixed-depth-32
// binary trie from 32-bit page-id to a lazily-allocated 4 KiB Page.
package ptree

import (
	"log"
	"os"
)

// PrintDebugInfo, when set before any ptree call, routes the package
// logger to stderr instead of discarding its output.
var PrintDebugInfo = false

var logger *log.Logger

func init() {
	logger = log.New(debugWriter{}, "ptree: ", log.Lshortfile)
}

// debugWriter consults PrintDebugInfo on every write, so the switch takes
// effect whenever it is set rather than only at package init.
type debugWriter struct{}

func (debugWriter) Write(p []byte) (int, error) {
	if !PrintDebugInfo {
		return len(p), nil
	}
	return os.Stderr.Write(p)
}
