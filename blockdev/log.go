package blockdev

import (
	"log"
	"os"
)

// PrintDebugInfo routes the package logger to stderr instead of
// discarding its output, in the same style as the other packages in this
// module. The dispatcher does not write anything to this logger, so
// setting it produces no blockdev output of its own.
var PrintDebugInfo = false

var logger *log.Logger

func init() {
	logger = log.New(debugWriter{}, "blockdev: ", log.Lshortfile)
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
