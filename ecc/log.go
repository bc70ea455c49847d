// Package ecc implements the vertical three-level Hamming code used to
// protect a 4 KiB page against single-bit upsets.
package ecc

import (
	"log"
	"os"
)

// PrintDebugInfo, when set before any ecc call, routes the package logger
// to stderr instead of discarding its output.
var PrintDebugInfo = false

var logger *log.Logger

func init() {
	logger = log.New(debugWriter{}, "ecc: ", log.Lshortfile)
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
