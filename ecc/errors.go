package ecc

import "fmt"

// ConfigError reports that ComputeCode or Correct was asked to run with
// code/data sizes that cannot represent a valid Hamming code: either more
// than 16 code rows, or too few code rows to index every data row.
type ConfigError struct {
	CodeLen int
	DataLen int
}

func (e ConfigError) Error() string {
	return fmt.Sprintf("ecc: invalid code/data lengths: code=%d data=%d (need code<=16 and 1<<code>=data)", e.CodeLen, e.DataLen)
}

// UnrecoverableCorruptionError reports that the triplicated top level of a
// CodeSet disagreed in all three copies, or that a syndrome pointed outside
// the data it was meant to describe. Neither case can be corrected.
type UnrecoverableCorruptionError struct {
	Reason string
}

func (e UnrecoverableCorruptionError) Error() string {
	return fmt.Sprintf("ecc: unrecoverable corruption: %s", e.Reason)
}
