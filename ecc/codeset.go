package ecc

// FirstSetRows is the number of vertical Hamming rows in the first-level
// code. Eight rows already index all 256 data rows (1<<8 == 256); the
// ninth row covers index bit 8, which no data row index sets, so for a
// 256-row page it is always zero.
const FirstSetRows = 9

// SecondSetRows is the number of vertical Hamming rows needed to index the
// 9 first-set rows: ceil(log2(9)) = 4.
const SecondSetRows = 4

// DataRows is the number of 128-bit rows in one protected page.
const DataRows = 256

// CodeSet is the full three-level Hamming protection attached to one page.
// SecondSet holds three identical RAID-1 copies of the second-level code;
// at rest all three agree.
type CodeSet struct {
	FirstSet  [FirstSetRows]Row
	SecondSet [3][SecondSetRows]Row
}

// Correction is one detected single-bit error: the syndrome (row index of
// the flipped row) and the bit column it was found in.
type Correction struct {
	RowIndex  int
	BitColumn int
}

// ComputeCode computes the vertical Hamming code of in into out. len(out)
// must be at most 16, and 1<<len(out) must be at least len(in); violating
// either returns ConfigError and leaves out untouched.
func ComputeCode(out []Row, in []Row) error {
	k := len(out)
	n := len(in)
	if k > 16 || (1<<uint(k)) < n {
		return ConfigError{CodeLen: k, DataLen: n}
	}
	for i := range out {
		out[i] = Row{}
	}
	for a := 0; a < n; a++ {
		row := in[a]
		for k := 0; k < len(out); k++ {
			if a&(1<<uint(k)) != 0 {
				out[k].Xor(row)
			}
		}
	}
	return nil
}

// DiffCodes compares two code sets of equal length and returns every
// detected single-bit error, in bit-column order, up to maxErrors entries.
// The returned RowIndex is the Hamming syndrome: it names the flipped row
// only when at most one bit in that column was flipped.
func DiffCodes(old, new []Row, maxErrors int) []Correction {
	k := len(old)
	if len(new) < k {
		k = len(new)
	}
	var out []Correction
	for bit := 0; bit < RowBits; bit++ {
		var a, b uint64
		for row := 0; row < k; row++ {
			a |= old[row].Bit(bit) << uint(row)
			b |= new[row].Bit(bit) << uint(row)
		}
		if syndrome := a ^ b; syndrome != 0 {
			out = append(out, Correction{RowIndex: int(syndrome), BitColumn: bit})
			if len(out) == maxErrors {
				break
			}
		}
	}
	return out
}

// ApplyCorrections flips the bits named by errs in data. A correction whose
// RowIndex or BitColumn falls outside data indicates corruption beyond
// single-bit-per-column correction capacity; it is logged and skipped
// rather than treated as a programmer error.
func ApplyCorrections(data []Row, errs []Correction) {
	for _, c := range errs {
		if c.RowIndex >= len(data) || c.BitColumn < 0 || c.BitColumn >= RowBits {
			logger.Printf("correction out of range, skipping: row=%d bit=%d len=%d", c.RowIndex, c.BitColumn, len(data))
			continue
		}
		data[c.RowIndex].FlipBit(c.BitColumn)
	}
}

// maxCorrectIterations bounds Correct's loop. Under the single-error
// assumption each pass strictly reduces disagreement, so this is never hit
// in practice; it exists only so a caller who violates the precondition
// (a corrupted stored code) gets an error instead of an infinite loop.
const maxCorrectIterations = DataRows + 1

// Correct treats stored as ground truth and repeatedly recomputes a fresh
// code from data, diffs it against stored, and applies corrections, until
// the two agree. It returns the total number of bits flipped.
func Correct(stored []Row, data []Row) (int, error) {
	scratch := make([]Row, len(stored))
	total := 0
	for i := 0; i < maxCorrectIterations; i++ {
		if err := ComputeCode(scratch, data); err != nil {
			return total, err
		}
		errs := DiffCodes(stored, scratch, DataRows)
		if len(errs) == 0 {
			return total, nil
		}
		ApplyCorrections(data, errs)
		total += len(errs)
	}
	return total, UnrecoverableCorruptionError{Reason: "correction did not converge"}
}
