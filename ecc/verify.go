package ecc

// VerifyResult reports the outcome of running the layered verification
// protocol over a CodeSet and its page.
type VerifyResult struct {
	// SecondSetRepaired is true if exactly one of the three SecondSet
	// copies disagreed with the other two and was overwritten from the
	// majority.
	SecondSetRepaired bool
	// FirstSetCorrections is the number of bits flipped in FirstSet.
	FirstSetCorrections int
	// DataCorrections is the number of bits flipped in the page data.
	DataCorrections int
}

// Corrected reports whether Verify found and fixed anything.
func (r VerifyResult) Corrected() bool {
	return r.SecondSetRepaired || r.FirstSetCorrections > 0 || r.DataCorrections > 0
}

// Verify runs the three-level trust-down protocol: majority-vote the
// triplicated SecondSet, correct FirstSet against the agreed SecondSet[0],
// then correct data against the corrected FirstSet. Each level is trusted
// over the one below it; a mismatch is assumed to be corruption in the
// lower level, never the higher one. It returns UnrecoverableCorruptionError
// if all three SecondSet copies disagree with each other.
func Verify(cs *CodeSet, data []Row) (VerifyResult, error) {
	var result VerifyResult

	agreed, repaired, err := majorityVoteSecondSet(&cs.SecondSet)
	if err != nil {
		return result, err
	}
	result.SecondSetRepaired = repaired

	n, err := Correct(agreed[:], cs.FirstSet[:])
	if err != nil {
		return result, err
	}
	result.FirstSetCorrections = n

	n, err = Correct(cs.FirstSet[:], data)
	if err != nil {
		return result, err
	}
	result.DataCorrections = n

	return result, nil
}

// majorityVoteSecondSet compares the three copies pairwise. If all three
// agree, or exactly two agree, the agreed-upon value is returned
// (repaired is true only in the two-of-three case, since the third copy
// is then overwritten in place). If all three differ pairwise, the
// CodeSet is unrecoverable.
func majorityVoteSecondSet(copies *[3][SecondSetRows]Row) (agreed [SecondSetRows]Row, repaired bool, err error) {
	eq01 := secondSetEqual(&copies[0], &copies[1])
	eq02 := secondSetEqual(&copies[0], &copies[2])
	eq12 := secondSetEqual(&copies[1], &copies[2])

	switch {
	case eq01 && eq02 && eq12:
		return copies[0], false, nil
	case eq01 && !eq02 && !eq12:
		// 0 and 1 agree, 2 is the outlier.
		copies[2] = copies[0]
		return copies[0], true, nil
	case eq02 && !eq01 && !eq12:
		// 0 and 2 agree, 1 is the outlier.
		copies[1] = copies[0]
		return copies[0], true, nil
	case eq12 && !eq01 && !eq02:
		// 1 and 2 agree, 0 is the outlier.
		copies[0] = copies[1]
		return copies[1], true, nil
	default:
		logger.Printf("triplicated second-level code disagrees in all three copies")
		return agreed, false, UnrecoverableCorruptionError{Reason: "second-level RAID-1 triplication disagrees in all three copies"}
	}
}

func secondSetEqual(a, b *[SecondSetRows]Row) bool {
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
