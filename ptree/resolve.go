package ptree

// Resolve walks cur from its current depth toward targetDepth, consuming
// bits of targetID from position 31-cur.Depth downward, descending into
// whichever child each bit selects. On return cur.Depth == targetDepth
// (unless an absent intermediate node stopped a non-creating walk early)
// and cur.slot names the child-slot holding the target, letting callers
// read, overwrite, or detach it through a single indirection.
//
// If create is false and the walk meets an absent child, the walk stops
// there: cur ends up pointing at that absent slot, signalling "not found"
// regardless of how much of targetDepth remains unconsumed. If create is
// true, an absent child is allocated in place — an inner node, unless the
// child about to be created sits at depth 32, in which case it is a Page.
func Resolve(cur *Cursor, targetID uint32, targetDepth uint8, create bool) error {
	if targetDepth > TreeDepth {
		return DepthError{Depth: targetDepth}
	}

	for cur.Depth < targetDepth {
		parent := cur.slot.n
		bit := (targetID >> (TreeDepth - 1 - cur.Depth)) & 1

		parent.mu.Lock()
		next := &parent.child[bit]
		if next.empty() {
			if !create {
				parent.mu.Unlock()
				cur.slot = next
				cur.Depth++
				cur.ID = targetID & (^uint32(0) << (TreeDepth - cur.Depth))
				return nil
			}
			if cur.Depth+1 == TreeDepth {
				next.p = NewPage()
			} else {
				next.n = &node{}
			}
		}
		parent.mu.Unlock()

		cur.slot = next
		cur.Depth++
		cur.ID = targetID & (^uint32(0) << (TreeDepth - cur.Depth))
	}
	return nil
}

// BatchTarget is one of up to 8 (id, depth, create) triples resolved
// together by ResolveBatch.
type BatchTarget struct {
	ID     uint32
	Depth  uint8
	Create bool
}

// maxBatchTargets is the widest batch ResolveBatch will process at once.
const maxBatchTargets = 8

// ResolveBatch resolves up to 8 targets against a shared starting cursor,
// sharing the common-prefix walk: it descends one level at a time and, at
// each step, peels off (into an independent Resolve) any target that has
// either reached its own targetDepth, diverged in its id bit at this
// depth, or does not create and has no creating target ahead of it (by
// index) left in the group — on its own, Resolve would only find nodes
// that an earlier creating call allocated. What's left shares a single
// next child bit, and the shared walk advances one level per step.
// Semantics are identical to calling Resolve once per target, in order.
func ResolveBatch(start Cursor, targets []BatchTarget) ([]Cursor, []error) {
	n := len(targets)
	if n > maxBatchTargets {
		n = maxBatchTargets
	}
	results := make([]Cursor, n)
	errs := make([]error, n)
	resolved := make([]bool, n)

	resolveOne := func(i int, from Cursor) {
		c := from
		errs[i] = Resolve(&c, targets[i].ID, targets[i].Depth, targets[i].Create)
		results[i] = c
		resolved[i] = true
	}

	cur := start
	for {
		pending := pendingIndices(resolved)
		if len(pending) == 0 {
			break
		}

		bit := (targets[pending[0]].ID >> (TreeDepth - 1 - cur.Depth)) & 1
		create := false
		shared := pending[:0]
		for _, i := range pending {
			t := targets[i]
			tBit := (t.ID >> (TreeDepth - 1 - cur.Depth)) & 1
			if t.Depth <= cur.Depth || tBit != bit || (!t.Create && !create) {
				resolveOne(i, cur)
				continue
			}
			create = create || t.Create
			shared = append(shared, i)
		}
		if len(shared) == 0 {
			continue
		}

		if err := Resolve(&cur, targets[shared[0]].ID, cur.Depth+1, create); err != nil {
			for _, i := range shared {
				errs[i] = err
				results[i] = cur
				resolved[i] = true
			}
			break
		}
	}
	return results, errs
}

// pendingIndices returns the indices of resolved entries still false.
func pendingIndices(resolved []bool) []int {
	out := make([]int, 0, len(resolved))
	for i, r := range resolved {
		if !r {
			out = append(out, i)
		}
	}
	return out
}
