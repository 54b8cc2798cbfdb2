package match

import "sort"

// block is a run of equal runes: a[A:A+Size] == b[B:B+Size]
type block struct {
	A, B, Size int
}

// sequenceMatcher finds matching blocks between two rune sequences by
// repeatedly taking the longest common substring and recursing on both
// sides of it.
type sequenceMatcher struct {
	a, b []rune
	b2j  map[rune][]int
}

func newSequenceMatcher(a, b []rune) *sequenceMatcher {
	b2j := make(map[rune][]int, len(b))
	for j, r := range b {
		b2j[r] = append(b2j[r], j)
	}
	return &sequenceMatcher{a: a, b: b, b2j: b2j}
}

// longestMatch returns the longest block inside a[alo:ahi] and b[blo:bhi].
// Ties go to the block starting earliest in a, then earliest in b.
func (m *sequenceMatcher) longestMatch(alo, ahi, blo, bhi int) block {
	best := block{A: alo, B: blo}
	j2len := map[int]int{}
	for i := alo; i < ahi; i++ {
		next := map[int]int{}
		for _, j := range m.b2j[m.a[i]] {
			if j < blo {
				continue
			}
			if j >= bhi {
				break
			}
			k := j2len[j-1] + 1
			next[j] = k
			if k > best.Size {
				best = block{A: i - k + 1, B: j - k + 1, Size: k}
			}
		}
		j2len = next
	}
	return best
}

// matchingBlocks returns non-adjacent blocks in increasing order, ending
// with the sentinel {len(a), len(b), 0}.
func (m *sequenceMatcher) matchingBlocks() []block {
	la, lb := len(m.a), len(m.b)

	type span struct{ alo, ahi, blo, bhi int }
	queue := []span{{0, la, 0, lb}}
	var found []block
	for len(queue) > 0 {
		s := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		x := m.longestMatch(s.alo, s.ahi, s.blo, s.bhi)
		if x.Size == 0 {
			continue
		}
		found = append(found, x)
		if s.alo < x.A && s.blo < x.B {
			queue = append(queue, span{s.alo, x.A, s.blo, x.B})
		}
		if x.A+x.Size < s.ahi && x.B+x.Size < s.bhi {
			queue = append(queue, span{x.A + x.Size, s.ahi, x.B + x.Size, s.bhi})
		}
	}

	sort.Slice(found, func(i, j int) bool {
		if found[i].A != found[j].A {
			return found[i].A < found[j].A
		}
		if found[i].B != found[j].B {
			return found[i].B < found[j].B
		}
		return found[i].Size < found[j].Size
	})

	var out []block
	cur := block{}
	for _, x := range found {
		if cur.A+cur.Size == x.A && cur.B+cur.Size == x.B {
			cur.Size += x.Size
			continue
		}
		if cur.Size > 0 {
			out = append(out, cur)
		}
		cur = x
	}
	if cur.Size > 0 {
		out = append(out, cur)
	}
	return append(out, block{A: la, B: lb})
}

// ratio is 2*M/T where M counts matched runes and T is the total length.
// Two empty sequences are identical.
func (m *sequenceMatcher) ratio() float64 {
	total := len(m.a) + len(m.b)
	if total == 0 {
		return 1
	}
	matches := 0
	for _, x := range m.matchingBlocks() {
		matches += x.Size
	}
	return 2 * float64(matches) / float64(total)
}
