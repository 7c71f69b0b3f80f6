// Package fuzzy implements the Ratcliff/Obershelp longest-matching-block
// similarity ratio over strings. The scoring is compatible with Python's
// difflib.SequenceMatcher.ratio(), which the roster matching behaviour is
// defined against: 1.0 means identical, 0.0 means no characters in common.
package fuzzy

// Ratio returns the similarity of a and b in [0, 1].
//
// The value is 2*M/T where T is the total number of characters in both
// strings and M is the number of characters covered by recursively found
// longest matching blocks. Comparison is exact; callers wanting
// case-insensitive scores should fold case first.
func Ratio(a, b string) float64 {
	ra := []rune(a)
	rb := []rune(b)

	total := len(ra) + len(rb)
	if total == 0 {
		return 1.0
	}

	m := newMatcher(ra, rb)
	matched := 0
	for _, blk := range m.matchingBlocks() {
		matched += blk.size
	}
	return 2.0 * float64(matched) / float64(total)
}

type match struct {
	a, b, size int
}

type matcher struct {
	a, b []rune
	b2j  map[rune][]int
}

func newMatcher(a, b []rune) *matcher {
	m := &matcher{a: a, b: b, b2j: make(map[rune][]int, len(b))}
	for j, r := range b {
		m.b2j[r] = append(m.b2j[r], j)
	}
	return m
}

// longestMatch finds the longest matching block within a[alo:ahi] and
// b[blo:bhi]. Of all maximal blocks it returns the one starting earliest in
// a, and of those the one starting earliest in b, mirroring difflib's tie
// break so that ranking stays deterministic.
func (m *matcher) longestMatch(alo, ahi, blo, bhi int) match {
	best := match{a: alo, b: blo, size: 0}
	j2len := make(map[int]int)

	for i := alo; i < ahi; i++ {
		newj2len := make(map[int]int)
		for _, j := range m.b2j[m.a[i]] {
			if j < blo {
				continue
			}
			if j >= bhi {
				break
			}
			k := j2len[j-1] + 1
			newj2len[j] = k
			if k > best.size {
				best = match{a: i - k + 1, b: j - k + 1, size: k}
			}
		}
		j2len = newj2len
	}
	return best
}

// matchingBlocks returns all matching blocks found by recursively splitting
// around the longest match, in order of position in a.
func (m *matcher) matchingBlocks() []match {
	type span struct {
		alo, ahi, blo, bhi int
	}

	queue := []span{{0, len(m.a), 0, len(m.b)}}
	var blocks []match

	for len(queue) > 0 {
		s := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		blk := m.longestMatch(s.alo, s.ahi, s.blo, s.bhi)
		if blk.size == 0 {
			continue
		}
		blocks = append(blocks, blk)
		if s.alo < blk.a && s.blo < blk.b {
			queue = append(queue, span{s.alo, blk.a, s.blo, blk.b})
		}
		if blk.a+blk.size < s.ahi && blk.b+blk.size < s.bhi {
			queue = append(queue, span{blk.a + blk.size, s.ahi, blk.b + blk.size, s.bhi})
		}
	}
	return blocks
}
