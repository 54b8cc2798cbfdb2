// Package match picks the best fuzzy candidate for a name.
//
// Scores are integers in [0,100]. The default scorer is WRatio, a weighted
// best of plain, partial and token-based similarity.
package match

// Scorer compares two processed strings
type Scorer func(p1, p2 string) int

// Result is the outcome of a Best search
type Result struct {
	// Match is the winning candidate as given, before processing
	Match string
	// Index is the candidate's position, -1 when nothing matched
	Index int
	Score int
	Found bool
}

// None is the result for an empty candidate set or no scoring candidate
var None = Result{Index: -1}

// Matcher scores queries against a fixed candidate list. Candidates are
// processed once, so a Matcher is safe for concurrent use by many workers.
type Matcher struct {
	candidates []string
	processed  []string
	scorer     Scorer
}

// NewMatcher prepares candidates for repeated Best calls.
func NewMatcher(candidates []string) *Matcher {
	processed := make([]string, len(candidates))
	for i, c := range candidates {
		processed[i] = Process(c)
	}
	return &Matcher{
		candidates: candidates,
		processed:  processed,
		scorer:     wratio,
	}
}

// WithScorer returns a copy of m using s
func (m *Matcher) WithScorer(s Scorer) *Matcher {
	out := *m
	out.scorer = s
	return &out
}

// Len returns the number of candidates
func (m *Matcher) Len() int {
	return len(m.candidates)
}

// Best returns the highest scoring candidate for query. Only scores above
// zero count, and the first candidate wins a tie.
func (m *Matcher) Best(query string) Result {
	if len(m.candidates) == 0 {
		return None
	}

	q := Process(query)
	best := None
	for i, p := range m.processed {
		score := m.scorer(q, p)
		if score > best.Score {
			best = Result{Match: m.candidates[i], Index: i, Score: score, Found: true}
			if score == 100 {
				break
			}
		}
	}
	return best
}

// Best is a one-shot search over candidates.
func Best(query string, candidates []string) Result {
	return NewMatcher(candidates).Best(query)
}
