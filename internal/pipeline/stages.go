package pipeline

import (
	"context"
	"strconv"

	"github.com/ppiankov/refmatch/internal/errors"
	"github.com/ppiankov/refmatch/internal/match"
	"github.com/ppiankov/refmatch/internal/model"
	"github.com/ppiankov/refmatch/internal/normalize"
	"github.com/ppiankov/refmatch/internal/table"
	"github.com/ppiankov/refmatch/internal/worker"
)

// Stage is a step of a reconcile run
type Stage int

const (
	StageLoaded Stage = iota
	StageNormalized
	StageMatched
	StagePartitioned
	StageJoined
	StageWritten
)

func (s Stage) String() string {
	switch s {
	case StageLoaded:
		return "loaded"
	case StageNormalized:
		return "normalized"
	case StageMatched:
		return "matched"
	case StagePartitioned:
		return "partitioned"
	case StageJoined:
		return "joined"
	case StageWritten:
		return "written"
	default:
		return "unknown"
	}
}

// Suffixes for overlapping non-key columns after a join
const (
	LeftSuffix  = "_x"
	RightSuffix = "_y"
)

// NormalizeColumn derives column `to` from column `from`. It returns the
// new table and the rows whose key came out empty.
func NormalizeColumn(t *table.Table, path, from, to string, opts normalize.Options) (*table.Table, []int, error) {
	if _, ok := t.Col(from); !ok {
		return nil, nil, errors.NewMissingColumnError(path, t.Name, from)
	}

	values := make([]any, t.Len())
	for i := range values {
		values[i] = t.Value(i, from)
	}
	keys, empty := opts.Column(values)
	return t.WithColumn(to, keys), empty, nil
}

// MatchRows finds the best candidate for every query. Results are indexed
// like queries regardless of how many workers ran.
func MatchRows(ctx context.Context, b *worker.BatchProcessor, m *match.Matcher, queries []string, onRow func()) []model.MatchResult {
	results := worker.Run(ctx, b, len(queries), func(_ context.Context, i int) (match.Result, error) {
		r := m.Best(queries[i])
		if onRow != nil {
			onRow()
		}
		return r, nil
	})

	out := make([]model.MatchResult, len(queries))
	for i, r := range results {
		out[i] = model.MatchResult{
			Row:   i,
			Match: r.Value.Match,
			Found: r.Value.Found,
			Score: r.Value.Score,
		}
	}
	return out
}

// AttachMatches appends the Matched Doctor and Score columns
func AttachMatches(t *table.Table, results []model.MatchResult) *table.Table {
	names := make([]string, len(results))
	scores := make([]string, len(results))
	for i, r := range results {
		names[i] = r.Match
		scores[i] = strconv.Itoa(r.Score)
	}
	return t.WithColumn(model.ColumnMatchedDoctor, names).WithColumn(model.ColumnScore, scores)
}

// Partition splits row indexes by score. A score equal to threshold is
// unmatched.
func Partition(results []model.MatchResult, threshold int) (matched, unmatched []int) {
	for i, r := range results {
		if r.Matched(threshold) {
			matched = append(matched, i)
		} else {
			unmatched = append(unmatched, i)
		}
	}
	return matched, unmatched
}

// Collision is a join key that matched more than one right-hand row
type Collision struct {
	Key  string
	Rows int
}

// Join left-joins right onto left where left[leftKey] == right[rightKey].
// Each left row is repeated once per matching right row, in right-hand
// order; rows without a match get blank right-hand cells. Column names
// present on both sides get LeftSuffix and RightSuffix, except a key column
// shared by name, which appears once.
func Join(name string, left *table.Table, leftKey string, right *table.Table, rightKey string) (*table.Table, []Collision) {
	index := make(map[string][]int, right.Len())
	keyCol, ok := right.Col(rightKey)
	if ok {
		for i := range right.Rows {
			k := right.Cell(i, keyCol)
			index[k] = append(index[k], i)
		}
	}

	overlap := make(map[string]bool)
	for _, h := range left.Headers {
		if _, ok := right.Col(h); ok && !(h == leftKey && h == rightKey) {
			overlap[h] = true
		}
	}

	headers := make([]string, 0, len(left.Headers)+len(right.Headers))
	for _, h := range left.Headers {
		if overlap[h] {
			h += LeftSuffix
		}
		headers = append(headers, h)
	}
	var rightCols []int
	for j, h := range right.Headers {
		if leftKey == rightKey && h == rightKey {
			continue
		}
		rightCols = append(rightCols, j)
		if overlap[h] {
			h += RightSuffix
		}
		headers = append(headers, h)
	}

	var collisions []Collision
	seen := make(map[string]bool)
	rows := make([][]string, 0, left.Len())
	for i := range left.Rows {
		lrow := left.Row(i)
		key := left.Get(i, leftKey)
		matches := index[key]
		if len(matches) > 1 && !seen[key] {
			seen[key] = true
			collisions = append(collisions, Collision{Key: key, Rows: len(matches)})
		}

		if len(matches) == 0 {
			row := make([]string, len(headers))
			copy(row, lrow)
			rows = append(rows, row)
			continue
		}
		for _, j := range matches {
			row := make([]string, 0, len(headers))
			row = append(row, lrow...)
			for _, c := range rightCols {
				row = append(row, right.Cell(j, c))
			}
			rows = append(rows, row)
		}
	}

	return table.New(name, headers, rows), collisions
}
