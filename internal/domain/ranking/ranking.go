// Package ranking assigns dense ranks to normalized records.
package ranking

import (
	"fmt"
	"sort"

	"github.com/okian/perfboard/internal/domain/model"
)

// Dense returns a copy of records sorted by score descending with dense ranks
// (1, 2, 2, 3). Equal scores are ordered by full name, then employee id, so
// repeated runs over the same input give the same order. The input is not
// modified.
func Dense(records []model.NormalizedRecord) []model.NormalizedRecord {
	out := make([]model.NormalizedRecord, len(records))
	copy(out, records)

	sort.SliceStable(out, func(i, j int) bool {
		return less(out[i], out[j])
	})

	var (
		prev    float64
		current model.Rank
	)
	for i := range out {
		if i == 0 || out[i].Score != prev {
			current++
			prev = out[i].Score
		}
		out[i].Rank = current
	}
	return out
}

func less(a, b model.NormalizedRecord) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.FullName != b.FullName {
		return a.FullName < b.FullName
	}
	return a.EmployeeID < b.EmployeeID
}

// Verify checks that records are in ranked order with dense ranks: the first
// rank is 1, equal scores share a rank, and each score drop raises the rank by
// exactly one. It returns the first violation found.
func Verify(records []model.NormalizedRecord) error {
	for i, rec := range records {
		if i == 0 {
			if rec.Rank != 1 {
				return fmt.Errorf("%w: first record %s has rank %d", ErrBadRank, rec.EmployeeID, rec.Rank)
			}
			continue
		}
		prev := records[i-1]
		switch {
		case rec.Score > prev.Score:
			return fmt.Errorf("%w: record %d (%.3f) scores above record %d (%.3f)",
				ErrNotSorted, i, rec.Score, i-1, prev.Score)
		case rec.Score == prev.Score && rec.Rank != prev.Rank:
			return fmt.Errorf("%w: records %d and %d tie at %.3f but rank %d and %d",
				ErrBadRank, i-1, i, rec.Score, prev.Rank, rec.Rank)
		case rec.Score < prev.Score && rec.Rank != prev.Rank+1:
			return fmt.Errorf("%w: record %d has rank %d after rank %d",
				ErrRankGap, i, rec.Rank, prev.Rank)
		}
	}
	return nil
}

// VerifySubset checks records taken from a ranked list in order, such as the
// rows left after a search. Ranks may start above 1 and skip levels, but
// scores must not rise, equal scores must share a rank and a lower score must
// carry a higher rank.
func VerifySubset(records []model.NormalizedRecord) error {
	for i, rec := range records {
		if rec.Rank < 1 {
			return fmt.Errorf("%w: record %s has no rank", ErrBadRank, rec.EmployeeID)
		}
		if i == 0 {
			continue
		}
		prev := records[i-1]
		switch {
		case rec.Score > prev.Score:
			return fmt.Errorf("%w: record %d (%.3f) scores above record %d (%.3f)",
				ErrNotSorted, i, rec.Score, i-1, prev.Score)
		case rec.Score == prev.Score && rec.Rank != prev.Rank:
			return fmt.Errorf("%w: records %d and %d tie at %.3f but rank %d and %d",
				ErrBadRank, i-1, i, rec.Score, prev.Rank, rec.Rank)
		case rec.Score < prev.Score && rec.Rank <= prev.Rank:
			return fmt.Errorf("%w: record %d has rank %d after rank %d",
				ErrBadRank, i, rec.Rank, prev.Rank)
		}
	}
	return nil
}

// Summary describes the score distribution of a ranked list.
type Summary struct {
	Count   int
	Levels  int
	Average float64
	Max     float64
	Min     float64
}

// Summarize computes a Summary of already ranked records.
func Summarize(records []model.NormalizedRecord) Summary {
	if len(records) == 0 {
		return Summary{}
	}
	s := Summary{
		Count:  len(records),
		Levels: int(records[len(records)-1].Rank),
		Max:    records[0].Score,
		Min:    records[0].Score,
	}
	sum := 0.0
	for _, r := range records {
		sum += r.Score
		if r.Score > s.Max {
			s.Max = r.Score
		}
		if r.Score < s.Min {
			s.Min = r.Score
		}
	}
	s.Average = sum / float64(len(records))
	return s
}
