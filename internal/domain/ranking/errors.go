package ranking

import "errors"

// Verification failures.
var (
	ErrNotSorted = errors.New("records not sorted by score")
	ErrBadRank   = errors.New("inconsistent rank")
	ErrRankGap   = errors.New("rank is not dense")
)
