package perfctl

import (
	"context"
	"fmt"

	"github.com/okian/perfboard/internal/domain/model"
	"github.com/okian/perfboard/internal/domain/ranking"
	"github.com/okian/perfboard/pkg/logger"
)

// verifyReport checks the ranked ordering of records and logs a score
// summary when verbose. Filtered records keep the ranks of the full list, so
// they are checked as a subset.
func verifyReport(ctx context.Context, records []model.NormalizedRecord, filtered, verbose bool) error {
	log := logger.Named("perfctl")

	check := ranking.Verify
	if filtered {
		check = ranking.VerifySubset
	}
	if err := check(records); err != nil {
		log.Error(ctx, "rank verification failed", logger.Error(err))
		return fmt.Errorf("%w: %w", ErrVerification, err)
	}

	s := ranking.Summarize(records)
	if verbose {
		log.Info(ctx, "score statistics",
			logger.Int("records", s.Count),
			logger.Int("levels", s.Levels),
			logger.Float64("average", s.Average),
			logger.Float64("maximum", s.Max),
			logger.Float64("minimum", s.Min))
	}
	log.Debug(ctx, "rank verification passed", logger.Int("records", s.Count))
	return nil
}
