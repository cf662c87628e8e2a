package db

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"
)

// StartHistoryPruner deletes logged meals older than retentionDays every
// interval until ctx is cancelled. A non-positive retentionDays disables it.
func StartHistoryPruner(
	ctx context.Context,
	db *sql.DB,
	interval time.Duration,
	retentionDays int,
	log *zap.Logger,
) {
	if retentionDays <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				res, err := db.ExecContext(ctx, `
                    DELETE FROM daily_meals
                     WHERE logged_date < CURRENT_DATE - $1::int
                `, retentionDays)
				if err != nil {
					log.Error("failed to prune meal history", zap.Error(err))
					continue
				}
				if rows, _ := res.RowsAffected(); rows > 0 {
					log.Info("pruned meal history", zap.Int64("removed", rows), zap.Int("retention_days", retentionDays))
				}
			}
		}
	}()
}
