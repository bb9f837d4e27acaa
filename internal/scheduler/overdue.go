package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/crucial707/booklend/internal/metrics"
	"github.com/crucial707/booklend/internal/repo"
	"github.com/robfig/cron/v3"
)

// Run starts a background cron job that sweeps the loan table on the given
// schedule: it refreshes the open/overdue loan gauges and logs every loan
// that has been open longer than overdueAfter. Returns the started cron so
// the caller can Stop it on shutdown.
func Run(borrows *repo.BorrowRepo, cronExpr string, overdueAfter time.Duration) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(cronExpr, func() {
		Sweep(context.Background(), borrows, overdueAfter)
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	slog.Info("overdue sweep scheduled", "cron", cronExpr, "overdue_after", overdueAfter.String())
	return c, nil
}

// Sweep runs one pass: gauge refresh plus a warning log per overdue loan.
func Sweep(ctx context.Context, borrows *repo.BorrowRepo, overdueAfter time.Duration) {
	open, err := borrows.CountAllOpen(ctx)
	if err != nil {
		slog.Error("overdue sweep: count open loans", "error", err)
		return
	}
	metrics.OpenLoans.Set(float64(open))

	cutoff := time.Now().Add(-overdueAfter)
	overdue, err := borrows.ListOverdue(ctx, cutoff)
	if err != nil {
		slog.Error("overdue sweep: list overdue loans", "error", err)
		return
	}
	metrics.OverdueLoans.Set(float64(len(overdue)))

	for _, loan := range overdue {
		slog.Warn("overdue loan",
			"loan_id", loan.ID,
			"user_id", loan.UserID,
			"book_id", loan.BookID,
			"title", loan.Title,
			"borrowed_at", loan.BorrowDate)
	}
}
