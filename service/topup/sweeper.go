package topupsvc

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper retires PENDING rows whose deadline passed while no client
// was polling them. Expiry is enforced by wall clock on the server, not
// by any client signal.
type Sweeper interface {
	Sweep(ctx context.Context) (int64, error)
	Run(ctx context.Context, every time.Duration)
}

type sweeperLedger interface {
	MarkExpiredBefore(ctx context.Context, now time.Time) (int64, error)
}

type sweeper struct {
	ledger sweeperLedger
	log    *slog.Logger
	now    func() time.Time
}

func NewSweeper(l sweeperLedger, log *slog.Logger) Sweeper {
	return &sweeper{ledger: l, log: log, now: time.Now}
}

func (s *sweeper) Sweep(ctx context.Context) (int64, error) {
	return s.ledger.MarkExpiredBefore(ctx, s.now().UTC())
}

func (s *sweeper) Run(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.Sweep(ctx)
			if err != nil {
				s.log.Error("expiry sweep failed", "err", err)
				continue
			}
			if n > 0 {
				s.log.Info("expired stale topups", "count", n)
			}
		}
	}
}
