package topupsvc

import (
	"context"
	"log/slog"
	"time"
)

// DefaultPollInterval is the tick between status checks.
const DefaultPollInterval = 3 * time.Second

// Poller drives CheckStatus until the transaction reaches a terminal
// state or ctx is cancelled. The loop is sequential, so there is never
// more than one check in flight; a tick that fires while a check is
// still running is simply absorbed.
type Poller struct {
	Svc      Service
	Interval time.Duration
	Log      *slog.Logger
}

func NewPoller(svc Service, log *slog.Logger) *Poller {
	return &Poller{Svc: svc, Interval: DefaultPollInterval, Log: log}
}

// Run checks immediately, then on every interval. onUpdate, when set,
// sees every successful check including the terminal one. Cancellation
// stops the timer only; a credit already underway inside CheckStatus
// finishes server-side regardless.
func (p *Poller) Run(ctx context.Context, userID, txID int64, onUpdate func(*StatusResult)) (*StatusResult, error) {
	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	for {
		res, err := p.Svc.CheckStatus(ctx, userID, txID)
		if err != nil {
			return nil, err
		}
		if onUpdate != nil {
			onUpdate(res)
		}
		if res.Status.Terminal() {
			return res, nil
		}

		select {
		case <-ctx.Done():
			p.Log.Info("polling cancelled", "tx_id", txID)
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
