package topupsvc

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"qrtopup/model"
)

type svcMock struct {
	checkFn func(ctx context.Context, userID, txID int64) (*StatusResult, error)
}

func (m *svcMock) Generate(ctx context.Context, userID int64, amount float64, currency model.Currency) (*TopupCreated, error) {
	panic("not used")
}
func (m *svcMock) Payload(ctx context.Context, userID, txID int64) (string, error) {
	panic("not used")
}
func (m *svcMock) CheckStatus(ctx context.Context, userID, txID int64) (*StatusResult, error) {
	return m.checkFn(ctx, userID, txID)
}

func TestPoller_StopsOnTerminalState(t *testing.T) {
	var checks atomic.Int32
	svc := &svcMock{checkFn: func(ctx context.Context, userID, txID int64) (*StatusResult, error) {
		if checks.Add(1) < 3 {
			return &StatusResult{Status: model.TopupPending}, nil
		}
		bal := 10.0
		return &StatusResult{Status: model.TopupCompleted, NewBalance: &bal}, nil
	}}

	p := NewPoller(svc, testLogger())
	p.Interval = time.Millisecond

	var updates int
	res, err := p.Run(context.Background(), 7, 1, func(*StatusResult) { updates++ })
	require.NoError(t, err)
	require.Equal(t, model.TopupCompleted, res.Status)
	require.Equal(t, int32(3), checks.Load())
	require.Equal(t, 3, updates, "every check reports, including the terminal one")
}

func TestPoller_ChecksImmediately(t *testing.T) {
	svc := &svcMock{checkFn: func(ctx context.Context, userID, txID int64) (*StatusResult, error) {
		return &StatusResult{Status: model.TopupExpired}, nil
	}}
	p := NewPoller(svc, testLogger())
	p.Interval = time.Hour // would never tick; only the immediate check can answer

	done := make(chan struct{})
	go func() {
		defer close(done)
		res, err := p.Run(context.Background(), 7, 1, nil)
		require.NoError(t, err)
		require.Equal(t, model.TopupExpired, res.Status)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not check immediately")
	}
}

func TestPoller_CancellationStopsPolling(t *testing.T) {
	var checks atomic.Int32
	svc := &svcMock{checkFn: func(ctx context.Context, userID, txID int64) (*StatusResult, error) {
		checks.Add(1)
		return &StatusResult{Status: model.TopupPending}, nil
	}}
	p := NewPoller(svc, testLogger())
	p.Interval = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := p.Run(ctx, 7, 1, nil)
	require.ErrorIs(t, err, context.Canceled)

	// no further checks after cancellation
	settled := checks.Load()
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, settled, checks.Load())
}
