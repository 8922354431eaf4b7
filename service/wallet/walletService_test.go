package walletsvc_test

import (
	"context"
	"errors"
	"testing"

	"qrtopup/model"
	walletsvc "qrtopup/service/wallet"
)

type repoMock struct {
	getUserFn func(ctx context.Context, userID int64) (*model.User, error)
	ledgerFn  func(ctx context.Context, userID int64) ([]model.WalletLedger, error)
}

func (m *repoMock) GetUser(ctx context.Context, userID int64) (*model.User, error) {
	return m.getUserFn(ctx, userID)
}
func (m *repoMock) ListLedger(ctx context.Context, userID int64) ([]model.WalletLedger, error) {
	return m.ledgerFn(ctx, userID)
}

func TestPassThroughs(t *testing.T) {
	m := &repoMock{
		getUserFn: func(ctx context.Context, userID int64) (*model.User, error) {
			if userID != 7 {
				return nil, errors.New("bad user")
			}
			return &model.User{ID: 7, Username: "viewer", Balance: 12.5}, nil
		},
		ledgerFn: func(ctx context.Context, userID int64) ([]model.WalletLedger, error) {
			return []model.WalletLedger{{UserID: userID, Amount: 12.5}}, nil
		},
	}
	s := walletsvc.New(m)

	u, err := s.Me(context.Background(), 7)
	if err != nil || u.Balance != 12.5 || u.Username != "viewer" {
		t.Fatalf("Me got %+v %v; want balance 12.5 nil", u, err)
	}
	rows, err := s.Ledger(context.Background(), 7)
	if err != nil || len(rows) != 1 {
		t.Fatalf("Ledger got %v %v; want 1 row nil", rows, err)
	}
}
