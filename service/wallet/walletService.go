package walletsvc

import (
	"context"

	"qrtopup/model"
)

// Repo is the read-side slice of the ledger repository the wallet
// endpoints need. Balances are only ever mutated through the topup
// credit path.
type Repo interface {
	GetUser(ctx context.Context, userID int64) (*model.User, error)
	ListLedger(ctx context.Context, userID int64) ([]model.WalletLedger, error)
}

type Service interface {
	Me(ctx context.Context, userID int64) (*model.User, error)
	Ledger(ctx context.Context, userID int64) ([]model.WalletLedger, error)
}

type service struct{ r Repo }

func New(r Repo) Service { return &service{r: r} }

func (s *service) Me(ctx context.Context, userID int64) (*model.User, error) {
	return s.r.GetUser(ctx, userID)
}

func (s *service) Ledger(ctx context.Context, userID int64) ([]model.WalletLedger, error) {
	return s.r.ListLedger(ctx, userID)
}
