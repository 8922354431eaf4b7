// repository/ledger/repo.go
package ledgerrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"qrtopup/model"
)

var (
	ErrNotFound       = errors.New("topup not found")
	ErrAlreadySettled = errors.New("topup already settled")
	ErrInvalidState   = errors.New("topup not creditable")
)

// BuildFunc produces the QR payload and its md5 correlation hash for a
// freshly inserted row id. It runs inside the creation transaction so a
// build failure leaves no row behind.
type BuildFunc func(id int64) (payload, md5 string, err error)

type Repo interface {
	CreateWithPayload(ctx context.Context, userID int64, amount float64, currency model.Currency, window time.Duration, build BuildFunc) (*model.TopupTransaction, error)
	Get(ctx context.Context, id, userID int64) (*model.TopupTransaction, error)
	MarkExpired(ctx context.Context, id int64) error
	MarkExpiredBefore(ctx context.Context, now time.Time) (int64, error)

	// CreditOnce is the single place a balance may grow. It locks the
	// topup row, guards the status transition and credits in one
	// database transaction. Returns the balance after the credit, or
	// the current balance with ErrAlreadySettled.
	CreditOnce(ctx context.Context, id int64) (float64, error)

	Balance(ctx context.Context, userID int64) (float64, error)
	GetUser(ctx context.Context, userID int64) (*model.User, error)
	ListLedger(ctx context.Context, userID int64) ([]model.WalletLedger, error)
}

type repo struct{ db *pgxpool.Pool }

func New(db *pgxpool.Pool) Repo { return &repo{db: db} }

const topupCols = `id, user_id, amount, currency, qr_payload, md5_hash, status, created_at, expires_at, settled_at`

func scanTopup(row pgx.Row) (*model.TopupTransaction, error) {
	var t model.TopupTransaction
	err := row.Scan(&t.ID, &t.UserID, &t.Amount, &t.Currency, &t.QRPayload,
		&t.MD5Hash, &t.Status, &t.CreatedAt, &t.ExpiresAt, &t.SettledAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *repo) CreateWithPayload(ctx context.Context, userID int64, amount float64, currency model.Currency, window time.Duration, build BuildFunc) (*model.TopupTransaction, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("tx begin failed: %w", err)
	}
	defer tx.Rollback(ctx)

	const qIns = `
INSERT INTO topup_transactions (user_id, amount, currency, status, expires_at)
VALUES ($1,$2,$3,'PENDING', now() + $4)
RETURNING id`
	var id int64
	if err := tx.QueryRow(ctx, qIns, userID, amount, currency, window).Scan(&id); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return nil, fmt.Errorf("user %d: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("topup insert failed: %w", err)
	}

	payload, md5, err := build(id)
	if err != nil {
		return nil, err
	}

	// hash and payload are written exactly once; the row stays PENDING.
	const qUp = `
UPDATE topup_transactions
SET qr_payload=$2, md5_hash=$3
WHERE id=$1 AND md5_hash IS NULL
RETURNING ` + topupCols
	t, err := scanTopup(tx.QueryRow(ctx, qUp, id, payload, md5))
	if err != nil {
		return nil, fmt.Errorf("payload attach failed: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("tx commit failed: %w", err)
	}
	return t, nil
}

func (r *repo) Get(ctx context.Context, id, userID int64) (*model.TopupTransaction, error) {
	const q = `SELECT ` + topupCols + ` FROM topup_transactions WHERE id=$1 AND user_id=$2`
	t, err := scanTopup(r.db.QueryRow(ctx, q, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *repo) MarkExpired(ctx context.Context, id int64) error {
	// only PENDING rows past their deadline move; terminal rows no-op
	const q = `
UPDATE topup_transactions
SET status='EXPIRED'
WHERE id=$1 AND status='PENDING' AND expires_at < now()`
	_, err := r.db.Exec(ctx, q, id)
	return err
}

func (r *repo) MarkExpiredBefore(ctx context.Context, now time.Time) (int64, error) {
	const q = `
UPDATE topup_transactions
SET status='EXPIRED'
WHERE status='PENDING' AND expires_at < $1`
	tag, err := r.db.Exec(ctx, q, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *repo) CreditOnce(ctx context.Context, id int64) (float64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("tx begin failed: %w", err)
	}
	defer tx.Rollback(ctx)

	const qLock = `
SELECT user_id, amount, status FROM topup_transactions WHERE id=$1 FOR UPDATE`
	var userID int64
	var amount float64
	var status model.TopupStatus
	if err := tx.QueryRow(ctx, qLock, id).Scan(&userID, &amount, &status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("lock acquisition failed: %w", err)
	}

	switch status {
	case model.TopupCompleted:
		var bal float64
		if err := tx.QueryRow(ctx, `SELECT balance FROM users WHERE id=$1`, userID).Scan(&bal); err != nil {
			return 0, err
		}
		return bal, ErrAlreadySettled
	case model.TopupExpired, model.TopupFailed:
		return 0, ErrInvalidState
	}

	var current float64
	if err := tx.QueryRow(ctx, `SELECT balance FROM users WHERE id=$1 FOR UPDATE`, userID).Scan(&current); err != nil {
		return 0, fmt.Errorf("balance lock failed: %w", err)
	}
	newBal := current + amount

	if _, err := tx.Exec(ctx, `UPDATE users SET balance=$2 WHERE id=$1`, userID, newBal); err != nil {
		return 0, err
	}

	const qSettle = `
UPDATE topup_transactions
SET status='COMPLETED', settled_at=now()
WHERE id=$1 AND status='PENDING'`
	tag, err := tx.Exec(ctx, qSettle, id)
	if err != nil {
		return 0, err
	}
	if tag.RowsAffected() == 0 {
		return 0, ErrInvalidState
	}

	const qLedger = `
INSERT INTO wallet_ledger (user_id, ref_id, entry_type, amount, balance_after)
VALUES ($1,$2,$3,$4,$5)`
	if _, err := tx.Exec(ctx, qLedger, userID, id, model.LedgerTopup, amount, newBal); err != nil {
		return 0, fmt.Errorf("ledger entry failed: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("tx commit failed: %w", err)
	}
	return newBal, nil
}

func (r *repo) Balance(ctx context.Context, userID int64) (float64, error) {
	var bal float64
	err := r.db.QueryRow(ctx, `SELECT balance FROM users WHERE id=$1`, userID).Scan(&bal)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	return bal, err
}

func (r *repo) GetUser(ctx context.Context, userID int64) (*model.User, error) {
	const q = `SELECT id, email, username, balance, created_at FROM users WHERE id=$1`
	var u model.User
	err := r.db.QueryRow(ctx, q, userID).Scan(&u.ID, &u.Email, &u.Username, &u.Balance, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *repo) ListLedger(ctx context.Context, userID int64) ([]model.WalletLedger, error) {
	const q = `
SELECT id, user_id, ref_id, entry_type, amount, balance_after, created_at
FROM wallet_ledger
WHERE user_id=$1
ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.WalletLedger
	for rows.Next() {
		var l model.WalletLedger
		if err := rows.Scan(&l.ID, &l.UserID, &l.RefID, &l.EntryType, &l.Amount, &l.BalanceAfter, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
