package topupsvc

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	authorityrepo "qrtopup/repository/authority"
	ledgerrepo "qrtopup/repository/ledger"

	"qrtopup/model"
	"qrtopup/util/emvqr"
)

const (
	// MaxTopupAmount bounds a single QR request.
	MaxTopupAmount = 10000
	// ExpiryWindow is how long a generated QR stays payable.
	ExpiryWindow = 15 * time.Minute
)

var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = ledgerrepo.ErrNotFound
	ErrInvalidState = ledgerrepo.ErrInvalidState
)

var (
	settlementChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "topup_settlement_checks_total",
		Help: "Settlement verifier outcomes",
	}, []string{"verdict"})

	creditsApplied = promauto.NewCounter(prometheus.CounterOpts{
		Name: "topup_credits_applied_total",
		Help: "Balance credits applied exactly once per transaction",
	})
)

type TopupCreated struct {
	TransactionID int64     `json:"transaction_id"`
	QRPayload     string    `json:"qr_payload"`
	MD5           string    `json:"md5"`
	ExpiresAt     time.Time `json:"expires_at"`
}

type StatusResult struct {
	Status     model.TopupStatus `json:"status"`
	Amount     float64           `json:"amount"`
	Currency   model.Currency    `json:"currency"`
	NewBalance *float64          `json:"new_balance,omitempty"`
}

type Service interface {
	Generate(ctx context.Context, userID int64, amount float64, currency model.Currency) (*TopupCreated, error)
	CheckStatus(ctx context.Context, userID, txID int64) (*StatusResult, error)
	Payload(ctx context.Context, userID, txID int64) (string, error)
}

// Merchant identifies the QR payee; the account id must be name@routing.
type Merchant struct {
	Account string
	Name    string
	City    string
}

type service struct {
	ledger    ledgerrepo.Repo
	authority authorityrepo.Repo
	merchant  Merchant
	// strict keeps hard verifier errors away from the credit path.
	// Only test harnesses without a live authority run with it off.
	strict bool
	log    *slog.Logger
	now    func() time.Time
}

func New(l ledgerrepo.Repo, a authorityrepo.Repo, m Merchant, strict bool, log *slog.Logger) Service {
	return &service{ledger: l, authority: a, merchant: m, strict: strict, log: log, now: time.Now}
}

func (s *service) Generate(ctx context.Context, userID int64, amount float64, currency model.Currency) (*TopupCreated, error) {
	if amount <= 0 || amount > MaxTopupAmount {
		return nil, fmt.Errorf("%w: amount must be in (0, %d]", ErrValidation, MaxTopupAmount)
	}
	if math.Abs(amount*100-math.Round(amount*100)) > 1e-6 {
		return nil, fmt.Errorf("%w: amount must have at most 2 fraction digits", ErrValidation)
	}
	numeric, ok := currency.NumericCode()
	if !ok {
		return nil, fmt.Errorf("%w: unsupported currency %q", ErrValidation, currency)
	}
	// fail on misconfiguration before any persistence
	if !strings.Contains(s.merchant.Account, "@") {
		return nil, emvqr.ErrInvalidMerchantAccount
	}

	t, err := s.ledger.CreateWithPayload(ctx, userID, amount, currency, ExpiryWindow,
		func(id int64) (string, string, error) {
			payload, err := emvqr.Build(emvqr.Request{
				MerchantAccount: s.merchant.Account,
				MerchantName:    s.merchant.Name,
				MerchantCity:    s.merchant.City,
				CurrencyCode:    numeric,
				Amount:          amount,
				BillNumber:      fmt.Sprintf("TU-%d", id),
				TerminalLabel:   "wallet-topup",
			})
			if err != nil {
				return "", "", err
			}
			sum := md5.Sum([]byte(payload))
			return payload, hex.EncodeToString(sum[:]), nil
		})
	if err != nil {
		return nil, err
	}

	s.log.Info("topup generated",
		"tx_id", t.ID, "user_id", userID, "amount", amount, "currency", currency)
	return &TopupCreated{
		TransactionID: t.ID,
		QRPayload:     *t.QRPayload,
		MD5:           *t.MD5Hash,
		ExpiresAt:     t.ExpiresAt,
	}, nil
}

// CheckStatus answers one poll tick. Terminal rows are answered from
// the ledger alone; clock-expired rows are retired without a network
// call; only live PENDING rows reach the authority, and only a
// confirmed verdict reaches the credit path.
func (s *service) CheckStatus(ctx context.Context, userID, txID int64) (*StatusResult, error) {
	t, err := s.ledger.Get(ctx, txID, userID)
	if err != nil {
		return nil, err
	}

	res := &StatusResult{Status: t.Status, Amount: t.Amount, Currency: t.Currency}

	if t.Status.Terminal() {
		if t.Status == model.TopupCompleted {
			s.attachBalance(ctx, userID, res)
		}
		return res, nil
	}

	if t.Expired(s.now()) {
		if err := s.ledger.MarkExpired(ctx, t.ID); err != nil {
			return nil, err
		}
		res.Status = model.TopupExpired
		return res, nil
	}

	hash := ""
	if t.MD5Hash != nil {
		hash = *t.MD5Hash
	}
	check, err := s.authority.CheckSettlement(ctx, hash)
	if err != nil {
		return nil, err
	}
	settlementChecks.WithLabelValues(check.Verdict.String()).Inc()

	confirmed := check.Verdict == authorityrepo.VerdictConfirmed
	if check.Verdict == authorityrepo.VerdictHardError {
		s.log.Error("settlement verification hard error",
			"tx_id", t.ID, "reason", check.Reason, "strict", s.strict)
		if !s.strict {
			confirmed = true
		}
	}

	if !confirmed {
		// transient trouble never surfaces as payment failure; only
		// expiry does
		return res, nil
	}

	newBal, err := s.ledger.CreditOnce(ctx, t.ID)
	switch {
	case errors.Is(err, ledgerrepo.ErrAlreadySettled):
		// idempotent success: someone else's tick won the race
	case err != nil:
		return nil, err
	default:
		creditsApplied.Inc()
		s.log.Info("topup settled",
			"tx_id", t.ID, "user_id", userID, "amount", t.Amount,
			"authority_tx", check.AuthorityTxID, "balance", newBal)
	}

	res.Status = model.TopupCompleted
	res.NewBalance = &newBal
	return res, nil
}

func (s *service) Payload(ctx context.Context, userID, txID int64) (string, error) {
	t, err := s.ledger.Get(ctx, txID, userID)
	if err != nil {
		return "", err
	}
	if t.QRPayload == nil || *t.QRPayload == "" {
		return "", fmt.Errorf("topup %d has no payload", txID)
	}
	return *t.QRPayload, nil
}

func (s *service) attachBalance(ctx context.Context, userID int64, res *StatusResult) {
	bal, err := s.ledger.Balance(ctx, userID)
	if err != nil {
		s.log.Error("balance read failed", "user_id", userID, "err", err)
		return
	}
	res.NewBalance = &bal
}
