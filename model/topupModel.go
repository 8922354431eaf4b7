// model/topup.go
package model

import "time"

type TopupStatus string

const (
	TopupPending   TopupStatus = "PENDING"
	TopupCompleted TopupStatus = "COMPLETED"
	TopupExpired   TopupStatus = "EXPIRED"
	TopupFailed    TopupStatus = "FAILED"
)

// Terminal reports whether no further transition is allowed.
func (s TopupStatus) Terminal() bool { return s != TopupPending }

type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyKHR Currency = "KHR"
)

// NumericCode returns the ISO 4217 numeric code carried in the QR
// payload's currency field.
func (c Currency) NumericCode() (string, bool) {
	switch c {
	case CurrencyUSD:
		return "840", true
	case CurrencyKHR:
		return "116", true
	}
	return "", false
}

// TopupTransaction is one payment attempt. The md5 correlation hash and
// the raw payload are written once when the QR is generated and never
// change afterwards.
type TopupTransaction struct {
	ID        int64       `json:"id"`
	UserID    int64       `json:"user_id"`
	Amount    float64     `json:"amount"`
	Currency  Currency    `json:"currency"`
	QRPayload *string     `json:"qr_payload,omitempty"`
	MD5Hash   *string     `json:"md5,omitempty"`
	Status    TopupStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
	ExpiresAt time.Time   `json:"expires_at"`
	SettledAt *time.Time  `json:"settled_at,omitempty"`
}

// Expired compares against the row's own deadline; the server trusts
// this, never a client signal.
func (t *TopupTransaction) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

type LedgerType string

const LedgerTopup LedgerType = "TOPUP_CONFIRMED"

type WalletLedger struct {
	ID           int64      `json:"id"`
	UserID       int64      `json:"user_id"`
	RefID        *int64     `json:"ref_id,omitempty"`
	EntryType    LedgerType `json:"entry_type"`
	Amount       float64    `json:"amount"`
	BalanceAfter float64    `json:"balance_after"`
	CreatedAt    time.Time  `json:"created_at"`
}
