package authorityrepo

import (
	"context"
	"errors"
)

// ErrMissingCorrelation marks a transaction with no md5 hash: a
// corrupted row, never worth a network call or a retry.
var ErrMissingCorrelation = errors.New("missing correlation data")

type Verdict int

const (
	// VerdictNotYet is a well-formed "not settled" answer; polling continues.
	VerdictNotYet Verdict = iota
	// VerdictConfirmed means the authority attests funds have moved.
	VerdictConfirmed
	// VerdictHardError covers retry exhaustion and unparseable answers.
	VerdictHardError
)

func (v Verdict) String() string {
	switch v {
	case VerdictConfirmed:
		return "confirmed"
	case VerdictNotYet:
		return "not_yet"
	default:
		return "hard_error"
	}
}

type CheckResult struct {
	Verdict       Verdict
	AuthorityTxID string
	Reason        string
}

// Repo classifies settlement state. No implementation may move money.
type Repo interface {
	CheckSettlement(ctx context.Context, md5Hash string) (*CheckResult, error)
}
