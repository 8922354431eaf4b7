// util/emvqr/builder.go
package emvqr

import (
	"errors"
	"fmt"
	"strings"
)

// EMV merchant-presented QR tag ids, in the order Build emits them.
const (
	tagPayloadFormat   = "00"
	tagInitiation      = "01"
	tagMerchantAccount = "29"
	tagMerchantCat     = "52"
	tagCurrency        = "53"
	tagAmount          = "54"
	tagCountry         = "58"
	tagMerchantName    = "59"
	tagMerchantCity    = "60"
	tagAdditionalData  = "62"
	tagCRC             = "63"

	// nested under tagMerchantAccount
	subTagAccountID = "00"
	// nested under tagAdditionalData
	subTagBillNumber    = "01"
	subTagStoreLabel    = "03"
	subTagTerminalLabel = "07"

	payloadFormatVersion = "01"
	initiationDynamic    = "12"
	merchantCategory     = "5999"
	countryCode          = "KH"
)

var (
	ErrInvalidMerchantAccount = errors.New("merchant account must be name@routing")
	ErrInvalidAmount          = errors.New("amount must be positive")
	ErrValueTooLong           = errors.New("field value exceeds 99 bytes")
	ErrUnresolvedPlaceholder  = errors.New("field value contains unresolved placeholder")
)

// Request is the semantic content of one payment QR.
type Request struct {
	MerchantAccount string // "name@routing" account id at the payment rail
	MerchantName    string
	MerchantCity    string
	CurrencyCode    string // ISO 4217 numeric, e.g. "840"
	Amount          float64
	BillNumber      string // ties the QR back to a ledger row, <= 20 chars
	StoreLabel      string
	TerminalLabel   string
}

// Build assembles the TLV payload and appends the CRC16 checksum. The
// checksum covers every byte emitted before it, including its own
// "6304" tag+length prefix.
func Build(req Request) (string, error) {
	if !strings.Contains(req.MerchantAccount, "@") {
		return "", ErrInvalidMerchantAccount
	}
	if req.Amount <= 0 {
		return "", ErrInvalidAmount
	}

	var b strings.Builder
	emit := func(tag, value string) error {
		f, err := field(tag, value)
		if err != nil {
			return err
		}
		b.WriteString(f)
		return nil
	}

	account, err := field(subTagAccountID, req.MerchantAccount)
	if err != nil {
		return "", err
	}

	additional, err := field(subTagBillNumber, req.BillNumber)
	if err != nil {
		return "", err
	}
	if req.StoreLabel != "" {
		f, err := field(subTagStoreLabel, req.StoreLabel)
		if err != nil {
			return "", err
		}
		additional += f
	}
	if req.TerminalLabel != "" {
		f, err := field(subTagTerminalLabel, req.TerminalLabel)
		if err != nil {
			return "", err
		}
		additional += f
	}

	steps := []struct{ tag, value string }{
		{tagPayloadFormat, payloadFormatVersion},
		{tagInitiation, initiationDynamic},
		{tagMerchantAccount, account},
		{tagMerchantCat, merchantCategory},
		{tagCurrency, req.CurrencyCode},
		{tagAmount, fmt.Sprintf("%.2f", req.Amount)},
		{tagCountry, countryCode},
		{tagMerchantName, req.MerchantName},
		{tagMerchantCity, req.MerchantCity},
		{tagAdditionalData, additional},
	}
	for _, s := range steps {
		if err := emit(s.tag, s.value); err != nil {
			return "", err
		}
	}

	b.WriteString(tagCRC)
	b.WriteString("04")
	b.WriteString(Checksum([]byte(b.String())))
	return b.String(), nil
}

func field(tag, value string) (string, error) {
	if value == "" {
		return "", fmt.Errorf("tag %s: empty value", tag)
	}
	if strings.ContainsAny(value, "{}") {
		return "", fmt.Errorf("tag %s: %w", tag, ErrUnresolvedPlaceholder)
	}
	if len(value) > 99 {
		return "", fmt.Errorf("tag %s: %w", tag, ErrValueTooLong)
	}
	return fmt.Sprintf("%s%02d%s", tag, len(value), value), nil
}
