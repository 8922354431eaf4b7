package emvqr

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	ErrTruncated   = errors.New("truncated TLV stream")
	ErrBadChecksum = errors.New("checksum mismatch")
)

// Payload is the decoded view of an encoded QR string.
type Payload struct {
	Fields map[string]string // top-level tag -> raw value

	MerchantAccount string
	CurrencyCode    string
	Amount          string
	MerchantName    string
	MerchantCity    string
	BillNumber      string
	StoreLabel      string
	TerminalLabel   string
	CRC             string
}

// Decode parses a TLV payload back into its fields, including the
// nested merchant-account and additional-data templates.
func Decode(s string) (*Payload, error) {
	fields, err := parseTLV(s)
	if err != nil {
		return nil, err
	}
	p := &Payload{
		Fields:       fields,
		CurrencyCode: fields[tagCurrency],
		Amount:       fields[tagAmount],
		MerchantName: fields[tagMerchantName],
		MerchantCity: fields[tagMerchantCity],
		CRC:          fields[tagCRC],
	}
	if v, ok := fields[tagMerchantAccount]; ok {
		sub, err := parseTLV(v)
		if err != nil {
			return nil, fmt.Errorf("merchant account template: %w", err)
		}
		p.MerchantAccount = sub[subTagAccountID]
	}
	if v, ok := fields[tagAdditionalData]; ok {
		sub, err := parseTLV(v)
		if err != nil {
			return nil, fmt.Errorf("additional data template: %w", err)
		}
		p.BillNumber = sub[subTagBillNumber]
		p.StoreLabel = sub[subTagStoreLabel]
		p.TerminalLabel = sub[subTagTerminalLabel]
	}
	return p, nil
}

// ValidateChecksum recomputes the CRC over everything up to and
// including the "6304" prefix and compares it to the trailing value.
func ValidateChecksum(s string) error {
	if len(s) < 8 {
		return ErrTruncated
	}
	body, got := s[:len(s)-4], s[len(s)-4:]
	if body[len(body)-4:] != tagCRC+"04" {
		return fmt.Errorf("%w: missing crc tag", ErrBadChecksum)
	}
	if want := Checksum([]byte(body)); want != got {
		return fmt.Errorf("%w: want %s got %s", ErrBadChecksum, want, got)
	}
	return nil
}

func parseTLV(s string) (map[string]string, error) {
	out := make(map[string]string)
	for i := 0; i < len(s); {
		if i+4 > len(s) {
			return nil, ErrTruncated
		}
		tag := s[i : i+2]
		// the length must be exactly two ASCII digits; Atoi alone
		// would accept "-1" or "+5" and break the bounds check below
		lenDigits := s[i+2 : i+4]
		if !isDigit(lenDigits[0]) || !isDigit(lenDigits[1]) {
			return nil, fmt.Errorf("tag %s: malformed length %q", tag, lenDigits)
		}
		n, _ := strconv.Atoi(lenDigits)
		if i+4+n > len(s) {
			return nil, fmt.Errorf("tag %s: %w", tag, ErrTruncated)
		}
		out[tag] = s[i+4 : i+4+n]
		i += 4 + n
	}
	return out, nil
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
