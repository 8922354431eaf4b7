package emvqr

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func validRequest() Request {
	return Request{
		MerchantAccount: "topup_user@devbank",
		MerchantName:    "Media Wallet",
		MerchantCity:    "Phnom Penh",
		CurrencyCode:    "840",
		Amount:          10,
		BillNumber:      "TU-42",
		StoreLabel:      "web",
		TerminalLabel:   "wallet-01",
	}
}

func TestBuild_PrefixAndChecksum(t *testing.T) {
	s, err := Build(validRequest())
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(s, "000201"), "payload %q", s)
	require.NoError(t, ValidateChecksum(s))

	// crc field is 4 uppercase hex chars
	crc := s[len(s)-4:]
	require.Regexp(t, "^[0-9A-F]{4}$", crc)
}

func TestBuild_RoundTrip(t *testing.T) {
	req := validRequest()
	s, err := Build(req)
	require.NoError(t, err)

	p, err := Decode(s)
	require.NoError(t, err)
	require.Equal(t, req.MerchantAccount, p.MerchantAccount)
	require.Equal(t, req.MerchantName, p.MerchantName)
	require.Equal(t, req.MerchantCity, p.MerchantCity)
	require.Equal(t, req.CurrencyCode, p.CurrencyCode)
	require.Equal(t, "10.00", p.Amount)
	require.Equal(t, req.BillNumber, p.BillNumber)
	require.Equal(t, req.StoreLabel, p.StoreLabel)
	require.Equal(t, req.TerminalLabel, p.TerminalLabel)
	require.Equal(t, "01", p.Fields[tagPayloadFormat])
	require.Equal(t, "12", p.Fields[tagInitiation])
	require.Equal(t, "KH", p.Fields[tagCountry])
}

func TestBuild_OptionalLabelsOmitted(t *testing.T) {
	req := validRequest()
	req.StoreLabel = ""
	req.TerminalLabel = ""
	s, err := Build(req)
	require.NoError(t, err)

	p, err := Decode(s)
	require.NoError(t, err)
	require.Equal(t, req.BillNumber, p.BillNumber)
	require.Empty(t, p.StoreLabel)
	require.Empty(t, p.TerminalLabel)
}

func TestBuild_AmountFormatting(t *testing.T) {
	req := validRequest()
	req.Amount = 1234.5
	s, err := Build(req)
	require.NoError(t, err)
	p, err := Decode(s)
	require.NoError(t, err)
	require.Equal(t, "1234.50", p.Amount)
}

func TestBuild_RejectsMerchantWithoutSeparator(t *testing.T) {
	req := validRequest()
	req.MerchantAccount = "no-separator-here"
	_, err := Build(req)
	require.ErrorIs(t, err, ErrInvalidMerchantAccount)
}

func TestBuild_RejectsNonPositiveAmount(t *testing.T) {
	for _, amt := range []float64{0, -1} {
		req := validRequest()
		req.Amount = amt
		if _, err := Build(req); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("amount %v: got %v, want ErrInvalidAmount", amt, err)
		}
	}
}

func TestBuild_RejectsOverlongValue(t *testing.T) {
	req := validRequest()
	req.MerchantName = strings.Repeat("x", 100)
	_, err := Build(req)
	require.ErrorIs(t, err, ErrValueTooLong)
}

func TestBuild_RejectsUnresolvedPlaceholder(t *testing.T) {
	req := validRequest()
	req.MerchantCity = "{{city}}"
	_, err := Build(req)
	require.ErrorIs(t, err, ErrUnresolvedPlaceholder)
}

func TestValidateChecksum_DetectsMutation(t *testing.T) {
	s, err := Build(validRequest())
	require.NoError(t, err)

	// flip every byte before the crc tag, one at a time
	for i := 0; i < len(s)-8; i++ {
		mutated := []byte(s)
		mutated[i] ^= 0x01
		if ValidateChecksum(string(mutated)) == nil {
			t.Errorf("mutation at byte %d passed checksum validation", i)
		}
	}
}

func TestValidateChecksum_Truncated(t *testing.T) {
	require.ErrorIs(t, ValidateChecksum("6304AB"), ErrTruncated)
}
