package authorityrepo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"qrtopup/util/httpx"
)

const (
	maxAttempts      = 3
	responseCodeOK   = 0
	statusSettled    = "SUCCESS"
	defaultBaseDelay = time.Second
)

type httpRepo struct {
	url       string
	token     string
	client    *http.Client
	baseDelay time.Duration
}

type Option func(*httpRepo)

// WithBaseDelay shortens the first backoff interval; tests use it.
func WithBaseDelay(d time.Duration) Option {
	return func(r *httpRepo) { r.baseDelay = d }
}

func WithClient(c *http.Client) Option {
	return func(r *httpRepo) { r.client = c }
}

func NewHTTP(url, token string, opts ...Option) Repo {
	r := &httpRepo{
		url:       url,
		token:     token,
		client:    httpx.Client(),
		baseDelay: defaultBaseDelay,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

type checkResponse struct {
	ResponseCode    int    `json:"responseCode"`
	ResponseMessage string `json:"responseMessage"`
	Data            *struct {
		Status        string `json:"status"`
		TransactionID string `json:"transactionId"`
	} `json:"data"`
}

// CheckSettlement posts {"hash": md5Hash} under a bounded exponential
// retry: up to 3 attempts, 1s doubling, retried only on transport
// failure or non-2xx. A well-formed business answer ends the loop
// whatever it says. Exhaustion and garbage bodies come back as
// VerdictHardError rather than an error so the caller keeps reporting
// "pending" to the client.
func (r *httpRepo) CheckSettlement(ctx context.Context, md5Hash string) (*CheckResult, error) {
	if md5Hash == "" {
		return &CheckResult{Verdict: VerdictHardError, Reason: ErrMissingCorrelation.Error()}, nil
	}

	body, err := json.Marshal(map[string]string{"hash": md5Hash})
	if err != nil {
		return nil, err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.baseDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = 8 * r.baseDelay

	attempt := func() (*checkResponse, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+r.token)

		resp, err := r.client.Do(req)
		if err != nil {
			return nil, err // transport failure, retryable
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			io.Copy(io.Discard, resp.Body)
			return nil, fmt.Errorf("authority returned %s", resp.Status)
		}

		var out checkResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			// 2xx with garbage is a contract break, not a blip
			return nil, backoff.Permanent(fmt.Errorf("malformed authority response: %w", err))
		}
		return &out, nil
	}

	out, err := backoff.RetryWithData(attempt,
		backoff.WithContext(backoff.WithMaxRetries(b, maxAttempts-1), ctx))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return &CheckResult{Verdict: VerdictHardError, Reason: err.Error()}, nil
	}

	if out.ResponseCode == responseCodeOK && out.Data != nil && out.Data.Status == statusSettled {
		return &CheckResult{Verdict: VerdictConfirmed, AuthorityTxID: out.Data.TransactionID}, nil
	}
	return &CheckResult{Verdict: VerdictNotYet, Reason: out.ResponseMessage}, nil
}
