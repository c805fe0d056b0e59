// Package nordigen is a thin HTTP client for the Nordigen open-banking API,
// implementing the fetcher contract of the nordigen account manager.
package nordigen

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/shopspring/decimal"

	"github.com/mgoncalves/expense-sync-backend/internal/accounts"
	accnordigen "github.com/mgoncalves/expense-sync-backend/internal/accounts/nordigen"
)

const (
	defaultBaseURL = "https://ob.nordigen.com"
	apiDateLayout  = "2006-01-02"
)

// Client fetches booked transactions and balances for one account id.
type Client struct {
	http      *retryablehttp.Client
	baseURL   string
	token     string
	accountID string
}

var _ accnordigen.Client = (*Client)(nil)

// New creates a client for the given account. The retrying transport absorbs
// transient API hiccups; authentication failures are not retried.
func New(token, accountID string, logger *slog.Logger) *Client {
	httpClient := retryablehttp.NewClient()
	httpClient.RetryMax = 3
	httpClient.RetryWaitMin = time.Second
	httpClient.RetryWaitMax = 10 * time.Second
	httpClient.Logger = nil
	if logger != nil {
		httpClient.RequestLogHook = func(_ retryablehttp.Logger, req *http.Request, attempt int) {
			if attempt > 0 {
				logger.Debug("retrying nordigen request",
					slog.String("url", req.URL.Path),
					slog.Int("attempt", attempt),
				)
			}
		}
	}
	return &Client{
		http:      httpClient,
		baseURL:   defaultBaseURL,
		token:     token,
		accountID: accountID,
	}
}

// SetBaseURL overrides the API endpoint, for tests.
func (c *Client) SetBaseURL(url string) { c.baseURL = url }

type amountPayload struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

type transactionPayload struct {
	BookingDate string        `json:"bookingDate"`
	ValueDate   string        `json:"valueDate"`
	Remittance  string        `json:"remittanceInformationUnstructured"`
	Amount      amountPayload `json:"transactionAmount"`
}

type transactionsResponse struct {
	Transactions struct {
		Booked []transactionPayload `json:"booked"`
	} `json:"transactions"`
}

type balancePayload struct {
	Amount        amountPayload `json:"balanceAmount"`
	Type          string        `json:"balanceType"`
	ReferenceDate string        `json:"referenceDate"`
}

type balancesResponse struct {
	Balances []balancePayload `json:"balances"`
}

// Transactions fetches the booked movements and filters them to [start, end]
// by booking date. Zero start/end leave that side of the window open.
func (c *Client) Transactions(ctx context.Context, start, end time.Time) ([]accnordigen.Transaction, error) {
	var payload transactionsResponse
	url := fmt.Sprintf("%s/api/accounts/%s/transactions/", c.baseURL, c.accountID)
	if err := c.get(ctx, url, &payload); err != nil {
		return nil, err
	}

	var result []accnordigen.Transaction
	for _, raw := range payload.Transactions.Booked {
		booking, err := time.Parse(apiDateLayout, raw.BookingDate)
		if err != nil {
			return nil, fmt.Errorf("parsing bookingDate %q: %w", raw.BookingDate, err)
		}
		value, err := time.Parse(apiDateLayout, raw.ValueDate)
		if err != nil {
			return nil, fmt.Errorf("parsing valueDate %q: %w", raw.ValueDate, err)
		}
		amount, err := decimal.NewFromString(raw.Amount.Amount)
		if err != nil {
			return nil, fmt.Errorf("parsing transactionAmount %q: %w", raw.Amount.Amount, err)
		}
		if !start.IsZero() && booking.Before(start) {
			continue
		}
		if !end.IsZero() && booking.After(end) {
			continue
		}
		result = append(result, accnordigen.Transaction{
			BookingDate: booking,
			ValueDate:   value,
			Remittance:  raw.Remittance,
			Amount:      amount,
		})
	}
	return result, nil
}

// Balances fetches the balances endpoint. Entries with an unparseable
// reference date keep a zero date; the manager decides what to do with them.
func (c *Client) Balances(ctx context.Context) ([]accnordigen.BalanceEntry, error) {
	var payload balancesResponse
	url := fmt.Sprintf("%s/api/accounts/%s/balances/", c.baseURL, c.accountID)
	if err := c.get(ctx, url, &payload); err != nil {
		return nil, err
	}

	var result []accnordigen.BalanceEntry
	for _, raw := range payload.Balances {
		amount, err := decimal.NewFromString(raw.Amount.Amount)
		if err != nil {
			return nil, fmt.Errorf("parsing balanceAmount %q: %w", raw.Amount.Amount, err)
		}
		reference, _ := time.Parse(apiDateLayout, raw.ReferenceDate)
		result = append(result, accnordigen.BalanceEntry{
			Type:          raw.Type,
			Amount:        amount,
			ReferenceDate: reference,
		})
	}
	return result, nil
}

func (c *Client) get(ctx context.Context, url string, out any) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Token "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", accounts.ErrSourceUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%w: authentication rejected (status %d)", accounts.ErrSourceUnavailable, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: unexpected status %d", accounts.ErrSourceUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: reading response: %v", accounts.ErrSourceUnavailable, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding response from %s: %w", url, err)
	}
	return nil
}
