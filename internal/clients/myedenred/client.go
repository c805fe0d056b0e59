// Package myedenred is an HTTP client for the MyEdenred meal-card portal,
// implementing the session contract of the myedenred account manager.
package myedenred

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
	accmyedenred "github.com/mgoncalves/expense-sync-backend/internal/accounts/myedenred"
)

const (
	defaultBaseURL = "https://www.myedenred.pt/edenred-customer/api"
	// Every portal call carries these, web-frontend style.
	portalQuery        = "appVersion=1.0&appType=PORTAL&channel=WEB"
	movementDateLayout = "2006-01-02T15:04:05"
)

// Client is an authenticated portal session. Build it with New, then Login
// before resolving cards.
type Client struct {
	http    *retryablehttp.Client
	baseURL string
	token   string
}

var _ accmyedenred.Session = (*Client)(nil)

// New creates an unauthenticated client.
func New(logger *slog.Logger) *Client {
	httpClient := retryablehttp.NewClient()
	httpClient.RetryMax = 3
	httpClient.RetryWaitMin = time.Second
	httpClient.RetryWaitMax = 10 * time.Second
	httpClient.Logger = nil
	if logger != nil {
		httpClient.RequestLogHook = func(_ retryablehttp.Logger, req *http.Request, attempt int) {
			if attempt > 0 {
				logger.Debug("retrying myedenred request",
					slog.String("url", req.URL.Path),
					slog.Int("attempt", attempt),
				)
			}
		}
	}
	return &Client{
		http:    httpClient,
		baseURL: defaultBaseURL,
	}
}

// SetBaseURL overrides the portal endpoint, for tests.
func (c *Client) SetBaseURL(url string) { c.baseURL = url }

type loginResponse struct {
	Data struct {
		Token string `json:"token"`
	} `json:"data"`
}

// Login authenticates against the portal and stores the session token.
func (c *Client) Login(ctx context.Context, username, password string) error {
	payload := map[string]any{
		"userId":     username,
		"password":   password,
		"rememberMe": true,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/authenticate/default?%s", c.baseURL, portalQuery)
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", accounts.ErrSourceUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: authentication rejected (status %d)", accounts.ErrSourceUnavailable, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: reading login response: %v", accounts.ErrSourceUnavailable, err)
	}
	var parsed loginResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("decoding login response: %w", err)
	}
	if parsed.Data.Token == "" {
		return fmt.Errorf("%w: login response carries no token", accounts.ErrSourceUnavailable)
	}
	c.token = parsed.Data.Token
	return nil
}

type cardPayload struct {
	ID     int    `json:"id"`
	Number string `json:"number"`
	Status string `json:"status"`
}

type cardListResponse struct {
	Data []cardPayload `json:"data"`
}

// Card resolves a card by portal id. A nil card with a nil error means the
// logged-in user has no such card.
func (c *Client) Card(id int) (accmyedenred.Card, error) {
	var payload cardListResponse
	url := fmt.Sprintf("%s/protected/card/list?_=%d&%s", c.baseURL, time.Now().Unix(), portalQuery)
	if err := c.get(context.Background(), url, &payload); err != nil {
		return nil, err
	}

	for _, raw := range payload.Data {
		if raw.ID == id {
			return &card{client: c, id: id}, nil
		}
	}
	return nil, nil
}

// card fetches movements for one resolved card id.
type card struct {
	client *Client
	id     int
}

var _ accmyedenred.Card = (*card)(nil)

type movementPayload struct {
	TransactionDate string          `json:"transactionDate"`
	TransactionName string          `json:"transactionName"`
	Amount          decimal.Decimal `json:"amount"`
}

type movementsResponse struct {
	Data struct {
		MovementList []movementPayload `json:"movementList"`
	} `json:"data"`
}

// Transactions fetches the card's movements and filters them to [start, end]
// by calendar date. Zero start/end leave that side of the window open.
func (m *card) Transactions(ctx context.Context, start, end time.Time) ([]accmyedenred.Transaction, error) {
	var payload movementsResponse
	url := fmt.Sprintf("%s/protected/card/%d/accountmovement?_=%d&%s",
		m.client.baseURL, m.id, time.Now().Unix(), portalQuery)
	if err := m.client.get(ctx, url, &payload); err != nil {
		return nil, err
	}

	var result []accmyedenred.Transaction
	for _, raw := range payload.Data.MovementList {
		stamp := raw.TransactionDate
		if len(stamp) > len(movementDateLayout) {
			stamp = stamp[:len(movementDateLayout)]
		}
		when, err := time.Parse(movementDateLayout, stamp)
		if err != nil {
			return nil, fmt.Errorf("parsing transactionDate %q: %w", raw.TransactionDate, err)
		}
		day := time.Date(when.Year(), when.Month(), when.Day(), 0, 0, 0, 0, time.UTC)
		if !start.IsZero() && day.Before(start) {
			continue
		}
		if !end.IsZero() && day.After(end) {
			continue
		}
		result = append(result, accmyedenred.Transaction{
			Date:   when,
			Name:   raw.TransactionName,
			Amount: raw.Amount,
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
	req.Header.Set("Authorization", c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", accounts.ErrSourceUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%w: session rejected (status %d)", accounts.ErrSourceUnavailable, resp.StatusCode)
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
