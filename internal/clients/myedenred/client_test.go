package myedenred

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgoncalves/expense-sync-backend/internal/accounts"
)

const cardListBody = `{"data": [
	{"id": 42, "number": "1234", "status": "ACTIVE"},
	{"id": 7, "number": "5678", "status": "BLOCKED"}
]}`

const movementsBody = `{"data": {"account": {}, "movementList": [
	{"transactionDate": "2024-04-02T12:30:00.000", "transactionName": "RESTAURANTE", "amount": -8.60},
	{"transactionDate": "2024-04-20T09:00:00.000", "transactionName": "CARREGAMENTO", "amount": 160}
]}}`

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := New(nil)
	client.SetBaseURL(server.URL)
	return client
}

func portalHandler(t *testing.T) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/authenticate/default"):
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "user@example.pt", body["userId"])
			_, _ = w.Write([]byte(`{"data": {"token": "portal-token"}}`))
		case r.URL.Path == "/protected/card/list":
			assert.Equal(t, "portal-token", r.Header.Get("Authorization"))
			_, _ = w.Write([]byte(cardListBody))
		case r.URL.Path == "/protected/card/42/accountmovement":
			assert.Equal(t, "portal-token", r.Header.Get("Authorization"))
			_, _ = w.Write([]byte(movementsBody))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func TestLogin_StoresToken(t *testing.T) {
	client := newTestClient(t, portalHandler(t))
	require.NoError(t, client.Login(context.Background(), "user@example.pt", "pw"))
	assert.Equal(t, "portal-token", client.token)
}

func TestLogin_Rejected(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	err := client.Login(context.Background(), "user@example.pt", "bad")
	assert.ErrorIs(t, err, accounts.ErrSourceUnavailable)
}

func TestLogin_MissingToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data": {}}`))
	})

	err := client.Login(context.Background(), "user@example.pt", "pw")
	assert.ErrorIs(t, err, accounts.ErrSourceUnavailable)
}

func TestCard_ResolvesListedCard(t *testing.T) {
	client := newTestClient(t, portalHandler(t))
	require.NoError(t, client.Login(context.Background(), "user@example.pt", "pw"))

	resolved, err := client.Card(42)
	require.NoError(t, err)
	assert.NotNil(t, resolved)

	missing, err := client.Card(99)
	require.NoError(t, err)
	assert.Nil(t, missing, "an unlisted card resolves to nil, not an error")
}

func TestCardTransactions_ParsesAndFilters(t *testing.T) {
	client := newTestClient(t, portalHandler(t))
	require.NoError(t, client.Login(context.Background(), "user@example.pt", "pw"))

	resolved, err := client.Card(42)
	require.NoError(t, err)

	txs, err := resolved.Transactions(context.Background(), day(2024, 4, 1), day(2024, 4, 10))
	require.NoError(t, err)
	require.Len(t, txs, 1, "movements outside the window are dropped")
	assert.Equal(t, "RESTAURANTE", txs[0].Name)
	assert.True(t, txs[0].Amount.Equal(decimal.NewFromFloat(-8.60)))
	assert.Equal(t, time.Date(2024, 4, 2, 12, 30, 0, 0, time.UTC), txs[0].Date)

	txs, err = resolved.Transactions(context.Background(), time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Len(t, txs, 2)
}

func TestCard_SessionRejected(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.Card(42)
	assert.ErrorIs(t, err, accounts.ErrSourceUnavailable)
}
