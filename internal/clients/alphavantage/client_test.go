package alphavantage

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexFloat64(t *testing.T) {
	cases := []struct {
		input    string
		expected float64
	}{
		{`123.45`, 123.45},
		{`"123.45"`, 123.45},
		{`"0.6376%"`, 0.6376},
		{`"N/A"`, 0},
		{`""`, 0},
		{`"-"`, 0},
	}
	for _, tc := range cases {
		var f flexFloat64
		require.NoError(t, json.Unmarshal([]byte(tc.input), &f), "input %s", tc.input)
		assert.InDelta(t, tc.expected, float64(f), 0.0001, "input %s", tc.input)
	}
}

func TestGetQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GLOBAL_QUOTE", r.URL.Query().Get("function"))
		assert.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
		w.Write([]byte(`{
			"Global Quote": {
				"01. symbol": "AAPL",
				"05. price": "189.30",
				"06. volume": "48087681",
				"07. latest trading day": "2024-02-09",
				"08. previous close": "188.32",
				"09. change": "0.98",
				"10. change percent": "0.5204%"
			}
		}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	quote, err := client.GetQuote(context.Background(), "AAPL")
	require.NoError(t, err)

	assert.Equal(t, "AAPL", quote.Symbol)
	assert.InDelta(t, 189.30, quote.Price, 0.0001)
	assert.InDelta(t, 0.5204, quote.ChangePercent, 0.0001)
	assert.Equal(t, int64(48087681), quote.Volume)
	assert.Equal(t, "alphavantage", quote.Source)
}

func TestGetQuote_RateLimitNote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Note": "Thank you for using Alpha Vantage! Our standard API rate limit is 25 requests per day."}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := client.GetQuote(context.Background(), "AAPL")
	require.Error(t, err)

	apiErr, ok := err.(*APIError)
	require.True(t, ok, "expected *APIError, got %T", err)
	assert.Contains(t, apiErr.Message, "rate limit")
}

func TestGetQuote_EmptyPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Global Quote": {}}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := client.GetQuote(context.Background(), "UNKNOWN")
	assert.Error(t, err)
}

func TestGetDailyHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "TIME_SERIES_DAILY", r.URL.Query().Get("function"))
		w.Write([]byte(`{
			"Time Series (Daily)": {
				"2024-02-07": {"1. open": "100", "2. high": "101", "3. low": "99", "4. close": "100.5", "5. volume": "1000"},
				"2024-02-09": {"1. open": "102", "2. high": "103", "3. low": "101", "4. close": "102.5", "5. volume": "1200"},
				"2024-02-08": {"1. open": "101", "2. high": "102", "3. low": "100", "4. close": "101.5", "5. volume": "1100"}
			}
		}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	history, err := client.GetDailyHistory(context.Background(), "AAPL")
	require.NoError(t, err)

	require.Len(t, history.Points, 3)
	assert.Equal(t, "2024-02-09", history.Points[0].Date.Format("2006-01-02"))
	assert.Equal(t, "2024-02-08", history.Points[1].Date.Format("2006-01-02"))
	assert.Equal(t, "2024-02-07", history.Points[2].Date.Format("2006-01-02"))
	assert.InDelta(t, 102.5, history.Points[0].Close, 0.0001)
}
