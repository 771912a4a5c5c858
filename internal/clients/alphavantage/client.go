// Package alphavantage provides a client for the Alpha Vantage API
package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/mdavenport/folio/internal/common"
	"github.com/mdavenport/folio/internal/interfaces"
	"github.com/mdavenport/folio/internal/models"
)

// flexFloat64 handles JSON values that may be either a number or a string.
// Alpha Vantage returns every numeric field as a string, and percentage
// fields carry a trailing "%".
type flexFloat64 float64

func (f *flexFloat64) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*f = flexFloat64(num)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		s = strings.TrimSuffix(strings.TrimSpace(s), "%")
		if s == "" || s == "N/A" || s == "-" {
			*f = 0
			return nil
		}
		num, err := strconv.ParseFloat(s, 64)
		if err != nil {
			*f = 0
			return nil
		}
		*f = flexFloat64(num)
		return nil
	}
	return fmt.Errorf("cannot unmarshal %s into float64", string(data))
}

const (
	DefaultBaseURL   = "https://www.alphavantage.co/query"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 5 // requests per minute on the free tier; per second here is conservative
)

// Client implements the MarketDataClient interface against Alpha Vantage.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit in requests per second
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new Alpha Vantage client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents an upstream API error
type APIError struct {
	StatusCode int
	Message    string
	Function   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Alpha Vantage API error: %s (status: %d, function: %s)", e.Message, e.StatusCode, e.Function)
}

// apiEnvelope captures the soft-error fields Alpha Vantage returns with a
// 200 status: "Error Message" for bad requests, "Note"/"Information" for
// rate limiting.
type apiEnvelope struct {
	ErrorMessage string `json:"Error Message"`
	Note         string `json:"Note"`
	Information  string `json:"Information"`
}

// get performs a rate-limited GET request for the given API function.
func (c *Client) get(ctx context.Context, function, symbol string, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	params := url.Values{}
	params.Set("function", function)
	params.Set("symbol", symbol)
	params.Set("apikey", c.apiKey)

	reqURL := fmt.Sprintf("%s?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Str("function", function).Str("symbol", symbol).Msg("Alpha Vantage API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Function:   function,
		}
	}

	var envelope apiEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.ErrorMessage != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: envelope.ErrorMessage, Function: function}
		}
		if envelope.Note != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: envelope.Note, Function: function}
		}
		if envelope.Information != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: envelope.Information, Function: function}
		}
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// globalQuoteResponse mirrors the GLOBAL_QUOTE payload.
type globalQuoteResponse struct {
	GlobalQuote struct {
		Symbol           string      `json:"01. symbol"`
		Open             flexFloat64 `json:"02. open"`
		High             flexFloat64 `json:"03. high"`
		Low              flexFloat64 `json:"04. low"`
		Price            flexFloat64 `json:"05. price"`
		Volume           flexFloat64 `json:"06. volume"`
		LatestTradingDay string      `json:"07. latest trading day"`
		PreviousClose    flexFloat64 `json:"08. previous close"`
		Change           flexFloat64 `json:"09. change"`
		ChangePercent    flexFloat64 `json:"10. change percent"`
	} `json:"Global Quote"`
}

// GetQuote retrieves a real-time quote via GLOBAL_QUOTE.
func (c *Client) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	var resp globalQuoteResponse
	if err := c.get(ctx, "GLOBAL_QUOTE", symbol, &resp); err != nil {
		return nil, err
	}

	gq := resp.GlobalQuote
	if gq.Symbol == "" {
		return nil, &APIError{StatusCode: http.StatusOK, Message: fmt.Sprintf("no quote data for symbol %s", symbol), Function: "GLOBAL_QUOTE"}
	}

	return &models.Quote{
		Symbol:           gq.Symbol,
		Price:            float64(gq.Price),
		Change:           float64(gq.Change),
		ChangePercent:    float64(gq.ChangePercent),
		Volume:           int64(gq.Volume),
		PreviousClose:    float64(gq.PreviousClose),
		LatestTradingDay: gq.LatestTradingDay,
		FetchedAt:        time.Now(),
		Source:           "alphavantage",
	}, nil
}

// dailyBar mirrors one bar in the TIME_SERIES_DAILY payload.
type dailyBar struct {
	Open   flexFloat64 `json:"1. open"`
	High   flexFloat64 `json:"2. high"`
	Low    flexFloat64 `json:"3. low"`
	Close  flexFloat64 `json:"4. close"`
	Volume flexFloat64 `json:"5. volume"`
}

type dailySeriesResponse struct {
	TimeSeries map[string]dailyBar `json:"Time Series (Daily)"`
}

// GetDailyHistory retrieves the daily price series via TIME_SERIES_DAILY,
// ordered most recent first.
func (c *Client) GetDailyHistory(ctx context.Context, symbol string) (*models.HistoricalData, error) {
	var resp dailySeriesResponse
	if err := c.get(ctx, "TIME_SERIES_DAILY", symbol, &resp); err != nil {
		return nil, err
	}

	if len(resp.TimeSeries) == 0 {
		return nil, &APIError{StatusCode: http.StatusOK, Message: fmt.Sprintf("no daily series for symbol %s", symbol), Function: "TIME_SERIES_DAILY"}
	}

	points := make([]models.PricePoint, 0, len(resp.TimeSeries))
	for dateStr, bar := range resp.TimeSeries {
		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			continue
		}
		points = append(points, models.PricePoint{
			Date:   date,
			Open:   float64(bar.Open),
			High:   float64(bar.High),
			Low:    float64(bar.Low),
			Close:  float64(bar.Close),
			Volume: int64(bar.Volume),
		})
	}

	sort.Slice(points, func(i, j int) bool {
		return points[i].Date.After(points[j].Date)
	})

	return &models.HistoricalData{
		Symbol: symbol,
		Points: points,
	}, nil
}

// Ensure Client implements MarketDataClient
var _ interfaces.MarketDataClient = (*Client)(nil)
