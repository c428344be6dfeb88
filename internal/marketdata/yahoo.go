package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

const defaultYahooBaseURL = "https://query1.finance.yahoo.com"

// YahooConfig holds configuration for the Yahoo Finance chart-API client.
type YahooConfig struct {
	Symbol         string
	BaseURL        string
	TimeoutSeconds int
}

// YahooClient implements Provider against the Yahoo Finance v8 chart API.
type YahooClient struct {
	symbol     string
	baseURL    string
	httpClient *http.Client
}

// NewYahooClient creates a Yahoo Finance client for one symbol.
func NewYahooClient(config YahooConfig) (*YahooClient, error) {
	if config.Symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	if config.BaseURL == "" {
		config.BaseURL = defaultYahooBaseURL
	}
	if config.TimeoutSeconds <= 0 {
		config.TimeoutSeconds = 10
	}

	return &YahooClient{
		symbol:  config.Symbol,
		baseURL: config.BaseURL,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
	}, nil
}

// chartResponse mirrors the subset of the v8 chart envelope we read.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice *float64 `json:"regularMarketPrice"`
				PreviousClose      *float64 `json:"previousClose"`
				ChartPreviousClose *float64 `json:"chartPreviousClose"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Quote fetches the current price, falling back through the previous-close
// fields the way the chart API populates them off-hours.
func (c *YahooClient) Quote(ctx context.Context) (decimal.Decimal, error) {
	params := url.Values{}
	params.Set("interval", "1d")
	params.Set("range", "1d")

	resp, err := c.fetchChart(ctx, params)
	if err != nil {
		return decimal.Zero, err
	}

	meta := resp.Chart.Result[0].Meta
	for _, candidate := range []*float64{meta.RegularMarketPrice, meta.PreviousClose, meta.ChartPreviousClose} {
		if candidate != nil {
			return decimal.NewFromFloat(*candidate), nil
		}
	}
	return decimal.Zero, fmt.Errorf("quote for %s: %w", c.symbol, ErrNoData)
}

// History fetches daily bars for a provider range such as "5d" or "1mo".
func (c *YahooClient) History(ctx context.Context, rng string) ([]Bar, error) {
	params := url.Values{}
	params.Set("interval", "1d")
	params.Set("range", rng)

	resp, err := c.fetchChart(ctx, params)
	if err != nil {
		return nil, err
	}

	bars := extractBars(resp)
	if len(bars) == 0 {
		return nil, fmt.Errorf("history for %s range %s: %w", c.symbol, rng, ErrNoData)
	}
	return bars, nil
}

// DailyBar fetches exactly one trading day.
func (c *YahooClient) DailyBar(ctx context.Context, date time.Time) (*Bar, error) {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)

	params := url.Values{}
	params.Set("interval", "1d")
	params.Set("period1", strconv.FormatInt(start.Unix(), 10))
	params.Set("period2", strconv.FormatInt(end.Unix(), 10))

	resp, err := c.fetchChart(ctx, params)
	if err != nil {
		return nil, err
	}

	bars := extractBars(resp)
	if len(bars) == 0 {
		return nil, fmt.Errorf("daily bar for %s on %s: %w", c.symbol, start.Format("2006-01-02"), ErrNoData)
	}
	bar := bars[0]
	bar.Date = start
	return &bar, nil
}

func (c *YahooClient) fetchChart(ctx context.Context, params url.Values) (*chartResponse, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(c.symbol), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build chart request: %w", err)
	}
	req.Header.Set("User-Agent", "crwv-tracker/1.0")

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch chart data: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("chart request for %s returned status %d", c.symbol, httpResp.StatusCode)
	}

	var resp chartResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("failed to decode chart response: %w", err)
	}

	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("chart API error for %s: %s (%s)", c.symbol, resp.Chart.Error.Description, resp.Chart.Error.Code)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("chart response for %s: %w", c.symbol, ErrNoData)
	}
	return &resp, nil
}

// extractBars flattens the parallel timestamp/quote arrays, skipping rows
// the API padded with nulls.
func extractBars(resp *chartResponse) []Bar {
	result := resp.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil
	}
	quote := result.Indicators.Quote[0]

	var bars []Bar
	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) || quote.Close[i] == nil {
			continue
		}
		bar := Bar{
			Date:  time.Unix(ts, 0).UTC(),
			Close: decimal.NewFromFloat(*quote.Close[i]),
		}
		if i < len(quote.Open) && quote.Open[i] != nil {
			bar.Open = decimal.NewFromFloat(*quote.Open[i])
		}
		if i < len(quote.High) && quote.High[i] != nil {
			bar.High = decimal.NewFromFloat(*quote.High[i])
		}
		if i < len(quote.Low) && quote.Low[i] != nil {
			bar.Low = decimal.NewFromFloat(*quote.Low[i])
		}
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			bar.Volume = *quote.Volume[i]
		}
		bars = append(bars, bar)
	}
	return bars
}
