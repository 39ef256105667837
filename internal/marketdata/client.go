// Package marketdata provides the OHLCV bar feed backed by the Yahoo Finance
// chart API.
package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/alphaseeker/alphaseeker/internal/models"
	"github.com/alphaseeker/alphaseeker/internal/retry"
)

// ErrUnavailable indicates the feed returned no usable bars for a symbol.
var ErrUnavailable = errors.New("market data unavailable")

// Client provides access to the bar feed.
type Client struct {
	baseURL    string
	httpClient *http.Client
	retry      retry.Policy
}

// chartResponse mirrors the chart API envelope.
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		Symbol             string  `json:"symbol"`
		RegularMarketPrice float64 `json:"regularMarketPrice"`
	} `json:"meta"`
	Timestamps []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*float64 `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}

// NewClient creates a new market data client.
func NewClient(baseURL string, timeout time.Duration, retryPolicy retry.Policy) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		retry: retryPolicy,
	}
}

// GetBars fetches the bar series for symbol over the given lookback range
// (e.g. "6mo", "5d", "1d") at the given interval. A response with no bars
// yields ErrUnavailable rather than an empty series.
func (c *Client) GetBars(ctx context.Context, symbol, lookback string, interval models.Interval) (*models.BarSeries, error) {
	u, err := url.Parse(c.baseURL + "/v8/finance/chart/" + url.PathEscape(symbol))
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	q := u.Query()
	q.Set("range", lookback)
	q.Set("interval", string(interval))
	q.Set("includePrePost", "false")
	u.RawQuery = q.Encode()

	var decoded chartResponse
	if err := c.doRequest(ctx, u.String(), &decoded); err != nil {
		return nil, err
	}

	if decoded.Chart.Error != nil {
		return nil, fmt.Errorf("%w: %s (%s)", ErrUnavailable, symbol, decoded.Chart.Error.Code)
	}
	if len(decoded.Chart.Result) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, symbol)
	}

	series := resultToSeries(symbol, interval, decoded.Chart.Result[0])
	if series.Len() == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, symbol)
	}
	return series, nil
}

// GetLastPrice fetches the most recent closing price for symbol. It is used
// for ticker validation and single-value reads like the volatility index.
func (c *Client) GetLastPrice(ctx context.Context, symbol string) (float64, error) {
	series, err := c.GetBars(ctx, symbol, "1d", models.Interval15Min)
	if err != nil {
		return 0, err
	}
	return series.Last().Close, nil
}

// resultToSeries converts a decoded chart result into a bar series, skipping
// slots where the feed reports null prices (halts, partial sessions).
func resultToSeries(symbol string, interval models.Interval, res chartResult) *models.BarSeries {
	series := &models.BarSeries{
		Symbol:   symbol,
		Interval: interval,
		Bars:     make([]models.Bar, 0, len(res.Timestamps)),
	}
	if len(res.Indicators.Quote) == 0 {
		return series
	}
	quote := res.Indicators.Quote[0]

	for i, ts := range res.Timestamps {
		if i >= len(quote.Close) || quote.Close[i] == nil {
			continue
		}
		bar := models.Bar{
			Timestamp: time.Unix(ts, 0).UTC(),
			Close:     *quote.Close[i],
		}
		if i < len(quote.Open) && quote.Open[i] != nil {
			bar.Open = *quote.Open[i]
		} else {
			bar.Open = bar.Close
		}
		if i < len(quote.High) && quote.High[i] != nil {
			bar.High = *quote.High[i]
		} else {
			bar.High = bar.Close
		}
		if i < len(quote.Low) && quote.Low[i] != nil {
			bar.Low = *quote.Low[i]
		} else {
			bar.Low = bar.Close
		}
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			bar.Volume = *quote.Volume[i]
		}
		series.Bars = append(series.Bars, bar)
	}

	return series
}

// doRequest performs a GET with the shared retry policy and decodes the body.
func (c *Client) doRequest(ctx context.Context, urlStr string, out any) error {
	return c.retry.Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "alphaseeker/1.0")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			// Unknown symbol; retrying will not help
			return nil
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("server error: %d", resp.StatusCode)
		}

		return json.NewDecoder(resp.Body).Decode(out)
	})
}
