// Package advisor obtains stock candidates from an LLM research API and
// extracts ticker symbols from its answers.
package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/alphaseeker/alphaseeker/internal/config"
	"github.com/alphaseeker/alphaseeker/internal/retry"
)

// Client talks to an OpenAI-compatible chat-completions endpoint.
type Client struct {
	apiURL      string
	apiKey      string
	model       string
	temperature float64
	maxTokens   int
	enabled     bool
	retryPolicy retry.Policy
	httpClient  *http.Client
}

// NewClient creates a client from the advisor section of the configuration.
func NewClient(cfg config.AdvisorConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		apiURL:      cfg.APIURL,
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		enabled:     cfg.Enabled,
		retryPolicy: retry.Policy{
			MaxAttempts: cfg.MaxRetries,
			DelayBase:   cfg.RetryDelayBase,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether the advisor is configured for live queries.
func (c *Client) Enabled() bool {
	return c.enabled && c.apiKey != ""
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Ask sends one prompt and returns the completion text.
func (c *Client) Ask(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if !c.Enabled() {
		return "", fmt.Errorf("advisor is disabled")
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	// Transport failures, 429 and 5xx go through the shared retry policy;
	// other client errors are terminal.
	var answer string
	var terminal error
	err = c.retryPolicy.Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("advisor request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			statusErr := fmt.Errorf("advisor returned status %d: %s", resp.StatusCode, string(data))
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				return statusErr
			}
			terminal = statusErr
			return nil
		}

		var parsed chatResponse
		if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
			return fmt.Errorf("failed to decode advisor response: %w", err)
		}
		if len(parsed.Choices) == 0 {
			terminal = fmt.Errorf("advisor returned no choices")
			return nil
		}
		answer = parsed.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return "", err
	}
	if terminal != nil {
		return "", terminal
	}
	return answer, nil
}

// ProposeCandidates asks for today's momentum candidates and returns the
// answer text for extraction and reporting.
func (c *Client) ProposeCandidates(ctx context.Context, maxTickers int) (string, error) {
	system := "You are a US equity research assistant. Answer concisely and " +
		"always write ticker symbols in the form NASDAQ:XXXX or NYSE:XXXX."
	user := fmt.Sprintf(
		"List up to %d US-listed stocks with unusual momentum or news catalysts "+
			"today, one line each with the ticker and a one-sentence reason.",
		maxTickers)
	return c.Ask(ctx, system, user)
}

// WeeklyOutlook asks for a short strategy note for the week ahead.
func (c *Client) WeeklyOutlook(ctx context.Context) (string, error) {
	system := "You are a US equity strategist. Answer in short Markdown sections."
	user := "Summarize the market outlook for the coming week: key macro events, " +
		"sector rotation, and the main risks to watch."
	return c.Ask(ctx, system, user)
}

var (
	exchangePattern = regexp.MustCompile(`(?:NYSE|NASDAQ|AMEX)[:\s]+([A-Z]{1,5})\b`)
	dollarPattern   = regexp.MustCompile(`\$([A-Z]{1,5})\b`)
	parenPattern    = regexp.MustCompile(`\(([A-Z]{1,5})\)`)
	barePattern     = regexp.MustCompile(`\b([A-Z]{2,5})\b`)
)

// Common capitalized words that look like tickers but never are.
var tickerStopWords = map[string]bool{
	"THE": true, "AND": true, "FOR": true, "ARE": true, "BUT": true,
	"NOT": true, "YOU": true, "ALL": true, "CAN": true, "NEW": true,
	"TOP": true, "NOW": true, "BUY": true, "SELL": true, "HOLD": true,
	"CEO": true, "CFO": true, "IPO": true, "ETF": true, "SEC": true,
	"FDA": true, "GDP": true, "CPI": true, "FED": true, "USA": true,
	"USD": true, "NYSE": true, "AI": true, "IT": true, "US": true,
	"EPS": true, "ATH": true, "YTD": true, "EV": true, "PE": true,
	"AM": true, "PM": true, "EST": true, "ET": true,
}

// ExtractTickers pulls candidate ticker symbols out of free-form advisor
// text. Exchange-prefixed, dollar-prefixed, and parenthesized symbols are
// trusted; bare capitalized words pass only the stop-word filter and still
// need validation against the market data feed.
func ExtractTickers(text string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(symbol string) {
		if symbol == "" || tickerStopWords[symbol] || seen[symbol] {
			return
		}
		seen[symbol] = true
		out = append(out, symbol)
	}

	for _, pattern := range []*regexp.Regexp{exchangePattern, dollarPattern, parenPattern} {
		for _, m := range pattern.FindAllStringSubmatch(text, -1) {
			add(m[1])
		}
	}

	// Only scan bare words when the explicit forms found nothing, to keep
	// prose from flooding the candidate list. Order follows first mention,
	// which preserves the advisor's own ranking.
	if len(out) == 0 {
		for _, m := range barePattern.FindAllStringSubmatch(text, -1) {
			add(m[1])
		}
	}

	return out
}

// Summary truncates advisor text for storage in a cycle snapshot.
func Summary(text string, maxLen int) string {
	text = strings.TrimSpace(text)
	if len(text) <= maxLen {
		return text
	}
	return text[:maxLen] + "…"
}
