package telegram

import (
	"strings"
	"testing"
	"time"

	"github.com/alphaseeker/alphaseeker/internal/config"
	"github.com/alphaseeker/alphaseeker/internal/models"
)

func TestEscapeMarkdownV2(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Hello World", "Hello World"},
		{"Hello_World", "Hello\\_World"},
		{"Test*bold*", "Test\\*bold\\*"},
		{"Price: $100.50", "Price: $100\\.50"},
		{"[link](url)", "\\[link\\]\\(url\\)"},
		{"~strikethrough~", "\\~strikethrough\\~"},
		{"`code`", "\\`code\\`"},
		{">blockquote", "\\>blockquote"},
		{"#header", "\\#header"},
		{"+plus-minus", "\\+plus\\-minus"},
		{"=equal|pipe", "\\=equal\\|pipe"},
		{"{brace}", "\\{brace\\}"},
		{"end!", "end\\!"},
		{"", ""},
		{"_*[]()~`>#+-=|{}.!", "\\_\\*\\[\\]\\(\\)\\~\\`\\>\\#\\+\\-\\=\\|\\{\\}\\.\\!"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := escapeMarkdownV2(tt.input)
			if result != tt.expected {
				t.Errorf("escapeMarkdownV2(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestNewClient_InvalidChatID(t *testing.T) {
	// The bot token validation happens first (network call), so an empty
	// token is enough to exercise the error path.
	_, err := NewClient(config.TelegramConfig{
		Enabled:        true,
		BotToken:       "",
		ChatID:         "not-a-number",
		MaxRetries:     3,
		RetryDelayBase: time.Second,
	})
	if err == nil {
		t.Error("Expected error for invalid client config, got nil")
	}
}

func TestNewClient_DisabledSkipsNetwork(t *testing.T) {
	c, err := NewClient(config.TelegramConfig{Enabled: false})
	if err != nil {
		t.Fatalf("disabled client should not error: %v", err)
	}
	if !c.SendAlert(models.Alert{Symbol: "AAPL", Type: models.AlertGapUp}) {
		t.Error("disabled client should report alerts as handled")
	}
	if err := c.SendReport("hello"); err != nil {
		t.Errorf("disabled client should accept reports: %v", err)
	}
}

func TestNewClient_RetryPolicyFromConfig(t *testing.T) {
	c, err := NewClient(config.TelegramConfig{
		Enabled:        false,
		MaxRetries:     5,
		RetryDelayBase: 2 * time.Second,
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if c.retryPolicy.MaxAttempts != 5 {
		t.Errorf("retry attempts = %d, want 5", c.retryPolicy.MaxAttempts)
	}
	if c.retryPolicy.DelayBase != 2*time.Second {
		t.Errorf("retry delay base = %v, want 2s", c.retryPolicy.DelayBase)
	}
}

func TestFormatAlertSeverityHeaders(t *testing.T) {
	cases := []struct {
		severity models.Severity
		want     string
	}{
		{models.SeverityNormal, "ℹ️"},
		{models.SeverityUrgent, "⚠️"},
		{models.SeverityEmergency, "🚨"},
	}
	for _, tc := range cases {
		alert := models.Alert{
			Symbol:     "AAPL",
			Type:       models.AlertPriceCrash,
			Severity:   tc.severity,
			Side:       models.SideSell,
			Message:    "AAPL down 12.0% from previous close",
			DetectedAt: time.Now(),
		}
		text := formatAlert(alert)
		if !strings.HasPrefix(text, tc.want) {
			t.Errorf("formatAlert(%v) header = %q, want prefix %q", tc.severity, text[:12], tc.want)
		}
		if !strings.Contains(text, "AAPL") {
			t.Errorf("formatAlert missing symbol: %q", text)
		}
	}
}

func TestSplitMessage(t *testing.T) {
	short := splitMessage("one\ntwo", 100)
	if len(short) != 1 || short[0] != "one\ntwo" {
		t.Errorf("short message should pass through unchanged, got %v", short)
	}

	lines := make([]string, 50)
	for i := range lines {
		lines[i] = strings.Repeat("x", 90)
	}
	long := strings.Join(lines, "\n")

	chunks := splitMessage(long, 1000)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	var rejoined []string
	for _, chunk := range chunks {
		if len(chunk) > 1000 {
			t.Errorf("chunk length %d exceeds limit", len(chunk))
		}
		rejoined = append(rejoined, strings.Split(chunk, "\n")...)
	}
	if len(rejoined) != len(lines) {
		t.Errorf("lines after split = %d, want %d", len(rejoined), len(lines))
	}

	oversized := splitMessage(strings.Repeat("y", 2500), 1000)
	if len(oversized) != 3 {
		t.Errorf("oversized single line should hard-split into 3 chunks, got %d", len(oversized))
	}
}
