// Package telegram delivers alerts and cycle reports via the Telegram Bot API.
package telegram

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/alphaseeker/alphaseeker/internal/config"
	"github.com/alphaseeker/alphaseeker/internal/logger"
	"github.com/alphaseeker/alphaseeker/internal/models"
	"github.com/alphaseeker/alphaseeker/internal/retry"
)

// Telegram rejects messages longer than this many characters.
const maxMessageLen = 4096

// Client sends notifications to a single chat. A disabled client logs
// messages instead of sending them.
type Client struct {
	bot          *tgbotapi.BotAPI
	chatID       int64
	enabled      bool
	retryPolicy  retry.Policy
	fallbackPath string
}

// NewClient creates a client from the Telegram section of the configuration.
// With Enabled false no network connection is made.
func NewClient(cfg config.TelegramConfig) (*Client, error) {
	c := &Client{
		enabled: cfg.Enabled,
		retryPolicy: retry.Policy{
			MaxAttempts: cfg.MaxRetries,
			DelayBase:   cfg.RetryDelayBase,
		},
		fallbackPath: cfg.FallbackPath,
	}
	if !cfg.Enabled {
		return c, nil
	}

	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}
	chatID, err := strconv.ParseInt(cfg.ChatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}
	c.bot = bot
	c.chatID = chatID
	return c, nil
}

// ListenForCommands starts a goroutine that polls for bot commands.
// It returns immediately; the goroutine stops when ctx is cancelled.
func (c *Client) ListenForCommands(ctx context.Context) {
	if !c.enabled {
		return
	}
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := c.bot.GetUpdatesChan(u)

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.bot.StopReceivingUpdates()
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				if update.Message != nil && update.Message.IsCommand() {
					c.handleCommand(update.Message)
				}
			}
		}
	}()
}

func (c *Client) handleCommand(msg *tgbotapi.Message) {
	switch msg.Command() {
	case "ping":
		reply := tgbotapi.NewMessage(msg.Chat.ID, "Pong")
		c.bot.Send(reply) //nolint:errcheck
	}
}

// SendAlert formats and delivers one risk alert. It reports whether delivery
// succeeded; on final failure the alert is appended to the fallback log so
// the miss remains auditable.
func (c *Client) SendAlert(alert models.Alert) bool {
	if !c.enabled {
		logger.Info("Alert (telegram disabled): %s %s", alert.Key(), alert.Message)
		return true
	}
	if err := c.sendMarkdownV2(formatAlert(alert)); err != nil {
		logger.Error("Failed to deliver alert %s: %v", alert.Key(), err)
		c.appendFallback(alert)
		return false
	}
	return true
}

// SendReport delivers a Markdown report, split into chunks under the message
// size limit.
func (c *Client) SendReport(report string) error {
	if !c.enabled {
		logger.Info("Report (telegram disabled):\n%s", report)
		return nil
	}
	for _, chunk := range splitMessage(escapeMarkdownV2(report), maxMessageLen) {
		if err := c.sendMarkdownV2(chunk); err != nil {
			return err
		}
	}
	return nil
}

// SendError sends a cycle error notification.
// Call this only on the first occurrence of a consecutive error sequence.
func (c *Client) SendError(cycleErr error) error {
	if !c.enabled {
		return nil
	}
	text := fmt.Sprintf("⚠️ *Cycle error*\n`%s`", escapeMarkdownV2(cycleErr.Error()))
	return c.sendMarkdownV2(text)
}

// sendMarkdownV2 sends a MarkdownV2 message under the shared retry policy.
func (c *Client) sendMarkdownV2(text string) error {
	msg := tgbotapi.NewMessage(c.chatID, text)
	msg.ParseMode = "MarkdownV2"

	return c.retryPolicy.Do(context.Background(), func() error {
		_, err := c.bot.Send(msg)
		return err
	})
}

// appendFallback records an undelivered alert in the local fallback log.
func (c *Client) appendFallback(alert models.Alert) {
	if c.fallbackPath == "" {
		return
	}
	f, err := os.OpenFile(c.fallbackPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		logger.Error("Failed to open fallback log: %v", err)
		return
	}
	defer f.Close()
	line := fmt.Sprintf("%s\t%s\t%s\t%s\n",
		alert.DetectedAt.Format(time.RFC3339), alert.Key(), alert.Severity, alert.Message)
	if _, err := f.WriteString(line); err != nil {
		logger.Error("Failed to write fallback log: %v", err)
	}
}

// formatAlert renders one alert with a severity-tiered header.
func formatAlert(alert models.Alert) string {
	header := "ℹ️ *Alert*"
	switch alert.Severity {
	case models.SeverityUrgent:
		header = "⚠️ *Urgent alert*"
	case models.SeverityEmergency:
		header = "🚨 *EMERGENCY*"
	}

	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("*%s* %s\n", escapeMarkdownV2(alert.Symbol), escapeMarkdownV2(string(alert.Type))))
	b.WriteString(escapeMarkdownV2(alert.Message))
	b.WriteString("\n")
	if alert.Side != "" {
		b.WriteString(fmt.Sprintf("Suggested side: %s\n", escapeMarkdownV2(string(alert.Side))))
	}
	b.WriteString(fmt.Sprintf("Detected: %s", escapeMarkdownV2(alert.DetectedAt.Format("2006-01-02 15:04:05"))))
	return b.String()
}

// splitMessage splits text into chunks no longer than limit, preferring line
// boundaries.
func splitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder
	for _, line := range strings.Split(text, "\n") {
		// A single oversized line is hard-split.
		for len(line) > limit {
			if current.Len() > 0 {
				chunks = append(chunks, current.String())
				current.Reset()
			}
			chunks = append(chunks, line[:limit])
			line = line[limit:]
		}
		if current.Len()+len(line)+1 > limit {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString("\n")
		}
		current.WriteString(line)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2.
func escapeMarkdownV2(text string) string {
	var b strings.Builder
	b.Grow(len(text) + len(text)/4) // pre-allocate with room for escapes
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!':
			b.WriteByte('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}
