package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Channel selects one of the configured webhook destinations.
type Channel string

const (
	// ChannelPrimary carries full alert messages including the transaction hash.
	ChannelPrimary Channel = "primary"
	// ChannelResults carries the condensed alert variant.
	ChannelResults Channel = "results"
	// ChannelErrors carries diagnostics.
	ChannelErrors Channel = "errors"
)

const (
	colorInfo  = 0x3498DB
	colorError = 0xFF0000
)

// Notifier 定义告警输送接口。
type Notifier interface {
	Notify(ctx context.Context, message string, channel Channel) error
	NotifyException(ctx context.Context, cause error)
}

// DiscordNotifier 通过 Discord webhook 推送 embed 消息。
type DiscordNotifier struct {
	urls   map[Channel]string
	client *http.Client
	logger zerolog.Logger
}

// Options hold the per-channel webhook URLs.
type Options struct {
	WebhookURL        string
	ResultsWebhookURL string
	ErrorsWebhookURL  string
	Timeout           time.Duration
}

// NewDiscordNotifier 构造 Discord 告警器。
func NewDiscordNotifier(opts Options, logger zerolog.Logger) *DiscordNotifier {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &DiscordNotifier{
		urls: map[Channel]string{
			ChannelPrimary: opts.WebhookURL,
			ChannelResults: opts.ResultsWebhookURL,
			ChannelErrors:  opts.ErrorsWebhookURL,
		},
		client: &http.Client{Timeout: timeout},
		logger: logger.With().Str("component", "alert_discord").Logger(),
	}
}

type embed struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description"`
	Color       int    `json:"color"`
}

type webhookPayload struct {
	Embeds []embed `json:"embeds"`
}

// Notify posts an informational embed to the channel's webhook. Discord
// acknowledges with 204; anything else is a delivery failure.
func (n *DiscordNotifier) Notify(ctx context.Context, message string, channel Channel) error {
	return n.post(ctx, channel, webhookPayload{
		Embeds: []embed{{Description: message, Color: colorInfo}},
	})
}

// NotifyException delivers a diagnostic embed to the errors channel. A failure
// while reporting a failure is logged and swallowed so it can never raise.
func (n *DiscordNotifier) NotifyException(ctx context.Context, cause error) {
	if cause == nil {
		n.logger.Error().Msg("notify exception called without a cause")
		return
	}

	payload := webhookPayload{
		Embeds: []embed{{
			Title:       "Exception Occurred",
			Description: fmt.Sprintf("```%s```", renderErrorChain(cause)),
			Color:       colorError,
		}},
	}

	if err := n.post(ctx, ChannelErrors, payload); err != nil {
		n.logger.Error().Err(err).Str("cause", cause.Error()).Msg("failed to deliver exception report")
	}
}

func (n *DiscordNotifier) post(ctx context.Context, channel Channel, payload webhookPayload) error {
	url := n.urls[channel]
	if url == "" {
		return fmt.Errorf("no webhook configured for channel %q", channel)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("discord 响应码异常: %d", resp.StatusCode)
	}

	n.logger.Debug().Str("channel", string(channel)).Msg("告警已发送 (Discord)")
	return nil
}

// renderErrorChain prints the cause and each wrapped error on its own line.
func renderErrorChain(cause error) string {
	builder := strings.Builder{}
	for depth := 0; cause != nil; depth++ {
		if depth > 0 {
			builder.WriteString("\ncaused by: ")
		}
		builder.WriteString(cause.Error())
		cause = errors.Unwrap(cause)
	}
	return builder.String()
}

var _ Notifier = (*DiscordNotifier)(nil)
