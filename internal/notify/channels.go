package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"time"

	"github.com/alanyoungcy/impactsim/internal/domain"
)

const (
	telegramAPI = "https://api.telegram.org"
	sendTimeout = 10 * time.Second
)

// severityColors are Discord embed colours, indexed by risk level.
var severityColors = [...]int{
	domain.RiskMinimal:  0x95a5a6,
	domain.RiskLow:      0x2ecc71,
	domain.RiskModerate: 0xf1c40f,
	domain.RiskHigh:     0xe67e22,
	domain.RiskExtreme:  0xe74c3c,
}

func colorFor(level domain.RiskLevel) int {
	if level < 0 || int(level) >= len(severityColors) {
		return severityColors[domain.RiskMinimal]
	}
	return severityColors[level]
}

// DiscordSender posts alerts as embeds to a Discord webhook.
type DiscordSender struct {
	webhookURL string
	client     *http.Client
}

func NewDiscordSender(webhookURL string) *DiscordSender {
	return &DiscordSender{webhookURL: webhookURL, client: &http.Client{Timeout: sendTimeout}}
}

func (d *DiscordSender) Name() string { return "discord" }

func (d *DiscordSender) Send(ctx context.Context, a Alert) error {
	payload := map[string]any{
		"embeds": []map[string]any{{
			"title":       a.Title,
			"description": a.Body,
			"color":       colorFor(a.Severity),
			"footer":      map[string]string{"text": a.Event},
		}},
		"allowed_mentions": map[string]any{"parse": []string{}},
	}
	return postJSON(ctx, d.client, d.webhookURL, payload)
}

// TelegramSender delivers alerts through the Bot API sendMessage method
// using HTML formatting.
type TelegramSender struct {
	apiURL string
	token  string
	chatID string
	client *http.Client
}

func NewTelegramSender(token, chatID string) *TelegramSender {
	return &TelegramSender{
		apiURL: telegramAPI,
		token:  token,
		chatID: chatID,
		client: &http.Client{Timeout: sendTimeout},
	}
}

func (t *TelegramSender) Name() string { return "telegram" }

func (t *TelegramSender) Send(ctx context.Context, a Alert) error {
	text := fmt.Sprintf("<b>%s</b>\n%s", html.EscapeString(a.Title), html.EscapeString(a.Body))
	if a.Severity >= domain.RiskHigh {
		text = "[" + a.Severity.String() + "] " + text
	}
	payload := map[string]any{
		"chat_id":              t.chatID,
		"text":                 text,
		"parse_mode":           "HTML",
		"disable_notification": a.Severity < domain.RiskModerate,
	}
	url := fmt.Sprintf("%s/bot%s/sendMessage", t.apiURL, t.token)
	return postJSON(ctx, t.client, url, payload)
}

// postJSON POSTs payload and treats any non-2xx response as an error that
// quotes the start of the body.
func postJSON(ctx context.Context, client *http.Client, url string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, snippet)
	}
	return nil
}
