package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"drspark-watcher/config"
	"drspark-watcher/models"
	"drspark-watcher/utils"
)

const (
	maxAttempts  = 3
	embedColor   = 0xFF8C8C
	snippetLimit = 300
)

// State classifies the outcome of a Notify call.
type State int

const (
	// StateSkipped means no webhook is configured; nothing was attempted.
	StateSkipped State = iota
	// StateDelivered means Discord accepted the message.
	StateDelivered
	// StateFailed means every attempt failed; Result.Err carries the cause.
	StateFailed
)

// Result is the tagged outcome of a delivery. Skipped and Failed are distinct
// on purpose: a missing webhook disables notification, it does not fail it.
type Result struct {
	State State
	Err   error
}

// DeliveryError is the final failure after the retry budget is exhausted.
type DeliveryError struct {
	Attempts int
	Err      error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("discord delivery failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Notifier delivers one item per call to a Discord webhook as an embed.
type Notifier struct {
	webhookURL string
	http       *http.Client
	logger     *utils.Logger

	// sleep is replaceable in tests so back-off doesn't slow them down.
	sleep func(time.Duration)
}

// NewNotifier creates a Notifier from config. An empty webhook URL is valid
// and turns every Notify call into a logged no-op.
func NewNotifier(cfg *config.Config, logger *utils.Logger) *Notifier {
	return &Notifier{
		webhookURL: cfg.DiscordWebhookURL,
		http:       &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
		sleep:      time.Sleep,
	}
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type embedThumbnail struct {
	URL string `json:"url"`
}

type embed struct {
	Title     string          `json:"title"`
	URL       string          `json:"url"`
	Color     int             `json:"color"`
	Fields    []embedField    `json:"fields"`
	Thumbnail *embedThumbnail `json:"thumbnail,omitempty"`
}

type webhookPayload struct {
	Content *string `json:"content"`
	Embeds  []embed `json:"embeds"`
}

// Notify delivers the item. Per call: up to 3 attempts; 2xx/204 is success;
// 429 sleeps the server-provided retry_after plus a margin before the next
// attempt; any other failure backs off 1.5s × attempt. The same payload is
// sent on every attempt.
func (n *Notifier) Notify(item *models.Item) Result {
	if n.webhookURL == "" {
		n.logger.Warn("DISCORD_WEBHOOK_URL is not set; skipping notification for '%s'", item.Title)
		return Result{State: StateSkipped}
	}

	body, err := json.Marshal(n.buildPayload(item))
	if err != nil {
		return Result{State: StateFailed, Err: &DeliveryError{Attempts: 0, Err: err}}
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		n.logger.Info("[discord] send attempt %d/%d | '%s'", attempt, maxAttempts, item.Title)

		resp, err := n.http.Post(n.webhookURL, "application/json", bytes.NewReader(body))
		if err != nil {
			lastErr = err
			n.logger.Error("[discord] POST failed (attempt %d/%d) for '%s': %v",
				attempt, maxAttempts, item.Title, err)
			if attempt < maxAttempts {
				n.sleep(time.Duration(1500*attempt) * time.Millisecond)
			}
			continue
		}

		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		code := resp.StatusCode

		if code == http.StatusNoContent || (code >= 200 && code < 300) {
			n.logger.Info("[discord] sent OK (%d): '%s'", code, item.Title)
			return Result{State: StateDelivered}
		}

		if code == http.StatusTooManyRequests {
			wait := parseRetryAfter(respBody)
			n.logger.Warn("[discord] rate limited 429: retry_after=%.2fs (attempt %d)", wait, attempt)
			n.sleep(time.Duration((wait + 0.25) * float64(time.Second)))
			lastErr = fmt.Errorf("rate limited (http 429)")
			continue
		}

		snippet := truncate(string(respBody), snippetLimit)
		n.logger.Error("[discord] HTTP %d for '%s': body[:%d]=%s", code, item.Title, snippetLimit, snippet)
		lastErr = fmt.Errorf("http %d: %s", code, snippet)
		if attempt < maxAttempts {
			n.sleep(time.Duration(1500*attempt) * time.Millisecond)
		}
	}

	return Result{State: StateFailed, Err: &DeliveryError{Attempts: maxAttempts, Err: lastErr}}
}

func (n *Notifier) buildPayload(item *models.Item) webhookPayload {
	price := item.Price
	if price == "" {
		price = "—"
	}
	status := strings.Join(item.Status, " / ")
	if status == "" {
		status = "—"
	}

	date := time.Unix(item.Date, 0).Format("2006-01-02 15:04:05")
	parts := make([]string, 0, 2)
	if item.Author != "" {
		parts = append(parts, item.Author)
	}
	parts = append(parts, date)
	authorTime := strings.Join(parts, " · ")

	e := embed{
		Title: strings.TrimSpace(item.Title),
		URL:   item.URL,
		Color: embedColor,
		Fields: []embedField{
			{Name: "가격", Value: price, Inline: true},
			{Name: "상태", Value: status, Inline: true},
			{Name: "작성자/시간", Value: authorTime, Inline: false},
		},
	}
	if item.Thumb != "" {
		e.Thumbnail = &embedThumbnail{URL: item.Thumb}
	}

	return webhookPayload{Content: nil, Embeds: []embed{e}}
}

// parseRetryAfter reads Discord's JSON rate-limit body. The value is in
// seconds; an unparsable or missing body falls back to 1.0.
func parseRetryAfter(body []byte) float64 {
	var data struct {
		RetryAfter float64 `json:"retry_after"`
	}
	if err := json.Unmarshal(body, &data); err != nil || data.RetryAfter <= 0 {
		return 1.0
	}
	return data.RetryAfter
}

func truncate(s string, limit int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) > limit {
		r = r[:limit]
	}
	return string(r)
}
