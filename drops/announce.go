package drops

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	"cosmossdk.io/log"

	"github.com/crptomonkeys/greenwiz/lib"
)

// ConsoleAnnouncer logs announcements and prints deliveries to out, for
// operators running drops from a terminal.
type ConsoleAnnouncer struct {
	out    io.Writer
	mu     sync.Mutex
	logger log.Logger
}

func NewConsoleAnnouncer(out io.Writer, logger log.Logger) *ConsoleAnnouncer {
	return &ConsoleAnnouncer{out: out, logger: logger.With("module", "announce")}
}

func (c *ConsoleAnnouncer) Announce(_ context.Context, destination, text string) error {
	c.logger.Info("announcement", "destination", destination, "text", text)
	return nil
}

func (c *ConsoleAnnouncer) Deliver(_ context.Context, recipient Recipient, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintf(c.out, "--- message for %s (%s) ---\n%s\n", recipient.Name, recipient.ID, text)
	return err
}

// WebhookAnnouncer posts announcements to a chat webhook as {"content": text}.
// Deliveries carry private claim keys and go to the fallback instead.
type WebhookAnnouncer struct {
	url      string
	http     *http.Client
	fallback Announcer
}

func NewWebhookAnnouncer(url string, httpClient *http.Client, fallback Announcer) *WebhookAnnouncer {
	return &WebhookAnnouncer{url: url, http: httpClient, fallback: fallback}
}

type webhookMessage struct {
	Content     string `json:"content"`
	Destination string `json:"destination,omitempty"`
}

func (w *WebhookAnnouncer) Announce(ctx context.Context, destination, text string) error {
	resp, err := lib.HTTPPostJSON(ctx, w.http, w.url, webhookMessage{Content: text, Destination: destination})
	if err != nil {
		return fmt.Errorf("failed to post announcement: %w", err)
	}
	if !resp.OK() {
		return fmt.Errorf("announcement webhook answered %d", resp.Code)
	}
	return nil
}

func (w *WebhookAnnouncer) Deliver(ctx context.Context, recipient Recipient, text string) error {
	return w.fallback.Deliver(ctx, recipient, text)
}
