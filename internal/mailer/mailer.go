// Package mailer sends transactional email through the Resend HTTP API.
package mailer

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	defaultBaseURL = "https://api.resend.com"
	defaultFrom    = "Tixgo <tickets@tixgo.dev>"
)

// ErrDisabled is returned by Send when no API key is configured. The
// message is logged instead of delivered.
var ErrDisabled = errors.New("email delivery disabled")

type Config struct {
	// APIKey empty switches the client to log-only mode.
	APIKey  string
	From    string
	BaseURL string
	Timeout time.Duration
}

type Attachment struct {
	Filename string
	Content  []byte
}

type Message struct {
	To          string
	Subject     string
	HTML        string
	Text        string
	Attachments []Attachment
}

type resendAttachment struct {
	Filename string `json:"filename"`
	// base64 encoded
	Content string `json:"content"`
}

type resendEmail struct {
	From        string             `json:"from"`
	To          []string           `json:"to"`
	Subject     string             `json:"subject"`
	HTML        string             `json:"html"`
	Text        string             `json:"text,omitempty"`
	Attachments []resendAttachment `json:"attachments,omitempty"`
}

type Client struct {
	cfg  Config
	http *http.Client
	log  *slog.Logger
}

func New(cfg Config, log *slog.Logger) *Client {
	if cfg.From == "" {
		cfg.From = defaultFrom
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  log.With(slog.String("component", "mailer")),
	}
}

// Send delivers msg. Without an API key the message is only logged and
// ErrDisabled is returned.
func (c *Client) Send(ctx context.Context, msg Message) error {
	const op = "mailer.Client.Send"

	if msg.To == "" {
		return fmt.Errorf("%s: empty recipient", op)
	}

	if c.cfg.APIKey == "" {
		c.log.Warn("no api key, email not sent",
			slog.String("to", msg.To),
			slog.String("subject", msg.Subject),
			slog.Int("attachments", len(msg.Attachments)),
		)
		return fmt.Errorf("%s: %w", op, ErrDisabled)
	}

	payload := resendEmail{
		From:    c.cfg.From,
		To:      []string{msg.To},
		Subject: msg.Subject,
		HTML:    msg.HTML,
		Text:    msg.Text,
	}
	for _, a := range msg.Attachments {
		payload.Attachments = append(payload.Attachments, resendAttachment{
			Filename: a.Filename,
			Content:  base64.StdEncoding.EncodeToString(a.Content),
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s: resend: %s: %s", op, resp.Status, bytes.TrimSpace(snippet))
	}

	c.log.Info("email sent", slog.String("to", msg.To))

	return nil
}
