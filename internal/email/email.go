// Package email delivers transactional mail through a Brevo (Sendinblue)
// shaped HTTP API.
package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"placement-service/internal/config"
)

type Address struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

type Message struct {
	Sender      Address   `json:"sender"`
	To          []Address `json:"to"`
	Subject     string    `json:"subject"`
	HTMLContent string    `json:"htmlContent"`
}

// Sender sends one HTML email.
type Sender interface {
	Send(ctx context.Context, to Address, subject, htmlBody string) error
}

type Client struct {
	http    *http.Client
	apiKey  string
	baseURL string
	from    Address
}

func NewClient(cfg config.EmailConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		from:    Address{Name: cfg.SenderName, Email: cfg.SenderAddress},
	}
}

// NewSender returns the API client, or a LogSender when no API key is set.
func NewSender(cfg config.EmailConfig, logger *slog.Logger) Sender {
	if cfg.APIKey == "" {
		logger.Warn("email api key not configured, emails will only be logged")
		return NewLogSender(logger)
	}
	return NewClient(cfg)
}

func (c *Client) Send(ctx context.Context, to Address, subject, htmlBody string) error {
	body, err := json.Marshal(Message{
		Sender:      c.from,
		To:          []Address{to},
		Subject:     subject,
		HTMLContent: htmlBody,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v3/smtp/email", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		errBody, err := io.ReadAll(io.LimitReader(res.Body, 4096))
		if err != nil {
			errBody = []byte("unable to read body")
		}
		return fmt.Errorf("got status code %d when sending email: %s", res.StatusCode, errBody)
	}
	return nil
}

// LogSender writes emails to the log instead of sending them.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, to Address, subject, _ string) error {
	s.logger.InfoContext(ctx, "email (not sent)", "to", to.Email, "subject", subject)
	return nil
}
