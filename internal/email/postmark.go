// Package email sends transactional mail through the Postmark HTTP API.
package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const defaultAPIURL = "https://api.postmarkapp.com/email"

type Client struct {
	serverToken string
	fromEmail   string
	apiURL      string
	httpClient  *http.Client
	logger      *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithAPIURL points the client at another endpoint, e.g. a test server.
func WithAPIURL(url string) Option {
	return func(cl *Client) {
		cl.apiURL = url
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(cl *Client) {
		cl.logger = l
	}
}

func NewClient(serverToken, fromEmail string, opts ...Option) *Client {
	c := &Client{
		serverToken: serverToken,
		fromEmail:   fromEmail,
		apiURL:      defaultAPIURL,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "email")
	return c
}

// Configured reports whether a server token is set.
func (c *Client) Configured() bool {
	return c.serverToken != ""
}

type postmarkEmail struct {
	From          string `json:"From"`
	To            string `json:"To"`
	Subject       string `json:"Subject"`
	HtmlBody      string `json:"HtmlBody"`
	TextBody      string `json:"TextBody"`
	MessageStream string `json:"MessageStream"`
}

type postmarkError struct {
	ErrorCode int    `json:"ErrorCode"`
	Message   string `json:"Message"`
}

// SendPasswordReset mails the reset link to a staff member. Without a server
// token the link is only logged, so a local install can still reset
// passwords from the console.
func (c *Client) SendPasswordReset(ctx context.Context, to, name, link string) error {
	if !c.Configured() {
		c.logger.Info("email not configured, password reset link logged instead", "to", to, "link", link)
		return nil
	}

	text := fmt.Sprintf("Olá, %s.\n\nRecebemos um pedido para redefinir sua senha. Use o link abaixo em até 1 hora:\n\n%s\n\nSe você não fez o pedido, ignore este email.", name, link)
	body := fmt.Sprintf(
		`<p>Olá, %s.</p><p>Recebemos um pedido para redefinir sua senha. Use o link abaixo em até 1 hora:</p><p><a href="%s">Redefinir senha</a></p><p>Se você não fez o pedido, ignore este email.</p>`,
		html.EscapeString(name), html.EscapeString(link),
	)

	return c.send(ctx, postmarkEmail{
		From:          c.fromEmail,
		To:            to,
		Subject:       "Redefinição de senha",
		HtmlBody:      body,
		TextBody:      text,
		MessageStream: "outbound",
	})
}

func (c *Client) send(ctx context.Context, msg postmarkEmail) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Postmark-Server-Token", c.serverToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var pe postmarkError
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(raw, &pe) == nil && pe.Message != "" {
			return fmt.Errorf("postmark API error: status %d: %s (code %d)", resp.StatusCode, pe.Message, pe.ErrorCode)
		}
		return fmt.Errorf("postmark API error: status %d", resp.StatusCode)
	}

	c.logger.Info("email sent", "to", msg.To, "subject", msg.Subject)
	return nil
}
