// Package notify delivers owner alerts (new medicine requests, searches for
// medicines the shop does not carry) over WhatsApp.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	applog "medicart/internal/log"
)

type Sender interface {
	Send(ctx context.Context, message string) error
}

// Noop drops every message. Used when WhatsApp is not configured.
type Noop struct{}

func (Noop) Send(context.Context, string) error { return nil }

var ErrNotConfigured = errors.New("whatsapp: missing api key, phone or phone number id")

// WhatsApp posts text messages to the Graph API messages endpoint.
type WhatsApp struct {
	APIKey        string
	Phone         string // recipient
	PhoneNumberID string
	BaseURL       string // e.g. https://graph.facebook.com/v18.0
	Timeout       time.Duration

	client *fasthttp.Client
}

func NewWhatsApp(apiKey, phone, phoneNumberID, baseURL string) *WhatsApp {
	return &WhatsApp{
		APIKey:        apiKey,
		Phone:         phone,
		PhoneNumberID: phoneNumberID,
		BaseURL:       strings.TrimRight(baseURL, "/"),
		Timeout:       10 * time.Second,
		client:        &fasthttp.Client{Name: "medicart"},
	}
}

// TestMode reports keys that are placeholders; such senders never touch the network.
func (w *WhatsApp) TestMode() bool {
	k := strings.ToLower(w.APIKey)
	return strings.Contains(k, "test") || strings.Contains(k, "mock") || len(w.APIKey) < 20
}

type textMessage struct {
	MessagingProduct string `json:"messaging_product"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Text             struct {
		Body string `json:"body"`
	} `json:"text"`
}

func (w *WhatsApp) Send(ctx context.Context, message string) error {
	if w.APIKey == "" || w.Phone == "" || w.PhoneNumberID == "" {
		return ErrNotConfigured
	}
	if w.TestMode() {
		applog.Info(nil, "whatsapp.send.test_mode", map[string]any{"chars": len(message)})
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := textMessage{MessagingProduct: "whatsapp", To: w.Phone, Type: "text"}
	msg.Text.Body = message
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(w.BaseURL + "/" + w.PhoneNumberID + "/messages")
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set("Authorization", "Bearer "+w.APIKey)
	req.SetBody(body)

	timeout := w.Timeout
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); left < timeout {
			timeout = left
		}
	}
	if err := w.client.DoTimeout(req, resp, timeout); err != nil {
		return fmt.Errorf("whatsapp: %w", err)
	}
	if code := resp.StatusCode(); code < 200 || code > 299 {
		return fmt.Errorf("whatsapp: api status %d: %s", code, truncate(string(resp.Body()), 200))
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// Safe sends and logs failures instead of returning them. Alerts are best effort
// and must not fail the request that triggered them.
func Safe(ctx context.Context, s Sender, action, message string) {
	if s == nil {
		return
	}
	if err := s.Send(ctx, message); err != nil {
		applog.Warn(nil, action+".fail", err, nil)
	}
}
