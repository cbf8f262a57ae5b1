package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// Sender delivers a text message to one phone number. Implementations must
// treat delivery as fire-and-forget from the caller's point of view.
type Sender interface {
	Send(ctx context.Context, phone, message string) error
}

// HTTPProvider posts messages to a JSON SMS gateway.
type HTTPProvider struct {
	BaseURL  string
	APIKey   string
	SenderID string
	client   *http.Client
}

func NewHTTPProvider(baseURL, apiKey, senderID string) *HTTPProvider {
	return &HTTPProvider{
		BaseURL:  baseURL,
		APIKey:   apiKey,
		SenderID: senderID,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

type sendReq struct {
	To      string `json:"to"`
	From    string `json:"from"`
	Message string `json:"message"`
}

func (p *HTTPProvider) Send(ctx context.Context, phone, message string) error {
	body, _ := json.Marshal(sendReq{To: phone, From: p.SenderID, Message: message})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.APIKey)
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("sms gateway returned %d: %s", resp.StatusCode, string(b))
	}
	return nil
}

// LogProvider is a no-op sender for development; codes land in the server log
// instead of a phone.
type LogProvider struct{}

func (LogProvider) Send(ctx context.Context, phone, message string) error {
	log.Printf("[sms] to=%s body=%q", phone, message)
	return nil
}
