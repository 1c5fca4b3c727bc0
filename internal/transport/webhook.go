package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	standardwebhooks "github.com/standard-webhooks/standard-webhooks/libraries/go"

	"github.com/execcoach/coach/internal/model"
)

// NewVerifier accepts "whsec_"-prefixed base64 secrets as well as raw ones.
func NewVerifier(secret string) (*standardwebhooks.Webhook, error) {
	if strings.HasPrefix(secret, "whsec_") {
		return standardwebhooks.NewWebhook(secret)
	}
	return standardwebhooks.NewWebhookRaw([]byte(secret))
}

// WebhookSender POSTs system messages for webhook users, signed with the
// Standard Webhooks scheme.
type WebhookSender struct {
	url    string
	wh     *standardwebhooks.Webhook
	client *http.Client
}

func NewWebhookSender(url, secret string) (*WebhookSender, error) {
	wh, err := NewVerifier(secret)
	if err != nil {
		return nil, fmt.Errorf("failed to create webhook signer: %w", err)
	}

	return &WebhookSender{
		url:    url,
		wh:     wh,
		client: &http.Client{Timeout: 15 * time.Second},
	}, nil
}

func (s *WebhookSender) Send(ctx context.Context, reply model.OutboundReply) error {
	payload, err := json.Marshal(reply)
	if err != nil {
		return fmt.Errorf("failed to encode reply: %w", err)
	}

	msgID := "msg_" + uuid.NewString()
	now := time.Now()

	signature, err := s.wh.Sign(msgID, now, payload)
	if err != nil {
		return fmt.Errorf("failed to sign webhook: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("webhook-id", msgID)
	req.Header.Set("webhook-timestamp", strconv.FormatInt(now.Unix(), 10))
	req.Header.Set("webhook-signature", signature)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook endpoint returned %d", resp.StatusCode)
	}

	return nil
}
