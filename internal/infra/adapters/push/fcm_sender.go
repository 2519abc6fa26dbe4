// File: internal/infra/adapters/push/fcm_sender.go
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"pet-hero-backend/internal/domain/ports/adapter"
)

var _ adapter.PushSender = (*FCMSender)(nil)

const defaultFCMEndpoint = "https://fcm.googleapis.com/fcm/send"

// FCMSender delivers push notifications through the FCM legacy HTTP API.
type FCMSender struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

func NewFCMSender(endpoint, apiKey string) (*FCMSender, error) {
	if apiKey == "" {
		return nil, errors.New("fcm api key empty")
	}
	if endpoint == "" {
		endpoint = defaultFCMEndpoint
	}
	return &FCMSender{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 15 * time.Second},
	}, nil
}

func (f *FCMSender) Send(ctx context.Context, token string, n adapter.PushNotification) error {
	if token == "" {
		return errors.New("empty device token")
	}
	payload := map[string]any{
		"to": token,
		"notification": map[string]string{
			"title": n.Title,
			"body":  n.Body,
		},
	}
	if len(n.Data) > 0 {
		payload["data"] = n.Data
	}
	b, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.endpoint, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+f.apiKey)

	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("fcm http %d", resp.StatusCode)
	}
	var out struct {
		Success int `json:"success"`
		Failure int `json:"failure"`
		Results []struct {
			Error string `json:"error"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		// Some compatible gateways return empty bodies on success.
		return nil
	}
	if out.Failure > 0 {
		reason := "unknown"
		if len(out.Results) > 0 && out.Results[0].Error != "" {
			reason = out.Results[0].Error
		}
		return fmt.Errorf("fcm delivery failed: %s", reason)
	}
	return nil
}
