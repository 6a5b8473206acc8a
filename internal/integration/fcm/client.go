package fcm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/wodoo-app/subscription-service/internal/domain"
	"github.com/wodoo-app/subscription-service/pkg/logger"
)

// Client sends push messages through the FCM HTTP v1 API
type Client struct {
	endpoint    string
	accessToken string
	httpClient  *http.Client
	log         *logger.Logger
}

// Config configures the FCM client
type Config struct {
	ProjectID   string
	AccessToken string
}

// NewClient creates a new FCM client
func NewClient(cfg Config, log *logger.Logger) *Client {
	return &Client{
		endpoint:    fmt.Sprintf("https://fcm.googleapis.com/v1/projects/%s/messages:send", cfg.ProjectID),
		accessToken: cfg.AccessToken,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		log: log,
	}
}

// message is the FCM v1 request payload
type message struct {
	Token        string            `json:"token"`
	Notification notification      `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
	Android      *androidConfig    `json:"android,omitempty"`
	APNS         *apnsConfig       `json:"apns,omitempty"`
}

type notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type androidConfig struct {
	Notification androidNotification `json:"notification"`
}

type androidNotification struct {
	Icon  string `json:"icon"`
	Color string `json:"color"`
	Sound string `json:"sound"`
}

type apnsConfig struct {
	Payload apnsPayload `json:"payload"`
}

type apnsPayload struct {
	APS aps `json:"aps"`
}

type aps struct {
	Sound string `json:"sound"`
	Badge int    `json:"badge"`
}

// Send pushes one notification to a device token
func (c *Client) Send(ctx context.Context, token string, n domain.Notification) error {
	data := map[string]string{"type": string(n.Type)}
	for k, v := range n.Data {
		data[k] = v
	}

	msg := message{
		Token: token,
		Notification: notification{
			Title: n.Title,
			Body:  n.Body,
		},
		Data: data,
		Android: &androidConfig{
			Notification: androidNotification{
				Icon:  "ic_notification",
				Color: "#2889B8",
				Sound: "default",
			},
		},
		APNS: &apnsConfig{
			Payload: apnsPayload{
				APS: aps{Sound: "default", Badge: 1},
			},
		},
	}

	body, err := json.Marshal(map[string]message{"message": msg})
	if err != nil {
		return fmt.Errorf("failed to marshal FCM message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("FCM send failed with status %d: %s", resp.StatusCode, respBody)
	}

	c.log.Debug("Successfully sent FCM message, type: %s", n.Type)
	return nil
}
