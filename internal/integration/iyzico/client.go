package iyzico

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/wodoo-app/subscription-service/pkg/logger"
)

// Client works with the iyzico payment API using stored payment methods
type Client struct {
	baseURL    string
	apiKey     string
	secretKey  string
	httpClient *http.Client
	log        *logger.Logger
}

// Config configures the iyzico client
type Config struct {
	APIKey    string
	SecretKey string
	IsSandbox bool
}

// NewClient creates a new iyzico client
func NewClient(cfg Config, log *logger.Logger) *Client {
	baseURL := "https://api.iyzipay.com"
	if cfg.IsSandbox {
		baseURL = "https://sandbox-api.iyzipay.com"
	}

	return &Client{
		baseURL:   baseURL,
		apiKey:    cfg.APIKey,
		secretKey: cfg.SecretKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log,
	}
}

// GetBaseURL returns the base URL for the iyzico API
func (c *Client) GetBaseURL() string {
	return c.baseURL
}

// authorization builds the IYZWS authorization header for one request body.
// The hash input is apiKey + randomString + secretKey + body, hashed with SHA-1.
func (c *Client) authorization(body []byte, randomString string) string {
	sum := sha1.Sum([]byte(c.apiKey + randomString + c.secretKey + string(body)))
	return fmt.Sprintf("IYZWS %s:%s", c.apiKey, hex.EncodeToString(sum[:]))
}

// post sends one signed JSON request and decodes the response into out
func (c *Client) post(ctx context.Context, path string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	randomString := fmt.Sprintf("%d", time.Now().UnixMilli())
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.authorization(body, randomString))
	req.Header.Set("x-iyzi-rnd", randomString)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
