package sms

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTwilioBaseURL = "https://api.twilio.com"

// TwilioConfig holds credentials for the Twilio Messages API.
type TwilioConfig struct {
	AccountSID     string
	AuthToken      string
	FromNumber     string
	BaseURL        string
	TimeoutSeconds int
}

// TwilioClient implements Sender against the Twilio REST API.
type TwilioClient struct {
	accountSID string
	authToken  string
	fromNumber string
	baseURL    string
	httpClient *http.Client
}

// NewTwilioClient creates a Twilio SMS client.
func NewTwilioClient(config TwilioConfig) (*TwilioClient, error) {
	if config.AccountSID == "" || config.AuthToken == "" {
		return nil, fmt.Errorf("twilio credentials are required")
	}
	if config.FromNumber == "" {
		return nil, fmt.Errorf("twilio from number is required")
	}
	if config.BaseURL == "" {
		config.BaseURL = defaultTwilioBaseURL
	}
	if config.TimeoutSeconds <= 0 {
		config.TimeoutSeconds = 15
	}

	return &TwilioClient{
		accountSID: config.AccountSID,
		authToken:  config.AuthToken,
		fromNumber: config.FromNumber,
		baseURL:    config.BaseURL,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
	}, nil
}

type twilioMessageResponse struct {
	SID     string `json:"sid"`
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Send posts one message and returns the Twilio message SID.
func (c *TwilioClient) Send(ctx context.Context, to, body string) (string, error) {
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", c.baseURL, c.accountSID)

	form := url.Values{}
	form.Set("From", c.fromNumber)
	form.Set("To", to)
	form.Set("Body", body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to build twilio request: %w", err)
	}
	req.SetBasicAuth(c.accountSID, c.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send sms: %w", err)
	}
	defer httpResp.Body.Close()

	var resp twilioMessageResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return "", fmt.Errorf("failed to decode twilio response: %w", err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return "", fmt.Errorf("twilio returned status %d: %s (code %d)", httpResp.StatusCode, resp.Message, resp.Code)
	}
	if resp.SID == "" {
		return "", fmt.Errorf("twilio response missing message sid")
	}

	return resp.SID, nil
}
