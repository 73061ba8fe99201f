package email

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// PostmarkClient sends mail through the Postmark HTTP API.
type PostmarkClient struct {
	serverToken string
	fromEmail   string
	httpClient  *resty.Client
}

type postmarkEmail struct {
	From     string `json:"From"`
	To       string `json:"To"`
	Subject  string `json:"Subject"`
	TextBody string `json:"TextBody"`
}

type postmarkError struct {
	ErrorCode int    `json:"ErrorCode"`
	Message   string `json:"Message"`
}

// NewPostmarkClient creates a client against baseURL, normally https://api.postmarkapp.com.
// Retries are left to the notification dispatcher.
func NewPostmarkClient(serverToken, fromEmail, baseURL string) *PostmarkClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15*time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &PostmarkClient{
		serverToken: serverToken,
		fromEmail:   fromEmail,
		httpClient:  client,
	}
}

// Configured returns true if the server token is set.
func (c *PostmarkClient) Configured() bool {
	return c.serverToken != ""
}

func (c *PostmarkClient) Send(ctx context.Context, msg Message) error {
	if !c.Configured() {
		return errors.New("email client not configured: missing server token")
	}

	var apiErr postmarkError
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("X-Postmark-Server-Token", c.serverToken).
		SetBody(postmarkEmail{
			From:     c.fromEmail,
			To:       msg.To,
			Subject:  msg.Subject,
			TextBody: msg.Body,
		}).
		SetError(&apiErr).
		Post("/email")
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	if resp.IsError() {
		return fmt.Errorf("postmark API error: status %d: %s", resp.StatusCode(), apiErr.Message)
	}

	return nil
}
