// Package intercom открывает диалоги поддержки от имени пользователя.
package intercom

import (
	"context"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/soundvault/earnings-backend/internal/providers"
)

const (
	Provider       = "intercom"
	DefaultBaseURL = "https://api.intercom.io"
	apiVersion     = "2.11"
)

type Client struct {
	rest *resty.Client
}

func New(baseURL, accessToken string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	rest := providers.NewRestClient(baseURL, timeout, 0).
		SetAuthToken(accessToken).
		SetHeader("Intercom-Version", apiVersion).
		SetHeader("Content-Type", "application/json")
	return &Client{rest: rest}
}

// Contact идентифицирует пользователя в Intercom по external id.
type Contact struct {
	ExternalID string
	Email      string
}

type conversationRequest struct {
	From struct {
		Type  string `json:"type"`
		ID    string `json:"external_id,omitempty"`
		Email string `json:"email,omitempty"`
	} `json:"from"`
	Body string `json:"body"`
}

type Conversation struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversation_id"`
}

// StartConversation создаёт диалог с заранее заполненным сообщением.
func (c *Client) StartConversation(ctx context.Context, contact Contact, message string) (*Conversation, error) {
	var body conversationRequest
	body.From.Type = "user"
	body.From.ID = contact.ExternalID
	body.From.Email = contact.Email
	body.Body = message

	req := c.rest.R().SetContext(ctx).SetBody(body)
	resp, err := providers.Execute(Provider, req, http.MethodPost, "/conversations")
	if err != nil {
		return nil, err
	}

	var conv Conversation
	if err := resp.Decode(&conv); err != nil {
		return nil, err
	}
	return &conv, nil
}
