// Package model defines data structures for the auto-reply relay.
package model

import (
	"time"
)

// Account is one connected Facebook page or Instagram business account.
type Account struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	PageID        string    `json:"page_id"`
	Name          string    `json:"name,omitempty"`
	AccessToken   string    `json:"-"`
	WebhookSecret string    `json:"-"`
	CreatedAt     time.Time `json:"created_at"`
}

// HasWebhookSecret reports whether a webhook secret is stored for the account.
func (a *Account) HasWebhookSecret() bool {
	return a.WebhookSecret != ""
}

// CreateAccountRequest is the request to connect a page.
type CreateAccountRequest struct {
	PageID        string `json:"page_id"`
	Name          string `json:"name,omitempty"`
	AccessToken   string `json:"access_token"`
	WebhookSecret string `json:"webhook_secret,omitempty"`
}

// UpdateAccountRequest is the request to update a connected page.
// Nil fields are left unchanged.
type UpdateAccountRequest struct {
	Name          *string `json:"name,omitempty"`
	AccessToken   *string `json:"access_token,omitempty"`
	WebhookSecret *string `json:"webhook_secret,omitempty"`
}

// AccountResponse is the dashboard view of an account. Secrets are never echoed.
type AccountResponse struct {
	Account
	HasWebhookSecret bool `json:"has_webhook_secret"`
}

// NewAccountResponse builds the dashboard view of an account.
func NewAccountResponse(a *Account) AccountResponse {
	return AccountResponse{Account: *a, HasWebhookSecret: a.HasWebhookSecret()}
}
