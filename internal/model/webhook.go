package model

import (
	"time"
)

// Webhook object types accepted by the relay.
const (
	ObjectPage      = "page"
	ObjectInstagram = "instagram"
)

// WebhookEvent is one Messenger/Instagram webhook delivery.
type WebhookEvent struct {
	Object string         `json:"object"`
	Entry  []WebhookEntry `json:"entry"`
}

// Supported reports whether the delivery is for a page or Instagram account.
func (e *WebhookEvent) Supported() bool {
	return e.Object == ObjectPage || e.Object == ObjectInstagram
}

// WebhookEntry groups the messaging events of one page.
type WebhookEntry struct {
	ID        string           `json:"id"`
	Time      int64            `json:"time,omitempty"`
	Messaging []MessagingEvent `json:"messaging"`
}

// MessagingEvent is one event inside an entry.
type MessagingEvent struct {
	Sender    Participant     `json:"sender"`
	Recipient Participant     `json:"recipient"`
	Timestamp int64           `json:"timestamp,omitempty"`
	Message   *InboundMessage `json:"message,omitempty"`
}

// Participant identifies a sender or recipient by platform id.
type Participant struct {
	ID string `json:"id"`
}

// InboundMessage is the message part of a messaging event.
type InboundMessage struct {
	Mid    string `json:"mid,omitempty"`
	Text   string `json:"text,omitempty"`
	IsEcho bool   `json:"is_echo,omitempty"`
}

// HasText reports whether the event carries a user-authored text message.
func (m *MessagingEvent) HasText() bool {
	return m.Message != nil && !m.Message.IsEcho && m.Message.Text != "" && m.Sender.ID != ""
}

// OutboundReply is a rule reply queued for delivery.
type OutboundReply struct {
	ID          string    `json:"id"`
	AccountID   string    `json:"account_id"`
	UserID      string    `json:"user_id"`
	ContactID   string    `json:"contact_id"`
	RecipientID string    `json:"recipient_id"`
	RuleID      string    `json:"rule_id,omitempty"`
	Text        string    `json:"text"`
	CreatedAt   time.Time `json:"created_at"`
}
