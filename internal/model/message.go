package model

import (
	"time"
)

// Sender identifies who authored a logged message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Message is one logged inbound or outbound text for a contact.
type Message struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ContactID string    `json:"contact_id"`
	Text      string    `json:"text"`
	Sender    Sender    `json:"sender"`
	CreatedAt time.Time `json:"created_at"`
}

// SendMessageRequest is the live-chat request to message a contact by hand.
type SendMessageRequest struct {
	ContactID string `json:"contactId"`
	Text      string `json:"text"`
}

// ListMessagesResponse is the response for a contact's message history.
type ListMessagesResponse struct {
	Messages []Message `json:"messages"`
}

// ErrorEvent represents an SSE error event.
type ErrorEvent struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HeartbeatEvent represents an SSE heartbeat event.
type HeartbeatEvent struct {
	Timestamp time.Time `json:"timestamp"`
}
