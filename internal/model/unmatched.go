package model

import (
	"time"
)

// UnmatchedQuery is an inbound message that matched no active rule.
type UnmatchedQuery struct {
	ID             string    `json:"id"`
	AccountID      string    `json:"account_id"`
	MessageContent string    `json:"message"`
	ReceivedAt     time.Time `json:"received_at"`
}

// PurgeResult is the response of the retention job.
type PurgeResult struct {
	Success bool      `json:"success"`
	Deleted int64     `json:"deleted"`
	Cutoff  time.Time `json:"cutoff"`
}
