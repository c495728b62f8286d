package model

import (
	"strings"
	"time"
)

// ActionType is the kind of side effect a rule performs when it fires.
type ActionType string

const (
	// ActionAddTag unions Value into the contact's tag set.
	ActionAddTag ActionType = "add_tag"
)

// Action is a side effect attached to a rule.
type Action struct {
	Type  ActionType `json:"type"`
	Value string     `json:"value"`
}

// Rule is a keyword-triggered auto-reply for one account.
type Rule struct {
	ID           string    `json:"id"`
	AccountID    string    `json:"account_id"`
	Keyword      string    `json:"keyword"`
	ReplyContent string    `json:"reply_content"`
	IsActive     bool      `json:"is_active"`
	Position     int       `json:"position"`
	Actions      []Action  `json:"actions"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Matches reports whether the rule keyword occurs in text. The text must
// already be lowercased; the keyword is lowercased here.
func (r *Rule) Matches(lowerText string) bool {
	keyword := strings.ToLower(r.Keyword)
	if keyword == "" {
		return false
	}
	return strings.Contains(lowerText, keyword)
}

// Tags returns the values of the rule's add_tag actions in order.
func (r *Rule) Tags() []string {
	var tags []string
	for _, a := range r.Actions {
		if a.Type == ActionAddTag && a.Value != "" {
			tags = append(tags, a.Value)
		}
	}
	return tags
}

// CreateRuleRequest is the request to create a rule.
type CreateRuleRequest struct {
	AccountID    string   `json:"account_id"`
	Keyword      string   `json:"keyword"`
	ReplyContent string   `json:"reply_content"`
	IsActive     *bool    `json:"is_active,omitempty"`
	Position     int      `json:"position,omitempty"`
	Actions      []Action `json:"actions,omitempty"`
}

// UpdateRuleRequest is the request to update a rule. Nil fields are left unchanged.
type UpdateRuleRequest struct {
	Keyword      *string   `json:"keyword,omitempty"`
	ReplyContent *string   `json:"reply_content,omitempty"`
	IsActive     *bool     `json:"is_active,omitempty"`
	Position     *int      `json:"position,omitempty"`
	Actions      *[]Action `json:"actions,omitempty"`
}

// RuleSuggestion is a keyword/reply pair proposed for unmatched traffic.
type RuleSuggestion struct {
	Keyword string `json:"keyword"`
	Reply   string `json:"reply"`
}
