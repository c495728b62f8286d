// Package service holds the relay's business logic: inbound webhook
// processing, reply delivery, the dashboard operations and maintenance.
package service

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/capitalize-ai/autoreply-relay/internal/model"
)

// Clock returns the current time. Services default to time.Now.
type Clock func() time.Time

func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// MatchRule returns the first rule whose keyword occurs in text, ignoring
// case, or nil. Rules must already be in match order.
func MatchRule(rules []model.Rule, text string) *model.Rule {
	lower := strings.ToLower(text)
	for i := range rules {
		if rules[i].IsActive && rules[i].Matches(lower) {
			return &rules[i]
		}
	}
	return nil
}
