package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/capitalize-ai/autoreply-relay/internal/common"
	"github.com/capitalize-ai/autoreply-relay/internal/llm"
	"github.com/capitalize-ai/autoreply-relay/internal/model"
	"github.com/capitalize-ai/autoreply-relay/internal/repository/repomanager"
	"github.com/capitalize-ai/autoreply-relay/pkg/logger"
	"github.com/capitalize-ai/autoreply-relay/pkg/metrics"
)

const maxSuggestions = 5

const suggestionPrompt = `You help a small business configure keyword auto-replies for Messenger and Instagram.
You get customer messages that no existing rule answered. Propose at most 5 new rules.
Each rule has a short lowercase keyword that would appear in similar messages, and a friendly reply.
Answer with a JSON array only, like [{"keyword":"price","reply":"Our prices start at $10."}].`

// SuggestionService proposes rules for unmatched traffic.
type SuggestionService struct {
	repos  repomanager.Repos
	client llm.Client
	logger *logger.Logger
}

// NewSuggestionService creates the service. A nil client disables it.
func NewSuggestionService(repos repomanager.Repos, client llm.Client, log *logger.Logger) *SuggestionService {
	return &SuggestionService{repos: repos, client: client, logger: log}
}

// Suggest returns rule proposals for an account owned by userID.
func (s *SuggestionService) Suggest(ctx context.Context, userID, accountID string) ([]model.RuleSuggestion, error) {
	if s.client == nil {
		return nil, fmt.Errorf("%w: no LLM provider configured", common.ErrUnavailable)
	}
	if _, err := s.repos.Accounts.GetForUser(ctx, userID, accountID); err != nil {
		return nil, err
	}

	queries, err := s.repos.Unmatched.ListRecent(ctx, accountID, UnmatchedListLimit)
	if err != nil {
		return nil, err
	}
	if len(queries) == 0 {
		return []model.RuleSuggestion{}, nil
	}

	rules, err := s.repos.Rules.ListForUser(ctx, userID, accountID)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	if len(rules) > 0 {
		b.WriteString("Existing keywords:")
		for _, r := range rules {
			b.WriteString(" ")
			b.WriteString(r.Keyword)
		}
		b.WriteString("\n\n")
	}
	b.WriteString("Unanswered messages:\n")
	for _, q := range queries {
		b.WriteString("- ")
		b.WriteString(strings.ReplaceAll(q.MessageContent, "\n", " "))
		b.WriteString("\n")
	}

	start := time.Now()
	resp, err := s.client.Complete(ctx, &llm.CompletionRequest{
		System:      suggestionPrompt,
		Messages:    []llm.ChatMessage{{Role: "user", Content: b.String()}},
		MaxTokens:   1024,
		Temperature: 0.2,
	})
	if err != nil {
		metrics.RecordLLM(s.client.Name(), "error", time.Since(start).Seconds())
		return nil, fmt.Errorf("llm completion: %w", err)
	}
	metrics.RecordLLM(s.client.Name(), "ok", time.Since(start).Seconds())

	suggestions, err := parseSuggestions(resp.Content, rules)
	if err != nil {
		s.logger.Warn("unparseable suggestions", zap.String("provider", s.client.Name()), zap.Error(err))
		return nil, err
	}
	return suggestions, nil
}

// parseSuggestions extracts the JSON array from content and drops empty
// entries and keywords that already have a rule.
func parseSuggestions(content string, existing []model.Rule) ([]model.RuleSuggestion, error) {
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start < 0 || end < start {
		return nil, fmt.Errorf("no JSON array in completion")
	}

	var raw []model.RuleSuggestion
	if err := json.Unmarshal([]byte(content[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("decode suggestions: %w", err)
	}

	seen := make(map[string]struct{}, len(existing))
	for _, r := range existing {
		seen[strings.ToLower(r.Keyword)] = struct{}{}
	}

	out := []model.RuleSuggestion{}
	for _, sug := range raw {
		kw := strings.ToLower(strings.TrimSpace(sug.Keyword))
		reply := strings.TrimSpace(sug.Reply)
		if kw == "" || reply == "" {
			continue
		}
		if _, dup := seen[kw]; dup {
			continue
		}
		seen[kw] = struct{}{}
		out = append(out, model.RuleSuggestion{Keyword: kw, Reply: reply})
		if len(out) == maxSuggestions {
			break
		}
	}
	return out, nil
}
