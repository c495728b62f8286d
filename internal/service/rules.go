package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/capitalize-ai/autoreply-relay/internal/common"
	"github.com/capitalize-ai/autoreply-relay/internal/model"
	"github.com/capitalize-ai/autoreply-relay/internal/repository/repomanager"
	"github.com/capitalize-ai/autoreply-relay/pkg/logger"
)

// RuleService manages keyword rules.
type RuleService struct {
	repos  repomanager.Repos
	logger *logger.Logger
}

func NewRuleService(repos repomanager.Repos, log *logger.Logger) *RuleService {
	return &RuleService{repos: repos, logger: log}
}

// List returns the caller's rules, optionally narrowed to one account.
func (s *RuleService) List(ctx context.Context, userID, accountID string) ([]model.Rule, error) {
	if accountID != "" {
		if _, err := s.repos.Accounts.GetForUser(ctx, userID, accountID); err != nil {
			return nil, err
		}
	}
	return s.repos.Rules.ListForUser(ctx, userID, accountID)
}

func (s *RuleService) Get(ctx context.Context, userID, id string) (*model.Rule, error) {
	return s.repos.Rules.GetForUser(ctx, userID, id)
}

// Create adds a rule to an account owned by userID. New rules are active
// unless is_active is false.
func (s *RuleService) Create(ctx context.Context, userID string, req *model.CreateRuleRequest) (*model.Rule, error) {
	if req.AccountID == "" {
		return nil, fmt.Errorf("%w: account_id is required", common.ErrValidation)
	}
	rule := &model.Rule{
		AccountID:    req.AccountID,
		Keyword:      strings.TrimSpace(req.Keyword),
		ReplyContent: req.ReplyContent,
		IsActive:     true,
		Position:     req.Position,
		Actions:      req.Actions,
	}
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}
	if err := validateRule(rule); err != nil {
		return nil, err
	}

	if _, err := s.repos.Accounts.GetForUser(ctx, userID, req.AccountID); err != nil {
		return nil, err
	}
	return s.repos.Rules.Create(ctx, rule)
}

// Update applies the non-nil fields of req.
func (s *RuleService) Update(ctx context.Context, userID, id string, req *model.UpdateRuleRequest) (*model.Rule, error) {
	rule, err := s.repos.Rules.GetForUser(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if req.Keyword != nil {
		rule.Keyword = strings.TrimSpace(*req.Keyword)
	}
	if req.ReplyContent != nil {
		rule.ReplyContent = *req.ReplyContent
	}
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}
	if req.Position != nil {
		rule.Position = *req.Position
	}
	if req.Actions != nil {
		rule.Actions = *req.Actions
	}
	if err := validateRule(rule); err != nil {
		return nil, err
	}

	return s.repos.Rules.Update(ctx, userID, rule)
}

func (s *RuleService) Delete(ctx context.Context, userID, id string) error {
	return s.repos.Rules.Delete(ctx, userID, id)
}

func validateRule(r *model.Rule) error {
	if r.Keyword == "" {
		return fmt.Errorf("%w: keyword is required", common.ErrValidation)
	}
	if strings.TrimSpace(r.ReplyContent) == "" {
		return fmt.Errorf("%w: reply_content is required", common.ErrValidation)
	}
	if r.Actions == nil {
		r.Actions = []model.Action{}
	}
	for i, a := range r.Actions {
		if a.Type != model.ActionAddTag {
			return fmt.Errorf("%w: action %d: unknown type %q", common.ErrValidation, i, a.Type)
		}
		if strings.TrimSpace(a.Value) == "" {
			return fmt.Errorf("%w: action %d: value is required", common.ErrValidation, i)
		}
	}
	return nil
}
