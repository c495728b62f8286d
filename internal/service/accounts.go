package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/capitalize-ai/autoreply-relay/internal/common"
	"github.com/capitalize-ai/autoreply-relay/internal/model"
	"github.com/capitalize-ai/autoreply-relay/internal/repository/repomanager"
	"github.com/capitalize-ai/autoreply-relay/pkg/logger"
)

// UnmatchedListLimit is how many unmatched queries the overview shows.
const UnmatchedListLimit = 50

// AccountService manages connected pages.
type AccountService struct {
	manager repomanager.RepositoryManager
	repos   repomanager.Repos
	logger  *logger.Logger
}

func NewAccountService(manager repomanager.RepositoryManager, log *logger.Logger) *AccountService {
	return &AccountService{
		manager: manager,
		repos:   manager.Repos(),
		logger:  log,
	}
}

// Create connects a page for userID. A page can be connected once.
func (s *AccountService) Create(ctx context.Context, userID string, req *model.CreateAccountRequest) (*model.Account, error) {
	pageID := strings.TrimSpace(req.PageID)
	token := strings.TrimSpace(req.AccessToken)
	if pageID == "" || token == "" {
		return nil, fmt.Errorf("%w: page_id and access_token are required", common.ErrValidation)
	}

	account, err := s.repos.Accounts.Create(ctx, &model.Account{
		UserID:        userID,
		PageID:        pageID,
		Name:          strings.TrimSpace(req.Name),
		AccessToken:   token,
		WebhookSecret: req.WebhookSecret,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("account connected",
		zap.String("account_id", account.ID),
		zap.String("user_id", userID),
		zap.String("page_id", pageID),
	)
	return account, nil
}

func (s *AccountService) List(ctx context.Context, userID string) ([]model.Account, error) {
	return s.repos.Accounts.ListForUser(ctx, userID)
}

func (s *AccountService) Get(ctx context.Context, userID, id string) (*model.Account, error) {
	return s.repos.Accounts.GetForUser(ctx, userID, id)
}

// Update applies the non-nil fields of req.
func (s *AccountService) Update(ctx context.Context, userID, id string, req *model.UpdateAccountRequest) (*model.Account, error) {
	account, err := s.repos.Accounts.GetForUser(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		account.Name = strings.TrimSpace(*req.Name)
	}
	if req.AccessToken != nil {
		token := strings.TrimSpace(*req.AccessToken)
		if token == "" {
			return nil, fmt.Errorf("%w: access_token cannot be empty", common.ErrValidation)
		}
		account.AccessToken = token
	}
	if req.WebhookSecret != nil {
		account.WebhookSecret = *req.WebhookSecret
	}

	return s.repos.Accounts.Update(ctx, account)
}

// Delete removes the account together with its rules, unmatched queries and
// the contacts first seen through it.
func (s *AccountService) Delete(ctx context.Context, userID, id string) error {
	err := s.manager.WithTx(ctx, func(ctx context.Context, r repomanager.Repos) error {
		return r.Accounts.Delete(ctx, userID, id)
	})
	if err != nil {
		return err
	}

	s.logger.Info("account deleted", zap.String("account_id", id), zap.String("user_id", userID))
	return nil
}

// Unmatched returns the newest unmatched queries of an account owned by userID.
func (s *AccountService) Unmatched(ctx context.Context, userID, accountID string) ([]model.UnmatchedQuery, error) {
	if accountID == "" {
		return nil, fmt.Errorf("%w: accountId is required", common.ErrValidation)
	}
	if _, err := s.repos.Accounts.GetForUser(ctx, userID, accountID); err != nil {
		return nil, err
	}
	return s.repos.Unmatched.ListRecent(ctx, accountID, UnmatchedListLimit)
}
