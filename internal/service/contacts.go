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

const (
	defaultContactLimit = 50
	maxContactLimit     = 200
)

// ContactService serves the audience and live chat screens.
type ContactService struct {
	repos  repomanager.Repos
	logger *logger.Logger
}

func NewContactService(repos repomanager.Repos, log *logger.Logger) *ContactService {
	return &ContactService{repos: repos, logger: log}
}

// List returns the caller's contacts, most recently active first.
func (s *ContactService) List(ctx context.Context, userID string, filter model.ContactFilter) (*model.ListContactsResponse, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultContactLimit
	}
	if filter.Limit > maxContactLimit {
		filter.Limit = maxContactLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	filter.Search = strings.TrimSpace(filter.Search)

	limit := filter.Limit
	filter.Limit++
	contacts, err := s.repos.Contacts.ListForUser(ctx, userID, filter)
	if err != nil {
		return nil, err
	}

	hasMore := len(contacts) > limit
	if hasMore {
		contacts = contacts[:limit]
	}
	if contacts == nil {
		contacts = []model.Contact{}
	}
	return &model.ListContactsResponse{Contacts: contacts, HasMore: hasMore}, nil
}

// Get returns a contact owned by userID.
func (s *ContactService) Get(ctx context.Context, userID, id string) (*model.Contact, error) {
	contact, err := s.repos.Contacts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if contact.UserID != userID {
		return nil, common.ErrNotFound
	}
	return contact, nil
}

// AddTags unions tags into a contact's tag set.
func (s *ContactService) AddTags(ctx context.Context, userID, id string, tags []string) (*model.Contact, error) {
	clean := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			clean = append(clean, t)
		}
	}
	if len(clean) == 0 {
		return nil, fmt.Errorf("%w: at least one tag is required", common.ErrValidation)
	}

	contact, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	merged, err := s.repos.Contacts.AddTags(ctx, id, clean...)
	if err != nil {
		return nil, err
	}
	contact.Tags = merged
	return contact, nil
}
