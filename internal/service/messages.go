package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/capitalize-ai/autoreply-relay/internal/common"
	"github.com/capitalize-ai/autoreply-relay/internal/graph"
	"github.com/capitalize-ai/autoreply-relay/internal/model"
	"github.com/capitalize-ai/autoreply-relay/internal/repository/repomanager"
	"github.com/capitalize-ai/autoreply-relay/pkg/logger"
	"github.com/capitalize-ai/autoreply-relay/pkg/metrics"
)

// DefaultHistoryLimit bounds a contact's message history.
const DefaultHistoryLimit = 200

// LiveNotifier receives every message appended to the log.
type LiveNotifier interface {
	Notify(msg *model.Message)
}

type nopNotifier struct{}

func (nopNotifier) Notify(*model.Message) {}

// MessageService appends to the message log and sends manual replies.
type MessageService struct {
	repos  repomanager.Repos
	sender graph.Sender
	live   LiveNotifier
	logger *logger.Logger
	now    Clock
}

// NewMessageService creates a message service. live may be nil.
func NewMessageService(repos repomanager.Repos, sender graph.Sender, live LiveNotifier, log *logger.Logger) *MessageService {
	if live == nil {
		live = nopNotifier{}
	}
	return &MessageService{
		repos:  repos,
		sender: sender,
		live:   live,
		logger: log,
		now:    time.Now,
	}
}

// Record appends msg to the log and announces it to live chat viewers.
func (s *MessageService) Record(ctx context.Context, msg *model.Message) (*model.Message, error) {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = s.now()
	}
	stored, err := s.repos.Messages.Append(ctx, msg)
	if err != nil {
		return nil, err
	}
	s.live.Notify(stored)
	return stored, nil
}

// List returns the latest messages of a contact owned by userID, oldest first.
func (s *MessageService) List(ctx context.Context, userID, contactID string) ([]model.Message, error) {
	contact, err := s.repos.Contacts.GetByID(ctx, contactID)
	if err != nil {
		return nil, err
	}
	if contact.UserID != userID {
		return nil, common.ErrNotFound
	}
	return s.repos.Messages.ListForContact(ctx, contactID, DefaultHistoryLimit)
}

// Send delivers a hand-written reply to a contact and logs it as a bot
// message. An unknown contact is ErrNotFound, another user's contact is
// ErrForbidden.
func (s *MessageService) Send(ctx context.Context, userID string, req *model.SendMessageRequest) (*model.Message, error) {
	text := strings.TrimSpace(req.Text)
	if req.ContactID == "" || text == "" {
		return nil, fmt.Errorf("%w: contactId and text are required", common.ErrValidation)
	}

	contact, err := s.repos.Contacts.GetByID(ctx, req.ContactID)
	if err != nil {
		return nil, err
	}
	if contact.UserID != userID {
		return nil, common.ErrForbidden
	}

	account, err := s.repos.Accounts.GetByID(ctx, contact.AccountID)
	if errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("%w: no connected account for contact", common.ErrValidation)
	}
	if err != nil {
		return nil, err
	}

	if _, err := s.sender.SendText(ctx, contact.PlatformUserID, req.Text, account.AccessToken); err != nil {
		metrics.RecordReply(metrics.ReplyFailed)
		return nil, err
	}
	metrics.RecordReply(metrics.ReplyManual)

	msg, err := s.Record(ctx, &model.Message{
		UserID:    userID,
		ContactID: contact.ID,
		Text:      req.Text,
		Sender:    model.SenderBot,
	})
	if err != nil {
		s.logger.Error("manual reply sent but not logged",
			zap.String("contact_id", contact.ID),
			zap.Error(err),
		)
		return nil, err
	}
	return msg, nil
}
