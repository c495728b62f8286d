package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/capitalize-ai/autoreply-relay/internal/common"
	"github.com/capitalize-ai/autoreply-relay/internal/graph"
	"github.com/capitalize-ai/autoreply-relay/internal/model"
	natsclient "github.com/capitalize-ai/autoreply-relay/internal/nats"
	"github.com/capitalize-ai/autoreply-relay/internal/repository/accounts"
	"github.com/capitalize-ai/autoreply-relay/pkg/logger"
)

// OutboxWorker delivers queued replies and logs the bot message once the
// platform accepted it.
type OutboxWorker struct {
	accounts accounts.Repository
	sender   graph.Sender
	messages *MessageService
	logger   *logger.Logger
}

func NewOutboxWorker(accounts accounts.Repository, sender graph.Sender, messages *MessageService, log *logger.Logger) *OutboxWorker {
	return &OutboxWorker{
		accounts: accounts,
		sender:   sender,
		messages: messages,
		logger:   log.Named("outbox"),
	}
}

// Handle sends one reply. Errors that a retry cannot fix are marked
// permanent.
func (w *OutboxWorker) Handle(ctx context.Context, reply *model.OutboundReply) error {
	account, err := w.accounts.GetByID(ctx, reply.AccountID)
	if errors.Is(err, common.ErrNotFound) {
		// account deleted while the reply was queued
		return natsclient.Permanent(err)
	}
	if err != nil {
		return err
	}

	if _, err := w.sender.SendText(ctx, reply.RecipientID, reply.Text, account.AccessToken); err != nil {
		if graph.IsPermanent(err) {
			return natsclient.Permanent(err)
		}
		return err
	}

	// Delivered: from here on never ask for a redelivery, or the
	// contact would get the reply twice.
	_, err = w.messages.Record(ctx, &model.Message{
		UserID:    reply.UserID,
		ContactID: reply.ContactID,
		Text:      reply.Text,
		Sender:    model.SenderBot,
	})
	if err != nil {
		w.logger.Error("reply delivered but not logged",
			zap.String("reply_id", reply.ID),
			zap.String("contact_id", reply.ContactID),
			zap.Error(err),
		)
	}
	return nil
}
