package service

import (
	"context"

	"github.com/capitalize-ai/autoreply-relay/internal/graph"
	"github.com/capitalize-ai/autoreply-relay/internal/model"
)

// ReplyDispatcher hands a matched reply to delivery. delivered is true only
// when the platform confirmed the send; a queued reply reports false and is
// logged by the outbox worker later.
type ReplyDispatcher interface {
	Dispatch(ctx context.Context, reply *model.OutboundReply, accessToken string) (delivered bool, err error)
}

// DirectDispatcher sends inline. Used when NATS is not configured.
type DirectDispatcher struct {
	sender graph.Sender
}

func NewDirectDispatcher(sender graph.Sender) *DirectDispatcher {
	return &DirectDispatcher{sender: sender}
}

func (d *DirectDispatcher) Dispatch(ctx context.Context, reply *model.OutboundReply, accessToken string) (bool, error) {
	if _, err := d.sender.SendText(ctx, reply.RecipientID, reply.Text, accessToken); err != nil {
		return false, err
	}
	return true, nil
}

// ReplyPublisher enqueues replies on the outbox stream.
type ReplyPublisher interface {
	PublishReply(ctx context.Context, reply *model.OutboundReply) (uint64, error)
}

// QueueDispatcher enqueues replies. The access token is not queued; the
// worker looks it up at send time.
type QueueDispatcher struct {
	publisher ReplyPublisher
}

func NewQueueDispatcher(publisher ReplyPublisher) *QueueDispatcher {
	return &QueueDispatcher{publisher: publisher}
}

func (d *QueueDispatcher) Dispatch(ctx context.Context, reply *model.OutboundReply, _ string) (bool, error) {
	if _, err := d.publisher.PublishReply(ctx, reply); err != nil {
		return false, err
	}
	return false, nil
}
