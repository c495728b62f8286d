package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/capitalize-ai/autoreply-relay/internal/model"
	"github.com/capitalize-ai/autoreply-relay/pkg/logger"
	"github.com/capitalize-ai/autoreply-relay/pkg/metrics"
)

const (
	// ReplyStream is the work-queue stream holding pending replies.
	ReplyStream = "REPLIES"

	// ReplySubjectPrefix is the prefix for all reply subjects.
	ReplySubjectPrefix = "replies"

	// ReplyConsumer is the durable consumer shared by all workers.
	ReplyConsumer = "reply-sender"
)

const (
	baseRetryDelay = 2 * time.Second
	maxRetryDelay  = time.Minute
)

// ReplySubject returns the subject a reply for accountID is published on.
func ReplySubject(accountID string) string {
	return fmt.Sprintf("%s.%s", ReplySubjectPrefix, accountID)
}

// StreamManager handles the reply outbox stream.
type StreamManager struct {
	client *Client
	logger *logger.Logger
}

// NewStreamManager creates a new stream manager.
func NewStreamManager(client *Client, log *logger.Logger) *StreamManager {
	return &StreamManager{client: client, logger: log.Named("outbox")}
}

// EnsureStream ensures the replies stream exists with proper configuration.
func (m *StreamManager) EnsureStream(ctx context.Context) error {
	js := m.client.JetStream()

	if _, err := js.Stream(ctx, ReplyStream); err == nil {
		return nil
	}

	_, err := js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        ReplyStream,
		Subjects:    []string{ReplySubjectPrefix + ".>"},
		Retention:   jetstream.WorkQueuePolicy,
		MaxAge:      24 * time.Hour,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Duplicates:  10 * time.Minute,
		Description: "Keyword replies waiting for delivery",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}
	return nil
}

// PublishReply enqueues a reply. The reply ID doubles as the JetStream
// message id so a retried publish is deduplicated.
func (m *StreamManager) PublishReply(ctx context.Context, reply *model.OutboundReply) (uint64, error) {
	data, err := json.Marshal(reply)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal reply: %w", err)
	}

	ack, err := m.client.JetStream().Publish(ctx, ReplySubject(reply.AccountID), data, jetstream.WithMsgID(reply.ID))
	if err != nil {
		return 0, fmt.Errorf("failed to publish reply: %w", err)
	}
	return ack.Sequence, nil
}

// ReplyHandler delivers one reply. Returning an error wrapped with
// Permanent drops the reply; any other error schedules a redelivery.
type ReplyHandler func(ctx context.Context, reply *model.OutboundReply) error

// ConsumeReplies runs handler for every queued reply until ctx is done. A
// reply is redelivered at most maxDeliver times.
func (m *StreamManager) ConsumeReplies(ctx context.Context, maxDeliver int, handler ReplyHandler) (func(), error) {
	consumer, err := m.client.JetStream().CreateOrUpdateConsumer(ctx, ReplyStream, jetstream.ConsumerConfig{
		Durable:       ReplyConsumer,
		FilterSubject: ReplySubjectPrefix + ".>",
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       30 * time.Second,
		MaxDeliver:    maxDeliver,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer: %w", err)
	}

	cc, err := consumer.Consume(func(msg jetstream.Msg) {
		HandleReply(ctx, msg, maxDeliver, handler, m.logger)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to consume replies: %w", err)
	}
	return cc.Stop, nil
}

// ReportMetrics samples stream and consumer depth every interval until ctx
// is done.
func (m *StreamManager) ReportMetrics(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		js := m.client.JetStream()
		if stream, err := js.Stream(ctx, ReplyStream); err == nil {
			if info, err := stream.Info(ctx); err == nil {
				metrics.NATSStreamMessages.WithLabelValues(ReplyStream).Set(float64(info.State.Msgs))
			}
		}
		if consumer, err := js.Consumer(ctx, ReplyStream, ReplyConsumer); err == nil {
			if info, err := consumer.Info(ctx); err == nil {
				metrics.NATSConsumerPending.WithLabelValues(ReplyStream, ReplyConsumer).Set(float64(info.NumPending + uint64(info.NumAckPending)))
			}
		}
	}
}

// Msg is the part of jetstream.Msg the reply handler needs.
type Msg interface {
	Data() []byte
	Metadata() (*jetstream.MsgMetadata, error)
	Ack() error
	NakWithDelay(delay time.Duration) error
	Term() error
}

// HandleReply decodes msg, runs handler and settles the message: ack on
// success, term on a permanent failure or the last attempt, nak with
// exponential backoff otherwise.
func HandleReply(ctx context.Context, msg Msg, maxDeliver int, handler ReplyHandler, log *logger.Logger) {
	var reply model.OutboundReply
	if err := json.Unmarshal(msg.Data(), &reply); err != nil {
		log.Error("malformed reply dropped", zap.Error(err))
		metrics.RecordReply(metrics.ReplyDropped)
		_ = msg.Term()
		return
	}

	attempt := 1
	if meta, err := msg.Metadata(); err == nil {
		attempt = int(meta.NumDelivered)
	}

	fields := []zap.Field{
		zap.String("reply_id", reply.ID),
		zap.String("account_id", reply.AccountID),
		zap.String("contact_id", reply.ContactID),
		zap.Int("attempt", attempt),
	}

	err := handler(ctx, &reply)
	switch {
	case err == nil:
		metrics.RecordReply(metrics.ReplySent)
		if ackErr := msg.Ack(); ackErr != nil {
			log.Warn("failed to ack reply", append(fields, zap.Error(ackErr))...)
		}
	case IsPermanent(err):
		log.Error("reply rejected", append(fields, zap.Error(err))...)
		metrics.RecordReply(metrics.ReplyRejected)
		_ = msg.Term()
	case maxDeliver > 0 && attempt >= maxDeliver:
		log.Error("reply dropped after final attempt", append(fields, zap.Error(err))...)
		metrics.RecordReply(metrics.ReplyDropped)
		_ = msg.Term()
	default:
		delay := RetryDelay(attempt)
		log.Warn("reply delivery failed, retrying", append(fields, zap.Duration("delay", delay), zap.Error(err))...)
		metrics.RecordReply(metrics.ReplyRetried)
		_ = msg.NakWithDelay(delay)
	}
}

// RetryDelay is the backoff before redelivering after the given attempt.
func RetryDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := baseRetryDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= maxRetryDelay {
			return maxRetryDelay
		}
	}
	return delay
}

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}
