package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/capitalize-ai/autoreply-relay/internal/common"
	"github.com/capitalize-ai/autoreply-relay/internal/model"
	"github.com/capitalize-ai/autoreply-relay/internal/repository/repomanager"
	"github.com/capitalize-ai/autoreply-relay/pkg/logger"
	"github.com/capitalize-ai/autoreply-relay/pkg/metrics"
)

const tracerName = "github.com/capitalize-ai/autoreply-relay/internal/service"

// ProcessorConfig holds the processor's tunables.
type ProcessorConfig struct {
	// DispatchTimeout bounds handing one reply to delivery. Zero means no
	// bound beyond the caller's context.
	DispatchTimeout time.Duration
}

// ProcessResult summarises one webhook delivery.
type ProcessResult struct {
	Processed int `json:"processed"`
	Matched   int `json:"matched"`
	Unmatched int `json:"unmatched"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// Processor turns inbound messaging events into replies or unmatched
// queries while keeping contacts and the message log up to date.
type Processor struct {
	cfg        ProcessorConfig
	repos      repomanager.Repos
	dispatcher ReplyDispatcher
	messages   *MessageService
	logger     *logger.Logger
	tracer     trace.Tracer
	now        Clock
}

func NewProcessor(cfg ProcessorConfig, repos repomanager.Repos, dispatcher ReplyDispatcher, messages *MessageService, log *logger.Logger) *Processor {
	return &Processor{
		cfg:        cfg,
		repos:      repos,
		dispatcher: dispatcher,
		messages:   messages,
		logger:     log.Named("processor"),
		tracer:     otel.Tracer(tracerName),
		now:        time.Now,
	}
}

// Process handles every messaging event of every entry, sequentially and in
// delivery order. Failures are contained per event; the only error returned
// is ErrUnsupportedObject for a delivery that is not for a page or
// Instagram account.
func (p *Processor) Process(ctx context.Context, event *model.WebhookEvent) (ProcessResult, error) {
	var res ProcessResult
	if !event.Supported() {
		return res, fmt.Errorf("%w: %q", common.ErrUnsupportedObject, event.Object)
	}

	for _, entry := range event.Entry {
		for _, ev := range entry.Messaging {
			if !ev.HasText() {
				res.Skipped++
				metrics.RecordEvent(event.Object, metrics.OutcomeSkipped)
				continue
			}

			outcome, err := p.handle(ctx, event.Object, entry.ID, ev)
			metrics.RecordEvent(event.Object, outcome)

			switch outcome {
			case metrics.OutcomeMatched:
				res.Processed++
				res.Matched++
			case metrics.OutcomeUnmatched:
				res.Processed++
				res.Unmatched++
			case metrics.OutcomeNoAccount:
				res.Skipped++
			default:
				res.Processed++
				res.Failed++
				p.logger.Error("messaging event failed",
					zap.String("page_id", entry.ID),
					zap.String("sender_id", ev.Sender.ID),
					zap.Error(err),
				)
			}
		}
	}
	return res, nil
}

func (p *Processor) handle(ctx context.Context, object, pageID string, ev model.MessagingEvent) (string, error) {
	ctx, span := p.tracer.Start(ctx, "webhook.event", trace.WithAttributes(
		attribute.String("webhook.object", object),
		attribute.String("webhook.page_id", pageID),
	))
	defer span.End()

	outcome, err := p.processEvent(ctx, pageID, ev)
	span.SetAttributes(attribute.String("webhook.outcome", outcome))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return outcome, err
}

func (p *Processor) processEvent(ctx context.Context, pageID string, ev model.MessagingEvent) (string, error) {
	text := ev.Message.Text

	account, err := p.repos.Accounts.GetByPageID(ctx, pageID)
	if errors.Is(err, common.ErrNotFound) {
		p.logger.Warn("no account for page", zap.String("page_id", pageID))
		return metrics.OutcomeNoAccount, nil
	}
	if err != nil {
		return metrics.OutcomeFailed, fmt.Errorf("resolve account: %w", err)
	}

	now := p.now()
	contact, err := p.repos.Contacts.Upsert(ctx, &model.Contact{
		UserID:          account.UserID,
		AccountID:       account.ID,
		PlatformUserID:  ev.Sender.ID,
		LastInteraction: now,
	})
	if err != nil {
		return metrics.OutcomeFailed, fmt.Errorf("upsert contact: %w", err)
	}

	if _, err := p.messages.Record(ctx, &model.Message{
		UserID:    account.UserID,
		ContactID: contact.ID,
		Text:      text,
		Sender:    model.SenderUser,
		CreatedAt: now,
	}); err != nil {
		return metrics.OutcomeFailed, fmt.Errorf("log inbound message: %w", err)
	}

	rules, err := p.repos.Rules.ListActive(ctx, account.ID)
	if err != nil {
		return metrics.OutcomeFailed, fmt.Errorf("load rules: %w", err)
	}

	rule := MatchRule(rules, text)
	if rule == nil {
		if _, err := p.repos.Unmatched.Insert(ctx, &model.UnmatchedQuery{
			AccountID:      account.ID,
			MessageContent: text,
			ReceivedAt:     now,
		}); err != nil {
			return metrics.OutcomeFailed, fmt.Errorf("log unmatched query: %w", err)
		}
		return metrics.OutcomeUnmatched, nil
	}

	if err := p.reply(ctx, account, contact, rule, ev.Sender.ID); err != nil {
		return metrics.OutcomeFailed, err
	}
	return metrics.OutcomeMatched, nil
}

func (p *Processor) reply(ctx context.Context, account *model.Account, contact *model.Contact, rule *model.Rule, recipientID string) error {
	reply := &model.OutboundReply{
		ID:          newID(),
		AccountID:   account.ID,
		UserID:      account.UserID,
		ContactID:   contact.ID,
		RecipientID: recipientID,
		RuleID:      rule.ID,
		Text:        rule.ReplyContent,
		CreatedAt:   p.now(),
	}

	dctx := ctx
	if p.cfg.DispatchTimeout > 0 {
		var cancel context.CancelFunc
		dctx, cancel = context.WithTimeout(ctx, p.cfg.DispatchTimeout)
		defer cancel()
	}

	delivered, err := p.dispatcher.Dispatch(dctx, reply, account.AccessToken)
	if err != nil {
		metrics.RecordReply(metrics.ReplyFailed)
		return fmt.Errorf("dispatch reply for rule %s: %w", rule.ID, err)
	}

	for _, action := range rule.Actions {
		switch action.Type {
		case model.ActionAddTag:
			if action.Value == "" {
				continue
			}
			if _, err := p.repos.Contacts.AddTags(ctx, contact.ID, action.Value); err != nil {
				return fmt.Errorf("add tag %q: %w", action.Value, err)
			}
		default:
			p.logger.Warn("unknown rule action", zap.String("rule_id", rule.ID), zap.String("type", string(action.Type)))
		}
	}

	if !delivered {
		metrics.RecordReply(metrics.ReplyQueued)
		return nil
	}
	metrics.RecordReply(metrics.ReplySent)

	if _, err := p.messages.Record(ctx, &model.Message{
		UserID:    account.UserID,
		ContactID: contact.ID,
		Text:      rule.ReplyContent,
		Sender:    model.SenderBot,
		CreatedAt: p.now(),
	}); err != nil {
		return fmt.Errorf("log bot message: %w", err)
	}
	return nil
}
