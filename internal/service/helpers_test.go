package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/autoreply-relay/internal/graph"
	"github.com/capitalize-ai/autoreply-relay/internal/model"
	"github.com/capitalize-ai/autoreply-relay/internal/repository/repomanager"
	"github.com/capitalize-ai/autoreply-relay/pkg/logger"
)

type sentText struct {
	RecipientID string
	Text        string
	Token       string
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sentText
	err  error
}

func (f *fakeSender) SendText(ctx context.Context, recipientID, text, accessToken string) (*graph.SendResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, sentText{RecipientID: recipientID, Text: text, Token: accessToken})
	return &graph.SendResponse{RecipientID: recipientID, MessageID: "m_" + recipientID}, nil
}

func (f *fakeSender) Sent() []sentText {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentText(nil), f.sent...)
}

type recordingNotifier struct {
	mu   sync.Mutex
	msgs []model.Message
}

func (n *recordingNotifier) Notify(msg *model.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, *msg)
}

type fixture struct {
	manager  *repomanager.MemoryRepositoryManager
	repos    repomanager.Repos
	sender   *fakeSender
	live     *recordingNotifier
	messages *MessageService
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	m := repomanager.NewMemoryRepositoryManager()
	f := &fixture{
		manager: m,
		repos:   m.Repos(),
		sender:  &fakeSender{},
		live:    &recordingNotifier{},
		now:     time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC),
	}
	f.messages = NewMessageService(f.repos, f.sender, f.live, logger.NewNop())
	f.messages.now = f.clock
	return f
}

func (f *fixture) clock() time.Time { return f.now }

func (f *fixture) account(t *testing.T, userID, pageID string) *model.Account {
	t.Helper()
	a, err := f.repos.Accounts.Create(context.Background(), &model.Account{
		UserID:      userID,
		PageID:      pageID,
		AccessToken: "token-" + pageID,
	})
	require.NoError(t, err)
	return a
}

func (f *fixture) rule(t *testing.T, accountID, keyword, reply string, position int, actions ...model.Action) *model.Rule {
	t.Helper()
	r, err := f.repos.Rules.Create(context.Background(), &model.Rule{
		AccountID:    accountID,
		Keyword:      keyword,
		ReplyContent: reply,
		IsActive:     true,
		Position:     position,
		Actions:      actions,
	})
	require.NoError(t, err)
	return r
}

func (f *fixture) contact(t *testing.T, userID, accountID, platformID string, tags ...string) *model.Contact {
	t.Helper()
	c, err := f.repos.Contacts.Upsert(context.Background(), &model.Contact{
		UserID:          userID,
		AccountID:       accountID,
		PlatformUserID:  platformID,
		Tags:            tags,
		LastInteraction: f.now,
	})
	require.NoError(t, err)
	return c
}

func textEvent(object, pageID, senderID, text string) *model.WebhookEvent {
	return &model.WebhookEvent{
		Object: object,
		Entry: []model.WebhookEntry{{
			ID: pageID,
			Messaging: []model.MessagingEvent{{
				Sender:    model.Participant{ID: senderID},
				Recipient: model.Participant{ID: pageID},
				Message:   &model.InboundMessage{Mid: "mid." + senderID, Text: text},
			}},
		}},
	}
}
