package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/autoreply-relay/internal/common"
	"github.com/capitalize-ai/autoreply-relay/internal/model"
)

func seedAccount(t *testing.T, s *Store, userID, pageID string) *model.Account {
	t.Helper()
	a, err := s.Accounts().Create(context.Background(), &model.Account{UserID: userID, PageID: pageID, AccessToken: "tok"})
	require.NoError(t, err)
	return a
}

func TestAccounts_PageIDUnique(t *testing.T) {
	s := NewStore()
	seedAccount(t, s, "user-1", "page-1")

	_, err := s.Accounts().Create(context.Background(), &model.Account{UserID: "user-2", PageID: "page-1"})
	assert.ErrorIs(t, err, common.ErrConflict)
}

func TestAccounts_OwnershipScoped(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	a := seedAccount(t, s, "user-1", "page-1")

	_, err := s.Accounts().GetForUser(ctx, "user-2", a.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.ErrorIs(t, s.Accounts().Delete(ctx, "user-2", a.ID), common.ErrNotFound)

	list, err := s.Accounts().ListForUser(ctx, "user-2")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestAccounts_DeleteCascades(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	a := seedAccount(t, s, "user-1", "page-1")
	other := seedAccount(t, s, "user-1", "page-2")

	_, err := s.Rules().Create(ctx, &model.Rule{AccountID: a.ID, Keyword: "hi", IsActive: true})
	require.NoError(t, err)
	c, err := s.Contacts().Upsert(ctx, &model.Contact{UserID: "user-1", AccountID: a.ID, PlatformUserID: "p1", LastInteraction: time.Now()})
	require.NoError(t, err)
	_, err = s.Messages().Append(ctx, &model.Message{ContactID: c.ID, Text: "hi", Sender: model.SenderUser})
	require.NoError(t, err)
	_, err = s.Unmatched().Insert(ctx, &model.UnmatchedQuery{AccountID: a.ID, MessageContent: "?", ReceivedAt: time.Now()})
	require.NoError(t, err)
	_, err = s.Unmatched().Insert(ctx, &model.UnmatchedQuery{AccountID: other.ID, MessageContent: "??", ReceivedAt: time.Now()})
	require.NoError(t, err)

	require.NoError(t, s.Accounts().Delete(ctx, "user-1", a.ID))

	rules, _ := s.Rules().ListForUser(ctx, "user-1", "")
	assert.Empty(t, rules)
	_, err = s.Contacts().GetByID(ctx, c.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
	msgs, _ := s.Messages().ListForContact(ctx, c.ID, 0)
	assert.Empty(t, msgs)
	remaining, _ := s.Unmatched().ListRecent(ctx, other.ID, 50)
	assert.Len(t, remaining, 1)
}

func TestRules_ListActiveOrder(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	a := seedAccount(t, s, "user-1", "page-1")

	_, err := s.Rules().Create(ctx, &model.Rule{AccountID: a.ID, Keyword: "second", IsActive: true, Position: 1})
	require.NoError(t, err)
	_, err = s.Rules().Create(ctx, &model.Rule{AccountID: a.ID, Keyword: "first", IsActive: true, Position: 0})
	require.NoError(t, err)
	_, err = s.Rules().Create(ctx, &model.Rule{AccountID: a.ID, Keyword: "off", IsActive: false})
	require.NoError(t, err)
	_, err = s.Rules().Create(ctx, &model.Rule{AccountID: a.ID, Keyword: "third", IsActive: true, Position: 1})
	require.NoError(t, err)

	got, err := s.Rules().ListActive(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"first", "second", "third"}, []string{got[0].Keyword, got[1].Keyword, got[2].Keyword})
}

func TestContacts_UpsertIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	a := seedAccount(t, s, "user-1", "page-1")

	t1 := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Minute)

	first, err := s.Contacts().Upsert(ctx, &model.Contact{UserID: "user-1", AccountID: a.ID, PlatformUserID: "p1", LastInteraction: t1})
	require.NoError(t, err)
	second, err := s.Contacts().Upsert(ctx, &model.Contact{UserID: "user-1", AccountID: a.ID, PlatformUserID: "p1", LastInteraction: t2})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, t2, second.LastInteraction)

	// an older delivery arriving late does not move last_interaction back
	third, err := s.Contacts().Upsert(ctx, &model.Contact{UserID: "user-1", AccountID: a.ID, PlatformUserID: "p1", LastInteraction: t1})
	require.NoError(t, err)
	assert.Equal(t, t2, third.LastInteraction)

	all, err := s.Contacts().ListForUser(ctx, "user-1", model.ContactFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestContacts_AddTagsUnion(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	a := seedAccount(t, s, "user-1", "page-1")
	c, err := s.Contacts().Upsert(ctx, &model.Contact{UserID: "user-1", AccountID: a.ID, PlatformUserID: "p1", Tags: []string{"returning"}})
	require.NoError(t, err)

	tags, err := s.Contacts().AddTags(ctx, c.ID, "VIP")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"returning", "VIP"}, tags)

	tags, err = s.Contacts().AddTags(ctx, c.ID, "VIP")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"returning", "VIP"}, tags)

	_, err = s.Contacts().AddTags(ctx, "ghost", "VIP")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestContacts_ListSearchAndOrder(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	a := seedAccount(t, s, "user-1", "page-1")
	now := time.Now()

	_, err := s.Contacts().Upsert(ctx, &model.Contact{UserID: "user-1", AccountID: a.ID, PlatformUserID: "p1", Name: "Ann", LastInteraction: now.Add(-time.Hour)})
	require.NoError(t, err)
	_, err = s.Contacts().Upsert(ctx, &model.Contact{UserID: "user-1", AccountID: a.ID, PlatformUserID: "p2", Name: "Bob", Tags: []string{"VIP"}, LastInteraction: now})
	require.NoError(t, err)

	all, err := s.Contacts().ListForUser(ctx, "user-1", model.ContactFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Bob", all[0].Name)

	vip, err := s.Contacts().ListForUser(ctx, "user-1", model.ContactFilter{Search: "vip"})
	require.NoError(t, err)
	require.Len(t, vip, 1)
	assert.Equal(t, "p2", vip[0].PlatformUserID)

	paged, err := s.Contacts().ListForUser(ctx, "user-1", model.ContactFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, paged, 1)
	assert.Equal(t, "Ann", paged[0].Name)
}

func TestMessages_ListLatestOldestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	a := seedAccount(t, s, "user-1", "page-1")
	c, err := s.Contacts().Upsert(ctx, &model.Contact{UserID: "user-1", AccountID: a.ID, PlatformUserID: "p1"})
	require.NoError(t, err)

	base := time.Now()
	for i, text := range []string{"a", "b", "c"} {
		_, err := s.Messages().Append(ctx, &model.Message{ContactID: c.ID, Text: text, Sender: model.SenderUser, CreatedAt: base.Add(time.Duration(i) * time.Second)})
		require.NoError(t, err)
	}

	got, err := s.Messages().ListForContact(ctx, c.ID, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].Text)
	assert.Equal(t, "c", got[1].Text)
}

func TestUnmatched_DeleteOlderThanIsStrict(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	a := seedAccount(t, s, "user-1", "page-1")
	cutoff := time.Date(2026, 9, 18, 0, 0, 0, 0, time.UTC)

	for _, at := range []time.Time{cutoff.Add(-time.Second), cutoff, cutoff.Add(time.Second)} {
		_, err := s.Unmatched().Insert(ctx, &model.UnmatchedQuery{AccountID: a.ID, MessageContent: at.String(), ReceivedAt: at})
		require.NoError(t, err)
	}

	n, err := s.Unmatched().DeleteOlderThan(ctx, cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	left, err := s.Unmatched().ListRecent(ctx, a.ID, 50)
	require.NoError(t, err)
	assert.Len(t, left, 2)
}
