// Package memory implements every repository in process memory. It backs
// STORAGE=memory for local runs and the service tests.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/capitalize-ai/autoreply-relay/internal/common"
	"github.com/capitalize-ai/autoreply-relay/internal/model"
)

// Store holds all entities. The typed repositories returned by its accessors
// share one lock, so cascades stay consistent.
type Store struct {
	mu  sync.RWMutex
	seq int64

	accounts  map[string]*model.Account
	rules     map[string]*ruleRecord
	contacts  map[string]*model.Contact
	messages  []messageRecord
	unmatched map[string]*model.UnmatchedQuery
}

type ruleRecord struct {
	rule model.Rule
	seq  int64
}

type messageRecord struct {
	msg model.Message
	seq int64
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		accounts:  make(map[string]*model.Account),
		rules:     make(map[string]*ruleRecord),
		contacts:  make(map[string]*model.Contact),
		unmatched: make(map[string]*model.UnmatchedQuery),
	}
}

func (s *Store) Accounts() *AccountRepository    { return &AccountRepository{s: s} }
func (s *Store) Rules() *RuleRepository          { return &RuleRepository{s: s} }
func (s *Store) Contacts() *ContactRepository    { return &ContactRepository{s: s} }
func (s *Store) Messages() *MessageRepository    { return &MessageRepository{s: s} }
func (s *Store) Unmatched() *UnmatchedRepository { return &UnmatchedRepository{s: s} }

func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

func (s *Store) next() int64 {
	s.seq++
	return s.seq
}

// AccountRepository is the in-memory accounts.Repository.
type AccountRepository struct{ s *Store }

func (r *AccountRepository) Create(ctx context.Context, a *model.Account) (*model.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.accounts {
		if existing.PageID == a.PageID {
			return nil, fmt.Errorf("%w: page_id", common.ErrConflict)
		}
	}
	if a.ID == "" {
		a.ID = newID()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	stored := *a
	r.s.accounts[a.ID] = &stored
	return a, nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*model.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.accounts[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	out := *a
	return &out, nil
}

func (r *AccountRepository) GetByPageID(ctx context.Context, pageID string) (*model.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, a := range r.s.accounts {
		if a.PageID == pageID {
			out := *a
			return &out, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *AccountRepository) GetForUser(ctx context.Context, userID, id string) (*model.Account, error) {
	a, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.UserID != userID {
		return nil, common.ErrNotFound
	}
	return a, nil
}

func (r *AccountRepository) ListForUser(ctx context.Context, userID string) ([]model.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := []model.Account{}
	for _, a := range r.s.accounts {
		if a.UserID == userID {
			result = append(result, *a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (r *AccountRepository) Update(ctx context.Context, a *model.Account) (*model.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.accounts[a.ID]
	if !ok || stored.UserID != a.UserID {
		return nil, common.ErrNotFound
	}
	stored.Name = a.Name
	stored.AccessToken = a.AccessToken
	stored.WebhookSecret = a.WebhookSecret
	out := *stored
	return &out, nil
}

// Delete removes the account with its rules, unmatched queries, contacts and
// their messages.
func (r *AccountRepository) Delete(ctx context.Context, userID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, ok := r.s.accounts[id]
	if !ok || a.UserID != userID {
		return common.ErrNotFound
	}
	delete(r.s.accounts, id)

	for rid, rec := range r.s.rules {
		if rec.rule.AccountID == id {
			delete(r.s.rules, rid)
		}
	}
	for qid, q := range r.s.unmatched {
		if q.AccountID == id {
			delete(r.s.unmatched, qid)
		}
	}
	removed := make(map[string]struct{})
	for cid, c := range r.s.contacts {
		if c.AccountID == id {
			removed[cid] = struct{}{}
			delete(r.s.contacts, cid)
		}
	}
	r.s.messages = slices.DeleteFunc(r.s.messages, func(m messageRecord) bool {
		_, gone := removed[m.msg.ContactID]
		return gone
	})
	return nil
}

// RuleRepository is the in-memory rules.Repository.
type RuleRepository struct{ s *Store }

func (r *RuleRepository) sorted(keep func(*model.Rule) bool) []model.Rule {
	recs := make([]*ruleRecord, 0, len(r.s.rules))
	for _, rec := range r.s.rules {
		if keep(&rec.rule) {
			recs = append(recs, rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if a.rule.Position != b.rule.Position {
			return a.rule.Position < b.rule.Position
		}
		if !a.rule.CreatedAt.Equal(b.rule.CreatedAt) {
			return a.rule.CreatedAt.Before(b.rule.CreatedAt)
		}
		return a.seq < b.seq
	})
	result := make([]model.Rule, 0, len(recs))
	for _, rec := range recs {
		result = append(result, cloneRule(rec.rule))
	}
	return result
}

func (r *RuleRepository) ownedBy(userID string, rule *model.Rule) bool {
	a, ok := r.s.accounts[rule.AccountID]
	return ok && a.UserID == userID
}

func (r *RuleRepository) ListActive(ctx context.Context, accountID string) ([]model.Rule, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.sorted(func(rule *model.Rule) bool {
		return rule.AccountID == accountID && rule.IsActive
	}), nil
}

func (r *RuleRepository) ListForUser(ctx context.Context, userID, accountID string) ([]model.Rule, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.sorted(func(rule *model.Rule) bool {
		if accountID != "" && rule.AccountID != accountID {
			return false
		}
		return r.ownedBy(userID, rule)
	}), nil
}

func (r *RuleRepository) GetForUser(ctx context.Context, userID, id string) (*model.Rule, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rec, ok := r.s.rules[id]
	if !ok || !r.ownedBy(userID, &rec.rule) {
		return nil, common.ErrNotFound
	}
	out := cloneRule(rec.rule)
	return &out, nil
}

func (r *RuleRepository) Create(ctx context.Context, rule *model.Rule) (*model.Rule, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.accounts[rule.AccountID]; !ok {
		return nil, fmt.Errorf("db error: unknown account %s", rule.AccountID)
	}
	if rule.ID == "" {
		rule.ID = newID()
	}
	now := time.Now()
	rule.CreatedAt, rule.UpdatedAt = now, now
	if rule.Actions == nil {
		rule.Actions = []model.Action{}
	}
	r.s.rules[rule.ID] = &ruleRecord{rule: cloneRule(*rule), seq: r.s.next()}
	out := cloneRule(*rule)
	return &out, nil
}

func (r *RuleRepository) Update(ctx context.Context, userID string, rule *model.Rule) (*model.Rule, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec, ok := r.s.rules[rule.ID]
	if !ok || !r.ownedBy(userID, &rec.rule) {
		return nil, common.ErrNotFound
	}
	rec.rule.Keyword = rule.Keyword
	rec.rule.ReplyContent = rule.ReplyContent
	rec.rule.IsActive = rule.IsActive
	rec.rule.Position = rule.Position
	rec.rule.Actions = slices.Clone(rule.Actions)
	if rec.rule.Actions == nil {
		rec.rule.Actions = []model.Action{}
	}
	rec.rule.UpdatedAt = time.Now()
	out := cloneRule(rec.rule)
	return &out, nil
}

func (r *RuleRepository) Delete(ctx context.Context, userID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec, ok := r.s.rules[id]
	if !ok || !r.ownedBy(userID, &rec.rule) {
		return common.ErrNotFound
	}
	delete(r.s.rules, id)
	return nil
}

func cloneRule(rule model.Rule) model.Rule {
	rule.Actions = slices.Clone(rule.Actions)
	return rule
}

// ContactRepository is the in-memory contacts.Repository.
type ContactRepository struct{ s *Store }

func (r *ContactRepository) Upsert(ctx context.Context, c *model.Contact) (*model.Contact, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, stored := range r.s.contacts {
		if stored.UserID != c.UserID || stored.PlatformUserID != c.PlatformUserID {
			continue
		}
		if c.LastInteraction.After(stored.LastInteraction) {
			stored.LastInteraction = c.LastInteraction
		}
		if c.Name != "" {
			stored.Name = c.Name
		}
		if c.ProfilePic != "" {
			stored.ProfilePic = c.ProfilePic
		}
		out := cloneContact(*stored)
		return &out, nil
	}

	stored := cloneContact(*c)
	if stored.ID == "" {
		stored.ID = newID()
	}
	stored.Tags = union(nil, c.Tags)
	stored.CreatedAt = time.Now()
	r.s.contacts[stored.ID] = &stored
	out := cloneContact(stored)
	return &out, nil
}

func (r *ContactRepository) GetByID(ctx context.Context, id string) (*model.Contact, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.contacts[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	out := cloneContact(*c)
	return &out, nil
}

func (r *ContactRepository) ListForUser(ctx context.Context, userID string, filter model.ContactFilter) ([]model.Contact, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	search := strings.ToLower(filter.Search)
	var matched []model.Contact
	for _, c := range r.s.contacts {
		if c.UserID != userID || !contactMatches(c, search) {
			continue
		}
		matched = append(matched, cloneContact(*c))
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].LastInteraction.After(matched[j].LastInteraction)
	})

	result := []model.Contact{}
	for i := filter.Offset; i < len(matched) && (filter.Limit <= 0 || len(result) < filter.Limit); i++ {
		result = append(result, matched[i])
	}
	return result, nil
}

func contactMatches(c *model.Contact, search string) bool {
	if search == "" {
		return true
	}
	if strings.Contains(strings.ToLower(c.Name), search) || strings.Contains(strings.ToLower(c.PlatformUserID), search) {
		return true
	}
	for _, t := range c.Tags {
		if strings.Contains(strings.ToLower(t), search) {
			return true
		}
	}
	return false
}

func (r *ContactRepository) AddTags(ctx context.Context, id string, tags ...string) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.contacts[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	c.Tags = union(c.Tags, tags)
	return slices.Clone(c.Tags), nil
}

func union(existing, add []string) []string {
	out := slices.Clone(existing)
	if out == nil {
		out = []string{}
	}
	for _, t := range add {
		if t != "" && !slices.Contains(out, t) {
			out = append(out, t)
		}
	}
	return out
}

func cloneContact(c model.Contact) model.Contact {
	c.Tags = slices.Clone(c.Tags)
	if c.Tags == nil {
		c.Tags = []string{}
	}
	return c
}

// MessageRepository is the in-memory messages.Repository.
type MessageRepository struct{ s *Store }

func (r *MessageRepository) Append(ctx context.Context, msg *model.Message) (*model.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.contacts[msg.ContactID]; !ok {
		return nil, fmt.Errorf("db error: unknown contact %s", msg.ContactID)
	}
	if msg.ID == "" {
		msg.ID = newID()
	}
	r.s.messages = append(r.s.messages, messageRecord{msg: *msg, seq: r.s.next()})
	return msg, nil
}

func (r *MessageRepository) ListForContact(ctx context.Context, contactID string, limit int) ([]model.Message, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var recs []messageRecord
	for _, m := range r.s.messages {
		if m.msg.ContactID == contactID {
			recs = append(recs, m)
		}
	}
	sort.SliceStable(recs, func(i, j int) bool {
		if !recs[i].msg.CreatedAt.Equal(recs[j].msg.CreatedAt) {
			return recs[i].msg.CreatedAt.Before(recs[j].msg.CreatedAt)
		}
		return recs[i].seq < recs[j].seq
	})
	if limit > 0 && len(recs) > limit {
		recs = recs[len(recs)-limit:]
	}

	result := make([]model.Message, 0, len(recs))
	for _, m := range recs {
		result = append(result, m.msg)
	}
	return result, nil
}

// UnmatchedRepository is the in-memory unmatched.Repository.
type UnmatchedRepository struct{ s *Store }

func (r *UnmatchedRepository) Insert(ctx context.Context, q *model.UnmatchedQuery) (*model.UnmatchedQuery, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.accounts[q.AccountID]; !ok {
		return nil, fmt.Errorf("db error: unknown account %s", q.AccountID)
	}
	if q.ID == "" {
		q.ID = newID()
	}
	stored := *q
	r.s.unmatched[q.ID] = &stored
	return q, nil
}

func (r *UnmatchedRepository) ListRecent(ctx context.Context, accountID string, limit int) ([]model.UnmatchedQuery, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := []model.UnmatchedQuery{}
	for _, q := range r.s.unmatched {
		if q.AccountID == accountID {
			result = append(result, *q)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ReceivedAt.After(result[j].ReceivedAt) })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *UnmatchedRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for id, q := range r.s.unmatched {
		if q.ReceivedAt.Before(cutoff) {
			delete(r.s.unmatched, id)
			n++
		}
	}
	return n, nil
}
