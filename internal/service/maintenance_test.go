package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/autoreply-relay/internal/model"
	"github.com/capitalize-ai/autoreply-relay/pkg/logger"
)

func TestPurge_ThirtyDayBoundary(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.account(t, "user-1", "page-1")

	window := 30 * 24 * time.Hour
	for _, q := range []struct {
		text string
		age  time.Duration
	}{
		{"fresh", time.Hour},
		{"just inside", window - time.Second},
		{"just outside", window + time.Second},
		{"ancient", 90 * 24 * time.Hour},
	} {
		_, err := f.repos.Unmatched.Insert(ctx, &model.UnmatchedQuery{
			AccountID:      a.ID,
			MessageContent: q.text,
			ReceivedAt:     f.now.Add(-q.age),
		})
		require.NoError(t, err)
	}

	svc := NewMaintenanceService(f.repos.Unmatched, 0, logger.NewNop())
	svc.now = f.clock

	res, err := svc.Purge(ctx)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, int64(2), res.Deleted)
	assert.True(t, res.Cutoff.Equal(f.now.Add(-window)))

	left, err := f.repos.Unmatched.ListRecent(ctx, a.ID, 50)
	require.NoError(t, err)
	var texts []string
	for _, q := range left {
		texts = append(texts, q.MessageContent)
	}
	assert.ElementsMatch(t, []string{"fresh", "just inside"}, texts)
}

func TestPurge_CustomRetention(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.account(t, "user-1", "page-1")
	_, err := f.repos.Unmatched.Insert(ctx, &model.UnmatchedQuery{AccountID: a.ID, MessageContent: "two days", ReceivedAt: f.now.Add(-48 * time.Hour)})
	require.NoError(t, err)

	svc := NewMaintenanceService(f.repos.Unmatched, 24*time.Hour, logger.NewNop())
	svc.now = f.clock

	res, err := svc.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Deleted)
}
