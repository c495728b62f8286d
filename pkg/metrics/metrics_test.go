package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordEvent(t *testing.T) {
	before := testutil.ToFloat64(WebhookEventsTotal.WithLabelValues("page", OutcomeMatched))
	RecordEvent("page", OutcomeMatched)
	assert.Equal(t, before+1, testutil.ToFloat64(WebhookEventsTotal.WithLabelValues("page", OutcomeMatched)))
}

func TestRecordPurge(t *testing.T) {
	before := testutil.ToFloat64(UnmatchedPurgedTotal)
	RecordPurge(3)
	assert.Equal(t, before+3, testutil.ToFloat64(UnmatchedPurgedTotal))
}

func TestSSEConnections(t *testing.T) {
	before := testutil.ToFloat64(SSEConnectionsActive)
	IncrementSSEConnections()
	assert.Equal(t, before+1, testutil.ToFloat64(SSEConnectionsActive))
	DecrementSSEConnections()
	assert.Equal(t, before, testutil.ToFloat64(SSEConnectionsActive))
}
