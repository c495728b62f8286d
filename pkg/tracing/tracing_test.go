package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestNewProvider_RecordsSpansWithServiceName(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := NewProvider("autoreply-relay", sdktrace.WithSpanProcessor(rec))
	t.Cleanup(func() { Shutdown(context.Background(), tp) })

	_, span := otel.Tracer("test").Start(context.Background(), "work")
	span.End()

	ended := rec.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "work", ended[0].Name())

	var service string
	for _, kv := range ended[0].Resource().Attributes() {
		if kv.Key == "service.name" {
			service = kv.Value.AsString()
		}
	}
	assert.Equal(t, "autoreply-relay", service)
}
