package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestFilterAttributesDropsUnknownKeys(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("endpoint", "/v/:hash"),
		attribute.String("result", "valid"),
		attribute.String("customer_email", "ama@example.com"),
		attribute.String("hash", "deadbeef"),
	)

	keys := make([]attribute.Key, 0, len(attrs))
	for _, attr := range attrs {
		keys = append(keys, attr.Key)
	}
	assert.ElementsMatch(t, []attribute.Key{"endpoint", "result"}, keys)
}

func TestInstrumentsWorkWithNoopProvider(t *testing.T) {
	cfg := Config{ServiceName: "invopay-test"}
	provider := noop.NewMeterProvider()

	m, err := New(cfg, provider)
	require.NoError(t, err)
	httpMetrics, err := NewHTTPMetrics(cfg, provider)
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordPayment(ctx, "MOBILE_MONEY")
	m.RecordVerifyLookup(ctx, "valid")
	m.RecordVerifyScanDepth(ctx, 42)
	m.RecordRateLimitAllowed(ctx, "/v/:hash")
	m.RecordRateLimitDenied(ctx, "/v/:hash")
	httpMetrics.Record(ctx, "/api/invoices", "POST", 201, 12*time.Millisecond)

	// Nil receivers are tolerated so handlers never need guards.
	var none *Metrics
	none.RecordPayment(ctx, "CARD")
}
