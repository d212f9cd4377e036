package telemetry

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

const meterName = "community-portal"

// InitMeterProvider installs a Prometheus backed MeterProvider. It returns
// the /metrics handler and a shutdown function.
func InitMeterProvider(serviceName, serviceVersion string) (http.Handler, func(context.Context) error, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, nil, err
	}

	mp := metric.NewMeterProvider(
		metric.WithReader(exporter),
		metric.WithResource(newResource(serviceName, serviceVersion)),
	)
	otel.SetMeterProvider(mp)

	return promhttp.Handler(), mp.Shutdown, nil
}

// Metrics holds the portal's business counters
type Metrics struct {
	ordersPlaced         otelmetric.Int64Counter
	orderRevenue         otelmetric.Float64Counter
	cartMutations        otelmetric.Int64Counter
	visitorVerifications otelmetric.Int64Counter
	upstreamCalls        otelmetric.Int64Counter
}

// NewMetrics creates the counters on the global MeterProvider. Before
// InitMeterProvider runs they are no-ops.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)

	ordersPlaced, err := meter.Int64Counter("portal.orders.placed",
		otelmetric.WithDescription("Orders submitted through public checkout"))
	if err != nil {
		return nil, err
	}
	orderRevenue, err := meter.Float64Counter("portal.orders.revenue",
		otelmetric.WithDescription("Sum of order totals"))
	if err != nil {
		return nil, err
	}
	cartMutations, err := meter.Int64Counter("portal.cart.mutations",
		otelmetric.WithDescription("Cart add, update and remove operations"))
	if err != nil {
		return nil, err
	}
	visitorVerifications, err := meter.Int64Counter("portal.visitor.verifications",
		otelmetric.WithDescription("Visitor verification attempts by outcome"))
	if err != nil {
		return nil, err
	}
	upstreamCalls, err := meter.Int64Counter("portal.upstream.calls",
		otelmetric.WithDescription("Proxied member API calls by operation and outcome"))
	if err != nil {
		return nil, err
	}

	return &Metrics{
		ordersPlaced:         ordersPlaced,
		orderRevenue:         orderRevenue,
		cartMutations:        cartMutations,
		visitorVerifications: visitorVerifications,
		upstreamCalls:        upstreamCalls,
	}, nil
}

func (m *Metrics) OrderPlaced(ctx context.Context, memberID string, total float64) {
	if m == nil {
		return
	}
	attrs := otelmetric.WithAttributes(attribute.String("member", memberID))
	m.ordersPlaced.Add(ctx, 1, attrs)
	m.orderRevenue.Add(ctx, total, attrs)
}

func (m *Metrics) CartMutated(ctx context.Context, op string) {
	if m == nil {
		return
	}
	m.cartMutations.Add(ctx, 1, otelmetric.WithAttributes(attribute.String("op", op)))
}

func (m *Metrics) VisitorVerified(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.visitorVerifications.Add(ctx, 1, otelmetric.WithAttributes(attribute.String("outcome", outcome)))
}

func (m *Metrics) UpstreamCalled(ctx context.Context, operation string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.upstreamCalls.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	))
}
