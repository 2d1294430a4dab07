package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	drawsExecuted    metric.Int64Counter
	drawsDenied      metric.Int64Counter
	usageIncrements  metric.Int64Counter
	analyticsDropped metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "namedraw"
	}
	meter := provider.Meter(name)

	drawsExecuted, err := meter.Int64Counter("namedraw_draws_total")
	if err != nil {
		return nil, err
	}
	drawsDenied, err := meter.Int64Counter("namedraw_draws_denied_total")
	if err != nil {
		return nil, err
	}
	usageIncrements, err := meter.Int64Counter("namedraw_usage_increments_total")
	if err != nil {
		return nil, err
	}
	analyticsDropped, err := meter.Int64Counter("namedraw_analytics_dropped_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		drawsExecuted:    drawsExecuted,
		drawsDenied:      drawsDenied,
		usageIncrements:  usageIncrements,
		analyticsDropped: analyticsDropped,
	}, nil
}

func (m *Metrics) RecordDraw(ctx context.Context, planType string) {
	if m == nil || m.drawsExecuted == nil {
		return
	}
	m.drawsExecuted.Add(ctx, 1, metric.WithAttributes(attribute.String("plan_type", planType)))
}

func (m *Metrics) RecordDenial(ctx context.Context, planType string) {
	if m == nil || m.drawsDenied == nil {
		return
	}
	m.drawsDenied.Add(ctx, 1, metric.WithAttributes(attribute.String("plan_type", planType)))
}

func (m *Metrics) RecordUsageIncrement(ctx context.Context, created bool) {
	if m == nil || m.usageIncrements == nil {
		return
	}
	m.usageIncrements.Add(ctx, 1, metric.WithAttributes(attribute.Bool("created", created)))
}

func (m *Metrics) RecordAnalyticsDropped(ctx context.Context, event string) {
	if m == nil || m.analyticsDropped == nil {
		return
	}
	m.analyticsDropped.Add(ctx, 1, metric.WithAttributes(attribute.String("event", event)))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(protocol)) {
	case "http", "http/protobuf":
		return otlpmetrichttp.New(context.Background(),
			otlpmetrichttp.WithEndpoint(endpoint),
			otlpmetrichttp.WithInsecure(),
		)
	case "", "grpc":
		return otlpmetricgrpc.New(context.Background(),
			otlpmetricgrpc.WithEndpoint(endpoint),
			otlpmetricgrpc.WithInsecure(),
		)
	default:
		return nil, fmt.Errorf("unsupported otlp protocol %q", protocol)
	}
}
