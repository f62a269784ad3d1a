package observability

import (
	"github.com/Jegx07/namma-madurai-engine/internal/config"
	"github.com/Jegx07/namma-madurai-engine/internal/observability/logger"
	"github.com/Jegx07/namma-madurai-engine/internal/observability/metrics"
	"github.com/Jegx07/namma-madurai-engine/internal/observability/tracing"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/fx"
)

const serviceName = "civicscore"

var Module = fx.Module("observability",
	fx.Provide(logger.New),
	fx.Provide(func(cfg config.Config) metrics.Config {
		return metrics.Config{ServiceName: serviceName, Environment: cfg.Environment}
	}),
	fx.Provide(func() metric.MeterProvider {
		return otel.GetMeterProvider()
	}),
	fx.Provide(metrics.NewHTTPMetrics),
	fx.Provide(metrics.EngineWithConfig),
	fx.Provide(func(cfg config.Config) tracing.Config {
		return tracing.Config{
			Enabled:     cfg.IsProduction(),
			ServiceName: serviceName,
			Environment: cfg.Environment,
		}
	}),
	fx.Invoke(tracing.NewProvider),
)
