// Package observability groups logging, tracing and metrics wiring.
package observability

import (
	"github.com/pedraum/payments/internal/observability/logger"
	"github.com/pedraum/payments/internal/observability/metrics"
	"github.com/pedraum/payments/internal/observability/tracing"
	"go.uber.org/fx"
)

var Module = fx.Module("observability",
	logger.Module,
	fx.Provide(metrics.NewMeterProvider),
	fx.Provide(metrics.NewHTTPMetrics),
	fx.Invoke(tracing.NewProvider),
)
