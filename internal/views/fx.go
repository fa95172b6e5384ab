package views

import (
	"github.com/pedraum/payments/internal/views/service"
	"go.uber.org/fx"
)

var Module = fx.Module("views.service",
	fx.Provide(service.NewService),
)
