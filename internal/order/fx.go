package order

import (
	"github.com/pedraum/payments/internal/order/repository"
	"github.com/pedraum/payments/internal/order/service"
	"go.uber.org/fx"
)

var Module = fx.Module("order.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
