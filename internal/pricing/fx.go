package pricing

import (
	"github.com/pedraum/payments/internal/cache"
	pricingdomain "github.com/pedraum/payments/internal/pricing/domain"
	"github.com/pedraum/payments/internal/pricing/service"
	"go.uber.org/fx"
)

var Module = fx.Module("pricing.service",
	fx.Provide(func() cache.Cache[string, pricingdomain.Quote] {
		return cache.NewTTLCache[string, pricingdomain.Quote]()
	}),
	fx.Provide(service.NewService),
)
