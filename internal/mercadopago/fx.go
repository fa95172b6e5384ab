package mercadopago

import "go.uber.org/fx"

var Module = fx.Module("mercadopago.client",
	fx.Provide(NewClient),
)
