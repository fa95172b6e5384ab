package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/pedraum/payments/internal/access"
	"github.com/pedraum/payments/internal/checkout"
	"github.com/pedraum/payments/internal/clock"
	"github.com/pedraum/payments/internal/config"
	"github.com/pedraum/payments/internal/events"
	"github.com/pedraum/payments/internal/mercadopago"
	"github.com/pedraum/payments/internal/migration"
	"github.com/pedraum/payments/internal/observability"
	"github.com/pedraum/payments/internal/order"
	"github.com/pedraum/payments/internal/pricing"
	"github.com/pedraum/payments/internal/reconcile"
	"github.com/pedraum/payments/internal/seed"
	"github.com/pedraum/payments/internal/server"
	"github.com/pedraum/payments/internal/views"
	"github.com/pedraum/payments/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		events.Module,

		mercadopago.Module,
		pricing.Module,
		order.Module,
		checkout.Module,
		access.Module,
		reconcile.Module,
		views.Module,

		fx.Provide(server.NewEngine),
		fx.Provide(server.NewServer),
		fx.Invoke(Bootstrap),
		fx.Invoke(func(s *server.Server, engine *gin.Engine) {
			s.RegisterAPIRoutes(engine)
		}),
		fx.Invoke(server.RunHTTP),
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}

// Bootstrap applies pending migrations and, outside production, seeds
// sample purchasable records.
func Bootstrap(cfg config.Config, gdb *gorm.DB, log *zap.Logger) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	if err := migration.RunMigrations(sqlDB); err != nil {
		return err
	}
	if cfg.SeedDevData && !cfg.IsProduction() {
		if err := seed.EnsureDevData(gdb); err != nil {
			return err
		}
		log.Info("dev sample data ensured")
	}
	return nil
}
