package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	accessdomain "github.com/pedraum/payments/internal/access/domain"
	checkoutdomain "github.com/pedraum/payments/internal/checkout/domain"
	"github.com/pedraum/payments/internal/config"
	"github.com/pedraum/payments/internal/observability/logger"
	"github.com/pedraum/payments/internal/observability/metrics"
	orderdomain "github.com/pedraum/payments/internal/order/domain"
	reconciledomain "github.com/pedraum/payments/internal/reconcile/domain"
	viewsdomain "github.com/pedraum/payments/internal/views/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Cfg       config.Config
	DB        *gorm.DB
	Log       *zap.Logger
	Checkout  checkoutdomain.Service
	Orders    orderdomain.Service
	Access    accessdomain.Service
	Reconcile reconciledomain.Service
	Views     viewsdomain.Recorder
}

type Server struct {
	cfg         config.Config
	db          *gorm.DB
	log         *zap.Logger
	checkoutSvc checkoutdomain.Service
	orderSvc    orderdomain.Service
	accessSvc   accessdomain.Service
	reconcile   reconciledomain.Service
	viewsSvc    viewsdomain.Recorder
	viewLimiter *rateLimiter
}

func NewEngine(cfg config.Config, log *zap.Logger, httpMetrics *metrics.HTTPMetrics) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(metrics.GinMiddleware(httpMetrics))
	engine.Use(logger.GinMiddleware(logger.MiddlewareConfig{
		SkipPaths: []string{"/healthz"},
	}))
	return engine
}

func NewServer(p Params) *Server {
	return &Server{
		cfg:         p.Cfg,
		db:          p.DB,
		log:         p.Log.Named("server"),
		checkoutSvc: p.Checkout,
		orderSvc:    p.Orders,
		accessSvc:   p.Access,
		reconcile:   p.Reconcile,
		viewsSvc:    p.Views,
		viewLimiter: newRateLimiter(60, time.Minute),
	}
}

// RegisterAPIRoutes wires the public surface. Webhook routes stay outside
// the rate limiter: the provider retries aggressively and a rejected
// delivery only delays reconciliation.
func (s *Server) RegisterAPIRoutes(engine *gin.Engine) {
	engine.GET("/healthz", s.Health)

	api := engine.Group("/api")
	api.POST("/checkout", s.CreateCheckout)
	api.POST("/webhooks/mercadopago", s.MercadoPagoWebhook)
	api.POST("/access/unlock", s.UnlockAccess)
	api.GET("/access/:resource_id/:consumer_id", s.CheckAccess)
	api.GET("/orders/:id", s.GetOrder)
	api.GET("/orders", s.ListOrders)
	api.POST("/resources/:id/views", s.RegisterView)
	api.GET("/resources/:id/views", s.GetViewCount)
}

func RunHTTP(lc fx.Lifecycle, cfg config.Config, engine *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
