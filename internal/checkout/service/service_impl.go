package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	checkoutdomain "github.com/pedraum/payments/internal/checkout/domain"
	"github.com/pedraum/payments/internal/config"
	"github.com/pedraum/payments/internal/mercadopago"
	orderdomain "github.com/pedraum/payments/internal/order/domain"
	pricingdomain "github.com/pedraum/payments/internal/pricing/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const currency = "BRL"

type preferenceCreator interface {
	CreatePreference(ctx context.Context, req mercadopago.PreferenceRequest) (*mercadopago.Preference, error)
}

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Cfg      config.Config
	Repo     orderdomain.Repository
	Resolver pricingdomain.Resolver
	Provider *mercadopago.Client
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	cfg      config.Config
	repo     orderdomain.Repository
	resolver pricingdomain.Resolver
	provider preferenceCreator
}

func NewService(p Params) checkoutdomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("checkout.service"),
		genID:    p.GenID,
		cfg:      p.Cfg,
		repo:     p.Repo,
		resolver: p.Resolver,
		provider: p.Provider,
	}
}

// Create resolves the price, persists an order in `created` status and
// registers a provider preference for it. The payment link is written once
// on success; a provider failure leaves the order without a link so the
// buyer can retry checkout with no duplicated side effects.
func (s *Service) Create(ctx context.Context, req checkoutdomain.CreateRequest) (*checkoutdomain.CreateResponse, error) {
	req.ResourceKind = strings.ToLower(strings.TrimSpace(req.ResourceKind))
	req.ResourceID = strings.TrimSpace(req.ResourceID)
	req.BuyerID = strings.TrimSpace(req.BuyerID)
	req.Title = strings.TrimSpace(req.Title)

	if !orderdomain.ValidResourceKind(req.ResourceKind) {
		return nil, orderdomain.ErrInvalidResourceKind
	}
	if req.ResourceID == "" {
		return nil, checkoutdomain.ErrMissingResource
	}
	if req.BuyerID == "" {
		return nil, checkoutdomain.ErrMissingBuyer
	}
	if req.Title == "" {
		return nil, checkoutdomain.ErrMissingTitle
	}

	quote, err := s.resolver.Resolve(ctx, pricingdomain.ResolveRequest{
		ResourceID: req.ResourceID,
		RelatedID:  req.RelatedID,
		PathHint:   req.PathHint,
	})
	if err != nil {
		return nil, err
	}

	order := &orderdomain.Order{
		ID:           s.genID.Generate(),
		ResourceKind: req.ResourceKind,
		ResourceID:   req.ResourceID,
		BuyerID:      req.BuyerID,
		Title:        req.Title,
		Amount:       quote.Price,
		Currency:     currency,
		Status:       orderdomain.StatusCreated,
	}
	if err := s.repo.Create(ctx, s.db, order); err != nil {
		return nil, err
	}

	mp := s.cfg.MercadoPago
	pref, err := s.provider.CreatePreference(ctx, mercadopago.PreferenceRequest{
		Items: []mercadopago.PreferenceItem{{
			Title:      req.Title,
			Quantity:   1,
			UnitPrice:  quote.Price,
			CurrencyID: currency,
		}},
		BackURLs: mercadopago.BackURLs{
			Success: mp.SuccessURL,
			Failure: mp.FailureURL,
			Pending: mp.PendingURL,
		},
		AutoReturn:        "approved",
		ExternalReference: order.ID.String(),
		NotificationURL:   mp.NotificationURL,
	})
	if err != nil {
		s.log.Warn("preference creation failed",
			zap.String("order_id", order.ID.String()),
			zap.Error(err),
		)
		return nil, err
	}

	if _, err := s.repo.SetPaymentLink(ctx, s.db, order.ID, pref.InitPoint, pref.ID); err != nil {
		return nil, err
	}

	s.log.Info("checkout created",
		zap.String("order_id", order.ID.String()),
		zap.String("resource_kind", req.ResourceKind),
		zap.String("resource_id", req.ResourceID),
		zap.Float64("amount", quote.Price),
		zap.String("price_path", quote.Path),
	)
	return &checkoutdomain.CreateResponse{
		OrderID:     order.ID.String(),
		RedirectURL: pref.InitPoint,
		Amount:      quote.Price,
		Currency:    currency,
	}, nil
}
