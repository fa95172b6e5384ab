package service

import (
	"context"
	"strings"

	orderdomain "github.com/pedraum/payments/internal/order/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Repo orderdomain.Repository
}

type Service struct {
	db   *gorm.DB
	log  *zap.Logger
	repo orderdomain.Repository
}

func NewService(p Params) orderdomain.Service {
	return &Service{
		db:   p.DB,
		log:  p.Log.Named("order.service"),
		repo: p.Repo,
	}
}

func (s *Service) Get(ctx context.Context, id string) (*orderdomain.Order, error) {
	parsed, err := orderdomain.ParseID(strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, s.db, parsed)
}

func (s *Service) ListByBuyer(ctx context.Context, buyerID string) ([]orderdomain.Order, error) {
	buyerID = strings.TrimSpace(buyerID)
	if buyerID == "" {
		return []orderdomain.Order{}, nil
	}
	return s.repo.FindByBuyer(ctx, s.db, buyerID)
}
