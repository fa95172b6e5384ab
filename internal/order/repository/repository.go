package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	orderdomain "github.com/pedraum/payments/internal/order/domain"
	"gorm.io/gorm"
)

type Repository struct{}

func Provide() orderdomain.Repository {
	return Repository{}
}

func (Repository) Create(ctx context.Context, db *gorm.DB, order *orderdomain.Order) error {
	return db.WithContext(ctx).Create(order).Error
}

func (Repository) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*orderdomain.Order, error) {
	var order orderdomain.Order
	err := db.WithContext(ctx).First(&order, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, orderdomain.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (Repository) FindByBuyer(ctx context.Context, db *gorm.DB, buyerID string) ([]orderdomain.Order, error) {
	var orders []orderdomain.Order
	err := db.WithContext(ctx).
		Where("buyer_id = ?", buyerID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (Repository) SetPaymentLink(ctx context.Context, db *gorm.DB, id snowflake.ID, link, providerRef string) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE orders
		 SET payment_link = ?, provider_reference = ?, updated_at = ?
		 WHERE id = ? AND payment_link = ''`,
		link,
		providerRef,
		time.Now().UTC(),
		id,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (Repository) AdvanceStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, to orderdomain.Status, providerRef string) (bool, error) {
	if !to.Valid() {
		return false, orderdomain.ErrInvalidStatus
	}
	priors := orderdomain.PriorStatuses(to)
	if len(priors) == 0 {
		return false, nil
	}

	result := db.WithContext(ctx).Exec(
		`UPDATE orders
		 SET status = ?,
		     provider_reference = CASE WHEN ? = '' THEN provider_reference ELSE ? END,
		     updated_at = ?
		 WHERE id = ? AND status IN ?`,
		to,
		providerRef,
		providerRef,
		time.Now().UTC(),
		id,
		priors,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
