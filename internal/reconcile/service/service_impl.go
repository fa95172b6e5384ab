package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	accessdomain "github.com/pedraum/payments/internal/access/domain"
	"github.com/pedraum/payments/internal/events"
	"github.com/pedraum/payments/internal/mercadopago"
	orderdomain "github.com/pedraum/payments/internal/order/domain"
	reconciledomain "github.com/pedraum/payments/internal/reconcile/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// paymentFetcher is the slice of the provider client the reconciler needs.
type paymentFetcher interface {
	GetPayment(ctx context.Context, paymentID string) (*mercadopago.Payment, error)
}

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Repo     orderdomain.Repository
	Access   accessdomain.Service
	Outbox   *events.Outbox
	Provider *mercadopago.Client
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	repo     orderdomain.Repository
	access   accessdomain.Service
	outbox   *events.Outbox
	payments paymentFetcher
}

func NewService(p Params) reconciledomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("reconcile.service"),
		genID:    p.GenID,
		repo:     p.Repo,
		access:   p.Access,
		outbox:   p.Outbox,
		payments: p.Provider,
	}
}

const fetchTimeout = 10 * time.Second

// Process applies one provider notification. The payment is re-fetched from
// the provider so a forged or stale payload can never change an order, and
// the guarded status update keeps out-of-order deliveries harmless.
func (s *Service) Process(ctx context.Context, n reconciledomain.Notification) reconciledomain.Result {
	topic := strings.ToLower(strings.TrimSpace(n.Topic))
	paymentID := strings.TrimSpace(n.PaymentID)

	res := s.reconcile(ctx, topic, paymentID)
	s.audit(ctx, topic, paymentID, n.Raw, res)

	s.log.Info("notification processed",
		zap.String("topic", topic),
		zap.String("payment_id", paymentID),
		zap.String("outcome", res.Outcome),
		zap.String("detail", res.Detail),
		zap.String("order_id", res.OrderID),
	)
	return res
}

func (s *Service) reconcile(ctx context.Context, topic, paymentID string) reconciledomain.Result {
	if topic != "payment" {
		return reconciledomain.Result{Outcome: reconciledomain.OutcomeIgnored, Detail: "unhandled topic " + topic}
	}
	if paymentID == "" {
		return reconciledomain.Result{Outcome: reconciledomain.OutcomeIgnored, Detail: "missing payment id"}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()
	payment, err := s.payments.GetPayment(fetchCtx, paymentID)
	if err != nil {
		return reconciledomain.Result{Outcome: reconciledomain.OutcomeError, Detail: "fetch payment: " + err.Error()}
	}

	target, actionable := orderStatusFor(payment.Status)
	if !actionable {
		return reconciledomain.Result{Outcome: reconciledomain.OutcomeIgnored, Detail: "payment status " + payment.Status}
	}

	orderID, err := orderdomain.ParseID(payment.ExternalReference)
	if err != nil {
		return reconciledomain.Result{Outcome: reconciledomain.OutcomeError, Detail: "bad external reference " + payment.ExternalReference}
	}
	order, err := s.repo.FindByID(ctx, s.db, orderID)
	if err != nil {
		return reconciledomain.Result{
			Outcome: reconciledomain.OutcomeError,
			Detail:  "order lookup: " + err.Error(),
			OrderID: payment.ExternalReference,
		}
	}

	providerRef := strconv.FormatInt(payment.ID, 10)
	changed, err := s.repo.AdvanceStatus(ctx, s.db, orderID, target, providerRef)
	if err != nil {
		return reconciledomain.Result{Outcome: reconciledomain.OutcomeError, Detail: "advance status: " + err.Error(), OrderID: orderID.String()}
	}

	res := reconciledomain.Result{Outcome: reconciledomain.OutcomeNoop, OrderID: orderID.String()}
	if changed {
		res.Outcome = reconciledomain.OutcomeApplied
		res.Detail = "order " + string(target)
		s.publishOrderEvent(ctx, order, target)
	}

	// The unlock runs on every approved notification, not just the one
	// that flipped the status. A replayed delivery then repairs an unlock
	// that failed the first time around.
	if target == orderdomain.StatusApproved {
		if err := s.access.Unlock(ctx, order.ResourceID, order.BuyerID, "order:"+orderID.String()); err != nil {
			s.log.Warn("unlock after approval failed",
				zap.String("order_id", orderID.String()),
				zap.Error(err),
			)
			res.Detail = strings.TrimSpace(res.Detail + " unlock failed: " + err.Error())
		}
	}
	return res
}

// orderStatusFor maps a provider payment status onto the order lifecycle.
// The pending family reports false: a pending payment must not move an
// order at all, whatever state the order is in.
func orderStatusFor(status string) (orderdomain.Status, bool) {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "approved":
		return orderdomain.StatusApproved, true
	case "rejected":
		return orderdomain.StatusFailed, true
	case "cancelled", "refunded", "charged_back":
		return orderdomain.StatusCanceled, true
	default:
		return "", false
	}
}

func (s *Service) publishOrderEvent(ctx context.Context, order *orderdomain.Order, target orderdomain.Status) {
	eventType := ""
	switch target {
	case orderdomain.StatusApproved:
		eventType = events.EventOrderApproved
	case orderdomain.StatusFailed:
		eventType = events.EventOrderFailed
	case orderdomain.StatusCanceled:
		eventType = events.EventOrderCanceled
	default:
		return
	}
	err := s.outbox.Publish(ctx, events.Event{
		Type: eventType,
		Payload: events.OrderPayload{
			OrderID:      order.ID.String(),
			ResourceKind: order.ResourceKind,
			ResourceID:   order.ResourceID,
			BuyerID:      order.BuyerID,
			Status:       string(target),
		}.ToMap(),
		DedupeKey: eventType + ":" + order.ID.String(),
	})
	if err != nil {
		s.log.Warn("order event publish failed",
			zap.String("order_id", order.ID.String()),
			zap.String("event", eventType),
			zap.Error(err),
		)
	}
}

func (s *Service) audit(ctx context.Context, topic, paymentID string, raw map[string]any, res reconciledomain.Result) {
	payload := datatypes.JSONMap(raw)
	err := s.db.WithContext(ctx).Exec(
		`INSERT INTO webhook_notifications (id, topic, payment_id, payload, outcome, detail, received_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.genID.Generate().Int64(), topic, paymentID, payload, res.Outcome, res.Detail, time.Now().UTC(),
	).Error
	if err != nil {
		s.log.Warn("webhook audit write failed",
			zap.String("payment_id", paymentID),
			zap.Error(err),
		)
	}
}
