package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"canteen/internal/domain"
	"canteen/internal/events"
	applog "canteen/internal/log"
	"canteen/internal/repos"
	"canteen/internal/validate"
)

// OrderService owns every write to orders and order items.
type OrderService struct {
	DB       *sqlx.DB
	Products *repos.ProductRepo
	Orders   *repos.OrderRepo
	Events   events.Publisher

	// RequireAvailable rejects lines for products marked unavailable.
	RequireAvailable bool
	Now              func() time.Time
}

func NewOrderService(db *sqlx.DB, products *repos.ProductRepo, orders *repos.OrderRepo, pub events.Publisher) *OrderService {
	if pub == nil {
		pub = events.Nop{}
	}
	return &OrderService{DB: db, Products: products, Orders: orders, Events: pub, Now: time.Now}
}

// CreateOrder prices every line from the catalog and writes the order and
// its items in one transaction. Nothing is written when any line fails.
func (s *OrderService) CreateOrder(ctx context.Context, viewer domain.Viewer, req domain.CreateOrderRequest) (domain.Order, error) {
	if viewer.UserID == "" {
		return domain.Order{}, domain.ErrForbidden
	}
	if err := validate.OrderRequest(req); err != nil {
		return domain.Order{}, err
	}

	now := domain.Timestamp(s.Now())
	order := domain.Order{
		UserID:        viewer.UserID,
		Status:        domain.StatusPending,
		PaymentMethod: req.PaymentMethod,
		PaymentStatus: domain.PaymentPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err := repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		items := make([]domain.OrderItem, 0, len(req.Items))
		total := decimal.Zero
		for _, line := range req.Items {
			p, err := s.Products.GetTx(ctx, tx, line.ProductID)
			if err != nil {
				return err
			}
			if s.RequireAvailable && !p.IsAvailable {
				return domain.ValidationError{
					Field:   "items",
					Message: fmt.Sprintf("%s is not available right now", p.Name),
				}
			}
			it := domain.OrderItem{
				ProductID:       p.ID,
				ProductName:     p.Name,
				ProductCategory: p.Category,
				Quantity:        line.Quantity,
				PriceAtTime:     p.Price,
			}
			total = total.Add(it.Subtotal())
			items = append(items, it)
		}
		order.TotalAmount = total.Round(2)

		if err := s.Orders.Insert(ctx, tx, &order); err != nil {
			return err
		}
		for i := range items {
			items[i].OrderID = order.ID
			if err := s.Orders.InsertItem(ctx, tx, &items[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.Order{}, storeErr("create order", err)
	}

	s.publish(ctx, events.OrderCreated, order, false)
	return order, nil
}

// UpdateStatus applies one edge of the order workflow. A nil payment leaves
// the payment status as it is.
func (s *OrderService) UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus, payment *domain.PaymentStatus) (domain.Order, error) {
	return s.transition(ctx, id, status, payment, false)
}

// ForceStatus may skip workflow edges. Terminal orders still cannot move
// and nothing goes back to pending.
func (s *OrderService) ForceStatus(ctx context.Context, id int64, status domain.OrderStatus, payment *domain.PaymentStatus) (domain.Order, error) {
	return s.transition(ctx, id, status, payment, true)
}

func (s *OrderService) transition(ctx context.Context, id int64, status domain.OrderStatus, payment *domain.PaymentStatus, force bool) (domain.Order, error) {
	if !status.Valid() {
		return domain.Order{}, domain.ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", status)}
	}
	if payment != nil && !payment.Valid() {
		return domain.Order{}, domain.ValidationError{Field: "paymentStatus", Message: fmt.Sprintf("unknown payment status %q", *payment)}
	}

	var out domain.Order
	err := repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		cur, err := s.Orders.GetTx(ctx, tx, id)
		if err != nil {
			return err
		}
		allowed := domain.CanTransition(cur.Status, status)
		if force {
			allowed = domain.CanForce(cur.Status, status)
		}
		if !allowed {
			return domain.TransitionError{OrderID: id, From: string(cur.Status), To: string(status)}
		}

		next := cur
		next.Status = status
		if payment != nil {
			if !domain.CanPay(cur.PaymentStatus, *payment) {
				return domain.TransitionError{OrderID: id, From: "payment " + string(cur.PaymentStatus), To: string(*payment)}
			}
			next.PaymentStatus = *payment
		}
		next.UpdatedAt = domain.Timestamp(s.Now())

		ok, err := s.Orders.SetStatus(ctx, tx, cur, next)
		if err != nil {
			return err
		}
		if !ok {
			// someone else moved the order after we read it
			return domain.TransitionError{OrderID: id, From: string(cur.Status), To: string(status)}
		}
		out = next
		return nil
	})
	if err != nil {
		return domain.Order{}, storeErr("update order status", err)
	}

	s.publish(ctx, events.OrderStatusChanged, out, force)
	return out, nil
}

func (s *OrderService) publish(ctx context.Context, key string, o domain.Order, forced bool) {
	evt := events.OrderEvent{
		ID:            uuid.NewString(),
		Type:          key,
		OrderID:       o.ID,
		OrderCode:     o.Code(),
		UserID:        o.UserID,
		Status:        string(o.Status),
		PaymentStatus: string(o.PaymentStatus),
		TotalAmount:   o.TotalAmount.StringFixed(2),
		Forced:        forced,
		At:            s.Now().UTC(),
	}
	if err := s.Events.Publish(context.WithoutCancel(ctx), key, evt); err != nil {
		applog.Error(nil, "order.event_publish", err, map[string]any{"order_id": o.ID, "event": key})
	}
}

// storeErr keeps domain failures as they are and marks anything else coming
// out of the store as a failed transaction.
func storeErr(op string, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrInvalidRequest),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrTransactionFailed):
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrTransactionFailed, err)
}
