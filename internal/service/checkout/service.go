package checkout

import (
	"context"
	"errors"
	"time"

	"honeyhive/internal/docstore"
	"honeyhive/internal/domain"
)

const ordersCollection = "orders"

// ErrEmptyCart is returned by PlaceOrder when the cart holds no lines.
var ErrEmptyCart = errors.New("cart is empty")

// CartSource is the slice of the cart store checkout needs: a snapshot of
// the aggregate and the post-order clear.
type CartSource interface {
	Cart() domain.Cart
	Clear(ctx context.Context) error
}

// Service turns carts into placed orders.
type Service struct {
	docs docstore.Store
}

func New(docs docstore.Store) *Service {
	return &Service{docs: docs}
}

// PlaceOrder snapshots the cart into an order document and clears the
// cart. The cart must belong to a signed-in user and must not be empty.
func (s *Service) PlaceOrder(ctx context.Context, userID string, cart CartSource) (*domain.Order, error) {
	if userID == "" {
		return nil, errors.New("userId required")
	}
	c := cart.Cart()
	if len(c.Lines) == 0 {
		return nil, ErrEmptyCart
	}

	order := domain.Order{
		UserID:     userID,
		TotalCents: c.TotalCents(),
		Status:     "placed",
		PlacedAt:   time.Now().UTC(),
	}
	lines := make([]interface{}, 0, len(c.Lines))
	for _, l := range c.Lines {
		order.Lines = append(order.Lines, domain.OrderLine{
			ProductID:      l.ProductID,
			ProductName:    l.ProductName,
			UnitPriceCents: l.UnitPriceCents,
			Quantity:       l.Quantity,
		})
		lines = append(lines, map[string]interface{}{
			"productId":      l.ProductID,
			"productName":    l.ProductName,
			"unitPriceCents": l.UnitPriceCents,
			"quantity":       l.Quantity,
		})
	}

	id, err := s.docs.Create(ctx, ordersCollection, map[string]interface{}{
		"userId":     order.UserID,
		"lines":      lines,
		"totalCents": order.TotalCents,
		"status":     order.Status,
		"placedAt":   order.PlacedAt.Format(time.RFC3339Nano),
	})
	if err != nil {
		return nil, err
	}
	order.ID = id

	if err := cart.Clear(ctx); err != nil {
		return nil, err
	}
	return &order, nil
}

// ListOrders returns the user's orders, oldest first.
func (s *Service) ListOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	records, err := s.docs.QueryByField(ctx, ordersCollection, "userId", docstore.OpEqual, userID)
	if err != nil {
		return nil, err
	}
	orders := make([]domain.Order, 0, len(records))
	for _, rec := range records {
		orders = append(orders, orderFromRecord(rec))
	}
	return orders, nil
}
