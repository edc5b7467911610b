package services

import (
	"context"
	"errors"

	"canteen/internal/domain"
	"canteen/internal/repos"
)

// OrderQueryService answers order reads on behalf of a viewer. Students only
// ever see their own orders, whatever filter they ask for.
type OrderQueryService struct {
	Orders   *repos.OrderRepo
	Products *repos.ProductRepo
}

func NewOrderQueryService(orders *repos.OrderRepo, products *repos.ProductRepo) *OrderQueryService {
	return &OrderQueryService{Orders: orders, Products: products}
}

// ListOrders returns orders newest first with their items. userID narrows
// an admin's view; it is ignored for students.
func (s *OrderQueryService) ListOrders(ctx context.Context, viewer domain.Viewer, userID string) ([]domain.OrderDetail, error) {
	if viewer.UserID == "" {
		return nil, domain.ErrForbidden
	}
	if !viewer.IsAdmin() {
		userID = viewer.UserID
	}

	orders, err := s.Orders.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	items, err := s.Orders.ItemsFor(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]domain.OrderDetail, len(orders))
	for i, o := range orders {
		out[i] = domain.OrderDetail{Order: o, Items: items[o.ID]}
	}
	return out, nil
}

// GetOrder reports found=false for a missing order and for an order the
// viewer may not see.
func (s *OrderQueryService) GetOrder(ctx context.Context, viewer domain.Viewer, id int64) (domain.OrderDetail, bool, error) {
	if viewer.UserID == "" {
		return domain.OrderDetail{}, false, domain.ErrForbidden
	}
	o, err := s.Orders.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.OrderDetail{}, false, nil
	}
	if err != nil {
		return domain.OrderDetail{}, false, err
	}
	if !viewer.IsAdmin() && o.UserID != viewer.UserID {
		return domain.OrderDetail{}, false, nil
	}

	items, err := s.Orders.ItemsFor(ctx, []int64{o.ID})
	if err != nil {
		return domain.OrderDetail{}, false, err
	}
	return domain.OrderDetail{Order: o, Items: items[o.ID]}, true, nil
}

// Summary backs the staff dashboard.
func (s *OrderQueryService) Summary(ctx context.Context, viewer domain.Viewer) (domain.Summary, error) {
	if !viewer.IsAdmin() {
		return domain.Summary{}, domain.ErrForbidden
	}
	sum, err := s.Orders.Summary(ctx)
	if err != nil {
		return domain.Summary{}, err
	}
	if sum.Products, err = s.Products.Count(ctx); err != nil {
		return domain.Summary{}, err
	}
	return sum, nil
}
