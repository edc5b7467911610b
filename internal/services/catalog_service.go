package services

import (
	"context"
	"errors"

	"canteen/internal/domain"
	"canteen/internal/repos"
	"canteen/internal/validate"
)

type CatalogService struct {
	Prods *repos.ProductRepo
}

func NewCatalogService(prods *repos.ProductRepo) *CatalogService {
	return &CatalogService{Prods: prods}
}

func (s *CatalogService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.Prods.List(ctx)
}

// GetProduct reports found=false when the id is unknown.
func (s *CatalogService) GetProduct(ctx context.Context, id int64) (domain.Product, bool, error) {
	p, err := s.Prods.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Product{}, false, nil
	}
	if err != nil {
		return domain.Product{}, false, err
	}
	return p, true, nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, p domain.Product) (domain.Product, error) {
	if err := validate.Product(p); err != nil {
		return domain.Product{}, err
	}
	if err := s.Prods.Create(ctx, &p); err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id int64, patch domain.ProductPatch) (domain.Product, error) {
	if err := validate.ProductPatch(patch); err != nil {
		return domain.Product{}, err
	}
	return s.Prods.Update(ctx, id, patch)
}

// DeleteProduct leaves order history alone; items keep their snapshot.
func (s *CatalogService) DeleteProduct(ctx context.Context, id int64) error {
	return s.Prods.Delete(ctx, id)
}
