package service

import (
	"giftcard-storefront/internal/core/domain"
	"giftcard-storefront/pkg/apperror"
)

// CatalogServiceImpl implements ports.CatalogService over a fixed product list.
type CatalogServiceImpl struct {
	products []domain.Product
	byID     map[string]int
}

// NewCatalogService creates a catalog from products. Order is kept for List.
func NewCatalogService(products []domain.Product) *CatalogServiceImpl {
	byID := make(map[string]int, len(products))
	for i, p := range products {
		byID[p.ID] = i
	}
	return &CatalogServiceImpl{products: products, byID: byID}
}

// List returns a copy of all products.
func (s *CatalogServiceImpl) List() []domain.Product {
	out := make([]domain.Product, len(s.products))
	copy(out, s.products)
	return out
}

// Get returns a product by ID.
func (s *CatalogServiceImpl) Get(productID string) (*domain.Product, error) {
	i, ok := s.byID[productID]
	if !ok {
		return nil, apperror.ErrProductNotFound(productID)
	}
	p := s.products[i]
	return &p, nil
}

// Validate returns the product if amount is one of its face values.
func (s *CatalogServiceImpl) Validate(productID string, amount int64) (*domain.Product, error) {
	p, err := s.Get(productID)
	if err != nil {
		return nil, err
	}
	if !p.HasFaceValue(amount) {
		return nil, apperror.ErrInvalidFaceValue(productID, amount)
	}
	return p, nil
}
