package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"honeyhive/internal/docstore"
	"honeyhive/internal/domain"
)

const productsCollection = "products"

// Service manages the product catalog over the document store.
type Service struct {
	docs docstore.Store
}

func New(docs docstore.Store) *Service {
	return &Service{docs: docs}
}

// ProductInput carries fields accepted by the admin create/update screens.
type ProductInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	PriceCents  int64  `json:"priceCents"`
	ImageURL    string `json:"imageUrl"`
	InStock     *bool  `json:"inStock"`
}

func (s *Service) List(ctx context.Context) ([]domain.Product, error) {
	records, err := s.docs.List(ctx, productsCollection)
	if err != nil {
		return nil, err
	}
	products := make([]domain.Product, 0, len(records))
	for _, rec := range records {
		if p, ok := productFromRecord(rec); ok {
			products = append(products, p)
		}
	}
	return products, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Product, error) {
	rec, err := s.docs.Get(ctx, productsCollection, id)
	if err != nil {
		return nil, err
	}
	p, ok := productFromRecord(rec)
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (s *Service) Create(ctx context.Context, in ProductInput) (*domain.Product, error) {
	if err := validate(in); err != nil {
		return nil, err
	}
	inStock := true
	if in.InStock != nil {
		inStock = *in.InStock
	}
	p := domain.Product{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Category:    strings.TrimSpace(in.Category),
		PriceCents:  in.PriceCents,
		ImageURL:    strings.TrimSpace(in.ImageURL),
		InStock:     inStock,
		CreatedAt:   time.Now().UTC(),
	}
	id, err := s.docs.Create(ctx, productsCollection, recordFromProduct(p))
	if err != nil {
		return nil, err
	}
	p.ID = id
	return &p, nil
}

func (s *Service) Update(ctx context.Context, id string, in ProductInput) (*domain.Product, error) {
	if err := validate(in); err != nil {
		return nil, err
	}
	partial := map[string]interface{}{
		"name":        strings.TrimSpace(in.Name),
		"description": strings.TrimSpace(in.Description),
		"category":    strings.TrimSpace(in.Category),
		"priceCents":  in.PriceCents,
		"imageUrl":    strings.TrimSpace(in.ImageURL),
	}
	if in.InStock != nil {
		partial["inStock"] = *in.InStock
	}
	if err := s.docs.Update(ctx, productsCollection, id, partial); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.docs.Delete(ctx, productsCollection, id)
}

func validate(in ProductInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return errors.New("name required")
	}
	if in.PriceCents <= 0 {
		return errors.New("price must be positive")
	}
	return nil
}
