package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"medicart/internal/domain"
	applog "medicart/internal/log"
	"medicart/internal/notify"
	"medicart/internal/repos"
)

type CatalogService struct {
	Store  *repos.Store
	Sender notify.Sender
	Now    clock
}

func NewCatalogService(store *repos.Store, sender notify.Sender) *CatalogService {
	return &CatalogService{Store: store, Sender: sender}
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.Store.Categories.List(ctx)
}

func (s *CatalogService) GetCategory(ctx context.Context, id string) (domain.Category, error) {
	return s.Store.Categories.Get(ctx, id)
}

func page(p, size int) (limit, offset int) {
	if p < 1 {
		p = 1
	}
	if size <= 0 {
		size = 12
	}
	return size, (p - 1) * size
}

func (s *CatalogService) ListProductsByCategory(ctx context.Context, catID string, p, pageSize int) ([]domain.Product, error) {
	limit, offset := page(p, pageSize)
	return s.Store.Products.ListByCategory(ctx, catID, limit, offset)
}

func (s *CatalogService) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	prod, err := s.Store.Products.Get(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, ErrProductNotFound
	}
	return prod, err
}

type SearchQuery struct {
	Q           string
	Category    string
	InStockOnly bool
	Page        int
	PageSize    int
}

// Search matches name or description. A first-page miss on a plain query is
// counted as an unavailable medicine, and a name never seen before triggers
// the WhatsApp alert.
func (s *CatalogService) Search(ctx context.Context, q SearchQuery) ([]domain.Product, error) {
	limit, offset := page(q.Page, q.PageSize)
	term := strings.ToLower(strings.TrimSpace(q.Q))
	out, err := s.Store.Products.Search(ctx, term, q.Category, q.InStockOnly, limit, offset)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 && term != "" && offset == 0 && q.Category == "" && !q.InStockOnly {
		s.recordMiss(ctx, term)
	}
	return out, nil
}

func (s *CatalogService) recordMiss(ctx context.Context, term string) {
	created, err := s.Store.Unavailable.RecordSearch(ctx, term, s.Now.stamp())
	if err != nil {
		applog.Warn(nil, "search.unavailable.record", err, map[string]any{"q": term})
		return
	}
	if created {
		notify.Safe(ctx, s.Sender, "whatsapp.search", searchAlert(term, s.Now.now().Format("2006-01-02 15:04")))
	}
}

func searchAlert(name, at string) string {
	return fmt.Sprintf("New Medicine Search Alert!\n\nMedicine: %s\nStatus: Not Available\nTime: %s\n\n"+
		"This medicine was searched but not found in our inventory.", name, at)
}

// ProductInput is the admin product form.
type ProductInput struct {
	CategoryID           string
	Name                 string
	Description          string
	Price                decimal.Decimal
	Discount             decimal.NullDecimal
	Stock                int
	RequiresPrescription bool
	Active               bool
}

func (in ProductInput) check() error {
	if strings.TrimSpace(in.Name) == "" {
		return invalid("name", "Product name is required")
	}
	if !in.Price.IsPositive() {
		return invalid("price", "Price must be greater than zero")
	}
	if in.Stock < 0 {
		return invalid("stock", "Quantity cannot be negative")
	}
	return nil
}

// CreateProduct adds a catalog entry. Names may repeat; sales resolve to the oldest.
func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput) (domain.Product, error) {
	if err := in.check(); err != nil {
		return domain.Product{}, err
	}
	if _, err := s.Store.Categories.Get(ctx, in.CategoryID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, invalid("category_id", "Unknown category")
		}
		return domain.Product{}, err
	}
	ts := s.Now.stamp()
	p := domain.Product{
		ID:                   uuid.NewString(),
		CategoryID:           in.CategoryID,
		Name:                 strings.TrimSpace(in.Name),
		Description:          in.Description,
		Price:                in.Price,
		DiscountPercent:      in.Discount,
		StockQuantity:        in.Stock,
		InStock:              in.Stock > 0,
		RequiresPrescription: in.RequiresPrescription,
		Active:               in.Active,
		CreatedAt:            ts,
		UpdatedAt:            ts,
	}
	if err := s.Store.Products.Create(ctx, p); err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

// UpdateProduct saves catalog fields and the stock level together.
func (s *CatalogService) UpdateProduct(ctx context.Context, id string, in ProductInput) error {
	if err := in.check(); err != nil {
		return err
	}
	ts := s.Now.stamp()
	return s.Store.InTx(ctx, func(r *repos.Repos) error {
		p, err := r.Products.Get(ctx, id)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrProductNotFound
		}
		if err != nil {
			return err
		}
		p.CategoryID = in.CategoryID
		p.Name = strings.TrimSpace(in.Name)
		p.Description = in.Description
		p.Price = in.Price
		p.DiscountPercent = in.Discount
		p.RequiresPrescription = in.RequiresPrescription
		p.Active = in.Active
		p.UpdatedAt = ts
		if err := r.Products.Update(ctx, p); err != nil {
			return err
		}
		if p.StockQuantity == in.Stock {
			return nil
		}
		return r.Inventory.SetQty(ctx, id, in.Stock, ts)
	})
}
