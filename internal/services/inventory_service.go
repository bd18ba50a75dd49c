package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"medicart/internal/domain"
	"medicart/internal/events"
	"medicart/internal/repos"
)

// LowStockThreshold: below this an in-stock product reports LOW_STOCK.
const LowStockThreshold = 5

type AdjustMode int

const (
	// ModeSale subtracts Qty.
	ModeSale AdjustMode = iota
	// ModeEdit returns the difference between Original and Qty. Restock is ModeEdit with Qty 0.
	ModeEdit
)

type Adjustment struct {
	Product  string // exact product name
	Qty      int
	Mode     AdjustMode
	Original int
}

// NextQuantity is the stock level after applying a, clamped at zero.
func NextQuantity(current int, a Adjustment) int {
	var next int
	switch a.Mode {
	case ModeEdit:
		next = current + (a.Original - a.Qty)
	default:
		next = current - a.Qty
	}
	if next < 0 {
		return 0
	}
	return next
}

type StockChange struct {
	ProductID string `json:"product_id"`
	Product   string `json:"product"`
	From      int    `json:"from"`
	To        int    `json:"to"`
}

type InventoryService struct {
	Store *repos.Store
	Bus   *events.Bus
	Now   clock
}

func NewInventoryService(store *repos.Store, bus *events.Bus) *InventoryService {
	return &InventoryService{Store: store, Bus: bus}
}

// adjust applies a inside the caller's unit of work.
func (s *InventoryService) adjust(ctx context.Context, r *repos.Repos, a Adjustment) (StockChange, error) {
	p, err := r.Products.FirstByName(ctx, a.Product)
	if errors.Is(err, sql.ErrNoRows) {
		return StockChange{}, productNotFound(a.Product)
	}
	if err != nil {
		return StockChange{}, err
	}
	ch := StockChange{ProductID: p.ID, Product: p.Name, From: p.StockQuantity, To: NextQuantity(p.StockQuantity, a)}
	if ch.To == ch.From {
		return ch, nil
	}
	if err := r.Inventory.CompareAndSet(ctx, p.ID, ch.From, ch.To, s.Now.stamp()); err != nil {
		if errors.Is(err, repos.ErrStaleWrite) {
			return StockChange{}, ErrConcurrentUpdate
		}
		return StockChange{}, err
	}
	return ch, nil
}

// Adjust applies one adjustment in its own unit of work.
func (s *InventoryService) Adjust(ctx context.Context, a Adjustment) (StockChange, error) {
	var ch StockChange
	err := s.Store.InTx(ctx, func(r *repos.Repos) error {
		var err error
		ch, err = s.adjust(ctx, r, a)
		return err
	})
	if err != nil {
		return StockChange{}, err
	}
	s.publish([]StockChange{ch})
	return ch, nil
}

// publish runs after commit so subscribers never see rolled-back stock.
func (s *InventoryService) publish(changes []StockChange) {
	for _, ch := range changes {
		if ch.From == ch.To {
			continue
		}
		s.Bus.Publish(events.StockUpdated, map[string]any{
			"product_id": ch.ProductID, "product": ch.Product, "from": ch.From, "to": ch.To,
		})
	}
}

// CheckAvailability converts qty to IN_STOCK / LOW_STOCK / OUT_OF_STOCK.
func (s *InventoryService) CheckAvailability(ctx context.Context, productID string) (domain.Availability, error) {
	qty, err := s.Store.Inventory.Qty(ctx, productID)
	if err != nil {
		// Unknown product reads as nothing on hand.
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Availability{Status: "OUT_OF_STOCK", Qty: 0}, nil
		}
		return domain.Availability{}, err
	}

	status := "OUT_OF_STOCK"
	switch {
	case qty >= LowStockThreshold:
		status = "IN_STOCK"
	case qty > 0:
		status = "LOW_STOCK"
	}
	return domain.Availability{Status: status, Qty: qty}, nil
}

type LineCheck struct {
	Product   string `json:"product"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
	Found     bool   `json:"found"`
	OK        bool   `json:"ok"`
}

// demand sums requested quantities per product name, in first-seen order.
type demand struct {
	order []string
	qty   map[string]int
}

func newDemand() *demand { return &demand{qty: map[string]int{}} }

func (d *demand) add(name string, qty int) {
	if _, ok := d.qty[name]; !ok {
		d.order = append(d.order, name)
	}
	d.qty[name] += qty
}

func (s *InventoryService) check(ctx context.Context, r *repos.Repos, d *demand) ([]LineCheck, error) {
	out := make([]LineCheck, 0, len(d.order))
	for _, name := range d.order {
		lc := LineCheck{Product: name, Requested: d.qty[name]}
		p, err := r.Products.FirstByName(ctx, name)
		switch {
		case errors.Is(err, sql.ErrNoRows):
		case err != nil:
			return nil, err
		default:
			lc.Found = true
			lc.Available = p.StockQuantity
		}
		lc.OK = lc.Found && lc.Requested <= lc.Available
		out = append(out, lc)
	}
	return out, nil
}

// firstShortfall turns the first failing check into the error Submit reports.
func firstShortfall(checks []LineCheck) error {
	for _, c := range checks {
		if !c.Found {
			return productNotFound(c.Product)
		}
		if !c.OK {
			return &InsufficientStockError{Product: c.Product, Available: c.Available, Requested: c.Requested}
		}
	}
	return nil
}

// CheckAll is the advisory pre-submit gate. Submit re-checks on its own.
func (s *InventoryService) CheckAll(ctx context.Context, lines []LineInput) ([]LineCheck, error) {
	d := newDemand()
	for _, l := range lines {
		name := strings.TrimSpace(l.Product)
		if name == "" {
			continue
		}
		d.add(name, l.Quantity)
	}
	return s.check(ctx, s.Store.Repos, d)
}

// SetStock is the admin override for one product.
func (s *InventoryService) SetStock(ctx context.Context, productID string, qty int) error {
	if qty < 0 {
		return invalid("qty", "Quantity cannot be negative")
	}
	var ch StockChange
	err := s.Store.InTx(ctx, func(r *repos.Repos) error {
		p, err := r.Products.Get(ctx, productID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrProductNotFound
		}
		if err != nil {
			return err
		}
		ch = StockChange{ProductID: p.ID, Product: p.Name, From: p.StockQuantity, To: qty}
		return r.Inventory.SetQty(ctx, productID, qty, s.Now.stamp())
	})
	if err != nil {
		return err
	}
	s.publish([]StockChange{ch})
	return nil
}

func (s *InventoryService) List(ctx context.Context) ([]repos.InventoryRow, error) {
	return s.Store.Inventory.ListAll(ctx)
}

func (s *InventoryService) LowStock(ctx context.Context) ([]repos.InventoryRow, error) {
	return s.Store.Inventory.LowStock(ctx, LowStockThreshold-1)
}
