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
	"medicart/internal/events"
	"medicart/internal/repos"
	"medicart/internal/validate"
)

// LineInput is one row of the sales entry form or JSON body.
type LineInput struct {
	Product  string          `json:"product_name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// BuildLines validates rows and prices them. Rows with no product are skipped.
func BuildLines(in []LineInput) ([]domain.LineItem, error) {
	lines := make([]domain.LineItem, 0, len(in))
	for i, l := range in {
		name := strings.TrimSpace(l.Product)
		if name == "" {
			continue
		}
		if l.Quantity < 1 {
			return nil, invalid(fmt.Sprintf("lines[%d].quantity", i), "Quantity must be at least 1")
		}
		if !l.Price.IsPositive() {
			return nil, invalid(fmt.Sprintf("lines[%d].price", i), "Price must be greater than zero")
		}
		if !validate.Amount(l.Price) {
			return nil, invalid(fmt.Sprintf("lines[%d].price", i), "Price must have at most two decimals and be at most 1000000")
		}
		lines = append(lines, domain.NewLineItem(name, l.Quantity, l.Price))
	}
	if len(lines) == 0 {
		return nil, invalid("lines", "Please select at least one product")
	}
	if !domain.SumLines(lines).IsPositive() {
		return nil, invalid("total", "Total amount must be greater than zero")
	}
	return lines, nil
}

// SalesService records daily sales and keeps stock in step with them.
type SalesService struct {
	Store   *repos.Store
	Inv     *InventoryService
	Reports *ReportService
	Bus     *events.Bus
	Now     clock
}

func NewSalesService(store *repos.Store, inv *InventoryService, reports *ReportService, bus *events.Bus) *SalesService {
	return &SalesService{Store: store, Inv: inv, Reports: reports, Bus: bus}
}

// Submit checks every line against stock, then decrements stock and appends
// one record dated today. All or nothing.
func (s *SalesService) Submit(ctx context.Context, in []LineInput) (domain.DailySale, error) {
	lines, err := BuildLines(in)
	if err != nil {
		return domain.DailySale{}, err
	}
	ts := s.Now.stamp()
	sale := domain.DailySale{ID: uuid.NewString(), Date: s.Now.today(), CreatedAt: ts, UpdatedAt: ts}

	var changes []StockChange
	err = s.Store.InTx(ctx, func(r *repos.Repos) error {
		d := newDemand()
		for _, l := range lines {
			d.add(l.ProductName, l.Quantity)
		}
		checks, err := s.Inv.check(ctx, r, d)
		if err != nil {
			return err
		}
		if err := firstShortfall(checks); err != nil {
			return err
		}

		for i, l := range lines {
			ch, err := s.Inv.adjust(ctx, r, Adjustment{Product: l.ProductName, Qty: l.Quantity, Mode: ModeSale})
			if err != nil {
				return err
			}
			lines[i].ProductID = ch.ProductID
			changes = append(changes, ch)
		}
		sale.Lines = lines
		sale.TotalAmount = domain.SumLines(lines)
		if err := r.Sales.Insert(ctx, sale); err != nil {
			return err
		}
		return s.refreshReport(ctx, r, sale.Date)
	})
	if err != nil {
		return domain.DailySale{}, err
	}
	s.Inv.publish(changes)
	s.Bus.Publish(events.SaleRecorded, map[string]any{"id": sale.ID, "date": sale.Date, "total": sale.TotalAmount.StringFixed(2)})
	return sale, nil
}

func confirmed(ok bool, action string) error {
	if ok {
		return nil
	}
	return invalid("confirm", "Please confirm before "+action+" this sales record")
}

// Edit replaces the lines of record id and moves stock by the difference per
// product. Products dropped from the record get their units back. An increase
// beyond what is on hand drains the product to zero instead of failing.
func (s *SalesService) Edit(ctx context.Context, id string, in []LineInput, confirm bool) (domain.DailySale, error) {
	if err := confirmed(confirm, "editing"); err != nil {
		return domain.DailySale{}, err
	}
	lines, err := BuildLines(in)
	if err != nil {
		return domain.DailySale{}, err
	}

	var (
		updated domain.DailySale
		changes []StockChange
	)
	err = s.Store.InTx(ctx, func(r *repos.Repos) error {
		orig, err := r.Sales.Get(ctx, id)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrSaleNotFound
		}
		if err != nil {
			return err
		}

		before := newDemand()
		for _, l := range orig.Lines {
			before.add(l.ProductName, l.Quantity)
		}
		after := newDemand()
		for _, l := range lines {
			after.add(l.ProductName, l.Quantity)
		}

		names := append([]string{}, after.order...)
		for _, name := range before.order {
			if _, kept := after.qty[name]; !kept {
				names = append(names, name)
			}
		}
		ids := map[string]string{}
		for _, name := range names {
			ch, err := s.Inv.adjust(ctx, r, Adjustment{
				Product: name, Qty: after.qty[name], Mode: ModeEdit, Original: before.qty[name],
			})
			if err != nil {
				return err
			}
			ids[name] = ch.ProductID
			changes = append(changes, ch)
		}
		for i := range lines {
			lines[i].ProductID = ids[lines[i].ProductName]
		}

		updated = orig
		updated.Lines = lines
		updated.TotalAmount = domain.SumLines(lines)
		updated.UpdatedAt = s.Now.stamp()
		if err := r.Sales.Update(ctx, updated); err != nil {
			return err
		}
		return s.refreshReport(ctx, r, updated.Date)
	})
	if err != nil {
		return domain.DailySale{}, err
	}
	s.Inv.publish(changes)
	s.Bus.Publish(events.SaleEdited, map[string]any{"id": updated.ID, "total": updated.TotalAmount.StringFixed(2)})
	return updated, nil
}

// Delete restores every original line to stock and removes the record. A
// missing id is ErrSaleNotFound and changes nothing.
func (s *SalesService) Delete(ctx context.Context, id string, confirm bool) error {
	if err := confirmed(confirm, "deleting"); err != nil {
		return err
	}
	var changes []StockChange
	err := s.Store.InTx(ctx, func(r *repos.Repos) error {
		orig, err := r.Sales.Get(ctx, id)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrSaleNotFound
		}
		if err != nil {
			return err
		}
		before := newDemand()
		for _, l := range orig.Lines {
			before.add(l.ProductName, l.Quantity)
		}
		for _, name := range before.order {
			ch, err := s.Inv.adjust(ctx, r, Adjustment{Product: name, Qty: 0, Mode: ModeEdit, Original: before.qty[name]})
			if err != nil {
				return err
			}
			changes = append(changes, ch)
		}
		if err := r.Sales.Delete(ctx, id); err != nil {
			return err
		}
		return s.refreshReport(ctx, r, orig.Date)
	})
	if err != nil {
		return err
	}
	s.Inv.publish(changes)
	s.Bus.Publish(events.SaleDeleted, map[string]any{"id": id})
	return nil
}

func (s *SalesService) refreshReport(ctx context.Context, r *repos.Repos, date string) error {
	if s.Reports == nil || len(date) < 7 {
		return nil
	}
	return s.Reports.refresh(ctx, r, date[:7])
}

func (s *SalesService) Get(ctx context.Context, id string) (domain.DailySale, error) {
	sale, err := s.Store.Sales.Get(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.DailySale{}, ErrSaleNotFound
	}
	return sale, err
}

func (s *SalesService) Latest(ctx context.Context, limit int) ([]domain.DailySale, error) {
	return s.Store.Sales.ListLatest(ctx, limit)
}

func (s *SalesService) Between(ctx context.Context, from, to string) ([]domain.DailySale, error) {
	return s.Store.Sales.ListBetween(ctx, from, to)
}

// ProductNames feeds the product picker on the sales form.
func (s *SalesService) ProductNames(ctx context.Context) ([]string, error) {
	return s.Store.Products.Names(ctx)
}
