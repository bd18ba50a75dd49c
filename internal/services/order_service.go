package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"medicart/internal/notify"
	"medicart/internal/repos"
	"medicart/internal/validate"
)

var paymentMethods = map[string]bool{"cod": true, "card": true, "upi": true}

type Contact struct {
	Name          string
	Email         string
	Phone         string
	Address       string
	PaymentMethod string
}

func (c Contact) clean() (Contact, error) {
	var ok bool
	if c.Name, ok = validate.Name(c.Name); !ok {
		return c, invalid("name", "Please enter your name")
	}
	if c.Email, ok = validate.Email(c.Email); !ok {
		return c, invalid("email", "Please enter a valid email address")
	}
	if c.Phone, ok = validate.Phone(c.Phone); !ok {
		return c, invalid("phone", "Please enter a valid phone number")
	}
	if c.Address, ok = validate.Text(c.Address, 300); !ok || c.Address == "" {
		return c, invalid("address", "Please enter a delivery address")
	}
	c.PaymentMethod = strings.ToLower(strings.TrimSpace(c.PaymentMethod))
	if c.PaymentMethod == "" {
		c.PaymentMethod = "cod"
	}
	if !paymentMethods[c.PaymentMethod] {
		return c, invalid("payment_method", "Unknown payment method")
	}
	return c, nil
}

type OrderService struct {
	Store  *repos.Store
	Inv    *InventoryService
	Sender notify.Sender
	Now    clock
}

func NewOrderService(store *repos.Store, inv *InventoryService, sender notify.Sender) *OrderService {
	return &OrderService{Store: store, Inv: inv, Sender: sender}
}

// Place turns the session cart into an order. Items are repriced from the
// catalog, every line is checked before any stock moves, and the whole
// checkout commits or rolls back as one unit.
func (s *OrderService) Place(ctx context.Context, sessionID string, contact Contact) (string, error) {
	contact, err := contact.clean()
	if err != nil {
		return "", err
	}

	o := repos.OrderRow{
		ID:            uuid.NewString(),
		SessionID:     sessionID,
		Customer:      contact.Name,
		Email:         contact.Email,
		Phone:         contact.Phone,
		Address:       contact.Address,
		PaymentMethod: contact.PaymentMethod,
		CreatedAt:     s.Now.stamp(),
	}
	var (
		changes []StockChange
		lines   []repos.OrderItemRow
	)
	err = s.Store.InTx(ctx, func(r *repos.Repos) error {
		cartID, err := r.Carts.EnsureCart(ctx, sessionID)
		if err != nil {
			return err
		}
		items, err := r.Carts.Items(ctx, cartID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return ErrEmptyCart
		}

		// pre-check stock
		total := decimal.Zero
		for _, it := range items {
			p, err := r.Products.Get(ctx, it.ProductID)
			if errors.Is(err, sql.ErrNoRows) {
				return productNotFound(it.Name)
			}
			if err != nil {
				return err
			}
			if it.Qty > p.StockQuantity {
				return &InsufficientStockError{Product: p.Name, Available: p.StockQuantity, Requested: it.Qty}
			}
			price := p.SalePrice()
			lines = append(lines, repos.OrderItemRow{ProductID: p.ID, Name: p.Name, Qty: it.Qty, Price: price})
			changes = append(changes, StockChange{ProductID: p.ID, Product: p.Name, From: p.StockQuantity, To: p.StockQuantity - it.Qty})
			total = total.Add(price.Mul(decimal.NewFromInt(int64(it.Qty))))
		}

		// decrement
		for _, ch := range changes {
			if err := r.Inventory.CompareAndSet(ctx, ch.ProductID, ch.From, ch.To, o.CreatedAt); err != nil {
				if errors.Is(err, repos.ErrStaleWrite) {
					return ErrConcurrentUpdate
				}
				return err
			}
		}

		o.Total = total
		if err := r.Orders.Create(ctx, o); err != nil {
			return err
		}
		for _, l := range lines {
			if err := r.Orders.InsertItem(ctx, o.ID, l); err != nil {
				return err
			}
		}
		return r.Carts.Clear(ctx, cartID)
	})
	if err != nil {
		return "", err
	}

	s.Inv.publish(changes)
	notify.Safe(ctx, s.Sender, "whatsapp.order", orderAlert(o, len(lines)))
	return o.ID, nil
}

func orderAlert(o repos.OrderRow, items int) string {
	return fmt.Sprintf("New Order Placed!\n\nOrder ID: %s\nCustomer: %s\nPhone: %s\nTotal: %s\nItems: %d\nPayment: %s\n\nDelivery Address:\n%s",
		o.ID, o.Customer, o.Phone, o.Total.StringFixed(2), items, strings.ToUpper(o.PaymentMethod), o.Address)
}

func (s *OrderService) Get(ctx context.Context, id string) (repos.OrderRow, []repos.OrderItemRow, error) {
	o, items, err := s.Store.Orders.Get(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return repos.OrderRow{}, nil, ErrOrderNotFound
	}
	return o, items, err
}

func (s *OrderService) History(ctx context.Context, userID string) ([]repos.OrderSummary, error) {
	return s.Store.Orders.ListByUser(ctx, userID)
}

func (s *OrderService) ForSession(ctx context.Context, sessionID string) ([]repos.OrderSummary, error) {
	return s.Store.Orders.ListBySession(ctx, sessionID)
}

func (s *OrderService) Latest(ctx context.Context, limit int) ([]repos.OrderSummary, error) {
	return s.Store.Orders.ListLatest(ctx, limit)
}

func (s *OrderService) UpdateStatus(ctx context.Context, id, status string) error {
	status = strings.ToUpper(strings.TrimSpace(status))
	if !repos.ValidOrderStatus(status) {
		return invalid("status", "Unknown order status")
	}
	err := s.Store.Orders.UpdateStatus(ctx, id, status)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrOrderNotFound
	}
	return err
}
