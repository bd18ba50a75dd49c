package services

import (
	"errors"
	"fmt"
	"time"
)

// ValidationError rejects input before anything is read or written.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string { return e.Msg }

func invalid(field, msg string) error { return &ValidationError{Field: field, Msg: msg} }

var (
	ErrProductNotFound      = errors.New("product not found in inventory")
	ErrSaleNotFound         = errors.New("sales record not found")
	ErrRequestNotFound      = errors.New("medicine request not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrFlagNotFound         = errors.New("feature flag not found")
	ErrReportNotFound       = errors.New("monthly report not found")
	ErrNoSalesData          = errors.New("no sales data found for the selected period")
	ErrOrderNotFound        = errors.New("order not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrEmptyCart            = errors.New("cart empty")

	// ErrConcurrentUpdate: stock moved under us. The unit of work was rolled
	// back, so nothing from the operation was applied.
	ErrConcurrentUpdate = errors.New("stock changed while saving; no changes were applied, please retry")
)

type InsufficientStockError struct {
	Product   string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Insufficient stock for %s. Available: %d, Requested: %d", e.Product, e.Available, e.Requested)
}

func productNotFound(name string) error {
	return fmt.Errorf("%w: %q", ErrProductNotFound, name)
}

// clock is injectable for tests. Calendar dates use the clock's own location.
type clock func() time.Time

func (c clock) now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}

func (c clock) stamp() string { return c.now().UTC().Format(time.RFC3339) }

func (c clock) today() string { return c.now().Format("2006-01-02") }
