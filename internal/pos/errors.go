package pos

import (
	"errors"
	"fmt"
)

// Validation errors. None of them leave a partial change behind.
var (
	ErrOutOfStock           = errors.New("product has no stock")
	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrProductInactive      = errors.New("product is not active")
	ErrItemNotFound         = errors.New("item not in cart")
	ErrEmptyCart            = errors.New("cart is empty")
	ErrInsufficientPayment  = errors.New("amount tendered is less than total")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrInvalidOperator      = errors.New("invalid operator")
	ErrDiscountNotAllowed   = errors.New("general discount requires an admin")
)

// StockError describes a line that asks for more units than are available.
type StockError struct {
	ProductID int64
	Name      string
	Requested int64
	Available int64
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q (product %d): requested %d, available %d",
		e.Name, e.ProductID, e.Requested, e.Available)
}

func (e *StockError) Unwrap() error { return ErrInsufficientStock }
