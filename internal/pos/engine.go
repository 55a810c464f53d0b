package pos

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"libreriapos/m/domain"
)

// SaleHeaderInput is the header row written by a commit.
type SaleHeaderInput struct {
	ReceiptID     uuid.UUID
	OperatorID    int64
	CustomerID    int64
	Subtotal      decimal.Decimal
	Tax           decimal.Decimal
	Total         decimal.Decimal
	Discount      decimal.Decimal
	DocumentType  string
	PaymentMethod domain.PaymentMethod
	Tendered      decimal.Decimal
	Change        decimal.Decimal
	Notes         *string
	CreatedAt     time.Time
}

// SaleDetailInput is one detail row written by a commit.
type SaleDetailInput struct {
	ProductID int64
	Quantity  int64
	UnitPrice decimal.Decimal
	Discount  decimal.Decimal
	Subtotal  decimal.Decimal
}

type CommitResult struct {
	SaleID    int64     `json:"venta_id"`
	ReceiptID uuid.UUID `json:"numero_comprobante"`
	Success   bool      `json:"success"`
}

// Committer persists a header and its details atomically, decrementing stock
// in the same unit of work.
type Committer interface {
	CommitSale(ctx context.Context, header SaleHeaderInput, lines []SaleDetailInput) (CommitResult, error)
}

// Receipt is returned to the caller after a successful commit.
type Receipt struct {
	CommitResult
	Totals   Totals          `json:"totales"`
	Customer domain.Customer `json:"cliente"`
	Items    []CartItem      `json:"items"`
}

type EngineConfig struct {
	TaxRate decimal.Decimal
	// Timeout bounds a single commit. Zero disables it.
	Timeout time.Duration
}

// Engine validates carts and commits them one at a time.
type Engine struct {
	mu     sync.Mutex
	store  Committer
	cfg    EngineConfig
	logger *slog.Logger
	now    func() time.Time
}

func NewEngine(store Committer, cfg EngineConfig, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: store, cfg: cfg, logger: logger, now: time.Now}
}

func (e *Engine) TaxRate() decimal.Decimal { return e.cfg.TaxRate }

// Quote computes totals for cart without validating it.
func (e *Engine) Quote(cart *Cart) Totals {
	return cart.Totals(e.cfg.TaxRate)
}

// Validate checks the commit preconditions and returns the totals to persist.
func (e *Engine) Validate(cart *Cart) (Totals, error) {
	if cart.IsEmpty() {
		return Totals{}, ErrEmptyCart
	}
	for _, it := range cart.items {
		if it.Quantity > it.Stock {
			return Totals{}, &StockError{ProductID: it.ProductID, Name: it.Name, Requested: it.Quantity, Available: it.Stock}
		}
	}
	totals := e.Quote(cart)
	if !totals.Payable {
		return totals, ErrInsufficientPayment
	}
	return totals, nil
}

// Commit writes the sale for cart. The cart is never modified, so a failed
// commit can be retried as is.
func (e *Engine) Commit(ctx context.Context, cart *Cart, operatorID int64) (Receipt, error) {
	if operatorID <= 0 {
		return Receipt{}, ErrInvalidOperator
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	totals, err := e.Validate(cart)
	if err != nil {
		return Receipt{}, err
	}

	payment := cart.Payment()
	header := SaleHeaderInput{
		ReceiptID:     uuid.New(),
		OperatorID:    operatorID,
		CustomerID:    cart.Customer().ID,
		Subtotal:      totals.NetSubtotal,
		Tax:           totals.Tax,
		Total:         totals.Total,
		Discount:      totals.Discount,
		DocumentType:  domain.DocumentReceipt,
		PaymentMethod: payment.Method,
		Tendered:      RoundMoney(payment.Tendered),
		Change:        totals.Change,
		Notes:         cart.Notes(),
		CreatedAt:     e.now(),
	}
	if header.PaymentMethod == domain.PaymentCard {
		header.Tendered = totals.Total
	}

	items := cart.Items()
	lines := make([]SaleDetailInput, len(items))
	for i, it := range items {
		_, discount, subtotal := LineAmounts(Line{UnitPrice: it.UnitPrice, Quantity: it.Quantity, Discount: it.Discount})
		lines[i] = SaleDetailInput{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Discount:  discount,
			Subtotal:  subtotal,
		}
	}

	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	result, err := e.store.CommitSale(ctx, header, lines)
	if err != nil {
		e.logger.Error("commit sale",
			slog.String("receipt", header.ReceiptID.String()),
			slog.Int("lines", len(lines)),
			slog.Any("error", err))
		return Receipt{}, fmt.Errorf("pos: commit sale: %w", err)
	}

	e.logger.Info("sale committed",
		slog.Int64("sale_id", result.SaleID),
		slog.String("receipt", result.ReceiptID.String()),
		slog.String("total", totals.Total.StringFixed(moneyPlaces)))

	return Receipt{CommitResult: result, Totals: totals, Customer: cart.Customer(), Items: items}, nil
}

// Checkout commits cart and, only on success, resets it for the next sale.
func (e *Engine) Checkout(ctx context.Context, cart *Cart, operatorID int64) (Receipt, error) {
	receipt, err := e.Commit(ctx, cart, operatorID)
	if err != nil {
		return Receipt{}, err
	}
	cart.Reset()
	return receipt, nil
}

// CanApplyGeneralDiscount is the capability check callers run before
// accepting a general discount from an operator.
func CanApplyGeneralDiscount(role string) bool {
	return role == domain.RoleAdmin
}
