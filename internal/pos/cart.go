package pos

import (
	"github.com/shopspring/decimal"

	"libreriapos/m/domain"
)

// CartItem is one line of an uncommitted sale. UnitPrice and Stock are
// copied from the catalog when the product is first added.
type CartItem struct {
	ProductID int64           `json:"producto_id"`
	Name      string          `json:"nombre"`
	UnitPrice decimal.Decimal `json:"precio_venta"`
	Stock     int64           `json:"stock_actual"`
	Quantity  int64           `json:"cantidad"`
	Discount  decimal.Decimal `json:"descuento_item"`
}

// Gross is unit price times quantity.
func (i CartItem) Gross() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(i.Quantity))
}

// Subtotal is the gross line total minus the item discount.
func (i CartItem) Subtotal() decimal.Decimal {
	return i.Gross().Sub(i.Discount)
}

func (i *CartItem) reclamp() {
	i.Discount = ClampDiscount(i.Discount, i.Gross())
}

// Cart is the state of the active sale. It is owned by its caller and is not
// safe for concurrent use.
type Cart struct {
	items           []*CartItem
	generalDiscount decimal.Decimal
	customer        domain.Customer
	payment         Payment
	notes           *string
}

// NewCart returns an empty cash sale for the walk-in customer.
func NewCart() *Cart {
	c := &Cart{}
	c.Reset()
	return c
}

// Reset clears items, tender and general discount and restores the walk-in customer.
func (c *Cart) Reset() {
	c.items = nil
	c.generalDiscount = decimal.Zero
	c.customer = domain.WalkIn()
	c.payment = Payment{Method: domain.PaymentCash, Tendered: decimal.Zero}
	c.notes = nil
}

func (c *Cart) find(productID int64) (int, *CartItem) {
	for i, it := range c.items {
		if it.ProductID == productID {
			return i, it
		}
	}
	return -1, nil
}

// Items returns a copy of the cart lines in insertion order.
func (c *Cart) Items() []CartItem {
	out := make([]CartItem, len(c.items))
	for i, it := range c.items {
		out[i] = *it
	}
	return out
}

// Item returns the line for productID.
func (c *Cart) Item(productID int64) (CartItem, bool) {
	_, it := c.find(productID)
	if it == nil {
		return CartItem{}, false
	}
	return *it, true
}

func (c *Cart) Len() int { return len(c.items) }

func (c *Cart) IsEmpty() bool { return len(c.items) == 0 }

// AddProduct adds one unit of p. A product already in the cart has its
// quantity incremented instead, checked against the stock carried by p.
// Only the line's known stock is refreshed on error.
func (c *Cart) AddProduct(p domain.Product) error {
	if !p.Active {
		return ErrProductInactive
	}
	if _, it := c.find(p.ID); it != nil {
		it.Stock = p.Stock
		if it.Quantity+1 > it.Stock {
			return &StockError{ProductID: it.ProductID, Name: it.Name, Requested: it.Quantity + 1, Available: it.Stock}
		}
		it.Quantity++
		it.reclamp()
		return nil
	}
	if p.Stock <= 0 {
		return ErrOutOfStock
	}
	c.items = append(c.items, &CartItem{
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: p.SalePrice,
		Stock:     p.Stock,
		Quantity:  1,
		Discount:  decimal.Zero,
	})
	return nil
}

// SetQuantity changes a line's quantity. Zero or negative removes the line;
// more than the known stock is rejected and the line keeps its quantity.
func (c *Cart) SetQuantity(productID, qty int64) error {
	_, it := c.find(productID)
	if it == nil {
		return ErrItemNotFound
	}
	if qty <= 0 {
		c.RemoveItem(productID)
		return nil
	}
	if qty > it.Stock {
		return &StockError{ProductID: it.ProductID, Name: it.Name, Requested: qty, Available: it.Stock}
	}
	it.Quantity = qty
	it.reclamp()
	return nil
}

// SetItemDiscount sets a line discount, rounded to cents and clamped to the
// line's gross total.
func (c *Cart) SetItemDiscount(productID int64, amount decimal.Decimal) error {
	_, it := c.find(productID)
	if it == nil {
		return ErrItemNotFound
	}
	it.Discount = RoundMoney(amount)
	it.reclamp()
	return nil
}

// RemoveItem drops the line for productID, if any.
func (c *Cart) RemoveItem(productID int64) {
	if i, _ := c.find(productID); i >= 0 {
		c.items = append(c.items[:i], c.items[i+1:]...)
	}
}

// SetGeneralDiscount sets the sale-wide discount. Negative amounts become zero;
// amounts above the subtotal are absorbed when totals are computed.
func (c *Cart) SetGeneralDiscount(amount decimal.Decimal) {
	if amount.IsNegative() {
		amount = decimal.Zero
	}
	c.generalDiscount = RoundMoney(amount)
}

func (c *Cart) GeneralDiscount() decimal.Decimal { return c.generalDiscount }

// SelectCustomer sets the customer; the zero Customer selects the walk-in.
func (c *Cart) SelectCustomer(customer domain.Customer) {
	if customer.ID <= 0 {
		customer = domain.WalkIn()
	}
	c.customer = customer
}

func (c *Cart) ClearCustomer() { c.customer = domain.WalkIn() }

func (c *Cart) Customer() domain.Customer { return c.customer }

// SetPayment sets the payment method and the amount tendered.
func (c *Cart) SetPayment(method domain.PaymentMethod, tendered decimal.Decimal) error {
	if !method.Valid() {
		return ErrInvalidPaymentMethod
	}
	if tendered.IsNegative() || method == domain.PaymentCard {
		tendered = decimal.Zero
	}
	c.payment = Payment{Method: method, Tendered: tendered}
	return nil
}

func (c *Cart) Payment() Payment { return c.payment }

func (c *Cart) SetNotes(notes *string) { c.notes = notes }

func (c *Cart) Notes() *string { return c.notes }

// Lines returns the pricing view of the cart.
func (c *Cart) Lines() []Line {
	lines := make([]Line, len(c.items))
	for i, it := range c.items {
		lines[i] = Line{UnitPrice: it.UnitPrice, Quantity: it.Quantity, Discount: it.Discount}
	}
	return lines
}

// Totals recomputes the summary for the current state.
func (c *Cart) Totals(taxRate decimal.Decimal) Totals {
	return ComputeTotals(c.Lines(), c.generalDiscount, c.payment, taxRate)
}
