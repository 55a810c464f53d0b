// Package pos holds the sale transaction engine: cart state, totals
// arithmetic and the atomic commit of a sale.
//
// Money is carried as exact decimals and rounded half-up to two places only
// at output boundaries. Tax is computed from the already rounded net
// subtotal so Total == NetSubtotal + Tax holds exactly.
package pos

import (
	"github.com/shopspring/decimal"

	"libreriapos/m/domain"
)

const moneyPlaces = 2

// Line is the pricing view of a cart line.
type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int64
	Discount  decimal.Decimal
}

// Payment is the tender for a sale. Tendered is ignored for card payments.
type Payment struct {
	Method   domain.PaymentMethod `json:"metodo_pago"`
	Tendered decimal.Decimal      `json:"monto_recibido"`
}

// Totals is the summary shown on every cart mutation and persisted on commit.
type Totals struct {
	Gross        decimal.Decimal `json:"subtotal_bruto"`
	ItemDiscount decimal.Decimal `json:"descuento_items"`
	// Subtotal is after item discounts, before the general discount and tax.
	Subtotal decimal.Decimal `json:"subtotal"`
	// Discount is item discounts plus the part of the general discount applied.
	Discount    decimal.Decimal `json:"descuento"`
	NetSubtotal decimal.Decimal `json:"subtotal_neto"`
	Tax         decimal.Decimal `json:"igv"`
	Total       decimal.Decimal `json:"total"`
	Change      decimal.Decimal `json:"cambio"`
	Payable     bool            `json:"pagable"`
}

// RoundMoney rounds half-up to cents. Amounts in this package are never negative.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(moneyPlaces)
}

// ClampDiscount bounds a discount to [0, limit].
func ClampDiscount(discount, limit decimal.Decimal) decimal.Decimal {
	if discount.IsNegative() {
		return decimal.Zero
	}
	if discount.GreaterThan(limit) {
		return limit
	}
	return discount
}

// LineAmounts returns the cent-rounded gross, discount and subtotal of l.
// Header totals are summed from these so the persisted detail rows always
// add up to the header.
func LineAmounts(l Line) (gross, discount, subtotal decimal.Decimal) {
	if l.Quantity <= 0 {
		return decimal.Zero, decimal.Zero, decimal.Zero
	}
	gross = RoundMoney(l.UnitPrice.Mul(decimal.NewFromInt(l.Quantity)))
	discount = ClampDiscount(RoundMoney(l.Discount), gross)
	return gross, discount, gross.Sub(discount)
}

// ComputeTotals maps cart lines, a general discount and a payment to a totals
// summary. It has no side effects.
func ComputeTotals(lines []Line, generalDiscount decimal.Decimal, payment Payment, taxRate decimal.Decimal) Totals {
	gross := decimal.Zero
	itemDiscount := decimal.Zero
	for _, l := range lines {
		g, disc, _ := LineAmounts(l)
		gross = gross.Add(g)
		itemDiscount = itemDiscount.Add(disc)
	}

	subtotal := gross.Sub(itemDiscount)
	applied := ClampDiscount(RoundMoney(generalDiscount), subtotal)
	net := subtotal.Sub(applied)
	tax := RoundMoney(net.Mul(taxRate))
	total := net.Add(tax)

	t := Totals{
		Gross:        gross,
		ItemDiscount: itemDiscount,
		Subtotal:     subtotal,
		Discount:     itemDiscount.Add(applied),
		NetSubtotal:  net,
		Tax:          tax,
		Total:        total,
		Change:       decimal.Zero,
		Payable:      true,
	}

	if payment.Method != domain.PaymentCard {
		tendered := RoundMoney(payment.Tendered)
		if tendered.GreaterThanOrEqual(total) {
			t.Change = tendered.Sub(total)
		} else {
			t.Payable = false
		}
	}
	return t
}
