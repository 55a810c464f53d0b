package pos

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"libreriapos/m/domain"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var igv = d("0.18")

func requireMoney(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	require.Truef(t, d(want).Equal(got), "%s: want %s, got %s", field, want, got)
}

func TestComputeTotalsReferenceCart(t *testing.T) {
	lines := []Line{
		{UnitPrice: d("10.00"), Quantity: 2, Discount: decimal.Zero},
		{UnitPrice: d("5.00"), Quantity: 1, Discount: d("1.00")},
	}
	got := ComputeTotals(lines, d("2.00"), Payment{Method: domain.PaymentCash, Tendered: d("30")}, igv)

	requireMoney(t, "25.00", got.Gross, "gross")
	requireMoney(t, "24.00", got.Subtotal, "subtotal")
	requireMoney(t, "3.00", got.Discount, "discount")
	requireMoney(t, "22.00", got.NetSubtotal, "net")
	requireMoney(t, "3.96", got.Tax, "tax")
	requireMoney(t, "25.96", got.Total, "total")
	requireMoney(t, "4.04", got.Change, "change")
	require.True(t, got.Payable)
}

func TestComputeTotalsNetNeverNegative(t *testing.T) {
	lines := []Line{{UnitPrice: d("3.50"), Quantity: 2}}
	got := ComputeTotals(lines, d("100"), Payment{Method: domain.PaymentCard}, igv)

	require.False(t, got.NetSubtotal.IsNegative())
	requireMoney(t, "0", got.NetSubtotal, "net")
	requireMoney(t, "0", got.Tax, "tax")
	requireMoney(t, "0", got.Total, "total")
	// Only the part of the general discount that could be applied counts.
	requireMoney(t, "7.00", got.Discount, "discount")
}

func TestComputeTotalsClampsItemDiscount(t *testing.T) {
	lines := []Line{
		{UnitPrice: d("4.00"), Quantity: 1, Discount: d("9.00")},
		{UnitPrice: d("2.00"), Quantity: 3, Discount: d("-1")},
	}
	got := ComputeTotals(lines, decimal.Zero, Payment{Method: domain.PaymentCard}, igv)

	requireMoney(t, "4.00", got.ItemDiscount, "item discount")
	requireMoney(t, "6.00", got.Subtotal, "subtotal")
}

func TestComputeTotalsTaxReconciles(t *testing.T) {
	prices := []string{"0.01", "0.99", "1.15", "3.33", "7.77", "12.49", "19.995"}
	for _, p := range prices {
		for qty := int64(1); qty <= 7; qty++ {
			got := ComputeTotals([]Line{{UnitPrice: d(p), Quantity: qty}}, d("0.50"), Payment{Method: domain.PaymentCard}, igv)
			require.True(t, got.Total.Equal(got.NetSubtotal.Add(got.Tax)), "price %s qty %d", p, qty)
			require.True(t, got.Tax.Equal(RoundMoney(got.NetSubtotal.Mul(igv))), "price %s qty %d", p, qty)
			require.LessOrEqual(t, got.Total.Exponent(), int32(0))
			require.GreaterOrEqual(t, got.Total.Exponent(), int32(-2))
		}
	}
}

func TestComputeTotalsRoundsHalfUp(t *testing.T) {
	// 0.25 * 0.18 = 0.045 -> 0.05
	got := ComputeTotals([]Line{{UnitPrice: d("0.25"), Quantity: 1}}, decimal.Zero, Payment{Method: domain.PaymentCard}, igv)
	requireMoney(t, "0.05", got.Tax, "tax")
	requireMoney(t, "0.30", got.Total, "total")
}

func TestComputeTotalsCashNotPayable(t *testing.T) {
	lines := []Line{{UnitPrice: d("10.00"), Quantity: 1}}

	short := ComputeTotals(lines, decimal.Zero, Payment{Method: domain.PaymentCash, Tendered: d("11.79")}, igv)
	require.False(t, short.Payable)
	requireMoney(t, "0", short.Change, "change")

	exact := ComputeTotals(lines, decimal.Zero, Payment{Method: domain.PaymentCash, Tendered: d("11.80")}, igv)
	require.True(t, exact.Payable)
	requireMoney(t, "0", exact.Change, "change")

	card := ComputeTotals(lines, decimal.Zero, Payment{Method: domain.PaymentCard, Tendered: d("1")}, igv)
	require.True(t, card.Payable)
	requireMoney(t, "0", card.Change, "change")
}

func TestComputeTotalsEmpty(t *testing.T) {
	got := ComputeTotals(nil, d("5"), Payment{Method: domain.PaymentCash}, igv)
	requireMoney(t, "0", got.Total, "total")
	require.True(t, got.Payable)
}
