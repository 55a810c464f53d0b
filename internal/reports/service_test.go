package reports_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"libreriapos/m/domain"
	"libreriapos/m/internal/pos"
	"libreriapos/m/internal/reports"
	"libreriapos/m/internal/sales"
	"libreriapos/m/internal/testutil"
)

func commit(t *testing.T, repo *sales.Repository, operator int64, at time.Time, lines ...pos.SaleDetailInput) {
	t.Helper()
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal)
	}
	_, err := repo.CommitSale(context.Background(), pos.SaleHeaderInput{
		ReceiptID:     uuid.New(),
		OperatorID:    operator,
		Subtotal:      total,
		Tax:           decimal.Zero,
		Total:         total,
		Discount:      decimal.Zero,
		PaymentMethod: domain.PaymentCash,
		Tendered:      total,
		Change:        decimal.Zero,
		CreatedAt:     at,
	}, lines)
	require.NoError(t, err)
}

func line(productID, qty int64, price string) pos.SaleDetailInput {
	p := decimal.RequireFromString(price)
	return pos.SaleDetailInput{
		ProductID: productID,
		Quantity:  qty,
		UnitPrice: p,
		Discount:  decimal.Zero,
		Subtotal:  p.Mul(decimal.NewFromInt(qty)),
	}
}

func TestStats(t *testing.T) {
	db := testutil.NewDB(t)
	repo := sales.NewRepository(db)
	svc := reports.NewService(db)
	op := testutil.SeedUser(t, db, "cajero1", domain.RoleCashier)

	pen := testutil.SeedProduct(t, db, "Lapicero", "1.50", 100)
	notebook := testutil.SeedProduct(t, db, "Cuaderno", "4.00", 6)
	testutil.SeedProduct(t, db, "Regla", "2.00", 2)

	commit(t, repo, op, time.Now(), line(pen, 2, "1.50"), line(notebook, 3, "4.00"))
	commit(t, repo, op, time.Now(), line(pen, 1, "1.50"))
	commit(t, repo, op, time.Now().AddDate(0, 0, -3), line(pen, 10, "1.50"))

	st, err := svc.Stats(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 3, st.ActiveProducts)
	require.EqualValues(t, 2, st.SalesToday)
	require.Equal(t, "16.5", st.RevenueToday.String())
	// Regla (2) and Cuaderno (3 left) are under the default minimum of 5.
	require.EqualValues(t, 2, st.LowStockProducts)
}

func TestTopSellers(t *testing.T) {
	db := testutil.NewDB(t)
	repo := sales.NewRepository(db)
	svc := reports.NewService(db)
	op := testutil.SeedUser(t, db, "cajero1", domain.RoleCashier)

	pen := testutil.SeedProduct(t, db, "Lapicero", "1.50", 100)
	notebook := testutil.SeedProduct(t, db, "Cuaderno", "4.00", 50)
	eraser := testutil.SeedProduct(t, db, "Borrador", "0.50", 50)

	commit(t, repo, op, time.Now(), line(pen, 5, "1.50"), line(notebook, 2, "4.00"))
	commit(t, repo, op, time.Now(), line(pen, 3, "1.50"), line(eraser, 1, "0.50"))

	top, err := svc.TopSellers(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	require.Equal(t, pen, top[0].ProductID)
	require.EqualValues(t, 8, top[0].Units)
	require.Equal(t, "12", top[0].Revenue.String())
	require.Equal(t, notebook, top[1].ProductID)
}

func TestDaily(t *testing.T) {
	db := testutil.NewDB(t)
	repo := sales.NewRepository(db)
	svc := reports.NewService(db)
	op := testutil.SeedUser(t, db, "cajero1", domain.RoleCashier)
	pen := testutil.SeedProduct(t, db, "Lapicero", "1.50", 100)

	now := time.Now()
	commit(t, repo, op, now, line(pen, 2, "1.50"))
	commit(t, repo, op, now, line(pen, 2, "1.50"))
	commit(t, repo, op, now.AddDate(0, 0, -1), line(pen, 1, "1.50"))
	commit(t, repo, op, now.AddDate(0, 0, -40), line(pen, 1, "1.50"))

	days, err := svc.Daily(context.Background(), 30)
	require.NoError(t, err)
	require.Len(t, days, 2)
	require.Equal(t, now.Format("2006-01-02"), days[0].Date)
	require.EqualValues(t, 2, days[0].Sales)
	require.Equal(t, "6", days[0].Revenue.String())
	require.EqualValues(t, 1, days[1].Sales)
}

func TestLowStock(t *testing.T) {
	db := testutil.NewDB(t)
	svc := reports.NewService(db)
	testutil.SeedProduct(t, db, "Lapicero", "1.50", 100)
	low := testutil.SeedProduct(t, db, "Regla", "2.00", 1)
	inactive := testutil.SeedProduct(t, db, "Compas", "8.00", 0)
	_, err := db.Exec(`UPDATE productos SET activo = 0 WHERE producto_id = ?`, inactive)
	require.NoError(t, err)

	got, err := svc.LowStock(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, low, got[0].ID)
}

func TestStockMovements(t *testing.T) {
	db := testutil.NewDB(t)
	repo := sales.NewRepository(db)
	svc := reports.NewService(db)
	op := testutil.SeedUser(t, db, "cajero1", domain.RoleCashier)
	pen := testutil.SeedProduct(t, db, "Lapicero", "1.50", 10)
	notebook := testutil.SeedProduct(t, db, "Cuaderno", "4.00", 10)

	commit(t, repo, op, time.Now(), line(pen, 2, "1.50"), line(notebook, 1, "4.00"))
	commit(t, repo, op, time.Now(), line(pen, 3, "1.50"))

	all, err := svc.StockMovements(context.Background(), 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, pen, all[0].ProductID)
	require.EqualValues(t, -3, all[0].Quantity)
	require.EqualValues(t, 5, all[0].StockAfter)

	forNotebook, err := svc.StockMovements(context.Background(), notebook, 10)
	require.NoError(t, err)
	require.Len(t, forNotebook, 1)
	require.Equal(t, "Cuaderno", forNotebook[0].ProductName)
	require.Equal(t, domain.MovementSale, forNotebook[0].Kind)
}
