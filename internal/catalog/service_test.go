package catalog_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"libreriapos/m/domain"
	"libreriapos/m/internal/catalog"
	"libreriapos/m/internal/testutil"
)

func newService(t *testing.T, limit int) (*catalog.Service, context.Context) {
	t.Helper()
	db := testutil.NewDB(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return catalog.NewService(db, limit, logger), context.Background()
}

func strptr(s string) *string { return &s }

func input(name, price string, stock int64) catalog.ProductInput {
	return catalog.ProductInput{Name: name, SalePrice: decimal.RequireFromString(price), Stock: stock}
}

func TestCreateGeneratesBarcode(t *testing.T) {
	svc, ctx := newService(t, 50)
	p, err := svc.Create(ctx, input("Cuaderno A4", "4.50", 10))
	require.NoError(t, err)
	require.NotNil(t, p.Barcode)
	require.True(t, catalog.ValidateEAN13(*p.Barcode))
	require.True(t, p.Active)
	require.EqualValues(t, domain.DefaultMinStock, p.MinStock)
	require.True(t, decimal.RequireFromString("4.5").Equal(p.SalePrice))
	require.False(t, p.CostPrice.Valid)
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	svc, ctx := newService(t, 50)

	_, err := svc.Create(ctx, input(" ", "1", 0))
	require.ErrorIs(t, err, catalog.ErrNameRequired)

	_, err = svc.Create(ctx, input("x", "-1", 0))
	require.ErrorIs(t, err, catalog.ErrInvalidPrice)

	bad := input("x", "1", 0)
	bad.Barcode = strptr("4006381333932")
	_, err = svc.Create(ctx, bad)
	require.ErrorIs(t, err, catalog.ErrInvalidCode)
}

func TestCreateDuplicateSKU(t *testing.T) {
	svc, ctx := newService(t, 50)
	in := input("Regla", "1.00", 1)
	in.SKU = strptr("REG-30")
	_, err := svc.Create(ctx, in)
	require.NoError(t, err)
	_, err = svc.Create(ctx, in)
	require.ErrorIs(t, err, catalog.ErrDuplicateCode)
}

func TestSearchMatchesNameBarcodeAndSKU(t *testing.T) {
	svc, ctx := newService(t, 50)
	a := input("Lápiz Grafito", "1.00", 5)
	a.SKU = strptr("LAP-HB")
	b := input("Borrador blanco", "0.50", 5)
	b.Barcode = strptr("7501031311309")
	_, err := svc.Create(ctx, a)
	require.NoError(t, err)
	_, err = svc.Create(ctx, b)
	require.NoError(t, err)

	res, err := svc.Search(ctx, "GRAFITO")
	require.NoError(t, err)
	require.Len(t, res, 1)

	res, err = svc.Search(ctx, "lap-hb")
	require.NoError(t, err)
	require.Len(t, res, 1)

	res, err = svc.Search(ctx, "5010313")
	require.NoError(t, err)
	require.Len(t, res, 1)
	require.Equal(t, "Borrador blanco", res[0].Name)

	res, err = svc.Search(ctx, "")
	require.NoError(t, err)
	require.Len(t, res, 2)
}

func TestSearchIsCappedAndSkipsInactive(t *testing.T) {
	svc, ctx := newService(t, 3)
	var last domain.Product
	for i := 0; i < 5; i++ {
		p, err := svc.Create(ctx, input("Folder", "2.00", 1))
		require.NoError(t, err)
		last = p
	}
	res, err := svc.Search(ctx, "folder")
	require.NoError(t, err)
	require.Len(t, res, 3)

	require.NoError(t, svc.Deactivate(ctx, last.ID))
	active, err := svc.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 4)

	p, err := svc.Get(ctx, last.ID)
	require.NoError(t, err)
	require.False(t, p.Active)

	require.ErrorIs(t, svc.Deactivate(ctx, 999), catalog.ErrNotFound)
}

func TestSnapshotSkipsMissingIDs(t *testing.T) {
	svc, ctx := newService(t, 50)
	p, err := svc.Create(ctx, input("Tijera", "3.00", 2))
	require.NoError(t, err)

	snap, err := svc.Snapshot(ctx, []int64{p.ID, 404})
	require.NoError(t, err)
	require.Len(t, snap, 1)
	require.EqualValues(t, 2, snap[p.ID].Stock)
}

func TestAdjustStockRecordsMovement(t *testing.T) {
	db := testutil.NewDB(t)
	svc := catalog.NewService(db, 50, nil)
	ctx := context.Background()

	p, err := svc.Create(ctx, input("Goma", "2.00", 4))
	require.NoError(t, err)

	p, err = svc.AdjustStock(ctx, p.ID, 10)
	require.NoError(t, err)
	require.EqualValues(t, 10, p.Stock)

	_, err = svc.AdjustStock(ctx, p.ID, -1)
	require.ErrorIs(t, err, catalog.ErrInvalidStock)

	_, err = svc.AdjustStock(ctx, 999, 1)
	require.ErrorIs(t, err, catalog.ErrNotFound)

	var deltas []int64
	require.NoError(t, db.Select(&deltas, `SELECT cantidad FROM movimientos_stock WHERE producto_id = ? ORDER BY movimiento_id`, p.ID))
	require.Equal(t, []int64{4, 6}, deltas)
}

func TestUpdateProduct(t *testing.T) {
	svc, ctx := newService(t, 50)
	p, err := svc.Create(ctx, input("Corrector", "3.00", 2))
	require.NoError(t, err)

	in := input("Corrector líquido", "3.50", 2)
	in.Barcode = p.Barcode
	in.CostPrice = decimal.NewNullDecimal(decimal.RequireFromString("2.10"))
	updated, err := svc.Update(ctx, p.ID, in)
	require.NoError(t, err)
	require.Equal(t, "Corrector líquido", updated.Name)
	require.True(t, updated.CostPrice.Valid)
	require.Equal(t, *p.Barcode, *updated.Barcode)

	_, err = svc.Update(ctx, 999, in)
	require.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestSearchTreatsWildcardsLiterally(t *testing.T) {
	svc, ctx := newService(t, 50)
	_, err := svc.Create(ctx, input("Cuaderno", "4.00", 5))
	require.NoError(t, err)
	_, err = svc.Create(ctx, input("Papel 100% algodón", "9.00", 5))
	require.NoError(t, err)

	res, err := svc.Search(ctx, "_")
	require.NoError(t, err)
	require.Empty(t, res)

	res, err = svc.Search(ctx, "%")
	require.NoError(t, err)
	require.Len(t, res, 1)
	require.Equal(t, "Papel 100% algodón", res[0].Name)
}

func TestPricesAreStoredAtCents(t *testing.T) {
	svc, ctx := newService(t, 50)
	in := input("Clip", "1.005", 10)
	in.CostPrice = decimal.NewNullDecimal(decimal.RequireFromString("0.4449"))
	p, err := svc.Create(ctx, in)
	require.NoError(t, err)
	require.True(t, decimal.RequireFromString("1.01").Equal(p.SalePrice))
	require.True(t, decimal.RequireFromString("0.44").Equal(p.CostPrice.Decimal))

	upd := input("Clip", "2.499", 10)
	p, err = svc.Update(ctx, p.ID, upd)
	require.NoError(t, err)
	require.True(t, decimal.RequireFromString("2.5").Equal(p.SalePrice))
}

func TestCategories(t *testing.T) {
	svc, ctx := newService(t, 50)

	c, err := svc.CreateCategory(ctx, catalog.CategoryInput{Name: "Utiles escolares"})
	require.NoError(t, err)
	require.True(t, c.Active)

	_, err = svc.CreateCategory(ctx, catalog.CategoryInput{Name: "  "})
	require.ErrorIs(t, err, catalog.ErrCategoryNameRequired)
	_, err = svc.CreateCategory(ctx, catalog.CategoryInput{Name: "utiles ESCOLARES"})
	require.ErrorIs(t, err, catalog.ErrDuplicateCategory)

	in := input("Cuaderno", "4.00", 5)
	in.CategoryID = &c.ID
	p, err := svc.Create(ctx, in)
	require.NoError(t, err)
	require.NotNil(t, p.CategoryID)
	require.Equal(t, c.ID, *p.CategoryID)

	missing := int64(404)
	in.CategoryID = &missing
	_, err = svc.Create(ctx, in)
	require.ErrorIs(t, err, catalog.ErrCategoryNotFound)

	list, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestEnsureCategoryFindsOrCreates(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()

	first, err := catalog.EnsureCategory(ctx, db, "Arte")
	require.NoError(t, err)
	again, err := catalog.EnsureCategory(ctx, db, " arte ")
	require.NoError(t, err)
	require.Equal(t, first, again)
	require.Equal(t, 1, testutil.Count(t, db, "categorias"))

	_, err = catalog.EnsureCategory(ctx, db, "")
	require.ErrorIs(t, err, catalog.ErrCategoryNameRequired)
}
