// Package seed imports an initial product catalog from CSV.
package seed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"libreriapos/m/domain"
	"libreriapos/m/internal/catalog"
	"libreriapos/m/internal/database"
)

var requiredColumns = []string{"nombre", "precio_venta", "stock_actual"}

// Result counts what an import did.
type Result struct {
	Inserted int
	Skipped  int
}

type row struct {
	name     string
	price    decimal.Decimal
	cost     decimal.NullDecimal
	stock    int64
	minStock int64
	barcode  *string
	sku      *string
	brand    *string
	category string
}

// LoadProductsFile imports the CSV at path. See LoadProducts.
func LoadProductsFile(ctx context.Context, db *sqlx.DB, path string, logger *slog.Logger) (Result, error) {
	file, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("seed: open %s: %w", path, err)
	}
	defer file.Close()
	return LoadProducts(ctx, db, file, logger)
}

// LoadProducts inserts every valid row of the CSV in one transaction. The
// first line is a header naming the columns; nombre, precio_venta and
// stock_actual are required, precio_costo, stock_minimo, codigo_barras, sku,
// marca and categoria are optional. Unknown categories are created by name and
// prices are rounded to cents. Invalid or duplicate rows are logged and skipped.
func LoadProducts(ctx context.Context, db *sqlx.DB, r io.Reader, logger *slog.Logger) (Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return Result{}, fmt.Errorf("seed: read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			return Result{}, fmt.Errorf("seed: missing column %q", c)
		}
	}

	var res Result
	err = database.WithTx(ctx, db, func(tx *sqlx.Tx) error {
		stmt, err := tx.PreparexContext(ctx, `INSERT OR IGNORE INTO productos (
                codigo_barras, sku, nombre, marca, categoria_id, precio_venta, precio_costo, stock_actual, stock_minimo
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("seed: prepare insert: %w", err)
		}
		defer stmt.Close()

		line := 1
		for {
			record, err := reader.Read()
			if errors.Is(err, io.EOF) {
				return nil
			}
			line++
			if err != nil {
				logger.Warn("skipping unreadable row", slog.Int("row", line), slog.Any("error", err))
				res.Skipped++
				continue
			}
			p, err := parseRow(record, cols)
			if err != nil {
				logger.Warn("skipping invalid row", slog.Int("row", line), slog.Any("error", err))
				res.Skipped++
				continue
			}

			var categoryID *int64
			if p.category != "" {
				id, err := catalog.EnsureCategory(ctx, tx, p.category)
				if err != nil {
					return fmt.Errorf("seed: category for row %d: %w", line, err)
				}
				categoryID = &id
			}

			out, err := stmt.ExecContext(ctx, p.barcode, p.sku, p.name, p.brand, categoryID, p.price, p.cost, p.stock, p.minStock)
			if err != nil {
				logger.Warn("skipping row", slog.Int("row", line), slog.Any("error", err))
				res.Skipped++
				continue
			}
			if n, _ := out.RowsAffected(); n == 0 {
				logger.Warn("skipping duplicate code", slog.Int("row", line), slog.String("nombre", p.name))
				res.Skipped++
				continue
			}
			id, err := out.LastInsertId()
			if err != nil {
				return err
			}
			if p.stock > 0 {
				if _, err := tx.ExecContext(ctx, `INSERT INTO movimientos_stock (producto_id, tipo, cantidad, stock_resultante)
                    VALUES (?, ?, ?, ?)`, id, domain.MovementImport, p.stock, p.stock); err != nil {
					return fmt.Errorf("seed: record movement for row %d: %w", line, err)
				}
			}
			res.Inserted++
		}
	})
	if err != nil {
		return Result{}, err
	}
	logger.Info("product catalog imported", slog.Int("inserted", res.Inserted), slog.Int("skipped", res.Skipped))
	return res, nil
}

func parseRow(record []string, cols map[string]int) (row, error) {
	get := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}
	optional := func(name string) *string {
		if v := get(name); v != "" {
			return &v
		}
		return nil
	}

	p := row{name: get("nombre"), minStock: domain.DefaultMinStock, sku: optional("sku"), brand: optional("marca"), category: get("categoria")}
	if p.name == "" {
		return row{}, catalog.ErrNameRequired
	}

	price, err := decimal.NewFromString(get("precio_venta"))
	if err != nil {
		return row{}, fmt.Errorf("precio_venta: %w", err)
	}
	if price.IsNegative() {
		return row{}, catalog.ErrInvalidPrice
	}
	p.price = price.Round(2)

	if v := get("precio_costo"); v != "" {
		cost, err := decimal.NewFromString(v)
		if err != nil {
			return row{}, fmt.Errorf("precio_costo: %w", err)
		}
		if cost.IsNegative() {
			return row{}, catalog.ErrInvalidPrice
		}
		p.cost = decimal.NewNullDecimal(cost.Round(2))
	}

	if p.stock, err = parseCount(get("stock_actual")); err != nil {
		return row{}, fmt.Errorf("stock_actual: %w", err)
	}
	if v := get("stock_minimo"); v != "" {
		if p.minStock, err = parseCount(v); err != nil {
			return row{}, fmt.Errorf("stock_minimo: %w", err)
		}
	}

	if code := get("codigo_barras"); code != "" {
		if len(code) == 13 && !catalog.ValidateEAN13(code) {
			return row{}, catalog.ErrInvalidCode
		}
		p.barcode = &code
	} else {
		code, err := catalog.GenerateEAN13()
		if err != nil {
			return row{}, err
		}
		p.barcode = &code
	}
	return p, nil
}

func parseCount(v string) (int64, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, catalog.ErrInvalidStock
	}
	return n, nil
}
