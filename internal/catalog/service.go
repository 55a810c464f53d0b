// Package catalog serves product lookups for the register and product
// management for admins.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"libreriapos/m/domain"
	"libreriapos/m/internal/database"
)

var (
	ErrNotFound      = errors.New("product not found")
	ErrDuplicateCode = errors.New("barcode or sku already in use")
	ErrInvalidStock  = errors.New("stock cannot be negative")
	ErrInvalidPrice  = errors.New("price cannot be negative")
	ErrNameRequired  = errors.New("product name is required")
	ErrInvalidCode   = errors.New("barcode has an invalid check digit")

	ErrCategoryNotFound = errors.New("category not found")
)

const productColumns = `producto_id, codigo_barras, sku, nombre, descripcion, marca, categoria_id,
        precio_venta, precio_costo, stock_actual, stock_minimo, activo, fecha_creacion`

// ProductInput carries the editable fields of a product.
type ProductInput struct {
	Barcode     *string             `json:"codigo_barras"`
	SKU         *string             `json:"sku"`
	Name        string              `json:"nombre" validate:"required,max=200"`
	Description *string             `json:"descripcion"`
	Brand       *string             `json:"marca"`
	CategoryID  *int64              `json:"categoria_id" validate:"omitempty,gt=0"`
	SalePrice   decimal.Decimal     `json:"precio_venta"`
	CostPrice   decimal.NullDecimal `json:"precio_costo"`
	Stock       int64               `json:"stock_actual" validate:"gte=0"`
	MinStock    *int64              `json:"stock_minimo" validate:"omitempty,gte=0"`
}

// Service implements catalog search and product management.
type Service struct {
	db          *sqlx.DB
	searchLimit int
	logger      *slog.Logger
}

func NewService(db *sqlx.DB, searchLimit int, logger *slog.Logger) *Service {
	if searchLimit <= 0 {
		searchLimit = 50
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: db, searchLimit: searchLimit, logger: logger}
}

// ListActive returns active products ordered by name.
func (s *Service) ListActive(ctx context.Context) ([]domain.Product, error) {
	products := []domain.Product{}
	err := s.db.SelectContext(ctx, &products, `SELECT `+productColumns+` FROM productos WHERE activo = 1 ORDER BY nombre`)
	if err != nil {
		return nil, fmt.Errorf("catalog: list active: %w", err)
	}
	return products, nil
}

// Search matches term case-insensitively against name, barcode and SKU of
// active products. An empty term lists the first page of active products.
func (s *Service) Search(ctx context.Context, term string) ([]domain.Product, error) {
	term = strings.TrimSpace(term)
	products := []domain.Product{}
	var err error
	if term == "" {
		err = s.db.SelectContext(ctx, &products, `SELECT `+productColumns+` FROM productos
            WHERE activo = 1 ORDER BY nombre LIMIT ?`, s.searchLimit)
	} else {
		like := database.ContainsPattern(strings.ToLower(term))
		err = s.db.SelectContext(ctx, &products, `SELECT `+productColumns+` FROM productos
            WHERE activo = 1
            AND (LOWER(nombre) LIKE ? ESCAPE '\' OR LOWER(COALESCE(codigo_barras, '')) LIKE ? ESCAPE '\'
                OR LOWER(COALESCE(sku, '')) LIKE ? ESCAPE '\')
            ORDER BY nombre LIMIT ?`, like, like, like, s.searchLimit)
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: search %q: %w", term, err)
	}
	return products, nil
}

// Get loads a product regardless of its active flag.
func (s *Service) Get(ctx context.Context, id int64) (domain.Product, error) {
	var p domain.Product
	err := s.db.GetContext(ctx, &p, `SELECT `+productColumns+` FROM productos WHERE producto_id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, ErrNotFound
	}
	if err != nil {
		return domain.Product{}, fmt.Errorf("catalog: get %d: %w", id, err)
	}
	return p, nil
}

// Snapshot loads the given products keyed by id. Ids that do not exist are
// logged and left out of the result.
func (s *Service) Snapshot(ctx context.Context, ids []int64) (map[int64]domain.Product, error) {
	out := make(map[int64]domain.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query, args, err := sqlx.In(`SELECT `+productColumns+` FROM productos WHERE producto_id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("catalog: prepare snapshot: %w", err)
	}
	var products []domain.Product
	if err := s.db.SelectContext(ctx, &products, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("catalog: snapshot: %w", err)
	}
	for _, p := range products {
		out[p.ID] = p
	}
	for _, id := range ids {
		if _, ok := out[id]; !ok {
			s.logger.Warn("product missing from catalog snapshot", slog.Int64("producto_id", id))
		}
	}
	return out, nil
}

// Create inserts a product, generating an EAN-13 barcode when none is given.
func (s *Service) Create(ctx context.Context, in ProductInput) (domain.Product, error) {
	if err := checkInput(in); err != nil {
		return domain.Product{}, err
	}
	if blank(in.Barcode) {
		code, err := GenerateEAN13()
		if err != nil {
			return domain.Product{}, err
		}
		in.Barcode = &code
	}
	in = roundPrices(in)

	var id int64
	err := database.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `INSERT INTO productos (
                codigo_barras, sku, nombre, descripcion, marca, categoria_id,
                precio_venta, precio_costo, stock_actual, stock_minimo
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			nullIfBlank(in.Barcode), nullIfBlank(in.SKU), strings.TrimSpace(in.Name), nullIfBlank(in.Description), nullIfBlank(in.Brand),
			in.CategoryID, in.SalePrice, in.CostPrice, in.Stock, minStock(in.MinStock))
		if err != nil {
			return translate(err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return err
		}
		if in.Stock > 0 {
			return insertMovement(ctx, tx, id, domain.MovementImport, in.Stock, in.Stock)
		}
		return nil
	})
	if err != nil {
		return domain.Product{}, fmt.Errorf("catalog: create: %w", err)
	}
	return s.Get(ctx, id)
}

// Update overwrites the editable fields of a product. A stock change is
// recorded as an adjustment movement.
func (s *Service) Update(ctx context.Context, id int64, in ProductInput) (domain.Product, error) {
	if err := checkInput(in); err != nil {
		return domain.Product{}, err
	}
	in = roundPrices(in)
	err := database.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		var before int64
		if err := tx.GetContext(ctx, &before, `SELECT stock_actual FROM productos WHERE producto_id = ?`, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		_, err := tx.ExecContext(ctx, `UPDATE productos SET
                codigo_barras = ?, sku = ?, nombre = ?, descripcion = ?, marca = ?, categoria_id = ?,
                precio_venta = ?, precio_costo = ?, stock_actual = ?, stock_minimo = ?
            WHERE producto_id = ?`,
			nullIfBlank(in.Barcode), nullIfBlank(in.SKU), strings.TrimSpace(in.Name), nullIfBlank(in.Description), nullIfBlank(in.Brand),
			in.CategoryID, in.SalePrice, in.CostPrice, in.Stock, minStock(in.MinStock), id)
		if err != nil {
			return translate(err)
		}
		if delta := in.Stock - before; delta != 0 {
			return insertMovement(ctx, tx, id, domain.MovementAdjustment, delta, in.Stock)
		}
		return nil
	})
	if err != nil {
		return domain.Product{}, fmt.Errorf("catalog: update %d: %w", id, err)
	}
	return s.Get(ctx, id)
}

// AdjustStock sets the absolute stock of a product and records the delta.
func (s *Service) AdjustStock(ctx context.Context, id, stock int64) (domain.Product, error) {
	if stock < 0 {
		return domain.Product{}, ErrInvalidStock
	}
	err := database.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		var before int64
		if err := tx.GetContext(ctx, &before, `SELECT stock_actual FROM productos WHERE producto_id = ?`, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if before == stock {
			return nil
		}
		if _, err := tx.ExecContext(ctx, `UPDATE productos SET stock_actual = ? WHERE producto_id = ?`, stock, id); err != nil {
			return err
		}
		return insertMovement(ctx, tx, id, domain.MovementAdjustment, stock-before, stock)
	})
	if err != nil {
		return domain.Product{}, fmt.Errorf("catalog: adjust stock %d: %w", id, err)
	}
	return s.Get(ctx, id)
}

// Deactivate soft-deletes a product so past sales keep their reference.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `UPDATE productos SET activo = 0 WHERE producto_id = ?`, id)
	if err != nil {
		return fmt.Errorf("catalog: deactivate %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func insertMovement(ctx context.Context, tx *sqlx.Tx, productID int64, kind string, qty, after int64) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO movimientos_stock (producto_id, tipo, cantidad, stock_resultante)
        VALUES (?, ?, ?, ?)`, productID, kind, qty, after)
	return err
}

func checkInput(in ProductInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return ErrNameRequired
	}
	if in.SalePrice.IsNegative() || (in.CostPrice.Valid && in.CostPrice.Decimal.IsNegative()) {
		return ErrInvalidPrice
	}
	if in.Stock < 0 {
		return ErrInvalidStock
	}
	if code := nullIfBlank(in.Barcode); code != nil && len(*code) == 13 && !ValidateEAN13(*code) {
		return fmt.Errorf("%w: %q", ErrInvalidCode, *code)
	}
	return nil
}

func translate(err error) error {
	switch msg := err.Error(); {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return ErrDuplicateCode
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return ErrCategoryNotFound
	}
	return err
}

// roundPrices keeps stored prices at cents so line totals and sale headers
// reconcile.
func roundPrices(in ProductInput) ProductInput {
	in.SalePrice = in.SalePrice.Round(2)
	if in.CostPrice.Valid {
		in.CostPrice.Decimal = in.CostPrice.Decimal.Round(2)
	}
	return in
}

func minStock(v *int64) int64 {
	if v == nil {
		return domain.DefaultMinStock
	}
	return *v
}

func blank(v *string) bool {
	return v == nil || strings.TrimSpace(*v) == ""
}

func nullIfBlank(v *string) *string {
	if blank(v) {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	return &trimmed
}
