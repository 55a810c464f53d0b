// Package sales persists committed sales and serves read-only lookups over them.
package sales

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"libreriapos/m/domain"
	"libreriapos/m/internal/database"
	"libreriapos/m/internal/pos"
)

// ErrNotFound is returned when a sale id does not exist.
var ErrNotFound = errors.New("sale not found")

const timestampLayout = "2006-01-02 15:04:05"

const (
	insertSaleSQL = `INSERT INTO ventas (
            numero_comprobante, usuario_id, cliente_id, subtotal, igv, total, descuento,
            tipo_documento, metodo_pago, monto_recibido, cambio, notas, estado, fecha_hora
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	insertDetailSQL = `INSERT INTO detalle_venta (
            venta_id, producto_id, cantidad, precio_unitario, descuento, subtotal
        ) VALUES (?, ?, ?, ?, ?, ?)`
	decrementStockSQL = `UPDATE productos SET stock_actual = stock_actual - ?
        WHERE producto_id = ? AND activo = 1 AND stock_actual >= ?
        RETURNING stock_actual`
	insertMovementSQL = `INSERT INTO movimientos_stock (producto_id, tipo, cantidad, stock_resultante, referencia_id)
        VALUES (?, ?, ?, ?, ?)`

	saleColumns = `venta_id, numero_comprobante, usuario_id, cliente_id, subtotal, igv, total, descuento,
        tipo_documento, metodo_pago, monto_recibido, cambio, notas, estado, fecha_hora`
)

// Repository is the SQLite-backed sale store.
type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// CommitSale writes the header, every detail row, the stock decrements and
// their movements in one transaction. Nothing is persisted on error.
func (r *Repository) CommitSale(ctx context.Context, header pos.SaleHeaderInput, lines []pos.SaleDetailInput) (pos.CommitResult, error) {
	if len(lines) == 0 {
		return pos.CommitResult{}, pos.ErrEmptyCart
	}
	createdAt := header.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	docType := header.DocumentType
	if docType == "" {
		docType = domain.DocumentReceipt
	}
	customerID := header.CustomerID
	if customerID <= 0 {
		customerID = domain.WalkInCustomerID
	}

	var saleID int64
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, insertSaleSQL,
			header.ReceiptID.String(), header.OperatorID, customerID,
			header.Subtotal, header.Tax, header.Total, header.Discount,
			docType, string(header.PaymentMethod), header.Tendered, header.Change,
			header.Notes, domain.SaleStatusCompleted, createdAt.Format(timestampLayout))
		if err != nil {
			return fmt.Errorf("sales: insert header: %w", err)
		}
		saleID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("sales: header id: %w", err)
		}

		for _, line := range lines {
			if _, err := tx.ExecContext(ctx, insertDetailSQL,
				saleID, line.ProductID, line.Quantity, line.UnitPrice, line.Discount, line.Subtotal); err != nil {
				return fmt.Errorf("sales: insert detail for product %d: %w", line.ProductID, err)
			}

			var remaining int64
			err := tx.QueryRowxContext(ctx, decrementStockSQL, line.Quantity, line.ProductID, line.Quantity).Scan(&remaining)
			if errors.Is(err, sql.ErrNoRows) {
				return stockError(ctx, tx, line)
			}
			if err != nil {
				return fmt.Errorf("sales: decrement stock for product %d: %w", line.ProductID, err)
			}

			if _, err := tx.ExecContext(ctx, insertMovementSQL,
				line.ProductID, domain.MovementSale, -line.Quantity, remaining, saleID); err != nil {
				return fmt.Errorf("sales: record movement for product %d: %w", line.ProductID, err)
			}
		}
		return nil
	})
	if err != nil {
		return pos.CommitResult{}, err
	}
	return pos.CommitResult{SaleID: saleID, ReceiptID: header.ReceiptID, Success: true}, nil
}

func stockError(ctx context.Context, tx *sqlx.Tx, line pos.SaleDetailInput) error {
	var current struct {
		Name   string `db:"nombre"`
		Stock  int64  `db:"stock_actual"`
		Active bool   `db:"activo"`
	}
	err := tx.GetContext(ctx, &current, `SELECT nombre, stock_actual, activo FROM productos WHERE producto_id = ?`, line.ProductID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("sales: product %d does not exist: %w", line.ProductID, pos.ErrItemNotFound)
	}
	if err != nil {
		return fmt.Errorf("sales: load stock for product %d: %w", line.ProductID, err)
	}
	if !current.Active {
		return fmt.Errorf("sales: product %d: %w", line.ProductID, pos.ErrProductInactive)
	}
	return &pos.StockError{ProductID: line.ProductID, Name: current.Name, Requested: line.Quantity, Available: current.Stock}
}

// Get loads a single sale header.
func (r *Repository) Get(ctx context.Context, id int64) (domain.Sale, error) {
	var sale domain.Sale
	err := r.db.GetContext(ctx, &sale, `SELECT `+saleColumns+` FROM ventas WHERE venta_id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Sale{}, ErrNotFound
	}
	if err != nil {
		return domain.Sale{}, fmt.Errorf("sales: get %d: %w", id, err)
	}
	return sale, nil
}

// Details lists the line items of a sale with product names.
func (r *Repository) Details(ctx context.Context, saleID int64) ([]domain.SaleDetail, error) {
	details := []domain.SaleDetail{}
	err := r.db.SelectContext(ctx, &details, `SELECT dv.detalle_id, dv.venta_id, dv.producto_id, p.nombre AS producto_nombre,
            dv.cantidad, dv.precio_unitario, dv.descuento, dv.subtotal
        FROM detalle_venta dv
        JOIN productos p ON p.producto_id = dv.producto_id
        WHERE dv.venta_id = ?
        ORDER BY dv.detalle_id`, saleID)
	if err != nil {
		return nil, fmt.Errorf("sales: details %d: %w", saleID, err)
	}
	return details, nil
}

// Today lists today's completed sales, newest first.
func (r *Repository) Today(ctx context.Context) ([]domain.Sale, error) {
	sales := []domain.Sale{}
	err := r.db.SelectContext(ctx, &sales, `SELECT `+saleColumns+` FROM ventas
        WHERE DATE(fecha_hora) = DATE('now', 'localtime') AND estado = ?
        ORDER BY fecha_hora DESC, venta_id DESC`, domain.SaleStatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("sales: today: %w", err)
	}
	return sales, nil
}

// Entry is a sale with its line items.
type Entry struct {
	domain.Sale
	Items []domain.SaleDetail `json:"items"`
}

// Filter narrows Report to an inclusive date range (YYYY-MM-DD).
type Filter struct {
	StartDate string
	EndDate   string
}

// Report lists sales in the filter range with their items.
func (r *Repository) Report(ctx context.Context, f Filter) ([]Entry, error) {
	var (
		args    []any
		clauses []string
	)
	if f.StartDate != "" {
		args = append(args, f.StartDate)
		clauses = append(clauses, "DATE(fecha_hora) >= ?")
	}
	if f.EndDate != "" {
		args = append(args, f.EndDate)
		clauses = append(clauses, "DATE(fecha_hora) <= ?")
	}

	query := `SELECT ` + saleColumns + ` FROM ventas`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY fecha_hora DESC, venta_id DESC"

	var sales []domain.Sale
	if err := r.db.SelectContext(ctx, &sales, query, args...); err != nil {
		return nil, fmt.Errorf("sales: report: %w", err)
	}
	if len(sales) == 0 {
		return []Entry{}, nil
	}

	ids := make([]int64, len(sales))
	for i, sale := range sales {
		ids[i] = sale.ID
	}

	itemsQuery, itemsArgs, err := sqlx.In(`SELECT dv.detalle_id, dv.venta_id, dv.producto_id, p.nombre AS producto_nombre,
            dv.cantidad, dv.precio_unitario, dv.descuento, dv.subtotal
        FROM detalle_venta dv
        JOIN productos p ON p.producto_id = dv.producto_id
        WHERE dv.venta_id IN (?)
        ORDER BY dv.detalle_id`, ids)
	if err != nil {
		return nil, fmt.Errorf("sales: prepare items query: %w", err)
	}
	itemsQuery = r.db.Rebind(itemsQuery)

	var rows []domain.SaleDetail
	if err := r.db.SelectContext(ctx, &rows, itemsQuery, itemsArgs...); err != nil {
		return nil, fmt.Errorf("sales: load items: %w", err)
	}
	itemsBySale := make(map[int64][]domain.SaleDetail)
	for _, row := range rows {
		itemsBySale[row.SaleID] = append(itemsBySale[row.SaleID], row)
	}

	report := make([]Entry, len(sales))
	for i, sale := range sales {
		items := itemsBySale[sale.ID]
		if items == nil {
			items = []domain.SaleDetail{}
		}
		report[i] = Entry{Sale: sale, Items: items}
	}
	return report, nil
}
