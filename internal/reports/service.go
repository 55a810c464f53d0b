// Package reports aggregates historical sales and stock for the dashboard.
package reports

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"libreriapos/m/domain"
)

const (
	DefaultTopLimit      = 10
	DefaultSummaryDays   = 30
	DefaultMovementLimit = 100
)

type Stats struct {
	ActiveProducts   int64           `json:"total_productos"`
	SalesToday       int64           `json:"total_ventas_hoy"`
	RevenueToday     decimal.Decimal `json:"total_ingresos_hoy"`
	LowStockProducts int64           `json:"productos_stock_bajo"`
}

type TopSeller struct {
	ProductID int64           `db:"producto_id" json:"producto_id"`
	Name      string          `db:"nombre" json:"nombre"`
	Units     int64           `db:"cantidad_vendida" json:"cantidad_vendida"`
	Revenue   decimal.Decimal `db:"total_vendido" json:"total_vendido"`
}

type DailySummary struct {
	Date     string          `db:"fecha" json:"fecha"`
	Sales    int64           `db:"ventas_totales" json:"ventas_totales"`
	Revenue  decimal.Decimal `db:"total_ingreso" json:"total_ingreso"`
	Discount decimal.Decimal `db:"total_descuento" json:"total_descuento"`
}

type Service struct {
	db *sqlx.DB
}

func NewService(db *sqlx.DB) *Service {
	return &Service{db: db}
}

// Stats gathers the dashboard counters.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.db.GetContext(ctx, &st.ActiveProducts, `SELECT COUNT(*) FROM productos WHERE activo = 1`)
	})
	g.Go(func() error {
		return s.db.GetContext(ctx, &st.SalesToday, `SELECT COUNT(*) FROM ventas
            WHERE DATE(fecha_hora) = DATE('now', 'localtime') AND estado = ?`, domain.SaleStatusCompleted)
	})
	g.Go(func() error {
		return s.db.GetContext(ctx, &st.RevenueToday, `SELECT COALESCE(SUM(total), 0) FROM ventas
            WHERE DATE(fecha_hora) = DATE('now', 'localtime') AND estado = ?`, domain.SaleStatusCompleted)
	})
	g.Go(func() error {
		return s.db.GetContext(ctx, &st.LowStockProducts, `SELECT COUNT(*) FROM productos
            WHERE activo = 1 AND stock_actual < stock_minimo`)
	})

	if err := g.Wait(); err != nil {
		return Stats{}, fmt.Errorf("reports: stats: %w", err)
	}
	st.RevenueToday = st.RevenueToday.Round(2)
	return st, nil
}

// TopSellers ranks products by units sold in completed sales.
func (s *Service) TopSellers(ctx context.Context, limit int) ([]TopSeller, error) {
	if limit <= 0 {
		limit = DefaultTopLimit
	}
	out := []TopSeller{}
	err := s.db.SelectContext(ctx, &out, `SELECT p.producto_id, p.nombre,
            SUM(dv.cantidad) AS cantidad_vendida,
            ROUND(SUM(dv.subtotal), 2) AS total_vendido
        FROM detalle_venta dv
        JOIN ventas v ON v.venta_id = dv.venta_id
        JOIN productos p ON p.producto_id = dv.producto_id
        WHERE v.estado = ?
        GROUP BY p.producto_id, p.nombre
        ORDER BY cantidad_vendida DESC, total_vendido DESC
        LIMIT ?`, domain.SaleStatusCompleted, limit)
	if err != nil {
		return nil, fmt.Errorf("reports: top sellers: %w", err)
	}
	return out, nil
}

// Daily summarises completed sales per day over the last days days.
func (s *Service) Daily(ctx context.Context, days int) ([]DailySummary, error) {
	if days <= 0 {
		days = DefaultSummaryDays
	}
	out := []DailySummary{}
	err := s.db.SelectContext(ctx, &out, `SELECT DATE(fecha_hora) AS fecha,
            COUNT(*) AS ventas_totales,
            ROUND(COALESCE(SUM(total), 0), 2) AS total_ingreso,
            ROUND(COALESCE(SUM(descuento), 0), 2) AS total_descuento
        FROM ventas
        WHERE estado = ? AND DATE(fecha_hora) >= DATE('now', 'localtime', ?)
        GROUP BY DATE(fecha_hora)
        ORDER BY fecha DESC`, domain.SaleStatusCompleted, fmt.Sprintf("-%d days", days))
	if err != nil {
		return nil, fmt.Errorf("reports: daily summary: %w", err)
	}
	return out, nil
}

// LowStock lists active products below their minimum stock.
func (s *Service) LowStock(ctx context.Context) ([]domain.Product, error) {
	out := []domain.Product{}
	err := s.db.SelectContext(ctx, &out, `SELECT producto_id, codigo_barras, sku, nombre, descripcion, marca,
            precio_venta, precio_costo, stock_actual, stock_minimo, activo, fecha_creacion
        FROM productos
        WHERE activo = 1 AND stock_actual < stock_minimo
        ORDER BY stock_actual ASC, nombre`)
	if err != nil {
		return nil, fmt.Errorf("reports: low stock: %w", err)
	}
	return out, nil
}

// StockMovements lists the newest movements, optionally for one product.
func (s *Service) StockMovements(ctx context.Context, productID int64, limit int) ([]domain.StockMovement, error) {
	if limit <= 0 {
		limit = DefaultMovementLimit
	}
	query := `SELECT m.movimiento_id, m.producto_id, p.nombre AS producto_nombre, m.tipo,
            m.cantidad, m.stock_resultante, m.referencia_id, m.fecha
        FROM movimientos_stock m
        JOIN productos p ON p.producto_id = m.producto_id`
	args := []any{}
	if productID > 0 {
		query += ` WHERE m.producto_id = ?`
		args = append(args, productID)
	}
	query += ` ORDER BY m.movimiento_id DESC LIMIT ?`
	args = append(args, limit)

	out := []domain.StockMovement{}
	if err := s.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("reports: stock movements: %w", err)
	}
	return out, nil
}
