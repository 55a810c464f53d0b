package domain

import "github.com/shopspring/decimal"

// DefaultMinStock is applied when a product is created without a threshold.
const DefaultMinStock = 5

type Product struct {
	ID          int64               `db:"producto_id" json:"producto_id"`
	Barcode     *string             `db:"codigo_barras" json:"codigo_barras,omitempty"`
	SKU         *string             `db:"sku" json:"sku,omitempty"`
	Name        string              `db:"nombre" json:"nombre"`
	Description *string             `db:"descripcion" json:"descripcion,omitempty"`
	Brand       *string             `db:"marca" json:"marca,omitempty"`
	CategoryID  *int64              `db:"categoria_id" json:"categoria_id,omitempty"`
	SalePrice   decimal.Decimal     `db:"precio_venta" json:"precio_venta"`
	CostPrice   decimal.NullDecimal `db:"precio_costo" json:"precio_costo"`
	Stock       int64               `db:"stock_actual" json:"stock_actual"`
	MinStock    int64               `db:"stock_minimo" json:"stock_minimo"`
	Active      bool                `db:"activo" json:"activo"`
	CreatedAt   string              `db:"fecha_creacion" json:"fecha_creacion"`
}

// LowStock reports whether the product is under its minimum threshold.
func (p Product) LowStock() bool {
	return p.Stock < p.MinStock
}
