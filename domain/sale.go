package domain

import "github.com/shopspring/decimal"

const (
	SaleStatusCompleted = "Completado"
	DocumentReceipt     = "Boleta"
)

// PaymentMethod is either cash or card.
type PaymentMethod string

const (
	PaymentCash PaymentMethod = "Efectivo"
	PaymentCard PaymentMethod = "Tarjeta"
)

// Valid reports whether m is a supported payment method.
func (m PaymentMethod) Valid() bool {
	return m == PaymentCash || m == PaymentCard
}

type Sale struct {
	ID            int64           `db:"venta_id" json:"venta_id"`
	ReceiptID     string          `db:"numero_comprobante" json:"numero_comprobante"`
	UserID        int64           `db:"usuario_id" json:"usuario_id"`
	CustomerID    int64           `db:"cliente_id" json:"cliente_id"`
	Subtotal      decimal.Decimal `db:"subtotal" json:"subtotal"`
	Tax           decimal.Decimal `db:"igv" json:"igv"`
	Total         decimal.Decimal `db:"total" json:"total"`
	Discount      decimal.Decimal `db:"descuento" json:"descuento"`
	DocumentType  string          `db:"tipo_documento" json:"tipo_documento"`
	PaymentMethod PaymentMethod   `db:"metodo_pago" json:"metodo_pago"`
	Tendered      decimal.Decimal `db:"monto_recibido" json:"monto_recibido"`
	Change        decimal.Decimal `db:"cambio" json:"cambio"`
	Notes         *string         `db:"notas" json:"notas,omitempty"`
	Status        string          `db:"estado" json:"estado"`
	CreatedAt     string          `db:"fecha_hora" json:"fecha_hora"`
}

type SaleDetail struct {
	ID          int64           `db:"detalle_id" json:"detalle_id"`
	SaleID      int64           `db:"venta_id" json:"venta_id"`
	ProductID   int64           `db:"producto_id" json:"producto_id"`
	ProductName string          `db:"producto_nombre" json:"producto_nombre"`
	Quantity    int64           `db:"cantidad" json:"cantidad"`
	UnitPrice   decimal.Decimal `db:"precio_unitario" json:"precio_unitario"`
	Discount    decimal.Decimal `db:"descuento" json:"descuento"`
	Subtotal    decimal.Decimal `db:"subtotal" json:"subtotal"`
}
