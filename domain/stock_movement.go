package domain

const (
	MovementSale       = "venta"
	MovementAdjustment = "ajuste"
	MovementImport     = "importacion"
)

type StockMovement struct {
	ID          int64  `db:"movimiento_id" json:"movimiento_id"`
	ProductID   int64  `db:"producto_id" json:"producto_id"`
	ProductName string `db:"producto_nombre" json:"producto_nombre"`
	Kind        string `db:"tipo" json:"tipo"`
	Quantity    int64  `db:"cantidad" json:"cantidad"`
	StockAfter  int64  `db:"stock_resultante" json:"stock_resultante"`
	Reference   *int64 `db:"referencia_id" json:"referencia_id,omitempty"`
	CreatedAt   string `db:"fecha" json:"fecha"`
}
