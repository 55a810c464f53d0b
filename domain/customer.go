package domain

// WalkInCustomerID identifies the "Público General" customer seeded by the schema.
const WalkInCustomerID int64 = 1

type Customer struct {
	ID           int64   `db:"cliente_id" json:"cliente_id"`
	DocumentType string  `db:"tipo_documento" json:"tipo_documento"`
	Document     *string `db:"num_documento" json:"num_documento,omitempty"`
	FullName     string  `db:"nombre_completo" json:"nombre_completo"`
	Email        *string `db:"email" json:"email,omitempty"`
	Phone        *string `db:"telefono" json:"telefono,omitempty"`
	Address      *string `db:"direccion" json:"direccion,omitempty"`
	Active       bool    `db:"activo" json:"activo"`
	CreatedAt    string  `db:"fecha_registro" json:"fecha_registro"`
}

// WalkIn returns the sentinel used when no customer is selected.
func WalkIn() Customer {
	return Customer{ID: WalkInCustomerID, DocumentType: "DNI", FullName: "Público General", Active: true}
}
