package domain

// Category groups products for browsing and reports.
type Category struct {
	ID          int64   `db:"categoria_id" json:"categoria_id"`
	Name        string  `db:"nombre" json:"nombre"`
	Description *string `db:"descripcion" json:"descripcion,omitempty"`
	Active      bool    `db:"activo" json:"activo"`
	CreatedAt   string  `db:"fecha_creacion" json:"fecha_creacion"`
}
