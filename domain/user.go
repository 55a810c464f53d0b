package domain

const (
	RoleAdmin   = "admin"
	RoleCashier = "cajero"
)

type User struct {
	ID        int64  `json:"usuario_id" db:"usuario_id"`
	Username  string `json:"username" db:"username"`
	Password  string `json:"password,omitempty" db:"password_hash"`
	FullName  string `json:"nombre_completo" db:"nombre_completo"`
	Role      string `json:"rol" db:"rol"`
	Active    bool   `json:"activo" db:"activo"`
	CreatedAt string `json:"fecha_creacion,omitempty" db:"fecha_creacion"`
}
