package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"libreriapos/m/domain"
)

var (
	ErrCategoryNameRequired = errors.New("category name is required")
	ErrDuplicateCategory    = errors.New("category already exists")
)

const categoryColumns = `categoria_id, nombre, descripcion, activo, fecha_creacion`

// CategoryInput carries the fields of a new category.
type CategoryInput struct {
	Name        string  `json:"nombre" validate:"required,max=100"`
	Description *string `json:"descripcion" validate:"omitempty,max=300"`
}

// ListCategories returns active categories ordered by name.
func (s *Service) ListCategories(ctx context.Context) ([]domain.Category, error) {
	categories := []domain.Category{}
	err := s.db.SelectContext(ctx, &categories, `SELECT `+categoryColumns+` FROM categorias WHERE activo = 1 ORDER BY nombre`)
	if err != nil {
		return nil, fmt.Errorf("catalog: list categories: %w", err)
	}
	return categories, nil
}

func (s *Service) CreateCategory(ctx context.Context, in CategoryInput) (domain.Category, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.Category{}, ErrCategoryNameRequired
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO categorias (nombre, descripcion) VALUES (?, ?)`, name, nullIfBlank(in.Description))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return domain.Category{}, ErrDuplicateCategory
		}
		return domain.Category{}, fmt.Errorf("catalog: create category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Category{}, fmt.Errorf("catalog: create category: %w", err)
	}
	var c domain.Category
	if err := s.db.GetContext(ctx, &c, `SELECT `+categoryColumns+` FROM categorias WHERE categoria_id = ?`, id); err != nil {
		return domain.Category{}, fmt.Errorf("catalog: load category %d: %w", id, err)
	}
	return c, nil
}

// EnsureCategory returns the id of the category called name, creating it
// when missing. Names compare case-insensitively. It runs on q so imports can
// call it inside their own transaction.
func EnsureCategory(ctx context.Context, q sqlx.ExtContext, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, ErrCategoryNameRequired
	}
	var id int64
	err := sqlx.GetContext(ctx, q, &id, `SELECT categoria_id FROM categorias WHERE nombre = ?`, name)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("catalog: find category %q: %w", name, err)
	}
	res, err := q.ExecContext(ctx, `INSERT INTO categorias (nombre) VALUES (?)`, name)
	if err != nil {
		return 0, fmt.Errorf("catalog: create category %q: %w", name, err)
	}
	return res.LastInsertId()
}
