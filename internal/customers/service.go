// Package customers looks up and maintains the customer registry.
package customers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"libreriapos/m/domain"
	"libreriapos/m/internal/database"
)

var (
	ErrNotFound     = errors.New("customer not found")
	ErrWalkInLocked = errors.New("walk-in customer cannot be modified")
	ErrNameRequired = errors.New("customer name is required")
)

const (
	searchLimit   = 20
	minTermLength = 3
)

const customerColumns = `cliente_id, tipo_documento, num_documento, nombre_completo,
        email, telefono, direccion, activo, fecha_registro`

// CustomerInput carries the editable fields of a customer.
type CustomerInput struct {
	DocumentType string  `json:"tipo_documento" validate:"omitempty,oneof=DNI RUC CE PASAPORTE"`
	Document     *string `json:"num_documento" validate:"omitempty,max=20"`
	FullName     string  `json:"nombre_completo" validate:"required,max=200"`
	Email        *string `json:"email" validate:"omitempty,email"`
	Phone        *string `json:"telefono" validate:"omitempty,max=30"`
	Address      *string `json:"direccion" validate:"omitempty,max=300"`
}

type Service struct {
	db *sqlx.DB
}

func NewService(db *sqlx.DB) *Service {
	return &Service{db: db}
}

// WalkIn returns the fallback customer used when none is selected.
func (s *Service) WalkIn() domain.Customer {
	return domain.WalkIn()
}

// Search matches term against full name or document number among active
// customers. Terms shorter than three characters return no results.
func (s *Service) Search(ctx context.Context, term string) ([]domain.Customer, error) {
	term = strings.TrimSpace(term)
	customers := []domain.Customer{}
	if len([]rune(term)) < minTermLength {
		return customers, nil
	}
	like := database.ContainsPattern(strings.ToLower(term))
	err := s.db.SelectContext(ctx, &customers, `SELECT `+customerColumns+` FROM clientes
        WHERE activo = 1 AND (LOWER(nombre_completo) LIKE ? ESCAPE '\' OR LOWER(COALESCE(num_documento, '')) LIKE ? ESCAPE '\')
        ORDER BY nombre_completo LIMIT ?`, like, like, searchLimit)
	if err != nil {
		return nil, fmt.Errorf("customers: search %q: %w", term, err)
	}
	return customers, nil
}

// List returns active customers ordered by name.
func (s *Service) List(ctx context.Context) ([]domain.Customer, error) {
	customers := []domain.Customer{}
	if err := s.db.SelectContext(ctx, &customers, `SELECT `+customerColumns+` FROM clientes WHERE activo = 1 ORDER BY nombre_completo`); err != nil {
		return nil, fmt.Errorf("customers: list: %w", err)
	}
	return customers, nil
}

// Get loads an active customer. Id 0 resolves to the walk-in customer.
func (s *Service) Get(ctx context.Context, id int64) (domain.Customer, error) {
	if id <= 0 {
		return domain.WalkIn(), nil
	}
	var c domain.Customer
	err := s.db.GetContext(ctx, &c, `SELECT `+customerColumns+` FROM clientes WHERE cliente_id = ? AND activo = 1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		if id == domain.WalkInCustomerID {
			return domain.WalkIn(), nil
		}
		return domain.Customer{}, ErrNotFound
	}
	if err != nil {
		return domain.Customer{}, fmt.Errorf("customers: get %d: %w", id, err)
	}
	return c, nil
}

func (s *Service) Create(ctx context.Context, in CustomerInput) (domain.Customer, error) {
	if strings.TrimSpace(in.FullName) == "" {
		return domain.Customer{}, ErrNameRequired
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO clientes (
            tipo_documento, num_documento, nombre_completo, email, telefono, direccion
        ) VALUES (?, ?, ?, ?, ?, ?)`,
		documentType(in.DocumentType), in.Document, strings.TrimSpace(in.FullName), in.Email, in.Phone, in.Address)
	if err != nil {
		return domain.Customer{}, fmt.Errorf("customers: create: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Customer{}, fmt.Errorf("customers: create: %w", err)
	}
	return s.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, in CustomerInput) (domain.Customer, error) {
	if id == domain.WalkInCustomerID {
		return domain.Customer{}, ErrWalkInLocked
	}
	if strings.TrimSpace(in.FullName) == "" {
		return domain.Customer{}, ErrNameRequired
	}
	res, err := s.db.ExecContext(ctx, `UPDATE clientes SET
            nombre_completo = ?, num_documento = ?, tipo_documento = ?,
            email = ?, telefono = ?, direccion = ?
        WHERE cliente_id = ? AND activo = 1`,
		strings.TrimSpace(in.FullName), in.Document, documentType(in.DocumentType), in.Email, in.Phone, in.Address, id)
	if err != nil {
		return domain.Customer{}, fmt.Errorf("customers: update %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.Customer{}, ErrNotFound
	}
	return s.Get(ctx, id)
}

// Deactivate soft-deletes a customer. The walk-in customer is permanent.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	if id == domain.WalkInCustomerID {
		return ErrWalkInLocked
	}
	res, err := s.db.ExecContext(ctx, `UPDATE clientes SET activo = 0 WHERE cliente_id = ?`, id)
	if err != nil {
		return fmt.Errorf("customers: deactivate %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func documentType(v string) string {
	if v == "" {
		return "DNI"
	}
	return v
}
