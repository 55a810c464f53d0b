// Package auth checks operator credentials and issues the bearer tokens the
// API uses to identify who rings up a sale.
package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"libreriapos/m/domain"
)

const TokenTTL = 24 * time.Hour

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrPasswordRequired   = errors.New("password is required")
)

// Claims is the JWT payload.
type Claims struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type Service struct {
	db     *sqlx.DB
	secret []byte
	logger *slog.Logger
	now    func() time.Time
}

func NewService(db *sqlx.DB, secret string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: db, secret: []byte(secret), logger: logger, now: time.Now}
}

// Authenticate returns the active user matching username and password.
// The password hash is cleared on the returned value.
func (s *Service) Authenticate(ctx context.Context, username, password string) (domain.User, error) {
	var user domain.User
	err := s.db.GetContext(ctx, &user, `SELECT usuario_id, username, password_hash, nombre_completo, rol, activo, fecha_creacion
        FROM usuarios WHERE username = ? AND activo = 1`, strings.TrimSpace(username))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("auth: load user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return domain.User{}, ErrInvalidCredentials
	}
	user.Password = ""
	return user, nil
}

// EnsureAdmin creates the first administrator when no users exist yet.
func (s *Service) EnsureAdmin(ctx context.Context, username, password string) error {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM usuarios`); err != nil {
		return fmt.Errorf("auth: count users: %w", err)
	}
	if n > 0 {
		return nil
	}
	if password == "" {
		return ErrPasswordRequired
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("auth: hash password: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `INSERT INTO usuarios (username, password_hash, nombre_completo, rol)
        VALUES (?, ?, ?, ?)`, username, string(hashed), "Administrador", domain.RoleAdmin); err != nil {
		return fmt.Errorf("auth: create admin: %w", err)
	}
	s.logger.Warn("default administrator created", slog.String("username", username))
	return nil
}

// ChangePassword replaces the password of userID.
func (s *Service) ChangePassword(ctx context.Context, userID int64, password string) error {
	if password == "" {
		return ErrPasswordRequired
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("auth: hash password: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `UPDATE usuarios SET password_hash = ? WHERE usuario_id = ? AND activo = 1`, string(hashed), userID)
	if err != nil {
		return fmt.Errorf("auth: update password: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrInvalidCredentials
	}
	return nil
}

// ListUsers returns every user ordered by full name. Password hashes are
// never selected.
func (s *Service) ListUsers(ctx context.Context) ([]domain.User, error) {
	users := []domain.User{}
	err := s.db.SelectContext(ctx, &users, `SELECT usuario_id, username, nombre_completo, rol, activo, fecha_creacion
        FROM usuarios ORDER BY nombre_completo, username`)
	if err != nil {
		return nil, fmt.Errorf("auth: list users: %w", err)
	}
	return users, nil
}

// activeRole returns the current role of an active user.
func (s *Service) activeRole(ctx context.Context, userID int64) (string, error) {
	var role string
	err := s.db.GetContext(ctx, &role, `SELECT rol FROM usuarios WHERE usuario_id = ? AND activo = 1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrInvalidToken
	}
	if err != nil {
		return "", fmt.Errorf("auth: load user %d: %w", userID, err)
	}
	return role, nil
}

// IssueToken signs an HS256 token for user valid for TokenTTL.
func (s *Service) IssueToken(user domain.User) (string, error) {
	now := s.now()
	claims := Claims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// ParseToken validates a signed token and returns its claims.
func (s *Service) ParseToken(raw string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || claims.UserID <= 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
