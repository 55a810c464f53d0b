package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"libreriapos/m/internal/auth"
	"libreriapos/m/internal/catalog"
	"libreriapos/m/internal/customers"
	"libreriapos/m/internal/pos"
	"libreriapos/m/internal/sales"
)

var errForbidden = errors.New("insufficient permissions")

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	var stockErr *pos.StockError
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &stockErr),
		errors.Is(err, pos.ErrInsufficientStock),
		errors.Is(err, pos.ErrOutOfStock),
		errors.Is(err, catalog.ErrDuplicateCode),
		errors.Is(err, catalog.ErrDuplicateCategory):
		return http.StatusConflict
	case errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, customers.ErrNotFound),
		errors.Is(err, sales.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errForbidden),
		errors.Is(err, pos.ErrDiscountNotAllowed),
		errors.Is(err, customers.ErrWalkInLocked):
		return http.StatusForbidden
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.As(err, &verrs),
		errors.Is(err, pos.ErrEmptyCart),
		errors.Is(err, pos.ErrItemNotFound),
		errors.Is(err, pos.ErrProductInactive),
		errors.Is(err, pos.ErrInsufficientPayment),
		errors.Is(err, pos.ErrInvalidPaymentMethod),
		errors.Is(err, pos.ErrInvalidOperator),
		errors.Is(err, catalog.ErrInvalidStock),
		errors.Is(err, catalog.ErrInvalidPrice),
		errors.Is(err, catalog.ErrNameRequired),
		errors.Is(err, catalog.ErrInvalidCode),
		errors.Is(err, catalog.ErrCategoryNotFound),
		errors.Is(err, catalog.ErrCategoryNameRequired),
		errors.Is(err, customers.ErrNameRequired),
		errors.Is(err, auth.ErrPasswordRequired):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err with its mapped status. Internal errors are logged and
// replaced by a generic message.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.Logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("error", err))
		respondError(w, status, "internal error")
		return
	}
	respondError(w, status, err.Error())
}

func (h *Handler) requireRole(w http.ResponseWriter, r *http.Request, allowed ...string) bool {
	op, ok := auth.OperatorFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "missing role")
		return false
	}
	for _, role := range allowed {
		if op.Role == role {
			return true
		}
	}
	respondError(w, http.StatusForbidden, errForbidden.Error())
	return false
}

func (h *Handler) operator(r *http.Request) auth.Operator {
	op, _ := auth.OperatorFrom(r.Context())
	return op
}

// decodeValid decodes the body into dest and runs its validate tags.
func (h *Handler) decodeValid(r *http.Request, dest any) error {
	if err := decodeJSON(r, dest); err != nil {
		return err
	}
	return h.validate.Struct(dest)
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

func queryInt(r *http.Request, key string) int {
	n, err := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get(key)))
	if err != nil {
		return 0
	}
	return n
}

func decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	_ = encoder.Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
