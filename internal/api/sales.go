package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"libreriapos/m/domain"
	"libreriapos/m/internal/auth"
	"libreriapos/m/internal/catalog"
	"libreriapos/m/internal/pos"
	"libreriapos/m/internal/sales"
)

type saleItemRequest struct {
	ProductID int64           `json:"producto_id" validate:"required,gt=0"`
	Quantity  int64           `json:"cantidad" validate:"required,gt=0"`
	Discount  decimal.Decimal `json:"descuento"`
}

type saleRequest struct {
	Items           []saleItemRequest    `json:"items" validate:"required,min=1,dive"`
	CustomerID      int64                `json:"cliente_id" validate:"gte=0"`
	GeneralDiscount decimal.Decimal      `json:"descuento_general"`
	PaymentMethod   domain.PaymentMethod `json:"metodo_pago"`
	Tendered        decimal.Decimal      `json:"monto_recibido"`
	Notes           *string              `json:"notas" validate:"omitempty,max=500"`
}

type quoteResponse struct {
	Totals pos.Totals     `json:"totales"`
	Items  []pos.CartItem `json:"items"`
}

// buildCart replays a request onto a fresh cart against current catalog
// prices and stock. Repeated product ids are merged.
func (h *Handler) buildCart(ctx context.Context, req saleRequest, op auth.Operator) (*pos.Cart, error) {
	type wanted struct {
		qty      int64
		discount decimal.Decimal
	}
	var order []int64
	lines := make(map[int64]*wanted, len(req.Items))
	for _, it := range req.Items {
		w, ok := lines[it.ProductID]
		if !ok {
			w = &wanted{discount: decimal.Zero}
			lines[it.ProductID] = w
			order = append(order, it.ProductID)
		}
		w.qty += it.Quantity
		w.discount = w.discount.Add(it.Discount)
	}

	products, err := h.Catalog.Snapshot(ctx, order)
	if err != nil {
		return nil, err
	}

	cart := pos.NewCart()
	for _, id := range order {
		p, ok := products[id]
		if !ok {
			return nil, fmt.Errorf("product %d: %w", id, catalog.ErrNotFound)
		}
		if err := cart.AddProduct(p); err != nil {
			return nil, err
		}
		if err := cart.SetQuantity(id, lines[id].qty); err != nil {
			return nil, err
		}
		if !lines[id].discount.IsZero() {
			if err := cart.SetItemDiscount(id, lines[id].discount); err != nil {
				return nil, err
			}
		}
	}

	customer, err := h.Customers.Get(ctx, req.CustomerID)
	if err != nil {
		return nil, err
	}
	cart.SelectCustomer(customer)

	if req.GeneralDiscount.IsPositive() && !pos.CanApplyGeneralDiscount(op.Role) {
		return nil, pos.ErrDiscountNotAllowed
	}
	cart.SetGeneralDiscount(req.GeneralDiscount)

	method := req.PaymentMethod
	if method == "" {
		method = domain.PaymentCash
	}
	if err := cart.SetPayment(method, req.Tendered); err != nil {
		return nil, err
	}
	cart.SetNotes(req.Notes)
	return cart, nil
}

func (h *Handler) quoteSale(w http.ResponseWriter, r *http.Request) {
	var req saleRequest
	if err := h.decodeValid(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	cart, err := h.buildCart(r.Context(), req, h.operator(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, quoteResponse{Totals: h.Engine.Quote(cart), Items: cart.Items()})
}

func (h *Handler) createSale(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, domain.RoleAdmin, domain.RoleCashier) {
		return
	}
	var req saleRequest
	if err := h.decodeValid(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	op := h.operator(r)
	cart, err := h.buildCart(r.Context(), req, op)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	receipt, err := h.Engine.Checkout(r.Context(), cart, op.UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, receipt)
}

func (h *Handler) getSale(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	sale, err := h.Sales.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	items, err := h.Sales.Details(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, sales.Entry{Sale: sale, Items: items})
}

func (h *Handler) todaySales(w http.ResponseWriter, r *http.Request) {
	list, err := h.Sales.Today(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (h *Handler) salesReport(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, domain.RoleAdmin) {
		return
	}
	filter := struct {
		StartDate string `validate:"omitempty,datetime=2006-01-02"`
		EndDate   string `validate:"omitempty,datetime=2006-01-02"`
	}{
		StartDate: r.URL.Query().Get("start_date"),
		EndDate:   r.URL.Query().Get("end_date"),
	}
	if err := h.validate.Struct(filter); err != nil {
		respondError(w, http.StatusBadRequest, "start_date and end_date must be YYYY-MM-DD")
		return
	}
	entries, err := h.Sales.Report(r.Context(), sales.Filter{StartDate: filter.StartDate, EndDate: filter.EndDate})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, entries)
}
