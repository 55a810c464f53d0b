package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/unrolled/secure"

	"libreriapos/m/internal/auth"
	"libreriapos/m/internal/backup"
	"libreriapos/m/internal/catalog"
	"libreriapos/m/internal/customers"
	"libreriapos/m/internal/pos"
	"libreriapos/m/internal/reports"
	"libreriapos/m/internal/sales"
)

// loginLimit caps login attempts per client IP per minute.
const loginLimit = 10

// Deps are the services the API is built on.
type Deps struct {
	Auth      *auth.Service
	Catalog   *catalog.Service
	Customers *customers.Service
	Sales     *sales.Repository
	Reports   *reports.Service
	Backups   *backup.Manager
	Engine    *pos.Engine

	Logger      *slog.Logger
	CORSOrigins []string
	Production  bool
}

// Handler bundles dependencies for HTTP handlers.
type Handler struct {
	Deps
	validate *validator.Validate
}

// New constructs a Handler.
func New(deps Deps) *Handler {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Handler{Deps: deps, validate: validator.New()}
}

// Router wires up the HTTP API.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(h.secureHeaders())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", h.health)

	r.Route("/auth", func(r chi.Router) {
		r.With(httprate.Limit(loginLimit, time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				respondError(w, http.StatusTooManyRequests, "too many login attempts")
			}),
		)).Post("/login", h.login)
		r.Group(func(protected chi.Router) {
			protected.Use(h.Auth.Middleware(respondError))
			protected.Post("/reset-password", h.resetPassword)
		})
	})

	r.Group(func(pr chi.Router) {
		pr.Use(h.Auth.Middleware(respondError))

		pr.Route("/products", func(r chi.Router) {
			r.Get("/", h.searchProducts)
			r.Post("/", h.createProduct)
			r.Get("/{id}", h.getProduct)
			r.Put("/{id}", h.updateProduct)
			r.Delete("/{id}", h.deleteProduct)
			r.Post("/{id}/stock", h.adjustStock)
		})

		pr.Route("/categories", func(r chi.Router) {
			r.Get("/", h.listCategories)
			r.Post("/", h.createCategory)
		})

		pr.Route("/customers", func(r chi.Router) {
			r.Get("/", h.searchCustomers)
			r.Post("/", h.createCustomer)
			r.Get("/{id}", h.getCustomer)
			r.Put("/{id}", h.updateCustomer)
			r.Delete("/{id}", h.deleteCustomer)
		})

		pr.Route("/sales", func(r chi.Router) {
			r.Post("/quote", h.quoteSale)
			r.Post("/", h.createSale)
			r.Get("/", h.salesReport)
			r.Get("/today", h.todaySales)
			r.Get("/{id}", h.getSale)
		})

		pr.Route("/reports", func(r chi.Router) {
			r.Get("/stats", h.stats)
			r.Get("/top-products", h.topProducts)
			r.Get("/daily", h.dailySummary)
			r.Get("/low-stock", h.lowStock)
			r.Get("/stock-movements", h.stockMovements)
		})

		pr.Get("/users", h.listUsers)

		pr.Route("/backups", func(r chi.Router) {
			r.Get("/", h.listBackups)
			r.Post("/", h.createBackup)
		})
	})

	return r
}

func (h *Handler) secureHeaders() func(http.Handler) http.Handler {
	sm := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		IsDevelopment:      !h.Production,
	})
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := sm.Process(w, r); err != nil {
				h.Logger.Warn("secure headers blocked request", slog.Any("error", err))
				respondError(w, http.StatusBadRequest, "request blocked")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
