package api

import (
	"log/slog"
	"net/http"

	"github.com/fastprodman/coinmarket/internal/repos/users"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter constructs the chi router with all API endpoints registered.
func NewRouter(d Deps) http.Handler {
	h := NewHandler(d)

	log := d.Logger
	if log == nil {
		log = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/user", h.Register)
		r.Post("/login", h.Login)
		r.Get("/products", h.ListProducts)
		r.Get("/products/{productId}", h.GetProduct)

		r.Group(func(r chi.Router) {
			r.Use(h.authenticate)

			r.Get("/user", h.CurrentUser)
			r.Put("/user", h.UpdateUser)
			r.Put("/change-password", h.ChangePassword)

			r.With(requireRole(users.RoleSeller)).Post("/products", h.CreateProduct)
			r.Put("/products/{productId}", h.UpdateProduct)
			r.Delete("/products/{productId}", h.DeleteProduct)

			r.Group(func(r chi.Router) {
				r.Use(requireRole(users.RoleBuyer))

				r.With(h.idempotent("deposit")).Post("/deposit", h.Deposit)
				r.Post("/reset", h.Reset)
				r.With(h.idempotent("buy")).Post("/buy", h.Buy)
				r.Get("/purchases", h.Purchases)
			})
		})
	})

	return r
}
