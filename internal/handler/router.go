package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	custommiddleware "github.com/mmeshcher/pedidos-system/internal/middleware"
)

func (h *Handler) corsOptions() cors.Options {
	options := cors.Options{
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With", "Cache-Control", "Pragma"},
		ExposedHeaders:   []string{"Content-Disposition", "Content-Length", "X-File-Size"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if h.opts.Env == "development" {
		options.AllowOriginFunc = func(_ *http.Request, _ string) bool { return true }
	} else {
		options.AllowedOrigins = h.opts.AllowedOrigins
	}
	return options
}

// SetupRouter настраивает HTTP-маршруты и middleware сервиса заказов.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	if h.opts.Env == "development" || len(h.opts.AllowedOrigins) > 0 {
		r.Use(cors.Handler(h.corsOptions()))
	}
	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	admin := chi.Chain(h.auth.Middleware, custommiddleware.RequireRole(custommiddleware.RoleAdmin))
	customer := chi.Chain(h.auth.Middleware,
		custommiddleware.RequireRole(custommiddleware.RoleAdmin, custommiddleware.RoleCustomer))

	r.Get("/health", h.Health)

	r.Route("/api/pedidos", func(r chi.Router) {
		r.Post("/", h.CreateOrder)
		r.Post("/{id}/comprobante", h.UploadReceipt)

		r.With(customer...).Get("/usuario/{usuarioId}", h.ListOrdersByUser)

		r.Group(func(r chi.Router) {
			r.Use(admin...)

			r.Get("/", h.ListOrders)
			r.Get("/reporte", h.OrdersInRange)
			r.Get("/dashboard", h.Dashboard)
			r.Get("/{id}", h.GetOrder)
			r.Put("/{id}/estado", h.UpdateOrderStatus)
		})
	})

	r.Route("/api/reportes", func(r chi.Router) {
		r.Use(admin...)

		r.Get("/", h.Report)
		r.Get("/exportar", h.ExportReport)
	})

	r.Route("/api/productos", func(r chi.Router) {
		r.Get("/", h.ListProducts)
		r.Get("/buscar", h.SearchProducts)
		r.Get("/mas-vendidos", h.TopSellingProducts)
		r.Get("/{id}", h.GetProduct)

		r.Group(func(r chi.Router) {
			r.Use(admin...)

			r.Get("/todos", h.ListAllProducts)
			r.Post("/", h.CreateProduct)
			r.Put("/{id}", h.UpdateProduct)
			r.Patch("/{id}/estado", h.SetProductActive)
			r.Post("/{id}/imagen", h.UploadProductImage)
			r.Delete("/{id}", h.DeleteProduct)
		})
	})

	r.Route("/api/categorias", func(r chi.Router) {
		r.Get("/", h.ListCategories)
		r.Get("/{id}/productos", h.ListCategoryProducts)

		r.Group(func(r chi.Router) {
			r.Use(admin...)

			r.Get("/todas", h.ListAllCategories)
			r.Post("/", h.CreateCategory)
			r.Put("/{id}", h.RenameCategory)
			r.Patch("/{id}/estado", h.ToggleCategory)
			r.Delete("/{id}", h.DeleteCategory)
		})
	})

	r.Route("/api/usuarios", func(r chi.Router) {
		r.With(admin...).Post("/", h.CreateUser)

		r.Group(func(r chi.Router) {
			r.Use(customer...)

			r.Get("/{id}", h.GetUser)
			r.Put("/{id}", h.UpdateUser)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
