package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Auth     *AuthHandler
	Cart     *CartHandler
	Checkout *CheckoutHandler
	Catalog  *CatalogHandler
	Address  *AddressHandler
	Orders   *OrdersHandler
	Admin    *AdminHandler
}

// NewRouter wires the public storefront, the authenticated customer surface
// and the role-gated back office.
func NewRouter(h Handlers, auth Authenticator, gate AdminGate, requestTimeout time.Duration) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(SessionAuth(auth))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", h.Auth.SignUp)
			r.Post("/signin", h.Auth.SignIn)
			r.Post("/signout", h.Auth.SignOut)
			r.Get("/me", h.Auth.Me)
		})

		// Public catalog.
		r.Get("/products", h.Catalog.ListProducts)
		r.Get("/products/{product_id}", h.Catalog.GetProduct)
		r.Get("/categories", h.Catalog.ListCategories)

		// Customer surface.
		r.Group(func(r chi.Router) {
			r.Use(RequireUser)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", h.Cart.GetCart)
				r.Delete("/", h.Cart.ClearCart)
				r.Post("/items", h.Cart.AddLine)
				r.Post("/items/{product_id}/{variant_id}/increase", h.Cart.Increase)
				r.Post("/items/{product_id}/{variant_id}/decrease", h.Cart.Decrease)
				r.Delete("/items/{product_id}/{variant_id}", h.Cart.RemoveLine)
			})

			r.Route("/checkout", func(r chi.Router) {
				r.Post("/", h.Checkout.Begin)
				r.Get("/quote", h.Checkout.Quote)
				r.Get("/{session_id}", h.Checkout.Get)
				r.Post("/{session_id}/continue", h.Checkout.Continue)
				r.Post("/{session_id}/back", h.Checkout.Back)
				r.Put("/{session_id}/address", h.Checkout.SelectAddress)
				r.Post("/{session_id}/order", h.Checkout.PlaceOrder)
			})

			r.Route("/addresses", func(r chi.Router) {
				r.Get("/", h.Address.List)
				r.Post("/", h.Address.Create)
				r.Get("/{address_id}", h.Address.Get)
				r.Put("/{address_id}", h.Address.Update)
				r.Delete("/{address_id}", h.Address.Delete)
				r.Put("/{address_id}/primary", h.Address.SetPrimary)
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", h.Orders.List)
				r.Get("/{order_id}", h.Orders.Get)
			})
		})

		// Back office.
		r.Route("/admin", func(r chi.Router) {
			r.Use(RequireUser)
			r.Use(RequireAdmin(gate))

			r.Get("/dashboard", h.Admin.Dashboard)
			r.Post("/admins", h.Admin.MakeAdmin)
			r.Post("/images", h.Admin.UploadImage)
			r.Delete("/images", h.Admin.RemoveImage)
			r.Put("/orders/{order_id}/status", h.Admin.UpdateOrderStatus)

			r.Post("/products", h.Catalog.CreateProduct)
			r.Put("/products/{product_id}", h.Catalog.UpdateProduct)
			r.Delete("/products/{product_id}", h.Catalog.DeleteProduct)
			r.Post("/products/{product_id}/variants", h.Catalog.CreateVariant)
			r.Put("/variants/{variant_id}/stock", h.Catalog.UpdateVariantStock)
			r.Delete("/variants/{variant_id}", h.Catalog.DeleteVariant)
			r.Post("/categories", h.Catalog.CreateCategory)
			r.Delete("/categories/{category_id}", h.Catalog.DeleteCategory)
		})
	})

	return otelhttp.NewHandler(r, "yarnbykrosh")
}
