package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	custommiddleware "github.com/mmeshcher/fashion-store/internal/middleware"
	"github.com/mmeshcher/fashion-store/internal/telemetry"
)

// SetupRouter настраивает HTTP-маршруты и middleware магазина.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(telemetry.Middleware(h.serviceName, "/health"))
	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)

			r.Group(func(r chi.Router) {
				r.Use(h.authMiddleware.Middleware)

				r.Get("/me", h.Me)
				r.Put("/profile", h.UpdateProfile)
				r.Put("/password", h.ChangePassword)
			})
		})

		r.With(h.authMiddleware.Middleware, custommiddleware.RequireAdmin).Get("/users", h.ListUsers)

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", h.ListCategories)
			r.Get("/{slug}", h.GetCategory)

			r.Group(func(r chi.Router) {
				r.Use(h.authMiddleware.Middleware, custommiddleware.RequireAdmin)

				r.Post("/", h.CreateCategory)
				r.Put("/{id}", h.UpdateCategory)
				r.Delete("/{id}", h.DeleteCategory)
			})
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.ListProducts)
			r.Get("/{idOrSlug}", h.GetProduct)

			r.Group(func(r chi.Router) {
				r.Use(h.authMiddleware.Middleware, custommiddleware.RequireAdmin)

				r.Post("/", h.CreateProduct)
				r.Put("/{id}", h.UpdateProduct)
				r.Delete("/{id}", h.DeleteProduct)
			})
		})

		r.Route("/cart", func(r chi.Router) {
			r.Use(h.authMiddleware.Middleware)

			r.Get("/", h.GetCart)
			r.Post("/", h.AddToCart)
			r.Delete("/", h.ClearCart)
			r.Put("/{id}", h.UpdateCartItem)
			r.Delete("/{id}", h.RemoveCartItem)
		})

		r.Route("/wishlist", func(r chi.Router) {
			r.Use(h.authMiddleware.Middleware)

			r.Get("/", h.ListWishlist)
			r.Post("/", h.AddToWishlist)
			r.Delete("/{productId}", h.RemoveFromWishlist)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(h.authMiddleware.Middleware)

			r.Post("/", h.PlaceOrder)
			r.Get("/", h.ListMyOrders)

			r.Group(func(r chi.Router) {
				r.Use(custommiddleware.RequireAdmin)

				r.Get("/admin/all", h.ListAllOrders)
				r.Put("/{id}/status", h.UpdateOrderStatus)
			})

			r.Get("/{id}", h.GetOrder)
		})

		r.Route("/coupons", func(r chi.Router) {
			r.Get("/", h.ListActiveCoupons)

			r.Group(func(r chi.Router) {
				r.Use(h.authMiddleware.Middleware, custommiddleware.RequireAdmin)

				r.Get("/admin/all", h.ListCoupons)
				r.Post("/", h.CreateCoupon)
				r.Put("/{id}", h.UpdateCoupon)
				r.Delete("/{id}", h.DeleteCoupon)
			})

			r.Get("/{code}", h.ValidateCoupon)
		})

		r.Route("/addresses", func(r chi.Router) {
			r.Use(h.authMiddleware.Middleware)

			r.Get("/", h.ListAddresses)
			r.Post("/", h.CreateAddress)
			r.Put("/{id}", h.UpdateAddress)
			r.Delete("/{id}", h.DeleteAddress)
			r.Patch("/{id}/default", h.SetDefaultAddress)
		})

		r.Route("/banners", func(r chi.Router) {
			r.Get("/", h.ListBanners)

			r.Group(func(r chi.Router) {
				r.Use(h.authMiddleware.Middleware, custommiddleware.RequireAdmin)

				r.Get("/admin/all", h.ListAllBanners)
				r.Post("/", h.CreateBanner)
				r.Put("/{id}", h.UpdateBanner)
				r.Delete("/{id}", h.DeleteBanner)
			})
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", h.GetSettings)
			r.With(h.authMiddleware.Middleware, custommiddleware.RequireAdmin).Put("/", h.UpdateSettings)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Use(h.authMiddleware.Middleware)

			r.Get("/", h.ListNotifications)
			r.Patch("/read-all", h.MarkAllNotificationsRead)
			r.Patch("/{id}/read", h.MarkNotificationRead)
			r.Delete("/{id}", h.DeleteNotification)
			r.With(custommiddleware.RequireAdmin).Post("/", h.SendNotification)
		})

		r.Route("/newsletter", func(r chi.Router) {
			r.Post("/subscribe", h.Subscribe)
			r.Post("/unsubscribe", h.Unsubscribe)

			r.Group(func(r chi.Router) {
				r.Use(h.authMiddleware.Middleware, custommiddleware.RequireAdmin)

				r.Get("/subscribers", h.ListSubscribers)
				r.Post("/send", h.SendNewsletter)
			})
		})

		r.With(h.authMiddleware.Middleware, custommiddleware.RequireAdmin).Post("/upload", h.UploadImage)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusNotFound, "route not found")
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed))
	})

	return r
}
