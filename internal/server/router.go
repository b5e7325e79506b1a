package server

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/vastralaya/storefront/internal/auth"
	"github.com/vastralaya/storefront/internal/config"
	"github.com/vastralaya/storefront/internal/handlers"
	"github.com/vastralaya/storefront/internal/httpx"
	"github.com/vastralaya/storefront/internal/middleware"
	"github.com/vastralaya/storefront/internal/models"
	"github.com/vastralaya/storefront/internal/services"
)

// New constructs the root http.Handler with all routes and middlewares applied.
func New(db *gorm.DB, cfg config.Config) http.Handler {
	mux := http.NewServeMux()

	// Configure a verifier so RequireCustomer can ensure the account still exists.
	auth.SetCustomerVerifier(func(_ context.Context, id uint) bool {
		var count int64
		if err := db.Model(&models.Customer{}).Where("id = ?", id).Limit(1).Count(&count).Error; err != nil {
			return false
		}
		return count > 0
	})

	// --- Health endpoints ---
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		// Lightweight DB check, no error detail in the body.
		if err := db.Exec("SELECT 1").Error; err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"degraded"}`))
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Customer auth endpoints
	authHandler := handlers.NewAuthHandler(db)
	authHandler.Register(mux)

	// Catalog. Reads are public, writes live under /retailer/.
	ph := handlers.NewProductHandler(db)
	mux.Handle("/products", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", "GET")
			httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
			return
		}
		ph.List(w, r)
	}))
	mux.Handle("/retailer/products", auth.RequireRetailer(http.HandlerFunc(ph.Create)))
	mux.Handle("/retailer/products/update", auth.RequireRetailer(http.HandlerFunc(ph.Update)))
	mux.Handle("/retailer/products/delete", auth.RequireRetailer(http.HandlerFunc(ph.Delete)))

	// Cart endpoints (customer session)
	ch := handlers.NewCartHandler(db)
	mux.Handle("/cart", customer(ch.Handle))
	mux.Handle("/cart/update", customer(ch.Update))
	mux.Handle("/cart/remove", customer(ch.Remove))

	// Orders
	checkout := services.NewCheckoutService(db)
	oh := handlers.NewOrderHandler(db, checkout)
	mux.Handle("/orders", customer(oh.Handle))

	// Profile and addresses
	prof := handlers.NewProfileHandler(db)
	mux.Handle("/profile", customer(prof.Handle))
	mux.Handle("/profile/addresses", customer(prof.Addresses))
	mux.Handle("/profile/addresses/update", customer(prof.UpdateAddress))
	mux.Handle("/profile/addresses/delete", customer(prof.DeleteAddress))

	// Retailer portal
	stats := services.NewStatsService(db)
	rh := handlers.NewRetailerHandler(db, checkout, stats)
	mux.HandleFunc("/retailer/login", rh.Login)
	mux.Handle("/retailer/orders", auth.RequireRetailer(http.HandlerFunc(rh.Orders)))
	mux.Handle("/retailer/orders/update", auth.RequireRetailer(http.HandlerFunc(rh.UpdateOrder)))
	mux.Handle("/retailer/stats", auth.RequireRetailer(http.HandlerFunc(rh.DashboardStats)))

	// Uploads. The handler does its own auth check since either a
	// customer session or a retailer token is acceptable.
	uh := handlers.NewUploadHandler(cfg.UploadDir, cfg.PublicBaseURL)
	mux.HandleFunc("/upload", uh.Upload)
	mux.Handle("/uploads/", uh.Serve())

	limiter := middleware.NewRateLimiter(rate.Limit(20), 40, 3*time.Minute)

	var h http.Handler = mux
	h = auth.Middleware(h)
	h = limiter.Middleware(h)
	h = middleware.Logging(h)
	h = middleware.Recover(h)
	h = httpx.CORS(h)
	return h
}

func customer(f http.HandlerFunc) http.Handler {
	return auth.RequireCustomer(f)
}
