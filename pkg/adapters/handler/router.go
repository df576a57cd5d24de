package handler

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wadjakorntonsri/go-qr-platform/pkg/config"
	"github.com/wadjakorntonsri/go-qr-platform/pkg/ports"
)

// Services groups the application services the router dispatches to.
type Services struct {
	QRCodes ports.QRCodeService
	Scans   ports.ScanService
	Users   ports.UserService
	Admin   ports.AdminService
}

// NewRouter creates and configures the main application router
func NewRouter(cfg *config.Config, svc Services, logger *slog.Logger) http.Handler {
	h := NewHTTPHandler(svc.QRCodes, svc.Users, logger)
	sh := NewScanHandler(svc.Scans, logger)
	ah := NewAdminHandler(svc.Admin, logger)
	authHandler := NewAuthHandler(cfg, svc.Users, logger)
	mw := NewMiddleware(cfg, svc.Users, logger)

	mux := http.NewServeMux()

	// Public Routes
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
	})
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /scan/{id}", sh.Scan)
	mux.HandleFunc("GET /auth/google/login", authHandler.Login)
	mux.HandleFunc("GET /auth/google/callback", authHandler.Callback)
	mux.HandleFunc("GET /auth/logout", authHandler.Logout)

	// Protected Routes
	protected := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, mw.AuthMiddleware(fn))
	}
	protected("GET /api/v1/me", h.Me)
	protected("GET /api/v1/qr", h.List)
	protected("POST /api/v1/qr", h.Create)
	protected("GET /api/v1/qr/{id}", h.Get)
	protected("PATCH /api/v1/qr/{id}", h.Update)
	protected("DELETE /api/v1/qr/{id}", h.Delete)
	protected("POST /api/v1/qr/{id}/pause", h.Pause)
	protected("POST /api/v1/qr/{id}/archive", h.Archive)
	protected("GET /api/v1/qr/{id}/analytics", h.Analytics)

	// Admin Routes
	admin := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, mw.AuthMiddleware(mw.RequireAdmin(fn)))
	}
	admin("GET /api/v1/admin/users", ah.ListUsers)
	admin("PATCH /api/v1/admin/users/{id}", ah.UpdateUser)
	admin("GET /api/v1/admin/qr", ah.ListQRCodes)

	cors := []handlers.CORSOption{
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	}
	if !allowsAnyOrigin(cfg.AllowedOrigins) {
		cors = append(cors, handlers.AllowCredentials())
	}

	return MetricsMiddleware()(RequestLogger(logger)(handlers.CORS(cors...)(mux)))
}

func allowsAnyOrigin(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return len(origins) == 0
}
