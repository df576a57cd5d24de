package handler

import (
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/wadjakorntonsri/go-qr-platform/pkg/core/domain"
	"github.com/wadjakorntonsri/go-qr-platform/pkg/ports"
)

type ScanHandler struct {
	service ports.ScanService
	logger  *slog.Logger
}

func NewScanHandler(service ports.ScanService, logger *slog.Logger) *ScanHandler {
	return &ScanHandler{service: service, logger: logger}
}

// Scan redirects to the target of an active code. Every failure is a 404.
func (h *ScanHandler) Scan(w http.ResponseWriter, r *http.Request) {
	meta := domain.ScanMeta{
		UserAgent: r.UserAgent(),
		Referer:   r.Referer(),
		IPAddress: clientIP(r),
	}

	target, err := h.service.Resolve(r.Context(), r.PathValue("id"), meta)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			h.logger.ErrorContext(r.Context(), "scan lookup failed",
				slog.String("qr_id", r.PathValue("id")),
				slog.String("error", err.Error()),
			)
		}
		writeError(w, http.StatusNotFound, CodeNotFound, "qr code not found")
		return
	}

	// Targets change over time; clients must come back on every scan.
	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, target, http.StatusFound)
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
