package handler

import (
	"log/slog"
	"net/http"

	"github.com/wadjakorntonsri/go-qr-platform/pkg/core/domain"
	"github.com/wadjakorntonsri/go-qr-platform/pkg/ports"
)

type AdminHandler struct {
	service ports.AdminService
	logger  *slog.Logger
}

func NewAdminHandler(service ports.AdminService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{service: service, logger: logger}
}

type UpdateUserRequest struct {
	QRCodeLimit *int `json:"qrCodeLimit"`
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":  users,
		"total": len(users),
	})
}

func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req UpdateUserRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.QRCodeLimit == nil {
		writeServiceError(w, r, h.logger, domain.NewValidationError("qrCodeLimit", "is required"))
		return
	}

	user, err := h.service.UpdateUserLimit(r.Context(), r.PathValue("id"), *req.QRCodeLimit)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// ListQRCodes lists codes of every owner. ?status=active|paused|archived|all
func (h *AdminHandler) ListQRCodes(w http.ResponseWriter, r *http.Request) {
	qrs, err := h.service.ListQRCodes(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":  qrs,
		"total": len(qrs),
	})
}
