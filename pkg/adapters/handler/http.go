package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/wadjakorntonsri/go-qr-platform/pkg/core/domain"
	"github.com/wadjakorntonsri/go-qr-platform/pkg/ports"
)

type HTTPHandler struct {
	service ports.QRCodeService
	users   ports.UserService
	logger  *slog.Logger
}

func NewHTTPHandler(service ports.QRCodeService, users ports.UserService, logger *slog.Logger) *HTTPHandler {
	return &HTTPHandler{service: service, users: users, logger: logger}
}

// caller returns the authenticated identity. Routes using it sit behind AuthMiddleware.
func caller(w http.ResponseWriter, r *http.Request) (domain.Identity, bool) {
	id, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, CodeUnauthorized, "authentication required")
	}
	return id, ok
}

// List QR codes of the caller. ?status=active|paused|archived|all
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}

	qrs, err := h.service.List(r.Context(), id.UserID, r.URL.Query().Get("status"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":  qrs,
		"total": len(qrs),
	})
}

// Create QR code
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}

	var req ports.CreateQRCodeInput
	if !decodeBody(w, r, &req) {
		return
	}

	qr, err := h.service.Create(r.Context(), id.UserID, req)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, qr)
}

func (h *HTTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}

	qr, err := h.service.Get(r.Context(), id.UserID, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, qr)
}

// Update applies a partial update, status changes included.
func (h *HTTPHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}

	var req ports.UpdateQRCodeInput
	if !decodeBody(w, r, &req) {
		return
	}

	qr, err := h.service.Update(r.Context(), id.UserID, r.PathValue("id"), req)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, qr)
}

func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id.UserID, r.PathValue("id")); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "qr code deleted"})
}

func (h *HTTPHandler) Pause(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}

	qr, err := h.service.Pause(r.Context(), id.UserID, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, qr)
}

func (h *HTTPHandler) Archive(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}

	qr, err := h.service.Archive(r.Context(), id.UserID, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, qr)
}

// Analytics returns the scan series. ?period=day|week|month&from=RFC3339&to=RFC3339
func (h *HTTPHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	period, err := domain.ParsePeriod(q.Get("period"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	from, err := parseTimeParam(q.Get("from"), "from")
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	to, err := parseTimeParam(q.Get("to"), "to")
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	summary, err := h.service.Analytics(r.Context(), id.UserID, r.PathValue("id"), period, from, to)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// Me returns the account of the caller.
func (h *HTTPHandler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}

	user, err := h.users.GetUser(r.Context(), id.UserID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func parseTimeParam(v, field string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, domain.NewValidationError(field, "must be an RFC 3339 timestamp")
	}
	return &t, nil
}
