package handler

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/akallepalli/assignment-service/internal/service"
)

// HealthHandler serves /healthz. Every branch answers with an empty body and
// no-cache headers.
type HealthHandler struct {
	service *service.HealthService
	logger  *slog.Logger
}

func NewHealthHandler(svc *service.HealthService, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{service: svc, logger: logger}
}

// HandleHealth probes the store.
//
// HTTP: GET /healthz (HEAD is answered the same way)
//
//	405  method is not GET or HEAD
//	400  request has a query string or a body
//	503  store did not answer within the timeout
//	200  otherwise
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	setNoCache(w)

	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if len(r.URL.Query()) > 0 {
		h.logger.Debug("health check rejected", slog.String("reason", "query string"))
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if hasBody(r) {
		h.logger.Debug("health check rejected", slog.String("reason", "request body"))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if err := h.service.Check(r.Context()); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// hasBody reports whether the request carries at least one body byte.
// Chunked requests have ContentLength -1, so a one-byte read settles it.
func hasBody(r *http.Request) bool {
	if r.ContentLength > 0 {
		return true
	}
	if r.Body == nil || r.Body == http.NoBody {
		return false
	}
	var b [1]byte
	n, _ := io.ReadFull(r.Body, b[:])
	return n > 0
}
