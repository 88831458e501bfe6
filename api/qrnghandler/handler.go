package qrnghandler

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/ruteri/pqkd-client/api"
)

// Size caps per call, in bytes of randomness before encoding.
const (
	MaxStringSize = 256 * 1024
	MaxBytesSize  = 16 * 1024 * 1024
)

// Handler serves the QRNG API.
type Handler struct {
	source io.Reader
	log    *slog.Logger
}

// NewHandler creates a QRNG handler reading randomness from source, or from
// crypto/rand when source is nil.
func NewHandler(source io.Reader, log *slog.Logger) *Handler {
	if source == nil {
		source = rand.Reader
	}
	return &Handler{source: source, log: log}
}

// RegisterRoutes registers GET /qrng/{format}.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/qrng/{format}", h.HandleQrng)
}

// HandleQrng returns size bytes of randomness.
//
// URL format: GET /qrng/{hex|base64|bytes}?size=N
//
// Response: api.QrngResponse for hex and base64, raw
// application/octet-stream for bytes.
//
// Status codes:
//   - 200 OK
//   - 400 Bad Request: unknown format, missing or oversized size
func (h *Handler) HandleQrng(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")

	var maxSize uint64
	switch format {
	case "hex", "base64":
		maxSize = MaxStringSize
	case "bytes":
		maxSize = MaxBytesSize
	default:
		h.writeError(w, http.StatusBadRequest, fmt.Errorf("unsupported format %q", format))
		return
	}

	size, err := strconv.ParseUint(r.URL.Query().Get("size"), 10, 32)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid size: %w", err))
		return
	}
	if size > maxSize {
		h.writeError(w, http.StatusBadRequest, fmt.Errorf("size %d exceeds %d for %s", size, maxSize, format))
		return
	}

	data := make([]byte, size)
	if _, err := io.ReadFull(h.source, data); err != nil {
		h.log.Error("Failed to read randomness", "err", err)
		h.writeError(w, http.StatusInternalServerError, fmt.Errorf("randomness unavailable"))
		return
	}

	switch format {
	case "bytes":
		w.Header().Set("Content-Type", "application/octet-stream")
		w.WriteHeader(http.StatusOK)
		w.Write(data)
	case "hex":
		h.writeJSON(w, http.StatusOK, api.QrngResponse{Result: hex.EncodeToString(data)})
	case "base64":
		h.writeJSON(w, http.StatusOK, api.QrngResponse{Result: base64.StdEncoding.EncodeToString(data)})
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("Failed to encode response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	h.log.Debug("Rejecting QRNG request", "err", err, slog.Int("status", status))
	h.writeJSON(w, status, api.ErrorResponse{Message: err.Error()})
}
