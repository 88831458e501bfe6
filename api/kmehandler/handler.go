package kmehandler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ruteri/pqkd-client/api"
)

// maxBodySize is the maximum allowed request body size (1MB).
const maxBodySize = 1024 * 1024

// Config describes the simulated device. Zero limits are replaced with the
// values of DefaultConfig.
type Config struct {
	// SourceKMEID identifies this KME in status responses.
	SourceKMEID string

	// MasterSAEID is the SAE attached to this KME.
	MasterSAEID string

	DefaultKeySize   uint32
	MinKeySize       uint32
	MaxKeySize       uint32
	MaxKeyPerRequest uint32
	MaxSAEIDCount    uint32
}

// DefaultConfig matches the limits reported by production appliances.
var DefaultConfig = Config{
	SourceKMEID:      "Test_1KME",
	MasterSAEID:      "Test_1SAE",
	DefaultKeySize:   256,
	MinKeySize:       64,
	MaxKeySize:       4096,
	MaxKeyPerRequest: 64,
	MaxSAEIDCount:    0,
}

func (c Config) withDefaults() Config {
	if c.SourceKMEID == "" {
		c.SourceKMEID = DefaultConfig.SourceKMEID
	}
	if c.MasterSAEID == "" {
		c.MasterSAEID = DefaultConfig.MasterSAEID
	}
	if c.DefaultKeySize == 0 {
		c.DefaultKeySize = DefaultConfig.DefaultKeySize
	}
	if c.MinKeySize == 0 {
		c.MinKeySize = DefaultConfig.MinKeySize
	}
	if c.MaxKeySize == 0 {
		c.MaxKeySize = DefaultConfig.MaxKeySize
	}
	if c.MaxKeyPerRequest == 0 {
		c.MaxKeyPerRequest = DefaultConfig.MaxKeyPerRequest
	}
	return c
}

// Handler serves the KME API of one simulated device.
type Handler struct {
	cfg  Config
	pool *KeyPool
	log  *slog.Logger
}

// NewHandler creates a KME handler issuing keys into pool. Two handlers sharing
// one pool behave like the two ends of a QKD link.
func NewHandler(cfg Config, pool *KeyPool, log *slog.Logger) *Handler {
	return &Handler{
		cfg:  cfg.withDefaults(),
		pool: pool,
		log:  log,
	}
}

// RegisterRoutes registers the following routes:
//   - GET /api/v1/keys/{sae_id}/status
//   - POST /api/v1/keys/{sae_id}/enc_keys
//   - POST /api/v1/keys/{sae_id}/dec_keys
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/v1/keys/{sae_id}/status", h.HandleStatus)
	r.Post("/api/v1/keys/{sae_id}/enc_keys", h.HandleEncKeys)
	r.Post("/api/v1/keys/{sae_id}/dec_keys", h.HandleDecKeys)
}

// HandleStatus reports the link with the slave SAE in the path.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	resp := api.StatusResponse{
		SourceKMEID:      h.cfg.SourceKMEID,
		MasterSAEID:      h.cfg.MasterSAEID,
		SlaveSAEID:       chi.URLParam(r, "sae_id"),
		KeySize:          h.cfg.DefaultKeySize,
		StoredKeyCount:   h.pool.Stored(),
		MaxKeyCount:      h.pool.Capacity(),
		MaxKeyPerRequest: h.cfg.MaxKeyPerRequest,
		MaxKeySize:       h.cfg.MaxKeySize,
		MinKeySize:       h.cfg.MinKeySize,
		MaxSAEIDCount:    h.cfg.MaxSAEIDCount,
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// HandleEncKeys issues new keys shared with the SAE in the path.
//
// Request body: api.EncKeysRequest. A missing size defaults to the device key
// size and a missing number to one key. When key_IDs are given, one key is
// issued per ID and number is ignored.
//
// Status codes:
//   - 200 OK: api.KeysResponse
//   - 400 Bad Request: malformed body or out-of-range size/number
//   - 503 Service Unavailable: the key pool is full
func (h *Handler) HandleEncKeys(w http.ResponseWriter, r *http.Request) {
	var req api.EncKeysRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	size := h.cfg.DefaultKeySize
	if req.Size != nil {
		size = *req.Size
	}
	if size < h.cfg.MinKeySize || size > h.cfg.MaxKeySize || size%8 != 0 {
		h.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid key size %d", size))
		return
	}

	number := uint32(1)
	if req.Number != nil {
		number = *req.Number
	}
	if len(req.KeyIDs) > 0 {
		number = uint32(len(req.KeyIDs))
	}
	if number == 0 || number > h.cfg.MaxKeyPerRequest {
		h.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid number of keys %d", number))
		return
	}

	keys, err := h.pool.Issue(size, req.KeyIDs, number)
	if errors.Is(err, ErrPoolExhausted) {
		h.writeError(w, http.StatusServiceUnavailable, err)
		return
	} else if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	h.log.Debug("Issued keys",
		slog.String("slaveSAE", chi.URLParam(r, "sae_id")),
		slog.Int("count", len(keys)),
		slog.Int("size", int(size)))

	h.writeJSON(w, http.StatusOK, api.KeysResponse{Keys: keys})
}

// HandleDecKeys returns previously issued keys by ID and removes them from the
// pool.
//
// Request body: api.DecKeysRequest with at least one key_ID.
//
// Status codes:
//   - 200 OK: api.KeysResponse, in request order
//   - 400 Bad Request: malformed body, no IDs, or an unknown ID
func (h *Handler) HandleDecKeys(w http.ResponseWriter, r *http.Request) {
	var req api.DecKeysRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if len(req.KeyIDs) == 0 {
		h.writeError(w, http.StatusBadRequest, errors.New("no key_IDs requested"))
		return
	}

	ids := make([]string, 0, len(req.KeyIDs))
	for _, entry := range req.KeyIDs {
		ids = append(ids, entry.KeyID)
	}

	keys, err := h.pool.Redeem(ids)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	h.log.Debug("Redeemed keys",
		slog.String("masterSAE", chi.URLParam(r, "sae_id")),
		slog.Int("count", len(keys)))

	h.writeJSON(w, http.StatusOK, api.KeysResponse{Keys: keys})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("Failed to encode response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	h.log.Debug("Rejecting KME request", "err", err, slog.Int("status", status))
	h.writeJSON(w, status, api.ErrorResponse{Message: err.Error()})
}
