package api

// StatusResponse is the body of GET /api/v1/keys/{sae_id}/status.
type StatusResponse struct {
	SourceKMEID      string `json:"source_KME_ID"`
	TargetKMEID      string `json:"target_KME_ID,omitempty"`
	MasterSAEID      string `json:"master_SAE_ID"`
	SlaveSAEID       string `json:"slave_SAE_ID,omitempty"`
	KeySize          uint32 `json:"key_size"`
	StoredKeyCount   uint32 `json:"stored_key_count"`
	MaxKeyCount      uint32 `json:"max_key_count"`
	MaxKeyPerRequest uint32 `json:"max_key_per_request"`
	MaxKeySize       uint32 `json:"max_key_size"`
	MinKeySize       uint32 `json:"min_key_size"`
	MaxSAEIDCount    uint32 `json:"max_SAE_ID_count"`
}

// EncKeysRequest is the body of POST /api/v1/keys/{sae_id}/enc_keys. Clients
// send either Number or KeyIDs.
type EncKeysRequest struct {
	Size   *uint32  `json:"size,omitempty"`
	Number *uint32  `json:"number,omitempty"`
	KeyIDs []string `json:"key_IDs,omitempty"`
}

// KeyIDEntry names one key in a dec_keys request.
type KeyIDEntry struct {
	KeyID string `json:"key_ID"`
}

// DecKeysRequest is the body of POST /api/v1/keys/{sae_id}/dec_keys.
type DecKeysRequest struct {
	KeyIDs []KeyIDEntry `json:"key_IDs"`
}

// KeyEntry is one key as the appliance returns it. Key is base64 encoded.
type KeyEntry struct {
	KeyID string `json:"key_ID"`
	Key   string `json:"key"`
}

// KeysResponse is the body returned by enc_keys and dec_keys.
type KeysResponse struct {
	Keys []KeyEntry `json:"keys"`
}

// QrngResponse is the body of GET /qrng/hex and GET /qrng/base64.
type QrngResponse struct {
	Result string `json:"result"`
}

// ErrorResponse is returned with every 4xx and 5xx status.
type ErrorResponse struct {
	Message string `json:"message"`
}
