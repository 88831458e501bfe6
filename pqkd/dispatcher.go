package pqkd

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// CallSpec is the concrete shape of one HTTP call to the appliance.
type CallSpec struct {
	// Op names the call in errors and logs.
	Op string

	Method      string
	URL         string
	ContentType string
	Body        []byte
}

// Dispatcher maps finalized requests to HTTP calls and raw response bodies back
// to typed responses. It holds only the immutable base addresses.
type Dispatcher struct {
	kmeAddr  *url.URL
	qrngAddr *url.URL
}

// NewDispatcher creates a dispatcher for the given KME and QRNG base addresses.
func NewDispatcher(kmeAddr, qrngAddr *url.URL) *Dispatcher {
	return &Dispatcher{kmeAddr: kmeAddr, qrngAddr: qrngAddr}
}

type encKeysByNumber struct {
	Size   uint16 `json:"size"`
	Number uint32 `json:"number"`
}

type encKeysByIDs struct {
	Size   uint16   `json:"size"`
	KeyIDs []string `json:"key_IDs"`
}

type keyIDEntry struct {
	KeyID string `json:"key_ID"`
}

type decKeysBody struct {
	KeyIDs []keyIDEntry `json:"key_IDs"`
}

func (d *Dispatcher) kmeURL(saeID, action string) string {
	return d.kmeAddr.JoinPath("api", "v1", "keys", url.PathEscape(saeID), action).String()
}

// BuildCall selects the call shape for the request's operation.
func (d *Dispatcher) BuildCall(req *Request) (*CallSpec, error) {
	switch req.Operation() {
	case OpStatus:
		return d.BuildStatusCall(req.SAEID()), nil
	case OpEncKeys:
		return d.BuildEncKeysCall(req)
	case OpDecKeys:
		return d.BuildDecKeysCall(req)
	default:
		return nil, fmt.Errorf("unsupported operation: %d", req.Operation())
	}
}

// BuildStatusCall returns GET {kme}/api/v1/keys/{sae_id}/status.
func (d *Dispatcher) BuildStatusCall(saeID string) *CallSpec {
	return &CallSpec{
		Op:     OpStatus.String(),
		Method: http.MethodGet,
		URL:    d.kmeURL(saeID, "status"),
	}
}

// BuildEncKeysCall returns POST {kme}/api/v1/keys/{sae_id}/enc_keys. The body
// carries key_IDs when any were requested and number otherwise, never both.
func (d *Dispatcher) BuildEncKeysCall(req *Request) (*CallSpec, error) {
	var payload any
	if len(req.keyIDs) > 0 {
		payload = encKeysByIDs{Size: req.size, KeyIDs: req.KeyIDs()}
	} else {
		payload = encKeysByNumber{Size: req.size, Number: req.number}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal enc_keys body: %w", err)
	}

	return &CallSpec{
		Op:          OpEncKeys.String(),
		Method:      http.MethodPost,
		URL:         d.kmeURL(req.saeID, "enc_keys"),
		ContentType: "application/json",
		Body:        body,
	}, nil
}

// BuildDecKeysCall returns POST {kme}/api/v1/keys/{sae_id}/dec_keys with one
// {"key_ID": id} object per requested ID, in request order.
func (d *Dispatcher) BuildDecKeysCall(req *Request) (*CallSpec, error) {
	entries := make([]keyIDEntry, 0, len(req.keyIDs))
	for _, id := range req.keyIDs {
		entries = append(entries, keyIDEntry{KeyID: id})
	}

	body, err := json.Marshal(decKeysBody{KeyIDs: entries})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal dec_keys body: %w", err)
	}

	return &CallSpec{
		Op:          OpDecKeys.String(),
		Method:      http.MethodPost,
		URL:         d.kmeURL(req.saeID, "dec_keys"),
		ContentType: "application/json",
		Body:        body,
	}, nil
}

// BuildQrngCall returns GET {qrng}/qrng/{format}?size={size}.
func (d *Dispatcher) BuildQrngCall(fetch *QrngFetch) *CallSpec {
	u := d.qrngAddr.JoinPath("qrng", fetch.Format().String())
	u.RawQuery = url.Values{"size": []string{strconv.FormatUint(uint64(fetch.Size()), 10)}}.Encode()

	return &CallSpec{
		Op:     "qrng",
		Method: http.MethodGet,
		URL:    u.String(),
	}
}

// ParseResponse decodes the body of a successful call made for req.
func (d *Dispatcher) ParseResponse(req *Request, body []byte) (*Response, error) {
	if req.Operation() == OpStatus {
		status, err := ParseStatus(body)
		if err != nil {
			return nil, err
		}
		return &Response{status: status}, nil
	}

	keys, err := ParseKeys(req.Operation().String(), body)
	if err != nil {
		return nil, err
	}
	return &Response{keys: keys}, nil
}

type statusWire struct {
	MaxKeyCount      *uint32 `json:"max_key_count"`
	MaxKeyPerRequest *uint32 `json:"max_key_per_request"`
	MaxKeySize       *uint32 `json:"max_key_size"`
	SourceKMEID      *string `json:"source_KME_ID"`
	MasterSAEID      *string `json:"master_SAE_ID"`
	StoredKeyCount   *uint32 `json:"stored_key_count"`
	MinKeySize       *uint32 `json:"min_key_size"`
	MaxSAEIDCount    *uint32 `json:"max_SAE_ID_count"`
	KeySize          *uint32 `json:"key_size"`
}

func missingField(op, field string) error {
	return &DeserializationError{Op: op, Err: fmt.Errorf("missing field %q", field)}
}

// ParseStatus decodes a status body. All nine fields are required.
func ParseStatus(body []byte) (*Status, error) {
	op := OpStatus.String()

	var wire statusWire
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, &DeserializationError{Op: op, Err: err}
	}

	required := []struct {
		name    string
		present bool
	}{
		{"max_key_count", wire.MaxKeyCount != nil},
		{"max_key_per_request", wire.MaxKeyPerRequest != nil},
		{"max_key_size", wire.MaxKeySize != nil},
		{"source_KME_ID", wire.SourceKMEID != nil},
		{"master_SAE_ID", wire.MasterSAEID != nil},
		{"stored_key_count", wire.StoredKeyCount != nil},
		{"min_key_size", wire.MinKeySize != nil},
		{"max_SAE_ID_count", wire.MaxSAEIDCount != nil},
		{"key_size", wire.KeySize != nil},
	}
	for _, f := range required {
		if !f.present {
			return nil, missingField(op, f.name)
		}
	}

	return &Status{
		MaxKeyCount:      *wire.MaxKeyCount,
		MaxKeyPerRequest: *wire.MaxKeyPerRequest,
		MaxKeySize:       *wire.MaxKeySize,
		SourceKMEID:      *wire.SourceKMEID,
		MasterSAEID:      *wire.MasterSAEID,
		StoredKeyCount:   *wire.StoredKeyCount,
		MinKeySize:       *wire.MinKeySize,
		MaxSAEIDCount:    *wire.MaxSAEIDCount,
		KeySize:          *wire.KeySize,
	}, nil
}

type keyWire struct {
	ID       *string      `json:"key_ID"`
	Material *KeyMaterial `json:"key"`
}

type keysWire struct {
	Keys *[]keyWire `json:"keys"`
}

// ParseKeys decodes an enc_keys or dec_keys body, preserving server order.
func ParseKeys(op string, body []byte) ([]Key, error) {
	var wire keysWire
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, &DeserializationError{Op: op, Err: err}
	}
	if wire.Keys == nil {
		return nil, missingField(op, "keys")
	}

	keys := make([]Key, 0, len(*wire.Keys))
	for i, k := range *wire.Keys {
		if k.ID == nil {
			return nil, missingField(op, fmt.Sprintf("keys[%d].key_ID", i))
		}
		if k.Material == nil {
			return nil, missingField(op, fmt.Sprintf("keys[%d].key", i))
		}
		keys = append(keys, Key{ID: *k.ID, Material: *k.Material})
	}
	return keys, nil
}

var errResultNotString = errors.New("result is not a string")

// ParseRandom decodes a QRNG body. The binary format is the raw body; hex and
// base64 are the "result" field of a JSON envelope, returned verbatim.
func ParseRandom(format QrngFormat, body []byte) (*Randomness, error) {
	if format == FormatBytes {
		data := make([]byte, len(body))
		copy(data, body)
		return &Randomness{Format: format, Bytes: data}, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &DeserializationError{Op: "qrng", Err: err}
	}

	raw, ok := envelope["result"]
	if !ok || string(raw) == "null" {
		return nil, missingField("qrng", "result")
	}

	var result string
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, &DeserializationError{Op: "qrng", Err: fmt.Errorf("%w: %v", errResultNotString, err)}
	}

	return &Randomness{Format: format, Text: result}, nil
}
