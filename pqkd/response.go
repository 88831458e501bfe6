package pqkd

import "encoding/json"

// Status describes the link between the local device and a partner SAE, as
// reported by the appliance.
type Status struct {
	MaxKeyCount      uint32 `json:"max_key_count"`
	MaxKeyPerRequest uint32 `json:"max_key_per_request"`
	MaxKeySize       uint32 `json:"max_key_size"`
	SourceKMEID      string `json:"source_KME_ID"`
	MasterSAEID      string `json:"master_SAE_ID"`
	StoredKeyCount   uint32 `json:"stored_key_count"`
	MinKeySize       uint32 `json:"min_key_size"`
	MaxSAEIDCount    uint32 `json:"max_SAE_ID_count"`
	KeySize          uint32 `json:"key_size"`
}

// KeyMaterial is key material exactly as the appliance encoded it. It is kept as
// raw bytes so that it is never normalized or re-decoded on the way through.
type KeyMaterial []byte

// String returns the material verbatim.
func (k KeyMaterial) String() string { return string(k) }

// UnmarshalJSON takes the JSON string as-is rather than base64-decoding it.
func (k *KeyMaterial) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*k = KeyMaterial(s)
	return nil
}

// MarshalJSON writes the material back as the JSON string it came from.
func (k KeyMaterial) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(k))
}

// Key is one key issued by the KME.
type Key struct {
	ID       string      `json:"key_ID"`
	Material KeyMaterial `json:"key"`
}

func (k Key) KeyID() string { return k.ID }

func (k Key) Key() KeyMaterial { return k.Material }

// Response is the result of a KME operation: a status for OpStatus, keys for
// OpEncKeys and OpDecKeys.
type Response struct {
	status *Status
	keys   []Key
}

// AsStatus returns the status and true for a status response.
func (r *Response) AsStatus() (*Status, bool) {
	return r.status, r.status != nil
}

// Keys returns the keys in server order. A status response has no keys.
func (r *Response) Keys() []Key {
	return r.keys
}

// Randomness is the result of a QRNG fetch. Text is set for hex and base64,
// Bytes for the binary format.
type Randomness struct {
	Format QrngFormat
	Text   string
	Bytes  []byte
}
