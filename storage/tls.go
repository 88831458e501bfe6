package storage

import (
	"context"
	"fmt"

	"github.com/ruteri/pqkd-client/cryptoutils"
	"github.com/ruteri/pqkd-client/interfaces"
)

// TLSObjectNames names the PEM objects of one client identity. Empty names are
// skipped.
type TLSObjectNames struct {
	CA   string
	Cert string
	Key  string
}

// DefaultTLSObjectNames is the layout written by the simulator.
var DefaultTLSObjectNames = TLSObjectNames{
	CA:   "ca.pem",
	Cert: "client.pem",
	Key:  "client-key.pem",
}

// LoadTLSMaterial fetches the CA certificate, client certificate and client key
// from backend and validates them as a unit.
func LoadTLSMaterial(ctx context.Context, backend interfaces.StorageBackend, caName, certName, keyName string) (cryptoutils.TLSMaterial, error) {
	var m cryptoutils.TLSMaterial

	objects := []struct {
		name string
		dst  *[]byte
	}{
		{caName, &m.CACert},
		{certName, &m.ClientCert},
		{keyName, &m.ClientKey},
	}
	for _, obj := range objects {
		if obj.name == "" {
			continue
		}
		data, err := backend.Fetch(ctx, obj.name)
		if err != nil {
			return cryptoutils.TLSMaterial{}, fmt.Errorf("failed to load %s from %s: %w", obj.name, backend.Name(), err)
		}
		*obj.dst = data
	}

	if _, err := m.ClientTLSConfig(); err != nil {
		return cryptoutils.TLSMaterial{}, fmt.Errorf("invalid TLS material in %s: %w", backend.LocationURI(), err)
	}

	return m, nil
}

// StoreTLSMaterial writes the non-empty parts of m under the given names.
func StoreTLSMaterial(ctx context.Context, backend interfaces.StorageBackend, m cryptoutils.TLSMaterial, names TLSObjectNames) error {
	objects := []struct {
		name string
		data []byte
	}{
		{names.CA, m.CACert},
		{names.Cert, m.ClientCert},
		{names.Key, m.ClientKey},
	}
	for _, obj := range objects {
		if obj.name == "" || len(obj.data) == 0 {
			continue
		}
		if err := backend.Store(ctx, obj.name, obj.data); err != nil {
			return fmt.Errorf("failed to store %s in %s: %w", obj.name, backend.Name(), err)
		}
	}
	return nil
}
