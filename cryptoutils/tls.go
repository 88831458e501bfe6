package cryptoutils

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
)

// TLSMaterial is the PEM material used for mutual TLS with the appliance. Any
// part may be empty: without CACert the system roots are used, without a client
// certificate and key no client authentication is offered.
type TLSMaterial struct {
	CACert     []byte
	ClientCert []byte
	ClientKey  []byte

	// InsecureSkipVerify disables server certificate verification. Lab
	// appliances ship self-signed certificates without IP SANs.
	InsecureSkipVerify bool
}

// ClientTLSConfig validates the material and builds a client tls.Config.
func (m TLSMaterial) ClientTLSConfig() (*tls.Config, error) {
	cfg := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: m.InsecureSkipVerify,
	}

	if len(m.CACert) > 0 {
		ca, err := NewCACert(m.CACert)
		if err != nil {
			return nil, err
		}
		certs, _ := ca.Certificates()
		pool := x509.NewCertPool()
		for _, cert := range certs {
			pool.AddCert(cert)
		}
		cfg.RootCAs = pool
	}

	hasCert, hasKey := len(m.ClientCert) > 0, len(m.ClientKey) > 0
	if hasCert != hasKey {
		return nil, errors.New("client certificate and client key must be provided together")
	}

	if hasCert {
		if _, err := NewTLSCert(m.ClientCert); err != nil {
			return nil, err
		}
		if _, err := NewTLSKey(m.ClientKey); err != nil {
			return nil, err
		}
		pair, err := tls.X509KeyPair(m.ClientCert, m.ClientKey)
		if err != nil {
			return nil, fmt.Errorf("client certificate does not match key: %w", err)
		}
		cfg.Certificates = []tls.Certificate{pair}
	}

	return cfg, nil
}
