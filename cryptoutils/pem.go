package cryptoutils

import (
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
)

// CACert is one or more PEM-encoded certificates trusted as roots for the
// appliance's server certificate.
type CACert []byte

// NewCACert validates that data holds at least one certificate and nothing else.
func NewCACert(data []byte) (CACert, error) {
	if _, err := CACert(data).Certificates(); err != nil {
		return nil, err
	}
	return CACert(data), nil
}

// Certificates parses every block of the bundle.
func (ca CACert) Certificates() ([]*x509.Certificate, error) {
	var certs []*x509.Certificate
	rest := []byte(ca)
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			return nil, fmt.Errorf("invalid CA certificate: unexpected PEM block %q", block.Type)
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("invalid CA certificate structure: %w", err)
		}
		certs = append(certs, cert)
	}
	if len(certs) == 0 {
		return nil, errors.New("invalid CA certificate: not in PEM format")
	}
	return certs, nil
}

// TLSCert is a PEM-encoded client certificate.
type TLSCert []byte

// NewTLSCert creates a new certificate object from PEM-encoded data with validation.
func NewTLSCert(data []byte) (TLSCert, error) {
	block, _ := pem.Decode(data)
	if block == nil || block.Type != "CERTIFICATE" {
		return nil, errors.New("invalid certificate: not in PEM format or not a certificate")
	}

	if _, err := x509.ParseCertificate(block.Bytes); err != nil {
		return nil, fmt.Errorf("invalid certificate structure: %w", err)
	}

	return TLSCert(data), nil
}

// TLSKey is a PEM-encoded private key in PKCS#8, SEC 1 or PKCS#1 form.
type TLSKey []byte

// NewTLSKey creates a new private key object from PEM-encoded data with validation.
func NewTLSKey(data []byte) (TLSKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("invalid private key: not in PEM format")
	}

	var err error
	switch block.Type {
	case "PRIVATE KEY":
		_, err = x509.ParsePKCS8PrivateKey(block.Bytes)
	case "EC PRIVATE KEY":
		_, err = x509.ParseECPrivateKey(block.Bytes)
	case "RSA PRIVATE KEY":
		_, err = x509.ParsePKCS1PrivateKey(block.Bytes)
	default:
		return nil, fmt.Errorf("invalid private key: unexpected PEM block %q", block.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid private key structure: %w", err)
	}

	return TLSKey(data), nil
}
