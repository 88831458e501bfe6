package cryptoutils

import (
	"crypto/tls"
	"crypto/x509"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientTLSConfig(t *testing.T) {
	pki, err := GenerateTestPKI("127.0.0.1")
	require.NoError(t, err)

	t.Run("empty material uses system roots", func(t *testing.T) {
		cfg, err := TLSMaterial{}.ClientTLSConfig()
		require.NoError(t, err)
		assert.Nil(t, cfg.RootCAs)
		assert.Empty(t, cfg.Certificates)
		assert.Equal(t, uint16(tls.VersionTLS12), cfg.MinVersion)
		assert.False(t, cfg.InsecureSkipVerify)
	})

	t.Run("full material", func(t *testing.T) {
		cfg, err := pki.ClientMaterial().ClientTLSConfig()
		require.NoError(t, err)
		assert.NotNil(t, cfg.RootCAs)
		assert.Len(t, cfg.Certificates, 1)
	})

	t.Run("insecure skip verify", func(t *testing.T) {
		cfg, err := TLSMaterial{InsecureSkipVerify: true}.ClientTLSConfig()
		require.NoError(t, err)
		assert.True(t, cfg.InsecureSkipVerify)
	})

	tests := []struct {
		name     string
		material TLSMaterial
		errMsg   string
	}{
		{
			name:     "cert without key",
			material: TLSMaterial{ClientCert: pki.ClientCert},
			errMsg:   "must be provided together",
		},
		{
			name:     "key without cert",
			material: TLSMaterial{ClientKey: pki.ClientKey},
			errMsg:   "must be provided together",
		},
		{
			name:     "garbage CA",
			material: TLSMaterial{CACert: []byte("not a certificate")},
			errMsg:   "invalid CA certificate",
		},
		{
			name:     "key in CA bundle",
			material: TLSMaterial{CACert: pki.ClientKey},
			errMsg:   "unexpected PEM block",
		},
		{
			name:     "garbage key",
			material: TLSMaterial{ClientCert: pki.ClientCert, ClientKey: []byte("nope")},
			errMsg:   "invalid private key",
		},
		{
			name:     "mismatched pair",
			material: TLSMaterial{ClientCert: pki.ClientCert, ClientKey: pki.ServerKey},
			errMsg:   "does not match",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.material.ClientTLSConfig()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestCACertBundle(t *testing.T) {
	first, err := GenerateTestPKI()
	require.NoError(t, err)
	second, err := GenerateTestPKI()
	require.NoError(t, err)

	bundle := append(append([]byte{}, first.CACert...), second.CACert...)
	ca, err := NewCACert(bundle)
	require.NoError(t, err)

	certs, err := ca.Certificates()
	require.NoError(t, err)
	assert.Len(t, certs, 2)
	assert.True(t, certs[0].IsCA)
}

func TestTestPKIMutualTLS(t *testing.T) {
	pki, err := GenerateTestPKI("127.0.0.1")
	require.NoError(t, err)

	serverCfg, err := pki.ServerTLSConfig()
	require.NoError(t, err)

	ts := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(r.TLS.PeerCertificates) != 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(r.TLS.PeerCertificates[0].Subject.CommonName))
	}))
	ts.TLS = serverCfg
	ts.StartTLS()
	defer ts.Close()

	clientCfg, err := pki.ClientMaterial().ClientTLSConfig()
	require.NoError(t, err)

	client := &http.Client{Transport: &http.Transport{TLSClientConfig: clientCfg}}
	resp, err := client.Get(ts.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "pqkd test client", string(body))

	serverCert, err := NewTLSCert(pki.ServerCert)
	require.NoError(t, err)
	assert.NotEmpty(t, serverCert)

	// The server certificate chains to the test CA only
	ca, err := NewCACert(pki.CACert)
	require.NoError(t, err)
	certs, err := ca.Certificates()
	require.NoError(t, err)
	roots := x509.NewCertPool()
	roots.AddCert(certs[0])
	anonymous := &http.Client{Transport: &http.Transport{TLSClientConfig: &tls.Config{RootCAs: roots}}}
	_, err = anonymous.Get(ts.URL)
	assert.Error(t, err)
}
