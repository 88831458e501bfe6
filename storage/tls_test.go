package storage

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/ruteri/pqkd-client/cryptoutils"
	"github.com/ruteri/pqkd-client/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadTLSMaterial(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	pki, err := cryptoutils.GenerateTestPKI("127.0.0.1")
	require.NoError(t, err)

	backend, err := NewFileBackend(t.TempDir(), logger)
	require.NoError(t, err)
	require.NoError(t, StoreTLSMaterial(ctx, backend, pki.ClientMaterial(), DefaultTLSObjectNames))

	material, err := LoadTLSMaterial(ctx, backend, "ca.pem", "client.pem", "client-key.pem")
	require.NoError(t, err)
	assert.Equal(t, pki.CACert, material.CACert)
	assert.Equal(t, pki.ClientCert, material.ClientCert)
	assert.Equal(t, pki.ClientKey, material.ClientKey)

	t.Run("empty names are skipped", func(t *testing.T) {
		material, err := LoadTLSMaterial(ctx, backend, "ca.pem", "", "")
		require.NoError(t, err)
		assert.Equal(t, pki.CACert, material.CACert)
		assert.Empty(t, material.ClientCert)
	})

	t.Run("missing object", func(t *testing.T) {
		_, err := LoadTLSMaterial(ctx, backend, "other-ca.pem", "", "")
		assert.ErrorIs(t, err, interfaces.ErrContentNotFound)
	})

	t.Run("key without certificate", func(t *testing.T) {
		_, err := LoadTLSMaterial(ctx, backend, "", "", "client-key.pem")
		assert.ErrorContains(t, err, "must be provided together")
	})

	t.Run("corrupt certificate", func(t *testing.T) {
		require.NoError(t, backend.Store(ctx, "broken.pem", []byte("garbage")))
		_, err := LoadTLSMaterial(ctx, backend, "", "broken.pem", "client-key.pem")
		assert.Error(t, err)
	})
}
