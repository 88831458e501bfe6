package storage

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/ruteri/pqkd-client/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileBackend(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dir := filepath.Join(t.TempDir(), "tls")

	backend, err := NewFileBackend(dir, logger)
	require.NoError(t, err)
	assert.True(t, backend.Available(ctx))
	assert.Equal(t, "file-tls", backend.Name())
	assert.Equal(t, "file://"+dir, backend.LocationURI())

	_, err = backend.Fetch(ctx, "ca.pem")
	assert.ErrorIs(t, err, interfaces.ErrContentNotFound)

	require.NoError(t, backend.Store(ctx, "device-1/client-key.pem", []byte("secret")))

	data, err := backend.Fetch(ctx, "device-1/client-key.pem")
	require.NoError(t, err)
	assert.Equal(t, []byte("secret"), data)

	info, err := os.Stat(filepath.Join(dir, "device-1", "client-key.pem"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	for _, name := range []string{"", "/etc/passwd", "../outside", "a/../../b", "a//b"} {
		_, err := backend.Fetch(ctx, name)
		assert.ErrorIs(t, err, interfaces.ErrInvalidObjectName, name)
		assert.ErrorIs(t, backend.Store(ctx, name, nil), interfaces.ErrInvalidObjectName, name)
	}

	require.NoError(t, os.RemoveAll(dir))
	assert.False(t, backend.Available(ctx))
}
