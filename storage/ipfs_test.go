package storage

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/ruteri/pqkd-client/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRootCID = "bafybeigdyrzt5sfp7udm7hu76uh7y26nf3efuylqabf3oclgtqy55fbzdi"

// fakeIPFSNode answers the node API calls used by the backend for a single
// directory.
func fakeIPFSNode(files map[string]string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v0/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"Version": "0.29.0", "Commit": "", "Repo": "15", "System": "amd64/linux", "Golang": "go1.22"})
	})
	mux.HandleFunc("/api/v0/id", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"ID": "12D3KooWtest", "Addresses": []string{}})
	})
	mux.HandleFunc("/api/v0/cat", func(w http.ResponseWriter, r *http.Request) {
		arg, _ := url.QueryUnescape(r.URL.Query().Get("arg"))
		prefix := "/ipfs/" + testRootCID + "/"
		content, ok := files[strings.TrimPrefix(arg, prefix)]
		if !strings.HasPrefix(arg, prefix) || !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]any{
				"Message": "no link named \"" + arg + "\" under " + testRootCID,
				"Code":    0,
				"Type":    "error",
			})
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte(content))
	})
	return mux
}

func TestIPFSBackend(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ts := httptest.NewServer(fakeIPFSNode(map[string]string{"ca.pem": "ca bundle"}))
	defer ts.Close()

	u, err := url.Parse(ts.URL)
	require.NoError(t, err)

	backend, err := NewIPFSBackend(u.Hostname(), u.Port(), "/"+testRootCID+"/", 5*time.Second, logger)
	require.NoError(t, err)
	assert.Contains(t, backend.LocationURI(), testRootCID)

	assert.True(t, backend.Available(ctx))

	data, err := backend.Fetch(ctx, "ca.pem")
	require.NoError(t, err)
	assert.Equal(t, "ca bundle", string(data))

	_, err = backend.Fetch(ctx, "client.pem")
	assert.ErrorIs(t, err, interfaces.ErrContentNotFound)

	assert.ErrorIs(t, backend.Store(ctx, "client.pem", []byte("x")), interfaces.ErrReadOnlyBackend)
}

func TestIPFSBackendUnavailable(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, err := NewIPFSBackend("127.0.0.1", "5001", "", time.Second, logger)
	assert.Error(t, err)

	ts := httptest.NewServer(http.NotFoundHandler())
	u, err := url.Parse(ts.URL)
	require.NoError(t, err)
	ts.Close()

	backend, err := NewIPFSBackend(u.Hostname(), u.Port(), testRootCID, time.Second, logger)
	require.NoError(t, err)

	assert.False(t, backend.Available(context.Background()))
	_, err = backend.Fetch(context.Background(), "ca.pem")
	assert.ErrorIs(t, err, interfaces.ErrBackendUnavailable)
}
