package pqkd

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/ruteri/pqkd-client/api/kmehandler"
	"github.com/ruteri/pqkd-client/cryptoutils"
	"github.com/ruteri/pqkd-client/pqkd/pqkdtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestServer(t *testing.T, cfg pqkdtest.Config) *pqkdtest.Server {
	t.Helper()
	srv, err := pqkdtest.NewServer(cfg)
	require.NoError(t, err)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, srv *pqkdtest.Server) *Client {
	t.Helper()
	client, err := NewClientBuilder(srv.URL).
		WithQrngAddr(srv.URL).
		WithLogger(testLogger).
		Build()
	require.NoError(t, err)
	return client
}

func TestClient_Status(t *testing.T) {
	srv := newTestServer(t, pqkdtest.Config{Device: kmehandler.Config{SourceKMEID: "Test_2KME", MasterSAEID: "Test_2SAE"}})
	client := newTestClient(t, srv)

	resp, err := client.Status("Test_1SAE").Send(context.Background())
	require.NoError(t, err)

	status, ok := resp.AsStatus()
	require.True(t, ok)
	assert.Equal(t, uint32(4096), status.MaxKeyCount)
	assert.Equal(t, uint32(64), status.MaxKeyPerRequest)
	assert.Equal(t, uint32(4096), status.MaxKeySize)
	assert.Equal(t, "Test_2KME", status.SourceKMEID)
	assert.Equal(t, "Test_2SAE", status.MasterSAEID)
	assert.Equal(t, uint32(0), status.StoredKeyCount)
	assert.Equal(t, uint32(64), status.MinKeySize)
	assert.Equal(t, uint32(0), status.MaxSAEIDCount)
	assert.Equal(t, uint32(256), status.KeySize)

	req, ok := srv.LastRequest()
	require.True(t, ok)
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "/api/v1/keys/Test_1SAE/status", req.Path)
	assert.Empty(t, req.Body)
}

func TestClient_EncKeys(t *testing.T) {
	srv := newTestServer(t, pqkdtest.Config{})
	require.NoError(t, srv.HandleJSON(http.MethodPost, "/api/v1/keys/Test_2SAE/enc_keys", http.StatusOK,
		map[string]any{"keys": []map[string]string{{"key_ID": "k1", "key": "AAA="}}}))
	client := newTestClient(t, srv)

	resp, err := client.EncKeys("Test_2SAE").WithKeySize(1024).WithKeyCount(10).Send(context.Background())
	require.NoError(t, err)

	require.Len(t, resp.Keys(), 1)
	assert.Equal(t, "k1", resp.Keys()[0].KeyID())
	assert.Equal(t, "AAA=", resp.Keys()[0].Key().String())

	req, ok := srv.LastRequest()
	require.True(t, ok)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "application/json", req.ContentType)
	assert.Equal(t, `{"size":1024,"number":10}`, string(req.Body))
}

func TestClient_DecKeysBody(t *testing.T) {
	srv := newTestServer(t, pqkdtest.Config{})
	srv.Handle(http.MethodPost, "/api/v1/keys/Test_1SAE/dec_keys", pqkdtest.Response{
		ContentType: "application/json",
		Body:        []byte(`{"keys":[{"key_ID":"a","key":"x"},{"key_ID":"b","key":"y"},{"key_ID":"c","key":"z"}]}`),
	})
	client := newTestClient(t, srv)

	resp, err := client.DecKeys("Test_1SAE").WithKeyID("a").WithKeyIDs("b", "c").Send(context.Background())
	require.NoError(t, err)
	require.Len(t, resp.Keys(), 3)

	req, ok := srv.LastRequest()
	require.True(t, ok)
	assert.Equal(t, `{"key_IDs":[{"key_ID":"a"},{"key_ID":"b"},{"key_ID":"c"}]}`, string(req.Body))
}

func TestClient_KeysAcrossLink(t *testing.T) {
	master, slave, err := pqkdtest.NewLink(
		pqkdtest.Config{Device: kmehandler.Config{SourceKMEID: "Test_1KME", MasterSAEID: "Test_1SAE"}},
		pqkdtest.Config{Device: kmehandler.Config{SourceKMEID: "Test_2KME", MasterSAEID: "Test_2SAE"}},
	)
	require.NoError(t, err)
	defer master.Close()
	defer slave.Close()

	alice := newTestClient(t, master)
	bob := newTestClient(t, slave)
	ctx := context.Background()

	issued, err := alice.EncKeys("Test_2SAE").WithKeySize(256).WithKeyCount(3).Send(ctx)
	require.NoError(t, err)
	require.Len(t, issued.Keys(), 3)

	ids := make([]string, 0, 3)
	for _, k := range issued.Keys() {
		ids = append(ids, k.KeyID())
	}

	resp, err := bob.Status("Test_1SAE").Send(ctx)
	require.NoError(t, err)
	status, _ := resp.AsStatus()
	assert.Equal(t, uint32(3), status.StoredKeyCount)

	redeemed, err := bob.DecKeys("Test_1SAE").WithKeyIDs(ids...).Send(ctx)
	require.NoError(t, err)
	assert.Equal(t, issued.Keys(), redeemed.Keys())

	// Keys are gone once redeemed.
	_, err = bob.DecKeys("Test_1SAE").WithKeyIDs(ids...).Send(ctx)
	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.Equal(t, http.StatusBadRequest, transportErr.StatusCode)
}

func TestClient_ValidationFailsWithoutIO(t *testing.T) {
	srv := newTestServer(t, pqkdtest.Config{})
	client := newTestClient(t, srv)
	ctx := context.Background()

	_, err := client.EncKeys("Test_2SAE").WithKeySize(4104).WithKeyCount(0).Send(ctx)
	assert.ErrorIs(t, err, ErrSizeOfKeys)

	_, err = client.EncKeys("Test_2SAE").WithKeyCount(0).SendAsync(ctx).Wait()
	assert.ErrorIs(t, err, ErrNumberOfKeys)

	_, err = client.Status("").Send(ctx)
	assert.ErrorIs(t, err, ErrMissingSAEID)

	_, err = client.RandomBytes(ctx, MaxSizeForBytesFormat+1)
	var sizeErr *InvalidSizeError
	require.True(t, errors.As(err, &sizeErr))
	assert.Equal(t, FormatBytes, sizeErr.Format)
	assert.Equal(t, uint32(16*1024*1024), sizeErr.MaxSize)
	assert.Equal(t, uint32(16*1024*1024+1), sizeErr.Found)

	_, err = client.RandomHex(ctx, MaxSizeForStringFormat+1)
	assert.ErrorIs(t, err, ErrValidation)

	assert.Equal(t, int64(0), srv.RequestCount())
}

func TestClient_Random(t *testing.T) {
	pattern := []byte{0xde, 0xad, 0xbe, 0xef}
	ctx := context.Background()

	t.Run("hex", func(t *testing.T) {
		srv := newTestServer(t, pqkdtest.Config{Randomness: bytes.NewReader(pattern)})
		client := newTestClient(t, srv)

		hexStr, err := client.RandomHex(ctx, 4)
		require.NoError(t, err)
		assert.Equal(t, "deadbeef", hexStr)

		req, _ := srv.LastRequest()
		assert.Equal(t, "/qrng/hex", req.Path)
		assert.Equal(t, "4", req.Query.Get("size"))
	})

	t.Run("base64", func(t *testing.T) {
		srv := newTestServer(t, pqkdtest.Config{Randomness: bytes.NewReader(pattern)})
		client := newTestClient(t, srv)

		b64, err := client.RandomBase64(ctx, 4)
		require.NoError(t, err)
		assert.Equal(t, "3q2+7w==", b64)
	})

	t.Run("bytes", func(t *testing.T) {
		srv := newTestServer(t, pqkdtest.Config{Randomness: bytes.NewReader(pattern)})
		client := newTestClient(t, srv)

		raw, err := client.RandomBytes(ctx, 4)
		require.NoError(t, err)
		assert.Equal(t, pattern, raw)
	})

	t.Run("text returned verbatim", func(t *testing.T) {
		srv := newTestServer(t, pqkdtest.Config{})
		srv.Handle(http.MethodGet, "/qrng/hex", pqkdtest.Response{Body: []byte(`{"result":"abc"}`)})
		client := newTestClient(t, srv)

		hexStr, err := client.RandomHex(ctx, 1024)
		require.NoError(t, err)
		assert.Equal(t, "abc", hexStr)
	})

	t.Run("bytes length not checked", func(t *testing.T) {
		srv := newTestServer(t, pqkdtest.Config{})
		srv.Handle(http.MethodGet, "/qrng/bytes", pqkdtest.Response{Body: []byte{1, 2}})
		client := newTestClient(t, srv)

		raw, err := client.RandomBytes(ctx, 1024)
		require.NoError(t, err)
		assert.Equal(t, []byte{1, 2}, raw)
	})
}

func TestClient_FetchRandomAsync(t *testing.T) {
	srv := newTestServer(t, pqkdtest.Config{Randomness: bytes.NewReader([]byte{0x01, 0x02})})
	client := newTestClient(t, srv)

	fetch, err := NewQrngFetch(FormatHex, 2)
	require.NoError(t, err)

	pending := client.FetchRandomAsync(context.Background(), fetch)
	<-pending.Done()
	r, err := pending.Wait()
	require.NoError(t, err)
	assert.Equal(t, FormatHex, r.Format)
	assert.Equal(t, "0102", r.Text)
}

func TestClient_SendAsync(t *testing.T) {
	srv := newTestServer(t, pqkdtest.Config{})
	client := newTestClient(t, srv)

	pendings := make([]*Pending[*Response], 0, 8)
	for i := 0; i < 8; i++ {
		pendings = append(pendings, client.EncKeys("Test_2SAE").WithKeyCount(2).SendAsync(context.Background()))
	}

	seen := make(map[string]struct{})
	for _, p := range pendings {
		resp, err := p.Wait()
		require.NoError(t, err)
		require.Len(t, resp.Keys(), 2)
		for _, k := range resp.Keys() {
			seen[k.KeyID()] = struct{}{}
		}

		// Wait can be repeated.
		again, err := p.Wait()
		require.NoError(t, err)
		assert.Same(t, resp, again)
	}
	assert.Len(t, seen, 16)
	assert.Equal(t, int64(8), srv.RequestCount())
	assert.Equal(t, uint32(16), srv.Pool().Stored())
}

func TestClient_ErrorStatus(t *testing.T) {
	srv := newTestServer(t, pqkdtest.Config{})
	srv.Handle(http.MethodGet, "/api/v1/keys/Test_2SAE/status", pqkdtest.Response{
		Status: http.StatusServiceUnavailable,
		Body:   []byte("busy"),
	})
	client := newTestClient(t, srv)

	_, err := client.Status("Test_2SAE").Send(context.Background())
	require.ErrorIs(t, err, ErrTransport)

	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.Equal(t, http.StatusServiceUnavailable, transportErr.StatusCode)
	assert.Equal(t, "busy", string(transportErr.Body))
	assert.Equal(t, "status", transportErr.Op)
}

func TestClient_MalformedBody(t *testing.T) {
	srv := newTestServer(t, pqkdtest.Config{})
	srv.Handle(http.MethodPost, "/api/v1/keys/Test_2SAE/enc_keys", pqkdtest.Response{Body: []byte("not json")})
	srv.Handle(http.MethodGet, "/api/v1/keys/Test_2SAE/status", pqkdtest.Response{Body: []byte(`{"max_key_count":1}`)})
	srv.Handle(http.MethodGet, "/qrng/base64", pqkdtest.Response{Body: []byte(`{"value":"abc"}`)})
	client := newTestClient(t, srv)
	ctx := context.Background()

	_, err := client.EncKeys("Test_2SAE").Send(ctx)
	assert.ErrorIs(t, err, ErrDeserialization)

	_, err = client.Status("Test_2SAE").Send(ctx)
	assert.ErrorIs(t, err, ErrDeserialization)

	_, err = client.RandomBase64(ctx, 16)
	assert.ErrorIs(t, err, ErrDeserialization)
}

func TestClient_Unreachable(t *testing.T) {
	srv := newTestServer(t, pqkdtest.Config{})
	client := newTestClient(t, srv)
	srv.Close()

	_, err := client.Status("Test_2SAE").Send(context.Background())
	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.Equal(t, 0, transportErr.StatusCode)
	assert.Error(t, transportErr.Err)
}

func TestClient_ContextCanceled(t *testing.T) {
	srv := newTestServer(t, pqkdtest.Config{})
	client := newTestClient(t, srv)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Status("Test_2SAE").Send(ctx)
	assert.ErrorIs(t, err, ErrTransport)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int64(0), srv.RequestCount())
}

func TestClient_MutualTLS(t *testing.T) {
	pki, err := cryptoutils.GenerateTestPKI("127.0.0.1", "localhost")
	require.NoError(t, err)

	srv := newTestServer(t, pqkdtest.Config{PKI: pki})

	client, err := NewClientBuilder(srv.URL).
		WithQrngAddr(srv.URL).
		WithTLS(pki.CACert, pki.ClientCert, pki.ClientKey).
		WithLogger(testLogger).
		Build()
	require.NoError(t, err)

	_, err = client.Status("Test_2SAE").Send(context.Background())
	require.NoError(t, err)

	_, err = client.RandomHex(context.Background(), 8)
	require.NoError(t, err)

	// Without a client certificate the handshake fails.
	anonymous, err := NewClientBuilder(srv.URL).
		WithTLSMaterial(cryptoutils.TLSMaterial{CACert: pki.CACert}).
		WithLogger(testLogger).
		Build()
	require.NoError(t, err)

	_, err = anonymous.Status("Test_2SAE").Send(context.Background())
	assert.ErrorIs(t, err, ErrTransport)
}

func TestClientBuilder(t *testing.T) {
	t.Run("default qrng address", func(t *testing.T) {
		client, err := NewClientBuilder("http://172.16.0.154:8082").Build()
		require.NoError(t, err)
		assert.Equal(t, "http://172.16.0.154:8082", client.KMEAddr())
		assert.Equal(t, "http://172.16.0.154:8085", client.QrngAddr())
	})

	t.Run("default qrng address without port", func(t *testing.T) {
		client, err := NewClientBuilder("https://kme.example.com").Build()
		require.NoError(t, err)
		assert.Equal(t, "https://kme.example.com:8085", client.QrngAddr())
	})

	t.Run("explicit qrng address", func(t *testing.T) {
		client, err := NewClientBuilder("http://172.16.0.154:8082").WithQrngAddr("http://10.0.0.1:9000").Build()
		require.NoError(t, err)
		assert.Equal(t, "http://10.0.0.1:9000", client.QrngAddr())
	})

	t.Run("local target", func(t *testing.T) {
		client, err := NewClientBuilder("http://172.16.0.154:8082").WithLocalTarget("Test_1SAE").Build()
		require.NoError(t, err)
		assert.Equal(t, "Test_1SAE", client.LocalTarget())
	})

	invalid := []struct {
		name    string
		builder *ClientBuilder
	}{
		{"malformed address", NewClientBuilder("http://[::1")},
		{"unsupported scheme", NewClientBuilder("ftp://172.16.0.154:8082")},
		{"missing host", NewClientBuilder("http://")},
		{"malformed qrng address", NewClientBuilder("http://172.16.0.154:8082").WithQrngAddr("not a url")},
		{"malformed CA", NewClientBuilder("http://172.16.0.154:8082").WithTLS([]byte("garbage"), nil, nil)},
		{"certificate without key", NewClientBuilder("http://172.16.0.154:8082").WithTLSMaterial(cryptoutils.TLSMaterial{ClientCert: []byte("x")})},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.builder.Build()
			assert.ErrorIs(t, err, ErrConfiguration)
		})
	}
}

type mockTransport struct {
	mock.Mock
}

func (m *mockTransport) RoundTrip(ctx context.Context, call *CallSpec) (*RawResponse, error) {
	args := m.Called(ctx, call)
	resp, _ := args.Get(0).(*RawResponse)
	return resp, args.Error(1)
}

func TestClient_CustomTransport(t *testing.T) {
	transport := new(mockTransport)
	transport.On("RoundTrip", mock.Anything, mock.MatchedBy(func(call *CallSpec) bool {
		return call.URL == "http://172.16.0.154:8082/api/v1/keys/Test_2SAE/enc_keys" &&
			string(call.Body) == `{"size":512,"key_IDs":["id-1"]}`
	})).Return(&RawResponse{
		StatusCode: http.StatusOK,
		Body:       []byte(`{"keys":[{"key_ID":"id-1","key":"c2VjcmV0"}]}`),
	}, nil).Once()
	transport.On("RoundTrip", mock.Anything, mock.Anything).Return(nil, errors.New("connection reset")).Once()

	client, err := NewClientBuilder("http://172.16.0.154:8082").
		WithTransport(transport).
		WithLogger(testLogger).
		Build()
	require.NoError(t, err)

	resp, err := client.EncKeys("Test_2SAE").WithKeyID("id-1").Send(context.Background())
	require.NoError(t, err)
	assert.Equal(t, KeyMaterial("c2VjcmV0"), resp.Keys()[0].Material)

	_, err = client.Status("Test_2SAE").Send(context.Background())
	assert.ErrorIs(t, err, ErrTransport)

	transport.AssertExpectations(t)
}
