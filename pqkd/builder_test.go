package pqkd

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestBuilder_Defaults(t *testing.T) {
	req, err := NewRequestBuilder(OpEncKeys, "Test_2SAE").Finalize()
	require.NoError(t, err)

	assert.Equal(t, OpEncKeys, req.Operation())
	assert.Equal(t, "Test_2SAE", req.SAEID())
	assert.Equal(t, DefaultKeySize, req.KeySize())
	assert.Equal(t, DefaultKeyCount, req.KeyCount())
	assert.Empty(t, req.KeyIDs())
}

func TestRequestBuilder_Parameters(t *testing.T) {
	req, err := NewRequestBuilder(OpEncKeys, "Test_2SAE").
		WithKeySize(1024).
		WithKeyCount(10).
		Finalize()
	require.NoError(t, err)

	assert.Equal(t, uint16(1024), req.KeySize())
	assert.Equal(t, uint32(10), req.KeyCount())
}

func TestRequestBuilder_StickyError(t *testing.T) {
	tests := []struct {
		name  string
		build func(b *RequestBuilder) *RequestBuilder
		err   error
	}{
		{
			name:  "size then count",
			build: func(b *RequestBuilder) *RequestBuilder { return b.WithKeySize(4104).WithKeyCount(0) },
			err:   ErrSizeOfKeys,
		},
		{
			name:  "count then size",
			build: func(b *RequestBuilder) *RequestBuilder { return b.WithKeyCount(0).WithKeySize(4104) },
			err:   ErrNumberOfKeys,
		},
		{
			name:  "valid size does not clear",
			build: func(b *RequestBuilder) *RequestBuilder { return b.WithKeySize(63).WithKeySize(512) },
			err:   ErrSizeOfKeys,
		},
		{
			name:  "valid count does not clear",
			build: func(b *RequestBuilder) *RequestBuilder { return b.WithKeyCount(0).WithKeyCount(5) },
			err:   ErrNumberOfKeys,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := tt.build(NewRequestBuilder(OpEncKeys, "Test_2SAE"))
			assert.ErrorIs(t, b.Err(), tt.err)

			req, err := b.Finalize()
			assert.Nil(t, req)
			assert.ErrorIs(t, err, tt.err)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestRequestBuilder_KeyIDsAfterError(t *testing.T) {
	b := NewRequestBuilder(OpDecKeys, "Test_1SAE").
		WithKeySize(100).
		WithKeyID("a").
		WithKeyIDs("b", "c")

	assert.Equal(t, []string{"a", "b", "c"}, b.KeyIDs())

	_, err := b.Finalize()
	assert.ErrorIs(t, err, ErrSizeOfKeys)
	assert.Nil(t, b.KeyIDs())
}

func TestRequestBuilder_KeyIDOrderAndDuplicates(t *testing.T) {
	req, err := NewRequestBuilder(OpDecKeys, "Test_1SAE").
		WithKeyID("c").
		WithKeyIDs("a", "c").
		WithKeyID("b").
		Finalize()
	require.NoError(t, err)

	assert.Equal(t, []string{"c", "a", "c", "b"}, req.KeyIDs())
}

func TestRequestBuilder_RequestIsImmutable(t *testing.T) {
	req, err := NewRequestBuilder(OpDecKeys, "Test_1SAE").WithKeyIDs("a", "b").Finalize()
	require.NoError(t, err)

	ids := req.KeyIDs()
	ids[0] = "changed"
	assert.Equal(t, []string{"a", "b"}, req.KeyIDs())
}

func TestRequestBuilder_Consumed(t *testing.T) {
	b := NewRequestBuilder(OpStatus, "Test_2SAE")
	_, err := b.Finalize()
	require.NoError(t, err)

	_, err = b.Finalize()
	assert.ErrorIs(t, err, ErrBuilderConsumed)

	// Setters on a consumed builder are no-ops.
	b.WithKeySize(100).WithKeyID("a")
	assert.NoError(t, b.Err())

	_, err = b.Send(context.Background())
	assert.ErrorIs(t, err, ErrBuilderConsumed)
}

func TestRequestBuilder_MissingSAEID(t *testing.T) {
	_, err := NewRequestBuilder(OpStatus, "").Finalize()
	assert.ErrorIs(t, err, ErrMissingSAEID)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRequestBuilder_UnboundSend(t *testing.T) {
	_, err := NewRequestBuilder(OpStatus, "Test_2SAE").Send(context.Background())
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = NewRequestBuilder(OpStatus, "Test_2SAE").SendAsync(context.Background()).Wait()
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestRequestBuilder_SendAsyncInvalidIsCompleted(t *testing.T) {
	pending := NewRequestBuilder(OpEncKeys, "Test_2SAE").WithKeyCount(0).SendAsync(context.Background())

	select {
	case <-pending.Done():
	default:
		t.Fatal("pending result for an invalid request should already be complete")
	}

	resp, err := pending.Wait()
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, ErrNumberOfKeys)
}
