package pqkd

import (
	"context"
	"errors"
)

var errNoClient = errors.New("request builder is not bound to a client")

// RequestBuilder accumulates the parameters of one KME operation.
//
// Size and count are validated as they are set. The first failure is sticky:
// later calls cannot clear it and it is what Finalize returns. Key IDs are
// appended unconditionally, also after a failure, and are never deduplicated or
// reordered.
//
// A builder is single-use and not safe for concurrent use.
type RequestBuilder struct {
	client  *Client
	request *Request
	err     error
}

// NewRequestBuilder creates a builder that is not bound to a client. Finalize
// works as usual; Send and SendAsync fail with a configuration error.
func NewRequestBuilder(op Operation, saeID string) *RequestBuilder {
	return newRequestBuilder(nil, op, saeID)
}

func newRequestBuilder(client *Client, op Operation, saeID string) *RequestBuilder {
	b := &RequestBuilder{client: client, request: newRequest(op, saeID)}
	if saeID == "" {
		b.err = ErrMissingSAEID
	}
	return b
}

// WithKeySize sets the key size in bits. Invalid sizes put the builder in the
// ErrSizeOfKeys state and are not applied.
func (b *RequestBuilder) WithKeySize(bits uint16) *RequestBuilder {
	if b.err != nil || b.request == nil {
		return b
	}
	if err := ValidateKeySize(bits); err != nil {
		b.err = err
		return b
	}
	b.request.size = bits
	return b
}

// WithKeyCount sets the number of fresh keys. Zero puts the builder in the
// ErrNumberOfKeys state.
func (b *RequestBuilder) WithKeyCount(n uint32) *RequestBuilder {
	if b.err != nil || b.request == nil {
		return b
	}
	if err := ValidateKeyCount(n); err != nil {
		b.err = err
		return b
	}
	b.request.number = n
	return b
}

// WithKeyID appends one key ID.
func (b *RequestBuilder) WithKeyID(id string) *RequestBuilder {
	if b.request != nil {
		b.request.keyIDs = append(b.request.keyIDs, id)
	}
	return b
}

// WithKeyIDs appends key IDs in the given order.
func (b *RequestBuilder) WithKeyIDs(ids ...string) *RequestBuilder {
	if b.request != nil {
		b.request.keyIDs = append(b.request.keyIDs, ids...)
	}
	return b
}

// KeyIDs returns the key IDs accumulated so far, including those added after a
// validation failure. It returns nil once the builder is finalized.
func (b *RequestBuilder) KeyIDs() []string {
	if b.request == nil {
		return nil
	}
	return b.request.KeyIDs()
}

// Err returns the sticky validation error, if any.
func (b *RequestBuilder) Err() error {
	return b.err
}

// Finalize returns the completed request or the first validation error. The
// builder is consumed either way.
func (b *RequestBuilder) Finalize() (*Request, error) {
	if b.request == nil {
		return nil, ErrBuilderConsumed
	}
	req := b.request
	b.request = nil
	if b.err != nil {
		return nil, b.err
	}
	return req, nil
}

// Send finalizes the request and executes it, blocking until the response is
// parsed. Invalid requests fail without any I/O.
func (b *RequestBuilder) Send(ctx context.Context) (*Response, error) {
	req, err := b.Finalize()
	if err != nil {
		return nil, err
	}
	if b.client == nil {
		return nil, &ConfigurationError{Field: "client", Err: errNoClient}
	}
	return b.client.Execute(ctx, req)
}

// SendAsync finalizes the request synchronously and executes it on a separate
// goroutine. Invalid requests return an already-completed Pending without any I/O.
func (b *RequestBuilder) SendAsync(ctx context.Context) *Pending[*Response] {
	req, err := b.Finalize()
	if err != nil {
		return completed[*Response](nil, err)
	}
	if b.client == nil {
		return completed[*Response](nil, &ConfigurationError{Field: "client", Err: errNoClient})
	}
	client := b.client
	return goPending(func() (*Response, error) {
		return client.Execute(ctx, req)
	})
}
