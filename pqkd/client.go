package pqkd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/ruteri/pqkd-client/cryptoutils"
)

// Default appliance ports.
const (
	DefaultKMEPort  = "8082"
	DefaultQrngPort = "8085"
)

// Client talks to one appliance. Its configuration is fixed at Build time, so a
// Client may be shared by any number of goroutines.
type Client struct {
	kmeAddr     *url.URL
	qrngAddr    *url.URL
	localTarget string
	transport   Transport
	dispatcher  *Dispatcher
	log         *slog.Logger
}

// ClientBuilder collects client configuration. Like RequestBuilder it records
// the first error and reports it from Build.
type ClientBuilder struct {
	kmeAddr     *url.URL
	qrngAddr    *url.URL
	tlsMaterial *cryptoutils.TLSMaterial
	httpClient  *http.Client
	transport   Transport
	localTarget string
	log         *slog.Logger
	err         error
}

func parseBaseAddr(field, addr string) (*url.URL, error) {
	u, err := url.Parse(addr)
	if err != nil {
		return nil, &ConfigurationError{Field: field, Err: err}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, &ConfigurationError{Field: field, Err: fmt.Errorf("unsupported scheme %q in %s", u.Scheme, addr)}
	}
	if u.Host == "" {
		return nil, &ConfigurationError{Field: field, Err: fmt.Errorf("missing host in %s", addr)}
	}
	return u, nil
}

// NewClientBuilder starts a client for the KME at addr, for example
// "http://172.16.0.154:8082". Unless WithQrngAddr is used, the QRNG service is
// expected on the same host at port 8085.
func NewClientBuilder(addr string) *ClientBuilder {
	b := &ClientBuilder{}
	b.kmeAddr, b.err = parseBaseAddr("kme address", addr)
	return b
}

// WithQrngAddr sets a separate QRNG base address.
func (b *ClientBuilder) WithQrngAddr(addr string) *ClientBuilder {
	if b.err != nil {
		return b
	}
	b.qrngAddr, b.err = parseBaseAddr("qrng address", addr)
	return b
}

// WithTLS configures mutual TLS from PEM-encoded CA certificate, client
// certificate and client private key.
func (b *ClientBuilder) WithTLS(caCert, clientCert, clientKey []byte) *ClientBuilder {
	b.tlsMaterial = &cryptoutils.TLSMaterial{
		CACert:     caCert,
		ClientCert: clientCert,
		ClientKey:  clientKey,
	}
	return b
}

// WithTLSMaterial is WithTLS for material loaded as a unit.
func (b *ClientBuilder) WithTLSMaterial(m cryptoutils.TLSMaterial) *ClientBuilder {
	b.tlsMaterial = &m
	return b
}

// WithHTTPClient replaces the underlying http.Client. TLS material, if any, is
// applied on top of a clone of its transport.
func (b *ClientBuilder) WithHTTPClient(c *http.Client) *ClientBuilder {
	b.httpClient = c
	return b
}

// WithTransport replaces the transport entirely. TLS material and the HTTP
// client are ignored.
func (b *ClientBuilder) WithTransport(t Transport) *ClientBuilder {
	b.transport = t
	return b
}

// WithLocalTarget records the SAE id of the local device.
func (b *ClientBuilder) WithLocalTarget(saeID string) *ClientBuilder {
	b.localTarget = saeID
	return b
}

func (b *ClientBuilder) WithLogger(log *slog.Logger) *ClientBuilder {
	b.log = log
	return b
}

func defaultQrngAddr(kmeAddr *url.URL) *url.URL {
	u := *kmeAddr
	u.Host = net.JoinHostPort(kmeAddr.Hostname(), DefaultQrngPort)
	return &u
}

func (b *ClientBuilder) buildTransport() (Transport, error) {
	if b.transport != nil {
		return b.transport, nil
	}

	httpClient := b.httpClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if b.tlsMaterial == nil {
		return &HTTPTransport{Client: httpClient}, nil
	}

	tlsConfig, err := b.tlsMaterial.ClientTLSConfig()
	if err != nil {
		return nil, &ConfigurationError{Field: "tls material", Err: err}
	}

	var base *http.Transport
	if t, ok := httpClient.Transport.(*http.Transport); ok {
		base = t.Clone()
	} else if httpClient.Transport == nil {
		base = http.DefaultTransport.(*http.Transport).Clone()
	} else {
		return nil, &ConfigurationError{Field: "tls material", Err: errors.New("http client transport does not accept a TLS config")}
	}
	base.TLSClientConfig = tlsConfig

	withTLS := *httpClient
	withTLS.Transport = base
	return &HTTPTransport{Client: &withTLS}, nil
}

// Build validates the configuration and returns the client.
func (b *ClientBuilder) Build() (*Client, error) {
	if b.err != nil {
		return nil, b.err
	}

	qrngAddr := b.qrngAddr
	if qrngAddr == nil {
		qrngAddr = defaultQrngAddr(b.kmeAddr)
	}

	transport, err := b.buildTransport()
	if err != nil {
		return nil, err
	}

	log := b.log
	if log == nil {
		log = slog.Default()
	}

	return &Client{
		kmeAddr:     b.kmeAddr,
		qrngAddr:    qrngAddr,
		localTarget: b.localTarget,
		transport:   transport,
		dispatcher:  NewDispatcher(b.kmeAddr, qrngAddr),
		log:         log,
	}, nil
}

func (c *Client) KMEAddr() string { return c.kmeAddr.String() }

func (c *Client) QrngAddr() string { return c.qrngAddr.String() }

// LocalTarget is the SAE id of the local device, if configured.
func (c *Client) LocalTarget() string { return c.localTarget }

// Status starts a status query for the link with saeID.
func (c *Client) Status(saeID string) *RequestBuilder {
	return newRequestBuilder(c, OpStatus, saeID)
}

// EncKeys starts a request for encryption keys shared with saeID.
func (c *Client) EncKeys(saeID string) *RequestBuilder {
	return newRequestBuilder(c, OpEncKeys, saeID)
}

// DecKeys starts a request for the keys saeID obtained with EncKeys.
func (c *Client) DecKeys(saeID string) *RequestBuilder {
	return newRequestBuilder(c, OpDecKeys, saeID)
}

// Execute dispatches a finalized request and parses the response.
func (c *Client) Execute(ctx context.Context, req *Request) (*Response, error) {
	call, err := c.dispatcher.BuildCall(req)
	if err != nil {
		return nil, err
	}

	body, err := c.roundTrip(ctx, call, slog.String("sae_id", req.SAEID()))
	if err != nil {
		return nil, err
	}

	return c.dispatcher.ParseResponse(req, body)
}

// FetchRandom fetches randomness from the QRNG service.
func (c *Client) FetchRandom(ctx context.Context, fetch *QrngFetch) (*Randomness, error) {
	call := c.dispatcher.BuildQrngCall(fetch)

	body, err := c.roundTrip(ctx, call, slog.String("format", fetch.Format().String()))
	if err != nil {
		return nil, err
	}

	return ParseRandom(fetch.Format(), body)
}

// FetchRandomAsync is FetchRandom on a separate goroutine.
func (c *Client) FetchRandomAsync(ctx context.Context, fetch *QrngFetch) *Pending[*Randomness] {
	return goPending(func() (*Randomness, error) {
		return c.FetchRandom(ctx, fetch)
	})
}

func (c *Client) fetchRandom(ctx context.Context, format QrngFormat, size uint32) (*Randomness, error) {
	fetch, err := NewQrngFetch(format, size)
	if err != nil {
		return nil, err
	}
	return c.FetchRandom(ctx, fetch)
}

// RandomHex returns size bytes of randomness, hex encoded by the appliance.
func (c *Client) RandomHex(ctx context.Context, size uint32) (string, error) {
	r, err := c.fetchRandom(ctx, FormatHex, size)
	if err != nil {
		return "", err
	}
	return r.Text, nil
}

// RandomBase64 returns size bytes of randomness, base64 encoded by the appliance.
func (c *Client) RandomBase64(ctx context.Context, size uint32) (string, error) {
	r, err := c.fetchRandom(ctx, FormatBase64, size)
	if err != nil {
		return "", err
	}
	return r.Text, nil
}

// RandomBytes returns size raw bytes of randomness.
func (c *Client) RandomBytes(ctx context.Context, size uint32) ([]byte, error) {
	r, err := c.fetchRandom(ctx, FormatBytes, size)
	if err != nil {
		return nil, err
	}
	return r.Bytes, nil
}

func (c *Client) roundTrip(ctx context.Context, call *CallSpec, attrs ...any) ([]byte, error) {
	start := time.Now()
	log := c.log.With(slog.String("op", call.Op), slog.String("url", call.URL)).With(attrs...)

	resp, err := c.transport.RoundTrip(ctx, call)
	if err != nil {
		log.Debug("Appliance request failed", "err", err, slog.Duration("duration", time.Since(start)))
		return nil, &TransportError{Op: call.Op, URL: call.URL, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Debug("Appliance returned error status",
			slog.Int("status", resp.StatusCode),
			slog.Duration("duration", time.Since(start)))
		return nil, &TransportError{Op: call.Op, URL: call.URL, StatusCode: resp.StatusCode, Body: resp.Body}
	}

	log.Debug("Appliance request completed",
		slog.Int("status", resp.StatusCode),
		slog.Int("size", len(resp.Body)),
		slog.Duration("duration", time.Since(start)))

	return resp.Body, nil
}
