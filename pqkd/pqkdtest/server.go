// Package pqkdtest runs an in-process pQKD appliance for tests.
//
// A Server serves both the KME and the QRNG API on one httptest listener,
// records every request it receives, and can be told to answer specific routes
// with canned responses. Routes without a canned response are served by the
// simulator in api/kmehandler and api/qrnghandler.
package pqkdtest

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"

	"github.com/flashbots/go-utils/httplogger"
	"github.com/go-chi/chi/v5"
	"github.com/ruteri/pqkd-client/api/kmehandler"
	"github.com/ruteri/pqkd-client/api/qrnghandler"
	"github.com/ruteri/pqkd-client/cryptoutils"
	"go.uber.org/atomic"
)

// DefaultPoolCapacity is the key pool size used when Config.Pool is nil.
const DefaultPoolCapacity = 4096

// Request is one request received by the server.
type Request struct {
	Method      string
	Path        string
	Query       url.Values
	ContentType string
	Body        []byte
}

// Response is a canned response.
type Response struct {
	Status      int
	ContentType string
	Body        []byte
}

type Config struct {
	// Device describes the simulated KME. Zero fields take simulator defaults.
	Device kmehandler.Config

	// Pool is shared with the partner device, if any. A private pool is created
	// when nil.
	Pool *kmehandler.KeyPool

	// Randomness feeds the QRNG endpoints; crypto/rand when nil.
	Randomness io.Reader

	// PKI enables mutual TLS with the server certificate of the test PKI.
	PKI *cryptoutils.TestPKI

	Log *slog.Logger
}

type Server struct {
	URL string

	ts   *httptest.Server
	pool *kmehandler.KeyPool
	log  *slog.Logger

	mu       sync.Mutex
	requests []Request
	canned   map[string]Response
	count    atomic.Int64
}

// NewServer starts a server. Callers must Close it.
func NewServer(cfg Config) (*Server, error) {
	log := cfg.Log
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	pool := cfg.Pool
	if pool == nil {
		pool = kmehandler.NewKeyPool(DefaultPoolCapacity)
	}

	s := &Server{
		pool:   pool,
		log:    log,
		canned: make(map[string]Response),
	}

	router := chi.NewRouter()
	router.Use(s.httpLogger, s.record, s.serveCanned)
	kmehandler.NewHandler(cfg.Device, pool, log).RegisterRoutes(router)
	qrnghandler.NewHandler(cfg.Randomness, log).RegisterRoutes(router)

	s.ts = httptest.NewUnstartedServer(router)
	if cfg.PKI != nil {
		tlsConfig, err := cfg.PKI.ServerTLSConfig()
		if err != nil {
			return nil, err
		}
		s.ts.TLS = tlsConfig
		s.ts.StartTLS()
	} else {
		s.ts.Start()
	}
	s.URL = s.ts.URL

	return s, nil
}

// NewLink starts two servers sharing one key pool, modelling the two devices of
// a QKD link. Keys issued by one are redeemable at the other.
func NewLink(master, slave Config) (*Server, *Server, error) {
	pool := master.Pool
	if pool == nil {
		pool = kmehandler.NewKeyPool(DefaultPoolCapacity)
	}
	master.Pool = pool
	slave.Pool = pool

	m, err := NewServer(master)
	if err != nil {
		return nil, nil, err
	}
	s, err := NewServer(slave)
	if err != nil {
		m.Close()
		return nil, nil, err
	}
	return m, s, nil
}

func (s *Server) Close() {
	s.ts.Close()
}

// Pool returns the key pool backing the KME endpoints.
func (s *Server) Pool() *kmehandler.KeyPool {
	return s.pool
}

// Handle makes the server answer method and path with resp instead of
// simulating the appliance. The path excludes the query string.
func (s *Server) Handle(method, path string, resp Response) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.canned[method+" "+path] = resp
}

// HandleJSON is Handle with a JSON-encoded body.
func (s *Server) HandleJSON(method, path string, status int, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}
	s.Handle(method, path, Response{Status: status, ContentType: "application/json", Body: body})
	return nil
}

// Requests returns a copy of the requests received so far, oldest first.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// LastRequest returns the most recent request, or false when there was none.
func (s *Server) LastRequest() (Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return Request{}, false
	}
	return s.requests[len(s.requests)-1], true
}

// RequestCount returns the number of requests received so far.
func (s *Server) RequestCount() int64 {
	return s.count.Load()
}

func (s *Server) httpLogger(next http.Handler) http.Handler {
	return httplogger.LoggingMiddlewareSlog(s.log, next)
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "failed to read body", http.StatusBadRequest)
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:      r.Method,
			Path:        r.URL.Path,
			Query:       r.URL.Query(),
			ContentType: r.Header.Get("Content-Type"),
			Body:        body,
		})
		s.mu.Unlock()
		s.count.Inc()

		next.ServeHTTP(w, r)
	})
}

func (s *Server) serveCanned(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		resp, found := s.canned[r.Method+" "+r.URL.Path]
		s.mu.Unlock()
		if !found {
			next.ServeHTTP(w, r)
			return
		}

		if resp.ContentType != "" {
			w.Header().Set("Content-Type", resp.ContentType)
		}
		status := resp.Status
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		w.Write(resp.Body)
	})
}
