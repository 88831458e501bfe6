package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ruteri/pqkd-client/api"
	"github.com/ruteri/pqkd-client/api/kmehandler"
	"github.com/ruteri/pqkd-client/api/qrnghandler"
	"github.com/ruteri/pqkd-client/api/servers"
	"github.com/ruteri/pqkd-client/cryptoutils"
	"github.com/ruteri/pqkd-client/interfaces"
	"github.com/ruteri/pqkd-client/storage"
)

type serverConfig = api.HTTPServerConfig

type options struct {
	KMEListenAddr     string
	QrngListenAddr    string
	PartnerListenAddr string

	KMEID        string
	SAEID        string
	PartnerKMEID string
	PartnerSAEID string

	PoolCapacity uint32

	TLS      bool
	TLSHosts []string
	TLSStore string
}

// simulator is one appliance, optionally with its partner device, sharing a
// key pool.
type simulator struct {
	kme     *servers.Server
	qrng    *servers.Server
	partner *servers.Server

	pool *kmehandler.KeyPool
	pki  *cryptoutils.TestPKI
	log  *slog.Logger
}

func newSimulator(ctx context.Context, opts options, configure func(listenAddr string) *serverConfig, log *slog.Logger) (*simulator, error) {
	if opts.PoolCapacity == 0 {
		return nil, errors.New("pool capacity must be positive")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	sim := &simulator{
		pool: kmehandler.NewKeyPool(opts.PoolCapacity),
		log:  log,
	}

	var tlsConfig *tls.Config
	if opts.TLS {
		pki, err := cryptoutils.GenerateTestPKI(opts.TLSHosts...)
		if err != nil {
			return nil, fmt.Errorf("failed to generate test PKI: %w", err)
		}
		tlsConfig, err = pki.ServerTLSConfig()
		if err != nil {
			return nil, err
		}
		sim.pki = pki

		if opts.TLSStore != "" {
			if err := storeClientMaterial(ctx, opts.TLSStore, pki, log); err != nil {
				return nil, err
			}
		}
	} else if opts.TLSStore != "" {
		return nil, errors.New("tls-store requires tls")
	}

	newServer := func(listenAddr string, handler servers.RouteRegistrar) (*servers.Server, error) {
		cfg := configure(listenAddr)
		cfg.TLSConfig = tlsConfig
		return servers.New(cfg, handler)
	}

	var err error
	sim.kme, err = newServer(opts.KMEListenAddr, kmehandler.NewHandler(kmehandler.Config{
		SourceKMEID: opts.KMEID,
		MasterSAEID: opts.SAEID,
	}, sim.pool, log.With("device", opts.KMEID)))
	if err != nil {
		return nil, fmt.Errorf("kme server: %w", err)
	}

	sim.qrng, err = newServer(opts.QrngListenAddr, qrnghandler.NewHandler(nil, log))
	if err != nil {
		return nil, fmt.Errorf("qrng server: %w", err)
	}

	if opts.PartnerListenAddr != "" {
		sim.partner, err = newServer(opts.PartnerListenAddr, kmehandler.NewHandler(kmehandler.Config{
			SourceKMEID: opts.PartnerKMEID,
			MasterSAEID: opts.PartnerSAEID,
		}, sim.pool, log.With("device", opts.PartnerKMEID)))
		if err != nil {
			return nil, fmt.Errorf("partner server: %w", err)
		}
	}

	return sim, nil
}

func storeClientMaterial(ctx context.Context, uri string, pki *cryptoutils.TestPKI, log *slog.Logger) error {
	location, err := interfaces.NewStorageBackendLocation(uri)
	if err != nil {
		return err
	}
	backend, err := storage.NewStorageBackendFactory(log).StorageBackendFor(location)
	if err != nil {
		return err
	}
	if err := storage.StoreTLSMaterial(ctx, backend, pki.ClientMaterial(), storage.DefaultTLSObjectNames); err != nil {
		return err
	}
	log.Info("Stored client TLS material", "location", backend.LocationURI())
	return nil
}

func (s *simulator) all() []*servers.Server {
	all := []*servers.Server{s.kme, s.qrng}
	if s.partner != nil {
		all = append(all, s.partner)
	}
	return all
}

func (s *simulator) RunInBackground() {
	for _, srv := range s.all() {
		srv.RunInBackground()
	}
}

func (s *simulator) Shutdown() {
	for _, srv := range s.all() {
		srv.Shutdown()
	}
}
