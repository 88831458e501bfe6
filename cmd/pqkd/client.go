package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/ruteri/pqkd-client/cmd/flags"
	"github.com/ruteri/pqkd-client/config"
	"github.com/ruteri/pqkd-client/cryptoutils"
	"github.com/ruteri/pqkd-client/pqkd"
	"github.com/ruteri/pqkd-client/serviceresolver"
	"github.com/ruteri/pqkd-client/storage"
	"github.com/urfave/cli/v2"
)

type Client struct {
	api     *pqkd.Client
	log     *slog.Logger
	out     io.Writer
	timeout time.Duration
}

// loadConfig reads the optional config file and applies flag overrides.
func loadConfig(cCtx *cli.Context) (*config.Config, error) {
	cfg := &config.Config{}
	if path := cCtx.String(flagConfig.Name); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	override := func(flag string, dst *string) {
		if cCtx.IsSet(flag) {
			*dst = cCtx.String(flag)
		}
	}
	override(flagKMEAddr.Name, &cfg.KMEAddr)
	override(flagQrngAddr.Name, &cfg.QrngAddr)
	override(flagKMESRV.Name, &cfg.KMESRV)
	override(flagNameserver.Name, &cfg.Nameserver)
	override(flagLocalSAEID.Name, &cfg.LocalSAEID)
	override(flagTLSCA.Name, &cfg.TLS.CA)
	override(flagTLSCert.Name, &cfg.TLS.Cert)
	override(flagTLSKey.Name, &cfg.TLS.Key)

	if cCtx.IsSet(flagTLSLocation.Name) {
		cfg.TLS.Locations = cCtx.StringSlice(flagTLSLocation.Name)
	}
	if cCtx.IsSet(flagInsecureSkipVerify.Name) {
		cfg.TLS.InsecureSkipVerify = cCtx.Bool(flagInsecureSkipVerify.Name)
	}
	if cCtx.IsSet(flagTimeout.Name) {
		cfg.Timeout = config.Duration(cCtx.Duration(flagTimeout.Name))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func NewClientConfig(cCtx *cli.Context) (*Client, error) {
	log := flags.SetupLogger(cCtx)

	cfg, err := loadConfig(cCtx)
	if err != nil {
		return nil, err
	}

	ctx := cCtx.Context
	if ctx == nil {
		ctx = context.Background()
	}

	kmeAddr := cfg.KMEAddr
	if kmeAddr == "" {
		addr, err := serviceresolver.NewResolver(cfg.Nameserver).ResolveAddr(ctx, cfg.KMESRV)
		if err != nil {
			return nil, fmt.Errorf("could not resolve %s: %w", cfg.KMESRV, err)
		}
		kmeAddr = "https://" + addr
		log.Debug("Resolved KME address", "srv", cfg.KMESRV, "addr", kmeAddr)
	}

	builder := pqkd.NewClientBuilder(kmeAddr).
		WithLogger(log).
		WithLocalTarget(cfg.LocalSAEID)
	if cfg.QrngAddr != "" {
		builder = builder.WithQrngAddr(cfg.QrngAddr)
	}

	if cfg.TLS.Enabled() || cfg.TLS.InsecureSkipVerify {
		var material cryptoutils.TLSMaterial
		if cfg.TLS.Enabled() {
			locations, err := cfg.StorageLocations()
			if err != nil {
				return nil, err
			}
			backend, err := storage.NewStorageBackendFactory(log).CreateMultiBackend(locations)
			if err != nil {
				return nil, fmt.Errorf("could not open TLS material locations: %w", err)
			}
			material, err = storage.LoadTLSMaterial(ctx, backend, cfg.TLS.CA, cfg.TLS.Cert, cfg.TLS.Key)
			if err != nil {
				return nil, err
			}
		}
		material.InsecureSkipVerify = cfg.TLS.InsecureSkipVerify
		builder = builder.WithTLSMaterial(material)
	}

	api, err := builder.Build()
	if err != nil {
		return nil, err
	}

	return &Client{
		api:     api,
		log:     log,
		out:     cCtx.App.Writer,
		timeout: time.Duration(cfg.Timeout),
	}, nil
}

func (c *Client) context() (context.Context, context.CancelFunc) {
	if c.timeout > 0 {
		return context.WithTimeout(context.Background(), c.timeout)
	}
	return context.WithCancel(context.Background())
}

func (c *Client) printJSON(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type keysOutput struct {
	Keys []pqkd.Key `json:"keys"`
}

func (c *Client) Status(saeID string) error {
	ctx, cancel := c.context()
	defer cancel()

	resp, err := c.api.Status(saeID).Send(ctx)
	if err != nil {
		return fmt.Errorf("status request failed: %w", err)
	}
	status, _ := resp.AsStatus()
	return c.printJSON(status)
}

func (c *Client) EncKeys(cCtx *cli.Context) error {
	builder := c.api.EncKeys(cCtx.String(flagSAEID.Name))
	if cCtx.IsSet(flagSize.Name) {
		size := cCtx.Uint(flagSize.Name)
		if size > math.MaxUint16 {
			return fmt.Errorf("%w: key size %d out of range", pqkd.ErrSizeOfKeys, size)
		}
		builder = builder.WithKeySize(uint16(size))
	}
	if cCtx.IsSet(flagNumber.Name) {
		number := cCtx.Uint(flagNumber.Name)
		if number > math.MaxUint32 {
			return fmt.Errorf("%w: %d", pqkd.ErrNumberOfKeys, number)
		}
		builder = builder.WithKeyCount(uint32(number))
	}
	if ids := cCtx.StringSlice(flagKeyID.Name); len(ids) > 0 {
		builder = builder.WithKeyIDs(ids...)
	}

	ctx, cancel := c.context()
	defer cancel()

	resp, err := builder.Send(ctx)
	if err != nil {
		return fmt.Errorf("enc_keys request failed: %w", err)
	}
	return c.printJSON(keysOutput{Keys: resp.Keys()})
}

func (c *Client) DecKeys(saeID string, ids []string) error {
	ctx, cancel := c.context()
	defer cancel()

	resp, err := c.api.DecKeys(saeID).WithKeyIDs(ids...).Send(ctx)
	if err != nil {
		return fmt.Errorf("dec_keys request failed: %w", err)
	}
	if local := c.api.LocalTarget(); local != "" {
		c.log.Debug("Redeemed keys", "local_sae", local, "partner_sae", saeID, "count", len(resp.Keys()))
	}
	return c.printJSON(keysOutput{Keys: resp.Keys()})
}

func (c *Client) Random(format string, size uint) error {
	f, err := pqkd.ParseQrngFormat(format)
	if err != nil {
		return err
	}
	if size > math.MaxUint32 {
		return fmt.Errorf("%w: random size %d out of range", pqkd.ErrValidation, size)
	}
	fetch, err := pqkd.NewQrngFetch(f, uint32(size))
	if err != nil {
		return err
	}

	ctx, cancel := c.context()
	defer cancel()

	random, err := c.api.FetchRandom(ctx, fetch)
	if err != nil {
		return fmt.Errorf("qrng request failed: %w", err)
	}

	if f == pqkd.FormatBytes {
		_, err = c.out.Write(random.Bytes)
		return err
	}
	_, err = fmt.Fprintln(c.out, random.Text)
	return err
}
