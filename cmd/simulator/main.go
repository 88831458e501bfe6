package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ruteri/pqkd-client/cmd/flags"
	"github.com/urfave/cli/v2"
)

var cliFlags = append([]cli.Flag{
	&cli.StringFlag{
		Name:  "kme-listen-addr",
		Value: "127.0.0.1:8082",
		Usage: "address to serve the KME API on",
	},
	&cli.StringFlag{
		Name:  "qrng-listen-addr",
		Value: "127.0.0.1:8085",
		Usage: "address to serve the QRNG API on",
	},
	&cli.StringFlag{
		Name:  "partner-listen-addr",
		Usage: "if set, also serve the partner device's KME API here, sharing the key pool",
	},
	&cli.StringFlag{
		Name:  "kme-id",
		Value: "Test_1KME",
		Usage: "source_KME_ID reported by the device",
	},
	&cli.StringFlag{
		Name:  "sae-id",
		Value: "Test_1SAE",
		Usage: "master_SAE_ID reported by the device",
	},
	&cli.StringFlag{
		Name:  "partner-kme-id",
		Value: "Test_2KME",
		Usage: "source_KME_ID reported by the partner device",
	},
	&cli.StringFlag{
		Name:  "partner-sae-id",
		Value: "Test_2SAE",
		Usage: "master_SAE_ID reported by the partner device",
	},
	&cli.UintFlag{
		Name:  "pool-capacity",
		Value: 4096,
		Usage: "maximum number of keys held by the link",
	},
	&cli.BoolFlag{
		Name:  "tls",
		Usage: "serve HTTPS with a freshly generated test PKI and require client certificates",
	},
	&cli.StringSliceFlag{
		Name:  "tls-host",
		Value: cli.NewStringSlice("127.0.0.1", "localhost"),
		Usage: "names and IPs in the server certificate",
	},
	&cli.StringFlag{
		Name:  "tls-store",
		Usage: "storage location URI to write the client TLS material to (ca.pem, client.pem, client-key.pem)",
	},
	flags.LogServiceFlagFn("pqkd-simulator"),
}, append(flags.LogFlags, flags.ServerFlags...)...)

func main() {
	app := &cli.App{
		Name:  "pqkd-simulator",
		Usage: "Serve a simulated pQKD appliance: KME and QRNG APIs backed by an in-memory key pool",
		Flags: cliFlags,
		Action: func(cCtx *cli.Context) error {
			logger := flags.SetupLogger(cCtx)

			sim, err := newSimulator(cCtx.Context, optionsFromCLI(cCtx), func(listenAddr string) *serverConfig {
				return flags.ConfigureServer(cCtx, logger, listenAddr)
			}, logger)
			if err != nil {
				logger.Error("Failed to set up simulator", "err", err)
				return err
			}

			sim.RunInBackground()

			exit := make(chan os.Signal, 1)
			signal.Notify(exit, os.Interrupt, syscall.SIGTERM)

			logger.Info("Simulator is running, press Ctrl+C to stop")
			<-exit
			logger.Info("Shutdown signal received")

			sim.Shutdown()
			logger.Info("Simulator shutdown complete")

			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func optionsFromCLI(cCtx *cli.Context) options {
	return options{
		KMEListenAddr:     cCtx.String("kme-listen-addr"),
		QrngListenAddr:    cCtx.String("qrng-listen-addr"),
		PartnerListenAddr: cCtx.String("partner-listen-addr"),
		KMEID:             cCtx.String("kme-id"),
		SAEID:             cCtx.String("sae-id"),
		PartnerKMEID:      cCtx.String("partner-kme-id"),
		PartnerSAEID:      cCtx.String("partner-sae-id"),
		PoolCapacity:      uint32(cCtx.Uint("pool-capacity")),
		TLS:               cCtx.Bool("tls"),
		TLSHosts:          cCtx.StringSlice("tls-host"),
		TLSStore:          cCtx.String("tls-store"),
	}
}
