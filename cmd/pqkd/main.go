package main

import (
	"log"
	"os"

	"github.com/ruteri/pqkd-client/cmd/flags"
	"github.com/urfave/cli/v2"
)

const usage string = `Query a pQKD appliance: link status, key delivery and quantum random numbers.

Settings come from --config (HuJSON) and are overridden by flags.`

func newApp() *cli.App {
	return &cli.App{
		Name:  "pqkd",
		Usage: usage,
		Flags: append([]cli.Flag{
			flagConfig,
			flagKMEAddr,
			flagQrngAddr,
			flagKMESRV,
			flagNameserver,
			flagLocalSAEID,
			flagTLSLocation,
			flagTLSCA,
			flagTLSCert,
			flagTLSKey,
			flagInsecureSkipVerify,
			flagTimeout,
			flags.LogServiceFlagFn("pqkd"),
		}, flags.LogFlags...),
		Commands: []*cli.Command{
			{
				Name:  "status",
				Usage: "show the status of the link with a partner SAE",
				Flags: []cli.Flag{flagSAEID},
				Action: func(cCtx *cli.Context) error {
					c, err := NewClientConfig(cCtx)
					if err != nil {
						return err
					}
					return c.Status(cCtx.String(flagSAEID.Name))
				},
			},
			{
				Name:  "enc-keys",
				Usage: "fetch new keys to share with a partner SAE",
				Flags: []cli.Flag{flagSAEID, flagSize, flagNumber, flagKeyID},
				Action: func(cCtx *cli.Context) error {
					c, err := NewClientConfig(cCtx)
					if err != nil {
						return err
					}
					return c.EncKeys(cCtx)
				},
			},
			{
				Name:  "dec-keys",
				Usage: "redeem keys issued to a partner SAE by id",
				Flags: []cli.Flag{flagSAEID, flagKeyIDRequired},
				Action: func(cCtx *cli.Context) error {
					c, err := NewClientConfig(cCtx)
					if err != nil {
						return err
					}
					return c.DecKeys(cCtx.String(flagSAEID.Name), cCtx.StringSlice(flagKeyIDRequired.Name))
				},
			},
			{
				Name:  "random",
				Usage: "fetch quantum random numbers",
				Flags: []cli.Flag{flagFormat, flagRandomSize},
				Action: func(cCtx *cli.Context) error {
					c, err := NewClientConfig(cCtx)
					if err != nil {
						return err
					}
					return c.Random(cCtx.String(flagFormat.Name), cCtx.Uint(flagRandomSize.Name))
				},
			},
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
