package main

import (
	"github.com/urfave/cli/v2"
)

var flagConfig = &cli.StringFlag{
	Name:    "config",
	Aliases: []string{"c"},
	Usage:   "HuJSON configuration file",
	EnvVars: []string{"PQKD_CONFIG"},
}
var flagKMEAddr = &cli.StringFlag{
	Name:    "kme-addr",
	Usage:   "KME base URL, e.g. https://172.16.0.154:8082",
	EnvVars: []string{"PQKD_KME_ADDR"},
}
var flagQrngAddr = &cli.StringFlag{
	Name:  "qrng-addr",
	Usage: "QRNG base URL (default: KME host, port 8085)",
}
var flagKMESRV = &cli.StringFlag{
	Name:  "kme-srv",
	Usage: "SRV name to resolve when --kme-addr is not given",
}
var flagNameserver = &cli.StringFlag{
	Name:  "nameserver",
	Usage: "nameserver for --kme-srv",
}
var flagLocalSAEID = &cli.StringFlag{
	Name:  "local-sae-id",
	Usage: "SAE id of this device",
}
var flagTLSLocation = &cli.StringSliceFlag{
	Name:  "tls-location",
	Usage: "storage location URI holding the TLS material, may be repeated",
}
var flagTLSCA = &cli.StringFlag{
	Name:  "tls-ca",
	Usage: "object name of the CA bundle",
}
var flagTLSCert = &cli.StringFlag{
	Name:  "tls-cert",
	Usage: "object name of the client certificate",
}
var flagTLSKey = &cli.StringFlag{
	Name:  "tls-key",
	Usage: "object name of the client key",
}
var flagInsecureSkipVerify = &cli.BoolFlag{
	Name:  "insecure-skip-verify",
	Usage: "do not verify the appliance certificate",
}
var flagTimeout = &cli.DurationFlag{
	Name:  "timeout",
	Usage: "overall deadline for the command (0 for none)",
}

var flagSAEID = &cli.StringFlag{
	Name:     "sae-id",
	Required: true,
	Usage:    "partner SAE id",
}
var flagSize = &cli.UintFlag{
	Name:  "size",
	Usage: "key size in bits (64..4096, multiple of 8)",
}
var flagNumber = &cli.UintFlag{
	Name:  "number",
	Usage: "number of keys",
}
var flagKeyID = &cli.StringSliceFlag{
	Name:  "key-id",
	Usage: "request keys with these ids, may be repeated",
}
var flagKeyIDRequired = &cli.StringSliceFlag{
	Name:     "key-id",
	Required: true,
	Usage:    "key id to redeem, may be repeated",
}
var flagFormat = &cli.StringFlag{
	Name:  "format",
	Value: "hex",
	Usage: "hex, base64 or bytes (written raw to stdout)",
}
var flagRandomSize = &cli.UintFlag{
	Name:     "size",
	Required: true,
	Usage:    "number of random bytes",
}
