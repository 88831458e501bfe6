// Package cryptoutils validates the PEM material used for mutual TLS with pQKD
// appliances and builds client TLS configurations from it.
//
// TLSMaterial holds an optional CA bundle and an optional client certificate
// and key pair. ClientTLSConfig checks every part before building the config,
// so malformed material is reported when the client is built rather than on the
// first handshake.
//
// GenerateTestPKI creates a throwaway CA with a server and a client identity
// for local appliance simulators and tests.
package cryptoutils
