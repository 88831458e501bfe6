// Package storage keeps named objects, mostly the PEM material a pQKD client
// needs for mutual TLS, behind pluggable backends.
//
// Backends are selected by location URI:
//
//	[scheme]://[auth@]host[:port][/path][?params]
//
// Supported URI schemes:
//
//   - file:///etc/pqkd/tls/
//   - s3://ACCESS:SECRET@bucket/prefix/?region=eu-central-1&endpoint=http://minio:9000&path_style=true
//   - vault://TOKEN@vault.example.com:8200/secret/pqkd/device-1?tls=false
//   - ipfs://127.0.0.1:5001/<root CID>?timeout=10s
//
// IPFS locations are read-only. Vault locations use the KV v2 engine and keep
// each object in the "content" field of its own secret.
//
// # Multiple Locations
//
// CreateMultiBackend combines several locations. Fetch returns the first copy
// found, in configuration order, skipping backends that report themselves
// unavailable. Store writes to every available backend and succeeds if any of
// them accepted the object.
//
// # TLS Material
//
// LoadTLSMaterial fetches the CA bundle, client certificate and client key by
// name and validates them together:
//
//	backend, err := storage.NewStorageBackendFactory(log).CreateMultiBackend(locations)
//	material, err := storage.LoadTLSMaterial(ctx, backend, "ca.pem", "client.pem", "client-key.pem")
package storage
