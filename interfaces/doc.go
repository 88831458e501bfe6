/*
Package interfaces defines the storage abstraction used to load the TLS
material of pqkd clients.

A StorageBackend holds named objects ("ca.pem", "tls/client.pem"). Backends are
created from location URIs:

  - file:///etc/pqkd/tls
  - s3://[ACCESS_KEY:SECRET_KEY@]bucket/prefix?region=eu-central-1&endpoint=...
  - vault://vault.example.com:8200/secret/pqkd
  - ipfs://127.0.0.1:5001/<root CID>

Object names are relative slash-separated paths and are checked with
ValidateObjectName before any backend touches them.
*/
package interfaces
