/*
Package api holds the wire types and server configuration of the simulated pQKD
appliance.

The appliance exposes two HTTP services, normally on separate ports:

  - KME (port 8082): status, enc_keys and dec_keys under /api/v1/keys/{sae_id}/
  - QRNG (port 8085): /qrng/{hex|base64|bytes}?size=N

Subpackages:

 1. kmehandler - KME endpoints backed by a key pool that can be shared by two
    simulated devices, so keys issued by one are redeemable at the other
 2. qrnghandler - QRNG endpoints
 3. servers - HTTP server lifecycle (routing, request logging, drain, shutdown)

The simulator is used by pqkd/pqkdtest in tests and by cmd/simulator for manual
runs against the pqkd CLI.
*/
package api
