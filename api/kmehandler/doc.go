// Package kmehandler implements the KME endpoints of the simulated appliance:
// link status, issuing keys (enc_keys) and redeeming them by ID (dec_keys).
package kmehandler
