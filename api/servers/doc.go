/*
Package servers runs the simulated appliance over HTTP or HTTPS.

A Server combines any number of route registrars (the KME and QRNG handlers)
with health endpoints and request logging:

  - GET /livez - always 200
  - GET /readyz - 200 unless the server is draining
  - GET /drain, GET /undrain - toggle readiness

# Example Usage

	cfg := &api.HTTPServerConfig{
	    ListenAddr:               ":8082",
	    Log:                      logger,
	    TLSConfig:                tlsConfig,
	    GracefulShutdownDuration: 30 * time.Second,
	    ReadTimeout:              60 * time.Second,
	    WriteTimeout:             30 * time.Second,
	}

	server, err := servers.New(cfg, kmehandler.NewHandler(kmeCfg, pool, logger))
	if err != nil {
	    log.Fatalf("Failed to create server: %v", err)
	}
	server.RunInBackground()
	defer server.Shutdown()
*/
package servers
