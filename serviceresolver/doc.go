// Package serviceresolver locates pQKD appliances through DNS SRV records.
//
// Sites with several appliances publish them under one service name, for
// example _kme._tcp.lab.example.com. ResolveAddr picks the preferred record and
// returns it as host:port, ready to be turned into a KME URL:
//
//	addr, err := serviceresolver.ResolveAddr("_kme._tcp.lab.example.com", "10.0.0.2")
//	client, err := pqkd.NewClientBuilder("https://" + addr).Build()
package serviceresolver
