// Package config loads the pqkd CLI configuration.
//
// The file is HuJSON, so comments and trailing commas are allowed:
//
//	{
//	  // lab appliance, device A
//	  "kme_addr": "https://172.16.0.154:8082",
//	  "local_sae_id": "Test_1SAE",
//	  "tls": {
//	    "locations": ["vault://vault.lab:8200/secret/pqkd/device-a", "file:///etc/pqkd/tls"],
//	    "ca": "ca.pem",
//	    "cert": "client.pem",
//	    "key": "client-key.pem",
//	  },
//	  "timeout": "10s",
//	}
//
// Instead of kme_addr, kme_srv names an SRV record to resolve against
// nameserver.
package config
