// Package common holds process-wide helpers shared by the commands.
package common

// Version is set at build time with -ldflags "-X github.com/ruteri/pqkd-client/common.Version=..."
var Version = "dev"

const PackageName = "github.com/ruteri/pqkd-client"
