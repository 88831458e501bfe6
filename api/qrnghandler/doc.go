// Package qrnghandler implements the QRNG endpoints of the simulated appliance.
package qrnghandler
