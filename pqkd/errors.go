package pqkd

import (
	"errors"
	"fmt"
)

// Error categories. Every error returned by this package matches exactly one of
// them with errors.Is.
var (
	// ErrValidation is the category of errors raised locally by the request
	// builder. Requests failing validation never reach the network.
	ErrValidation = errors.New("invalid request")

	// ErrConfiguration is the category of errors raised while building a Client
	// (malformed base address, malformed TLS material).
	ErrConfiguration = errors.New("invalid client configuration")

	// ErrTransport is the category of network failures and non-2xx responses.
	ErrTransport = errors.New("transport failure")

	// ErrDeserialization is the category of 2xx responses whose body does not
	// match the expected schema.
	ErrDeserialization = errors.New("malformed response")
)

var (
	// ErrSizeOfKeys is returned when a key size is outside [MinKeySize, MaxKeySize]
	// or not a multiple of 8.
	ErrSizeOfKeys = &validationError{msg: "key size min = 64, max = 4096, and number must be divisible by 8"}

	// ErrNumberOfKeys is returned when zero keys are requested.
	ErrNumberOfKeys = &validationError{msg: "min number of keys = 1"}

	// ErrMissingSAEID is returned for requests with an empty target SAE id.
	ErrMissingSAEID = &validationError{msg: "missing target SAE id"}

	// ErrBuilderConsumed is returned when a builder is finalized a second time.
	ErrBuilderConsumed = &validationError{msg: "request builder already consumed"}
)

type validationError struct {
	msg string
}

func (e *validationError) Error() string { return e.msg }

func (e *validationError) Is(target error) bool { return target == ErrValidation }

// InvalidSizeError reports a QRNG fetch larger than the cap of its format.
type InvalidSizeError struct {
	Format  QrngFormat
	MaxSize uint32
	Found   uint32
}

func (e *InvalidSizeError) Error() string {
	return fmt.Sprintf("invalid size for %s (max size %d, found %d)", e.Format, e.MaxSize, e.Found)
}

func (e *InvalidSizeError) Is(target error) bool { return target == ErrValidation }

// ConfigurationError is raised at client construction.
type ConfigurationError struct {
	Field string
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// TransportError wraps a failed round-trip. StatusCode is zero when no response
// was received at all.
type TransportError struct {
	Op         string
	URL        string
	StatusCode int
	Body       []byte
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s returned %d: %s", e.Op, e.URL, e.StatusCode, string(e.Body))
	}
	return fmt.Sprintf("%s: could not request %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// DeserializationError wraps a 2xx response that could not be parsed.
type DeserializationError struct {
	Op  string
	Err error
}

func (e *DeserializationError) Error() string {
	return fmt.Sprintf("could not parse %s response: %v", e.Op, e.Err)
}

func (e *DeserializationError) Unwrap() error { return e.Err }

func (e *DeserializationError) Is(target error) bool { return target == ErrDeserialization }
