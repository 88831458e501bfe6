package pqkd

import (
	"fmt"
	"strings"
)

// QrngFormat selects the encoding of randomness returned by the QRNG service.
type QrngFormat int

const (
	FormatHex QrngFormat = iota
	FormatBase64
	FormatBytes
)

// String returns the path segment used by the QRNG API.
func (f QrngFormat) String() string {
	switch f {
	case FormatHex:
		return "hex"
	case FormatBase64:
		return "base64"
	case FormatBytes:
		return "bytes"
	default:
		return "unknown"
	}
}

// MaxSize returns the largest fetch allowed for the format. String-encoded
// formats are capped well below the binary one.
func (f QrngFormat) MaxSize() uint32 {
	if f == FormatBytes {
		return MaxSizeForBytesFormat
	}
	return MaxSizeForStringFormat
}

// ParseQrngFormat converts "hex", "base64" or "bytes" into a QrngFormat.
func ParseQrngFormat(s string) (QrngFormat, error) {
	switch strings.ToLower(s) {
	case "hex":
		return FormatHex, nil
	case "base64":
		return FormatBase64, nil
	case "bytes":
		return FormatBytes, nil
	default:
		return 0, fmt.Errorf("unsupported qrng format: %s", s)
	}
}

// QrngFetch is a validated request for randomness.
type QrngFetch struct {
	format QrngFormat
	size   uint32
}

// NewQrngFetch validates size against the cap of format.
func NewQrngFetch(format QrngFormat, size uint32) (*QrngFetch, error) {
	if err := ValidateQrngSize(format, size); err != nil {
		return nil, err
	}
	return &QrngFetch{format: format, size: size}, nil
}

func (f *QrngFetch) Format() QrngFormat { return f.format }

// Size is the amount of randomness requested, in bytes.
func (f *QrngFetch) Size() uint32 { return f.size }
