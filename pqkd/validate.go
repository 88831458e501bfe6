package pqkd

// Protocol limits for key requests.
const (
	MinKeySize      uint16 = 64
	MaxKeySize      uint16 = 4096
	DefaultKeySize  uint16 = 512
	DefaultKeyCount uint32 = 1
)

// Caps on the amount of randomness fetched per QRNG call, in bytes of
// underlying randomness.
const (
	MaxSizeForStringFormat uint32 = 256 * 1024
	MaxSizeForBytesFormat  uint32 = 16 * 1024 * 1024
)

// ValidateKeySize checks a key size in bits against the protocol bounds.
func ValidateKeySize(size uint16) error {
	if size < MinKeySize || size > MaxKeySize || size%8 != 0 {
		return ErrSizeOfKeys
	}
	return nil
}

// ValidateKeyCount checks that at least one key is requested.
func ValidateKeyCount(count uint32) error {
	if count == 0 {
		return ErrNumberOfKeys
	}
	return nil
}

// ValidateQrngSize checks a QRNG fetch size against the cap of its format.
// There is no lower bound.
func ValidateQrngSize(format QrngFormat, size uint32) error {
	maxSize := format.MaxSize()
	if size > maxSize {
		return &InvalidSizeError{
			Format:  format,
			MaxSize: maxSize,
			Found:   size,
		}
	}
	return nil
}
