package pqkd

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateKeySize(t *testing.T) {
	tests := []struct {
		size  uint16
		valid bool
	}{
		{0, false},
		{8, false},
		{56, false},
		{63, false},
		{64, true},
		{72, true},
		{100, false},
		{512, true},
		{4088, true},
		{4096, true},
		{4097, false},
		{4104, false},
		{65535, false},
	}

	for _, tt := range tests {
		err := ValidateKeySize(tt.size)
		if tt.valid {
			assert.NoError(t, err, "size %d", tt.size)
		} else {
			assert.ErrorIs(t, err, ErrSizeOfKeys, "size %d", tt.size)
			assert.ErrorIs(t, err, ErrValidation, "size %d", tt.size)
		}
	}
}

func TestValidateKeyCount(t *testing.T) {
	assert.ErrorIs(t, ValidateKeyCount(0), ErrNumberOfKeys)
	assert.NoError(t, ValidateKeyCount(1))
	assert.NoError(t, ValidateKeyCount(^uint32(0)))
}

func TestValidateQrngSize(t *testing.T) {
	tests := []struct {
		format QrngFormat
		size   uint32
		valid  bool
	}{
		{FormatHex, 0, true},
		{FormatHex, 256 * 1024, true},
		{FormatHex, 256*1024 + 1, false},
		{FormatBase64, 256 * 1024, true},
		{FormatBase64, 256*1024 + 1, false},
		{FormatBytes, 256*1024 + 1, true},
		{FormatBytes, 16 * 1024 * 1024, true},
		{FormatBytes, 16*1024*1024 + 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			err := ValidateQrngSize(tt.format, tt.size)
			if tt.valid {
				require.NoError(t, err)
				return
			}

			var sizeErr *InvalidSizeError
			require.True(t, errors.As(err, &sizeErr))
			assert.Equal(t, tt.format, sizeErr.Format)
			assert.Equal(t, tt.format.MaxSize(), sizeErr.MaxSize)
			assert.Equal(t, tt.size, sizeErr.Found)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestInvalidSizeErrorMessage(t *testing.T) {
	err := ValidateQrngSize(FormatHex, 300000)
	require.Error(t, err)
	assert.Equal(t, "invalid size for hex (max size 262144, found 300000)", err.Error())
}

func TestParseQrngFormat(t *testing.T) {
	for _, f := range []QrngFormat{FormatHex, FormatBase64, FormatBytes} {
		parsed, err := ParseQrngFormat(f.String())
		require.NoError(t, err)
		assert.Equal(t, f, parsed)
	}

	parsed, err := ParseQrngFormat("HEX")
	require.NoError(t, err)
	assert.Equal(t, FormatHex, parsed)

	_, err = ParseQrngFormat("octal")
	assert.Error(t, err)
}

func TestNewQrngFetch(t *testing.T) {
	fetch, err := NewQrngFetch(FormatBase64, 1024)
	require.NoError(t, err)
	assert.Equal(t, FormatBase64, fetch.Format())
	assert.Equal(t, uint32(1024), fetch.Size())

	_, err = NewQrngFetch(FormatBase64, MaxSizeForStringFormat+1)
	assert.ErrorIs(t, err, ErrValidation)
}
