package utils

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAmount(t *testing.T) {
	dec, err := ValidateAmount("1.5")
	require.NoError(t, err)
	assert.Equal(t, "1.5", dec.String())

	for _, bad := range []string{"", "abc", "-1"} {
		_, err := ValidateAmount(bad)
		assert.Error(t, err, bad)
	}

	// zero is valid here; callers decide whether zero is sendable
	_, err = ValidateAmount("0")
	assert.NoError(t, err)
}

func TestValidateAddress(t *testing.T) {
	assert.NoError(t, ValidateAddress("11111111111111111111111111111111"))

	assert.Error(t, ValidateAddress(""))
	assert.Error(t, ValidateAddress("too-short"))
	assert.Error(t, ValidateAddress("0OIl1111111111111111111111111111")) // non-base58 characters
}

func TestValidateSignature(t *testing.T) {
	sig := make([]byte, 88)
	for i := range sig {
		sig[i] = '2'
	}
	assert.NoError(t, ValidateSignature(string(sig)))

	assert.Error(t, ValidateSignature(""))
	assert.Error(t, ValidateSignature("abc"))
}

func TestParseAmountWithDecimals(t *testing.T) {
	raw, err := ParseAmountWithDecimals("0.1", 9)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(100_000_000), raw)

	raw, err = ParseAmountWithDecimals("1.0000000019", 9)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1_000_000_001), raw)
}

func TestFormatAmountFromBigInt(t *testing.T) {
	assert.Equal(t, "0.1", FormatAmountFromBigInt(big.NewInt(100_000_000), 9))
	assert.Equal(t, "1", FormatAmountFromBigInt(big.NewInt(1_000_000_000), 9))
}
