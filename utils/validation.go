package utils

import (
	"fmt"
	"math/big"
	"regexp"

	"github.com/shopspring/decimal"
)

var base58Re = regexp.MustCompile("^[1-9A-HJ-NP-Za-km-z]+$")

// ValidateAmount checks that an amount string is a valid, non-negative
// decimal.
func ValidateAmount(amount string) (*decimal.Decimal, error) {
	if amount == "" {
		return nil, fmt.Errorf("amount cannot be empty")
	}

	dec, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount format: %w", err)
	}

	if dec.IsNegative() {
		return nil, fmt.Errorf("amount cannot be negative")
	}

	return &dec, nil
}

// ValidateAddress checks that an account identifier looks like a
// base58 public key. Full curve validation is left to the ledger SDK.
func ValidateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("address cannot be empty")
	}
	if len(address) < 32 || len(address) > 44 {
		return fmt.Errorf("address has invalid length")
	}
	if !base58Re.MatchString(address) {
		return fmt.Errorf("address must be valid base58")
	}
	return nil
}

// ValidateSignature checks that a transaction signature looks like a
// base58 ledger signature.
func ValidateSignature(sig string) error {
	if sig == "" {
		return fmt.Errorf("signature cannot be empty")
	}
	if len(sig) < 80 || len(sig) > 90 {
		return fmt.Errorf("signature has invalid length")
	}
	if !base58Re.MatchString(sig) {
		return fmt.Errorf("signature must be valid base58")
	}
	return nil
}

// ParseAmountWithDecimals parses a decimal amount string and converts
// it to a raw integer amount with the given decimal precision.
func ParseAmountWithDecimals(amount string, decimals int) (*big.Int, error) {
	dec, err := ValidateAmount(amount)
	if err != nil {
		return nil, err
	}

	multiplier := decimal.NewFromBigInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil), 0)
	result := dec.Mul(multiplier).Floor()

	return result.BigInt(), nil
}

// FormatAmountFromBigInt renders a raw integer amount as a decimal
// string with the given precision.
func FormatAmountFromBigInt(amount *big.Int, decimals int) string {
	return decimal.NewFromBigInt(amount, -int32(decimals)).String()
}
