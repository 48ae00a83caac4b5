// Package packing implements the lossy mantissa/exponent encoding used for
// amount and fee fields inside the zkDpos public data. Values are packed as
// mantissa * 10^exponent with the exponent stored in the high bits, big
// endian on the wire, so the byte ordering of packed values follows the
// value ordering. Packing rounds down to the closest representable value,
// so unpack(pack(x)) <= x always holds.
package packing

import (
	"errors"
	"fmt"
	"math/big"
)

// Bit widths of the packed representations. These must match the circuit
// parameters and the settlement contract, and can never change.
const (
	AmountExpBits      = 5
	AmountMantissaBits = 35
	AmountBytes        = (AmountExpBits + AmountMantissaBits) / 8

	FeeExpBits      = 5
	FeeMantissaBits = 11
	FeeBytes        = (FeeExpBits + FeeMantissaBits) / 8
)

// ErrValueTooLarge is returned when a value exceeds the packed
// representable range.
var ErrValueTooLarge = errors.New("value is too large to be packed")

var ten = big.NewInt(10)

// =============================================================================

// PackAmount encodes a token amount into its 5 byte packed form, rounding
// down to the closest representable value.
func PackAmount(amount *big.Int) ([]byte, error) {
	return packFloat(amount, AmountMantissaBits, AmountExpBits, AmountBytes)
}

// UnpackAmount decodes a 5 byte packed amount.
func UnpackAmount(data []byte) (*big.Int, error) {
	return unpackFloat(data, AmountMantissaBits, AmountExpBits, AmountBytes)
}

// PackFee encodes a fee into its 2 byte packed form, rounding down to the
// closest representable value.
func PackFee(fee *big.Int) ([]byte, error) {
	return packFloat(fee, FeeMantissaBits, FeeExpBits, FeeBytes)
}

// UnpackFee decodes a 2 byte packed fee.
func UnpackFee(data []byte) (*big.Int, error) {
	return unpackFloat(data, FeeMantissaBits, FeeExpBits, FeeBytes)
}

// ClosestPackableAmount returns the largest representable amount that does
// not exceed the provided value.
func ClosestPackableAmount(amount *big.Int) (*big.Int, error) {
	data, err := PackAmount(amount)
	if err != nil {
		return nil, err
	}
	return UnpackAmount(data)
}

// ClosestPackableFee returns the largest representable fee that does not
// exceed the provided value.
func ClosestPackableFee(fee *big.Int) (*big.Int, error) {
	data, err := PackFee(fee)
	if err != nil {
		return nil, err
	}
	return UnpackFee(data)
}

// IsPackableAmount reports whether the amount survives packing exactly.
func IsPackableAmount(amount *big.Int) bool {
	closest, err := ClosestPackableAmount(amount)
	return err == nil && closest.Cmp(amount) == 0
}

// IsPackableFee reports whether the fee survives packing exactly.
func IsPackableFee(fee *big.Int) bool {
	closest, err := ClosestPackableFee(fee)
	return err == nil && closest.Cmp(fee) == 0
}

// =============================================================================

// packFloat finds the canonical representation of the value: the smallest
// exponent whose mantissa fits the mantissa width. The smallest exponent
// keeps the most precision and makes the encoding deterministic.
func packFloat(value *big.Int, mantissaBits, expBits, width int) ([]byte, error) {
	if value == nil || value.Sign() < 0 {
		return nil, fmt.Errorf("value must be a non negative integer")
	}

	maxMantissa := new(big.Int).Lsh(big.NewInt(1), uint(mantissaBits))
	maxMantissa.Sub(maxMantissa, big.NewInt(1))
	maxExp := uint64(1)<<uint(expBits) - 1

	mantissa := new(big.Int).Set(value)
	var exp uint64
	for mantissa.Cmp(maxMantissa) > 0 {
		if exp == maxExp {
			return nil, ErrValueTooLarge
		}
		mantissa.Div(mantissa, ten)
		exp++
	}

	// The exponent occupies the high bits: the canonical smallest
	// exponent makes exponent classes ordered by value, so packed byte
	// comparison agrees with numeric comparison.
	packed := exp<<uint(mantissaBits) | mantissa.Uint64()

	data := make([]byte, width)
	for i := width - 1; i >= 0; i-- {
		data[i] = byte(packed)
		packed >>= 8
	}

	return data, nil
}

// unpackFloat decodes the packed bytes back into the exact value the
// mantissa/exponent pair represents.
func unpackFloat(data []byte, mantissaBits, expBits, width int) (*big.Int, error) {
	if len(data) != width {
		return nil, fmt.Errorf("packed value must be %d bytes, got %d", width, len(data))
	}

	var packed uint64
	for _, b := range data {
		packed = packed<<8 | uint64(b)
	}

	exp := packed >> uint(mantissaBits)
	mantissa := packed & (1<<uint(mantissaBits) - 1)

	scale := new(big.Int).Exp(ten, new(big.Int).SetUint64(exp), nil)
	return scale.Mul(scale, new(big.Int).SetUint64(mantissa)), nil
}
