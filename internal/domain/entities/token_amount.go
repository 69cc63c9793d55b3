package entities

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	domainerrors "paybridge.backend/internal/domain/errors"
)

var decimalAmountPattern = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)

// TokenAmount is a non-negative integer amount in minor units together with
// the token's decimals. Decimals are a property of the token and are never
// inferred from user input.
type TokenAmount struct {
	value    *big.Int
	decimals uint8
}

// NewTokenAmount wraps a minor-unit value.
func NewTokenAmount(value *big.Int, decimals uint8) (TokenAmount, error) {
	if value == nil || value.Sign() < 0 {
		return TokenAmount{}, fmt.Errorf("%w: amount must be a non-negative integer", domainerrors.ErrInvalidAmount)
	}
	return TokenAmount{value: new(big.Int).Set(value), decimals: decimals}, nil
}

// ParseTokenAmount parses a human decimal string such as "10.50" into minor
// units. More fractional digits than decimals is an error; nothing is rounded.
func ParseTokenAmount(text string, decimals uint8) (TokenAmount, error) {
	if !decimalAmountPattern.MatchString(text) {
		return TokenAmount{}, fmt.Errorf("%w: %q is not a non-negative decimal", domainerrors.ErrInvalidAmount, text)
	}
	if dot := strings.IndexByte(text, '.'); dot >= 0 {
		if fraction := len(text) - dot - 1; fraction > int(decimals) {
			return TokenAmount{}, fmt.Errorf("%w: %q has %d fractional digits, token allows %d", domainerrors.ErrInvalidAmount, text, fraction, decimals)
		}
	}

	d, err := decimal.NewFromString(text)
	if err != nil {
		return TokenAmount{}, fmt.Errorf("%w: %v", domainerrors.ErrInvalidAmount, err)
	}
	minor := d.Shift(int32(decimals))
	if !minor.IsInteger() {
		return TokenAmount{}, fmt.Errorf("%w: %q is not representable with %d decimals", domainerrors.ErrInvalidAmount, text, decimals)
	}
	return NewTokenAmount(minor.BigInt(), decimals)
}

// Value returns a copy of the minor-unit value.
func (a TokenAmount) Value() *big.Int {
	if a.value == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(a.value)
}

func (a TokenAmount) Decimals() uint8 {
	return a.decimals
}

func (a TokenAmount) IsZero() bool {
	return a.value == nil || a.value.Sign() == 0
}

// String formats the amount minimally: trailing fractional zeros are
// trimmed and the point is dropped for whole values ("10.5", "5", "0").
func (a TokenAmount) String() string {
	return decimal.NewFromBigInt(a.Value(), -int32(a.decimals)).String()
}
