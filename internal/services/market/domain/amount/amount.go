// Package amount parses the arbitrary-precision integer amounts carried by
// marketplace commands.
//
// Prices and payments arrive either as JSON strings or JSON numbers. Strings
// accept decimal digits with an optional sign, or a 0x/0o/0b prefixed literal.
// Numbers are parsed exactly, so 1e21 is accepted while 1.5 is not. Negative
// values are rejected, and so is anything wider than 256 bits.
package amount

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// MaxBits is the widest accepted amount, a uint256.
	MaxBits = 256
	// MaxDigits is the decimal width of the largest uint256.
	MaxDigits = 78
	// MaxLiteralLen bounds the text of a single value before it is parsed.
	MaxLiteralLen = 1024
)

var (
	// ErrMissing indicates an absent or null amount.
	ErrMissing = errors.New("amount is required")
	// ErrInvalid indicates a value that is not an integer literal.
	ErrInvalid = errors.New("amount must be an integer")
	// ErrNegative indicates a value below zero.
	ErrNegative = errors.New("amount must not be negative")
	// ErrTooLarge indicates a value wider than MaxBits. It wraps ErrInvalid.
	ErrTooLarge = fmt.Errorf("%w: exceeds %d bits", ErrInvalid, MaxBits)
)

// Parse decodes a JSON string or number into a non-negative integer.
func Parse(raw json.RawMessage) (*big.Int, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, ErrMissing
	}
	switch c := trimmed[0]; {
	case c == '"':
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		return ParseString(text)
	case c == '-' || (c >= '0' && c <= '9'):
		return parseNumber(string(trimmed))
	default:
		return nil, fmt.Errorf("%w: got %s", ErrInvalid, trimmed)
	}
}

// ParseString decodes an integer literal. An empty string is zero.
func ParseString(text string) (*big.Int, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return new(big.Int), nil
	}
	if len(text) > MaxLiteralLen {
		return nil, ErrTooLarge
	}
	base := 10
	if len(text) > 2 && text[0] == '0' {
		switch text[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 10 {
			text = text[2:]
		}
	}
	if base != 10 && (text[0] == '+' || text[0] == '-') {
		return nil, fmt.Errorf("%w: sign after base prefix", ErrInvalid)
	}
	value, ok := new(big.Int).SetString(text, base)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalid, text)
	}
	if value.Sign() < 0 {
		return nil, ErrNegative
	}
	if value.BitLen() > MaxBits {
		return nil, ErrTooLarge
	}
	return value, nil
}

// parseNumber reads the coefficient and exponent separately so a short
// literal such as 1e300000000 is rejected without being expanded.
func parseNumber(literal string) (*big.Int, error) {
	if len(literal) > MaxLiteralLen {
		return nil, ErrTooLarge
	}
	value, err := decimal.NewFromString(literal)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if value.Sign() < 0 {
		return nil, ErrNegative
	}
	if value.IsZero() {
		return new(big.Int), nil
	}
	coefficient := value.Coefficient()
	digits := int64(len(coefficient.String()))
	exp := int64(value.Exponent())
	if exp >= 0 {
		if digits+exp > MaxDigits {
			return nil, ErrTooLarge
		}
		scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(exp), nil)
		coefficient.Mul(coefficient, scale)
	} else {
		// A nonzero coefficient shorter than the fraction cannot be whole.
		if -exp > digits {
			return nil, fmt.Errorf("%w: %s", ErrInvalid, literal)
		}
		scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(-exp), nil)
		remainder := new(big.Int)
		coefficient.QuoRem(coefficient, scale, remainder)
		if remainder.Sign() != 0 {
			return nil, fmt.Errorf("%w: %s", ErrInvalid, literal)
		}
	}
	if coefficient.BitLen() > MaxBits {
		return nil, ErrTooLarge
	}
	return coefficient, nil
}

// Format renders an amount as a base-10 string. A nil amount renders as "0".
func Format(value *big.Int) string {
	if value == nil {
		return "0"
	}
	return value.String()
}
