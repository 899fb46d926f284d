// Package royalty computes the creator royalty on a sale.
//
// Rates are integer basis points. The royalty is truncated toward zero, so
// the seller keeps any remainder and royalty plus seller amount always equals
// the sale price exactly.
package royalty

import (
	"errors"
	"math/big"
)

const (
	// DefaultRateBps is 500 basis points (5%).
	DefaultRateBps int64 = 500
	// BpsBase is the denominator for basis-point math.
	BpsBase int64 = 10000
)

var (
	// ErrRateTooHigh indicates a rate above 100%.
	ErrRateTooHigh = errors.New("royalty: rate exceeds 10000 bps")
	// ErrNegativeRate indicates a rate below zero.
	ErrNegativeRate = errors.New("royalty: rate cannot be negative")
	// ErrNegativePrice indicates a sale price below zero.
	ErrNegativePrice = errors.New("royalty: sale price cannot be negative")
)

// Schedule holds the royalty rate applied to every purchase.
type Schedule struct {
	RateBps int64
}

// Default returns the 5% schedule.
func Default() Schedule {
	return Schedule{RateBps: DefaultRateBps}
}

// NewSchedule validates rateBps and returns a schedule.
func NewSchedule(rateBps int64) (Schedule, error) {
	if rateBps < 0 {
		return Schedule{}, ErrNegativeRate
	}
	if rateBps > BpsBase {
		return Schedule{}, ErrRateTooHigh
	}
	return Schedule{RateBps: rateBps}, nil
}

// Split is the division of one sale price.
type Split struct {
	Price    *big.Int
	Royalty  *big.Int
	ToSeller *big.Int
}

// Split divides price between the creator royalty and the seller.
func (s Schedule) Split(price *big.Int) (Split, error) {
	if price == nil || price.Sign() < 0 {
		return Split{}, ErrNegativePrice
	}
	if _, err := NewSchedule(s.RateBps); err != nil {
		return Split{}, err
	}
	royalty := new(big.Int).Mul(price, big.NewInt(s.RateBps))
	royalty.Quo(royalty, big.NewInt(BpsBase))
	return Split{
		Price:    new(big.Int).Set(price),
		Royalty:  royalty,
		ToSeller: new(big.Int).Sub(price, royalty),
	}, nil
}
