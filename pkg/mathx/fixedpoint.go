// Package mathx deterministic fixed-point arithmetic for the lending ledger.
//
// Amounts and rates are unsigned integers bounded to the 256-bit word used by
// the persisted schema; rates are WAD scaled (1e18 == 1.0). Every multiply
// runs through an arbitrary-precision intermediate, so the only failure mode
// is a result that no longer fits the word, reported as
// core.ErrArithmeticOverflow and never silently wrapped.
package mathx

import (
	"math/big"

	"creditline/core"
)

var (
	// WAD fixed-point unit, 1e18.
	WAD = big.NewInt(1_000_000_000_000_000_000)

	// BpsDenominator basis-point denominator.
	BpsDenominator = big.NewInt(10_000)

	two   = big.NewInt(2)
	three = big.NewInt(3)

	maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
)

// MulDivDown floor(x*y/d). The caller guarantees d > 0.
func MulDivDown(x, y, d *big.Int) (*big.Int, error) {
	if d.Sign() == 0 {
		panic("mathx: division by zero")
	}
	out := new(big.Int).Mul(x, y)
	out.Quo(out, d)
	return checked(out)
}

// MulDivUp ceil(x*y/d) via the (x*y + d-1)/d trick. The caller guarantees d > 0.
func MulDivUp(x, y, d *big.Int) (*big.Int, error) {
	if d.Sign() == 0 {
		panic("mathx: division by zero")
	}
	out := new(big.Int).Mul(x, y)
	out.Add(out, new(big.Int).Sub(d, big.NewInt(1)))
	out.Quo(out, d)
	return checked(out)
}

// WMulDown floor(x*y/WAD).
func WMulDown(x, y *big.Int) (*big.Int, error) {
	return MulDivDown(x, y, WAD)
}

// WDivDown floor(x*WAD/y).
func WDivDown(x, y *big.Int) (*big.Int, error) {
	return MulDivDown(x, WAD, y)
}

// WDivUp ceil(x*WAD/y).
func WDivUp(x, y *big.Int) (*big.Int, error) {
	return MulDivUp(x, WAD, y)
}

// BpsMulDown floor(x*bps/10000).
func BpsMulDown(x *big.Int, bps uint64) (*big.Int, error) {
	return MulDivDown(x, new(big.Int).SetUint64(bps), BpsDenominator)
}

// WTaylorCompounded approximates e^(rate*elapsed) - 1 with the 3-term Taylor
// expansion x + x^2/2 + x^3/6, where x = rate*elapsed. rate is WAD scaled per
// second. The approximation is deliberate: deterministic and a strict lower
// bound of the exact exponential on the domain of interest.
func WTaylorCompounded(rate *big.Int, elapsed int64) (*big.Int, error) {
	if rate.Sign() == 0 || elapsed <= 0 {
		return new(big.Int), nil
	}

	first := new(big.Int).Mul(rate, big.NewInt(elapsed))
	if _, err := checked(first); err != nil {
		return nil, err
	}

	second, err := MulDivDown(first, first, new(big.Int).Mul(WAD, two))
	if err != nil {
		return nil, err
	}
	third, err := MulDivDown(second, first, new(big.Int).Mul(WAD, three))
	if err != nil {
		return nil, err
	}

	out := new(big.Int).Add(first, second)
	out.Add(out, third)
	return checked(out)
}

// Min smaller of a and b.
func Min(a, b *big.Int) *big.Int {
	if a.Cmp(b) <= 0 {
		return new(big.Int).Set(a)
	}
	return new(big.Int).Set(b)
}

func checked(v *big.Int) (*big.Int, error) {
	if v.Cmp(maxUint256) > 0 {
		return nil, core.ErrArithmeticOverflow
	}
	return v, nil
}
