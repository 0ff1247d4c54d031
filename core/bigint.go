package core

import (
	"database/sql/driver"
	"fmt"
	"math/big"
	"strings"
)

// BigInt is an arbitrary-precision unsigned amount stored as a decimal string
// column. All ledger amounts (assets, shares, WAD rates) use it.
type BigInt struct {
	big.Int
}

// NewBigInt wraps a copy of v. A nil v yields zero.
func NewBigInt(v *big.Int) BigInt {
	var b BigInt
	if v != nil {
		b.Int.Set(v)
	}
	return b
}

// NewBigIntFromString parses a decimal string amount.
func NewBigIntFromString(s string) (BigInt, error) {
	var b BigInt
	s = strings.TrimSpace(s)
	if s == "" {
		return b, nil
	}
	if _, ok := b.Int.SetString(s, 10); !ok {
		return b, fmt.Errorf("invalid big integer: %q", s)
	}
	return b, nil
}

// Big returns a copy of the underlying integer.
func (b *BigInt) Big() *big.Int {
	return new(big.Int).Set(&b.Int)
}

// Value implements driver.Valuer.
func (b BigInt) Value() (driver.Value, error) {
	return b.String(), nil
}

// Scan implements sql.Scanner.
func (b *BigInt) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		b.Int.SetInt64(0)
		return nil
	case int64:
		b.Int.SetInt64(v)
		return nil
	case []byte:
		return b.setString(string(v))
	case string:
		return b.setString(v)
	default:
		return fmt.Errorf("cannot scan %T into BigInt", src)
	}
}

func (b *BigInt) setString(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		b.Int.SetInt64(0)
		return nil
	}
	// decimal columns may render integral values with a trailing fraction
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}
	if _, ok := b.Int.SetString(s, 10); !ok {
		return fmt.Errorf("invalid big integer: %q", s)
	}
	return nil
}

// MarshalJSON renders the amount as a JSON string to avoid precision loss.
func (b BigInt) MarshalJSON() ([]byte, error) {
	return []byte(`"` + b.String() + `"`), nil
}

// UnmarshalJSON accepts both string and bare number forms.
func (b *BigInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	return b.setString(s)
}
