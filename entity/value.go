package entity

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Value wraps a field value and provides type conversion helpers.
// A nil Raw is "no value".
type Value struct {
	Raw any
}

// Empty is true when there is no value, or the value is an empty string.
func (v Value) Empty() bool {
	if v.Raw == nil {
		return true
	}
	str, ok := v.Raw.(string)
	return ok && str == ""
}

// String returns the value as a string.
func (v Value) String() string {
	if v.Raw == nil {
		return ""
	}
	return fmt.Sprintf("%v", v.Raw)
}

// IsString is true when the underlying value is textual.
func (v Value) IsString() bool {
	_, ok := v.Raw.(string)
	return ok
}

// Lower returns the value with textual content lowercased, leaving other kinds alone.
func (v Value) Lower() Value {
	if str, ok := v.Raw.(string); ok {
		return Value{Raw: strings.ToLower(str)}
	}
	return v
}

// Number returns the value as a float64.
// Numeric strings are accepted so that typed-in search terms compare against numbers.
func (v Value) Number() (float64, error) {

	switch n := v.Raw.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int8:
		return float64(n), nil
	case int16:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint:
		return float64(n), nil
	case uint8:
		return float64(n), nil
	case uint16:
		return float64(n), nil
	case uint32:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case *big.Int:
		f, _ := new(big.Float).SetInt(n).Float64()
		return f, nil
	case json.Number:
		f, err := n.Float64()
		return f, errors.Wrapf(err, "failed to parse number %q", n)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, errors.Wrapf(err, "failed to parse number %q", n)
	}

	return 0, errors.Errorf("value is not a number: %T", v.Raw)
}

// IsNumber is true for numeric kinds, not counting numeric strings.
func (v Value) IsNumber() bool {
	if v.IsString() {
		return false
	}
	_, err := v.Number()
	return err == nil
}

// Bool returns the value as a bool.
func (v Value) Bool() (bool, error) {

	switch b := v.Raw.(type) {
	case bool:
		return b, nil
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		return parsed, errors.Wrapf(err, "failed to parse bool %q", b)
	}

	return false, errors.Errorf("value is not a bool: %T", v.Raw)
}

// Time returns the value as a time.Time.
func (v Value) Time() (time.Time, error) {
	t, ok := v.Raw.(time.Time)
	if !ok {
		return time.Time{}, errors.Errorf("value is not a time.Time: %T", v.Raw)
	}
	return t, nil
}

// Range returns the bounds of a two element value, as used by "between".
func (v Value) Range() (lo, hi Value, err error) {

	switch r := v.Raw.(type) {
	case []any:
		if len(r) == 2 {
			return Value{Raw: r[0]}, Value{Raw: r[1]}, nil
		}
	case [2]any:
		return Value{Raw: r[0]}, Value{Raw: r[1]}, nil
	case []float64:
		if len(r) == 2 {
			return Value{Raw: r[0]}, Value{Raw: r[1]}, nil
		}
	case []int:
		if len(r) == 2 {
			return Value{Raw: r[0]}, Value{Raw: r[1]}, nil
		}
	}

	err = errors.Errorf("value is not a two element range: %T", v.Raw)
	return
}

// Compare orders two values: no value first, then booleans (false < true), numbers, times and
// finally everything else by string form. Values of different kinds order by kind.
func Compare(a, b Value, caseSensitive bool) int {

	ka, kb := a.kind(), b.kind()
	if ka != kb {
		return ka - kb
	}

	switch ka {
	case kindNone:
		return 0
	case kindBool:
		ba, _ := a.Bool()
		bb, _ := b.Bool()
		switch {
		case ba == bb:
			return 0
		case !ba:
			return -1
		}
		return 1
	case kindNumber:
		na, _ := a.Number()
		nb, _ := b.Number()
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		}
		return 0
	case kindTime:
		ta, _ := a.Time()
		tb, _ := b.Time()
		return ta.Compare(tb)
	}

	sa, sb := a.String(), b.String()
	if !caseSensitive {
		sa, sb = strings.ToLower(sa), strings.ToLower(sb)
	}
	return strings.Compare(sa, sb)
}

// unexported

const (
	kindNone = iota
	kindBool
	kindNumber
	kindTime
	kindOther
)

func (v Value) kind() int {

	switch v.Raw.(type) {
	case nil:
		return kindNone
	case bool:
		return kindBool
	case time.Time:
		return kindTime
	case string:
		return kindOther
	}

	if v.IsNumber() {
		return kindNumber
	}
	return kindOther
}
