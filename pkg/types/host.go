package types

import (
	"bytes"
	"fmt"
	"math"
	"math/big"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// HostKind discriminates the variants of HostValue.
type HostKind uint8

// Host value kinds. KindInvalid is the zero value and has no coercion rule.
const (
	KindInvalid HostKind = iota
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindBigInt
	KindFloat32
	KindFloat64
	KindDecimal
	KindChar
	KindBool
	KindDate
	KindString
	KindBytes
)

var hostKindNames = [...]string{
	KindInvalid: "invalid",
	KindInt8:    "int8",
	KindInt16:   "int16",
	KindInt32:   "int32",
	KindInt64:   "int64",
	KindBigInt:  "bigint",
	KindFloat32: "float32",
	KindFloat64: "float64",
	KindDecimal: "decimal",
	KindChar:    "char",
	KindBool:    "bool",
	KindDate:    "date",
	KindString:  "string",
	KindBytes:   "bytes",
}

func (k HostKind) String() string {
	if int(k) < len(hostKindNames) {
		return hostKindNames[k]
	}
	return fmt.Sprintf("HostKind(%d)", uint8(k))
}

// ParseHostKind maps a kind name such as "int64" or "char" to its HostKind.
func ParseHostKind(name string) (HostKind, error) {
	for k, n := range hostKindNames {
		if k != int(KindInvalid) && n == name {
			return HostKind(k), nil
		}
	}
	return KindInvalid, fmt.Errorf("%w: host kind %q", ErrUnsupportedType, name)
}

// HostValue is a scalar produced by a caller's binding layer, tagged with
// the kind the caller declared. The set of kinds is closed.
type HostValue struct {
	kind HostKind
	i    int64
	bi   *big.Int
	f    float64
	dec  decimal.Decimal
	r    rune
	b    bool
	t    time.Time
	s    string
	bin  []byte
}

func Int8(v int8) HostValue { return HostValue{kind: KindInt8, i: int64(v)} }
func Int16(v int16) HostValue { return HostValue{kind: KindInt16, i: int64(v)} }
func Int32(v int32) HostValue { return HostValue{kind: KindInt32, i: int64(v)} }
func Int64(v int64) HostValue { return HostValue{kind: KindInt64, i: v} }
func Float32(v float32) HostValue { return HostValue{kind: KindFloat32, f: float64(v)} }
func Float64(v float64) HostValue { return HostValue{kind: KindFloat64, f: v} }
func Char(r rune) HostValue { return HostValue{kind: KindChar, r: r} }
func Bool(v bool) HostValue { return HostValue{kind: KindBool, b: v} }
func Date(t time.Time) HostValue { return HostValue{kind: KindDate, t: t} }
func String(s string) HostValue { return HostValue{kind: KindString, s: s} }

// BigInt tags an arbitrary-precision integer. The value is copied.
func BigInt(v *big.Int) HostValue {
	if v == nil {
		return HostValue{}
	}
	return HostValue{kind: KindBigInt, bi: new(big.Int).Set(v)}
}

// Decimal tags an arbitrary-precision decimal.
func Decimal(d decimal.Decimal) HostValue {
	return HostValue{kind: KindDecimal, dec: d}
}

// Bytes tags binary content. The slice is copied.
func Bytes(data []byte) HostValue {
	return HostValue{kind: KindBytes, bin: bytes.Clone(data)}
}

// Kind returns the discriminant.
func (h HostValue) Kind() HostKind { return h.kind }

// IsValid reports whether h carries a kind.
func (h HostValue) IsValid() bool { return h.kind != KindInvalid }

// Int reports the integer payload of the fixed-width integer kinds.
func (h HostValue) Int() (int64, bool) {
	switch h.kind {
	case KindInt8, KindInt16, KindInt32, KindInt64:
		return h.i, true
	}
	return 0, false
}

// BigIntValue returns a copy of the payload of a KindBigInt value.
func (h HostValue) BigIntValue() (*big.Int, bool) {
	if h.kind != KindBigInt {
		return nil, false
	}
	return new(big.Int).Set(h.bi), true
}

// Float reports the payload of KindFloat32 and KindFloat64 values.
func (h HostValue) Float() (float64, bool) {
	if h.kind == KindFloat32 || h.kind == KindFloat64 {
		return h.f, true
	}
	return 0, false
}

// DecimalValue returns the payload of a KindDecimal value.
func (h HostValue) DecimalValue() (decimal.Decimal, bool) {
	return h.dec, h.kind == KindDecimal
}

// CharValue returns the payload of a KindChar value.
func (h HostValue) CharValue() (rune, bool) { return h.r, h.kind == KindChar }

// BoolValue returns the payload of a KindBool value.
func (h HostValue) BoolValue() (bool, bool) { return h.b, h.kind == KindBool }

// DateValue returns the payload of a KindDate value.
func (h HostValue) DateValue() (time.Time, bool) { return h.t, h.kind == KindDate }

// StringValue returns the payload of a KindString value.
func (h HostValue) StringValue() (string, bool) { return h.s, h.kind == KindString }

// BytesValue returns a copy of the payload of a KindBytes value.
func (h HostValue) BytesValue() ([]byte, bool) {
	if h.kind != KindBytes {
		return nil, false
	}
	return bytes.Clone(h.bin), true
}

// Interface returns the payload as a plain Go value: int64 for the
// fixed-width integers, *big.Int, float64 for both float kinds,
// decimal.Decimal, rune, bool, time.Time, string or []byte.
// It returns nil for KindInvalid.
func (h HostValue) Interface() any {
	switch h.kind {
	case KindInt8, KindInt16, KindInt32, KindInt64:
		return h.i
	case KindBigInt:
		return new(big.Int).Set(h.bi)
	case KindFloat32, KindFloat64:
		return h.f
	case KindDecimal:
		return h.dec
	case KindChar:
		return h.r
	case KindBool:
		return h.b
	case KindDate:
		return h.t
	case KindString:
		return h.s
	case KindBytes:
		return bytes.Clone(h.bin)
	default:
		return nil
	}
}

// Equal reports whether two host values have the same kind and payload.
// Dates compare with time.Time.Equal, decimals and big integers by value.
func (h HostValue) Equal(o HostValue) bool {
	if h.kind != o.kind {
		return false
	}
	switch h.kind {
	case KindInt8, KindInt16, KindInt32, KindInt64:
		return h.i == o.i
	case KindBigInt:
		return h.bi.Cmp(o.bi) == 0
	case KindFloat32, KindFloat64:
		return h.f == o.f
	case KindDecimal:
		return h.dec.Equal(o.dec)
	case KindChar:
		return h.r == o.r
	case KindBool:
		return h.b == o.b
	case KindDate:
		return h.t.Equal(o.t)
	case KindString:
		return h.s == o.s
	case KindBytes:
		return bytes.Equal(h.bin, o.bin)
	default:
		return true
	}
}

// String renders the payload for display.
func (h HostValue) String() string {
	switch h.kind {
	case KindInvalid:
		return "<invalid>"
	case KindChar:
		return string(h.r)
	case KindDate:
		return h.t.Format(time.RFC3339Nano)
	case KindBigInt:
		return h.bi.String()
	case KindDecimal:
		return h.dec.String()
	case KindBytes:
		return fmt.Sprintf("bytes(%d)", len(h.bin))
	default:
		return fmt.Sprint(h.Interface())
	}
}

// HostOf tags a Go value with its HostKind. A rune cannot be told apart
// from an int32 at runtime, so characters must be built with Char.
// Returns ErrUnsupportedType for types outside the closed set.
func HostOf(v any) (HostValue, error) {
	switch x := v.(type) {
	case HostValue:
		return x, nil
	case int8:
		return Int8(x), nil
	case int16:
		return Int16(x), nil
	case int32:
		return Int32(x), nil
	case int64:
		return Int64(x), nil
	case int:
		return Int64(int64(x)), nil
	case *big.Int:
		if x == nil {
			break
		}
		return BigInt(x), nil
	case float32:
		return Float32(x), nil
	case float64:
		return Float64(x), nil
	case decimal.Decimal:
		return Decimal(x), nil
	case bool:
		return Bool(x), nil
	case time.Time:
		return Date(x), nil
	case string:
		return String(x), nil
	case []byte:
		return Bytes(x), nil
	}
	return HostValue{}, fmt.Errorf("%w: %T", ErrUnsupportedType, v)
}

// Widen returns the value as it reads back from the repository: every
// integer kind becomes Int64, every floating kind Float64 and a Char a
// one-character String. Other kinds are returned unchanged. A BigInt that
// does not fit in int64, or a decimal whose nearest double is infinite,
// fails with ErrOutOfRange, as does an invalid character.
func (h HostValue) Widen() (HostValue, error) {
	switch h.kind {
	case KindInt8, KindInt16, KindInt32:
		return Int64(h.i), nil
	case KindBigInt:
		if !h.bi.IsInt64() {
			return HostValue{}, fmt.Errorf("%w: %s does not fit in int64", ErrOutOfRange, h.bi)
		}
		return Int64(h.bi.Int64()), nil
	case KindFloat32:
		return Float64(h.f), nil
	case KindDecimal:
		f, _ := h.dec.Float64()
		if math.IsInf(f, 0) {
			return HostValue{}, fmt.Errorf("%w: %s overflows float64", ErrOutOfRange, h.dec)
		}
		return Float64(f), nil
	case KindChar:
		if !utf8.ValidRune(h.r) {
			return HostValue{}, fmt.Errorf("%w: invalid character %U", ErrOutOfRange, h.r)
		}
		return String(string(h.r)), nil
	}
	return h, nil
}
