package types

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strconv"
	"time"
)

// PropertyType is the repository-side type of a property value.
type PropertyType uint8

// Property types. The zero value is not a valid type.
const (
	TypeUndefined PropertyType = iota
	TypeString
	TypeLong
	TypeDouble
	TypeBoolean
	TypeDate
	TypeBinary
	TypeReference
)

var propertyTypeNames = map[PropertyType]string{
	TypeUndefined: "undefined",
	TypeString:    "string",
	TypeLong:      "long",
	TypeDouble:    "double",
	TypeBoolean:   "boolean",
	TypeDate:      "date",
	TypeBinary:    "binary",
	TypeReference: "reference",
}

// String returns the lowercase name of the type.
func (t PropertyType) String() string {
	if name, ok := propertyTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("PropertyType(%d)", uint8(t))
}

// ParsePropertyType maps a type name back to its PropertyType.
// Returns ErrInvalidValueType for unknown names.
func ParsePropertyType(name string) (PropertyType, error) {
	for t, n := range propertyTypeNames {
		if t != TypeUndefined && n == name {
			return t, nil
		}
	}
	return TypeUndefined, fmt.Errorf("%w: %q", ErrInvalidValueType, name)
}

// Value is an immutable repository value. Construct it with one of the
// typed constructors; the zero Value has TypeUndefined.
type Value struct {
	typ PropertyType
	str string // String and Reference
	i   int64
	f   float64
	b   bool
	t   time.Time
	bin []byte
}

func StringValue(s string) Value { return Value{typ: TypeString, str: s} }
func LongValue(i int64) Value { return Value{typ: TypeLong, i: i} }
func DoubleValue(f float64) Value { return Value{typ: TypeDouble, f: f} }
func BooleanValue(b bool) Value { return Value{typ: TypeBoolean, b: b} }
func DateValue(t time.Time) Value { return Value{typ: TypeDate, t: t} }
func ReferenceValue(id string) Value { return Value{typ: TypeReference, str: id} }

// BinaryValue copies data so later writes to the caller's slice are not
// observed.
func BinaryValue(data []byte) Value {
	return Value{typ: TypeBinary, bin: bytes.Clone(data)}
}

// Type returns the stored type.
func (v Value) Type() PropertyType { return v.typ }

func (v Value) mismatch(want PropertyType) error {
	return fmt.Errorf("%w: stored %s, requested %s", ErrTypeMismatch, v.typ, want)
}

// AsString returns the value of a string property.
func (v Value) AsString() (string, error) {
	if v.typ != TypeString {
		return "", v.mismatch(TypeString)
	}
	return v.str, nil
}

// AsLong returns the value of a long property.
func (v Value) AsLong() (int64, error) {
	if v.typ != TypeLong {
		return 0, v.mismatch(TypeLong)
	}
	return v.i, nil
}

// AsDouble returns the value of a double property.
func (v Value) AsDouble() (float64, error) {
	if v.typ != TypeDouble {
		return 0, v.mismatch(TypeDouble)
	}
	return v.f, nil
}

// AsBool returns the value of a boolean property.
func (v Value) AsBool() (bool, error) {
	if v.typ != TypeBoolean {
		return false, v.mismatch(TypeBoolean)
	}
	return v.b, nil
}

// AsDate returns the value of a date property.
func (v Value) AsDate() (time.Time, error) {
	if v.typ != TypeDate {
		return time.Time{}, v.mismatch(TypeDate)
	}
	return v.t, nil
}

// AsBinary returns a copy of the value of a binary property.
func (v Value) AsBinary() ([]byte, error) {
	if v.typ != TypeBinary {
		return nil, v.mismatch(TypeBinary)
	}
	return bytes.Clone(v.bin), nil
}

// AsReference returns the target identifier of a reference property.
func (v Value) AsReference() (string, error) {
	if v.typ != TypeReference {
		return "", v.mismatch(TypeReference)
	}
	return v.str, nil
}

// Equal reports whether two values have the same type and content.
// Dates compare with time.Time.Equal.
func (v Value) Equal(o Value) bool {
	if v.typ != o.typ {
		return false
	}
	switch v.typ {
	case TypeString, TypeReference:
		return v.str == o.str
	case TypeLong:
		return v.i == o.i
	case TypeDouble:
		return v.f == o.f
	case TypeBoolean:
		return v.b == o.b
	case TypeDate:
		return v.t.Equal(o.t)
	case TypeBinary:
		return bytes.Equal(v.bin, o.bin)
	default:
		return true
	}
}

// String renders the value for display.
func (v Value) String() string {
	switch v.typ {
	case TypeString, TypeReference:
		return v.str
	case TypeLong:
		return fmt.Sprintf("%d", v.i)
	case TypeDouble:
		return fmt.Sprintf("%g", v.f)
	case TypeBoolean:
		return fmt.Sprintf("%t", v.b)
	case TypeDate:
		return v.t.Format(time.RFC3339Nano)
	case TypeBinary:
		return fmt.Sprintf("binary(%d bytes)", len(v.bin))
	default:
		return "<undefined>"
	}
}

// Text renders the value in its lossless text form: decimal numbers,
// RFC 3339 dates and base64 binary. ParseValue reads it back.
func (v Value) Text() (string, error) {
	switch v.typ {
	case TypeString, TypeReference:
		return v.str, nil
	case TypeLong:
		return strconv.FormatInt(v.i, 10), nil
	case TypeDouble:
		return strconv.FormatFloat(v.f, 'g', -1, 64), nil
	case TypeBoolean:
		return strconv.FormatBool(v.b), nil
	case TypeDate:
		return v.t.Format(time.RFC3339Nano), nil
	case TypeBinary:
		return base64.StdEncoding.EncodeToString(v.bin), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidValueType, v.typ)
	}
}

// ParseValue is the inverse of Text for a value of type typ.
func ParseValue(typ PropertyType, s string) (Value, error) {
	switch typ {
	case TypeString:
		return StringValue(s), nil
	case TypeReference:
		return ReferenceValue(s), nil
	case TypeLong:
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("parsing long %q: %w", s, err)
		}
		return LongValue(i), nil
	case TypeDouble:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Value{}, fmt.Errorf("parsing double %q: %w", s, err)
		}
		return DoubleValue(f), nil
	case TypeBoolean:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return Value{}, fmt.Errorf("parsing boolean %q: %w", s, err)
		}
		return BooleanValue(b), nil
	case TypeDate:
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return Value{}, fmt.Errorf("parsing date %q: %w", s, err)
		}
		return DateValue(t), nil
	case TypeBinary:
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return Value{}, fmt.Errorf("parsing binary: %w", err)
		}
		return Value{typ: TypeBinary, bin: b}, nil
	default:
		return Value{}, fmt.Errorf("%w: %s", ErrInvalidValueType, typ)
	}
}
