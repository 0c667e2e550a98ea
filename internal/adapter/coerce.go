package adapter

import (
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/mesh-intelligence/arbor/pkg/types"
)

// ToPropertyValue converts a host value to the repository value it is
// stored as. Integer kinds become Long, floating and decimal kinds Double,
// a Char a one-character String and Bytes a Binary.
func ToPropertyValue(h types.HostValue) (types.Value, error) {
	switch h.Kind() {
	case types.KindInt8, types.KindInt16, types.KindInt32, types.KindInt64:
		i, _ := h.Int()
		return types.LongValue(i), nil

	case types.KindBigInt:
		bi, _ := h.BigIntValue()
		if !bi.IsInt64() {
			return types.Value{}, fmt.Errorf("%w: %s does not fit in a long", types.ErrOutOfRange, bi)
		}
		return types.LongValue(bi.Int64()), nil

	case types.KindFloat32, types.KindFloat64:
		f, _ := h.Float()
		return types.DoubleValue(f), nil

	case types.KindDecimal:
		d, _ := h.DecimalValue()
		f, _ := d.Float64()
		if math.IsInf(f, 0) {
			return types.Value{}, fmt.Errorf("%w: %s does not fit in a double", types.ErrOutOfRange, d)
		}
		return types.DoubleValue(f), nil

	case types.KindChar:
		r, _ := h.CharValue()
		if !utf8.ValidRune(r) {
			return types.Value{}, fmt.Errorf("%w: invalid character %U", types.ErrOutOfRange, r)
		}
		return types.StringValue(string(r)), nil

	case types.KindBool:
		b, _ := h.BoolValue()
		return types.BooleanValue(b), nil

	case types.KindDate:
		t, _ := h.DateValue()
		return types.DateValue(t), nil

	case types.KindString:
		s, _ := h.StringValue()
		return types.StringValue(s), nil

	case types.KindBytes:
		b, _ := h.BytesValue()
		return types.BinaryValue(b), nil
	}
	return types.Value{}, fmt.Errorf("%w: host kind %s", types.ErrUnsupportedType, h.Kind())
}

// ToPropertyValues converts every element of hs; all elements must coerce
// to the same property type.
func ToPropertyValues(hs []types.HostValue) ([]types.Value, error) {
	out := make([]types.Value, len(hs))
	for i, h := range hs {
		v, err := ToPropertyValue(h)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		if i > 0 && v.Type() != out[0].Type() {
			return nil, fmt.Errorf("%w: element %d is %s, element 0 is %s", types.ErrTypeMismatch, i, v.Type(), out[0].Type())
		}
		out[i] = v
	}
	return out, nil
}

// HostFromValue converts one repository value to the widest host kind for
// its type. References read back as the identifier string.
func HostFromValue(v types.Value) (types.HostValue, error) {
	switch v.Type() {
	case types.TypeString:
		s, _ := v.AsString()
		return types.String(s), nil
	case types.TypeLong:
		i, _ := v.AsLong()
		return types.Int64(i), nil
	case types.TypeDouble:
		f, _ := v.AsDouble()
		return types.Float64(f), nil
	case types.TypeBoolean:
		b, _ := v.AsBool()
		return types.Bool(b), nil
	case types.TypeDate:
		t, _ := v.AsDate()
		return types.Date(t), nil
	case types.TypeBinary:
		b, _ := v.AsBinary()
		return types.Bytes(b), nil
	case types.TypeReference:
		id, _ := v.AsReference()
		return types.String(id), nil
	}
	return types.HostValue{}, fmt.Errorf("%w: property type %s", types.ErrUnsupportedType, v.Type())
}

// ToHostValue reads a single-valued property as a host value. A
// multi-valued property has no single host value and fails with
// ErrUnresolvedOperation; use ToHostValues for those.
func ToHostValue(p types.Property) (types.HostValue, error) {
	if p.IsMultiple() {
		return types.HostValue{}, fmt.Errorf("%w: %s is multi-valued", types.ErrUnresolvedOperation, p.Name())
	}
	v, err := p.Value()
	if err != nil {
		return types.HostValue{}, err
	}
	return HostFromValue(v)
}

// ToHostValues reads every value of p, single- or multi-valued.
func ToHostValues(p types.Property) ([]types.HostValue, error) {
	values, err := p.Values()
	if err != nil {
		return nil, err
	}
	out := make([]types.HostValue, len(values))
	for i, v := range values {
		if out[i], err = HostFromValue(v); err != nil {
			return nil, err
		}
	}
	return out, nil
}
