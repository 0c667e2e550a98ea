package types

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePropertyType(t *testing.T) {
	for _, typ := range []PropertyType{TypeString, TypeLong, TypeDouble, TypeBoolean, TypeDate, TypeBinary, TypeReference} {
		got, err := ParsePropertyType(typ.String())
		require.NoError(t, err)
		assert.Equal(t, typ, got)
	}

	_, err := ParsePropertyType("undefined")
	assert.ErrorIs(t, err, ErrInvalidValueType)
	_, err = ParsePropertyType("float")
	assert.ErrorIs(t, err, ErrInvalidValueType)
}

func TestValueAccessors(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name  string
		value Value
		typ   PropertyType
		read  func(Value) (any, error)
		want  any
	}{
		{"string", StringValue("foo"), TypeString, func(v Value) (any, error) { return v.AsString() }, "foo"},
		{"long", LongValue(123), TypeLong, func(v Value) (any, error) { return v.AsLong() }, int64(123)},
		{"double", DoubleValue(0.5), TypeDouble, func(v Value) (any, error) { return v.AsDouble() }, 0.5},
		{"boolean", BooleanValue(true), TypeBoolean, func(v Value) (any, error) { return v.AsBool() }, true},
		{"date", DateValue(now), TypeDate, func(v Value) (any, error) { return v.AsDate() }, now},
		{"binary", BinaryValue([]byte("abc")), TypeBinary, func(v Value) (any, error) { return v.AsBinary() }, []byte("abc")},
		{"reference", ReferenceValue("id-1"), TypeReference, func(v Value) (any, error) { return v.AsReference() }, "id-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.typ, tt.value.Type())
			got, err := tt.read(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValueAccessorMismatch(t *testing.T) {
	v := StringValue("123")

	_, err := v.AsLong()
	assert.True(t, errors.Is(err, ErrTypeMismatch))
	_, err = v.AsDouble()
	assert.ErrorIs(t, err, ErrTypeMismatch)
	_, err = v.AsBool()
	assert.ErrorIs(t, err, ErrTypeMismatch)
	_, err = v.AsDate()
	assert.ErrorIs(t, err, ErrTypeMismatch)
	_, err = v.AsReference()
	assert.ErrorIs(t, err, ErrTypeMismatch)

	_, err = LongValue(1).AsString()
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestBinaryValueCopiesInput(t *testing.T) {
	data := []byte("abc")
	v := BinaryValue(data)
	data[0] = 'x'

	got, err := v.AsBinary()
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), got)
}

func TestValueEqual(t *testing.T) {
	now := time.Now()
	assert.True(t, DateValue(now).Equal(DateValue(now.UTC())))
	assert.True(t, LongValue(5).Equal(LongValue(5)))
	assert.False(t, LongValue(5).Equal(DoubleValue(5)))
	assert.False(t, StringValue("a").Equal(ReferenceValue("a")))
}

func TestValueText(t *testing.T) {
	date := time.Date(2024, 5, 6, 7, 8, 9, 123, time.UTC)
	tests := []struct {
		value Value
		text  string
	}{
		{StringValue("a b"), "a b"},
		{LongValue(-42), "-42"},
		{DoubleValue(0.5), "0.5"},
		{BooleanValue(true), "true"},
		{DateValue(date), "2024-05-06T07:08:09.000000123Z"},
		{BinaryValue([]byte("hi")), "aGk="},
		{ReferenceValue("id-1"), "id-1"},
	}
	for _, tt := range tests {
		t.Run(tt.value.Type().String(), func(t *testing.T) {
			text, err := tt.value.Text()
			require.NoError(t, err)
			assert.Equal(t, tt.text, text)

			back, err := ParseValue(tt.value.Type(), text)
			require.NoError(t, err)
			assert.True(t, tt.value.Equal(back))
		})
	}

	_, err := Value{}.Text()
	assert.ErrorIs(t, err, ErrInvalidValueType)

	_, err = ParseValue(TypeLong, "x")
	assert.Error(t, err)
	_, err = ParseValue(TypeUndefined, "x")
	assert.ErrorIs(t, err, ErrInvalidValueType)
}
