package cli

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/mesh-intelligence/arbor/pkg/types"
)

var intBits = map[types.HostKind]int{
	types.KindInt8:  8,
	types.KindInt16: 16,
	types.KindInt32: 32,
	types.KindInt64: 64,
}

// parseHost reads text as a host value of the named kind.
func parseHost(kind, text string) (types.HostValue, error) {
	k, err := types.ParseHostKind(kind)
	if err != nil {
		return types.HostValue{}, err
	}

	switch k {
	case types.KindInt8, types.KindInt16, types.KindInt32, types.KindInt64:
		i, err := strconv.ParseInt(text, 10, intBits[k])
		if err != nil {
			return types.HostValue{}, numError(text, k, err)
		}
		switch k {
		case types.KindInt8:
			return types.Int8(int8(i)), nil
		case types.KindInt16:
			return types.Int16(int16(i)), nil
		case types.KindInt32:
			return types.Int32(int32(i)), nil
		}
		return types.Int64(i), nil

	case types.KindBigInt:
		bi, ok := new(big.Int).SetString(text, 10)
		if !ok {
			return types.HostValue{}, fmt.Errorf("%w: %q is not an integer", types.ErrUnsupportedType, text)
		}
		return types.BigInt(bi), nil

	case types.KindFloat32, types.KindFloat64:
		bits := 64
		if k == types.KindFloat32 {
			bits = 32
		}
		f, err := strconv.ParseFloat(text, bits)
		if err != nil {
			return types.HostValue{}, numError(text, k, err)
		}
		if k == types.KindFloat32 {
			return types.Float32(float32(f)), nil
		}
		return types.Float64(f), nil

	case types.KindDecimal:
		d, err := decimal.NewFromString(text)
		if err != nil {
			return types.HostValue{}, fmt.Errorf("%w: %q is not a decimal", types.ErrUnsupportedType, text)
		}
		return types.Decimal(d), nil

	case types.KindChar:
		r, size := utf8.DecodeRuneInString(text)
		if size != len(text) || (r == utf8.RuneError && size <= 1) {
			return types.HostValue{}, fmt.Errorf("%w: %q is not a single character", types.ErrOutOfRange, text)
		}
		return types.Char(r), nil

	case types.KindBool:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return types.HostValue{}, fmt.Errorf("%w: %q is not a boolean", types.ErrUnsupportedType, text)
		}
		return types.Bool(b), nil

	case types.KindDate:
		t, err := time.Parse(time.RFC3339Nano, text)
		if err != nil {
			return types.HostValue{}, fmt.Errorf("%w: %q is not an RFC 3339 date", types.ErrUnsupportedType, text)
		}
		return types.Date(t), nil

	case types.KindBytes:
		return types.Bytes([]byte(text)), nil
	}
	return types.String(text), nil
}

func numError(text string, k types.HostKind, err error) error {
	if errors.Is(err, strconv.ErrRange) {
		return fmt.Errorf("%w: %s does not fit %s", types.ErrOutOfRange, text, k)
	}
	return fmt.Errorf("%w: %q is not a %s", types.ErrUnsupportedType, text, k)
}
