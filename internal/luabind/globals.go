package luabind

import (
	"fmt"
	"math"
	"math/big"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Shopify/go-lua"
	"github.com/shopspring/decimal"

	"github.com/mesh-intelligence/arbor/internal/adapter"
	"github.com/mesh-intelligence/arbor/pkg/types"
)

// registerGlobals installs the arbor table and replaces print so output
// goes to the shell's writer.
func (s *Shell) registerGlobals() {
	s.l.NewTable()
	lua.SetFunctions(s.l, []lua.RegistryFunction{
		{Name: "byte", Function: s.intOf(types.KindInt8, math.MinInt8, math.MaxInt8)},
		{Name: "short", Function: s.intOf(types.KindInt16, math.MinInt16, math.MaxInt16)},
		{Name: "int", Function: s.intOf(types.KindInt32, math.MinInt32, math.MaxInt32)},
		{Name: "long", Function: s.intOf(types.KindInt64, math.MinInt64, math.MaxInt64)},
		{Name: "float", Function: s.float32Of},
		{Name: "double", Function: s.float64Of},
		{Name: "char", Function: s.charOf},
		{Name: "bigint", Function: s.bigIntOf},
		{Name: "decimal", Function: s.decimalOf},
		{Name: "date", Function: s.dateOf},
		{Name: "now", Function: s.now},
		{Name: "bytes", Function: s.bytesOf},
		{Name: "kind", Function: s.kind},
		{Name: "class", Function: s.class},
	}, 0)
	s.l.SetGlobal("arbor")

	s.l.PushGoFunction(s.print)
	s.l.SetGlobal("print")
}

// intOf builds a constructor for a fixed-width integer kind.
func (s *Shell) intOf(kind types.HostKind, lo, hi float64) lua.Function {
	return func(l *lua.State) int {
		f := lua.CheckNumber(l, 1)
		// float64(math.MaxInt64) rounds up to 2^63, which int64 cannot hold.
		if f != math.Trunc(f) || f < lo || f > hi || (kind == types.KindInt64 && f >= hi) {
			return s.raise(l, fmt.Errorf("%w: %v is not a %s", types.ErrOutOfRange, f, kind))
		}
		var h types.HostValue
		switch kind {
		case types.KindInt8:
			h = types.Int8(int8(f))
		case types.KindInt16:
			h = types.Int16(int16(f))
		case types.KindInt32:
			h = types.Int32(int32(f))
		default:
			h = types.Int64(int64(f))
		}
		pushTagged(l, h)
		return 1
	}
}

func (s *Shell) float32Of(l *lua.State) int {
	f := lua.CheckNumber(l, 1)
	if math.Abs(f) > math.MaxFloat32 && !math.IsInf(f, 0) {
		return s.raise(l, fmt.Errorf("%w: %v is not a float32", types.ErrOutOfRange, f))
	}
	pushTagged(l, types.Float32(float32(f)))
	return 1
}

func (s *Shell) float64Of(l *lua.State) int {
	pushTagged(l, types.Float64(lua.CheckNumber(l, 1)))
	return 1
}

func (s *Shell) charOf(l *lua.State) int {
	str := lua.CheckString(l, 1)
	r, size := utf8.DecodeRuneInString(str)
	if size != len(str) || (r == utf8.RuneError && size <= 1) {
		return s.raise(l, fmt.Errorf("%w: %q is not a single character", types.ErrOutOfRange, str))
	}
	pushTagged(l, types.Char(r))
	return 1
}

// bigIntOf accepts a decimal string or an integral number.
func (s *Shell) bigIntOf(l *lua.State) int {
	var bi *big.Int
	if l.TypeOf(1) == lua.TypeNumber {
		f, _ := l.ToNumber(1)
		if math.IsInf(f, 0) || f != math.Trunc(f) {
			return s.raise(l, fmt.Errorf("%w: %v is not an integer", types.ErrUnsupportedType, f))
		}
		bi, _ = new(big.Float).SetFloat64(f).Int(nil)
	} else {
		str := lua.CheckString(l, 1)
		var ok bool
		if bi, ok = new(big.Int).SetString(str, 10); !ok {
			return s.raise(l, fmt.Errorf("%w: %q is not an integer", types.ErrUnsupportedType, str))
		}
	}
	pushTagged(l, types.BigInt(bi))
	return 1
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// decimalOf accepts a decimal string or a number.
func (s *Shell) decimalOf(l *lua.State) int {
	if l.TypeOf(1) == lua.TypeNumber {
		f, _ := l.ToNumber(1)
		if !finite(f) {
			return s.raise(l, fmt.Errorf("%w: %v is not a decimal", types.ErrOutOfRange, f))
		}
		pushTagged(l, types.Decimal(decimal.NewFromFloat(f)))
		return 1
	}
	str := lua.CheckString(l, 1)
	d, err := decimal.NewFromString(str)
	if err != nil {
		return s.raise(l, fmt.Errorf("%w: %q is not a decimal", types.ErrUnsupportedType, str))
	}
	pushTagged(l, types.Decimal(d))
	return 1
}

// dateOf accepts an RFC 3339 string or seconds since the Unix epoch.
func (s *Shell) dateOf(l *lua.State) int {
	if l.TypeOf(1) == lua.TypeNumber {
		f, _ := l.ToNumber(1)
		if !finite(f) {
			return s.raise(l, fmt.Errorf("%w: %v is not a date", types.ErrOutOfRange, f))
		}
		sec, frac := math.Modf(f)
		pushTagged(l, types.Date(time.Unix(int64(sec), int64(frac*1e9)).UTC()))
		return 1
	}
	str := lua.CheckString(l, 1)
	t, err := time.Parse(time.RFC3339Nano, str)
	if err != nil {
		return s.raise(l, fmt.Errorf("%w: %q is not an RFC 3339 date", types.ErrUnsupportedType, str))
	}
	pushTagged(l, types.Date(t))
	return 1
}

func (s *Shell) now(l *lua.State) int {
	pushTagged(l, types.Date(time.Now()))
	return 1
}

func (s *Shell) bytesOf(l *lua.State) int {
	pushTagged(l, types.Bytes([]byte(lua.CheckString(l, 1))))
	return 1
}

// kind returns the host kind a value is written as, or nil for values
// with no coercion rule.
func (s *Shell) kind(l *lua.State) int {
	if l.IsNoneOrNil(1) {
		l.PushNil()
		return 1
	}
	if _, ok := target(l, 1); ok {
		l.PushNil()
		return 1
	}
	h, err := s.hostValue(l, 1)
	if err != nil {
		l.PushNil()
		return 1
	}
	l.PushString(h.Kind().String())
	return 1
}

// class returns the error class of a message raised by the shell, or nil.
func (s *Shell) class(l *lua.State) int {
	msg, ok := l.ToString(1)
	if !ok {
		l.PushNil()
		return 1
	}
	for _, c := range adapter.Classes() {
		if strings.HasPrefix(msg, c) || strings.Contains(msg, ": "+c+":") {
			l.PushString(c)
			return 1
		}
	}
	l.PushNil()
	return 1
}

func (s *Shell) print(l *lua.State) int {
	n := l.Top()
	parts := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		l.Global("tostring")
		l.PushValue(i)
		l.Call(1, 1)
		str, _ := l.ToString(-1)
		l.Pop(1)
		parts = append(parts, str)
	}
	fmt.Fprintln(s.out, strings.Join(parts, "\t"))
	return 0
}
