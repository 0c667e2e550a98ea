package luabind

import (
	"fmt"
	"math"
	"time"

	"github.com/Shopify/go-lua"

	"github.com/mesh-intelligence/arbor/pkg/types"
)

// push converts a Go value produced by the pipeline to a Lua value.
func (s *Shell) push(l *lua.State, v any) {
	switch x := v.(type) {
	case nil:
		l.PushNil()
	case types.Node:
		l.PushUserData(x)
		lua.SetMetaTableNamed(l, nodeMeta)
	case types.Property:
		l.PushUserData(x)
		lua.SetMetaTableNamed(l, propertyMeta)
	case types.Session:
		l.PushUserData(x)
		lua.SetMetaTableNamed(l, sessionMeta)
	case types.HostValue:
		pushHost(l, x)
	case []types.HostValue:
		l.CreateTable(len(x), 0)
		for i, h := range x {
			pushHost(l, h)
			l.RawSetInt(-2, i+1)
		}
	case []types.Node:
		l.CreateTable(len(x), 0)
		for i, n := range x {
			s.push(l, n)
			l.RawSetInt(-2, i+1)
		}
	case []types.Property:
		l.CreateTable(len(x), 0)
		for i, p := range x {
			s.push(l, p)
			l.RawSetInt(-2, i+1)
		}
	case string:
		l.PushString(x)
	case bool:
		l.PushBoolean(x)
	case int:
		l.PushInteger(x)
	case int64:
		l.PushNumber(float64(x))
	case float64:
		l.PushNumber(x)
	case time.Time:
		pushTagged(l, types.Date(x))
	default:
		l.PushString(fmt.Sprint(x))
	}
}

// pushHost pushes a host value as a plain Lua value when Lua has one that
// reads back the same; dates, big numbers, characters and bytes stay
// tagged.
func pushHost(l *lua.State, h types.HostValue) {
	switch h.Kind() {
	case types.KindInt64:
		i, _ := h.Int()
		l.PushNumber(float64(i))
	case types.KindFloat64:
		f, _ := h.Float()
		l.PushNumber(f)
	case types.KindString:
		str, _ := h.StringValue()
		l.PushString(str)
	case types.KindBool:
		b, _ := h.BoolValue()
		l.PushBoolean(b)
	case types.KindInvalid:
		l.PushNil()
	default:
		pushTagged(l, h)
	}
}

// pushTagged pushes h as an arbor.Value userdata.
func pushTagged(l *lua.State, h types.HostValue) {
	l.PushUserData(h)
	lua.SetMetaTableNamed(l, valueMeta)
}

// numberHost tags a Lua number: integral values become Int64, the rest
// Float64.
func numberHost(f float64) types.HostValue {
	if f == math.Trunc(f) && math.Abs(f) < math.MaxInt64 {
		return types.Int64(int64(f))
	}
	return types.Float64(f)
}

// hostValue reads the Lua value at i as a host value for an attribute
// write.
func (s *Shell) hostValue(l *lua.State, i int) (types.HostValue, error) {
	switch l.TypeOf(i) {
	case lua.TypeNumber:
		f, _ := l.ToNumber(i)
		return numberHost(f), nil
	case lua.TypeString:
		str, _ := l.ToString(i)
		return types.String(str), nil
	case lua.TypeBoolean:
		return types.Bool(l.ToBoolean(i)), nil
	case lua.TypeUserData:
		if h, ok := l.ToUserData(i).(types.HostValue); ok {
			return h, nil
		}
	}
	return types.HostValue{}, fmt.Errorf("%w: lua %s", types.ErrUnsupportedType, typeName(l, i))
}

// arg reads the Lua value at i as an argument to a native method. Strings
// stay strings, arrays become []types.HostValue, and userdata pass through.
func (s *Shell) arg(l *lua.State, i int) (any, error) {
	switch l.TypeOf(i) {
	case lua.TypeNil, lua.TypeNone:
		return nil, nil
	case lua.TypeString:
		str, _ := l.ToString(i)
		return str, nil
	case lua.TypeUserData:
		if t, ok := target(l, i); ok {
			return t, nil
		}
		return s.hostValue(l, i)
	case lua.TypeTable:
		i = l.AbsIndex(i)
		var out []types.HostValue
		for k := 1; ; k++ {
			l.RawGetInt(i, k)
			if l.IsNil(-1) {
				l.Pop(1)
				break
			}
			h, err := s.hostValue(l, -1)
			l.Pop(1)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", k, err)
			}
			out = append(out, h)
		}
		return out, nil
	}
	return s.hostValue(l, i)
}

func typeName(l *lua.State, i int) string {
	switch l.TypeOf(i) {
	case lua.TypeNil:
		return "nil"
	case lua.TypeBoolean:
		return "boolean"
	case lua.TypeNumber:
		return "number"
	case lua.TypeString:
		return "string"
	case lua.TypeTable:
		return "table"
	case lua.TypeFunction:
		return "function"
	case lua.TypeUserData, lua.TypeLightUserData:
		return "userdata"
	case lua.TypeThread:
		return "thread"
	}
	return "no value"
}
