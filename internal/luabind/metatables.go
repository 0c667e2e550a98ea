package luabind

import (
	"fmt"
	"math"

	"github.com/Shopify/go-lua"

	"github.com/mesh-intelligence/arbor/internal/adapter"
	"github.com/mesh-intelligence/arbor/pkg/types"
)

// setMetamethods fills the metatable at the top of the stack. Nodes also
// get length and pairs support.
func (s *Shell) setMetamethods(name string, node bool) {
	fns := []lua.RegistryFunction{
		{Name: "__index", Function: s.index},
		{Name: "__newindex", Function: s.newIndex},
		{Name: "__call", Function: s.call},
		{Name: "__eq", Function: s.targetEq},
		{Name: "__tostring", Function: s.targetToString},
	}
	if node {
		fns = append(fns,
			lua.RegistryFunction{Name: "__len", Function: s.nodeLen},
			lua.RegistryFunction{Name: "__pairs", Function: s.nodePairs},
		)
	}
	lua.SetFunctions(s.l, fns, 0)
	s.l.PushString(name)
	s.l.SetField(-2, "__name")
}

// target returns the node, property or session userdata at index i.
func target(l *lua.State, i int) (any, bool) {
	switch t := l.ToUserData(i).(type) {
	case types.Node, types.Property, types.Session:
		return t, true
	}
	return nil, false
}

func (s *Shell) checkTarget(l *lua.State, i int) any {
	t, ok := target(l, i)
	if !ok {
		lua.ArgumentError(l, i, "node, property or session expected")
	}
	return t
}

func (s *Shell) checkNode(l *lua.State, i int) types.Node {
	n, ok := lua.CheckUserData(l, i, nodeMeta).(types.Node)
	if !ok {
		lua.ArgumentError(l, i, "node expected")
	}
	return n
}

// index is __index: numbers index children, strings resolve to native
// methods, node iteration methods or attributes.
func (s *Shell) index(l *lua.State) int {
	t := s.checkTarget(l, 1)

	switch l.TypeOf(2) {
	case lua.TypeNumber:
		f, _ := l.ToNumber(2)
		if f != math.Trunc(f) {
			_, err := adapter.Missing(adapter.Request{Kind: adapter.Index, Target: t, Name: fmt.Sprint(f)})
			return s.raise(l, err)
		}
		v, err := s.pipeline.Index(t, int(f))
		if err != nil {
			return s.raise(l, err)
		}
		s.push(l, v)
		return 1

	case lua.TypeString:
		key, _ := l.ToString(2)
		if adapter.IsNativeMethod(t, key) {
			l.PushString(key)
			l.PushGoClosure(s.invoke, 1)
			return 1
		}
		if _, ok := t.(types.Node); ok {
			if fn := s.nodeMethod(key); fn != nil {
				l.PushGoFunction(fn)
				return 1
			}
		}
		v, err := s.pipeline.Get(t, key)
		if err != nil {
			return s.raise(l, err)
		}
		s.push(l, v)
		return 1
	}

	_, err := adapter.Missing(adapter.Request{Kind: adapter.ReadAttribute, Target: t, Name: typeName(l, 2)})
	return s.raise(l, err)
}

// newIndex is __newindex: attribute writes. Assigning nil removes the
// property.
func (s *Shell) newIndex(l *lua.State) int {
	t := s.checkTarget(l, 1)
	if l.TypeOf(2) != lua.TypeString {
		_, err := adapter.Missing(adapter.Request{Kind: adapter.WriteAttribute, Target: t, Name: typeName(l, 2)})
		return s.raise(l, err)
	}
	key, _ := l.ToString(2)

	if l.IsNil(3) {
		if err := s.pipeline.Unset(t, key); err != nil {
			return s.raise(l, err)
		}
		return 0
	}

	h, err := s.hostValue(l, 3)
	if err != nil {
		return s.raise(l, err)
	}
	if err := s.pipeline.Set(t, key, h); err != nil {
		return s.raise(l, err)
	}
	return 0
}

// call is __call. A child or property read as a method, as in
// node:child(), names no native operation, so it is an unresolved
// invocation on the receiver.
func (s *Shell) call(l *lua.State) int {
	callee := s.checkTarget(l, 1)
	receiver, ok := target(l, 2)
	if !ok {
		receiver = callee
	}
	var name string
	switch c := callee.(type) {
	case types.Node:
		name = c.Name()
	case types.Property:
		name = c.Name()
	case types.Session:
		name = "session"
	}
	v, err := adapter.Missing(adapter.Request{Kind: adapter.Invoke, Target: receiver, Name: name})
	if err != nil {
		return s.raise(l, err)
	}
	s.push(l, v)
	return 1
}

// invoke calls the native method named by upvalue 1 on argument 1.
func (s *Shell) invoke(l *lua.State) int {
	name, _ := l.ToString(lua.UpValueIndex(1))
	t, ok := target(l, 1)
	if !ok {
		lua.ArgumentError(l, 1, fmt.Sprintf("receiver expected for %s (use ':' to call methods)", name))
		return 0
	}
	args := make([]any, 0, l.Top()-1)
	for i := 2; i <= l.Top(); i++ {
		a, err := s.arg(l, i)
		if err != nil {
			return s.raise(l, err)
		}
		args = append(args, a)
	}
	v, err := s.pipeline.Invoke(t, name, args...)
	if err != nil {
		return s.raise(l, err)
	}
	s.push(l, v)
	return 1
}

func (s *Shell) targetEq(l *lua.State) int {
	a, _ := target(l, 1)
	b, _ := target(l, 2)
	l.PushBoolean(sameItem(a, b))
	return 1
}

// sameItem compares by identity: nodes by identifier, properties by owner
// and name, sessions by handle.
func sameItem(a, b any) bool {
	switch x := a.(type) {
	case types.Node:
		y, ok := b.(types.Node)
		return ok && x.Identifier() == y.Identifier()
	case types.Property:
		y, ok := b.(types.Property)
		if !ok || x.Name() != y.Name() {
			return false
		}
		px, err1 := x.Parent()
		py, err2 := y.Parent()
		return err1 == nil && err2 == nil && px.Identifier() == py.Identifier()
	}
	return a != nil && a == b
}

func (s *Shell) targetToString(l *lua.State) int {
	switch t := s.checkTarget(l, 1).(type) {
	case types.Node:
		l.PushString(t.Path())
	case types.Property:
		l.PushString(t.Name())
	case types.Session:
		l.PushString("session(" + t.User() + ")")
	}
	return 1
}

func (s *Shell) nodeLen(l *lua.State) int {
	n := s.checkNode(l, 1)
	size, err := s.pipeline.Invoke(n, "size")
	if err != nil {
		return s.raise(l, err)
	}
	s.push(l, size)
	return 1
}

// nodePairs is __pairs: it walks children as (index, child) with 0-based
// indexes, matching node[i].
func (s *Shell) nodePairs(l *lua.State) int {
	n := s.checkNode(l, 1)
	c, err := s.pipeline.Iterate(n, "each")
	if err != nil {
		return s.raise(l, err)
	}
	s.pushChildIterator(l, c.(*adapter.Cursor[types.Node]))
	l.PushNil()
	l.PushNil()
	return 3
}

func (s *Shell) pushChildIterator(l *lua.State, c *adapter.Cursor[types.Node]) {
	l.PushGoFunction(func(l *lua.State) int {
		if !c.Next() {
			if err := c.Err(); err != nil {
				return s.raise(l, err)
			}
			l.PushNil()
			return 1
		}
		l.PushInteger(c.Index())
		s.push(l, c.Value())
		return 2
	})
}

// nodeMethod returns the Lua-only node methods: closures over children and
// properties and generic-for iterators.
func (s *Shell) nodeMethod(name string) lua.Function {
	switch name {
	case "each":
		return s.each
	case "eachWithIndex":
		return s.eachWithIndex
	case "eachProperty":
		return s.eachProperty
	case "children":
		return s.children
	case "properties":
		return s.properties
	}
	return nil
}

// each calls fn(child) for every child.
func (s *Shell) each(l *lua.State) int {
	n := s.checkNode(l, 1)
	lua.CheckType(l, 2, lua.TypeFunction)
	c, err := s.pipeline.Iterate(n, "each")
	if err != nil {
		return s.raise(l, err)
	}
	cur := c.(*adapter.Cursor[types.Node])
	for cur.Next() {
		l.PushValue(2)
		s.push(l, cur.Value())
		l.Call(1, 0)
	}
	if err := cur.Err(); err != nil {
		return s.raise(l, err)
	}
	return 0
}

// eachWithIndex calls fn(child, index) with 0-based indexes.
func (s *Shell) eachWithIndex(l *lua.State) int {
	n := s.checkNode(l, 1)
	lua.CheckType(l, 2, lua.TypeFunction)
	c, err := s.pipeline.Iterate(n, "eachWithIndex")
	if err != nil {
		return s.raise(l, err)
	}
	cur := c.(*adapter.Cursor[adapter.IndexedNode])
	for cur.Next() {
		in := cur.Value()
		l.PushValue(2)
		s.push(l, in.Node)
		l.PushInteger(in.Index)
		l.Call(2, 0)
	}
	if err := cur.Err(); err != nil {
		return s.raise(l, err)
	}
	return 0
}

// eachProperty calls fn(property) for every property.
func (s *Shell) eachProperty(l *lua.State) int {
	n := s.checkNode(l, 1)
	lua.CheckType(l, 2, lua.TypeFunction)
	c, err := s.pipeline.Iterate(n, "eachProperty")
	if err != nil {
		return s.raise(l, err)
	}
	cur := c.(*adapter.Cursor[types.Property])
	for cur.Next() {
		l.PushValue(2)
		s.push(l, cur.Value())
		l.Call(1, 0)
	}
	if err := cur.Err(); err != nil {
		return s.raise(l, err)
	}
	return 0
}

// children returns a generic-for iterator: for i, child in node:children().
func (s *Shell) children(l *lua.State) int {
	n := s.checkNode(l, 1)
	c, err := s.pipeline.Iterate(n, "each")
	if err != nil {
		return s.raise(l, err)
	}
	s.pushChildIterator(l, c.(*adapter.Cursor[types.Node]))
	return 1
}

// properties returns a generic-for iterator: for name, p in node:properties().
func (s *Shell) properties(l *lua.State) int {
	n := s.checkNode(l, 1)
	c, err := s.pipeline.Iterate(n, "eachProperty")
	if err != nil {
		return s.raise(l, err)
	}
	cur := c.(*adapter.Cursor[types.Property])
	l.PushGoFunction(func(l *lua.State) int {
		if !cur.Next() {
			if err := cur.Err(); err != nil {
				return s.raise(l, err)
			}
			l.PushNil()
			return 1
		}
		p := cur.Value()
		l.PushString(p.Name())
		s.push(l, p)
		return 2
	})
	return 1
}

func (s *Shell) valueIndex(l *lua.State) int {
	h := lua.CheckUserData(l, 1, valueMeta).(types.HostValue)
	key := lua.CheckString(l, 2)
	if key == "kind" {
		l.PushString(h.Kind().String())
		return 1
	}
	return s.raise(l, &adapter.UnresolvedError{Kind: adapter.ReadAttribute, Name: key, Target: h.Kind().String() + " value"})
}

func (s *Shell) valueEq(l *lua.State) int {
	a, ok1 := l.ToUserData(1).(types.HostValue)
	b, ok2 := l.ToUserData(2).(types.HostValue)
	l.PushBoolean(ok1 && ok2 && a.Equal(b))
	return 1
}

func (s *Shell) valueToString(l *lua.State) int {
	h := lua.CheckUserData(l, 1, valueMeta).(types.HostValue)
	l.PushString(h.String())
	return 1
}
