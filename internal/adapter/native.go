package adapter

import (
	"fmt"
	"strings"

	"github.com/mesh-intelligence/arbor/pkg/types"
)

// fieldFunc reads a native field; methodFunc invokes a native method.
type (
	fieldFunc  func(target any) (any, error)
	methodFunc func(target any, args []any) (any, error)
)

// nativeOps is the native contract of one target kind: fields are read
// without invocation, methods are invoked with arguments.
type nativeOps struct {
	fields  map[string]fieldFunc
	methods map[string]methodFunc
}

func nativeOpsFor(target any) *nativeOps {
	switch target.(type) {
	case types.Node:
		return nodeOps
	case types.Property:
		return propertyOps
	case types.Session:
		return sessionOps
	}
	return nil
}

// IsNativeField reports whether name is a native field of target.
func IsNativeField(target any, name string) bool {
	ops := nativeOpsFor(target)
	if ops == nil {
		return false
	}
	_, ok := ops.fields[name]
	return ok
}

// IsNativeMethod reports whether name is a native method of target.
func IsNativeMethod(target any, name string) bool {
	ops := nativeOpsFor(target)
	if ops == nil {
		return false
	}
	_, ok := ops.methods[name]
	return ok
}

// IsNative reports whether name is a native field or method of target.
func IsNative(target any, name string) bool {
	return IsNativeField(target, name) || IsNativeMethod(target, name)
}

var nodeOps = &nativeOps{
	fields: map[string]fieldFunc{
		"name":       func(t any) (any, error) { return t.(types.Node).Name(), nil },
		"path":       func(t any) (any, error) { return t.(types.Node).Path(), nil },
		"identifier": func(t any) (any, error) { return t.(types.Node).Identifier(), nil },
		"type":       func(t any) (any, error) { return t.(types.Node).TypeName(), nil },
		"depth":      func(t any) (any, error) { return t.(types.Node).Depth(), nil },
		"parent":     func(t any) (any, error) { return t.(types.Node).Parent() },
	},
	methods: map[string]methodFunc{
		"getName":            func(t any, _ []any) (any, error) { return t.(types.Node).Name(), nil },
		"getPath":            func(t any, _ []any) (any, error) { return t.(types.Node).Path(), nil },
		"getIdentifier":      func(t any, _ []any) (any, error) { return t.(types.Node).Identifier(), nil },
		"getPrimaryNodeType": func(t any, _ []any) (any, error) { return t.(types.Node).TypeName(), nil },
		"getParent":          func(t any, _ []any) (any, error) { return t.(types.Node).Parent() },
		"addNode":            nodeAddNode,
		"getNode":            nodeGetNode,
		"hasNode":            nodeHasNode,
		"getNodes":           func(t any, _ []any) (any, error) { return t.(types.Node).Nodes() },
		"getProperty":        nodeGetProperty,
		"hasProperty":        nodeHasProperty,
		"getProperties":      func(t any, _ []any) (any, error) { return t.(types.Node).Properties() },
		"setProperty":        nodeSetProperty,
		"remove":             func(t any, _ []any) (any, error) { return nil, t.(types.Node).Remove() },
		"size":               nodeSize,
	},
}

var propertyOps = &nativeOps{
	fields: map[string]fieldFunc{
		"name":     func(t any) (any, error) { return t.(types.Property).Name(), nil },
		"type":     func(t any) (any, error) { return t.(types.Property).Type().String(), nil },
		"multiple": func(t any) (any, error) { return t.(types.Property).IsMultiple(), nil },
		"value":    propertyValue,
		"parent":   func(t any) (any, error) { return t.(types.Property).Parent() },
	},
	methods: map[string]methodFunc{
		"getName":    func(t any, _ []any) (any, error) { return t.(types.Property).Name(), nil },
		"getString":  func(t any, _ []any) (any, error) { return t.(types.Property).AsString() },
		"getLong":    func(t any, _ []any) (any, error) { return t.(types.Property).AsLong() },
		"getDouble":  func(t any, _ []any) (any, error) { return t.(types.Property).AsDouble() },
		"getBoolean": func(t any, _ []any) (any, error) { return t.(types.Property).AsBool() },
		"getDate":    func(t any, _ []any) (any, error) { return t.(types.Property).AsDate() },
		"getValues":  func(t any, _ []any) (any, error) { return ToHostValues(t.(types.Property)) },
		"remove":     func(t any, _ []any) (any, error) { return nil, t.(types.Property).Remove() },
	},
}

var sessionOps = &nativeOps{
	fields: map[string]fieldFunc{
		"user":     func(t any) (any, error) { return t.(types.Session).User(), nil },
		"live":     func(t any) (any, error) { return t.(types.Session).Live(), nil },
		"rootNode": func(t any) (any, error) { return t.(types.Session).RootNode() },
	},
	methods: map[string]methodFunc{
		"getRootNode": func(t any, _ []any) (any, error) { return t.(types.Session).RootNode() },
		"getNode": func(t any, args []any) (any, error) {
			p, err := stringArg("getNode", args, 0)
			if err != nil {
				return nil, err
			}
			return t.(types.Session).NodeAt(p)
		},
		"getNodeByIdentifier": func(t any, args []any) (any, error) {
			id, err := stringArg("getNodeByIdentifier", args, 0)
			if err != nil {
				return nil, err
			}
			return t.(types.Session).NodeByIdentifier(id)
		},
		"logout": func(t any, _ []any) (any, error) { return nil, t.(types.Session).Logout() },
	},
}

func nodeAddNode(t any, args []any) (any, error) {
	name, err := stringArg("addNode", args, 0)
	if err != nil {
		return nil, err
	}
	typeName := types.NodeTypeUnstructured
	if len(args) > 1 {
		if typeName, err = stringArg("addNode", args, 1); err != nil {
			return nil, err
		}
	}
	return t.(types.Node).AddNodeOfType(name, typeName)
}

// nodeGetNode accepts a single name or a relative path such as
// "jcr:content/data".
func nodeGetNode(t any, args []any) (any, error) {
	rel, err := stringArg("getNode", args, 0)
	if err != nil {
		return nil, err
	}
	cur := t.(types.Node)
	for _, name := range strings.Split(rel, "/") {
		if cur, err = cur.Node(name); err != nil {
			return nil, err
		}
	}
	return cur, nil
}

func nodeHasNode(t any, args []any) (any, error) {
	name, err := stringArg("hasNode", args, 0)
	if err != nil {
		return nil, err
	}
	return t.(types.Node).HasNode(name)
}

func nodeGetProperty(t any, args []any) (any, error) {
	name, err := stringArg("getProperty", args, 0)
	if err != nil {
		return nil, err
	}
	return t.(types.Node).Property(name)
}

func nodeHasProperty(t any, args []any) (any, error) {
	name, err := stringArg("hasProperty", args, 0)
	if err != nil {
		return nil, err
	}
	return t.(types.Node).HasProperty(name)
}

// nodeSetProperty writes a property directly, bypassing attribute
// resolution. A []types.HostValue argument writes a multi-valued property
// and a nil argument removes the property.
func nodeSetProperty(t any, args []any) (any, error) {
	n := t.(types.Node)
	name, err := stringArg("setProperty", args, 0)
	if err != nil {
		return nil, err
	}
	if len(args) < 2 {
		return nil, fmt.Errorf("%w: setProperty expects a value", types.ErrUnsupportedType)
	}

	switch v := args[1].(type) {
	case nil:
		p, err := n.Property(name)
		if err != nil {
			return nil, err
		}
		return nil, p.Remove()
	case []types.HostValue:
		values, err := ToPropertyValues(v)
		if err != nil {
			return nil, err
		}
		return n.SetPropertyValues(name, values)
	default:
		h, err := types.HostOf(v)
		if err != nil {
			return nil, err
		}
		value, err := ToPropertyValue(h)
		if err != nil {
			return nil, err
		}
		return n.SetProperty(name, value)
	}
}

func nodeSize(t any, _ []any) (any, error) {
	children, err := t.(types.Node).Nodes()
	if err != nil {
		return nil, err
	}
	return len(children), nil
}

// propertyValue reads a property's value: a host value for single-valued
// properties and a slice of them for multi-valued ones.
func propertyValue(t any) (any, error) {
	p := t.(types.Property)
	if p.IsMultiple() {
		return ToHostValues(p)
	}
	return ToHostValue(p)
}

// stringArg returns argument i of op as a string. Host values of kind
// String are accepted as well as plain strings.
func stringArg(op string, args []any, i int) (string, error) {
	if i >= len(args) {
		return "", fmt.Errorf("%w: %s expects argument %d", types.ErrUnsupportedType, op, i+1)
	}
	switch v := args[i].(type) {
	case string:
		return v, nil
	case types.HostValue:
		if s, ok := v.StringValue(); ok {
			return s, nil
		}
		return "", fmt.Errorf("%w: %s argument %d is %s, want string", types.ErrUnsupportedType, op, i+1, v.Kind())
	}
	return "", fmt.Errorf("%w: %s argument %d is %T, want string", types.ErrUnsupportedType, op, i+1, args[i])
}
