package types

import "time"

// Well-known node type designations.
const (
	NodeTypeRoot         = "rep:root"
	NodeTypeUnstructured = "nt:unstructured"
	NodeTypeFile         = "nt:file"
	NodeTypeFolder       = "nt:folder"
	NodeTypeResource     = "nt:resource"
	NodeTypeBase         = "nt:base"
)

// Credentials identify the caller at login. An empty User logs in
// anonymously when the repository has no configured users.
type Credentials struct {
	User     string
	Password string
}

// Repository is the unit a caller attaches to and logs into.
// Attach and Detach mirror the backend lifecycle; Login hands out sessions.
type Repository interface {
	// Attach opens the backend described by config.
	// Returns ErrAlreadyAttached if called while already attached.
	Attach(config Config) error

	// Login authenticates creds and returns a new Session.
	// Returns ErrRepositoryUnavailable if the repository is detached and
	// ErrAuthenticationFailure if creds are rejected.
	Login(creds Credentials) (Session, error)

	// Detach releases backend resources. Idempotent.
	// Sessions obtained before Detach are logged out.
	Detach() error
}

// Session is a login-scoped handle on the repository tree.
// A Session and everything reached through it are meant for use by one
// goroutine at a time.
type Session interface {
	// User returns the name the session logged in with.
	User() string

	// Live reports whether the session has not been logged out.
	Live() bool

	// RootNode returns the root of the tree.
	RootNode() (Node, error)

	// NodeAt resolves an absolute path such as "/file/jcr:content".
	// Returns ErrItemNotFound if no node exists at path.
	NodeAt(path string) (Node, error)

	// NodeByIdentifier resolves a node by its Identifier, which is how
	// reference properties are followed. Returns ErrItemNotFound.
	NodeByIdentifier(id string) (Node, error)

	// Logout invalidates the session and every Node and Property obtained
	// through it. Idempotent.
	Logout() error
}

// Node is a named, typed vertex in the ordered repository tree.
type Node interface {
	Name() string
	Path() string
	Identifier() string
	TypeName() string
	Depth() int

	// Parent returns the parent node, or ErrItemNotFound for the root.
	Parent() (Node, error)

	// AddNode appends a child of type nt:unstructured.
	AddNode(name string) (Node, error)

	// AddNodeOfType appends a child with the given type designation.
	// Returns ErrItemExists if a child with that name already exists.
	AddNodeOfType(name, typeName string) (Node, error)

	// Node returns the child called name, or ErrItemNotFound.
	Node(name string) (Node, error)
	HasNode(name string) (bool, error)

	// Nodes returns the children in their stable order.
	Nodes() ([]Node, error)

	// Property returns the property called name, or ErrPropertyNotFound.
	Property(name string) (Property, error)
	HasProperty(name string) (bool, error)

	// Properties returns every property of the node in unspecified order.
	Properties() ([]Property, error)

	// SetProperty creates or overwrites a single-valued property.
	SetProperty(name string, value Value) (Property, error)

	// SetPropertyValues creates or overwrites a multi-valued property.
	// All values must share one type.
	SetPropertyValues(name string, values []Value) (Property, error)

	// Remove deletes the node and its subtree. The root cannot be removed.
	Remove() error
}

// Property is a named single- or multi-valued leaf of a Node.
type Property interface {
	Name() string
	Type() PropertyType
	IsMultiple() bool

	// Parent returns the owning node.
	Parent() (Node, error)

	// Value returns the single value. Multi-valued properties return
	// ErrTypeMismatch.
	Value() (Value, error)

	// Values returns all values; a single-valued property yields one.
	Values() ([]Value, error)

	// Typed accessors fail with ErrTypeMismatch if the stored type differs.
	AsString() (string, error)
	AsLong() (int64, error)
	AsDouble() (float64, error)
	AsBool() (bool, error)
	AsDate() (time.Time, error)

	Remove() error
}
