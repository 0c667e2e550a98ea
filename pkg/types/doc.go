// Package types defines the Repository, Session, Node and Property
// interfaces, the repository Value and host HostValue types, and the
// standard error values for the arbor content repository.
//
// Backends (internal/memory, internal/sqlite) implement the interfaces; the
// attribute adapter (internal/adapter) consumes them and never depends on a
// concrete backend.
package types
