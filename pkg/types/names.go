package types

import (
	"fmt"
	"path"
	"strings"
)

// ValidateName checks an item name. Names may carry one namespace prefix
// ("jcr:content"); the prefix is part of the name and is never rewritten.
func ValidateName(name string) error {
	if name == "" || name == "." || name == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if strings.ContainsAny(name, "/[]|*") {
		return fmt.Errorf("%w: %q contains a reserved character", ErrInvalidName, name)
	}
	if prefix, local, ok := strings.Cut(name, ":"); ok {
		if prefix == "" || local == "" || strings.Contains(local, ":") {
			return fmt.Errorf("%w: %q has a malformed namespace prefix", ErrInvalidName, name)
		}
	}
	return nil
}

// JoinPath appends a child name to a parent path.
func JoinPath(parent, name string) string {
	if parent == "/" {
		return "/" + name
	}
	return parent + "/" + name
}

// SplitPath returns the names along an absolute path. The root path "/"
// yields no names. Returns ErrInvalidName for relative paths.
func SplitPath(p string) ([]string, error) {
	if !strings.HasPrefix(p, "/") {
		return nil, fmt.Errorf("%w: path %q is not absolute", ErrInvalidName, p)
	}
	p = path.Clean(p)
	if p == "/" {
		return nil, nil
	}
	return strings.Split(strings.TrimPrefix(p, "/"), "/"), nil
}
