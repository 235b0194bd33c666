// Package filetree contains core domain types and errors for the in-memory
// file tree
package filetree

import "errors"

// Errors returned by tree operations. Call sites wrap them with extra context
// so compare with errors.Is.
var (
	// ErrMemory is returned when a node or its contents could not be stored,
	// i.e. a child collection is full or contents exceed the configured limit
	ErrMemory = errors.New("memory error")

	// ErrBadPath is returned for malformed path strings
	ErrBadPath = errors.New("bad path")

	// ErrConflictingPath is returned when a parent is not an ancestor of the
	// requested path or the path does not share the tree's root
	ErrConflictingPath = errors.New("conflicting path")

	// ErrNoSuchPath is returned when a path has the wrong depth for its parent,
	// does not exist in the tree, or a child index is out of range
	ErrNoSuchPath = errors.New("no such path")

	// ErrAlreadyInTree is returned when a node already exists at the path
	ErrAlreadyInTree = errors.New("already in tree")

	// ErrNotADirectory is returned when a directory was expected but a file was found
	ErrNotADirectory = errors.New("not a directory")

	// ErrNotAFile is returned when a file was expected but a directory was found
	ErrNotAFile = errors.New("not a file")
)
