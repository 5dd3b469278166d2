package common

import "errors"

var (
	// ErrKeyNotFound is the engine-agnostic sentinel a caller can match
	// against with errors.Is without importing a specific engine package.
	// btree.Error.Is treats a KindKeyNotFound error as matching this too.
	ErrKeyNotFound = errors.New("key not found")
	ErrClosed      = errors.New("storage engine closed")
)
