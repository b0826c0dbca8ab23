package search

import "errors"

var (
	// ErrUnsupportedProvider is returned when an unsupported provider type is specified.
	ErrUnsupportedProvider = errors.New("unsupported search provider")

	// ErrNoProvider is returned by the router when no configured provider
	// exists for an operation.
	ErrNoProvider = errors.New("no configured provider for operation")
)
