package cryptopan

import "errors"

// Sentinel errors for the core's error taxonomy. Collaborators wrap these
// with fmt.Errorf's %w so errors.Is/errors.As keep working across package
// boundaries.
var (
	// ErrInvalidKey is returned when a secret is missing or shorter than
	// the 32 bytes the construction requires.
	ErrInvalidKey = errors.New("cryptopan: invalid key")

	// ErrInvalidInput is returned for a nil or zero-length address, or an
	// address too short for its declared family.
	ErrInvalidInput = errors.New("cryptopan: invalid input")

	// ErrInvalidFamily is returned when a family-tagged call is given a
	// family other than IPv4 or IPv6.
	ErrInvalidFamily = errors.New("cryptopan: invalid family")

	// ErrDisposed is returned by any call made after Close.
	ErrDisposed = errors.New("cryptopan: anonymiser disposed")

	// ErrInternal wraps an unexpected failure from the underlying AES
	// primitive; it should not occur with a well-formed key and a
	// 16-byte block.
	ErrInternal = errors.New("cryptopan: internal error")
)
