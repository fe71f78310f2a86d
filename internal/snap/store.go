package snap

import (
	"context"
	"io"
)

// ObjectStore is the destination for uploaded media. Implementations stream
// from the reader to support large files without loading them into memory.
type ObjectStore interface {
	// Put stores an object at key under the given storage class.
	// size is the number of bytes that will be read from r.
	Put(ctx context.Context, key string, r io.Reader, size int64, storageClass string) error

	// ValidateSetup verifies that the store is accessible and properly
	// configured. Called before any upload run starts.
	ValidateSetup(ctx context.Context) error
}

// IdentityChecker reports the identity the store credentials resolve to.
// Used by the check command and the /check-aws endpoint.
type IdentityChecker interface {
	CheckIdentity(ctx context.Context) (string, error)
}
