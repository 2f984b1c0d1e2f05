package store

import "context"

// BlobStore persists opaque snapshots keyed by conversation.
// Load reports found=false, not an error, when the key is absent.
type BlobStore interface {
	Save(ctx context.Context, key string, blob []byte) error
	Load(ctx context.Context, key string) (blob []byte, found bool, err error)
	Close() error
}

// Lister is implemented by stores that can enumerate their keys.
type Lister interface {
	Keys(ctx context.Context, prefix string) ([]string, error)
}
