package localstorage

import "context"

// Storage is the device-local key/value collaborator holding the guest
// cart snapshot.
type Storage interface {
	GetItem(ctx context.Context, key string) (string, bool, error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
}
