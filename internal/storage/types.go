package storage

import "context"

// Storage persists a single value of type D under a fixed key.
// Get reports found=false when nothing has been stored yet.
type Storage[D any] interface {
	Set(ctx context.Context, data D) error
	Get(ctx context.Context) (D, bool, error)
	Reset(ctx context.Context) error
}
