package assets

import "github.com/google/uuid"

// RefAllocator hands out opaque preview references with no backing display
// resource. Used where no rendering surface exists, such as the HTTP layer:
// the references still flow into draft snapshots and release tracking.
type RefAllocator struct{}

func (RefAllocator) Allocate(name string, _ []byte) string {
	return "preview://" + uuid.New().String() + "/" + name
}

func (RefAllocator) Revoke(string) {}
