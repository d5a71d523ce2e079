package memory

import "github.com/cockroachdb/errors"

var (
	// ErrNullRegion is returned when a region header points at offset 0.
	ErrNullRegion = errors.New("region has zero offset")
	// ErrOutOfBounds is returned when an access falls outside guest memory.
	ErrOutOfBounds = errors.New("memory access out of bounds")
	// ErrRegionTooSmall is returned when data does not fit a region's capacity.
	ErrRegionTooSmall = errors.New("region capacity too small")
	// ErrMissingExport is returned when the guest does not export a required function.
	ErrMissingExport = errors.New("missing export")
	// ErrNullAllocation is returned when the guest allocator hands back offset 0.
	ErrNullAllocation = errors.New("allocate returned null region")
)
