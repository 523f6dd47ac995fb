package opener

import (
	"context"
	"io"
)

// Opener is the minimal contract a workflow Source resolves to: something
// that can be opened for reading and that carries a stable name used to
// label the bytes it produces.
type Opener interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	Name() string
}

// Sizer is an optional capability an Opener can implement to report its
// size without opening it. workflow.Source.Resolve uses this, when
// available, to reject a source that would exceed an
// executor.ExecutionContext's memory limit before reading it into
// memory at all, rather than discovering the same limit violation only
// after executor.SimpleExecutor.Execute has already buffered the data.
type Sizer interface {
	// Size reports the opener's size in bytes. A non-nil err means n and
	// ok carry no information. Otherwise, ok is false when the size
	// can't be determined up front (e.g. a streamed source with no
	// fixed length), in which case callers fall back to reading first
	// and checking the limit after the fact.
	Size(ctx context.Context) (n int64, ok bool, err error)
}
