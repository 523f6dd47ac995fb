package opener

import (
	"context"
	"io"
	"os"
	"path/filepath"
)

// File is an Opener implementation that provides read access to a regular
// filesystem file. It stores the filesystem path and opens the file lazily.
//
// File does *not* check for existence or file type at construction time.
// This is intentional, to keep opener lightweight and composable.
//
// The identity of the data source is the cleaned file path returned by Name().
type File struct {
	Path string
}

// NewFile constructs a File opener for a given filesystem path. The path is
// cleaned using filepath.Clean, but no existence or permission checks are
// performed. These checks occur when Open is called.
func NewFile(uri string) File {
	return File{Path: filepath.Clean(uri)}
}

// Open attempts to open the underlying file and returns an io.ReadCloser.
//
// The provided context is checked *before* opening the file. If the context
// is already canceled, Open returns ctx.Err() without performing I/O.
func (f File) Open(ctx context.Context) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	return os.Open(f.Path)
}

// Name returns the stable identity of this data source. For File, the
// identity is the cleaned filesystem path.
func (f File) Name() string {
	return f.Path
}

// Size stats the underlying file and reports its length, satisfying
// Sizer. A non-nil err (context canceled, or the file doesn't exist)
// means n and ok carry no information; callers must check err first.
func (f File) Size(ctx context.Context) (int64, bool, error) {
	select {
	case <-ctx.Done():
		return 0, false, ctx.Err()
	default:
	}
	info, err := os.Stat(f.Path)
	if err != nil {
		return 0, false, err
	}
	return info.Size(), true, nil
}
