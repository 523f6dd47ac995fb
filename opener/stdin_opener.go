package opener

import (
	"bytes"
	"context"
	"io"
	"os"
)

// Stdin is an Opener that reads the process's standard input exactly once.
// It is registered under the "stdin" scheme so a workflow source spec of
// "-" or "stdin://" resolves to it, matching cambium-cli's convert command
// reading from stdin when no input path is given.
type Stdin struct{}

// Open buffers os.Stdin fully and returns a reader over the buffered
// bytes. The bytes are not kept between calls: a second Open reads
// os.Stdin again and sees only what is left of it.
func (Stdin) Open(ctx context.Context) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Name returns the fixed identity "stdin".
func (Stdin) Name() string { return "stdin" }

func stdinOpenerFactory(spec string) ([]Opener, error) {
	return []Opener{Stdin{}}, nil
}

func init() {
	if err := RegisterOpener(schemeStdin, stdinOpenerFactory); err != nil {
		panic(err)
	}
	if err := RegisterOpener(schemeFile, RegularFileOpenerFactory); err != nil {
		panic(err)
	}
	if err := RegisterOpener(schemeS3, s3OpenerFactory); err != nil {
		panic(err)
	}
}
