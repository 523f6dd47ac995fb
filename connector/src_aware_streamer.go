package connector

import (
	"context"
	"io"
)

// SrcMeta describes the position of the multiplexer within the current
// source of a batch. Name identifies the active source (typically the
// Opener's Name, e.g. a file path). ByteOffset counts bytes emitted from
// the current source alone; GlobalOffset counts bytes emitted across the
// whole multiplexed stream so far, including every prior source.
//
// workflow.RunBatch records GlobalOffset at each boundary as a
// BatchBoundary: since RunBatch hands the merged stream to a single
// Workflow and only gets back one []byte back out, GlobalOffset is what
// lets a caller map a byte range of the merged input back to the file it
// came from; it does not locate that file's bytes in the converted output.
type SrcMeta struct {
	Name         string
	ByteOffset   int64
	GlobalOffset int64
}

type SrcAwareStreamer interface {
	io.ReadCloser

	Current() SrcMeta

	AwaitBoundary(context.Context) (SrcMeta, error)
}
