package storage

import (
	"bytes"
	"context"
	"fmt"
)

// objectWriter buffers a payload and uploads it on Commit.
// The pipeline bounds every part, so the buffer never exceeds the part ceiling.
type objectWriter struct {
	ctx    context.Context
	buf    bytes.Buffer
	upload func(ctx context.Context, data []byte) error

	done error
}

func (w *objectWriter) Write(p []byte) (int, error) {
	if w.done != nil {
		return 0, w.done
	}
	return w.buf.Write(p)
}

func (w *objectWriter) Commit() error {
	if w.done != nil {
		return w.done
	}
	if err := w.ctx.Err(); err != nil {
		w.done = ErrAborted
		w.buf = bytes.Buffer{}
		return err
	}

	err := w.upload(w.ctx, w.buf.Bytes())
	w.buf = bytes.Buffer{}
	if err != nil {
		w.done = ErrAborted
		return fmt.Errorf("upload object: %w", err)
	}

	w.done = ErrCommitted
	return nil
}

func (w *objectWriter) Abort() error {
	if w.done != nil {
		return nil
	}
	w.done = ErrAborted
	w.buf = bytes.Buffer{}
	return nil
}
