package input

import (
	"context"
	"fmt"
	"log/slog"
)

// FileInput reads a file-backed list, decompressing and extracting it as required by its compression.
// Compression is fixed at construction - switching mode requires a new FileInput.
type FileInput struct {
	path        string
	compression *Compression
	chunkSize   int
	opener      opener

	handle handle
	// cancels the context used by remote openers for the lifetime of the handle
	cancel context.CancelFunc
}

func NewFileInput(path string, compression *Compression, opts ...Option) (*FileInput, error) {
	d := Descriptor{Path: path, Compression: compression}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	loc, err := parseLocation(path)
	if err != nil {
		return nil, err
	}
	o := newInputOptions(opts...)

	return &FileInput{
		path:        redact(path),
		compression: compression,
		chunkSize:   o.chunkSize,
		opener:      newOpener(loc, o),
	}, nil
}

// Chunk implements [Input]
func (f *FileInput) Chunk(ctx context.Context) ([]byte, error) {
	if f.handle == nil {
		if err := f.open(ctx); err != nil {
			return nil, err
		}
	}
	return f.handle.next()
}

// Reset implements [Input]
func (f *FileInput) Reset(ctx context.Context) error {
	f.discard()
	return f.open(ctx)
}

// Close implements [Input]
func (f *FileInput) Close() error {
	if f.handle == nil {
		return nil
	}
	err := f.handle.Close()
	f.handle = nil
	f.cancel()
	f.cancel = nil
	return err
}

func (f *FileInput) open(ctx context.Context) error {
	// the handle outlives the call that opened it
	handleCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	raw, err := f.opener.open(handleCtx)
	if err != nil {
		cancel()
		return &OpenError{Location: f.path, Err: err}
	}

	h, err := newHandle(raw, f.compression, f.chunkSize)
	if err != nil {
		cancel()
		return &OpenError{Location: f.path, Err: err}
	}

	slog.Debug("FileInput opened", "path", f.path, "handle", h.kind())
	f.handle = h
	f.cancel = cancel
	return nil
}

// discard closes any open handle. Close errors are logged, never returned.
func (f *FileInput) discard() {
	if err := f.Close(); err != nil {
		slog.Warn("FileInput error closing handle", "path", f.path, "error", err)
	}
}

func (f *FileInput) String() string {
	if k := f.compression.kind(); k != CompressionNone {
		return fmt.Sprintf("%s (%s)", f.path, k)
	}
	return f.path
}
