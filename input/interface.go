package input

import "context"

// Input is a pull based byte source bound to a single [Descriptor].
//
// Chunk opens the source if it is not already open, then returns the next non-empty chunk of data.
// It returns io.EOF once the source is exhausted. After io.EOF has been returned Chunk must not be
// called again until Reset has been called.
//
// Reset discards any open handle and reopens the source from the beginning.
//
// Close releases any open handle, leaving the Input unopened.
type Input interface {
	Chunk(ctx context.Context) ([]byte, error)
	Reset(ctx context.Context) error
	Close() error
}
