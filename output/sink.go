package output

import (
	"io"
	"sync"
)

// Sink serialises writes to a shared destination so records from concurrent pumps
// are never interleaved mid-record
type Sink struct {
	mut sync.Mutex
	w   io.Writer
}

func NewSink(w io.Writer) *Sink {
	return &Sink{w: w}
}

// Write appends p to the destination in a single locked call
func (s *Sink) Write(p []byte) (int, error) {
	s.mut.Lock()
	defer s.mut.Unlock()
	return s.w.Write(p)
}
