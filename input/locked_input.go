package input

import (
	"context"
	"sync"
)

// LockedInput serialises access to an Input so it can be shared between pumps.
// Sharing serialises the pumps, it does not parallelise them.
type LockedInput struct {
	mut   sync.Mutex
	input Input
}

func NewLockedInput(input Input) *LockedInput {
	return &LockedInput{input: input}
}

func (l *LockedInput) Chunk(ctx context.Context) ([]byte, error) {
	l.mut.Lock()
	defer l.mut.Unlock()
	return l.input.Chunk(ctx)
}

func (l *LockedInput) Reset(ctx context.Context) error {
	l.mut.Lock()
	defer l.mut.Unlock()
	return l.input.Reset(ctx)
}

func (l *LockedInput) Close() error {
	l.mut.Lock()
	defer l.mut.Unlock()
	return l.input.Close()
}
