package observable

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/turbot/hostspipe/events"
)

// OverflowPolicy determines what a ChannelObserver does when its buffer is full
type OverflowPolicy string

const (
	// OverflowBlock waits for space in the buffer, or for the context to be cancelled
	OverflowBlock OverflowPolicy = "block"
	// OverflowDropOldest discards the oldest buffered event to make room for the new one
	OverflowDropOldest OverflowPolicy = "drop_oldest"

	DefaultBufferSize = 256
)

func (p OverflowPolicy) IsValid() bool {
	return p == OverflowBlock || p == OverflowDropOldest
}

// ChannelObserver delivers events to a single consumer over a bounded channel.
// Many publishers may share one ChannelObserver.
type ChannelObserver struct {
	events chan events.Event
	policy OverflowPolicy

	// serialises drop-oldest sends so a publisher never evicts its own event
	sendLock  sync.Mutex
	dropped   atomic.Int64
	closeOnce sync.Once
}

func NewChannelObserver(bufferSize int, policy OverflowPolicy) (*ChannelObserver, error) {
	if !policy.IsValid() {
		return nil, fmt.Errorf("invalid overflow policy %q: expected %q or %q", policy, OverflowBlock, OverflowDropOldest)
	}
	if bufferSize < 1 {
		return nil, fmt.Errorf("invalid buffer size %d: must be at least 1", bufferSize)
	}
	return &ChannelObserver{
		events: make(chan events.Event, bufferSize),
		policy: policy,
	}, nil
}

// Notify implements [Observer]
func (c *ChannelObserver) Notify(ctx context.Context, e events.Event) error {
	if c.policy == OverflowDropOldest {
		c.sendDropOldest(e)
		return nil
	}

	// deliver if there is room, even when the context is already cancelled
	select {
	case c.events <- e:
		return nil
	default:
	}

	select {
	case c.events <- e:
		return nil
	case <-ctx.Done():
		c.dropped.Add(1)
		return ctx.Err()
	}
}

func (c *ChannelObserver) sendDropOldest(e events.Event) {
	c.sendLock.Lock()
	defer c.sendLock.Unlock()

	for {
		select {
		case c.events <- e:
			return
		default:
		}
		select {
		case <-c.events:
			c.dropped.Add(1)
		default:
		}
	}
}

// Events returns the channel to consume. It is closed by Close.
func (c *ChannelObserver) Events() <-chan events.Event {
	return c.events
}

// Dropped returns the number of events which were never delivered
func (c *ChannelObserver) Dropped() int64 {
	return c.dropped.Load()
}

// Close closes the events channel. It must only be called once all publishers have finished.
func (c *ChannelObserver) Close() {
	c.closeOnce.Do(func() {
		close(c.events)
	})
}
