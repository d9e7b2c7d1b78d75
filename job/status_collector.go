package job

import (
	"log/slog"
	"sync"

	"github.com/turbot/hostspipe/events"
)

// StatusCollector consumes the events channel, logging each event and keeping a
// Status per list
type StatusCollector struct {
	mut      sync.Mutex
	statuses map[string]*events.Status
	done     chan struct{}
}

func NewStatusCollector(listNames ...string) *StatusCollector {
	c := &StatusCollector{
		statuses: make(map[string]*events.Status, len(listNames)),
		done:     make(chan struct{}),
	}
	for _, name := range listNames {
		c.statuses[name] = events.NewStatus(name)
	}
	return c
}

// Start consumes events in a goroutine until the channel is closed
func (c *StatusCollector) Start(ch <-chan events.Event) {
	go func() {
		defer close(c.done)
		for e := range ch {
			c.handle(e)
		}
	}()
}

// Wait blocks until the events channel has been closed and drained
func (c *StatusCollector) Wait() {
	<-c.done
}

func (c *StatusCollector) handle(e events.Event) {
	logger := slog.With("list", e.GetListName(), "execution_id", e.GetExecutionId())
	switch ev := e.(type) {
	case *events.Started:
		logger.Info("fetching list")
	case *events.DecodeError:
		logger.Debug("line dropped", "chunk", ev.ChunkNumber, "error", ev.Err)
	case *events.WriteError:
		logger.Warn("write failed", "chunk", ev.ChunkNumber, "error", ev.Err)
	case *events.Error:
		logger.Error("list failed", "error", ev.Err)
	case *events.Completed:
		if ev.Err == nil {
			logger.Info("list fetched", "lines", ev.LinesWritten, "chunks", ev.ChunksRead)
		}
		logger.Debug("list timing", "timing", ev.Timing.String())
	}

	c.mut.Lock()
	defer c.mut.Unlock()
	status, ok := c.statuses[e.GetListName()]
	if !ok {
		status = events.NewStatus(e.GetListName())
		c.statuses[e.GetListName()] = status
	}
	status.Update(e)
}

// Statuses returns a copy of the current status of every list
func (c *StatusCollector) Statuses() map[string]events.Status {
	c.mut.Lock()
	defer c.mut.Unlock()
	res := make(map[string]events.Status, len(c.statuses))
	for name, s := range c.statuses {
		res[name] = *s
	}
	return res
}
