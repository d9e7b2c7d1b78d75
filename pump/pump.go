package pump

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/rs/xid"
	"github.com/turbot/hostspipe/context_values"
	"github.com/turbot/hostspipe/events"
	"github.com/turbot/hostspipe/input"
	"github.com/turbot/hostspipe/observable"
	"github.com/turbot/hostspipe/output"
	"github.com/turbot/hostspipe/types"
)

// Pump copies one list from its input to a sink as hosts-file records,
// publishing progress and errors to its observers.
//
// A Pump runs once. To fetch the list again, reset the input and create a new Pump.
type Pump struct {
	observable.ObservableImpl

	listName  string
	input     *input.LockedInput
	sink      *output.Sink
	transform *output.HostsFileTransform

	executionId string
	chunks      int
	lines       int
	writeErrors int
}

// ErrWriteFailed marks a run in which some records could not be written to the sink
var ErrWriteFailed = errors.New("records failed to write")

// New creates a pump for the named list. The input and sink are wrapped in a
// LockedInput and Sink unless they already are one, so either may be shared with other pumps.
func New(listName string, in input.Input, w io.Writer, opts ...Option) (*Pump, error) {
	p := &Pump{
		listName:  listName,
		input:     asLockedInput(in),
		sink:      asSink(w),
		transform: output.NewHostsFileTransform(nil),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Run pumps until the input is exhausted, the input fails or ctx is cancelled.
//
// Cancellation is checked before every read. Once observed, Run returns ctx.Err()
// without reading or writing again; a partial trailing line is not written and no
// Completed event is published.
// Decode and write failures are published as events and do not stop the pump.
// A read failure is published as an Error and returned.
func (p *Pump) Run(ctx context.Context) error {
	p.executionId = executionId(ctx)
	logger := slog.With("list", p.listName, "execution_id", p.executionId)

	if err := ctx.Err(); err != nil {
		return err
	}

	timing := types.TimingMap{}
	timing.Start(types.PhaseRun)
	p.notify(ctx, events.NewStartedEvent(p.executionId, p.listName))
	logger.Debug("pump started")

	for {
		if err := ctx.Err(); err != nil {
			logger.Info("pump cancelled", "chunks", p.chunks, "lines", p.lines)
			return err
		}

		chunk, err := p.input.Chunk(ctx)
		if errors.Is(err, io.EOF) {
			p.write(ctx, p.transform.Flush())
			timing.End(types.PhaseRun)
			logger.Debug("pump completed", "chunks", p.chunks, "lines", p.lines)
			p.notify(ctx, events.NewCompletedEvent(p.executionId, p.listName, p.lines, p.chunks, timing, nil))
			return nil
		}
		if err != nil {
			err = fmt.Errorf("failed to read list %s: %w", p.listName, err)
			timing.End(types.PhaseRun)
			logger.Error("pump failed", "error", err)
			p.notify(ctx, events.NewErrorEvent(p.executionId, p.listName, err))
			p.notify(ctx, events.NewCompletedEvent(p.executionId, p.listName, p.lines, p.chunks, timing, err))
			return err
		}

		p.chunks++
		p.write(ctx, p.transform.Transform(chunk))
	}
}

// WriteErrors returns the number of chunks whose records could not be written.
// Run does not fail because of them; a run with write errors left its output incomplete.
func (p *Pump) WriteErrors() int {
	return p.writeErrors
}

func (p *Pump) write(ctx context.Context, res output.Result) {
	for _, err := range res.DecodeErrors {
		slog.Debug("dropping undecodable line", "list", p.listName, "chunk", p.chunks, "error", err)
		p.notify(ctx, events.NewDecodeErrorEvent(p.executionId, p.listName, p.chunks, err))
	}
	if len(res.Data) == 0 {
		return
	}

	if _, err := p.sink.Write(res.Data); err != nil {
		slog.Warn("failed to write entries", "list", p.listName, "chunk", p.chunks, "error", err)
		p.writeErrors++
		p.notify(ctx, events.NewWriteErrorEvent(p.executionId, p.listName, p.chunks, err))
		return
	}
	p.lines += res.Lines
}

func (p *Pump) notify(ctx context.Context, e events.Event) {
	if err := p.NotifyObservers(ctx, e); err != nil {
		slog.Debug("failed to publish event", "list", p.listName, "event", fmt.Sprintf("%T", e), "error", err)
	}
}

func executionId(ctx context.Context) string {
	if id, err := context_values.ExecutionIdFromContext(ctx); err == nil {
		return id
	}
	return xid.New().String()
}

func asLockedInput(in input.Input) *input.LockedInput {
	if l, ok := in.(*input.LockedInput); ok {
		return l
	}
	return input.NewLockedInput(in)
}

func asSink(w io.Writer) *output.Sink {
	if s, ok := w.(*output.Sink); ok {
		return s
	}
	return output.NewSink(w)
}
