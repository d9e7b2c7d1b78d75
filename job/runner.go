package job

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/rs/xid"
	"github.com/turbot/go-kit/helpers"
	"github.com/turbot/hostspipe/config"
	"github.com/turbot/hostspipe/context_values"
	"github.com/turbot/hostspipe/events"
	"github.com/turbot/hostspipe/input"
	"github.com/turbot/hostspipe/observable"
	"github.com/turbot/hostspipe/pump"
	"github.com/turbot/hostspipe/rate_limiter"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Runner fetches every configured list, writing each to its own file in the out dir
type Runner struct {
	observable.ObservableImpl

	cfg       *config.Config
	limiter   *rate_limiter.Limiter
	channel   *observable.ChannelObserver
	collector *StatusCollector

	// wraps each destination writer, nil outside tests
	wrapWriter func(io.Writer) io.Writer
}

type RunnerOption func(*Runner) error

// WithObservers adds observers which receive every event, alongside the status collector
func WithObservers(observers ...observable.Observer) RunnerOption {
	return func(r *Runner) error {
		for _, o := range observers {
			if err := r.AddObserver(o); err != nil {
				return err
			}
		}
		return nil
	}
}

func NewRunner(cfg *config.Config, opts ...RunnerOption) (*Runner, error) {
	def := rate_limiter.Definition{
		Name:           "lists",
		MaxConcurrency: int64(*cfg.MaxConcurrency),
	}
	if cfg.FetchRate != nil {
		def.FillRate = rate.Limit(*cfg.FetchRate)
		def.BucketSize = 1
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}

	channel, err := observable.NewChannelObserver(*cfg.MessageBuffer, cfg.OverflowPolicy())
	if err != nil {
		return nil, err
	}

	r := &Runner{
		cfg:       cfg,
		limiter:   rate_limiter.NewLimiter(def),
		channel:   channel,
		collector: NewStatusCollector(cfg.ListNames()...),
	}
	if err := r.AddObserver(channel); err != nil {
		return nil, err
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// DroppedEvents returns the number of events which overflowed the events channel
func (r *Runner) DroppedEvents() int64 {
	return r.channel.Dropped()
}

// Run fetches all lists and returns once every list has completed or failed.
// A failing list does not stop the others. The returned error joins the error of every failed list.
// A Runner can only be run once.
func (r *Runner) Run(ctx context.Context) (map[string]events.Status, error) {
	executionId := xid.New().String()
	ctx = context_values.WithExecutionId(ctx, executionId)
	slog.Info("starting run", "execution_id", executionId, "lists", len(r.cfg.Lists), "limiter", r.limiter.String())

	for _, dir := range []string{*r.cfg.TmpDir, r.cfg.OutDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	r.collector.Start(r.channel.Events())

	// one slot per list so a failing list is reported without stopping the others
	listErrors := make([]error, len(r.cfg.Lists))
	var g errgroup.Group
	for i, l := range r.cfg.Lists {
		g.Go(func() error {
			if err := r.limiter.Wait(ctx); err != nil {
				listErrors[i] = fmt.Errorf("list %s not started: %w", l.Name, err)
				return nil
			}
			defer r.limiter.Release()
			listErrors[i] = r.runList(ctx, l)
			return nil
		})
	}
	_ = g.Wait()

	r.channel.Close()
	r.collector.Wait()

	if dropped := r.channel.Dropped(); dropped > 0 {
		slog.Warn("events were dropped", "execution_id", executionId, "count", dropped)
	}
	return r.collector.Statuses(), errors.Join(listErrors...)
}

// runList fetches one list into its destination, retrying from the start of the
// input if the pump fails
func (r *Runner) runList(ctx context.Context, l *config.ListConfig) (err error) {
	ctx = context_values.WithListName(ctx, l.Name)
	executionId, _ := context_values.ExecutionIdFromContext(ctx)
	logger := slog.With("list", l.Name, "execution_id", executionId)

	var dest *destination
	// set once the failure has been published by a pump
	reported := false
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("list %s panicked: %w", l.Name, helpers.ToError(rec))
			reported = false
			if dest != nil {
				dest.discard()
			}
		}
		if err != nil && !reported && ctx.Err() == nil {
			r.notify(ctx, events.NewErrorEvent(executionId, l.Name, err))
		}
	}()

	in, err := input.NewInput(l.Descriptor(), r.cfg.InputOptions()...)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := in.Close(); closeErr != nil {
			logger.Warn("failed to close input", "error", closeErr)
		}
	}()

	extractor, err := l.Extractor()
	if err != nil {
		return err
	}

	dest, err = newDestination(*r.cfg.TmpDir, r.cfg.OutDir, l.OutputFileName())
	if err != nil {
		return err
	}
	if r.wrapWriter != nil {
		dest.writer = r.wrapWriter(dest.writer)
	}

	retries := *r.cfg.Retries
	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			logger.Warn("retrying list", "attempt", attempt, "error", err)
			if err = dest.truncate(); err != nil {
				dest.discard()
				return err
			}
			if err = in.Reset(ctx); err != nil {
				if attempt < retries && ctx.Err() == nil {
					continue
				}
				dest.discard()
				return err
			}
		}

		var p *pump.Pump
		p, err = pump.New(l.Name, in, dest, pump.WithExtractor(extractor), pump.WithObservers(r.Observers...))
		if err != nil {
			dest.discard()
			return err
		}
		runErr := p.Run(ctx)
		err = runErr
		if err == nil && p.WriteErrors() > 0 {
			// the output is missing records, it must not replace the previous file
			err = fmt.Errorf("list %s: %d chunks not written: %w", l.Name, p.WriteErrors(), pump.ErrWriteFailed)
		}
		if err == nil {
			break
		}
		if ctx.Err() != nil || attempt >= retries {
			dest.discard()
			// read failures were already published by the pump
			reported = runErr != nil
			return err
		}
	}

	if err := dest.promote(); err != nil {
		return err
	}
	logger.Info("list written", "path", dest.outPath)
	return nil
}

func (r *Runner) notify(ctx context.Context, e events.Event) {
	if err := r.NotifyObservers(ctx, e); err != nil {
		slog.Debug("failed to publish event", "list", e.GetListName(), "error", err)
	}
}
