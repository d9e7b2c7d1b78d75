package rate_limiter

import (
	"context"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Limiter caps the number of lists fetched at once and the rate at which fetches start
type Limiter struct {
	Name string

	// underlying rate limiter
	limiter *rate.Limiter
	// semaphore to control concurrency
	sem *semaphore.Weighted
	def Definition
}

func NewLimiter(d Definition) *Limiter {
	res := &Limiter{
		Name: d.Name,
		def:  d,
	}
	if d.FillRate > 0 {
		res.limiter = rate.NewLimiter(d.FillRate, d.BucketSize)
	}
	if d.MaxConcurrency > 0 {
		res.sem = semaphore.NewWeighted(d.MaxConcurrency)
	}
	return res
}

func (l *Limiter) String() string {
	return l.def.String()
}

// Wait blocks until a slot is free and the rate limiter allows another start.
// Every successful Wait must be paired with a Release.
func (l *Limiter) Wait(ctx context.Context) error {
	if l.sem != nil {
		if err := l.sem.Acquire(ctx, 1); err != nil {
			return err
		}
	}
	if l.limiter != nil {
		if err := l.limiter.Wait(ctx); err != nil {
			l.Release()
			return err
		}
	}
	return nil
}

func (l *Limiter) Release() {
	if l.sem == nil {
		return
	}
	l.sem.Release(1)
}
