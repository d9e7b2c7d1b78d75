package rate_limiter

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/time/rate"
)

// Definition configures a Limiter. A zero FillRate disables rate limiting and a zero
// MaxConcurrency disables the concurrency cap.
type Definition struct {
	// the limiter name
	Name string
	// the rate at which operations may start
	FillRate   rate.Limit
	BucketSize int
	// the max concurrency supported
	MaxConcurrency int64
}

func (d *Definition) String() string {
	var parts []string
	if d.FillRate > 0 {
		parts = append(parts, fmt.Sprintf("Limit(/s): %v, Burst: %d", d.FillRate, d.BucketSize))
	}
	if d.MaxConcurrency > 0 {
		parts = append(parts, fmt.Sprintf("MaxConcurrency: %d", d.MaxConcurrency))
	}
	return strings.Join(parts, " ")
}

func (d *Definition) Validate() error {
	var validationErrors []error
	if d.Name == "" {
		validationErrors = append(validationErrors, errors.New("rate limiter definition must specify a name"))
	}
	if d.FillRate < 0 || d.MaxConcurrency < 0 {
		validationErrors = append(validationErrors, errors.New("rate limiter fill rate and max concurrency cannot be negative"))
	}
	if d.FillRate > 0 && d.BucketSize < 1 {
		validationErrors = append(validationErrors, errors.New("rate limiter bucket size must be at least 1 when a fill rate is set"))
	}

	return errors.Join(validationErrors...)
}
