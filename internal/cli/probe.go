package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alnah/poddy/internal/apierr"
)

// probeRetry bounds startup probes. Turns themselves never retry.
var probeRetry = apierr.RetryConfig{
	MaxRetries: 2,
	BaseDelay:  500 * time.Millisecond,
	MaxDelay:   2 * time.Second,
}

// service is one remote dependency checked before the loop starts.
type service struct {
	name  string
	check HealthChecker
}

// probeServices checks all services concurrently. Transient failures are
// retried; the first permanent failure cancels the others.
func probeServices(ctx context.Context, w io.Writer, services []service) error {
	fmt.Fprintln(w, "Checking services...")

	g, gctx := errgroup.WithContext(ctx)
	for _, s := range services {
		s := s
		g.Go(func() error {
			_, err := apierr.RetryWithBackoff(gctx, probeRetry, func() (struct{}, error) {
				return struct{}{}, s.check.Health(gctx)
			}, apierr.IsRetryable)
			if err != nil {
				return fmt.Errorf("%s: %w: %w", s.name, ErrServiceInit, err)
			}
			return nil
		})
	}
	return g.Wait()
}
