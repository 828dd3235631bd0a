// Package retry runs an operation again when its *bc.Error recommends it.
// The client never retries on its own; this helper is opt-in.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/erlorenz/bc-go/internal/constants"
	"github.com/erlorenz/bc-go/pkg/bc"
)

// Config configures retry behavior.
type Config struct {
	// MaxTries is the maximum number of attempts, including the first.
	// Zero selects the DefaultConfig value; use 1 for a single attempt.
	MaxTries uint
	// InitialInterval is the first backoff delay.
	InitialInterval time.Duration
	// MaxInterval caps the backoff delay.
	MaxInterval time.Duration
	// Refresher is asked for a new token before retrying a
	// RetryRefreshToken failure. Without one, such failures are final.
	Refresher bc.TokenRefresher
	// Scope is passed to Refresher.
	Scope string
	// Logger receives a warning before each retry.
	Logger bc.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxTries:        constants.DefaultRetryMax,
		InitialInterval: constants.DefaultRetryWaitMin,
		MaxInterval:     constants.DefaultRetryWaitMax,
		Scope:           constants.TokenScope,
	}
}

// Do calls fn until it succeeds, returns an error that should not be
// retried, or MaxTries attempts have been made. The last error is returned.
func Do[T any](ctx context.Context, cfg Config, fn func(ctx context.Context) (T, error)) (T, error) {
	defaults := DefaultConfig()

	if cfg.MaxTries == 0 {
		cfg.MaxTries = defaults.MaxTries
	}

	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = defaults.InitialInterval
	}

	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = defaults.MaxInterval
	}

	if cfg.Scope == "" {
		cfg.Scope = defaults.Scope
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = cfg.InitialInterval
	policy.MaxInterval = cfg.MaxInterval

	var attempt uint

	operation := func() (T, error) {
		attempt++

		value, err := fn(ctx)
		if err == nil {
			return value, nil
		}

		return value, classify(ctx, cfg, err, attempt >= cfg.MaxTries)
	}

	opts := []backoff.RetryOption{
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(cfg.MaxTries),
		backoff.WithMaxElapsedTime(0),
	}

	if cfg.Logger != nil {
		opts = append(opts, backoff.WithNotify(func(err error, wait time.Duration) {
			fields := map[string]interface{}{"wait": wait.String()}
			if bcErr, ok := bc.AsError(err); ok {
				fields = bcErr.LogFields()
				fields["wait"] = wait.String()
			}

			cfg.Logger.Warn("Retrying Business Central request", fields)
		}))
	}

	return backoff.Retry(ctx, operation, opts...)
}

// classify returns err unchanged when it may be retried, and wraps it as
// permanent otherwise. No token refresh happens on the last attempt.
func classify(ctx context.Context, cfg Config, err error, last bool) error {
	bcErr, ok := bc.AsError(err)
	if !ok {
		return backoff.Permanent(err)
	}

	switch bcErr.RetryStrategy() {
	case bc.RetryExponentialBackoff:
		return err
	case bc.RetryRefreshToken:
		if cfg.Refresher == nil || last {
			return backoff.Permanent(err)
		}

		if refreshErr := cfg.Refresher.RefreshToken(ctx, cfg.Scope); refreshErr != nil {
			return backoff.Permanent(errors.Join(err, refreshErr))
		}

		return err
	default:
		return backoff.Permanent(err)
	}
}
