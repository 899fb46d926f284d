package rollup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/louisbranch/marketplace/internal/platform/timeouts"
	"github.com/rs/zerolog"
)

// AdvanceResult is the handler's answer to one advance request.
type AdvanceResult struct {
	Status  Status
	Reports [][]byte
	Notices [][]byte
}

// InspectResult is the handler's answer to one inspect request.
type InspectResult struct {
	Status  Status
	Reports [][]byte
}

// Handler processes decoded requests.
type Handler interface {
	HandleAdvance(ctx context.Context, advance Advance) AdvanceResult
	HandleInspect(ctx context.Context, inspect Inspect) InspectResult
}

// Loop drives the finish/dispatch cycle against the rollup node.
type Loop struct {
	Client  *Client
	Handler Handler
	Logger  zerolog.Logger
	// NewBackOff builds the retry policy for each node call. Defaults to
	// exponential backoff capped at one minute.
	NewBackOff func() backoff.BackOff
}

// Run polls the node until ctx ends. It returns nil on cancellation and an
// error when the node stays unreachable past the retry policy.
func (l *Loop) Run(ctx context.Context) error {
	if l.Client == nil || l.Handler == nil {
		return errors.New("rollup loop requires client and handler")
	}
	status := StatusAccept
	for {
		if ctx.Err() != nil {
			return nil
		}
		req, ok, err := l.finish(ctx, status)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if !ok {
			continue
		}
		status, err = l.dispatch(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}

func (l *Loop) dispatch(ctx context.Context, req Request) (Status, error) {
	switch req.Type {
	case RequestAdvance:
		advance, err := DecodeAdvance(req.Data)
		if err != nil {
			l.Logger.Error().Err(err).Msg("invalid advance request")
			return StatusReject, l.retry(ctx, func() error { return l.Client.Report(ctx, []byte(err.Error())) })
		}
		l.Logger.Debug().
			Uint64("input_index", advance.Metadata.InputIndex).
			Str("sender", advance.Sender).
			Msg("advance request")
		result := l.Handler.HandleAdvance(ctx, advance)
		for _, notice := range result.Notices {
			if err := l.retry(ctx, func() error { return l.Client.Notice(ctx, notice) }); err != nil {
				return StatusReject, err
			}
		}
		for _, report := range result.Reports {
			if err := l.retry(ctx, func() error { return l.Client.Report(ctx, report) }); err != nil {
				return StatusReject, err
			}
		}
		return normalizeStatus(result.Status), nil
	case RequestInspect:
		inspect, err := DecodeInspect(req.Data)
		if err != nil {
			l.Logger.Error().Err(err).Msg("invalid inspect request")
			return StatusReject, l.retry(ctx, func() error { return l.Client.Report(ctx, []byte(err.Error())) })
		}
		result := l.Handler.HandleInspect(ctx, inspect)
		for _, report := range result.Reports {
			if err := l.retry(ctx, func() error { return l.Client.Report(ctx, report) }); err != nil {
				return StatusReject, err
			}
		}
		return normalizeStatus(result.Status), nil
	default:
		return StatusReject, fmt.Errorf("unknown request type %q", req.Type)
	}
}

func (l *Loop) finish(ctx context.Context, status Status) (Request, bool, error) {
	var (
		req Request
		ok  bool
	)
	err := l.retry(ctx, func() error {
		var err error
		req, ok, err = l.Client.Finish(ctx, status)
		return err
	})
	return req, ok, err
}

func (l *Loop) retry(ctx context.Context, op func() error) error {
	policy := l.backOff()
	notify := func(err error, wait time.Duration) {
		l.Logger.Warn().Err(err).Dur("retry_in", wait).Msg("rollup node call failed")
	}
	return backoff.RetryNotify(op, backoff.WithContext(policy, ctx), notify)
}

func (l *Loop) backOff() backoff.BackOff {
	if l.NewBackOff != nil {
		return l.NewBackOff()
	}
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 100 * time.Millisecond
	policy.MaxInterval = timeouts.RollupRetryMaxInterval
	policy.MaxElapsedTime = timeouts.RollupRetryMaxElapsed
	return policy
}

func normalizeStatus(status Status) Status {
	if status == StatusReject {
		return StatusReject
	}
	return StatusAccept
}
