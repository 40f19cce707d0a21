package deploy

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/stakewerk/snsctl/internal/metrics"
)

// pollSpec bounds a polling loop. Every loop terminates after at most
// Attempts probes spaced Interval apart; SleepFirst loops wait before
// the first probe, the others wait between probes only.
type pollSpec struct {
	Operation  string
	Attempts   int
	Interval   time.Duration
	SleepFirst bool
	LogEvery   int
}

// TimeoutError reports a polling loop that exhausted its attempt
// budget without observing the awaited condition.
type TimeoutError struct {
	Operation string
	Attempts  int
	Interval  time.Duration
	Elapsed   time.Duration
	LastState string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: condition not met after %d attempts over %s (last state: %s)",
		e.Operation, e.Attempts, e.Elapsed.Round(time.Millisecond), e.LastState)
}

// poll runs probe until it reports done, the attempt budget runs out,
// or ctx is canceled. A probe error aborts the loop immediately;
// probes that want to keep waiting through transient errors must
// swallow them and return the observed state instead.
func (d *Deployer) poll(ctx context.Context, log *slog.Logger, spec pollSpec, probe func(ctx context.Context) (bool, string, error)) error {
	start := time.Now()
	lastState := "none"
	for attempt := 1; attempt <= spec.Attempts; attempt++ {
		if spec.SleepFirst {
			if err := d.sleep(ctx, spec.Interval); err != nil {
				return err
			}
		}

		if m := metrics.Get(); m != nil {
			m.IncPollAttempts(metrics.Labels{Network: d.network, Operation: spec.Operation})
		}
		done, state, err := probe(ctx)
		if err != nil {
			return err
		}
		if state != "" {
			lastState = state
		}
		if done {
			log.Info("poll condition met",
				"operation", spec.Operation,
				"attempts", attempt,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return nil
		}

		if spec.LogEvery > 0 && attempt%spec.LogEvery == 0 {
			log.Info("still waiting",
				"operation", spec.Operation,
				"attempt", attempt,
				"max_attempts", spec.Attempts,
				"last_state", lastState,
			)
		}

		if !spec.SleepFirst && attempt < spec.Attempts {
			if err := d.sleep(ctx, spec.Interval); err != nil {
				return err
			}
		}
	}

	if m := metrics.Get(); m != nil {
		m.IncPollTimeouts(metrics.Labels{Network: d.network, Operation: spec.Operation})
	}
	return &TimeoutError{
		Operation: spec.Operation,
		Attempts:  spec.Attempts,
		Interval:  spec.Interval,
		Elapsed:   time.Since(start),
		LastState: lastState,
	}
}
