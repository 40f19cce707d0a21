package deploy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/stakewerk/snsctl/internal/icp"
	"github.com/stakewerk/snsctl/internal/logging"
	"github.com/stakewerk/snsctl/internal/sns"
)

// saleProgress is the threshold-relevant slice of the swap's derived
// state.
type saleProgress struct {
	Participants uint64
	E8s          uint64
}

func (p saleProgress) meets(minParticipants, minE8s uint64) bool {
	return p.Participants >= minParticipants && p.E8s >= minE8s
}

func progressFrom(ds *sns.DerivedState) saleProgress {
	var p saleProgress
	if ds.DirectParticipantCount != nil {
		p.Participants = *ds.DirectParticipantCount
	}
	if ds.DirectParticipationICPE8s != nil {
		p.E8s = *ds.DirectParticipationICPE8s
	}
	return p
}

// finalizeSale checks the participation thresholds, waits for the swap
// to commit, and triggers finalization. A swap that stays Open past
// the budget with thresholds met gets a finalize call anyway when the
// force path is enabled; a sale below thresholds is left as is.
func (d *Deployer) finalizeSale(ctx context.Context, st *runState) error {
	log := logging.StageLogger(d.runID, StageFinalize, d.network)

	ds, err := st.swap.DerivedState(ctx)
	if err != nil {
		return fmt.Errorf("reading derived state: %w", err)
	}
	progress := progressFrom(ds)
	minParticipants := d.cfg.Sale.MinParticipants
	minE8s := d.cfg.Sale.MinParticipationE8s
	thresholdsMet := progress.meets(minParticipants, minE8s)

	log.Info("participation thresholds",
		"participants", progress.Participants,
		"min_participants", minParticipants,
		"participation_icp", icp.FormatICP(progress.E8s),
		"min_participation_icp", icp.FormatICP(minE8s),
		"met", thresholdsMet,
	)
	if !thresholdsMet {
		log.Warn("participation thresholds not met, swap may not commit")
	}

	lifecycle := sns.LifecycleUnspecified
	spec := pollSpec{
		Operation:  "swap_commit",
		Attempts:   d.cfg.Poll.FinalizeAttempts,
		Interval:   time.Duration(d.cfg.Poll.FinalizeIntervalMs) * time.Millisecond,
		SleepFirst: true,
		LogEvery:   5,
	}
	err = d.poll(ctx, log, spec, func(ctx context.Context) (bool, string, error) {
		li, lerr := st.swap.Lifecycle(ctx)
		if lerr != nil {
			if ctx.Err() != nil {
				return false, "", ctx.Err()
			}
			return false, "lifecycle unavailable", nil
		}
		lifecycle = li.Lifecycle
		d.recordLifecycle(lifecycle)
		if lifecycle == sns.LifecycleCommitted {
			return true, sns.LifecycleName(lifecycle), nil
		}
		state := sns.LifecycleName(lifecycle)
		if lifecycle == sns.LifecycleOpen {
			if cur, derr := st.swap.DerivedState(ctx); derr == nil {
				p := progressFrom(cur)
				state = fmt.Sprintf("%s, %d participants, %s ICP",
					state, p.Participants, icp.FormatICP(p.E8s))
			}
		}
		return false, state, nil
	})

	var timeout *TimeoutError
	switch {
	case err == nil:
		log.Info("swap committed")
		d.triggerFinalize(ctx, log, st.swap)
	case errors.As(err, &timeout):
		log.Warn("swap did not commit within the poll budget",
			"lifecycle", sns.LifecycleName(lifecycle))
		if !thresholdsMet {
			log.Warn("leaving swap open, thresholds were never met")
			return nil
		}
		if !d.cfg.Sale.ForceFinalizeOnThresholds {
			log.Info("forced finalization disabled, leaving swap as is")
			return nil
		}
		log.Info("thresholds met, attempting finalization despite lifecycle")
		d.triggerFinalize(ctx, log, st.swap)
	default:
		return err
	}
	return nil
}

// triggerFinalize calls finalize_swap. Finalization trouble is logged
// rather than fatal: the swap can still settle on its own afterwards.
func (d *Deployer) triggerFinalize(ctx context.Context, log *slog.Logger, swap SwapService) {
	msg, err := swap.Finalize(ctx)
	switch {
	case err != nil:
		log.Warn("finalize call failed", "error", err)
	case msg != "":
		log.Warn("finalization reported an error", "message", msg)
	default:
		log.Info("swap finalized")
	}
}
