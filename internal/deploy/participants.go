package deploy

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aviate-labs/agent-go/principal"

	"github.com/stakewerk/snsctl/internal/icp"
	"github.com/stakewerk/snsctl/internal/logging"
	"github.com/stakewerk/snsctl/internal/metrics"
	"github.com/stakewerk/snsctl/internal/nns"
)

// participantResult carries a worker's outcome back to the collector.
type participantResult struct {
	Outcome ParticipantOutcome
	Err     error
}

// runParticipants drives the configured number of deterministic
// participants through the sale with bounded parallelism. Workers fund
// and register participants concurrently; the collector accounts for
// them in ordinal order so logs and the record read like a sequential
// run. A participant whose funds cannot move fails the stage; one the
// swap will not confirm is recorded unregistered and the run goes on.
func (d *Deployer) runParticipants(ctx context.Context, st *runState) error {
	if min := d.cfg.Proposal.SNS.Swap.MinParticipantE8s; d.cfg.Amounts.ParticipationE8s < min {
		return fmt.Errorf("participation %d e8s is below the swap per-participant minimum %d e8s",
			d.cfg.Amounts.ParticipationE8s, min)
	}

	n := d.cfg.Sale.Participants
	workers := d.cfg.Sale.Parallelism
	if workers > n {
		workers = n
	}
	log := logging.StageLogger(d.runID, StageParticipants, d.network)
	log.Info("starting participant phase", "participants", n, "workers", workers)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	taskCh := make(chan int, n)
	resultCh := make(chan participantResult, n)

	var wg sync.WaitGroup
	var inFlight atomic.Int64
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ordinal := range taskCh {
				if ctx.Err() != nil {
					resultCh <- participantResult{
						Outcome: ParticipantOutcome{Ordinal: ordinal},
						Err:     ctx.Err(),
					}
					continue
				}
				if m := metrics.Get(); m != nil {
					m.SetInFlightParticipants(float64(inFlight.Add(1)))
				}
				res := d.processParticipant(ctx, ordinal, st.endpoints.Swap)
				if m := metrics.Get(); m != nil {
					m.SetInFlightParticipants(float64(inFlight.Add(-1)))
				}
				resultCh <- res
			}
		}()
	}

	go func() {
		defer close(taskCh)
		for ordinal := 1; ordinal <= n; ordinal++ {
			select {
			case <-ctx.Done():
				return
			case taskCh <- ordinal:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	pending := make(map[int]participantResult, n)
	next := 1
	outcomes := make([]ParticipantOutcome, 0, n)
	registered := 0
	var firstErr error
	for res := range resultCh {
		pending[res.Outcome.Ordinal] = res

		// Flush in ordinal order as far as possible.
		for {
			r, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			next++

			if r.Err != nil {
				if m := metrics.Get(); m != nil {
					m.IncParticipantsFailed(metrics.Labels{Network: d.network})
				}
				if firstErr == nil {
					firstErr = fmt.Errorf("participant %d: %w", r.Outcome.Ordinal, r.Err)
					cancel()
				}
				continue
			}
			outcomes = append(outcomes, r.Outcome)
			if r.Outcome.Registered {
				registered++
			}
			log.Info("participant processed",
				"participant", r.Outcome.Ordinal,
				"principal", r.Outcome.Principal.Encode(),
				"registered", r.Outcome.Registered,
			)
		}
	}
	if firstErr != nil {
		return firstErr
	}

	st.participants = outcomes
	if m := metrics.Get(); m != nil {
		m.SetParticipantsRegistered(float64(registered))
	}
	log.Info("participant phase complete", "registered", registered, "total", n)
	if registered < n {
		log.Warn("some participants were not confirmed by the swap", "unconfirmed", n-registered)
	}
	return nil
}

// processParticipant runs the funding and registration flow for one
// ordinal. The seed is persisted before any funds move so a restarted
// run can reclaim the same identity.
func (d *Deployer) processParticipant(ctx context.Context, ordinal int, swapID principal.Principal) participantResult {
	correlationID := logging.GenerateCorrelationID()
	log := logging.ParticipantLogger(correlationID, ordinal)
	outcome := ParticipantOutcome{Ordinal: ordinal}
	fail := func(err error) participantResult {
		return participantResult{Outcome: outcome, Err: err}
	}

	seed, created, err := d.seeds.Ensure(ordinal, icp.ParticipantSeed(ordinal))
	if err != nil {
		return fail(fmt.Errorf("ensuring seed: %w", err))
	}
	outcome.SeedPath = d.seeds.Path(ordinal)
	if created {
		log.Info("participant seed persisted", "path", outcome.SeedPath)
	} else {
		log.Info("reusing existing participant seed", "path", outcome.SeedPath)
	}

	ledger, participant, err := d.svc.ParticipantLedger(seed)
	if err != nil {
		return fail(fmt.Errorf("building participant identity: %w", err))
	}
	outcome.Principal = participant
	log.Info("participant principal", "principal", participant.Encode())

	mintAmount := d.cfg.Amounts.ParticipantMintE8s()
	if _, err := d.svc.MintingLedger().Transfer(ctx, nns.TransferRequest{
		To:        participant,
		AmountE8s: mintAmount,
	}); err != nil {
		return fail(fmt.Errorf("minting participant funds: %w", err))
	}
	d.countTransfer("participant_mint", mintAmount)
	log.Info("participant funded", "amount_icp", icp.FormatICP(mintAmount))

	if err := d.sleep(ctx, d.stepDelay()); err != nil {
		return fail(err)
	}

	swap, err := d.svc.ParticipantSwap(seed, swapID)
	if err != nil {
		return fail(fmt.Errorf("building participant swap client: %w", err))
	}
	sub := icp.SwapBuyerSubaccount(participant)

	// Ticket creation is best effort: refresh registers the
	// participation either way.
	if ticket, terr := swap.NewSaleTicket(ctx, d.cfg.Amounts.TicketE8s(), &sub); terr != nil {
		if ctx.Err() != nil {
			return fail(ctx.Err())
		}
		log.Warn("sale ticket not created", "error", terr)
	} else {
		log.Info("sale ticket created", "ticket_id", ticket.TicketID, "amount_e8s", ticket.AmountICPE8s)
	}

	if err := d.sleep(ctx, d.stepDelay()); err != nil {
		return fail(err)
	}

	transferAmount := d.cfg.Amounts.ParticipationE8s + d.cfg.Amounts.TransferFeeE8s
	if _, err := ledger.Transfer(ctx, nns.TransferRequest{
		To:           swapID,
		ToSubaccount: &sub,
		AmountE8s:    transferAmount,
	}); err != nil {
		return fail(fmt.Errorf("transferring participation: %w", err))
	}
	d.countTransfer("participation", transferAmount)
	log.Info("participation transferred",
		"amount_icp", icp.FormatICP(transferAmount),
		"subaccount", hex.EncodeToString(sub.Bytes()),
	)

	if err := d.sleep(ctx, d.settleDelay()); err != nil {
		return fail(err)
	}

	var balance uint64
	if b, berr := ledger.BalanceOf(ctx, swapID, &sub); berr != nil {
		if ctx.Err() != nil {
			return fail(ctx.Err())
		}
		log.Warn("could not verify buyer subaccount balance", "error", berr)
	} else {
		balance = b
		if balance < d.cfg.Amounts.ParticipationE8s {
			log.Warn("buyer subaccount balance below participation",
				"balance_e8s", balance,
				"expected_e8s", d.cfg.Amounts.ParticipationE8s,
			)
		} else {
			log.Info("buyer subaccount funded", "balance_e8s", balance)
		}
	}

	outcome.Registered = d.refreshParticipation(ctx, log, swap, participant, balance)
	if !outcome.Registered {
		log.Warn("participation not confirmed by the swap")
	}
	return participantResult{Outcome: outcome}
}

// refreshParticipation asks the swap to credit the transferred funds,
// retrying within the configured budget. The two zero-credit shapes
// get distinct warnings: a zero balance on the swap side points at a
// subaccount derivation mismatch, a positive one at funds seen but not
// accepted yet.
func (d *Deployer) refreshParticipation(ctx context.Context, log *slog.Logger, swap SwapService, participant principal.Principal, observedBalance uint64) bool {
	attempts := d.cfg.Poll.RefreshAttempts
	zeroDelay := time.Duration(d.cfg.Poll.RefreshZeroDelayMs) * time.Millisecond
	errorDelay := time.Duration(d.cfg.Poll.RefreshErrorDelayMs) * time.Millisecond

	for attempt := 1; attempt <= attempts; attempt++ {
		res, err := swap.RefreshBuyerTokens(ctx, participant.Encode())
		if err != nil {
			if ctx.Err() != nil {
				return false
			}
			log.Warn("refresh_buyer_tokens failed",
				"attempt", attempt,
				"max_attempts", attempts,
				"error", err,
			)
			if attempt < attempts && d.sleep(ctx, errorDelay) != nil {
				return false
			}
			continue
		}
		if res.AcceptedParticipationE8s > 0 {
			log.Info("participation registered", "accepted_e8s", res.AcceptedParticipationE8s)
			return true
		}
		if res.LedgerAccountBalanceE8s == 0 {
			log.Warn("swap saw no funds on the buyer subaccount, derivation may not match",
				"attempt", attempt,
				"transferred_balance_e8s", observedBalance,
			)
		} else {
			log.Warn("swap accepted none of the transferred funds",
				"attempt", attempt,
				"swap_balance_e8s", res.LedgerAccountBalanceE8s,
			)
		}
		if attempt < attempts && d.sleep(ctx, zeroDelay) != nil {
			return false
		}
	}
	return false
}
