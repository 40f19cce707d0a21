package deploy

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/stakewerk/snsctl/internal/icp"
	"github.com/stakewerk/snsctl/internal/logging"
	"github.com/stakewerk/snsctl/internal/metrics"
	"github.com/stakewerk/snsctl/internal/nns"
	"github.com/stakewerk/snsctl/internal/sns"
)

// ErrSaleNotOpen indicates the swap left the Open state between the
// open observation and the pre-participation verification read.
var ErrSaleNotOpen = errors.New("swap not open")

// stakeFunding mints the developer position to the owner account,
// moves it onto the governance neuron-stake subaccount, and claims the
// neuron once the transfer settled.
func (d *Deployer) stakeFunding(ctx context.Context, st *runState) error {
	log := logging.StageLogger(d.runID, StageStakeFunding, d.network)
	owner := d.svc.OwnerPrincipal()

	mintAmount := d.cfg.Amounts.DeveloperStakeE8s + d.cfg.Amounts.TransferFeeE8s
	log.Info("funding owner account from minting account",
		"owner", owner.Encode(),
		"amount_icp", icp.FormatICP(mintAmount),
	)
	block, err := d.svc.MintingLedger().Transfer(ctx, nns.TransferRequest{
		To:        owner,
		AmountE8s: mintAmount,
	})
	if err != nil {
		return fmt.Errorf("funding owner account: %w", err)
	}
	d.countTransfer("owner_funding", mintAmount)
	log.Info("owner account funded", "block", block)

	sub := icp.NeuronStakeSubaccount(owner, d.cfg.Amounts.ClaimMemo)
	log.Info("transferring stake to governance subaccount",
		"subaccount", hex.EncodeToString(sub.Bytes()),
		"amount_icp", icp.FormatICP(d.cfg.Amounts.DeveloperStakeE8s),
	)
	block, err = d.svc.OwnerLedger().Transfer(ctx, nns.TransferRequest{
		To:           d.svc.GovernanceID(),
		ToSubaccount: &sub,
		AmountE8s:    d.cfg.Amounts.DeveloperStakeE8s,
	})
	if err != nil {
		return fmt.Errorf("transferring stake: %w", err)
	}
	d.countTransfer("neuron_stake", d.cfg.Amounts.DeveloperStakeE8s)
	log.Info("stake transferred", "block", block)

	// Let the ledger settle before the claim reads the subaccount.
	if err := d.sleep(ctx, d.settleDelay()); err != nil {
		return err
	}

	neuronID, err := d.svc.Governance().ClaimNeuron(ctx, d.cfg.Amounts.ClaimMemo)
	if err != nil {
		return fmt.Errorf("claiming neuron: %w", err)
	}
	st.neuronID = neuronID
	log.Info("neuron claimed", "neuron_id", neuronID)
	return nil
}

// configurePosition raises the claimed neuron's dissolve delay to the
// configured value so it carries enough voting power to adopt the
// proposal on its own.
func (d *Deployer) configurePosition(ctx context.Context, st *runState) error {
	log := logging.StageLogger(d.runID, StagePositionConfig, d.network)
	delay := d.cfg.Amounts.DissolveDelaySeconds
	if err := d.svc.Governance().IncreaseDissolveDelay(ctx, st.neuronID, delay); err != nil {
		return err
	}
	log.Info("dissolve delay configured", "neuron_id", st.neuronID, "delay_seconds", delay)
	return nil
}

// runProposal submits the CreateServiceNervousSystem proposal and
// waits for the factory to report the deployed canister set. An
// exhausted poll budget is only a warning; the final factory read
// decides whether the stage fails.
func (d *Deployer) runProposal(ctx context.Context, st *runState) error {
	log := logging.StageLogger(d.runID, StageProposal, d.network)

	action := BuildCreateSNS(d.cfg.Proposal.SNS, d.svc.OwnerPrincipal())
	proposalID, msg, err := d.svc.Governance().SubmitCreateSNSProposal(
		ctx, st.neuronID, d.cfg.Proposal.Title, d.cfg.Proposal.Summary, action)
	if err != nil {
		return err
	}
	st.proposalID = proposalID
	log.Info("proposal submitted", "proposal_id", proposalID, "title", d.cfg.Proposal.Title)
	if msg != "" {
		log.Info("governance message", "message", msg)
	}

	spec := pollSpec{
		Operation:  "proposal_execution",
		Attempts:   d.cfg.Poll.ProposalAttempts,
		Interval:   time.Duration(d.cfg.Poll.ProposalIntervalMs) * time.Millisecond,
		SleepFirst: true,
		LogEvery:   6,
	}
	err = d.poll(ctx, log, spec, func(ctx context.Context) (bool, string, error) {
		if _, ferr := d.svc.Factory().DeployedSnsByProposal(ctx, proposalID); ferr != nil {
			if ctx.Err() != nil {
				return false, "", ctx.Err()
			}
			return false, "not deployed", nil
		}
		return true, "deployed", nil
	})
	var timeout *TimeoutError
	switch {
	case err == nil:
	case errors.As(err, &timeout):
		log.Warn("proposal did not execute within the poll budget, reading factory state once more",
			"attempts", timeout.Attempts)
	default:
		return err
	}

	deployed, err := d.svc.Factory().DeployedSnsByProposal(ctx, proposalID)
	if err != nil {
		return fmt.Errorf("fetching deployed SNS for proposal %d: %w", proposalID, err)
	}
	endpoints, err := endpointsFromDeployment(deployed)
	if err != nil {
		return err
	}
	st.endpoints = endpoints
	st.swap = d.svc.Swap(endpoints.Swap)

	log.Info("SNS deployed",
		"governance", endpoints.Governance.Encode(),
		"ledger", endpoints.Ledger.Encode(),
		"swap", endpoints.Swap.Encode(),
	)
	return nil
}

// endpointsFromDeployment validates the factory-reported canister set.
// Governance, ledger, and swap must be present before participation;
// root and index pass through when reported.
func endpointsFromDeployment(deployed *nns.DeployedSns) (Endpoints, error) {
	switch {
	case deployed.GovernanceCanisterID == nil:
		return Endpoints{}, fmt.Errorf("factory reported no governance canister")
	case deployed.LedgerCanisterID == nil:
		return Endpoints{}, fmt.Errorf("factory reported no ledger canister")
	case deployed.SwapCanisterID == nil:
		return Endpoints{}, fmt.Errorf("factory reported no swap canister")
	}
	return Endpoints{
		Root:       deployed.RootCanisterID,
		Governance: *deployed.GovernanceCanisterID,
		Index:      deployed.IndexCanisterID,
		Swap:       *deployed.SwapCanisterID,
		Ledger:     *deployed.LedgerCanisterID,
	}, nil
}

// waitForSaleOpen blocks until the swap reports lifecycle Open, then
// re-verifies once more before participation is cleared. Query errors
// while waiting count as not open; the budget running out is fatal.
func (d *Deployer) waitForSaleOpen(ctx context.Context, st *runState) error {
	log := logging.StageLogger(d.runID, StageSaleOpen, d.network)

	info, err := st.swap.Lifecycle(ctx)
	if err != nil {
		return fmt.Errorf("reading swap lifecycle: %w", err)
	}
	d.recordLifecycle(info.Lifecycle)
	log.Info("swap lifecycle", "lifecycle", sns.LifecycleName(info.Lifecycle))
	if ts := info.SaleOpenTimestampSeconds; ts != nil {
		log.Info("sale open timestamp",
			"open_at", time.Unix(int64(*ts), 0).UTC().Format(time.RFC3339))
	}

	if info.Lifecycle != sns.LifecycleOpen {
		spec := pollSpec{
			Operation:  "sale_open",
			Attempts:   d.cfg.Poll.SaleOpenAttempts,
			Interval:   time.Duration(d.cfg.Poll.SaleOpenIntervalMs) * time.Millisecond,
			SleepFirst: true,
			LogEvery:   5,
		}
		err = d.poll(ctx, log, spec, func(ctx context.Context) (bool, string, error) {
			li, lerr := st.swap.Lifecycle(ctx)
			if lerr != nil {
				if ctx.Err() != nil {
					return false, "", ctx.Err()
				}
				li.Lifecycle = sns.LifecycleUnspecified
			}
			d.recordLifecycle(li.Lifecycle)
			return li.Lifecycle == sns.LifecycleOpen, sns.LifecycleName(li.Lifecycle), nil
		})
		if err != nil {
			return fmt.Errorf("waiting for swap to open: %w", err)
		}
	}

	final, err := st.swap.Lifecycle(ctx)
	if err != nil {
		return fmt.Errorf("verifying swap lifecycle: %w", err)
	}
	d.recordLifecycle(final.Lifecycle)
	if final.Lifecycle != sns.LifecycleOpen {
		return fmt.Errorf("%w: verification read %s after open was observed",
			ErrSaleNotOpen, sns.LifecycleName(final.Lifecycle))
	}
	log.Info("swap confirmed open, participation can begin")
	return nil
}

// recordLifecycle publishes the last observed lifecycle code.
func (d *Deployer) recordLifecycle(code int32) {
	if m := metrics.Get(); m != nil {
		m.SetSwapLifecycle(float64(code))
	}
}

// countTransfer records a submitted ledger transfer.
func (d *Deployer) countTransfer(purpose string, amountE8s uint64) {
	if m := metrics.Get(); m != nil {
		l := metrics.Labels{Network: d.network, Purpose: purpose}
		m.IncTransfersSubmitted(l)
		m.AddTransferredE8s(l, float64(amountE8s))
	}
}
