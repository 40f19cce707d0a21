// Package deploy implements the SNS deployment pipeline: fund and
// stake an NNS neuron, submit the CreateServiceNervousSystem proposal,
// wait for the factory to deploy the canister set, drive the
// decentralization swap with deterministic participants, finalize it,
// and persist the deployment record.
package deploy

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aviate-labs/agent-go/principal"
	"github.com/google/uuid"

	"github.com/stakewerk/snsctl/internal/config"
	"github.com/stakewerk/snsctl/internal/events"
	"github.com/stakewerk/snsctl/internal/icp"
	"github.com/stakewerk/snsctl/internal/logging"
	"github.com/stakewerk/snsctl/internal/metrics"
	"github.com/stakewerk/snsctl/internal/nns"
	"github.com/stakewerk/snsctl/internal/record"
	"github.com/stakewerk/snsctl/internal/sns"
)

// Stage names used for logging, metrics, and audit events.
const (
	StageStakeFunding   = "stake_funding"
	StagePositionConfig = "position_config"
	StageProposal       = "proposal"
	StageSaleOpen       = "sale_open"
	StageParticipants   = "participants"
	StageFinalize       = "finalize"
	StageRecord         = "record"
)

// GovernanceService is the slice of the NNS governance canister the
// pipeline drives.
type GovernanceService interface {
	ClaimNeuron(ctx context.Context, memo uint64) (uint64, error)
	IncreaseDissolveDelay(ctx context.Context, neuronID uint64, additionalSeconds uint32) error
	SubmitCreateSNSProposal(ctx context.Context, neuronID uint64, title, summary string, action nns.CreateServiceNervousSystem) (uint64, string, error)
}

// LedgerService is the slice of the ICP ledger the pipeline drives.
type LedgerService interface {
	Transfer(ctx context.Context, req nns.TransferRequest) (uint64, error)
	BalanceOf(ctx context.Context, owner principal.Principal, sub *icp.Subaccount) (uint64, error)
}

// FactoryService reports SNS deployments by proposal.
type FactoryService interface {
	DeployedSnsByProposal(ctx context.Context, proposalID uint64) (*nns.DeployedSns, error)
}

// SwapService is the slice of the SNS swap canister the pipeline
// drives.
type SwapService interface {
	Lifecycle(ctx context.Context) (sns.LifecycleInfo, error)
	DerivedState(ctx context.Context) (*sns.DerivedState, error)
	NewSaleTicket(ctx context.Context, amountE8s uint64, subaccount *icp.Subaccount) (*sns.Ticket, error)
	RefreshBuyerTokens(ctx context.Context, buyer string) (sns.RefreshResult, error)
	Finalize(ctx context.Context) (string, error)
}

// Services provides the authenticated canister clients the pipeline
// needs. The participant constructors return clients signing as the
// participant identity derived from the given seed.
type Services interface {
	OwnerPrincipal() principal.Principal
	GovernanceID() principal.Principal
	Governance() GovernanceService
	OwnerLedger() LedgerService
	MintingLedger() LedgerService
	Factory() FactoryService
	Swap(id principal.Principal) SwapService
	ParticipantLedger(seed []byte) (LedgerService, principal.Principal, error)
	ParticipantSwap(seed []byte, id principal.Principal) (SwapService, error)
}

// Endpoints is the canister set of the deployed SNS. Governance,
// ledger, and swap must be present before participation begins; root
// and index are recorded when reported.
type Endpoints struct {
	Root       *principal.Principal
	Governance principal.Principal
	Index      *principal.Principal
	Swap       principal.Principal
	Ledger     principal.Principal
}

// ParticipantOutcome is the per-ordinal result of the participant
// phase.
type ParticipantOutcome struct {
	Ordinal    int
	Principal  principal.Principal
	SeedPath   string
	Registered bool
}

// Result is the outcome of a completed deployment run.
type Result struct {
	RunID        string
	NeuronID     uint64
	ProposalID   uint64
	Endpoints    Endpoints
	Participants []ParticipantOutcome
	RecordPath   string
}

// runState carries intermediate pipeline outputs between stages.
type runState struct {
	neuronID     uint64
	proposalID   uint64
	endpoints    Endpoints
	swap         SwapService
	participants []ParticipantOutcome
	recordPath   string
}

// Deployer runs the deployment pipeline.
type Deployer struct {
	cfg     *config.Config
	svc     Services
	seeds   *record.SeedStore
	pub     *record.Publisher
	events  events.Emitter
	runID   string
	network string
	log     *slog.Logger
}

// New creates a Deployer. An empty runID generates one.
func New(cfg *config.Config, svc Services, seeds *record.SeedStore, pub *record.Publisher, emitter events.Emitter, runID string) *Deployer {
	if runID == "" {
		runID = uuid.NewString()
	}
	return &Deployer{
		cfg:     cfg,
		svc:     svc,
		seeds:   seeds,
		pub:     pub,
		events:  emitter,
		runID:   runID,
		network: cfg.Network.Profile,
		log:     logging.Component("deployer").With("run_id", runID),
	}
}

// RunID returns the run correlation ID.
func (d *Deployer) RunID() string {
	return d.runID
}

// Run executes the full pipeline and persists the deployment record.
// Any stage error aborts the run; per-participant registration failure
// does not.
func (d *Deployer) Run(ctx context.Context) (*Result, error) {
	if res := Preflight(d.cfg); !res.Passed {
		return nil, fmt.Errorf("preflight validation failed: %s", strings.Join(res.Errors, "; "))
	} else {
		for _, w := range res.Warnings {
			d.log.Warn("preflight warning", "warning", w)
		}
	}

	d.log.Info("starting SNS deployment",
		"network", d.network,
		"owner", d.svc.OwnerPrincipal().Encode(),
		"participants", d.cfg.Sale.Participants,
	)

	st := &runState{}
	stages := []struct {
		name string
		fn   func(context.Context, *runState) error
	}{
		{StageStakeFunding, d.stakeFunding},
		{StagePositionConfig, d.configurePosition},
		{StageProposal, d.runProposal},
		{StageSaleOpen, d.waitForSaleOpen},
		{StageParticipants, d.runParticipants},
		{StageFinalize, d.finalizeSale},
		{StageRecord, d.persistRecord},
	}
	for _, stage := range stages {
		if err := d.runStage(ctx, stage.name, st, stage.fn); err != nil {
			return nil, err
		}
	}

	d.log.Info("SNS deployment complete",
		"neuron_id", st.neuronID,
		"proposal_id", st.proposalID,
		"governance", st.endpoints.Governance.Encode(),
		"ledger", st.endpoints.Ledger.Encode(),
		"swap", st.endpoints.Swap.Encode(),
		"record", st.recordPath,
	)

	return &Result{
		RunID:        d.runID,
		NeuronID:     st.neuronID,
		ProposalID:   st.proposalID,
		Endpoints:    st.endpoints,
		Participants: st.participants,
		RecordPath:   st.recordPath,
	}, nil
}

// runStage wraps one stage with logging, metrics, and audit events.
func (d *Deployer) runStage(ctx context.Context, name string, st *runState, fn func(context.Context, *runState) error) error {
	log := logging.StageLogger(d.runID, name, d.network)
	log.Info("stage started")
	d.emit(ctx, events.TypeStageStarted, name, nil)

	start := time.Now()
	err := fn(ctx, st)
	elapsed := time.Since(start)

	if m := metrics.Get(); m != nil {
		m.ObserveStageDuration(d.labels(name), elapsed.Seconds())
		if err != nil {
			m.IncStagesFailed(d.labels(name))
		} else {
			m.IncStagesCompleted(d.labels(name))
		}
	}

	if err != nil {
		log.Error("stage failed", "error", err, "duration_ms", elapsed.Milliseconds())
		d.emit(ctx, events.TypeStageFailed, name, map[string]string{"error": err.Error()})
		return fmt.Errorf("%s: %w", name, err)
	}

	log.Info("stage completed", "duration_ms", elapsed.Milliseconds())
	d.emit(ctx, events.TypeStageCompleted, name, nil)
	return nil
}

// persistRecord writes the deployment record via the publisher. This
// runs only after every prior stage has succeeded.
func (d *Deployer) persistRecord(ctx context.Context, st *runState) error {
	rec := &record.DeploymentRecord{
		ICPNeuronID:    st.neuronID,
		ProposalID:     st.proposalID,
		OwnerPrincipal: d.svc.OwnerPrincipal().Encode(),
		DeployedSns: record.DeployedSnsRecord{
			RootCanisterID:       encodedPrincipal(st.endpoints.Root),
			GovernanceCanisterID: stringPtr(st.endpoints.Governance.Encode()),
			IndexCanisterID:      encodedPrincipal(st.endpoints.Index),
			SwapCanisterID:       stringPtr(st.endpoints.Swap.Encode()),
			LedgerCanisterID:     stringPtr(st.endpoints.Ledger.Encode()),
		},
	}
	for _, p := range st.participants {
		rec.Participants = append(rec.Participants, record.ParticipantRecord{
			Principal:  p.Principal.Encode(),
			SeedFile:   p.SeedPath,
			Registered: p.Registered,
		})
	}

	path, err := d.pub.Publish(ctx, d.runID, rec)
	if err != nil {
		if m := metrics.Get(); m != nil {
			m.IncRecordErrors(d.labels(StageRecord))
		}
		return err
	}
	st.recordPath = path
	d.emit(ctx, events.TypeRecordWritten, StageRecord, map[string]string{"path": path})
	return nil
}

// emit sends an audit event; emission trouble never fails a stage.
func (d *Deployer) emit(ctx context.Context, typ, stage string, detail map[string]string) {
	if err := d.events.Emit(ctx, events.Event{Type: typ, Stage: stage, Detail: detail}); err != nil {
		d.log.Warn("audit event emission failed", "type", typ, "error", err)
	}
}

func (d *Deployer) labels(stage string) metrics.Labels {
	return metrics.Labels{
		Network: d.network,
		Stage:   stage,
	}
}

// sleep waits for the given delay or until ctx is canceled.
func (d *Deployer) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Deployer) settleDelay() time.Duration {
	return time.Duration(d.cfg.Poll.SettleDelayMs) * time.Millisecond
}

func (d *Deployer) stepDelay() time.Duration {
	return time.Duration(d.cfg.Poll.StepDelayMs) * time.Millisecond
}

func encodedPrincipal(p *principal.Principal) *string {
	if p == nil {
		return nil
	}
	return stringPtr(p.Encode())
}

func stringPtr(s string) *string {
	return &s
}
