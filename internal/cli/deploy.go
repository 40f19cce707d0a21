package cli

import (
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/stakewerk/snsctl/internal/deploy"
	"github.com/stakewerk/snsctl/internal/events"
	"github.com/stakewerk/snsctl/internal/logging"
	"github.com/stakewerk/snsctl/internal/metrics"
	"github.com/stakewerk/snsctl/internal/record"
)

// NewDeployCommand creates the deploy command.
func NewDeployCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Run the full SNS deployment pipeline",
		Long: `Run the full SNS deployment pipeline against the configured replica:
fund and stake the developer neuron, submit the CreateServiceNervousSystem
proposal, wait for the factory to deploy the canister set, drive the swap
with deterministic participants, finalize it, and write the deployment
record.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeploy(cmd, rootOpts)
		},
	}
	return cmd
}

func runDeploy(cmd *cobra.Command, opts *RootOptions) error {
	cfg := opts.Config()
	pr := printer{out: cmd.OutOrStdout()}
	ctx := cmd.Context()

	if cfg.Metrics.Enabled && metrics.Get() != nil {
		go func() {
			if err := metrics.StartServer(cfg.Metrics.Address); err != nil {
				logging.Component("metrics").Error("metrics server failed", "error", err)
			}
		}()
	}

	conn, err := deploy.Connect(cfg)
	if err != nil {
		return WrapExitError(ExitCommandError, "connecting to replica", err)
	}
	svc, err := deploy.NewServices(conn)
	if err != nil {
		return WrapExitError(ExitCommandError, "building canister clients", err)
	}

	seeds := record.NewSeedStore(cfg.Record.OutputDir)
	store := record.NewStore(cfg.Record.OutputDir)

	var mirror *record.Mirror
	if cfg.Record.Mirror.Enabled {
		mirror, err = record.NewMirror(ctx, record.MirrorConfig{
			Backend:   cfg.Record.Mirror.Backend,
			Bucket:    cfg.Record.Mirror.Bucket,
			Prefix:    cfg.Record.Mirror.Prefix,
			Region:    cfg.Record.Mirror.Region,
			LocalPath: cfg.Record.Mirror.LocalPath,
		})
		if err != nil {
			return WrapExitError(ExitCommandError, "opening record mirror", err)
		}
		defer mirror.Close()
	}
	pub := record.NewPublisher(store, seeds, cfg.Record.Bundle, mirror)

	runID := uuid.NewString()
	emitter := events.NewEmitter(cfg.Events.Enabled, cfg.Events.Path, runID, cfg.Network.Profile)
	defer emitter.Close()

	res, err := deploy.New(cfg, svc, seeds, pub, emitter, runID).Run(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "deployment failed", err)
	}

	registered := 0
	for _, p := range res.Participants {
		if p.Registered {
			registered++
		}
	}

	pr.Header("SNS Deployment Complete")
	pr.Info("Run ID: %s", res.RunID)
	pr.Info("Neuron ID: %d", res.NeuronID)
	pr.Info("Proposal ID: %d", res.ProposalID)
	pr.Info("Governance: %s", res.Endpoints.Governance.Encode())
	pr.Info("Ledger: %s", res.Endpoints.Ledger.Encode())
	pr.Info("Swap: %s", res.Endpoints.Swap.Encode())
	pr.Info("Participants registered: %d/%d", registered, len(res.Participants))
	pr.Success("Deployment record written to %s", res.RecordPath)
	return nil
}
