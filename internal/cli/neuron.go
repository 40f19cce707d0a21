package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/stakewerk/snsctl/internal/deploy"
	"github.com/stakewerk/snsctl/internal/icp"
	"github.com/stakewerk/snsctl/internal/nns"
)

// NewCreateNeuronCommand creates the create-neuron command: transfer
// stake to the governance subaccount for a memo and claim the neuron.
func NewCreateNeuronCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		principalFlag string
		amount        uint64
		memo          uint64
		dissolveDelay uint32
	)
	cmd := &cobra.Command{
		Use:   "create-neuron",
		Short: "Stake ICP and claim a new NNS neuron",
		Long: `Stake ICP and claim a new NNS neuron for a principal whose identity is
resolvable: the operator, or a participant recorded in the deployment
record. Without --memo the stake memo is the existing neuron count plus
one, so repeated invocations create distinct neurons.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreateNeuron(cmd, rootOpts, principalFlag, amount, memo, dissolveDelay)
		},
	}
	cmd.Flags().StringVar(&principalFlag, "principal", "", "staking principal (default: operator)")
	cmd.Flags().Uint64Var(&amount, "amount", 0, "stake amount in e8s")
	cmd.Flags().Uint64Var(&memo, "memo", 0, "stake memo (default: neuron count + 1)")
	cmd.Flags().Uint32Var(&dissolveDelay, "dissolve-delay", 0, "dissolve delay in seconds to set after claiming")
	cmd.MarkFlagRequired("amount")
	return cmd
}

func runCreateNeuron(cmd *cobra.Command, opts *RootOptions, principalFlag string, amount, memo uint64, dissolveDelay uint32) error {
	cfg := opts.Config()
	pr := printer{out: cmd.OutOrStdout()}
	ctx := cmd.Context()

	conn, err := deploy.Connect(cfg)
	if err != nil {
		return WrapExitError(ExitCommandError, "connecting to replica", err)
	}
	id, subject, err := actorFor(cfg, principalFlag)
	if err != nil {
		return WrapExitError(ExitCommandError, "resolving identity", err)
	}
	gov, err := conn.Governance(id)
	if err != nil {
		return WrapExitError(ExitCommandError, "building governance client", err)
	}
	ledger, err := conn.Ledger(id)
	if err != nil {
		return WrapExitError(ExitCommandError, "building ledger client", err)
	}

	existing, err := gov.ListNeurons(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "listing existing neurons", err)
	}
	if memo == 0 {
		memo = uint64(len(existing)) + 1
	}

	pr.Header("Creating ICP Neuron")
	pr.Info("Principal: %s", subject.Encode())
	pr.Info("Existing neurons: %d", len(existing))
	pr.Info("Amount: %d e8s (%s ICP)", amount, icp.FormatICP(amount))
	pr.Info("Memo: %d", memo)
	if dissolveDelay > 0 {
		pr.Info("Dissolve delay: %d seconds", dissolveDelay)
	}

	sub := icp.NeuronStakeSubaccount(subject, memo)
	pr.Step("transferring stake to governance subaccount %x", sub.Bytes())
	if _, err := ledger.Transfer(ctx, nns.TransferRequest{
		To:           conn.GovernanceID,
		ToSubaccount: &sub,
		AmountE8s:    amount,
	}); err != nil {
		return WrapExitError(ExitFailure, "transferring stake", err)
	}

	// Let the ledger settle before governance reads the subaccount.
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(time.Duration(cfg.Poll.SettleDelayMs) * time.Millisecond):
	}

	pr.Step("claiming neuron")
	neuronID, err := gov.ClaimNeuron(ctx, memo)
	if err != nil {
		return WrapExitError(ExitFailure, "claiming neuron", err)
	}

	if dissolveDelay > 0 {
		if err := gov.IncreaseDissolveDelay(ctx, neuronID, dissolveDelay); err != nil {
			return WrapExitError(ExitFailure, "setting dissolve delay", err)
		}
	}

	pr.Success("Neuron created, ID %d", neuronID)
	return nil
}

// NewListNeuronsCommand creates the list-neurons command.
func NewListNeuronsCommand(rootOpts *RootOptions) *cobra.Command {
	var principalFlag string
	cmd := &cobra.Command{
		Use:           "list-neurons",
		Short:         "List the NNS neurons readable by a principal",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runListNeurons(cmd, rootOpts, principalFlag)
		},
	}
	cmd.Flags().StringVar(&principalFlag, "principal", "", "principal to list for (default: operator)")
	return cmd
}

func runListNeurons(cmd *cobra.Command, opts *RootOptions, principalFlag string) error {
	cfg := opts.Config()
	pr := printer{out: cmd.OutOrStdout()}

	conn, err := deploy.Connect(cfg)
	if err != nil {
		return WrapExitError(ExitCommandError, "connecting to replica", err)
	}
	id, subject, err := actorFor(cfg, principalFlag)
	if err != nil {
		return WrapExitError(ExitCommandError, "resolving identity", err)
	}
	gov, err := conn.Governance(id)
	if err != nil {
		return WrapExitError(ExitCommandError, "building governance client", err)
	}

	neurons, err := gov.ListNeurons(cmd.Context())
	if err != nil {
		return WrapExitError(ExitFailure, "listing neurons", err)
	}

	pr.Header("ICP Neurons")
	pr.Info("Principal: %s", subject.Encode())
	if len(neurons) == 0 {
		pr.Warning("no neurons found for this principal")
		return nil
	}
	pr.Success("found %d neuron(s)", len(neurons))

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\n%-4s %-20s %-20s %-24s %s\n", "#", "NEURON ID", "STAKE (E8S)", "DISSOLVE DELAY", "HOTKEYS")
	for i, n := range neurons {
		neuronID := "<none>"
		if n.ID != nil {
			neuronID = fmt.Sprintf("%d", n.ID.ID)
		}
		fmt.Fprintf(out, "%-4d %-20s %-20d %-24s %d\n",
			i+1, neuronID, n.CachedNeuronStakeE8s, dissolveSummary(&n), len(n.HotKeys))
	}
	return nil
}

// dissolveSummary renders a neuron's dissolve state for the listing.
func dissolveSummary(n *nns.Neuron) string {
	if n.DissolveState == nil {
		return "no state"
	}
	delay := n.EffectiveDissolveDelaySeconds()
	if delay == 0 {
		return "dissolving"
	}
	return fmt.Sprintf("%dd %dh (%ds)", delay/86400, delay%86400/3600, delay)
}

// NewGetNeuronCommand creates the get-neuron command.
func NewGetNeuronCommand(rootOpts *RootOptions) *cobra.Command {
	var neuronID uint64
	cmd := &cobra.Command{
		Use:   "get-neuron",
		Short: "Print a full NNS neuron as JSON",
		Long: `Print a full NNS neuron as JSON. Without --neuron the neuron staked by
the deployment pipeline is read from the deployment record.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGetNeuron(cmd, rootOpts, neuronID)
		},
	}
	cmd.Flags().Uint64Var(&neuronID, "neuron", 0, "neuron ID (default: deployment record neuron)")
	return cmd
}

func runGetNeuron(cmd *cobra.Command, opts *RootOptions, neuronID uint64) error {
	cfg := opts.Config()
	pr := printer{out: cmd.OutOrStdout()}

	neuronID, fromRecord, err := resolveNeuronID(cfg, neuronID)
	if err != nil {
		return err
	}
	pr.Header("ICP Neuron")
	if fromRecord {
		pr.Info("Neuron ID: %d (from deployment record)", neuronID)
	} else {
		pr.Info("Neuron ID: %d", neuronID)
	}

	conn, err := deploy.Connect(cfg)
	if err != nil {
		return WrapExitError(ExitCommandError, "connecting to replica", err)
	}
	gov, err := conn.Governance(conn.Owner)
	if err != nil {
		return WrapExitError(ExitCommandError, "building governance client", err)
	}

	neuron, err := gov.GetFullNeuron(cmd.Context(), neuronID)
	if err != nil {
		return WrapExitError(ExitFailure, "fetching neuron", err)
	}

	data, err := json.MarshalIndent(neuron, "", "  ")
	if err != nil {
		return WrapExitError(ExitFailure, "encoding neuron", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
