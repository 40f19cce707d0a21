package cli

import (
	"fmt"

	"github.com/aviate-labs/agent-go/principal"
	"github.com/spf13/cobra"

	"github.com/stakewerk/snsctl/internal/config"
	"github.com/stakewerk/snsctl/internal/deploy"
	"github.com/stakewerk/snsctl/internal/icp"
	"github.com/stakewerk/snsctl/internal/nns"
)

// NewIncreaseDissolveDelayCommand creates the increase-dissolve-delay
// command.
func NewIncreaseDissolveDelayCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		principalFlag string
		neuronID      uint64
		seconds       uint32
	)
	cmd := &cobra.Command{
		Use:           "increase-dissolve-delay",
		Short:         "Increase the dissolve delay of an NNS neuron",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIncreaseDissolveDelay(cmd, rootOpts, principalFlag, neuronID, seconds)
		},
	}
	cmd.Flags().StringVar(&principalFlag, "principal", "", "neuron controller principal (default: operator)")
	cmd.Flags().Uint64Var(&neuronID, "neuron", 0, "neuron ID")
	cmd.Flags().Uint32Var(&seconds, "seconds", 0, "additional dissolve delay in seconds")
	cmd.MarkFlagRequired("neuron")
	cmd.MarkFlagRequired("seconds")
	return cmd
}

func runIncreaseDissolveDelay(cmd *cobra.Command, opts *RootOptions, principalFlag string, neuronID uint64, seconds uint32) error {
	cfg := opts.Config()
	pr := printer{out: cmd.OutOrStdout()}

	gov, subject, err := governanceFor(cfg, principalFlag)
	if err != nil {
		return err
	}

	pr.Header("Increasing Dissolve Delay")
	pr.Info("Principal: %s", subject.Encode())
	pr.Info("Neuron ID: %d", neuronID)
	pr.Info("Additional delay: %d seconds (%d days, %d hours)",
		seconds, seconds/86400, seconds%86400/3600)

	if err := gov.IncreaseDissolveDelay(cmd.Context(), neuronID, seconds); err != nil {
		return WrapExitError(ExitFailure, "increasing dissolve delay", err)
	}
	pr.Success("Dissolve delay increased")
	return nil
}

// NewManageDissolvingCommand creates the manage-dissolving command.
func NewManageDissolvingCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		principalFlag string
		neuronID      uint64
		start         bool
		stop          bool
	)
	cmd := &cobra.Command{
		Use:           "manage-dissolving",
		Short:         "Start or stop dissolving an NNS neuron",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runManageDissolving(cmd, rootOpts, principalFlag, neuronID, start)
		},
	}
	cmd.Flags().StringVar(&principalFlag, "principal", "", "neuron controller principal (default: operator)")
	cmd.Flags().Uint64Var(&neuronID, "neuron", 0, "neuron ID")
	cmd.Flags().BoolVar(&start, "start", false, "start dissolving")
	cmd.Flags().BoolVar(&stop, "stop", false, "stop dissolving")
	cmd.MarkFlagRequired("neuron")
	cmd.MarkFlagsOneRequired("start", "stop")
	cmd.MarkFlagsMutuallyExclusive("start", "stop")
	return cmd
}

func runManageDissolving(cmd *cobra.Command, opts *RootOptions, principalFlag string, neuronID uint64, start bool) error {
	cfg := opts.Config()
	pr := printer{out: cmd.OutOrStdout()}

	gov, subject, err := governanceFor(cfg, principalFlag)
	if err != nil {
		return err
	}

	action := "Stopping"
	if start {
		action = "Starting"
	}
	pr.Header(action + " Dissolving")
	pr.Info("Principal: %s", subject.Encode())
	pr.Info("Neuron ID: %d", neuronID)

	ctx := cmd.Context()
	if start {
		err = gov.StartDissolving(ctx, neuronID)
	} else {
		err = gov.StopDissolving(ctx, neuronID)
	}
	if err != nil {
		return WrapExitError(ExitFailure, "changing dissolving state", err)
	}
	if start {
		pr.Success("Dissolving started")
	} else {
		pr.Success("Dissolving stopped")
	}
	return nil
}

// NewAddHotkeyCommand creates the add-hotkey command.
func NewAddHotkeyCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		hotkey   string
		neuronID uint64
	)
	cmd := &cobra.Command{
		Use:   "add-hotkey",
		Short: "Add a hotkey principal to an NNS neuron",
		Long: `Add a hotkey principal to an NNS neuron controlled by the operator.
Without --neuron the neuron staked by the deployment pipeline is read
from the deployment record. Hotkeys have full neuron control.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAddHotkey(cmd, rootOpts, hotkey, neuronID)
		},
	}
	cmd.Flags().StringVar(&hotkey, "hotkey", "", "hotkey principal")
	cmd.Flags().Uint64Var(&neuronID, "neuron", 0, "neuron ID (default: deployment record neuron)")
	cmd.MarkFlagRequired("hotkey")
	return cmd
}

func runAddHotkey(cmd *cobra.Command, opts *RootOptions, hotkey string, neuronID uint64) error {
	cfg := opts.Config()
	pr := printer{out: cmd.OutOrStdout()}

	hotkeyPrincipal, err := principal.Decode(hotkey)
	if err != nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("invalid hotkey principal %q", hotkey), err)
	}
	neuronID, fromRecord, err := resolveNeuronID(cfg, neuronID)
	if err != nil {
		return err
	}

	gov, _, err := governanceFor(cfg, "")
	if err != nil {
		return err
	}

	pr.Header("Adding Hotkey")
	pr.Info("Hotkey: %s", hotkeyPrincipal.Encode())
	if fromRecord {
		pr.Info("Neuron ID: %d (from deployment record)", neuronID)
	} else {
		pr.Info("Neuron ID: %d", neuronID)
	}

	if err := gov.AddHotKey(cmd.Context(), neuronID, hotkeyPrincipal); err != nil {
		return WrapExitError(ExitFailure, "adding hotkey", err)
	}
	pr.Success("Hotkey added")
	return nil
}

// NewSetVisibilityCommand creates the set-visibility command.
func NewSetVisibilityCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		public   bool
		private  bool
		neuronID uint64
	)
	cmd := &cobra.Command{
		Use:           "set-visibility",
		Short:         "Set the visibility of an NNS neuron",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSetVisibility(cmd, rootOpts, public, neuronID)
		},
	}
	cmd.Flags().BoolVar(&public, "public", false, "make the neuron public")
	cmd.Flags().BoolVar(&private, "private", false, "make the neuron private")
	cmd.Flags().Uint64Var(&neuronID, "neuron", 0, "neuron ID (default: deployment record neuron)")
	cmd.MarkFlagsOneRequired("public", "private")
	cmd.MarkFlagsMutuallyExclusive("public", "private")
	return cmd
}

func runSetVisibility(cmd *cobra.Command, opts *RootOptions, public bool, neuronID uint64) error {
	cfg := opts.Config()
	pr := printer{out: cmd.OutOrStdout()}

	neuronID, fromRecord, err := resolveNeuronID(cfg, neuronID)
	if err != nil {
		return err
	}
	gov, _, err := governanceFor(cfg, "")
	if err != nil {
		return err
	}

	visibility := nns.VisibilityPrivate
	name := "private"
	if public {
		visibility = nns.VisibilityPublic
		name = "public"
	}

	pr.Header("Setting Neuron Visibility")
	if fromRecord {
		pr.Info("Neuron ID: %d (from deployment record)", neuronID)
	} else {
		pr.Info("Neuron ID: %d", neuronID)
	}
	pr.Info("Visibility: %s (%d)", name, visibility)

	if err := gov.SetVisibility(cmd.Context(), neuronID, visibility); err != nil {
		return WrapExitError(ExitFailure, "setting visibility", err)
	}
	pr.Success("Visibility updated")
	return nil
}

// NewDisburseCommand creates the disburse command.
func NewDisburseCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		principalFlag string
		to            string
		neuronID      uint64
		amount        uint64
	)
	cmd := &cobra.Command{
		Use:   "disburse",
		Short: "Disburse a dissolved NNS neuron to a principal",
		Long: `Disburse a dissolved NNS neuron's stake to the default account of a
principal. Without --neuron the controller's neuron with the lowest
dissolve delay is used; without --amount the full stake is disbursed.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDisburse(cmd, rootOpts, principalFlag, to, neuronID, amount)
		},
	}
	cmd.Flags().StringVar(&principalFlag, "principal", "", "neuron controller principal (default: operator)")
	cmd.Flags().StringVar(&to, "to", "", "receiver principal")
	cmd.Flags().Uint64Var(&neuronID, "neuron", 0, "neuron ID (default: lowest dissolve delay)")
	cmd.Flags().Uint64Var(&amount, "amount", 0, "amount in e8s (default: full stake)")
	cmd.MarkFlagRequired("to")
	return cmd
}

func runDisburse(cmd *cobra.Command, opts *RootOptions, principalFlag, to string, neuronID, amount uint64) error {
	cfg := opts.Config()
	pr := printer{out: cmd.OutOrStdout()}
	ctx := cmd.Context()

	receiver, err := principal.Decode(to)
	if err != nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("invalid receiver principal %q", to), err)
	}

	gov, subject, err := governanceFor(cfg, principalFlag)
	if err != nil {
		return err
	}
	if neuronID == 0 {
		neuronID, err = defaultNeuron(ctx, gov)
		if err != nil {
			return WrapExitError(ExitFailure, "selecting neuron", err)
		}
	}

	pr.Header("Disbursing Neuron")
	pr.Info("Principal: %s", subject.Encode())
	pr.Info("Receiver: %s", receiver.Encode())
	pr.Info("Neuron ID: %d", neuronID)
	if amount > 0 {
		pr.Info("Amount: %d e8s (%s ICP)", amount, icp.FormatICP(amount))
	} else {
		pr.Info("Amount: full neuron stake")
	}

	// Disburse pays to a legacy account identifier, not an ICRC account.
	account := icp.AccountIdentifier(receiver, icp.Subaccount{})
	var amountPtr *uint64
	if amount > 0 {
		amountPtr = &amount
	}

	height, err := gov.Disburse(ctx, neuronID, account, amountPtr)
	if err != nil {
		return WrapExitError(ExitFailure, "disbursing neuron", err)
	}
	pr.Success("Neuron disbursed, transfer block height %d", height)
	return nil
}

// governanceFor builds a governance client acting as the resolved
// identity for a --principal flag value.
func governanceFor(cfg *config.Config, principalFlag string) (*nns.Governance, principal.Principal, error) {
	conn, err := deploy.Connect(cfg)
	if err != nil {
		return nil, principal.Principal{}, WrapExitError(ExitCommandError, "connecting to replica", err)
	}
	id, subject, err := actorFor(cfg, principalFlag)
	if err != nil {
		return nil, principal.Principal{}, WrapExitError(ExitCommandError, "resolving identity", err)
	}
	gov, err := conn.Governance(id)
	if err != nil {
		return nil, principal.Principal{}, WrapExitError(ExitCommandError, "building governance client", err)
	}
	return gov, subject, nil
}

// resolveNeuronID substitutes the deployment record neuron when no
// --neuron flag was given. The second result reports whether the
// record supplied the ID.
func resolveNeuronID(cfg *config.Config, flag uint64) (uint64, bool, error) {
	if flag != 0 {
		return flag, false, nil
	}
	id, err := recordedNeuronID(cfg)
	if err != nil {
		return 0, false, WrapExitError(ExitCommandError, "no --neuron given and no usable deployment record", err)
	}
	return id, true, nil
}
