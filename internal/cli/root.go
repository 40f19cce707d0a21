package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stakewerk/snsctl/internal/config"
	"github.com/stakewerk/snsctl/internal/logging"
)

// RootOptions holds global flags shared by all commands. The loaded
// configuration is resolved once in the root PersistentPreRunE and
// read by subcommands through Config.
type RootOptions struct {
	ConfigPath string
	Network    string
	Verbose    bool

	cfg *config.Config
}

// Config returns the configuration loaded for this invocation.
func (o *RootOptions) Config() *config.Config {
	return o.cfg
}

// NewRootCommand creates the root command for the snsctl CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "snsctl",
		Short: "SNS deployment orchestration for Internet Computer replicas",
		Long: `snsctl stakes an NNS neuron, submits a CreateServiceNervousSystem
proposal, drives the decentralization swap with deterministic test
participants, finalizes the sale, and writes a deployment record.
Supplementary commands manage neurons and ledger accounts on the
same replica.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				return WrapExitError(ExitCommandError, "loading configuration", err)
			}
			if opts.Network != "" {
				cfg.Network.Profile = opts.Network
			}
			if opts.Verbose {
				cfg.Logging.Level = "debug"
			}
			if _, err := cfg.ResolveNetwork(); err != nil {
				return WrapExitError(ExitCommandError, fmt.Sprintf("resolving network %q", cfg.Network.Profile), err)
			}
			logging.Setup(cfg.Logging)
			opts.cfg = cfg
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to YAML config (defaults apply when omitted)")
	cmd.PersistentFlags().StringVar(&opts.Network, "network", "", "network profile override (e.g. local, ic)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")

	// Add subcommands
	cmd.AddCommand(NewDeployCommand(opts))
	cmd.AddCommand(NewCheckDeployedCommand(opts))
	cmd.AddCommand(NewMintCommand(opts))
	cmd.AddCommand(NewBalanceCommand(opts))
	cmd.AddCommand(NewCreateNeuronCommand(opts))
	cmd.AddCommand(NewListNeuronsCommand(opts))
	cmd.AddCommand(NewGetNeuronCommand(opts))
	cmd.AddCommand(NewIncreaseDissolveDelayCommand(opts))
	cmd.AddCommand(NewManageDissolvingCommand(opts))
	cmd.AddCommand(NewAddHotkeyCommand(opts))
	cmd.AddCommand(NewSetVisibilityCommand(opts))
	cmd.AddCommand(NewDisburseCommand(opts))

	return cmd
}
