package cli

import (
	"github.com/spf13/cobra"

	"github.com/stakewerk/snsctl/internal/deploy"
)

// NewCheckDeployedCommand creates the check-deployed command. The exit
// code reports the result: 0 when at least one SNS is deployed, 1
// otherwise, so the command works as a shell guard.
func NewCheckDeployedCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "check-deployed",
		Short:         "Check whether the SNS-W factory reports a deployed SNS",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheckDeployed(cmd, rootOpts)
		},
	}
	return cmd
}

func runCheckDeployed(cmd *cobra.Command, opts *RootOptions) error {
	cfg := opts.Config()
	pr := printer{out: cmd.OutOrStdout()}

	conn, err := deploy.Connect(cfg)
	if err != nil {
		return WrapExitError(ExitCommandError, "connecting to replica", err)
	}
	factory, err := conn.Factory()
	if err != nil {
		return WrapExitError(ExitCommandError, "building SNS-W client", err)
	}

	deployed, err := factory.ListDeployedSnses(cmd.Context())
	if err != nil {
		return WrapExitError(ExitFailure, "listing deployed SNS instances", err)
	}
	if len(deployed) == 0 {
		return NewExitError(ExitFailure, "no SNS deployed")
	}

	pr.Success("%d SNS instance(s) deployed", len(deployed))
	for _, sns := range deployed {
		if sns.RootCanisterID != nil {
			pr.Info("root canister: %s", sns.RootCanisterID.Encode())
		}
	}
	return nil
}
