package cli

import (
	"fmt"

	"github.com/aviate-labs/agent-go/principal"
	"github.com/spf13/cobra"

	"github.com/stakewerk/snsctl/internal/deploy"
	"github.com/stakewerk/snsctl/internal/icp"
	"github.com/stakewerk/snsctl/internal/nns"
)

// NewMintCommand creates the mint command. Minting is a plain transfer
// signed by the embedded minting identity, which creates ICP on a
// local replica.
func NewMintCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		to     string
		amount uint64
	)
	cmd := &cobra.Command{
		Use:           "mint",
		Short:         "Transfer ICP from the minting account to a principal",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMint(cmd, rootOpts, to, amount)
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "receiver principal")
	cmd.Flags().Uint64Var(&amount, "amount", 0, "amount in e8s")
	cmd.MarkFlagRequired("to")
	cmd.MarkFlagRequired("amount")
	return cmd
}

func runMint(cmd *cobra.Command, opts *RootOptions, to string, amount uint64) error {
	cfg := opts.Config()
	pr := printer{out: cmd.OutOrStdout()}
	ctx := cmd.Context()

	receiver, err := principal.Decode(to)
	if err != nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("invalid receiver principal %q", to), err)
	}

	conn, err := deploy.Connect(cfg)
	if err != nil {
		return WrapExitError(ExitCommandError, "connecting to replica", err)
	}
	minter, err := icp.MintingIdentity()
	if err != nil {
		return WrapExitError(ExitCommandError, "loading minting identity", err)
	}
	ledger, err := conn.Ledger(minter)
	if err != nil {
		return WrapExitError(ExitCommandError, "building ledger client", err)
	}

	balance, err := ledger.BalanceOf(ctx, minter.Sender(), nil)
	if err != nil {
		return WrapExitError(ExitFailure, "reading minting account balance", err)
	}

	pr.Header("Minting ICP")
	pr.Info("Receiver: %s", receiver.Encode())
	pr.Info("Minting balance: %d e8s (%s ICP)", balance, icp.FormatICP(balance))
	pr.Info("Amount: %d e8s (%s ICP)", amount, icp.FormatICP(amount))

	height, err := ledger.Transfer(ctx, nns.TransferRequest{To: receiver, AmountE8s: amount})
	if err != nil {
		return WrapExitError(ExitFailure, "minting ICP", err)
	}
	pr.Success("ICP minted, transfer block height %d", height)
	return nil
}

// NewBalanceCommand creates the balance command.
func NewBalanceCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		of         string
		subaccount string
	)
	cmd := &cobra.Command{
		Use:           "balance",
		Short:         "Show the ICP ledger balance of an account",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBalance(cmd, rootOpts, of, subaccount)
		},
	}
	cmd.Flags().StringVar(&of, "of", "", "account owner principal")
	cmd.Flags().StringVar(&subaccount, "subaccount", "", "hex subaccount (32 bytes, default account when omitted)")
	cmd.MarkFlagRequired("of")
	return cmd
}

func runBalance(cmd *cobra.Command, opts *RootOptions, of, subaccount string) error {
	cfg := opts.Config()
	pr := printer{out: cmd.OutOrStdout()}

	owner, err := principal.Decode(of)
	if err != nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("invalid principal %q", of), err)
	}
	sub, err := parseSubaccount(subaccount)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid subaccount", err)
	}

	conn, err := deploy.Connect(cfg)
	if err != nil {
		return WrapExitError(ExitCommandError, "connecting to replica", err)
	}
	ledger, err := conn.Ledger(conn.Owner)
	if err != nil {
		return WrapExitError(ExitCommandError, "building ledger client", err)
	}

	balance, err := ledger.BalanceOf(cmd.Context(), owner, sub)
	if err != nil {
		return WrapExitError(ExitFailure, "reading balance", err)
	}

	pr.Header("ICP Balance")
	pr.Info("Principal: %s", owner.Encode())
	if sub != nil {
		pr.Info("Subaccount: %x", sub.Bytes())
	} else {
		pr.Info("Subaccount: none (default account)")
	}
	pr.Success("Balance: %d e8s (%s ICP)", balance, icp.FormatICP(balance))
	return nil
}
