package nns

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aviate-labs/agent-go"
	"github.com/aviate-labs/agent-go/candid/idl"
	"github.com/aviate-labs/agent-go/principal"

	"github.com/stakewerk/snsctl/internal/icp"
	"github.com/stakewerk/snsctl/internal/logging"
)

// Ledger is an ICRC-1 client for the ICP ledger canister, scoped to
// the calling identity of its agent.
type Ledger struct {
	agent      *agent.Agent
	canisterID principal.Principal
	log        *slog.Logger
}

// NewLedger returns a ledger client backed by the given agent.
func NewLedger(a *agent.Agent, canisterID principal.Principal) *Ledger {
	return &Ledger{
		agent:      a,
		canisterID: canisterID,
		log:        logging.Component("ledger"),
	}
}

type icrcAccount struct {
	Owner      principal.Principal `ic:"owner"`
	Subaccount *[]byte             `ic:"subaccount,omitempty"`
}

type transferArg struct {
	To             icrcAccount `ic:"to"`
	Fee            *idl.Nat    `ic:"fee,omitempty"`
	Memo           *[]byte     `ic:"memo,omitempty"`
	FromSubaccount *[]byte     `ic:"from_subaccount,omitempty"`
	CreatedAtTime  *uint64     `ic:"created_at_time,omitempty"`
	Amount         idl.Nat     `ic:"amount"`
}

type genericError struct {
	Message   string  `ic:"message"`
	ErrorCode idl.Nat `ic:"error_code"`
}

type badBurn struct {
	MinBurnAmount idl.Nat `ic:"min_burn_amount"`
}

type duplicateError struct {
	DuplicateOf idl.Nat `ic:"duplicate_of"`
}

type badFee struct {
	ExpectedFee idl.Nat `ic:"expected_fee"`
}

type createdInFuture struct {
	LedgerTime uint64 `ic:"ledger_time"`
}

type insufficientFunds struct {
	Balance idl.Nat `ic:"balance"`
}

type transferError struct {
	GenericError           *genericError      `ic:"GenericError,variant"`
	TemporarilyUnavailable *idl.Null          `ic:"TemporarilyUnavailable,variant"`
	BadBurn                *badBurn           `ic:"BadBurn,variant"`
	Duplicate              *duplicateError    `ic:"Duplicate,variant"`
	BadFee                 *badFee            `ic:"BadFee,variant"`
	CreatedInFuture        *createdInFuture   `ic:"CreatedInFuture,variant"`
	TooOld                 *idl.Null          `ic:"TooOld,variant"`
	InsufficientFunds      *insufficientFunds `ic:"InsufficientFunds,variant"`
}

func (e *transferError) describe() string {
	switch {
	case e.GenericError != nil:
		return fmt.Sprintf("generic error %v: %s", e.GenericError.ErrorCode, e.GenericError.Message)
	case e.TemporarilyUnavailable != nil:
		return "ledger temporarily unavailable"
	case e.BadBurn != nil:
		return fmt.Sprintf("bad burn, minimum %v", e.BadBurn.MinBurnAmount)
	case e.Duplicate != nil:
		return fmt.Sprintf("duplicate of block %v", e.Duplicate.DuplicateOf)
	case e.BadFee != nil:
		return fmt.Sprintf("bad fee, expected %v", e.BadFee.ExpectedFee)
	case e.CreatedInFuture != nil:
		return fmt.Sprintf("created in future, ledger time %d", e.CreatedInFuture.LedgerTime)
	case e.TooOld != nil:
		return "transaction too old"
	case e.InsufficientFunds != nil:
		return fmt.Sprintf("insufficient funds, balance %v", e.InsufficientFunds.Balance)
	default:
		return "unknown transfer error"
	}
}

type transferResult struct {
	Ok  *idl.Nat       `ic:"Ok,variant"`
	Err *transferError `ic:"Err,variant"`
}

// TransferRequest describes one ICRC-1 transfer. Fee, memo and
// created_at_time are left to ledger defaults.
type TransferRequest struct {
	To             principal.Principal
	ToSubaccount   *icp.Subaccount
	FromSubaccount *icp.Subaccount
	AmountE8s      uint64
}

// Transfer executes icrc1_transfer and returns the block index.
func (l *Ledger) Transfer(ctx context.Context, req TransferRequest) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	arg := transferArg{
		To:     icrcAccount{Owner: req.To},
		Amount: idl.NewNat(req.AmountE8s),
	}
	if req.ToSubaccount != nil {
		sub := req.ToSubaccount.Bytes()
		arg.To.Subaccount = &sub
	}
	if req.FromSubaccount != nil {
		sub := req.FromSubaccount.Bytes()
		arg.FromSubaccount = &sub
	}

	l.log.Debug("submitting transfer",
		"to", req.To.Encode(),
		"amount_e8s", req.AmountE8s,
		"subaccount", req.ToSubaccount != nil)

	var result transferResult
	if err := l.agent.Call(l.canisterID, "icrc1_transfer", []any{arg}, []any{&result}); err != nil {
		return 0, fmt.Errorf("icrc1_transfer call: %w", err)
	}
	if result.Err != nil {
		return 0, fmt.Errorf("icrc1_transfer rejected: %s", result.Err.describe())
	}
	if result.Ok == nil {
		return 0, fmt.Errorf("icrc1_transfer returned neither block nor error")
	}
	return result.Ok.BigInt().Uint64(), nil
}

// BalanceOf queries the e8s balance of an account.
func (l *Ledger) BalanceOf(ctx context.Context, owner principal.Principal, sub *icp.Subaccount) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	account := icrcAccount{Owner: owner}
	if sub != nil {
		b := sub.Bytes()
		account.Subaccount = &b
	}
	var balance idl.Nat
	if err := l.agent.Query(l.canisterID, "icrc1_balance_of", []any{account}, []any{&balance}); err != nil {
		return 0, fmt.Errorf("icrc1_balance_of query: %w", err)
	}
	return balance.BigInt().Uint64(), nil
}

// TransferFee queries the ledger's transfer fee in e8s.
func (l *Ledger) TransferFee(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var fee idl.Nat
	if err := l.agent.Query(l.canisterID, "icrc1_fee", []any{}, []any{&fee}); err != nil {
		return 0, fmt.Errorf("icrc1_fee query: %w", err)
	}
	return fee.BigInt().Uint64(), nil
}
