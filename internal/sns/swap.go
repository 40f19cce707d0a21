// Package sns provides a thin client for a deployed SNS swap
// canister.
package sns

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aviate-labs/agent-go"
	"github.com/aviate-labs/agent-go/principal"

	"github.com/stakewerk/snsctl/internal/icp"
	"github.com/stakewerk/snsctl/internal/logging"
)

// Swap lifecycle codes reported by get_lifecycle.
const (
	LifecycleUnspecified int32 = 0
	LifecyclePending     int32 = 1
	LifecycleOpen        int32 = 2
	LifecycleCommitted   int32 = 3
	LifecycleAborted     int32 = 4
)

// LifecycleName returns a readable name for a lifecycle code.
func LifecycleName(code int32) string {
	switch code {
	case LifecyclePending:
		return "PENDING"
	case LifecycleOpen:
		return "OPEN"
	case LifecycleCommitted:
		return "COMMITTED"
	case LifecycleAborted:
		return "ABORTED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", code)
	}
}

// Swap is a client for one SNS swap canister.
type Swap struct {
	agent      *agent.Agent
	canisterID principal.Principal
	log        *slog.Logger
}

// New returns a swap client backed by the given agent.
func New(a *agent.Agent, canisterID principal.Principal) *Swap {
	return &Swap{
		agent:      a,
		canisterID: canisterID,
		log:        logging.Component("swap"),
	}
}

// CanisterID returns the swap canister principal.
func (s *Swap) CanisterID() principal.Principal {
	return s.canisterID
}

type getLifecycleResponse struct {
	Lifecycle                *int32  `ic:"lifecycle,omitempty"`
	SaleOpenTimestampSeconds *uint64 `ic:"decentralization_sale_open_timestamp_seconds,omitempty"`
}

// LifecycleInfo is the state reported by get_lifecycle. A canister
// that reports no lifecycle yields code zero.
type LifecycleInfo struct {
	Lifecycle                int32
	SaleOpenTimestampSeconds *uint64
}

// Lifecycle queries the swap's lifecycle state.
func (s *Swap) Lifecycle(ctx context.Context) (LifecycleInfo, error) {
	if err := ctx.Err(); err != nil {
		return LifecycleInfo{}, err
	}
	var resp getLifecycleResponse
	if err := s.agent.Query(s.canisterID, "get_lifecycle", []any{struct{}{}}, []any{&resp}); err != nil {
		return LifecycleInfo{}, fmt.Errorf("get_lifecycle query: %w", err)
	}
	info := LifecycleInfo{SaleOpenTimestampSeconds: resp.SaleOpenTimestampSeconds}
	if resp.Lifecycle != nil {
		info.Lifecycle = *resp.Lifecycle
	}
	return info, nil
}

// DerivedState is the aggregate sale state reported by
// get_derived_state.
type DerivedState struct {
	SnsTokensPerICP           *float64 `ic:"sns_tokens_per_icp,omitempty" json:"sns_tokens_per_icp,omitempty"`
	BuyerTotalICPE8s          *uint64  `ic:"buyer_total_icp_e8s,omitempty" json:"buyer_total_icp_e8s,omitempty"`
	CfParticipantCount        *uint64  `ic:"cf_participant_count,omitempty" json:"cf_participant_count,omitempty"`
	DirectParticipantCount    *uint64  `ic:"direct_participant_count,omitempty" json:"direct_participant_count,omitempty"`
	CfNeuronCount             *uint64  `ic:"cf_neuron_count,omitempty" json:"cf_neuron_count,omitempty"`
	DirectParticipationICPE8s *uint64  `ic:"direct_participation_icp_e8s,omitempty" json:"direct_participation_icp_e8s,omitempty"`
}

// DerivedState queries the sale's aggregate participation state.
func (s *Swap) DerivedState(ctx context.Context) (*DerivedState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var resp DerivedState
	if err := s.agent.Query(s.canisterID, "get_derived_state", []any{struct{}{}}, []any{&resp}); err != nil {
		return nil, fmt.Errorf("get_derived_state query: %w", err)
	}
	return &resp, nil
}

type ticketAccount struct {
	Owner      *principal.Principal `ic:"owner,omitempty"`
	Subaccount *[]byte              `ic:"subaccount,omitempty"`
}

// Ticket is an open sale ticket held by a buyer.
type Ticket struct {
	CreationTime uint64         `ic:"creation_time"`
	TicketID     uint64         `ic:"ticket_id"`
	Account      *ticketAccount `ic:"account,omitempty"`
	AmountICPE8s uint64         `ic:"amount_icp_e8s"`
}

type newSaleTicketRequest struct {
	Subaccount   *[]byte `ic:"subaccount,omitempty"`
	AmountICPE8s uint64  `ic:"amount_icp_e8s"`
}

type invalidUserAmount struct {
	MinAmountICPE8sIncluded uint64 `ic:"min_amount_icp_e8s_included"`
	MaxAmountICPE8sIncluded uint64 `ic:"max_amount_icp_e8s_included"`
}

type newSaleTicketErr struct {
	ErrorType         int32              `ic:"error_type"`
	InvalidUserAmount *invalidUserAmount `ic:"invalid_user_amount,omitempty"`
	ExistingTicket    *Ticket            `ic:"existing_ticket,omitempty"`
}

type newSaleTicketOk struct {
	Ticket *Ticket `ic:"ticket,omitempty"`
}

type newSaleTicketResult struct {
	Ok  *newSaleTicketOk  `ic:"Ok,variant"`
	Err *newSaleTicketErr `ic:"Err,variant"`
}

type newSaleTicketResponse struct {
	Result *newSaleTicketResult `ic:"result,omitempty"`
}

// AmountBounds is the accepted per-ticket amount range reported with
// an invalid-amount rejection.
type AmountBounds struct {
	MinE8s uint64
	MaxE8s uint64
}

// TicketError is a sale-ticket rejection from the swap canister.
type TicketError struct {
	ErrorType      int32
	InvalidAmount  *AmountBounds
	ExistingTicket *Ticket
}

func (e *TicketError) Error() string {
	switch {
	case e.ExistingTicket != nil:
		return fmt.Sprintf("ticket rejected (type %d): ticket %d already open", e.ErrorType, e.ExistingTicket.TicketID)
	case e.InvalidAmount != nil:
		return fmt.Sprintf("ticket rejected (type %d): amount outside [%d, %d] e8s", e.ErrorType, e.InvalidAmount.MinE8s, e.InvalidAmount.MaxE8s)
	default:
		return fmt.Sprintf("ticket rejected (type %d)", e.ErrorType)
	}
}

// NewSaleTicket opens a sale ticket for the calling buyer. Rejections
// are returned as *TicketError.
func (s *Swap) NewSaleTicket(ctx context.Context, amountE8s uint64, subaccount *icp.Subaccount) (*Ticket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	req := newSaleTicketRequest{AmountICPE8s: amountE8s}
	if subaccount != nil {
		b := subaccount.Bytes()
		req.Subaccount = &b
	}
	var resp newSaleTicketResponse
	if err := s.agent.Call(s.canisterID, "new_sale_ticket", []any{req}, []any{&resp}); err != nil {
		return nil, fmt.Errorf("new_sale_ticket call: %w", err)
	}
	if resp.Result == nil {
		return nil, fmt.Errorf("new_sale_ticket returned no result")
	}
	if resp.Result.Err != nil {
		te := &TicketError{ErrorType: resp.Result.Err.ErrorType, ExistingTicket: resp.Result.Err.ExistingTicket}
		if ia := resp.Result.Err.InvalidUserAmount; ia != nil {
			te.InvalidAmount = &AmountBounds{MinE8s: ia.MinAmountICPE8sIncluded, MaxE8s: ia.MaxAmountICPE8sIncluded}
		}
		return nil, te
	}
	if resp.Result.Ok == nil || resp.Result.Ok.Ticket == nil {
		return nil, fmt.Errorf("new_sale_ticket returned neither ticket nor error")
	}
	return resp.Result.Ok.Ticket, nil
}

type refreshBuyerTokensRequest struct {
	ConfirmationText *string `ic:"confirmation_text,omitempty"`
	Buyer            string  `ic:"buyer"`
}

// RefreshResult reports what the swap accepted for a buyer after
// re-reading its ledger subaccount.
type RefreshResult struct {
	AcceptedParticipationE8s uint64 `ic:"icp_accepted_participation_e8s"`
	LedgerAccountBalanceE8s  uint64 `ic:"icp_ledger_account_balance_e8s"`
}

// RefreshBuyerTokens asks the swap to check the buyer's transferred
// funds and credit the participation.
func (s *Swap) RefreshBuyerTokens(ctx context.Context, buyer string) (RefreshResult, error) {
	if err := ctx.Err(); err != nil {
		return RefreshResult{}, err
	}
	var resp RefreshResult
	req := refreshBuyerTokensRequest{Buyer: buyer}
	if err := s.agent.Call(s.canisterID, "refresh_buyer_tokens", []any{req}, []any{&resp}); err != nil {
		return RefreshResult{}, fmt.Errorf("refresh_buyer_tokens call: %w", err)
	}
	return resp, nil
}

type finalizeSwapResponse struct {
	ErrorMessage *string `ic:"error_message,omitempty"`
}

// Finalize triggers swap finalization. A non-empty returned string is
// the canister-reported finalization error; the call itself succeeded.
func (s *Swap) Finalize(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var resp finalizeSwapResponse
	if err := s.agent.Call(s.canisterID, "finalize_swap", []any{struct{}{}}, []any{&resp}); err != nil {
		return "", fmt.Errorf("finalize_swap call: %w", err)
	}
	if resp.ErrorMessage != nil {
		return *resp.ErrorMessage, nil
	}
	s.log.Debug("finalize_swap completed")
	return "", nil
}
