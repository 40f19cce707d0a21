package nns

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aviate-labs/agent-go"
	"github.com/aviate-labs/agent-go/principal"

	"github.com/stakewerk/snsctl/internal/logging"
)

// SnsWasm is a client for the SNS-W factory canister.
type SnsWasm struct {
	agent      *agent.Agent
	canisterID principal.Principal
	log        *slog.Logger
}

// NewSnsWasm returns an SNS-W client backed by the given agent.
func NewSnsWasm(a *agent.Agent, canisterID principal.Principal) *SnsWasm {
	return &SnsWasm{
		agent:      a,
		canisterID: canisterID,
		log:        logging.Component("snswasm"),
	}
}

// DeployedSns identifies the canister set of one deployed SNS.
type DeployedSns struct {
	RootCanisterID       *principal.Principal `ic:"root_canister_id,omitempty" json:"root_canister_id,omitempty"`
	GovernanceCanisterID *principal.Principal `ic:"governance_canister_id,omitempty" json:"governance_canister_id,omitempty"`
	IndexCanisterID      *principal.Principal `ic:"index_canister_id,omitempty" json:"index_canister_id,omitempty"`
	SwapCanisterID       *principal.Principal `ic:"swap_canister_id,omitempty" json:"swap_canister_id,omitempty"`
	LedgerCanisterID     *principal.Principal `ic:"ledger_canister_id,omitempty" json:"ledger_canister_id,omitempty"`
}

type snsWasmError struct {
	Message string `ic:"message"`
}

type getDeployedSnsRequest struct {
	ProposalID uint64 `ic:"proposal_id"`
}

type getDeployedSnsResult struct {
	Error       *snsWasmError `ic:"Error,variant"`
	DeployedSns *DeployedSns  `ic:"DeployedSns,variant"`
}

type getDeployedSnsResponse struct {
	Result *getDeployedSnsResult `ic:"get_deployed_sns_by_proposal_id_result,omitempty"`
}

type listDeployedSnsesRequest struct{}

type listDeployedSnsesResponse struct {
	Instances []DeployedSns `ic:"instances"`
}

// DeployedSnsByProposal asks the factory which SNS, if any, the given
// proposal deployed. An empty result and a factory-reported error are
// both returned as errors.
func (w *SnsWasm) DeployedSnsByProposal(ctx context.Context, proposalID uint64) (*DeployedSns, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var resp getDeployedSnsResponse
	req := getDeployedSnsRequest{ProposalID: proposalID}
	if err := w.agent.Query(w.canisterID, "get_deployed_sns_by_proposal_id", []any{req}, []any{&resp}); err != nil {
		return nil, fmt.Errorf("get_deployed_sns_by_proposal_id query: %w", err)
	}
	if resp.Result == nil {
		return nil, fmt.Errorf("no deployment reported for proposal %d", proposalID)
	}
	if resp.Result.Error != nil {
		return nil, fmt.Errorf("factory error for proposal %d: %s", proposalID, resp.Result.Error.Message)
	}
	if resp.Result.DeployedSns == nil {
		return nil, fmt.Errorf("factory returned neither deployment nor error for proposal %d", proposalID)
	}
	return resp.Result.DeployedSns, nil
}

// ListDeployedSnses returns every SNS the factory has deployed.
func (w *SnsWasm) ListDeployedSnses(ctx context.Context) ([]DeployedSns, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var resp listDeployedSnsesResponse
	if err := w.agent.Query(w.canisterID, "list_deployed_snses", []any{listDeployedSnsesRequest{}}, []any{&resp}); err != nil {
		return nil, fmt.Errorf("list_deployed_snses query: %w", err)
	}
	w.log.Debug("listed deployed snses", "count", len(resp.Instances))
	return resp.Instances, nil
}
