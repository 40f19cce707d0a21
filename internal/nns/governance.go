package nns

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aviate-labs/agent-go"
	"github.com/aviate-labs/agent-go/principal"

	"github.com/stakewerk/snsctl/internal/logging"
)

// Governance is a client for the NNS governance canister, scoped to
// the calling identity of its agent.
type Governance struct {
	agent      *agent.Agent
	canisterID principal.Principal
	log        *slog.Logger
}

// NewGovernance returns a governance client backed by the given agent.
func NewGovernance(a *agent.Agent, canisterID principal.Principal) *Governance {
	return &Governance{
		agent:      a,
		canisterID: canisterID,
		log:        logging.Component("governance"),
	}
}

// manage_neuron wire types. Optional fields the canister declares but
// this client never sets are omitted; the canister reads them as none.

type claimOrRefreshBy struct {
	Memo *uint64 `ic:"Memo,variant"`
}

type claimOrRefresh struct {
	By *claimOrRefreshBy `ic:"by,omitempty"`
}

type increaseDissolveDelay struct {
	AdditionalDissolveDelaySeconds uint32 `ic:"additional_dissolve_delay_seconds"`
}

type addHotKey struct {
	NewHotKey *principal.Principal `ic:"new_hot_key,omitempty"`
}

type setVisibility struct {
	Visibility *int32 `ic:"visibility,omitempty"`
}

type emptyRecord struct{}

type neuronOperation struct {
	IncreaseDissolveDelay *increaseDissolveDelay `ic:"IncreaseDissolveDelay,variant"`
	StartDissolving       *emptyRecord           `ic:"StartDissolving,variant"`
	StopDissolving        *emptyRecord           `ic:"StopDissolving,variant"`
	AddHotKey             *addHotKey             `ic:"AddHotKey,variant"`
	SetVisibility         *setVisibility         `ic:"SetVisibility,variant"`
}

type configure struct {
	Operation *neuronOperation `ic:"operation,omitempty"`
}

type proposalAction struct {
	CreateServiceNervousSystem *CreateServiceNervousSystem `ic:"CreateServiceNervousSystem,variant"`
}

type proposal struct {
	URL     string          `ic:"url"`
	Title   *string         `ic:"title,omitempty"`
	Action  *proposalAction `ic:"action,omitempty"`
	Summary string          `ic:"summary"`
}

type accountIdentifier struct {
	Hash []byte `ic:"hash"`
}

type disburseAmount struct {
	E8s uint64 `ic:"e8s"`
}

type disburse struct {
	ToAccount *accountIdentifier `ic:"to_account,omitempty"`
	Amount    *disburseAmount    `ic:"amount,omitempty"`
}

type neuronCommand struct {
	Configure      *configure      `ic:"Configure,variant"`
	ClaimOrRefresh *claimOrRefresh `ic:"ClaimOrRefresh,variant"`
	MakeProposal   *proposal       `ic:"MakeProposal,variant"`
	Disburse       *disburse       `ic:"Disburse,variant"`
}

type manageNeuronRequest struct {
	ID      *NeuronID      `ic:"id,omitempty"`
	Command *neuronCommand `ic:"command,omitempty"`
}

type claimOrRefreshResponse struct {
	RefreshedNeuronID *NeuronID `ic:"refreshed_neuron_id,omitempty"`
}

type makeProposalResponse struct {
	ProposalID *NeuronID `ic:"proposal_id,omitempty"`
	Message    *string   `ic:"message,omitempty"`
}

type disburseResponse struct {
	TransferBlockHeight uint64 `ic:"transfer_block_height"`
}

type manageNeuronResponseCommand struct {
	Error          *GovernanceError        `ic:"Error,variant"`
	Configure      *emptyRecord            `ic:"Configure,variant"`
	ClaimOrRefresh *claimOrRefreshResponse `ic:"ClaimOrRefresh,variant"`
	MakeProposal   *makeProposalResponse   `ic:"MakeProposal,variant"`
	Disburse       *disburseResponse       `ic:"Disburse,variant"`
}

type manageNeuronResponse struct {
	Command *manageNeuronResponseCommand `ic:"command,omitempty"`
}

func (g *Governance) manageNeuron(ctx context.Context, req manageNeuronRequest) (*manageNeuronResponseCommand, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var resp manageNeuronResponse
	if err := g.agent.Call(g.canisterID, "manage_neuron", []any{req}, []any{&resp}); err != nil {
		return nil, fmt.Errorf("manage_neuron call: %w", err)
	}
	if resp.Command == nil {
		return nil, fmt.Errorf("manage_neuron returned no command")
	}
	if resp.Command.Error != nil {
		return nil, fmt.Errorf("manage_neuron rejected (type %d): %s",
			resp.Command.Error.ErrorType, resp.Command.Error.ErrorMessage)
	}
	return resp.Command, nil
}

// ClaimNeuron claims the neuron staked by the caller under the given
// memo and returns its neuron ID.
func (g *Governance) ClaimNeuron(ctx context.Context, memo uint64) (uint64, error) {
	g.log.Debug("claiming neuron", "memo", memo)
	cmd, err := g.manageNeuron(ctx, manageNeuronRequest{
		Command: &neuronCommand{
			ClaimOrRefresh: &claimOrRefresh{
				By: &claimOrRefreshBy{Memo: &memo},
			},
		},
	})
	if err != nil {
		return 0, fmt.Errorf("claiming neuron: %w", err)
	}
	if cmd.ClaimOrRefresh == nil || cmd.ClaimOrRefresh.RefreshedNeuronID == nil {
		return 0, fmt.Errorf("claim response carried no neuron id")
	}
	return cmd.ClaimOrRefresh.RefreshedNeuronID.ID, nil
}

func (g *Governance) configureNeuron(ctx context.Context, neuronID uint64, op neuronOperation) error {
	cmd, err := g.manageNeuron(ctx, manageNeuronRequest{
		ID: &NeuronID{ID: neuronID},
		Command: &neuronCommand{
			Configure: &configure{Operation: &op},
		},
	})
	if err != nil {
		return err
	}
	if cmd.Configure == nil {
		return fmt.Errorf("configure response missing confirmation")
	}
	return nil
}

// IncreaseDissolveDelay extends the neuron's dissolve delay by the
// given number of seconds.
func (g *Governance) IncreaseDissolveDelay(ctx context.Context, neuronID uint64, additionalSeconds uint32) error {
	g.log.Debug("increasing dissolve delay", "neuron_id", neuronID, "additional_seconds", additionalSeconds)
	err := g.configureNeuron(ctx, neuronID, neuronOperation{
		IncreaseDissolveDelay: &increaseDissolveDelay{AdditionalDissolveDelaySeconds: additionalSeconds},
	})
	if err != nil {
		return fmt.Errorf("increasing dissolve delay for neuron %d: %w", neuronID, err)
	}
	return nil
}

// StartDissolving puts the neuron into dissolving state.
func (g *Governance) StartDissolving(ctx context.Context, neuronID uint64) error {
	err := g.configureNeuron(ctx, neuronID, neuronOperation{StartDissolving: &emptyRecord{}})
	if err != nil {
		return fmt.Errorf("starting dissolve for neuron %d: %w", neuronID, err)
	}
	return nil
}

// StopDissolving halts a dissolving neuron.
func (g *Governance) StopDissolving(ctx context.Context, neuronID uint64) error {
	err := g.configureNeuron(ctx, neuronID, neuronOperation{StopDissolving: &emptyRecord{}})
	if err != nil {
		return fmt.Errorf("stopping dissolve for neuron %d: %w", neuronID, err)
	}
	return nil
}

// AddHotKey authorizes an additional principal to manage the neuron.
func (g *Governance) AddHotKey(ctx context.Context, neuronID uint64, hotKey principal.Principal) error {
	err := g.configureNeuron(ctx, neuronID, neuronOperation{
		AddHotKey: &addHotKey{NewHotKey: &hotKey},
	})
	if err != nil {
		return fmt.Errorf("adding hotkey to neuron %d: %w", neuronID, err)
	}
	return nil
}

// SetVisibility sets the neuron's public visibility.
func (g *Governance) SetVisibility(ctx context.Context, neuronID uint64, visibility int32) error {
	err := g.configureNeuron(ctx, neuronID, neuronOperation{
		SetVisibility: &setVisibility{Visibility: &visibility},
	})
	if err != nil {
		return fmt.Errorf("setting visibility of neuron %d: %w", neuronID, err)
	}
	return nil
}

// SubmitCreateSNSProposal submits a CreateServiceNervousSystem
// proposal from the given neuron and returns the proposal ID. The
// proposal may still fail adoption or execution afterwards; Message
// carries any advisory text governance returned.
func (g *Governance) SubmitCreateSNSProposal(ctx context.Context, neuronID uint64, title, summary string, action CreateServiceNervousSystem) (uint64, string, error) {
	g.log.Debug("submitting proposal", "neuron_id", neuronID, "title", title)
	cmd, err := g.manageNeuron(ctx, manageNeuronRequest{
		ID: &NeuronID{ID: neuronID},
		Command: &neuronCommand{
			MakeProposal: &proposal{
				URL:     "",
				Title:   &title,
				Summary: summary,
				Action:  &proposalAction{CreateServiceNervousSystem: &action},
			},
		},
	})
	if err != nil {
		return 0, "", fmt.Errorf("submitting proposal: %w", err)
	}
	if cmd.MakeProposal == nil || cmd.MakeProposal.ProposalID == nil {
		return 0, "", fmt.Errorf("proposal response carried no proposal id")
	}
	msg := ""
	if cmd.MakeProposal.Message != nil {
		msg = *cmd.MakeProposal.Message
	}
	return cmd.MakeProposal.ProposalID.ID, msg, nil
}

// Disburse pays out a dissolved neuron's stake to the given legacy
// account identifier. A nil amount disburses the full stake. Returns
// the ledger block height of the transfer.
func (g *Governance) Disburse(ctx context.Context, neuronID uint64, toAccount []byte, amountE8s *uint64) (uint64, error) {
	req := disburse{
		ToAccount: &accountIdentifier{Hash: toAccount},
	}
	if amountE8s != nil {
		req.Amount = &disburseAmount{E8s: *amountE8s}
	}
	cmd, err := g.manageNeuron(ctx, manageNeuronRequest{
		ID:      &NeuronID{ID: neuronID},
		Command: &neuronCommand{Disburse: &req},
	})
	if err != nil {
		return 0, fmt.Errorf("disbursing neuron %d: %w", neuronID, err)
	}
	if cmd.Disburse == nil {
		return 0, fmt.Errorf("disburse response missing confirmation")
	}
	return cmd.Disburse.TransferBlockHeight, nil
}

type listNeuronsRequest struct {
	PageSize                            *uint64  `ic:"page_size,omitempty"`
	IncludePublicNeuronsInFullNeurons   *bool    `ic:"include_public_neurons_in_full_neurons,omitempty"`
	NeuronIDs                           []uint64 `ic:"neuron_ids"`
	PageNumber                          *uint64  `ic:"page_number,omitempty"`
	IncludeEmptyNeuronsReadableByCaller *bool    `ic:"include_empty_neurons_readable_by_caller,omitempty"`
	IncludeNeuronsReadableByCaller      bool     `ic:"include_neurons_readable_by_caller"`
}

type listNeuronsResponse struct {
	FullNeurons         []Neuron `ic:"full_neurons"`
	TotalPagesAvailable *uint64  `ic:"total_pages_available,omitempty"`
}

type fullNeuronResult struct {
	Ok  *Neuron          `ic:"Ok,variant"`
	Err *GovernanceError `ic:"Err,variant"`
}

// ListNeurons returns the caller's full neurons sorted by effective
// dissolve delay ascending, stake descending on ties.
func (g *Governance) ListNeurons(ctx context.Context) ([]Neuron, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pageSize := uint64(100)
	pageNumber := uint64(0)
	includePublic := false
	includeEmpty := false
	req := listNeuronsRequest{
		PageSize:                            &pageSize,
		IncludePublicNeuronsInFullNeurons:   &includePublic,
		NeuronIDs:                           []uint64{},
		PageNumber:                          &pageNumber,
		IncludeEmptyNeuronsReadableByCaller: &includeEmpty,
		IncludeNeuronsReadableByCaller:      true,
	}
	var resp listNeuronsResponse
	if err := g.agent.Query(g.canisterID, "list_neurons", []any{req}, []any{&resp}); err != nil {
		return nil, fmt.Errorf("list_neurons query: %w", err)
	}
	SortNeurons(resp.FullNeurons)
	return resp.FullNeurons, nil
}

// GetFullNeuron fetches one neuron readable by the caller.
func (g *Governance) GetFullNeuron(ctx context.Context, neuronID uint64) (*Neuron, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var resp fullNeuronResult
	if err := g.agent.Query(g.canisterID, "get_full_neuron", []any{neuronID}, []any{&resp}); err != nil {
		return nil, fmt.Errorf("get_full_neuron query: %w", err)
	}
	if resp.Err != nil {
		return nil, fmt.Errorf("get_full_neuron rejected (type %d): %s", resp.Err.ErrorType, resp.Err.ErrorMessage)
	}
	if resp.Ok == nil {
		return nil, fmt.Errorf("get_full_neuron returned neither neuron nor error")
	}
	return resp.Ok, nil
}
