package nns

import "github.com/aviate-labs/agent-go/principal"

// Candid building blocks shared across the CreateServiceNervousSystem
// payload.

// Tokens is an optional e8s amount record.
type Tokens struct {
	E8s *uint64 `ic:"e8s,omitempty" json:"e8s,omitempty"`
}

// Duration is an optional seconds record.
type Duration struct {
	Seconds *uint64 `ic:"seconds,omitempty" json:"seconds,omitempty"`
}

// Percentage is an optional basis-points record.
type Percentage struct {
	BasisPoints *uint64 `ic:"basis_points,omitempty" json:"basis_points,omitempty"`
}

// Image carries a base64 data URL.
type Image struct {
	Base64Encoding *string `ic:"base64_encoding,omitempty" json:"base64_encoding,omitempty"`
}

// Canister wraps an optional canister principal.
type Canister struct {
	ID *principal.Principal `ic:"id,omitempty" json:"id,omitempty"`
}

// Countries restricts sale participation by ISO country code.
type Countries struct {
	ISOCodes []string `ic:"iso_codes" json:"iso_codes"`
}

// GlobalTimeOfDay is a UTC day offset in seconds.
type GlobalTimeOfDay struct {
	SecondsAfterUTCMidnight *uint64 `ic:"seconds_after_utc_midnight,omitempty" json:"seconds_after_utc_midnight,omitempty"`
}

// LedgerParameters configures the SNS ledger canister.
type LedgerParameters struct {
	TransactionFee *Tokens `ic:"transaction_fee,omitempty" json:"transaction_fee,omitempty"`
	TokenSymbol    *string `ic:"token_symbol,omitempty" json:"token_symbol,omitempty"`
	TokenLogo      *Image  `ic:"token_logo,omitempty" json:"token_logo,omitempty"`
	TokenName      *string `ic:"token_name,omitempty" json:"token_name,omitempty"`
}

// VotingRewardParameters configures the SNS reward schedule.
type VotingRewardParameters struct {
	RewardRateTransitionDuration *Duration   `ic:"reward_rate_transition_duration,omitempty" json:"reward_rate_transition_duration,omitempty"`
	InitialRewardRate            *Percentage `ic:"initial_reward_rate,omitempty" json:"initial_reward_rate,omitempty"`
	FinalRewardRate              *Percentage `ic:"final_reward_rate,omitempty" json:"final_reward_rate,omitempty"`
}

// GovernanceParameters configures the SNS governance canister.
type GovernanceParameters struct {
	NeuronMaximumDissolveDelayBonus       *Percentage             `ic:"neuron_maximum_dissolve_delay_bonus,omitempty" json:"neuron_maximum_dissolve_delay_bonus,omitempty"`
	NeuronMaximumAgeForAgeBonus           *Duration               `ic:"neuron_maximum_age_for_age_bonus,omitempty" json:"neuron_maximum_age_for_age_bonus,omitempty"`
	NeuronMaximumDissolveDelay            *Duration               `ic:"neuron_maximum_dissolve_delay,omitempty" json:"neuron_maximum_dissolve_delay,omitempty"`
	NeuronMinimumDissolveDelayToVote      *Duration               `ic:"neuron_minimum_dissolve_delay_to_vote,omitempty" json:"neuron_minimum_dissolve_delay_to_vote,omitempty"`
	NeuronMaximumAgeBonus                 *Percentage             `ic:"neuron_maximum_age_bonus,omitempty" json:"neuron_maximum_age_bonus,omitempty"`
	NeuronMinimumStake                    *Tokens                 `ic:"neuron_minimum_stake,omitempty" json:"neuron_minimum_stake,omitempty"`
	ProposalWaitForQuietDeadlineIncrease  *Duration               `ic:"proposal_wait_for_quiet_deadline_increase,omitempty" json:"proposal_wait_for_quiet_deadline_increase,omitempty"`
	ProposalInitialVotingPeriod           *Duration               `ic:"proposal_initial_voting_period,omitempty" json:"proposal_initial_voting_period,omitempty"`
	ProposalRejectionFee                  *Tokens                 `ic:"proposal_rejection_fee,omitempty" json:"proposal_rejection_fee,omitempty"`
	VotingRewardParameters                *VotingRewardParameters `ic:"voting_reward_parameters,omitempty" json:"voting_reward_parameters,omitempty"`
}

// NeuronBasketConstructionParameters shapes the neuron baskets minted
// for sale buyers.
type NeuronBasketConstructionParameters struct {
	DissolveDelayInterval *Duration `ic:"dissolve_delay_interval,omitempty" json:"dissolve_delay_interval,omitempty"`
	Count                 *uint64   `ic:"count,omitempty" json:"count,omitempty"`
}

// SwapParameters configures the decentralization swap.
type SwapParameters struct {
	MinimumParticipants                *uint64                             `ic:"minimum_participants,omitempty" json:"minimum_participants,omitempty"`
	NeuronsFundParticipation           *bool                               `ic:"neurons_fund_participation,omitempty" json:"neurons_fund_participation,omitempty"`
	Duration                           *Duration                           `ic:"duration,omitempty" json:"duration,omitempty"`
	NeuronBasketConstructionParameters *NeuronBasketConstructionParameters `ic:"neuron_basket_construction_parameters,omitempty" json:"neuron_basket_construction_parameters,omitempty"`
	ConfirmationText                   *string                             `ic:"confirmation_text,omitempty" json:"confirmation_text,omitempty"`
	MaximumParticipantICP              *Tokens                             `ic:"maximum_participant_icp,omitempty" json:"maximum_participant_icp,omitempty"`
	MinimumICP                         *Tokens                             `ic:"minimum_icp,omitempty" json:"minimum_icp,omitempty"`
	MinimumDirectParticipationICP      *Tokens                             `ic:"minimum_direct_participation_icp,omitempty" json:"minimum_direct_participation_icp,omitempty"`
	MinimumParticipantICP              *Tokens                             `ic:"minimum_participant_icp,omitempty" json:"minimum_participant_icp,omitempty"`
	StartTime                          *GlobalTimeOfDay                    `ic:"start_time,omitempty" json:"start_time,omitempty"`
	MaximumDirectParticipationICP      *Tokens                             `ic:"maximum_direct_participation_icp,omitempty" json:"maximum_direct_participation_icp,omitempty"`
	MaximumICP                         *Tokens                             `ic:"maximum_icp,omitempty" json:"maximum_icp,omitempty"`
	NeuronsFundInvestmentICP           *Tokens                             `ic:"neurons_fund_investment_icp,omitempty" json:"neurons_fund_investment_icp,omitempty"`
	RestrictedCountries                *Countries                          `ic:"restricted_countries,omitempty" json:"restricted_countries,omitempty"`
}

// NeuronDistribution seeds one developer neuron at genesis.
type NeuronDistribution struct {
	Controller    *principal.Principal `ic:"controller,omitempty" json:"controller,omitempty"`
	DissolveDelay *Duration            `ic:"dissolve_delay,omitempty" json:"dissolve_delay,omitempty"`
	Memo          *uint64              `ic:"memo,omitempty" json:"memo,omitempty"`
	VestingPeriod *Duration            `ic:"vesting_period,omitempty" json:"vesting_period,omitempty"`
	Stake         *Tokens              `ic:"stake,omitempty" json:"stake,omitempty"`
}

// DeveloperDistribution holds the genesis developer neurons.
type DeveloperDistribution struct {
	DeveloperNeurons []NeuronDistribution `ic:"developer_neurons" json:"developer_neurons"`
}

// SwapDistribution is a total token allocation.
type SwapDistribution struct {
	Total *Tokens `ic:"total,omitempty" json:"total,omitempty"`
}

// InitialTokenDistribution allocates SNS tokens at genesis.
type InitialTokenDistribution struct {
	TreasuryDistribution  *SwapDistribution      `ic:"treasury_distribution,omitempty" json:"treasury_distribution,omitempty"`
	DeveloperDistribution *DeveloperDistribution `ic:"developer_distribution,omitempty" json:"developer_distribution,omitempty"`
	SwapDistribution      *SwapDistribution      `ic:"swap_distribution,omitempty" json:"swap_distribution,omitempty"`
}

// CreateServiceNervousSystem is the proposal action that asks SNS-W to
// deploy a new SNS.
type CreateServiceNervousSystem struct {
	URL                            *string                   `ic:"url,omitempty" json:"url,omitempty"`
	GovernanceParameters           *GovernanceParameters     `ic:"governance_parameters,omitempty" json:"governance_parameters,omitempty"`
	FallbackControllerPrincipalIDs []principal.Principal     `ic:"fallback_controller_principal_ids" json:"fallback_controller_principal_ids"`
	Logo                           *Image                    `ic:"logo,omitempty" json:"logo,omitempty"`
	Name                           *string                   `ic:"name,omitempty" json:"name,omitempty"`
	LedgerParameters               *LedgerParameters         `ic:"ledger_parameters,omitempty" json:"ledger_parameters,omitempty"`
	Description                    *string                   `ic:"description,omitempty" json:"description,omitempty"`
	DappCanisters                  []Canister                `ic:"dapp_canisters" json:"dapp_canisters"`
	SwapParameters                 *SwapParameters           `ic:"swap_parameters,omitempty" json:"swap_parameters,omitempty"`
	InitialTokenDistribution       *InitialTokenDistribution `ic:"initial_token_distribution,omitempty" json:"initial_token_distribution,omitempty"`
}

// TokensE8s wraps an e8s amount.
func TokensE8s(e8s uint64) *Tokens {
	return &Tokens{E8s: &e8s}
}

// Seconds wraps a duration in seconds.
func Seconds(s uint64) *Duration {
	return &Duration{Seconds: &s}
}

// BasisPoints wraps a percentage in basis points.
func BasisPoints(bp uint64) *Percentage {
	return &Percentage{BasisPoints: &bp}
}

// Base64Image wraps an image data URL.
func Base64Image(data string) *Image {
	return &Image{Base64Encoding: &data}
}
