package deploy

import (
	"fmt"

	"github.com/stakewerk/snsctl/internal/config"
)

// NNS governance limits that are not configurable. A claim below the
// minimum stake is rejected, and a neuron below the minimum dissolve
// delay cannot submit proposals.
const (
	minNeuronStakeE8s          = 100_000_000
	minProposalDissolveSeconds = 15_778_800
)

// ValidationResult contains the outcome of deployment preflight
// validation.
type ValidationResult struct {
	Passed   bool
	Errors   []string
	Warnings []string
}

// Preflight performs cross-field checks on the deployment parameters
// before any canister call is made. Errors name conditions under which
// the run cannot succeed; warnings name conditions under which the
// sale will likely not commit.
func Preflight(cfg *config.Config) ValidationResult {
	result := ValidationResult{
		Passed: true,
	}
	amounts := cfg.Amounts
	swap := cfg.Proposal.SNS.Swap

	// Check 1: Developer stake must be claimable as a neuron
	if amounts.DeveloperStakeE8s < minNeuronStakeE8s {
		result.Errors = append(result.Errors,
			fmt.Sprintf("developer stake %d e8s is below the %d e8s neuron minimum", amounts.DeveloperStakeE8s, minNeuronStakeE8s))
		result.Passed = false
	}

	// Check 2: Neuron must end up able to submit proposals
	if uint64(amounts.DissolveDelaySeconds) < minProposalDissolveSeconds {
		result.Errors = append(result.Errors,
			fmt.Sprintf("dissolve delay %d s is below the %d s proposal minimum", amounts.DissolveDelaySeconds, minProposalDissolveSeconds))
		result.Passed = false
	}

	// Check 3: Participation must meet the proposed per-participant
	// minimum. Amounts above the maximum are accepted by the swap and
	// clipped, so that is a warning only.
	if amounts.ParticipationE8s < swap.MinParticipantE8s {
		result.Errors = append(result.Errors,
			fmt.Sprintf("participation %d e8s is below the swap per-participant minimum %d e8s", amounts.ParticipationE8s, swap.MinParticipantE8s))
		result.Passed = false
	}
	if swap.MaxParticipantE8s > 0 && amounts.ParticipationE8s > swap.MaxParticipantE8s {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("participation %d e8s exceeds the swap per-participant maximum %d e8s, the swap will clip the accepted amount", amounts.ParticipationE8s, swap.MaxParticipantE8s))
	}

	// Check 4: Minted funds must cover the participation transfer and its fee
	if amounts.CushionE8s < amounts.TransferFeeE8s {
		result.Errors = append(result.Errors,
			fmt.Sprintf("cushion %d e8s cannot cover the %d e8s transfer fee", amounts.CushionE8s, amounts.TransferFeeE8s))
		result.Passed = false
	}

	// Check 5: Enough participants to satisfy the proposed swap minimum
	if uint64(cfg.Sale.Participants) < swap.MinParticipants {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("%d participants configured but the swap requires %d, the sale will not commit", cfg.Sale.Participants, swap.MinParticipants))
	}

	// Check 6: Combined participation reaches the direct minimum
	totalE8s := amounts.ParticipationE8s * uint64(cfg.Sale.Participants)
	if totalE8s < swap.MinDirectE8s {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("combined participation %d e8s is below the swap direct minimum %d e8s", totalE8s, swap.MinDirectE8s))
	}

	// Check 7: Combined participation within the direct maximum
	if swap.MaxDirectE8s > 0 && totalE8s > swap.MaxDirectE8s {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("combined participation %d e8s exceeds the swap direct maximum %d e8s, later transfers will be clipped or refused", totalE8s, swap.MaxDirectE8s))
	}

	// Check 8: Finalize gate consistent with the proposed thresholds
	if cfg.Sale.MinParticipationE8s < swap.MinDirectE8s {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("finalize gate of %d e8s is below the proposed direct minimum %d e8s", cfg.Sale.MinParticipationE8s, swap.MinDirectE8s))
	}

	// Check 9: Ticket amount acceptable to the swap
	if ticket := amounts.TicketE8s(); ticket < swap.MinParticipantE8s {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("ticket amount %d e8s is below the per-participant minimum %d e8s, ticket creation will likely be refused", ticket, swap.MinParticipantE8s))
	}

	return result
}
