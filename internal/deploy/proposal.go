package deploy

import (
	"encoding/base64"
	"os"

	"github.com/aviate-labs/agent-go/principal"

	"github.com/stakewerk/snsctl/internal/config"
	"github.com/stakewerk/snsctl/internal/logging"
	"github.com/stakewerk/snsctl/internal/nns"
)

// defaultLogo is the embedded fallback token logo, used when no logo
// file is configured or the configured one cannot be read.
const defaultLogo = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAACAAAAAgCAIAAAD8GO2jAAAFJElEQVR4nG2WT4slZxXGf8+puvd298z0ZDLp9BCTjAlGBnElCAoDLty6cCTgwm8gfoCAe79CNu7cKAiShW6yUBAkKEgEEYOQsZ1BkkxPt9N/771VdR4Xb1Xd23On4HKr3fe9589zznnOq//+8K4YnuDxw+bkuJMAbHZvVW/cnRjAlXmiyQ9uv31YRQBm6Xj/zqMHN48XDkA1zz7xkz9mVL2+hFoYKDaEimqBKT+QleXVoyfjq2RpJSohW4AE"

// loadLogo returns the base64 data URL for the SNS logo: the file at
// path if readable, the embedded fallback otherwise.
func loadLogo(path string) string {
	log := logging.Component("proposal")
	if path == "" {
		return defaultLogo
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Warn("logo file not readable, using embedded fallback", "path", path, "error", err)
		return defaultLogo
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(data)
}

// BuildCreateSNS maps the configured SNS parameters onto the
// CreateServiceNervousSystem proposal action. The owner becomes the
// fallback controller and the controller of the genesis developer
// neuron.
func BuildCreateSNS(cfg config.SNSConfig, owner principal.Principal) nns.CreateServiceNervousSystem {
	logo := loadLogo(cfg.LogoPath)

	return nns.CreateServiceNervousSystem{
		Name:                           stringPtr(cfg.Name),
		Description:                    stringPtr(cfg.Description),
		URL:                            stringPtr(cfg.URL),
		Logo:                           nns.Base64Image(logo),
		FallbackControllerPrincipalIDs: []principal.Principal{owner},
		DappCanisters:                  []nns.Canister{},
		LedgerParameters: &nns.LedgerParameters{
			TransactionFee: nns.TokensE8s(cfg.Token.TransactionFeeE8s),
			TokenSymbol:    stringPtr(cfg.Token.Symbol),
			TokenLogo:      nns.Base64Image(logo),
			TokenName:      stringPtr(cfg.Token.Name),
		},
		GovernanceParameters: &nns.GovernanceParameters{
			NeuronMaximumDissolveDelayBonus:      nns.BasisPoints(cfg.Governance.MaxDissolveDelayBonusBp),
			NeuronMaximumAgeBonus:                nns.BasisPoints(cfg.Governance.MaxAgeBonusBp),
			NeuronMinimumStake:                   nns.TokensE8s(cfg.Governance.MinStakeE8s),
			NeuronMaximumAgeForAgeBonus:          nns.Seconds(cfg.Governance.MaxAgeForBonusSeconds),
			NeuronMaximumDissolveDelay:           nns.Seconds(cfg.Governance.MaxDissolveDelaySeconds),
			NeuronMinimumDissolveDelayToVote:     nns.Seconds(cfg.Governance.MinDissolveDelayToVoteSeconds),
			ProposalInitialVotingPeriod:          nns.Seconds(cfg.Governance.VotingPeriodSeconds),
			ProposalWaitForQuietDeadlineIncrease: nns.Seconds(cfg.Governance.WaitForQuietIncreaseSeconds),
			ProposalRejectionFee:                 nns.TokensE8s(cfg.Governance.RejectionFeeE8s),
			VotingRewardParameters: &nns.VotingRewardParameters{
				InitialRewardRate:            nns.BasisPoints(cfg.Governance.InitialRewardRateBp),
				FinalRewardRate:              nns.BasisPoints(cfg.Governance.FinalRewardRateBp),
				RewardRateTransitionDuration: nns.Seconds(cfg.Governance.RewardTransitionSeconds),
			},
		},
		SwapParameters: &nns.SwapParameters{
			MinimumParticipants:           uint64Ptr(cfg.Swap.MinParticipants),
			NeuronsFundParticipation:      boolPtr(cfg.Swap.NeuronsFundParticipation),
			MinimumDirectParticipationICP: nns.TokensE8s(cfg.Swap.MinDirectE8s),
			MaximumDirectParticipationICP: nns.TokensE8s(cfg.Swap.MaxDirectE8s),
			MinimumParticipantICP:         nns.TokensE8s(cfg.Swap.MinParticipantE8s),
			MaximumParticipantICP:         nns.TokensE8s(cfg.Swap.MaxParticipantE8s),
			RestrictedCountries:           &nns.Countries{ISOCodes: restrictedCountries(cfg.Swap.RestrictedCountries)},
			Duration:                      nns.Seconds(cfg.Swap.DurationSeconds),
			NeuronBasketConstructionParameters: &nns.NeuronBasketConstructionParameters{
				Count:                 uint64Ptr(cfg.Swap.BasketCount),
				DissolveDelayInterval: nns.Seconds(cfg.Swap.BasketIntervalSeconds),
			},
		},
		InitialTokenDistribution: &nns.InitialTokenDistribution{
			TreasuryDistribution: &nns.SwapDistribution{
				Total: nns.TokensE8s(cfg.Distribution.TreasuryE8s),
			},
			DeveloperDistribution: &nns.DeveloperDistribution{
				DeveloperNeurons: []nns.NeuronDistribution{
					{
						Controller:    &owner,
						DissolveDelay: nns.Seconds(cfg.Distribution.DeveloperDissolveDelaySeconds),
						Memo:          uint64Ptr(cfg.Distribution.DeveloperMemo),
						VestingPeriod: nns.Seconds(cfg.Distribution.DeveloperVestingSeconds),
						Stake:         nns.TokensE8s(cfg.Distribution.DeveloperStakeE8s),
					},
				},
			},
			SwapDistribution: &nns.SwapDistribution{
				Total: nns.TokensE8s(cfg.Distribution.SwapTotalE8s),
			},
		},
	}
}

func restrictedCountries(codes []string) []string {
	if codes == nil {
		return []string{}
	}
	return codes
}

func uint64Ptr(v uint64) *uint64 {
	return &v
}

func boolPtr(v bool) *bool {
	return &v
}
