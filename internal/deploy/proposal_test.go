package deploy

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestBuildCreateSNSMapping(t *testing.T) {
	cfg := testConfig(t).Proposal.SNS
	owner := testPrincipal(0x0a)
	action := BuildCreateSNS(cfg, owner)

	if action.Name == nil || *action.Name != cfg.Name {
		t.Errorf("name = %v, want %s", action.Name, cfg.Name)
	}
	if action.URL == nil || *action.URL != cfg.URL {
		t.Errorf("url = %v, want %s", action.URL, cfg.URL)
	}
	if action.Logo == nil || action.Logo.Base64Encoding == nil ||
		!strings.HasPrefix(*action.Logo.Base64Encoding, "data:image/png;base64,") {
		t.Error("logo is not a base64 data URL")
	}
	if len(action.FallbackControllerPrincipalIDs) != 1 ||
		action.FallbackControllerPrincipalIDs[0].Encode() != owner.Encode() {
		t.Errorf("fallback controllers = %v, want the owner", action.FallbackControllerPrincipalIDs)
	}
	if action.DappCanisters == nil {
		t.Error("dapp canisters is absent, want an empty list")
	}

	lp := action.LedgerParameters
	if lp == nil {
		t.Fatal("no ledger parameters")
	}
	if lp.TokenSymbol == nil || *lp.TokenSymbol != cfg.Token.Symbol {
		t.Errorf("token symbol = %v, want %s", lp.TokenSymbol, cfg.Token.Symbol)
	}
	if lp.TokenName == nil || *lp.TokenName != cfg.Token.Name {
		t.Errorf("token name = %v, want %s", lp.TokenName, cfg.Token.Name)
	}
	if *lp.TransactionFee.E8s != cfg.Token.TransactionFeeE8s {
		t.Errorf("transaction fee = %d, want %d", *lp.TransactionFee.E8s, cfg.Token.TransactionFeeE8s)
	}

	gp := action.GovernanceParameters
	if gp == nil {
		t.Fatal("no governance parameters")
	}
	if *gp.NeuronMinimumStake.E8s != cfg.Governance.MinStakeE8s {
		t.Errorf("neuron minimum stake = %d, want %d", *gp.NeuronMinimumStake.E8s, cfg.Governance.MinStakeE8s)
	}
	if *gp.NeuronMaximumDissolveDelay.Seconds != cfg.Governance.MaxDissolveDelaySeconds {
		t.Errorf("maximum dissolve delay = %d, want %d", *gp.NeuronMaximumDissolveDelay.Seconds, cfg.Governance.MaxDissolveDelaySeconds)
	}
	if *gp.ProposalInitialVotingPeriod.Seconds != cfg.Governance.VotingPeriodSeconds {
		t.Errorf("voting period = %d, want %d", *gp.ProposalInitialVotingPeriod.Seconds, cfg.Governance.VotingPeriodSeconds)
	}
	if *gp.ProposalRejectionFee.E8s != cfg.Governance.RejectionFeeE8s {
		t.Errorf("rejection fee = %d, want %d", *gp.ProposalRejectionFee.E8s, cfg.Governance.RejectionFeeE8s)
	}
	if gp.VotingRewardParameters == nil ||
		*gp.VotingRewardParameters.InitialRewardRate.BasisPoints != cfg.Governance.InitialRewardRateBp {
		t.Error("voting reward parameters not mapped")
	}

	sp := action.SwapParameters
	if sp == nil {
		t.Fatal("no swap parameters")
	}
	if *sp.MinimumParticipants != cfg.Swap.MinParticipants {
		t.Errorf("minimum participants = %d, want %d", *sp.MinimumParticipants, cfg.Swap.MinParticipants)
	}
	if *sp.NeuronsFundParticipation != cfg.Swap.NeuronsFundParticipation {
		t.Errorf("neurons fund participation = %v, want %v", *sp.NeuronsFundParticipation, cfg.Swap.NeuronsFundParticipation)
	}
	if *sp.MinimumParticipantICP.E8s != cfg.Swap.MinParticipantE8s {
		t.Errorf("minimum participant = %d, want %d", *sp.MinimumParticipantICP.E8s, cfg.Swap.MinParticipantE8s)
	}
	if *sp.MaximumDirectParticipationICP.E8s != cfg.Swap.MaxDirectE8s {
		t.Errorf("maximum direct participation = %d, want %d", *sp.MaximumDirectParticipationICP.E8s, cfg.Swap.MaxDirectE8s)
	}
	if *sp.Duration.Seconds != cfg.Swap.DurationSeconds {
		t.Errorf("duration = %d, want %d", *sp.Duration.Seconds, cfg.Swap.DurationSeconds)
	}
	if sp.RestrictedCountries == nil || len(sp.RestrictedCountries.ISOCodes) != len(cfg.Swap.RestrictedCountries) {
		t.Errorf("restricted countries = %v, want %v", sp.RestrictedCountries, cfg.Swap.RestrictedCountries)
	}
	if *sp.NeuronBasketConstructionParameters.Count != cfg.Swap.BasketCount {
		t.Errorf("basket count = %d, want %d", *sp.NeuronBasketConstructionParameters.Count, cfg.Swap.BasketCount)
	}

	dist := action.InitialTokenDistribution
	if dist == nil {
		t.Fatal("no token distribution")
	}
	if *dist.TreasuryDistribution.Total.E8s != cfg.Distribution.TreasuryE8s {
		t.Errorf("treasury = %d, want %d", *dist.TreasuryDistribution.Total.E8s, cfg.Distribution.TreasuryE8s)
	}
	if *dist.SwapDistribution.Total.E8s != cfg.Distribution.SwapTotalE8s {
		t.Errorf("swap total = %d, want %d", *dist.SwapDistribution.Total.E8s, cfg.Distribution.SwapTotalE8s)
	}
	neurons := dist.DeveloperDistribution.DeveloperNeurons
	if len(neurons) != 1 {
		t.Fatalf("got %d developer neurons, want 1", len(neurons))
	}
	if neurons[0].Controller == nil || neurons[0].Controller.Encode() != owner.Encode() {
		t.Error("developer neuron is not controlled by the owner")
	}
	if *neurons[0].Stake.E8s != cfg.Distribution.DeveloperStakeE8s {
		t.Errorf("developer stake = %d, want %d", *neurons[0].Stake.E8s, cfg.Distribution.DeveloperStakeE8s)
	}
	if *neurons[0].VestingPeriod.Seconds != cfg.Distribution.DeveloperVestingSeconds {
		t.Errorf("vesting = %d, want %d", *neurons[0].VestingPeriod.Seconds, cfg.Distribution.DeveloperVestingSeconds)
	}
}

func TestLoadLogoEmbeddedFallback(t *testing.T) {
	if got := loadLogo(""); got != defaultLogo {
		t.Error("empty path did not fall back to the embedded logo")
	}
	if got := loadLogo(filepath.Join(t.TempDir(), "missing.png")); got != defaultLogo {
		t.Error("unreadable path did not fall back to the embedded logo")
	}
}

func TestLoadLogoFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logo.png")
	content := []byte{0x89, 'P', 'N', 'G'}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}
	want := "data:image/png;base64," + base64.StdEncoding.EncodeToString(content)
	if got := loadLogo(path); got != want {
		t.Errorf("loadLogo() = %q, want %q", got, want)
	}
}

func TestRestrictedCountries(t *testing.T) {
	if got := restrictedCountries(nil); got == nil || len(got) != 0 {
		t.Errorf("nil codes = %v, want an empty non-nil slice", got)
	}
	codes := []string{"AQ", "KP"}
	if got := restrictedCountries(codes); len(got) != 2 || got[0] != "AQ" || got[1] != "KP" {
		t.Errorf("codes = %v, want %v", got, codes)
	}
}
