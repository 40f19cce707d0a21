// Package config loads and validates deployer configuration from an
// optional YAML file layered over built-in defaults, with a small set
// of environment overrides.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/aviate-labs/agent-go/principal"
	"gopkg.in/yaml.v3"

	"github.com/stakewerk/snsctl/internal/logging"
	"github.com/stakewerk/snsctl/internal/metrics"
)

var (
	// ErrNoProfile indicates the selected network profile is not defined.
	ErrNoProfile = errors.New("no matching network profile")

	// ErrDuplicateProfile indicates two profiles share a name.
	ErrDuplicateProfile = errors.New("duplicate network profile")
)

// Config is the full deployer configuration.
type Config struct {
	Network  NetworkConfig    `yaml:"network"`
	Profiles []NetworkProfile `yaml:"profiles"`
	Identity IdentityConfig   `yaml:"identity"`
	Amounts  AmountsConfig    `yaml:"amounts"`
	Sale     SaleConfig       `yaml:"sale"`
	Poll     PollConfig       `yaml:"poll"`
	Proposal ProposalConfig   `yaml:"proposal"`
	Record   RecordConfig     `yaml:"record"`
	Events   EventsConfig     `yaml:"events"`
	Logging  logging.Config   `yaml:"logging"`
	Metrics  metrics.Config   `yaml:"metrics"`
}

// NetworkConfig selects a profile and optionally overrides parts of it.
type NetworkConfig struct {
	Profile              string `yaml:"profile"`
	ReplicaURL           string `yaml:"replica_url"`
	FetchRootKey         *bool  `yaml:"fetch_root_key"`
	IngressExpirySeconds uint32 `yaml:"ingress_expiry_seconds"`
	GovernanceCanister   string `yaml:"governance_canister"`
	LedgerCanister       string `yaml:"ledger_canister"`
	SnsWasmCanister      string `yaml:"sns_wasm_canister"`
}

// NetworkProfile is one named replica target. An empty replica URL
// defers to dfx environment resolution.
type NetworkProfile struct {
	Name               string `yaml:"name"`
	ReplicaURL         string `yaml:"replica_url"`
	FetchRootKey       bool   `yaml:"fetch_root_key"`
	GovernanceCanister string `yaml:"governance_canister"`
	LedgerCanister     string `yaml:"ledger_canister"`
	SnsWasmCanister    string `yaml:"sns_wasm_canister"`
}

// IdentityConfig selects the operator identity.
type IdentityConfig struct {
	DfxIdentity string `yaml:"dfx_identity"`
}

// AmountsConfig fixes the e8s amounts and neuron parameters used
// during deployment.
type AmountsConfig struct {
	DeveloperStakeE8s    uint64 `yaml:"developer_stake_e8s"`
	ParticipationE8s     uint64 `yaml:"participation_e8s"`
	CushionE8s           uint64 `yaml:"cushion_e8s"`
	MaxTicketE8s         uint64 `yaml:"max_ticket_e8s"`
	TransferFeeE8s       uint64 `yaml:"transfer_fee_e8s"`
	ClaimMemo            uint64 `yaml:"claim_memo"`
	DissolveDelaySeconds uint32 `yaml:"dissolve_delay_seconds"`
}

// ParticipantMintE8s is the amount minted to each participant: the
// participation itself plus a cushion for fees and one transfer fee.
func (a AmountsConfig) ParticipantMintE8s() uint64 {
	return a.ParticipationE8s + a.CushionE8s + a.TransferFeeE8s
}

// TicketE8s is the sale-ticket amount: the participation capped at the
// ticket maximum.
func (a AmountsConfig) TicketE8s() uint64 {
	if a.ParticipationE8s < a.MaxTicketE8s {
		return a.ParticipationE8s
	}
	return a.MaxTicketE8s
}

// SaleConfig drives the participant phase and finalization gating.
type SaleConfig struct {
	Participants              int    `yaml:"participants"`
	Parallelism               int    `yaml:"parallelism"`
	MinParticipants           uint64 `yaml:"min_participants"`
	MinParticipationE8s       uint64 `yaml:"min_participation_e8s"`
	ForceFinalizeOnThresholds bool   `yaml:"force_finalize_on_thresholds"`
}

// PollConfig holds every polling budget and settle delay. Intervals
// are milliseconds.
type PollConfig struct {
	ProposalAttempts    int `yaml:"proposal_attempts"`
	ProposalIntervalMs  int `yaml:"proposal_interval_ms"`
	SaleOpenAttempts    int `yaml:"sale_open_attempts"`
	SaleOpenIntervalMs  int `yaml:"sale_open_interval_ms"`
	RefreshAttempts     int `yaml:"refresh_attempts"`
	RefreshZeroDelayMs  int `yaml:"refresh_zero_delay_ms"`
	RefreshErrorDelayMs int `yaml:"refresh_error_delay_ms"`
	FinalizeAttempts    int `yaml:"finalize_attempts"`
	FinalizeIntervalMs  int `yaml:"finalize_interval_ms"`
	SettleDelayMs       int `yaml:"settle_delay_ms"`
	StepDelayMs         int `yaml:"step_delay_ms"`
}

// ProposalConfig carries the proposal text and the SNS parameters it
// proposes.
type ProposalConfig struct {
	Title   string    `yaml:"title"`
	Summary string    `yaml:"summary"`
	SNS     SNSConfig `yaml:"sns"`
}

// SNSConfig describes the SNS to be created.
type SNSConfig struct {
	Name         string             `yaml:"name"`
	Description  string             `yaml:"description"`
	URL          string             `yaml:"url"`
	LogoPath     string             `yaml:"logo_path"`
	Token        TokenConfig        `yaml:"token"`
	Governance   GovernanceConfig   `yaml:"governance"`
	Swap         SwapConfig         `yaml:"swap"`
	Distribution DistributionConfig `yaml:"distribution"`
}

// TokenConfig configures the SNS ledger token.
type TokenConfig struct {
	Symbol            string `yaml:"symbol"`
	Name              string `yaml:"name"`
	TransactionFeeE8s uint64 `yaml:"transaction_fee_e8s"`
}

// GovernanceConfig configures the proposed SNS governance canister.
type GovernanceConfig struct {
	MaxDissolveDelayBonusBp       uint64 `yaml:"max_dissolve_delay_bonus_bp"`
	MaxAgeBonusBp                 uint64 `yaml:"max_age_bonus_bp"`
	MinStakeE8s                   uint64 `yaml:"min_stake_e8s"`
	MaxAgeForBonusSeconds         uint64 `yaml:"max_age_for_bonus_seconds"`
	MaxDissolveDelaySeconds       uint64 `yaml:"max_dissolve_delay_seconds"`
	MinDissolveDelayToVoteSeconds uint64 `yaml:"min_dissolve_delay_to_vote_seconds"`
	VotingPeriodSeconds           uint64 `yaml:"voting_period_seconds"`
	WaitForQuietIncreaseSeconds   uint64 `yaml:"wait_for_quiet_increase_seconds"`
	RejectionFeeE8s               uint64 `yaml:"rejection_fee_e8s"`
	InitialRewardRateBp           uint64 `yaml:"initial_reward_rate_bp"`
	FinalRewardRateBp             uint64 `yaml:"final_reward_rate_bp"`
	RewardTransitionSeconds       uint64 `yaml:"reward_transition_seconds"`
}

// SwapConfig configures the proposed decentralization swap.
type SwapConfig struct {
	MinParticipants          uint64   `yaml:"min_participants"`
	NeuronsFundParticipation bool     `yaml:"neurons_fund_participation"`
	MinDirectE8s             uint64   `yaml:"min_direct_e8s"`
	MaxDirectE8s             uint64   `yaml:"max_direct_e8s"`
	MinParticipantE8s        uint64   `yaml:"min_participant_e8s"`
	MaxParticipantE8s        uint64   `yaml:"max_participant_e8s"`
	DurationSeconds          uint64   `yaml:"duration_seconds"`
	BasketCount              uint64   `yaml:"basket_count"`
	BasketIntervalSeconds    uint64   `yaml:"basket_interval_seconds"`
	RestrictedCountries      []string `yaml:"restricted_countries"`
}

// DistributionConfig configures the initial SNS token distribution.
type DistributionConfig struct {
	TreasuryE8s                   uint64 `yaml:"treasury_e8s"`
	SwapTotalE8s                  uint64 `yaml:"swap_total_e8s"`
	DeveloperStakeE8s             uint64 `yaml:"developer_stake_e8s"`
	DeveloperDissolveDelaySeconds uint64 `yaml:"developer_dissolve_delay_seconds"`
	DeveloperVestingSeconds       uint64 `yaml:"developer_vesting_seconds"`
	DeveloperMemo                 uint64 `yaml:"developer_memo"`
}

// RecordConfig controls deployment record persistence.
type RecordConfig struct {
	OutputDir string       `yaml:"output_dir"`
	Bundle    bool         `yaml:"bundle"`
	Mirror    MirrorConfig `yaml:"mirror"`
}

// MirrorConfig optionally copies record artifacts to a blob store.
type MirrorConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Backend   string `yaml:"backend"` // "local" | "gcs" | "s3"
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	Region    string `yaml:"region"`
	LocalPath string `yaml:"local_path"`
}

// EventsConfig controls the audit event log.
type EventsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Default returns the built-in configuration: a stock local replica,
// the standard NNS canister IDs, and the AcmeDAO proposal parameters.
func Default() *Config {
	return &Config{
		Network: NetworkConfig{
			Profile:              "local",
			IngressExpirySeconds: 300,
		},
		Profiles: []NetworkProfile{
			{
				Name:               "local",
				FetchRootKey:       true,
				GovernanceCanister: "rrkah-fqaaa-aaaaa-aaaaq-cai",
				LedgerCanister:     "ryjl3-tyaaa-aaaaa-aaaba-cai",
				SnsWasmCanister:    "qaa6y-5yaaa-aaaaa-aaafa-cai",
			},
			{
				Name:               "ic",
				ReplicaURL:         "https://ic0.app",
				FetchRootKey:       false,
				GovernanceCanister: "rrkah-fqaaa-aaaaa-aaaaq-cai",
				LedgerCanister:     "ryjl3-tyaaa-aaaaa-aaaba-cai",
				SnsWasmCanister:    "qaa6y-5yaaa-aaaaa-aaafa-cai",
			},
		},
		Identity: IdentityConfig{
			DfxIdentity: "default",
		},
		Amounts: AmountsConfig{
			DeveloperStakeE8s:    100_000_000_000_000,
			ParticipationE8s:     100_000_000_000,
			CushionE8s:           1_000_000_000,
			MaxTicketE8s:         1_000_000_000,
			TransferFeeE8s:       10_000,
			ClaimMemo:            1,
			DissolveDelaySeconds: 252_460_800,
		},
		Sale: SaleConfig{
			Participants:              5,
			Parallelism:               2,
			MinParticipants:           5,
			MinParticipationE8s:       500_000_000,
			ForceFinalizeOnThresholds: true,
		},
		Poll: PollConfig{
			ProposalAttempts:    60,
			ProposalIntervalMs:  10_000,
			SaleOpenAttempts:    300,
			SaleOpenIntervalMs:  2_000,
			RefreshAttempts:     3,
			RefreshZeroDelayMs:  3_000,
			RefreshErrorDelayMs: 2_000,
			FinalizeAttempts:    30,
			FinalizeIntervalMs:  1_000,
			SettleDelayMs:       2_000,
			StepDelayMs:         1_000,
		},
		Proposal: ProposalConfig{
			Title:   "Deploy AcmeDAO SNS",
			Summary: "This proposal creates a new Service Nervous System (SNS) for AcmeDAO with configured governance parameters, token distribution, and swap mechanics.",
			SNS: SNSConfig{
				Name:        "AcmeDAO",
				Description: "AcmeDAO is a decentralized autonomous organization built on the Internet Computer Protocol. It enables community governance, token distribution, and collaborative decision-making through transparent voting mechanisms and smart contract automation.",
				URL:         "https://acmedao.io",
				Token: TokenConfig{
					Symbol:            "ACME",
					Name:              "Acme Token",
					TransactionFeeE8s: 10_000,
				},
				Governance: GovernanceConfig{
					MaxDissolveDelayBonusBp:       10_000,
					MaxAgeBonusBp:                 0,
					MinStakeE8s:                   10_000_000,
					MaxAgeForBonusSeconds:         4 * 365 * 24 * 60 * 60,
					MaxDissolveDelaySeconds:       8 * 365 * 24 * 60 * 60,
					MinDissolveDelayToVoteSeconds: 30 * 24 * 60 * 60,
					VotingPeriodSeconds:           4 * 24 * 60 * 60,
					WaitForQuietIncreaseSeconds:   24 * 60 * 60,
					RejectionFeeE8s:               11_000_000,
					InitialRewardRateBp:           0,
					FinalRewardRateBp:             0,
					RewardTransitionSeconds:       0,
				},
				Swap: SwapConfig{
					MinParticipants:          5,
					NeuronsFundParticipation: false,
					MinDirectE8s:             5 * 100_000_000,
					MaxDirectE8s:             5 * 1_000_000_000,
					MinParticipantE8s:        100_000_000,
					MaxParticipantE8s:        1_000_000_000,
					DurationSeconds:          7 * 24 * 60 * 60,
					BasketCount:              3,
					BasketIntervalSeconds:    30 * 24 * 60 * 60,
					RestrictedCountries:      []string{"AQ"},
				},
				Distribution: DistributionConfig{
					TreasuryE8s:                   1_000_000_000,
					SwapTotalE8s:                  2_000_000_000,
					DeveloperStakeE8s:             100_000_000,
					DeveloperDissolveDelaySeconds: 2 * 365 * 24 * 60 * 60,
					DeveloperVestingSeconds:       4 * 365 * 24 * 60 * 60,
					DeveloperMemo:                 0,
				},
			},
		},
		Record: RecordConfig{
			OutputDir: "generated",
		},
		Events: EventsConfig{
			Path: "generated/events.jsonl",
		},
		Logging: logging.Config{
			Format: "text",
			Level:  "info",
		},
		Metrics: metrics.Config{
			Address: ":9090",
		},
	}
}

// Load reads the YAML file at path over the defaults and applies
// environment overrides. An empty path loads defaults only.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoad loads configuration or exits the process.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return cfg
}

func (c *Config) applyEnv() {
	c.Network.Profile = getenvDefault("SNSCTL_NETWORK", c.Network.Profile)
	c.Network.ReplicaURL = getenvDefault("SNSCTL_REPLICA_URL", c.Network.ReplicaURL)
	c.Identity.DfxIdentity = getenvDefault("SNSCTL_DFX_IDENTITY", c.Identity.DfxIdentity)
	c.Record.OutputDir = getenvDefault("SNSCTL_OUTPUT_DIR", c.Record.OutputDir)
	c.Logging.Level = getenvDefault("SNSCTL_LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = getenvDefault("SNSCTL_LOG_FORMAT", c.Logging.Format)
	c.Metrics.Address = getenvDefault("SNSCTL_METRICS_ADDRESS", c.Metrics.Address)
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	seen := make(map[string]bool)
	for _, p := range c.Profiles {
		if p.Name == "" {
			return fmt.Errorf("network profile with empty name")
		}
		if seen[p.Name] {
			return fmt.Errorf("%w: %s", ErrDuplicateProfile, p.Name)
		}
		seen[p.Name] = true
		for field, id := range map[string]string{
			"governance_canister": p.GovernanceCanister,
			"ledger_canister":     p.LedgerCanister,
			"sns_wasm_canister":   p.SnsWasmCanister,
		} {
			if id == "" {
				continue
			}
			if _, err := principal.Decode(id); err != nil {
				return fmt.Errorf("profile %s: invalid %s %q: %w", p.Name, field, id, err)
			}
		}
	}

	if _, err := c.ResolveNetwork(); err != nil {
		return err
	}

	if c.Amounts.DeveloperStakeE8s == 0 {
		return fmt.Errorf("amounts.developer_stake_e8s must be positive")
	}
	if c.Amounts.ParticipationE8s == 0 {
		return fmt.Errorf("amounts.participation_e8s must be positive")
	}
	if c.Amounts.MaxTicketE8s == 0 {
		return fmt.Errorf("amounts.max_ticket_e8s must be positive")
	}

	if c.Sale.Participants < 1 {
		return fmt.Errorf("sale.participants must be at least 1")
	}
	if c.Sale.Parallelism < 1 {
		return fmt.Errorf("sale.parallelism must be at least 1")
	}

	for name, v := range map[string]int{
		"poll.proposal_attempts":  c.Poll.ProposalAttempts,
		"poll.sale_open_attempts": c.Poll.SaleOpenAttempts,
		"poll.refresh_attempts":   c.Poll.RefreshAttempts,
		"poll.finalize_attempts":  c.Poll.FinalizeAttempts,
	} {
		if v < 1 {
			return fmt.Errorf("%s must be at least 1", name)
		}
	}
	for name, v := range map[string]int{
		"poll.proposal_interval_ms":   c.Poll.ProposalIntervalMs,
		"poll.sale_open_interval_ms":  c.Poll.SaleOpenIntervalMs,
		"poll.refresh_zero_delay_ms":  c.Poll.RefreshZeroDelayMs,
		"poll.refresh_error_delay_ms": c.Poll.RefreshErrorDelayMs,
		"poll.finalize_interval_ms":   c.Poll.FinalizeIntervalMs,
		"poll.settle_delay_ms":        c.Poll.SettleDelayMs,
		"poll.step_delay_ms":          c.Poll.StepDelayMs,
	} {
		if v < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}

	if c.Record.OutputDir == "" {
		return fmt.Errorf("record.output_dir is required")
	}
	if c.Record.Mirror.Enabled {
		switch c.Record.Mirror.Backend {
		case "local":
			if c.Record.Mirror.LocalPath == "" {
				return fmt.Errorf("record.mirror.local_path is required for local backend")
			}
		case "gcs", "s3":
			if c.Record.Mirror.Bucket == "" {
				return fmt.Errorf("record.mirror.bucket is required for %s backend", c.Record.Mirror.Backend)
			}
		default:
			return fmt.Errorf("record.mirror.backend must be local, gcs, or s3, got %q", c.Record.Mirror.Backend)
		}
	}

	if c.Events.Enabled && c.Events.Path == "" {
		return fmt.Errorf("events.path is required when events are enabled")
	}

	return nil
}

// ResolveNetwork merges the selected profile with any explicit network
// overrides. The replica URL may still be empty, deferring to dfx
// environment resolution.
func (c *Config) ResolveNetwork() (NetworkProfile, error) {
	name := c.Network.Profile
	if name == "" {
		name = "local"
	}
	var prof NetworkProfile
	found := false
	for _, p := range c.Profiles {
		if p.Name == name {
			prof = p
			found = true
			break
		}
	}
	if !found {
		return NetworkProfile{}, fmt.Errorf("%w: %q", ErrNoProfile, name)
	}

	if c.Network.ReplicaURL != "" {
		prof.ReplicaURL = c.Network.ReplicaURL
	}
	if c.Network.FetchRootKey != nil {
		prof.FetchRootKey = *c.Network.FetchRootKey
	}
	if c.Network.GovernanceCanister != "" {
		prof.GovernanceCanister = c.Network.GovernanceCanister
	}
	if c.Network.LedgerCanister != "" {
		prof.LedgerCanister = c.Network.LedgerCanister
	}
	if c.Network.SnsWasmCanister != "" {
		prof.SnsWasmCanister = c.Network.SnsWasmCanister
	}

	if prof.GovernanceCanister == "" || prof.LedgerCanister == "" || prof.SnsWasmCanister == "" {
		return NetworkProfile{}, fmt.Errorf("profile %s: governance, ledger, and sns-wasm canister IDs are required", name)
	}
	return prof, nil
}
