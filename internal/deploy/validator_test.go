package deploy

import (
	"strings"
	"testing"

	"github.com/stakewerk/snsctl/internal/config"
)

func containsSubstring(list []string, sub string) bool {
	for _, s := range list {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func TestPreflightStockConfig(t *testing.T) {
	res := Preflight(config.Default())
	if !res.Passed {
		t.Fatalf("stock configuration failed preflight: %v", res.Errors)
	}
	if len(res.Errors) != 0 {
		t.Errorf("errors = %v, want none", res.Errors)
	}
	// The stock amounts over-participate on purpose; the swap clips
	// them, and preflight says so.
	if len(res.Warnings) != 2 {
		t.Fatalf("warnings = %v, want the two clip warnings", res.Warnings)
	}
	for _, w := range res.Warnings {
		if !strings.Contains(w, "clip") {
			t.Errorf("warning %q is not about clipping", w)
		}
	}
}

func TestPreflightCleanConfig(t *testing.T) {
	res := Preflight(testConfig(t))
	if !res.Passed || len(res.Errors) != 0 || len(res.Warnings) != 0 {
		t.Errorf("preflight = %+v, want a clean pass", res)
	}
}

func TestPreflightViolations(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *config.Config)
		fatal   bool
		message string
	}{
		{
			name:    "stake below neuron minimum",
			mutate:  func(c *config.Config) { c.Amounts.DeveloperStakeE8s = 99_999_999 },
			fatal:   true,
			message: "below the 100000000 e8s neuron minimum",
		},
		{
			name:    "dissolve delay below proposal minimum",
			mutate:  func(c *config.Config) { c.Amounts.DissolveDelaySeconds = 15_778_799 },
			fatal:   true,
			message: "below the 15778800 s proposal minimum",
		},
		{
			name:    "participation below swap minimum",
			mutate:  func(c *config.Config) { c.Amounts.ParticipationE8s = 99_999_999 },
			fatal:   true,
			message: "below the swap per-participant minimum",
		},
		{
			name:    "cushion below transfer fee",
			mutate:  func(c *config.Config) { c.Amounts.CushionE8s = 9_999 },
			fatal:   true,
			message: "cannot cover",
		},
		{
			name: "participation above swap maximum",
			mutate: func(c *config.Config) {
				c.Amounts.ParticipationE8s = c.Proposal.SNS.Swap.MaxParticipantE8s + 1
			},
			message: "will clip",
		},
		{
			name:    "too few participants",
			mutate:  func(c *config.Config) { c.Sale.Participants = 4 },
			message: "the sale will not commit",
		},
		{
			name:    "combined participation below direct minimum",
			mutate:  func(c *config.Config) { c.Proposal.SNS.Swap.MinDirectE8s = 600_000_000 },
			message: "below the swap direct minimum",
		},
		{
			name:    "combined participation above direct maximum",
			mutate:  func(c *config.Config) { c.Proposal.SNS.Swap.MaxDirectE8s = 400_000_000 },
			message: "exceeds the swap direct maximum",
		},
		{
			name:    "finalize gate below direct minimum",
			mutate:  func(c *config.Config) { c.Sale.MinParticipationE8s = 400_000_000 },
			message: "finalize gate",
		},
		{
			name:    "ticket below participant minimum",
			mutate:  func(c *config.Config) { c.Amounts.MaxTicketE8s = 50_000_000 },
			message: "ticket amount",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig(t)
			tc.mutate(cfg)
			res := Preflight(cfg)
			if tc.fatal {
				if res.Passed {
					t.Error("preflight passed a fatal misconfiguration")
				}
				if !containsSubstring(res.Errors, tc.message) {
					t.Errorf("errors %v lack %q", res.Errors, tc.message)
				}
			} else {
				if !res.Passed {
					t.Errorf("preflight failed on a warning-only condition: %v", res.Errors)
				}
				if !containsSubstring(res.Warnings, tc.message) {
					t.Errorf("warnings %v lack %q", res.Warnings, tc.message)
				}
			}
		})
	}
}
