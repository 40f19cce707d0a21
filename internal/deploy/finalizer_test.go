package deploy

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stakewerk/snsctl/internal/sns"
)

func TestFinalizeSale(t *testing.T) {
	tests := []struct {
		name          string
		lifecycles    []int32
		derived       *sns.DerivedState
		force         bool
		finalizeMsg   string
		finalizeErr   error
		wantFinalized int
	}{
		{
			name:          "commits within budget",
			lifecycles:    []int32{sns.LifecycleOpen, sns.LifecycleCommitted},
			force:         true,
			wantFinalized: 1,
		},
		{
			name:          "stays open with thresholds met and force enabled",
			lifecycles:    []int32{sns.LifecycleOpen},
			force:         true,
			wantFinalized: 1,
		},
		{
			name:          "stays open with thresholds met and force disabled",
			lifecycles:    []int32{sns.LifecycleOpen},
			force:         false,
			wantFinalized: 0,
		},
		{
			name:       "stays open with thresholds unmet",
			lifecycles: []int32{sns.LifecycleOpen},
			derived: &sns.DerivedState{
				DirectParticipantCount:    uint64Ptr(2),
				DirectParticipationICPE8s: uint64Ptr(100_000_000),
			},
			force:         true,
			wantFinalized: 0,
		},
		{
			name:          "finalize call failure is not fatal",
			lifecycles:    []int32{sns.LifecycleCommitted},
			force:         true,
			finalizeErr:   errors.New("canister trap"),
			wantFinalized: 1,
		},
		{
			name:          "finalization error message is not fatal",
			lifecycles:    []int32{sns.LifecycleCommitted},
			force:         true,
			finalizeMsg:   "neuron sweep incomplete",
			wantFinalized: 1,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			h.cfg.Sale.ForceFinalizeOnThresholds = tc.force
			h.svc.swap.lifecycles = tc.lifecycles
			if tc.derived != nil {
				h.svc.swap.derived = *tc.derived
			}
			h.svc.swap.finalizeMsg = tc.finalizeMsg
			h.svc.swap.finalizeErr = tc.finalizeErr

			if err := h.dep.finalizeSale(context.Background(), &runState{swap: h.svc.swap}); err != nil {
				t.Fatalf("finalizeSale() failed: %v", err)
			}
			if h.svc.swap.finalizeCalls != tc.wantFinalized {
				t.Errorf("finalize calls = %d, want %d", h.svc.swap.finalizeCalls, tc.wantFinalized)
			}
		})
	}
}

func TestFinalizeSaleDerivedStateError(t *testing.T) {
	h := newHarness(t)
	h.svc.swap.derivedErr = errors.New("query refused")

	err := h.dep.finalizeSale(context.Background(), &runState{swap: h.svc.swap})
	if err == nil || !strings.Contains(err.Error(), "reading derived state") {
		t.Fatalf("error = %v, want a derived state failure", err)
	}
	if h.svc.swap.finalizeCalls != 0 {
		t.Error("finalize was called without a threshold read")
	}
}

func TestProgressFrom(t *testing.T) {
	if p := progressFrom(&sns.DerivedState{}); p.Participants != 0 || p.E8s != 0 {
		t.Errorf("empty state = %+v, want zeros", p)
	}
	ds := &sns.DerivedState{
		DirectParticipantCount:    uint64Ptr(4),
		DirectParticipationICPE8s: uint64Ptr(900),
	}
	if p := progressFrom(ds); p.Participants != 4 || p.E8s != 900 {
		t.Errorf("progress = %+v, want 4 participants and 900 e8s", p)
	}
}

func TestSaleProgressMeets(t *testing.T) {
	tests := []struct {
		name            string
		progress        saleProgress
		minParticipants uint64
		minE8s          uint64
		want            bool
	}{
		{"both at threshold", saleProgress{Participants: 5, E8s: 500}, 5, 500, true},
		{"participants short", saleProgress{Participants: 4, E8s: 500}, 5, 500, false},
		{"volume short", saleProgress{Participants: 5, E8s: 499}, 5, 500, false},
		{"zero thresholds", saleProgress{}, 0, 0, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.progress.meets(tc.minParticipants, tc.minE8s); got != tc.want {
				t.Errorf("meets(%d, %d) = %v, want %v", tc.minParticipants, tc.minE8s, got, tc.want)
			}
		})
	}
}
