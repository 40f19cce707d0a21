package deploy

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stakewerk/snsctl/internal/nns"
	"github.com/stakewerk/snsctl/internal/sns"
)

func TestEndpointsFromDeployment(t *testing.T) {
	ep, err := endpointsFromDeployment(&nns.DeployedSns{
		RootCanisterID:       principalPtr(0x10),
		GovernanceCanisterID: principalPtr(0x11),
		IndexCanisterID:      principalPtr(0x12),
		SwapCanisterID:       principalPtr(0x13),
		LedgerCanisterID:     principalPtr(0x14),
	})
	if err != nil {
		t.Fatalf("endpointsFromDeployment() failed: %v", err)
	}
	if got, want := ep.Governance.Encode(), testPrincipal(0x11).Encode(); got != want {
		t.Errorf("governance = %s, want %s", got, want)
	}
	if got, want := ep.Swap.Encode(), testPrincipal(0x13).Encode(); got != want {
		t.Errorf("swap = %s, want %s", got, want)
	}
	if got, want := ep.Ledger.Encode(), testPrincipal(0x14).Encode(); got != want {
		t.Errorf("ledger = %s, want %s", got, want)
	}
	if ep.Root == nil || ep.Index == nil {
		t.Error("root and index not carried through")
	}
}

func TestEndpointsFromDeploymentOptionalAbsent(t *testing.T) {
	ep, err := endpointsFromDeployment(&nns.DeployedSns{
		GovernanceCanisterID: principalPtr(0x11),
		SwapCanisterID:       principalPtr(0x13),
		LedgerCanisterID:     principalPtr(0x14),
	})
	if err != nil {
		t.Fatalf("endpointsFromDeployment() failed: %v", err)
	}
	if ep.Root != nil || ep.Index != nil {
		t.Error("absent root or index was invented")
	}
}

func TestEndpointsFromDeploymentMissingRequired(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*nns.DeployedSns)
		want   string
	}{
		{"governance", func(d *nns.DeployedSns) { d.GovernanceCanisterID = nil }, "no governance canister"},
		{"ledger", func(d *nns.DeployedSns) { d.LedgerCanisterID = nil }, "no ledger canister"},
		{"swap", func(d *nns.DeployedSns) { d.SwapCanisterID = nil }, "no swap canister"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := &nns.DeployedSns{
				GovernanceCanisterID: principalPtr(0x11),
				SwapCanisterID:       principalPtr(0x13),
				LedgerCanisterID:     principalPtr(0x14),
			}
			tc.mutate(d)
			if _, err := endpointsFromDeployment(d); err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error = %v, want %q", err, tc.want)
			}
		})
	}
}

func TestWaitForSaleOpenSurvivesTransientErrors(t *testing.T) {
	h := newHarness(t)
	h.svc.swap.lifecycles = []int32{
		sns.LifecyclePending,
		sns.LifecyclePending,
		sns.LifecycleOpen,
		sns.LifecycleOpen,
	}
	h.svc.swap.lifecycleErrs = []error{nil, errors.New("replica busy"), nil, nil}

	if err := h.dep.waitForSaleOpen(context.Background(), &runState{swap: h.svc.swap}); err != nil {
		t.Fatalf("waitForSaleOpen() failed: %v", err)
	}
}

func TestWaitForSaleOpenInitialReadFatal(t *testing.T) {
	h := newHarness(t)
	h.svc.swap.lifecycleErrs = []error{errors.New("no route")}

	err := h.dep.waitForSaleOpen(context.Background(), &runState{swap: h.svc.swap})
	if err == nil || !strings.Contains(err.Error(), "reading swap lifecycle") {
		t.Fatalf("error = %v, want the initial lifecycle failure", err)
	}
}
