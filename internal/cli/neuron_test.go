package cli

import (
	"testing"

	"github.com/stakewerk/snsctl/internal/nns"
)

func TestDissolveSummary(t *testing.T) {
	delay := uint64(90_000) // 1 day 1 hour
	zero := uint64(0)
	ts := uint64(1_700_000_000)

	cases := []struct {
		name   string
		neuron nns.Neuron
		want   string
	}{
		{"no state", nns.Neuron{}, "no state"},
		{
			"fixed delay",
			nns.Neuron{DissolveState: &nns.DissolveState{DissolveDelaySeconds: &delay}},
			"1d 1h (90000s)",
		},
		{
			"zero delay counts as dissolving",
			nns.Neuron{DissolveState: &nns.DissolveState{DissolveDelaySeconds: &zero}},
			"dissolving",
		},
		{
			"dissolving",
			nns.Neuron{DissolveState: &nns.DissolveState{WhenDissolvedTimestampSeconds: &ts}},
			"dissolving",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := dissolveSummary(&tc.neuron); got != tc.want {
				t.Errorf("dissolveSummary = %q, want %q", got, tc.want)
			}
		})
	}
}
