package nns

import (
	"math"
	"testing"
)

func delayNeuron(id, delaySeconds, stake uint64) Neuron {
	return Neuron{
		ID:                   &NeuronID{ID: id},
		CachedNeuronStakeE8s: stake,
		DissolveState:        &DissolveState{DissolveDelaySeconds: &delaySeconds},
	}
}

func TestEffectiveDissolveDelaySeconds(t *testing.T) {
	ts := uint64(1_700_000_000)
	dissolving := Neuron{DissolveState: &DissolveState{WhenDissolvedTimestampSeconds: &ts}}
	if got := dissolving.EffectiveDissolveDelaySeconds(); got != 0 {
		t.Errorf("dissolving neuron delay = %d, want 0", got)
	}

	none := Neuron{}
	if got := none.EffectiveDissolveDelaySeconds(); got != math.MaxUint64 {
		t.Errorf("stateless neuron delay = %d, want max", got)
	}

	fixed := delayNeuron(1, 3600, 0)
	if got := fixed.EffectiveDissolveDelaySeconds(); got != 3600 {
		t.Errorf("fixed delay = %d, want 3600", got)
	}
}

func TestSortNeurons(t *testing.T) {
	ts := uint64(1_700_000_000)
	dissolving := Neuron{
		ID:                   &NeuronID{ID: 4},
		CachedNeuronStakeE8s: 10,
		DissolveState:        &DissolveState{WhenDissolvedTimestampSeconds: &ts},
	}
	stateless := Neuron{ID: &NeuronID{ID: 5}}

	ns := []Neuron{
		delayNeuron(1, 5000, 100),
		stateless,
		delayNeuron(2, 100, 50),
		dissolving,
		delayNeuron(3, 100, 900),
	}
	SortNeurons(ns)

	wantOrder := []uint64{4, 3, 2, 1, 5}
	for i, want := range wantOrder {
		if ns[i].ID == nil || ns[i].ID.ID != want {
			t.Fatalf("position %d: got neuron %+v, want id %d", i, ns[i].ID, want)
		}
	}
}
