// Package nns provides thin clients for the NNS governance, ICP
// ledger, and SNS-W canisters. Requests and responses model only the
// fields this tool consumes; candid width subtyping discards the rest
// on the wire.
package nns

import (
	"math"
	"sort"

	"github.com/aviate-labs/agent-go/principal"
)

// Neuron visibility codes understood by NNS governance.
const (
	VisibilityPrivate int32 = 1
	VisibilityPublic  int32 = 2
)

// NeuronID is the governance neuron identifier record.
type NeuronID struct {
	ID uint64 `ic:"id" json:"id"`
}

// GovernanceError is the error record returned by rejected governance
// commands.
type GovernanceError struct {
	ErrorMessage string `ic:"error_message" json:"error_message"`
	ErrorType    int32  `ic:"error_type" json:"error_type"`
}

// DissolveState is the neuron dissolve variant: a fixed delay for
// non-dissolving neurons, or the dissolve timestamp once dissolving.
type DissolveState struct {
	DissolveDelaySeconds          *uint64 `ic:"DissolveDelaySeconds,variant"`
	WhenDissolvedTimestampSeconds *uint64 `ic:"WhenDissolvedTimestampSeconds,variant"`
}

// Neuron is the subset of a full governance neuron we read.
type Neuron struct {
	ID                         *NeuronID             `ic:"id,omitempty" json:"id,omitempty"`
	Controller                 *principal.Principal  `ic:"controller,omitempty" json:"controller,omitempty"`
	HotKeys                    []principal.Principal `ic:"hot_keys" json:"hot_keys"`
	Account                    []byte                `ic:"account" json:"account"`
	CachedNeuronStakeE8s       uint64                `ic:"cached_neuron_stake_e8s" json:"cached_neuron_stake_e8s"`
	NeuronFeesE8s              uint64                `ic:"neuron_fees_e8s" json:"neuron_fees_e8s"`
	MaturityE8sEquivalent      uint64                `ic:"maturity_e8s_equivalent" json:"maturity_e8s_equivalent"`
	CreatedTimestampSeconds    uint64                `ic:"created_timestamp_seconds" json:"created_timestamp_seconds"`
	AgingSinceTimestampSeconds uint64                `ic:"aging_since_timestamp_seconds" json:"aging_since_timestamp_seconds"`
	Visibility                 *int32                `ic:"visibility,omitempty" json:"visibility,omitempty"`
	DissolveState              *DissolveState        `ic:"dissolve_state,omitempty" json:"dissolve_state,omitempty"`
}

// EffectiveDissolveDelaySeconds returns the delay used for ordering
// neurons: dissolving neurons count as zero, neurons with no dissolve
// state sort last.
func (n *Neuron) EffectiveDissolveDelaySeconds() uint64 {
	switch {
	case n.DissolveState == nil:
		return math.MaxUint64
	case n.DissolveState.DissolveDelaySeconds != nil:
		return *n.DissolveState.DissolveDelaySeconds
	default:
		return 0
	}
}

// SortNeurons orders neurons by effective dissolve delay ascending,
// breaking ties by stake descending.
func SortNeurons(ns []Neuron) {
	sort.SliceStable(ns, func(i, j int) bool {
		di, dj := ns[i].EffectiveDissolveDelaySeconds(), ns[j].EffectiveDissolveDelaySeconds()
		if di != dj {
			return di < dj
		}
		return ns[i].CachedNeuronStakeE8s > ns[j].CachedNeuronStakeE8s
	})
}
