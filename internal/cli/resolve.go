package cli

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/aviate-labs/agent-go/identity"
	"github.com/aviate-labs/agent-go/principal"

	"github.com/stakewerk/snsctl/internal/config"
	"github.com/stakewerk/snsctl/internal/icp"
	"github.com/stakewerk/snsctl/internal/nns"
	"github.com/stakewerk/snsctl/internal/record"
)

// resolveIdentity returns an identity able to act as p. Recorded
// deployment participants act through their seed files; the owner and
// anyone not in the record fall back to the dfx identity.
func resolveIdentity(cfg *config.Config, p principal.Principal) (identity.Identity, error) {
	if rec, err := record.NewStore(cfg.Record.OutputDir).Load(); err == nil {
		text := p.Encode()
		for _, part := range rec.Participants {
			if part.Principal != text {
				continue
			}
			seed, err := record.ReadSeedFile(part.SeedFile)
			if err != nil {
				break // seed unreadable, fall back to the dfx identity
			}
			return icp.SeedIdentity(seed)
		}
	}
	return icp.DfxIdentity(cfg.Identity.DfxIdentity)
}

// actorFor resolves a --principal flag into the acting identity and
// the subject principal. An empty flag means the operator.
func actorFor(cfg *config.Config, flag string) (identity.Identity, principal.Principal, error) {
	if flag == "" {
		id, err := icp.DfxIdentity(cfg.Identity.DfxIdentity)
		if err != nil {
			return nil, principal.Principal{}, err
		}
		return id, id.Sender(), nil
	}
	p, err := principal.Decode(flag)
	if err != nil {
		return nil, principal.Principal{}, fmt.Errorf("invalid principal %q: %w", flag, err)
	}
	id, err := resolveIdentity(cfg, p)
	if err != nil {
		return nil, principal.Principal{}, err
	}
	return id, p, nil
}

// recordedNeuronID returns the deployment neuron from the record.
func recordedNeuronID(cfg *config.Config) (uint64, error) {
	rec, err := record.NewStore(cfg.Record.OutputDir).Load()
	if err != nil {
		return 0, err
	}
	if rec.ICPNeuronID == 0 {
		return 0, fmt.Errorf("deployment record has no neuron ID")
	}
	return rec.ICPNeuronID, nil
}

// defaultNeuron picks the first neuron of the sorted listing: lowest
// dissolve delay, largest stake on ties.
func defaultNeuron(ctx context.Context, gov *nns.Governance) (uint64, error) {
	neurons, err := gov.ListNeurons(ctx)
	if err != nil {
		return 0, err
	}
	for _, n := range neurons {
		if n.ID != nil {
			return n.ID.ID, nil
		}
	}
	return 0, fmt.Errorf("no neurons found, create one first")
}

// parseSubaccount decodes an optional hex subaccount flag. Empty means
// the default account.
func parseSubaccount(value string) (*icp.Subaccount, error) {
	if value == "" {
		return nil, nil
	}
	raw, err := hex.DecodeString(strings.TrimPrefix(value, "0x"))
	if err != nil {
		return nil, fmt.Errorf("subaccount is not hex: %w", err)
	}
	if len(raw) != icp.SubaccountSize {
		return nil, fmt.Errorf("subaccount is %d bytes, want %d", len(raw), icp.SubaccountSize)
	}
	var sub icp.Subaccount
	copy(sub[:], raw)
	return &sub, nil
}
