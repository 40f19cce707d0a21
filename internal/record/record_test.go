package record

import (
	"encoding/json"
	"errors"
	"os"
	"testing"
)

func sampleRecord() *DeploymentRecord {
	root := "rrkah-fqaaa-aaaaa-aaaaq-cai"
	swap := "ryjl3-tyaaa-aaaaa-aaaba-cai"
	return &DeploymentRecord{
		ICPNeuronID:    12345,
		ProposalID:     7,
		OwnerPrincipal: "qaa6y-5yaaa-aaaaa-aaafa-cai",
		DeployedSns: DeployedSnsRecord{
			RootCanisterID: &root,
			SwapCanisterID: &swap,
		},
		Participants: []ParticipantRecord{
			{Principal: "aaaaa-aa", SeedFile: "participants/participant_1.seed", Registered: true},
			{Principal: "aaaaa-aa", SeedFile: "participants/participant_2.seed", Registered: false},
		},
	}
}

func TestStoreSaveLoad(t *testing.T) {
	store := NewStore(t.TempDir())

	if store.Exists() {
		t.Fatal("Exists() = true before any save")
	}
	if _, err := store.Load(); !errors.Is(err, ErrNoRecord) {
		t.Fatalf("Load() before save: got %v, want ErrNoRecord", err)
	}

	rec := sampleRecord()
	if err := store.Save(rec); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if !store.Exists() {
		t.Error("Exists() = false after save")
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if got.ICPNeuronID != rec.ICPNeuronID {
		t.Errorf("ICPNeuronID = %d, want %d", got.ICPNeuronID, rec.ICPNeuronID)
	}
	if got.ProposalID != rec.ProposalID {
		t.Errorf("ProposalID = %d, want %d", got.ProposalID, rec.ProposalID)
	}
	if got.DeployedSns.RootCanisterID == nil || *got.DeployedSns.RootCanisterID != *rec.DeployedSns.RootCanisterID {
		t.Errorf("RootCanisterID = %v, want %v", got.DeployedSns.RootCanisterID, rec.DeployedSns.RootCanisterID)
	}
	if got.DeployedSns.GovernanceCanisterID != nil {
		t.Errorf("GovernanceCanisterID = %v, want nil", got.DeployedSns.GovernanceCanisterID)
	}
	if len(got.Participants) != 2 {
		t.Fatalf("got %d participants, want 2", len(got.Participants))
	}
	if !got.Participants[0].Registered || got.Participants[1].Registered {
		t.Errorf("registered flags = %v/%v, want true/false",
			got.Participants[0].Registered, got.Participants[1].Registered)
	}
}

// The record file is consumed by external tooling, so the JSON key names
// and the presence of null canister fields are part of the contract.
func TestRecordJSONShape(t *testing.T) {
	store := NewStore(t.TempDir())
	if err := store.Save(sampleRecord()); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	data, err := os.ReadFile(store.Path())
	if err != nil {
		t.Fatalf("reading record: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("parsing record: %v", err)
	}

	for _, key := range []string{"icp_neuron_id", "proposal_id", "owner_principal", "deployed_sns", "participants"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("record JSON missing key %q", key)
		}
	}

	sns, ok := raw["deployed_sns"].(map[string]any)
	if !ok {
		t.Fatalf("deployed_sns is %T, want object", raw["deployed_sns"])
	}
	for _, key := range []string{"root_canister_id", "governance_canister_id", "index_canister_id", "swap_canister_id", "ledger_canister_id"} {
		v, present := sns[key]
		if !present {
			t.Errorf("deployed_sns missing key %q", key)
			continue
		}
		if key == "governance_canister_id" && v != nil {
			t.Errorf("governance_canister_id = %v, want null", v)
		}
	}

	participants, ok := raw["participants"].([]any)
	if !ok || len(participants) == 0 {
		t.Fatalf("participants is %T (len %d), want non-empty array", raw["participants"], len(participants))
	}
	first, ok := participants[0].(map[string]any)
	if !ok {
		t.Fatalf("participant entry is %T, want object", participants[0])
	}
	for _, key := range []string{"principal", "seed_file", "registered"} {
		if _, present := first[key]; !present {
			t.Errorf("participant entry missing key %q", key)
		}
	}
}

func TestStoreSaveOverwrites(t *testing.T) {
	store := NewStore(t.TempDir())

	first := sampleRecord()
	if err := store.Save(first); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	second := sampleRecord()
	second.ProposalID = 99
	if err := store.Save(second); err != nil {
		t.Fatalf("second Save() failed: %v", err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if got.ProposalID != 99 {
		t.Errorf("ProposalID after overwrite = %d, want 99", got.ProposalID)
	}
}
