package icp

import (
	"bytes"
	"crypto/sha256"
	"testing"
)

func TestParticipantSeedDeterministic(t *testing.T) {
	want := sha256.Sum256([]byte("sns-participant-3"))
	got := ParticipantSeed(3)
	if !bytes.Equal(got, want[:]) {
		t.Errorf("seed = %x, want %x", got, want)
	}
	if !bytes.Equal(ParticipantSeed(3), got) {
		t.Error("repeated derivation differs")
	}
}

func TestParticipantSeedsDistinct(t *testing.T) {
	seen := make(map[string]int)
	for i := 1; i <= 5; i++ {
		key := string(ParticipantSeed(i))
		if prev, ok := seen[key]; ok {
			t.Fatalf("ordinals %d and %d share a seed", prev, i)
		}
		seen[key] = i
	}
}

func TestSeedIdentityRejectsBadLength(t *testing.T) {
	if _, err := SeedIdentity(make([]byte, 16)); err == nil {
		t.Error("expected error for short seed")
	}
	if _, err := SeedIdentity(make([]byte, 64)); err == nil {
		t.Error("expected error for long seed")
	}
}

func TestSeedIdentityStableSender(t *testing.T) {
	seed := ParticipantSeed(1)

	a, err := SeedIdentity(seed)
	if err != nil {
		t.Fatalf("SeedIdentity: %v", err)
	}
	b, err := SeedIdentity(seed)
	if err != nil {
		t.Fatalf("SeedIdentity: %v", err)
	}
	if a.Sender().Encode() != b.Sender().Encode() {
		t.Errorf("same seed produced senders %s and %s", a.Sender(), b.Sender())
	}

	other, err := SeedIdentity(ParticipantSeed(2))
	if err != nil {
		t.Fatalf("SeedIdentity: %v", err)
	}
	if a.Sender().Encode() == other.Sender().Encode() {
		t.Error("different seeds produced the same sender")
	}
}

func TestMintingIdentityParses(t *testing.T) {
	id, err := MintingIdentity()
	if err != nil {
		t.Fatalf("MintingIdentity: %v", err)
	}
	if len(id.Sender().Raw) == 0 {
		t.Error("minting identity has empty sender")
	}
}

func TestDfxConfigRootHonorsEnv(t *testing.T) {
	t.Setenv("DFX_CONFIG_ROOT", "/tmp/dfx-test-root")
	if got := DfxConfigRoot(); got != "/tmp/dfx-test-root" {
		t.Errorf("DfxConfigRoot = %q, want env override", got)
	}
}
