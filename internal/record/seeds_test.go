package record

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func testSeed(fill byte) []byte {
	seed := make([]byte, seedBytes)
	for i := range seed {
		seed[i] = fill
	}
	return seed
}

func TestSeedStoreRoundTrip(t *testing.T) {
	seeds := NewSeedStore(t.TempDir())

	if _, err := seeds.Load(1); !errors.Is(err, ErrNoSeed) {
		t.Fatalf("Load() before save: got %v, want ErrNoSeed", err)
	}

	seed := testSeed(0xAB)
	if err := seeds.Save(1, seed); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	got, err := seeds.Load(1)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if !bytes.Equal(got, seed) {
		t.Errorf("Load() = %x, want %x", got, seed)
	}
}

func TestSeedStoreEnsureReuses(t *testing.T) {
	seeds := NewSeedStore(t.TempDir())

	first := testSeed(0x01)
	got, created, err := seeds.Ensure(2, first)
	if err != nil {
		t.Fatalf("Ensure() failed: %v", err)
	}
	if !created {
		t.Error("first Ensure() reported created=false")
	}
	if !bytes.Equal(got, first) {
		t.Errorf("first Ensure() = %x, want %x", got, first)
	}

	// A later run must get the stored seed back even when it derives a
	// different candidate.
	second := testSeed(0x02)
	got, created, err = seeds.Ensure(2, second)
	if err != nil {
		t.Fatalf("second Ensure() failed: %v", err)
	}
	if created {
		t.Error("second Ensure() reported created=true")
	}
	if !bytes.Equal(got, first) {
		t.Errorf("second Ensure() = %x, want stored %x", got, first)
	}
}

func TestSeedStoreRejectsBadContent(t *testing.T) {
	dir := t.TempDir()
	seeds := NewSeedStore(dir)

	if err := seeds.Save(3, []byte{0x01, 0x02}); err == nil {
		t.Error("Save() accepted a short seed")
	}

	if err := os.MkdirAll(filepath.Join(dir, "participants"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(seeds.Path(4), []byte("not-hex"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := seeds.Load(4); err == nil {
		t.Error("Load() accepted non-hex content")
	}

	if err := os.WriteFile(seeds.Path(5), []byte("abcd"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := seeds.Load(5); err == nil {
		t.Error("Load() accepted a truncated seed")
	}
}

func TestSeedStorePaths(t *testing.T) {
	seeds := NewSeedStore(filepath.Join("out"))
	paths := seeds.Paths(3)
	if len(paths) != 3 {
		t.Fatalf("Paths(3) returned %d entries", len(paths))
	}
	want := filepath.Join("out", "participants", "participant_1.seed")
	if paths[0] != want {
		t.Errorf("Paths(3)[0] = %s, want %s", paths[0], want)
	}
}
