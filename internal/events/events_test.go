package events

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestComputeEventHash(t *testing.T) {
	evt := Event{
		EventID:   "evt_1",
		RunID:     "run-1",
		Network:   "local",
		Type:      TypeStageStarted,
		Stage:     "stake",
		Timestamp: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		PrevHash:  "",
	}

	hash := ComputeEventHash(evt)
	if hash == "" {
		t.Fatal("hash should be computed")
	}
	if !strings.HasPrefix(hash, "sha256:") {
		t.Errorf("hash should start with 'sha256:', got %s", hash)
	}

	// The hash must not cover the hash field itself.
	evt.Hash = hash
	if again := ComputeEventHash(evt); again != hash {
		t.Errorf("hash changed after assignment: %s vs %s", again, hash)
	}

	// Any payload change must change the hash.
	evt.Stage = "proposal"
	if changed := ComputeEventHash(evt); changed == hash {
		t.Error("hash unchanged after payload change")
	}
}

func TestFileEmitterChainsEvents(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "events.jsonl")

	emitter, err := NewFileEmitter(path, "run-1", "local")
	if err != nil {
		t.Fatalf("NewFileEmitter() failed: %v", err)
	}
	for _, stage := range []string{"stake", "proposal", "sale"} {
		if err := emitter.Emit(ctx, Event{Type: TypeStageCompleted, Stage: stage}); err != nil {
			t.Fatalf("Emit(%s) failed: %v", stage, err)
		}
	}
	if err := emitter.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	count, err := VerifyChain(path)
	if err != nil {
		t.Fatalf("VerifyChain() failed: %v", err)
	}
	if count != 3 {
		t.Errorf("verified %d events, want 3", count)
	}
}

// A restarted run must extend the existing chain rather than start a
// new one.
func TestFileEmitterResumesChain(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "events.jsonl")

	first, err := NewFileEmitter(path, "run-1", "local")
	if err != nil {
		t.Fatal(err)
	}
	if err := first.Emit(ctx, Event{Type: TypeStageCompleted, Stage: "stake"}); err != nil {
		t.Fatal(err)
	}
	if err := first.Close(); err != nil {
		t.Fatal(err)
	}

	second, err := NewFileEmitter(path, "run-2", "local")
	if err != nil {
		t.Fatalf("reopening emitter failed: %v", err)
	}
	if err := second.Emit(ctx, Event{Type: TypeStageStarted, Stage: "proposal"}); err != nil {
		t.Fatal(err)
	}
	if err := second.Close(); err != nil {
		t.Fatal(err)
	}

	count, err := VerifyChain(path)
	if err != nil {
		t.Fatalf("VerifyChain() after resume failed: %v", err)
	}
	if count != 2 {
		t.Errorf("verified %d events, want 2", count)
	}
}

func TestVerifyChainDetectsTampering(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "events.jsonl")

	emitter, err := NewFileEmitter(path, "run-1", "local")
	if err != nil {
		t.Fatal(err)
	}
	for _, stage := range []string{"stake", "proposal"} {
		if err := emitter.Emit(ctx, Event{Type: TypeStageCompleted, Stage: stage}); err != nil {
			t.Fatal(err)
		}
	}
	if err := emitter.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}

	var evt Event
	if err := json.Unmarshal([]byte(lines[0]), &evt); err != nil {
		t.Fatal(err)
	}
	evt.Stage = "tampered"
	forged, err := json.Marshal(evt)
	if err != nil {
		t.Fatal(err)
	}
	lines[0] = string(forged)
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := VerifyChain(path); err == nil {
		t.Error("VerifyChain() accepted a tampered log")
	}
}

func TestNewEmitterDisabled(t *testing.T) {
	emitter := NewEmitter(false, "", "run-1", "local")
	if err := emitter.Emit(context.Background(), Event{Type: TypeStageStarted}); err != nil {
		t.Errorf("no-op Emit() failed: %v", err)
	}
	if err := emitter.Close(); err != nil {
		t.Errorf("no-op Close() failed: %v", err)
	}
}
