package events

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileEmitter appends hash-chained events to a JSONL file. The chain
// head is recovered from the existing file, so a restarted run extends
// the same chain.
type FileEmitter struct {
	mu    sync.Mutex
	f     *os.File
	head  string
	runID string
	net   string
}

// NewFileEmitter opens (or creates) the event log at path.
func NewFileEmitter(path, runID, network string) (*FileEmitter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating event log dir: %w", err)
	}

	head, err := recoverHead(path)
	if err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening event log: %w", err)
	}

	return &FileEmitter{f: f, head: head, runID: runID, net: network}, nil
}

// Emit fills the chain fields and appends the event as one JSON line.
func (e *FileEmitter) Emit(_ context.Context, evt Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	evt.EventID = GenerateEventID()
	evt.RunID = e.runID
	evt.Network = e.net
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	evt.PrevHash = e.head
	evt.Hash = ComputeEventHash(evt)

	line, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}
	if _, err := e.f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("appending event: %w", err)
	}

	e.head = evt.Hash
	return nil
}

// Close closes the underlying file.
func (e *FileEmitter) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.f.Close()
}

// recoverHead returns the hash of the last event in an existing log,
// or "" when the log does not exist or is empty.
func recoverHead(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("opening event log: %w", err)
	}
	defer f.Close()

	var last string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			last = line
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("scanning event log: %w", err)
	}
	if last == "" {
		return "", nil
	}

	var evt Event
	if err := json.Unmarshal([]byte(last), &evt); err != nil {
		return "", fmt.Errorf("event log tail is not valid JSON: %w", err)
	}
	return evt.Hash, nil
}

// VerifyChain reads an event log and checks every hash and link,
// returning the number of verified events.
func VerifyChain(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening event log: %w", err)
	}
	defer f.Close()

	var (
		count int
		prev  string
	)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		var evt Event
		if err := json.Unmarshal([]byte(line), &evt); err != nil {
			return count, fmt.Errorf("event %d is not valid JSON: %w", count+1, err)
		}
		if evt.PrevHash != prev {
			return count, fmt.Errorf("event %d breaks the chain: prev_hash %s, want %s", count+1, evt.PrevHash, prev)
		}
		if got := ComputeEventHash(evt); got != evt.Hash {
			return count, fmt.Errorf("event %d hash mismatch: %s, want %s", count+1, evt.Hash, got)
		}
		prev = evt.Hash
		count++
	}
	if err := scanner.Err(); err != nil {
		return count, fmt.Errorf("scanning event log: %w", err)
	}
	return count, nil
}
