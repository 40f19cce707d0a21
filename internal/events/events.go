// Package events appends a tamper-evident audit trail of deployment
// actions. Events are JSON lines linked by a hash chain: each event
// carries the hash of its predecessor, so any edit to the log breaks
// verification from that point on.
package events

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types emitted during a deployment run.
const (
	TypeStageStarted   = "stage_started"
	TypeStageCompleted = "stage_completed"
	TypeStageFailed    = "stage_failed"
	TypeRecordWritten  = "record_written"
)

// Event is one audit log entry.
type Event struct {
	EventID   string            `json:"event_id"`
	RunID     string            `json:"run_id"`
	Network   string            `json:"network"`
	Type      string            `json:"type"`
	Stage     string            `json:"stage,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Detail    map[string]string `json:"detail,omitempty"`
	PrevHash  string            `json:"prev_hash"`
	Hash      string            `json:"hash"`
}

// ComputeEventHash computes the SHA256 hash of an event over its
// canonical JSON representation, excluding the hash field itself.
func ComputeEventHash(evt Event) string {
	evt.Hash = ""

	canonical, err := json.Marshal(evt)
	if err != nil {
		// Should never happen with well-formed events
		return ""
	}

	hash := sha256.Sum256(canonical)
	return "sha256:" + hex.EncodeToString(hash[:])
}

// GenerateEventID creates a unique event ID.
func GenerateEventID() string {
	return "evt_" + uuid.NewString()
}
