// Package record persists deployment state: the deployment record,
// participant seeds, a checksum manifest, and optional mirroring of
// the artifacts to a blob store.
package record

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/stakewerk/snsctl/internal/logging"
	"github.com/stakewerk/snsctl/internal/util"
)

// ErrNoRecord indicates no deployment record exists yet.
var ErrNoRecord = errors.New("no deployment record found")

// recordFileName is the deployment record file under the output dir.
const recordFileName = "sns_deployment_data.json"

// DeployedSnsRecord holds the canister IDs of the deployed SNS. Fields
// the factory did not report are null.
type DeployedSnsRecord struct {
	RootCanisterID       *string `json:"root_canister_id"`
	GovernanceCanisterID *string `json:"governance_canister_id"`
	IndexCanisterID      *string `json:"index_canister_id"`
	SwapCanisterID       *string `json:"swap_canister_id"`
	LedgerCanisterID     *string `json:"ledger_canister_id"`
}

// ParticipantRecord describes one sale participant.
type ParticipantRecord struct {
	Principal  string `json:"principal"`
	SeedFile   string `json:"seed_file"`
	Registered bool   `json:"registered"`
}

// DeploymentRecord is the persisted outcome of a deployment run.
type DeploymentRecord struct {
	ICPNeuronID    uint64              `json:"icp_neuron_id"`
	ProposalID     uint64              `json:"proposal_id"`
	OwnerPrincipal string              `json:"owner_principal"`
	DeployedSns    DeployedSnsRecord   `json:"deployed_sns"`
	Participants   []ParticipantRecord `json:"participants"`
}

// Store reads and writes the deployment record under one output
// directory.
type Store struct {
	dir string
	log *slog.Logger
}

// NewStore returns a record store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{
		dir: dir,
		log: logging.Component("record"),
	}
}

// Path returns the deployment record file path.
func (s *Store) Path() string {
	return filepath.Join(s.dir, recordFileName)
}

// Dir returns the output directory.
func (s *Store) Dir() string {
	return s.dir
}

// Exists reports whether a deployment record is present.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.Path())
	return err == nil
}

// Save writes the record atomically via a temp file and rename.
func (s *Store) Save(rec *DeploymentRecord) error {
	if err := util.EnsureDir(s.dir); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling deployment record: %w", err)
	}

	path := s.Path()
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing deployment record: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("renaming deployment record: %w", err)
	}

	s.log.Info("deployment record saved", "path", path, "participants", len(rec.Participants))
	return nil
}

// Load reads the deployment record, returning ErrNoRecord if absent.
func (s *Store) Load() (*DeploymentRecord, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoRecord
		}
		return nil, fmt.Errorf("reading deployment record: %w", err)
	}
	var rec DeploymentRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parsing deployment record: %w", err)
	}
	return &rec, nil
}
