package record

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/stakewerk/snsctl/internal/util"
)

// ErrNoSeed indicates no seed file exists for a participant ordinal.
var ErrNoSeed = errors.New("no participant seed found")

// seedBytes is the required decoded seed length.
const seedBytes = 32

// SeedStore persists participant seeds as hex files under
// <output>/participants. Seeds are written before any funds move so a
// restarted run can reuse the same identities.
type SeedStore struct {
	dir string
}

// NewSeedStore returns a seed store under the given output directory.
func NewSeedStore(outputDir string) *SeedStore {
	return &SeedStore{dir: filepath.Join(outputDir, "participants")}
}

// Path returns the seed file path for an ordinal. The path is also
// what the deployment record references.
func (s *SeedStore) Path(ordinal int) string {
	return filepath.Join(s.dir, fmt.Sprintf("participant_%d.seed", ordinal))
}

// Load reads and decodes the seed for an ordinal, returning ErrNoSeed
// if the file does not exist.
func (s *SeedStore) Load(ordinal int) ([]byte, error) {
	seed, err := ReadSeedFile(s.Path(ordinal))
	if err != nil {
		if errors.Is(err, ErrNoSeed) {
			return nil, ErrNoSeed
		}
		return nil, fmt.Errorf("seed %d: %w", ordinal, err)
	}
	return seed, nil
}

// ReadSeedFile reads and decodes a hex seed file at an arbitrary path,
// such as one referenced by a deployment record. Returns ErrNoSeed if
// the file does not exist.
func ReadSeedFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoSeed
		}
		return nil, fmt.Errorf("reading seed file: %w", err)
	}
	seed, err := hex.DecodeString(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("decoding seed file: %w", err)
	}
	if len(seed) != seedBytes {
		return nil, fmt.Errorf("seed file is %d bytes, want %d", len(seed), seedBytes)
	}
	return seed, nil
}

// Save writes the seed for an ordinal atomically as hex.
func (s *SeedStore) Save(ordinal int, seed []byte) error {
	if len(seed) != seedBytes {
		return fmt.Errorf("seed %d is %d bytes, want %d", ordinal, len(seed), seedBytes)
	}
	if err := util.EnsurePrivateDir(s.dir); err != nil {
		return fmt.Errorf("creating seed dir: %w", err)
	}
	path := s.Path(ordinal)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(hex.EncodeToString(seed)), 0o600); err != nil {
		return fmt.Errorf("writing seed %d: %w", ordinal, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("renaming seed %d: %w", ordinal, err)
	}
	return nil
}

// Ensure returns the stored seed for an ordinal, persisting candidate
// if none exists yet. The second result reports whether the candidate
// was newly written.
func (s *SeedStore) Ensure(ordinal int, candidate []byte) ([]byte, bool, error) {
	existing, err := s.Load(ordinal)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrNoSeed) {
		return nil, false, err
	}
	if err := s.Save(ordinal, candidate); err != nil {
		return nil, false, err
	}
	return candidate, true, nil
}

// Paths returns the seed file paths for ordinals 1..n.
func (s *SeedStore) Paths(n int) []string {
	paths := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		paths = append(paths, s.Path(i))
	}
	return paths
}
