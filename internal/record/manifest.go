package record

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// manifestFileName is the checksum manifest under the output dir.
const manifestFileName = "manifest.json"

// ManifestEntry is one checksummed artifact.
type ManifestEntry struct {
	Path   string `json:"path"`
	SHA256 string `json:"sha256"`
	Bytes  int64  `json:"bytes"`
}

// Manifest lists the artifacts of a deployment run with checksums.
type Manifest struct {
	RunID     string          `json:"run_id"`
	CreatedAt time.Time       `json:"created_at"`
	Files     []ManifestEntry `json:"files"`
}

// BuildManifest checksums the given files. Entry paths are recorded
// slash-separated, relative to baseDir.
func BuildManifest(runID, baseDir string, paths []string) (*Manifest, error) {
	m := &Manifest{
		RunID:     runID,
		CreatedAt: time.Now().UTC(),
	}
	for _, p := range paths {
		rel, err := filepath.Rel(baseDir, p)
		if err != nil {
			return nil, fmt.Errorf("resolving manifest entry %s: %w", p, err)
		}
		entry, err := checksumFile(p, filepath.ToSlash(rel))
		if err != nil {
			return nil, err
		}
		m.Files = append(m.Files, entry)
	}
	return m, nil
}

func checksumFile(path, name string) (ManifestEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return ManifestEntry{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return ManifestEntry{}, fmt.Errorf("hashing %s: %w", path, err)
	}
	return ManifestEntry{
		Path:   name,
		SHA256: hex.EncodeToString(h.Sum(nil)),
		Bytes:  n,
	}, nil
}

// ManifestPath returns the manifest file path.
func (s *Store) ManifestPath() string {
	return filepath.Join(s.dir, manifestFileName)
}

// SaveManifest writes the manifest atomically.
func (s *Store) SaveManifest(m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}
	path := s.ManifestPath()
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("renaming manifest: %w", err)
	}
	return nil
}
