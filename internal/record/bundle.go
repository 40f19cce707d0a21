package record

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

// BundlePath returns the path of the bundle archive for a run.
func (s *Store) BundlePath(runID string) string {
	return filepath.Join(s.dir, fmt.Sprintf("sns_deployment_%s.tar.zst", runID))
}

// WriteBundle packs the given files into a zstd-compressed tar archive.
// Paths must live under the store directory; archive entries are named
// relative to it. The archive is written atomically.
func (s *Store) WriteBundle(runID string, files []string) (string, error) {
	dst := s.BundlePath(runID)

	tmp, err := os.CreateTemp(s.dir, ".bundle-*.tar.zst")
	if err != nil {
		return "", fmt.Errorf("creating temp bundle: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	enc, err := zstd.NewWriter(tmp)
	if err != nil {
		tmp.Close()
		return "", fmt.Errorf("creating zstd encoder: %w", err)
	}
	tw := tar.NewWriter(enc)

	for _, file := range files {
		if err := s.addBundleFile(tw, file); err != nil {
			tw.Close()
			enc.Close()
			tmp.Close()
			return "", err
		}
	}

	if err := tw.Close(); err != nil {
		enc.Close()
		tmp.Close()
		return "", fmt.Errorf("closing tar writer: %w", err)
	}
	if err := enc.Close(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("closing zstd encoder: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing temp bundle: %w", err)
	}

	if err := os.Rename(tmpName, dst); err != nil {
		return "", fmt.Errorf("renaming bundle: %w", err)
	}

	return dst, nil
}

func (s *Store) addBundleFile(tw *tar.Writer, file string) error {
	rel, err := filepath.Rel(s.dir, file)
	if err != nil {
		return fmt.Errorf("resolving bundle entry %s: %w", file, err)
	}

	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("opening bundle entry %s: %w", file, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stating bundle entry %s: %w", file, err)
	}

	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return fmt.Errorf("building tar header for %s: %w", file, err)
	}
	hdr.Name = filepath.ToSlash(rel)

	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("writing tar header for %s: %w", file, err)
	}
	if _, err := io.Copy(tw, f); err != nil {
		return fmt.Errorf("writing tar entry %s: %w", file, err)
	}
	return nil
}
