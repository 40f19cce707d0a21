package record

import (
	"archive/tar"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/klauspost/compress/zstd"
)

func TestBuildManifestChecksums(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "artifact.json")
	content := []byte(`{"hello":"world"}`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := BuildManifest("run-1", dir, []string{path})
	if err != nil {
		t.Fatalf("BuildManifest() failed: %v", err)
	}
	if m.RunID != "run-1" {
		t.Errorf("RunID = %s, want run-1", m.RunID)
	}
	if len(m.Files) != 1 {
		t.Fatalf("got %d entries, want 1", len(m.Files))
	}

	entry := m.Files[0]
	if entry.Path != "artifact.json" {
		t.Errorf("entry path = %s, want artifact.json", entry.Path)
	}
	if entry.Bytes != int64(len(content)) {
		t.Errorf("entry bytes = %d, want %d", entry.Bytes, len(content))
	}
	sum := sha256.Sum256(content)
	if entry.SHA256 != hex.EncodeToString(sum[:]) {
		t.Errorf("entry sha256 = %s, want %s", entry.SHA256, hex.EncodeToString(sum[:]))
	}
}

func TestBuildManifestMissingFile(t *testing.T) {
	dir := t.TempDir()
	if _, err := BuildManifest("run-1", dir, []string{filepath.Join(dir, "absent")}); err == nil {
		t.Error("BuildManifest() accepted a missing file")
	}
}

func TestWriteBundle(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)
	if err := store.Save(sampleRecord()); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	seeds := NewSeedStore(dir)
	if err := seeds.Save(1, testSeed(0x11)); err != nil {
		t.Fatalf("seed Save() failed: %v", err)
	}

	bundlePath, err := store.WriteBundle("run-1", []string{store.Path(), seeds.Path(1)})
	if err != nil {
		t.Fatalf("WriteBundle() failed: %v", err)
	}
	if filepath.Base(bundlePath) != "sns_deployment_run-1.tar.zst" {
		t.Errorf("bundle name = %s", filepath.Base(bundlePath))
	}

	names := bundleEntries(t, bundlePath)
	want := []string{"participants/participant_1.seed", "sns_deployment_data.json"}
	if len(names) != len(want) {
		t.Fatalf("bundle entries = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("bundle entry %d = %s, want %s", i, names[i], want[i])
		}
	}
}

func TestPublisherWritesAllArtifacts(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	mirrorDir := t.TempDir()

	store := NewStore(dir)
	seeds := NewSeedStore(dir)
	if err := seeds.Save(1, testSeed(0x01)); err != nil {
		t.Fatal(err)
	}
	if err := seeds.Save(2, testSeed(0x02)); err != nil {
		t.Fatal(err)
	}

	mirror, err := NewMirror(ctx, MirrorConfig{Backend: "local", LocalPath: mirrorDir})
	if err != nil {
		t.Fatalf("NewMirror() failed: %v", err)
	}
	defer mirror.Close()

	pub := NewPublisher(store, seeds, true, mirror)
	path, err := pub.Publish(ctx, "run-9", sampleRecord())
	if err != nil {
		t.Fatalf("Publish() failed: %v", err)
	}
	if path != store.Path() {
		t.Errorf("Publish() path = %s, want %s", path, store.Path())
	}

	if _, err := os.Stat(store.ManifestPath()); err != nil {
		t.Errorf("manifest missing: %v", err)
	}
	if _, err := os.Stat(store.BundlePath("run-9")); err != nil {
		t.Errorf("bundle missing: %v", err)
	}
	for _, name := range []string{"sns_deployment_data.json", "manifest.json", "sns_deployment_run-9.tar.zst"} {
		if _, err := os.Stat(filepath.Join(mirrorDir, name)); err != nil {
			t.Errorf("mirrored %s missing: %v", name, err)
		}
	}
}

func TestPublisherWithoutMirror(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)
	seeds := NewSeedStore(dir)

	pub := NewPublisher(store, seeds, false, nil)
	if _, err := pub.Publish(context.Background(), "run-2", sampleRecord()); err != nil {
		t.Fatalf("Publish() failed: %v", err)
	}
	if _, err := os.Stat(store.BundlePath("run-2")); err == nil {
		t.Error("bundle written despite bundle=false")
	}
}

func TestNewMirrorRejectsBadConfig(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name string
		cfg  MirrorConfig
	}{
		{"unknown backend", MirrorConfig{Backend: "ftp"}},
		{"local without path", MirrorConfig{Backend: "local"}},
		{"gcs without bucket", MirrorConfig{Backend: "gcs"}},
		{"s3 without bucket", MirrorConfig{Backend: "s3"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewMirror(ctx, tc.cfg); err == nil {
				t.Errorf("NewMirror(%+v) succeeded", tc.cfg)
			}
		})
	}
}

func bundleEntries(t *testing.T, path string) []string {
	t.Helper()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening bundle: %v", err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		t.Fatalf("creating zstd reader: %v", err)
	}
	defer dec.Close()

	var names []string
	tr := tar.NewReader(dec)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("reading tar: %v", err)
		}
		names = append(names, hdr.Name)
	}
	sort.Strings(names)
	return names
}
