package record

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/stakewerk/snsctl/internal/logging"
)

// Publisher persists a deployment record together with its supporting
// artifacts. Writing the record itself is the only fatal step; manifest,
// bundle, and mirror failures are logged and skipped so a completed
// deployment is never discarded over archival trouble.
type Publisher struct {
	store  *Store
	seeds  *SeedStore
	bundle bool
	mirror *Mirror
	log    *slog.Logger
}

// NewPublisher creates a Publisher. The mirror may be nil.
func NewPublisher(store *Store, seeds *SeedStore, bundle bool, mirror *Mirror) *Publisher {
	return &Publisher{
		store:  store,
		seeds:  seeds,
		bundle: bundle,
		mirror: mirror,
		log:    logging.Component("publisher"),
	}
}

// Publish writes the record and then builds the manifest, the bundle, and
// the mirror copies. It returns the record path.
func (p *Publisher) Publish(ctx context.Context, runID string, rec *DeploymentRecord) (string, error) {
	if err := p.store.Save(rec); err != nil {
		return "", fmt.Errorf("saving deployment record: %w", err)
	}
	p.log.Info("deployment record written", "path", p.store.Path())

	artifacts := []string{p.store.Path()}
	for _, seedPath := range p.seeds.Paths(len(rec.Participants)) {
		if _, err := os.Stat(seedPath); err == nil {
			artifacts = append(artifacts, seedPath)
		}
	}

	manifest, err := BuildManifest(runID, p.store.Dir(), artifacts)
	if err != nil {
		p.log.Warn("manifest build failed, skipping", "error", err)
	} else if err := p.store.SaveManifest(manifest); err != nil {
		p.log.Warn("manifest write failed, skipping", "error", err)
	} else {
		artifacts = append(artifacts, p.store.ManifestPath())
	}

	uploads := []string{p.store.Path(), p.store.ManifestPath()}
	if p.bundle {
		bundlePath, err := p.store.WriteBundle(runID, artifacts)
		if err != nil {
			p.log.Warn("bundle write failed, skipping", "error", err)
		} else {
			p.log.Info("artifact bundle written", "path", bundlePath)
			uploads = append(uploads, bundlePath)
		}
	}

	if p.mirror != nil {
		for _, upload := range uploads {
			if _, err := os.Stat(upload); err != nil {
				continue
			}
			name := filepath.Base(upload)
			if err := p.mirror.Upload(ctx, upload, name); err != nil {
				p.log.Warn("mirror upload failed, skipping", "name", name, "error", err)
			}
		}
	}

	return p.store.Path(), nil
}
