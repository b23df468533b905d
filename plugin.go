package plugins

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/chabad360/blocks/manifest"
)

// LoadPlugin loads the plugin in dir without registering it. The directory
// must hold exactly one archive matching its name, see ResolveArchive.
func (h *Host) LoadPlugin(ctx context.Context, dir string) (*Record, error) {
	start := time.Now()
	rec, err := h.loadPlugin(ctx, dir)
	h.metrics.observeLoad(err, time.Since(start))
	return rec, err
}

func (h *Host) loadPlugin(ctx context.Context, dir string) (*Record, error) {
	log := h.log.WithField("dir", dir)
	log.WithField("state", StateScanning).Debug("loading plugin")

	archive, err := ResolveArchive(dir, h.archiveExt)
	if err != nil {
		return nil, err
	}
	log = log.WithField("archive", archive)
	log.WithField("state", StateResolved).Debug("archive resolved")

	doc, err := LoadManifest(archive, manifest.WithLogger(log), manifest.WithScoping(h.scoping))
	if err != nil {
		return nil, err
	}
	log.WithField("state", StateManifestParsed).Debug("manifest parsed")

	identity, rawEntrypoint, err := ReadIdentity(doc)
	if err != nil {
		return nil, err
	}
	log = log.WithFields(logrus.Fields{"plugin": identity.Name(), "uuid": identity.ID()})
	log.WithField("state", StateIdentityBuilt).Debug("identity built")

	ep, err := ParseEntrypoint(rawEntrypoint)
	if err != nil {
		return nil, err
	}

	digest, err := hashFile(archive)
	if err != nil {
		return nil, fmt.Errorf("%w: hashing %s: %w", ErrManifestUnreadable, archive, err)
	}

	files, err := siblings(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", ErrArchiveNotFound, dir, err)
	}

	p, err := h.runtime.Instantiate(ctx, &Unit{
		Dir:      dir,
		Archive:  archive,
		Siblings: files,
		Identity: identity,
		Digest:   digest,
	}, ep)
	if err != nil {
		return nil, err
	}
	log.WithField("state", StateInstantiated).Debug("entrypoint instantiated")

	var reported uuid.UUID
	if err := guard(func() { reported = p.UUID() }); err != nil {
		log.WithError(err).Warn("plugin UUID() failed")
	} else if reported != identity.ID() {
		log.WithField("reported", reported).Warn("plugin reports a uuid different from its manifest, using the manifest")
	}

	return &Record{
		identity: identity,
		plugin:   p,
		archive:  archive,
		digest:   digest,
	}, nil
}
