package plugins

import (
	"archive/zip"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/xyproto/unzip"

	"github.com/chabad360/blocks/manifest"
)

// ManifestPath is where the manifest lives inside a plugin archive.
const ManifestPath = "blocks/manifest.ini"

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}

// LoadManifest reads the manifest embedded in the archive at path.
func LoadManifest(path string, opts ...manifest.Option) (*manifest.Document, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %w", ErrManifestUnreadable, path, err)
	}
	defer zr.Close()

	f, err := zr.Open(ManifestPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrManifestUnreadable, path, err)
	}
	defer f.Close()

	doc, err := manifest.Parse(f, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrManifestUnreadable, path, err)
	}
	return doc, nil
}

// layerFS serves each path from the first layer that has it.
type layerFS []fs.FS

func (l layerFS) Open(name string) (fs.File, error) {
	for _, layer := range l {
		f, err := layer.Open(name)
		if err == nil {
			return f, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
}

// openSources opens the archive and every sibling zip file as one
// filesystem, archive first. Siblings that are not zip files are skipped.
func openSources(archive string, files []string, log logrus.FieldLogger) (fs.FS, func(), error) {
	var (
		layers  layerFS
		closers []io.Closer
	)
	closeAll := func() {
		for _, c := range closers {
			c.Close()
		}
	}

	zr, err := zip.OpenReader(archive)
	if err != nil {
		return nil, nil, err
	}
	layers = append(layers, zr)
	closers = append(closers, zr)

	for _, path := range files {
		if path == archive {
			continue
		}
		zr, err := zip.OpenReader(path)
		if err != nil {
			log.WithField("file", path).Debug("sibling is not a zip archive, skipping")
			continue
		}
		layers = append(layers, zr)
		closers = append(closers, zr)
	}

	return layers, closeAll, nil
}

// extractSources unpacks the sibling zip files then the archive into dest,
// so the archive's own files win.
func extractSources(archive string, files []string, dest string, log logrus.FieldLogger) error {
	if err := os.RemoveAll(dest); err != nil {
		return err
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return err
	}

	for _, path := range files {
		if path == archive {
			continue
		}
		if err := unzip.Extract(path, dest); err != nil {
			log.WithField("file", path).WithError(err).Debug("sibling is not a zip archive, skipping")
		}
	}
	return unzip.Extract(archive, dest)
}
