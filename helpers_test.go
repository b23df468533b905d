package plugins

import (
	"archive/zip"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/chabad360/blocks/api"
)

const fooID = "123e4567-e89b-12d3-a456-426614174000"

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

// writeZip creates a zip file at path holding files.
func writeZip(t *testing.T, path string, files map[string]string) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := zip.NewWriter(f)
	for name, content := range files {
		fw, err := w.Create(name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
}

func manifestFor(name, version, id, entrypoint string) string {
	return fmt.Sprintf("name=%s\nversion=%s\nuuid=%s\n[classes]\nentrypoint=%s\n", name, version, id, entrypoint)
}

// writePlugin creates root/dir/archive with the given manifest and extra
// files, and returns the plugin directory.
func writePlugin(t *testing.T, root, dir, archive, manifestSrc string, extra map[string]string) string {
	t.Helper()

	pluginDir := filepath.Join(root, dir)
	require.NoError(t, os.MkdirAll(pluginDir, 0o755))

	files := map[string]string{ManifestPath: manifestSrc}
	for k, v := range extra {
		files[k] = v
	}
	writeZip(t, filepath.Join(pluginDir, archive), files)
	return pluginDir
}

type testPlugin struct {
	id      uuid.UUID
	name    string
	version string

	initialized int
	loaded      int
	closed      int
	panicOnLoad bool
}

func (p *testPlugin) Name() string    { return p.name }
func (p *testPlugin) UUID() uuid.UUID { return p.id }
func (p *testPlugin) Version() string { return p.version }
func (p *testPlugin) OnInitialize()   { p.initialized++ }
func (p *testPlugin) OnLoad() {
	if p.panicOnLoad {
		panic("load failed")
	}
	p.loaded++
}
func (p *testPlugin) OnClose()                   { p.closed++ }
func (p *testPlugin) DAOFactory() api.DAOFactory { return nil }

type notAPlugin struct{}

// countingRuntime records the entry points it is asked for.
type countingRuntime struct {
	Runtime
	dirs []string
}

func (c *countingRuntime) Instantiate(ctx context.Context, u *Unit, ep Entrypoint) (api.Plugin, error) {
	c.dirs = append(c.dirs, filepath.Base(u.Dir))
	return c.Runtime.Instantiate(ctx, u, ep)
}
