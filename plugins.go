package plugins

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/chabad360/blocks/manifest"
)

// PluginsDirProperty names an extra plugin root, scanned after the one
// beside the executable.
const PluginsDirProperty = "net.ddns.advaith.blocks.pluginsDir"

// BuiltinDirName is the plugin root beside the executable.
const BuiltinDirName = "plugins"

// Properties is the configuration the host reads from.
type Properties interface {
	Property(key string) (string, bool)
}

// Host loads plugins and keeps them in a Registry.
type Host struct {
	registry    *Registry
	runtime     Runtime
	log         *logrus.Logger
	metrics     *Metrics
	archiveExt  string
	scoping     manifest.Scoping
	concurrency int
}

// Option configures a Host.
type Option func(*Host)

// WithLogger sets the logger. The default is logrus.StandardLogger().
func WithLogger(log *logrus.Logger) Option {
	return func(h *Host) {
		h.log = log
	}
}

// WithRuntime sets the runtime used to instantiate entry points. The default
// is an InterpRuntime.
func WithRuntime(r Runtime) Option {
	return func(h *Host) {
		h.runtime = r
	}
}

// WithMetrics records load outcomes in m.
func WithMetrics(m *Metrics) Option {
	return func(h *Host) {
		h.metrics = m
	}
}

// WithArchiveExt sets the extension required of archives in directories
// named after a uuid. The default is DefaultArchiveExt.
func WithArchiveExt(ext string) Option {
	return func(h *Host) {
		h.archiveExt = ext
	}
}

// WithScoping sets how manifest keys relate to sections.
func WithScoping(s manifest.Scoping) Option {
	return func(h *Host) {
		h.scoping = s
	}
}

// WithConcurrency loads up to n candidates at once. It only applies to
// silent scans; strict scans are always sequential.
func WithConcurrency(n int) Option {
	return func(h *Host) {
		h.concurrency = n
	}
}

// NewHost returns a Host with an empty registry.
func NewHost(opts ...Option) *Host {
	h := &Host{
		registry:    NewRegistry(),
		log:         logrus.StandardLogger(),
		archiveExt:  DefaultArchiveExt,
		scoping:     manifest.Flat,
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.runtime == nil {
		h.runtime = NewInterpRuntime(h.log)
	}
	return h
}

// Open creates a Host and loads the plugins found in BuiltinDirName beside
// the executable, then in the directory named by PluginsDirProperty if props
// has it. Both scans are silent.
func Open(ctx context.Context, props Properties, opts ...Option) (*Host, error) {
	h := NewHost(opts...)

	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("locating executable: %w", err)
	}
	if err := h.LoadPluginsFromDirectory(ctx, filepath.Join(filepath.Dir(exe), BuiltinDirName), true); err != nil {
		return nil, err
	}

	if props != nil {
		if dir, ok := props.Property(PluginsDirProperty); ok && dir != "" {
			if err := h.LoadPluginsFromDirectory(ctx, dir, true); err != nil {
				return nil, err
			}
		}
	}

	return h, nil
}

// LoadPluginsFromDirectory loads and registers every plugin directory
// directly inside root.
//
// When silent is true, failures are logged and the scan goes on; only a
// canceled context stops it. Otherwise the first failure stops the scan and
// is returned as a *LoadError; later candidates are not attempted.
func (h *Host) LoadPluginsFromDirectory(ctx context.Context, root string, silent bool) error {
	log := h.log.WithField("root", root)

	dirs, err := Candidates(root)
	if err != nil {
		if !silent {
			return &LoadError{Dir: root, Err: err}
		}
		if errors.Is(err, os.ErrNotExist) {
			log.Debug("plugin root does not exist")
		} else {
			log.WithError(err).Error("could not list plugin root")
		}
		return nil
	}
	log.WithField("candidates", len(dirs)).Debug("scanning plugin root")

	if silent && h.concurrency > 1 && len(dirs) > 1 {
		return h.loadConcurrently(ctx, dirs)
	}

	for _, dir := range dirs {
		if err := ctx.Err(); err != nil {
			return err
		}

		rec, err := h.LoadPlugin(ctx, dir)
		if err != nil {
			h.logFailure(dir, err, silent)
			if !silent {
				return &LoadError{Dir: dir, Err: err}
			}
			continue
		}
		h.register(rec)
	}
	return nil
}

func (h *Host) loadConcurrently(ctx context.Context, dirs []string) error {
	type result struct {
		rec *Record
		err error
	}
	results := make([]result, len(dirs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.concurrency)
	for i, dir := range dirs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i].err = err
				return nil
			}
			rec, err := h.LoadPlugin(gctx, dir)
			results[i] = result{rec: rec, err: err}
			return nil
		})
	}
	_ = g.Wait()

	for i, r := range results {
		if r.err != nil {
			h.logFailure(dirs[i], r.err, true)
			continue
		}
		h.register(r.rec)
	}
	return ctx.Err()
}

func (h *Host) register(rec *Record) {
	id := rec.Identity()
	log := h.log.WithFields(logrus.Fields{
		"plugin":  id.Name(),
		"version": id.Version(),
		"uuid":    id.ID(),
		"archive": rec.Archive(),
	})

	if old := h.registry.put(rec); old != nil {
		log.WithField("replaced", old.Archive()).Warn("plugin uuid already registered, replacing")
	}
	h.metrics.setRegistered(h.registry.Len())
	log.WithField("state", StateRegistered).Info("loaded plugin")
}

func (h *Host) logFailure(dir string, err error, silent bool) {
	entry := h.log.WithFields(logrus.Fields{
		"dir":   dir,
		"state": StateFailed,
		"kind":  KindOf(err),
	}).WithError(err)
	if silent {
		entry.Error("could not load plugin")
		return
	}
	entry.Error("could not load plugin, aborting scan")
}

// Registry returns the loaded plugins.
func (h *Host) Registry() *Registry { return h.registry }

// GetPlugin returns the plugin registered under id.
func (h *Host) GetPlugin(id uuid.UUID) (*Record, bool) {
	return h.registry.Get(id)
}

// Plugins returns every loaded plugin, sorted by name.
func (h *Host) Plugins() []*Record {
	return h.registry.List()
}

// NotifyLoaded calls OnLoad on every plugin. A panicking hook is logged and
// does not prevent the others from running.
func (h *Host) NotifyLoaded() {
	h.each("OnLoad", func(rec *Record) { rec.Plugin().OnLoad() })
}

// Close calls OnClose on every plugin. It returns the errors of the hooks
// that panicked.
func (h *Host) Close() error {
	return h.each("OnClose", func(rec *Record) { rec.Plugin().OnClose() })
}

func (h *Host) each(hook string, fn func(*Record)) error {
	var errs []error
	for _, rec := range h.registry.List() {
		if err := guard(func() { fn(rec) }); err != nil {
			h.log.WithFields(logrus.Fields{
				"plugin": rec.Identity().Name(),
				"uuid":   rec.Identity().ID(),
				"hook":   hook,
			}).WithError(err).Error("plugin hook failed")
			errs = append(errs, fmt.Errorf("%s: %s: %w", rec.Identity().Name(), hook, err))
		}
	}
	return errors.Join(errs...)
}

// guard runs fn, turning a panic into an error.
func guard(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	fn()
	return nil
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
