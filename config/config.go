// Package config reads application properties from layered YAML files.
//
// Nested maps are flattened into dotted keys, so
//
//	net:
//	  ddns.advaith.blocks:
//	    pluginsDir: /opt/blocks
//
// defines net.ddns.advaith.blocks.pluginsDir. Files loaded later override
// keys from files loaded earlier, and a key bound to an environment variable
// takes that variable's value when it is set.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

// EnvPluginsDir overrides the plugins directory property.
const EnvPluginsDir = "BLOCKS_PLUGINS_DIR"

// ErrInvalid is returned for files that are not a YAML mapping.
var ErrInvalid = errors.New("invalid config file")

// Manager holds the merged properties. It is safe for concurrent use.
type Manager struct {
	mu     sync.RWMutex
	props  map[string]string
	env    map[string]string
	lookup func(string) (string, bool)
	log    logrus.FieldLogger
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger. It defaults to logrus.StandardLogger().
func WithLogger(log logrus.FieldLogger) Option {
	return func(m *Manager) { m.log = log }
}

// WithLookupEnv replaces os.LookupEnv, mostly for tests.
func WithLookupEnv(lookup func(string) (string, bool)) Option {
	return func(m *Manager) { m.lookup = lookup }
}

// New returns an empty Manager.
func New(opts ...Option) *Manager {
	m := &Manager{
		props:  make(map[string]string),
		env:    make(map[string]string),
		lookup: os.LookupEnv,
		log:    logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Load merges the given files in order. A missing file is an error.
func (m *Manager) Load(paths ...string) error {
	for _, p := range paths {
		if err := m.loadFile(p); err != nil {
			return err
		}
	}
	return nil
}

// LoadOptional is like Load but skips files that do not exist.
func (m *Manager) LoadOptional(paths ...string) error {
	for _, p := range paths {
		err := m.loadFile(p)
		if errors.Is(err, fs.ErrNotExist) {
			m.log.WithField("file", p).Debug("config file not found, skipping")
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) loadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var raw map[interface{}]interface{}
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalid, path, err)
	}

	flat := make(map[string]string)
	flatten("", raw, flat)

	m.mu.Lock()
	for k, v := range flat {
		m.props[k] = v
	}
	m.mu.Unlock()

	m.log.WithFields(logrus.Fields{"file": path, "keys": len(flat)}).Debug("loaded config file")
	return nil
}

func flatten(prefix string, in map[interface{}]interface{}, out map[string]string) {
	for k, v := range in {
		key := fmt.Sprint(k)
		if prefix != "" {
			key = prefix + "." + key
		}

		switch v := v.(type) {
		case map[interface{}]interface{}:
			flatten(key, v, out)
		case []interface{}:
			items := make([]string, len(v))
			for i, item := range v {
				items[i] = fmt.Sprint(item)
			}
			out[key] = strings.Join(items, ",")
		case nil:
			out[key] = ""
		default:
			out[key] = fmt.Sprint(v)
		}
	}
}

// Set overrides a single property.
func (m *Manager) Set(key, value string) {
	m.mu.Lock()
	m.props[key] = value
	m.mu.Unlock()
}

// BindEnv makes the environment variable envVar, when set, take precedence
// over any file value of key.
func (m *Manager) BindEnv(key, envVar string) {
	m.mu.Lock()
	m.env[key] = envVar
	m.mu.Unlock()
}

// Property returns the value of key.
func (m *Manager) Property(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if envVar, ok := m.env[key]; ok {
		if v, ok := m.lookup(envVar); ok {
			return v, true
		}
	}
	v, ok := m.props[key]
	return v, ok
}

// Keys returns every key loaded from files, sorted.
func (m *Manager) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.props))
	for k := range m.props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
