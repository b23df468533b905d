package plugins

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/chabad360/blocks/api"
)

const (
	hostAlias  = "blocksapi"
	entryAlias = "blocksentry"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// InterpRuntime runs plugins from Go source with the yaegi interpreter. Each
// plugin gets an interpreter of its own whose GOPATH is the union of the zip
// archives in its directory, so sources live under src/<import path>/.
type InterpRuntime struct {
	// CacheDir, if set, is where archives are extracted before being
	// interpreted, one subdirectory per plugin uuid and archive digest.
	// Otherwise sources are read from the archives directly.
	CacheDir string

	log     logrus.FieldLogger
	symbols []interp.Exports

	// cacheLocks holds a *sync.Mutex per extraction directory, locked from
	// extraction until the interpreter is done with it.
	cacheLocks sync.Map
}

// NewInterpRuntime returns an InterpRuntime logging to log.
func NewInterpRuntime(log logrus.FieldLogger) *InterpRuntime {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &InterpRuntime{
		log:     log,
		symbols: []interp.Exports{stdlib.Symbols, api.Symbols},
	}
}

// Instantiate imports the entrypoint's package, checks its type against
// api.Plugin and calls New<Type>, which must take no arguments and return
// the type, optionally with an error.
func (r *InterpRuntime) Instantiate(ctx context.Context, u *Unit, ep Entrypoint) (api.Plugin, error) {
	log := r.log.WithFields(logrus.Fields{"dir": u.Dir, "entrypoint": ep.String()})

	fsys, release, err := r.sources(u, log)
	if err != nil {
		return nil, fmt.Errorf("%w: opening sources: %w", ErrEntrypointNotFound, err)
	}
	defer release()

	i := interp.New(interp.Options{GoPath: ".", SourcecodeFilesystem: fsys})
	for _, exports := range r.symbols {
		if err := i.Use(exports); err != nil {
			return nil, fmt.Errorf("%w: loading host symbols: %w", ErrEntrypointNotFound, err)
		}
	}

	eval := func(src string) (reflect.Value, error) {
		log.WithField("src", src).Trace("eval")
		return i.EvalWithContext(ctx, src)
	}

	if _, err := eval(fmt.Sprintf("import %s %q", hostAlias, api.ImportPath)); err != nil {
		return nil, fmt.Errorf("%w: importing %s: %w", ErrEntrypointNotFound, api.ImportPath, err)
	}

	if _, err := eval(fmt.Sprintf("import %s %q", entryAlias, ep.ImportPath)); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrEntrypointNotFound, ep, err)
	}
	qualified := entryAlias + "." + ep.Type
	if _, err := eval(fmt.Sprintf("var blocksProbeType *%s", qualified)); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrEntrypointNotFound, ep, err)
	}

	if _, err := eval(fmt.Sprintf("var blocksProbePlugin %s.Plugin = (*%s)(nil)", hostAlias, qualified)); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrEntrypointNotCompatible, ep, err)
	}

	ctor, err := r.constructor(eval, ep)
	if err != nil {
		return nil, err
	}

	return construct(ep, ctor)
}

func (r *InterpRuntime) constructor(eval func(string) (reflect.Value, error), ep Entrypoint) (func() (api.Plugin, error), error) {
	name := entryAlias + ".New" + ep.Type

	v, err := eval(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrEntrypointNotConstructible, ep, err)
	}
	if v.Kind() != reflect.Func || v.Type().NumIn() != 0 {
		return nil, fmt.Errorf("%w: %s: New%s must take no arguments", ErrEntrypointNotConstructible, ep, ep.Type)
	}

	var body string
	switch t := v.Type(); {
	case t.NumOut() == 1:
		body = fmt.Sprintf("return %s(), nil", name)
	case t.NumOut() == 2 && t.Out(1) == errorType:
		body = fmt.Sprintf("p, err := %s()\n\tif err != nil {\n\t\treturn nil, err\n\t}\n\treturn p, nil", name)
	default:
		return nil, fmt.Errorf("%w: %s: New%s must return the plugin and optionally an error", ErrEntrypointNotConstructible, ep, ep.Type)
	}

	src := fmt.Sprintf("func blocksNewEntrypoint() (%s.Plugin, error) {\n\t%s\n}", hostAlias, body)
	if _, err := eval(src); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrEntrypointNotConstructible, ep, err)
	}

	v, err = eval("blocksNewEntrypoint")
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrEntrypointNotConstructible, ep, err)
	}
	ctor, ok := v.Interface().(func() (api.Plugin, error))
	if !ok {
		return nil, fmt.Errorf("%w: %s: unexpected constructor type %s", ErrEntrypointNotConstructible, ep, v.Type())
	}
	return ctor, nil
}

func (r *InterpRuntime) sources(u *Unit, log logrus.FieldLogger) (fs.FS, func(), error) {
	if r.CacheDir == "" {
		return openSources(u.Archive, u.Siblings, log)
	}

	dest := filepath.Join(r.CacheDir, cacheName(u))
	v, _ := r.cacheLocks.LoadOrStore(dest, new(sync.Mutex))
	mu := v.(*sync.Mutex)
	mu.Lock()

	if err := extractSources(u.Archive, u.Siblings, dest, log); err != nil {
		mu.Unlock()
		return nil, nil, err
	}
	log.WithField("cache", dest).Debug("extracted plugin sources")
	return os.DirFS(dest), mu.Unlock, nil
}

// cacheName is the extraction directory of u under CacheDir.
func cacheName(u *Unit) string {
	name := u.Identity.ID().String()
	if len(u.Digest) >= 12 {
		name += "-" + u.Digest[:12]
	}
	return name
}
