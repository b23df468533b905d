package plugins

import (
	"context"
	"fmt"

	"github.com/chabad360/blocks/api"
)

// Unit is the code a single plugin may see: the files of its own directory.
type Unit struct {
	Dir      string
	Archive  string
	Siblings []string
	Identity Identity
	// Digest is the hex SHA-256 of Archive.
	Digest string
}

// A Runtime instantiates entry points. Every call gets a loading context of
// its own; nothing loaded for one Unit is visible to another.
type Runtime interface {
	Instantiate(ctx context.Context, u *Unit, ep Entrypoint) (api.Plugin, error)
}

// construct calls ctor and the OnInitialize hook of the result. Panics are
// returned as ErrEntrypointInstantiation.
func construct(ep Entrypoint, ctor func() (api.Plugin, error)) (p api.Plugin, err error) {
	defer func() {
		if r := recover(); r != nil {
			p = nil
			err = fmt.Errorf("%w: %s panicked: %v", ErrEntrypointInstantiation, ep, r)
		}
	}()

	p, err = ctor()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrEntrypointInstantiation, ep, err)
	}
	if p == nil {
		return nil, fmt.Errorf("%w: %s returned nil", ErrEntrypointInstantiation, ep)
	}

	p.OnInitialize()
	return p, nil
}
