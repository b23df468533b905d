// Package api defines what a plugin must provide to the host.
//
// Plugin packages are interpreted, so the only host code they can import is
// this package, github.com/google/uuid and the standard library. See Symbols.
package api

import (
	"errors"

	"github.com/google/uuid"
)

// ImportPath is the path plugins use to import this package.
const ImportPath = "github.com/chabad360/blocks/api"

// ErrUnsupported is returned by optional DAOFactory operations a plugin does
// not implement.
var ErrUnsupported = errors.New("operation not supported")

// Plugin is the entry point of a plugin.
//
// The three hooks are called by the host: OnInitialize right after the
// plugin is constructed, OnLoad once the application has finished loading,
// and OnClose when the application exits.
type Plugin interface {
	// Name returns a human readable name. It must not be empty.
	Name() string
	// UUID returns the plugin's identifier. It should be constant.
	UUID() uuid.UUID
	Version() string

	OnInitialize()
	OnLoad()
	OnClose()

	// DAOFactory returns the plugin's data access implementation, or nil
	// if it does not provide one.
	DAOFactory() DAOFactory
}

// DAOFactory builds the data access objects of a plugin. All DAOs are built
// at once and reached through the returned DAOProxy.
type DAOFactory interface {
	// SetNumPerPage sets the page size of paginated results. Factories
	// that do not support it return ErrUnsupported.
	SetNumPerPage(n int) error
	Build() (DAOProxy, error)
}

// DAOProxy gives access to every DAO of a plugin.
type DAOProxy interface {
	// TaskDAO returns the data access object for tasks.
	TaskDAO() any
}

// NoPaging can be embedded in a DAOFactory that does not paginate.
type NoPaging struct{}

// SetNumPerPage returns ErrUnsupported.
func (NoPaging) SetNumPerPage(int) error { return ErrUnsupported }
