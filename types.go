package plugins

import (
	"errors"
	"fmt"

	"github.com/chabad360/blocks/api"
)

// Record is a loaded plugin.
type Record struct {
	identity Identity
	plugin   api.Plugin
	archive  string
	digest   string
}

// Identity returns the identity read from the plugin's manifest.
func (r *Record) Identity() Identity { return r.identity }

// Plugin returns the plugin instance.
func (r *Record) Plugin() api.Plugin { return r.plugin }

// Archive returns the path of the archive the plugin was loaded from.
func (r *Record) Archive() string { return r.archive }

// Digest returns the hex encoded SHA-256 of the archive.
func (r *Record) Digest() string { return r.digest }

// State is a step of loading a single candidate directory.
type State int

const (
	StateScanning State = iota
	StateResolved
	StateManifestParsed
	StateIdentityBuilt
	StateInstantiated
	StateRegistered
	StateFailed
)

var stateNames = [...]string{
	StateScanning:       "scanning",
	StateResolved:       "resolved",
	StateManifestParsed: "manifest-parsed",
	StateIdentityBuilt:  "identity-built",
	StateInstantiated:   "instantiated",
	StateRegistered:     "registered",
	StateFailed:         "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

var (
	ErrPathNotDirectory           = errors.New("path is not a directory")
	ErrArchiveNotFound            = errors.New("archive not found")
	ErrManifestUnreadable         = errors.New("manifest unreadable")
	ErrIdentifierIncomplete       = errors.New("identifier incomplete")
	ErrIdentifierMalformed        = errors.New("identifier malformed")
	ErrEntrypointNotFound         = errors.New("entrypoint not found")
	ErrEntrypointNotCompatible    = errors.New("entrypoint does not implement api.Plugin")
	ErrEntrypointNotConstructible = errors.New("entrypoint has no constructor")
	ErrEntrypointInstantiation    = errors.New("entrypoint instantiation failed")
)

var kinds = []struct {
	err  error
	name string
}{
	{ErrPathNotDirectory, "path_not_directory"},
	{ErrArchiveNotFound, "archive_not_found"},
	{ErrManifestUnreadable, "manifest_unreadable"},
	{ErrIdentifierIncomplete, "identifier_incomplete"},
	{ErrIdentifierMalformed, "identifier_malformed"},
	{ErrEntrypointNotFound, "entrypoint_not_found"},
	{ErrEntrypointNotCompatible, "entrypoint_not_compatible"},
	{ErrEntrypointNotConstructible, "entrypoint_not_constructible"},
	{ErrEntrypointInstantiation, "entrypoint_instantiation_failure"},
}

// KindOf returns a stable label for the failure kind of err: "ok" for nil,
// "canceled" for context errors and "unknown" for anything unclassified.
func KindOf(err error) string {
	if err == nil {
		return "ok"
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	if isContextErr(err) {
		return "canceled"
	}
	return "unknown"
}

// LoadError is the failure of a single candidate directory.
type LoadError struct {
	Dir string
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading plugin from %s: %v", e.Dir, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
