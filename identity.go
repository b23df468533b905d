package plugins

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/chabad360/blocks/manifest"
)

// Manifest keys read by the loader.
const (
	KeyName        = "name"
	KeyVersion     = "version"
	KeyUUID        = "uuid"
	SectionClasses = "classes"
	KeyEntrypoint  = "entrypoint"
)

// Identity identifies a plugin. Two identities are equal when their ids are.
type Identity struct {
	name    string
	version string
	id      uuid.UUID
}

// NewIdentity returns the identity of a plugin. name and version must not be
// empty.
func NewIdentity(name, version string, id uuid.UUID) (Identity, error) {
	if name == "" {
		return Identity{}, fmt.Errorf("%w: name is empty", ErrIdentifierIncomplete)
	}
	if version == "" {
		return Identity{}, fmt.Errorf("%w: version is empty", ErrIdentifierIncomplete)
	}
	return Identity{name: name, version: version, id: id}, nil
}

func (i Identity) Name() string    { return i.name }
func (i Identity) Version() string { return i.version }
func (i Identity) ID() uuid.UUID   { return i.id }

// Equal reports whether i and o have the same id.
func (i Identity) Equal(o Identity) bool { return i.id == o.id }

func (i Identity) String() string {
	return fmt.Sprintf("%s %s (%s)", i.name, i.version, i.id)
}

// Entrypoint names the type a plugin is instantiated from, written as
// "import/path.Type".
type Entrypoint struct {
	ImportPath string
	Type       string
}

// ParseEntrypoint splits s at the last dot that follows the last slash.
func ParseEntrypoint(s string) (Entrypoint, error) {
	slash := strings.LastIndex(s, "/")
	dot := strings.LastIndex(s[slash+1:], ".")
	if dot < 0 {
		return Entrypoint{}, fmt.Errorf("%w: %q is not of the form import/path.Type", ErrEntrypointNotFound, s)
	}
	dot += slash + 1

	ep := Entrypoint{ImportPath: s[:dot], Type: s[dot+1:]}
	if ep.ImportPath == "" || ep.Type == "" {
		return Entrypoint{}, fmt.Errorf("%w: %q is not of the form import/path.Type", ErrEntrypointNotFound, s)
	}
	return ep, nil
}

func (e Entrypoint) String() string {
	return e.ImportPath + "." + e.Type
}

// ReadIdentity validates the identifying fields of a manifest. It returns the
// plugin identity and the raw entrypoint; no code is loaded.
func ReadIdentity(doc *manifest.Document) (Identity, string, error) {
	def := doc.Default()
	name := def.GetString(KeyName, "")
	version := def.GetString(KeyVersion, "")
	rawID := def.GetString(KeyUUID, "")
	entrypoint := doc.GetString(SectionClasses, KeyEntrypoint, "")

	var missing []string
	for _, f := range []struct{ key, val string }{
		{KeyName, name},
		{KeyVersion, version},
		{KeyUUID, rawID},
		{SectionClasses + "." + KeyEntrypoint, entrypoint},
	} {
		if f.val == "" {
			missing = append(missing, f.key)
		}
	}
	if len(missing) > 0 {
		return Identity{}, "", fmt.Errorf("%w: missing %s", ErrIdentifierIncomplete, strings.Join(missing, ", "))
	}

	id, err := uuid.Parse(rawID)
	if err != nil {
		return Identity{}, "", fmt.Errorf("%w: %q: %v", ErrIdentifierMalformed, rawID, err)
	}

	identity, err := NewIdentity(name, version, id)
	if err != nil {
		return Identity{}, "", err
	}
	return identity, entrypoint, nil
}
