// Package manifest parses plugin manifests.
//
// A manifest is an INI-like text document:
//
//	name=Foo Plugin
//	version=1.0
//	uuid=123e4567-e89b-12d3-a456-426614174000
//	[classes]
//	entrypoint=example.com/foo.FooPlugin
//
// Keys before the first section header belong to the default section.
// Repeating a key turns its value into a list. Lines that are neither a
// section header nor a key/value pair are ignored.
package manifest

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
)

// DefaultSection is the name of the implicit section holding the keys that
// precede any section header.
const DefaultSection = ""

// ErrUnreadable is returned when the underlying stream cannot be read.
var ErrUnreadable = errors.New("manifest unreadable")

var (
	sectionPattern  = regexp.MustCompile(`^\s*\[([a-zA-Z][a-zA-Z0-9.-]+)\]\s*$`)
	keyValuePattern = regexp.MustCompile(`^([a-zA-Z][a-zA-Z0-9.-]+)[ \t]*=[ \t]*(.*)$`)
)

// Scoping decides how keys relate to sections.
type Scoping int

const (
	// Flat keeps a single key namespace for the whole document. A key
	// repeated under two different sections is promoted to one list, and
	// lookups ignore the section argument. This is how manifests have always
	// been read.
	Flat Scoping = iota
	// Scoped gives every section its own keys.
	Scoped
)

// Option configures Parse.
type Option func(*parser)

// WithScoping selects the key scoping mode. The default is Flat.
func WithScoping(s Scoping) Option {
	return func(p *parser) {
		p.doc.scoping = s
	}
}

// WithLogger sets the logger used for advisory messages.
func WithLogger(log logrus.FieldLogger) Option {
	return func(p *parser) {
		p.log = log
	}
}

type section struct {
	name   string
	keys   []string
	seen   map[string]bool
	values map[string]Value
}

func newSection(name string) *section {
	return &section{
		name:   name,
		seen:   make(map[string]bool),
		values: make(map[string]Value),
	}
}

// Document is a parsed manifest.
type Document struct {
	scoping  Scoping
	sections []*section
	index    map[string]*section
	flat     map[string]Value
}

func newDocument() *Document {
	def := newSection(DefaultSection)
	return &Document{
		sections: []*section{def},
		index:    map[string]*section{DefaultSection: def},
		flat:     make(map[string]Value),
	}
}

type parser struct {
	doc *Document
	log logrus.FieldLogger
}

// Parse reads a manifest from r. It only fails when r does; malformed lines
// are logged at debug level and skipped.
func Parse(r io.Reader, opts ...Option) (*Document, error) {
	p := &parser{doc: newDocument(), log: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(p)
	}

	br := bufio.NewReader(r)
	cur := p.doc.sections[0]
	for lineN := 1; ; lineN++ {
		line, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: line %d: %v", ErrUnreadable, lineN, err)
		}
		if line == "" && err != nil {
			break
		}

		line = strings.TrimRight(line, "\r\n")
		cur = p.parseLine(cur, line, lineN)

		if err != nil {
			break
		}
	}

	return p.doc, nil
}

func (p *parser) parseLine(cur *section, line string, lineN int) *section {
	if m := sectionPattern.FindStringSubmatch(line); m != nil {
		name := m[1]
		if s, ok := p.doc.index[name]; ok {
			p.log.WithFields(logrus.Fields{"line": lineN, "section": name}).
				Debug("manifest: reopening a section; declare its keys where the section first appears instead")
			return s
		}
		s := newSection(name)
		p.doc.sections = append(p.doc.sections, s)
		p.doc.index[name] = s
		return s
	}

	if m := keyValuePattern.FindStringSubmatch(line); m != nil {
		p.set(cur, m[1], m[2], lineN)
		return cur
	}

	if strings.TrimSpace(line) != "" {
		p.log.WithField("line", lineN).Debug("manifest: malformed line treated as a comment")
	}
	return cur
}

func (p *parser) set(s *section, key, value string, lineN int) {
	values := s.values
	if p.doc.scoping == Flat {
		values = p.doc.flat
	}

	old := values[key]
	if old.Kind() == Scalar {
		p.log.WithFields(logrus.Fields{"line": lineN, "key": key}).
			Debug("manifest: repeated key converted to a list")
	}
	values[key] = old.with(value)

	if !s.seen[key] {
		s.seen[key] = true
		s.keys = append(s.keys, key)
	}
}

// Scoping reports the mode the document was parsed with.
func (d *Document) Scoping() Scoping { return d.scoping }

// Sections returns the section names in order of first appearance. The
// default section comes first.
func (d *Document) Sections() []string {
	names := make([]string, len(d.sections))
	for i, s := range d.sections {
		names[i] = s.name
	}
	return names
}

// Section returns a view of the named section. The section does not need to
// exist; lookups on a missing section return their fallback.
func (d *Document) Section(name string) Section {
	return Section{doc: d, name: name}
}

// Default returns the default section.
func (d *Document) Default() Section {
	return d.Section(DefaultSection)
}

// Get returns the raw value of key in section, or fallback.
func (d *Document) Get(section, key string, fallback Value) Value {
	return d.Section(section).Get(key, fallback)
}

// GetString returns the value of key in section if it is a Scalar, and
// fallback otherwise.
func (d *Document) GetString(section, key, fallback string) string {
	return d.Section(section).GetString(key, fallback)
}

// GetList returns the value of key in section as a list, or fallback.
func (d *Document) GetList(section, key string, fallback []string) []string {
	return d.Section(section).GetList(key, fallback)
}

func (d *Document) lookup(section, key string) Value {
	if d.scoping == Flat {
		return d.flat[key]
	}
	s, ok := d.index[section]
	if !ok {
		return Value{}
	}
	return s.values[key]
}

// Section is a read-only view of one section of a Document.
type Section struct {
	doc  *Document
	name string
}

// Name returns the section name.
func (s Section) Name() string { return s.name }

// Keys returns the keys assigned under this section header, in order of
// first appearance.
func (s Section) Keys() []string {
	sec, ok := s.doc.index[s.name]
	if !ok {
		return nil
	}
	return append([]string(nil), sec.keys...)
}

// Get returns the raw value of key, or fallback if it is absent.
func (s Section) Get(key string, fallback Value) Value {
	if v := s.doc.lookup(s.name, key); !v.IsAbsent() {
		return v
	}
	return fallback
}

// GetString returns the value of key if it is a Scalar. Absent keys and
// lists yield fallback.
func (s Section) GetString(key, fallback string) string {
	if v, ok := s.doc.lookup(s.name, key).Scalar(); ok {
		return v
	}
	return fallback
}

// GetList returns the value of key as a list. A Scalar is returned as a
// one-element list; an absent key yields fallback.
func (s Section) GetList(key string, fallback []string) []string {
	v := s.doc.lookup(s.name, key)
	if v.IsAbsent() {
		return fallback
	}
	return v.Strings()
}
