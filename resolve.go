package plugins

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// DefaultArchiveExt is the extension of plugin archives.
const DefaultArchiveExt = ".zip"

// Slug returns the lower-cased name used to match a plugin directory to its
// archive. exact is true when the name is a uuid; the slug is then the
// canonical form of that uuid. Otherwise spaces are replaced with hyphens.
func Slug(dirName string) (slug string, exact bool) {
	s := strings.ToLower(dirName)
	if id, err := uuid.Parse(s); err == nil {
		return id.String(), true
	}
	return strings.ReplaceAll(s, " ", "-"), false
}

// ResolveArchive finds the archive of the plugin in dir.
//
// A directory named after a uuid only accepts "<uuid><ext>". Any other
// directory accepts the first file, in lexical order, whose name starts
// with the directory's slug; the extension is not checked.
func ResolveArchive(dir, ext string) (string, error) {
	if err := checkDir(dir); err != nil {
		return "", err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("%w: reading %s: %w", ErrArchiveNotFound, dir, err)
	}

	slug, exact := Slug(filepath.Base(dir))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if exact && name == slug+ext || !exact && strings.HasPrefix(name, slug) {
			return filepath.Join(dir, name), nil
		}
	}

	if exact {
		return "", fmt.Errorf("%w: no %s in %s", ErrArchiveNotFound, slug+ext, dir)
	}
	return "", fmt.Errorf("%w: no file starting with %q in %s", ErrArchiveNotFound, slug, dir)
}

// Candidates returns the immediate subdirectories of root in lexical order.
// Symbolic links to directories are included; nothing deeper is visited.
func Candidates(root string) ([]string, error) {
	if err := checkDir(root); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	var dirs []string
	for _, e := range entries {
		path := filepath.Join(root, e.Name())
		if e.Type()&os.ModeSymlink != 0 {
			fi, err := os.Stat(path)
			if err != nil || !fi.IsDir() {
				continue
			}
		} else if !e.IsDir() {
			continue
		}
		dirs = append(dirs, path)
	}
	return dirs, nil
}

// siblings returns every file directly inside dir.
func siblings(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	return files, nil
}

func checkDir(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPathNotDirectory, err)
	}
	if !fi.IsDir() {
		return fmt.Errorf("%w: %s", ErrPathNotDirectory, path)
	}
	return nil
}
