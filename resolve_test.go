package plugins

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, nil, 0o644))
}

func TestSlug(t *testing.T) {
	tests := []struct {
		name      string
		dir       string
		wantSlug  string
		wantExact bool
	}{
		{"uuid", fooID, fooID, true},
		{"upper case uuid", "123E4567-E89B-12D3-A456-426614174000", fooID, true},
		{"display name", "Foo Plugin", "foo-plugin", false},
		{"already a slug", "foo-plugin", "foo-plugin", false},
		{"almost a uuid", "123e4567-e89b-12d3-a456-42661417400", "123e4567-e89b-12d3-a456-42661417400", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slug, exact := Slug(tt.dir)
			assert.Equal(t, tt.wantSlug, slug)
			assert.Equal(t, tt.wantExact, exact)
		})
	}
}

func TestResolveArchive_Exact(t *testing.T) {
	dir := filepath.Join(t.TempDir(), fooID)
	touch(t, filepath.Join(dir, fooID+".zip"))
	touch(t, filepath.Join(dir, "aaa.zip"))

	got, err := ResolveArchive(dir, DefaultArchiveExt)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, fooID+".zip"), got)
}

func TestResolveArchive_ExactIgnoresOtherArchives(t *testing.T) {
	dir := filepath.Join(t.TempDir(), fooID)
	touch(t, filepath.Join(dir, "foo-plugin-1.0.zip"))
	touch(t, filepath.Join(dir, fooID+".jar"))
	touch(t, filepath.Join(dir, fooID+"-1.0.zip"))

	_, err := ResolveArchive(dir, DefaultArchiveExt)

	assert.ErrorIs(t, err, ErrArchiveNotFound)
}

func TestResolveArchive_Prefix(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "Foo Plugin")
	touch(t, filepath.Join(dir, "README"))
	touch(t, filepath.Join(dir, "foo-plugin-2.0.pkg"))
	touch(t, filepath.Join(dir, "foo-plugin-1.0.zip"))
	touch(t, filepath.Join(dir, "foo-plugin-dir", "x"))

	got, err := ResolveArchive(dir, DefaultArchiveExt)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "foo-plugin-1.0.zip"), got)
}

func TestResolveArchive_PrefixIsCaseSensitiveOnFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "foo-plugin")
	touch(t, filepath.Join(dir, "Foo-Plugin-1.0.zip"))

	_, err := ResolveArchive(dir, DefaultArchiveExt)

	assert.ErrorIs(t, err, ErrArchiveNotFound)
}

func TestResolveArchive_NotADirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "foo-plugin")
	touch(t, file)

	_, err := ResolveArchive(file, DefaultArchiveExt)
	assert.ErrorIs(t, err, ErrPathNotDirectory)

	_, err = ResolveArchive(filepath.Join(t.TempDir(), "missing"), DefaultArchiveExt)
	assert.ErrorIs(t, err, ErrPathNotDirectory)
}

func TestResolveArchive_CustomExt(t *testing.T) {
	dir := filepath.Join(t.TempDir(), fooID)
	touch(t, filepath.Join(dir, fooID+".pkg"))

	got, err := ResolveArchive(dir, ".pkg")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, fooID+".pkg"), got)
}

func TestCandidates(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "b", "nested", "deep", "x"))
	touch(t, filepath.Join(root, "a", "x"))
	touch(t, filepath.Join(root, "file.zip"))
	require.NoError(t, os.Symlink(filepath.Join(root, "a"), filepath.Join(root, "c")))

	dirs, err := Candidates(root)

	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "a"),
		filepath.Join(root, "b"),
		filepath.Join(root, "c"),
	}, dirs)
}

func TestCandidates_Missing(t *testing.T) {
	_, err := Candidates(filepath.Join(t.TempDir(), "missing"))

	assert.ErrorIs(t, err, ErrPathNotDirectory)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
