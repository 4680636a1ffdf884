package share

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestShare(t *testing.T) *Share {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestOpenRejectsMissingAndNonDir(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)

	f := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(f, []byte("x"), 0o644))
	_, err = Open(f)
	assert.Error(t, err)
}

func TestResolveStaysInsideRoot(t *testing.T) {
	s := newTestShare(t)

	tests := []struct {
		proto string
		want  string
	}{
		{"/", ""},
		{"", ""},
		{"/a.txt", "a.txt"},
		{"/docs/b.txt", "docs/b.txt"},
		{"//docs///c", "docs/c"},
		{"/./docs", "docs"},
	}

	for _, tt := range tests {
		t.Run(tt.proto, func(t *testing.T) {
			got, err := s.Resolve(tt.proto)
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(s.Root(), filepath.FromSlash(tt.want)), got)
			assert.True(t, got == s.Root() || strings.HasPrefix(got, s.Root()+string(filepath.Separator)))
		})
	}
}

func TestResolveRejectsEscape(t *testing.T) {
	s := newTestShare(t)

	for _, proto := range []string{"/..", "/../x", "/docs/../../x", "..", "/a/../../../etc/passwd"} {
		t.Run(proto, func(t *testing.T) {
			_, err := s.Resolve(proto)
			assert.ErrorIs(t, err, ErrEscapesRoot)
		})
	}
}

func TestListRootAndSubdir(t *testing.T) {
	s := newTestShare(t)

	require.NoError(t, os.Mkdir(filepath.Join(s.Root(), "docs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(s.Root(), "b.bin"), make([]byte, 5), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(s.Root(), "a.txt"), []byte("hi"), 0o644))

	dirs, files, err := s.List("/")
	require.NoError(t, err)
	assert.Equal(t, []string{"docs"}, dirs)
	require.Len(t, files, 2)
	assert.Equal(t, "a.txt", files[0].Name)
	assert.Equal(t, ".txt", files[0].Suffix)
	assert.Equal(t, int64(2), files[0].Size)
	assert.NotZero(t, files[0].Mtime)
	assert.Equal(t, "b.bin", files[1].Name)

	dirs, files, err = s.List("/docs")
	require.NoError(t, err)
	assert.Empty(t, dirs)
	assert.Empty(t, files)
}

func TestListEmptyRoot(t *testing.T) {
	s := newTestShare(t)

	dirs, files, err := s.List("/")
	require.NoError(t, err)
	assert.Empty(t, dirs)
	assert.Empty(t, files)
}

func TestListMissingDir(t *testing.T) {
	s := newTestShare(t)
	_, _, err := s.List("/missing")
	assert.Error(t, err)
	assert.True(t, os.IsNotExist(err))
}

func TestStatFile(t *testing.T) {
	s := newTestShare(t)
	require.NoError(t, os.WriteFile(filepath.Join(s.Root(), "x.bin"), []byte("hello"), 0o644))

	abs, info, err := s.StatFile("/x.bin")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.Root(), "x.bin"), abs)
	assert.Equal(t, int64(5), info.Size())

	_, _, err = s.StatFile("/")
	assert.Error(t, err, "directory is not a file")

	_, _, err = s.StatFile("/missing.bin")
	assert.Error(t, err)
}
