package archivers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	a, err := Resolve("git")
	require.NoError(t, err)
	assert.Equal(t, "git", a.Name())

	a, err = Resolve("filesystem")
	require.NoError(t, err)
	assert.Equal(t, "filesystem", a.Name())
}

func TestResolve_Unknown(t *testing.T) {
	_, err := Resolve("perforce")
	assert.ErrorIs(t, err, ErrArchiverUnknown)
}

type fakeArchiver struct{}

func (fakeArchiver) Name() string                               { return "fake" }
func (fakeArchiver) Revisions(string, int) ([]*Revision, error) { return nil, nil }

func TestRegister(t *testing.T) {
	Register(fakeArchiver{})
	a, err := Resolve("fake")
	require.NoError(t, err)
	assert.Equal(t, "fake", a.Name())
}

func TestParseGitLog(t *testing.T) {
	out := []byte("abc123\x1fAda\x1fada@x.com\x1f1704067200\x1finitial commit\x1e\n" +
		"def456\x1fBob\x1fbob@x.com\x1f1704153600\x1fsecond commit\x1e\n")

	revs, err := parseGitLog(out)
	require.NoError(t, err)
	require.Len(t, revs, 2)

	assert.Equal(t, "abc123", revs[0].Key)
	assert.Equal(t, "Ada", revs[0].AuthorName)
	assert.Equal(t, "ada@x.com", revs[0].AuthorEmail)
	assert.Equal(t, int64(1704067200), revs[0].Date.Unix())
	assert.Equal(t, "initial commit", revs[0].Message)

	assert.Equal(t, "def456", revs[1].Key)
	assert.Equal(t, "second commit", revs[1].Message)
}

func TestParseGitLog_Empty(t *testing.T) {
	revs, err := parseGitLog(nil)
	require.NoError(t, err)
	assert.Empty(t, revs)
}

func TestParseGitLog_Malformed(t *testing.T) {
	_, err := parseGitLog([]byte("abc123\x1fonly-two\x1e"))
	assert.Error(t, err)

	_, err = parseGitLog([]byte("abc123\x1fAda\x1fada@x.com\x1fnot-a-time\x1fmsg\x1e"))
	assert.Error(t, err)
}

func TestFilesystem_StableKey(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte("package a"), 0o644))

	fs := &Filesystem{}
	first, err := fs.Revisions(dir, 0)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.NotEmpty(t, first[0].Key)

	// unchanged tree, same key
	second, err := fs.Revisions(dir, 0)
	require.NoError(t, err)
	assert.Equal(t, first[0].Key, second[0].Key)

	// changed tree, different key
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte("package b"), 0o644))
	third, err := fs.Revisions(dir, 0)
	require.NoError(t, err)
	assert.NotEqual(t, first[0].Key, third[0].Key)
}

func TestFilesystem_SkipsCacheDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte("package a"), 0o644))

	fs := &Filesystem{}
	before, err := fs.Revisions(dir, 0)
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".wily"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".wily", "index.json"), []byte("{}"), 0o644))
	after, err := fs.Revisions(dir, 0)
	require.NoError(t, err)

	assert.Equal(t, before[0].Key, after[0].Key)
}
