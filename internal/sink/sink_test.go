package sink

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCommit(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "out.zip")

	s, err := Create(path)
	require.NoError(t, err)

	_, err = s.Write([]byte("hello"))
	require.NoError(t, err)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "destination must not exist before commit")

	require.NoError(t, s.Commit())

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))
	assertOnlyFile(t, dir, "out.zip")

	// Discard after commit keeps the output.
	require.NoError(t, s.Discard())
	_, err = os.Stat(path)
	require.NoError(t, err)

	assert.Error(t, s.Commit())
}

func TestCreateDiscard(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "out.zip")
	require.NoError(t, os.WriteFile(path, []byte("original"), 0o600))

	s, err := Create(path)
	require.NoError(t, err)
	_, err = s.Write([]byte("partial"))
	require.NoError(t, err)
	require.NoError(t, s.Discard())

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "original", string(got))
	assertOnlyFile(t, dir, "out.zip")
}

func TestCreateReplacesExisting(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "in.zip")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o600))

	s, err := Create(path)
	require.NoError(t, err)
	_, err = s.Write([]byte("new"))
	require.NoError(t, err)
	require.NoError(t, s.Commit())

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))
}

func TestCreateMode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		existing os.FileMode
		want     os.FileMode
	}{
		{name: "new file", want: defaultMode},
		{name: "keeps executable", existing: 0o755, want: 0o755},
		{name: "keeps private", existing: 0o600, want: 0o600},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "app.jar")
			if tt.existing != 0 {
				require.NoError(t, os.WriteFile(path, []byte("old"), 0o600))
				require.NoError(t, os.Chmod(path, tt.existing))
			}

			s, err := Create(path)
			require.NoError(t, err)
			_, err = s.Write([]byte("new"))
			require.NoError(t, err)
			require.NoError(t, s.Commit())

			info, err := os.Stat(path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, info.Mode().Perm())
		})
	}
}

func TestCreateMissingDir(t *testing.T) {
	t.Parallel()

	_, err := Create(filepath.Join(t.TempDir(), "missing", "out.zip"))
	assert.Error(t, err)
}

func TestStdout(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	s := Stdout(&buf)
	_, err := s.Write([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, 0, buf.Len(), "output is buffered until commit")

	require.NoError(t, s.Commit())
	assert.Equal(t, "abc", buf.String())
	assert.NoError(t, s.Discard())
}

func assertOnlyFile(t *testing.T, dir, name string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, name, entries[0].Name())
}
