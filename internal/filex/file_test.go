package filex

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnsureParentDir_CreatesMissingDirs(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "data", "nested", "dosekeeper.db")

	got, err := EnsureParentDir(path)
	require.NoError(t, err)
	require.Equal(t, path, got)

	fi, err := os.Stat(filepath.Dir(path))
	require.NoError(t, err)
	require.True(t, fi.IsDir())
}

func TestEnsureParentDir_BareFileName(t *testing.T) {
	got, err := EnsureParentDir("dosekeeper.db")
	require.NoError(t, err)
	require.Equal(t, "dosekeeper.db", got)
}

func TestReadLimited(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "avatar.png")
	require.NoError(t, os.WriteFile(path, []byte("0123456789"), 0o600))

	b, err := ReadLimited(path, 10)
	require.NoError(t, err)
	require.Equal(t, "0123456789", string(b))

	_, err = ReadLimited(path, 9)
	require.ErrorContains(t, err, "file too large")

	_, err = ReadLimited(filepath.Join(tmp, "missing"), 10)
	require.Error(t, err)
}
