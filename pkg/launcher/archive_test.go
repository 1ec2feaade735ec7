package launcher

import (
	"os"
	"path/filepath"
	"testing"

	gzip "github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"
)

func TestArchiveLogsCompressesAndRemovesRawFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vm-1.out.log"), []byte("stdout contents"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vm-1.err.log"), []byte("stderr contents"), 0o644))

	require.NoError(t, ArchiveLogs(dir, "vm-1"))

	require.NoFileExists(t, filepath.Join(dir, "vm-1.out.log"))
	require.NoFileExists(t, filepath.Join(dir, "vm-1.err.log"))

	f, err := os.Open(filepath.Join(dir, "vm-1.out.log.gz"))
	require.NoError(t, err)
	defer f.Close()

	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	defer gz.Close()

	buf := make([]byte, 64)
	n, _ := gz.Read(buf)
	require.Equal(t, "stdout contents", string(buf[:n]))
}

func TestArchiveLogsToleratesMissingFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, ArchiveLogs(dir, "vm-does-not-exist"))
}
