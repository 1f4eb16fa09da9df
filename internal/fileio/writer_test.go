package fileio_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitlab-utils/jobs-logs-downloader/internal/fileio"
)

func TestWriteStream(t *testing.T) {
	dir := t.TempDir()
	writer := fileio.NewWriter()

	err := writer.WriteStream(filepath.Join(dir, "job.log"), strings.NewReader("trace content"))
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(dir, "job.log"))
	require.NoError(t, err)
	assert.Equal(t, "trace content", string(content))
}

func TestWriteStreamWithRootdir(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "tmp"), 0755))

	writer := fileio.NewWriter()
	writer.SetRootdir(root)

	err := writer.WriteStream("/tmp/job.log", strings.NewReader("trace content"))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "tmp/job.log"), writer.PathFor("/tmp/job.log"))
	content, err := os.ReadFile(filepath.Join(root, "tmp/job.log"))
	require.NoError(t, err)
	assert.Equal(t, "trace content", string(content))
}

func TestWriteStreamMissingDirectory(t *testing.T) {
	writer := fileio.NewWriter()
	err := writer.WriteStream(filepath.Join(t.TempDir(), "missing", "job.log"), strings.NewReader("x"))
	assert.Error(t, err)
}
