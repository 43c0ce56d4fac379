package archive

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeAged(t *testing.T, dir, name string, age time.Duration) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0644))
	mod := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(path, mod, mod))
}

func TestRetentionJob_Run(t *testing.T) {
	dir := t.TempDir()
	writeAged(t, dir, "old.json", 40*24*time.Hour)
	writeAged(t, dir, "new.json", time.Hour)
	writeAged(t, dir, "notes.txt", 40*24*time.Hour)

	job := NewRetentionJob(dir, 30*24*time.Hour, zerolog.Nop())
	assert.Equal(t, "archive_retention", job.Name())
	require.NoError(t, job.Run())

	_, err := os.Stat(filepath.Join(dir, "old.json"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "new.json"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "notes.txt"))
	assert.NoError(t, err)
}

func TestRetentionJob_Disabled(t *testing.T) {
	dir := t.TempDir()
	writeAged(t, dir, "old.json", 400*24*time.Hour)

	require.NoError(t, NewRetentionJob(dir, 0, zerolog.Nop()).Run())

	_, err := os.Stat(filepath.Join(dir, "old.json"))
	assert.NoError(t, err)
}

func TestRetentionJob_MissingDirectory(t *testing.T) {
	job := NewRetentionJob(filepath.Join(t.TempDir(), "absent"), time.Hour, zerolog.Nop())
	assert.NoError(t, job.Run())
}
