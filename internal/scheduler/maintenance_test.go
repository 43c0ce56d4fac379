package scheduler

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/aristath/forecast/internal/database"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVacuumJob_Run(t *testing.T) {
	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), "client_data.db"),
		Profile: database.ProfileCache,
		Name:    database.NameClientData,
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())

	job := NewVacuumJob(db, zerolog.Nop())
	assert.Equal(t, "vacuum_database", job.Name())
	assert.NoError(t, job.Run())
}

func TestDiskSpaceJob_Run(t *testing.T) {
	tests := []struct {
		name    string
		free    uint64
		err     error
		wantErr bool
	}{
		{"plenty", 50e9, nil, false},
		{"low but usable", 2e9, nil, false},
		{"critical", 100e6, nil, true},
		{"stat error", 0, errors.New("no such device"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := NewDiskSpaceJob("/data", zerolog.Nop())
			job.usage = func(path string) (*disk.UsageStat, error) {
				if tt.err != nil {
					return nil, tt.err
				}
				return &disk.UsageStat{Path: path, Free: tt.free}, nil
			}

			err := job.Run()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDiskSpaceJob_RealFilesystem(t *testing.T) {
	job := NewDiskSpaceJob(t.TempDir(), zerolog.Nop())
	_, err := job.usage(job.dir)
	assert.NoError(t, err)
}
