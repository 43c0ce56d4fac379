package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// RetentionJob deletes archive files older than a maximum age.
type RetentionJob struct {
	dir    string
	maxAge time.Duration
	now    func() time.Time
	log    zerolog.Logger
}

// NewRetentionJob creates the job. A non-positive maxAge disables pruning.
func NewRetentionJob(dir string, maxAge time.Duration, log zerolog.Logger) *RetentionJob {
	return &RetentionJob{
		dir:    dir,
		maxAge: maxAge,
		now:    time.Now,
		log:    log.With().Str("job", "archive_retention").Logger(),
	}
}

// Run removes *.json files whose modification time is older than maxAge.
func (j *RetentionJob) Run() error {
	if j.maxAge <= 0 {
		return nil
	}

	entries, err := os.ReadDir(j.dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read archive directory: %w", err)
	}

	cutoff := j.now().Add(-j.maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(j.dir, entry.Name())); err != nil {
				j.log.Warn().Err(err).Str("file", entry.Name()).Msg("Failed to remove archive")
				continue
			}
			removed++
		}
	}

	if removed > 0 {
		j.log.Info().Int("removed", removed).Msg("Pruned old archives")
	}
	return nil
}

// Name returns the job name for scheduling and logging.
func (j *RetentionJob) Name() string {
	return "archive_retention"
}
