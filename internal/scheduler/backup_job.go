package scheduler

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/MrSnakeDoc/aniarc/internal/backup"
	"github.com/MrSnakeDoc/aniarc/internal/logger"
	"github.com/MrSnakeDoc/aniarc/internal/metrics"
	"github.com/MrSnakeDoc/aniarc/internal/userstate"
)

// Exporter produces the snapshot written by BackupJob.
type Exporter interface {
	ExportAll() userstate.Snapshot
}

// BackupOptions configures BackupJob.
type BackupOptions struct {
	Schedule string        // cron expression, ex: "0 3 * * *" or "@every 6h"
	Dir      string        // destination directory
	Format   backup.Format // yaml or json
	Keep     int           // number of files kept, 0 keeps everything
}

// BackupJob writes the user state to disk on a cron schedule.
type BackupJob struct {
	source Exporter
	opts   BackupOptions
	logger logger.Logger
	now    func() time.Time
	cron   *cron.Cron
	entry  cron.EntryID
}

// NewBackupJob validates the schedule and prepares the job.
func NewBackupJob(source Exporter, opts BackupOptions, log logger.Logger) (*BackupJob, error) {
	if opts.Format == "" {
		opts.Format = backup.FormatYAML
	}
	if opts.Dir == "" {
		return nil, fmt.Errorf("backup dir is required")
	}

	job := &BackupJob{
		source: source,
		opts:   opts,
		logger: log,
		now:    time.Now,
		cron:   cron.New(cron.WithLocation(time.UTC)),
	}
	id, err := job.cron.AddFunc(opts.Schedule, func() {
		if _, err := job.Run(); err != nil {
			job.logger.Error("scheduled backup failed",
				logger.Error(err))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid backup schedule %q: %w", opts.Schedule, err)
	}
	job.entry = id
	return job, nil
}

// Start starts the cron scheduler in its own goroutine.
func (j *BackupJob) Start() {
	j.cron.Start()
	j.logger.Info("backup job scheduled",
		logger.String("schedule", j.opts.Schedule),
		logger.String("dir", j.opts.Dir),
		logger.String("format", string(j.opts.Format)),
		logger.Time("next_run", j.NextRun()))
}

// NextRun returns the next scheduled backup time in UTC.
func (j *BackupJob) NextRun() time.Time {
	return j.cron.Entry(j.entry).Schedule.Next(j.now().UTC())
}

// Stop stops the scheduler and waits for a running backup to finish.
func (j *BackupJob) Stop() {
	<-j.cron.Stop().Done()
}

// Run writes one backup now and returns its path.
func (j *BackupJob) Run() (string, error) {
	snap := j.source.ExportAll()
	path := backup.FileName(j.opts.Dir, j.opts.Format, j.now())

	if err := backup.Write(path, snap); err != nil {
		metrics.BackupRuns.WithLabelValues(metrics.OutcomeError).Inc()
		return "", err
	}
	metrics.BackupRuns.WithLabelValues(metrics.OutcomeOK).Inc()

	j.logger.Info("user state backed up",
		logger.String("path", path),
		logger.Int("watchlist", len(snap.Watchlist)),
		logger.Int("favorites", len(snap.Favorites)))

	if err := j.prune(); err != nil {
		j.logger.Warn("failed to prune old backups",
			logger.Error(err))
	}
	return path, nil
}

// prune removes the oldest backups beyond Keep. Names sort by timestamp.
func (j *BackupJob) prune() error {
	if j.opts.Keep <= 0 {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(j.opts.Dir, "userstate-*."+string(j.opts.Format)))
	if err != nil {
		return err
	}
	if len(files) <= j.opts.Keep {
		return nil
	}

	sort.Strings(files)
	for _, f := range files[:len(files)-j.opts.Keep] {
		if err := os.Remove(f); err != nil {
			return err
		}
		j.logger.Debug("removed old backup", logger.String("path", f))
	}
	return nil
}
