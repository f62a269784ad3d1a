package scheduler

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// errLockHeld signals another instance is running the job right now.
var errLockHeld = errors.New("job_lock_held")

type jobLock struct {
	Name      string `gorm:"primaryKey"`
	LastRunAt *time.Time
}

func (jobLock) TableName() string { return "job_locks" }

// withJobLock runs fn while holding the named job's row lock. The row is
// claimed with SKIP LOCKED so a second instance skips instead of queueing
// behind a long run.
func (s *Scheduler) withJobLock(ctx context.Context, name string, fn func(context.Context) error) error {
	if err := s.ensureJobLock(ctx, name); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var locked []string
		err := tx.WithContext(ctx).Raw(
			`SELECT name
			 FROM job_locks
			 WHERE name = ?
			 FOR UPDATE SKIP LOCKED`,
			name,
		).Scan(&locked).Error
		if err != nil {
			return err
		}
		if len(locked) == 0 {
			return errLockHeld
		}

		if err := fn(ctx); err != nil {
			return err
		}

		return tx.WithContext(ctx).Exec(
			`UPDATE job_locks SET last_run_at = ? WHERE name = ?`,
			s.clock.Now(),
			name,
		).Error
	})
}

func (s *Scheduler) ensureJobLock(ctx context.Context, name string) error {
	return s.db.WithContext(ctx).Exec(
		`INSERT INTO job_locks (name) VALUES (?)
		 ON CONFLICT (name) DO NOTHING`,
		name,
	).Error
}
