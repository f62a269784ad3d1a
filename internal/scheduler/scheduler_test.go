package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Jegx07/namma-madurai-engine/internal/clock"
	"github.com/Jegx07/namma-madurai-engine/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newTestScheduler(t *testing.T, timeout time.Duration) (*Scheduler, sqlmock.Sqlmock, *observer.ObservedLogs) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: conn}), &gorm.Config{})
	if err != nil {
		t.Fatalf("open gorm: %v", err)
	}

	core, logs := observer.New(zap.InfoLevel)
	return &Scheduler{
		db:    db,
		log:   zap.New(core),
		clock: clock.SystemClock{},
		cfg:   config.Jobs{Timeout: timeout},
	}, mock, logs
}

func expectLockClaim(mock sqlmock.Sqlmock, name string, claimed bool) {
	mock.ExpectExec(`INSERT INTO job_locks`).
		WithArgs(name).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectBegin()
	rows := sqlmock.NewRows([]string{"name"})
	if claimed {
		rows.AddRow(name)
	}
	mock.ExpectQuery(`FOR UPDATE SKIP LOCKED`).
		WithArgs(name).
		WillReturnRows(rows)
}

func hasLogMessage(logs *observer.ObservedLogs, message string) bool {
	for _, entry := range logs.All() {
		if entry.Message == message {
			return true
		}
	}
	return false
}

func TestRunJobTimeoutKeepsPreviousRun(t *testing.T) {
	s, mock, logs := newTestScheduler(t, 20*time.Millisecond)

	expectLockClaim(mock, JobScore, true)
	// The run's transaction rolls back, so nothing partial is published.
	mock.ExpectRollback()

	s.runJob(context.Background(), JobScore, func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); !ok {
			t.Fatal("job context must carry the configured deadline")
		}
		<-ctx.Done()
		return ctx.Err()
	})

	if !hasLogMessage(logs, "job timed out, keeping previous run") {
		t.Fatal("expected timeout outcome")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expected rollback after timeout: %v", err)
	}
}

func TestRunJobSkipsWhenLockHeld(t *testing.T) {
	s, mock, logs := newTestScheduler(t, time.Second)

	expectLockClaim(mock, JobInsight, false)
	mock.ExpectRollback()

	ran := false
	s.runJob(context.Background(), JobInsight, func(context.Context) error {
		ran = true
		return nil
	})

	if ran {
		t.Fatal("job must not run while another instance holds the lock")
	}
	if !hasLogMessage(logs, "job already running elsewhere, skipping") {
		t.Fatal("expected skip outcome")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRunJobSuccessStampsLastRun(t *testing.T) {
	s, mock, logs := newTestScheduler(t, time.Second)

	expectLockClaim(mock, JobScore, true)
	mock.ExpectExec(`UPDATE job_locks SET last_run_at`).
		WithArgs(sqlmock.AnyArg(), JobScore).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ran := false
	s.runJob(context.Background(), JobScore, func(context.Context) error {
		ran = true
		return nil
	})

	if !ran {
		t.Fatal("job must run once the lock is claimed")
	}
	if !hasLogMessage(logs, "job complete") {
		t.Fatal("expected success outcome")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
