package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	binalertdomain "github.com/Jegx07/namma-madurai-engine/internal/binalert/domain"
	"github.com/Jegx07/namma-madurai-engine/internal/events"
	sensordomain "github.com/Jegx07/namma-madurai-engine/internal/sensor/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupBinTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	statements := []string{
		`CREATE TABLE IF NOT EXISTS bin_readings (
			id BIGINT PRIMARY KEY,
			bin_id TEXT NOT NULL,
			area TEXT NOT NULL,
			fill_percent INT NOT NULL,
			is_smart BOOLEAN NOT NULL DEFAULT FALSE,
			recorded_at DATETIME NOT NULL,
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS bin_alert_states (
			bin_id TEXT PRIMARY KEY,
			area TEXT NOT NULL,
			fill_percent INT NOT NULL,
			status TEXT NOT NULL,
			last_collected_at DATETIME,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS civic_events (
			id BIGINT PRIMARY KEY,
			event_type TEXT NOT NULL,
			payload TEXT,
			dedupe_key TEXT,
			published BOOLEAN NOT NULL DEFAULT FALSE,
			created_at DATETIME NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_civic_events_dedupe_key ON civic_events (dedupe_key)`,
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}

func newBinTestMonitor(t *testing.T, db *gorm.DB) *Monitor {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	return &Monitor{
		db:  db,
		log: zap.NewNop(),
		thresholds: binalertdomain.Thresholds{
			WarningPercent:       80,
			CriticalPercent:      95,
			JustCollectedPercent: 10,
		},
		outbox: events.NewOutbox(db, node),
	}
}

func reading(id int64, binID string, fill int, at time.Time) *sensordomain.Reading {
	return &sensordomain.Reading{
		ID:          snowflake.ID(id),
		BinID:       binID,
		Area:        "anna-nagar",
		FillPercent: fill,
		IsSmart:     true,
		RecordedAt:  at,
		CreatedAt:   at,
	}
}

func countEvents(t *testing.T, db *gorm.DB, eventType string) int64 {
	t.Helper()
	var count int64
	if err := db.Raw(
		`SELECT COUNT(1) FROM civic_events WHERE event_type = ?`,
		eventType,
	).Scan(&count).Error; err != nil {
		t.Fatalf("count events: %v", err)
	}
	return count
}

func TestRecordClassifiesThresholds(t *testing.T) {
	db := setupBinTestDB(t)
	m := newBinTestMonitor(t, db)
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	cases := []struct {
		fill int
		want binalertdomain.AlertStatus
	}{
		{0, binalertdomain.StatusNormal},
		{79, binalertdomain.StatusNormal},
		{80, binalertdomain.StatusWarning},
		{94, binalertdomain.StatusWarning},
		{95, binalertdomain.StatusCritical},
		{100, binalertdomain.StatusCritical},
	}
	for i, tc := range cases {
		state, err := m.Record(context.Background(), reading(int64(3000+i), fmt.Sprintf("bin-%d", i), tc.fill, now))
		if err != nil {
			t.Fatalf("record %d%%: %v", tc.fill, err)
		}
		if state.Status != tc.want {
			t.Fatalf("fill %d%%: expected %s, got %s", tc.fill, tc.want, state.Status)
		}
	}
}

func TestRecordAlertsOnlyOnTransitionIntoCritical(t *testing.T) {
	db := setupBinTestDB(t)
	m := newBinTestMonitor(t, db)
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	if _, err := m.Record(context.Background(), reading(3101, "bin-a", 96, now)); err != nil {
		t.Fatalf("record: %v", err)
	}
	if got := countEvents(t, db, events.EventBinAlertCritical); got != 1 {
		t.Fatalf("expected 1 alert after first critical reading, got %d", got)
	}

	// Still critical: no second alert.
	if _, err := m.Record(context.Background(), reading(3102, "bin-a", 98, now.Add(time.Hour))); err != nil {
		t.Fatalf("record: %v", err)
	}
	if got := countEvents(t, db, events.EventBinAlertCritical); got != 1 {
		t.Fatalf("expected alerts to stay at 1 while critical, got %d", got)
	}

	// Dip below critical, then cross back up: a fresh alert.
	if _, err := m.Record(context.Background(), reading(3103, "bin-a", 90, now.Add(2*time.Hour))); err != nil {
		t.Fatalf("record: %v", err)
	}
	if _, err := m.Record(context.Background(), reading(3104, "bin-a", 97, now.Add(3*time.Hour))); err != nil {
		t.Fatalf("record: %v", err)
	}
	if got := countEvents(t, db, events.EventBinAlertCritical); got != 2 {
		t.Fatalf("expected 2 alerts after re-entering critical, got %d", got)
	}
}

func TestRecordDetectsCollection(t *testing.T) {
	db := setupBinTestDB(t)
	m := newBinTestMonitor(t, db)
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	if _, err := m.Record(context.Background(), reading(3201, "bin-b", 85, now)); err != nil {
		t.Fatalf("record: %v", err)
	}
	collectedAt := now.Add(time.Hour)
	state, err := m.Record(context.Background(), reading(3202, "bin-b", 5, collectedAt))
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if state.LastCollectedAt == nil || !state.LastCollectedAt.Equal(collectedAt) {
		t.Fatalf("expected last_collected_at %v, got %v", collectedAt, state.LastCollectedAt)
	}
	if state.Status != binalertdomain.StatusNormal {
		t.Fatalf("expected Normal after collection, got %s", state.Status)
	}
	if got := countEvents(t, db, events.EventBinCollected); got != 1 {
		t.Fatalf("expected one collection event, got %d", got)
	}
}

func TestRecordLowFirstReadingIsNotCollection(t *testing.T) {
	db := setupBinTestDB(t)
	m := newBinTestMonitor(t, db)
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	state, err := m.Record(context.Background(), reading(3301, "bin-c", 5, now))
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if state.LastCollectedAt != nil {
		t.Fatal("first reading must not count as a collection")
	}
	if got := countEvents(t, db, events.EventBinCollected); got != 0 {
		t.Fatalf("expected no collection events, got %d", got)
	}
}

func TestRecordSmallDropIsNotCollection(t *testing.T) {
	db := setupBinTestDB(t)
	m := newBinTestMonitor(t, db)
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	// A drop from below the collection floor is sensor noise.
	if _, err := m.Record(context.Background(), reading(3401, "bin-d", 40, now)); err != nil {
		t.Fatalf("record: %v", err)
	}
	state, err := m.Record(context.Background(), reading(3402, "bin-d", 5, now.Add(time.Hour)))
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if state.LastCollectedAt != nil {
		t.Fatal("drop from 40% must not count as a collection")
	}
}

func TestPriorStateSelectsForUpdate(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer conn.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: conn}), &gorm.Config{})
	if err != nil {
		t.Fatalf("open gorm: %v", err)
	}
	m := &Monitor{db: db, log: zap.NewNop()}

	rows := sqlmock.NewRows([]string{"bin_id", "area", "fill_percent", "status", "last_collected_at", "updated_at"}).
		AddRow("bin-f", "anna-nagar", 85, string(binalertdomain.StatusWarning), nil, time.Now().UTC())
	mock.ExpectQuery(`SELECT .* FROM "bin_alert_states" WHERE bin_id = .* FOR UPDATE`).
		WithArgs("bin-f", 1).
		WillReturnRows(rows)

	prior, hadPrior, err := m.priorState(db, "bin-f")
	if err != nil {
		t.Fatalf("prior state: %v", err)
	}
	if !hadPrior || prior.Status != binalertdomain.StatusWarning {
		t.Fatalf("unexpected prior state: %+v hadPrior=%v", prior, hadPrior)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("query without row lock: %v", err)
	}
}

func TestCountCriticalFiltersArea(t *testing.T) {
	db := setupBinTestDB(t)
	m := newBinTestMonitor(t, db)
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	if _, err := m.Record(context.Background(), reading(3501, "bin-e", 97, now)); err != nil {
		t.Fatalf("record: %v", err)
	}

	count, err := m.CountCritical(context.Background(), "anna-nagar")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 critical bin, got %d", count)
	}

	other, err := m.CountCritical(context.Background(), "sellur")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if other != 0 {
		t.Fatalf("expected 0 critical bins elsewhere, got %d", other)
	}
}
