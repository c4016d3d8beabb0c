package store

import (
	"database/sql"
	"fmt"
	"sort"
)

// Migration represents a schema migration step. SQL runs first, then Apply.
// Every step must be safe to run against a schema that already has it.
type Migration struct {
	Version     int
	Description string
	SQL         string
	Apply       func(tx *sql.Tx) error
}

// MigrationStatus reports the current and available migration versions.
type MigrationStatus struct {
	CurrentVersion   int             `json:"current_version"`
	AvailableVersion int             `json:"available_version"`
	Pending          []MigrationInfo `json:"pending"`
}

// MigrationInfo describes a single migration.
type MigrationInfo struct {
	Version     int    `json:"version"`
	Description string `json:"description"`
}

// migrations is the ordered list of all schema migrations.
var migrations = []Migration{
	{
		Version:     1,
		Description: "initial schema: tasks and time_logs",
		SQL: `
CREATE TABLE IF NOT EXISTS tasks (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  description TEXT,
  ticket_url TEXT,
  start_local TEXT,
  end_local TEXT,
  status TEXT NOT NULL,
  priority INTEGER,
  tags TEXT,
  calendar_entry_id TEXT,
  ticket_minutes_booked INTEGER NOT NULL DEFAULT 0,
  created_utc TEXT NOT NULL,
  updated_utc TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS time_logs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  task_id TEXT NOT NULL,
  start_utc TEXT NOT NULL,
  end_utc TEXT,
  note TEXT
);
`,
	},
	{
		Version:     2,
		Description: "work_days and breaks with day type and br/ho markers",
		SQL: `
CREATE TABLE IF NOT EXISTS work_days (
  day TEXT PRIMARY KEY,
  come_local TEXT,
  go_local TEXT
);

CREATE TABLE IF NOT EXISTS breaks (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  day TEXT NOT NULL,
  start_local TEXT NOT NULL,
  end_local TEXT,
  note TEXT
);
`,
		Apply: func(tx *sql.Tx) error {
			if err := ensureColumn(tx, "work_days", "day_type", "TEXT NOT NULL DEFAULT 'Normal'"); err != nil {
				return err
			}
			if err := ensureColumn(tx, "work_days", "is_br", "INTEGER NOT NULL DEFAULT 0"); err != nil {
				return err
			}
			return ensureColumn(tx, "work_days", "is_ho", "INTEGER NOT NULL DEFAULT 0")
		},
	},
	{
		Version:     3,
		Description: "task_segments table",
		SQL: `
CREATE TABLE IF NOT EXISTS task_segments (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  task_id TEXT NOT NULL,
  start_local TEXT,
  end_local TEXT,
  planned_minutes INTEGER NOT NULL DEFAULT 0,
  calendar_entry_id TEXT
);
`,
	},
	{
		Version:     4,
		Description: "segment note column",
		Apply: func(tx *sql.Tx) error {
			return ensureColumn(tx, "task_segments", "note", "TEXT")
		},
	},
	{
		Version:     5,
		Description: "ticket_seconds_booked backfilled from ticket_minutes_booked",
		Apply: func(tx *sql.Tx) error {
			if err := ensureColumn(tx, "tasks", "ticket_seconds_booked", "INTEGER NOT NULL DEFAULT 0"); err != nil {
				return err
			}
			_, err := tx.Exec(`
				UPDATE tasks SET ticket_seconds_booked = ticket_minutes_booked * 60
				WHERE ticket_seconds_booked = 0 AND ticket_minutes_booked <> 0
			`)
			return err
		},
	},
	{
		Version:     6,
		Description: "lookup indexes for logs, breaks and segments",
		SQL: `
CREATE INDEX IF NOT EXISTS idx_time_logs_task ON time_logs(task_id, id);
CREATE INDEX IF NOT EXISTS idx_breaks_day ON breaks(day, id);
CREATE INDEX IF NOT EXISTS idx_task_segments_task ON task_segments(task_id, start_local);
CREATE INDEX IF NOT EXISTS idx_task_segments_start ON task_segments(start_local);
CREATE INDEX IF NOT EXISTS idx_tasks_start_local ON tasks(start_local);
`,
	},
}

const migrationsTableSQL = `
CREATE TABLE IF NOT EXISTS schema_migrations (
  version INTEGER PRIMARY KEY,
  applied_at TEXT NOT NULL
);
`

// ensureMigrationsTable creates the schema_migrations table if it doesn't exist.
func ensureMigrationsTable(db *sql.DB) error {
	_, err := db.Exec(migrationsTableSQL)
	return err
}

// currentVersion returns the highest applied migration version, or 0 if none.
func currentVersion(db *sql.DB) (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	if err != nil {
		return 0, err
	}
	return version, nil
}

// detectPreMigrationDB checks if the tasks table exists but no migrations have been recorded.
// This indicates a database created before the migration framework was added.
func detectPreMigrationDB(db *sql.DB) (bool, error) {
	var tasksExist int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='tasks'").Scan(&tasksExist)
	if err != nil {
		return false, err
	}
	if tasksExist == 0 {
		return false, nil
	}

	var migrationsExist int
	err = db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_migrations'").Scan(&migrationsExist)
	if err != nil {
		return false, err
	}
	if migrationsExist == 0 {
		return true, nil
	}

	var count int
	err = db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

// ensureColumn adds column to table when PRAGMA table_info does not list it.
func ensureColumn(tx *sql.Tx, table, column, decl string) error {
	rows, err := tx.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return err
	}
	found := false
	for rows.Next() {
		var (
			cid     int
			name    string
			ctype   string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dflt, &pk); err != nil {
			rows.Close()
			return err
		}
		if name == column {
			found = true
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	if found {
		return nil
	}
	_, err = tx.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, decl))
	return err
}

func sortedMigrations() []Migration {
	sorted := make([]Migration, len(migrations))
	copy(sorted, migrations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Version < sorted[j].Version })
	return sorted
}

// runMigrations applies all pending migrations in order.
func runMigrations(db *sql.DB) error {
	// Detect pre-migration databases BEFORE creating the migrations table.
	preMigration, err := detectPreMigrationDB(db)
	if err != nil {
		return fmt.Errorf("detect pre-migration db: %w", err)
	}

	if err := ensureMigrationsTable(db); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	if preMigration {
		// The tasks and time_logs tables of migration 1 already exist.
		if _, err := db.Exec("INSERT OR IGNORE INTO schema_migrations (version, applied_at) VALUES (?, datetime('now'))", 1); err != nil {
			return fmt.Errorf("stamp pre-migration db: %w", err)
		}
	}

	current, err := currentVersion(db)
	if err != nil {
		return fmt.Errorf("get current version: %w", err)
	}

	for _, m := range sortedMigrations() {
		if m.Version <= current {
			continue
		}
		if err := applyMigration(db, m); err != nil {
			return err
		}
	}

	return nil
}

func applyMigration(db *sql.DB, m Migration) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin migration %d: %w", m.Version, err)
	}

	if m.SQL != "" {
		if _, err := tx.Exec(m.SQL); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply migration %d (%s): %w", m.Version, m.Description, err)
		}
	}
	if m.Apply != nil {
		if err := m.Apply(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply migration %d (%s): %w", m.Version, m.Description, err)
		}
	}

	if _, err := tx.Exec("INSERT INTO schema_migrations (version, applied_at) VALUES (?, datetime('now'))", m.Version); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("record migration %d: %w", m.Version, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %d: %w", m.Version, err)
	}
	return nil
}

// MigrationPlan returns the current migration status without applying anything.
func MigrationPlan(db *sql.DB) (*MigrationStatus, error) {
	// Detect pre-migration databases BEFORE creating the migrations table.
	preMigration, err := detectPreMigrationDB(db)
	if err != nil {
		return nil, err
	}

	if err := ensureMigrationsTable(db); err != nil {
		return nil, err
	}

	current, err := currentVersion(db)
	if err != nil {
		return nil, err
	}

	// If pre-migration DB, treat as version 1 for planning purposes.
	effective := current
	if preMigration && effective == 0 {
		effective = 1
	}

	sorted := sortedMigrations()

	available := 0
	if len(sorted) > 0 {
		available = sorted[len(sorted)-1].Version
	}

	var pending []MigrationInfo
	for _, m := range sorted {
		if m.Version > effective {
			pending = append(pending, MigrationInfo{Version: m.Version, Description: m.Description})
		}
	}

	return &MigrationStatus{
		CurrentVersion:   effective,
		AvailableVersion: available,
		Pending:          pending,
	}, nil
}
