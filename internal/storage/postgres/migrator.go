package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"
)

//go:embed sql/migrations/*.sql
var migrationsFS embed.FS

const (
	migrationsDir = "sql/migrations"
	// crmSchemaLock — ключ pg_advisory_lock, под которым реплики по очереди мигрируют схему.
	crmSchemaLock = int64(0x43524d01)

	schemaMigrationsDDL = `
CREATE TABLE IF NOT EXISTS schema_migrations (
    version BIGINT PRIMARY KEY,
    name TEXT NOT NULL,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`
)

// NNNN_name.up.sql / NNNN_name.down.sql
var migrationName = regexp.MustCompile(`^(\d+)_(\w+)\.(up|down)\.sql$`)

var (
	errNoMigrations      = errors.New("no migration files found")
	errUnknownMigration  = errors.New("applied migration is missing from the embedded set")
	errIncompleteMigrate = errors.New("migration must have both up and down files")
)

// migration — пара скриптов одной версии схемы.
type migration struct {
	Version int64
	Name    string
	Up      string
	Down    string
}

func (m migration) String() string {
	return fmt.Sprintf("%04d_%s", m.Version, m.Name)
}

// migrationStep — скрипт, который нужно выполнить, и как отметить это в schema_migrations.
type migrationStep struct {
	migration migration
	revert    bool
}

func (s migrationStep) script() string {
	if s.revert {
		return s.migration.Down
	}
	return s.migration.Up
}

func (s migrationStep) String() string {
	if s.revert {
		return "revert " + s.migration.String()
	}
	return "apply " + s.migration.String()
}

// MigrateUp применяет недостающие миграции по возрастанию версии; steps=0 — все.
func (s *Store) MigrateUp(ctx context.Context, steps int) error {
	return s.runMigrations(ctx, false, steps)
}

// MigrateDown откатывает последние steps миграций; steps<=0 откатывает одну.
func (s *Store) MigrateDown(ctx context.Context, steps int) error {
	if steps <= 0 {
		steps = 1
	}
	return s.runMigrations(ctx, true, steps)
}

// MigrationStatus возвращает последнюю применённую версию и число применённых миграций.
func (s *Store) MigrationStatus(ctx context.Context) (int64, int, error) {
	if s == nil || s.db == nil {
		return 0, 0, errNotInitialized
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, schemaMigrationsDDL); err != nil {
		return 0, 0, fmt.Errorf("ensure schema_migrations: %w", err)
	}

	var (
		latest int64
		count  int
	)
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0), COUNT(*) FROM schema_migrations`).Scan(&latest, &count)
	if err != nil {
		return 0, 0, fmt.Errorf("read schema_migrations: %w", err)
	}
	return latest, count, nil
}

func (s *Store) runMigrations(ctx context.Context, down bool, steps int) error {
	if s == nil || s.db == nil {
		return errNotInitialized
	}

	available, err := readMigrations(migrationsFS)
	if err != nil {
		return err
	}

	// Блокировка сессионная, поэтому все запросы идут через одно соединение.
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire db connection: %w", err)
	}
	defer conn.Close()

	unlock, err := lockSchema(ctx, conn)
	if err != nil {
		return err
	}
	defer unlock()

	if _, err := conn.ExecContext(ctx, schemaMigrationsDDL); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}

	applied, err := appliedVersions(ctx, conn)
	if err != nil {
		return err
	}

	plan, err := planMigrations(available, applied, down, steps)
	if err != nil {
		return err
	}
	for _, step := range plan {
		if err := execStep(ctx, conn, step); err != nil {
			return err
		}
	}
	return nil
}

func lockSchema(ctx context.Context, conn *sql.Conn) (func(), error) {
	lockCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := conn.ExecContext(lockCtx, `SELECT pg_advisory_lock($1)`, crmSchemaLock); err != nil {
		return nil, fmt.Errorf("acquire migration lock: %w", err)
	}
	return func() {
		_, _ = conn.ExecContext(context.Background(), `SELECT pg_advisory_unlock($1)`, crmSchemaLock)
	}, nil
}

// planMigrations решает, какие скрипты выполнить и в каком порядке.
// available отсортирован по версии; applied — версии из schema_migrations в любом порядке.
func planMigrations(available []migration, applied []int64, down bool, steps int) ([]migrationStep, error) {
	done := make(map[int64]bool, len(applied))
	for _, v := range applied {
		done[v] = true
	}

	var plan []migrationStep
	if !down {
		for _, m := range available {
			if done[m.Version] {
				continue
			}
			plan = append(plan, migrationStep{migration: m})
			if steps > 0 && len(plan) == steps {
				break
			}
		}
		return plan, nil
	}

	byVersion := make(map[int64]migration, len(available))
	for _, m := range available {
		byVersion[m.Version] = m
	}
	newest := slices.Clone(applied)
	slices.Sort(newest)
	slices.Reverse(newest)

	for _, v := range newest {
		if steps > 0 && len(plan) == steps {
			break
		}
		m, ok := byVersion[v]
		if !ok {
			return nil, fmt.Errorf("revert version %d: %w", v, errUnknownMigration)
		}
		plan = append(plan, migrationStep{migration: m, revert: true})
	}
	return plan, nil
}

// execStep выполняет скрипт и отметку в schema_migrations одной транзакцией.
func execStep(ctx context.Context, conn *sql.Conn, step migrationStep) (err error) {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin: %w", step, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, step.script()); err != nil {
		return fmt.Errorf("%s: %w", step, err)
	}

	m := step.migration
	if step.revert {
		_, err = tx.ExecContext(ctx, `DELETE FROM schema_migrations WHERE version = $1`, m.Version)
	} else {
		_, err = tx.ExecContext(ctx, `INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`, m.Version, m.Name)
	}
	if err != nil {
		return fmt.Errorf("%s: record: %w", step, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", step, err)
	}
	return nil
}

func appliedVersions(ctx context.Context, conn *sql.Conn) ([]int64, error) {
	rows, err := conn.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("read schema_migrations: %w", err)
	}
	defer rows.Close()

	var versions []int64
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan schema_migrations: %w", err)
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// readMigrations собирает пары up/down из каталога миграций и сортирует их по версии.
func readMigrations(fsys fs.FS) ([]migration, error) {
	entries, err := fs.ReadDir(fsys, migrationsDir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", migrationsDir, err)
	}

	byVersion := make(map[int64]*migration)
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".sql" {
			continue
		}
		if err := addMigrationFile(fsys, byVersion, entry.Name()); err != nil {
			return nil, err
		}
	}
	if len(byVersion) == 0 {
		return nil, errNoMigrations
	}

	result := make([]migration, 0, len(byVersion))
	for _, m := range byVersion {
		if m.Up == "" || m.Down == "" {
			return nil, fmt.Errorf("%s: %w", m, errIncompleteMigrate)
		}
		result = append(result, *m)
	}
	slices.SortFunc(result, func(a, b migration) int {
		switch {
		case a.Version < b.Version:
			return -1
		case a.Version > b.Version:
			return 1
		}
		return 0
	})
	return result, nil
}

func addMigrationFile(fsys fs.FS, byVersion map[int64]*migration, file string) error {
	parts := migrationName.FindStringSubmatch(file)
	if parts == nil {
		return fmt.Errorf("invalid migration file name: %s", file)
	}
	version, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return fmt.Errorf("migration version in %s: %w", file, err)
	}
	name, direction := parts[2], parts[3]

	raw, err := fs.ReadFile(fsys, path.Join(migrationsDir, file))
	if err != nil {
		return fmt.Errorf("read %s: %w", file, err)
	}
	script := strings.TrimSpace(string(raw))
	if script == "" {
		return fmt.Errorf("migration file is empty: %s", file)
	}

	m, ok := byVersion[version]
	if !ok {
		m = &migration{Version: version, Name: name}
		byVersion[version] = m
	}
	if m.Name != name {
		return fmt.Errorf("version %d has two names: %s and %s", version, m.Name, name)
	}

	target := &m.Up
	if direction == "down" {
		target = &m.Down
	}
	if *target != "" {
		return fmt.Errorf("duplicate %s script for %s", direction, m)
	}
	*target = script
	return nil
}
