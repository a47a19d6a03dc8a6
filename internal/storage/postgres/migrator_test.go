package postgres

import (
	"errors"
	"strings"
	"testing"
	"testing/fstest"
)

func migrationFiles(files map[string]string) fstest.MapFS {
	fsys := fstest.MapFS{}
	for name, body := range files {
		fsys["sql/migrations/"+name] = &fstest.MapFile{Data: []byte(body)}
	}
	return fsys
}

func TestReadMigrations_PairsAndSorts(t *testing.T) {
	t.Parallel()

	fsys := migrationFiles(map[string]string{
		"0002_orders.up.sql":      "CREATE TABLE orders (id TEXT);",
		"0002_orders.down.sql":    "DROP TABLE orders;",
		"0001_customers.up.sql":   "CREATE TABLE customers (id TEXT);",
		"0001_customers.down.sql": "DROP TABLE customers;",
		"README.md":               "ignored",
	})

	got, err := readMigrations(fsys)
	if err != nil {
		t.Fatalf("readMigrations: %v", err)
	}
	if len(got) != 2 || got[0].String() != "0001_customers" || got[1].String() != "0002_orders" {
		t.Fatalf("unexpected migrations: %+v", got)
	}
	if got[1].Down != "DROP TABLE orders;" {
		t.Fatalf("down script not attached: %+v", got[1])
	}
}

func TestReadMigrations_Rejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		files map[string]string
		want  string
	}{
		{
			name:  "missing down",
			files: map[string]string{"0001_init.up.sql": "SELECT 1;"},
			want:  "both up and down",
		},
		{
			name:  "bad file name",
			files: map[string]string{"init.sql": "SELECT 1;"},
			want:  "invalid migration file name",
		},
		{
			name:  "blank script",
			files: map[string]string{"0001_init.up.sql": " \n", "0001_init.down.sql": "SELECT 1;"},
			want:  "empty",
		},
		{
			name:  "two names for one version",
			files: map[string]string{"0001_a.up.sql": "SELECT 1;", "0001_b.down.sql": "SELECT 1;"},
			want:  "two names",
		},
		{
			name:  "no sql files",
			files: map[string]string{"notes.txt": "nothing"},
			want:  "no migration files",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := readMigrations(migrationFiles(tt.files))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestReadMigrations_EmbeddedSchema(t *testing.T) {
	t.Parallel()

	got, err := readMigrations(migrationsFS)
	if err != nil {
		t.Fatalf("read embedded migrations: %v", err)
	}
	if len(got) == 0 || got[0].Name != "crm_init" {
		t.Fatalf("unexpected embedded migrations: %+v", got)
	}
	for _, table := range []string{"customers", "products", "orders", "order_products", "outbox_messages"} {
		if !strings.Contains(got[0].Up, table) {
			t.Fatalf("init migration does not create %s", table)
		}
		if !strings.Contains(got[0].Down, table) {
			t.Fatalf("init rollback does not drop %s", table)
		}
	}
}

func planNames(plan []migrationStep) []string {
	names := make([]string, 0, len(plan))
	for _, step := range plan {
		names = append(names, step.String())
	}
	return names
}

func TestPlanMigrations(t *testing.T) {
	t.Parallel()

	available := []migration{
		{Version: 1, Name: "init", Up: "u1", Down: "d1"},
		{Version: 2, Name: "orders", Up: "u2", Down: "d2"},
		{Version: 3, Name: "outbox", Up: "u3", Down: "d3"},
	}

	tests := []struct {
		name    string
		applied []int64
		down    bool
		steps   int
		want    []string
	}{
		{name: "fresh database, all", want: []string{"apply 0001_init", "apply 0002_orders", "apply 0003_outbox"}},
		{name: "fresh database, one step", steps: 1, want: []string{"apply 0001_init"}},
		{name: "fills gaps", applied: []int64{2}, want: []string{"apply 0001_init", "apply 0003_outbox"}},
		{name: "up to date", applied: []int64{3, 1, 2}, want: []string{}},
		{name: "revert newest first", applied: []int64{1, 3, 2}, down: true, steps: 2, want: []string{"revert 0003_outbox", "revert 0002_orders"}},
		{name: "revert more than applied", applied: []int64{1}, down: true, steps: 5, want: []string{"revert 0001_init"}},
		{name: "revert on empty", down: true, steps: 1, want: []string{}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			plan, err := planMigrations(available, tt.applied, tt.down, tt.steps)
			if err != nil {
				t.Fatalf("planMigrations: %v", err)
			}
			got := planNames(plan)
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Fatalf("plan mismatch:\n got: %v\nwant: %v", got, tt.want)
			}
		})
	}
}

func TestPlanMigrations_RevertUnknownVersion(t *testing.T) {
	t.Parallel()

	available := []migration{{Version: 1, Name: "init", Up: "u1", Down: "d1"}}
	_, err := planMigrations(available, []int64{1, 7}, true, 1)
	if !errors.Is(err, errUnknownMigration) {
		t.Fatalf("expected errUnknownMigration, got %v", err)
	}
}

func TestPlanMigrations_StepScripts(t *testing.T) {
	t.Parallel()

	m := migration{Version: 4, Name: "x", Up: "up-sql", Down: "down-sql"}
	if got := (migrationStep{migration: m}).script(); got != "up-sql" {
		t.Fatalf("apply step script = %q", got)
	}
	if got := (migrationStep{migration: m, revert: true}).script(); got != "down-sql" {
		t.Fatalf("revert step script = %q", got)
	}
}
