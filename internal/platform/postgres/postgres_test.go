package postgres_test

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"testing"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"

	"github.com/trellisdata/trellis/internal/domain"
	"github.com/trellisdata/trellis/migrations"
)

var migrateOnce sync.Once

// testDB opens the integration test database named by DATABASE_URL and
// ensures the schema is current. Tests are skipped when the variable is
// unset, so the unit suite stays runnable without infrastructure.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("Skipping integration test - requires DATABASE_URL environment variable")
	}

	db, err := sql.Open("pgx", url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	migrateOnce.Do(func() {
		goose.SetBaseFS(migrations.FS)
		require.NoError(t, goose.SetDialect("postgres"))
		require.NoError(t, goose.Up(db, "."))
	})

	return db
}

// resetTables empties every queue table so each test starts clean.
// Integration tests in this package therefore must not run in parallel.
func resetTables(t *testing.T, db *sql.DB) {
	t.Helper()
	_, err := db.ExecContext(context.Background(), `
		TRUNCATE error_log, result_payloads, progress_records,
		         task_instances, task_definitions, occupations, regions
		RESTART IDENTITY CASCADE
	`)
	require.NoError(t, err)
}

// seedEntities inserts n occupations and one region, returning their IDs.
func seedEntities(t *testing.T, db *sql.DB, n int) (occupationIDs []int64, regionID int64) {
	t.Helper()
	ctx := context.Background()

	err := db.QueryRowContext(ctx,
		`INSERT INTO regions (code, name) VALUES ('DE-BY', 'Bavaria') RETURNING id`,
	).Scan(&regionID)
	require.NoError(t, err)

	for i := 0; i < n; i++ {
		var id int64
		err := db.QueryRowContext(ctx,
			`INSERT INTO occupations (code, name, attributes)
			 VALUES ($1, $2, '{"skill_level": "3"}'::jsonb) RETURNING id`,
			fmt.Sprintf("occ-%d", i), fmt.Sprintf("Occupation %d", i),
		).Scan(&id)
		require.NoError(t, err)
		occupationIDs = append(occupationIDs, id)
	}
	return occupationIDs, regionID
}

// seedDefinition publishes one minimal task definition.
func seedDefinition(t *testing.T, db *sql.DB, taskID string) {
	t.Helper()
	_, err := db.ExecContext(context.Background(),
		`INSERT INTO task_definitions (id, input_template, output_fields)
		 VALUES ($1, 'Analyze {{occupation_name}}.', '["summary"]'::jsonb)`,
		taskID)
	require.NoError(t, err)
}

// seedInstance creates one pending instance and returns its ID.
func seedInstance(t *testing.T, db *sql.DB, key domain.InstanceKey, priority int) int64 {
	t.Helper()
	var id int64
	err := db.QueryRowContext(context.Background(),
		`INSERT INTO task_instances (occupation_id, region_id, task_id, priority)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		key.OccupationID, key.RegionID, key.TaskID, priority,
	).Scan(&id)
	require.NoError(t, err)
	return id
}
