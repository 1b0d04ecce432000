package migrate_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warlockjs/cascade/dialect"
	"github.com/warlockjs/cascade/migrate"
)

// memoryRecordStore is an in-memory migrate.RecordStore, standing in for
// PostgresRecordStore so Runner can be exercised without a database.
type memoryRecordStore struct {
	records []migrate.Record
}

func (s *memoryRecordStore) EnsureTable(ctx context.Context) error { return nil }

func (s *memoryRecordStore) List(ctx context.Context) ([]migrate.Record, error) {
	out := make([]migrate.Record, len(s.records))
	copy(out, s.records)
	return out, nil
}

func (s *memoryRecordStore) Insert(ctx context.Context, rec migrate.Record) error {
	s.records = append(s.records, rec)
	return nil
}

func (s *memoryRecordStore) Delete(ctx context.Context, name string) error {
	for i, r := range s.records {
		if r.Name == name {
			s.records = append(s.records[:i], s.records[i+1:]...)
			return nil
		}
	}
	return nil
}

// namedMigration is a minimal migrate.Migratable used to drive Runner tests.
type namedMigration struct {
	name      string
	table     string
	createdAt string
	up        func(m *migrate.Migration) error
	down      func(m *migrate.Migration) error
}

func (m *namedMigration) Name() string         { return m.name }
func (m *namedMigration) Table() string        { return m.table }
func (m *namedMigration) DataSource() string   { return "" }
func (m *namedMigration) CreatedAt() string    { return m.createdAt }
func (m *namedMigration) Transactional() bool  { return false }
func (m *namedMigration) Up(mig *migrate.Migration) error {
	if m.up == nil {
		return nil
	}
	return m.up(mig)
}
func (m *namedMigration) Down(mig *migrate.Migration) error {
	if m.down == nil {
		return nil
	}
	return m.down(mig)
}

func newRunner() (*migrate.Runner, *fakeExecutor, *memoryRecordStore) {
	exec := &fakeExecutor{}
	driver := migrate.NewPostgresMigrationDriver(dialect.NewPostgres(), exec)
	bp := migrate.NewPostgresBlueprint(exec)
	records := &memoryRecordStore{}
	return migrate.NewRunner(driver, bp, records), exec, records
}

func TestRunAllRecordsOneRowPerMigrationInOneBatch(t *testing.T) {
	runner, _, records := newRunner()

	createUsers := &namedMigration{
		name: "001_create_users", table: "users", createdAt: "2024-01-01T00:00:00Z",
		up: func(m *migrate.Migration) error {
			m.CreateTableIfNotExists(func(t *migrate.TableBuilder) {
				t.Column("id", dialect.Integer).AutoIncrement()
			})
			return nil
		},
	}
	createPosts := &namedMigration{
		name: "002_create_posts", table: "posts", createdAt: "2024-01-02T00:00:00Z",
		up: func(m *migrate.Migration) error {
			m.CreateTableIfNotExists(func(t *migrate.TableBuilder) {
				t.Column("id", dialect.Integer).AutoIncrement()
			})
			return nil
		},
	}
	require.NoError(t, runner.RegisterMany([]migrate.Migratable{createUsers, createPosts}))

	results, err := runner.RunAll(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.True(t, r.Success)
	}

	recorded, err := records.List(context.Background())
	require.NoError(t, err)
	require.Len(t, recorded, 2)
	assert.Equal(t, 1, recorded[0].Batch)
	assert.Equal(t, 1, recorded[1].Batch)
}

func TestRunAllSkipsAlreadyRecordedMigrations(t *testing.T) {
	runner, _, records := newRunner()
	m1 := &namedMigration{name: "001_create_users", table: "users", createdAt: "2024-01-01T00:00:00Z"}
	require.NoError(t, runner.Register(m1))
	require.NoError(t, records.Insert(context.Background(), migrate.Record{Name: "001_create_users", Batch: 1}))

	results, err := runner.RunAll(context.Background(), false)
	require.NoError(t, err)
	assert.Empty(t, results, "an already-recorded migration must not re-run")
}

func TestRunAllAssignsIncreasingBatchNumbers(t *testing.T) {
	runner, _, records := newRunner()
	first := &namedMigration{name: "001_create_users", table: "users", createdAt: "2024-01-01T00:00:00Z"}
	require.NoError(t, runner.Register(first))
	_, err := runner.RunAll(context.Background(), false)
	require.NoError(t, err)

	second := &namedMigration{name: "002_create_posts", table: "posts", createdAt: "2024-01-02T00:00:00Z"}
	require.NoError(t, runner.Register(second))
	_, err = runner.RunAll(context.Background(), false)
	require.NoError(t, err)

	recorded, err := records.List(context.Background())
	require.NoError(t, err)
	require.Len(t, recorded, 2)
	assert.Equal(t, 1, recorded[0].Batch)
	assert.Equal(t, 2, recorded[1].Batch)
}

func TestRollbackLastRemovesOnlyTheMostRecentBatch(t *testing.T) {
	runner, _, records := newRunner()
	m1 := &namedMigration{name: "001_create_users", table: "users", createdAt: "2024-01-01T00:00:00Z"}
	m2 := &namedMigration{name: "002_create_posts", table: "posts", createdAt: "2024-01-02T00:00:00Z"}
	require.NoError(t, runner.RegisterMany([]migrate.Migratable{m1, m2}))
	_, err := runner.RunAll(context.Background(), false)
	require.NoError(t, err)

	m3 := &namedMigration{name: "003_create_comments", table: "comments", createdAt: "2024-01-03T00:00:00Z"}
	require.NoError(t, runner.Register(m3))
	_, err = runner.RunAll(context.Background(), false)
	require.NoError(t, err)

	results, err := runner.RollbackLast(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "003_create_comments", results[0].Name)

	recorded, err := records.List(context.Background())
	require.NoError(t, err)
	require.Len(t, recorded, 2)
}

func TestRunAllStopsAtFirstFailure(t *testing.T) {
	runner, _, records := newRunner()
	ok := &namedMigration{name: "001_create_users", table: "users", createdAt: "2024-01-01T00:00:00Z"}
	fails := &namedMigration{
		name: "002_broken", table: "broken", createdAt: "2024-01-02T00:00:00Z",
		up: func(m *migrate.Migration) error { return assert.AnError },
	}
	after := &namedMigration{name: "003_create_posts", table: "posts", createdAt: "2024-01-03T00:00:00Z"}
	require.NoError(t, runner.RegisterMany([]migrate.Migratable{ok, fails, after}))

	results, err := runner.RunAll(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, results, 2, "run must stop before the third migration")
	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)

	recorded, err := records.List(context.Background())
	require.NoError(t, err)
	require.Len(t, recorded, 1, "only the successful migration is recorded")
}
