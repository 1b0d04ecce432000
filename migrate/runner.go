package migrate

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// Record is one row of the `_migrations` table (spec.md §6): a migration
// name is recorded at most once, and the largest batch number marks the
// most recent forward step.
type Record struct {
	Name       string
	Batch      int
	ExecutedAt time.Time
	CreatedAt  *time.Time
}

// RecordStore persists and queries migration records. PostgresRecordStore
// is the relational implementation; the document engine's equivalent
// collection satisfies the same interface from the driverdoc package.
type RecordStore interface {
	EnsureTable(ctx context.Context) error
	List(ctx context.Context) ([]Record, error)
	Insert(ctx context.Context, rec Record) error
	Delete(ctx context.Context, name string) error
}

// PostgresRecordStore stores records in a plain table via Executor,
// reusing the same migrations-table shape EnsureMigrationsTable creates.
type PostgresRecordStore struct {
	Exec  Executor
	Table string
}

// NewPostgresRecordStore returns a store backed by exec's table (created
// ahead of time by MigrationDriver.EnsureMigrationsTable).
func NewPostgresRecordStore(exec Executor, table string) *PostgresRecordStore {
	if table == "" {
		table = "_migrations"
	}
	return &PostgresRecordStore{Exec: exec, Table: table}
}

func (s *PostgresRecordStore) EnsureTable(ctx context.Context) error {
	return nil // MigrationDriver.EnsureMigrationsTable handles DDL; this store only reads/writes rows.
}

func (s *PostgresRecordStore) List(ctx context.Context) ([]Record, error) {
	rows, err := s.Exec.Query(ctx, fmt.Sprintf(`SELECT name, batch, "executedAt", "createdAt" FROM %q ORDER BY batch, name`, s.Table))
	if err != nil {
		return nil, wrapMigrationErr(err, "listRecords")
	}
	out := make([]Record, 0, len(rows))
	for _, r := range rows {
		rec := Record{Name: asString(r["name"])}
		if b, ok := r["batch"].(int64); ok {
			rec.Batch = int(b)
		} else if b, ok := r["batch"].(int); ok {
			rec.Batch = b
		}
		if t, ok := r["executedAt"].(time.Time); ok {
			rec.ExecutedAt = t
		}
		if t, ok := r["createdAt"].(time.Time); ok {
			rec.CreatedAt = &t
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *PostgresRecordStore) Insert(ctx context.Context, rec Record) error {
	sqlText := fmt.Sprintf(`INSERT INTO %q (name, batch, "executedAt") VALUES ('%s', %d, NOW())`,
		s.Table, escapeLiteral(rec.Name), rec.Batch)
	return wrapMigrationErr(s.Exec.Exec(ctx, sqlText), "insertRecord")
}

func (s *PostgresRecordStore) Delete(ctx context.Context, name string) error {
	sqlText := fmt.Sprintf(`DELETE FROM %q WHERE name = '%s'`, s.Table, escapeLiteral(name))
	return wrapMigrationErr(s.Exec.Exec(ctx, sqlText), "deleteRecord")
}

// RunResult is one migration's outcome within a batch (spec.md §4.7).
type RunResult struct {
	Name        string
	Table       string
	Direction   string // "up" or "down"
	Success     bool
	Error       error
	DurationMs  int64
	ExecutedAt  time.Time
}

// Runner orchestrates forward and backward schema evolution across a set
// of registered Migratables (spec.md §4.7).
type Runner struct {
	driver    MigrationDriver
	blueprint Blueprint
	records   RecordStore

	registered map[string]Migratable
	order      []string // registration order, for stable iteration
}

// NewRunner binds a Runner to one engine's driver/blueprint/record store.
func NewRunner(driver MigrationDriver, bp Blueprint, records RecordStore) *Runner {
	return &Runner{driver: driver, blueprint: bp, records: records, registered: map[string]Migratable{}}
}

func (r *Runner) Register(m Migratable) error {
	if _, exists := r.registered[m.Name()]; exists {
		return wrapMigrationErr(fmt.Errorf("migration %q is already registered", m.Name()), "register")
	}
	r.registered[m.Name()] = m
	r.order = append(r.order, m.Name())
	return nil
}

func (r *Runner) RegisterMany(ms []Migratable) error {
	for _, m := range ms {
		if err := r.Register(m); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) Clear() {
	r.registered = map[string]Migratable{}
	r.order = nil
}

func (r *Runner) RegisteredNames() []string {
	out := append([]string(nil), r.order...)
	return out
}

func (r *Runner) newDSL(m Migratable) *Migration {
	return NewMigration(r.driver, r.blueprint, m.Table(), m.DataSource())
}

// Run executes a single migration's Up(), then flushes its queue. record
// defaults to false: single run/rollback calls don't touch the migrations
// table unless asked (spec.md §4.7 "Recording policy").
func (r *Runner) Run(ctx context.Context, m Migratable, dryRun, record bool) RunResult {
	return r.runOne(ctx, m, "up", dryRun, record, 0)
}

func (r *Runner) Rollback(ctx context.Context, m Migratable, dryRun, record bool) RunResult {
	return r.runOne(ctx, m, "down", dryRun, record, 0)
}

func (r *Runner) runOne(ctx context.Context, m Migratable, direction string, dryRun, record bool, batch int) RunResult {
	start := time.Now()
	res := RunResult{Name: m.Name(), Table: m.Table(), Direction: direction, ExecutedAt: start}

	if dryRun {
		res.Success = true
		res.DurationMs = time.Since(start).Milliseconds()
		return res
	}

	dsl := r.newDSL(m)
	var hookErr error
	if direction == "up" {
		hookErr = m.Up(dsl)
	} else {
		hookErr = m.Down(dsl)
	}
	if hookErr == nil {
		hookErr = dsl.Execute(ctx)
	}
	if hookErr != nil {
		res.Error = wrapMigrationErr(hookErr, "run:"+m.Name())
		res.DurationMs = time.Since(start).Milliseconds()
		return res
	}

	if record {
		var recErr error
		if direction == "up" {
			recErr = r.records.Insert(ctx, Record{Name: m.Name(), Batch: batch, ExecutedAt: time.Now()})
		} else {
			recErr = r.records.Delete(ctx, m.Name())
		}
		if recErr != nil {
			res.Error = wrapMigrationErr(recErr, "record:"+m.Name())
			res.DurationMs = time.Since(start).Milliseconds()
			return res
		}
	}

	res.Success = true
	res.DurationMs = time.Since(start).Milliseconds()
	return res
}

// RunAll computes pending = registered minus recorded, sorts by
// (createdAt ?? +inf, name), runs each in the next batch number, and stops
// at the first failure (spec.md §4.7).
func (r *Runner) RunAll(ctx context.Context, dryRun bool) ([]RunResult, error) {
	recorded, err := r.records.List(ctx)
	if err != nil {
		return nil, err
	}
	done := map[string]bool{}
	maxBatch := 0
	for _, rec := range recorded {
		done[rec.Name] = true
		if rec.Batch > maxBatch {
			maxBatch = rec.Batch
		}
	}

	pending := make([]Migratable, 0)
	for _, name := range r.order {
		if !done[name] {
			pending = append(pending, r.registered[name])
		}
	}
	sort.SliceStable(pending, func(i, j int) bool {
		ci, cj := pending[i].CreatedAt(), pending[j].CreatedAt()
		if ci == cj {
			return pending[i].Name() < pending[j].Name()
		}
		if ci == "" {
			return false
		}
		if cj == "" {
			return true
		}
		return ci < cj
	})

	batch := maxBatch + 1
	results := make([]RunResult, 0, len(pending))
	for _, m := range pending {
		res := r.runOne(ctx, m, "up", dryRun, true, batch)
		results = append(results, res)
		if !res.Success {
			break
		}
	}
	return results, nil
}

// rollbackSet runs down() in reverse registration order for every recorded
// migration whose batch is in batches, removing its record on success.
func (r *Runner) rollbackSet(ctx context.Context, dryRun bool, batches map[int]bool) ([]RunResult, error) {
	recorded, err := r.records.List(ctx)
	if err != nil {
		return nil, err
	}
	byName := map[string]Record{}
	for _, rec := range recorded {
		if batches == nil || batches[rec.Batch] {
			byName[rec.Name] = rec
		}
	}
	var targets []Migratable
	for i := len(r.order) - 1; i >= 0; i-- {
		name := r.order[i]
		if _, ok := byName[name]; ok {
			targets = append(targets, r.registered[name])
		}
	}

	results := make([]RunResult, 0, len(targets))
	for _, m := range targets {
		res := r.runOne(ctx, m, "down", dryRun, true, 0)
		results = append(results, res)
		if !res.Success {
			break
		}
	}
	return results, nil
}

// RollbackLast reverses every migration in the most recent batch.
func (r *Runner) RollbackLast(ctx context.Context, dryRun bool) ([]RunResult, error) {
	recorded, err := r.records.List(ctx)
	if err != nil {
		return nil, err
	}
	maxBatch := 0
	for _, rec := range recorded {
		if rec.Batch > maxBatch {
			maxBatch = rec.Batch
		}
	}
	if maxBatch == 0 {
		return nil, nil
	}
	return r.rollbackSet(ctx, dryRun, map[int]bool{maxBatch: true})
}

// RollbackBatches reverses the last n batches.
func (r *Runner) RollbackBatches(ctx context.Context, n int, dryRun bool) ([]RunResult, error) {
	recorded, err := r.records.List(ctx)
	if err != nil {
		return nil, err
	}
	batchSet := map[int]bool{}
	for _, rec := range recorded {
		batchSet[rec.Batch] = true
	}
	var batches []int
	for b := range batchSet {
		batches = append(batches, b)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(batches)))
	if n > len(batches) {
		n = len(batches)
	}
	selected := map[int]bool{}
	for _, b := range batches[:n] {
		selected[b] = true
	}
	return r.rollbackSet(ctx, dryRun, selected)
}

// RollbackAll reverses every recorded migration.
func (r *Runner) RollbackAll(ctx context.Context, dryRun bool) ([]RunResult, error) {
	return r.rollbackSet(ctx, dryRun, nil)
}

// Fresh is RollbackAll then RunAll.
func (r *Runner) Fresh(ctx context.Context) ([]RunResult, error) {
	if _, err := r.RollbackAll(ctx, false); err != nil {
		return nil, err
	}
	return r.RunAll(ctx, false)
}

// StatusEntry joins a registered migration with its recorded state.
type StatusEntry struct {
	Name     string
	Table    string
	Recorded bool
	Batch    int
}

// Status reports every registered migration joined with its recorded row,
// if any.
func (r *Runner) Status(ctx context.Context) ([]StatusEntry, error) {
	recorded, err := r.records.List(ctx)
	if err != nil {
		return nil, err
	}
	byName := map[string]Record{}
	for _, rec := range recorded {
		byName[rec.Name] = rec
	}
	out := make([]StatusEntry, 0, len(r.order))
	for _, name := range r.order {
		m := r.registered[name]
		entry := StatusEntry{Name: name, Table: m.Table()}
		if rec, ok := byName[name]; ok {
			entry.Recorded = true
			entry.Batch = rec.Batch
		}
		out = append(out, entry)
	}
	return out, nil
}
