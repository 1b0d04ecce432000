package driverpg

import (
	"context"
	"database/sql"
	"time"

	"github.com/warlockjs/cascade"
	"github.com/warlockjs/cascade/query"
)

// Query implements query.SQLExecutor: run sqlText/params through the
// ambient transaction if one is active, otherwise the pool, scanning every
// row into a query.Row (spec.md §4.8 "query(sql, params) consults the
// ambient transaction context").
func (d *Driver) Query(ctx context.Context, sqlText string, params []any) ([]query.Row, error) {
	link, err := d.link(ctx)
	if err != nil {
		return nil, err
	}

	ctx, end := cascade.StartDriverSpan(ctx, "query", cascade.SQLSpanAttrs(sqlText, len(params), "")...)
	start := time.Now()
	rows, err := link.QueryContext(ctx, sqlText, params...)
	duration := time.Since(start)
	end(err)

	if d.logger != nil {
		d.logger.Debug("cascade.query", "sql", sqlText, "params", params, "duration_ms", duration.Milliseconds())
	}
	if err != nil {
		return nil, cascade.QueryError(err, sqlText, params)
	}
	defer rows.Close()
	return scanRows(rows)
}

// Exec implements query.SQLExecutor: run sqlText/params for its side
// effect, returning the number of affected rows. In DryRun mode the
// statement is logged but never executed, per the teacher's
// ConfigNode.DryRun ("if !c.DB.GetDryRun() { ... } else { result = new(SqlResult) }").
func (d *Driver) Exec(ctx context.Context, sqlText string, params []any) (int64, error) {
	link, err := d.link(ctx)
	if err != nil {
		return 0, err
	}

	ctx, end := cascade.StartDriverSpan(ctx, "exec", cascade.SQLSpanAttrs(sqlText, len(params), "")...)
	defer func() { end(err) }()

	start := time.Now()
	if d.cfg.DryRun {
		if d.logger != nil {
			d.logger.Info("cascade.exec.dryrun", "sql", sqlText, "params", params)
		}
		return 0, nil
	}

	var result sql.Result
	result, err = link.ExecContext(ctx, sqlText, params...)
	duration := time.Since(start)
	if d.logger != nil {
		d.logger.Debug("cascade.exec", "sql", sqlText, "params", params, "duration_ms", duration.Milliseconds())
	}
	if err != nil {
		return 0, cascade.QueryError(err, sqlText, params)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, cascade.QueryError(err, sqlText, params)
	}
	return affected, nil
}

// scanRows converts *sql.Rows into query.Row maps, keyed by column name,
// mirroring the teacher's convertRowsToResult column-type walk.
func scanRows(rows *sql.Rows) ([]query.Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	out := make([]query.Row, 0)
	values := make([]any, len(cols))
	scanArgs := make([]any, len(cols))
	for i := range values {
		scanArgs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(scanArgs...); err != nil {
			return out, err
		}
		row := make(query.Row, len(cols))
		for i, name := range cols {
			row[name] = normalizeScanned(values[i])
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// normalizeScanned unwraps the []byte the driver returns for text-ish
// columns (jsonb, varchar, uuid) into a plain string, leaving every other
// scanned value as-is.
func normalizeScanned(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
