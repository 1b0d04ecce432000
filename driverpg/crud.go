package driverpg

import (
	"fmt"
	"sort"
	"strings"

	"context"

	"github.com/warlockjs/cascade"
)

func (d *Driver) quote(name string) string { return d.dialect.QuoteIdentifier(name) }

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Insert drops an "id" key whose value is nil so an identity column
// auto-generates, then emits "INSERT ... RETURNING *" (spec.md §4.8).
func (d *Driver) Insert(ctx context.Context, table string, doc map[string]any) (map[string]any, error) {
	clean := make(map[string]any, len(doc))
	for k, v := range doc {
		if k == "id" && v == nil {
			continue
		}
		clean[k] = v
	}
	keys := sortedKeys(clean)
	cols := make([]string, len(keys))
	placeholders := make([]string, len(keys))
	params := make([]any, len(keys))
	for i, k := range keys {
		cols[i] = d.quote(k)
		placeholders[i] = d.dialect.Placeholder(i + 1)
		params[i] = clean[k]
	}

	sqlText := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING *",
		d.quote(table), strings.Join(cols, ", "), strings.Join(placeholders, ", "))
	if len(keys) == 0 {
		sqlText = fmt.Sprintf("INSERT INTO %s DEFAULT VALUES RETURNING *", d.quote(table))
	}

	rows, err := d.Query(ctx, sqlText, params)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return map[string]any(rows[0]), nil
}

// InsertMany computes the union of keys across docs and emits a single
// INSERT with one tuple per document, substituting DEFAULT for any key a
// given document doesn't carry (spec.md §4.8).
func (d *Driver) InsertMany(ctx context.Context, table string, docs []map[string]any) ([]map[string]any, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	union := map[string]bool{}
	for _, doc := range docs {
		for k, v := range doc {
			if k == "id" && v == nil {
				continue
			}
			union[k] = true
		}
	}
	keys := make([]string, 0, len(union))
	for k := range union {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	cols := make([]string, len(keys))
	for i, k := range keys {
		cols[i] = d.quote(k)
	}

	var params []any
	tuples := make([]string, len(docs))
	for r, doc := range docs {
		placeholders := make([]string, len(keys))
		for c, k := range keys {
			v, ok := doc[k]
			if !ok || (k == "id" && v == nil) {
				placeholders[c] = "DEFAULT"
				continue
			}
			params = append(params, v)
			placeholders[c] = d.dialect.Placeholder(len(params))
		}
		tuples[r] = "(" + strings.Join(placeholders, ", ") + ")"
	}

	sqlText := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s RETURNING *",
		d.quote(table), strings.Join(cols, ", "), strings.Join(tuples, ", "))
	rows, err := d.Query(ctx, sqlText, params)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]any, len(rows))
	for i, r := range rows {
		out[i] = map[string]any(r)
	}
	return out, nil
}

// translateUpdateDoc turns a Mongo-shaped update map ({"$set":{...},
// "$inc":{...}, "$unset":{...}}) into SQL assignment fragments, the
// relational-engine translation spec.md §4.8 specifies: "$set → col = $k;
// $unset → col = NULL; $inc → col = COALESCE(col,0) + $k; $dec → col =
// COALESCE(col,0) - $k". $push/$pull have no relational-engine mapping in
// this implementation and are silently dropped, per spec.md's "behavior is
// implementation-defined" note for JSONB emulation.
func (d *Driver) translateUpdateDoc(update map[string]any, params *[]any) ([]string, error) {
	var assignments []string

	addParam := func(v any) string {
		*params = append(*params, v)
		return d.dialect.Placeholder(len(*params))
	}

	if set, ok := update["$set"].(map[string]any); ok {
		for _, k := range sortedKeys(set) {
			assignments = append(assignments, fmt.Sprintf("%s = %s", d.quote(k), addParam(set[k])))
		}
	}
	if unset, ok := update["$unset"].(map[string]any); ok {
		for _, k := range sortedKeys(unset) {
			assignments = append(assignments, fmt.Sprintf("%s = NULL", d.quote(k)))
		}
	}
	if inc, ok := update["$inc"].(map[string]any); ok {
		for _, k := range sortedKeys(inc) {
			col := d.quote(k)
			assignments = append(assignments, fmt.Sprintf("%s = COALESCE(%s,0) + %s", col, col, addParam(inc[k])))
		}
	}
	if dec, ok := update["$dec"].(map[string]any); ok {
		for _, k := range sortedKeys(dec) {
			col := d.quote(k)
			assignments = append(assignments, fmt.Sprintf("%s = COALESCE(%s,0) - %s", col, col, addParam(dec[k])))
		}
	}
	if len(assignments) == 0 {
		return nil, cascade.QueryError(fmt.Errorf("update document carries no $set/$unset/$inc/$dec operators"), "", nil)
	}
	return assignments, nil
}

// renderFilter renders an equality-only filter map as a WHERE clause,
// appending bound values to params in key-sorted order. Driver.Update/
// Delete filters are always simple equality maps keyed by column name
// (the model layer's primary-key scoping and the query.Builder's own
// filter translation live one layer up).
func (d *Driver) renderFilter(filter map[string]any, params *[]any) string {
	if len(filter) == 0 {
		return ""
	}
	keys := sortedKeys(filter)
	clauses := make([]string, len(keys))
	for i, k := range keys {
		*params = append(*params, filter[k])
		clauses[i] = fmt.Sprintf("%s = %s", d.quote(k), d.dialect.Placeholder(len(*params)))
	}
	return " WHERE " + strings.Join(clauses, " AND ")
}

func (d *Driver) UpdateMany(ctx context.Context, table string, filter, update map[string]any) (int64, error) {
	var params []any
	assignments, err := d.translateUpdateDoc(update, &params)
	if err != nil {
		return 0, err
	}
	where := d.renderFilter(filter, &params)
	sqlText := fmt.Sprintf("UPDATE %s SET %s%s", d.quote(table), strings.Join(assignments, ", "), where)
	return d.Exec(ctx, sqlText, params)
}

// Update affects at most one row, scoping the statement with a ctid
// subquery so exactly one matching row is touched even if filter matches
// several (spec.md §4.8 "Single-row update/delete use ctid IN (SELECT
// ctid ... LIMIT 1)").
func (d *Driver) Update(ctx context.Context, table string, filter, update map[string]any) (int64, error) {
	var params []any
	assignments, err := d.translateUpdateDoc(update, &params)
	if err != nil {
		return 0, err
	}
	where := d.renderFilter(filter, &params)
	sqlText := fmt.Sprintf(
		"UPDATE %s SET %s WHERE ctid IN (SELECT ctid FROM %s%s LIMIT 1)",
		d.quote(table), strings.Join(assignments, ", "), d.quote(table), where)
	return d.Exec(ctx, sqlText, params)
}

func (d *Driver) DeleteMany(ctx context.Context, table string, filter map[string]any) (int64, error) {
	var params []any
	where := d.renderFilter(filter, &params)
	sqlText := fmt.Sprintf("DELETE FROM %s%s", d.quote(table), where)
	return d.Exec(ctx, sqlText, params)
}

func (d *Driver) Delete(ctx context.Context, table string, filter map[string]any) (int64, error) {
	var params []any
	where := d.renderFilter(filter, &params)
	sqlText := fmt.Sprintf(
		"DELETE FROM %s WHERE ctid IN (SELECT ctid FROM %s%s LIMIT 1)",
		d.quote(table), d.quote(table), where)
	return d.Exec(ctx, sqlText, params)
}

// Upsert inserts doc, or updates the row matched by filter if one already
// exists with a conflicting unique key. Implemented as a plain
// exists-check plus Insert/Update rather than native ON CONFLICT, since
// the neutral filter has no guaranteed relationship to a specific unique
// constraint name.
func (d *Driver) Upsert(ctx context.Context, table string, filter, doc map[string]any) (map[string]any, error) {
	var params []any
	where := d.renderFilter(filter, &params)
	existing, err := d.Query(ctx, fmt.Sprintf("SELECT * FROM %s%s LIMIT 1", d.quote(table), where), params)
	if err != nil {
		return nil, err
	}
	if len(existing) == 0 {
		merged := make(map[string]any, len(filter)+len(doc))
		for k, v := range filter {
			merged[k] = v
		}
		for k, v := range doc {
			merged[k] = v
		}
		return d.Insert(ctx, table, merged)
	}

	setDoc := map[string]any{"$set": doc}
	var updateParams []any
	assignments, err := d.translateUpdateDoc(setDoc, &updateParams)
	if err != nil {
		return nil, err
	}
	where = d.renderFilter(filter, &updateParams)
	sqlText := fmt.Sprintf("UPDATE %s SET %s%s RETURNING *", d.quote(table), strings.Join(assignments, ", "), where)
	rows, err := d.Query(ctx, sqlText, updateParams)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return map[string]any(rows[0]), nil
}

// FindOneAndUpdate applies update to exactly one row matched by filter
// (via the same ctid scoping Update uses) and returns its post-image.
func (d *Driver) FindOneAndUpdate(ctx context.Context, table string, filter, update map[string]any) (map[string]any, error) {
	var params []any
	assignments, err := d.translateUpdateDoc(update, &params)
	if err != nil {
		return nil, err
	}
	where := d.renderFilter(filter, &params)
	sqlText := fmt.Sprintf(
		"UPDATE %s SET %s WHERE ctid IN (SELECT ctid FROM %s%s LIMIT 1) RETURNING *",
		d.quote(table), strings.Join(assignments, ", "), d.quote(table), where)
	rows, err := d.Query(ctx, sqlText, params)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return map[string]any(rows[0]), nil
}

// FindOneAndDelete removes exactly one row matched by filter and returns
// its pre-image.
func (d *Driver) FindOneAndDelete(ctx context.Context, table string, filter map[string]any) (map[string]any, error) {
	var params []any
	where := d.renderFilter(filter, &params)
	sqlText := fmt.Sprintf(
		"DELETE FROM %s WHERE ctid IN (SELECT ctid FROM %s%s LIMIT 1) RETURNING *",
		d.quote(table), d.quote(table), where)
	rows, err := d.Query(ctx, sqlText, params)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return map[string]any(rows[0]), nil
}

func (d *Driver) TruncateTable(ctx context.Context, table string) error {
	_, err := d.Exec(ctx, "TRUNCATE TABLE "+d.quote(table), nil)
	return err
}
