package query

import (
	"context"
	"encoding/base64"
	"fmt"
)

// Get runs the accumulated operations and returns every matching row,
// following the execution contract in spec.md §4.3: apply scopes once,
// run the pre-fetch hook, dispatch, run the post-fetch hook, then reset the
// operation list so the Builder is safe to reuse for a different query.
func (b *Builder) Get(ctx context.Context) ([]Row, error) {
	b.applyScopes()
	if b.preFetch != nil {
		if err := b.preFetch(b); err != nil {
			return nil, err
		}
	}
	rows, err := b.dispatcher.Select(ctx, b.root, b.operations)
	if err != nil {
		return nil, err
	}
	if b.postFetch != nil {
		if err := b.postFetch(rows); err != nil {
			return nil, err
		}
	}
	b.reset()
	return rows, nil
}

// reset clears the accumulated operations and scope-application state so a
// Builder can be executed again for an unrelated query, while keeping its
// root, dispatcher, resolver, and registered global scopes.
func (b *Builder) reset() {
	b.operations = nil
	b.scopesApplied = false
	b.joinRelations = nil
}

// First runs Get with an implicit Limit(1) and returns the first row, or
// nil if none matched.
func (b *Builder) First(ctx context.Context) (Row, error) {
	b.Limit(1)
	rows, err := b.Get(ctx)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// FirstOrFail is First, but a parse error ("no matching row found")
// replaces the nil row.
func (b *Builder) FirstOrFail(ctx context.Context) (Row, error) {
	row, err := b.First(ctx)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, parseErr("no matching row found")
	}
	return row, nil
}

// Find is sugar for Where(idField, "=", id).First(ctx).
func (b *Builder) Find(ctx context.Context, idField string, id any) (Row, error) {
	b.Where(idField, "=", id)
	return b.First(ctx)
}

// Count returns the number of matching rows. It rebuilds the accumulated
// operations keeping only where+join, and appends a native COUNT(*) (spec.md
// §4.3, §8 scenario 2) rather than transferring every matching row.
func (b *Builder) Count(ctx context.Context) (int64, error) {
	b.applyScopes()
	n, err := b.dispatcher.Count(ctx, b.root, b.operations)
	b.reset()
	return n, err
}

// CountDistinct counts distinct non-null values of field via a native
// COUNT(DISTINCT field).
func (b *Builder) CountDistinct(ctx context.Context, field string) (int64, error) {
	b.applyScopes()
	n, err := b.dispatcher.CountDistinct(ctx, b.root, b.operations, field)
	b.reset()
	return n, err
}

// Sum adds field across every matching row via a native SUM aggregate.
func (b *Builder) Sum(ctx context.Context, field string) (float64, error) {
	return b.aggregate(ctx, "SUM", field)
}

// Avg averages field across every matching row via a native AVG aggregate,
// 0 if there are none.
func (b *Builder) Avg(ctx context.Context, field string) (float64, error) {
	return b.aggregate(ctx, "AVG", field)
}

// Min/Max return the smallest/largest value of field via a native MIN/MAX
// aggregate, or nil if no rows matched.
func (b *Builder) Min(ctx context.Context, field string) (any, error) {
	return b.dispatchAggregate(ctx, "MIN", field)
}

func (b *Builder) Max(ctx context.Context, field string) (any, error) {
	return b.dispatchAggregate(ctx, "MAX", field)
}

func (b *Builder) aggregate(ctx context.Context, fn, field string) (float64, error) {
	v, err := b.dispatchAggregate(ctx, fn, field)
	if err != nil {
		return 0, err
	}
	return toFloat(v), nil
}

func (b *Builder) dispatchAggregate(ctx context.Context, fn, field string) (any, error) {
	b.applyScopes()
	v, err := b.dispatcher.Aggregate(ctx, b.root, b.operations, fn, field)
	b.reset()
	return v, err
}

// Pluck returns the values of a single field across every matching row.
func (b *Builder) Pluck(ctx context.Context, field string) ([]any, error) {
	rows, err := b.Get(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]any, len(rows))
	for i, r := range rows {
		out[i] = r[field]
	}
	return out, nil
}

// Value returns a single field from the first matching row.
func (b *Builder) Value(ctx context.Context, field string) (any, error) {
	row, err := b.First(ctx)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, nil
	}
	return row[field], nil
}

// Exists reports whether at least one row matches.
func (b *Builder) Exists(ctx context.Context) (bool, error) {
	row, err := b.First(ctx)
	if err != nil {
		return false, err
	}
	return row != nil, nil
}

// NotExists is the negation of Exists.
func (b *Builder) NotExists(ctx context.Context) (bool, error) {
	ok, err := b.Exists(ctx)
	return !ok, err
}

// Chunk fetches matching rows in batches of size, invoking fn once per
// batch, stopping early if fn returns an error or a batch comes back
// smaller than size (spec.md §4.3 "chunked iteration for large result
// sets").
func (b *Builder) Chunk(ctx context.Context, size int, fn func([]Row) error) error {
	offset := 0
	for {
		batch := b.Clone()
		batch.Limit(size).Offset(offset)
		rows, err := batch.Get(ctx)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		if err := fn(rows); err != nil {
			return err
		}
		if len(rows) < size {
			return nil
		}
		offset += size
	}
}

// Paginate returns one offset-based page plus a total count.
func (b *Builder) Paginate(ctx context.Context, page, perPage int) (*PageResult, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 1
	}
	counter := b.Clone()
	total, err := counter.Count(ctx)
	if err != nil {
		return nil, err
	}
	b.Limit(perPage).Offset((page - 1) * perPage)
	rows, err := b.Get(ctx)
	if err != nil {
		return nil, err
	}
	lastPage := int((total + int64(perPage) - 1) / int64(perPage))
	if lastPage < 1 {
		lastPage = 1
	}
	return &PageResult{Data: rows, Total: total, Page: page, PerPage: perPage, LastPage: lastPage}, nil
}

// CursorPaginate returns one cursor-based page keyed on cursorField,
// walking forward ("next") or backward ("prev") from cursor. It fetches
// perPage+1 rows to detect overflow, and for "prev" reverses the slice back
// into ascending order before returning (spec.md §4.3 cursorPaginate).
func (b *Builder) CursorPaginate(ctx context.Context, perPage int, cursorField, direction string, cursor *string) (*CursorResult, error) {
	if perPage < 1 {
		perPage = 1
	}
	prev := direction == "prev"

	if cursor != nil {
		decoded, err := decodeCursor(*cursor)
		if err != nil {
			return nil, err
		}
		op := ">"
		if prev {
			op = "<"
		}
		b.Where(cursorField, op, decoded)
	}
	dir := "ASC"
	if prev {
		dir = "DESC"
	}
	b.OrderBy(cursorField, dir).Limit(perPage + 1)
	rows, err := b.Get(ctx)
	if err != nil {
		return nil, err
	}

	hasMore := len(rows) > perPage
	if hasMore {
		rows = rows[:perPage]
	}
	if prev {
		for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
			rows[i], rows[j] = rows[j], rows[i]
		}
	}

	result := &CursorResult{Data: rows}
	if len(rows) == 0 {
		return result, nil
	}
	if (!prev && hasMore) || (prev && cursor != nil) {
		encoded := encodeCursor(fmt.Sprint(rows[len(rows)-1][cursorField]))
		result.NextCursor = &encoded
	}
	if (prev && hasMore) || (!prev && cursor != nil) {
		encoded := encodeCursor(fmt.Sprint(rows[0][cursorField]))
		result.PrevCursor = &encoded
	}
	return result, nil
}

func encodeCursor(v string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(v))
}

func decodeCursor(v string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(v)
	if err != nil {
		return "", parseErr("invalid cursor: " + err.Error())
	}
	return string(raw), nil
}

// Update applies the given assignments ($set by default) to every matching
// row and returns the count affected.
func (b *Builder) Update(ctx context.Context, assignments map[string]any) (int64, error) {
	exprs := make([]UpdateExpr, 0, len(assignments))
	for field, value := range assignments {
		exprs = append(exprs, UpdateExpr{Op: "$set", Field: field, Value: value})
	}
	b.applyScopes()
	n, err := b.dispatcher.Update(ctx, b.root, b.operations, exprs)
	b.reset()
	return n, err
}

// Unset clears the named fields ($unset) on every matching row.
func (b *Builder) Unset(ctx context.Context, fields ...string) (int64, error) {
	exprs := make([]UpdateExpr, len(fields))
	for i, f := range fields {
		exprs[i] = UpdateExpr{Op: "$unset", Field: f}
	}
	b.applyScopes()
	n, err := b.dispatcher.Update(ctx, b.root, b.operations, exprs)
	b.reset()
	return n, err
}

// Increment applies $inc(field, amount) to every matching row and returns
// the new value of field on one representative updated row.
func (b *Builder) Increment(ctx context.Context, field string, amount float64) (float64, error) {
	b.applyScopes()
	v, err := b.dispatcher.Increment(ctx, b.root, b.operations, field, amount)
	b.reset()
	return v, err
}

// Decrement is Increment with the sign flipped.
func (b *Builder) Decrement(ctx context.Context, field string, amount float64) (float64, error) {
	return b.Increment(ctx, field, -amount)
}

// Delete removes every matching row and returns the count affected.
func (b *Builder) Delete(ctx context.Context) (int64, error) {
	b.applyScopes()
	n, err := b.dispatcher.Delete(ctx, b.root, b.operations)
	b.reset()
	return n, err
}

// Parse compiles the accumulated operations into their native Artifact
// without executing anything, the seam Explain and Pretty build on.
func (b *Builder) Parse() (*Artifact, error) {
	b.applyScopes()
	parser, ok := dispatcherParser(b.dispatcher)
	if !ok {
		return nil, parseErr("this dispatcher does not expose a Parser for dry-run inspection")
	}
	return parser.Parse(b.root, b.operations)
}

// Pretty renders the compiled query as a human-readable string: SQL text
// for the relational engine, or the pipeline stages for the document one.
func (b *Builder) Pretty() (string, error) {
	art, err := b.Parse()
	if err != nil {
		return "", err
	}
	if art.SQL != "" {
		return art.SQL, nil
	}
	return fmt.Sprintf("%v", art.Pipeline), nil
}

// Explain is an alias for Pretty: spec.md §4.3 keeps the two names
// distinct at the model layer (one documented as a debug aid, the other as
// a dry-run), but both resolve to the same compiled-artifact inspection
// here.
func (b *Builder) Explain() (string, error) {
	return b.Pretty()
}

// dispatcherParser recovers the underlying Parser from a concrete
// Dispatcher, since Parse/dry-run needs the artifact without executing it.
func dispatcherParser(d Dispatcher) (Parser, bool) {
	switch v := d.(type) {
	case *RelationalDispatcher:
		return v.Parser, true
	case *DocumentDispatcher:
		return v.Parser, true
	default:
		return nil, false
	}
}
