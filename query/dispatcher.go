package query

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// SQLExecutor is the minimal primitive a relational Driver exposes to the
// query builder: run rendered SQL with bound params. Everything else
// (joins, predicates, pagination) is compiled by the parser before it
// reaches this seam (spec.md §4.3 step 4: "Parse and dispatch through the
// current driver's query(sql, params)").
type SQLExecutor interface {
	Query(ctx context.Context, sqlText string, params []any) ([]Row, error)
	Exec(ctx context.Context, sqlText string, params []any) (rowsAffected int64, err error)
}

// PipelineExecutor is the document-engine analogue: run an aggregation
// pipeline, or a native filtered update/delete.
type PipelineExecutor interface {
	Aggregate(ctx context.Context, collection string, pipeline []map[string]any) ([]Row, error)
	UpdateMany(ctx context.Context, collection string, filter map[string]any, update map[string]any) (int64, error)
	DeleteMany(ctx context.Context, collection string, filter map[string]any) (int64, error)
}

// UpdateExpr is one assignment in a Builder.Update()/Increment() call,
// carrying the neutral update operator spec.md §4.8 enumerates: $set,
// $unset, $inc, $dec.
type UpdateExpr struct {
	Op    string // "$set", "$unset", "$inc", "$dec"
	Field string
	Value any
}

// Dispatcher compiles a Builder's accumulated Operations and runs them
// against one engine. A Builder is bound to exactly one Dispatcher for its
// lifetime; Clone() keeps the same Dispatcher.
type Dispatcher interface {
	Select(ctx context.Context, root RootSpec, ops []Operation) ([]Row, error)
	Update(ctx context.Context, root RootSpec, ops []Operation, exprs []UpdateExpr) (int64, error)
	Delete(ctx context.Context, root RootSpec, ops []Operation) (int64, error)
	// Increment applies a single $inc/$dec expression and returns the new
	// field value via RETURNING (relational) or the post-image (document).
	Increment(ctx context.Context, root RootSpec, ops []Operation, field string, amount float64) (float64, error)
	// Count rebuilds ops keeping only where+join operations and runs a
	// native COUNT(*) (spec.md §4.3), never transferring matched rows.
	Count(ctx context.Context, root RootSpec, ops []Operation) (int64, error)
	// CountDistinct is Count scoped to distinct non-null values of field.
	CountDistinct(ctx context.Context, root RootSpec, ops []Operation, field string) (int64, error)
	// Aggregate runs a native SUM/AVG/MIN/MAX over field and returns the
	// single resulting value (nil if no rows matched).
	Aggregate(ctx context.Context, root RootSpec, ops []Operation, fn, field string) (any, error)
}

// RelationalDispatcher renders operations through a Parser and runs the
// resulting SQL against a SQLExecutor.
type RelationalDispatcher struct {
	Parser *RelationalParser
	Exec   SQLExecutor
}

// NewRelationalDispatcher binds a parser to a raw SQL executor.
func NewRelationalDispatcher(parser *RelationalParser, exec SQLExecutor) *RelationalDispatcher {
	return &RelationalDispatcher{Parser: parser, Exec: exec}
}

func (d *RelationalDispatcher) Select(ctx context.Context, root RootSpec, ops []Operation) ([]Row, error) {
	art, err := d.Parser.Parse(root, ops)
	if err != nil {
		return nil, err
	}
	return d.Exec.Query(ctx, art.SQL, art.Params)
}

func (d *RelationalDispatcher) Update(ctx context.Context, root RootSpec, ops []Operation, exprs []UpdateExpr) (int64, error) {
	sqlText, params, err := d.Parser.renderUpdate(root, ops, exprs)
	if err != nil {
		return 0, err
	}
	return d.Exec.Exec(ctx, sqlText, params)
}

func (d *RelationalDispatcher) Delete(ctx context.Context, root RootSpec, ops []Operation) (int64, error) {
	sqlText, params, err := d.Parser.renderDelete(root, ops)
	if err != nil {
		return 0, err
	}
	return d.Exec.Exec(ctx, sqlText, params)
}

func (d *RelationalDispatcher) Increment(ctx context.Context, root RootSpec, ops []Operation, field string, amount float64) (float64, error) {
	sqlText, params, err := d.Parser.renderUpdate(root, ops, []UpdateExpr{{Op: "$inc", Field: field, Value: amount}})
	if err != nil {
		return 0, err
	}
	sqlText += " RETURNING " + d.Parser.Dialect.QuoteIdentifier(field)
	rows, err := d.Exec.Query(ctx, sqlText, params)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, parseErr("increment: no row matched the given filter")
	}
	return toFloat(rows[0][field]), nil
}

func (d *RelationalDispatcher) Count(ctx context.Context, root RootSpec, ops []Operation) (int64, error) {
	sqlText, params, err := d.Parser.renderCount(root, ops)
	if err != nil {
		return 0, err
	}
	rows, err := d.Exec.Query(ctx, sqlText, params)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return toInt64(rows[0]["count"]), nil
}

func (d *RelationalDispatcher) CountDistinct(ctx context.Context, root RootSpec, ops []Operation, field string) (int64, error) {
	sqlText, params, err := d.Parser.renderCountDistinct(root, ops, field)
	if err != nil {
		return 0, err
	}
	rows, err := d.Exec.Query(ctx, sqlText, params)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return toInt64(rows[0]["count"]), nil
}

func (d *RelationalDispatcher) Aggregate(ctx context.Context, root RootSpec, ops []Operation, fn, field string) (any, error) {
	expr := fmt.Sprintf("%s(%s)", strings.ToUpper(fn), d.Parser.Dialect.QuoteIdentifier(field))
	sqlText, params, err := d.Parser.renderAggregate(root, ops, expr, "agg")
	if err != nil {
		return nil, err
	}
	rows, err := d.Exec.Query(ctx, sqlText, params)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0]["agg"], nil
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int32:
		return int64(n)
	case int:
		return int64(n)
	case float64:
		return int64(n)
	case string:
		parsed, _ := strconv.ParseInt(n, 10, 64)
		return parsed
	default:
		return 0
	}
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}

// DocumentDispatcher compiles operations into aggregation-pipeline stages
// and runs them against a PipelineExecutor.
type DocumentDispatcher struct {
	Parser *DocumentParser
	Exec   PipelineExecutor
}

// NewDocumentDispatcher binds a pipeline parser to a pipeline executor.
func NewDocumentDispatcher(parser *DocumentParser, exec PipelineExecutor) *DocumentDispatcher {
	return &DocumentDispatcher{Parser: parser, Exec: exec}
}

func (d *DocumentDispatcher) Select(ctx context.Context, root RootSpec, ops []Operation) ([]Row, error) {
	art, err := d.Parser.Parse(root, ops)
	if err != nil {
		return nil, err
	}
	return d.Exec.Aggregate(ctx, root.Table, art.Pipeline)
}

func (d *DocumentDispatcher) Update(ctx context.Context, root RootSpec, ops []Operation, exprs []UpdateExpr) (int64, error) {
	filter, err := d.Parser.filterFromOps(ops)
	if err != nil {
		return 0, err
	}
	update := nativeUpdateDoc(exprs)
	return d.Exec.UpdateMany(ctx, root.Table, filter, update)
}

func (d *DocumentDispatcher) Delete(ctx context.Context, root RootSpec, ops []Operation) (int64, error) {
	filter, err := d.Parser.filterFromOps(ops)
	if err != nil {
		return 0, err
	}
	return d.Exec.DeleteMany(ctx, root.Table, filter)
}

func (d *DocumentDispatcher) Increment(ctx context.Context, root RootSpec, ops []Operation, field string, amount float64) (float64, error) {
	filter, err := d.Parser.filterFromOps(ops)
	if err != nil {
		return 0, err
	}
	update := map[string]any{"$inc": map[string]any{field: amount}}
	if _, err := d.Exec.UpdateMany(ctx, root.Table, filter, update); err != nil {
		return 0, err
	}
	rows, err := d.Exec.Aggregate(ctx, root.Table, []map[string]any{{"$match": filter}, {"$limit": 1}})
	if err != nil || len(rows) == 0 {
		return 0, err
	}
	return toFloat(rows[0][field]), nil
}

func (d *DocumentDispatcher) Count(ctx context.Context, root RootSpec, ops []Operation) (int64, error) {
	pipeline, err := d.Parser.aggregatePipeline(ops, map[string]any{"$count": "count"})
	if err != nil {
		return 0, err
	}
	rows, err := d.Exec.Aggregate(ctx, root.Table, pipeline)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return toInt64(rows[0]["count"]), nil
}

func (d *DocumentDispatcher) CountDistinct(ctx context.Context, root RootSpec, ops []Operation, field string) (int64, error) {
	pipeline, err := d.Parser.aggregatePipeline(ops, map[string]any{"$group": map[string]any{"_id": "$" + field}})
	if err != nil {
		return 0, err
	}
	pipeline = append(pipeline, map[string]any{"$count": "count"})
	rows, err := d.Exec.Aggregate(ctx, root.Table, pipeline)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return toInt64(rows[0]["count"]), nil
}

func (d *DocumentDispatcher) Aggregate(ctx context.Context, root RootSpec, ops []Operation, fn, field string) (any, error) {
	accumulator := "$" + strings.ToLower(fn)
	stage := map[string]any{"$group": map[string]any{"_id": nil, "agg": map[string]any{accumulator: "$" + field}}}
	pipeline, err := d.Parser.aggregatePipeline(ops, stage)
	if err != nil {
		return nil, err
	}
	rows, err := d.Exec.Aggregate(ctx, root.Table, pipeline)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0]["agg"], nil
}

// nativeUpdateDoc translates UpdateExpr into Mongo-shaped native update
// operators, passed through as-is per spec.md §4.8 ("Document driver
// parallels: $set/$unset/$inc/$push/$pull are passed through as native
// update operators").
func nativeUpdateDoc(exprs []UpdateExpr) map[string]any {
	out := map[string]any{}
	for _, e := range exprs {
		bucket, ok := out[e.Op].(map[string]any)
		if !ok {
			bucket = map[string]any{}
			out[e.Op] = bucket
		}
		if e.Op == "$unset" {
			bucket[e.Field] = ""
			continue
		}
		if e.Op == "$dec" {
			bucket2, ok := out["$inc"].(map[string]any)
			if !ok {
				bucket2 = map[string]any{}
				out["$inc"] = bucket2
			}
			bucket2[e.Field] = negate(e.Value)
			delete(out, "$dec")
			continue
		}
		bucket[e.Field] = e.Value
	}
	return out
}

func negate(v any) any {
	switch n := v.(type) {
	case float64:
		return -n
	case int:
		return -n
	case int64:
		return -n
	default:
		return v
	}
}
