package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/2beens/liftlog/internal/telemetry/tracing"

	"go.opentelemetry.io/otel/attribute"
)

// Query builds a single table request. Filters are PostgREST operators,
// e.g. Eq("id", 3) becomes ?id=eq.3.
type Query struct {
	client  *Client
	table   string
	params  url.Values
	headers http.Header
	single  bool
}

func (c *Client) From(table string) *Query {
	return &Query{
		client:  c,
		table:   table,
		params:  url.Values{},
		headers: http.Header{},
	}
}

func (q *Query) Select(columns string) *Query {
	q.params.Set("select", columns)
	return q
}

func (q *Query) Eq(column string, value any) *Query {
	return q.filter(column, "eq", value)
}

func (q *Query) Gte(column string, value any) *Query {
	return q.filter(column, "gte", value)
}

func (q *Query) Lte(column string, value any) *Query {
	return q.filter(column, "lte", value)
}

func (q *Query) filter(column, op string, value any) *Query {
	q.params.Add(column, op+"."+fmt.Sprint(value))
	return q
}

// Order appends an ordering; calling it repeatedly orders by several columns.
func (q *Query) Order(column string, ascending bool) *Query {
	dir := "desc"
	if ascending {
		dir = "asc"
	}
	term := column + "." + dir
	if existing := q.params.Get("order"); existing != "" {
		term = existing + "," + term
	}
	q.params.Set("order", term)
	return q
}

func (q *Query) Limit(n int) *Query {
	if n > 0 {
		q.params.Set("limit", strconv.Itoa(n))
	}
	return q
}

// Single expects exactly one row and decodes it as an object instead of an
// array. Zero rows fail with an error matching ErrNoRows.
func (q *Query) Single() *Query {
	q.single = true
	q.headers.Set("Accept", "application/vnd.pgrst.object+json")
	return q
}

func (q *Query) path() string {
	return "/rest/v1/" + q.table
}

// Get runs a select and decodes the rows into out.
func (q *Query) Get(ctx context.Context, out any) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "backend.select")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("table", q.table))

	if q.params.Get("select") == "" {
		q.params.Set("select", "*")
	}
	return q.client.do(ctx, request{
		method:  http.MethodGet,
		path:    q.path(),
		params:  q.params,
		headers: q.headers,
	}, out)
}

// Insert creates row(s) and decodes the created representation into out.
func (q *Query) Insert(ctx context.Context, rows any, out any) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "backend.insert")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("table", q.table))

	q.headers.Set("Prefer", "return=representation")
	q.ensureSelect(out)
	return q.client.do(ctx, request{
		method:  http.MethodPost,
		path:    q.path(),
		params:  q.params,
		headers: q.headers,
		body:    rows,
	}, out)
}

// Upsert inserts rows, merging with existing ones on the onConflict columns.
func (q *Query) Upsert(ctx context.Context, rows any, onConflict string, out any) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "backend.upsert")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("table", q.table))

	if onConflict != "" {
		q.params.Set("on_conflict", onConflict)
	}
	q.headers.Set("Prefer", "resolution=merge-duplicates,return=representation")
	q.ensureSelect(out)
	return q.client.do(ctx, request{
		method:  http.MethodPost,
		path:    q.path(),
		params:  q.params,
		headers: q.headers,
		body:    rows,
	}, out)
}

// Update patches the rows matched by the filters with the given columns.
func (q *Query) Update(ctx context.Context, columns any, out any) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "backend.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("table", q.table))

	if !q.hasFilters() {
		return fmt.Errorf("update on [%s] without filters refused", q.table)
	}
	q.headers.Set("Prefer", "return=representation")
	q.ensureSelect(out)
	return q.client.do(ctx, request{
		method:  http.MethodPatch,
		path:    q.path(),
		params:  q.params,
		headers: q.headers,
		body:    columns,
	}, out)
}

// Delete removes the rows matched by the filters.
func (q *Query) Delete(ctx context.Context) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "backend.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("table", q.table))

	if !q.hasFilters() {
		return fmt.Errorf("delete on [%s] without filters refused", q.table)
	}
	return q.client.do(ctx, request{
		method:  http.MethodDelete,
		path:    q.path(),
		params:  q.params,
		headers: q.headers,
	}, nil)
}

func (q *Query) hasFilters() bool {
	for k := range q.params {
		switch k {
		case "select", "order", "limit", "on_conflict":
		default:
			return true
		}
	}
	return false
}

func (q *Query) ensureSelect(out any) {
	if out != nil && q.params.Get("select") == "" {
		q.params.Set("select", "*")
	}
}
