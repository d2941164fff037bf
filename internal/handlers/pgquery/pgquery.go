// Package pgquery implements the Postgres query tool handler, wiring
// github.com/lib/pq the way haasonsaas-nexus does for its database-backed
// components (cmd/nexus/config.go, internal/jobs/cockroach.go).
package pgquery

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	_ "github.com/lib/pq"

	"github.com/opsgate/opsgate/internal/envelope"
)

// Handler runs a single parameterised query against a Postgres DSN supplied
// per call (no ambient connection pool is assumed — each distinct DSN gets
// its own lazily-opened *sql.DB, matching an operations-gateway workload
// where the target database varies per call).
type Handler struct {
	mu    sync.Mutex
	pools map[string]*sql.DB
}

func New() *Handler {
	return &Handler{pools: map[string]*sql.DB{}}
}

func (h *Handler) poolFor(dsn string) (*sql.DB, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if db, ok := h.pools[dsn]; ok {
		return db, nil
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	h.pools[dsn] = db
	return db, nil
}

// Call args: {dsn: string, query: string, params?: []any}.
func (h *Handler) Call(ctx context.Context, _ string, args map[string]any) (any, *envelope.ToolError) {
	dsn, _ := args["dsn"].(string)
	if dsn == "" {
		return nil, envelope.New(envelope.KindInvalidArgs, "missing_dsn", "pg_query requires a dsn argument")
	}
	query, _ := args["query"].(string)
	if query == "" {
		return nil, envelope.New(envelope.KindInvalidArgs, "missing_query", "pg_query requires a query argument")
	}
	var params []any
	if raw, ok := args["params"].([]any); ok {
		params = raw
	}

	db, err := h.poolFor(dsn)
	if err != nil {
		return nil, envelope.New(envelope.KindUpstream, "connect_failed", err.Error()).WithRetryable(true)
	}

	rows, err := db.QueryContext(ctx, query, params...)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, envelope.New(envelope.KindTimeout, "deadline_exceeded", "query exceeded its deadline").WithRetryable(true)
		}
		return nil, envelope.New(envelope.KindUpstream, "query_failed", err.Error()).WithRetryable(true)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, envelope.New(envelope.KindInternal, "columns_failed", err.Error())
	}

	var out []map[string]any
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, envelope.New(envelope.KindInternal, "scan_failed", err.Error())
		}
		row := make(map[string]any, len(cols))
		for i, c := range cols {
			row[c] = normalize(vals[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, envelope.New(envelope.KindUpstream, "row_iteration_failed", err.Error()).WithRetryable(true)
	}

	return map[string]any{"rows": out, "row_count": len(out)}, nil
}

func normalize(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
