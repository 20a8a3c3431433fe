package obs

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const maxStatementLen = 300

// PGXTracer implements pgx.QueryTracer. Document and event queries become child
// spans named after the statement and table, e.g. "INSERT domain_events".
type PGXTracer struct {
	// Provider defaults to the global tracer provider.
	Provider trace.TracerProvider
}

func (t PGXTracer) tracer() trace.Tracer {
	p := t.Provider
	if p == nil {
		p = otel.GetTracerProvider()
	}
	return p.Tracer("github.com/noah-isme/backend-lab/internal/obs/pgx")
}

// TraceQueryStart opens a client span for the statement.
func (t PGXTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	op, table := statementTarget(data.SQL)
	name := strings.TrimSpace(op + " " + table)
	if name == "" {
		name = "pgx.query"
	}
	ctx, span := t.tracer().Start(ctx, name, trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", op),
		attribute.String("db.statement", truncateSQL(data.SQL)),
		attribute.Int("db.args", len(data.Args)),
	)
	if table != "" {
		span.SetAttributes(attribute.String("db.sql.table", table))
	}
	return ctx
}

// TraceQueryEnd records the outcome and ends the span opened by TraceQueryStart.
func (PGXTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	span := trace.SpanFromContext(ctx)
	if data.Err != nil {
		span.RecordError(data.Err)
		span.SetStatus(codes.Error, data.Err.Error())
	} else {
		span.SetAttributes(attribute.Int64("db.rows_affected", data.CommandTag.RowsAffected()))
	}
	span.End()
}

// statementTarget returns the leading SQL keyword and the table following
// FROM, INTO or UPDATE.
func statementTarget(sql string) (op, table string) {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return "", ""
	}
	op = strings.ToUpper(fields[0])
	for i := 0; i < len(fields)-1; i++ {
		switch strings.ToUpper(fields[i]) {
		case "FROM", "INTO", "UPDATE":
			return op, strings.Trim(fields[i+1], `"(;`)
		}
	}
	return op, ""
}

func truncateSQL(sql string) string {
	trimmed := strings.TrimSpace(sql)
	if len(trimmed) > maxStatementLen {
		return trimmed[:maxStatementLen] + "..."
	}
	return trimmed
}
