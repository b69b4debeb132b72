package obs

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const maxStatementLen = 300

// PGXTracer implements pgx.QueryTracer, one client span per statement.
// Query arguments are counted but never recorded.
type PGXTracer struct{}

// TraceQueryStart starts a span named after the SQL verb, e.g. "pgx.insert".
func (PGXTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	operation := sqlOperation(data.SQL)
	ctx, span := otel.Tracer("db.pgx").Start(ctx, "pgx."+strings.ToLower(operation), trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", operation),
		attribute.String("db.statement", truncateSQL(data.SQL)),
		attribute.Int("db.args", len(data.Args)),
	)
	return ctx
}

// TraceQueryEnd ends the span started by TraceQueryStart. pgx.ErrNoRows is a
// normal outcome for lookups and is not marked as an error.
func (PGXTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	defer span.End()
	if data.Err != nil && !errors.Is(data.Err, pgx.ErrNoRows) {
		span.RecordError(data.Err)
		span.SetStatus(codes.Error, data.Err.Error())
		return
	}
	span.SetAttributes(attribute.Int64("db.rows_affected", data.CommandTag.RowsAffected()))
}

func truncateSQL(sql string) string {
	trimmed := strings.Join(strings.Fields(sql), " ")
	if len(trimmed) > maxStatementLen {
		return trimmed[:maxStatementLen] + "..."
	}
	return trimmed
}

func sqlOperation(sql string) string {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return "QUERY"
	}
	return strings.ToUpper(fields[0])
}
