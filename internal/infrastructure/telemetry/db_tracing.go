package telemetry

import (
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RegisterDBTracing attaches the otelgorm plugin so every query runs inside
// a child span of the request, plus a callback that stamps the span with row
// counts and marks real errors. Query variables are kept out of spans; trust
// ledgers carry owner payment details.
func RegisterDBTracing(db *gorm.DB, log *zap.Logger) error {
	plugin := otelgorm.NewPlugin(
		otelgorm.WithDBName("postgresql"),
		otelgorm.WithoutQueryVariables(),
	)
	if err := db.Use(plugin); err != nil {
		return err
	}

	if err := registerSpanCallbacks(db); err != nil {
		return err
	}

	log.Info("Database tracing enabled")
	return nil
}

func registerSpanCallbacks(db *gorm.DB) error {
	after := func(db *gorm.DB) {
		ctx := db.Statement.Context
		if ctx == nil {
			return
		}
		span := trace.SpanFromContext(ctx)
		if !span.IsRecording() {
			return
		}

		if db.Statement.RowsAffected >= 0 {
			span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
		}
		if db.Statement.Table != "" {
			span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
		}
		// ErrRecordNotFound is an answer, not a failure
		if db.Error != nil && db.Error != gorm.ErrRecordNotFound {
			span.SetStatus(codes.Error, db.Error.Error())
			span.RecordError(db.Error)
		}
	}

	if err := db.Callback().Create().After("gorm:create").Register("otel_span:after_create", after); err != nil {
		return err
	}
	if err := db.Callback().Query().After("gorm:query").Register("otel_span:after_query", after); err != nil {
		return err
	}
	if err := db.Callback().Update().After("gorm:update").Register("otel_span:after_update", after); err != nil {
		return err
	}
	if err := db.Callback().Delete().After("gorm:delete").Register("otel_span:after_delete", after); err != nil {
		return err
	}
	if err := db.Callback().Row().After("gorm:row").Register("otel_span:after_row", after); err != nil {
		return err
	}
	return db.Callback().Raw().After("gorm:raw").Register("otel_span:after_raw", after)
}
