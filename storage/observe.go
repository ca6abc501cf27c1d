package storage

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/memeforanyone/logger"
	"github.com/kbukum/memeforanyone/observability"
)

const meterName = "github.com/kbukum/memeforanyone/storage"

// Operation status values recorded on spans and metrics.
const (
	statusOK       = "ok"
	statusNotFound = "not_found"
	statusError    = "error"
)

type instruments struct {
	metrics *observability.OperationMetrics
}

func newInstruments(log *logger.Logger) *instruments {
	m, err := observability.NewOperationMetrics(observability.Meter(meterName), "storage")
	if err != nil {
		log.Warn("storage metrics disabled", logger.Fields(logger.FieldError, err.Error()))
	}
	return &instruments{metrics: m}
}

// observe opens a "storage.<op>" span and returns a func that ends it and
// records the operation metrics.
func (s *Storage) observe(ctx context.Context, op, path string) (context.Context, func(error)) {
	start := time.Now()
	pathAttr := observability.AttrPath
	if op == "list" {
		pathAttr = observability.AttrPrefix
	}
	ctx, span := observability.StartSpan(ctx, "storage."+op, trace.WithAttributes(
		attribute.String(observability.AttrBackend, string(s.backend)),
		attribute.String(pathAttr, path),
	))

	return ctx, func(err error) {
		status := statusOf(err)
		span.SetAttributes(attribute.String(observability.AttrStatus, status))
		if status == statusNotFound {
			// a miss is an expected outcome, not a span error
			span.End()
		} else {
			observability.EndSpan(span, err)
		}

		s.obs.metrics.Record(ctx, time.Since(start),
			attribute.String("backend", string(s.backend)),
			attribute.String("operation", op),
			attribute.String("status", status),
		)

		if status == statusError {
			s.log.Debug("storage operation failed", logger.Fields(
				logger.FieldOperation, op,
				logger.FieldPath, path,
				logger.FieldError, err.Error(),
			))
		}
	}
}

func statusOf(err error) string {
	switch {
	case err == nil:
		return statusOK
	case IsNotFound(err):
		return statusNotFound
	default:
		return statusError
	}
}
