package audit

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/Checker-Finance/secrets-manager-sdk/internal/httpclient"
	"github.com/Checker-Finance/secrets-manager-sdk/internal/metrics"
	"github.com/Checker-Finance/secrets-manager-sdk/pkg/model"
	"github.com/Checker-Finance/secrets-manager-sdk/pkg/operation"
)

const writeTimeout = 3 * time.Second

// DBExecutor is the subset of pgxpool.Pool the journal needs.
type DBExecutor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const schemaQuery = `
	CREATE SCHEMA IF NOT EXISTS audit;
	CREATE TABLE IF NOT EXISTS audit.secret_operation (
		id             BIGSERIAL PRIMARY KEY,
		s_operation    TEXT        NOT NULL,
		s_method       TEXT        NOT NULL,
		s_path         TEXT        NOT NULL,
		s_correlation  TEXT,
		i_status       INTEGER,
		b_succeeded    BOOLEAN     NOT NULL,
		s_error        TEXT,
		i_duration_ms  BIGINT      NOT NULL,
		s_source       TEXT        NOT NULL,
		dt_recorded    TIMESTAMPTZ NOT NULL
	);
`

const insertQuery = `
	INSERT INTO audit.secret_operation (
		s_operation,
		s_method,
		s_path,
		s_correlation,
		i_status,
		b_succeeded,
		s_error,
		i_duration_ms,
		s_source,
		dt_recorded
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
`

// Journal records every executed mutating operation, successful or not, in
// audit.secret_operation. Reads are not journaled.
type Journal struct {
	db     DBExecutor
	logger *zap.Logger
	source string
	now    func() time.Time
}

var _ operation.Observer = (*Journal)(nil)

// NewJournal constructs a journal. source identifies the writer
// (e.g. "sm-gateway").
func NewJournal(db DBExecutor, logger *zap.Logger, source string) *Journal {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Journal{db: db, logger: logger, source: source, now: time.Now}
}

// EnsureSchema creates the journal table when it does not exist.
func (j *Journal) EnsureSchema(ctx context.Context) error {
	_, err := j.db.Exec(ctx, schemaQuery)
	return err
}

// Record inserts one journal row.
func (j *Journal) Record(ctx context.Context, rec model.AuditRecord) error {
	if j.db == nil {
		return errors.New("audit: no database")
	}

	var status any
	if rec.StatusCode != 0 {
		status = rec.StatusCode
	}
	var errText any
	if rec.Error != "" {
		errText = rec.Error
	}

	_, err := j.db.Exec(ctx, insertQuery,
		rec.OperationID,   // s_operation
		rec.Method,        // s_method
		rec.Path,          // s_path
		rec.CorrelationID, // s_correlation
		status,            // i_status
		rec.Succeeded,     // b_succeeded
		errText,           // s_error
		rec.DurationMs,    // i_duration_ms
		rec.Source,        // s_source
		rec.RecordedAt,    // dt_recorded
	)
	if err != nil {
		j.logger.Error("audit.write_failed",
			zap.String("operation", rec.OperationID),
			zap.Error(err),
		)
		metrics.IncAuditWrite("error")
		return err
	}
	metrics.IncAuditWrite("ok")
	return nil
}

func (j *Journal) Rejected(operation.Spec, *operation.MissingParametersError) {}

func (j *Journal) Completed(ctx context.Context, spec operation.Spec, req operation.RequestDescriptor,
	meta *operation.ResponseMeta, err error, elapsed time.Duration) {
	if spec.Method == http.MethodGet {
		return
	}

	rec := model.AuditRecord{
		OperationID:   spec.ID,
		Method:        spec.Method,
		Path:          req.URL,
		CorrelationID: httpclient.CorrelationID(req, meta, err),
		Succeeded:     err == nil,
		DurationMs:    elapsed.Milliseconds(),
		Source:        j.source,
		RecordedAt:    j.now().UTC(),
	}
	if meta != nil {
		rec.StatusCode = meta.StatusCode
	}
	var httpErr *httpclient.HTTPError
	if errors.As(err, &httpErr) {
		rec.StatusCode = httpErr.StatusCode
	}
	if err != nil {
		rec.Error = err.Error()
	}

	// The row is written even when the caller's context was cancelled.
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()
	_ = j.Record(wctx, rec)
}
