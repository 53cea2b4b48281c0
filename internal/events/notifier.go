package events

import (
	"context"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Checker-Finance/secrets-manager-sdk/internal/httpclient"
	"github.com/Checker-Finance/secrets-manager-sdk/internal/metrics"
	"github.com/Checker-Finance/secrets-manager-sdk/pkg/model"
	"github.com/Checker-Finance/secrets-manager-sdk/pkg/operation"
)

// DefaultSubjectPrefix is used when the notifier is given no prefix.
const DefaultSubjectPrefix = "evt.secrets"

// Sink delivers events to one broker.
type Sink interface {
	Name() string
	Publish(ctx context.Context, subject string, ev model.SecretOperationEvent) error
}

// Notifier publishes an event for every successful mutating operation. It
// is an operation.Observer; publish failures are logged and counted but
// never reach the caller of the operation.
type Notifier struct {
	logger  *zap.Logger
	prefix  string
	service string
	sinks   []Sink
	now     func() time.Time
}

var _ operation.Observer = (*Notifier)(nil)

func NewNotifier(logger *zap.Logger, prefix, service string, sinks ...Sink) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &Notifier{
		logger:  logger,
		prefix:  strings.TrimSuffix(prefix, "."),
		service: service,
		sinks:   sinks,
		now:     time.Now,
	}
}

// Subject returns the subject for an operation, e.g.
// "evt.secrets.create_secret.v1".
func (n *Notifier) Subject(operationID string) string {
	return n.prefix + "." + snakeCase(operationID) + ".v1"
}

func (n *Notifier) Rejected(operation.Spec, *operation.MissingParametersError) {}

func (n *Notifier) Completed(ctx context.Context, spec operation.Spec, req operation.RequestDescriptor,
	meta *operation.ResponseMeta, err error, elapsed time.Duration) {
	if err != nil || meta == nil || !mutating(spec.Method) || len(n.sinks) == 0 {
		return
	}

	ev := model.SecretOperationEvent{
		ID:            uuid.New(),
		CorrelationID: httpclient.CorrelationID(req, meta, nil),
		EventType:     "secrets." + snakeCase(spec.ID),
		Operation:     spec.ID,
		Method:        spec.Method,
		Path:          req.URL,
		StatusCode:    meta.StatusCode,
		Service:       n.service,
		DurationMs:    elapsed.Milliseconds(),
		Timestamp:     n.now().UTC(),
	}
	subject := n.Subject(spec.ID)

	for _, s := range n.sinks {
		if perr := s.Publish(ctx, subject, ev); perr != nil {
			n.logger.Warn("events.publish_failed",
				zap.String("sink", s.Name()),
				zap.String("subject", subject),
				zap.String("operation", spec.ID),
				zap.Error(perr))
			metrics.IncEvent(s.Name(), "error")
			continue
		}
		metrics.IncEvent(s.Name(), "ok")
	}
}

func mutating(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	}
	return true
}


// snakeCase turns "CreateSecretVersionLocksBulk" into
// "create_secret_version_locks_bulk".
func snakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
