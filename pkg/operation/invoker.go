package operation

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Authenticator attaches credentials to an outgoing request. It is called by
// the Executor, never by the Invoker.
type Authenticator interface {
	Authenticate(ctx context.Context, req *http.Request) error
}

// BaseOptions is the connection configuration shared by every call made
// through one Invoker.
type BaseOptions struct {
	ServiceURL     string
	Headers        map[string]string
	Authenticator  Authenticator
	DisableRetries bool
}

func (o BaseOptions) clone() BaseOptions {
	o.Headers = MergeHeaders(o.Headers)
	return o
}

// ResponseMeta is what an Executor reports about a completed exchange.
type ResponseMeta struct {
	StatusCode int
	StatusText string
	Headers    http.Header
	// CorrelationID is the request correlation ID the Executor sent, when
	// it sends one.
	CorrelationID string
}

// ResponseEnvelope is the normalized result of every operation.
type ResponseEnvelope[T any] struct {
	Result     T           `json:"result"`
	StatusCode int         `json:"status"`
	StatusText string      `json:"statusText"`
	Headers    http.Header `json:"headers"`
}

// Executor performs the network exchange for a descriptor and decodes the
// response body into result (a pointer) when there is one. Retries,
// timeouts and authentication are its concern.
type Executor interface {
	Execute(ctx context.Context, req RequestDescriptor, base BaseOptions, result any) (*ResponseMeta, error)
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, req RequestDescriptor, base BaseOptions, result any) (*ResponseMeta, error)

func (f ExecutorFunc) Execute(ctx context.Context, req RequestDescriptor, base BaseOptions, result any) (*ResponseMeta, error) {
	return f(ctx, req, base, result)
}

// Invoker runs operations: Validate, Build, Delegate, Return.
// It holds no per-call state and is safe for concurrent use.
type Invoker struct {
	base     BaseOptions
	exec     Executor
	builder  Builder
	logger   *zap.Logger
	observer Observer
}

// Option configures an Invoker.
type Option func(*Invoker)

func WithLogger(l *zap.Logger) Option {
	return func(i *Invoker) {
		if l != nil {
			i.logger = l
		}
	}
}

func WithObserver(o Observer) Option {
	return func(i *Invoker) {
		if o != nil {
			i.observer = o
		}
	}
}

func WithBuilder(b Builder) Option {
	return func(i *Invoker) { i.builder = b }
}

// NewInvoker creates an Invoker. base is copied; later changes to the
// caller's header map have no effect.
func NewInvoker(base BaseOptions, exec Executor, opts ...Option) *Invoker {
	inv := &Invoker{
		base:     base.clone(),
		exec:     exec,
		logger:   zap.NewNop(),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

// Base returns a copy of the invoker's connection configuration.
func (i *Invoker) Base() BaseOptions {
	return i.base.clone()
}

// Describe validates bag and returns the descriptor Invoke would send,
// without sending it.
func (i *Invoker) Describe(spec Spec, bag Bag) (RequestDescriptor, error) {
	if err := Check(spec, bag); err != nil {
		return RequestDescriptor{}, err
	}
	return i.builder.Build(spec, bag), nil
}

// Invoke runs spec with bag and decodes the response result into T.
// Missing parameters fail before the Executor is reached; Executor errors
// are returned unchanged.
func Invoke[T any](ctx context.Context, inv *Invoker, spec Spec, bag Bag) (*ResponseEnvelope[T], error) {
	if err := Check(spec, bag); err != nil {
		mpe := err.(*MissingParametersError)
		inv.logger.Warn("operation.rejected",
			zap.String("operation", spec.ID),
			zap.Strings("missing", mpe.Missing))
		inv.observer.Rejected(spec, mpe)
		return nil, err
	}

	req := inv.builder.Build(spec, bag)

	var result T
	start := time.Now()
	meta, err := inv.exec.Execute(ctx, req, inv.base, &result)
	elapsed := time.Since(start)
	inv.observer.Completed(ctx, spec, req, meta, err, elapsed)

	if err != nil {
		inv.logger.Debug("operation.failed",
			zap.String("operation", spec.ID),
			zap.String("url", req.URL),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
		return nil, err
	}
	if meta == nil {
		meta = &ResponseMeta{}
	}

	inv.logger.Debug("operation.completed",
		zap.String("operation", spec.ID),
		zap.String("url", req.URL),
		zap.Int("status", meta.StatusCode),
		zap.Duration("elapsed", elapsed))

	return &ResponseEnvelope[T]{
		Result:     result,
		StatusCode: meta.StatusCode,
		StatusText: meta.StatusText,
		Headers:    meta.Headers,
	}, nil
}
