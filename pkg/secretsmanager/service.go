// Package secretsmanager is the typed client for the Secrets Manager API.
// Every method is a thin wrapper over one entry of the operation table;
// the shared request pipeline lives in package operation.
package secretsmanager

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Checker-Finance/secrets-manager-sdk/pkg/operation"
)

const (
	ServiceName    = "secrets_manager"
	ServiceVersion = "V1"
	SDKVersion     = "1.4.0"
)

// DefaultUserAgent is sent on every request unless the caller overrides it.
var DefaultUserAgent = "secrets-manager-go-sdk/" + SDKVersion

// Response is the envelope returned by every operation.
type Response[T any] = operation.ResponseEnvelope[T]

// Options configures a Service.
type Options struct {
	ServiceURL     string
	Headers        map[string]string
	Authenticator  operation.Authenticator
	DisableRetries bool
	Generation     Generation
	Executor       operation.Executor
	Logger         *zap.Logger
	Observers      []operation.Observer
}

// Service is safe for concurrent use.
type Service struct {
	gen    Generation
	inv    *operation.Invoker
	logger *zap.Logger
}

// NewService validates opts and returns a Service bound to one API generation.
func NewService(opts Options) (*Service, error) {
	if opts.ServiceURL == "" {
		return nil, errors.New("secretsmanager: service URL is required")
	}
	if opts.Executor == nil {
		return nil, errors.New("secretsmanager: executor is required")
	}
	gen := opts.Generation
	if gen == "" {
		gen = GenerationCurrent
	}
	if _, ok := tableIndex[gen]; !ok {
		return nil, fmt.Errorf("secretsmanager: unknown api generation %q", gen)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	base := operation.BaseOptions{
		ServiceURL:     opts.ServiceURL,
		Headers:        opts.Headers,
		Authenticator:  opts.Authenticator,
		DisableRetries: opts.DisableRetries,
	}
	inv := operation.NewInvoker(base, opts.Executor,
		operation.WithLogger(logger.Named("operation")),
		operation.WithObserver(operation.Observers(opts.Observers)),
		operation.WithBuilder(operation.Builder{
			Service:   ServiceName,
			Version:   ServiceVersion,
			UserAgent: DefaultUserAgent,
		}),
	)
	return &Service{gen: gen, inv: inv, logger: logger}, nil
}

// Generation reports which API surface the service exposes.
func (s *Service) Generation() Generation { return s.gen }

// Operations lists the operations available in the service's generation.
func (s *Service) Operations() []operation.Spec { return Operations(s.gen) }

// Lookup finds an operation available in the service's generation.
func (s *Service) Lookup(id string) (operation.Spec, error) { return Lookup(s.gen, id) }

// Do invokes any operation by ID with a raw parameter bag. The result is
// left undecoded.
func (s *Service) Do(ctx context.Context, id string, bag operation.Bag) (*Response[json.RawMessage], error) {
	spec, err := s.Lookup(id)
	if err != nil {
		return nil, err
	}
	return operation.Invoke[json.RawMessage](ctx, s.inv, spec, bag)
}

// Describe returns the request Do would send for id and bag.
func (s *Service) Describe(id string, bag operation.Bag) (operation.RequestDescriptor, error) {
	spec, err := s.Lookup(id)
	if err != nil {
		return operation.RequestDescriptor{}, err
	}
	return s.inv.Describe(spec, bag)
}

func call[T any](ctx context.Context, s *Service, spec operation.Spec, bag operation.Bag) (*Response[T], error) {
	if _, err := s.Lookup(spec.ID); err != nil {
		return nil, err
	}
	return operation.Invoke[T](ctx, s.inv, spec, bag)
}
