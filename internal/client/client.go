// Package client assembles a secretsmanager.Service and its supporting
// infrastructure from a config.ClientConfig.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/Checker-Finance/secrets-manager-sdk/internal/audit"
	"github.com/Checker-Finance/secrets-manager-sdk/internal/events"
	"github.com/Checker-Finance/secrets-manager-sdk/internal/httpclient"
	"github.com/Checker-Finance/secrets-manager-sdk/internal/jobs"
	"github.com/Checker-Finance/secrets-manager-sdk/internal/metrics"
	"github.com/Checker-Finance/secrets-manager-sdk/internal/rate"
	"github.com/Checker-Finance/secrets-manager-sdk/internal/secrets"
	"github.com/Checker-Finance/secrets-manager-sdk/internal/store"
	"github.com/Checker-Finance/secrets-manager-sdk/pkg/auth"
	"github.com/Checker-Finance/secrets-manager-sdk/pkg/config"
	"github.com/Checker-Finance/secrets-manager-sdk/pkg/operation"
	pkgsecrets "github.com/Checker-Finance/secrets-manager-sdk/pkg/secrets"
	"github.com/Checker-Finance/secrets-manager-sdk/pkg/secretsmanager"
	"github.com/Checker-Finance/secrets-manager-sdk/pkg/utils"
)

// Deps overrides infrastructure that would otherwise be created from the
// configuration. Zero fields are built from config.
type Deps struct {
	Provider   pkgsecrets.Provider
	HTTPClient *http.Client
	TokenStore auth.TokenStore
	DB         audit.DBExecutor
	Sinks      []events.Sink
	Source     string // service name recorded in events and the journal
}

// Client owns a Service and everything created for it.
type Client struct {
	Service   *secretsmanager.Service
	IAM       *auth.IAMAuthenticator // nil unless API key auth is used
	Resolver  *secrets.CredentialResolver
	Journal   *audit.Journal
	Notifier  *events.Notifier
	Refresher *jobs.TokenRefresher

	logger  *zap.Logger
	closers []func() error
	checks  map[string]func(context.Context) error
}

// New builds a Client. Connections opened here are released by Close.
func New(ctx context.Context, cfg *config.ClientConfig, logger *zap.Logger, deps Deps) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	gen, err := secretsmanager.ParseGeneration(cfg.Generation)
	if err != nil {
		return nil, err
	}
	if deps.Source == "" {
		deps.Source = "secrets-manager-sdk"
	}

	c := &Client{logger: logger, checks: map[string]func(context.Context) error{}}
	ok := false
	defer func() {
		if !ok {
			_ = c.Close()
		}
	}()

	serviceURL, iamURL := cfg.ServiceURL, cfg.IAMURL
	if cfg.Instance != "" {
		if err := c.initResolver(ctx, cfg, deps); err != nil {
			return nil, err
		}
		creds, err := c.Resolver.Resolve(ctx, cfg.Instance)
		if err != nil {
			return nil, err
		}
		if serviceURL == "" {
			serviceURL = creds.ServiceURL
		}
		if creds.IAMURL != "" {
			iamURL = creds.IAMURL
		}
		if serviceURL == "" {
			return nil, fmt.Errorf("instance %q has no service_url and SM_SERVICE_URL is unset", cfg.Instance)
		}
	}

	httpClient := deps.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.HTTPTimeout}
	}

	authn, err := c.authenticator(cfg, deps, httpClient, iamURL)
	if err != nil {
		return nil, err
	}

	observers := []operation.Observer{metrics.Observer{}}
	if o, err := c.initJournal(ctx, cfg, deps); err != nil {
		return nil, err
	} else if o != nil {
		observers = append(observers, o)
	}
	if o, err := c.initNotifier(cfg, deps); err != nil {
		return nil, err
	} else if o != nil {
		observers = append(observers, o)
	}

	rateMgr := rate.NewManager(rate.Config{RequestsPerSecond: cfg.RateRPS, Burst: cfg.RateBurst})
	exec := httpclient.New(logger.Named("httpclient"), rateMgr, httpClient, cfg.RetryMax)

	c.Service, err = secretsmanager.NewService(secretsmanager.Options{
		ServiceURL:     serviceURL,
		Headers:        cfg.DefaultHeaders,
		Authenticator:  authn,
		DisableRetries: cfg.DisableRetries,
		Generation:     gen,
		Executor:       exec,
		Logger:         logger,
		Observers:      observers,
	})
	if err != nil {
		return nil, err
	}

	if c.IAM != nil && cfg.TokenRefreshInterval > 0 {
		name := cfg.Instance
		if name == "" {
			name = "default"
		}
		c.Refresher = jobs.NewTokenRefresher(logger.Named("jobs"),
			map[string]jobs.Warmer{name: c.IAM}, cfg.TokenRefreshInterval)
	}

	logger.Info("client.ready",
		zap.String("service_url", serviceURL),
		zap.String("generation", string(gen)),
		zap.Int("observers", len(observers)),
		zap.Bool("iam", c.IAM != nil),
	)
	ok = true
	return c, nil
}

func (c *Client) initResolver(ctx context.Context, cfg *config.ClientConfig, deps Deps) error {
	provider := deps.Provider
	if provider == nil {
		p, err := pkgsecrets.NewAWSProvider(ctx, cfg.AWSRegion)
		if err != nil {
			return fmt.Errorf("aws secrets provider: %w", err)
		}
		provider = p
	}
	cache := pkgsecrets.NewCache[secrets.InstanceCredentials](cfg.CredentialCacheTTL)
	c.Resolver = secrets.NewCredentialResolver(c.logger.Named("secrets"), cfg.Env, provider, cache)
	return nil
}

func (c *Client) authenticator(cfg *config.ClientConfig, deps Deps, httpClient *http.Client, iamURL string) (operation.Authenticator, error) {
	var keys auth.APIKeySource
	switch {
	case cfg.BearerToken != "":
		return auth.BearerToken(cfg.BearerToken), nil
	case cfg.APIKey != "":
		keys = auth.StaticAPIKey(cfg.APIKey)
	case c.Resolver != nil:
		keys = c.Resolver.APIKeySource(cfg.Instance)
	default:
		c.logger.Warn("client.unauthenticated", zap.String("service_url", cfg.ServiceURL))
		return auth.NoAuth{}, nil
	}

	tokens := deps.TokenStore
	if tokens == nil && cfg.RedisAddr != "" {
		rs, err := store.NewRedisTokenStore(cfg.RedisAddr, cfg.RedisDB, c.logger.Named("store"))
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, rs.Close)
		c.checks["redis"] = rs.HealthCheck
		tokens = rs
	}

	opts := []auth.IAMOption{
		auth.WithIAMURL(iamURL),
		auth.WithHTTPClient(httpClient),
		auth.WithAuthLogger(c.logger.Named("auth")),
	}
	if tokens != nil {
		opts = append(opts, auth.WithTokenStore(tokens))
	}
	iam, err := auth.NewIAMAuthenticator(keys, opts...)
	if err != nil {
		return nil, err
	}
	c.IAM = iam
	return iam, nil
}

func (c *Client) initJournal(ctx context.Context, cfg *config.ClientConfig, deps Deps) (operation.Observer, error) {
	db := deps.DB
	if db == nil && cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("audit database %s: %w", utils.MaskDSN(cfg.DatabaseURL), err)
		}
		c.closers = append(c.closers, func() error { pool.Close(); return nil })
		c.checks["postgres"] = pool.Ping
		db = pool
	}
	if db == nil {
		return nil, nil
	}

	c.Journal = audit.NewJournal(db, c.logger.Named("audit"), deps.Source)
	if err := c.Journal.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("audit schema: %w", err)
	}
	return c.Journal, nil
}

func (c *Client) initNotifier(cfg *config.ClientConfig, deps Deps) (operation.Observer, error) {
	sinks := deps.Sinks
	if len(sinks) == 0 {
		if cfg.NATSURL != "" {
			nc, err := nats.Connect(cfg.NATSURL, nats.Name(deps.Source))
			if err != nil {
				return nil, fmt.Errorf("nats connect: %w", err)
			}
			sink, err := events.NewNATSSink(nc, deps.Source)
			if err != nil {
				nc.Close()
				return nil, fmt.Errorf("nats jetstream: %w", err)
			}
			c.closers = append(c.closers, func() error { sink.Close(); return nil })
			c.checks["nats"] = func(context.Context) error { return nc.FlushTimeout(time.Second) }
			sinks = append(sinks, sink)
		}
		if cfg.AMQPURL != "" {
			sink, err := events.DialAMQPSink(cfg.AMQPURL, cfg.AMQPExchange, deps.Source)
			if err != nil {
				return nil, fmt.Errorf("amqp %s: %w", utils.MaskDSN(cfg.AMQPURL), err)
			}
			c.closers = append(c.closers, sink.Close)
			sinks = append(sinks, sink)
		}
	}
	if len(sinks) == 0 {
		return nil, nil
	}
	c.Notifier = events.NewNotifier(c.logger.Named("events"), cfg.EventSubject, deps.Source, sinks...)
	return c.Notifier, nil
}

// HealthChecks returns a probe per connection opened by New.
func (c *Client) HealthChecks() map[string]func(context.Context) error {
	out := make(map[string]func(context.Context) error, len(c.checks))
	for k, v := range c.checks {
		out[k] = v
	}
	return out
}

// Close stops the refresher and releases connections in reverse order of
// creation.
func (c *Client) Close() error {
	if c.Refresher != nil {
		c.Refresher.Stop()
	}
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}
