package actbot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/actbot/internal/config"
	"github.com/aretw0/actbot/internal/logging"
	"github.com/aretw0/actbot/internal/runtime"
	"github.com/aretw0/actbot/pkg/adapters/file"
	"github.com/aretw0/actbot/pkg/adapters/logsink"
	"github.com/aretw0/actbot/pkg/adapters/memory"
	"github.com/aretw0/actbot/pkg/adapters/redis"
	"github.com/aretw0/actbot/pkg/adapters/sqlite"
	"github.com/aretw0/actbot/pkg/domain"
	"github.com/aretw0/actbot/pkg/observability"
	"github.com/aretw0/actbot/pkg/persistence/middleware"
	"github.com/aretw0/actbot/pkg/ports"
	"github.com/aretw0/actbot/pkg/session"
)

// Bot is the high-level entry point of the library. It wires a session store,
// the collaborators, the interview engine and the inactivity timers from a
// configuration, and exposes the resulting session service.
type Bot struct {
	config    *config.Config
	logger    *slog.Logger
	metrics   *observability.Metrics
	hooks     domain.LifecycleHooks
	store     ports.SessionStore
	locker    ports.DistributedLocker
	persister ports.AnswerPersister
	recorder  ports.EventRecorder
	mailer    ports.ResumeMailer
	listeners []session.Listener
	noTimers  bool

	service *session.Service
	closers []func() error
}

// Option defines a functional option for configuring the Bot.
type Option func(*Bot)

// WithLogger sets the structured logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bot) {
		b.logger = logger
	}
}

// WithMetrics binds Prometheus collectors to the engine hooks.
func WithMetrics(m *observability.Metrics) Option {
	return func(b *Bot) {
		b.metrics = m
	}
}

// WithLifecycleHooks registers additional observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(b *Bot) {
		b.hooks = b.hooks.Merge(hooks)
	}
}

// WithSessionStore injects a store, bypassing the configured backend.
func WithSessionStore(store ports.SessionStore) Option {
	return func(b *Bot) {
		b.store = store
	}
}

// WithCollaborators injects the external services, bypassing the configured backend.
// Any of them may be nil to skip its side effects.
func WithCollaborators(p ports.AnswerPersister, r ports.EventRecorder, m ports.ResumeMailer) Option {
	return func(b *Bot) {
		b.persister, b.recorder, b.mailer = p, r, m
	}
}

// WithListener receives every session update.
func WithListener(l session.Listener) Option {
	return func(b *Bot) {
		b.listeners = append(b.listeners, l)
	}
}

// WithoutTimers disables the inactivity nudge and timeout.
func WithoutTimers() Option {
	return func(b *Bot) {
		b.noTimers = true
	}
}

// New builds a Bot. A nil cfg uses config.Default().
func New(cfg *config.Config, opts ...Option) (*Bot, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	b := &Bot{config: cfg}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = logging.NewNop()
	}

	if err := b.initStore(); err != nil {
		b.Close()
		return nil, err
	}
	if err := b.initCollaborators(); err != nil {
		b.Close()
		return nil, err
	}

	engine := runtime.NewEngine(b.engineOptions()...)

	managerOpts := []session.Option{
		session.WithLogger(b.logger),
		session.WithLockTTL(cfg.Store.LockTTL),
	}
	if b.locker != nil {
		managerOpts = append(managerOpts, session.WithLocker(b.locker))
	}
	manager := session.NewManager(b.store, managerOpts...)

	serviceOpts := []session.ServiceOption{
		session.WithServiceLogger(b.logger),
		session.WithDispatcher(session.NewDispatcher(b.persister, b.recorder, b.mailer, b.logger)),
	}
	if !b.noTimers {
		serviceOpts = append(serviceOpts, session.WithInactivityTimers(cfg.Engine.NudgeAfter, cfg.Engine.TimeoutAfter))
	}
	for _, l := range b.listeners {
		serviceOpts = append(serviceOpts, session.WithListener(l))
	}
	b.service = session.NewService(engine, manager, serviceOpts...)

	b.logger.Debug("bot ready",
		"store", cfg.Store.Backend,
		"collaborators", cfg.Collaborators.Backend,
		"encrypted", cfg.Store.EncryptionKey != "",
	)
	return b, nil
}

func (b *Bot) engineOptions() []runtime.EngineOption {
	cfg := b.config.Engine
	opts := []runtime.EngineOption{
		runtime.WithLogger(b.logger),
		runtime.WithPacing(cfg.AnswerPacing, cfg.CompletionPacing),
		runtime.WithMaxInvalidInputs(cfg.MaxInvalidInputs),
		runtime.WithLifecycleHooks(observability.LoggingHooks(b.logger)),
		runtime.WithLifecycleHooks(b.hooks),
	}
	if cfg.BypassToken != "" {
		opts = append(opts, runtime.WithBypassToken(cfg.BypassToken))
	}
	if b.metrics != nil {
		opts = append(opts, runtime.WithLifecycleHooks(b.metrics.Hooks()))
	}
	return opts
}

func (b *Bot) initStore() error {
	cfg := b.config.Store
	if b.store == nil {
		switch cfg.Backend {
		case config.StoreMemory, "":
			b.store = memory.NewStore()
		case config.StoreFile:
			b.store = file.New(cfg.Path)
		case config.StoreRedis:
			prefix := cfg.Prefix
			if prefix == "" {
				prefix = redis.DefaultPrefix
			}
			rs := redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB,
				redis.WithPrefix(prefix),
				redis.WithTTL(cfg.TTL),
			)
			b.closers = append(b.closers, rs.Close)
			b.store = rs
			b.locker = redis.NewLocker(rs.Client(), prefix)
		default:
			return fmt.Errorf("unknown session store %q", cfg.Backend)
		}
	}

	if cfg.EncryptionKey == "" {
		return nil
	}
	active, err := middleware.ParseKey(cfg.EncryptionKey)
	if err != nil {
		return fmt.Errorf("store encryption: %w", err)
	}
	enc := middleware.EncryptionConfig{ActiveKey: active}
	for i, k := range cfg.FallbackKeys {
		key, err := middleware.ParseKey(k)
		if err != nil {
			return fmt.Errorf("store encryption fallback key %d: %w", i, err)
		}
		enc.FallbackKeys = append(enc.FallbackKeys, key)
	}
	b.store = middleware.Chain(b.store, middleware.NewEncryptionMiddleware(enc))
	return nil
}

func (b *Bot) initCollaborators() error {
	cfg := b.config.Collaborators
	if b.persister == nil && b.recorder == nil && b.mailer == nil {
		switch cfg.Backend {
		case config.CollaboratorsLog, "":
			var opts []logsink.Option
			if cfg.ResumeURL != "" {
				opts = append(opts, logsink.WithResumeURL(cfg.ResumeURL))
			}
			sink := logsink.New(b.logger, opts...)
			b.persister, b.recorder, b.mailer = sink, sink, sink
		case config.CollaboratorsSQLite:
			db, err := sqlite.Open(cfg.SQLitePath)
			if err != nil {
				return err
			}
			b.closers = append(b.closers, db.Close)
			b.persister, b.recorder, b.mailer = db, db, db
		case config.CollaboratorsMemory:
			c := memory.NewCollaborator()
			b.persister, b.recorder, b.mailer = c, c, c
		default:
			return fmt.Errorf("unknown collaborators backend %q", cfg.Backend)
		}
	}

	if !cfg.MaskPII {
		return nil
	}
	fields := cfg.PIIFields
	if len(fields) == 0 {
		fields = middleware.DefaultPIIFields
	}
	masker, err := middleware.NewPIIMasker(fields)
	if err != nil {
		return err
	}
	if b.persister != nil {
		b.persister = masker.Persister(b.persister)
	}
	if b.recorder != nil {
		b.recorder = masker.Recorder(b.recorder)
	}
	return nil
}

// Service returns the session service driving the interview.
func (b *Bot) Service() *session.Service {
	return b.service
}

// Config returns the configuration the bot was built from.
func (b *Bot) Config() *config.Config {
	return b.config
}

// Logger returns the bot logger.
func (b *Bot) Logger() *slog.Logger {
	return b.logger
}

// Start opens a new session.
func (b *Bot) Start(ctx context.Context, opts domain.StartOptions) (*session.Result, error) {
	return b.service.Start(ctx, opts)
}

// Submit answers the current question of a session.
func (b *Bot) Submit(ctx context.Context, sessionID, answer string) (*session.Result, error) {
	return b.service.Submit(ctx, sessionID, answer)
}

// Close stops the timers and releases the store and collaborator connections.
func (b *Bot) Close() error {
	if b.service != nil {
		b.service.Close()
	}
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	b.closers = nil
	return errors.Join(errs...)
}
