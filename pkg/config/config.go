// Package config loads layered engine configuration (defaults, then env vars)
// using koanf, and carries the resolved value on a context.Context the way
// pkg/logger carries a Logger. It provides no file-backed Provider.
package config

import (
	"context"
	"fmt"
	"time"

	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// Worker controls the Temporal-backed runner.
type Worker struct {
	TaskQueue             string        `koanf:"task_queue"`
	DispatcherMaxRetries  int           `koanf:"dispatcher_max_retries"`
	DispatcherRetryDelay  time.Duration `koanf:"dispatcher_retry_delay"`
	StartWorkflowTimeout  time.Duration `koanf:"start_workflow_timeout"`
	MaxConcurrentWorkflow int           `koanf:"max_concurrent_workflow"`
}

// Queue controls the default queue transport and its tuning knobs.
type Queue struct {
	Transport    string        `koanf:"transport"` // memory | redis | amqp | file
	RedisAddr    string        `koanf:"redis_addr"`
	AMQPURL      string        `koanf:"amqp_url"`
	FileDir      string        `koanf:"file_dir"`
	BatchSize    int           `koanf:"batch_size"`
	RetryDelay   time.Duration `koanf:"retry_delay"`
	MaxAttempts  int           `koanf:"max_attempts"`
	DeadLetterOn bool          `koanf:"dead_letter_on"`
}

// Cost controls the budget tracker.
type Cost struct {
	DefaultCurrency string `koanf:"default_currency"`
	PersistEnabled  bool   `koanf:"persist_enabled"`
}

// Config is the full resolved engine configuration tree.
type Config struct {
	Worker Worker `koanf:"worker"`
	Queue  Queue  `koanf:"queue"`
	Cost   Cost   `koanf:"cost"`
}

// Default returns the engine's built-in defaults, the base layer every Manager
// starts from before env/file providers are merged in.
func Default() *Config {
	return &Config{
		Worker: Worker{
			TaskQueue:             "stepwise-default",
			DispatcherMaxRetries:  5,
			DispatcherRetryDelay:  time.Second,
			StartWorkflowTimeout:  30 * time.Second,
			MaxConcurrentWorkflow: 100,
		},
		Queue: Queue{
			Transport:    "memory",
			BatchSize:    10,
			RetryDelay:   5 * time.Second,
			MaxAttempts:  3,
			DeadLetterOn: true,
		},
		Cost: Cost{
			DefaultCurrency: "USD",
		},
	}
}

// Provider supplies one configuration layer to a Manager.
type Provider interface {
	Load(k *koanf.Koanf) error
}

// defaultProvider loads Default() as the base layer.
type defaultProvider struct{}

// NewDefaultProvider returns a Provider that seeds the base defaults.
func NewDefaultProvider() Provider { return defaultProvider{} }

func (defaultProvider) Load(k *koanf.Koanf) error {
	return k.Load(structs.Provider(Default(), "koanf"), nil)
}

// EnvProvider loads values from environment variables sharing a prefix, e.g.
// STEPWISE_WORKER_TASK_QUEUE -> worker.task_queue.
type EnvProvider struct {
	Prefix string
}

func NewEnvProvider(prefix string) Provider { return EnvProvider{Prefix: prefix} }

func (p EnvProvider) Load(k *koanf.Koanf) error {
	prefix := p.Prefix
	if prefix == "" {
		prefix = "STEPWISE_"
	}
	return k.Load(env.Provider(".", env.Opt{
		Prefix: prefix,
		TransformFunc: func(key, value string) (string, any) {
			return koanfEnvKey(key, prefix), value
		},
	}), nil)
}

func koanfEnvKey(key, prefix string) string {
	trimmed := key[len(prefix):]
	return normalizeEnvKey(trimmed)
}

func normalizeEnvKey(s string) string {
	out := make([]rune, 0, len(s))
	sectionSplit := false
	for _, r := range s {
		switch {
		case r == '_' && !sectionSplit:
			out = append(out, '.')
			sectionSplit = true
		case r >= 'A' && r <= 'Z':
			out = append(out, r-'A'+'a')
		default:
			out = append(out, r)
		}
	}
	return string(out)
}

// Manager owns the layered koanf instance and the resolved Config snapshot.
type Manager struct {
	k   *koanf.Koanf
	cfg *Config
}

// Service is a thin factory the Manager delegates koanf construction to,
// kept separate so tests can substitute a Service producing a pre-seeded koanf.
type Service struct{}

func NewService() *Service { return &Service{} }

func (s *Service) newKoanf() *koanf.Koanf {
	return koanf.New(".")
}

// NewManager builds a Manager bound to the given Service.
func NewManager(svc *Service) *Manager {
	if svc == nil {
		svc = NewService()
	}
	return &Manager{k: svc.newKoanf()}
}

// Load applies providers in order (later providers override earlier ones) and
// unmarshals the merged result into a Config snapshot.
func (m *Manager) Load(_ context.Context, providers ...Provider) (*Config, error) {
	for _, p := range providers {
		if err := p.Load(m.k); err != nil {
			return nil, fmt.Errorf("failed to load config provider: %w", err)
		}
	}
	cfg := &Config{}
	if err := m.k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	m.cfg = cfg
	return cfg, nil
}

// Get returns the last Config snapshot produced by Load.
func (m *Manager) Get() *Config {
	if m.cfg == nil {
		return Default()
	}
	return m.cfg
}

type managerCtxKey struct{}

// ContextWithManager attaches a Manager to ctx.
func ContextWithManager(ctx context.Context, m *Manager) context.Context {
	return context.WithValue(ctx, managerCtxKey{}, m)
}

// ManagerFromContext returns the Manager attached to ctx, or a fresh Manager
// seeded with defaults when none is present.
func ManagerFromContext(ctx context.Context) *Manager {
	if ctx != nil {
		if m, ok := ctx.Value(managerCtxKey{}).(*Manager); ok && m != nil {
			return m
		}
	}
	m := NewManager(NewService())
	_, _ = m.Load(context.Background(), NewDefaultProvider())
	return m
}
