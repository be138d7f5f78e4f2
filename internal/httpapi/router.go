package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"modelrouter/internal/auth"
	"modelrouter/internal/backend"
	"modelrouter/internal/benchmark"
	"modelrouter/internal/config"
	"modelrouter/internal/memory"
	"modelrouter/internal/middleware"
	"modelrouter/internal/ratelimit"
	"modelrouter/internal/registry"
	"modelrouter/internal/routing"
	"modelrouter/internal/storage"
	"modelrouter/internal/tools"
	"modelrouter/internal/utils"
	"modelrouter/internal/workflow"
)

// Version is reported by /api/version.
const Version = "0.3.0"

// Dependencies aggregates all services the HTTP layer needs.
type Dependencies struct {
	Config    *config.Config
	Registry  *registry.Registry
	Routing   *routing.Engine
	Workflows *workflow.Engine
	Backend   *backend.Client
	Memory    memory.Store
	Tools     *tools.Registry
	APIKeys   auth.APIKeyStore
	RateLimit ratelimit.Limiter
	Sink      benchmark.Sink
	Admin     *auth.Admin
	Log       *utils.Logger

	// Long-lived resources, closed on shutdown. Any of these may be nil
	// depending on configuration.
	Redis      *redis.Client
	DB         *storage.DB
	Benchmarks *storage.BenchmarkRepository
	Worker     *benchmark.Worker
}

// NewRouter wires every service from the runtime configuration and the
// declarative YAML objects, then registers the HTTP routes.
func NewRouter(cfg *config.Config) (*http.ServeMux, *Dependencies, error) {
	log := utils.NewLogger("router")

	rc, err := config.LoadRouterConfig(cfg.ConfigDir)
	if err != nil {
		return nil, nil, fmt.Errorf("loading router config: %w", err)
	}

	reg, err := registry.New(rc.Models)
	if err != nil {
		return nil, nil, fmt.Errorf("building model registry: %w", err)
	}

	deps := &Dependencies{
		Config:   cfg,
		Registry: reg,
		Routing:  routing.NewEngine(rc.Rules, reg, log),
		Backend:  backend.NewClient(cfg.Backend.RequestTimeout),
		Tools:    tools.NewRegistry(),
		Log:      log,
	}

	needsRedis := cfg.MemoryBackend == "redis" || cfg.Benchmark.Enabled || cfg.RateLimitPerMinute > 0
	if needsRedis {
		deps.Redis = redis.NewClient(&redis.Options{
			Addr:         cfg.Redis.Address,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
	}

	if cfg.MemoryBackend == "redis" {
		deps.Memory = memory.NewRedisStore(deps.Redis, "")
	} else {
		deps.Memory = memory.NewInMemoryStore()
	}

	deps.Sink = benchmark.NewNoopSink()
	if cfg.Benchmark.Enabled {
		buffer := benchmark.NewRedisBuffer(deps.Redis, benchmark.RedisBufferConfig{
			QueueKey:  cfg.Benchmark.QueueKey,
			MaxSize:   cfg.Benchmark.MaxSize,
			BatchSize: cfg.Benchmark.BatchSize,
		})
		deps.Sink = benchmark.NewRedisSink(buffer, 0)

		if cfg.Database.URL != "" {
			db, err := storage.NewDB(storage.DBConfig{
				DSN:             cfg.Database.URL,
				MaxOpenConns:    cfg.Database.MaxOpenConns,
				MaxIdleConns:    cfg.Database.MaxIdleConns,
				ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
				ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
			})
			if err != nil {
				return nil, nil, fmt.Errorf("connecting to database: %w", err)
			}
			deps.DB = db
			deps.Benchmarks = storage.NewBenchmarkRepository(db)
			deps.Worker = benchmark.NewWorker(buffer, deps.Benchmarks, cfg.Benchmark.FlushInterval, log)
		}
	}

	deps.RateLimit = ratelimit.NewNoopLimiter()
	if cfg.RateLimitPerMinute > 0 {
		deps.RateLimit = ratelimit.NewSlidingWindowLimiter(deps.Redis, cfg.RateLimitPerMinute, time.Minute, log)
	}

	deps.APIKeys = auth.NewStaticAPIKeyStore(rc.APIKeys)
	if cfg.AdminPasswordHash != "" {
		deps.Admin = &auth.Admin{
			Username:     cfg.AdminUsername,
			PasswordHash: cfg.AdminPasswordHash,
		}
	}

	deps.Workflows = workflow.NewEngine(rc.Workflows, reg, deps.Memory, deps.Backend, deps.Tools, deps.Sink, log)

	mux := http.NewServeMux()
	registerRoutes(mux, deps)

	return mux, deps, nil
}

func registerRoutes(mux *http.ServeMux, deps *Dependencies) {
	// With no keys configured the router runs open, for single-user local
	// setups where the listener never leaves the loopback interface.
	apiKey := func(next http.Handler) http.Handler { return next }
	if store, ok := deps.APIKeys.(*auth.StaticAPIKeyStore); !ok || store.Len() > 0 {
		apiKey = middleware.APIKey(deps.APIKeys)
	} else {
		deps.Log.Warn("no API keys configured, /v1 routes accept unauthenticated requests")
	}

	mux.Handle("/v1/chat/completions", apiKey(http.HandlerFunc(deps.handleChat)))
	mux.Handle("/v1/workflows/", apiKey(http.HandlerFunc(deps.handleWorkflow)))
	mux.Handle("/v1/models", apiKey(http.HandlerFunc(deps.handleModels)))

	mux.HandleFunc("/health", deps.handleHealth)
	mux.HandleFunc("/api/version", deps.handleVersion)

	if deps.Admin != nil {
		adminJWT := middleware.AdminJWT(deps.Config.JWTSecret)
		mux.HandleFunc("/admin/login", deps.handleAdminLogin)
		mux.Handle("/admin/memory/reset", adminJWT(http.HandlerFunc(deps.handleMemoryReset)))
		mux.Handle("/admin/benchmarks", adminJWT(http.HandlerFunc(deps.handleBenchmarks)))
	}
}

// Close releases long-lived resources in reverse order of acquisition. The
// sink is flushed before the worker's final drain so queued records reach
// the buffer in time.
func (d *Dependencies) Close() {
	if sink, ok := d.Sink.(*benchmark.RedisSink); ok {
		sink.Close()
	}
	if d.Worker != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := d.Worker.Stop(ctx); err != nil {
			d.Log.Warn("stopping benchmark worker", "error", err)
		}
		cancel()
	}
	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			d.Log.Warn("closing database", "error", err)
		}
	}
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.Log.Warn("closing redis", "error", err)
		}
	}
}

// lastUserMessage walks an OpenAI-style messages array backwards and
// returns the content of the most recent user turn.
func lastUserMessage(payload map[string]any) string {
	raw, ok := payload["messages"].([]any)
	if !ok {
		return ""
	}
	for i := len(raw) - 1; i >= 0; i-- {
		msg, ok := raw[i].(map[string]any)
		if !ok {
			continue
		}
		if role, _ := msg["role"].(string); role != "user" {
			continue
		}
		if content, ok := msg["content"].(string); ok {
			return content
		}
	}
	return ""
}

// routeRequest builds the routing request from an OpenAI-style payload. The
// optional top-level "file" field carries the editor's active file path.
func routeRequest(payload map[string]any) routing.Request {
	prompt := lastUserMessage(payload)
	file, _ := payload["file"].(string)
	return routing.Request{
		Extension: routing.ExtensionOf(file),
		Prompt:    prompt,
	}
}
