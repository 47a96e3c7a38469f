package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/ingelean/leanbot/internal/config"
	"github.com/ingelean/leanbot/internal/db"
	dbMemory "github.com/ingelean/leanbot/internal/db/memory"
	dbRedis "github.com/ingelean/leanbot/internal/db/redis"
	"github.com/ingelean/leanbot/internal/domain/synonym"
	"github.com/ingelean/leanbot/internal/jobs"
	logpkg "github.com/ingelean/leanbot/internal/logger"
	"github.com/ingelean/leanbot/internal/metrics"
	sessionrepo "github.com/ingelean/leanbot/internal/repository/session"
	"github.com/ingelean/leanbot/internal/transport/backend"
	chiTransport "github.com/ingelean/leanbot/internal/transport/chi"
	corpusLoader "github.com/ingelean/leanbot/internal/transport/corpus"
	openaiLLM "github.com/ingelean/leanbot/internal/transport/openai"
	chatuc "github.com/ingelean/leanbot/internal/usecase/chat"
	dashboarduc "github.com/ingelean/leanbot/internal/usecase/dashboard"
	healthuc "github.com/ingelean/leanbot/internal/usecase/health"
	"github.com/ingelean/leanbot/internal/usecase/match"
	sessionuc "github.com/ingelean/leanbot/internal/usecase/session"
	"github.com/ingelean/leanbot/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()
	cfg := config.MustLoad(env)

	logger, err := logpkg.NewLogger(env, logpkg.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting LEAN BOT gateway",
		zap.String("version", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("backend_url", cfg.Backend.BaseURL),
		zap.String("session_driver", cfg.Session.Driver),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := openStore(ctx, cfg.Session, logger)
	defer store.Close()

	// Register chat metrics explicitly (no init())
	metrics.RegisterChatMetrics()

	// Remote backend and its availability prober. Without a base URL every
	// answer is local.
	var (
		backendClient *backend.Client
		prober        *jobs.Prober
		chatBackend   chatuc.Backend
		dashBackend   dashboarduc.Backend
		registrar     sessionuc.Registrar
		backendPinger healthuc.Pinger
		avail         availabilityFlag = offline{}
	)
	if cfg.Backend.BaseURL != "" {
		backendClient = backend.New(&backend.Config{
			BaseURL: cfg.Backend.BaseURL,
			Timeout: time.Duration(cfg.Backend.TimeoutSec) * time.Second,
			Logger:  logger,
		})
		prober = jobs.NewProber(backendClient, time.Duration(cfg.Backend.ProbeIntervalSec)*time.Second, logger)
		if cfg.LLM.ForwardKey {
			prober.WithAPIKey(cfg.LLM.APIKey)
		}
		chatBackend, dashBackend, registrar, backendPinger = backendClient, backendClient, backendClient, backendClient
		avail = prober
	}

	// Fallback matcher: corpus + term expander
	matcher := buildMatcher(ctx, cfg, logger)

	// External LLM, only when enabled
	var (
		llmClient  *openaiLLM.Client
		llmChecker healthuc.LLMChecker
	)
	if cfg.LLM.Enabled {
		llmClient = openaiLLM.NewClient(&openaiLLM.Config{
			APIKey:  cfg.LLM.APIKey,
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.LLM.Model,
			Timeout: time.Duration(cfg.LLM.TimeoutSec) * time.Second,
			Logger:  logger,
		})
		llmChecker = llmClient
		logger.Info("External LLM enabled", zap.String("model", llmClient.Model()))
	}

	// Use case services
	sessions := sessionuc.New(
		sessionrepo.New(store, time.Duration(cfg.Session.TTLHours)*time.Hour),
		registrar, avail, logger,
	).WithMaxOffline(cfg.Session.MaxOffline)

	chatSvc := chatuc.New(chatBackend, avail, sessions, logger)
	corpusEntries := 0
	if matcher != nil {
		chatSvc.WithMatcher(matcher)
		corpusEntries = matcher.Len()
	}
	if llmClient != nil {
		chatSvc.WithLLM(llmClient)
	}

	dashboards := dashboarduc.New(dashBackend, avail, sessions, logger).WithSessions(sessions)

	healthSvc := healthuc.New(store, backendPinger, llmChecker, corpusEntries).WithSessionCounter(sessions)
	if backendClient != nil {
		healthSvc.WithBackendLLM(backendClient, avail)
	}

	if prober != nil {
		go prober.Run(ctx)
	}

	// Create chi server
	server := chiTransport.NewServer(sessions, chatSvc, dashboards, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	chiTransport.HandlerWithOptions(server, chiTransport.ChiServerOptions{
		BaseRouter:       r,
		AdminMiddlewares: []func(http.Handler) http.Handler{chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys)},
		ErrorHandlerFunc: func(w http.ResponseWriter, _ *http.Request, err error) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(chiTransport.ErrorResponse{
				Code:    chiTransport.ErrorCodeBadRequest,
				Message: "invalid request",
			})
		},
	})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// availabilityFlag is satisfied by the prober and by offline.
type availabilityFlag interface {
	Available() bool
}

// offline is the availability flag when no backend is configured.
type offline struct{}

func (offline) Available() bool { return false }

// openStore creates the session store for the configured driver.
func openStore(ctx context.Context, cfg config.SessionConfig, logger *zap.Logger) db.Store {
	var (
		store db.Store
		err   error
	)
	switch cfg.Driver {
	case config.DriverRedis:
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Addrs,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
	case config.DriverMemory:
		store = dbMemory.NewStore()
	default:
		logger.Fatal("Unknown session driver", zap.String("driver", cfg.Driver))
	}
	if err != nil {
		logger.Fatal("Failed to create session store", zap.Error(err))
	}

	// Wait for the store to be ready
	if err := store.WaitForReady(ctx, time.Duration(cfg.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Session store not ready", zap.Error(err))
	}
	logger.Info("Connected to session store", zap.String("driver", cfg.Driver))
	return store
}

// buildMatcher loads the corpus and synonyms. It returns nil when the corpus
// cannot be loaded; the responder then answers with the static message.
func buildMatcher(ctx context.Context, cfg config.Config, logger *zap.Logger) *match.Matcher {
	loader := corpusLoader.NewLoader(&corpusLoader.Config{
		Source:  cfg.Corpus.Source,
		Timeout: time.Duration(cfg.Corpus.TimeoutSec) * time.Second,
		Logger:  logger,
	})
	faq, err := loader.Load(ctx)
	if err != nil {
		logger.Error("Corpus not loaded, local answers limited to the static message",
			zap.String("source", cfg.Corpus.Source), zap.Error(err))
		return nil
	}

	synonyms := loadSynonyms(cfg.Matcher.SynonymsFile, logger)
	logger.Info("Corpus loaded",
		zap.Int("entries", faq.Len()),
		zap.Int("synonyms", synonyms.Len()),
		zap.Float64("threshold", cfg.Matcher.Threshold),
	)
	return match.New(faq, synonyms, match.Config{
		Threshold: cfg.Matcher.Threshold,
		NoAnswer:  cfg.Matcher.NoAnswer,
	})
}

func loadSynonyms(path string, logger *zap.Logger) synonym.Table {
	if path == "" {
		return synonym.Default()
	}
	t, err := synonym.Load(path)
	if err != nil {
		logger.Warn("Synonyms file not loaded, using built-in table", zap.String("path", path), zap.Error(err))
		return synonym.Default()
	}
	return t
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(chiTransport.ErrorResponse{
						Code:    chiTransport.ErrorCodeInternalError,
						Message: "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.String("reply_source", ww.Header().Get(metrics.ReplySourceHeader)),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
