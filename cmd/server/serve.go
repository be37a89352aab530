package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/study-coach/backend/internal/auth"
	"github.com/study-coach/backend/internal/coach"
	"github.com/study-coach/backend/internal/config"
	"github.com/study-coach/backend/internal/database"
	"github.com/study-coach/backend/internal/generator"
	"github.com/study-coach/backend/internal/logger"
	"github.com/study-coach/backend/internal/middleware"
	"github.com/study-coach/backend/internal/storage"
	"github.com/study-coach/backend/internal/study"
)

func newServeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().String("port", "", "listen port")
	cmd.Flags().String("state-backend", "", "learner state backend: sql, redis or memory")
	_ = v.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	cmd.Flags().String("bank", "", "question bank JSON file, replaces the built-in bank")
	_ = v.BindPFlag("state.backend", cmd.Flags().Lookup("state-backend"))
	_ = v.BindPFlag("bank_file", cmd.Flags().Lookup("bank"))
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	log, err := logger.New(cfg.Mode)
	if err != nil {
		return errors.Wrap(err, "init logger")
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := database.Connect(database.Config{
		Driver:   cfg.Database.Driver,
		Path:     cfg.Database.Path,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		Name:     cfg.Database.Name,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		return err
	}
	log.Info("database ready", "driver", db.Driver)

	store, err := openStateStore(ctx, cfg, db)
	if err != nil {
		return err
	}
	defer store.Close()
	log.Info("learner state store ready", "backend", cfg.State.Backend)

	bank, err := loadBank(cfg.BankFile)
	if err != nil {
		return err
	}

	tutor, err := newTutor(cfg, bank, log)
	if err != nil {
		return err
	}
	log.Info("coach ready", "tutor", tutor.Name(), "questions", bank.Len())

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		secret = randomSecret()
		log.Warn("auth.jwt_secret is not set; using a random secret, tokens will not survive a restart")
	}
	tokens := auth.NewTokens(secret, cfg.Auth.TokenTTL)

	// Initialize handlers
	authHandler := auth.NewHandler(db, tokens, log)
	studyService := study.NewService(
		storage.NewRepository(store, log),
		coach.NewSession(tutor),
		bank,
		log,
	)
	studyHandler := study.NewHandler(studyService, log)

	authMiddleware := middleware.NewAuth(tokens, log)
	chatLimiter := middleware.NewRateLimiter(cfg.Chat.RatePerMinute, cfg.Chat.Burst)

	// Setup router
	r := mux.NewRouter()
	r.Use(middleware.RequestLogger(log))
	api := r.PathPrefix("/api/v1").Subrouter()

	// Public routes
	api.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	api.HandleFunc("/auth/login", authHandler.Login).Methods("POST")

	// Protected routes
	protected := api.PathPrefix("").Subrouter()
	protected.Use(authMiddleware.RequireAuth)
	protected.HandleFunc("/auth/me", authHandler.GetCurrentUser).Methods("GET")
	studyHandler.Routes(protected, chatLimiter.Limit)

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader, "Retry-After"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           c.Handler(r),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server failed")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down", "timeout", cfg.Server.ShutdownTimeout)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func openStateStore(ctx context.Context, cfg *config.Config, db *database.DB) (storage.Store, error) {
	switch cfg.State.Backend {
	case "redis":
		return storage.NewRedisStore(ctx, storage.RedisConfig{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
		})
	case "memory":
		return storage.NewMemoryStore(), nil
	default:
		return storage.NewSQLStore(db), nil
	}
}

func loadBank(path string) (*coach.Bank, error) {
	if path == "" {
		return coach.DefaultBank(), nil
	}
	return coach.LoadBankFile(path)
}

func newTutor(cfg *config.Config, bank *coach.Bank, log *logger.Logger) (coach.Coach, error) {
	if cfg.LLM.Tutor != "llm" {
		return coach.NewRuleTutor(bank), nil
	}
	llm, err := generator.New(generator.Config{
		Provider:        cfg.LLM.Provider,
		Model:           cfg.LLM.Model,
		AnthropicAPIKey: cfg.LLM.AnthropicAPIKey,
		OpenAIAPIKey:    cfg.LLM.OpenAIAPIKey,
		OpenAIBaseURL:   cfg.LLM.OpenAIBaseURL,
		CLIPath:         cfg.LLM.CLIPath,
		MaxTokens:       cfg.LLM.MaxTokens,
	}, log)
	if err != nil {
		return nil, err
	}
	return coach.NewLLMTutor(bank, llm, log), nil
}

func randomSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}
