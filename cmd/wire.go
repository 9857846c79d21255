package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	apiclient "github.com/avelara/coachctl/internal/adapters/api"
	"github.com/avelara/coachctl/internal/adapters/render/dashboard"
	chainstore "github.com/avelara/coachctl/internal/adapters/state/chain"
	"github.com/avelara/coachctl/internal/application"
	"github.com/avelara/coachctl/internal/domain"
	"github.com/avelara/coachctl/internal/ports"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	configDirName  = ".coachctl"
	configFileName = "config"
)

type app struct {
	session *application.SessionManager
	sync    *application.SyncManager
	journal *application.Journal
	api     *apiclient.Client
	store   ports.StateStore

	renderDashboard func(application.DashboardSnapshot, dashboard.RenderOptions) (string, error)
	logger          *zap.Logger
	now             func() time.Time
}

func wireApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("wire logger: %w", err)
	}

	store, err := chainstore.NewDurableWithMemoryFallback(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("wire state store: %w", err)
	}

	client := &apiclient.Client{
		BaseURL:        cfg.GetString("api.base_url"),
		RequestTimeout: cfg.GetDuration("api.timeout"),
		Logger:         logger,
	}

	clock := ports.SystemClock{}
	session := application.NewSessionManager(client, store, clock, logger)

	syncManager := application.NewSyncManager(application.SyncConfig{
		FetchTransactions: func(ctx context.Context) ([]domain.Transaction, error) {
			token := session.Token()
			if token == "" {
				return nil, domain.ErrNoSession
			}
			return client.ListTransactions(ctx, token)
		},
		FetchGoals: func(ctx context.Context) ([]domain.Goal, error) {
			token := session.Token()
			if token == "" {
				return nil, domain.ErrNoSession
			}
			return client.ListGoals(ctx, token)
		},
		FetchConnections: func(ctx context.Context) ([]domain.Connection, error) {
			token := session.Token()
			if token == "" {
				return nil, domain.ErrNoSession
			}
			return client.ListConnections(ctx, token)
		},
		TransactionInterval: cfg.GetDuration("sync.transaction_interval"),
		GoalInterval:        cfg.GetDuration("sync.goal_interval"),
		ConnectionInterval:  cfg.GetDuration("sync.connection_interval"),
		FollowUpDelay:       cfg.GetDuration("sync.follow_up_delay"),
		Clock:               clock,
		Logger:              logger,
	})

	return &app{
		session:         session,
		sync:            syncManager,
		journal:         application.NewJournal(store, clock, logger),
		api:             client,
		store:           store,
		renderDashboard: dashboard.Render,
		logger:          logger,
		now:             time.Now,
	}, nil
}

func loadConfig() (*viper.Viper, error) {
	cfg := viper.New()
	cfg.SetConfigName(configFileName)
	cfg.SetConfigType("toml")

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}
	cfg.AddConfigPath(filepath.Join(homeDir, configDirName))

	cfg.SetEnvPrefix("COACHCTL")
	cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cfg.AutomaticEnv()

	cfg.SetDefault("api.base_url", "https://api.coachvelara.com")
	cfg.SetDefault("api.timeout", 30*time.Second)

	if err := cfg.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	return cfg, nil
}

func newLogger(cfg *viper.Viper) (*zap.Logger, error) {
	if !cfg.GetBool("log.verbose") {
		return zap.NewNop(), nil
	}

	return zap.NewDevelopment()
}
