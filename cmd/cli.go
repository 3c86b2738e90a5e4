package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/habedi/meterctl/auth"
	"github.com/habedi/meterctl/client"
	"github.com/habedi/meterctl/config"
	"github.com/habedi/meterctl/db"
	"github.com/habedi/meterctl/pkg/clierr"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// app carries what the subcommands share: the resolved configuration and a
// lazily built API client.
type app struct {
	configPath string
	apiURL     string

	cfg        *config.Config
	client     *client.Client
	closeStore func() error
}

// Execute runs the CLI and exits with a status derived from the error.
func Execute(ctx context.Context) {
	rootCmd, a := createRootCmd()
	err := rootCmd.ExecuteContext(ctx)
	if closeErr := a.close(); closeErr != nil {
		log.Error().Err(closeErr).Msg("Failed to close the credential store.")
	}
	if cliErr := clierr.FromError(err); cliErr != nil {
		log.Debug().Err(cliErr.Err).Str("type", string(cliErr.Type)).Msg("Command execution failed.")
		fmt.Fprintln(os.Stderr, "Error:", cliErr.Message)
		os.Exit(cliErr.ExitCode())
	}
}

func createRootCmd() (*cobra.Command, *app) {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:           "meterctl",
		Short:         "Admin client for the usage-metering platform",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to the config file (default ~/.meterctl/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&a.apiURL, "api-url", "", "Base URL of the metering API (overrides METERCTL_API_URL)")
	rootCmd.PersistentFlags().BoolP("help", "h", false, "Show help for a command")

	rootCmd.AddCommand(
		loginCmd(a),
		logoutCmd(a),
		whoamiCmd(a),
		usersCmd(a),
		keysCmd(a),
		pricingCmd(a),
		feedbackCmd(a),
		auditCmd(a),
		statsCmd(a),
		configCmd(a),
		versionCmd(),
	)

	rootCmd.CompletionOptions.HiddenDefaultCmd = true
	rootCmd.SetHelpCommand(&cobra.Command{
		Use:    "no-help",
		Hidden: true,
	})

	return rootCmd, a
}

// loadConfig resolves the configuration once per invocation.
func (a *app) loadConfig() (*config.Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}
	cfg, err := config.Load(config.DiscoverPath(a.configPath), config.WithAPIURL(a.apiURL))
	if err != nil {
		return nil, clierr.New(clierr.Validation, err.Error(), err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, clierr.New(clierr.Validation, "invalid configuration: "+err.Error(), err)
	}
	if cfg.Debug && zerolog.GlobalLevel() > zerolog.DebugLevel {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	a.cfg = cfg
	return cfg, nil
}

// apiClient builds the client on first use, opening the configured store.
func (a *app) apiClient(ctx context.Context) (*client.Client, error) {
	if a.client != nil {
		return a.client, nil
	}
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.closeStore = closeStore
	client.SetGlobalRequestRateLimit(cfg.RateLimit)
	a.client = client.New(client.Options{
		BaseURL: cfg.APIURL,
		Store:   store,
		Timeout: cfg.Timeout,
	})
	return a.client, nil
}

func (a *app) close() error {
	if a.closeStore == nil {
		return nil
	}
	err := a.closeStore()
	a.closeStore = nil
	return err
}

// openStore returns the credential store selected by cfg and a function that
// releases it.
func openStore(ctx context.Context, cfg *config.Config) (auth.Store, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Store {
	case config.StoreSQLite:
		db.Path = cfg.DBPath
		if err := db.InitDB(); err != nil {
			return nil, nil, fmt.Errorf("failed to open the credential database at %s: %w", cfg.DBPath, err)
		}
		return db.NewSQLiteStore(db.GetDB()), db.CloseDB, nil
	case config.StoreRedis:
		store, err := db.NewRedisStore(ctx, db.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: string(cfg.Redis.Password),
			DB:       cfg.Redis.DB,
		}, redisStoreOptions(cfg)...)
		if err != nil {
			return nil, nil, clierr.New(clierr.Network, err.Error(), err)
		}
		return store, store.Close, nil
	case config.StoreRedisMock:
		return db.NewMockRedisStore(redisStoreOptions(cfg)...), noop, nil
	default:
		return auth.NewMemoryStore(), noop, nil
	}
}

func redisStoreOptions(cfg *config.Config) []db.RedisStoreOption {
	opts := []db.RedisStoreOption{db.WithKeyPrefix(cfg.Redis.KeyPrefix)}
	if cfg.Redis.TTL > 0 {
		opts = append(opts, db.WithTTL(cfg.Redis.TTL))
	}
	return opts
}
