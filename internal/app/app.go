package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"token-change-alerts/internal/alerting"
	"token-change-alerts/internal/chain"
	"token-change-alerts/internal/config"
	"token-change-alerts/internal/metadata"
	"token-change-alerts/internal/scheduler"
	"token-change-alerts/internal/storage"
	"token-change-alerts/internal/watcher"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

func (a *App) newChainClient() *chain.Client {
	return chain.NewClient(chain.Options{
		RPCURL:      a.Config.Solana.RPCURL,
		MaxInflight: a.Config.Solana.MaxInflight,
		Timeout:     a.Config.Solana.RequestTimeout,
	}, a.Logger)
}

func (a *App) newResolver() metadata.Resolver {
	return metadata.NewMoralis(metadata.Options{
		BaseURL: a.Config.Moralis.BaseURL,
		APIKey:  a.Config.Moralis.APIKey,
		Network: a.Config.Moralis.Network,
		Timeout: a.Config.Moralis.RequestTimeout,
	}, a.Logger)
}

func (a *App) newNotifier() alerting.Notifier {
	return alerting.NewDiscordNotifier(alerting.Options{
		WebhookURL:        a.Config.Discord.WebhookURL,
		ResultsWebhookURL: a.Config.Discord.ResultsWebhookURL,
		ErrorsWebhookURL:  a.Config.Discord.ErrorsWebhookURL,
		Timeout:           a.Config.Discord.RequestTimeout,
	}, a.Logger)
}

// Run executes the long-running monitoring service.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	sched := scheduler.New(scheduler.Options{
		Interval:     a.Config.Scheduler.Interval,
		StartupDelay: a.Config.Scheduler.StartupDelay,
	}, a.Logger)

	svc := watcher.New(
		store,
		store,
		a.newChainClient(),
		a.newResolver(),
		a.newNotifier(),
		watcher.Options{
			Concurrency: a.Config.Scheduler.Concurrency,
			NativeMint:  a.Config.Solana.NativeMint,
		},
		a.Logger,
	)

	a.Logger.Info().Msg("starting monitoring service")
	err = sched.Run(ctx, svc.RunCycle)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("service terminated with error")
		return err
	}

	a.Logger.Info().Msg("monitoring service stopped")
	return nil
}
