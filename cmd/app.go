package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"sync"
	"syscall"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"github.com/KunalPandey-675/oceanResQ/internal/components"
	"github.com/KunalPandey-675/oceanResQ/internal/config"
	"github.com/KunalPandey-675/oceanResQ/internal/storage/postgres"
)

// Run executes the root command; serve is the default.
func Run() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "oceanresq",
		Short:         "Coastal hazard reporting API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API and the critical-report notifier",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return serve(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply database migrations and exit",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return migrate(cmd.Context())
			},
		},
		newSeedCmd(),
	)

	return root
}

func serve(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := components.SetupLogger(cfg.Env)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	comps, err := components.InitComponents(ctx, cfg, logger)
	if err != nil {
		logger.Error("could not init components", "err", err)
		return err
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := comps.HttpServer.Run(ctx); err != nil {
			logger.Error("http server failed", "err", err)
			stop()
		}
		logger.Info("http server stopped")
	}()

	if comps.Webhook != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			comps.Webhook.Run(ctx)
		}()
	}

	<-ctx.Done()
	logger.Info("captured signal, initiating shutdown")

	wg.Wait()

	logger.Info("shutting down the services...")
	comps.ShutdownAll()
	logger.Info("gracefully shut down")

	return nil
}

func migrate(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.Store.Driver != config.StoreDriverPostgres {
		return fmt.Errorf("migrate needs STORE_DRIVER=%s, got %q", config.StoreDriverPostgres, cfg.Store.Driver)
	}
	logger := components.SetupLogger(cfg.Env)

	// NewPostgres migrates on connect when AutoMigrate is set
	cfg.Postgres.AutoMigrate = true
	pg, err := postgres.NewPostgres(ctx, cfg, clockwork.NewRealClock(), logger)
	if err != nil {
		return err
	}
	pg.Close()

	logger.Info("migrations applied")
	return nil
}
