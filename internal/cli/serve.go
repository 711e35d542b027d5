package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdeepam/ai-test-tool/internal/config"
	"github.com/pdeepam/ai-test-tool/internal/logger"
	"github.com/pdeepam/ai-test-tool/internal/metrics"
	"github.com/pdeepam/ai-test-tool/pkg/agent"
	"github.com/pdeepam/ai-test-tool/pkg/browser"
	"github.com/pdeepam/ai-test-tool/pkg/driver"
	"github.com/pdeepam/ai-test-tool/pkg/lifecycle"
	"github.com/pdeepam/ai-test-tool/pkg/retention"
	"github.com/pdeepam/ai-test-tool/pkg/server"
	"github.com/pdeepam/ai-test-tool/pkg/testcase"
	"github.com/pdeepam/ai-test-tool/pkg/tracker"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the test engine HTTP server",
	Long: `Run the test engine HTTP server in the foreground.
The server accepts test case batches, executes them with AI browser
agents, and serves per-session progress and results until interrupted.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	loader := config.NewLoader(cfgFile)
	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	lg, err := logger.New(logger.Config{
		Level:   cfg.Logging.Level,
		File:    cfg.Logging.File,
		Console: cfg.Logging.Console,
		Pretty:  cfg.Logging.Pretty,
	})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer lg.Close()
	zl := lg.GetZerolog()

	// Config file keys win over environment keys.
	creds := agent.CredentialsFromEnv().Merge(agent.Credentials{
		GoogleAPIKey:    cfg.AI.GoogleAPIKey,
		OpenAIAPIKey:    cfg.AI.OpenAIAPIKey,
		AnthropicAPIKey: cfg.AI.AnthropicAPIKey,
	})
	provider := agent.SelectProvider(creds, zl)

	browserProvider := browser.NewRodProvider(zl)
	ctrl, err := lifecycle.NewController(lifecycle.Options{
		Provider: browserProvider,
		Engines: func(res *browser.Resource, runCfg testcase.RunConfig) agent.Engine {
			return agent.NewLLMEngine(agent.Options{
				Provider:    provider,
				Browser:     res.Browser,
				Model:       cfg.AI.Model,
				MaxSteps:    runCfg.MaxSteps,
				Temperature: cfg.AI.Temperature,
				Logger:      zl,
			})
		},
		Logger:     zl,
		ChromePath: cfg.Browser.ChromePath,
	})
	if err != nil {
		return fmt.Errorf("failed to create lifecycle controller: %w", err)
	}

	trk := tracker.New(zl)

	m := metrics.NewMetrics()
	m.RegisterActiveSessions(func() float64 {
		return float64(trk.Stats().ActiveSessions)
	})

	drivers := &driver.Factory{Tracker: trk, Ctrl: ctrl, Logger: zl, Metrics: m}

	srv, err := server.NewServer(server.Options{
		Host: cfg.Server.Host,
		Port: cfg.Server.Port,
		Defaults: testcase.RunConfig{
			Headless:           cfg.Browser.Headless,
			UseExistingBrowser: cfg.Browser.UseExistingBrowser,
			CDPURL:             cfg.Browser.CDPURL,
		},
		Metrics:      m,
		ProviderName: provider.Name(),
	}, trk, drivers, zl)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	sweeper, err := retention.NewSweeper(trk, time.Duration(cfg.Retention.TTLHours)*time.Hour, cfg.Retention.Schedule, zl)
	if err != nil {
		return fmt.Errorf("failed to create retention sweeper: %w", err)
	}
	sweeper.WithMetrics(m)
	if err := sweeper.Start(); err != nil {
		return fmt.Errorf("failed to start retention sweeper: %w", err)
	}
	defer sweeper.Stop()

	watcher, err := config.NewWatcher(loader, func(updated *config.Config) {
		logger.SetLevel(updated.Logging.Level)
	}, zl)
	if err == nil {
		if err := watcher.Start(); err != nil {
			zl.Warn().Err(err).Msg("Config hot reload disabled")
		} else {
			defer watcher.Stop()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		zl.Info().Msg("Shutdown signal received")
		return srv.Stop()
	}
}
