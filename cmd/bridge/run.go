package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tootbridge/mastodon-chat-bridge/internal/biz/repo"
	"github.com/tootbridge/mastodon-chat-bridge/internal/biz/usecase"
	"github.com/tootbridge/mastodon-chat-bridge/internal/conf"
	"github.com/tootbridge/mastodon-chat-bridge/internal/data"
	"github.com/tootbridge/mastodon-chat-bridge/internal/infra/mastodon"
	"github.com/tootbridge/mastodon-chat-bridge/internal/logging"
	"github.com/tootbridge/mastodon-chat-bridge/internal/server"
	"github.com/tootbridge/mastodon-chat-bridge/internal/service"
)

const (
	shutdownTimeout     = 10 * time.Second
	costRefreshInterval = time.Minute
)

func runBridge(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := conf.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, logCloser, err := logging.New(cfg.ToLoggingConfig())
	if err != nil {
		return err
	}
	defer logCloser.Close()
	slog.SetDefault(logger)

	if cfg.Messages.Source != "" {
		logger.Info("messages loaded", "path", cfg.Messages.Source)
	}
	if len(cfg.Bot.PermissionServers) == 0 {
		logger.Warn("PERMISSION_SERVERS is empty, every mention will be dropped")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize clients
	mastodonClient := mastodon.NewClient(cfg.ToMastodonConfig(), logger)
	openaiClient := data.NewOpenAIClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL)

	account, err := mastodonClient.VerifyCredentials(ctx)
	if err != nil {
		return fmt.Errorf("failed to verify Mastodon credentials: %w", err)
	}
	logger.Info("authenticated", "account", account.Acct)

	// Initialize repository layer
	repos, err := data.NewRepositories(mastodonClient, openaiClient, data.Options{
		DBPath:      cfg.Store.DBPath,
		Model:       cfg.OpenAI.Model,
		Encoding:    data.DefaultEncoding,
		FortunePath: cfg.Bot.FortunePath,
	})
	if err != nil {
		return fmt.Errorf("failed to create repositories: %w", err)
	}
	defer repos.Question.Close()
	logger.Info("database opened", "path", cfg.Store.DBPath)

	if err := seedModelRates(ctx, repos.Rate, cfg.Messages); err != nil {
		return err
	}

	// Initialize usecase layer
	permission, err := usecase.NewPermissionGate(cfg.Bot.PermissionServers)
	if err != nil {
		return err
	}
	gates := service.Gates{
		Permission: permission,
		Rate:       usecase.NewRateGate(repos.Question, cfg.Bot.Cooldown, nil),
		Content:    usecase.NewContentGate(),
		Cost:       usecase.NewCostGate(repos.Question, cfg.Bot.CostLimit, nil),
	}
	generator := usecase.NewResponseGenerator(repos.Generator, repos.Tokens, repos.Rate, repos.Question, cfg.ToGenerateConfig(), logger)
	replies := usecase.NewReplyFormatter(repos.Status, cfg.Messages.Replies.Fatal, os.Exit, logger)

	// Initialize service layer
	svc := service.NewNotificationService(
		usecase.NewContentExtractor(),
		gates,
		generator,
		replies,
		repos.Question,
		repos.Fortune,
		cfg.ToMessages(),
		logger,
	)

	// Initialize servers
	streamSrv := server.NewStreamServer(mastodonClient, svc, logger)
	statusSrv := server.NewStatusServer(cfg.Status.Addr, gates.Cost, logger)
	watcher := service.NewCostWatcher(gates.Cost, costRefreshInterval, logger)

	g, gctx := errgroup.WithContext(ctx)
	watcher.Start(gctx)
	g.Go(func() error {
		return streamSrv.Start(gctx)
	})
	g.Go(statusSrv.Start)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		streamSrv.Stop()
		watcher.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return statusSrv.Stop(shutdownCtx)
	})

	logger.Info("bridge started", "model", repos.Generator.Model(), "status_addr", cfg.Status.Addr)
	return g.Wait()
}

// seedModelRates upserts the model_costs rows from the messages file
func seedModelRates(ctx context.Context, rateRepo repo.ModelRateRepo, messages *conf.MessagesConfig) error {
	rates, err := messages.ModelRates()
	if err != nil {
		return err
	}
	for _, rate := range rates {
		if err := rateRepo.SaveRate(ctx, rate); err != nil {
			return err
		}
		slog.Info("model rate seeded", "model", rate.Model, "input", rate.InputCost.String(), "output", rate.OutputCost.String())
	}
	return nil
}
