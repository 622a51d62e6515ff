package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tootbridge/mastodon-chat-bridge/internal/biz/usecase"
	"github.com/tootbridge/mastodon-chat-bridge/internal/conf"
	"github.com/tootbridge/mastodon-chat-bridge/internal/data"
)

func runCost(cmd *cobra.Command, args []string) error {
	cfg, err := conf.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	db, err := data.OpenDB(cfg.Store.DBPath)
	if err != nil {
		return err
	}
	questions := data.NewQuestionRepo(db)
	defer questions.Close()

	gate := usecase.NewCostGate(questions, cfg.Bot.CostLimit, nil)
	verdict, daily, err := gate.Check(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "daily cost: %s\n", daily.String())
	fmt.Fprintf(out, "ceiling:    %s\n", gate.Ceiling().String())
	fmt.Fprintf(out, "status:     %s\n", verdict.String())
	return nil
}

func runFortune(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("file")
	if path == "" {
		cfg, err := conf.LoadFromEnv()
		if err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		path = cfg.Bot.FortunePath
	}
	if path == "" {
		return fmt.Errorf("no fortune file: set FORTUNE_PATH or pass --file")
	}

	fortunes, err := data.NewFortuneRepo(path)
	if err != nil {
		return err
	}
	line, err := fortunes.Draw()
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), line)
	return nil
}
