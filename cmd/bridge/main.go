package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	envFile string

	rootCmd = &cobra.Command{
		Use:   "mastodon-chat-bridge",
		Short: "Answer Mastodon mentions with a chat completion model",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file
			if err := godotenv.Load(envFile); err != nil {
				log.Println("No .env file found, using environment variables")
			}
		},
		SilenceUsage: true,
		RunE:         runBridge,
	}

	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Listen for mentions and answer them (default)",
		RunE:  runBridge,
	}

	costCmd = &cobra.Command{
		Use:   "cost",
		Short: "Print today's aggregate generation cost and the ceiling",
		RunE:  runCost,
	}

	fortuneCmd = &cobra.Command{
		Use:   "fortune",
		Short: "Draw one line from the fortune file",
		RunE:  runFortune,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	fortuneCmd.Flags().String("file", "", "fortune file (defaults to FORTUNE_PATH)")

	rootCmd.AddCommand(runCmd, costCmd, fortuneCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
