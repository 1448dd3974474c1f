package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/bowerhall/rumbo/internal/logger"
)

func init() {
	godotenv.Load()
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logger.Fatal("rumbo failed", "error", err)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "rumbo",
		Short:         "Conversational travel assistant with weather, activities and human approval",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// logger initialises before .env is read; rebuild it now
			logger.SetDefault(logger.New(os.Stderr, os.Getenv("RUMBO_DEBUG") == "true", os.Getenv("LOG_FORMAT")))
		},
	}

	root.AddCommand(newServeCmd(), newChatCmd())
	return root
}
