package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/teamkb/teamkb/internal/config"
	"github.com/teamkb/teamkb/pkg/logger"
)

var (
	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:   "teamkb",
		Short: "Team knowledge base server",
		Long: `teamkb serves the knowledge-base API: documents with AI summaries,
version history, an activity feed and semantic search.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger.Init(os.Getenv("LOG_LEVEL"))
			c, err := config.LoadConfig()
			if err != nil {
				return err
			}
			logger.Init(c.LogLevel)
			cfg = c
			return nil
		},
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE:  runServe,
	}

	indexesCmd = &cobra.Command{
		Use:   "indexes",
		Short: "Create the MongoDB indexes and exit",
		RunE:  runIndexes,
	}
)

func init() {
	rootCmd.AddCommand(serveCmd, indexesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.Fatalf("teamkb: %v", err)
	}
}
