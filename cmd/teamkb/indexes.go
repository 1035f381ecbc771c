package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/teamkb/teamkb/internal/database"
	"github.com/teamkb/teamkb/pkg/logger"
)

func runIndexes(cmd *cobra.Command, args []string) error {
	if cfg.MongoDB.URI == "" {
		return errors.New("MONGODB_URI is required")
	}
	ctx := cmd.Context()
	client, err := database.ConnectMongoWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, mongoConnectAttempts)
	if err != nil {
		return err
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	if _, err := mongoStores(ctx, client, cfg.MongoDB.Database); err != nil {
		return err
	}
	logger.Infof("indexes ensured on database %q", cfg.MongoDB.Database)
	return nil
}
