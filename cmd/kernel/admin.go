package main

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/scieloorg/documentstore/internal/config"
	"github.com/scieloorg/documentstore/internal/store/mongo"
)

const adminTimeout = 30 * time.Second

func createIndexesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create-indexes <dsn> <dbname>",
		Short: "Create the unique indexes the kernel relies on",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(args[0], args[1], (*mongo.DB).CreateIndexes)
		},
	}
}

func createCollectionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create-collections <dsn> <dbname>",
		Short: "Explicitly create the kernel collections",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(args[0], args[1], (*mongo.DB).CreateCollections)
		},
	}
}

func withDB(dsn, dbname string, task func(*mongo.DB, context.Context) error) error {
	settings, err := config.Load()
	if err != nil {
		return err
	}
	setupLogging(settings)

	ctx, cancel := context.WithTimeout(context.Background(), adminTimeout)
	defer cancel()

	db := mongo.New(dsn, dbname)
	defer func() {
		if err := db.Close(context.Background()); err != nil {
			log.Error().Err(err).Msg("failed to close MongoDB client")
		}
	}()
	return task(db, ctx)
}
