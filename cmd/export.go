/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/happythoughts/apiserver/config"
	"github.com/happythoughts/apiserver/internal/server"
	"github.com/happythoughts/apiserver/internal/services"
	"github.com/happythoughts/apiserver/internal/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// exportCmd writes a snapshot of the most recent thoughts to object
// storage.
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the most recent thoughts to object storage",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadRuntime()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		ctx := cmd.Context()
		objects, err := openBucket(ctx, cfg)
		if err != nil {
			return err
		}

		repos, err := server.OpenRepositories(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() { _ = repos.Close(context.Background()) }()

		thoughts := services.NewThoughtService(repos.Thoughts, services.WithLogger(logger))
		key, err := services.NewExportService(thoughts, objects, services.WithLogger(logger)).ExportRecent(ctx)
		if err != nil {
			return err
		}

		logger.Info("export written", zap.String("bucket", objects.Bucket()), zap.String("key", key))
		fmt.Fprintln(cmd.OutOrStdout(), key)
		return nil
	},
}

var exportGetCmd = &cobra.Command{
	Use:   "get KEY",
	Short: "Print a previously written export",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		objects, err := openBucket(cmd.Context(), config.LoadConfig())
		if err != nil {
			return err
		}
		reader, err := objects.Get(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("get %s: %w", args[0], err)
		}
		defer reader.Close()
		_, err = io.Copy(cmd.OutOrStdout(), reader)
		return err
	},
}

var exportDeleteCmd = &cobra.Command{
	Use:   "delete KEY",
	Short: "Remove a previously written export",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		objects, err := openBucket(cmd.Context(), config.LoadConfig())
		if err != nil {
			return err
		}
		return objects.Delete(cmd.Context(), args[0])
	},
}

func openBucket(ctx context.Context, cfg config.Config) (*storage.Storage, error) {
	objects, err := storage.NewFromConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := objects.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket %s: %w", objects.Bucket(), err)
	}
	return objects, nil
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.AddCommand(exportGetCmd)
	exportCmd.AddCommand(exportDeleteCmd)
}
