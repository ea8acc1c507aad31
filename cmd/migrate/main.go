// Package main (in migrate-subfolder) copies the local file store into the configured S3 bucket
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/UnendingLoop/ImageHost/internal/config"
	"github.com/UnendingLoop/ImageHost/internal/migration"
	"github.com/UnendingLoop/ImageHost/internal/storage"
	"github.com/UnendingLoop/ImageHost/internal/storage/localstorage"
	"github.com/spf13/cobra"
	"github.com/wb-go/wbf/zlog"
)

const connectTimeout = time.Minute

var rootCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Uploads every file from the local store to S3, keeping file names",
	Long: `Reads STORAGE_TYPE=s3 settings from the environment (and .env), lists the local
store and copies every file into the bucket. With --delete-local the local copies are
removed, but only if every upload succeeded.`,
	SilenceUsage: true,
	RunE:         runMigrate,
}

func init() {
	rootCmd.Flags().String("env-file", ".env", "Path to .env file, skipped if absent")
	rootCmd.Flags().String("local-path", "", "Local storage directory (default LOCAL_STORAGE_PATH)")
	rootCmd.Flags().Bool("dry-run", false, "Only show what would be migrated")
	rootCmd.Flags().Bool("delete-local", false, "Delete local files after all uploads succeed")
	rootCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
}

func main() {
	zlog.InitConsole()
	if err := zlog.SetLevel("info"); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	envFile, _ := flags.GetString("env-file")
	localPath, _ := flags.GetString("local-path")
	dryRun, _ := flags.GetBool("dry-run")
	deleteLocal, _ := flags.GetBool("delete-local")
	assumeYes, _ := flags.GetBool("yes")

	cfg, err := config.LoadFromEnv(envFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.StorageType != config.StorageS3 {
		return errors.New("STORAGE_TYPE must be set to 's3' for migration")
	}
	if localPath == "" {
		localPath = cfg.LocalStoragePath
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, err := localstorage.NewLocalStorage(localPath, cfg.PublicBaseURL)
	if err != nil {
		return fmt.Errorf("failed to open local storage: %w", err)
	}

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	dst, err := storage.NewObjectStorage(connectCtx, cfg, 5*time.Second)
	cancel()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	m := migration.NewMigrator(src, dst, out)

	plan, err := m.Plan(ctx)
	if err != nil {
		return err
	}
	if len(plan.Files) == 0 {
		fmt.Fprintln(out, "No files found in local storage to migrate")
		return nil
	}
	m.PrintPlan(plan, dryRun)
	if dryRun {
		return nil
	}

	if deleteLocal {
		fmt.Fprintln(out, "Local files will be DELETED after successful upload")
	}
	question := fmt.Sprintf("Upload %d files to bucket %q?", len(plan.Files), cfg.S3.Bucket)
	if !assumeYes && !migration.Confirm(cmd.InOrStdin(), out, question) {
		fmt.Fprintln(out, "Migration cancelled")
		return nil
	}

	rep, err := m.Run(ctx, plan, deleteLocal)
	if rep != nil {
		m.PrintReport(rep)
	}
	if err != nil {
		return err
	}
	if len(rep.Failed) > 0 {
		return fmt.Errorf("%d of %d files failed to upload", len(rep.Failed), len(plan.Files))
	}
	return nil
}
