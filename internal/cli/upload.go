package cli

import (
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"s3site/internal/config"
	"s3site/internal/site"
	"s3site/internal/state"
	"s3site/internal/storage"
)

// newObjectStore is swapped in tests to observe store construction and calls.
var newObjectStore = storage.NewFromConfig

func newUploadCommand(root *rootOptions) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload the built site and remove remote files that were not uploaded",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runUpload(cmd, root, dryRun)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would change without writing to the bucket")
	return cmd
}

func runUpload(cmd *cobra.Command, root *rootOptions, dryRun bool) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if err := config.LoadEnvFile(state.EnvFile); err != nil {
		return fmt.Errorf("load %s: %w", state.EnvFile, err)
	}

	configPath, err := root.resolveConfigPath()
	if err != nil {
		return err
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := site.CheckBuilt(cfg.Site.Root, cfg.Site.Index); err != nil {
		return err
	}

	store, err := newObjectStore(ctx, cfg.S3)
	if err != nil {
		return fmt.Errorf("create object store: %w", err)
	}
	slog.Debug("object store ready", "backend", cfg.S3.Backend, "bucket", cfg.S3.Bucket, "prefix", cfg.S3.Prefix)

	ignore, err := site.LoadIgnoreFile(cfg.Site.IgnoreFile)
	if err != nil {
		return fmt.Errorf("load ignore file: %w", err)
	}

	syncer := site.NewSyncer(store, site.Options{
		Workers:  cfg.Site.Workers,
		Exclude:  site.NewMatcher(cfg.Site.Exclude),
		Keep:     site.NewMatcher(cfg.Site.Keep),
		Ignore:   ignore,
		DryRun:   dryRun,
		Reporter: site.NewTextReporter(out, dryRun),
		Logger:   slog.Default(),
	})
	result, err := syncer.Sync(ctx, cfg.Site.Root)
	if err != nil {
		return err
	}

	label := "upload complete"
	if result.DryRun {
		label = "dry run complete"
	}
	fmt.Fprintf(out, "%s: uploaded=%d pruned=%d size=%s\n", label, len(result.Uploaded), len(result.Pruned), humanize.Bytes(uint64(result.Bytes)))
	slog.Info("upload finished", "bucket", cfg.S3.Bucket, "uploaded", len(result.Uploaded), "pruned", len(result.Pruned), "bytes", result.Bytes, "dry_run", result.DryRun)
	return nil
}
