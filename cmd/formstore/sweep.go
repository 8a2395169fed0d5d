package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vango-dev/formstore/internal/config"
	"github.com/vango-dev/formstore/internal/errors"
	"github.com/vango-dev/formstore/pkg/storage"
)

func sweepCmd(opts *rootOptions) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Remove stale temporary files",
		Long: `Remove temporary files left behind by interrupted writes from the
configured storage directories. Committed files are never touched.

Only the disk backend keeps temporary files.

Examples:
  formstore sweep
  formstore sweep --older-than=30m`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(opts, olderThan)
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", time.Hour, "Minimum age of files to remove")

	return cmd
}

func runSweep(opts *rootOptions, olderThan time.Duration) error {
	cfg, err := opts.load()
	if err != nil {
		return err
	}
	if cfg.Storage.Backend != config.BackendDisk {
		return errors.New("E203").WithDetailf("backend is %s", cfg.Storage.Backend)
	}
	if olderThan < 0 {
		return errors.New("E300").WithDetailf("--older-than must not be negative, got %s", olderThan)
	}

	dirs := make([]string, 0, 3)
	for _, dir := range cfg.Directories() {
		dirs = append(dirs, dir)
	}

	backend := storage.NewDiskBackend(storage.WithDiskLogger(cfg.Log.NewLogger(os.Stderr)))
	removed, err := backend.Sweep(dirs, olderThan)
	if err != nil {
		return errors.New("E200").Wrap(err)
	}

	success("Removed %d stale temporary files", removed)
	return nil
}
