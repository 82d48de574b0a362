package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/netdout/netdout/internal/engine"
	"github.com/netdout/netdout/internal/httpcap"
	"github.com/netdout/netdout/internal/progress"
	"github.com/netdout/netdout/internal/store"
)

const pollInterval = 200 * time.Millisecond

func newDownloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "download <url> <output>",
		Short: "Enqueue one download and print its job id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			url, output := args[0], args[1]

			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			if !filepath.IsAbs(output) {
				output = filepath.Join(cfg.Daemon.DownloadDir, output)
			}

			st, err := store.Open(cfg.Daemon.DBPath)
			if err != nil {
				return fmt.Errorf("opening resume store: %w", err)
			}
			defer st.Close()

			registry := engine.New(httpcap.New(), st, GetLogger(), cfg.Daemon.WorkerCeiling, cfg.Daemon.ChunkSizeBytes)

			id := registry.Enqueue(url, output)
			fmt.Println(id)

			return watchProgress(GetContext(), registry, id, output)
		},
	}
}

// watchProgress polls the registry for id until the job reaches a terminal
// state, rendering a progress bar if stderr is a terminal.
func watchProgress(ctx context.Context, registry *engine.Registry, id, output string) error {
	bar := progress.NewJobBar(output)
	defer bar.Wait()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	var totalKnown bool

	for {
		select {
		case <-ctx.Done():
			bar.Complete(ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			record, ok := registry.Status(id)
			if !ok {
				continue
			}

			if !totalKnown && record.TotalBytes != nil {
				bar.SetTotal(*record.TotalBytes)
				totalKnown = true
			}
			bar.SetCurrent(record.DownloadedBytes)

			switch record.Status {
			case engine.StatusCompleted:
				bar.Complete(nil)
				return nil
			case engine.StatusFailed:
				err := fmt.Errorf("%s", record.FailureReason)
				bar.Complete(err)
				return err
			}
		}
	}
}
