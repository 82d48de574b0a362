package cli

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/netdout/netdout/internal/api"
	"github.com/netdout/netdout/internal/engine"
	"github.com/netdout/netdout/internal/httpcap"
	"github.com/netdout/netdout/internal/store"
)

func newDaemonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run the HTTP API on the configured bind address",
		Long: `Run the HTTP API on the configured bind address.

Routes:
  GET  /health            liveness probe
  POST /downloads         enqueue a job: {"url": "...", "output": "..."}
  GET  /downloads/{id}    job status as JSON`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			st, err := store.Open(cfg.Daemon.DBPath)
			if err != nil {
				return fmt.Errorf("opening resume store: %w", err)
			}
			defer st.Close()

			registry := engine.New(httpcap.New(), st, GetLogger(), cfg.Daemon.WorkerCeiling, cfg.Daemon.ChunkSizeBytes)
			server := api.New(registry, GetLogger())

			GetLogger().Infof("listening on %s", cfg.Daemon.APIBindAddress)
			return http.ListenAndServe(cfg.Daemon.APIBindAddress, server)
		},
	}
}
