package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/netdout/netdout/internal/engine"
	"github.com/netdout/netdout/internal/httpcap"
	"github.com/netdout/netdout/internal/store"
)

// newStatusCmd looks the id up in a registry created in this process. That
// registry starts empty, so jobs enqueued by a daemon or another download
// process are not found and the command prints null for them.
func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <id>",
		Short: "Print a job's record as pretty JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]

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

			record, ok := registry.Status(id)
			if !ok {
				fmt.Println("null")
				return nil
			}

			out, err := json.MarshalIndent(record, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling job record: %w", err)
			}
			fmt.Println(string(out))
			return nil
		},
	}
}
