package command

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/chatdeck/chatdeck/internal/persist"
	"github.com/chatdeck/chatdeck/internal/store"
)

// NewStatsCmd creates the stats command.
func NewStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show per-conversation message and question counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			archive, err := persist.Open(cfg.Storage.DBPath)
			if err != nil {
				return err
			}
			defer archive.Close()

			snap, err := archive.Snapshot(cfg.Buffer.MessageLimit)
			if err != nil {
				return err
			}
			buffer := store.New(cfg.Buffer.MessageLimit)
			buffer.Restore(snap)
			all := buffer.AllStats()

			asJSON, _ := cmd.Flags().GetBool("json")
			if asJSON {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(all)
			}

			ids := make([]string, 0, len(all))
			for id := range all {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			for _, id := range ids {
				s := all[id]
				fmt.Fprintf(cmd.OutOrStdout(), "%-30s %5d msgs %4d questions %4d unread (%d ?)\n",
					id, s.Messages, s.Questions, s.Unread.Total, s.Unread.Questions)
			}
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "output in JSON format")
	return cmd
}
