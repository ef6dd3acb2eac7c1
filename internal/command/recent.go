package command

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/chatdeck/chatdeck/internal/persist"
)

// NewRecentCmd creates the recent command.
func NewRecentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recent",
		Short: "List recently closed conversations",
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

			recent, err := archive.RecentConversations(10)
			if err != nil {
				return err
			}
			if len(recent) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no recent conversations")
				return nil
			}
			for _, rc := range recent {
				fmt.Fprintf(cmd.OutOrStdout(), "%-30s %-8s closed %s\n",
					rc.ID, rc.Platform, humanize.Time(time.UnixMilli(rc.LastViewed)))
			}
			return nil
		},
	}
}
