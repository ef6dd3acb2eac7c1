package command

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/chatdeck/chatdeck/internal/persist"
	"github.com/chatdeck/chatdeck/internal/types"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history <conversation-id>",
		Short: "Browse archived messages for a conversation",
		Args:  cobra.ExactArgs(1),
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

			conversationID := args[0]
			ctx := cmd.Context()

			if listDates, _ := cmd.Flags().GetBool("dates"); listDates {
				dates, err := archive.AvailableDates(ctx, conversationID)
				if err != nil {
					return err
				}
				for _, d := range dates {
					fmt.Fprintln(cmd.OutOrStdout(), d)
				}
				return nil
			}

			limit, _ := cmd.Flags().GetInt("limit")
			var page types.Page
			if query, _ := cmd.Flags().GetString("search"); query != "" {
				page, err = archive.Search(ctx, conversationID, query, limit)
			} else {
				before, _ := cmd.Flags().GetString("before")
				date, _ := cmd.Flags().GetString("date")
				page, err = archive.FetchPage(ctx, types.PageRequest{
					ConversationID: conversationID,
					BeforeID:       before,
					DateBucket:     date,
					Limit:          limit,
				})
			}
			if err != nil {
				return err
			}

			for _, msg := range page.Messages {
				ts := time.UnixMilli(msg.TS).Format("15:04:05")
				marker := " "
				if msg.IsQuestion {
					marker = "?"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s: %s\n", ts, marker, msg.Author, msg.Text)
			}
			if page.HasMore && len(page.Messages) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "... more history before %s (--before %s)\n",
					page.Messages[0].ID, page.Messages[0].ID)
			}
			return nil
		},
	}
	cmd.Flags().String("before", "", "page backward from this message ID")
	cmd.Flags().String("date", "", "limit to one UTC day (YYYY-MM-DD)")
	cmd.Flags().String("search", "", "search message text and authors")
	cmd.Flags().Bool("dates", false, "list days with archived history")
	cmd.Flags().Int("limit", 50, "messages per page")
	return cmd
}
