package command

import (
	"os"

	"github.com/spf13/cobra"
)

const AppName = "chatdeck"

// Version is overwritten at build time using -ldflags.
var Version = "dev"

func NewRootCmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           AppName,
		Short:         "Chatdeck - one terminal for all your live chats",
		Long:          "Chatdeck aggregates live chat from Twitch, Kick, YouTube, and relay sources into a single terminal view.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Bare invocation opens the watch view.
			return runWatch(cmd, args)
		},
	}

	cmd.Version = version
	cmd.SetVersionTemplate(AppName + " version {{.Version}}\n")
	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	cmd.PersistentFlags().String("config", "", "path to config file")

	cmd.AddCommand(
		NewWatchCmd(),
		NewStatsCmd(),
		NewHistoryCmd(),
		NewRecentCmd(),
	)

	return cmd
}

func Execute() error {
	return NewRootCmd(Version).Execute()
}
