package command

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/chatdeck/chatdeck/internal/chat"
	"github.com/chatdeck/chatdeck/internal/config"
	"github.com/chatdeck/chatdeck/internal/persist"
	"github.com/chatdeck/chatdeck/internal/platform/kick"
	"github.com/chatdeck/chatdeck/internal/platform/relay"
	"github.com/chatdeck/chatdeck/internal/platform/twitch"
	"github.com/chatdeck/chatdeck/internal/session"
	"github.com/chatdeck/chatdeck/internal/store"
	"github.com/chatdeck/chatdeck/internal/transport"
	"github.com/chatdeck/chatdeck/internal/types"
)

// NewWatchCmd creates the watch command, the interactive chat view.
func NewWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch [stream-url...]",
		Short: "Watch live chats in an aggregated view",
		Args:  cobra.ArbitraryArgs,
		RunE:  runWatch,
	}
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	archive, err := persist.Open(cfg.Storage.DBPath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer archive.Close()

	buffer := store.New(cfg.Buffer.MessageLimit)
	snap, err := archive.Snapshot(cfg.Buffer.MessageLimit)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	buffer.Restore(snap)

	router := transport.NewRouter()
	router.Register(types.PlatformTwitch, twitch.New(cfg.Twitch.Username, cfg.Twitch.OAuth))
	router.Register(types.PlatformKick, kick.New(cfg.Kick.APIBase))
	if cfg.Relay.GatewayURL != "" {
		router.Register(types.PlatformRelay, relay.New(cfg.Relay.GatewayURL))
	}
	defer router.CloseAll()

	lifecycle := session.NewManager(router)
	recent, err := archive.RecentConversations(10)
	if err != nil {
		return fmt.Errorf("load recent conversations: %w", err)
	}
	lifecycle.SeedRecent(recent)

	fetcher := transport.NewFetcher(archive)

	prefs := snap.Preferences
	if cfg.UI.CalmMode {
		prefs.CalmMode = true
	}

	model := chat.NewModel(chat.Options{
		Store:         buffer,
		Lifecycle:     lifecycle,
		Fetcher:       fetcher,
		Archive:       archive,
		Events:        router.Events(),
		PageSize:      cfg.Buffer.PageSize,
		Notifications: cfg.UI.Notifications,
		Preferences:   prefs,
	})

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	for _, raw := range args {
		conv, err := transport.ParseSourceURL(raw)
		if err != nil {
			return err
		}
		if err := lifecycle.Add(ctx, conv); err != nil {
			return fmt.Errorf("follow %s: %w", conv.Title, err)
		}
	}

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err = program.Run()
	return err
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = config.DefaultPath()
	}
	return config.Load(path)
}
