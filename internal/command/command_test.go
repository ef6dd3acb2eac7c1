package command

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chatdeck/chatdeck/internal/persist"
	"github.com/chatdeck/chatdeck/internal/types"
)

// seedArchive creates a config file and an archive with a few messages,
// returning the config path for --config.
func seedArchive(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "chatdeck.db")

	archive, err := persist.Open(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i <= 3; i++ {
		err := archive.RecordMessage(types.Message{
			ID: fmt.Sprintf("m%d", i), ConversationID: "twitch-demo", Author: "viewer",
			Text: fmt.Sprintf("message %d", i), TS: int64(i * 1000), Platform: types.PlatformTwitch,
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	err = archive.RecordMessage(types.Message{
		ID: "q1", ConversationID: "twitch-demo", Author: "curious",
		Text: "is this recorded?", TS: 4000, IsQuestion: true, Platform: types.PlatformTwitch,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := archive.Close(); err != nil {
		t.Fatal(err)
	}

	cfgPath := filepath.Join(dir, "config.yaml")
	cfg := fmt.Sprintf("storage:\n  db_path: %s\n", dbPath)
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	return cfgPath
}

func runCommand(t *testing.T, args ...string) string {
	t.Helper()
	root := NewRootCmd("test")
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		t.Fatalf("%v: %v", args, err)
	}
	return out.String()
}

func TestHistoryCommand(t *testing.T) {
	cfg := seedArchive(t)
	out := runCommand(t, "history", "twitch-demo", "--config", cfg)
	if !strings.Contains(out, "message 1") || !strings.Contains(out, "is this recorded?") {
		t.Errorf("history output missing messages:\n%s", out)
	}
	if !strings.Contains(out, "? curious") {
		t.Errorf("question marker missing:\n%s", out)
	}
}

func TestHistorySearch(t *testing.T) {
	cfg := seedArchive(t)
	out := runCommand(t, "history", "twitch-demo", "--search", "recorded", "--config", cfg)
	if !strings.Contains(out, "is this recorded?") {
		t.Errorf("search miss:\n%s", out)
	}
	if strings.Contains(out, "message 2") {
		t.Errorf("search returned non-matching message:\n%s", out)
	}
}

func TestStatsCommand(t *testing.T) {
	cfg := seedArchive(t)
	out := runCommand(t, "stats", "--config", cfg)
	if !strings.Contains(out, "twitch-demo") {
		t.Errorf("stats output missing conversation:\n%s", out)
	}
	if !strings.Contains(out, "4 msgs") {
		t.Errorf("stats output missing counts:\n%s", out)
	}
}

func TestRecentCommandEmpty(t *testing.T) {
	cfg := seedArchive(t)
	out := runCommand(t, "recent", "--config", cfg)
	if !strings.Contains(out, "no recent conversations") {
		t.Errorf("unexpected output:\n%s", out)
	}
}
