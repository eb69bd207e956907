package session

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/go-cmp/cmp"
	logrustest "github.com/sirupsen/logrus/hooks/test"
	"gorm.io/gorm"

	"github.com/yntha/castleclash/internal/data"
	"github.com/yntha/castleclash/internal/packets"
	"github.com/yntha/castleclash/internal/wire"
)

func setUpDatabase(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")))
	if err != nil {
		t.Fatalf("error initializing test database: %s", err)
	}
	if err = db.AutoMigrate(&data.ChatMessage{}); err != nil {
		t.Fatalf("error auto migrating db: %s", err)
	}
	return db
}

func newWorldChatMessage(t *testing.T) *wire.Message {
	t.Helper()
	reg, err := packets.NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry returned an unexpected error: %s", err)
	}

	msg := reg.Resolve(wire.Server, packets.WorldChatType).Layout.New().
		SetUint("chat_type", 1).
		SetUint("new_message_count", 2)
	msg.Records = append(msg.Records,
		packets.WorldChatRecord().New().
			SetUint("player_id", 1).
			SetString("player_name", "FirstPlayer").
			SetString("message", "older message"),
		packets.WorldChatRecord().New().
			SetUint("player_id", 2).
			SetString("player_name", "SecondPlayer").
			SetString("message", "newer message"),
	)
	return msg
}

// The server sends chat records oldest-last; the handler prints them the
// other way around so the freshest message is on top.
func TestHandleWorldChatPrintsNewestFirst(t *testing.T) {
	s := newTestSession(t, nil)

	logger, hook := logrustest.NewNullLogger()
	s.logger = logger

	if err := handleWorldChat(context.Background(), s, newWorldChatMessage(t)); err != nil {
		t.Fatalf("handleWorldChat returned an unexpected error: %s", err)
	}

	var printed []string
	for _, entry := range hook.AllEntries() {
		printed = append(printed, entry.Message)
	}
	want := []string{
		"[SecondPlayer] newer message",
		"[FirstPlayer] older message",
	}
	if diff := cmp.Diff(want, printed); diff != "" {
		t.Errorf("chat output mismatch (-want +got):\n%s", diff)
	}
}

func TestHandleWorldChatArchivesRecords(t *testing.T) {
	s := newTestSession(t, nil)
	s.db = setUpDatabase(t)

	logger, _ := logrustest.NewNullLogger()
	s.logger = logger

	if err := handleWorldChat(context.Background(), s, newWorldChatMessage(t)); err != nil {
		t.Fatalf("handleWorldChat returned an unexpected error: %s", err)
	}

	archived, err := data.RecentChatMessages(s.db, 10)
	if err != nil {
		t.Fatalf("RecentChatMessages() unexpected error: %s", err)
	}
	if len(archived) != 2 {
		t.Fatalf("expected 2 archived messages, got %d", len(archived))
	}

	byPlayer := map[string]data.ChatMessage{}
	for _, m := range archived {
		byPlayer[m.PlayerName] = m
	}
	first, ok := byPlayer["FirstPlayer"]
	if !ok || first.Message != "older message" || first.PlayerID != 1 || first.ChatType != 1 {
		t.Errorf("FirstPlayer archived incorrectly: %+v", first)
	}
	second, ok := byPlayer["SecondPlayer"]
	if !ok || second.Message != "newer message" || second.PlayerID != 2 {
		t.Errorf("SecondPlayer archived incorrectly: %+v", second)
	}
}
