package session

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yntha/castleclash/internal/data"
	"github.com/yntha/castleclash/internal/wire"
)

// handleWorldChat prints the chat messages carried by a world chat packet
// and archives them when a database is configured. The server sends the
// records oldest-last, so display walks them in reverse.
func handleWorldChat(_ context.Context, s *Session, msg *wire.Message) error {
	for i := len(msg.Records) - 1; i >= 0; i-- {
		rec := msg.Records[i]
		s.logger.Infof("[%s] %s", rec.String("player_name"), rec.String("message"))
	}

	if s.db == nil {
		return nil
	}
	return archiveChatMessages(s.db, msg)
}

func archiveChatMessages(db *gorm.DB, msg *wire.Message) error {
	received := time.Now()
	chatType := uint32(msg.Uint("chat_type"))

	for _, rec := range msg.Records {
		err := data.CreateChatMessage(db, &data.ChatMessage{
			PlayerID:   rec.Uint("player_id"),
			PlayerName: rec.String("player_name"),
			Message:    rec.String("message"),
			ChatType:   chatType,
			ReceivedAt: received,
		})
		if err != nil {
			return fmt.Errorf("archiving chat message: %w", err)
		}
	}
	return nil
}
