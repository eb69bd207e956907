package data

import (
	"time"

	"gorm.io/gorm"
)

// ChatMessage is one world chat entry as received from the server.
type ChatMessage struct {
	ID         uint `gorm:"primaryKey"`
	PlayerID   uint64
	PlayerName string
	Message    string
	ChatType   uint32
	ReceivedAt time.Time
}

// CreateChatMessage persists a chat message to the archive.
func CreateChatMessage(db *gorm.DB, message *ChatMessage) error {
	return db.Create(message).Error
}

// RecentChatMessages returns up to limit messages, newest first.
func RecentChatMessages(db *gorm.DB, limit int) ([]ChatMessage, error) {
	var messages []ChatMessage
	err := db.Order("received_at desc, id desc").Limit(limit).Find(&messages).Error
	return messages, err
}
