package models

import "time"

// ChatSession groups the transcript of one browser conversation. The id is a
// client-visible uuid hex string, minted server-side on the first message.
type ChatSession struct {
	ID        string    `gorm:"primaryKey;size:32" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Messages []ChatMessage `gorm:"foreignKey:SessionID" json:"-"`
}

func (ChatSession) TableName() string {
	return "chat_sessions"
}
