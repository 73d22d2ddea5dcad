package models

import "time"

type ChatMessage struct {
	ID        uint        `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID string      `gorm:"size:32;not null;index:idx_chat_messages_session_created,priority:1" json:"session_id"`
	Session   ChatSession `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"-"`
	Role      string      `gorm:"size:20;not null" json:"role"` // user | assistant
	Content   string      `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time   `gorm:"autoCreateTime;index:idx_chat_messages_session_created,priority:2" json:"created_at"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}
