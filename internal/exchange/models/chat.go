package models

import (
	"time"

	"github.com/google/uuid"
)

type Chat struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`

	// Filled on listing for the calling user.
	UnreadCount int64    `gorm:"-" json:"unread_count"`
	LastMessage *Message `gorm:"-" json:"last_message,omitempty"`
}

type Message struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ChatID    uuid.UUID `gorm:"type:uuid;index;not null" json:"chat_id"`
	AuthorID  uuid.UUID `gorm:"type:uuid;index;not null" json:"author_id"`
	Text      string    `gorm:"size:4000;not null" json:"text"`
	IsRead    bool      `gorm:"index" json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

func (m *Message) Ref() Ref {
	return NewRef(KindChatMessage, m.ID)
}
