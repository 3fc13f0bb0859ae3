package models

import "time"

// ConversationModel is a direct conversation between two users.
// UserA/UserB are stored in lexicographic order so a pair maps to one row.
type ConversationModel struct {
	Base
	UserAID       string     `json:"user_a_id" gorm:"uniqueIndex:idx_conversation_pair;index;not null"`
	UserBID       string     `json:"user_b_id" gorm:"uniqueIndex:idx_conversation_pair;index;not null"`
	LastMessageAt *time.Time `json:"last_message_at" gorm:"index"`
}

func (ConversationModel) TableName() string { return "conversations" }

// MessageModel is a single direct message inside a conversation.
type MessageModel struct {
	Base
	ConversationID string     `json:"conversation_id" gorm:"index;not null"`
	SenderID       string     `json:"sender_id"       gorm:"index;not null"`
	Text           string     `json:"text"            gorm:"type:text"`
	Media          []MediaRef `json:"media,omitempty" gorm:"type:json;serializer:json"`
	ReadAt         *time.Time `json:"read_at"         gorm:"index"`
}

func (MessageModel) TableName() string { return "messages" }
