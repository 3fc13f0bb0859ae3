package models

import "time"

// NotificationType enumerates notification causes.
type NotificationType string

const (
	NotificationLike    NotificationType = "like"
	NotificationComment NotificationType = "comment"
	NotificationFollow  NotificationType = "follow"
	NotificationMention NotificationType = "mention"
	NotificationMessage NotificationType = "message"
)

// NotificationModel is a per-recipient notification row.
type NotificationModel struct {
	Base
	RecipientID string           `json:"recipient_id" gorm:"index;not null"`
	ActorID     string           `json:"actor_id"     gorm:"index;not null"`
	Actor       *UserModel       `json:"actor,omitempty" gorm:"foreignKey:ActorID"`
	Type        NotificationType `json:"type"         gorm:"index;not null"`
	PostID      *string          `json:"post_id,omitempty"`
	CommentID   *string          `json:"comment_id,omitempty"`
	ReadAt      *time.Time       `json:"read_at"      gorm:"index"`
}

func (NotificationModel) TableName() string { return "notifications" }
