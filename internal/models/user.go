package models

import "time"

// UserModel is an account on the platform.
type UserModel struct {
	Base
	Username       string     `json:"username"       gorm:"uniqueIndex;not null"`
	Email          string     `json:"email"          gorm:"uniqueIndex;not null"`
	FullName       string     `json:"full_name"`
	Password       string     `json:"-"              gorm:"not null"`
	EmailVerified  bool       `json:"email_verified" gorm:"default:false;index"`
	Avatar         string     `json:"avatar"`
	Bio            string     `json:"bio"            gorm:"type:text"`
	Website        string     `json:"website"`
	IsPrivate      bool       `json:"is_private"     gorm:"default:false"`
	FollowerCount  int        `json:"follower_count" gorm:"default:0"`
	FollowingCount int        `json:"following_count" gorm:"default:0"`
	PostCount      int        `json:"post_count"     gorm:"default:0"`
	LastLoginTime  *time.Time `json:"last_login_time"`
	LastLoginIP    string     `json:"-"`

	Preferences NotificationPreferences `json:"preferences" gorm:"embedded;embeddedPrefix:notify_"`
}

func (UserModel) TableName() string { return "users" }

// NotificationPreferences are per-user notification toggles.
type NotificationPreferences struct {
	Likes    bool `json:"likes"    gorm:"default:true"`
	Comments bool `json:"comments" gorm:"default:true"`
	Follows  bool `json:"follows"  gorm:"default:true"`
	Messages bool `json:"messages" gorm:"default:true"`
}

// PublicProfile strips fields not visible to other users.
func (u UserModel) PublicProfile() map[string]interface{} {
	return map[string]interface{}{
		"id":              u.ID,
		"username":        u.Username,
		"full_name":       u.FullName,
		"avatar":          u.Avatar,
		"bio":             u.Bio,
		"website":         u.Website,
		"is_private":      u.IsPrivate,
		"follower_count":  u.FollowerCount,
		"following_count": u.FollowingCount,
		"post_count":      u.PostCount,
		"created":         u.CreatedAt,
	}
}
