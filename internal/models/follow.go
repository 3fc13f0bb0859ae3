package models

// FollowModel is a directed follow edge between two users.
type FollowModel struct {
	EdgeBase
	FollowerID string     `json:"follower_id" gorm:"uniqueIndex:idx_follow_edge;index;not null"`
	FolloweeID string     `json:"followee_id" gorm:"uniqueIndex:idx_follow_edge;index;not null"`
	Follower   *UserModel `json:"follower,omitempty" gorm:"foreignKey:FollowerID"`
	Followee   *UserModel `json:"followee,omitempty" gorm:"foreignKey:FolloweeID"`
}

func (FollowModel) TableName() string { return "follows" }
