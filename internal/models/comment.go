package models

// CommentModel is a comment on a post, optionally replying to another comment.
type CommentModel struct {
	Base
	PostID    string         `json:"post_id"   gorm:"index;not null"`
	AuthorID  string         `json:"author_id" gorm:"index;not null"`
	Author    *UserModel     `json:"author,omitempty" gorm:"foreignKey:AuthorID"`
	Text      string         `json:"text"      gorm:"type:text;not null"`
	ParentID  *string        `json:"parent_id" gorm:"index"`
	Children  []CommentModel `json:"children,omitempty" gorm:"foreignKey:ParentID"`
	LikeCount int            `json:"like_count" gorm:"default:0"`
	Mentions  StringArray    `json:"mentions"  gorm:"type:json"`
}

func (CommentModel) TableName() string { return "comments" }

// CommentLike marks one user liking one comment.
type CommentLike struct {
	EdgeBase
	CommentID string `json:"comment_id" gorm:"uniqueIndex:idx_comment_like;not null"`
	UserID    string `json:"user_id"    gorm:"uniqueIndex:idx_comment_like;index;not null"`
}

func (CommentLike) TableName() string { return "comment_likes" }
