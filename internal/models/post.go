package models

// PostModel is a feed post.
type PostModel struct {
	Base
	AuthorID        string      `json:"author_id"     gorm:"index;not null"`
	Author          *UserModel  `json:"author,omitempty" gorm:"foreignKey:AuthorID"`
	Text            string      `json:"text"          gorm:"type:text"`
	Media           []MediaRef  `json:"media"         gorm:"type:json;serializer:json"`
	Hashtags        StringArray `json:"hashtags"      gorm:"type:json"`
	Mentions        StringArray `json:"mentions"      gorm:"type:json"`
	Location        string      `json:"location"`
	LikeCount       int         `json:"like_count"    gorm:"default:0"`
	CommentCount    int         `json:"comment_count" gorm:"default:0"`
	SaveCount       int         `json:"save_count"    gorm:"default:0"`
	HideLikes       bool        `json:"hide_likes"    gorm:"default:false"`
	DisableComments bool        `json:"disable_comments" gorm:"default:false"`
}

func (PostModel) TableName() string { return "posts" }

// PostLike marks one user liking one post.
type PostLike struct {
	EdgeBase
	PostID string `json:"post_id" gorm:"uniqueIndex:idx_post_like;not null"`
	UserID string `json:"user_id" gorm:"uniqueIndex:idx_post_like;index;not null"`
}

func (PostLike) TableName() string { return "post_likes" }

// SavedPost is a post saved into a user's collection.
type SavedPost struct {
	EdgeBase
	PostID       string     `json:"post_id"       gorm:"uniqueIndex:idx_saved_post;not null"`
	UserID       string     `json:"user_id"       gorm:"uniqueIndex:idx_saved_post;index;not null"`
	CollectionID *string    `json:"collection_id" gorm:"index"`
	Post         *PostModel `json:"post,omitempty" gorm:"foreignKey:PostID"`
}

func (SavedPost) TableName() string { return "saved_posts" }

// CollectionModel is a named group of saved posts.
type CollectionModel struct {
	Base
	UserID string `json:"user_id" gorm:"index;not null"`
	Name   string `json:"name"    gorm:"not null"`
}

func (CollectionModel) TableName() string { return "collections" }

// HashtagModel tracks per-tag usage counts for trending tags.
type HashtagModel struct {
	Base
	Tag       string `json:"tag"        gorm:"uniqueIndex;not null"`
	PostCount int    `json:"post_count" gorm:"default:0"`
}

func (HashtagModel) TableName() string { return "hashtags" }
