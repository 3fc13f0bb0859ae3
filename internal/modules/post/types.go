package post

import (
	"errors"

	"github.com/echo88/core/internal/models"
)

type CreatePostDTO struct {
	Text            string            `json:"text" binding:"max=2200"`
	Media           []models.MediaRef `json:"media" binding:"required,min=1,max=10"`
	Location        string            `json:"location" binding:"max=100"`
	HideLikes       bool              `json:"hide_likes"`
	DisableComments bool              `json:"disable_comments"`
}

type UpdatePostDTO struct {
	Text            *string `json:"text" binding:"omitempty,max=2200"`
	Location        *string `json:"location" binding:"omitempty,max=100"`
	HideLikes       *bool   `json:"hide_likes"`
	DisableComments *bool   `json:"disable_comments"`
}

type SavePostDTO struct {
	CollectionID *string `json:"collection_id"`
}

var (
	errPostNotFound   = errors.New("post not found")
	errNotOwner       = errors.New("not the post owner")
	errUserNotFound   = errors.New("user not found")
	errPrivateAccount = errors.New("this account is private")
)
