package user

import "errors"

type UpdateProfileDTO struct {
	FullName *string `json:"full_name"`
	Bio      *string `json:"bio"`
	Website  *string `json:"website"`
	Avatar   *string `json:"avatar"`
}

type UpdateSettingsDTO struct {
	IsPrivate *bool `json:"is_private"`
	Likes     *bool `json:"notify_likes"`
	Comments  *bool `json:"notify_comments"`
	Follows   *bool `json:"notify_follows"`
	Messages  *bool `json:"notify_messages"`
}

var (
	errUserNotFound = errors.New("user not found")
	errSelfFollow   = errors.New("cannot follow yourself")
	errNotFollowing = errors.New("not following")
)
