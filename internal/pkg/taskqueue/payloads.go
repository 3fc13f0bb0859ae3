package taskqueue

// Mail kinds carried by TypeSendMail tasks.
const (
	MailVerify = "verify"
	MailReset  = "reset"
)

// MailPayload is the payload for TypeSendMail.
type MailPayload struct {
	Kind     string `json:"kind"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Token    string `json:"token"`
}

// NotificationPayload is the payload for TypeFanoutNotification.
type NotificationPayload struct {
	RecipientID string `json:"recipient_id"`
	ActorID     string `json:"actor_id"`
	Type        string `json:"type"`
	PostID      string `json:"post_id,omitempty"`
	CommentID   string `json:"comment_id,omitempty"`
	MessageID   string `json:"message_id,omitempty"`
}

// PostPayload is the payload for TypeIndexHashtags and TypeResolveMentions.
type PostPayload struct {
	PostID   string `json:"post_id"`
	AuthorID string `json:"author_id"`
	Caption  string `json:"caption"`
}
