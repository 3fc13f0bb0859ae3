package app

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/echo88/core/internal/config"
	"github.com/echo88/core/internal/models"
	"github.com/echo88/core/internal/modules/post"
	"github.com/echo88/core/internal/pkg/mail"
	"github.com/echo88/core/internal/pkg/taskqueue"
)

// registerWorkerHandlers binds queue task types to their processing
// functions. Handlers report errors back to the queue; retries are the
// caller's concern (re-enqueue on failure).
func registerWorkerHandlers(w *taskqueue.Worker, svcs *services, mailer *mail.Sender, cfg *config.AppConfig) {
	webURL := cfg.WebURL

	w.Register(taskqueue.TypeSendMail, func(ctx context.Context, payload json.RawMessage) (interface{}, error) {
		var p taskqueue.MailPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, err
		}
		switch p.Kind {
		case taskqueue.MailVerify:
			err := mailer.SendVerifyEmail(p.Email, mail.VerifyEmailData{
				Username:  p.Username,
				VerifyURL: fmt.Sprintf("%s/verify-email?token=%s", webURL, p.Token),
			})
			return nil, err
		case taskqueue.MailReset:
			err := mailer.SendResetPassword(p.Email, mail.ResetPasswordData{
				Username: p.Username,
				ResetURL: fmt.Sprintf("%s/reset-password?token=%s", webURL, p.Token),
			})
			return nil, err
		}
		return nil, fmt.Errorf("unknown mail kind %q", p.Kind)
	})

	w.Register(taskqueue.TypeFanoutNotification, func(ctx context.Context, payload json.RawMessage) (interface{}, error) {
		var p taskqueue.NotificationPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, err
		}
		n, err := svcs.notifications.CreateFromPayload(p)
		if err != nil {
			return nil, err
		}
		if n == nil {
			return map[string]interface{}{"delivered": false}, nil
		}
		return map[string]interface{}{"delivered": true, "notification_id": n.ID}, nil
	})

	w.Register(taskqueue.TypeIndexHashtags, func(ctx context.Context, payload json.RawMessage) (interface{}, error) {
		var p taskqueue.PostPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, err
		}
		return nil, svcs.posts.IndexHashtags(p.Caption)
	})

	w.Register(taskqueue.TypeResolveMentions, func(ctx context.Context, payload json.RawMessage) (interface{}, error) {
		var p taskqueue.PostPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, err
		}
		mentions := post.ExtractMentions(p.Caption)
		resolved, err := svcs.users.IDsByUsernames(mentions)
		if err != nil {
			return nil, err
		}
		notified := 0
		for _, userID := range resolved {
			if userID == p.AuthorID {
				continue
			}
			_, err := svcs.notifications.CreateFromPayload(taskqueue.NotificationPayload{
				RecipientID: userID,
				ActorID:     p.AuthorID,
				Type:        string(models.NotificationMention),
				PostID:      p.PostID,
			})
			if err != nil {
				return nil, err
			}
			notified++
		}
		return map[string]interface{}{"mentions": len(mentions), "notified": notified}, nil
	})
}
