package notification

import (
	"errors"
	"time"

	"github.com/echo88/core/internal/middleware"
	"github.com/echo88/core/internal/models"
	"github.com/echo88/core/internal/pkg/pagination"
	"github.com/echo88/core/internal/pkg/response"
	"github.com/echo88/core/internal/pkg/taskqueue"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var errNotificationNotFound = errors.New("notification not found")

// Pusher delivers realtime events to a user's sockets.
type Pusher interface {
	PushToUser(userID, event string, payload interface{})
}

type Service struct {
	db     *gorm.DB
	pusher Pusher
	logger *zap.Logger
}

func NewService(db *gorm.DB, pusher Pusher, logger *zap.Logger) *Service {
	return &Service{db: db, pusher: pusher, logger: logger}
}

// muted reports whether the recipient turned off this notification type.
func muted(prefs models.NotificationPreferences, typ models.NotificationType) bool {
	switch typ {
	case models.NotificationLike:
		return !prefs.Likes
	case models.NotificationComment, models.NotificationMention:
		return !prefs.Comments
	case models.NotificationFollow:
		return !prefs.Follows
	case models.NotificationMessage:
		return !prefs.Messages
	}
	return false
}

// CreateFromPayload stores a notification for a queued fan-out task and
// pushes it in realtime. Self-notifications and muted types are dropped
// without error.
func (s *Service) CreateFromPayload(p taskqueue.NotificationPayload) (*models.NotificationModel, error) {
	if p.RecipientID == p.ActorID {
		return nil, nil
	}

	var recipient models.UserModel
	if err := s.db.First(&recipient, "id = ?", p.RecipientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	typ := models.NotificationType(p.Type)
	if muted(recipient.Preferences, typ) {
		return nil, nil
	}

	n := models.NotificationModel{
		RecipientID: p.RecipientID,
		ActorID:     p.ActorID,
		Type:        typ,
	}
	if p.PostID != "" {
		n.PostID = &p.PostID
	}
	if p.CommentID != "" {
		n.CommentID = &p.CommentID
	}
	if err := s.db.Create(&n).Error; err != nil {
		return nil, err
	}

	if err := s.db.Preload("Actor").First(&n, "id = ?", n.ID).Error; err != nil {
		s.logger.Warn("notification reload failed", zap.Error(err))
	}
	if s.pusher != nil {
		s.pusher.PushToUser(p.RecipientID, "notification.new", n)
	}
	return &n, nil
}

// ListQuery returns the user's notifications, newest first.
func (s *Service) ListQuery(userID string) *gorm.DB {
	return s.db.Model(&models.NotificationModel{}).
		Preload("Actor").
		Where("recipient_id = ?", userID).
		Order("created_at DESC")
}

func (s *Service) UnreadCount(userID string) (int64, error) {
	var count int64
	err := s.db.Model(&models.NotificationModel{}).
		Where("recipient_id = ? AND read_at IS NULL", userID).
		Count(&count).Error
	return count, err
}

func (s *Service) MarkRead(notificationID, userID string) error {
	res := s.db.Model(&models.NotificationModel{}).
		Where("id = ? AND recipient_id = ? AND read_at IS NULL", notificationID, userID).
		UpdateColumn("read_at", time.Now())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var n models.NotificationModel
		if err := s.db.First(&n, "id = ? AND recipient_id = ?", notificationID, userID).Error; err != nil {
			return errNotificationNotFound
		}
	}
	return nil
}

func (s *Service) MarkAllRead(userID string) (int64, error) {
	res := s.db.Model(&models.NotificationModel{}).
		Where("recipient_id = ? AND read_at IS NULL", userID).
		UpdateColumn("read_at", time.Now())
	return res.RowsAffected, res.Error
}

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	a := rg.Group("/notifications", authMW)
	a.GET("", h.list)
	a.GET("/unread-count", h.unreadCount)
	a.POST("/:id/read", h.markRead)
	a.POST("/read-all", h.markAllRead)
}

func (h *Handler) list(c *gin.Context) {
	q := pagination.FromContext(c)
	var items []models.NotificationModel
	page, err := pagination.Paginate(h.svc.ListQuery(middleware.CurrentUserID(c)), q, &items)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, items, page)
}

func (h *Handler) unreadCount(c *gin.Context) {
	count, err := h.svc.UnreadCount(middleware.CurrentUserID(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{"unread": count})
}

func (h *Handler) markRead(c *gin.Context) {
	err := h.svc.MarkRead(c.Param("id"), middleware.CurrentUserID(c))
	if err != nil {
		if errors.Is(err, errNotificationNotFound) {
			response.NotFoundMsg(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{"read": true})
}

func (h *Handler) markAllRead(c *gin.Context) {
	count, err := h.svc.MarkAllRead(middleware.CurrentUserID(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{"marked_read": count})
}
