package message

import (
	"context"
	"errors"
	"time"

	"github.com/echo88/core/internal/middleware"
	"github.com/echo88/core/internal/models"
	"github.com/echo88/core/internal/pkg/pagination"
	"github.com/echo88/core/internal/pkg/response"
	"github.com/echo88/core/internal/pkg/sanitize"
	"github.com/echo88/core/internal/pkg/taskqueue"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	errUserNotFound         = errors.New("user not found")
	errConversationNotFound = errors.New("conversation not found")
	errNotParticipant       = errors.New("not a participant of this conversation")
	errSelfConversation     = errors.New("cannot start a conversation with yourself")
	errEmptyMessage         = errors.New("message must have text or media")
)

type StartConversationDTO struct {
	Username string `json:"username" binding:"required"`
}

type SendMessageDTO struct {
	Text  string            `json:"text" binding:"max=2000"`
	Media []models.MediaRef `json:"media"`
}

// Pusher delivers realtime events to a user's sockets.
type Pusher interface {
	PushToUser(userID, event string, payload interface{})
}

// ConversationView is a conversation with the other participant resolved.
type ConversationView struct {
	ID            string                 `json:"id"`
	Peer          map[string]interface{} `json:"peer"`
	LastMessage   *models.MessageModel   `json:"last_message"`
	UnreadCount   int64                  `json:"unread_count"`
	LastMessageAt *time.Time             `json:"last_message_at"`
}

type Service struct {
	db     *gorm.DB
	tasks  *taskqueue.Service
	pusher Pusher
	logger *zap.Logger
}

func NewService(db *gorm.DB, tasks *taskqueue.Service, pusher Pusher, logger *zap.Logger) *Service {
	return &Service{db: db, tasks: tasks, pusher: pusher, logger: logger}
}

// pairKey orders two user ids so a pair always maps to the same row.
func pairKey(a, b string) (string, string) {
	if a < b {
		return a, b
	}
	return b, a
}

// FindOrCreate returns the conversation between two users, creating it on
// first contact.
func (s *Service) FindOrCreate(userID, peerUsername string) (*models.ConversationModel, *models.UserModel, error) {
	var peer models.UserModel
	if err := s.db.First(&peer, "username = ?", peerUsername).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, errUserNotFound
		}
		return nil, nil, err
	}
	if peer.ID == userID {
		return nil, nil, errSelfConversation
	}

	a, b := pairKey(userID, peer.ID)
	conv := models.ConversationModel{UserAID: a, UserBID: b}
	if err := s.db.Where("user_a_id = ? AND user_b_id = ?", a, b).FirstOrCreate(&conv).Error; err != nil {
		return nil, nil, err
	}
	return &conv, &peer, nil
}

func (s *Service) getConversation(conversationID, userID string) (*models.ConversationModel, error) {
	var conv models.ConversationModel
	if err := s.db.First(&conv, "id = ?", conversationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errConversationNotFound
		}
		return nil, err
	}
	if conv.UserAID != userID && conv.UserBID != userID {
		return nil, errNotParticipant
	}
	return &conv, nil
}

func peerOf(conv *models.ConversationModel, userID string) string {
	if conv.UserAID == userID {
		return conv.UserBID
	}
	return conv.UserAID
}

// List returns the user's conversations, most recent activity first, with
// the peer profile, last message and unread count resolved per row.
func (s *Service) List(userID string, q pagination.Query) ([]ConversationView, response.Pagination, error) {
	query := s.db.Model(&models.ConversationModel{}).
		Where("user_a_id = ? OR user_b_id = ?", userID, userID).
		Order("last_message_at DESC")

	var convs []models.ConversationModel
	page, err := pagination.Paginate(query, q, &convs)
	if err != nil {
		return nil, page, err
	}

	views := make([]ConversationView, 0, len(convs))
	for _, conv := range convs {
		var peer models.UserModel
		if err := s.db.First(&peer, "id = ?", peerOf(&conv, userID)).Error; err != nil {
			return nil, page, err
		}

		var last models.MessageModel
		lastPtr := &last
		err := s.db.Where("conversation_id = ?", conv.ID).
			Order("created_at DESC").First(&last).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			lastPtr = nil
		} else if err != nil {
			return nil, page, err
		}

		var unread int64
		if err := s.db.Model(&models.MessageModel{}).
			Where("conversation_id = ? AND sender_id <> ? AND read_at IS NULL", conv.ID, userID).
			Count(&unread).Error; err != nil {
			return nil, page, err
		}

		views = append(views, ConversationView{
			ID:            conv.ID,
			Peer:          peer.PublicProfile(),
			LastMessage:   lastPtr,
			UnreadCount:   unread,
			LastMessageAt: conv.LastMessageAt,
		})
	}
	return views, page, nil
}

// MessagesQuery returns the messages of a conversation, newest first.
func (s *Service) MessagesQuery(conversationID, userID string) (*gorm.DB, error) {
	if _, err := s.getConversation(conversationID, userID); err != nil {
		return nil, err
	}
	return s.db.Model(&models.MessageModel{}).
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC"), nil
}

// Send stores a message, bumps conversation recency and pushes it to the
// recipient in realtime.
func (s *Service) Send(conversationID, senderID string, dto *SendMessageDTO) (*models.MessageModel, error) {
	conv, err := s.getConversation(conversationID, senderID)
	if err != nil {
		return nil, err
	}

	text := sanitize.Text(dto.Text)
	if text == "" && len(dto.Media) == 0 {
		return nil, errEmptyMessage
	}

	msg := models.MessageModel{
		ConversationID: conversationID,
		SenderID:       senderID,
		Text:           text,
		Media:          dto.Media,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&msg).Error; err != nil {
			return err
		}
		now := time.Now()
		return tx.Model(&models.ConversationModel{}).
			Where("id = ?", conversationID).
			UpdateColumn("last_message_at", now).Error
	})
	if err != nil {
		return nil, err
	}

	recipientID := peerOf(conv, senderID)
	if s.pusher != nil {
		s.pusher.PushToUser(recipientID, "message.new", msg)
	}
	s.dispatchNotification(recipientID, senderID, msg.ID)
	return &msg, nil
}

// MarkRead marks every received message in the conversation as read and
// notifies the sender side in realtime.
func (s *Service) MarkRead(conversationID, userID string) (int64, error) {
	conv, err := s.getConversation(conversationID, userID)
	if err != nil {
		return 0, err
	}

	now := time.Now()
	res := s.db.Model(&models.MessageModel{}).
		Where("conversation_id = ? AND sender_id <> ? AND read_at IS NULL", conversationID, userID).
		UpdateColumn("read_at", now)
	if res.Error != nil {
		return 0, res.Error
	}

	if res.RowsAffected > 0 && s.pusher != nil {
		s.pusher.PushToUser(peerOf(conv, userID), "message.read", gin.H{
			"conversation_id": conversationID,
			"reader_id":       userID,
			"read_at":         now,
		})
	}
	return res.RowsAffected, nil
}

func (s *Service) dispatchNotification(recipientID, actorID, messageID string) {
	_, err := s.tasks.Enqueue(context.Background(), taskqueue.TypeFanoutNotification, taskqueue.NotificationPayload{
		RecipientID: recipientID,
		ActorID:     actorID,
		Type:        string(models.NotificationMessage),
		MessageID:   messageID,
	}, "")
	if err != nil {
		s.logger.Warn("notification enqueue failed", zap.Error(err))
	}
}

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	a := rg.Group("", authMW)
	a.GET("/conversations", h.list)
	a.POST("/conversations", h.start)
	a.GET("/conversations/:id/messages", h.messages)
	a.POST("/conversations/:id/messages", h.send)
	a.POST("/conversations/:id/read", h.markRead)
}

func (h *Handler) list(c *gin.Context) {
	views, page, err := h.svc.List(middleware.CurrentUserID(c), pagination.FromContext(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, views, page)
}

func (h *Handler) start(c *gin.Context) {
	var dto StartConversationDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	conv, peer, err := h.svc.FindOrCreate(middleware.CurrentUserID(c), dto.Username)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.OK(c, gin.H{
		"conversation": conv,
		"peer":         peer.PublicProfile(),
	})
}

func (h *Handler) messages(c *gin.Context) {
	query, err := h.svc.MessagesQuery(c.Param("id"), middleware.CurrentUserID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	var msgs []models.MessageModel
	page, err := pagination.Paginate(query, pagination.FromContext(c), &msgs)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, msgs, page)
}

func (h *Handler) send(c *gin.Context) {
	var dto SendMessageDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	msg, err := h.svc.Send(c.Param("id"), middleware.CurrentUserID(c), &dto)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Created(c, msg)
}

func (h *Handler) markRead(c *gin.Context) {
	count, err := h.svc.MarkRead(c.Param("id"), middleware.CurrentUserID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.OK(c, gin.H{"marked_read": count})
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errUserNotFound), errors.Is(err, errConversationNotFound):
		response.NotFoundMsg(c, err.Error())
	case errors.Is(err, errNotParticipant):
		response.ForbiddenMsg(c, err.Error())
	case errors.Is(err, errSelfConversation), errors.Is(err, errEmptyMessage):
		response.BadRequest(c, err.Error())
	default:
		response.InternalError(c, err)
	}
}
