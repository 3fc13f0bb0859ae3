package comment

import (
	"context"
	"errors"

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
	errPostNotFound     = errors.New("post not found")
	errCommentNotFound  = errors.New("comment not found")
	errCommentsDisabled = errors.New("comments are disabled on this post")
	errParentMismatch   = errors.New("parent comment belongs to another post")
	errNotAllowed       = errors.New("not allowed")
)

type CreateCommentDTO struct {
	Text     string  `json:"text" binding:"required,max=1000"`
	ParentID *string `json:"parent_id"`
}

type Service struct {
	db     *gorm.DB
	tasks  *taskqueue.Service
	logger *zap.Logger
}

func NewService(db *gorm.DB, tasks *taskqueue.Service, logger *zap.Logger) *Service {
	return &Service{db: db, tasks: tasks, logger: logger}
}

func (s *Service) getPost(postID string) (*models.PostModel, error) {
	var p models.PostModel
	if err := s.db.First(&p, "id = ?", postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errPostNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Create adds a comment or reply and bumps the post counter.
func (s *Service) Create(postID, authorID string, dto *CreateCommentDTO) (*models.CommentModel, error) {
	p, err := s.getPost(postID)
	if err != nil {
		return nil, err
	}
	if p.DisableComments {
		return nil, errCommentsDisabled
	}

	if dto.ParentID != nil {
		var parent models.CommentModel
		if err := s.db.First(&parent, "id = ?", *dto.ParentID).Error; err != nil {
			return nil, errCommentNotFound
		}
		if parent.PostID != postID {
			return nil, errParentMismatch
		}
	}

	text := sanitize.Text(dto.Text)
	cm := models.CommentModel{
		PostID:   postID,
		AuthorID: authorID,
		Text:     text,
		ParentID: dto.ParentID,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&cm).Error; err != nil {
			return err
		}
		return tx.Model(&models.PostModel{}).Where("id = ?", postID).
			UpdateColumn("comment_count", gorm.Expr("comment_count + 1")).Error
	})
	if err != nil {
		return nil, err
	}

	if p.AuthorID != authorID {
		s.dispatchNotification(p.AuthorID, authorID, models.NotificationComment, postID, cm.ID)
	}
	return &cm, nil
}

// Delete removes a comment; allowed for the comment author and the post owner.
func (s *Service) Delete(commentID, userID string) error {
	var cm models.CommentModel
	if err := s.db.First(&cm, "id = ?", commentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errCommentNotFound
		}
		return err
	}

	if cm.AuthorID != userID {
		p, err := s.getPost(cm.PostID)
		if err != nil {
			return err
		}
		if p.AuthorID != userID {
			return errNotAllowed
		}
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.CommentModel{}, "id = ? OR parent_id = ?", commentID, commentID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		return tx.Model(&models.PostModel{}).
			Where("id = ? AND comment_count >= ?", cm.PostID, res.RowsAffected).
			UpdateColumn("comment_count", gorm.Expr("comment_count - ?", res.RowsAffected)).Error
	})
}

// ListQuery returns top-level comments of a post with their replies.
func (s *Service) ListQuery(postID string) *gorm.DB {
	return s.db.Model(&models.CommentModel{}).
		Preload("Author").
		Preload("Children").
		Preload("Children.Author").
		Where("post_id = ? AND parent_id IS NULL", postID).
		Order("created_at ASC")
}

// Like records a like once and bumps the counter.
func (s *Service) Like(commentID, userID string) error {
	var cm models.CommentModel
	if err := s.db.First(&cm, "id = ?", commentID).Error; err != nil {
		return errCommentNotFound
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		like := models.CommentLike{CommentID: commentID, UserID: userID}
		res := tx.Where("comment_id = ? AND user_id = ?", commentID, userID).FirstOrCreate(&like)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		return tx.Model(&models.CommentModel{}).Where("id = ?", commentID).
			UpdateColumn("like_count", gorm.Expr("like_count + 1")).Error
	})
}

func (s *Service) Unlike(commentID, userID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("comment_id = ? AND user_id = ?", commentID, userID).
			Delete(&models.CommentLike{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		return tx.Model(&models.CommentModel{}).
			Where("id = ? AND like_count > 0", commentID).
			UpdateColumn("like_count", gorm.Expr("like_count - 1")).Error
	})
}

func (s *Service) dispatchNotification(recipientID, actorID string, typ models.NotificationType, postID, commentID string) {
	_, err := s.tasks.Enqueue(context.Background(), taskqueue.TypeFanoutNotification, taskqueue.NotificationPayload{
		RecipientID: recipientID,
		ActorID:     actorID,
		Type:        string(typ),
		PostID:      postID,
		CommentID:   commentID,
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

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc, optionalMW gin.HandlerFunc) {
	rg.GET("/posts/:id/comments", optionalMW, h.list)

	a := rg.Group("", authMW)
	a.POST("/posts/:id/comments", h.create)
	a.DELETE("/comments/:id", h.delete)
	a.POST("/comments/:id/like", h.like)
	a.DELETE("/comments/:id/like", h.unlike)
}

func (h *Handler) list(c *gin.Context) {
	q := pagination.FromContext(c)
	var comments []models.CommentModel
	page, err := pagination.Paginate(h.svc.ListQuery(c.Param("id")), q, &comments)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, comments, page)
}

func (h *Handler) create(c *gin.Context) {
	var dto CreateCommentDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	cm, err := h.svc.Create(c.Param("id"), middleware.CurrentUserID(c), &dto)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Created(c, cm)
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Param("id"), middleware.CurrentUserID(c)); err != nil {
		h.writeError(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) like(c *gin.Context) {
	if err := h.svc.Like(c.Param("id"), middleware.CurrentUserID(c)); err != nil {
		h.writeError(c, err)
		return
	}
	response.OK(c, gin.H{"liked": true})
}

func (h *Handler) unlike(c *gin.Context) {
	if err := h.svc.Unlike(c.Param("id"), middleware.CurrentUserID(c)); err != nil {
		h.writeError(c, err)
		return
	}
	response.OK(c, gin.H{"liked": false})
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errPostNotFound), errors.Is(err, errCommentNotFound):
		response.NotFound(c)
	case errors.Is(err, errCommentsDisabled), errors.Is(err, errParentMismatch):
		response.BadRequest(c, err.Error())
	case errors.Is(err, errNotAllowed):
		response.Forbidden(c)
	default:
		response.InternalError(c, err)
	}
}
