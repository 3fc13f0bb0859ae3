package story

import (
	"errors"
	"time"

	"github.com/echo88/core/internal/middleware"
	"github.com/echo88/core/internal/models"
	"github.com/echo88/core/internal/pkg/response"
	"github.com/echo88/core/internal/pkg/sanitize"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var (
	errStoryNotFound = errors.New("story not found")
	errNotOwner      = errors.New("not the story owner")
)

type CreateStoryDTO struct {
	Media   models.MediaRef `json:"media" binding:"required"`
	Caption string          `json:"caption" binding:"max=500"`
}

// AuthorStories groups a user's active stories for the tray view.
type AuthorStories struct {
	Author  map[string]interface{} `json:"author"`
	Stories []models.StoryModel    `json:"stories"`
}

type Service struct {
	db  *gorm.DB
	ttl time.Duration
}

func NewService(db *gorm.DB, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Service{db: db, ttl: ttl}
}

func (s *Service) Create(authorID string, dto *CreateStoryDTO) (*models.StoryModel, error) {
	st := models.StoryModel{
		AuthorID:  authorID,
		Media:     dto.Media,
		Caption:   sanitize.Text(dto.Caption),
		ExpiresAt: time.Now().Add(s.ttl),
	}
	return &st, s.db.Create(&st).Error
}

func (s *Service) GetByID(id string) (*models.StoryModel, error) {
	var st models.StoryModel
	err := s.db.Preload("Author").
		Where("id = ? AND expires_at > ?", id, time.Now()).
		First(&st).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &st, nil
}

// Tray lists active stories of followed users plus the viewer's own,
// grouped by author with the freshest author first.
func (s *Service) Tray(userID string) ([]AuthorStories, error) {
	followed := s.db.Model(&models.FollowModel{}).
		Select("followee_id").Where("follower_id = ?", userID)

	var stories []models.StoryModel
	err := s.db.Preload("Author").
		Where("expires_at > ?", time.Now()).
		Where("author_id IN (?) OR author_id = ?", followed, userID).
		Order("created_at DESC").
		Find(&stories).Error
	if err != nil {
		return nil, err
	}

	grouped := make(map[string]*AuthorStories)
	order := make([]string, 0)
	for _, st := range stories {
		g, ok := grouped[st.AuthorID]
		if !ok {
			g = &AuthorStories{}
			if st.Author != nil {
				g.Author = st.Author.PublicProfile()
			}
			grouped[st.AuthorID] = g
			order = append(order, st.AuthorID)
		}
		g.Stories = append(g.Stories, st)
	}

	out := make([]AuthorStories, 0, len(order))
	for _, id := range order {
		out = append(out, *grouped[id])
	}
	return out, nil
}

// View records the viewer once and bumps the counter on first view.
func (s *Service) View(storyID, viewerID string) error {
	st, err := s.GetByID(storyID)
	if err != nil {
		return err
	}
	if st == nil {
		return errStoryNotFound
	}
	if st.AuthorID == viewerID {
		return nil
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		view := models.StoryView{StoryID: storyID, ViewerID: viewerID}
		res := tx.Where("story_id = ? AND viewer_id = ?", storyID, viewerID).FirstOrCreate(&view)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		return tx.Model(&models.StoryModel{}).Where("id = ?", storyID).
			UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error
	})
}

// Viewers lists who saw the story; only the author may ask.
func (s *Service) Viewers(storyID, userID string) ([]models.UserModel, error) {
	st, err := s.GetByID(storyID)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, errStoryNotFound
	}
	if st.AuthorID != userID {
		return nil, errNotOwner
	}

	var viewers []models.UserModel
	err = s.db.Model(&models.UserModel{}).
		Joins("JOIN story_views ON story_views.viewer_id = users.id").
		Where("story_views.story_id = ?", storyID).
		Order("story_views.created_at DESC").
		Find(&viewers).Error
	return viewers, err
}

func (s *Service) Delete(storyID, userID string) error {
	var st models.StoryModel
	if err := s.db.First(&st, "id = ?", storyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errStoryNotFound
		}
		return err
	}
	if st.AuthorID != userID {
		return errNotOwner
	}
	return s.db.Delete(&models.StoryModel{}, "id = ?", storyID).Error
}

// PurgeExpired hard-deletes stories and their views past expiry.
func (s *Service) PurgeExpired() (int64, error) {
	var expired []string
	if err := s.db.Model(&models.StoryModel{}).Unscoped().
		Where("expires_at < ?", time.Now()).
		Pluck("id", &expired).Error; err != nil {
		return 0, err
	}
	if len(expired) == 0 {
		return 0, nil
	}

	if err := s.db.Unscoped().Delete(&models.StoryView{}, "story_id IN ?", expired).Error; err != nil {
		return 0, err
	}
	res := s.db.Unscoped().Delete(&models.StoryModel{}, "id IN ?", expired)
	return res.RowsAffected, res.Error
}

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/stories", authMW)
	g.POST("", h.create)
	g.GET("", h.tray)
	g.GET("/:id", h.get)
	g.POST("/:id/view", h.view)
	g.GET("/:id/viewers", h.viewers)
	g.DELETE("/:id", h.delete)
}

func (h *Handler) create(c *gin.Context) {
	var dto CreateStoryDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	st, err := h.svc.Create(middleware.CurrentUserID(c), &dto)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Created(c, st)
}

func (h *Handler) tray(c *gin.Context) {
	groups, err := h.svc.Tray(middleware.CurrentUserID(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, groups)
}

func (h *Handler) get(c *gin.Context) {
	st, err := h.svc.GetByID(c.Param("id"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if st == nil {
		response.NotFound(c)
		return
	}
	response.OK(c, st)
}

func (h *Handler) view(c *gin.Context) {
	if err := h.svc.View(c.Param("id"), middleware.CurrentUserID(c)); err != nil {
		h.writeError(c, err)
		return
	}
	response.OK(c, gin.H{"viewed": true})
}

func (h *Handler) viewers(c *gin.Context) {
	viewers, err := h.svc.Viewers(c.Param("id"), middleware.CurrentUserID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	data := make([]map[string]interface{}, 0, len(viewers))
	for _, v := range viewers {
		data = append(data, v.PublicProfile())
	}
	response.OK(c, data)
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Param("id"), middleware.CurrentUserID(c)); err != nil {
		h.writeError(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errStoryNotFound):
		response.NotFound(c)
	case errors.Is(err, errNotOwner):
		response.Forbidden(c)
	default:
		response.InternalError(c, err)
	}
}
