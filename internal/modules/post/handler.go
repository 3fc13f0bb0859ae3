package post

import (
	"errors"

	"github.com/echo88/core/internal/middleware"
	"github.com/echo88/core/internal/models"
	"github.com/echo88/core/internal/pkg/pagination"
	"github.com/echo88/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc, optionalMW gin.HandlerFunc) {
	g := rg.Group("/posts")

	g.GET("/trending", optionalMW, h.trending)
	g.GET("/hashtag/:tag", optionalMW, h.byHashtag)
	g.GET("/:id", optionalMW, h.get)

	rg.GET("/users/:username/posts", optionalMW, h.byUser)

	a := g.Group("", authMW)
	a.POST("", h.create)
	a.GET("/feed", h.feed)
	a.PATCH("/:id", h.update)
	a.DELETE("/:id", h.delete)
	a.POST("/:id/like", h.like)
	a.DELETE("/:id/like", h.unlike)
	a.POST("/:id/save", h.save)
	a.DELETE("/:id/save", h.unsave)

	s := rg.Group("/saved", authMW)
	s.GET("", h.listSaved)
	s.POST("/collections", h.createCollection)
	s.GET("/collections", h.listCollections)
}

func (h *Handler) create(c *gin.Context) {
	var dto CreatePostDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	p, err := h.svc.Create(middleware.CurrentUserID(c), &dto)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Created(c, p)
}

func (h *Handler) get(c *gin.Context) {
	p, err := h.svc.GetByID(c.Param("id"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if p == nil {
		response.NotFound(c)
		return
	}

	out := gin.H{"post": p}
	if viewerID := middleware.CurrentUserID(c); viewerID != "" {
		liked, _ := h.svc.HasLiked(p.ID, viewerID)
		out["liked"] = liked
	}
	response.OK(c, out)
}

func (h *Handler) update(c *gin.Context) {
	var dto UpdatePostDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	p, err := h.svc.Update(c.Param("id"), middleware.CurrentUserID(c), &dto)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.OK(c, p)
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Param("id"), middleware.CurrentUserID(c)); err != nil {
		h.writeError(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) feed(c *gin.Context) {
	q := pagination.FromContext(c)
	var posts []models.PostModel
	page, err := pagination.Paginate(h.svc.FeedQuery(middleware.CurrentUserID(c)), q, &posts)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, posts, page)
}

func (h *Handler) trending(c *gin.Context) {
	q := pagination.FromContext(c)
	var posts []models.PostModel
	page, err := pagination.Paginate(h.svc.TrendingQuery(), q, &posts)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, posts, page)
}

func (h *Handler) byHashtag(c *gin.Context) {
	q := pagination.FromContext(c)
	var posts []models.PostModel
	page, err := pagination.Paginate(h.svc.HashtagQuery(c.Param("tag")), q, &posts)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, posts, page)
}

func (h *Handler) byUser(c *gin.Context) {
	query, err := h.svc.UserPosts(c.Param("username"), middleware.CurrentUserID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	q := pagination.FromContext(c)
	var posts []models.PostModel
	page, err := pagination.Paginate(query, q, &posts)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, posts, page)
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

func (h *Handler) save(c *gin.Context) {
	var dto SavePostDTO
	if err := c.ShouldBindJSON(&dto); err != nil && c.Request.ContentLength > 0 {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.svc.Save(c.Param("id"), middleware.CurrentUserID(c), dto.CollectionID); err != nil {
		h.writeError(c, err)
		return
	}
	response.OK(c, gin.H{"saved": true})
}

func (h *Handler) unsave(c *gin.Context) {
	if err := h.svc.Unsave(c.Param("id"), middleware.CurrentUserID(c)); err != nil {
		h.writeError(c, err)
		return
	}
	response.OK(c, gin.H{"saved": false})
}

func (h *Handler) listSaved(c *gin.Context) {
	var collectionID *string
	if v := c.Query("collection_id"); v != "" {
		collectionID = &v
	}

	q := pagination.FromContext(c)
	var saved []models.SavedPost
	page, err := pagination.Paginate(h.svc.SavedQuery(middleware.CurrentUserID(c), collectionID), q, &saved)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, saved, page)
}

func (h *Handler) createCollection(c *gin.Context) {
	var dto struct {
		Name string `json:"name" binding:"required,max=50"`
	}
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	col, err := h.svc.CreateCollection(middleware.CurrentUserID(c), dto.Name)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Created(c, col)
}

func (h *Handler) listCollections(c *gin.Context) {
	cols, err := h.svc.ListCollections(middleware.CurrentUserID(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, cols)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errPostNotFound):
		response.NotFound(c)
	case errors.Is(err, errUserNotFound):
		response.NotFoundMsg(c, err.Error())
	case errors.Is(err, errNotOwner):
		response.Forbidden(c)
	case errors.Is(err, errPrivateAccount):
		response.ForbiddenMsg(c, err.Error())
	default:
		response.InternalError(c, err)
	}
}
