package user

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
	g := rg.Group("/users")

	g.GET("/:username", optionalMW, h.getProfile)
	g.GET("/:username/followers", optionalMW, h.listFollowers)
	g.GET("/:username/following", optionalMW, h.listFollowing)

	a := rg.Group("", authMW)
	a.PATCH("/profile", h.updateProfile)
	a.PATCH("/settings", h.updateSettings)
	a.GET("/search", h.search)
	a.GET("/suggestions", h.suggestions)
	a.POST("/users/:username/follow", h.follow)
	a.DELETE("/users/:username/follow", h.unfollow)
	a.DELETE("/followers/:username", h.removeFollower)
}

// resolve loads the target user from the path param.
func (h *Handler) resolve(c *gin.Context) *models.UserModel {
	u, err := h.svc.GetByUsername(c.Param("username"))
	if err != nil {
		response.InternalError(c, err)
		return nil
	}
	if u == nil {
		response.NotFound(c)
		return nil
	}
	return u
}

// canViewConnections checks the private-account gate for follower and
// following lists.
func (h *Handler) canViewConnections(c *gin.Context, target *models.UserModel) bool {
	if !target.IsPrivate {
		return true
	}
	viewerID := middleware.CurrentUserID(c)
	if viewerID == target.ID {
		return true
	}
	if viewerID == "" {
		return false
	}
	following, err := h.svc.IsFollowing(viewerID, target.ID)
	if err != nil {
		return false
	}
	return following
}

func (h *Handler) getProfile(c *gin.Context) {
	u := h.resolve(c)
	if u == nil {
		return
	}

	profile := u.PublicProfile()
	viewerID := middleware.CurrentUserID(c)
	if viewerID != "" && viewerID != u.ID {
		following, _ := h.svc.IsFollowing(viewerID, u.ID)
		profile["is_following"] = following
	}
	response.OK(c, profile)
}

func (h *Handler) updateProfile(c *gin.Context) {
	var dto UpdateProfileDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	u, err := h.svc.UpdateProfile(middleware.CurrentUserID(c), &dto)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if u == nil {
		response.NotFound(c)
		return
	}
	response.OK(c, u)
}

func (h *Handler) updateSettings(c *gin.Context) {
	var dto UpdateSettingsDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	u, err := h.svc.UpdateSettings(middleware.CurrentUserID(c), &dto)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if u == nil {
		response.NotFound(c)
		return
	}
	response.OK(c, u)
}

func (h *Handler) follow(c *gin.Context) {
	target := h.resolve(c)
	if target == nil {
		return
	}
	err := h.svc.Follow(middleware.CurrentUserID(c), target.ID)
	if err != nil {
		if errors.Is(err, errSelfFollow) {
			response.BadRequest(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{"following": true})
}

func (h *Handler) unfollow(c *gin.Context) {
	target := h.resolve(c)
	if target == nil {
		return
	}
	err := h.svc.Unfollow(middleware.CurrentUserID(c), target.ID)
	if err != nil {
		if errors.Is(err, errNotFollowing) {
			response.BadRequest(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{"following": false})
}

func (h *Handler) removeFollower(c *gin.Context) {
	target := h.resolve(c)
	if target == nil {
		return
	}
	err := h.svc.RemoveFollower(middleware.CurrentUserID(c), target.ID)
	if err != nil && !errors.Is(err, errNotFollowing) {
		response.InternalError(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) listFollowers(c *gin.Context) {
	target := h.resolve(c)
	if target == nil {
		return
	}
	if !h.canViewConnections(c, target) {
		response.ForbiddenMsg(c, "this account is private")
		return
	}

	q := pagination.FromContext(c)
	var users []models.UserModel
	page, err := pagination.Paginate(h.svc.FollowersQuery(target.ID), q, &users)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, publicList(users), page)
}

func (h *Handler) listFollowing(c *gin.Context) {
	target := h.resolve(c)
	if target == nil {
		return
	}
	if !h.canViewConnections(c, target) {
		response.ForbiddenMsg(c, "this account is private")
		return
	}

	q := pagination.FromContext(c)
	var users []models.UserModel
	page, err := pagination.Paginate(h.svc.FollowingQuery(target.ID), q, &users)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, publicList(users), page)
}

func (h *Handler) search(c *gin.Context) {
	term := c.Query("q")
	if term == "" {
		response.BadRequest(c, "q is required")
		return
	}

	q := pagination.FromContext(c)
	var users []models.UserModel
	page, err := pagination.Paginate(h.svc.SearchQuery(term), q, &users)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, publicList(users), page)
}

func (h *Handler) suggestions(c *gin.Context) {
	list, err := h.svc.Suggestions(middleware.CurrentUserID(c), 10)
	if err != nil {
		response.InternalError(c, err)
		return
	}

	data := make([]gin.H, 0, len(list))
	for _, s := range list {
		data = append(data, gin.H{
			"user":         s.User.PublicProfile(),
			"mutual_count": s.MutualCount,
		})
	}
	response.OK(c, data)
}

func publicList(users []models.UserModel) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(users))
	for _, u := range users {
		out = append(out, u.PublicProfile())
	}
	return out
}
