package auth

import (
	"errors"
	"net/http"

	"github.com/echo88/core/internal/middleware"
	"github.com/echo88/core/internal/pkg/mail"
	"github.com/echo88/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc, optionalMW gin.HandlerFunc) {
	g := rg.Group("/auth")

	g.POST("/signup", h.signup)
	g.POST("/login", h.login)
	g.POST("/logout", optionalMW, h.logout)
	g.POST("/forgot-password", h.forgotPassword)
	g.POST("/reset-password", h.resetPassword)
	g.POST("/verify-email", h.verifyEmail)
	g.GET("/verify-email", h.verifyEmailRedirect)
	g.POST("/resend-verification", h.resendVerification)

	a := g.Group("", authMW)
	a.POST("/logout-all", h.logoutAll)
	a.GET("/me", h.me)
	a.GET("/sessions", h.listSessions)
	a.POST("/sessions/revoke", h.revokeSession)
}

func (h *Handler) signup(c *gin.Context) {
	var dto SignupDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if errs := ValidatePassword(dto.Password); len(errs) > 0 {
		response.ValidationFailed(c, errs)
		return
	}

	u, err := h.svc.Signup(&dto)
	if err != nil {
		if errors.Is(err, errEmailTaken) || errors.Is(err, errUsernameTaken) {
			response.Conflict(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, u)
}

func (h *Handler) login(c *gin.Context) {
	var dto LoginDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	token, u, err := h.svc.Login(&dto, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		if errors.Is(err, errInvalidCredentials) {
			response.Unauthorized(c)
			return
		}
		if errors.Is(err, errNotVerified) {
			c.JSON(http.StatusForbidden, gin.H{
				"ok":                   0,
				"code":                 http.StatusForbidden,
				"message":              "email not verified",
				"requiresVerification": true,
				"user_id":              u.ID,
			})
			return
		}
		response.InternalError(c, err)
		return
	}

	h.svc.sessions.SetAuthCookie(c, token)
	response.OK(c, gin.H{"token": token, "user": u})
}

func (h *Handler) logout(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	sessionID := middleware.CurrentSessionID(c)
	if userID != "" && sessionID != "" {
		if err := h.svc.sessions.Revoke(userID, sessionID); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			h.svc.logger.Warn("session revoke failed on logout")
		}
	}
	h.svc.sessions.ClearAuthCookies(c)
	response.OK(c, gin.H{"message": "logged out"})
}

func (h *Handler) logoutAll(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	if err := h.svc.sessions.RevokeAll(userID, middleware.CurrentSessionID(c)); err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{"message": "all other sessions revoked"})
}

func (h *Handler) me(c *gin.Context) {
	u, err := h.svc.GetByID(middleware.CurrentUserID(c))
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

func (h *Handler) listSessions(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	currentSessionID := middleware.CurrentSessionID(c)

	sessions, err := h.svc.sessions.ListActive(userID)
	if err != nil {
		response.InternalError(c, err)
		return
	}

	data := make([]sessionResponse, 0, len(sessions))
	for _, s := range sessions {
		data = append(data, sessionResponse{
			ID:       s.ID,
			DeviceID: s.DeviceID,
			IP:       s.IP,
			UA:       s.UA,
			Date:     s.UpdatedAt,
			Current:  s.ID == currentSessionID,
		})
	}
	response.OK(c, data)
}

func (h *Handler) revokeSession(c *gin.Context) {
	var dto RevokeSessionDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	userID := middleware.CurrentUserID(c)
	if err := h.svc.sessions.Revoke(userID, dto.SessionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c)
			return
		}
		response.InternalError(c, err)
		return
	}
	response.NoContent(c)
}

// forgotPassword always answers with the same body so account existence
// cannot be probed.
func (h *Handler) forgotPassword(c *gin.Context) {
	var dto ForgotPasswordDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	h.svc.ForgotPassword(dto.Email)
	response.OK(c, gin.H{"message": "if the account exists, a reset email has been sent"})
}

func (h *Handler) resetPassword(c *gin.Context) {
	var dto ResetPasswordDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if errs := ValidatePassword(dto.Password); len(errs) > 0 {
		response.ValidationFailed(c, errs)
		return
	}
	if err := h.svc.ResetPassword(dto.Token, dto.Password); err != nil {
		if errors.Is(err, errTokenInvalid) {
			response.BadRequest(c, "invalid or expired token")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{"message": "password updated"})
}

func (h *Handler) verifyEmail(c *gin.Context) {
	var dto VerifyEmailDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.svc.VerifyEmail(dto.Token); err != nil {
		if errors.Is(err, errTokenInvalid) {
			response.BadRequest(c, "invalid or expired token")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{"message": "email verified"})
}

// verifyEmailRedirect handles the link clicked from the email client and
// bounces back to the web app with a status flag.
func (h *Handler) verifyEmailRedirect(c *gin.Context) {
	err := h.svc.VerifyEmail(c.Query("token"))
	target := h.svc.webURL + "/login?verified=true"
	if err != nil {
		target = h.svc.webURL + "/login?verified=false"
	}
	c.Redirect(http.StatusFound, target)
}

func (h *Handler) resendVerification(c *gin.Context) {
	var dto ResendVerificationDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.svc.ResendVerification(dto.Email); err != nil {
		if errors.Is(err, mail.ErrSandboxRestricted) {
			response.ForbiddenMsg(c, "email provider is in test mode, verify a sending domain first")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{"message": "if the account exists, a verification email has been sent"})
}
