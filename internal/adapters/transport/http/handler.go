package http

import (
	"net/http"
	"time"

	"github.com/Miraines/MoonyAndStarry/session-auth/internal/adapters/transport/http/dto"
	"github.com/Miraines/MoonyAndStarry/session-auth/internal/adapters/transport/http/middleware"
	appsvc "github.com/Miraines/MoonyAndStarry/session-auth/internal/app/auth/service"
	"github.com/Miraines/MoonyAndStarry/session-auth/internal/domain/auth/claim"
	customErrors "github.com/Miraines/MoonyAndStarry/session-auth/internal/domain/auth/errors"
	lg "github.com/Miraines/MoonyAndStarry/session-auth/internal/infra/log"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	svc   appsvc.Service
	codec *claim.Codec
	log   *zap.Logger
}

func NewHandler(svc appsvc.Service, codec *claim.Codec, log *zap.Logger) *Handler {
	return &Handler{svc: svc, codec: codec, log: log}
}

func (h *Handler) Routes(r gin.IRouter) {
	requireAccess := middleware.RequireClaim[claim.AccessSubject](h.codec)
	requireRefresh := middleware.RequireClaim[claim.RefreshSubject](h.codec)

	users := r.Group("/users")
	users.POST("", h.register)
	users.GET("/me", requireAccess, h.profile)
	users.PATCH("/me", requireAccess, h.updateProfile)

	auth := r.Group("/auth")
	auth.POST("/login", h.login)
	auth.POST("/refresh", requireRefresh, h.refresh)
	auth.POST("/logout", requireRefresh, h.logout)
	auth.GET("/me", requireAccess, h.whoAmI)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().Unix()})
	})
}

func (h *Handler) register(c *gin.Context) {
	var body dto.RegisterDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		handleError(c, customErrors.NewInvalidArgument(err.Error()))
		return
	}
	h.log.Info("/users register", lg.Email(body.Email))

	user, err := h.svc.Register(c.Request.Context(), body)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewUserResponse(user))
}

func (h *Handler) login(c *gin.Context) {
	var body dto.LoginDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		handleError(c, customErrors.NewInvalidArgument(err.Error()))
		return
	}
	h.log.Info("/auth/login", lg.Email(body.Email))

	ctx := c.Request.Context()
	owner, err := h.svc.Login(ctx, body)
	if err != nil {
		if customErrors.IsInvalidCredentials(err) {
			h.log.Info("login rejected", lg.Email(body.Email), zap.Error(err))
		}
		handleError(c, err)
		return
	}
	session, err := h.svc.IssueSession(ctx, owner)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SessionResponse{
		AccessToken:      session.Access.String(),
		RefreshToken:     session.Refresh.String(),
		TokenType:        session.TokenType,
		ExpiresIn:        int64(session.AccessTTL.Seconds()),
		RefreshExpiresIn: int64(session.RefreshTTL.Seconds()),
	})
}

func (h *Handler) refresh(c *gin.Context) {
	rc, ok := middleware.ClaimFrom[claim.RefreshSubject](c)
	if !ok {
		handleError(c, customErrors.ErrMissingBearer)
		return
	}

	access, err := h.svc.Refresh(c.Request.Context(), rc)
	if err != nil {
		// a revoked refresh token is reported like any other bad token
		if customErrors.IsNotFound(err) {
			err = customErrors.ErrInvalidToken
		}
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.AccessResponse{
		AccessToken: access.String(),
		TokenType:   appsvc.TokenTypeBearer,
		ExpiresIn:   int64(claim.Lifetime[claim.AccessSubject](h.codec).Seconds()),
	})
}

func (h *Handler) logout(c *gin.Context) {
	rc, ok := middleware.ClaimFrom[claim.RefreshSubject](c)
	if !ok {
		handleError(c, customErrors.ErrMissingBearer)
		return
	}
	if err := h.svc.Logout(c.Request.Context(), rc); err != nil {
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) whoAmI(c *gin.Context) {
	ac, ok := middleware.ClaimFrom[claim.AccessSubject](c)
	if !ok {
		handleError(c, customErrors.ErrMissingBearer)
		return
	}
	c.JSON(http.StatusOK, h.svc.WhoAmI(ac))
}

func (h *Handler) profile(c *gin.Context) {
	ac, ok := middleware.ClaimFrom[claim.AccessSubject](c)
	if !ok {
		handleError(c, customErrors.ErrMissingBearer)
		return
	}
	user, err := h.svc.Profile(c.Request.Context(), ac)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewUserResponse(user))
}

func (h *Handler) updateProfile(c *gin.Context) {
	ac, ok := middleware.ClaimFrom[claim.AccessSubject](c)
	if !ok {
		handleError(c, customErrors.ErrMissingBearer)
		return
	}
	var body dto.UpdateProfileDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		handleError(c, customErrors.NewInvalidArgument(err.Error()))
		return
	}
	user, err := h.svc.UpdateProfile(c.Request.Context(), ac, body)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewUserResponse(user))
}
