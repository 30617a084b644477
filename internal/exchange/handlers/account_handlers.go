package handlers

import (
	"net/http"

	"github.com/gartstein/tradehub/internal/exchange/auth"
	"github.com/gartstein/tradehub/internal/exchange/controller"
	e "github.com/gartstein/tradehub/internal/exchange/errors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type loginRequest struct {
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) registerAuthRoutes(g *gin.RouterGroup, authenticated gin.HandlerFunc) {
	g.POST("/register", h.register)
	g.POST("/login", h.login)
	g.POST("/logout", authenticated, h.logout)
}

func (h *Handler) register(c *gin.Context) {
	var req controller.Registration
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	user, err := h.svc.Users.Register(c.Request.Context(), nil, req)
	if err != nil {
		h.logger.Warn("Registration failed", zap.String("phone", req.Phone), zap.Error(err))
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// createUser lets an admin register platform staff.
func (h *Handler) createUser(c *gin.Context) {
	var req controller.Registration
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	caller := actor(c)
	user, err := h.svc.Users.Register(c.Request.Context(), &caller, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	session, err := h.svc.Users.Login(c.Request.Context(), req.Phone, req.Password)
	if err != nil {
		h.logger.Warn("Login failed", zap.String("phone", req.Phone), zap.Error(err))
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *Handler) logout(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c.Request.Context())
	if !ok {
		h.fail(c, e.ErrUnauthorized)
		return
	}
	if err := h.svc.Users.Logout(c.Request.Context(), claims); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) me(c *gin.Context) {
	user, err := h.svc.Users.Me(c.Request.Context(), actor(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) listNotifications(c *gin.Context) {
	p, err := pageFromQuery(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	page, err := h.svc.Notifications.ListNotifications(c.Request.Context(), actor(c), p)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toPageResponse(c, page, p))
}

func (h *Handler) unreadNotifications(c *gin.Context) {
	n, err := h.svc.Notifications.UnreadCount(c.Request.Context(), actor(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread_count": n})
}

type cityRequest struct {
	Name string `json:"name" binding:"required"`
}

func (h *Handler) createCity(c *gin.Context) {
	var req cityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	city, err := h.svc.Cities.CreateCity(c.Request.Context(), req.Name)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, city)
}

func (h *Handler) getCity(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	city, err := h.svc.Cities.GetCity(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, city)
}
