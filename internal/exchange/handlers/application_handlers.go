package handlers

import (
	"net/http"

	"github.com/gartstein/tradehub/internal/exchange/models"
	"github.com/gin-gonic/gin"
)

func (h *Handler) registerApplicationRoutes(api *gin.RouterGroup) {
	r := api.Group("/recyclables_applications")
	r.POST("", h.createRecyclablesApplication)
	r.GET("", h.listRecyclablesApplications)
	r.GET("/:id", h.getRecyclablesApplication)
	r.PUT("/:id", h.updateRecyclablesApplication)
	r.POST("/:id/status", h.setRecyclablesApplicationStatus)

	eq := api.Group("/equipment_applications")
	eq.POST("", h.createEquipmentApplication)
	eq.GET("", h.listEquipmentApplications)
	eq.GET("/:id", h.getEquipmentApplication)
	eq.PUT("/:id", h.updateEquipmentApplication)
	eq.POST("/:id/status", h.setEquipmentApplicationStatus)
}

func (h *Handler) createRecyclablesApplication(c *gin.Context) {
	var app models.RecyclablesApplication
	if err := c.ShouldBindJSON(&app); err != nil {
		h.badRequest(c, err)
		return
	}
	created, err := h.svc.Applications.CreateRecyclablesApplication(c.Request.Context(), actor(c), &app)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) getRecyclablesApplication(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	app, err := h.svc.Applications.GetRecyclablesApplication(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

func (h *Handler) updateRecyclablesApplication(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	var app models.RecyclablesApplication
	if err := c.ShouldBindJSON(&app); err != nil {
		h.badRequest(c, err)
		return
	}
	app.ID = id
	updated, err := h.svc.Applications.UpdateRecyclablesApplication(c.Request.Context(), actor(c), &app)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) listRecyclablesApplications(c *gin.Context) {
	p, err := pageFromQuery(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	f, err := applicationFilter(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	page, err := h.svc.Applications.ListRecyclablesApplications(c.Request.Context(), actor(c), f, p)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toPageResponse(c, page, p))
}

func (h *Handler) setRecyclablesApplicationStatus(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	app, err := h.svc.Applications.SetRecyclablesApplicationStatus(c.Request.Context(), actor(c), id, models.ApplicationStatus(req.Status))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

func (h *Handler) createEquipmentApplication(c *gin.Context) {
	var app models.EquipmentApplication
	if err := c.ShouldBindJSON(&app); err != nil {
		h.badRequest(c, err)
		return
	}
	created, err := h.svc.Applications.CreateEquipmentApplication(c.Request.Context(), actor(c), &app)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) getEquipmentApplication(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	app, err := h.svc.Applications.GetEquipmentApplication(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

func (h *Handler) updateEquipmentApplication(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	var app models.EquipmentApplication
	if err := c.ShouldBindJSON(&app); err != nil {
		h.badRequest(c, err)
		return
	}
	app.ID = id
	updated, err := h.svc.Applications.UpdateEquipmentApplication(c.Request.Context(), actor(c), &app)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) listEquipmentApplications(c *gin.Context) {
	p, err := pageFromQuery(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	f, err := applicationFilter(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	page, err := h.svc.Applications.ListEquipmentApplications(c.Request.Context(), actor(c), f, p)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toPageResponse(c, page, p))
}

func (h *Handler) setEquipmentApplicationStatus(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	app, err := h.svc.Applications.SetEquipmentApplicationStatus(c.Request.Context(), actor(c), id, models.ApplicationStatus(req.Status))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}
