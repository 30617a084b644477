package handlers

import (
	"net/http"

	"github.com/gartstein/tradehub/internal/exchange/models"
	"github.com/gin-gonic/gin"
)

// transportStatusRequest moves a transport application and records the deal
// fields the new status requires.
type transportStatusRequest struct {
	Status models.TransportStatus `json:"status" binding:"required"`
	Deal   models.DealUpdate      `json:"deal"`
}

func (h *Handler) registerLogisticsRoutes(api *gin.RouterGroup) {
	t := api.Group("/transport_applications")
	t.POST("", h.createTransportApplication)
	t.GET("", h.listTransportApplications)
	t.GET("/:id", h.getTransportApplication)
	t.POST("/:id/status", h.updateTransportStatus)
	t.GET("/:id/offers", h.listOffers)
	if h.svc.Documents != nil {
		t.GET("/:id/documents/:type", h.transportDocument)
	}

	o := api.Group("/logistics_offers")
	o.POST("", h.createOffer)
	o.POST("/:id/approve", h.approveOffer)
	o.POST("/:id/decline", h.declineOffer)

	ct := api.Group("/contractors")
	ct.POST("", h.createContractor)
	ct.GET("", h.listContractors)
	ct.GET("/:id", h.getContractor)
	ct.PUT("/:id", h.updateContractor)
	ct.DELETE("/:id", h.deleteContractor)
}

func (h *Handler) createTransportApplication(c *gin.Context) {
	var app models.TransportApplication
	if err := c.ShouldBindJSON(&app); err != nil {
		h.badRequest(c, err)
		return
	}
	created, err := h.svc.Logistics.CreateTransportApplication(c.Request.Context(), actor(c), &app)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) getTransportApplication(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	app, err := h.svc.Logistics.GetTransportApplication(c.Request.Context(), actor(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

func (h *Handler) listTransportApplications(c *gin.Context) {
	p, err := pageFromQuery(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	f := models.TransportFilter{
		Status:       models.TransportStatus(c.Query("status")),
		LogistStatus: models.LogistStatus(c.Query("logist_status")),
	}
	page, err := h.svc.Logistics.ListTransportApplications(c.Request.Context(), actor(c), f, p)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toPageResponse(c, page, p))
}

func (h *Handler) updateTransportStatus(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	var req transportStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	app, err := h.svc.Logistics.UpdateTransportStatus(c.Request.Context(), actor(c), id, &models.TransportUpdate{
		Status: req.Status,
		Deal:   req.Deal,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

func (h *Handler) transportDocument(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	h.serveDocument(c, models.NewRef(models.KindTransportApplication, id))
}

func (h *Handler) listOffers(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	offers, err := h.svc.Logistics.ListOffers(c.Request.Context(), actor(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	if offers == nil {
		offers = []models.LogisticsOffer{}
	}
	c.JSON(http.StatusOK, offers)
}

func (h *Handler) createOffer(c *gin.Context) {
	var offer models.LogisticsOffer
	if err := c.ShouldBindJSON(&offer); err != nil {
		h.badRequest(c, err)
		return
	}
	created, err := h.svc.Logistics.CreateOffer(c.Request.Context(), actor(c), &offer)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) approveOffer(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	offer, err := h.svc.Logistics.ApproveOffer(c.Request.Context(), actor(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, offer)
}

func (h *Handler) declineOffer(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	offer, err := h.svc.Logistics.DeclineOffer(c.Request.Context(), actor(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, offer)
}

func (h *Handler) createContractor(c *gin.Context) {
	var contractor models.Contractor
	if err := c.ShouldBindJSON(&contractor); err != nil {
		h.badRequest(c, err)
		return
	}
	created, err := h.svc.Logistics.CreateContractor(c.Request.Context(), actor(c), &contractor)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) getContractor(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	contractor, err := h.svc.Logistics.GetContractor(c.Request.Context(), actor(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, contractor)
}

func (h *Handler) updateContractor(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	var contractor models.Contractor
	if err := c.ShouldBindJSON(&contractor); err != nil {
		h.badRequest(c, err)
		return
	}
	contractor.ID = id
	updated, err := h.svc.Logistics.UpdateContractor(c.Request.Context(), actor(c), &contractor)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) deleteContractor(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.svc.Logistics.DeleteContractor(c.Request.Context(), actor(c), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) listContractors(c *gin.Context) {
	p, err := pageFromQuery(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	page, err := h.svc.Logistics.ListContractors(c.Request.Context(), actor(c), p)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toPageResponse(c, page, p))
}
