package handlers

import (
	"net/http"

	"github.com/gartstein/tradehub/internal/exchange/models"
	"github.com/gin-gonic/gin"
)

func (h *Handler) registerFinanceRoutes(api *gin.RouterGroup) {
	g := api.Group("/invoices")
	g.GET("", h.listInvoices)
	g.GET("/:id", h.getInvoice)
	g.POST("/:id/status", h.setInvoiceStatus)
	if h.svc.Documents != nil {
		g.GET("/:id/documents/:type", h.invoiceDocument)
	}
}

func (h *Handler) listInvoices(c *gin.Context) {
	p, err := pageFromQuery(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	status := models.InvoiceStatus(c.Query("status"))
	page, err := h.svc.Finance.ListInvoices(c.Request.Context(), actor(c), status, p)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toPageResponse(c, page, p))
}

func (h *Handler) getInvoice(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	inv, err := h.svc.Finance.GetInvoice(c.Request.Context(), actor(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

func (h *Handler) setInvoiceStatus(c *gin.Context) {
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
	inv, err := h.svc.Finance.SetInvoiceStatus(c.Request.Context(), actor(c), id, models.InvoiceStatus(req.Status))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

func (h *Handler) invoiceDocument(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	h.serveDocument(c, models.NewRef(models.KindInvoicePayment, id))
}
