package handlers

import (
	"fmt"
	"net/http"

	"github.com/gartstein/tradehub/internal/exchange/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type matchRequest struct {
	BuyingApplicationID  uuid.UUID `json:"buying_application_id" binding:"required"`
	SellingApplicationID uuid.UUID `json:"selling_application_id" binding:"required"`
}

type reviewRequest struct {
	Rate    int    `json:"rate"`
	Comment string `json:"comment"`
}

// registerDealRoutes serves both deal kinds under /deals/:kind where kind is
// recyclables_deals or equipment_deals.
func (h *Handler) registerDealRoutes(api *gin.RouterGroup) {
	api.POST("/matches", h.matchDeal)

	g := api.Group("/deals/:kind")
	g.POST("", h.createDeal)
	g.GET("", h.listDeals)
	g.GET("/:id", h.getDeal)
	g.PATCH("/:id", h.updateDeal)
	g.POST("/:id/reviews", h.createReview)
	if h.svc.Documents != nil {
		g.GET("/:id/documents/:type", h.dealDocument)
	}
}

func dealRef(c *gin.Context) (models.Ref, error) {
	kind, err := models.ParseDealKind(c.Param("kind"))
	if err != nil {
		return models.Ref{}, err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return models.Ref{}, err
	}
	return models.NewRef(kind, id), nil
}

func (h *Handler) matchDeal(c *gin.Context) {
	var req matchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	deal, err := h.svc.Deals.Match(c.Request.Context(), actor(c), req.BuyingApplicationID, req.SellingApplicationID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, deal)
}

func (h *Handler) createDeal(c *gin.Context) {
	kind, err := models.ParseDealKind(c.Param("kind"))
	if err != nil {
		h.fail(c, err)
		return
	}
	ctx := c.Request.Context()
	switch kind {
	case models.KindRecyclablesDeal:
		var deal models.RecyclablesDeal
		if err := c.ShouldBindJSON(&deal); err != nil {
			h.badRequest(c, err)
			return
		}
		created, err := h.svc.Deals.CreateRecyclablesDeal(ctx, actor(c), &deal)
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, created)
	case models.KindEquipmentDeal:
		var deal models.EquipmentDeal
		if err := c.ShouldBindJSON(&deal); err != nil {
			h.badRequest(c, err)
			return
		}
		created, err := h.svc.Deals.CreateEquipmentDeal(ctx, actor(c), &deal)
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, created)
	}
}

func (h *Handler) listDeals(c *gin.Context) {
	kind, err := models.ParseDealKind(c.Param("kind"))
	if err != nil {
		h.fail(c, err)
		return
	}
	p, err := pageFromQuery(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	f := models.DealFilter{Status: models.DealStatus(c.Query("status"))}
	if f.CompanyID, err = queryID(c, "company"); err != nil {
		h.fail(c, err)
		return
	}
	page, err := h.svc.Deals.ListDeals(c.Request.Context(), actor(c), kind, f, p)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toPageResponse(c, page, p))
}

func (h *Handler) getDeal(c *gin.Context) {
	ref, err := dealRef(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	view, err := h.svc.Deals.GetDeal(c.Request.Context(), actor(c), ref)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) updateDeal(c *gin.Context) {
	ref, err := dealRef(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	var update models.DealUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		h.badRequest(c, err)
		return
	}
	view, err := h.svc.Deals.UpdateDeal(c.Request.Context(), actor(c), ref, &update)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) createReview(c *gin.Context) {
	ref, err := dealRef(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	review, err := h.svc.Deals.CreateReview(c.Request.Context(), actor(c), ref, req.Rate, req.Comment)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, review)
}

func (h *Handler) dealDocument(c *gin.Context) {
	ref, err := dealRef(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.serveDocument(c, ref)
}

// serveDocument streams the workbook of the requested type for the subject.
// With ?meta=true only the stored document record is returned.
func (h *Handler) serveDocument(c *gin.Context, subject models.Ref) {
	docType := models.DocumentType(c.Param("type"))
	doc, err := h.svc.Documents.GetDocument(c.Request.Context(), actor(c), subject, docType)
	if err != nil {
		h.fail(c, err)
		return
	}
	if c.Query("meta") == "true" {
		c.JSON(http.StatusOK, doc)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Name))
	c.Header("X-Document-ID", doc.ID.String())
	c.Data(http.StatusOK, doc.ContentType, doc.Content)
}
