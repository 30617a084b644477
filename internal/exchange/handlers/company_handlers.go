package handlers

import (
	"net/http"

	"github.com/gartstein/tradehub/internal/exchange/models"
	"github.com/gin-gonic/gin"
)

type verificationRequest struct {
	Comment string `json:"comment"`
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *Handler) registerCompanyRoutes(api *gin.RouterGroup) {
	api.POST("/companies", h.createCompany)
	api.GET("/companies", h.listCompanies)
	api.GET("/companies/:id", h.getCompany)
	api.PATCH("/companies/:id", h.updateCompany)
	api.GET("/companies/:id/reviews", h.listCompanyReviews)
	api.POST("/companies/:id/verification", h.requestVerification)
	api.POST("/companies/:id/favorite", h.addFavorite)
	api.DELETE("/companies/:id/favorite", h.removeFavorite)
	api.GET("/verification_requests", h.listVerificationRequests)
	api.POST("/verification_requests/:id/status", h.verify)
}

func (h *Handler) createCompany(c *gin.Context) {
	var company models.Company
	if err := c.ShouldBindJSON(&company); err != nil {
		h.badRequest(c, err)
		return
	}
	created, err := h.svc.Companies.CreateCompany(c.Request.Context(), &company)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) getCompany(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	company, err := h.svc.Companies.GetCompany(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, company)
}

func (h *Handler) listCompanies(c *gin.Context) {
	p, err := pageFromQuery(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	page, err := h.svc.Companies.ListCompanies(c.Request.Context(), models.CompanyStatus(c.Query("status")), p)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toPageResponse(c, page, p))
}

func (h *Handler) listCompanyReviews(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	p, err := pageFromQuery(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	page, err := h.svc.Companies.ListReviews(c.Request.Context(), id, p)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toPageResponse(c, page, p))
}

func (h *Handler) updateCompany(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	var update models.CompanyUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		h.badRequest(c, err)
		return
	}
	update.ID = id
	company, err := h.svc.Companies.UpdateCompany(c.Request.Context(), actor(c), &update)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, company)
}

func (h *Handler) requestVerification(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	var req verificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	vr, err := h.svc.Companies.RequestVerification(c.Request.Context(), actor(c), id, req.Comment)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, vr)
}

func (h *Handler) listVerificationRequests(c *gin.Context) {
	p, err := pageFromQuery(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	status := models.VerificationStatus(c.Query("status"))
	page, err := h.svc.Companies.ListVerificationRequests(c.Request.Context(), actor(c), status, p)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toPageResponse(c, page, p))
}

func (h *Handler) verify(c *gin.Context) {
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
	vr, err := h.svc.Companies.Verify(c.Request.Context(), actor(c), id, models.VerificationStatus(req.Status))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, vr)
}

func (h *Handler) addFavorite(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.svc.Companies.AddFavorite(c.Request.Context(), actor(c), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) removeFavorite(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.svc.Companies.RemoveFavorite(c.Request.Context(), actor(c), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
