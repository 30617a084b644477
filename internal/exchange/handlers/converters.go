package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gartstein/tradehub/internal/exchange/controller"
	"github.com/gartstein/tradehub/internal/exchange/db"
	e "github.com/gartstein/tradehub/internal/exchange/errors"
	"github.com/gartstein/tradehub/internal/exchange/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// PageResponse is the envelope of paginated listings.
type PageResponse[T any] struct {
	Count     int64   `json:"count"`
	PageCount int     `json:"page_count"`
	Next      *string `json:"next"`
	Previous  *string `json:"previous"`
	Results   []T     `json:"results"`
}

// mapServiceError maps domain or repository errors to an HTTP status and body.
func mapServiceError(err error) (int, ErrorResponse) {
	var verr *e.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: verr.Error(), Fields: verr.Fields}
	case errors.Is(err, e.ErrInvalidInput), errors.Is(err, e.ErrUnsupportedKind):
		return http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: err.Error()}
	case errors.Is(err, e.ErrUnauthorized):
		return http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: err.Error()}
	case errors.Is(err, e.ErrForbidden):
		return http.StatusForbidden, ErrorResponse{Error: "forbidden", Message: err.Error()}
	case errors.Is(err, e.ErrNotFound):
		return http.StatusNotFound, ErrorResponse{Error: "not_found", Message: err.Error()}
	case errors.Is(err, e.ErrDuplicate), errors.Is(err, e.ErrDuplicateReview),
		errors.Is(err, e.ErrOfferAlreadyApproved):
		return http.StatusConflict, ErrorResponse{Error: "conflict", Message: err.Error()}
	case errors.Is(err, e.ErrInvalidTransition), errors.Is(err, e.ErrDealClosed),
		errors.Is(err, e.ErrNoApprovedOffer):
		return http.StatusConflict, ErrorResponse{Error: "invalid_state", Message: err.Error()}
	}
	return http.StatusInternalServerError, ErrorResponse{Error: "internal_error", Message: "internal server error"}
}

func (h *Handler) fail(c *gin.Context, err error) {
	code, body := mapServiceError(err)
	if code == http.StatusInternalServerError {
		h.logger.Error("Internal server error",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	c.AbortWithStatusJSON(code, body)
}

func (h *Handler) badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
		Error:   "validation_error",
		Message: "invalid request body: " + err.Error(),
	})
}

// pathID parses the named path parameter as a UUID.
func pathID(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, e.NewValidationError(map[string]string{name: "invalid id"})
	}
	return id, nil
}

// queryID parses an optional UUID query parameter.
func queryID(c *gin.Context, name string) (uuid.UUID, error) {
	raw := c.Query(name)
	if raw == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, e.NewValidationError(map[string]string{name: "invalid id"})
	}
	return id, nil
}

// pageFromQuery reads the page and size query parameters.
func pageFromQuery(c *gin.Context) (db.Page, error) {
	var p db.Page
	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return p, e.NewValidationError(map[string]string{"page": "must be a positive integer"})
		}
		p.Number = n
	}
	if raw := c.Query("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return p, e.NewValidationError(map[string]string{"size": "must be a positive integer"})
		}
		p.Size = n
	}
	return p.Normalize(), nil
}

func pageLink(u *url.URL, number int) *string {
	link := *u
	q := link.Query()
	q.Set("page", strconv.Itoa(number))
	link.RawQuery = q.Encode()
	s := link.String()
	return &s
}

// toPageResponse wraps a service page in the listing envelope, with next and
// previous links built from the request URL.
func toPageResponse[T any](c *gin.Context, page controller.Page[T], p db.Page) PageResponse[T] {
	p = p.Normalize()
	pages := int((page.Total + int64(p.Size) - 1) / int64(p.Size))
	resp := PageResponse[T]{
		Count:     page.Total,
		PageCount: pages,
		Results:   page.Items,
	}
	if resp.Results == nil {
		resp.Results = []T{}
	}
	if p.Number < pages {
		resp.Next = pageLink(c.Request.URL, p.Number+1)
	}
	if p.Number > 1 {
		resp.Previous = pageLink(c.Request.URL, p.Number-1)
	}
	return resp
}

// applicationFilter reads the listing filters shared by both application
// kinds. Points come as repeated "lat,lon" values.
func applicationFilter(c *gin.Context) (models.ApplicationFilter, error) {
	f := models.ApplicationFilter{
		DealType:    models.DealType(c.Query("deal_type")),
		UrgencyType: models.UrgencyType(c.Query("urgency_type")),
		Status:      models.ApplicationStatus(c.Query("status")),
	}
	var err error
	if f.CompanyID, err = queryID(c, "company"); err != nil {
		return f, err
	}
	if f.RecyclablesID, err = queryID(c, "recyclables"); err != nil {
		return f, err
	}
	if points := c.QueryArray("point"); len(points) > 0 {
		if f.Polygon, err = models.ParsePolygon(points); err != nil {
			return f, err
		}
	}
	return f, nil
}
