package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gartstein/tradehub/internal/exchange/auth"
	"github.com/gartstein/tradehub/internal/exchange/controller"
	"github.com/gartstein/tradehub/internal/exchange/db"
	"github.com/gartstein/tradehub/internal/exchange/hub"
	"github.com/gartstein/tradehub/internal/exchange/models"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CompanyController defines the company registry operations the HTTP
// handlers invoke.
type CompanyController interface {
	CreateCompany(ctx context.Context, company *models.Company) (*models.Company, error)
	GetCompany(ctx context.Context, id uuid.UUID) (*models.Company, error)
	ListReviews(ctx context.Context, companyID uuid.UUID, page db.Page) (controller.Page[models.Review], error)
	ListCompanies(ctx context.Context, status models.CompanyStatus, page db.Page) (controller.Page[models.Company], error)
	UpdateCompany(ctx context.Context, actor models.Actor, update *models.CompanyUpdate) (*models.Company, error)
	RequestVerification(ctx context.Context, actor models.Actor, companyID uuid.UUID, comment string) (*models.VerificationRequest, error)
	ListVerificationRequests(ctx context.Context, actor models.Actor, status models.VerificationStatus, page db.Page) (controller.Page[models.VerificationRequest], error)
	Verify(ctx context.Context, actor models.Actor, requestID uuid.UUID, status models.VerificationStatus) (*models.VerificationRequest, error)
	AddFavorite(ctx context.Context, actor models.Actor, companyID uuid.UUID) error
	RemoveFavorite(ctx context.Context, actor models.Actor, companyID uuid.UUID) error
}

type CityController interface {
	CreateCity(ctx context.Context, name string) (*models.City, error)
	GetCity(ctx context.Context, id uuid.UUID) (*models.City, error)
}

type ApplicationController interface {
	CreateRecyclablesApplication(ctx context.Context, actor models.Actor, app *models.RecyclablesApplication) (*models.RecyclablesApplication, error)
	GetRecyclablesApplication(ctx context.Context, id uuid.UUID) (*models.RecyclablesApplication, error)
	UpdateRecyclablesApplication(ctx context.Context, actor models.Actor, app *models.RecyclablesApplication) (*models.RecyclablesApplication, error)
	ListRecyclablesApplications(ctx context.Context, actor models.Actor, f models.ApplicationFilter, page db.Page) (controller.Page[models.RecyclablesApplication], error)
	SetRecyclablesApplicationStatus(ctx context.Context, actor models.Actor, id uuid.UUID, status models.ApplicationStatus) (*models.RecyclablesApplication, error)
	CreateEquipmentApplication(ctx context.Context, actor models.Actor, app *models.EquipmentApplication) (*models.EquipmentApplication, error)
	GetEquipmentApplication(ctx context.Context, id uuid.UUID) (*models.EquipmentApplication, error)
	UpdateEquipmentApplication(ctx context.Context, actor models.Actor, app *models.EquipmentApplication) (*models.EquipmentApplication, error)
	ListEquipmentApplications(ctx context.Context, actor models.Actor, f models.ApplicationFilter, page db.Page) (controller.Page[models.EquipmentApplication], error)
	SetEquipmentApplicationStatus(ctx context.Context, actor models.Actor, id uuid.UUID, status models.ApplicationStatus) (*models.EquipmentApplication, error)
}

// DealController drives matching, the deal lifecycle and reviews.
type DealController interface {
	Match(ctx context.Context, actor models.Actor, buyingID, sellingID uuid.UUID) (*models.RecyclablesDeal, error)
	CreateRecyclablesDeal(ctx context.Context, actor models.Actor, deal *models.RecyclablesDeal) (*models.RecyclablesDeal, error)
	CreateEquipmentDeal(ctx context.Context, actor models.Actor, deal *models.EquipmentDeal) (*models.EquipmentDeal, error)
	GetDeal(ctx context.Context, actor models.Actor, ref models.Ref) (*controller.DealView, error)
	ListDeals(ctx context.Context, actor models.Actor, kind models.Kind, f models.DealFilter, page db.Page) (controller.Page[models.Deal], error)
	UpdateDeal(ctx context.Context, actor models.Actor, ref models.Ref, update *models.DealUpdate) (*controller.DealView, error)
	CreateReview(ctx context.Context, actor models.Actor, ref models.Ref, rate int, comment string) (*models.Review, error)
}

// LogisticsController covers transport applications, offers and contractors.
type LogisticsController interface {
	CreateTransportApplication(ctx context.Context, actor models.Actor, app *models.TransportApplication) (*models.TransportApplication, error)
	GetTransportApplication(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.TransportApplication, error)
	ListTransportApplications(ctx context.Context, actor models.Actor, f models.TransportFilter, page db.Page) (controller.Page[models.TransportApplication], error)
	UpdateTransportStatus(ctx context.Context, actor models.Actor, id uuid.UUID, update *models.TransportUpdate) (*models.TransportApplication, error)
	CreateOffer(ctx context.Context, actor models.Actor, offer *models.LogisticsOffer) (*models.LogisticsOffer, error)
	ListOffers(ctx context.Context, actor models.Actor, applicationID uuid.UUID) ([]models.LogisticsOffer, error)
	ApproveOffer(ctx context.Context, actor models.Actor, offerID uuid.UUID) (*models.LogisticsOffer, error)
	DeclineOffer(ctx context.Context, actor models.Actor, offerID uuid.UUID) (*models.LogisticsOffer, error)
	CreateContractor(ctx context.Context, actor models.Actor, c *models.Contractor) (*models.Contractor, error)
	GetContractor(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Contractor, error)
	UpdateContractor(ctx context.Context, actor models.Actor, c *models.Contractor) (*models.Contractor, error)
	DeleteContractor(ctx context.Context, actor models.Actor, id uuid.UUID) error
	ListContractors(ctx context.Context, actor models.Actor, page db.Page) (controller.Page[models.Contractor], error)
}

type ChatController interface {
	ListChats(ctx context.Context, actor models.Actor, page db.Page) (*controller.ChatList, error)
	ListMessages(ctx context.Context, actor models.Actor, chatID uuid.UUID, page db.Page) (controller.Page[models.Message], error)
	PostMessage(ctx context.Context, actor models.Actor, chatID uuid.UUID, text string) (*models.Message, error)
	Subscribe(ctx context.Context, actor models.Actor, chatID uuid.UUID) (hub.Subscription, error)
}

type NotificationController interface {
	ListNotifications(ctx context.Context, actor models.Actor, page db.Page) (controller.Page[models.Notification], error)
	UnreadCount(ctx context.Context, actor models.Actor) (int64, error)
}

type FinanceController interface {
	GetInvoice(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.InvoicePayment, error)
	ListInvoices(ctx context.Context, actor models.Actor, status models.InvoiceStatus, page db.Page) (controller.Page[models.InvoicePayment], error)
	SetInvoiceStatus(ctx context.Context, actor models.Actor, id uuid.UUID, status models.InvoiceStatus) (*models.InvoicePayment, error)
}

type DocumentController interface {
	GetDocument(ctx context.Context, actor models.Actor, subject models.Ref, docType models.DocumentType) (*models.Document, error)
}

type UserController interface {
	Register(ctx context.Context, actor *models.Actor, reg controller.Registration) (*models.User, error)
	Login(ctx context.Context, phone, password string) (*controller.Session, error)
	Logout(ctx context.Context, claims *auth.Claims) error
	Me(ctx context.Context, actor models.Actor) (*models.User, error)
}

// Services bundles the controllers behind the REST surface. A nil field
// leaves its routes unregistered.
type Services struct {
	Companies     CompanyController
	Cities        CityController
	Applications  ApplicationController
	Deals         DealController
	Logistics     LogisticsController
	Chats         ChatController
	Notifications NotificationController
	Finance       FinanceController
	Documents     DocumentController
	Users         UserController
}

// Handler serves the exchange REST API.
type Handler struct {
	svc    Services
	logger *zap.Logger
	// heartbeat is the keep-alive period of chat streams.
	heartbeat time.Duration
}

func NewHandler(svc Services, logger *zap.Logger) *Handler {
	return &Handler{
		svc:       svc,
		logger:    logger.Named("http_handler"),
		heartbeat: 30 * time.Second,
	}
}

// RouterConfig carries the settings of the HTTP router.
type RouterConfig struct {
	JWTSecret   string
	Blacklist   auth.Blacklist
	CORSOrigins []string
}

// NewRouter builds the gin engine with the public auth routes and the
// authenticated /api/v1 group.
func NewRouter(h *Handler, cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), h.accessLog())

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.CORSOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.CORSOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authenticated := auth.Authenticate(cfg.JWTSecret, cfg.Blacklist)
	if h.svc.Users != nil {
		h.registerAuthRoutes(r.Group("/api/v1/auth"), authenticated)
	}

	api := r.Group("/api/v1", authenticated)
	if h.svc.Users != nil {
		api.GET("/users/me", h.me)
		api.POST("/users", h.createUser)
	}
	if h.svc.Companies != nil {
		h.registerCompanyRoutes(api)
	}
	if h.svc.Cities != nil {
		api.POST("/cities", h.createCity)
		api.GET("/cities/:id", h.getCity)
	}
	if h.svc.Applications != nil {
		h.registerApplicationRoutes(api)
	}
	if h.svc.Deals != nil {
		h.registerDealRoutes(api)
	}
	if h.svc.Logistics != nil {
		h.registerLogisticsRoutes(api)
	}
	if h.svc.Chats != nil {
		h.registerChatRoutes(api)
	}
	if h.svc.Notifications != nil {
		api.GET("/notifications", h.listNotifications)
		api.GET("/notifications/unread_count", h.unreadNotifications)
	}
	if h.svc.Finance != nil {
		h.registerFinanceRoutes(api)
	}
	return r
}

// NewAuthRouter serves only the login, registration and logout routes.
func NewAuthRouter(h *Handler, cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), h.accessLog())
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	h.registerAuthRoutes(r.Group("/api/v1/auth"), auth.Authenticate(cfg.JWTSecret, cfg.Blacklist))
	return r
}

func (h *Handler) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.logger.Debug("Request served",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

// actor returns the authenticated caller. The auth middleware guarantees it
// on every /api/v1 route.
func actor(c *gin.Context) models.Actor {
	a, _ := auth.ActorFromContext(c.Request.Context())
	return a
}
