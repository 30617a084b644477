package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gartstein/tradehub/internal/exchange/auth"
	"github.com/gartstein/tradehub/internal/exchange/controller"
	"github.com/gartstein/tradehub/internal/exchange/db"
	e "github.com/gartstein/tradehub/internal/exchange/errors"
	"github.com/gartstein/tradehub/internal/exchange/hub"
	"github.com/gartstein/tradehub/internal/exchange/models"
	"github.com/gartstein/tradehub/internal/pkg/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const testSecret = "handler-secret"

// mockDealController is a func-field implementation of DealController.
type mockDealController struct {
	matchFunc        func(ctx context.Context, actor models.Actor, buyingID, sellingID uuid.UUID) (*models.RecyclablesDeal, error)
	getDealFunc      func(ctx context.Context, actor models.Actor, ref models.Ref) (*controller.DealView, error)
	listDealsFunc    func(ctx context.Context, actor models.Actor, kind models.Kind, f models.DealFilter, page db.Page) (controller.Page[models.Deal], error)
	updateDealFunc   func(ctx context.Context, actor models.Actor, ref models.Ref, update *models.DealUpdate) (*controller.DealView, error)
	createReviewFunc func(ctx context.Context, actor models.Actor, ref models.Ref, rate int, comment string) (*models.Review, error)
}

func (m *mockDealController) Match(ctx context.Context, actor models.Actor, buyingID, sellingID uuid.UUID) (*models.RecyclablesDeal, error) {
	return m.matchFunc(ctx, actor, buyingID, sellingID)
}

func (m *mockDealController) CreateRecyclablesDeal(context.Context, models.Actor, *models.RecyclablesDeal) (*models.RecyclablesDeal, error) {
	return nil, e.ErrForbidden
}

func (m *mockDealController) CreateEquipmentDeal(context.Context, models.Actor, *models.EquipmentDeal) (*models.EquipmentDeal, error) {
	return nil, e.ErrForbidden
}

func (m *mockDealController) GetDeal(ctx context.Context, actor models.Actor, ref models.Ref) (*controller.DealView, error) {
	return m.getDealFunc(ctx, actor, ref)
}

func (m *mockDealController) ListDeals(ctx context.Context, actor models.Actor, kind models.Kind, f models.DealFilter, page db.Page) (controller.Page[models.Deal], error) {
	return m.listDealsFunc(ctx, actor, kind, f, page)
}

func (m *mockDealController) UpdateDeal(ctx context.Context, actor models.Actor, ref models.Ref, update *models.DealUpdate) (*controller.DealView, error) {
	return m.updateDealFunc(ctx, actor, ref, update)
}

func (m *mockDealController) CreateReview(ctx context.Context, actor models.Actor, ref models.Ref, rate int, comment string) (*models.Review, error) {
	return m.createReviewFunc(ctx, actor, ref, rate, comment)
}

type mockDocumentController struct {
	getDocumentFunc func(ctx context.Context, actor models.Actor, subject models.Ref, docType models.DocumentType) (*models.Document, error)
}

func (m *mockDocumentController) GetDocument(ctx context.Context, actor models.Actor, subject models.Ref, docType models.DocumentType) (*models.Document, error) {
	return m.getDocumentFunc(ctx, actor, subject, docType)
}

type mockChatController struct {
	subscribeFunc func(ctx context.Context, actor models.Actor, chatID uuid.UUID) (hub.Subscription, error)
	postFunc      func(ctx context.Context, actor models.Actor, chatID uuid.UUID, text string) (*models.Message, error)
}

func (m *mockChatController) ListChats(context.Context, models.Actor, db.Page) (*controller.ChatList, error) {
	return &controller.ChatList{TotalUnread: 3}, nil
}

func (m *mockChatController) ListMessages(context.Context, models.Actor, uuid.UUID, db.Page) (controller.Page[models.Message], error) {
	return controller.Page[models.Message]{}, nil
}

func (m *mockChatController) PostMessage(ctx context.Context, actor models.Actor, chatID uuid.UUID, text string) (*models.Message, error) {
	return m.postFunc(ctx, actor, chatID, text)
}

func (m *mockChatController) Subscribe(ctx context.Context, actor models.Actor, chatID uuid.UUID) (hub.Subscription, error) {
	return m.subscribeFunc(ctx, actor, chatID)
}

type mockUserController struct {
	loginFunc  func(ctx context.Context, phone, password string) (*controller.Session, error)
	logoutFunc func(ctx context.Context, claims *auth.Claims) error
}

func (m *mockUserController) Register(_ context.Context, _ *models.Actor, reg controller.Registration) (*models.User, error) {
	return &models.User{ID: uuid.New(), Phone: reg.Phone, Role: models.RoleCompanyAdmin}, nil
}

func (m *mockUserController) Login(ctx context.Context, phone, password string) (*controller.Session, error) {
	return m.loginFunc(ctx, phone, password)
}

func (m *mockUserController) Logout(ctx context.Context, claims *auth.Claims) error {
	return m.logoutFunc(ctx, claims)
}

func (m *mockUserController) Me(_ context.Context, actor models.Actor) (*models.User, error) {
	return &models.User{ID: actor.UserID, Role: actor.Role}, nil
}

// apiFixture is a router over mock services plus a token for one company user.
type apiFixture struct {
	router    http.Handler
	token     string
	userID    uuid.UUID
	companyID uuid.UUID
}

func newAPIFixture(t *testing.T, svc Services) *apiFixture {
	t.Helper()
	f := &apiFixture{userID: uuid.New(), companyID: uuid.New()}
	token, err := auth.GenerateToken(&models.User{
		ID:        f.userID,
		Role:      models.RoleCompanyAdmin,
		CompanyID: utils.Ptr(f.companyID),
	}, testSecret, time.Hour)
	require.NoError(t, err)
	f.token = token
	f.router = NewRouter(NewHandler(svc, zaptest.NewLogger(t)), RouterConfig{JWTSecret: testSecret})
	return f
}

func (f *apiFixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if f.token != "" {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRouter_RequiresToken(t *testing.T) {
	f := newAPIFixture(t, Services{Deals: &mockDealController{}})
	f.token = ""

	rec := f.do(t, http.MethodGet, "/api/v1/deals/recyclables_deals", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", decodeError(t, rec).Error)

	rec = f.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDealRoutes(t *testing.T) {
	dealID := uuid.New()
	deals := &mockDealController{
		getDealFunc: func(_ context.Context, actor models.Actor, ref models.Ref) (*controller.DealView, error) {
			if ref.ID != dealID {
				return nil, e.ErrNotFound
			}
			return &controller.DealView{
				Deal:       &models.RecyclablesDeal{ID: ref.ID, DealNumber: "AB12CD34", SupplierCompanyID: actor.CompanyID},
				NeedReview: true,
			}, nil
		},
		updateDealFunc: func(_ context.Context, _ models.Actor, _ models.Ref, update *models.DealUpdate) (*controller.DealView, error) {
			if update.Status != nil && *update.Status == models.DealCompleted {
				return nil, e.ErrInvalidTransition
			}
			return &controller.DealView{Deal: &models.EquipmentDeal{ID: dealID}}, nil
		},
		createReviewFunc: func(_ context.Context, _ models.Actor, ref models.Ref, rate int, _ string) (*models.Review, error) {
			if rate > 5 {
				return nil, e.NewValidationError(map[string]string{"rate": "must be between 1 and 5"})
			}
			return &models.Review{ID: uuid.New(), DealKind: ref.Kind, DealID: ref.ID, Rate: rate}, nil
		},
		listDealsFunc: func(_ context.Context, _ models.Actor, kind models.Kind, f models.DealFilter, page db.Page) (controller.Page[models.Deal], error) {
			assert.Equal(t, models.KindEquipmentDeal, kind)
			assert.Equal(t, models.DealLoading, f.Status)
			assert.Equal(t, 2, page.Number)
			return controller.Page[models.Deal]{Items: []models.Deal{&models.EquipmentDeal{ID: dealID}}, Total: 11}, nil
		},
	}
	f := newAPIFixture(t, Services{Deals: deals})

	t.Run("get", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/v1/deals/recyclables_deals/"+dealID.String(), "")
		require.Equal(t, http.StatusOK, rec.Code)
		var body struct {
			Deal       models.RecyclablesDeal `json:"deal"`
			NeedReview bool                   `json:"need_review"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "AB12CD34", body.Deal.DealNumber)
		assert.Equal(t, f.companyID, body.Deal.SupplierCompanyID, "actor comes from the token")
		assert.True(t, body.NeedReview)
	})

	t.Run("unknown kind", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/v1/deals/logistics_offers/"+dealID.String(), "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad id", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/v1/deals/recyclables_deals/42", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decodeError(t, rec).Fields, "id")
	})

	t.Run("missing", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/v1/deals/recyclables_deals/"+uuid.NewString(), "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("illegal transition", func(t *testing.T) {
		rec := f.do(t, http.MethodPatch, "/api/v1/deals/equipment_deals/"+dealID.String(), `{"status":"COMPLETED"}`)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "invalid_state", decodeError(t, rec).Error)
	})

	t.Run("field update", func(t *testing.T) {
		rec := f.do(t, http.MethodPatch, "/api/v1/deals/equipment_deals/"+dealID.String(), `{"loaded_weight":1500}`)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("review validation", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/api/v1/deals/recyclables_deals/"+dealID.String()+"/reviews", `{"rate":9}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "must be between 1 and 5", decodeError(t, rec).Fields["rate"])

		rec = f.do(t, http.MethodPost, "/api/v1/deals/recyclables_deals/"+dealID.String()+"/reviews", `{"rate":4,"comment":"ok"}`)
		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("list envelope", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/v1/deals/equipment_deals?status=LOADING&page=2", "")
		require.Equal(t, http.StatusOK, rec.Code)
		var body PageResponse[json.RawMessage]
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.EqualValues(t, 11, body.Count)
		assert.Equal(t, 2, body.PageCount)
		assert.Nil(t, body.Next)
		require.NotNil(t, body.Previous)
		assert.Len(t, body.Results, 1)
	})
}

func TestMatchRoute(t *testing.T) {
	buying, selling := uuid.New(), uuid.New()
	deals := &mockDealController{
		matchFunc: func(_ context.Context, _ models.Actor, b, s uuid.UUID) (*models.RecyclablesDeal, error) {
			assert.Equal(t, buying, b)
			assert.Equal(t, selling, s)
			return &models.RecyclablesDeal{ID: uuid.New(), DealNumber: "ZZ00ZZ00", Status: models.DealAgreement}, nil
		},
	}
	f := newAPIFixture(t, Services{Deals: deals})

	rec := f.do(t, http.MethodPost, "/api/v1/matches",
		`{"buying_application_id":"`+buying.String()+`","selling_application_id":"`+selling.String()+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"deal_number":"ZZ00ZZ00"`)

	rec = f.do(t, http.MethodPost, "/api/v1/matches", `{"buying_application_id":"`+buying.String()+`"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDocumentDownload(t *testing.T) {
	dealID := uuid.New()
	docs := &mockDocumentController{
		getDocumentFunc: func(_ context.Context, _ models.Actor, subject models.Ref, docType models.DocumentType) (*models.Document, error) {
			if docType == models.DocWaybill {
				return nil, e.ErrUnsupportedKind
			}
			return &models.Document{
				ID:          uuid.New(),
				SubjectKind: subject.Kind,
				SubjectID:   subject.ID,
				Type:        docType,
				Name:        "Buyer act AB12CD34.xlsx",
				ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
				Content:     []byte("xlsx-bytes"),
			}, nil
		},
	}
	f := newAPIFixture(t, Services{Deals: &mockDealController{}, Documents: docs})

	rec := f.do(t, http.MethodGet, "/api/v1/deals/recyclables_deals/"+dealID.String()+"/documents/ACT_BUYER", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "xlsx-bytes", rec.Body.String())
	assert.Equal(t, `attachment; filename="Buyer act AB12CD34.xlsx"`, rec.Header().Get("Content-Disposition"))
	assert.NotEmpty(t, rec.Header().Get("X-Document-ID"))

	rec = f.do(t, http.MethodGet, "/api/v1/deals/recyclables_deals/"+dealID.String()+"/documents/ACT_BUYER?meta=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"type":"ACT_BUYER"`)
	assert.NotContains(t, rec.Body.String(), "xlsx-bytes")

	rec = f.do(t, http.MethodGet, "/api/v1/deals/recyclables_deals/"+dealID.String()+"/documents/WAYBILL", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatRoutes(t *testing.T) {
	chatID := uuid.New()
	msg := models.Message{ID: uuid.New(), ChatID: chatID, Text: "loading at 9"}
	chats := &mockChatController{
		subscribeFunc: func(_ context.Context, _ models.Actor, id uuid.UUID) (hub.Subscription, error) {
			if id != chatID {
				return hub.Subscription{}, e.ErrForbidden
			}
			ch := make(chan models.Message, 1)
			ch <- msg
			close(ch)
			return hub.Subscription{Messages: ch}, nil
		},
		postFunc: func(_ context.Context, _ models.Actor, id uuid.UUID, text string) (*models.Message, error) {
			if strings.TrimSpace(text) == "" {
				return nil, e.NewValidationError(map[string]string{"text": "required field"})
			}
			return &models.Message{ID: uuid.New(), ChatID: id, Text: text}, nil
		},
	}
	f := newAPIFixture(t, Services{Chats: chats})

	t.Run("post", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/api/v1/chats/"+chatID.String()+"/messages", `{"text":"hi"}`)
		assert.Equal(t, http.StatusCreated, rec.Code)
		rec = f.do(t, http.MethodPost, "/api/v1/chats/"+chatID.String()+"/messages", `{"text":" "}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("list carries unread total", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/v1/chats", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"total_unread_count":3`)
		assert.Contains(t, rec.Body.String(), `"results":[]`)
	})

	t.Run("stream", func(t *testing.T) {
		srv := httptest.NewServer(f.router)
		defer srv.Close()

		req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/chats/"+chatID.String()+"/stream", nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+f.token)
		resp, err := srv.Client().Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

		var lines []string
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		assert.Contains(t, lines, "event:message")
		assert.Contains(t, strings.Join(lines, "\n"), msg.ID.String())
	})

	t.Run("stream forbidden", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/v1/chats/"+uuid.NewString()+"/stream", "")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestAuthRoutes(t *testing.T) {
	var revoked string
	users := &mockUserController{
		loginFunc: func(_ context.Context, phone, password string) (*controller.Session, error) {
			if password != "secret-pass" {
				return nil, e.ErrUnauthorized
			}
			return &controller.Session{Token: "signed", User: &models.User{Phone: phone}}, nil
		},
		logoutFunc: func(_ context.Context, claims *auth.Claims) error {
			revoked = claims.ID
			return nil
		},
	}
	f := newAPIFixture(t, Services{Users: users})

	rec := f.do(t, http.MethodPost, "/api/v1/auth/login", `{"phone":"+79990001122","password":"secret-pass"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"token":"signed"`)

	rec = f.do(t, http.MethodPost, "/api/v1/auth/login", `{"phone":"+79990001122","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/auth/login", `{"phone":"+79990001122"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/auth/logout", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	claims, err := auth.ParseToken(f.token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, claims.ID, revoked)

	rec = f.do(t, http.MethodGet, "/api/v1/users/me", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), f.userID.String())
}

func TestAuthRouter_ServesOnlyAuth(t *testing.T) {
	users := &mockUserController{}
	router := NewAuthRouter(NewHandler(Services{Users: users}, zaptest.NewLogger(t)), RouterConfig{JWTSecret: testSecret})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(`{"phone":"+70000000001","password":"long-enough"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/deals/recyclables_deals", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTransportStatusBinding(t *testing.T) {
	appID := uuid.New()
	var got *models.TransportUpdate
	logistics := &mockLogisticsController{
		updateStatusFunc: func(_ context.Context, _ models.Actor, id uuid.UUID, update *models.TransportUpdate) (*models.TransportApplication, error) {
			got = update
			return &models.TransportApplication{ID: id, Status: update.Status}, nil
		},
		createOfferFunc: func(_ context.Context, _ models.Actor, offer *models.LogisticsOffer) (*models.LogisticsOffer, error) {
			if offer.Amount.IsZero() {
				return nil, e.NewValidationError(map[string]string{"amount": "must be positive"})
			}
			offer.ID = uuid.New()
			return offer, nil
		},
	}
	f := newAPIFixture(t, Services{Logistics: logistics})

	rec := f.do(t, http.MethodPost, "/api/v1/transport_applications/"+appID.String()+"/status",
		`{"status":"UNLOADING","deal":{"loaded_weight":1980.5,"shipping_date":"2026-10-01T08:00:00Z"}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got)
	assert.Equal(t, models.TransportUnloading, got.Status)
	require.NotNil(t, got.Deal.LoadedWeight)
	assert.InDelta(t, 1980.5, *got.Deal.LoadedWeight, 0.001)
	assert.NotNil(t, got.Deal.ShippingDate)
	assert.Empty(t, got.MissingDealFields())

	rec = f.do(t, http.MethodPost, "/api/v1/transport_applications/"+appID.String()+"/status", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "status is required")

	rec = f.do(t, http.MethodPost, "/api/v1/logistics_offers", `{"application_id":"`+appID.String()+`","amount":"45000.50"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var offer models.LogisticsOffer
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &offer))
	assert.True(t, decimal.RequireFromString("45000.50").Equal(offer.Amount))

	rec = f.do(t, http.MethodPost, "/api/v1/logistics_offers", `{"application_id":"`+appID.String()+`"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// mockLogisticsController is a func-field implementation of
// LogisticsController; unset functions are not expected to be called.
type mockLogisticsController struct {
	updateStatusFunc func(ctx context.Context, actor models.Actor, id uuid.UUID, update *models.TransportUpdate) (*models.TransportApplication, error)
	createOfferFunc  func(ctx context.Context, actor models.Actor, offer *models.LogisticsOffer) (*models.LogisticsOffer, error)
}

func (m *mockLogisticsController) CreateTransportApplication(context.Context, models.Actor, *models.TransportApplication) (*models.TransportApplication, error) {
	return nil, e.ErrForbidden
}

func (m *mockLogisticsController) GetTransportApplication(context.Context, models.Actor, uuid.UUID) (*models.TransportApplication, error) {
	return nil, e.ErrNotFound
}

func (m *mockLogisticsController) ListTransportApplications(context.Context, models.Actor, models.TransportFilter, db.Page) (controller.Page[models.TransportApplication], error) {
	return controller.Page[models.TransportApplication]{}, nil
}

func (m *mockLogisticsController) UpdateTransportStatus(ctx context.Context, actor models.Actor, id uuid.UUID, update *models.TransportUpdate) (*models.TransportApplication, error) {
	return m.updateStatusFunc(ctx, actor, id, update)
}

func (m *mockLogisticsController) CreateOffer(ctx context.Context, actor models.Actor, offer *models.LogisticsOffer) (*models.LogisticsOffer, error) {
	return m.createOfferFunc(ctx, actor, offer)
}

func (m *mockLogisticsController) ListOffers(context.Context, models.Actor, uuid.UUID) ([]models.LogisticsOffer, error) {
	return nil, nil
}

func (m *mockLogisticsController) ApproveOffer(context.Context, models.Actor, uuid.UUID) (*models.LogisticsOffer, error) {
	return nil, e.ErrOfferAlreadyApproved
}

func (m *mockLogisticsController) DeclineOffer(context.Context, models.Actor, uuid.UUID) (*models.LogisticsOffer, error) {
	return nil, e.ErrNotFound
}

func (m *mockLogisticsController) CreateContractor(context.Context, models.Actor, *models.Contractor) (*models.Contractor, error) {
	return nil, e.ErrForbidden
}

func (m *mockLogisticsController) GetContractor(context.Context, models.Actor, uuid.UUID) (*models.Contractor, error) {
	return nil, e.ErrNotFound
}

func (m *mockLogisticsController) UpdateContractor(context.Context, models.Actor, *models.Contractor) (*models.Contractor, error) {
	return nil, e.ErrNotFound
}

func (m *mockLogisticsController) DeleteContractor(context.Context, models.Actor, uuid.UUID) error {
	return e.ErrNotFound
}

func (m *mockLogisticsController) ListContractors(context.Context, models.Actor, db.Page) (controller.Page[models.Contractor], error) {
	return controller.Page[models.Contractor]{}, nil
}
