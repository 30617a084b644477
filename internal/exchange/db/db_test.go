package db

import (
	"context"
	"errors"
	"testing"
	"time"

	e "github.com/gartstein/tradehub/internal/exchange/errors"
	"github.com/gartstein/tradehub/internal/exchange/models"
	"github.com/gartstein/tradehub/internal/pkg/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
)

// SetupTestDB initializes an in-memory SQLite database for testing.
func SetupTestDB(t *testing.T) *Repository {
	repo, err := Open(sqlite.Open("file:" + uuid.NewString() + "?mode=memory&cache=shared"))
	require.NoError(t, err, "failed to open test database")
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func createCompany(t *testing.T, repo *Repository, name string) *models.Company {
	t.Helper()
	company := &models.Company{ID: uuid.New(), Name: name, INN: uuid.NewString()[:12]}
	require.NoError(t, repo.CreateCompany(context.Background(), company))
	return company
}

func createDeal(t *testing.T, repo *Repository, supplier, buyer uuid.UUID, number string) *models.RecyclablesDeal {
	t.Helper()
	ctx := context.Background()
	app := &models.RecyclablesApplication{
		ID:            uuid.New(),
		CompanyID:     supplier,
		RecyclablesID: uuid.New(),
		DealType:      models.Sell,
		UrgencyType:   models.SupplyContract,
		Status:        models.ApplicationPublished,
		Price:         decimal.NewFromInt(10),
		Volume:        utils.Ptr(1000.0),
	}
	require.NoError(t, repo.CreateRecyclablesApplication(ctx, app))
	chat := &models.Chat{ID: uuid.New(), Name: "Recyclables deal № " + number}
	require.NoError(t, repo.CreateChat(ctx, chat))
	deal := &models.RecyclablesDeal{
		ID:                uuid.New(),
		DealNumber:        number,
		ApplicationID:     app.ID,
		SupplierCompanyID: supplier,
		BuyerCompanyID:    buyer,
		ChatID:            chat.ID,
		Status:            models.DealAgreement,
		Price:             decimal.NewFromInt(10),
		Weight:            utils.Ptr(500.0),
	}
	require.NoError(t, repo.CreateRecyclablesDeal(ctx, deal))
	return deal
}

// TestCreateCompany tests the creation of a company record.
func TestCreateCompany(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	company := createCompany(t, repo, "Test Company")

	retrieved, err := repo.GetCompany(ctx, company.ID)
	assert.NoError(t, err, "GetCompany should retrieve the created company")
	assert.Equal(t, company.Name, retrieved.Name, "Company name should match")
	assert.Equal(t, models.CompanyNotVerified, retrieved.Status, "New companies start unverified")
	assert.Zero(t, retrieved.AverageReviewRate)
}

// TestGetCompanyNotFound verifies error handling when the company does not exist.
func TestGetCompanyNotFound(t *testing.T) {
	repo := SetupTestDB(t)

	_, err := repo.GetCompany(context.Background(), uuid.New())
	assert.ErrorIs(t, err, e.ErrNotFound, "GetCompany should return ErrNotFound for non-existent company")
}

// TestCreateCompanyDuplicateINN checks the unique constraint translation.
func TestCreateCompanyDuplicateINN(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	first := &models.Company{ID: uuid.New(), Name: "First", INN: "7701000001"}
	require.NoError(t, repo.CreateCompany(ctx, first))

	second := &models.Company{ID: uuid.New(), Name: "Second", INN: "7701000001"}
	err := repo.CreateCompany(ctx, second)
	assert.ErrorIs(t, err, e.ErrDuplicate)
}

// TestUpdateCompany checks if updating a company's name works.
func TestUpdateCompany(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	company := createCompany(t, repo, "Old Name")

	err := repo.UpdateCompany(ctx, &models.CompanyUpdate{ID: company.ID, Name: utils.Ptr("New Name")})
	assert.NoError(t, err, "UpdateCompany should not return an error")

	updated, err := repo.GetCompany(ctx, company.ID)
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.Name, "Company name should be updated")
}

// TestUpdateCompanyNotFound tests updating a non-existing company.
func TestUpdateCompanyNotFound(t *testing.T) {
	repo := SetupTestDB(t)

	err := repo.UpdateCompany(context.Background(), &models.CompanyUpdate{
		ID:   uuid.New(),
		Name: utils.Ptr("Non-existent"),
	})
	assert.ErrorIs(t, err, e.ErrNotFound, "UpdateCompany should return ErrNotFound for missing company")
}

func TestCreateVerificationRequestReplacesNew(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()
	company := createCompany(t, repo, "Verified Soon")

	first := &models.VerificationRequest{ID: uuid.New(), CompanyID: company.ID, Status: models.VerificationNew}
	require.NoError(t, repo.CreateVerificationRequest(ctx, first))
	second := &models.VerificationRequest{ID: uuid.New(), CompanyID: company.ID, Status: models.VerificationNew}
	require.NoError(t, repo.CreateVerificationRequest(ctx, second))

	_, err := repo.GetVerificationRequest(ctx, first.ID)
	assert.ErrorIs(t, err, e.ErrNotFound, "older NEW request should be removed")

	list, total, err := repo.ListVerificationRequests(ctx, models.VerificationNew, Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, second.ID, list[0].ID)
}

func TestCreateVerificationRequestRollsBack(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()
	company := createCompany(t, repo, "Pending Check")

	decided := &models.VerificationRequest{ID: uuid.New(), CompanyID: company.ID, Status: models.VerificationVerified}
	require.NoError(t, repo.CreateVerificationRequest(ctx, decided))
	pending := &models.VerificationRequest{ID: uuid.New(), CompanyID: company.ID, Status: models.VerificationNew}
	require.NoError(t, repo.CreateVerificationRequest(ctx, pending))

	clash := &models.VerificationRequest{ID: decided.ID, CompanyID: company.ID, Status: models.VerificationNew}
	require.Error(t, repo.CreateVerificationRequest(ctx, clash))

	kept, err := repo.GetVerificationRequest(ctx, pending.ID)
	require.NoError(t, err, "failed insert must not remove the pending request")
	assert.Equal(t, models.VerificationNew, kept.Status)
}

// TestWithTransaction ensures transactions work correctly.
func TestWithTransaction(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()
	id := uuid.New()

	err := repo.WithTransaction(ctx, func(txRepo *Repository) error {
		return txRepo.CreateCompany(ctx, &models.Company{ID: id, Name: "Transactional Company", INN: "1"})
	})
	assert.NoError(t, err, "WithTransaction should execute successfully")

	_, err = repo.GetCompany(ctx, id)
	assert.NoError(t, err, "Company should exist after transaction")
}

func TestWithTransactionRollback(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()
	id := uuid.New()
	boom := errors.New("boom")

	err := repo.WithTransaction(ctx, func(txRepo *Repository) error {
		if err := txRepo.CreateCompany(ctx, &models.Company{ID: id, Name: "Ghost", INN: "2"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = repo.GetCompany(ctx, id)
	assert.ErrorIs(t, err, e.ErrNotFound, "rolled back company should not exist")
}

func TestPageNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   Page
		want Page
	}{
		{"defaults", Page{}, Page{Number: 1, Size: DefaultPageSize}},
		{"clamps size", Page{Number: 2, Size: 1000}, Page{Number: 2, Size: MaxPageSize}},
		{"keeps valid", Page{Number: 3, Size: 25}, Page{Number: 3, Size: 25}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Normalize())
		})
	}
	assert.Equal(t, 20, Page{Number: 3, Size: 10}.Offset())
}

func TestListRecyclablesApplicationsPolygon(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()
	company := createCompany(t, repo, "Seller")

	place := func(lat, lon float64) uuid.UUID {
		app := &models.RecyclablesApplication{
			ID:            uuid.New(),
			CompanyID:     company.ID,
			RecyclablesID: uuid.New(),
			DealType:      models.Sell,
			UrgencyType:   models.SupplyContract,
			Status:        models.ApplicationPublished,
			Price:         decimal.NewFromInt(1),
			Volume:        utils.Ptr(10.0),
			Latitude:      utils.Ptr(lat),
			Longitude:     utils.Ptr(lon),
		}
		require.NoError(t, repo.CreateRecyclablesApplication(ctx, app))
		return app.ID
	}
	inside := place(55.75, 37.61)
	place(59.93, 30.33)

	poly, err := models.ParsePolygon([]string{"55,37", "56,37", "56,38", "55,38"})
	require.NoError(t, err)

	apps, total, err := repo.ListRecyclablesApplications(ctx, models.ApplicationFilter{Polygon: poly}, Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, apps, 1)
	assert.Equal(t, inside, apps[0].ID)

	all, total, err := repo.ListRecyclablesApplications(ctx, models.ApplicationFilter{DealType: models.Sell}, Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, all, 2)
}

func TestCompareAndSetDealStatus(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()
	supplier := createCompany(t, repo, "Supplier")
	buyer := createCompany(t, repo, "Buyer")
	deal := createDeal(t, repo, supplier.ID, buyer.ID, "AB12CD34")

	err := repo.CompareAndSetDealStatus(ctx, deal.Ref(), models.DealAgreement, models.DealLoading)
	require.NoError(t, err)

	err = repo.CompareAndSetDealStatus(ctx, deal.Ref(), models.DealAgreement, models.DealCanceled)
	assert.ErrorIs(t, err, e.ErrInvalidTransition, "stale status must not be overwritten")

	got, err := repo.GetDeal(ctx, deal.Ref())
	require.NoError(t, err)
	assert.Equal(t, models.DealLoading, got.CurrentStatus())
	assert.NotNil(t, got.(*models.RecyclablesDeal).Application, "application should be preloaded")
}

func TestCreateDealDuplicateNumber(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()
	supplier := createCompany(t, repo, "Supplier")
	buyer := createCompany(t, repo, "Buyer")
	first := createDeal(t, repo, supplier.ID, buyer.ID, "ZZZZ0000")

	dup := *first
	dup.ID = uuid.New()
	dup.ChatID = uuid.New()
	dup.Application = nil
	err := repo.CreateRecyclablesDeal(ctx, &dup)
	assert.ErrorIs(t, err, e.ErrDuplicate)
}

func TestGetDealUnsupportedKind(t *testing.T) {
	repo := SetupTestDB(t)

	_, err := repo.GetDeal(context.Background(), models.NewRef(models.KindCompany, uuid.New()))
	assert.ErrorIs(t, err, e.ErrUnsupportedKind)
}

func TestDealByChat(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()
	supplier := createCompany(t, repo, "Supplier")
	buyer := createCompany(t, repo, "Buyer")
	deal := createDeal(t, repo, supplier.ID, buyer.ID, "CHAT0001")

	got, err := repo.DealByChat(ctx, deal.ChatID)
	require.NoError(t, err)
	assert.Equal(t, deal.ID, got.Ref().ID)

	_, err = repo.DealByChat(ctx, uuid.New())
	assert.ErrorIs(t, err, e.ErrNotFound)
}

func TestClaimApprovedOffer(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	app := &models.TransportApplication{ID: uuid.New(), CreatedByID: uuid.New(), Status: models.TransportAgreement}
	require.NoError(t, repo.CreateTransportApplication(ctx, app))

	first, second := uuid.New(), uuid.New()
	require.NoError(t, repo.ClaimApprovedOffer(ctx, app.ID, first))
	require.NoError(t, repo.ClaimApprovedOffer(ctx, app.ID, first), "re-approving the same offer is a no-op")
	assert.ErrorIs(t, repo.ClaimApprovedOffer(ctx, app.ID, second), e.ErrOfferAlreadyApproved)

	require.NoError(t, repo.ClearApprovedOffer(ctx, app.ID))
	assert.NoError(t, repo.ClaimApprovedOffer(ctx, app.ID, second))
}

func TestListTransportApplicationsLogistStatus(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()
	logist := uuid.New()

	newApp := &models.TransportApplication{ID: uuid.New(), CreatedByID: uuid.New(), Status: models.TransportAgreement}
	pendingApp := &models.TransportApplication{ID: uuid.New(), CreatedByID: uuid.New(), Status: models.TransportAgreement}
	approvedApp := &models.TransportApplication{ID: uuid.New(), CreatedByID: uuid.New(), Status: models.TransportAgreement}
	for _, a := range []*models.TransportApplication{newApp, pendingApp, approvedApp} {
		require.NoError(t, repo.CreateTransportApplication(ctx, a))
	}

	offer := func(appID uuid.UUID) *models.LogisticsOffer {
		o := &models.LogisticsOffer{
			ID:            uuid.New(),
			ApplicationID: appID,
			LogistID:      logist,
			ChatID:        uuid.New(),
			Amount:        decimal.NewFromInt(15000),
			Status:        models.OfferPending,
		}
		require.NoError(t, repo.CreateLogisticsOffer(ctx, o))
		return o
	}
	offer(pendingApp.ID)
	won := offer(approvedApp.ID)
	require.NoError(t, repo.ClaimApprovedOffer(ctx, approvedApp.ID, won.ID))
	require.NoError(t, repo.SetOfferStatus(ctx, won.ID, models.OfferApproved))

	tests := []struct {
		status models.LogistStatus
		want   uuid.UUID
	}{
		{models.LogistNew, newApp.ID},
		{models.LogistPending, pendingApp.ID},
		{models.LogistApproved, approvedApp.ID},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			apps, total, err := repo.ListTransportApplications(ctx, models.TransportFilter{
				LogistID:     logist,
				LogistStatus: tt.status,
			}, Page{})
			require.NoError(t, err)
			assert.Equal(t, int64(1), total)
			require.Len(t, apps, 1)
			assert.Equal(t, tt.want, apps[0].ID)
			assert.Equal(t, tt.status, apps[0].LogistStatus)
		})
	}
}

func TestDeclineOtherOffers(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()
	appID := uuid.New()

	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		o := &models.LogisticsOffer{
			ID:            uuid.New(),
			ApplicationID: appID,
			LogistID:      uuid.New(),
			ChatID:        uuid.New(),
			Amount:        decimal.NewFromInt(int64(1000 * (i + 1))),
			Status:        models.OfferPending,
		}
		require.NoError(t, repo.CreateLogisticsOffer(ctx, o))
		ids = append(ids, o.ID)
	}

	n, err := repo.DeclineOtherOffers(ctx, appID, ids[0])
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	offers, err := repo.ListLogisticsOffers(ctx, appID)
	require.NoError(t, err)
	for _, o := range offers {
		if o.ID == ids[0] {
			assert.Equal(t, models.OfferPending, o.Status)
		} else {
			assert.Equal(t, models.OfferDeclined, o.Status)
		}
	}
}

func TestCreateInvoiceIfAbsent(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()
	dealID, companyID := uuid.New(), uuid.New()

	inv := func() *models.InvoicePayment {
		return &models.InvoicePayment{
			ID:        uuid.New(),
			DealKind:  models.KindRecyclablesDeal,
			DealID:    dealID,
			CompanyID: companyID,
			Amount:    decimal.NewFromInt(500),
			Status:    models.InvoicePending,
		}
	}

	created, err := repo.CreateInvoiceIfAbsent(ctx, inv())
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.CreateInvoiceIfAbsent(ctx, inv())
	require.NoError(t, err)
	assert.False(t, created, "second invoice for the same deal and company is skipped")

	list, total, err := repo.ListInvoices(ctx, companyID, "", Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.True(t, decimal.NewFromInt(500).Equal(list[0].Amount))
}

func TestCreateReviewDuplicate(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()
	company := createCompany(t, repo, "Reviewed")
	ref := models.NewRef(models.KindRecyclablesDeal, uuid.New())

	review := func(rate int) *models.Review {
		return &models.Review{
			ID:          uuid.New(),
			DealKind:    ref.Kind,
			DealID:      ref.ID,
			CompanyID:   company.ID,
			CreatedByID: uuid.New(),
			Rate:        rate,
		}
	}
	require.NoError(t, repo.CreateReview(ctx, review(4)))
	assert.ErrorIs(t, repo.CreateReview(ctx, review(5)), e.ErrDuplicateReview)

	exists, err := repo.ReviewExists(ctx, ref, company.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	other := review(2)
	other.DealID = uuid.New()
	require.NoError(t, repo.CreateReview(ctx, other))

	got, err := repo.GetCompany(ctx, company.ID)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, got.AverageReviewRate, 0.001)
}

func TestChatsAndUnreadCounts(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()
	supplier := createCompany(t, repo, "Supplier")
	buyer := createCompany(t, repo, "Buyer")
	deal := createDeal(t, repo, supplier.ID, buyer.ID, "MSG00001")
	reader, writer := uuid.New(), uuid.New()

	base := time.Now()
	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		msg := &models.Message{
			ID:        uuid.New(),
			ChatID:    deal.ChatID,
			AuthorID:  writer,
			Text:      "hello",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, repo.CreateMessage(ctx, msg))
		ids = append(ids, msg.ID)
	}

	chatIDs, err := repo.ChatIDsForUser(ctx, reader, buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{deal.ChatID}, chatIDs)

	counts, err := repo.UnreadCounts(ctx, chatIDs, reader)
	require.NoError(t, err)
	assert.Equal(t, int64(3), counts[deal.ChatID])

	n, err := repo.MarkMessagesRead(ctx, ids, writer)
	require.NoError(t, err)
	assert.Zero(t, n, "authors do not mark their own messages")

	n, err = repo.MarkMessagesRead(ctx, ids[:2], reader)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	counts, err = repo.UnreadCounts(ctx, chatIDs, reader)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[deal.ChatID])

	last, err := repo.LastMessage(ctx, deal.ChatID)
	require.NoError(t, err)
	assert.Equal(t, ids[2], last.ID)
}

func TestNotifications(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()
	companyID, userID := uuid.New(), uuid.New()
	subject := uuid.New()

	list := []models.Notification{
		{ID: uuid.New(), CompanyID: &companyID, SubjectKind: models.KindRecyclablesDeal, SubjectID: subject, Name: "to company"},
		{ID: uuid.New(), UserID: &userID, SubjectKind: models.KindRecyclablesDeal, SubjectID: subject, Name: "to user"},
		{ID: uuid.New(), UserID: utils.Ptr(uuid.New()), SubjectKind: models.KindRecyclablesDeal, SubjectID: subject, Name: "to someone else"},
	}
	require.NoError(t, repo.CreateNotifications(ctx, list))

	got, total, err := repo.ListNotifications(ctx, userID, companyID, Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, got, 2)

	unread, err := repo.UnreadNotificationCount(ctx, userID, companyID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), unread)

	require.NoError(t, repo.MarkNotificationsRead(ctx, []uuid.UUID{got[0].ID}))
	unread, err = repo.UnreadNotificationCount(ctx, userID, companyID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)
}

func TestDocumentUniquePerSubjectAndType(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()
	subject := models.NewRef(models.KindRecyclablesDeal, uuid.New())

	doc := &models.Document{
		ID:          uuid.New(),
		SubjectKind: subject.Kind,
		SubjectID:   subject.ID,
		Type:        models.DocActBuyer,
		Name:        "act.xlsx",
		Content:     []byte("x"),
	}
	require.NoError(t, repo.CreateDocument(ctx, doc))

	got, err := repo.GetDocument(ctx, subject, models.DocActBuyer)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, got.ID)

	_, err = repo.GetDocument(ctx, subject, models.DocWaybill)
	assert.ErrorIs(t, err, e.ErrNotFound)

	dup := *doc
	dup.ID = uuid.New()
	assert.ErrorIs(t, repo.CreateDocument(ctx, &dup), e.ErrDuplicate)
}

func TestCityCoordinates(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	city := &models.City{ID: uuid.New(), Name: "Kazan"}
	require.NoError(t, repo.CreateCity(ctx, city))

	got, err := repo.GetCityByName(ctx, "Kazan")
	require.NoError(t, err)
	assert.False(t, got.Resolved())

	require.NoError(t, repo.SetCityCoordinates(ctx, city.ID, 55.79, 49.12))
	got, err = repo.GetCity(ctx, city.ID)
	require.NoError(t, err)
	assert.True(t, got.Resolved())
	assert.InDelta(t, 55.79, *got.Latitude, 1e-9)

	assert.ErrorIs(t, repo.SetCityCoordinates(ctx, uuid.New(), 0, 0), e.ErrNotFound)
}

func TestFavorites(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()
	company := createCompany(t, repo, "Followed")
	user := uuid.New()

	fav := &models.Favorite{ID: uuid.New(), UserID: user, CompanyID: company.ID}
	require.NoError(t, repo.AddFavorite(ctx, fav))
	assert.ErrorIs(t, repo.AddFavorite(ctx, &models.Favorite{ID: uuid.New(), UserID: user, CompanyID: company.ID}), e.ErrDuplicate)

	followers, err := repo.FavoritedBy(ctx, company.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{user}, followers)

	require.NoError(t, repo.RemoveFavorite(ctx, user, company.ID))
	assert.ErrorIs(t, repo.RemoveFavorite(ctx, user, company.ID), e.ErrNotFound)
}
