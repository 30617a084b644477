package controller

import (
	"context"
	"strings"
	"testing"

	"github.com/gartstein/tradehub/internal/exchange/db"
	e "github.com/gartstein/tradehub/internal/exchange/errors"
	"github.com/gartstein/tradehub/internal/exchange/events"
	"github.com/gartstein/tradehub/internal/exchange/models"
	"github.com/gartstein/tradehub/internal/pkg/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDealService_Match(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	dispatcher := &recordingDispatcher{}
	service := NewDealService(repo, dispatcher, testLogger(t))

	seller := seedCompany(t, repo, models.CompanyVerified)
	buyer := seedCompany(t, repo, models.CompanyVerified)
	material := uuid.New()
	buying := seedRecyclablesApplication(t, repo, buyer.ID, material, models.Buy)
	selling := seedRecyclablesApplication(t, repo, seller.ID, material, models.Sell)

	deal, err := service.Match(ctx, companyActor(uuid.New(), buyer.ID), buying.ID, selling.ID)
	require.NoError(t, err)

	assert.Len(t, deal.DealNumber, dealNumberLength)
	assert.Equal(t, strings.ToUpper(deal.DealNumber), deal.DealNumber)
	assert.Equal(t, models.DealAgreement, deal.Status)
	assert.Equal(t, seller.ID, deal.SupplierCompanyID)
	assert.Equal(t, buyer.ID, deal.BuyerCompanyID)
	assert.Equal(t, selling.ID, deal.ApplicationID)
	require.NotNil(t, deal.Weight)
	assert.Equal(t, 2000.0, *deal.Weight)

	chat, err := repo.GetChat(ctx, deal.ChatID)
	require.NoError(t, err)
	assert.Equal(t, "Recyclables deal № "+deal.DealNumber, chat.Name)

	for _, id := range []uuid.UUID{buying.ID, selling.ID} {
		app, err := repo.GetRecyclablesApplication(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.ApplicationPublished, app.Status, "matching leaves applications untouched")
	}

	require.Equal(t, []events.EventType{events.TypeDealCreated}, dispatcher.types())
	created := dispatcher.events[0].(events.DealCreated)
	assert.Equal(t, seller.ID, created.OwnerCompanyID)
}

func TestDealService_MatchValidation(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	service := NewDealService(repo, &recordingDispatcher{}, testLogger(t))

	a := seedCompany(t, repo, models.CompanyVerified)
	b := seedCompany(t, repo, models.CompanyVerified)
	material := uuid.New()
	buying := seedRecyclablesApplication(t, repo, a.ID, material, models.Buy)
	selling := seedRecyclablesApplication(t, repo, b.ID, material, models.Sell)
	otherMaterial := seedRecyclablesApplication(t, repo, b.ID, uuid.New(), models.Sell)
	anotherBuying := seedRecyclablesApplication(t, repo, b.ID, material, models.Buy)

	tests := []struct {
		name      string
		buyingID  uuid.UUID
		sellingID uuid.UUID
		field     string
		wantErr   error
	}{
		{name: "swapped ids", buyingID: selling.ID, sellingID: buying.ID, field: "deal_type", wantErr: e.ErrInvalidInput},
		{name: "two buyers", buyingID: buying.ID, sellingID: anotherBuying.ID, field: "deal_type", wantErr: e.ErrInvalidInput},
		{name: "different recyclables", buyingID: buying.ID, sellingID: otherMaterial.ID, field: "recyclables", wantErr: e.ErrInvalidInput},
		{name: "unknown application", buyingID: uuid.New(), sellingID: selling.ID, wantErr: e.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Match(ctx, staffActor(), tt.buyingID, tt.sellingID)
			require.ErrorIs(t, err, tt.wantErr)
			if tt.field != "" {
				var verr *e.ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Contains(t, verr.Fields, tt.field)
			}
		})
	}
}

func TestDealService_MatchUrgencyMismatch(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	service := NewDealService(repo, &recordingDispatcher{}, testLogger(t))

	a := seedCompany(t, repo, "")
	b := seedCompany(t, repo, "")
	material := uuid.New()
	buying := seedRecyclablesApplication(t, repo, a.ID, material, models.Buy)
	selling := seedRecyclablesApplication(t, repo, b.ID, material, models.Sell)
	selling.UrgencyType = models.ReadyForShipment
	require.NoError(t, repo.SaveRecyclablesApplication(ctx, selling))

	_, err := service.Match(ctx, staffActor(), buying.ID, selling.ID)
	var verr *e.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "urgency_type")
}

func TestDealService_DealNumberCollisionRetries(t *testing.T) {
	numbers := []string{"AAAA0001", "AAAA0001", "AAAA0002"}
	calls := 0
	newDealNumber = func() string {
		n := numbers[calls]
		calls++
		return n
	}
	t.Cleanup(func() { newDealNumber = randomDealNumber })

	ctx := context.Background()
	repo := newTestRepo(t)
	service := NewDealService(repo, &recordingDispatcher{}, testLogger(t))
	a := seedCompany(t, repo, "")
	b := seedCompany(t, repo, "")
	material := uuid.New()
	buying := seedRecyclablesApplication(t, repo, a.ID, material, models.Buy)
	selling := seedRecyclablesApplication(t, repo, b.ID, material, models.Sell)

	first, err := service.Match(ctx, staffActor(), buying.ID, selling.ID)
	require.NoError(t, err)
	second, err := service.Match(ctx, staffActor(), buying.ID, selling.ID)
	require.NoError(t, err)

	assert.Equal(t, "AAAA0001", first.DealNumber)
	assert.Equal(t, "AAAA0002", second.DealNumber)
	assert.Equal(t, 3, calls)

	chat, err := repo.GetChat(ctx, second.ChatID)
	require.NoError(t, err)
	assert.Equal(t, "Recyclables deal № AAAA0002", chat.Name)
}

func TestDealService_DealNumberExhausted(t *testing.T) {
	newDealNumber = func() string { return "ZZZZ9999" }
	t.Cleanup(func() { newDealNumber = randomDealNumber })

	ctx := context.Background()
	repo := newTestRepo(t)
	service := NewDealService(repo, &recordingDispatcher{}, testLogger(t))
	a := seedCompany(t, repo, "")
	b := seedCompany(t, repo, "")
	material := uuid.New()
	buying := seedRecyclablesApplication(t, repo, a.ID, material, models.Buy)
	selling := seedRecyclablesApplication(t, repo, b.ID, material, models.Sell)

	_, err := service.Match(ctx, staffActor(), buying.ID, selling.ID)
	require.NoError(t, err)
	_, err = service.Match(ctx, staffActor(), buying.ID, selling.ID)
	assert.ErrorIs(t, err, e.ErrDuplicate)
}

func TestDealService_UpdateDealTransitions(t *testing.T) {
	ctx := context.Background()

	t.Run("legal path to completion emits completion once", func(t *testing.T) {
		f := newDealFixture(t)
		f.moveDeal(t, models.DealLoading, models.DealUnloading, models.DealCompleted)

		assert.Equal(t, []events.EventType{
			events.TypeDealStatusChanged,
			events.TypeDealStatusChanged,
			events.TypeDealStatusChanged,
			events.TypeDealCompleted,
		}, f.dispatcher.types())

		loading := f.dispatcher.events[0].(events.DealStatusChanged)
		assert.Equal(t, models.DealLoading, loading.To)
		assert.Equal(t, "Loading", loading.Label)

		done := f.dispatcher.events[3].(events.DealCompleted)
		assert.Equal(t, "2000", done.Amount.String())
		assert.Equal(t, f.deal.DealNumber, done.DealNumber)
	})

	t.Run("illegal jump is rejected", func(t *testing.T) {
		f := newDealFixture(t)
		_, err := f.deals.UpdateDeal(ctx, f.supplierActor(), f.deal.Ref(), &models.DealUpdate{Status: utils.Ptr(models.DealCompleted)})
		assert.ErrorIs(t, err, e.ErrInvalidTransition)
		assert.Empty(t, f.dispatcher.types())

		stored, err := f.repo.GetDeal(ctx, f.deal.Ref())
		require.NoError(t, err)
		assert.Equal(t, models.DealAgreement, stored.CurrentStatus())
	})

	t.Run("problem branch returns to the flow", func(t *testing.T) {
		f := newDealFixture(t)
		f.moveDeal(t, models.DealProblem, models.DealLoading)
		stored, err := f.repo.GetDeal(ctx, f.deal.Ref())
		require.NoError(t, err)
		assert.Equal(t, models.DealLoading, stored.CurrentStatus())
	})

	t.Run("closed deal is immutable", func(t *testing.T) {
		f := newDealFixture(t)
		f.moveDeal(t, models.DealCanceled)
		_, err := f.deals.UpdateDeal(ctx, staffActor(), f.deal.Ref(), &models.DealUpdate{Comment: utils.Ptr("late edit")})
		assert.ErrorIs(t, err, e.ErrDealClosed)
	})

	t.Run("outsider cannot update", func(t *testing.T) {
		f := newDealFixture(t)
		outsider := companyActor(uuid.New(), uuid.New())
		_, err := f.deals.UpdateDeal(ctx, outsider, f.deal.Ref(), &models.DealUpdate{Comment: utils.Ptr("x")})
		assert.ErrorIs(t, err, e.ErrForbidden)
	})

	t.Run("field update without status emits nothing", func(t *testing.T) {
		f := newDealFixture(t)
		view, err := f.deals.UpdateDeal(ctx, f.buyerActor(), f.deal.Ref(), &models.DealUpdate{
			Weight:       utils.Ptr(1500.0),
			LoadingHours: utils.Ptr("9-18"),
		})
		require.NoError(t, err)
		assert.Empty(t, f.dispatcher.types())
		require.NotNil(t, view.TotalPrice)
		assert.Equal(t, "18000", view.TotalPrice.String())
	})

	t.Run("invalid payment term", func(t *testing.T) {
		f := newDealFixture(t)
		_, err := f.deals.UpdateDeal(ctx, f.buyerActor(), f.deal.Ref(), &models.DealUpdate{PaymentTerm: utils.Ptr(models.OtherTerm)})
		var verr *e.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "other_payment_term")
	})
}

func TestDealService_GetDealAccess(t *testing.T) {
	ctx := context.Background()
	f := newDealFixture(t)

	_, err := f.deals.GetDeal(ctx, f.supplierActor(), f.deal.Ref())
	assert.NoError(t, err)
	_, err = f.deals.GetDeal(ctx, staffActor(), f.deal.Ref())
	assert.NoError(t, err)

	_, err = f.deals.GetDeal(ctx, companyActor(uuid.New(), uuid.New()), f.deal.Ref())
	assert.ErrorIs(t, err, e.ErrForbidden)

	logist := models.Actor{UserID: uuid.New(), Role: models.RoleLogist}
	_, err = f.deals.GetDeal(ctx, logist, f.deal.Ref())
	assert.ErrorIs(t, err, e.ErrForbidden, "a logist without an approved offer stays out")
}

func TestDealService_ListDealsScopedToCompany(t *testing.T) {
	ctx := context.Background()
	f := newDealFixture(t)

	page, err := f.deals.ListDeals(ctx, f.buyerActor(), models.KindRecyclablesDeal, models.DealFilter{}, db.Page{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)

	page, err = f.deals.ListDeals(ctx, companyActor(uuid.New(), uuid.New()), models.KindRecyclablesDeal, models.DealFilter{}, db.Page{})
	require.NoError(t, err)
	assert.Zero(t, page.Total)

	_, err = f.deals.ListDeals(ctx, staffActor(), models.KindLogisticsOffer, models.DealFilter{}, db.Page{})
	assert.ErrorIs(t, err, e.ErrUnsupportedKind)
}

func TestDealService_CreateReview(t *testing.T) {
	ctx := context.Background()
	f := newDealFixture(t)

	_, err := f.deals.CreateReview(ctx, f.buyerActor(), f.deal.Ref(), 5, "great")
	var verr *e.ValidationError
	require.ErrorAs(t, err, &verr, "open deals cannot be reviewed")

	f.moveDeal(t, models.DealLoading, models.DealUnloading, models.DealCompleted)

	view, err := f.deals.GetDeal(ctx, f.buyerActor(), f.deal.Ref())
	require.NoError(t, err)
	assert.True(t, view.NeedReview)

	tests := []struct {
		name    string
		actor   models.Actor
		ref     models.Ref
		rate    int
		wantErr error
	}{
		{name: "rate out of range", actor: f.buyerActor(), ref: f.deal.Ref(), rate: 6, wantErr: e.ErrInvalidInput},
		{name: "not a deal", actor: f.buyerActor(), ref: models.NewRef(models.KindCompany, f.deal.ID), rate: 4, wantErr: e.ErrUnsupportedKind},
		{name: "outsider", actor: companyActor(uuid.New(), uuid.New()), ref: f.deal.Ref(), rate: 4, wantErr: e.ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.deals.CreateReview(ctx, tt.actor, tt.ref, tt.rate, "")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	review, err := f.deals.CreateReview(ctx, f.buyerActor(), f.deal.Ref(), 4, "on time")
	require.NoError(t, err)
	assert.Equal(t, f.supplier.ID, review.CompanyID, "the buyer rates the supplier")

	_, err = f.deals.CreateReview(ctx, f.buyerActor(), f.deal.Ref(), 5, "again")
	assert.ErrorIs(t, err, e.ErrDuplicateReview)

	view, err = f.deals.GetDeal(ctx, f.buyerActor(), f.deal.Ref())
	require.NoError(t, err)
	assert.False(t, view.NeedReview)

	supplier, err := f.repo.GetCompany(ctx, f.supplier.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.0, supplier.AverageReviewRate)
}

func TestDealService_CreateEquipmentDealRequiresStaff(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	service := NewDealService(repo, &recordingDispatcher{}, testLogger(t))

	_, err := service.CreateEquipmentDeal(ctx, companyActor(uuid.New(), uuid.New()), &models.EquipmentDeal{Count: 1})
	assert.ErrorIs(t, err, e.ErrForbidden)
}
