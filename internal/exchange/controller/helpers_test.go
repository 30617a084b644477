package controller

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/gartstein/tradehub/internal/exchange/db"
	"github.com/gartstein/tradehub/internal/exchange/events"
	"github.com/gartstein/tradehub/internal/exchange/models"
	"github.com/gartstein/tradehub/internal/pkg/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
)

func testLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t)
}

// newTestRepo opens a private in-memory SQLite database.
func newTestRepo(t *testing.T) *db.Repository {
	t.Helper()
	repo, err := db.Open(sqlite.Open("file:" + uuid.NewString() + "?mode=memory&cache=shared"))
	require.NoError(t, err, "failed to open test database")
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

// recordingDispatcher keeps every dispatched event in order.
type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Dispatch(_ context.Context, evs ...events.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, evs...)
}

func (d *recordingDispatcher) types() []events.EventType {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]events.EventType, len(d.events))
	for i, ev := range d.events {
		out[i] = ev.Type()
	}
	return out
}

func (d *recordingDispatcher) reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = nil
}

func randomINN() string {
	return fmt.Sprintf("%010d", rand.Int64N(10_000_000_000))
}

func seedCompany(t *testing.T, repo *db.Repository, status models.CompanyStatus) *models.Company {
	t.Helper()
	c := &models.Company{ID: uuid.New(), Name: "Company " + uuid.NewString()[:6], INN: randomINN(), Status: status}
	require.NoError(t, repo.CreateCompany(context.Background(), c))
	return c
}

func seedUser(t *testing.T, repo *db.Repository, role models.Role, companyID *uuid.UUID, email string) *models.User {
	t.Helper()
	u := &models.User{
		ID:        uuid.New(),
		Phone:     "+7" + randomINN(),
		Email:     email,
		Role:      role,
		CompanyID: companyID,
	}
	require.NoError(t, repo.CreateUser(context.Background(), u))
	return u
}

func seedRecyclablesApplication(t *testing.T, repo *db.Repository, companyID, recyclablesID uuid.UUID, dealType models.DealType) *models.RecyclablesApplication {
	t.Helper()
	app := &models.RecyclablesApplication{
		ID:            uuid.New(),
		CompanyID:     companyID,
		RecyclablesID: recyclablesID,
		DealType:      dealType,
		UrgencyType:   models.SupplyContract,
		Status:        models.ApplicationPublished,
		Price:         decimal.NewFromInt(12),
		Volume:        utils.Ptr(2000.0),
	}
	require.NoError(t, repo.CreateRecyclablesApplication(context.Background(), app))
	return app
}

// ensureUser stores a user row for the actor unless one exists.
func ensureUser(t *testing.T, repo *db.Repository, actor models.Actor, firstName, lastName string) *models.User {
	t.Helper()
	if u, err := repo.GetUser(context.Background(), actor.UserID); err == nil {
		return u
	}
	u := &models.User{
		ID:        actor.UserID,
		Phone:     "+7" + randomINN(),
		FirstName: firstName,
		LastName:  lastName,
		Role:      actor.Role,
	}
	require.NoError(t, repo.CreateUser(context.Background(), u))
	return u
}

func companyActor(userID, companyID uuid.UUID) models.Actor {
	return models.Actor{UserID: userID, CompanyID: companyID, Role: models.RoleCompanyAdmin}
}

func staffActor() models.Actor {
	return models.Actor{UserID: uuid.New(), Role: models.RoleManager}
}

// dealFixture is a matched recyclables deal between two fresh companies.
type dealFixture struct {
	repo       *db.Repository
	dispatcher *recordingDispatcher
	deals      *DealService
	supplier   *models.Company
	buyer      *models.Company
	deal       *models.RecyclablesDeal
}

func (f *dealFixture) supplierActor() models.Actor {
	return companyActor(uuid.New(), f.supplier.ID)
}

func (f *dealFixture) buyerActor() models.Actor {
	return companyActor(uuid.New(), f.buyer.ID)
}

func newDealFixture(t *testing.T) *dealFixture {
	t.Helper()
	repo := newTestRepo(t)
	dispatcher := &recordingDispatcher{}
	f := &dealFixture{
		repo:       repo,
		dispatcher: dispatcher,
		deals:      NewDealService(repo, dispatcher, testLogger(t)),
		supplier:   seedCompany(t, repo, models.CompanyVerified),
		buyer:      seedCompany(t, repo, models.CompanyVerified),
	}
	material := uuid.New()
	buying := seedRecyclablesApplication(t, repo, f.buyer.ID, material, models.Buy)
	selling := seedRecyclablesApplication(t, repo, f.supplier.ID, material, models.Sell)

	deal, err := f.deals.Match(context.Background(), f.buyerActor(), buying.ID, selling.ID)
	require.NoError(t, err)
	f.deal = deal
	dispatcher.reset()
	return f
}

// moveDeal walks the deal along the given statuses as staff.
func (f *dealFixture) moveDeal(t *testing.T, statuses ...models.DealStatus) {
	t.Helper()
	for _, st := range statuses {
		_, err := f.deals.UpdateDeal(context.Background(), staffActor(), f.deal.Ref(), &models.DealUpdate{Status: utils.Ptr(st)})
		require.NoError(t, err, "moving deal to %s", st)
	}
}
