package controller

import (
	"context"
	"testing"

	"github.com/gartstein/tradehub/internal/exchange/db"
	e "github.com/gartstein/tradehub/internal/exchange/errors"
	"github.com/gartstein/tradehub/internal/exchange/events"
	"github.com/gartstein/tradehub/internal/exchange/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// completedDeal walks a fresh deal to COMPLETED and returns the completion
// event it produced.
func completedDeal(t *testing.T) (*dealFixture, events.DealCompleted) {
	t.Helper()
	f := newDealFixture(t)
	f.moveDeal(t, models.DealLoading, models.DealUnloading, models.DealCompleted)
	for _, ev := range f.dispatcher.events {
		if done, ok := ev.(events.DealCompleted); ok {
			return f, done
		}
	}
	t.Fatal("no DealCompleted event dispatched")
	return nil, events.DealCompleted{}
}

func TestFinanceService_HandleIssuesInvoicesOnce(t *testing.T) {
	ctx := context.Background()
	f, done := completedDeal(t)
	service := NewFinanceService(f.repo, testLogger(t))

	require.NoError(t, service.Handle(ctx, done))
	require.NoError(t, service.Handle(ctx, done), "replaying the event is harmless")

	invoices, err := f.repo.InvoicesForDeal(ctx, f.deal.Ref())
	require.NoError(t, err)
	require.Len(t, invoices, 2)

	companies := []uuid.UUID{invoices[0].CompanyID, invoices[1].CompanyID}
	assert.ElementsMatch(t, []uuid.UUID{f.supplier.ID, f.buyer.ID}, companies)
	for _, inv := range invoices {
		assert.Equal(t, models.InvoicePending, inv.Status)
		assert.Equal(t, "2000", inv.Amount.String())
	}

	assert.NoError(t, service.Handle(ctx, events.DealCreated{Deal: f.deal.Ref()}), "other events are ignored")
}

func TestFinanceService_InvoiceAccessAndStatus(t *testing.T) {
	ctx := context.Background()
	f, done := completedDeal(t)
	service := NewFinanceService(f.repo, testLogger(t))
	require.NoError(t, service.Handle(ctx, done))

	buyerPage, err := service.ListInvoices(ctx, f.buyerActor(), "", db.Page{})
	require.NoError(t, err)
	require.EqualValues(t, 1, buyerPage.Total)
	invoice := buyerPage.Items[0]

	staffPage, err := service.ListInvoices(ctx, staffActor(), "", db.Page{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, staffPage.Total)

	_, err = service.GetInvoice(ctx, f.buyerActor(), invoice.ID)
	assert.NoError(t, err)
	_, err = service.GetInvoice(ctx, f.supplierActor(), invoice.ID)
	assert.ErrorIs(t, err, e.ErrForbidden)

	tests := []struct {
		name    string
		actor   models.Actor
		status  models.InvoiceStatus
		wantErr error
	}{
		{name: "party cannot settle", actor: f.buyerActor(), status: models.InvoicePaid, wantErr: e.ErrForbidden},
		{name: "pending cannot be refunded", actor: staffActor(), status: models.InvoiceRefunded, wantErr: e.ErrInvalidTransition},
		{name: "paid", actor: staffActor(), status: models.InvoicePaid},
		{name: "paid cannot be canceled", actor: staffActor(), status: models.InvoiceCanceled, wantErr: e.ErrInvalidTransition},
		{name: "refunded", actor: staffActor(), status: models.InvoiceRefunded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv, err := service.SetInvoiceStatus(ctx, tt.actor, invoice.ID, tt.status)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.status, inv.Status)
		})
	}

	refunded, err := service.ListInvoices(ctx, staffActor(), models.InvoiceRefunded, db.Page{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, refunded.Total)
}
