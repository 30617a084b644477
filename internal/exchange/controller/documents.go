package controller

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/gartstein/tradehub/internal/exchange/documents"
	e "github.com/gartstein/tradehub/internal/exchange/errors"
	"github.com/gartstein/tradehub/internal/exchange/events"
	"github.com/gartstein/tradehub/internal/exchange/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type DocumentRepository interface {
	GetDocument(ctx context.Context, subject models.Ref, docType models.DocumentType) (*models.Document, error)
	CreateDocument(ctx context.Context, doc *models.Document) error
	GetDeal(ctx context.Context, ref models.Ref) (models.Deal, error)
	GetTransportApplication(ctx context.Context, id uuid.UUID) (*models.TransportApplication, error)
	GetInvoice(ctx context.Context, id uuid.UUID) (*models.InvoicePayment, error)
	InvoicesForDeal(ctx context.Context, ref models.Ref) ([]models.InvoicePayment, error)
	GetCompany(ctx context.Context, id uuid.UUID) (*models.Company, error)
}

// DocumentService generates paperwork on first request and serves the
// stored copy afterwards.
type DocumentService struct {
	repo   DocumentRepository
	logger *zap.Logger
}

func NewDocumentService(repo DocumentRepository, logger *zap.Logger) *DocumentService {
	return &DocumentService{
		repo:   repo,
		logger: logger.Named("document_service"),
	}
}

// ActFor picks the act matching the caller's side of the deal.
func ActFor(deal models.Deal, actor models.Actor) models.DocumentType {
	if actor.BelongsTo(deal.BuyerID()) {
		return models.DocActBuyer
	}
	return models.DocActSeller
}

// GetDocument returns the document of the given type for the subject,
// generating it when it does not exist yet.
func (s *DocumentService) GetDocument(ctx context.Context, actor models.Actor, subject models.Ref, docType models.DocumentType) (*models.Document, error) {
	if !docType.Valid() {
		return nil, e.NewValidationError(map[string]string{"type": fmt.Sprintf("unknown document type %q", docType)})
	}
	if !docType.AppliesTo(subject.Kind) {
		return nil, fmt.Errorf("%w: %s is not issued for %s", e.ErrUnsupportedKind, docType, subject.Kind)
	}
	if err := s.authorize(ctx, actor, subject); err != nil {
		return nil, err
	}
	return s.ensure(ctx, subject, docType)
}

func (s *DocumentService) authorize(ctx context.Context, actor models.Actor, subject models.Ref) error {
	if actor.IsStaff() {
		return nil
	}
	switch {
	case subject.Kind.IsDeal():
		deal, err := s.repo.GetDeal(ctx, subject)
		if err != nil {
			return err
		}
		if !models.IsParticipant(deal, actor.CompanyID) {
			return fmt.Errorf("%w: not a party of deal %s", e.ErrForbidden, deal.Number())
		}
	case subject.Kind == models.KindTransportApplication:
		app, err := s.repo.GetTransportApplication(ctx, subject.ID)
		if err != nil {
			return err
		}
		approvedLogist := app.ApprovedLogisticsOffer != nil && app.ApprovedLogisticsOffer.LogistID == actor.UserID
		if app.CreatedByID != actor.UserID && !approvedLogist {
			return fmt.Errorf("%w: not your transport application", e.ErrForbidden)
		}
	case subject.Kind == models.KindInvoicePayment:
		inv, err := s.repo.GetInvoice(ctx, subject.ID)
		if err != nil {
			return err
		}
		return requireCompanyAccess(actor, inv.CompanyID)
	default:
		return fmt.Errorf("%w: %q", e.ErrUnsupportedKind, subject.Kind)
	}
	return nil
}

// ensure is get-or-generate. A concurrent generation of the same document
// loses on the unique index and reads the winner's row.
func (s *DocumentService) ensure(ctx context.Context, subject models.Ref, docType models.DocumentType) (*models.Document, error) {
	doc, err := s.repo.GetDocument(ctx, subject, docType)
	if err == nil {
		return doc, nil
	}
	if !errors.Is(err, e.ErrNotFound) {
		return nil, err
	}

	sheet, name, companyID, err := s.compose(ctx, subject, docType)
	if err != nil {
		return nil, err
	}
	content, err := documents.Render(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", docType, err)
	}
	doc = &models.Document{
		ID:          uuid.New(),
		SubjectKind: subject.Kind,
		SubjectID:   subject.ID,
		Type:        docType,
		CompanyID:   companyID,
		Name:        name + ".xlsx",
		ContentType: documents.ContentType,
		Content:     content,
	}
	if err := s.repo.CreateDocument(ctx, doc); err != nil {
		if errors.Is(err, e.ErrDuplicate) {
			return s.repo.GetDocument(ctx, subject, docType)
		}
		return nil, fmt.Errorf("failed to store document: %w", err)
	}
	s.logger.Info("Document generated",
		zap.String("subject", subject.String()),
		zap.String("type", string(docType)),
	)
	return doc, nil
}

// compose builds the sheet, the file name and the company the document is
// issued to.
func (s *DocumentService) compose(ctx context.Context, subject models.Ref, docType models.DocumentType) (documents.Sheet, string, *uuid.UUID, error) {
	switch {
	case subject.Kind.IsDeal():
		deal, err := s.repo.GetDeal(ctx, subject)
		if err != nil {
			return documents.Sheet{}, "", nil, err
		}
		sheet, err := s.dealSheet(ctx, deal, docType)
		if err != nil {
			return documents.Sheet{}, "", nil, err
		}
		var companyID *uuid.UUID
		switch docType {
		case models.DocActBuyer:
			id := deal.BuyerID()
			companyID = &id
		case models.DocActSeller:
			id := deal.SupplierID()
			companyID = &id
		}
		return sheet, docType.Title() + " " + deal.Number(), companyID, nil

	case subject.Kind == models.KindTransportApplication:
		app, err := s.repo.GetTransportApplication(ctx, subject.ID)
		if err != nil {
			return documents.Sheet{}, "", nil, err
		}
		return transportSheet(app, docType), docType.Title() + " " + app.ID.String()[:8], nil, nil

	case subject.Kind == models.KindInvoicePayment:
		inv, err := s.repo.GetInvoice(ctx, subject.ID)
		if err != nil {
			return documents.Sheet{}, "", nil, err
		}
		sheet, err := s.invoiceSheet(ctx, inv, docType)
		if err != nil {
			return documents.Sheet{}, "", nil, err
		}
		companyID := inv.CompanyID
		return sheet, docType.Title() + " " + inv.ID.String()[:8], &companyID, nil
	}
	return documents.Sheet{}, "", nil, fmt.Errorf("%w: %q", e.ErrUnsupportedKind, subject.Kind)
}

func (s *DocumentService) companyName(ctx context.Context, id uuid.UUID) (string, error) {
	c, err := s.repo.GetCompany(ctx, id)
	if err != nil {
		return "", fmt.Errorf("company %s: %w", id, err)
	}
	return c.Name, nil
}

func formatWeight(w *float64) string {
	if w == nil {
		return ""
	}
	return strconv.FormatFloat(*w, 'f', -1, 64)
}

func (s *DocumentService) dealSheet(ctx context.Context, deal models.Deal, docType models.DocumentType) (documents.Sheet, error) {
	supplier, err := s.companyName(ctx, deal.SupplierID())
	if err != nil {
		return documents.Sheet{}, err
	}
	buyer, err := s.companyName(ctx, deal.BuyerID())
	if err != nil {
		return documents.Sheet{}, err
	}
	sheet := documents.Sheet{
		Title: docType.Title(),
		Fields: []documents.Field{
			{Label: "Deal number", Value: deal.Number()},
			{Label: "Status", Value: deal.CurrentStatus().Label()},
			{Label: "Supplier", Value: supplier},
			{Label: "Buyer", Value: buyer},
		},
	}
	switch d := deal.(type) {
	case *models.RecyclablesDeal:
		total := ""
		if t, ok, err := d.TotalPrice(); err == nil && ok {
			total = t.StringFixed(2)
		}
		sheet.Table = &documents.Table{
			Columns: []string{"Item", "Weight", "Price", "Total"},
			Rows:    [][]string{{"Recyclables", formatWeight(d.Weight), d.Price.StringFixed(2), total}},
		}
		if d.AcceptedWeight != nil {
			sheet.Fields = append(sheet.Fields, documents.Field{Label: "Accepted weight", Value: formatWeight(d.AcceptedWeight)})
		}
	case *models.EquipmentDeal:
		sheet.Table = &documents.Table{
			Columns: []string{"Item", "Count", "Price", "Total"},
			Rows:    [][]string{{"Equipment", strconv.Itoa(d.Count), d.Price.StringFixed(2), d.TotalPrice().StringFixed(2)}},
		}
	}
	return sheet, nil
}

func transportSheet(app *models.TransportApplication, docType models.DocumentType) documents.Sheet {
	sheet := documents.Sheet{
		Title: docType.Title(),
		Fields: []documents.Field{
			{Label: "Application", Value: app.ID.String()},
			{Label: "Status", Value: app.Status.Label()},
			{Label: "Shipping address", Value: app.ShippingAddress},
			{Label: "Delivery address", Value: app.DeliveryAddress},
			{Label: "Cargo", Value: app.Cargo},
			{Label: "Weight", Value: formatWeight(app.Weight)},
		},
	}
	if app.ShippingDate != nil {
		sheet.Fields = append(sheet.Fields, documents.Field{Label: "Shipping date", Value: app.ShippingDate.Format("2006-01-02")})
	}
	if o := app.ApprovedLogisticsOffer; o != nil {
		sheet.Table = &documents.Table{
			Columns: []string{"Carrier offer", "Amount"},
			Rows:    [][]string{{o.Name, o.Amount.StringFixed(2)}},
		}
	}
	return sheet
}

func (s *DocumentService) invoiceSheet(ctx context.Context, inv *models.InvoicePayment, docType models.DocumentType) (documents.Sheet, error) {
	company, err := s.companyName(ctx, inv.CompanyID)
	if err != nil {
		return documents.Sheet{}, err
	}
	number := ""
	if deal, err := s.repo.GetDeal(ctx, inv.DealRef()); err == nil {
		number = deal.Number()
	}
	return documents.Sheet{
		Title: docType.Title(),
		Fields: []documents.Field{
			{Label: "Invoice", Value: inv.ID.String()},
			{Label: "Deal number", Value: number},
			{Label: "Payer", Value: company},
			{Label: "Status", Value: string(inv.Status)},
		},
		Table: &documents.Table{
			Columns: []string{"Description", "Amount"},
			Rows:    [][]string{{"Deal settlement", inv.Amount.Round(2).StringFixed(2)}},
		},
	}, nil
}

// Handle prepares the closing paperwork once a deal completes: both acts
// and an invoice document for every issued invoice. Finance must run first
// so the invoices exist.
func (s *DocumentService) Handle(ctx context.Context, ev events.Event) error {
	done, ok := ev.(events.DealCompleted)
	if !ok {
		return nil
	}
	var errs []error
	for _, t := range []models.DocumentType{models.DocActBuyer, models.DocActSeller} {
		if _, err := s.ensure(ctx, done.Deal, t); err != nil {
			errs = append(errs, err)
		}
	}
	invoices, err := s.repo.InvoicesForDeal(ctx, done.Deal)
	if err != nil {
		return errors.Join(append(errs, err)...)
	}
	for _, inv := range invoices {
		ref := models.NewRef(models.KindInvoicePayment, inv.ID)
		if _, err := s.ensure(ctx, ref, models.DocInvoiceDocument); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
