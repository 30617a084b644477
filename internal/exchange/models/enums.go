package models

// DealType is the side of an application.
type DealType string

const (
	Buy  DealType = "BUY"
	Sell DealType = "SELL"
)

// UrgencyType discriminates lot-based applications from volume-based ones.
type UrgencyType string

const (
	ReadyForShipment UrgencyType = "READY_FOR_SHIPMENT"
	SupplyContract   UrgencyType = "SUPPLY_CONTRACT"
)

type PackingDeductionType string

const (
	FromBale        PackingDeductionType = "FROM_BALE"
	FromTotalWeight PackingDeductionType = "FROM_TOTAL_WEIGHT"
)

type ApplicationStatus string

const (
	ApplicationOnReview  ApplicationStatus = "ON_REVIEW"
	ApplicationPublished ApplicationStatus = "PUBLISHED"
	ApplicationClosed    ApplicationStatus = "CLOSED"
	ApplicationDeclined  ApplicationStatus = "DECLINED"
)

type CompanyStatus string

const (
	CompanyNotVerified CompanyStatus = "NOT_VERIFIED"
	CompanyVerified    CompanyStatus = "VERIFIED"
	CompanyReliable    CompanyStatus = "RELIABLE"
)

type VerificationStatus string

const (
	VerificationNew      VerificationStatus = "NEW"
	VerificationVerified VerificationStatus = "VERIFIED"
	VerificationReliable VerificationStatus = "RELIABLE"
	VerificationDecline  VerificationStatus = "DECLINE"
)

type DealStatus string

const (
	DealAgreement             DealStatus = "AGREEMENT"
	DealDispatcherAppointment DealStatus = "DISPATCHER_APPOINTMENT"
	DealLoading               DealStatus = "LOADING"
	DealUnloading             DealStatus = "UNLOADING"
	DealAcceptance            DealStatus = "ACCEPTANCE"
	DealCompleted             DealStatus = "COMPLETED"
	DealProblem               DealStatus = "PROBLEM"
	DealCanceled              DealStatus = "CANCELED"
)

var dealStatusLabels = map[DealStatus]string{
	DealAgreement:             "Agreement of terms",
	DealDispatcherAppointment: "Dispatcher appointment",
	DealLoading:               "Loading",
	DealUnloading:             "Unloading",
	DealAcceptance:            "Acceptance",
	DealCompleted:             "Deal completed",
	DealProblem:               "Problem with the deal",
	DealCanceled:              "Deal canceled",
}

// Label is the human-readable name used in notification text.
func (s DealStatus) Label() string {
	if l, ok := dealStatusLabels[s]; ok {
		return l
	}
	return string(s)
}

func (s DealStatus) Valid() bool {
	_, ok := dealStatusLabels[s]
	return ok
}

type TransportStatus string

const (
	TransportAgreement       TransportStatus = "AGREEMENT"
	TransportLoading         TransportStatus = "LOADING"
	TransportUnloading       TransportStatus = "UNLOADING"
	TransportFinalAcceptance TransportStatus = "FINAL_ACCEPTANCE"
	TransportCompleted       TransportStatus = "COMPLETED"
	TransportCanceled        TransportStatus = "CANCELED"
)

var transportStatusLabels = map[TransportStatus]string{
	TransportAgreement:       "Agreement of terms",
	TransportLoading:         "Loading",
	TransportUnloading:       "Vehicle loaded",
	TransportFinalAcceptance: "Final acceptance",
	TransportCompleted:       "Completed",
	TransportCanceled:        "Canceled",
}

func (s TransportStatus) Label() string {
	if l, ok := transportStatusLabels[s]; ok {
		return l
	}
	return string(s)
}

func (s TransportStatus) Valid() bool {
	_, ok := transportStatusLabels[s]
	return ok
}

type OfferStatus string

const (
	OfferPending  OfferStatus = "PENDING"
	OfferApproved OfferStatus = "APPROVED"
	OfferDeclined OfferStatus = "DECLINED"
)

// LogistStatus is the state of a transport application from one logist's
// point of view.
type LogistStatus string

const (
	LogistNew      LogistStatus = "NEW"
	LogistPending  LogistStatus = "PENDING"
	LogistApproved LogistStatus = "APPROVED"
	LogistDeclined LogistStatus = "DECLINED"
)

type PaymentTerm string

const (
	UponLoading   PaymentTerm = "UPON_LOADING"
	UponUnloading PaymentTerm = "UPON_UNLOADING"
	OtherTerm     PaymentTerm = "OTHER"
)

type WhoDelivers string

const (
	SupplierDelivers WhoDelivers = "SUPPLIER"
	BuyerDelivers    WhoDelivers = "BUYER"
	PlatformDelivers WhoDelivers = "VTORPRICE"
)

type InvoiceStatus string

const (
	InvoicePending  InvoiceStatus = "PENDING"
	InvoicePaid     InvoiceStatus = "PAID"
	InvoiceCanceled InvoiceStatus = "CANCELED"
	InvoiceRefunded InvoiceStatus = "REFUNDED"
)

type ContractorType string

const (
	ContractorTransport  ContractorType = "TRANSPORT"
	ContractorDispatcher ContractorType = "DISPATCHER"
	ContractorDriver     ContractorType = "DRIVER"
)

type DocumentType string

const (
	DocUnloadingAgreement            DocumentType = "UNLOADING_AGREEMENT"
	DocAgreementApplication          DocumentType = "AGREEMENT_APPLICATION"
	DocWaybill                       DocumentType = "WAYBILL"
	DocInvoice                       DocumentType = "INVOICE"
	DocAgreementSpecification        DocumentType = "AGREEMENT_SPECIFICATION"
	DocUniformTransportationDocument DocumentType = "UNIFORM_TRANSPORTATION_DOCUMENT"
	DocActBuyer                      DocumentType = "ACT_BUYER"
	DocActSeller                     DocumentType = "ACT_SELLER"
	DocInvoiceDocument               DocumentType = "INVOICE_DOCUMENT"
)

var documentTitles = map[DocumentType]string{
	DocUnloadingAgreement:            "Unloading agreement",
	DocAgreementApplication:          "Transport application agreement",
	DocWaybill:                       "Waybill",
	DocInvoice:                       "Invoice",
	DocAgreementSpecification:        "Agreement specification",
	DocUniformTransportationDocument: "Universal transfer document",
	DocActBuyer:                      "Buyer act",
	DocActSeller:                     "Seller act",
	DocInvoiceDocument:               "Invoice document",
}

// documentSubjects says which entity kind each document is generated for.
var documentSubjects = map[DocumentType]Kind{
	DocUnloadingAgreement:            KindTransportApplication,
	DocAgreementApplication:          KindTransportApplication,
	DocWaybill:                       KindTransportApplication,
	DocInvoice:                       KindTransportApplication,
	DocUniformTransportationDocument: KindTransportApplication,
	DocAgreementSpecification:        KindRecyclablesDeal,
	DocActBuyer:                      KindRecyclablesDeal,
	DocActSeller:                     KindRecyclablesDeal,
	DocInvoiceDocument:               KindInvoicePayment,
}

// AppliesTo reports whether the document can be generated for the kind.
// Deal documents apply to both deal kinds.
func (t DocumentType) AppliesTo(kind Kind) bool {
	want, ok := documentSubjects[t]
	if !ok {
		return false
	}
	if want.IsDeal() {
		return kind.IsDeal()
	}
	return want == kind
}

func (t DocumentType) Title() string {
	return documentTitles[t]
}

func (t DocumentType) Valid() bool {
	_, ok := documentTitles[t]
	return ok
}
