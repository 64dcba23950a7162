package service

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/medaminemghirbi/SallaPro/internal/models"
	"github.com/medaminemghirbi/SallaPro/internal/numbering"
	"github.com/medaminemghirbi/SallaPro/internal/pricing"
	"github.com/medaminemghirbi/SallaPro/internal/repository"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MaxSignedDocumentSize caps the signed copy attached on signature.
const MaxSignedDocumentSize = 10 << 20

var hundred = decimal.NewFromInt(100)

// ContractInput carries the editable fields of a contract. On update, nil
// fields are left untouched.
type ContractInput struct {
	VenueID            *uint
	ClientID           *uint
	Title              *string
	Description        *string
	EventType          *string
	ExpectedGuests     *int
	EventStartDate     *time.Time
	EventEndDate       *time.Time
	BasePrice          *decimal.Decimal
	DiscountPercent    *decimal.Decimal
	DiscountAmount     *decimal.Decimal
	TaxRate            *decimal.Decimal
	DepositAmount      *decimal.Decimal
	PaymentMethod      *string
	ValidUntil         *time.Time
	SpecialRequests    *string
	TermsAndConditions *string
	InternalNotes      *string
}

type SignedDocument struct {
	FileName    string
	ContentType string
	Content     []byte
}

type ContractService interface {
	CreateDraft(ctx context.Context, companyID, createdByID uint, in ContractInput) (*models.VenueContract, error)
	Get(ctx context.Context, companyID, id uint) (*models.VenueContract, error)
	List(ctx context.Context, companyID uint, filter repository.ContractFilter) ([]models.VenueContract, error)
	Update(ctx context.Context, companyID, id uint, in ContractInput) (*models.VenueContract, error)
	ConvertToDevis(ctx context.Context, companyID, id uint) (*models.VenueContract, error)
	ConvertToContract(ctx context.Context, companyID, id uint) (*models.VenueContract, error)
	// Sign moves a contract to signed, books the venue and archives the signed
	// copy in one transaction. Nothing is persisted when any step fails.
	Sign(ctx context.Context, companyID, id uint, doc *SignedDocument) (*models.VenueContract, *models.VenueReservation, error)
	Cancel(ctx context.Context, companyID, id uint) (*models.VenueContract, error)
	RecordPayment(ctx context.Context, companyID, id uint, amount decimal.Decimal, method string) (*models.VenueContract, error)
	Stats(ctx context.Context, companyID uint) (*models.ContractStats, error)
	// SignedDocuments lists the archived signed copies, without their content.
	SignedDocuments(ctx context.Context, companyID uint) ([]models.CompanyDocument, error)
}

type contractService struct {
	contractRepo repository.ContractRepository
	venueRepo    repository.VenueRepository
	userRepo     repository.UserRepository
	documentRepo repository.DocumentRepository
	ledger       ReservationService
	counter      numbering.Counter
	publisher    Publisher
	now          func() time.Time
}

func NewContractService(
	contractRepo repository.ContractRepository,
	venueRepo repository.VenueRepository,
	userRepo repository.UserRepository,
	documentRepo repository.DocumentRepository,
	ledger ReservationService,
	counter numbering.Counter,
	publisher Publisher,
) ContractService {
	return &contractService{
		contractRepo: contractRepo,
		venueRepo:    venueRepo,
		userRepo:     userRepo,
		documentRepo: documentRepo,
		ledger:       ledger,
		counter:      counter,
		publisher:    publisher,
		now:          time.Now,
	}
}

func (s *contractService) CreateDraft(ctx context.Context, companyID, createdByID uint, in ContractInput) (*models.VenueContract, error) {
	contract := &models.VenueContract{
		CompanyID:     companyID,
		CreatedByID:   createdByID,
		Status:        models.ContractDraft,
		PaymentStatus: models.PaymentPending,
	}
	in.applyTo(contract)

	if err := s.validate(ctx, companyID, contract); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	for attempt := 1; ; attempt++ {
		candidate := *contract
		err := s.contractRepo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			number, err := s.counter.Next(ctx, tx, numbering.Contracts, now)
			if err != nil {
				return err
			}
			candidate.ContractNumber = number
			return s.contractRepo.Create(ctx, tx, &candidate)
		})
		if err == nil {
			contract = &candidate
			break
		}
		if !repository.IsUniqueViolation(err, "contract_number") {
			return nil, err
		}
		if attempt >= maxNumberAttempts {
			return nil, fmt.Errorf("allocate contract number: %w", ErrConcurrencyConflict)
		}
		log.Printf("[ContractEngine] number collision on attempt %d, retrying", attempt)
	}

	s.publish("contract.created", contract)
	return contract, nil
}

func (s *contractService) Get(ctx context.Context, companyID, id uint) (*models.VenueContract, error) {
	contract, err := s.contractRepo.FindByID(ctx, companyID, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, &NotFoundError{Entity: "contract", ID: id}
		}
		return nil, err
	}
	return contract, nil
}

func (s *contractService) List(ctx context.Context, companyID uint, filter repository.ContractFilter) ([]models.VenueContract, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, invalid("status", "is not a contract status")
	}
	return s.contractRepo.List(ctx, companyID, filter)
}

func (s *contractService) Update(ctx context.Context, companyID, id uint, in ContractInput) (*models.VenueContract, error) {
	var result *models.VenueContract

	err := s.contractRepo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		contract, err := s.lock(ctx, tx, companyID, id)
		if err != nil {
			return err
		}
		if !contract.Editable() {
			return &TransitionError{Entity: "contract", From: string(contract.Status), To: "edited"}
		}

		in.applyTo(contract)
		if err := s.validateIn(ctx, tx, companyID, contract); err != nil {
			return err
		}
		if contract.AmountPaid.IsPositive() {
			contract.PaymentStatus = contract.DerivePaymentStatus()
		}

		if err := s.contractRepo.Save(ctx, tx, contract); err != nil {
			return err
		}
		result = contract
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish("contract.updated", result)
	return result, nil
}

func (s *contractService) ConvertToDevis(ctx context.Context, companyID, id uint) (*models.VenueContract, error) {
	return s.transition(ctx, companyID, id, models.ContractDevis, "contract.devis",
		(*models.VenueContract).CanConvertToDevis,
		func(c *models.VenueContract, now time.Time) { c.SentAt = &now })
}

func (s *contractService) ConvertToContract(ctx context.Context, companyID, id uint) (*models.VenueContract, error) {
	return s.transition(ctx, companyID, id, models.ContractContract, "contract.ready",
		(*models.VenueContract).CanConvertToContract, nil)
}

func (s *contractService) Cancel(ctx context.Context, companyID, id uint) (*models.VenueContract, error) {
	return s.transition(ctx, companyID, id, models.ContractCancelled, "contract.cancelled",
		(*models.VenueContract).CanCancel, nil)
}

func (s *contractService) transition(
	ctx context.Context,
	companyID, id uint,
	to models.ContractStatus,
	routingKey string,
	allowed func(*models.VenueContract) bool,
	apply func(*models.VenueContract, time.Time),
) (*models.VenueContract, error) {
	var result *models.VenueContract
	now := s.now().UTC()

	err := s.contractRepo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		contract, err := s.lock(ctx, tx, companyID, id)
		if err != nil {
			return err
		}
		if !allowed(contract) {
			return &TransitionError{Entity: "contract", From: string(contract.Status), To: string(to)}
		}

		contract.Status = to
		if apply != nil {
			apply(contract, now)
		}
		if err := s.contractRepo.Save(ctx, tx, contract); err != nil {
			return err
		}
		result = contract
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(routingKey, result)
	return result, nil
}

func (s *contractService) Sign(ctx context.Context, companyID, id uint, doc *SignedDocument) (*models.VenueContract, *models.VenueReservation, error) {
	if err := validateDocument(doc); err != nil {
		return nil, nil, err
	}

	var (
		signed      *models.VenueContract
		reservation *models.VenueReservation
	)
	now := s.now().UTC()

	err := s.contractRepo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. Lock the contract so two signatures cannot race
		contract, err := s.lock(ctx, tx, companyID, id)
		if err != nil {
			return err
		}
		if !contract.CanSign() {
			return &TransitionError{Entity: "contract", From: string(contract.Status), To: string(models.ContractSigned)}
		}

		// 2. Mark signed and attach the signed copy
		contract.Status = models.ContractSigned
		contract.SignedAt = &now
		if doc != nil {
			contract.SignedDocumentName = doc.FileName
			contract.SignedDocumentType = doc.ContentType
			contract.SignedDocument = doc.Content
		}
		if err := s.contractRepo.Save(ctx, tx, contract); err != nil {
			return err
		}

		// 3. Book the venue; an overlap aborts the whole signature
		reservation, err = s.ledger.CreateFromContract(ctx, tx, contract)
		if err != nil {
			return err
		}

		// 4. File the signed copy in the company library
		if contract.HasSignedDocument() {
			if err := s.archive(ctx, tx, contract); err != nil {
				return err
			}
		}

		signed = contract
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.publish("contract.signed", signed)
	s.publish("reservation.created", reservation)
	return signed, reservation, nil
}

func (s *contractService) archive(ctx context.Context, tx *gorm.DB, contract *models.VenueContract) error {
	if err := s.contractRepo.LoadParties(ctx, tx, contract); err != nil {
		return err
	}

	doc := &models.CompanyDocument{
		CompanyID:    contract.CompanyID,
		UploadedByID: contract.CreatedByID,
		Name:         fmt.Sprintf("Contrat - %s - %s", contract.Title, contract.ContractNumber),
		Description:  fmt.Sprintf("Contrat signé pour %s - Client: %s", contract.Venue.Name, contract.Client.FullName()),
		DocumentType: models.DocumentTypeContract,
		Category:     models.DocumentCategoryVenue,
		StorageKey:   uuid.NewString(),
		FileName:     contract.SignedDocumentName,
		FileType:     contract.SignedDocumentType,
		FileSize:     int64(len(contract.SignedDocument)),
		Content:      contract.SignedDocument,
		Metadata: datatypes.JSONMap{
			"contract_id": contract.ID,
			"venue_id":    contract.VenueID,
			"client_id":   contract.ClientID,
			"signed_at":   contract.SignedAt,
		},
	}
	return s.documentRepo.Create(ctx, tx, doc)
}

func (s *contractService) RecordPayment(ctx context.Context, companyID, id uint, amount decimal.Decimal, method string) (*models.VenueContract, error) {
	if !amount.IsPositive() {
		return nil, invalid("amount", "must be greater than 0")
	}

	var result *models.VenueContract
	now := s.now().UTC()

	err := s.contractRepo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		contract, err := s.lock(ctx, tx, companyID, id)
		if err != nil {
			return err
		}
		if contract.Status == models.ContractCancelled {
			return &TransitionError{Entity: "contract", From: string(contract.Status), To: "paid"}
		}

		contract.AmountPaid = pricing.Round(contract.AmountPaid.Add(amount))
		if method = strings.TrimSpace(method); method != "" {
			contract.PaymentMethod = method
		}
		contract.PaymentStatus = contract.DerivePaymentStatus()
		if !contract.DepositPaid && contract.DepositAmount.IsPositive() && contract.AmountPaid.GreaterThanOrEqual(contract.DepositAmount) {
			contract.DepositPaid = true
			contract.DepositPaidAt = &now
		}
		if err := s.contractRepo.Save(ctx, tx, contract); err != nil {
			return err
		}

		// Keep the booked reservation's collected amount in step
		if contract.Status == models.ContractSigned {
			if err := s.ledger.SyncPayment(ctx, tx, contract); err != nil {
				return err
			}
		}

		result = contract
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish("contract.payment", result)
	return result, nil
}

func (s *contractService) Stats(ctx context.Context, companyID uint) (*models.ContractStats, error) {
	return s.contractRepo.Stats(ctx, companyID, s.now())
}

func (s *contractService) SignedDocuments(ctx context.Context, companyID uint) ([]models.CompanyDocument, error) {
	return s.documentRepo.ListByCategory(ctx, companyID, models.DocumentCategoryVenue)
}

func (s *contractService) lock(ctx context.Context, tx *gorm.DB, companyID, id uint) (*models.VenueContract, error) {
	contract, err := s.contractRepo.FindByIDForUpdate(ctx, tx, companyID, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, &NotFoundError{Entity: "contract", ID: id}
		}
		return nil, err
	}
	return contract, nil
}

// validate checks a contract before its first insert.
func (s *contractService) validate(ctx context.Context, companyID uint, c *models.VenueContract) error {
	if err := validateFields(c); err != nil {
		return err
	}
	if _, err := s.venueRepo.FindByID(ctx, companyID, c.VenueID); err != nil {
		if repository.IsNotFound(err) {
			return invalid("venue_id", "does not belong to this company")
		}
		return err
	}
	if _, err := s.userRepo.FindClient(ctx, companyID, c.ClientID); err != nil {
		if repository.IsNotFound(err) {
			return invalid("client_id", "is not a client of this company")
		}
		return err
	}
	return nil
}

// validateIn is validate for a contract already locked in tx.
func (s *contractService) validateIn(ctx context.Context, tx *gorm.DB, companyID uint, c *models.VenueContract) error {
	if err := validateFields(c); err != nil {
		return err
	}
	var count int64
	if err := tx.WithContext(ctx).Model(&models.Venue{}).Where("id = ? AND company_id = ?", c.VenueID, companyID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return invalid("venue_id", "does not belong to this company")
	}
	if err := tx.WithContext(ctx).Model(&models.User{}).Where("id = ? AND company_id = ? AND role = ?", c.ClientID, companyID, models.RoleClient).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return invalid("client_id", "is not a client of this company")
	}
	return nil
}

func validateFields(c *models.VenueContract) error {
	switch {
	case strings.TrimSpace(c.Title) == "":
		return invalid("title", "is required")
	case c.VenueID == 0:
		return invalid("venue_id", "is required")
	case c.ClientID == 0:
		return invalid("client_id", "is required")
	case c.EventStartDate.IsZero() || c.EventEndDate.IsZero():
		return invalid("event_start_date", "and event_end_date are required")
	case c.Period().Validate() != nil:
		return invalid("event_end_date", "must be after event_start_date")
	case !models.ValidEventType(c.EventType):
		return invalid("event_type", "is not a known event type")
	case c.ExpectedGuests < 0:
		return invalid("expected_guests", "must be greater than or equal to 0")
	case c.BasePrice.IsNegative():
		return invalid("base_price", "must be greater than or equal to 0")
	case c.DiscountPercent.IsNegative() || c.DiscountPercent.GreaterThan(hundred):
		return invalid("discount_percent", "must be between 0 and 100")
	case c.DiscountAmount.IsNegative():
		return invalid("discount_amount", "must be greater than or equal to 0")
	case c.TaxRate != nil && (c.TaxRate.IsNegative() || c.TaxRate.GreaterThan(hundred)):
		return invalid("tax_rate", "must be between 0 and 100")
	case c.DepositAmount.IsNegative():
		return invalid("deposit_amount", "must be greater than or equal to 0")
	}
	return nil
}

var signedDocumentTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
}

func validateDocument(doc *SignedDocument) error {
	if doc == nil {
		return nil
	}
	if len(doc.Content) == 0 {
		return invalid("signed_document", "is empty")
	}
	if len(doc.Content) > MaxSignedDocumentSize {
		return invalid("signed_document", "exceeds 10MB")
	}
	if doc.ContentType == "" {
		doc.ContentType = http.DetectContentType(doc.Content)
	}
	if i := strings.Index(doc.ContentType, ";"); i >= 0 {
		doc.ContentType = strings.TrimSpace(doc.ContentType[:i])
	}
	if !signedDocumentTypes[doc.ContentType] {
		return invalid("signed_document", "must be a PDF, JPEG or PNG file")
	}
	if doc.FileName == "" {
		doc.FileName = "signed_document"
	}
	return nil
}

func (in ContractInput) applyTo(c *models.VenueContract) {
	if in.VenueID != nil {
		c.VenueID = *in.VenueID
	}
	if in.ClientID != nil {
		c.ClientID = *in.ClientID
	}
	if in.Title != nil {
		c.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		c.Description = *in.Description
	}
	if in.EventType != nil {
		c.EventType = *in.EventType
	}
	if in.ExpectedGuests != nil {
		c.ExpectedGuests = *in.ExpectedGuests
	}
	if in.EventStartDate != nil {
		c.EventStartDate = in.EventStartDate.UTC()
	}
	if in.EventEndDate != nil {
		c.EventEndDate = in.EventEndDate.UTC()
	}
	if in.BasePrice != nil {
		c.BasePrice = *in.BasePrice
	}
	if in.DiscountPercent != nil {
		c.DiscountPercent = *in.DiscountPercent
	}
	if in.DiscountAmount != nil {
		c.DiscountAmount = *in.DiscountAmount
	}
	if in.TaxRate != nil {
		rate := *in.TaxRate
		c.TaxRate = &rate
	}
	if in.DepositAmount != nil {
		c.DepositAmount = *in.DepositAmount
	}
	if in.PaymentMethod != nil {
		c.PaymentMethod = *in.PaymentMethod
	}
	if in.ValidUntil != nil {
		v := in.ValidUntil.UTC()
		c.ValidUntil = &v
	}
	if in.SpecialRequests != nil {
		c.SpecialRequests = *in.SpecialRequests
	}
	if in.TermsAndConditions != nil {
		c.TermsAndConditions = *in.TermsAndConditions
	}
	if in.InternalNotes != nil {
		c.InternalNotes = *in.InternalNotes
	}
	c.ApplyPricing()
}

func (s *contractService) publish(routingKey string, payload any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(routingKey, payload); err != nil {
		log.Printf("[ContractEngine] publish %s failed: %v", routingKey, err)
	}
}
