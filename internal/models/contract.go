package models

import (
	"time"

	"github.com/medaminemghirbi/SallaPro/internal/pricing"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ContractStatus string

const (
	ContractDraft     ContractStatus = "draft"
	ContractDevis     ContractStatus = "devis"
	ContractContract  ContractStatus = "contract"
	ContractSigned    ContractStatus = "signed"
	ContractCancelled ContractStatus = "cancelled"
)

// ContractStatusLabels keeps the labels shown by the back office, in workflow order.
var ContractStatusLabels = []Option{
	{string(ContractDraft), "Brouillon"},
	{string(ContractDevis), "Devis"},
	{string(ContractContract), "Contrat"},
	{string(ContractSigned), "Signé"},
	{string(ContractCancelled), "Annulé"},
}

func (s ContractStatus) Valid() bool {
	switch s {
	case ContractDraft, ContractDevis, ContractContract, ContractSigned, ContractCancelled:
		return true
	}
	return false
}

// Terminal statuses accept no further transition.
func (s ContractStatus) Terminal() bool {
	return s == ContractSigned || s == ContractCancelled
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPartial PaymentStatus = "partial"
	PaymentPaid    PaymentStatus = "paid"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentPartial, PaymentPaid:
		return true
	}
	return false
}

type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

var EventTypes = []Option{
	{"wedding", "Mariage"},
	{"birthday", "Anniversaire"},
	{"corporate", "Événement d'entreprise"},
	{"conference", "Conférence"},
	{"seminar", "Séminaire"},
	{"party", "Fête"},
	{"meeting", "Réunion"},
	{"exhibition", "Exposition"},
	{"concert", "Concert"},
	{"other", "Autre"},
}

func ValidEventType(v string) bool {
	if v == "" {
		return true
	}
	for _, o := range EventTypes {
		if o.Value == v {
			return true
		}
	}
	return false
}

type VenueContract struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	CompanyID      uint           `gorm:"not null;index" json:"company_id"`
	VenueID        uint           `gorm:"not null;index" json:"venue_id"`
	ClientID       uint           `gorm:"not null;index" json:"client_id"`
	CreatedByID    uint           `gorm:"not null;index" json:"created_by_id"`
	ContractNumber string         `gorm:"type:varchar(32);not null;uniqueIndex" json:"contract_number"`
	Title          string         `gorm:"not null" json:"title"`
	Description    string         `gorm:"type:text" json:"description,omitempty"`
	Status         ContractStatus `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`
	EventType      string         `gorm:"type:varchar(20)" json:"event_type,omitempty"`
	ExpectedGuests int            `json:"expected_guests"`
	EventStartDate time.Time      `gorm:"not null;index" json:"event_start_date"`
	EventEndDate   time.Time      `gorm:"not null" json:"event_end_date"`

	BasePrice       decimal.Decimal  `gorm:"type:numeric(10,2);not null" json:"base_price"`
	DiscountPercent decimal.Decimal  `gorm:"type:numeric(5,2);not null" json:"discount_percent"`
	DiscountAmount  decimal.Decimal  `gorm:"type:numeric(10,2);not null" json:"discount_amount"`
	TaxRate         *decimal.Decimal `gorm:"type:numeric(5,2)" json:"tax_rate"`
	TaxAmount       decimal.Decimal  `gorm:"type:numeric(10,2);not null" json:"tax_amount"`
	TotalAmount     decimal.Decimal  `gorm:"type:numeric(10,2);not null" json:"total_amount"`
	DepositAmount   decimal.Decimal  `gorm:"type:numeric(10,2);not null" json:"deposit_amount"`
	DepositPaid     bool             `gorm:"not null;default:false" json:"deposit_paid"`
	DepositPaidAt   *time.Time       `json:"deposit_paid_at,omitempty"`
	PaymentMethod   string           `gorm:"type:varchar(30)" json:"payment_method,omitempty"`
	PaymentStatus   PaymentStatus    `gorm:"type:varchar(20);not null;default:'pending'" json:"payment_status"`
	AmountPaid      decimal.Decimal  `gorm:"type:numeric(10,2);not null" json:"amount_paid"`

	ValidUntil         *time.Time `json:"valid_until,omitempty"`
	SentAt             *time.Time `json:"sent_at,omitempty"`
	SignedAt           *time.Time `json:"signed_at,omitempty"`
	SpecialRequests    string     `gorm:"type:text" json:"special_requests,omitempty"`
	TermsAndConditions string     `gorm:"type:text" json:"terms_and_conditions,omitempty"`
	InternalNotes      string     `gorm:"type:text" json:"internal_notes,omitempty"`

	SignedDocumentName string `json:"signed_document_name,omitempty"`
	SignedDocumentType string `json:"signed_document_type,omitempty"`
	SignedDocument     []byte `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Venue     *Venue `gorm:"foreignKey:VenueID" json:"venue,omitempty"`
	Client    *User  `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	CreatedBy *User  `gorm:"foreignKey:CreatedByID" json:"-"`
}

// BeforeSave keeps tax and total derived from the pricing inputs.
func (c *VenueContract) BeforeSave(tx *gorm.DB) error {
	c.ApplyPricing()
	return nil
}

// ApplyPricing rounds the pricing inputs to the scale of their columns and
// recomputes tax and total from the rounded values.
func (c *VenueContract) ApplyPricing() {
	c.BasePrice = pricing.Round(c.BasePrice)
	c.DiscountPercent = pricing.Round(c.DiscountPercent)
	c.DiscountAmount = pricing.Round(c.DiscountAmount)
	c.DepositAmount = pricing.Round(c.DepositAmount)
	if c.TaxRate != nil {
		rate := pricing.Round(*c.TaxRate)
		c.TaxRate = &rate
	}

	b := pricing.Compute(pricing.Inputs{
		BasePrice:       c.BasePrice,
		DiscountPercent: c.DiscountPercent,
		DiscountAmount:  c.DiscountAmount,
		TaxRate:         c.TaxRate,
	})
	rate := b.TaxRate
	c.TaxRate = &rate
	c.TaxAmount = b.TaxAmount
	c.TotalAmount = b.TotalAmount
}

func (c *VenueContract) Period() Period {
	return NewPeriod(c.EventStartDate, c.EventEndDate)
}

func (c *VenueContract) RemainingAmount() decimal.Decimal {
	return pricing.Remaining(c.TotalAmount, c.AmountPaid)
}

func (c *VenueContract) FullyPaid() bool {
	return pricing.FullyPaid(c.TotalAmount, c.AmountPaid)
}

func (c *VenueContract) CanConvertToDevis() bool    { return c.Status == ContractDraft }
func (c *VenueContract) CanConvertToContract() bool { return c.Status == ContractDevis }
func (c *VenueContract) CanSign() bool              { return c.Status == ContractContract }
func (c *VenueContract) CanCancel() bool            { return !c.Status.Terminal() }
func (c *VenueContract) Editable() bool             { return !c.Status.Terminal() }

func (c *VenueContract) HasSignedDocument() bool {
	return len(c.SignedDocument) > 0
}

// DerivePaymentStatus maps the amount paid onto pending/partial/paid.
func (c *VenueContract) DerivePaymentStatus() PaymentStatus {
	switch {
	case !c.AmountPaid.IsPositive():
		return PaymentPending
	case c.FullyPaid():
		return PaymentPaid
	default:
		return PaymentPartial
	}
}
