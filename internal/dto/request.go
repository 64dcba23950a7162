package dto

import (
	"time"

	"github.com/medaminemghirbi/SallaPro/internal/service"
	"github.com/shopspring/decimal"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ContractRequest is shared by create and update; omitted fields stay unset.
type ContractRequest struct {
	VenueID            *uint            `json:"venue_id"`
	ClientID           *uint            `json:"client_id"`
	Title              *string          `json:"title"`
	Description        *string          `json:"description"`
	EventType          *string          `json:"event_type"`
	ExpectedGuests     *int             `json:"expected_guests"`
	EventStartDate     *time.Time       `json:"event_start_date"`
	EventEndDate       *time.Time       `json:"event_end_date"`
	BasePrice          *decimal.Decimal `json:"base_price"`
	DiscountPercent    *decimal.Decimal `json:"discount_percent"`
	DiscountAmount     *decimal.Decimal `json:"discount_amount"`
	TaxRate            *decimal.Decimal `json:"tax_rate"`
	DepositAmount      *decimal.Decimal `json:"deposit_amount"`
	PaymentMethod      *string          `json:"payment_method"`
	ValidUntil         *time.Time       `json:"valid_until"`
	SpecialRequests    *string          `json:"special_requests"`
	TermsAndConditions *string          `json:"terms_and_conditions"`
	InternalNotes      *string          `json:"internal_notes"`
}

func (r ContractRequest) ToInput() service.ContractInput {
	return service.ContractInput{
		VenueID:            r.VenueID,
		ClientID:           r.ClientID,
		Title:              r.Title,
		Description:        r.Description,
		EventType:          r.EventType,
		ExpectedGuests:     r.ExpectedGuests,
		EventStartDate:     r.EventStartDate,
		EventEndDate:       r.EventEndDate,
		BasePrice:          r.BasePrice,
		DiscountPercent:    r.DiscountPercent,
		DiscountAmount:     r.DiscountAmount,
		TaxRate:            r.TaxRate,
		DepositAmount:      r.DepositAmount,
		PaymentMethod:      r.PaymentMethod,
		ValidUntil:         r.ValidUntil,
		SpecialRequests:    r.SpecialRequests,
		TermsAndConditions: r.TermsAndConditions,
		InternalNotes:      r.InternalNotes,
	}
}

type PaymentRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method"`
}
