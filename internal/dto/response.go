package dto

import (
	"time"

	"github.com/medaminemghirbi/SallaPro/internal/models"
	"github.com/medaminemghirbi/SallaPro/internal/service"
	"github.com/shopspring/decimal"
)

type UserResponse struct {
	ID        uint        `json:"id"`
	CompanyID uint        `json:"company_id"`
	Email     string      `json:"email"`
	FullName  string      `json:"full_name"`
	Role      models.Role `json:"role"`
}

type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

type ContractResponse struct {
	ID                 uint                  `json:"id"`
	CompanyID          uint                  `json:"company_id"`
	ContractNumber     string                `json:"contract_number"`
	Title              string                `json:"title"`
	Description        string                `json:"description,omitempty"`
	Status             models.ContractStatus `json:"status"`
	EventType          string                `json:"event_type,omitempty"`
	ExpectedGuests     int                   `json:"expected_guests"`
	EventStartDate     time.Time             `json:"event_start_date"`
	EventEndDate       time.Time             `json:"event_end_date"`
	VenueID            uint                  `json:"venue_id"`
	VenueName          string                `json:"venue_name,omitempty"`
	ClientID           uint                  `json:"client_id"`
	ClientName         string                `json:"client_name,omitempty"`
	BasePrice          decimal.Decimal       `json:"base_price"`
	DiscountPercent    decimal.Decimal       `json:"discount_percent"`
	DiscountAmount     decimal.Decimal       `json:"discount_amount"`
	TaxRate            *decimal.Decimal      `json:"tax_rate"`
	TaxAmount          decimal.Decimal       `json:"tax_amount"`
	TotalAmount        decimal.Decimal       `json:"total_amount"`
	DepositAmount      decimal.Decimal       `json:"deposit_amount"`
	DepositPaid        bool                  `json:"deposit_paid"`
	AmountPaid         decimal.Decimal       `json:"amount_paid"`
	RemainingAmount    decimal.Decimal       `json:"remaining_amount"`
	PaymentStatus      models.PaymentStatus  `json:"payment_status"`
	PaymentMethod      string                `json:"payment_method,omitempty"`
	ValidUntil         *time.Time            `json:"valid_until,omitempty"`
	SentAt             *time.Time            `json:"sent_at,omitempty"`
	SignedAt           *time.Time            `json:"signed_at,omitempty"`
	SpecialRequests    string                `json:"special_requests,omitempty"`
	TermsAndConditions string                `json:"terms_and_conditions,omitempty"`
	InternalNotes      string                `json:"internal_notes,omitempty"`
	SignedDocumentName string                `json:"signed_document_name,omitempty"`
	CreatedAt          time.Time             `json:"created_at"`
	UpdatedAt          time.Time             `json:"updated_at"`
}

type ReservationResponse struct {
	ID                uint                     `json:"id"`
	ReservationNumber string                   `json:"reservation_number"`
	Status            models.ReservationStatus `json:"status"`
	VenueID           uint                     `json:"venue_id"`
	VenueName         string                   `json:"venue_name,omitempty"`
	VenueContractID   uint                     `json:"venue_contract_id"`
	ClientID          uint                     `json:"client_id"`
	ClientName        string                   `json:"client_name,omitempty"`
	EventType         string                   `json:"event_type,omitempty"`
	ExpectedGuests    int                      `json:"expected_guests"`
	StartDate         time.Time                `json:"start_date"`
	EndDate           time.Time                `json:"end_date"`
	TotalAmount       decimal.Decimal          `json:"total_amount"`
	DepositAmount     decimal.Decimal          `json:"deposit_amount"`
	AmountPaid        decimal.Decimal          `json:"amount_paid"`
	RemainingAmount   decimal.Decimal          `json:"remaining_amount"`
	PaymentStatus     models.PaymentStatus     `json:"payment_status"`
	Notes             string                   `json:"notes,omitempty"`
	Metadata          map[string]any           `json:"metadata,omitempty"`
	CreatedAt         time.Time                `json:"created_at"`
}

type SignResponse struct {
	Contract    ContractResponse    `json:"contract"`
	Reservation ReservationResponse `json:"reservation"`
}

type ConflictResponse struct {
	ID                uint      `json:"id"`
	ReservationNumber string    `json:"reservation_number"`
	StartDate         time.Time `json:"start_date"`
	EndDate           time.Time `json:"end_date"`
	ClientName        string    `json:"client_name"`
}

type AvailabilityResponse struct {
	VenueID   uint               `json:"venue_id"`
	StartDate time.Time          `json:"start_date"`
	EndDate   time.Time          `json:"end_date"`
	Available bool               `json:"available"`
	Conflicts []ConflictResponse `json:"conflicts"`
}

// OverlapResponse is the 409 body returned when a window is already taken.
type OverlapResponse struct {
	Message   string             `json:"message"`
	Conflicts []ConflictResponse `json:"conflicts"`
}

type CalendarEvent struct {
	ID         uint                     `json:"id"`
	Title      string                   `json:"title"`
	Start      time.Time                `json:"start"`
	End        time.Time                `json:"end"`
	Color      string                   `json:"color"`
	Status     models.ReservationStatus `json:"status"`
	VenueID    uint                     `json:"venue_id"`
	VenueName  string                   `json:"venue_name,omitempty"`
	ClientName string                   `json:"client_name,omitempty"`
}

type ErrorResponse struct {
	Message string `json:"message"`
}

func ToUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		CompanyID: u.CompanyID,
		Email:     u.Email,
		FullName:  u.FullName(),
		Role:      u.Role,
	}
}

func ToContractResponse(c *models.VenueContract) ContractResponse {
	resp := ContractResponse{
		ID:                 c.ID,
		CompanyID:          c.CompanyID,
		ContractNumber:     c.ContractNumber,
		Title:              c.Title,
		Description:        c.Description,
		Status:             c.Status,
		EventType:          c.EventType,
		ExpectedGuests:     c.ExpectedGuests,
		EventStartDate:     c.EventStartDate,
		EventEndDate:       c.EventEndDate,
		VenueID:            c.VenueID,
		ClientID:           c.ClientID,
		BasePrice:          c.BasePrice,
		DiscountPercent:    c.DiscountPercent,
		DiscountAmount:     c.DiscountAmount,
		TaxRate:            c.TaxRate,
		TaxAmount:          c.TaxAmount,
		TotalAmount:        c.TotalAmount,
		DepositAmount:      c.DepositAmount,
		DepositPaid:        c.DepositPaid,
		AmountPaid:         c.AmountPaid,
		RemainingAmount:    c.RemainingAmount(),
		PaymentStatus:      c.PaymentStatus,
		PaymentMethod:      c.PaymentMethod,
		ValidUntil:         c.ValidUntil,
		SentAt:             c.SentAt,
		SignedAt:           c.SignedAt,
		SpecialRequests:    c.SpecialRequests,
		TermsAndConditions: c.TermsAndConditions,
		InternalNotes:      c.InternalNotes,
		SignedDocumentName: c.SignedDocumentName,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}
	if c.Venue != nil {
		resp.VenueName = c.Venue.Name
	}
	if c.Client != nil {
		resp.ClientName = c.Client.FullName()
	}
	return resp
}

func ToReservationResponse(r *models.VenueReservation) ReservationResponse {
	resp := ReservationResponse{
		ID:                r.ID,
		ReservationNumber: r.ReservationNumber,
		Status:            r.Status,
		VenueID:           r.VenueID,
		VenueContractID:   r.VenueContractID,
		ClientID:          r.ClientID,
		EventType:         r.EventType,
		ExpectedGuests:    r.ExpectedGuests,
		StartDate:         r.StartDate,
		EndDate:           r.EndDate,
		TotalAmount:       r.TotalAmount,
		DepositAmount:     r.DepositAmount,
		AmountPaid:        r.AmountPaid,
		RemainingAmount:   r.RemainingAmount(),
		PaymentStatus:     r.PaymentStatus,
		Notes:             r.Notes,
		Metadata:          r.Metadata,
		CreatedAt:         r.CreatedAt,
	}
	if r.Venue != nil {
		resp.VenueName = r.Venue.Name
	}
	if r.Client != nil {
		resp.ClientName = r.Client.FullName()
	}
	return resp
}

func ToConflicts(rs []models.VenueReservation) []ConflictResponse {
	out := make([]ConflictResponse, len(rs))
	for i := range rs {
		out[i] = ConflictResponse{
			ID:                rs[i].ID,
			ReservationNumber: rs[i].ReservationNumber,
			StartDate:         rs[i].StartDate,
			EndDate:           rs[i].EndDate,
			ClientName:        rs[i].Client.FullName(),
		}
	}
	return out
}

func ToAvailabilityResponse(a *service.Availability) AvailabilityResponse {
	return AvailabilityResponse{
		VenueID:   a.VenueID,
		StartDate: a.Period.Start,
		EndDate:   a.Period.End,
		Available: a.Available,
		Conflicts: ToConflicts(a.Conflicts),
	}
}

func ToCalendarEvent(r *models.VenueReservation) CalendarEvent {
	ev := CalendarEvent{
		ID:         r.ID,
		Title:      r.ReservationNumber,
		Start:      r.StartDate,
		End:        r.EndDate,
		Color:      r.Status.Colour(),
		Status:     r.Status,
		VenueID:    r.VenueID,
		ClientName: r.Client.FullName(),
	}
	if r.Venue != nil {
		ev.VenueName = r.Venue.Name
		ev.Title = r.Venue.Name + " - " + r.Client.FullName()
	}
	return ev
}
