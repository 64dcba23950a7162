package models

import (
	"time"

	"github.com/medaminemghirbi/SallaPro/internal/pricing"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type ReservationStatus string

const (
	ReservationConfirmed  ReservationStatus = "confirmed"
	ReservationInProgress ReservationStatus = "in_progress"
	ReservationCompleted  ReservationStatus = "completed"
	ReservationCancelled  ReservationStatus = "cancelled"
)

func (s ReservationStatus) Valid() bool {
	switch s {
	case ReservationConfirmed, ReservationInProgress, ReservationCompleted, ReservationCancelled:
		return true
	}
	return false
}

// Colour used by the calendar view.
func (s ReservationStatus) Colour() string {
	switch s {
	case ReservationConfirmed:
		return "#22c55e"
	case ReservationInProgress:
		return "#3b82f6"
	case ReservationCompleted:
		return "#6b7280"
	case ReservationCancelled:
		return "#ef4444"
	default:
		return "#8b5cf6"
	}
}

type VenueReservation struct {
	ID                uint              `gorm:"primaryKey" json:"id"`
	CompanyID         uint              `gorm:"not null;index" json:"company_id"`
	VenueID           uint              `gorm:"not null;index" json:"venue_id"`
	VenueContractID   uint              `gorm:"not null;uniqueIndex" json:"venue_contract_id"`
	ClientID          uint              `gorm:"not null;index" json:"client_id"`
	ReservationNumber string            `gorm:"type:varchar(32);not null;uniqueIndex" json:"reservation_number"`
	Status            ReservationStatus `gorm:"type:varchar(20);not null;default:'confirmed';index" json:"status"`
	EventType         string            `gorm:"type:varchar(20)" json:"event_type,omitempty"`
	ExpectedGuests    int               `json:"expected_guests"`
	StartDate         time.Time         `gorm:"not null;index" json:"start_date"`
	EndDate           time.Time         `gorm:"not null;index;check:chk_reservation_period,end_date > start_date" json:"end_date"`
	TotalAmount       decimal.Decimal   `gorm:"type:numeric(10,2);not null" json:"total_amount"`
	DepositAmount     decimal.Decimal   `gorm:"type:numeric(10,2);not null" json:"deposit_amount"`
	AmountPaid        decimal.Decimal   `gorm:"type:numeric(10,2);not null" json:"amount_paid"`
	PaymentStatus     PaymentStatus     `gorm:"type:varchar(20);not null;default:'pending'" json:"payment_status"`
	Notes             string            `gorm:"type:text" json:"notes,omitempty"`
	Metadata          datatypes.JSONMap `json:"metadata,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`

	Venue  *Venue `gorm:"foreignKey:VenueID" json:"venue,omitempty"`
	Client *User  `gorm:"foreignKey:ClientID" json:"client,omitempty"`
}

func (r *VenueReservation) Period() Period {
	return NewPeriod(r.StartDate, r.EndDate)
}

// Active reservations are every reservation that has not been cancelled.
func (r *VenueReservation) Active() bool {
	return r.Status != ReservationCancelled
}

func (r *VenueReservation) Closed() bool {
	return r.Status == ReservationCancelled || r.Status == ReservationCompleted
}

func (r *VenueReservation) RemainingAmount() decimal.Decimal {
	return pricing.Remaining(r.TotalAmount, r.AmountPaid)
}

// NewReservationFromContract snapshots the contract's window and money; later
// contract edits do not flow into the reservation.
func NewReservationFromContract(c *VenueContract) *VenueReservation {
	return &VenueReservation{
		CompanyID:       c.CompanyID,
		VenueID:         c.VenueID,
		VenueContractID: c.ID,
		ClientID:        c.ClientID,
		Status:          ReservationConfirmed,
		EventType:       c.EventType,
		ExpectedGuests:  c.ExpectedGuests,
		StartDate:       c.EventStartDate.UTC(),
		EndDate:         c.EventEndDate.UTC(),
		TotalAmount:     c.TotalAmount,
		DepositAmount:   c.DepositAmount,
		AmountPaid:      c.AmountPaid,
		PaymentStatus:   c.PaymentStatus,
		Metadata: datatypes.JSONMap{
			"contract_number": c.ContractNumber,
		},
	}
}
