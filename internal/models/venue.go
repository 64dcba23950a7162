package models

import "time"

type Company struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type VenueStatus string

const (
	VenueAvailable   VenueStatus = "available"
	VenueUnavailable VenueStatus = "unavailable"
	VenueMaintenance VenueStatus = "maintenance"
	VenueReserved    VenueStatus = "reserved"
)

func (s VenueStatus) Valid() bool {
	switch s {
	case VenueAvailable, VenueUnavailable, VenueMaintenance, VenueReserved:
		return true
	}
	return false
}

// Venue is owned by the venue catalogue; this service only keeps a synced
// copy and drives its Status.
type Venue struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	CompanyID   uint        `gorm:"not null;index" json:"company_id"`
	Name        string      `gorm:"not null;index" json:"name"`
	VenueType   string      `gorm:"type:varchar(30);not null;default:'salle'" json:"venue_type"`
	CapacityMin int         `gorm:"not null;default:0" json:"capacity_min"`
	CapacityMax int         `gorm:"not null;default:0" json:"capacity_max"`
	Location    string      `json:"location,omitempty"`
	Status      VenueStatus `gorm:"type:varchar(20);not null;default:'available';index" json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}
