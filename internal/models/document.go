package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	DocumentTypeContract  = "contract"
	DocumentTypeOther     = "other"
	DocumentCategoryVenue = "venue_contracts"
)

// CompanyDocument is an entry of the company document library.
type CompanyDocument struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	CompanyID    uint              `gorm:"not null;index" json:"company_id"`
	UploadedByID uint              `gorm:"not null;index" json:"uploaded_by_id"`
	Name         string            `gorm:"not null" json:"name"`
	Description  string            `gorm:"type:text" json:"description,omitempty"`
	DocumentType string            `gorm:"type:varchar(30);not null;default:'other';index" json:"document_type"`
	Category     string            `gorm:"type:varchar(50);index" json:"category,omitempty"`
	StorageKey   string            `gorm:"type:varchar(64);not null;uniqueIndex" json:"storage_key"`
	FileName     string            `json:"file_name,omitempty"`
	FileType     string            `json:"file_type,omitempty"`
	FileSize     int64             `json:"file_size"`
	Content      []byte            `json:"-"`
	Metadata     datatypes.JSONMap `json:"metadata,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// NumberSequence backs the monthly CTR/RES numbering. Prefix includes the
// period, e.g. "CTR-202506-".
type NumberSequence struct {
	Prefix    string    `gorm:"primaryKey;type:varchar(32)"`
	LastValue int       `gorm:"not null"`
	UpdatedAt time.Time
}
