package repository

import (
	"context"

	"github.com/medaminemghirbi/SallaPro/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type VenueRepository interface {
	FindByID(ctx context.Context, companyID, id uint) (*models.Venue, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, companyID, id uint) (*models.Venue, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, id uint, status models.VenueStatus) error
	Upsert(ctx context.Context, venue *models.Venue) error
}

type venueRepository struct {
	db *gorm.DB
}

func NewVenueRepository(db *gorm.DB) VenueRepository {
	return &venueRepository{db: db}
}

func (r *venueRepository) FindByID(ctx context.Context, companyID, id uint) (*models.Venue, error) {
	var venue models.Venue
	if err := r.db.WithContext(ctx).Where("company_id = ?", companyID).First(&venue, id).Error; err != nil {
		return nil, err
	}
	return &venue, nil
}

// FindByIDForUpdate acquires a row-level lock on the venue within the given
// transaction. Every reservation write for the venue goes through this lock.
func (r *venueRepository) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, companyID, id uint) (*models.Venue, error) {
	var venue models.Venue
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("company_id = ?", companyID).
		First(&venue, id).Error
	if err != nil {
		return nil, err
	}
	return &venue, nil
}

func (r *venueRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, id uint, status models.VenueStatus) error {
	return tx.WithContext(ctx).
		Model(&models.Venue{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// Upsert stores catalogue data for a venue. The status column is owned by the
// reservation ledger and is only written on insert.
func (r *venueRepository) Upsert(ctx context.Context, venue *models.Venue) error {
	if venue.Status == "" {
		venue.Status = models.VenueAvailable
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"company_id", "name", "venue_type", "capacity_min", "capacity_max", "location", "updated_at"}),
		}).
		Create(venue).Error
}
