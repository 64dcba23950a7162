package repository

import (
	"context"
	"time"

	"github.com/medaminemghirbi/SallaPro/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	PeriodUpcoming = "upcoming"
	PeriodCurrent  = "current"
	PeriodPast     = "past"
)

type ReservationFilter struct {
	VenueID  uint
	ClientID uint
	Status   models.ReservationStatus
	Period   string
	Now      time.Time
}

type ReservationRepository interface {
	Create(ctx context.Context, tx *gorm.DB, reservation *models.VenueReservation) error
	FindByID(ctx context.Context, companyID, id uint) (*models.VenueReservation, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, companyID, id uint) (*models.VenueReservation, error)
	UpdatePayment(ctx context.Context, tx *gorm.DB, contractID uint, amountPaid decimal.Decimal, status models.PaymentStatus) error
	FindOverlapping(ctx context.Context, tx *gorm.DB, venueID uint, period models.Period) ([]models.VenueReservation, error)
	ExistsCovering(ctx context.Context, tx *gorm.DB, venueID uint, at time.Time) (bool, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, id uint, status models.ReservationStatus) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
	List(ctx context.Context, companyID uint, filter ReservationFilter) ([]models.VenueReservation, error)
	Calendar(ctx context.Context, companyID uint, window models.Period) ([]models.VenueReservation, error)
	Stats(ctx context.Context, companyID uint, now time.Time) (*models.ReservationStats, error)
	GetDB() *gorm.DB
}

type reservationRepository struct {
	db *gorm.DB
}

func NewReservationRepository(db *gorm.DB) ReservationRepository {
	return &reservationRepository{db: db}
}

func (r *reservationRepository) GetDB() *gorm.DB {
	return r.db
}

func (r *reservationRepository) Create(ctx context.Context, tx *gorm.DB, reservation *models.VenueReservation) error {
	return tx.WithContext(ctx).Omit(clause.Associations).Create(reservation).Error
}

func (r *reservationRepository) FindByID(ctx context.Context, companyID, id uint) (*models.VenueReservation, error) {
	var reservation models.VenueReservation
	err := r.db.WithContext(ctx).
		Preload("Venue").
		Preload("Client").
		Where("company_id = ?", companyID).
		First(&reservation, id).Error
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

func (r *reservationRepository) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, companyID, id uint) (*models.VenueReservation, error) {
	var reservation models.VenueReservation
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("company_id = ?", companyID).
		First(&reservation, id).Error
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

// UpdatePayment copies the collected amount of a contract onto its reservation.
func (r *reservationRepository) UpdatePayment(ctx context.Context, tx *gorm.DB, contractID uint, amountPaid decimal.Decimal, status models.PaymentStatus) error {
	return tx.WithContext(ctx).
		Model(&models.VenueReservation{}).
		Where("venue_contract_id = ?", contractID).
		Updates(map[string]any{
			"amount_paid":    amountPaid,
			"payment_status": status,
		}).Error
}

// FindOverlapping returns the active reservations of the venue whose
// half-open window intersects period. Touching windows do not overlap.
func (r *reservationRepository) FindOverlapping(ctx context.Context, tx *gorm.DB, venueID uint, period models.Period) ([]models.VenueReservation, error) {
	var reservations []models.VenueReservation
	err := tx.WithContext(ctx).
		Preload("Client").
		Where("venue_id = ? AND status <> ?", venueID, models.ReservationCancelled).
		Where("start_date < ? AND end_date > ?", period.End.UTC(), period.Start.UTC()).
		Order("start_date ASC, id ASC").
		Find(&reservations).Error
	if err != nil {
		return nil, err
	}
	return reservations, nil
}

func (r *reservationRepository) ExistsCovering(ctx context.Context, tx *gorm.DB, venueID uint, at time.Time) (bool, error) {
	var count int64
	err := tx.WithContext(ctx).
		Model(&models.VenueReservation{}).
		Where("venue_id = ? AND status IN ?", venueID, []models.ReservationStatus{models.ReservationConfirmed, models.ReservationInProgress}).
		Where("start_date <= ? AND end_date > ?", at.UTC(), at.UTC()).
		Count(&count).Error
	return count > 0, err
}

func (r *reservationRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, id uint, status models.ReservationStatus) error {
	return tx.WithContext(ctx).
		Model(&models.VenueReservation{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *reservationRepository) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	return tx.WithContext(ctx).Delete(&models.VenueReservation{}, id).Error
}

func (r *reservationRepository) List(ctx context.Context, companyID uint, filter ReservationFilter) ([]models.VenueReservation, error) {
	var reservations []models.VenueReservation
	q := r.db.WithContext(ctx).
		Preload("Venue").
		Preload("Client").
		Where("company_id = ?", companyID)

	if filter.VenueID != 0 {
		q = q.Where("venue_id = ?", filter.VenueID)
	}
	if filter.ClientID != 0 {
		q = q.Where("client_id = ?", filter.ClientID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	now := filter.Now.UTC()
	switch filter.Period {
	case PeriodUpcoming:
		q = q.Where("start_date >= ?", now)
	case PeriodCurrent:
		q = q.Where("start_date <= ? AND end_date > ?", now, now)
	case PeriodPast:
		q = q.Where("end_date <= ?", now)
	}

	if err := q.Order("start_date DESC, id DESC").Find(&reservations).Error; err != nil {
		return nil, err
	}
	return reservations, nil
}

// Calendar returns active reservations intersecting window, earliest first.
func (r *reservationRepository) Calendar(ctx context.Context, companyID uint, window models.Period) ([]models.VenueReservation, error) {
	var reservations []models.VenueReservation
	err := r.db.WithContext(ctx).
		Preload("Venue").
		Preload("Client").
		Where("company_id = ? AND status <> ?", companyID, models.ReservationCancelled).
		Where("start_date < ? AND end_date > ?", window.End.UTC(), window.Start.UTC()).
		Order("start_date ASC, id ASC").
		Find(&reservations).Error
	if err != nil {
		return nil, err
	}
	return reservations, nil
}

func (r *reservationRepository) Stats(ctx context.Context, companyID uint, now time.Time) (*models.ReservationStats, error) {
	var rows []models.VenueReservation
	err := r.db.WithContext(ctx).
		Select("id", "status", "start_date", "end_date", "total_amount", "amount_paid", "created_at").
		Where("company_id = ?", companyID).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	now = now.UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	stats := &models.ReservationStats{
		ByStatus:  map[models.ReservationStatus]int64{},
		Revenue:   decimal.Zero,
		Collected: decimal.Zero,
	}
	for _, s := range []models.ReservationStatus{models.ReservationConfirmed, models.ReservationInProgress, models.ReservationCompleted, models.ReservationCancelled} {
		stats.ByStatus[s] = 0
	}

	for i := range rows {
		res := &rows[i]
		stats.Total++
		stats.ByStatus[res.Status]++
		if !res.CreatedAt.Before(monthStart) {
			stats.CreatedThisMonth++
		}
		if !res.Active() {
			continue
		}
		if !res.StartDate.Before(now) {
			stats.Upcoming++
		}
		if res.Period().Covers(now) {
			stats.Current++
		}
		stats.Revenue = stats.Revenue.Add(res.TotalAmount)
		stats.Collected = stats.Collected.Add(res.AmountPaid)
	}
	return stats, nil
}
