package repository

import (
	"context"
	"strings"
	"time"

	"github.com/medaminemghirbi/SallaPro/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ContractFilter struct {
	VenueID  uint
	ClientID uint
	Status   models.ContractStatus
	Search   string
	From     *time.Time
	To       *time.Time
}

type ContractRepository interface {
	Create(ctx context.Context, tx *gorm.DB, contract *models.VenueContract) error
	Save(ctx context.Context, tx *gorm.DB, contract *models.VenueContract) error
	FindByID(ctx context.Context, companyID, id uint) (*models.VenueContract, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, companyID, id uint) (*models.VenueContract, error)
	LoadParties(ctx context.Context, tx *gorm.DB, contract *models.VenueContract) error
	List(ctx context.Context, companyID uint, filter ContractFilter) ([]models.VenueContract, error)
	Stats(ctx context.Context, companyID uint, now time.Time) (*models.ContractStats, error)
	GetDB() *gorm.DB
}

type contractRepository struct {
	db *gorm.DB
}

func NewContractRepository(db *gorm.DB) ContractRepository {
	return &contractRepository{db: db}
}

func (r *contractRepository) GetDB() *gorm.DB {
	return r.db
}

func (r *contractRepository) Create(ctx context.Context, tx *gorm.DB, contract *models.VenueContract) error {
	return tx.WithContext(ctx).Omit(clause.Associations).Create(contract).Error
}

func (r *contractRepository) Save(ctx context.Context, tx *gorm.DB, contract *models.VenueContract) error {
	return tx.WithContext(ctx).Omit(clause.Associations).Save(contract).Error
}

func (r *contractRepository) FindByID(ctx context.Context, companyID, id uint) (*models.VenueContract, error) {
	var contract models.VenueContract
	err := r.db.WithContext(ctx).
		Preload("Venue").
		Preload("Client").
		Where("company_id = ?", companyID).
		First(&contract, id).Error
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

// FindByIDForUpdate locks the contract row for the rest of tx.
func (r *contractRepository) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, companyID, id uint) (*models.VenueContract, error) {
	var contract models.VenueContract
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("company_id = ?", companyID).
		First(&contract, id).Error
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

// LoadParties fills the venue and client of a contract read inside tx.
func (r *contractRepository) LoadParties(ctx context.Context, tx *gorm.DB, contract *models.VenueContract) error {
	var venue models.Venue
	if err := tx.WithContext(ctx).First(&venue, contract.VenueID).Error; err != nil {
		return err
	}
	var client models.User
	if err := tx.WithContext(ctx).First(&client, contract.ClientID).Error; err != nil {
		return err
	}
	contract.Venue = &venue
	contract.Client = &client
	return nil
}

func (r *contractRepository) List(ctx context.Context, companyID uint, filter ContractFilter) ([]models.VenueContract, error) {
	var contracts []models.VenueContract
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
	if term := strings.TrimSpace(filter.Search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		q = q.Where("LOWER(contract_number) LIKE ? OR LOWER(title) LIKE ?", like, like)
	}
	if filter.From != nil {
		q = q.Where("event_start_date >= ?", filter.From.UTC())
	}
	if filter.To != nil {
		q = q.Where("event_start_date <= ?", filter.To.UTC())
	}

	if err := q.Order("created_at DESC, id DESC").Find(&contracts).Error; err != nil {
		return nil, err
	}
	return contracts, nil
}

func (r *contractRepository) Stats(ctx context.Context, companyID uint, now time.Time) (*models.ContractStats, error) {
	var rows []models.VenueContract
	err := r.db.WithContext(ctx).
		Select("id", "status", "total_amount", "amount_paid", "event_start_date", "created_at").
		Where("company_id = ?", companyID).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	now = now.UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	stats := &models.ContractStats{
		ByStatus:      make(map[models.ContractStatus]int64),
		ActiveAmount:  decimal.Zero,
		TotalPaid:     decimal.Zero,
		PendingAmount: decimal.Zero,
	}
	for _, s := range models.ContractStatusLabels {
		stats.ByStatus[models.ContractStatus(s.Value)] = 0
	}

	for i := range rows {
		c := &rows[i]
		stats.Total++
		stats.ByStatus[c.Status]++
		if !c.CreatedAt.Before(monthStart) {
			stats.CreatedThisMonth++
		}
		if c.Status == models.ContractCancelled {
			continue
		}
		stats.ActiveAmount = stats.ActiveAmount.Add(c.TotalAmount)
		stats.TotalPaid = stats.TotalPaid.Add(c.AmountPaid)
		if !c.EventStartDate.Before(now) {
			stats.UpcomingEvents++
		}
	}
	stats.PendingAmount = stats.ActiveAmount.Sub(stats.TotalPaid)
	return stats, nil
}
