package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/medaminemghirbi/SallaPro/internal/models"
	"github.com/medaminemghirbi/SallaPro/internal/numbering"
	"github.com/medaminemghirbi/SallaPro/internal/repository"
	"github.com/medaminemghirbi/SallaPro/pkg/database"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var fixedNow = time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

type published struct {
	key     string
	payload any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recordingPublisher) Publish(routingKey string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{key: routingKey, payload: payload})
	return nil
}

func (p *recordingPublisher) keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	keys := make([]string, 0, len(p.events))
	for _, e := range p.events {
		keys = append(keys, e.key)
	}
	return keys
}

type fixture struct {
	db        *gorm.DB
	contracts ContractService
	ledger    ReservationService
	events    *recordingPublisher

	company models.Company
	other   models.Company
	venue   models.Venue
	venue2  models.Venue
	client  models.User
	manager models.User
}

func setup(t *testing.T) *fixture {
	t.Helper()

	db, err := database.NewSQLiteDB("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	db.Logger = logger.Default.LogMode(logger.Silent)
	db.NowFunc = func() time.Time { return fixedNow }
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	return newFixture(t, db)
}

// newFixture seeds two companies, two venues, a client and a manager into a
// migrated database and wires the services with a fixed clock.
func newFixture(t *testing.T, db *gorm.DB) *fixture {
	t.Helper()

	f := &fixture{db: db, events: &recordingPublisher{}}

	f.company = models.Company{Name: "Salla Events"}
	f.other = models.Company{Name: "Other Co"}
	require.NoError(t, db.Create(&f.company).Error)
	require.NoError(t, db.Create(&f.other).Error)

	f.venue = models.Venue{CompanyID: f.company.ID, Name: "Salle des Roses", CapacityMax: 300, Status: models.VenueAvailable}
	f.venue2 = models.Venue{CompanyID: f.company.ID, Name: "Jardin", CapacityMax: 120, Status: models.VenueAvailable}
	require.NoError(t, db.Create(&f.venue).Error)
	require.NoError(t, db.Create(&f.venue2).Error)

	f.client = models.User{CompanyID: f.company.ID, Email: "client@salla.tn", Firstname: "Amira", Lastname: "Ben Salah", Role: models.RoleClient, PasswordHash: "x"}
	f.manager = models.User{CompanyID: f.company.ID, Email: "manager@salla.tn", Firstname: "Karim", Lastname: "Trabelsi", Role: models.RoleManager, PasswordHash: "x"}
	require.NoError(t, db.Create(&f.client).Error)
	require.NoError(t, db.Create(&f.manager).Error)

	counter := numbering.NewCounter()
	contractRepo := repository.NewContractRepository(db)
	reservationRepo := repository.NewReservationRepository(db)
	venueRepo := repository.NewVenueRepository(db)
	userRepo := repository.NewUserRepository(db)
	documentRepo := repository.NewDocumentRepository(db)

	ledger := NewReservationService(reservationRepo, venueRepo, counter, f.events)
	ledger.(*reservationService).now = func() time.Time { return fixedNow }
	contracts := NewContractService(contractRepo, venueRepo, userRepo, documentRepo, ledger, counter, f.events)
	contracts.(*contractService).now = func() time.Time { return fixedNow }

	f.ledger = ledger
	f.contracts = contracts
	return f
}

func ptr[T any](v T) *T { return &v }

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func (f *fixture) input(venueID uint, start, end time.Time) ContractInput {
	return ContractInput{
		VenueID:         ptr(venueID),
		ClientID:        ptr(f.client.ID),
		Title:           ptr("Mariage Ben Salah"),
		EventType:       ptr("wedding"),
		ExpectedGuests:  ptr(150),
		EventStartDate:  ptr(start),
		EventEndDate:    ptr(end),
		BasePrice:       dec("1000"),
		DiscountPercent: dec("10"),
		DepositAmount:   dec("300"),
	}
}

func (f *fixture) draft(t *testing.T, venueID uint, start, end time.Time) *models.VenueContract {
	t.Helper()
	c, err := f.contracts.CreateDraft(context.Background(), f.company.ID, f.manager.ID, f.input(venueID, start, end))
	require.NoError(t, err)
	return c
}

// ready returns a contract in the contract status, ready to be signed.
func (f *fixture) ready(t *testing.T, venueID uint, start, end time.Time) *models.VenueContract {
	t.Helper()
	ctx := context.Background()
	c := f.draft(t, venueID, start, end)
	_, err := f.contracts.ConvertToDevis(ctx, f.company.ID, c.ID)
	require.NoError(t, err)
	c, err = f.contracts.ConvertToContract(ctx, f.company.ID, c.ID)
	require.NoError(t, err)
	return c
}

func (f *fixture) countReservations(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&models.VenueReservation{}).Count(&n).Error)
	return n
}

func (f *fixture) venueStatus(t *testing.T, id uint) models.VenueStatus {
	t.Helper()
	var v models.Venue
	require.NoError(t, f.db.First(&v, id).Error)
	return v.Status
}

func day(d, hour int) time.Time {
	return time.Date(2025, 7, d, hour, 0, 0, 0, time.UTC)
}
