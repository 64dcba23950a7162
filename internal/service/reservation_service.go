package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/medaminemghirbi/SallaPro/internal/models"
	"github.com/medaminemghirbi/SallaPro/internal/numbering"
	"github.com/medaminemghirbi/SallaPro/internal/repository"
	"gorm.io/gorm"
)

// maxNumberAttempts bounds the retries after a number collided with a row
// committed by a concurrent transaction.
const maxNumberAttempts = 3

// Publisher emits domain events once the change is committed.
type Publisher interface {
	Publish(routingKey string, payload any) error
}

type Availability struct {
	VenueID   uint
	Period    models.Period
	Available bool
	Conflicts []models.VenueReservation
}

type ReservationService interface {
	// CreateFromContract books the venue for a signed contract. It runs on the
	// caller's transaction and leaves commit or rollback to the caller.
	CreateFromContract(ctx context.Context, tx *gorm.DB, contract *models.VenueContract) (*models.VenueReservation, error)
	// SyncPayment mirrors a contract payment onto its reservation, inside tx.
	SyncPayment(ctx context.Context, tx *gorm.DB, contract *models.VenueContract) error
	CheckAvailability(ctx context.Context, companyID, venueID uint, period models.Period) (*Availability, error)
	Start(ctx context.Context, companyID, id uint) (*models.VenueReservation, error)
	Cancel(ctx context.Context, companyID, id uint) (*models.VenueReservation, error)
	Complete(ctx context.Context, companyID, id uint) (*models.VenueReservation, error)
	Delete(ctx context.Context, companyID, id uint) error
	Get(ctx context.Context, companyID, id uint) (*models.VenueReservation, error)
	List(ctx context.Context, companyID uint, filter repository.ReservationFilter) ([]models.VenueReservation, error)
	Calendar(ctx context.Context, companyID uint, window models.Period) ([]models.VenueReservation, error)
	Stats(ctx context.Context, companyID uint) (*models.ReservationStats, error)
}

type reservationService struct {
	reservationRepo repository.ReservationRepository
	venueRepo       repository.VenueRepository
	counter         numbering.Counter
	publisher       Publisher
	now             func() time.Time
}

func NewReservationService(reservationRepo repository.ReservationRepository, venueRepo repository.VenueRepository, counter numbering.Counter, publisher Publisher) ReservationService {
	return &reservationService{
		reservationRepo: reservationRepo,
		venueRepo:       venueRepo,
		counter:         counter,
		publisher:       publisher,
		now:             time.Now,
	}
}

func (s *reservationService) CreateFromContract(ctx context.Context, tx *gorm.DB, contract *models.VenueContract) (*models.VenueReservation, error) {
	period := contract.Period()
	if err := period.Validate(); err != nil {
		return nil, invalid("event_end_date", "must be after event_start_date")
	}
	now := s.now().UTC()

	// 1. Lock the venue row, serializing reservation writes per venue
	venue, err := s.venueRepo.FindByIDForUpdate(ctx, tx, contract.CompanyID, contract.VenueID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, &NotFoundError{Entity: "venue", ID: contract.VenueID}
		}
		return nil, err
	}

	// 2. Reject any active reservation intersecting the window
	conflicts, err := s.reservationRepo.FindOverlapping(ctx, tx, venue.ID, period)
	if err != nil {
		return nil, err
	}
	if len(conflicts) > 0 {
		return nil, &OverlapError{VenueID: venue.ID, Conflicts: conflicts}
	}

	// 3. Number and insert under a savepoint so a number collision can retry
	var reservation *models.VenueReservation
	for attempt := 1; ; attempt++ {
		candidate := models.NewReservationFromContract(contract)
		err := tx.Transaction(func(sp *gorm.DB) error {
			number, err := s.counter.Next(ctx, sp, numbering.Reservations, now)
			if err != nil {
				return err
			}
			candidate.ReservationNumber = number
			return s.reservationRepo.Create(ctx, sp, candidate)
		})
		if err == nil {
			reservation = candidate
			break
		}

		switch {
		case repository.IsExclusionViolation(err):
			return nil, &OverlapError{VenueID: venue.ID}
		case repository.IsUniqueViolation(err, "venue_contract_id"):
			return nil, fmt.Errorf("contract %d already has a reservation: %w", contract.ID, ErrConcurrencyConflict)
		case repository.IsUniqueViolation(err, "reservation_number"):
			if attempt < maxNumberAttempts {
				log.Printf("[ReservationLedger] number collision on attempt %d, retrying", attempt)
				continue
			}
			return nil, fmt.Errorf("allocate reservation number: %w", ErrConcurrencyConflict)
		default:
			return nil, err
		}
	}

	// 4. A reservation running right now occupies the venue
	if err := s.occupyVenue(ctx, tx, venue, reservation, now); err != nil {
		return nil, err
	}

	return reservation, nil
}

func (s *reservationService) SyncPayment(ctx context.Context, tx *gorm.DB, contract *models.VenueContract) error {
	return s.reservationRepo.UpdatePayment(ctx, tx, contract.ID, contract.AmountPaid, contract.PaymentStatus)
}

func (s *reservationService) CheckAvailability(ctx context.Context, companyID, venueID uint, period models.Period) (*Availability, error) {
	if err := period.Validate(); err != nil {
		return nil, invalid("end_date", "must be after start_date")
	}
	if _, err := s.venueRepo.FindByID(ctx, companyID, venueID); err != nil {
		if repository.IsNotFound(err) {
			return nil, &NotFoundError{Entity: "venue", ID: venueID}
		}
		return nil, err
	}

	conflicts, err := s.reservationRepo.FindOverlapping(ctx, s.reservationRepo.GetDB(), venueID, period)
	if err != nil {
		return nil, err
	}

	return &Availability{
		VenueID:   venueID,
		Period:    period,
		Available: len(conflicts) == 0,
		Conflicts: conflicts,
	}, nil
}

func (s *reservationService) Start(ctx context.Context, companyID, id uint) (*models.VenueReservation, error) {
	return s.transition(ctx, companyID, id, models.ReservationInProgress, "reservation.started",
		func(r *models.VenueReservation) bool { return r.Status == models.ReservationConfirmed })
}

func (s *reservationService) Cancel(ctx context.Context, companyID, id uint) (*models.VenueReservation, error) {
	return s.transition(ctx, companyID, id, models.ReservationCancelled, "reservation.cancelled", openReservation)
}

func (s *reservationService) Complete(ctx context.Context, companyID, id uint) (*models.VenueReservation, error) {
	return s.transition(ctx, companyID, id, models.ReservationCompleted, "reservation.completed", openReservation)
}

func openReservation(r *models.VenueReservation) bool {
	return r.Status == models.ReservationConfirmed || r.Status == models.ReservationInProgress
}

func (s *reservationService) transition(ctx context.Context, companyID, id uint, to models.ReservationStatus, routingKey string, allowed func(*models.VenueReservation) bool) (*models.VenueReservation, error) {
	var result *models.VenueReservation
	now := s.now().UTC()

	err := s.reservationRepo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. Lock the reservation
		reservation, err := s.reservationRepo.FindByIDForUpdate(ctx, tx, companyID, id)
		if err != nil {
			if repository.IsNotFound(err) {
				return &NotFoundError{Entity: "reservation", ID: id}
			}
			return err
		}

		// 2. Check the move is allowed from the current status
		if !allowed(reservation) {
			return &TransitionError{Entity: "reservation", From: string(reservation.Status), To: string(to)}
		}

		// 3. Lock the venue before touching its status
		venue, err := s.venueRepo.FindByIDForUpdate(ctx, tx, companyID, reservation.VenueID)
		if err != nil {
			return err
		}

		if err := s.reservationRepo.UpdateStatus(ctx, tx, reservation.ID, to); err != nil {
			return err
		}
		reservation.Status = to

		// 4. Re-evaluate the venue status
		if reservation.Active() && !reservation.Closed() {
			err = s.occupyVenue(ctx, tx, venue, reservation, now)
		} else {
			err = s.releaseVenue(ctx, tx, venue, now)
		}
		if err != nil {
			return err
		}

		result = reservation
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(routingKey, result)
	return result, nil
}

func (s *reservationService) Delete(ctx context.Context, companyID, id uint) error {
	var deleted *models.VenueReservation
	now := s.now().UTC()

	err := s.reservationRepo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reservation, err := s.reservationRepo.FindByIDForUpdate(ctx, tx, companyID, id)
		if err != nil {
			if repository.IsNotFound(err) {
				return &NotFoundError{Entity: "reservation", ID: id}
			}
			return err
		}

		venue, err := s.venueRepo.FindByIDForUpdate(ctx, tx, companyID, reservation.VenueID)
		if err != nil {
			return err
		}

		if err := s.reservationRepo.Delete(ctx, tx, reservation.ID); err != nil {
			return err
		}
		deleted = reservation

		return s.releaseVenue(ctx, tx, venue, now)
	})
	if err != nil {
		return err
	}

	s.publish("reservation.deleted", deleted)
	return nil
}

func (s *reservationService) Get(ctx context.Context, companyID, id uint) (*models.VenueReservation, error) {
	reservation, err := s.reservationRepo.FindByID(ctx, companyID, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, &NotFoundError{Entity: "reservation", ID: id}
		}
		return nil, err
	}
	return reservation, nil
}

func (s *reservationService) List(ctx context.Context, companyID uint, filter repository.ReservationFilter) ([]models.VenueReservation, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, invalid("status", "is not a reservation status")
	}
	switch filter.Period {
	case "", repository.PeriodUpcoming, repository.PeriodCurrent, repository.PeriodPast:
	default:
		return nil, invalid("period", "must be upcoming, current or past")
	}
	if filter.Now.IsZero() {
		filter.Now = s.now()
	}
	return s.reservationRepo.List(ctx, companyID, filter)
}

func (s *reservationService) Calendar(ctx context.Context, companyID uint, window models.Period) ([]models.VenueReservation, error) {
	if err := window.Validate(); err != nil {
		return nil, invalid("end", "must be after start")
	}
	return s.reservationRepo.Calendar(ctx, companyID, window)
}

func (s *reservationService) Stats(ctx context.Context, companyID uint) (*models.ReservationStats, error) {
	return s.reservationRepo.Stats(ctx, companyID, s.now())
}

// occupyVenue marks an available venue as reserved while the reservation
// covers now. Venues under maintenance or unavailable keep their status.
func (s *reservationService) occupyVenue(ctx context.Context, tx *gorm.DB, venue *models.Venue, reservation *models.VenueReservation, now time.Time) error {
	if venue.Status != models.VenueAvailable || !reservation.Period().Covers(now) {
		return nil
	}
	if err := s.venueRepo.UpdateStatus(ctx, tx, venue.ID, models.VenueReserved); err != nil {
		return err
	}
	venue.Status = models.VenueReserved
	return nil
}

// releaseVenue frees a reserved venue once no open reservation covers now.
func (s *reservationService) releaseVenue(ctx context.Context, tx *gorm.DB, venue *models.Venue, now time.Time) error {
	if venue.Status != models.VenueReserved {
		return nil
	}
	busy, err := s.reservationRepo.ExistsCovering(ctx, tx, venue.ID, now)
	if err != nil || busy {
		return err
	}
	if err := s.venueRepo.UpdateStatus(ctx, tx, venue.ID, models.VenueAvailable); err != nil {
		return err
	}
	venue.Status = models.VenueAvailable
	return nil
}

func (s *reservationService) publish(routingKey string, payload any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(routingKey, payload); err != nil {
		log.Printf("[ReservationLedger] publish %s failed: %v", routingKey, err)
	}
}
