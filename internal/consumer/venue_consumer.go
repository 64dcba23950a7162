package consumer

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"github.com/medaminemghirbi/SallaPro/internal/models"
	"github.com/medaminemghirbi/SallaPro/internal/repository"
	amqp "github.com/rabbitmq/amqp091-go"
)

// VenueMessage is the catalogue payload carried by venue.* messages. It has
// no status field: venue status is driven by reservations only.
type VenueMessage struct {
	ID          uint   `json:"id"`
	CompanyID   uint   `json:"company_id"`
	Name        string `json:"name"`
	VenueType   string `json:"venue_type"`
	CapacityMin int    `json:"capacity_min"`
	CapacityMax int    `json:"capacity_max"`
	Location    string `json:"location"`
}

type VenueConsumer struct {
	venues repository.VenueRepository
}

func NewVenueConsumer(venues repository.VenueRepository) *VenueConsumer {
	return &VenueConsumer{venues: venues}
}

// Start listens for messages and upserts venues into the local catalogue copy.
func (vc *VenueConsumer) Start(ctx context.Context, msgs <-chan amqp.Delivery) {
	go func() {
		for msg := range msgs {
			vc.handleMessage(ctx, msg)
		}
		log.Println("[VenueConsumer] channel closed, stopping consumer")
	}()
}

func (vc *VenueConsumer) handleMessage(ctx context.Context, msg amqp.Delivery) {
	var m VenueMessage
	if err := json.Unmarshal(msg.Body, &m); err != nil {
		log.Printf("[VenueConsumer] failed to unmarshal: %v", err)
		msg.Nack(false, false)
		return
	}
	if m.ID == 0 || m.CompanyID == 0 || strings.TrimSpace(m.Name) == "" {
		log.Printf("[VenueConsumer] dropping incomplete venue message (%s)", msg.RoutingKey)
		msg.Nack(false, false)
		return
	}

	venue := &models.Venue{
		ID:          m.ID,
		CompanyID:   m.CompanyID,
		Name:        m.Name,
		VenueType:   m.VenueType,
		CapacityMin: m.CapacityMin,
		CapacityMax: m.CapacityMax,
		Location:    m.Location,
	}
	if err := vc.venues.Upsert(ctx, venue); err != nil {
		log.Printf("[VenueConsumer] failed to upsert venue %d: %v", m.ID, err)
		msg.Nack(false, true) // requeue
		return
	}

	log.Printf("[VenueConsumer] synced venue %d: %s", m.ID, m.Name)
	msg.Ack(false)
}
