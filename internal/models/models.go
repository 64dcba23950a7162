package models

// All lists every table owned by this service, in migration order.
func All() []any {
	return []any{
		&Company{},
		&User{},
		&Venue{},
		&VenueContract{},
		&VenueReservation{},
		&CompanyDocument{},
		&NumberSequence{},
	}
}
