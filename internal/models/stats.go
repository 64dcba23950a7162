package models

import "github.com/shopspring/decimal"

type ContractStats struct {
	Total            int64                    `json:"total"`
	ByStatus         map[ContractStatus]int64 `json:"by_status"`
	ActiveAmount     decimal.Decimal          `json:"total_amount"`
	TotalPaid        decimal.Decimal          `json:"total_paid"`
	PendingAmount    decimal.Decimal          `json:"pending_amount"`
	CreatedThisMonth int64                    `json:"this_month"`
	UpcomingEvents   int64                    `json:"upcoming_events"`
}

type ReservationStats struct {
	Total            int64                       `json:"total"`
	ByStatus         map[ReservationStatus]int64 `json:"by_status"`
	Upcoming         int64                       `json:"upcoming"`
	Current          int64                       `json:"current"`
	Revenue          decimal.Decimal             `json:"total_revenue"`
	Collected        decimal.Decimal             `json:"total_collected"`
	CreatedThisMonth int64                       `json:"this_month"`
}
