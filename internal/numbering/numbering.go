package numbering

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Series describes one numbered column: PREFIX-YYYYMM-NNNN.
type Series struct {
	Prefix string
	Table  string
	Column string
}

var (
	Contracts    = Series{Prefix: "CTR", Table: "venue_contracts", Column: "contract_number"}
	Reservations = Series{Prefix: "RES", Table: "venue_reservations", Column: "reservation_number"}
)

// PeriodPrefix returns the prefix shared by every number of the month of at.
func (s Series) PeriodPrefix(at time.Time) string {
	return fmt.Sprintf("%s-%s-", s.Prefix, at.UTC().Format("200601"))
}

func (s Series) Format(at time.Time, seq int) string {
	return fmt.Sprintf("%s%04d", s.PeriodPrefix(at), seq)
}

// Parse splits a number into its period prefix and sequence. ok is false when
// the number does not belong to the series.
func (s Series) Parse(number string) (prefix string, seq int, ok bool) {
	parts := strings.Split(number, "-")
	if len(parts) != 3 || parts[0] != s.Prefix || len(parts[1]) != 6 || len(parts[2]) < 4 {
		return "", 0, false
	}
	if _, err := time.Parse("200601", parts[1]); err != nil {
		return "", 0, false
	}
	n, err := strconv.Atoi(parts[2])
	if err != nil || n < 1 {
		return "", 0, false
	}
	return parts[0] + "-" + parts[1] + "-", n, true
}

type Counter interface {
	// Next reserves the next number of the series for the month of at. It runs
	// on tx so a rollback of the caller releases the number.
	Next(ctx context.Context, tx *gorm.DB, series Series, at time.Time) (string, error)
}

type sequenceCounter struct{}

func NewCounter() Counter {
	return &sequenceCounter{}
}

const upsertSequence = `INSERT INTO number_sequences (prefix, last_value, updated_at) VALUES (?, ?, ?)
ON CONFLICT (prefix) DO UPDATE SET
	last_value = CASE WHEN number_sequences.last_value >= excluded.last_value
		THEN number_sequences.last_value + 1
		ELSE excluded.last_value END,
	updated_at = excluded.updated_at
RETURNING last_value`

func (c *sequenceCounter) Next(ctx context.Context, tx *gorm.DB, series Series, at time.Time) (string, error) {
	prefix := series.PeriodPrefix(at)

	// 1. Seed from the highest number already stored for this month
	seed, err := c.highestStored(ctx, tx, series, prefix)
	if err != nil {
		return "", err
	}

	// 2. Advance the counter in a single statement
	var value int
	if err := tx.WithContext(ctx).Raw(upsertSequence, prefix, seed+1, time.Now().UTC()).Scan(&value).Error; err != nil {
		return "", fmt.Errorf("advance %s sequence: %w", prefix, err)
	}
	if value < 1 {
		return "", fmt.Errorf("advance %s sequence: no value returned", prefix)
	}

	return series.Format(at, value), nil
}

func (c *sequenceCounter) highestStored(ctx context.Context, tx *gorm.DB, series Series, prefix string) (int, error) {
	var numbers []string
	err := tx.WithContext(ctx).
		Table(series.Table).
		Where(series.Column+" LIKE ?", prefix+"%").
		Order("LENGTH(" + series.Column + ") DESC, " + series.Column + " DESC").
		Limit(1).
		Pluck(series.Column, &numbers).Error
	if err != nil {
		return 0, fmt.Errorf("scan %s numbers: %w", series.Table, err)
	}
	if len(numbers) == 0 {
		return 0, nil
	}
	_, n, ok := series.Parse(numbers[0])
	if !ok {
		return 0, nil
	}
	return n, nil
}
