// Package usagestore persists per-user usage counters. Counters are
// increment-only per (user, type, day); reads roll days up into daily or
// monthly totals. The client never read-modify-writes these counters;
// all mutation happens here, through atomic upserts.
package usagestore

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/foliolib/folio/internal/entities"
)

// Period selects the rollup window for usage reads.
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodMonthly Period = "monthly"
)

// Repository handles usage counter increments and rollup reads.
type Repository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// Increment atomically adds increment to today's counter for (userID,
// usageType) and returns the new daily total.
func (r *Repository) Increment(userID, usageType string, increment int64, metadata string) (int64, error) {
	today := r.now().UTC().Format("2006-01-02")

	entry := entities.UsageEntry{
		UserID:    userID,
		Type:      usageType,
		Date:      today,
		Count:     increment,
		Metadata:  metadata,
		UpdatedAt: r.now().UnixMilli(),
	}
	err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "type"}, {Name: "date"}},
		DoUpdates: clause.Assignments(map[string]any{
			"count":      gorm.Expr("count + ?", increment),
			"updated_at": entry.UpdatedAt,
		}),
	}).Create(&entry).Error
	if err != nil {
		return 0, fmt.Errorf("increment usage %s/%s: %w", userID, usageType, err)
	}

	var current entities.UsageEntry
	err = r.db.Where("user_id = ? AND type = ? AND date = ?", userID, usageType, today).
		First(&current).Error
	if err != nil {
		return 0, fmt.Errorf("read usage %s/%s: %w", userID, usageType, err)
	}
	return current.Count, nil
}

// CurrentUsage returns the counter total for the running day or month.
func (r *Repository) CurrentUsage(userID, usageType string, period Period) (int64, error) {
	var from string
	switch period {
	case PeriodMonthly:
		from = r.now().UTC().Format("2006-01") + "-01"
	default:
		from = r.now().UTC().Format("2006-01-02")
	}

	var total int64
	err := r.db.Model(&entities.UsageEntry{}).
		Where("user_id = ? AND type = ? AND date >= ?", userID, usageType, from).
		Select("COALESCE(SUM(count), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("sum usage %s/%s: %w", userID, usageType, err)
	}
	return total, nil
}
