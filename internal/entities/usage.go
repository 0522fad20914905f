package entities

// UsageEntry is one day's counter for one usage type of one user.
// Rows are increment-only: the count for a (user, type, date) key never
// decreases within the period.
type UsageEntry struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	UserID   string `gorm:"size:64;uniqueIndex:idx_usage_user_type_date" json:"user_id"`
	Type     string `gorm:"size:64;uniqueIndex:idx_usage_user_type_date" json:"usage_type"`
	Date     string `gorm:"size:10;uniqueIndex:idx_usage_user_type_date" json:"date"` // YYYY-MM-DD
	Count    int64  `json:"count"`
	Metadata string `gorm:"type:text" json:"metadata,omitempty"`

	UpdatedAt int64 `json:"updated_at"`
}

func (UsageEntry) TableName() string {
	return "usage_entries"
}
