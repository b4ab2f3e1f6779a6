package counter

import "time"

// CompanyCounter backs the atomic per-company sequence upsert.
type CompanyCounter struct {
	CompanyID   string    `gorm:"type:uuid;primaryKey"`
	CounterType string    `gorm:"size:50;primaryKey"`
	LastValue   int64     `gorm:"not null;default:0"`
	UpdatedAt   time.Time `gorm:"not null"`
}

func (CompanyCounter) TableName() string {
	return "company_counters"
}
