package leavetype

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LeaveType defines a company-scoped category of leave and the policy the
// request workflow enforces for it.
type LeaveType struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primaryKey"`
	CompanyID          uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:uq_leave_type_code"`
	Code               string          `gorm:"size:32;not null;uniqueIndex:uq_leave_type_code"`
	Name               string          `gorm:"size:100;not null"`
	Description        string          `gorm:"size:255"`
	DefaultAnnualQuota decimal.Decimal `gorm:"type:numeric(6,2);not null;default:0"`
	// MaxConsecutiveDays of zero means no limit.
	MaxConsecutiveDays decimal.Decimal `gorm:"type:numeric(6,2);not null;default:0"`
	IsCarryForward     bool            `gorm:"not null;default:false"`
	RequiresApproval   bool            `gorm:"not null;default:true"`
	IsActive           bool            `gorm:"not null;default:true"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
	DeletedAt          gorm.DeletedAt `gorm:"index"`
}

func (LeaveType) TableName() string {
	return "leave_types"
}

// Policy is the read-only slice of a leave type that the request workflow
// consults. Quota edits never rewrite balances that already exist.
type Policy struct {
	LeaveTypeID        uuid.UUID
	Code               string
	DefaultAnnualQuota decimal.Decimal
	MaxConsecutiveDays decimal.Decimal
	IsCarryForward     bool
	RequiresApproval   bool
}

func (t LeaveType) Policy() Policy {
	return Policy{
		LeaveTypeID:        t.ID,
		Code:               t.Code,
		DefaultAnnualQuota: t.DefaultAnnualQuota,
		MaxConsecutiveDays: t.MaxConsecutiveDays,
		IsCarryForward:     t.IsCarryForward,
		RequiresApproval:   t.RequiresApproval,
	}
}
