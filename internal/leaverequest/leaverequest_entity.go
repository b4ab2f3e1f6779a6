package leaverequest

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	StatusPending   = "PENDING"
	StatusApproved  = "APPROVED"
	StatusRejected  = "REJECTED"
	StatusCancelled = "CANCELLED"
)

// LeaveRequest moves through PENDING -> APPROVED|REJECTED|CANCELLED, with
// APPROVED -> CANCELLED as the only transition out of a decided state.
// REJECTED and CANCELLED are terminal.
type LeaveRequest struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	CompanyID   uuid.UUID `gorm:"type:uuid;not null;index"`
	EmployeeID  uuid.UUID `gorm:"type:uuid;not null;index"`
	LeaveTypeID uuid.UUID `gorm:"type:uuid;not null"`
	StartDate   time.Time `gorm:"type:date;not null"`
	EndDate     time.Time `gorm:"type:date;not null"`
	// Duration is in days; a half-day request is 0.5.
	Duration        decimal.Decimal `gorm:"type:numeric(6,2);not null"`
	IsHalfDay       bool            `gorm:"not null;default:false"`
	Status          string          `gorm:"type:varchar(20);not null;default:PENDING;index"`
	Reason          string          `gorm:"type:text;not null"`
	CreatedBy       uuid.UUID       `gorm:"type:uuid;not null"`
	ApprovedBy      *uuid.UUID      `gorm:"type:uuid"`
	ApprovedAt      *time.Time
	RejectionReason *string   `gorm:"type:text"`
	AppliedAt       time.Time `gorm:"not null"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (LeaveRequest) TableName() string {
	return "leave_requests"
}

// BalanceYear is the ledger year this request draws from.
func (l *LeaveRequest) BalanceYear() int {
	return l.StartDate.Year()
}
