package leavebalance

import (
	"time"

	leavebalanceerrors "go-attend/internal/leavebalance/errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LeaveBalance is one employee's ledger row for a leave type in a calendar
// year. Counters only move through the service's compare-and-swap cycle; the
// Version column is the swap guard.
type LeaveBalance struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	CompanyID      uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:uq_leave_balance"`
	EmployeeID     uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:uq_leave_balance"`
	LeaveTypeID    uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:uq_leave_balance"`
	Year           int             `gorm:"not null;uniqueIndex:uq_leave_balance"`
	Allocated      decimal.Decimal `gorm:"type:numeric(6,2);not null;default:0"`
	CarriedForward decimal.Decimal `gorm:"type:numeric(6,2);not null;default:0"`
	Used           decimal.Decimal `gorm:"type:numeric(6,2);not null;default:0"`
	Pending        decimal.Decimal `gorm:"type:numeric(6,2);not null;default:0"`
	Version        int64           `gorm:"not null;default:1"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (LeaveBalance) TableName() string {
	return "leave_balances"
}

// Entitlement is the total the employee may consume this year.
func (b *LeaveBalance) Entitlement() decimal.Decimal {
	return b.Allocated.Add(b.CarriedForward)
}

// Available is what a new request may still reserve.
func (b *LeaveBalance) Available() decimal.Decimal {
	return b.Entitlement().Sub(b.Used).Sub(b.Pending)
}

// checkInvariants guards every counter write. A violation here means a bug
// upstream, not bad user input.
func (b *LeaveBalance) checkInvariants() error {
	entitlement := b.Entitlement()
	if b.Used.IsNegative() || b.Used.GreaterThan(entitlement) {
		return leavebalanceerrors.ErrInvalidAdjustment
	}
	if b.Pending.IsNegative() || b.Pending.GreaterThan(entitlement.Sub(b.Used)) {
		return leavebalanceerrors.ErrInvalidAdjustment
	}
	return nil
}
