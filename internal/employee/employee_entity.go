package employee

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Employee struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey"`
	CompanyID      uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:uq_employee_number"`
	DepartmentID   *uuid.UUID `gorm:"type:uuid"`
	EmployeeNumber string     `gorm:"type:varchar(20);not null;uniqueIndex:uq_employee_number"`
	FullName       string     `gorm:"type:varchar(255);not null"`
	Email          string     `gorm:"type:varchar(255);uniqueIndex:uq_employee_email"`
	HireDate       time.Time  `gorm:"type:date"`
	IsActive       bool       `gorm:"default:true"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      gorm.DeletedAt `gorm:"index"`
}

func (Employee) TableName() string {
	return "employees"
}
