package leaverequest

type CreateLeaveRequest struct {
	EmployeeID  string `json:"employee_id" binding:"required,uuid"`
	LeaveTypeID string `json:"leave_type_id" binding:"required,uuid"`
	StartDate   string `json:"start_date" binding:"required"`
	EndDate     string `json:"end_date" binding:"required"`
	IsHalfDay   bool   `json:"is_half_day"`
	Reason      string `json:"reason" binding:"required,max=500"`
}

type DecideLeaveRequest struct {
	Decision        string  `json:"decision" binding:"required,oneof=APPROVED REJECTED"`
	RejectionReason *string `json:"rejection_reason"`
}

type UpdateLeaveRequest struct {
	StartDate string `json:"start_date" binding:"required"`
	EndDate   string `json:"end_date" binding:"required"`
	IsHalfDay bool   `json:"is_half_day"`
	Reason    string `json:"reason" binding:"required,max=500"`
}

type LeaveRequestResponse struct {
	ID              string  `json:"id"`
	CompanyID       string  `json:"company_id"`
	EmployeeID      string  `json:"employee_id"`
	LeaveTypeID     string  `json:"leave_type_id"`
	StartDate       string  `json:"start_date"`
	EndDate         string  `json:"end_date"`
	Duration        string  `json:"duration"`
	IsHalfDay       bool    `json:"is_half_day"`
	Status          string  `json:"status"`
	Reason          string  `json:"reason"`
	CreatedBy       string  `json:"created_by"`
	ApprovedBy      *string `json:"approved_by,omitempty"`
	ApprovedAt      *string `json:"approved_at,omitempty"`
	RejectionReason *string `json:"rejection_reason,omitempty"`
	AppliedAt       string  `json:"applied_at"`
}
