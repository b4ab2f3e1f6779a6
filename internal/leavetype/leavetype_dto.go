package leavetype

type CreateLeaveTypeRequest struct {
	Code               string  `json:"code" binding:"required,max=32"`
	Name               string  `json:"name" binding:"required,max=100"`
	Description        string  `json:"description" binding:"max=255"`
	DefaultAnnualQuota string  `json:"default_annual_quota" binding:"required"`
	MaxConsecutiveDays *string `json:"max_consecutive_days"`
	IsCarryForward     bool    `json:"is_carry_forward"`
	RequiresApproval   *bool   `json:"requires_approval"`
}

type UpdateLeaveTypeRequest struct {
	Name               string  `json:"name" binding:"required,max=100"`
	Description        string  `json:"description" binding:"max=255"`
	DefaultAnnualQuota string  `json:"default_annual_quota" binding:"required"`
	MaxConsecutiveDays *string `json:"max_consecutive_days"`
	IsCarryForward     bool    `json:"is_carry_forward"`
	RequiresApproval   *bool   `json:"requires_approval"`
	IsActive           *bool   `json:"is_active"`
}

type LeaveTypeResponse struct {
	ID                 string `json:"id"`
	CompanyID          string `json:"company_id"`
	Code               string `json:"code"`
	Name               string `json:"name"`
	Description        string `json:"description"`
	DefaultAnnualQuota string `json:"default_annual_quota"`
	MaxConsecutiveDays string `json:"max_consecutive_days"`
	IsCarryForward     bool   `json:"is_carry_forward"`
	RequiresApproval   bool   `json:"requires_approval"`
	IsActive           bool   `json:"is_active"`
}
