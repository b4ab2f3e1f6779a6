package leavebalance

type BalanceResponse struct {
	ID             string `json:"id,omitempty"`
	EmployeeID     string `json:"employee_id"`
	LeaveTypeID    string `json:"leave_type_id"`
	LeaveTypeCode  string `json:"leave_type_code"`
	Year           int    `json:"year"`
	Allocated      string `json:"allocated"`
	CarriedForward string `json:"carried_forward"`
	Used           string `json:"used"`
	Pending        string `json:"pending"`
	Available      string `json:"available"`
}

type AdjustBalanceRequest struct {
	EmployeeID     string  `json:"employee_id" binding:"required,uuid"`
	LeaveTypeID    string  `json:"leave_type_id" binding:"required,uuid"`
	Year           int     `json:"year" binding:"required"`
	Allocated      *string `json:"allocated"`
	CarriedForward *string `json:"carried_forward"`
}

type CarryForwardRequest struct {
	EmployeeID  string `json:"employee_id" binding:"required,uuid"`
	LeaveTypeID string `json:"leave_type_id" binding:"required,uuid"`
	FromYear    int    `json:"from_year" binding:"required"`
}
