package attendance

type ClockInRequest struct {
	Source string  `json:"source" binding:"max=30"`
	Notes  *string `json:"notes"`
}

type ClockOutRequest struct {
	Notes *string `json:"notes"`
}

type AttendanceResponse struct {
	ID             string  `json:"id"`
	CompanyID      string  `json:"company_id"`
	EmployeeID     string  `json:"employee_id"`
	AttendanceDate string  `json:"attendance_date"`
	ClockIn        *string `json:"clock_in"`
	ClockOut       *string `json:"clock_out"`
	Status         string  `json:"status"`
	IsLeave        bool    `json:"is_leave"`
	LeaveRequestID *string `json:"leave_request_id,omitempty"`
	Source         string  `json:"source"`
	Notes          *string `json:"notes,omitempty"`
}

type SummaryResponse struct {
	EmployeeID string         `json:"employee_id"`
	Year       int            `json:"year"`
	Month      int            `json:"month"`
	Counts     map[string]int `json:"counts"`
}
