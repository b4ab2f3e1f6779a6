package attendance

import (
	"context"
	"database/sql"
	"errors"
	"time"

	attendanceerrors "go-attend/internal/attendance/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// lateCutoff marks clock-ins after 09:15 UTC as LATE.
var lateCutoff = struct{ hour, minute int }{9, 15}

//go:generate mockgen -source=attendance_service.go -destination=mock/attendance_service_mock.go -package=mock
type Service interface {
	ClockIn(ctx context.Context, companyID, employeeID string, req ClockInRequest) (AttendanceResponse, error)
	ClockOut(ctx context.Context, companyID, employeeID string, req ClockOutRequest) (AttendanceResponse, error)
	GetAll(ctx context.Context, companyID, actorID string, canReadAll bool) ([]AttendanceResponse, error)
	GetSummary(ctx context.Context, companyID, employeeID string, year, month int) (SummaryResponse, error)

	// ApplyLeave and RevertLeave project approved leave requests onto the
	// attendance calendar. Both are idempotent.
	ApplyLeave(ctx context.Context, companyID, employeeID string, leaveRequestID uuid.UUID, startDate, endDate time.Time) error
	RevertLeave(ctx context.Context, companyID, employeeID string, leaveRequestID uuid.UUID) error
}

type service struct {
	db     *sql.DB
	repo   Repository
	logger *zap.Logger
}

func NewService(db *sql.DB, repo Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("attendance.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("attendance.service")
	}
	return &service{db: db, repo: repo, logger: l}
}

func (s *service) ClockIn(ctx context.Context, companyID, employeeID string, req ClockInRequest) (AttendanceResponse, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return AttendanceResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	now := time.Now().UTC()
	today := now.Truncate(24 * time.Hour)

	existing, err := qtx.FindByEmployeeAndDate(ctx, companyID, employeeID, today)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return AttendanceResponse{}, err
	}
	if existing != nil {
		if existing.IsLeave {
			return AttendanceResponse{}, attendanceerrors.ErrOnLeaveToday
		}
		return AttendanceResponse{}, attendanceerrors.ErrAlreadyClockedIn
	}

	status := StatusPresent
	if now.Hour() > lateCutoff.hour || (now.Hour() == lateCutoff.hour && now.Minute() > lateCutoff.minute) {
		status = StatusLate
	}

	source := req.Source
	if source == "" {
		source = "MANUAL"
	}

	row := &Attendance{
		ID:             uuid.New(),
		CompanyID:      uuid.MustParse(companyID),
		EmployeeID:     uuid.MustParse(employeeID),
		AttendanceDate: today,
		ClockIn:        &now,
		Status:         status,
		Source:         source,
		Notes:          req.Notes,
	}

	if err := qtx.Create(ctx, row); err != nil {
		return AttendanceResponse{}, err
	}
	if err := tx.Commit(); err != nil {
		return AttendanceResponse{}, err
	}
	return mapToResponse(*row), nil
}

func (s *service) ClockOut(ctx context.Context, companyID, employeeID string, req ClockOutRequest) (AttendanceResponse, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return AttendanceResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	now := time.Now().UTC()
	today := now.Truncate(24 * time.Hour)

	row, err := qtx.FindByEmployeeAndDate(ctx, companyID, employeeID, today)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return AttendanceResponse{}, attendanceerrors.ErrNoClockInToday
		}
		return AttendanceResponse{}, err
	}
	if row.ClockIn == nil {
		return AttendanceResponse{}, attendanceerrors.ErrNoClockInToday
	}
	if row.ClockOut != nil {
		return AttendanceResponse{}, attendanceerrors.ErrAlreadyClockedOut
	}

	row.ClockOut = &now
	if req.Notes != nil {
		row.Notes = req.Notes
	}

	if err := qtx.Update(ctx, row); err != nil {
		return AttendanceResponse{}, err
	}
	if err := tx.Commit(); err != nil {
		return AttendanceResponse{}, err
	}
	return mapToResponse(*row), nil
}

func (s *service) GetAll(ctx context.Context, companyID, actorID string, canReadAll bool) ([]AttendanceResponse, error) {
	var (
		rows []Attendance
		err  error
	)
	if canReadAll {
		rows, err = s.repo.FindAllByCompany(ctx, companyID)
	} else {
		if _, parseErr := uuid.Parse(actorID); parseErr != nil {
			return nil, attendanceerrors.ErrInvalidActorID
		}
		rows, err = s.repo.FindAllByCompanyAndEmployee(ctx, companyID, actorID)
	}
	if err != nil {
		return nil, err
	}
	res := make([]AttendanceResponse, len(rows))
	for i, r := range rows {
		res[i] = mapToResponse(r)
	}
	return res, nil
}

func (s *service) GetSummary(ctx context.Context, companyID, employeeID string, year, month int) (SummaryResponse, error) {
	if year < 2000 || year > 2200 || month < 1 || month > 12 {
		return SummaryResponse{}, attendanceerrors.ErrInvalidPeriod
	}

	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	counts, err := s.repo.CountByStatus(ctx, companyID, employeeID, from, to)
	if err != nil {
		return SummaryResponse{}, err
	}

	return SummaryResponse{
		EmployeeID: employeeID,
		Year:       year,
		Month:      month,
		Counts:     counts,
	}, nil
}

// ApplyLeave upserts one LEAVE row per calendar day of the approved range.
// Existing clock times are preserved; re-applying the same request is a
// no-op because the written values are already in place.
func (s *service) ApplyLeave(ctx context.Context, companyID, employeeID string, leaveRequestID uuid.UUID, startDate, endDate time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	start := startDate.UTC().Truncate(24 * time.Hour)
	end := endDate.UTC().Truncate(24 * time.Hour)

	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		existing, err := qtx.FindByEmployeeAndDate(ctx, companyID, employeeID, day)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if existing != nil {
			reqID := leaveRequestID
			existing.Status = StatusLeave
			existing.IsLeave = true
			existing.LeaveRequestID = &reqID
			if err := qtx.Update(ctx, existing); err != nil {
				return err
			}
			continue
		}

		reqID := leaveRequestID
		row := &Attendance{
			ID:             uuid.New(),
			CompanyID:      uuid.MustParse(companyID),
			EmployeeID:     uuid.MustParse(employeeID),
			AttendanceDate: day,
			Status:         StatusLeave,
			IsLeave:        true,
			LeaveRequestID: &reqID,
			Source:         "LEAVE",
		}
		if err := qtx.Create(ctx, row); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	s.logger.Info("leave projected onto attendance",
		zap.String("employee_id", employeeID),
		zap.String("leave_request_id", leaveRequestID.String()),
		zap.String("start", start.Format("2006-01-02")),
		zap.String("end", end.Format("2006-01-02")),
	)
	return nil
}

// RevertLeave clears the projection of one leave request. Days that kept a
// clock-in fall back to PRESENT or LATE, the rest to ABSENT. Rows tagged by
// other requests are untouched; a second call finds nothing and does nothing.
func (s *service) RevertLeave(ctx context.Context, companyID, employeeID string, leaveRequestID uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	rows, err := qtx.FindByLeaveRequest(ctx, companyID, leaveRequestID.String())
	if err != nil {
		return err
	}

	for i := range rows {
		row := &rows[i]
		if row.EmployeeID.String() != employeeID {
			continue
		}
		row.IsLeave = false
		row.LeaveRequestID = nil
		row.Status = statusFromClock(row.ClockIn)
		if err := qtx.Update(ctx, row); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	if len(rows) > 0 {
		s.logger.Info("leave projection reverted",
			zap.String("employee_id", employeeID),
			zap.String("leave_request_id", leaveRequestID.String()),
			zap.Int("days", len(rows)),
		)
	}
	return nil
}

func statusFromClock(clockIn *time.Time) string {
	if clockIn == nil {
		return StatusAbsent
	}
	t := clockIn.UTC()
	if t.Hour() > lateCutoff.hour || (t.Hour() == lateCutoff.hour && t.Minute() > lateCutoff.minute) {
		return StatusLate
	}
	return StatusPresent
}

func mapToResponse(a Attendance) AttendanceResponse {
	resp := AttendanceResponse{
		ID:             a.ID.String(),
		CompanyID:      a.CompanyID.String(),
		EmployeeID:     a.EmployeeID.String(),
		AttendanceDate: a.AttendanceDate.Format("2006-01-02"),
		Status:         a.Status,
		IsLeave:        a.IsLeave,
		Source:         a.Source,
		Notes:          a.Notes,
	}
	if a.ClockIn != nil {
		v := a.ClockIn.Format(time.RFC3339)
		resp.ClockIn = &v
	}
	if a.ClockOut != nil {
		v := a.ClockOut.Format(time.RFC3339)
		resp.ClockOut = &v
	}
	if a.LeaveRequestID != nil {
		v := a.LeaveRequestID.String()
		resp.LeaveRequestID = &v
	}
	return resp
}
