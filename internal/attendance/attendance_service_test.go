package attendance_test

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"go-attend/internal/attendance"
	attendanceerrors "go-attend/internal/attendance/errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

// fakeAttendanceRepository keeps rows in memory keyed by employee and date.
type fakeAttendanceRepository struct {
	mu   sync.Mutex
	rows map[string]*attendance.Attendance

	updateErr error

	// createsLeft fails Create once it reaches zero; negative means unlimited.
	createsLeft int
}

func newFakeAttendanceRepository() *fakeAttendanceRepository {
	return &fakeAttendanceRepository{rows: map[string]*attendance.Attendance{}, createsLeft: -1}
}

func dayKey(companyID, employeeID string, date time.Time) string {
	return companyID + "|" + employeeID + "|" + date.UTC().Format("2006-01-02")
}

func (f *fakeAttendanceRepository) WithTx(tx *sql.Tx) attendance.Repository { return f }

func (f *fakeAttendanceRepository) Create(ctx context.Context, a *attendance.Attendance) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createsLeft == 0 {
		return errors.New("insert failed")
	}
	if f.createsLeft > 0 {
		f.createsLeft--
	}
	cp := *a
	f.rows[dayKey(a.CompanyID.String(), a.EmployeeID.String(), a.AttendanceDate)] = &cp
	return nil
}

func (f *fakeAttendanceRepository) FindByEmployeeAndDate(ctx context.Context, companyID, employeeID string, date time.Time) (*attendance.Attendance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[dayKey(companyID, employeeID, date)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *row
	return &cp, nil
}

func (f *fakeAttendanceRepository) FindAllByCompany(ctx context.Context, companyID string) ([]attendance.Attendance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []attendance.Attendance
	for _, row := range f.rows {
		if row.CompanyID.String() == companyID {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (f *fakeAttendanceRepository) FindAllByCompanyAndEmployee(ctx context.Context, companyID, employeeID string) ([]attendance.Attendance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []attendance.Attendance
	for _, row := range f.rows {
		if row.CompanyID.String() == companyID && row.EmployeeID.String() == employeeID {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (f *fakeAttendanceRepository) FindByLeaveRequest(ctx context.Context, companyID string, leaveRequestID string) ([]attendance.Attendance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []attendance.Attendance
	for _, row := range f.rows {
		if row.CompanyID.String() != companyID {
			continue
		}
		if row.LeaveRequestID != nil && row.LeaveRequestID.String() == leaveRequestID {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (f *fakeAttendanceRepository) CountByStatus(ctx context.Context, companyID, employeeID string, from, to time.Time) (map[string]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := map[string]int{}
	for _, row := range f.rows {
		if row.CompanyID.String() != companyID || row.EmployeeID.String() != employeeID {
			continue
		}
		if row.AttendanceDate.Before(from) || !row.AttendanceDate.Before(to) {
			continue
		}
		counts[row.Status]++
	}
	return counts, nil
}

func (f *fakeAttendanceRepository) Update(ctx context.Context, a *attendance.Attendance) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	cp := *a
	f.rows[dayKey(a.CompanyID.String(), a.EmployeeID.String(), a.AttendanceDate)] = &cp
	return nil
}

type attendanceDeps struct {
	db         *sql.DB
	sqlMock    sqlmock.Sqlmock
	repo       *fakeAttendanceRepository
	service    attendance.Service
	companyID  uuid.UUID
	employeeID uuid.UUID
}

func setupAttendanceTest(t *testing.T) *attendanceDeps {
	t.Helper()
	db, sqlMock, err := sqlmock.New()
	assert.NoError(t, err)
	sqlMock.MatchExpectationsInOrder(false)

	repo := newFakeAttendanceRepository()
	return &attendanceDeps{
		db:         db,
		sqlMock:    sqlMock,
		repo:       repo,
		service:    attendance.NewService(db, repo),
		companyID:  uuid.New(),
		employeeID: uuid.New(),
	}
}

func (d *attendanceDeps) expectTx(times int) {
	for i := 0; i < times; i++ {
		d.sqlMock.ExpectBegin()
		d.sqlMock.ExpectCommit()
	}
}

func day(value string) time.Time {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return t
}

func (d *attendanceDeps) seedRow(date time.Time, status string, clockIn *time.Time) *attendance.Attendance {
	row := &attendance.Attendance{
		ID:             uuid.New(),
		CompanyID:      d.companyID,
		EmployeeID:     d.employeeID,
		AttendanceDate: date,
		ClockIn:        clockIn,
		Status:         status,
		Source:         "MANUAL",
	}
	d.repo.rows[dayKey(d.companyID.String(), d.employeeID.String(), date)] = row
	return row
}

func TestAttendanceService_ApplyLeave(t *testing.T) {
	ctx := context.Background()

	t.Run("writes one leave row per day of the range", func(t *testing.T) {
		deps := setupAttendanceTest(t)
		defer deps.db.Close()

		requestID := uuid.New()
		deps.expectTx(1)
		err := deps.service.ApplyLeave(ctx, deps.companyID.String(), deps.employeeID.String(), requestID, day("2025-01-06"), day("2025-01-10"))
		assert.NoError(t, err)

		rows, err := deps.repo.FindByLeaveRequest(ctx, deps.companyID.String(), requestID.String())
		assert.NoError(t, err)
		assert.Len(t, rows, 5)
		for _, row := range rows {
			assert.Equal(t, attendance.StatusLeave, row.Status)
			assert.True(t, row.IsLeave)
			assert.NotNil(t, row.LeaveRequestID)
		}
	})

	t.Run("applying twice yields the same rows", func(t *testing.T) {
		deps := setupAttendanceTest(t)
		defer deps.db.Close()

		requestID := uuid.New()
		deps.expectTx(2)
		assert.NoError(t, deps.service.ApplyLeave(ctx, deps.companyID.String(), deps.employeeID.String(), requestID, day("2025-01-06"), day("2025-01-08")))
		assert.NoError(t, deps.service.ApplyLeave(ctx, deps.companyID.String(), deps.employeeID.String(), requestID, day("2025-01-06"), day("2025-01-08")))

		rows, err := deps.repo.FindByLeaveRequest(ctx, deps.companyID.String(), requestID.String())
		assert.NoError(t, err)
		assert.Len(t, rows, 3)
	})

	t.Run("a mid-range failure leaves rows a revert can clear", func(t *testing.T) {
		deps := setupAttendanceTest(t)
		defer deps.db.Close()

		deps.repo.createsLeft = 2

		requestID := uuid.New()
		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectRollback()
		err := deps.service.ApplyLeave(ctx, deps.companyID.String(), deps.employeeID.String(), requestID, day("2025-01-06"), day("2025-01-10"))
		assert.Error(t, err)

		rows, err := deps.repo.FindByLeaveRequest(ctx, deps.companyID.String(), requestID.String())
		assert.NoError(t, err)
		assert.Len(t, rows, 2, "the first two days were persisted before the failure")

		deps.expectTx(1)
		assert.NoError(t, deps.service.RevertLeave(ctx, deps.companyID.String(), deps.employeeID.String(), requestID))

		rows, err = deps.repo.FindByLeaveRequest(ctx, deps.companyID.String(), requestID.String())
		assert.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("keeps an existing clock in on the overwritten day", func(t *testing.T) {
		deps := setupAttendanceTest(t)
		defer deps.db.Close()

		clockIn := day("2025-01-06").Add(8 * time.Hour)
		deps.seedRow(day("2025-01-06"), attendance.StatusPresent, &clockIn)

		requestID := uuid.New()
		deps.expectTx(1)
		err := deps.service.ApplyLeave(ctx, deps.companyID.String(), deps.employeeID.String(), requestID, day("2025-01-06"), day("2025-01-06"))
		assert.NoError(t, err)

		row, err := deps.repo.FindByEmployeeAndDate(ctx, deps.companyID.String(), deps.employeeID.String(), day("2025-01-06"))
		assert.NoError(t, err)
		assert.Equal(t, attendance.StatusLeave, row.Status)
		assert.NotNil(t, row.ClockIn)
		assert.True(t, row.ClockIn.Equal(clockIn))
	})
}

func TestAttendanceService_RevertLeave(t *testing.T) {
	ctx := context.Background()

	t.Run("days without a clock in fall back to absent", func(t *testing.T) {
		deps := setupAttendanceTest(t)
		defer deps.db.Close()

		requestID := uuid.New()
		deps.expectTx(2)
		assert.NoError(t, deps.service.ApplyLeave(ctx, deps.companyID.String(), deps.employeeID.String(), requestID, day("2025-01-06"), day("2025-01-10")))
		assert.NoError(t, deps.service.RevertLeave(ctx, deps.companyID.String(), deps.employeeID.String(), requestID))

		rows, err := deps.repo.FindByLeaveRequest(ctx, deps.companyID.String(), requestID.String())
		assert.NoError(t, err)
		assert.Empty(t, rows, "no row may keep the request tag")

		all, err := deps.repo.FindAllByCompanyAndEmployee(ctx, deps.companyID.String(), deps.employeeID.String())
		assert.NoError(t, err)
		assert.Len(t, all, 5)
		for _, row := range all {
			assert.Equal(t, attendance.StatusAbsent, row.Status)
			assert.False(t, row.IsLeave)
			assert.Nil(t, row.LeaveRequestID)
		}
	})

	t.Run("days with a clock in fall back to present or late", func(t *testing.T) {
		deps := setupAttendanceTest(t)
		defer deps.db.Close()

		early := day("2025-01-06").Add(8 * time.Hour)
		late := day("2025-01-07").Add(10 * time.Hour)
		deps.seedRow(day("2025-01-06"), attendance.StatusPresent, &early)
		deps.seedRow(day("2025-01-07"), attendance.StatusLate, &late)

		requestID := uuid.New()
		deps.expectTx(2)
		assert.NoError(t, deps.service.ApplyLeave(ctx, deps.companyID.String(), deps.employeeID.String(), requestID, day("2025-01-06"), day("2025-01-07")))
		assert.NoError(t, deps.service.RevertLeave(ctx, deps.companyID.String(), deps.employeeID.String(), requestID))

		first, err := deps.repo.FindByEmployeeAndDate(ctx, deps.companyID.String(), deps.employeeID.String(), day("2025-01-06"))
		assert.NoError(t, err)
		assert.Equal(t, attendance.StatusPresent, first.Status)

		second, err := deps.repo.FindByEmployeeAndDate(ctx, deps.companyID.String(), deps.employeeID.String(), day("2025-01-07"))
		assert.NoError(t, err)
		assert.Equal(t, attendance.StatusLate, second.Status)
	})

	t.Run("reverting twice is a no-op", func(t *testing.T) {
		deps := setupAttendanceTest(t)
		defer deps.db.Close()

		requestID := uuid.New()
		deps.expectTx(3)
		assert.NoError(t, deps.service.ApplyLeave(ctx, deps.companyID.String(), deps.employeeID.String(), requestID, day("2025-01-06"), day("2025-01-06")))
		assert.NoError(t, deps.service.RevertLeave(ctx, deps.companyID.String(), deps.employeeID.String(), requestID))
		assert.NoError(t, deps.service.RevertLeave(ctx, deps.companyID.String(), deps.employeeID.String(), requestID))
	})

	t.Run("rows tagged by another request are untouched", func(t *testing.T) {
		deps := setupAttendanceTest(t)
		defer deps.db.Close()

		first := uuid.New()
		second := uuid.New()
		deps.expectTx(3)
		assert.NoError(t, deps.service.ApplyLeave(ctx, deps.companyID.String(), deps.employeeID.String(), first, day("2025-01-06"), day("2025-01-07")))
		assert.NoError(t, deps.service.ApplyLeave(ctx, deps.companyID.String(), deps.employeeID.String(), second, day("2025-01-08"), day("2025-01-09")))
		assert.NoError(t, deps.service.RevertLeave(ctx, deps.companyID.String(), deps.employeeID.String(), first))

		remaining, err := deps.repo.FindByLeaveRequest(ctx, deps.companyID.String(), second.String())
		assert.NoError(t, err)
		assert.Len(t, remaining, 2)
		for _, row := range remaining {
			assert.Equal(t, attendance.StatusLeave, row.Status)
		}
	})
}

func TestAttendanceService_ClockIn(t *testing.T) {
	ctx := context.Background()

	t.Run("first clock in of the day succeeds", func(t *testing.T) {
		deps := setupAttendanceTest(t)
		defer deps.db.Close()

		deps.expectTx(1)
		resp, err := deps.service.ClockIn(ctx, deps.companyID.String(), deps.employeeID.String(), attendance.ClockInRequest{})
		assert.NoError(t, err)
		assert.NotNil(t, resp.ClockIn)
		assert.Equal(t, "MANUAL", resp.Source)
	})

	t.Run("second clock in is rejected", func(t *testing.T) {
		deps := setupAttendanceTest(t)
		defer deps.db.Close()

		deps.expectTx(1)
		_, err := deps.service.ClockIn(ctx, deps.companyID.String(), deps.employeeID.String(), attendance.ClockInRequest{})
		assert.NoError(t, err)

		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectRollback()
		_, err = deps.service.ClockIn(ctx, deps.companyID.String(), deps.employeeID.String(), attendance.ClockInRequest{})
		assert.ErrorIs(t, err, attendanceerrors.ErrAlreadyClockedIn)
	})

	t.Run("clock in on a projected leave day is rejected", func(t *testing.T) {
		deps := setupAttendanceTest(t)
		defer deps.db.Close()

		today := time.Now().UTC().Truncate(24 * time.Hour)
		row := deps.seedRow(today, attendance.StatusLeave, nil)
		row.IsLeave = true

		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectRollback()
		_, err := deps.service.ClockIn(ctx, deps.companyID.String(), deps.employeeID.String(), attendance.ClockInRequest{})
		assert.ErrorIs(t, err, attendanceerrors.ErrOnLeaveToday)
	})
}

func TestAttendanceService_ClockOut(t *testing.T) {
	ctx := context.Background()

	t.Run("clock out without a clock in fails", func(t *testing.T) {
		deps := setupAttendanceTest(t)
		defer deps.db.Close()

		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectRollback()
		_, err := deps.service.ClockOut(ctx, deps.companyID.String(), deps.employeeID.String(), attendance.ClockOutRequest{})
		assert.ErrorIs(t, err, attendanceerrors.ErrNoClockInToday)
	})

	t.Run("clock out completes the day once", func(t *testing.T) {
		deps := setupAttendanceTest(t)
		defer deps.db.Close()

		deps.expectTx(2)
		_, err := deps.service.ClockIn(ctx, deps.companyID.String(), deps.employeeID.String(), attendance.ClockInRequest{})
		assert.NoError(t, err)

		resp, err := deps.service.ClockOut(ctx, deps.companyID.String(), deps.employeeID.String(), attendance.ClockOutRequest{})
		assert.NoError(t, err)
		assert.NotNil(t, resp.ClockOut)

		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectRollback()
		_, err = deps.service.ClockOut(ctx, deps.companyID.String(), deps.employeeID.String(), attendance.ClockOutRequest{})
		assert.ErrorIs(t, err, attendanceerrors.ErrAlreadyClockedOut)
	})
}

func TestAttendanceService_GetSummary(t *testing.T) {
	ctx := context.Background()

	t.Run("counts rows by status for the month", func(t *testing.T) {
		deps := setupAttendanceTest(t)
		defer deps.db.Close()

		in := day("2025-01-06").Add(8 * time.Hour)
		deps.seedRow(day("2025-01-06"), attendance.StatusPresent, &in)
		deps.seedRow(day("2025-01-07"), attendance.StatusAbsent, nil)
		deps.seedRow(day("2025-01-08"), attendance.StatusLeave, nil)
		deps.seedRow(day("2025-02-03"), attendance.StatusPresent, nil)

		summary, err := deps.service.GetSummary(ctx, deps.companyID.String(), deps.employeeID.String(), 2025, 1)
		assert.NoError(t, err)
		assert.Equal(t, 1, summary.Counts[attendance.StatusPresent])
		assert.Equal(t, 1, summary.Counts[attendance.StatusAbsent])
		assert.Equal(t, 1, summary.Counts[attendance.StatusLeave])
	})

	t.Run("rejects an impossible period", func(t *testing.T) {
		deps := setupAttendanceTest(t)
		defer deps.db.Close()

		_, err := deps.service.GetSummary(ctx, deps.companyID.String(), deps.employeeID.String(), 2025, 13)
		assert.ErrorIs(t, err, attendanceerrors.ErrInvalidPeriod)

		_, err = deps.service.GetSummary(ctx, deps.companyID.String(), deps.employeeID.String(), 1990, 6)
		assert.ErrorIs(t, err, attendanceerrors.ErrInvalidPeriod)
	})
}
