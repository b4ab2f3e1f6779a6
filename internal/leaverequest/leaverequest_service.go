package leaverequest

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"go-attend/internal/events"
	"go-attend/internal/leavebalance"
	leaverequesterrors "go-attend/internal/leaverequest/errors"
	"go-attend/internal/leavetype"
	"go-attend/internal/messaging/kafka"
	"go-attend/internal/shared/contextutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Ledger is the slice of the balance service the state machine drives.
type Ledger interface {
	Reserve(ctx context.Context, companyID, employeeID, leaveTypeID string, year int, days decimal.Decimal) (*leavebalance.LeaveBalance, error)
	Commit(ctx context.Context, companyID, employeeID, leaveTypeID string, year int, days decimal.Decimal) (*leavebalance.LeaveBalance, error)
	Release(ctx context.Context, companyID, employeeID, leaveTypeID string, year int, days decimal.Decimal) (*leavebalance.LeaveBalance, error)
	Revoke(ctx context.Context, companyID, employeeID, leaveTypeID string, year int, days decimal.Decimal) (*leavebalance.LeaveBalance, error)
	Reinstate(ctx context.Context, companyID, employeeID, leaveTypeID string, year int, days decimal.Decimal) (*leavebalance.LeaveBalance, error)
}

// Projector mirrors approved leave onto the attendance calendar.
type Projector interface {
	ApplyLeave(ctx context.Context, companyID, employeeID string, leaveRequestID uuid.UUID, startDate, endDate time.Time) error
	RevertLeave(ctx context.Context, companyID, employeeID string, leaveRequestID uuid.UUID) error
}

// PolicyProvider resolves the leave type rules a request must obey.
type PolicyProvider interface {
	GetPolicy(ctx context.Context, companyID, leaveTypeID string) (leavetype.Policy, error)
}

//go:generate mockgen -source=leaverequest_service.go -destination=mock/leaverequest_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, companyID, actorID string, req CreateLeaveRequest) (LeaveRequestResponse, error)
	GetAll(ctx context.Context, companyID, actorID string, canReadAll bool) ([]LeaveRequestResponse, error)
	GetByID(ctx context.Context, companyID, id string) (LeaveRequestResponse, error)
	Decide(ctx context.Context, companyID, actorID, id string, req DecideLeaveRequest) (LeaveRequestResponse, error)
	Cancel(ctx context.Context, companyID, actorID, id string, canManage bool) (LeaveRequestResponse, error)
	Update(ctx context.Context, companyID, actorID, id string, req UpdateLeaveRequest, canManage bool) (LeaveRequestResponse, error)
}

type service struct {
	db        *sql.DB
	repo      Repository
	ledger    Ledger
	policies  PolicyProvider
	projector Projector
	outbox    kafka.OutboxRepository
	logger    *zap.Logger
}

func NewService(
	db *sql.DB,
	repo Repository,
	ledger Ledger,
	policies PolicyProvider,
	projector Projector,
	outbox kafka.OutboxRepository,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("leaverequest.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leaverequest.service")
	}
	return &service{
		db:        db,
		repo:      repo,
		ledger:    ledger,
		policies:  policies,
		projector: projector,
		outbox:    outbox,
		logger:    l,
	}
}

func (s *service) Create(ctx context.Context, companyID, actorID string, req CreateLeaveRequest) (LeaveRequestResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("create leave request",
		zap.String("request_id", rid),
		zap.String("company_id", companyID),
		zap.String("actor_id", actorID),
		zap.String("employee_id", req.EmployeeID),
	)

	companyUUID, err := uuid.Parse(companyID)
	if err != nil {
		return LeaveRequestResponse{}, leaverequesterrors.ErrInvalidCompanyID
	}
	employeeUUID, err := uuid.Parse(req.EmployeeID)
	if err != nil {
		return LeaveRequestResponse{}, leaverequesterrors.ErrInvalidEmployeeID
	}
	createdByUUID, err := uuid.Parse(actorID)
	if err != nil {
		return LeaveRequestResponse{}, leaverequesterrors.ErrInvalidActorID
	}

	startDate, endDate, duration, err := resolvePeriod(req.StartDate, req.EndDate, req.IsHalfDay)
	if err != nil {
		return LeaveRequestResponse{}, err
	}

	policy, err := s.policies.GetPolicy(ctx, companyID, req.LeaveTypeID)
	if err != nil {
		return LeaveRequestResponse{}, err
	}
	if policy.MaxConsecutiveDays.IsPositive() && duration.GreaterThan(policy.MaxConsecutiveDays) {
		return LeaveRequestResponse{}, leaverequesterrors.ErrExceedsMaxConsecutive
	}

	belongs, err := s.repo.EmployeeBelongsToCompany(ctx, companyID, req.EmployeeID)
	if err != nil {
		return LeaveRequestResponse{}, err
	}
	if !belongs {
		return LeaveRequestResponse{}, leaverequesterrors.ErrEmployeeNotInCompany
	}

	overlap, err := s.repo.HasOverlappingPeriod(ctx, companyID, req.EmployeeID, startDate, endDate, nil)
	if err != nil {
		return LeaveRequestResponse{}, err
	}
	if overlap {
		return LeaveRequestResponse{}, leaverequesterrors.ErrLeaveOverlap
	}

	year := startDate.Year()

	// Reserve before persisting; a lost race on the balance must never
	// leave a request without backing days.
	if _, err := s.ledger.Reserve(ctx, companyID, req.EmployeeID, req.LeaveTypeID, year, duration); err != nil {
		return LeaveRequestResponse{}, err
	}

	l := &LeaveRequest{
		ID:          uuid.New(),
		CompanyID:   companyUUID,
		EmployeeID:  employeeUUID,
		LeaveTypeID: uuid.MustParse(req.LeaveTypeID),
		StartDate:   startDate,
		EndDate:     endDate,
		Duration:    duration,
		IsHalfDay:   req.IsHalfDay,
		Status:      StatusPending,
		Reason:      req.Reason,
		CreatedBy:   createdByUUID,
		AppliedAt:   time.Now().UTC(),
	}

	if err := s.persistCreate(ctx, l); err != nil {
		// Hand the reserved days back; the request never existed.
		if _, relErr := s.ledger.Release(ctx, companyID, req.EmployeeID, req.LeaveTypeID, year, duration); relErr != nil {
			s.logger.Error("release after failed create also failed",
				zap.String("employee_id", req.EmployeeID),
				zap.Error(relErr),
			)
		}
		s.logger.Error("create leave request persist failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}

	s.logger.Info("leave request created",
		zap.String("leave_request_id", l.ID.String()),
		zap.String("company_id", companyID),
		zap.String("employee_id", req.EmployeeID),
		zap.String("duration", duration.String()),
	)

	if !policy.RequiresApproval {
		approved, err := s.approve(ctx, l, createdByUUID)
		if err != nil {
			// The request stays PENDING; an approver can pick it up.
			s.logger.Warn("auto-approve failed, request left pending",
				zap.String("leave_request_id", l.ID.String()),
				zap.Error(err),
			)
			return mapToResponse(*l), nil
		}
		return mapToResponse(*approved), nil
	}

	return mapToResponse(*l), nil
}

func (s *service) persistCreate(ctx context.Context, l *LeaveRequest) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	if err := qtx.Create(ctx, l); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *service) GetAll(ctx context.Context, companyID, actorID string, canReadAll bool) ([]LeaveRequestResponse, error) {
	var (
		requests []LeaveRequest
		err      error
	)
	if canReadAll {
		requests, err = s.repo.FindAllByCompany(ctx, companyID)
	} else {
		if _, parseErr := uuid.Parse(actorID); parseErr != nil {
			return nil, leaverequesterrors.ErrInvalidActorID
		}
		requests, err = s.repo.FindAllByCompanyAndEmployee(ctx, companyID, actorID)
	}
	if err != nil {
		return nil, err
	}
	return mapToListResponse(requests), nil
}

func (s *service) GetByID(ctx context.Context, companyID, id string) (LeaveRequestResponse, error) {
	l, err := s.repo.FindByIDAndCompany(ctx, companyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveRequestResponse{}, leaverequesterrors.ErrRequestNotFound
		}
		return LeaveRequestResponse{}, err
	}
	return mapToResponse(*l), nil
}

func (s *service) Decide(ctx context.Context, companyID, actorID, id string, req DecideLeaveRequest) (LeaveRequestResponse, error) {
	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return LeaveRequestResponse{}, leaverequesterrors.ErrInvalidActorID
	}

	l, err := s.repo.FindByIDAndCompany(ctx, companyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveRequestResponse{}, leaverequesterrors.ErrRequestNotFound
		}
		return LeaveRequestResponse{}, err
	}
	if l.Status != StatusPending {
		return LeaveRequestResponse{}, leaverequesterrors.ErrAlreadyProcessed
	}

	switch req.Decision {
	case StatusApproved:
		approved, err := s.approve(ctx, l, actorUUID)
		if err != nil {
			return LeaveRequestResponse{}, err
		}
		return mapToResponse(*approved), nil
	case StatusRejected:
		if req.RejectionReason == nil || *req.RejectionReason == "" {
			return LeaveRequestResponse{}, leaverequesterrors.ErrRejectionReasonRequired
		}
		rejected, err := s.reject(ctx, l, *req.RejectionReason)
		if err != nil {
			return LeaveRequestResponse{}, err
		}
		return mapToResponse(*rejected), nil
	default:
		return LeaveRequestResponse{}, leaverequesterrors.ErrAlreadyProcessed
	}
}

// approve runs the PENDING -> APPROVED transition: flip the status, move the
// reserved days to used, project the leave onto attendance. Every later step
// failing unwinds the earlier ones so the request lands back in PENDING.
func (s *service) approve(ctx context.Context, l *LeaveRequest, actorUUID uuid.UUID) (*LeaveRequest, error) {
	companyID := l.CompanyID.String()
	employeeID := l.EmployeeID.String()
	leaveTypeID := l.LeaveTypeID.String()
	year := l.BalanceYear()

	now := time.Now().UTC()
	next := *l
	next.Status = StatusApproved
	next.ApprovedBy = &actorUUID
	next.ApprovedAt = &now
	next.RejectionReason = nil

	flipped, err := s.repo.TransitionStatus(ctx, &next, StatusPending)
	if err != nil {
		return nil, err
	}
	if !flipped {
		return nil, leaverequesterrors.ErrAlreadyProcessed
	}

	if _, err := s.ledger.Commit(ctx, companyID, employeeID, leaveTypeID, year, l.Duration); err != nil {
		s.revertToPending(ctx, &next)
		return nil, err
	}

	if err := s.projector.ApplyLeave(ctx, companyID, employeeID, l.ID, l.StartDate, l.EndDate); err != nil {
		// The projection writes day by day, so a mid-range failure can leave
		// rows behind. RevertLeave is tag-scoped and idempotent; clear them
		// before undoing the ledger move and the status flip.
		if revErr := s.projector.RevertLeave(ctx, companyID, employeeID, l.ID); revErr != nil {
			s.logger.Error("cleanup after failed projection also failed",
				zap.String("leave_request_id", l.ID.String()),
				zap.Error(revErr),
			)
		}
		if _, revErr := s.ledger.Revoke(ctx, companyID, employeeID, leaveTypeID, year, l.Duration); revErr != nil {
			s.logger.Error("revoke after failed projection also failed",
				zap.String("leave_request_id", l.ID.String()),
				zap.Error(revErr),
			)
		}
		if _, resErr := s.ledger.Reserve(ctx, companyID, employeeID, leaveTypeID, year, l.Duration); resErr != nil {
			s.logger.Error("re-reserve after failed projection also failed",
				zap.String("leave_request_id", l.ID.String()),
				zap.Error(resErr),
			)
		}
		s.revertToPending(ctx, &next)
		return nil, err
	}

	s.stageLifecycleEvent(ctx, &next, events.LeaveEventApproved, actorUUID)

	s.logger.Info("leave request approved",
		zap.String("leave_request_id", l.ID.String()),
		zap.String("approved_by", actorUUID.String()),
	)
	return &next, nil
}

func (s *service) reject(ctx context.Context, l *LeaveRequest, reason string) (*LeaveRequest, error) {
	companyID := l.CompanyID.String()
	employeeID := l.EmployeeID.String()
	leaveTypeID := l.LeaveTypeID.String()
	year := l.BalanceYear()

	next := *l
	next.Status = StatusRejected
	next.ApprovedBy = nil
	next.ApprovedAt = nil
	next.RejectionReason = &reason

	flipped, err := s.repo.TransitionStatus(ctx, &next, StatusPending)
	if err != nil {
		return nil, err
	}
	if !flipped {
		return nil, leaverequesterrors.ErrAlreadyProcessed
	}

	if _, err := s.ledger.Release(ctx, companyID, employeeID, leaveTypeID, year, l.Duration); err != nil {
		s.revertToPending(ctx, &next)
		return nil, err
	}

	s.stageLifecycleEvent(ctx, &next, events.LeaveEventRejected, uuid.Nil)

	s.logger.Info("leave request rejected",
		zap.String("leave_request_id", l.ID.String()),
	)
	return &next, nil
}

func (s *service) Cancel(ctx context.Context, companyID, actorID, id string, canManage bool) (LeaveRequestResponse, error) {
	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return LeaveRequestResponse{}, leaverequesterrors.ErrInvalidActorID
	}

	l, err := s.repo.FindByIDAndCompany(ctx, companyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveRequestResponse{}, leaverequesterrors.ErrRequestNotFound
		}
		return LeaveRequestResponse{}, err
	}

	isOwner := l.EmployeeID == actorUUID || l.CreatedBy == actorUUID
	if !isOwner && !canManage {
		return LeaveRequestResponse{}, leaverequesterrors.ErrNotAuthorized
	}

	employeeID := l.EmployeeID.String()
	leaveTypeID := l.LeaveTypeID.String()
	year := l.BalanceYear()

	next := *l
	next.Status = StatusCancelled

	switch l.Status {
	case StatusPending:
		flipped, err := s.repo.TransitionStatus(ctx, &next, StatusPending)
		if err != nil {
			return LeaveRequestResponse{}, err
		}
		if !flipped {
			return LeaveRequestResponse{}, leaverequesterrors.ErrAlreadyProcessed
		}
		if _, err := s.ledger.Release(ctx, companyID, employeeID, leaveTypeID, year, l.Duration); err != nil {
			s.revertToPending(ctx, &next)
			return LeaveRequestResponse{}, err
		}

	case StatusApproved:
		flipped, err := s.repo.TransitionStatus(ctx, &next, StatusApproved)
		if err != nil {
			return LeaveRequestResponse{}, err
		}
		if !flipped {
			return LeaveRequestResponse{}, leaverequesterrors.ErrAlreadyProcessed
		}
		if _, err := s.ledger.Revoke(ctx, companyID, employeeID, leaveTypeID, year, l.Duration); err != nil {
			s.revertTo(ctx, &next, l)
			return LeaveRequestResponse{}, err
		}
		if err := s.projector.RevertLeave(ctx, companyID, employeeID, l.ID); err != nil {
			// Put the used days and the approval back. Reinstate, not Commit:
			// Commit would drain pending that may belong to another request's
			// reservation.
			if _, reErr := s.ledger.Reinstate(ctx, companyID, employeeID, leaveTypeID, year, l.Duration); reErr != nil {
				s.logger.Error("reinstate after failed revert also failed",
					zap.String("leave_request_id", l.ID.String()),
					zap.Error(reErr),
				)
			}
			s.revertTo(ctx, &next, l)
			return LeaveRequestResponse{}, err
		}

	default:
		return LeaveRequestResponse{}, leaverequesterrors.ErrNotCancellable
	}

	s.stageLifecycleEvent(ctx, &next, events.LeaveEventCancelled, actorUUID)

	s.logger.Info("leave request cancelled",
		zap.String("leave_request_id", l.ID.String()),
		zap.String("actor_id", actorID),
		zap.String("from_status", l.Status),
	)
	return mapToResponse(next), nil
}

func (s *service) Update(ctx context.Context, companyID, actorID, id string, req UpdateLeaveRequest, canManage bool) (LeaveRequestResponse, error) {
	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return LeaveRequestResponse{}, leaverequesterrors.ErrInvalidActorID
	}

	l, err := s.repo.FindByIDAndCompany(ctx, companyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveRequestResponse{}, leaverequesterrors.ErrRequestNotFound
		}
		return LeaveRequestResponse{}, err
	}
	if l.Status != StatusPending {
		return LeaveRequestResponse{}, leaverequesterrors.ErrAlreadyProcessed
	}

	isOwner := l.EmployeeID == actorUUID || l.CreatedBy == actorUUID
	if !isOwner && !canManage {
		return LeaveRequestResponse{}, leaverequesterrors.ErrNotAuthorized
	}

	startDate, endDate, duration, err := resolvePeriod(req.StartDate, req.EndDate, req.IsHalfDay)
	if err != nil {
		return LeaveRequestResponse{}, err
	}

	employeeID := l.EmployeeID.String()
	leaveTypeID := l.LeaveTypeID.String()

	policy, err := s.policies.GetPolicy(ctx, companyID, leaveTypeID)
	if err != nil {
		return LeaveRequestResponse{}, err
	}
	if policy.MaxConsecutiveDays.IsPositive() && duration.GreaterThan(policy.MaxConsecutiveDays) {
		return LeaveRequestResponse{}, leaverequesterrors.ErrExceedsMaxConsecutive
	}

	overlap, err := s.repo.HasOverlappingPeriod(ctx, companyID, employeeID, startDate, endDate, &id)
	if err != nil {
		return LeaveRequestResponse{}, err
	}
	if overlap {
		return LeaveRequestResponse{}, leaverequesterrors.ErrLeaveOverlap
	}

	oldYear := l.BalanceYear()
	newYear := startDate.Year()

	// Move the reservation to match the new period before touching the
	// request row; undo is the exact inverse.
	undo, err := s.moveReservation(ctx, companyID, employeeID, leaveTypeID, oldYear, newYear, l.Duration, duration)
	if err != nil {
		return LeaveRequestResponse{}, err
	}

	next := *l
	next.StartDate = startDate
	next.EndDate = endDate
	next.Duration = duration
	next.IsHalfDay = req.IsHalfDay
	next.Reason = req.Reason

	updated, err := s.repo.UpdateDetailsIfPending(ctx, &next)
	if err != nil {
		undo(ctx)
		return LeaveRequestResponse{}, err
	}
	if !updated {
		undo(ctx)
		return LeaveRequestResponse{}, leaverequesterrors.ErrAlreadyProcessed
	}

	s.logger.Info("leave request updated",
		zap.String("leave_request_id", l.ID.String()),
		zap.String("duration", duration.String()),
	)
	return mapToResponse(next), nil
}

// moveReservation shifts pending days from the old period's ledger year to
// the new one and returns a closure that undoes the move.
func (s *service) moveReservation(
	ctx context.Context,
	companyID, employeeID, leaveTypeID string,
	oldYear, newYear int,
	oldDays, newDays decimal.Decimal,
) (func(context.Context), error) {
	noop := func(context.Context) {}

	if oldYear == newYear {
		delta := newDays.Sub(oldDays)
		switch {
		case delta.IsPositive():
			if _, err := s.ledger.Reserve(ctx, companyID, employeeID, leaveTypeID, newYear, delta); err != nil {
				return noop, err
			}
			return func(c context.Context) {
				if _, err := s.ledger.Release(c, companyID, employeeID, leaveTypeID, newYear, delta); err != nil {
					s.logger.Error("undo reserve failed", zap.Error(err))
				}
			}, nil
		case delta.IsNegative():
			dec := delta.Neg()
			if _, err := s.ledger.Release(ctx, companyID, employeeID, leaveTypeID, newYear, dec); err != nil {
				return noop, err
			}
			return func(c context.Context) {
				if _, err := s.ledger.Reserve(c, companyID, employeeID, leaveTypeID, newYear, dec); err != nil {
					s.logger.Error("undo release failed", zap.Error(err))
				}
			}, nil
		default:
			return noop, nil
		}
	}

	// Cross-year move: reserve against the new year first so a shortfall
	// there leaves the old reservation untouched.
	if _, err := s.ledger.Reserve(ctx, companyID, employeeID, leaveTypeID, newYear, newDays); err != nil {
		return noop, err
	}
	if _, err := s.ledger.Release(ctx, companyID, employeeID, leaveTypeID, oldYear, oldDays); err != nil {
		if _, relErr := s.ledger.Release(ctx, companyID, employeeID, leaveTypeID, newYear, newDays); relErr != nil {
			s.logger.Error("release after failed cross-year move also failed", zap.Error(relErr))
		}
		return noop, err
	}
	return func(c context.Context) {
		if _, err := s.ledger.Reserve(c, companyID, employeeID, leaveTypeID, oldYear, oldDays); err != nil {
			s.logger.Error("undo cross-year move failed", zap.Error(err))
		}
		if _, err := s.ledger.Release(c, companyID, employeeID, leaveTypeID, newYear, newDays); err != nil {
			s.logger.Error("undo cross-year move failed", zap.Error(err))
		}
	}, nil
}

// revertToPending puts a request back to PENDING after a downstream step of
// a decision failed. Best effort; a lost race here is logged, not returned.
func (s *service) revertToPending(ctx context.Context, l *LeaveRequest) {
	back := *l
	back.Status = StatusPending
	back.ApprovedBy = nil
	back.ApprovedAt = nil
	back.RejectionReason = nil

	reverted, err := s.repo.TransitionStatus(ctx, &back, l.Status)
	if err != nil || !reverted {
		s.logger.Error("revert to pending failed",
			zap.String("leave_request_id", l.ID.String()),
			zap.String("stuck_status", l.Status),
			zap.Error(err),
		)
	}
}

// revertTo restores a request to its prior decided state after a failed
// cancellation.
func (s *service) revertTo(ctx context.Context, current *LeaveRequest, prior *LeaveRequest) {
	reverted, err := s.repo.TransitionStatus(ctx, prior, current.Status)
	if err != nil || !reverted {
		s.logger.Error("revert cancellation failed",
			zap.String("leave_request_id", prior.ID.String()),
			zap.Error(err),
		)
	}
}

// stageLifecycleEvent records the decision in the outbox. A failed stage is
// logged and swallowed; the state change itself already happened.
func (s *service) stageLifecycleEvent(ctx context.Context, l *LeaveRequest, eventType string, actorUUID uuid.UUID) {
	if s.outbox == nil {
		return
	}

	payload, err := json.Marshal(events.LeaveLifecycleEvent{
		EventType:      eventType,
		LeaveRequestID: l.ID.String(),
		CompanyID:      l.CompanyID.String(),
		EmployeeID:     l.EmployeeID.String(),
		LeaveTypeID:    l.LeaveTypeID.String(),
		StartDate:      l.StartDate.Format("2006-01-02"),
		EndDate:        l.EndDate.Format("2006-01-02"),
		Duration:       l.Duration.String(),
		Status:         l.Status,
		ActorID:        actorUUID.String(),
		OccurredAt:     time.Now().UTC(),
	})
	if err != nil {
		s.logger.Error("marshal lifecycle event failed", zap.Error(err))
		return
	}

	event := kafka.OutboxEvent{
		ID:            uuid.New().String(),
		RequestID:     contextutil.GetRequestID(ctx),
		AggregateType: "leave_request",
		AggregateID:   l.ID.String(),
		EventType:     eventType,
		Topic:         events.TopicLeaveLifecycle,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	}
	if err := s.outbox.Create(ctx, event); err != nil {
		s.logger.Error("stage lifecycle event failed",
			zap.String("leave_request_id", l.ID.String()),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}

func resolvePeriod(start, end string, isHalfDay bool) (time.Time, time.Time, decimal.Decimal, error) {
	startDate, err := parseDate(start)
	if err != nil {
		return time.Time{}, time.Time{}, decimal.Zero, err
	}
	endDate, err := parseDate(end)
	if err != nil {
		return time.Time{}, time.Time{}, decimal.Zero, err
	}
	if startDate.After(endDate) {
		return time.Time{}, time.Time{}, decimal.Zero, leaverequesterrors.ErrInvalidDateRange
	}

	if isHalfDay {
		if !startDate.Equal(endDate) {
			return time.Time{}, time.Time{}, decimal.Zero, leaverequesterrors.ErrHalfDaySingleDay
		}
		return startDate, endDate, decimal.NewFromFloat(0.5), nil
	}

	days := int64(endDate.Sub(startDate).Hours()/24) + 1
	return startDate, endDate, decimal.NewFromInt(days), nil
}

func parseDate(v string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, leaverequesterrors.ErrInvalidDateFormat
	}
	return t, nil
}

func mapToResponse(l LeaveRequest) LeaveRequestResponse {
	resp := LeaveRequestResponse{
		ID:          l.ID.String(),
		CompanyID:   l.CompanyID.String(),
		EmployeeID:  l.EmployeeID.String(),
		LeaveTypeID: l.LeaveTypeID.String(),
		StartDate:   l.StartDate.Format("2006-01-02"),
		EndDate:     l.EndDate.Format("2006-01-02"),
		Duration:    l.Duration.String(),
		IsHalfDay:   l.IsHalfDay,
		Status:      l.Status,
		Reason:      l.Reason,
		CreatedBy:   l.CreatedBy.String(),
		AppliedAt:   l.AppliedAt.Format(time.RFC3339),
	}
	if l.ApprovedBy != nil {
		v := l.ApprovedBy.String()
		resp.ApprovedBy = &v
	}
	if l.ApprovedAt != nil {
		v := l.ApprovedAt.Format(time.RFC3339)
		resp.ApprovedAt = &v
	}
	resp.RejectionReason = l.RejectionReason
	return resp
}

func mapToListResponse(requests []LeaveRequest) []LeaveRequestResponse {
	resp := make([]LeaveRequestResponse, len(requests))
	for i, l := range requests {
		resp[i] = mapToResponse(l)
	}
	return resp
}
