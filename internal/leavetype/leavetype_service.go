package leavetype

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	leavetypeerrors "go-attend/internal/leavetype/errors"
	"go-attend/internal/shared/contextutil"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const LeaveTypeListKeyPrefix = "leave_types:"

func GetLeaveTypeListKey(companyID string) string {
	return LeaveTypeListKeyPrefix + companyID
}

//go:generate mockgen -source=leavetype_service.go -destination=mock/leavetype_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, companyID string, req CreateLeaveTypeRequest) (LeaveTypeResponse, error)
	GetAll(ctx context.Context, companyID string) ([]LeaveTypeResponse, error)
	GetByID(ctx context.Context, companyID, id string) (LeaveTypeResponse, error)
	Update(ctx context.Context, companyID, id string, req UpdateLeaveTypeRequest) (LeaveTypeResponse, error)
	Delete(ctx context.Context, companyID, id string) error

	// GetPolicy and ListActivePolicies serve the leave request workflow and
	// the balance ledger. They bypass the response DTO layer.
	GetPolicy(ctx context.Context, companyID, leaveTypeID string) (Policy, error)
	ListActivePolicies(ctx context.Context, companyID string) ([]Policy, error)
}

type service struct {
	db     *sql.DB
	repo   Repository
	rdb    *redis.Client
	sf     *singleflight.Group
	logger *zap.Logger
}

func NewService(db *sql.DB, repo Repository, rdb *redis.Client, logger ...*zap.Logger) Service {
	l := zap.L().Named("leavetype.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leavetype.service")
	}
	return &service{
		db:     db,
		repo:   repo,
		rdb:    rdb,
		sf:     &singleflight.Group{},
		logger: l,
	}
}

func parseQuota(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil || d.IsNegative() {
		return decimal.Zero, leavetypeerrors.ErrInvalidQuota
	}
	return d, nil
}

func (s *service) Create(ctx context.Context, companyID string, req CreateLeaveTypeRequest) (LeaveTypeResponse, error) {
	rid := contextutil.GetRequestID(ctx)

	companyUUID, err := uuid.Parse(companyID)
	if err != nil {
		return LeaveTypeResponse{}, leavetypeerrors.ErrInvalidCompanyID
	}

	quota, err := parseQuota(req.DefaultAnnualQuota)
	if err != nil {
		return LeaveTypeResponse{}, err
	}

	maxConsecutive := decimal.Zero
	if req.MaxConsecutiveDays != nil {
		if maxConsecutive, err = parseQuota(*req.MaxConsecutiveDays); err != nil {
			return LeaveTypeResponse{}, err
		}
	}

	requiresApproval := true
	if req.RequiresApproval != nil {
		requiresApproval = *req.RequiresApproval
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("create leave type begin tx failed", zap.String("request_id", rid), zap.Error(err))
		return LeaveTypeResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	lt := &LeaveType{
		ID:                 uuid.New(),
		CompanyID:          companyUUID,
		Code:               req.Code,
		Name:               req.Name,
		Description:        req.Description,
		DefaultAnnualQuota: quota,
		MaxConsecutiveDays: maxConsecutive,
		IsCarryForward:     req.IsCarryForward,
		RequiresApproval:   requiresApproval,
		IsActive:           true,
	}

	if err := qtx.Create(ctx, lt); err != nil {
		s.logger.Error("create leave type persist failed", zap.Error(err))
		return LeaveTypeResponse{}, mapRepositoryError(err)
	}

	if err := tx.Commit(); err != nil {
		return LeaveTypeResponse{}, err
	}

	s.invalidateListCache(ctx, companyID)

	s.logger.Info("create leave type success",
		zap.String("leave_type_id", lt.ID.String()),
		zap.String("company_id", companyID),
		zap.String("code", lt.Code),
	)

	return mapToResponse(*lt), nil
}

func (s *service) GetAll(ctx context.Context, companyID string) ([]LeaveTypeResponse, error) {
	cacheKey := GetLeaveTypeListKey(companyID)

	if s.rdb != nil {
		cached, err := s.rdb.Get(ctx, cacheKey).Result()
		if err == nil {
			var resp []LeaveTypeResponse
			if err := json.Unmarshal([]byte(cached), &resp); err == nil {
				return resp, nil
			}
		}
	}

	v, err, _ := s.sf.Do(cacheKey, func() (interface{}, error) {
		types, err := s.repo.FindAllByCompany(ctx, companyID)
		if err != nil {
			return nil, err
		}

		resp := mapToListResponse(types)

		if s.rdb != nil {
			if jsonData, err := json.Marshal(resp); err == nil {
				s.rdb.Set(ctx, cacheKey, string(jsonData), 30*time.Minute)
			}
		}

		return resp, nil
	})
	if err != nil {
		return nil, err
	}

	return v.([]LeaveTypeResponse), nil
}

func (s *service) GetByID(ctx context.Context, companyID, id string) (LeaveTypeResponse, error) {
	lt, err := s.repo.FindByIDAndCompany(ctx, companyID, id)
	if err != nil {
		return LeaveTypeResponse{}, mapRepositoryError(err)
	}
	return mapToResponse(*lt), nil
}

func (s *service) Update(ctx context.Context, companyID, id string, req UpdateLeaveTypeRequest) (LeaveTypeResponse, error) {
	quota, err := parseQuota(req.DefaultAnnualQuota)
	if err != nil {
		return LeaveTypeResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return LeaveTypeResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	lt, err := qtx.FindByIDAndCompany(ctx, companyID, id)
	if err != nil {
		return LeaveTypeResponse{}, mapRepositoryError(err)
	}

	lt.Name = req.Name
	lt.Description = req.Description
	// Quota edits apply to balances created after this point only.
	lt.DefaultAnnualQuota = quota
	lt.IsCarryForward = req.IsCarryForward
	if req.MaxConsecutiveDays != nil {
		maxConsecutive, err := parseQuota(*req.MaxConsecutiveDays)
		if err != nil {
			return LeaveTypeResponse{}, err
		}
		lt.MaxConsecutiveDays = maxConsecutive
	}
	if req.RequiresApproval != nil {
		lt.RequiresApproval = *req.RequiresApproval
	}
	if req.IsActive != nil {
		lt.IsActive = *req.IsActive
	}

	if err := qtx.Update(ctx, lt); err != nil {
		return LeaveTypeResponse{}, mapRepositoryError(err)
	}

	if err := tx.Commit(); err != nil {
		return LeaveTypeResponse{}, err
	}

	s.invalidateListCache(ctx, companyID)

	return mapToResponse(*lt), nil
}

func (s *service) Delete(ctx context.Context, companyID, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	if err := qtx.Delete(ctx, companyID, id); err != nil {
		return mapRepositoryError(err)
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	s.invalidateListCache(ctx, companyID)
	return nil
}

func (s *service) GetPolicy(ctx context.Context, companyID, leaveTypeID string) (Policy, error) {
	lt, err := s.repo.FindByIDAndCompany(ctx, companyID, leaveTypeID)
	if err != nil {
		return Policy{}, mapRepositoryError(err)
	}
	if !lt.IsActive {
		return Policy{}, leavetypeerrors.ErrLeaveTypeNotFound
	}
	return lt.Policy(), nil
}

func (s *service) ListActivePolicies(ctx context.Context, companyID string) ([]Policy, error) {
	types, err := s.repo.FindActiveByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	policies := make([]Policy, len(types))
	for i, t := range types {
		policies[i] = t.Policy()
	}
	return policies, nil
}

func (s *service) invalidateListCache(ctx context.Context, companyID string) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, GetLeaveTypeListKey(companyID)).Err(); err != nil {
		s.logger.Warn("leave type cache invalidation failed",
			zap.String("company_id", companyID),
			zap.Error(err),
		)
	}
}

func mapToResponse(t LeaveType) LeaveTypeResponse {
	return LeaveTypeResponse{
		ID:                 t.ID.String(),
		CompanyID:          t.CompanyID.String(),
		Code:               t.Code,
		Name:               t.Name,
		Description:        t.Description,
		DefaultAnnualQuota: t.DefaultAnnualQuota.String(),
		MaxConsecutiveDays: t.MaxConsecutiveDays.String(),
		IsCarryForward:     t.IsCarryForward,
		RequiresApproval:   t.RequiresApproval,
		IsActive:           t.IsActive,
	}
}

func mapToListResponse(types []LeaveType) []LeaveTypeResponse {
	resp := make([]LeaveTypeResponse, len(types))
	for i, t := range types {
		resp[i] = mapToResponse(t)
	}
	return resp
}
