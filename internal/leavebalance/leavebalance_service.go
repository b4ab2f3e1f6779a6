package leavebalance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	leavebalanceerrors "go-attend/internal/leavebalance/errors"
	"go-attend/internal/leavetype"
	"go-attend/internal/shared/contextutil"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

// maxSwapAttempts bounds the optimistic retry loop. Losing three swaps in a
// row means real contention; the caller gets a retryable conflict.
const maxSwapAttempts = 3

const BalancesKeyPrefix = "leave_balances:"

func GetBalancesKey(companyID, employeeID string, year int) string {
	return fmt.Sprintf("%s%s:%s:%d", BalancesKeyPrefix, companyID, employeeID, year)
}

// PolicyProvider is the slice of the leave type service the ledger needs.
type PolicyProvider interface {
	GetPolicy(ctx context.Context, companyID, leaveTypeID string) (leavetype.Policy, error)
	ListActivePolicies(ctx context.Context, companyID string) ([]leavetype.Policy, error)
}

//go:generate mockgen -source=leavebalance_service.go -destination=mock/leavebalance_service_mock.go -package=mock
type Service interface {
	GetOrCreate(ctx context.Context, companyID, employeeID, leaveTypeID string, year int) (*LeaveBalance, error)
	Reserve(ctx context.Context, companyID, employeeID, leaveTypeID string, year int, days decimal.Decimal) (*LeaveBalance, error)
	Commit(ctx context.Context, companyID, employeeID, leaveTypeID string, year int, days decimal.Decimal) (*LeaveBalance, error)
	Release(ctx context.Context, companyID, employeeID, leaveTypeID string, year int, days decimal.Decimal) (*LeaveBalance, error)
	Revoke(ctx context.Context, companyID, employeeID, leaveTypeID string, year int, days decimal.Decimal) (*LeaveBalance, error)
	Reinstate(ctx context.Context, companyID, employeeID, leaveTypeID string, year int, days decimal.Decimal) (*LeaveBalance, error)
	Adjust(ctx context.Context, companyID string, req AdjustBalanceRequest) (BalanceResponse, error)
	GetBalances(ctx context.Context, companyID, employeeID string, year int) ([]BalanceResponse, error)
	CarryForward(ctx context.Context, companyID string, req CarryForwardRequest) (BalanceResponse, error)
}

type service struct {
	repo     Repository
	policies PolicyProvider
	rdb      *redis.Client
	sf       *singleflight.Group
	logger   *zap.Logger
}

func NewService(repo Repository, policies PolicyProvider, rdb *redis.Client, logger ...*zap.Logger) Service {
	l := zap.L().Named("leavebalance.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leavebalance.service")
	}
	return &service{
		repo:     repo,
		policies: policies,
		rdb:      rdb,
		sf:       &singleflight.Group{},
		logger:   l,
	}
}

func (s *service) GetOrCreate(ctx context.Context, companyID, employeeID, leaveTypeID string, year int) (*LeaveBalance, error) {
	b, err := s.repo.Find(ctx, companyID, employeeID, leaveTypeID, year)
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	policy, err := s.policies.GetPolicy(ctx, companyID, leaveTypeID)
	if err != nil {
		return nil, err
	}

	fresh := &LeaveBalance{
		ID:             uuid.New(),
		CompanyID:      uuid.MustParse(companyID),
		EmployeeID:     uuid.MustParse(employeeID),
		LeaveTypeID:    uuid.MustParse(leaveTypeID),
		Year:           year,
		Allocated:      policy.DefaultAnnualQuota,
		CarriedForward: decimal.Zero,
		Used:           decimal.Zero,
		Pending:        decimal.Zero,
		Version:        1,
	}

	if err := s.repo.Create(ctx, fresh); err != nil {
		// A concurrent caller may have inserted the same row first; the
		// unique index turns that race into a re-read.
		if isUniqueViolation(err) {
			return s.repo.Find(ctx, companyID, employeeID, leaveTypeID, year)
		}
		return nil, err
	}

	s.logger.Info("leave balance created",
		zap.String("request_id", contextutil.GetRequestID(ctx)),
		zap.String("employee_id", employeeID),
		zap.String("leave_type_id", leaveTypeID),
		zap.Int("year", year),
		zap.String("allocated", fresh.Allocated.String()),
	)

	s.invalidateBalancesCache(ctx, companyID, employeeID, year)
	return fresh, nil
}

// mutate runs one ledger operation as a bounded optimistic swap cycle:
// read the row, apply fn, verify invariants, write conditionally on the
// version read. fn returning an error aborts without retrying.
func (s *service) mutate(
	ctx context.Context,
	companyID, employeeID, leaveTypeID string,
	year int,
	fn func(b *LeaveBalance) error,
) (*LeaveBalance, error) {
	for attempt := 0; attempt < maxSwapAttempts; attempt++ {
		b, err := s.GetOrCreate(ctx, companyID, employeeID, leaveTypeID, year)
		if err != nil {
			return nil, err
		}

		readVersion := b.Version
		if err := fn(b); err != nil {
			return nil, err
		}
		if err := b.checkInvariants(); err != nil {
			return nil, err
		}

		ok, err := s.repo.UpdateCounters(ctx, b, readVersion)
		if err != nil {
			return nil, err
		}
		if ok {
			s.invalidateBalancesCache(ctx, companyID, employeeID, year)
			return b, nil
		}

		s.logger.Debug("leave balance swap lost, retrying",
			zap.String("balance_id", b.ID.String()),
			zap.Int("attempt", attempt+1),
		)
	}

	s.logger.Warn("leave balance swap attempts exhausted",
		zap.String("employee_id", employeeID),
		zap.String("leave_type_id", leaveTypeID),
		zap.Int("year", year),
	)
	return nil, leavebalanceerrors.ErrBalanceConflict
}

func (s *service) Reserve(ctx context.Context, companyID, employeeID, leaveTypeID string, year int, days decimal.Decimal) (*LeaveBalance, error) {
	if !days.IsPositive() {
		return nil, leavebalanceerrors.ErrInvalidAmount
	}
	return s.mutate(ctx, companyID, employeeID, leaveTypeID, year, func(b *LeaveBalance) error {
		if days.GreaterThan(b.Available()) {
			return leavebalanceerrors.ErrInsufficientBalance
		}
		b.Pending = b.Pending.Add(days)
		return nil
	})
}

func (s *service) Commit(ctx context.Context, companyID, employeeID, leaveTypeID string, year int, days decimal.Decimal) (*LeaveBalance, error) {
	if !days.IsPositive() {
		return nil, leavebalanceerrors.ErrInvalidAmount
	}
	return s.mutate(ctx, companyID, employeeID, leaveTypeID, year, func(b *LeaveBalance) error {
		b.Pending = clampZero(b.Pending.Sub(days))
		b.Used = b.Used.Add(days)
		return nil
	})
}

func (s *service) Release(ctx context.Context, companyID, employeeID, leaveTypeID string, year int, days decimal.Decimal) (*LeaveBalance, error) {
	if !days.IsPositive() {
		return nil, leavebalanceerrors.ErrInvalidAmount
	}
	return s.mutate(ctx, companyID, employeeID, leaveTypeID, year, func(b *LeaveBalance) error {
		b.Pending = clampZero(b.Pending.Sub(days))
		return nil
	})
}

func (s *service) Revoke(ctx context.Context, companyID, employeeID, leaveTypeID string, year int, days decimal.Decimal) (*LeaveBalance, error) {
	if !days.IsPositive() {
		return nil, leavebalanceerrors.ErrInvalidAmount
	}
	return s.mutate(ctx, companyID, employeeID, leaveTypeID, year, func(b *LeaveBalance) error {
		b.Used = clampZero(b.Used.Sub(days))
		return nil
	})
}

// Reinstate adds days back to used without touching pending. It is the exact
// inverse of Revoke; Commit is not, because Commit drains pending, which may
// be backing another request's reservation.
func (s *service) Reinstate(ctx context.Context, companyID, employeeID, leaveTypeID string, year int, days decimal.Decimal) (*LeaveBalance, error) {
	if !days.IsPositive() {
		return nil, leavebalanceerrors.ErrInvalidAmount
	}
	return s.mutate(ctx, companyID, employeeID, leaveTypeID, year, func(b *LeaveBalance) error {
		if days.GreaterThan(b.Entitlement().Sub(b.Used).Sub(b.Pending)) {
			return leavebalanceerrors.ErrInvalidAdjustment
		}
		b.Used = b.Used.Add(days)
		return nil
	})
}

func (s *service) Adjust(ctx context.Context, companyID string, req AdjustBalanceRequest) (BalanceResponse, error) {
	if req.Year < 2000 || req.Year > 2200 {
		return BalanceResponse{}, leavebalanceerrors.ErrInvalidYear
	}

	var allocated, carried *decimal.Decimal
	if req.Allocated != nil {
		d, err := decimal.NewFromString(*req.Allocated)
		if err != nil || d.IsNegative() {
			return BalanceResponse{}, leavebalanceerrors.ErrInvalidAmount
		}
		allocated = &d
	}
	if req.CarriedForward != nil {
		d, err := decimal.NewFromString(*req.CarriedForward)
		if err != nil || d.IsNegative() {
			return BalanceResponse{}, leavebalanceerrors.ErrInvalidAmount
		}
		carried = &d
	}

	b, err := s.mutate(ctx, companyID, req.EmployeeID, req.LeaveTypeID, req.Year, func(b *LeaveBalance) error {
		if allocated != nil {
			b.Allocated = *allocated
		}
		if carried != nil {
			b.CarriedForward = *carried
		}
		return nil
	})
	if err != nil {
		return BalanceResponse{}, err
	}

	s.logger.Info("leave balance adjusted",
		zap.String("request_id", contextutil.GetRequestID(ctx)),
		zap.String("balance_id", b.ID.String()),
		zap.String("allocated", b.Allocated.String()),
		zap.String("carried_forward", b.CarriedForward.String()),
	)

	return mapToResponse(*b, ""), nil
}

// GetBalances returns one row per active leave type. Types the employee has
// never touched get a virtual row seeded from the type's default quota; the
// virtual row is not persisted and carries no ID.
func (s *service) GetBalances(ctx context.Context, companyID, employeeID string, year int) ([]BalanceResponse, error) {
	cacheKey := GetBalancesKey(companyID, employeeID, year)

	if s.rdb != nil {
		cached, err := s.rdb.Get(ctx, cacheKey).Result()
		if err == nil {
			var resp []BalanceResponse
			if err := json.Unmarshal([]byte(cached), &resp); err == nil {
				return resp, nil
			}
		}
	}

	v, err, _ := s.sf.Do(cacheKey, func() (interface{}, error) {
		policies, err := s.policies.ListActivePolicies(ctx, companyID)
		if err != nil {
			return nil, err
		}

		balances, err := s.repo.FindAllByEmployeeYear(ctx, companyID, employeeID, year)
		if err != nil {
			return nil, err
		}

		byType := make(map[uuid.UUID]LeaveBalance, len(balances))
		for _, b := range balances {
			byType[b.LeaveTypeID] = b
		}

		resp := make([]BalanceResponse, 0, len(policies))
		for _, p := range policies {
			if b, ok := byType[p.LeaveTypeID]; ok {
				resp = append(resp, mapToResponse(b, p.Code))
				continue
			}
			virtual := LeaveBalance{
				EmployeeID:  uuid.MustParse(employeeID),
				LeaveTypeID: p.LeaveTypeID,
				Year:        year,
				Allocated:   p.DefaultAnnualQuota,
			}
			resp = append(resp, mapToResponse(virtual, p.Code))
		}

		if s.rdb != nil {
			if jsonData, err := json.Marshal(resp); err == nil {
				s.rdb.Set(ctx, cacheKey, jsonData, 5*time.Minute)
			}
		}

		return resp, nil
	})
	if err != nil {
		return nil, err
	}

	return v.([]BalanceResponse), nil
}

// CarryForward moves what is left of a carry-forward type's balance into the
// following year's carried_forward bucket. The source year is left as-is;
// requests always draw from the year their start date falls in, so a closed
// year cannot be double-spent.
func (s *service) CarryForward(ctx context.Context, companyID string, req CarryForwardRequest) (BalanceResponse, error) {
	policy, err := s.policies.GetPolicy(ctx, companyID, req.LeaveTypeID)
	if err != nil {
		return BalanceResponse{}, err
	}
	if !policy.IsCarryForward {
		return BalanceResponse{}, leavebalanceerrors.ErrCarryForwardNotAllowed
	}

	source, err := s.repo.Find(ctx, companyID, req.EmployeeID, req.LeaveTypeID, req.FromYear)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return BalanceResponse{}, leavebalanceerrors.ErrBalanceNotFound
		}
		return BalanceResponse{}, err
	}

	remaining := source.Available()
	if !remaining.IsPositive() {
		return BalanceResponse{}, leavebalanceerrors.ErrInvalidAmount
	}

	target, err := s.mutate(ctx, companyID, req.EmployeeID, req.LeaveTypeID, req.FromYear+1, func(b *LeaveBalance) error {
		b.CarriedForward = b.CarriedForward.Add(remaining)
		return nil
	})
	if err != nil {
		return BalanceResponse{}, err
	}

	s.logger.Info("leave balance carried forward",
		zap.String("employee_id", req.EmployeeID),
		zap.String("leave_type_id", req.LeaveTypeID),
		zap.Int("from_year", req.FromYear),
		zap.String("amount", remaining.String()),
	)

	return mapToResponse(*target, policy.Code), nil
}

func (s *service) invalidateBalancesCache(ctx context.Context, companyID, employeeID string, year int) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, GetBalancesKey(companyID, employeeID, year)).Err(); err != nil {
		s.logger.Warn("leave balance cache invalidation failed",
			zap.String("employee_id", employeeID),
			zap.Error(err),
		)
	}
}

func clampZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "duplicate key value")
}

func mapToResponse(b LeaveBalance, code string) BalanceResponse {
	id := ""
	if b.ID != uuid.Nil {
		id = b.ID.String()
	}
	return BalanceResponse{
		ID:             id,
		EmployeeID:     b.EmployeeID.String(),
		LeaveTypeID:    b.LeaveTypeID.String(),
		LeaveTypeCode:  code,
		Year:           b.Year,
		Allocated:      b.Allocated.String(),
		CarriedForward: b.CarriedForward.String(),
		Used:           b.Used.String(),
		Pending:        b.Pending.String(),
		Available:      b.Available().String(),
	}
}
