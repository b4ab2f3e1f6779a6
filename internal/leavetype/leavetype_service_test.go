package leavetype_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"go-attend/internal/leavetype"
	leavetypeerrors "go-attend/internal/leavetype/errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type fakeLeaveTypeRepository struct {
	types map[uuid.UUID]*leavetype.LeaveType

	createErr error
	findCalls int
}

func newFakeLeaveTypeRepository() *fakeLeaveTypeRepository {
	return &fakeLeaveTypeRepository{types: map[uuid.UUID]*leavetype.LeaveType{}}
}

func (f *fakeLeaveTypeRepository) WithTx(tx *sql.Tx) leavetype.Repository { return f }

func (f *fakeLeaveTypeRepository) Create(ctx context.Context, lt *leavetype.LeaveType) error {
	if f.createErr != nil {
		return f.createErr
	}
	cp := *lt
	f.types[lt.ID] = &cp
	return nil
}

func (f *fakeLeaveTypeRepository) FindAllByCompany(ctx context.Context, companyID string) ([]leavetype.LeaveType, error) {
	f.findCalls++
	var out []leavetype.LeaveType
	for _, lt := range f.types {
		if lt.CompanyID.String() == companyID {
			out = append(out, *lt)
		}
	}
	return out, nil
}

func (f *fakeLeaveTypeRepository) FindByIDAndCompany(ctx context.Context, companyID string, id string) (*leavetype.LeaveType, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, gorm.ErrRecordNotFound
	}
	lt, ok := f.types[uid]
	if !ok || lt.CompanyID.String() != companyID {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *lt
	return &cp, nil
}

func (f *fakeLeaveTypeRepository) FindActiveByCompany(ctx context.Context, companyID string) ([]leavetype.LeaveType, error) {
	var out []leavetype.LeaveType
	for _, lt := range f.types {
		if lt.CompanyID.String() == companyID && lt.IsActive {
			out = append(out, *lt)
		}
	}
	return out, nil
}

func (f *fakeLeaveTypeRepository) Update(ctx context.Context, lt *leavetype.LeaveType) error {
	cp := *lt
	f.types[lt.ID] = &cp
	return nil
}

func (f *fakeLeaveTypeRepository) Delete(ctx context.Context, companyID string, id string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return gorm.ErrRecordNotFound
	}
	lt, ok := f.types[uid]
	if !ok || lt.CompanyID.String() != companyID {
		return gorm.ErrRecordNotFound
	}
	delete(f.types, uid)
	return nil
}

func seedLeaveType(repo *fakeLeaveTypeRepository, companyID uuid.UUID, code string, active bool) *leavetype.LeaveType {
	lt := &leavetype.LeaveType{
		ID:                 uuid.New(),
		CompanyID:          companyID,
		Code:               code,
		Name:               code + " leave",
		DefaultAnnualQuota: decimal.RequireFromString("12"),
		RequiresApproval:   true,
		IsActive:           active,
	}
	repo.types[lt.ID] = lt
	return lt
}

func TestLeaveTypeService_Create(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New()

	t.Run("success invalidates the list cache", func(t *testing.T) {
		db, sqlMock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		rdb, redisMock := redismock.NewClientMock()
		repo := newFakeLeaveTypeRepository()
		svc := leavetype.NewService(db, repo, rdb)

		sqlMock.ExpectBegin()
		sqlMock.ExpectCommit()
		redisMock.ExpectDel(leavetype.GetLeaveTypeListKey(companyID.String())).SetVal(1)

		resp, err := svc.Create(ctx, companyID.String(), leavetype.CreateLeaveTypeRequest{
			Code:               "AL",
			Name:               "Annual Leave",
			DefaultAnnualQuota: "20",
		})
		assert.NoError(t, err)
		assert.Equal(t, "AL", resp.Code)
		assert.Equal(t, "20", resp.DefaultAnnualQuota)
		assert.True(t, resp.RequiresApproval)
		assert.True(t, resp.IsActive)
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("negative quota is rejected", func(t *testing.T) {
		db, _, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		svc := leavetype.NewService(db, newFakeLeaveTypeRepository(), nil)

		_, err = svc.Create(ctx, companyID.String(), leavetype.CreateLeaveTypeRequest{
			Code:               "AL",
			Name:               "Annual Leave",
			DefaultAnnualQuota: "-3",
		})
		assert.ErrorIs(t, err, leavetypeerrors.ErrInvalidQuota)
	})

	t.Run("duplicate code maps to a conflict", func(t *testing.T) {
		db, sqlMock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		repo := newFakeLeaveTypeRepository()
		repo.createErr = errDuplicateCode{}
		svc := leavetype.NewService(db, repo, nil)

		sqlMock.ExpectBegin()
		sqlMock.ExpectRollback()

		_, err = svc.Create(ctx, companyID.String(), leavetype.CreateLeaveTypeRequest{
			Code:               "AL",
			Name:               "Annual Leave",
			DefaultAnnualQuota: "20",
		})
		assert.ErrorIs(t, err, leavetypeerrors.ErrLeaveTypeCodeTaken)
	})
}

type errDuplicateCode struct{}

func (errDuplicateCode) Error() string {
	return `ERROR: duplicate key value violates unique constraint "uq_leave_type_code" (SQLSTATE 23505)`
}

func TestLeaveTypeService_GetAll(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New()

	t.Run("cache miss loads from the repository and caches", func(t *testing.T) {
		db, _, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		rdb, redisMock := redismock.NewClientMock()
		repo := newFakeLeaveTypeRepository()
		seedLeaveType(repo, companyID, "AL", true)
		svc := leavetype.NewService(db, repo, rdb)

		key := leavetype.GetLeaveTypeListKey(companyID.String())
		redisMock.ExpectGet(key).RedisNil()
		redisMock.Regexp().ExpectSet(key, `.*"code":"AL".*`, 30*time.Minute).SetVal("OK")

		resp, err := svc.GetAll(ctx, companyID.String())
		assert.NoError(t, err)
		assert.Len(t, resp, 1)
		assert.Equal(t, "AL", resp[0].Code)
		assert.Equal(t, 1, repo.findCalls)
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("cache hit never touches the repository", func(t *testing.T) {
		db, _, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		rdb, redisMock := redismock.NewClientMock()
		repo := newFakeLeaveTypeRepository()
		svc := leavetype.NewService(db, repo, rdb)

		cached := []leavetype.LeaveTypeResponse{{
			ID:        uuid.New().String(),
			CompanyID: companyID.String(),
			Code:      "SL",
			Name:      "Sick Leave",
		}}
		payload, err := json.Marshal(cached)
		assert.NoError(t, err)
		redisMock.ExpectGet(leavetype.GetLeaveTypeListKey(companyID.String())).SetVal(string(payload))

		resp, err := svc.GetAll(ctx, companyID.String())
		assert.NoError(t, err)
		assert.Len(t, resp, 1)
		assert.Equal(t, "SL", resp[0].Code)
		assert.Equal(t, 0, repo.findCalls)
	})
}

func TestLeaveTypeService_GetPolicy(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New()

	db, _, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := newFakeLeaveTypeRepository()
	active := seedLeaveType(repo, companyID, "AL", true)
	inactive := seedLeaveType(repo, companyID, "OLD", false)
	svc := leavetype.NewService(db, repo, nil)

	t.Run("active type yields its policy", func(t *testing.T) {
		policy, err := svc.GetPolicy(ctx, companyID.String(), active.ID.String())
		assert.NoError(t, err)
		assert.Equal(t, "AL", policy.Code)
		assert.Equal(t, "12", policy.DefaultAnnualQuota.String())
	})

	t.Run("inactive type reads as not found", func(t *testing.T) {
		_, err := svc.GetPolicy(ctx, companyID.String(), inactive.ID.String())
		assert.ErrorIs(t, err, leavetypeerrors.ErrLeaveTypeNotFound)
	})

	t.Run("unknown id reads as not found", func(t *testing.T) {
		_, err := svc.GetPolicy(ctx, companyID.String(), uuid.New().String())
		assert.ErrorIs(t, err, leavetypeerrors.ErrLeaveTypeNotFound)
	})

	t.Run("inactive types are excluded from active policies", func(t *testing.T) {
		policies, err := svc.ListActivePolicies(ctx, companyID.String())
		assert.NoError(t, err)
		assert.Len(t, policies, 1)
		assert.Equal(t, "AL", policies[0].Code)
	})
}

func TestLeaveTypeService_Update(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New()

	t.Run("deactivating a type invalidates the cache", func(t *testing.T) {
		db, sqlMock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		rdb, redisMock := redismock.NewClientMock()
		repo := newFakeLeaveTypeRepository()
		lt := seedLeaveType(repo, companyID, "AL", true)
		svc := leavetype.NewService(db, repo, rdb)

		sqlMock.ExpectBegin()
		sqlMock.ExpectCommit()
		redisMock.ExpectDel(leavetype.GetLeaveTypeListKey(companyID.String())).SetVal(1)

		inactive := false
		resp, err := svc.Update(ctx, companyID.String(), lt.ID.String(), leavetype.UpdateLeaveTypeRequest{
			Name:               "Annual Leave",
			DefaultAnnualQuota: "18",
			IsActive:           &inactive,
		})
		assert.NoError(t, err)
		assert.False(t, resp.IsActive)
		assert.Equal(t, "18", resp.DefaultAnnualQuota)
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("unknown id reads as not found", func(t *testing.T) {
		db, sqlMock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		svc := leavetype.NewService(db, newFakeLeaveTypeRepository(), nil)

		sqlMock.ExpectBegin()
		sqlMock.ExpectRollback()

		_, err = svc.Update(ctx, companyID.String(), uuid.New().String(), leavetype.UpdateLeaveTypeRequest{
			Name:               "Annual Leave",
			DefaultAnnualQuota: "18",
		})
		assert.ErrorIs(t, err, leavetypeerrors.ErrLeaveTypeNotFound)
	})
}

func TestLeaveTypeService_Delete(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New()

	db, sqlMock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := newFakeLeaveTypeRepository()
	lt := seedLeaveType(repo, companyID, "AL", true)
	svc := leavetype.NewService(db, repo, nil)

	sqlMock.ExpectBegin()
	sqlMock.ExpectCommit()
	assert.NoError(t, svc.Delete(ctx, companyID.String(), lt.ID.String()))

	sqlMock.ExpectBegin()
	sqlMock.ExpectRollback()
	err = svc.Delete(ctx, companyID.String(), lt.ID.String())
	assert.ErrorIs(t, err, leavetypeerrors.ErrLeaveTypeNotFound)
}
