package leaverequest_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go-attend/internal/leaverequest"
	leaverequesterrors "go-attend/internal/leaverequest/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fakeLeaveRequestService struct {
	CreateFn  func(ctx context.Context, companyID, actorID string, req leaverequest.CreateLeaveRequest) (leaverequest.LeaveRequestResponse, error)
	GetAllFn  func(ctx context.Context, companyID, actorID string, canReadAll bool) ([]leaverequest.LeaveRequestResponse, error)
	GetByIDFn func(ctx context.Context, companyID, id string) (leaverequest.LeaveRequestResponse, error)
	DecideFn  func(ctx context.Context, companyID, actorID, id string, req leaverequest.DecideLeaveRequest) (leaverequest.LeaveRequestResponse, error)
	CancelFn  func(ctx context.Context, companyID, actorID, id string, canManage bool) (leaverequest.LeaveRequestResponse, error)
	UpdateFn  func(ctx context.Context, companyID, actorID, id string, req leaverequest.UpdateLeaveRequest, canManage bool) (leaverequest.LeaveRequestResponse, error)
}

func (f *fakeLeaveRequestService) Create(ctx context.Context, companyID, actorID string, req leaverequest.CreateLeaveRequest) (leaverequest.LeaveRequestResponse, error) {
	return f.CreateFn(ctx, companyID, actorID, req)
}
func (f *fakeLeaveRequestService) GetAll(ctx context.Context, companyID, actorID string, canReadAll bool) ([]leaverequest.LeaveRequestResponse, error) {
	return f.GetAllFn(ctx, companyID, actorID, canReadAll)
}
func (f *fakeLeaveRequestService) GetByID(ctx context.Context, companyID, id string) (leaverequest.LeaveRequestResponse, error) {
	return f.GetByIDFn(ctx, companyID, id)
}
func (f *fakeLeaveRequestService) Decide(ctx context.Context, companyID, actorID, id string, req leaverequest.DecideLeaveRequest) (leaverequest.LeaveRequestResponse, error) {
	return f.DecideFn(ctx, companyID, actorID, id, req)
}
func (f *fakeLeaveRequestService) Cancel(ctx context.Context, companyID, actorID, id string, canManage bool) (leaverequest.LeaveRequestResponse, error) {
	return f.CancelFn(ctx, companyID, actorID, id, canManage)
}
func (f *fakeLeaveRequestService) Update(ctx context.Context, companyID, actorID, id string, req leaverequest.UpdateLeaveRequest, canManage bool) (leaverequest.LeaveRequestResponse, error) {
	return f.UpdateFn(ctx, companyID, actorID, id, req, canManage)
}

func newTestContext(w *httptest.ResponseRecorder, method, path, body string) (*gin.Context, string, string) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, path, strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	companyID := uuid.New().String()
	employeeID := uuid.New().String()
	c.Set("company_id", companyID)
	c.Set("employee_id", employeeID)
	return c, companyID, employeeID
}

func TestLeaveRequestHandler_Create(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		w := httptest.NewRecorder()
		body := `{"employee_id":"` + uuid.New().String() + `","leave_type_id":"` + uuid.New().String() + `","start_date":"2025-01-06","end_date":"2025-01-10","reason":"family"}`
		c, companyID, employeeID := newTestContext(w, http.MethodPost, "/leave-requests", body)

		svc := &fakeLeaveRequestService{
			CreateFn: func(ctx context.Context, cid, aid string, req leaverequest.CreateLeaveRequest) (leaverequest.LeaveRequestResponse, error) {
				assert.Equal(t, companyID, cid)
				assert.Equal(t, employeeID, aid)
				return leaverequest.LeaveRequestResponse{ID: uuid.New().String(), Status: leaverequest.StatusPending, Duration: "5"}, nil
			},
		}

		leaverequest.NewHandler(svc).Create(c)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), leaverequest.StatusPending)
	})

	t.Run("validation error", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _, _ := newTestContext(w, http.MethodPost, "/leave-requests", `{}`)

		leaverequest.NewHandler(&fakeLeaveRequestService{}).Create(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
	})

	t.Run("overlap maps to conflict", func(t *testing.T) {
		w := httptest.NewRecorder()
		body := `{"employee_id":"` + uuid.New().String() + `","leave_type_id":"` + uuid.New().String() + `","start_date":"2025-01-06","end_date":"2025-01-10","reason":"family"}`
		c, _, _ := newTestContext(w, http.MethodPost, "/leave-requests", body)

		svc := &fakeLeaveRequestService{
			CreateFn: func(ctx context.Context, cid, aid string, req leaverequest.CreateLeaveRequest) (leaverequest.LeaveRequestResponse, error) {
				return leaverequest.LeaveRequestResponse{}, leaverequesterrors.ErrLeaveOverlap
			},
		}

		leaverequest.NewHandler(svc).Create(c)

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestLeaveRequestHandler_Decide(t *testing.T) {
	t.Run("approve", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _, _ := newTestContext(w, http.MethodPost, "/leave-requests/abc/decision", `{"decision":"APPROVED"}`)
		c.Params = gin.Params{{Key: "id", Value: "abc"}}

		svc := &fakeLeaveRequestService{
			DecideFn: func(ctx context.Context, cid, aid, id string, req leaverequest.DecideLeaveRequest) (leaverequest.LeaveRequestResponse, error) {
				assert.Equal(t, "abc", id)
				assert.Equal(t, leaverequest.StatusApproved, req.Decision)
				return leaverequest.LeaveRequestResponse{ID: id, Status: leaverequest.StatusApproved}, nil
			},
		}

		leaverequest.NewHandler(svc).Decide(c)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("unknown decision is a binding error", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _, _ := newTestContext(w, http.MethodPost, "/leave-requests/abc/decision", `{"decision":"MAYBE"}`)
		c.Params = gin.Params{{Key: "id", Value: "abc"}}

		leaverequest.NewHandler(&fakeLeaveRequestService{}).Decide(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("already processed maps to conflict", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _, _ := newTestContext(w, http.MethodPost, "/leave-requests/abc/decision", `{"decision":"APPROVED"}`)
		c.Params = gin.Params{{Key: "id", Value: "abc"}}

		svc := &fakeLeaveRequestService{
			DecideFn: func(ctx context.Context, cid, aid, id string, req leaverequest.DecideLeaveRequest) (leaverequest.LeaveRequestResponse, error) {
				return leaverequest.LeaveRequestResponse{}, leaverequesterrors.ErrAlreadyProcessed
			},
		}

		leaverequest.NewHandler(svc).Decide(c)

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestLeaveRequestHandler_Cancel(t *testing.T) {
	t.Run("manager role grants manage rights", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _, _ := newTestContext(w, http.MethodPost, "/leave-requests/abc/cancel", "")
		c.Set("role", "HR")
		c.Params = gin.Params{{Key: "id", Value: "abc"}}

		svc := &fakeLeaveRequestService{
			CancelFn: func(ctx context.Context, cid, aid, id string, canManage bool) (leaverequest.LeaveRequestResponse, error) {
				assert.True(t, canManage)
				return leaverequest.LeaveRequestResponse{ID: id, Status: leaverequest.StatusCancelled}, nil
			},
		}

		leaverequest.NewHandler(svc).Cancel(c)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("plain employee has no manage rights", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _, _ := newTestContext(w, http.MethodPost, "/leave-requests/abc/cancel", "")
		c.Set("role", "EMPLOYEE")
		c.Params = gin.Params{{Key: "id", Value: "abc"}}

		svc := &fakeLeaveRequestService{
			CancelFn: func(ctx context.Context, cid, aid, id string, canManage bool) (leaverequest.LeaveRequestResponse, error) {
				assert.False(t, canManage)
				return leaverequest.LeaveRequestResponse{}, leaverequesterrors.ErrNotAuthorized
			},
		}

		leaverequest.NewHandler(svc).Cancel(c)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestLeaveRequestHandler_GetAll(t *testing.T) {
	t.Run("paginates the service result", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _, _ := newTestContext(w, http.MethodGet, "/leave-requests?page=2&page_size=2", "")
		c.Set("role", "ADMIN")

		rows := make([]leaverequest.LeaveRequestResponse, 5)
		for i := range rows {
			rows[i] = leaverequest.LeaveRequestResponse{ID: uuid.New().String(), Status: leaverequest.StatusPending}
		}
		svc := &fakeLeaveRequestService{
			GetAllFn: func(ctx context.Context, cid, aid string, canReadAll bool) ([]leaverequest.LeaveRequestResponse, error) {
				assert.True(t, canReadAll)
				return rows, nil
			},
		}

		leaverequest.NewHandler(svc).GetAll(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), rows[2].ID)
		assert.NotContains(t, w.Body.String(), rows[0].ID)
	})
}
