package leavebalance

import (
	"go-attend/internal/middleware"
	"go-attend/internal/rbac"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService rbac.Service,
) {
	balances := r.Group("/leave-balances")
	balances.Use(middleware.AuthMiddleware())
	{
		balances.GET("/me", handler.GetMine)
		balances.GET("/employees/:employee_id", middleware.RBACAuthorize(rbacService, "leave_balance", "read"), handler.GetByEmployee)
		balances.POST("/adjust", middleware.RBACAuthorize(rbacService, "leave_balance", "manage"), handler.Adjust)
		balances.POST("/carry-forward", middleware.RBACAuthorize(rbacService, "leave_balance", "manage"), handler.CarryForward)
	}
}
