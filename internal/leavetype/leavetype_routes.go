package leavetype

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
	leaveTypes := r.Group("/leave-types")
	leaveTypes.Use(middleware.AuthMiddleware())
	{
		leaveTypes.GET("", middleware.RBACAuthorize(rbacService, "leave_type", "read"), handler.GetAll)
		leaveTypes.GET("/:id", middleware.RBACAuthorize(rbacService, "leave_type", "read"), handler.GetByID)
		leaveTypes.POST("", middleware.RBACAuthorize(rbacService, "leave_type", "create"), handler.Create)
		leaveTypes.PUT("/:id", middleware.RBACAuthorize(rbacService, "leave_type", "update"), handler.Update)
		leaveTypes.DELETE("/:id", middleware.RBACAuthorize(rbacService, "leave_type", "delete"), handler.Delete)
	}
}
