package app

import (
	"os"

	"go-attend/internal/attendance"
	"go-attend/internal/auth"
	"go-attend/internal/department"
	"go-attend/internal/employee"
	"go-attend/internal/leavebalance"
	"go-attend/internal/leaverequest"
	"go-attend/internal/leavetype"
	"go-attend/internal/messaging/kafka"
	"go-attend/internal/middleware"
	"go-attend/internal/rbac"
	"go-attend/internal/shared/connection"
	"go-attend/internal/shared/counter"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// BuildApp wires infrastructure, runs migrations and registers every module
// on the router.
func BuildApp(router *gin.Engine) error {
	gormDB, err := connection.ConnectGORMWithRetry(
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_SSLMODE"),
		5,
	)
	if err != nil {
		return err
	}
	zap.L().Info("database connection established")

	if err := migrate(gormDB); err != nil {
		return err
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}

	redisClient, err := connection.ConnectRedisWithRetry(os.Getenv("REDIS_ADDR"), 5)
	if err != nil {
		return err
	}
	zap.L().Info("redis connection established")

	router.Use(middleware.RequestID())
	router.Use(middleware.ContextLogger(zap.L()))

	return registerModules(router, sqlDB, gormDB, redisClient)
}

func migrate(gormDB *gorm.DB) error {
	return gormDB.AutoMigrate(
		&auth.User{},
		&department.Department{},
		&employee.Employee{},
		&leavetype.LeaveType{},
		&leavebalance.LeaveBalance{},
		&leaverequest.LeaveRequest{},
		&attendance.Attendance{},
		&counter.CompanyCounter{},
		&kafka.OutboxEventModel{},
		&rbac.RoleRow{},
		&rbac.PermissionRow{},
		&rbac.EmployeeRoleRow{},
		&rbac.RolePermissionRow{},
	)
}
