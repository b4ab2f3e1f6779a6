package leavebalanceerrors

import (
	"net/http"

	"go-attend/internal/shared/apperror"
)

var (
	ErrBalanceNotFound = apperror.New(
		apperror.CodeNotFound,
		"Leave balance not found",
		http.StatusNotFound,
	)
	ErrInsufficientBalance = apperror.New(
		apperror.CodeInsufficientBalance,
		"Not enough leave balance available",
		http.StatusUnprocessableEntity,
	)
	ErrBalanceConflict = apperror.New(
		apperror.CodeConflict,
		"Leave balance was modified concurrently, please retry",
		http.StatusConflict,
	)
	ErrInvalidAdjustment = apperror.New(
		apperror.CodeInvalidInput,
		"Adjustment would make the balance inconsistent",
		http.StatusBadRequest,
	)
	ErrInvalidAmount = apperror.New(
		apperror.CodeInvalidInput,
		"Amount must be a positive decimal number of days",
		http.StatusBadRequest,
	)
	ErrInvalidYear = apperror.New(
		apperror.CodeInvalidInput,
		"Invalid year",
		http.StatusBadRequest,
	)
	ErrCarryForwardNotAllowed = apperror.New(
		apperror.CodeInvalidState,
		"This leave type does not allow carrying forward",
		http.StatusBadRequest,
	)
)
