package leavetypeerrors

import (
	"net/http"

	"go-attend/internal/shared/apperror"
)

var (
	ErrLeaveTypeNotFound = apperror.New(
		apperror.CodeNotFound,
		"Leave type not found",
		http.StatusNotFound,
	)
	ErrLeaveTypeCodeTaken = apperror.New(
		apperror.CodeConflict,
		"Leave type code already exists in this company",
		http.StatusConflict,
	)
	ErrInvalidCompanyID = apperror.New(
		apperror.CodeInvalidInput,
		"Invalid company ID",
		http.StatusBadRequest,
	)
	ErrInvalidQuota = apperror.New(
		apperror.CodeInvalidInput,
		"Quota must be a non-negative decimal number of days",
		http.StatusBadRequest,
	)
)
